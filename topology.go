package railtopo

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const defaultCreatedWith = "unknown"

// Topology owns nodes, edges and dependent objects of railway network.
// Collections keep insertion order
type Topology struct {
	ID          string
	Name        string
	CreatedAt   time.Time
	CreatedWith string

	mu              sync.RWMutex
	nodes           map[string]*Node
	nodesOrder      []string
	edges           map[string]*Edge
	edgesOrder      []string
	signals         map[string]*Signal
	signalsOrder    []string
	routes          map[string]*Route
	routesOrder     []string
	vacancySections map[string]*VacancySection
	sectionsOrder   []string
}

func NewTopology(options ...func(*Topology)) *Topology {
	topology := &Topology{
		ID:              uuid.NewString(),
		CreatedAt:       time.Now(),
		CreatedWith:     defaultCreatedWith,
		nodes:           make(map[string]*Node),
		edges:           make(map[string]*Edge),
		signals:         make(map[string]*Signal),
		routes:          make(map[string]*Route),
		vacancySections: make(map[string]*VacancySection),
	}
	for _, option := range options {
		option(topology)
	}
	return topology
}

func WithTopologyID(id string) func(*Topology) {
	return func(topology *Topology) {
		topology.ID = id
	}
}

func WithTopologyName(name string) func(*Topology) {
	return func(topology *Topology) {
		topology.Name = name
	}
}

func WithCreatedWith(tool string) func(*Topology) {
	return func(topology *Topology) {
		topology.CreatedWith = tool
	}
}

func WithCreatedAt(at time.Time) func(*Topology) {
	return func(topology *Topology) {
		topology.CreatedAt = at
	}
}

// AddNode adds node. Node with the same ID gets replaced
func (topology *Topology) AddNode(node *Node) {
	topology.mu.Lock()
	defer topology.mu.Unlock()
	topology.addNode(node)
}

func (topology *Topology) addNode(node *Node) {
	if _, ok := topology.nodes[node.ID]; !ok {
		topology.nodesOrder = append(topology.nodesOrder, node.ID)
	}
	topology.nodes[node.ID] = node
}

func (topology *Topology) AddNodes(nodes ...*Node) {
	topology.mu.Lock()
	defer topology.mu.Unlock()
	for _, node := range nodes {
		topology.addNode(node)
	}
}

// AddEdge adds edge. Both endpoints must be in topology already
func (topology *Topology) AddEdge(edge *Edge) error {
	topology.mu.Lock()
	defer topology.mu.Unlock()
	return topology.addEdge(edge)
}

func (topology *Topology) addEdge(edge *Edge) error {
	for _, node := range []*Node{edge.NodeA, edge.NodeB} {
		if known, ok := topology.nodes[node.ID]; !ok || known != node {
			return errors.Wrapf(ErrReference, "edge '%s' references node '%s' which is not in topology", edge.ID, node.ID)
		}
	}
	if _, ok := topology.edges[edge.ID]; !ok {
		topology.edgesOrder = append(topology.edgesOrder, edge.ID)
	}
	topology.edges[edge.ID] = edge
	return nil
}

// AddEdges adds edges until first failure
func (topology *Topology) AddEdges(edges ...*Edge) error {
	topology.mu.Lock()
	defer topology.mu.Unlock()
	for _, edge := range edges {
		if err := topology.addEdge(edge); err != nil {
			return err
		}
	}
	return nil
}

// AddSignal adds signal. Its edge must be in topology already
func (topology *Topology) AddSignal(signal *Signal) error {
	topology.mu.Lock()
	defer topology.mu.Unlock()
	return topology.addSignal(signal)
}

func (topology *Topology) addSignal(signal *Signal) error {
	if signal.Edge == nil {
		return errors.Wrapf(ErrReference, "signal '%s' is not placed on edge", signal.ID)
	}
	if known, ok := topology.edges[signal.Edge.ID]; !ok || known != signal.Edge {
		return errors.Wrapf(ErrReference, "signal '%s' references edge '%s' which is not in topology", signal.ID, signal.Edge.ID)
	}
	if _, ok := topology.signals[signal.ID]; !ok {
		topology.signalsOrder = append(topology.signalsOrder, signal.ID)
	}
	topology.signals[signal.ID] = signal
	return nil
}

func (topology *Topology) AddSignals(signals ...*Signal) error {
	topology.mu.Lock()
	defer topology.mu.Unlock()
	for _, signal := range signals {
		if err := topology.addSignal(signal); err != nil {
			return err
		}
	}
	return nil
}

// AddRoute adds route. Its signals must be in topology already
func (topology *Topology) AddRoute(route *Route) error {
	topology.mu.Lock()
	defer topology.mu.Unlock()
	return topology.addRoute(route)
}

func (topology *Topology) addRoute(route *Route) error {
	for _, signal := range []*Signal{route.StartSignal, route.EndSignal} {
		if signal == nil {
			continue
		}
		if _, ok := topology.signals[signal.ID]; !ok {
			return errors.Wrapf(ErrReference, "route '%s' references signal '%s' which is not in topology", route.ID, signal.ID)
		}
	}
	for _, edge := range route.Edges {
		if _, ok := topology.edges[edge.ID]; !ok {
			return errors.Wrapf(ErrReference, "route '%s' references edge '%s' which is not in topology", route.ID, edge.ID)
		}
	}
	if _, ok := topology.routes[route.ID]; !ok {
		topology.routesOrder = append(topology.routesOrder, route.ID)
	}
	topology.routes[route.ID] = route
	return nil
}

func (topology *Topology) AddRoutes(routes ...*Route) error {
	topology.mu.Lock()
	defer topology.mu.Unlock()
	for _, route := range routes {
		if err := topology.addRoute(route); err != nil {
			return err
		}
	}
	return nil
}

func (topology *Topology) AddVacancySection(section *VacancySection) {
	topology.mu.Lock()
	defer topology.mu.Unlock()
	topology.addVacancySection(section)
}

func (topology *Topology) addVacancySection(section *VacancySection) {
	if _, ok := topology.vacancySections[section.ID]; !ok {
		topology.sectionsOrder = append(topology.sectionsOrder, section.ID)
	}
	topology.vacancySections[section.ID] = section
}

func (topology *Topology) AddVacancySections(sections ...*VacancySection) {
	topology.mu.Lock()
	defer topology.mu.Unlock()
	for _, section := range sections {
		topology.addVacancySection(section)
	}
}

// RemoveEdge removes edge and detaches it from its nodes. Signals of edge are removed too
func (topology *Topology) RemoveEdge(edge *Edge) {
	topology.mu.Lock()
	defer topology.mu.Unlock()
	if _, ok := topology.edges[edge.ID]; !ok {
		return
	}
	delete(topology.edges, edge.ID)
	topology.edgesOrder = removeID(topology.edgesOrder, edge.ID)
	for _, signal := range edge.Signals {
		delete(topology.signals, signal.ID)
		topology.signalsOrder = removeID(topology.signalsOrder, signal.ID)
	}
	edge.NodeA.DetachEdge(edge)
	edge.NodeB.DetachEdge(edge)
}

func removeID(ids []string, id string) []string {
	for i := range ids {
		if ids[i] == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

func (topology *Topology) Node(id string) (*Node, bool) {
	topology.mu.RLock()
	defer topology.mu.RUnlock()
	node, ok := topology.nodes[id]
	return node, ok
}

func (topology *Topology) Edge(id string) (*Edge, bool) {
	topology.mu.RLock()
	defer topology.mu.RUnlock()
	edge, ok := topology.edges[id]
	return edge, ok
}

func (topology *Topology) Signal(id string) (*Signal, bool) {
	topology.mu.RLock()
	defer topology.mu.RUnlock()
	signal, ok := topology.signals[id]
	return signal, ok
}

func (topology *Topology) Route(id string) (*Route, bool) {
	topology.mu.RLock()
	defer topology.mu.RUnlock()
	route, ok := topology.routes[id]
	return route, ok
}

func (topology *Topology) VacancySection(id string) (*VacancySection, bool) {
	topology.mu.RLock()
	defer topology.mu.RUnlock()
	section, ok := topology.vacancySections[id]
	return section, ok
}

// HasNode reports whether exactly this node instance belongs to topology
func (topology *Topology) HasNode(node *Node) bool {
	known, ok := topology.Node(node.ID)
	return ok && known == node
}

func (topology *Topology) Nodes() []*Node {
	topology.mu.RLock()
	defer topology.mu.RUnlock()
	nodes := make([]*Node, 0, len(topology.nodesOrder))
	for _, id := range topology.nodesOrder {
		nodes = append(nodes, topology.nodes[id])
	}
	return nodes
}

func (topology *Topology) Edges() []*Edge {
	topology.mu.RLock()
	defer topology.mu.RUnlock()
	edges := make([]*Edge, 0, len(topology.edgesOrder))
	for _, id := range topology.edgesOrder {
		edges = append(edges, topology.edges[id])
	}
	return edges
}

func (topology *Topology) Signals() []*Signal {
	topology.mu.RLock()
	defer topology.mu.RUnlock()
	signals := make([]*Signal, 0, len(topology.signalsOrder))
	for _, id := range topology.signalsOrder {
		signals = append(signals, topology.signals[id])
	}
	return signals
}

// allSignals returns registered signals followed by signals which are placed on edges of topology but not registered
func (topology *Topology) allSignals() []*Signal {
	signals := topology.Signals()
	seen := make(map[*Signal]struct{}, len(signals))
	for _, signal := range signals {
		seen[signal] = struct{}{}
	}
	for _, edge := range topology.Edges() {
		for _, signal := range edge.Signals {
			if _, ok := seen[signal]; ok || signal.Edge != edge {
				continue
			}
			seen[signal] = struct{}{}
			signals = append(signals, signal)
		}
	}
	return signals
}

func (topology *Topology) Routes() []*Route {
	topology.mu.RLock()
	defer topology.mu.RUnlock()
	routes := make([]*Route, 0, len(topology.routesOrder))
	for _, id := range topology.routesOrder {
		routes = append(routes, topology.routes[id])
	}
	return routes
}

func (topology *Topology) VacancySections() []*VacancySection {
	topology.mu.RLock()
	defer topology.mu.RUnlock()
	sections := make([]*VacancySection, 0, len(topology.sectionsOrder))
	for _, id := range topology.sectionsOrder {
		sections = append(sections, topology.vacancySections[id])
	}
	return sections
}

func (topology *Topology) NodesNum() int {
	topology.mu.RLock()
	defer topology.mu.RUnlock()
	return len(topology.nodes)
}

func (topology *Topology) EdgesNum() int {
	topology.mu.RLock()
	defer topology.mu.RUnlock()
	return len(topology.edges)
}

// GetEdgeByNodes returns edge connecting two nodes in any order.
// First edge in insertion order is returned for parallel edges
func (topology *Topology) GetEdgeByNodes(a, b *Node) (*Edge, bool) {
	edges := topology.GetEdgesByNodes(a, b)
	if len(edges) == 0 {
		return nil, false
	}
	return edges[0], true
}

// GetEdgesByNodes returns all edges connecting two nodes in any order
func (topology *Topology) GetEdgesByNodes(a, b *Node) []*Edge {
	if a == nil || b == nil {
		return nil
	}
	topology.mu.RLock()
	defer topology.mu.RUnlock()
	var found []*Edge
	for _, id := range topology.edgesOrder {
		edge := topology.edges[id]
		if (edge.NodeA.ID == a.ID && edge.NodeB.ID == b.ID) || (edge.NodeA.ID == b.ID && edge.NodeB.ID == a.ID) {
			found = append(found, edge)
		}
	}
	return found
}

// Points returns nodes with three or more connected edges
func (topology *Topology) Points() []*Node {
	var points []*Node
	for _, node := range topology.Nodes() {
		if node.IsPoint() {
			points = append(points, node)
		}
	}
	return points
}

// TrackEnds returns nodes with exactly one connected edge
func (topology *Topology) TrackEnds() []*Node {
	var ends []*Node
	for _, node := range topology.Nodes() {
		if node.IsTrackEnd() {
			ends = append(ends, node)
		}
	}
	return ends
}

// Validate checks references between nodes, edges and roles
func (topology *Topology) Validate() error {
	topology.mu.RLock()
	defer topology.mu.RUnlock()
	for _, id := range topology.edgesOrder {
		edge := topology.edges[id]
		for _, node := range []*Node{edge.NodeA, edge.NodeB} {
			if known, ok := topology.nodes[node.ID]; !ok || known != node {
				return errors.Wrapf(ErrReference, "edge '%s' references missing node '%s'", edge.ID, node.ID)
			}
			if !containsEdge(node.ConnectedEdges(), edge) {
				return errors.Wrapf(ErrReference, "edge '%s' is not attached to node '%s'", edge.ID, node.ID)
			}
		}
	}
	for _, id := range topology.nodesOrder {
		node := topology.nodes[id]
		for _, edge := range node.ConnectedEdges() {
			if known, ok := topology.edges[edge.ID]; !ok || known != edge {
				return errors.Wrapf(ErrReference, "node '%s' is connected to missing edge '%s'", node.ID, edge.ID)
			}
		}
		roles, ok := node.CachedRoles()
		if !ok {
			continue
		}
		for _, edge := range []*Edge{roles.Head, roles.Left, roles.Right} {
			if edge != nil && !edge.IsNodeConnected(node) {
				return errors.Wrapf(ErrReference, "role edge '%s' is not connected to node '%s'", edge.ID, node.ID)
			}
		}
	}
	for _, id := range topology.signalsOrder {
		signal := topology.signals[id]
		if _, ok := topology.edges[signal.Edge.ID]; !ok {
			return errors.Wrapf(ErrReference, "signal '%s' references missing edge '%s'", signal.ID, signal.Edge.ID)
		}
	}
	return nil
}
