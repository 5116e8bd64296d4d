package railtopo

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Node is vertex of track graph: track end (1 edge), pass-through (2 edges) or point (3 edges)
type Node struct {
	ID      string
	Name    string
	GeoNode *GeoNode

	mu             sync.Mutex
	connectedEdges []*Edge
	roles          *RoleAssignment
}

func NewNode(options ...func(*Node)) *Node {
	node := &Node{
		ID: uuid.NewString(),
	}
	for _, option := range options {
		option(node)
	}
	return node
}

func WithNodeID(id string) func(*Node) {
	return func(node *Node) {
		node.ID = id
	}
}

func WithNodeName(name string) func(*Node) {
	return func(node *Node) {
		node.Name = name
	}
}

func WithGeoNode(gn *GeoNode) func(*Node) {
	return func(node *Node) {
		node.GeoNode = gn
	}
}

// WithGeoPoint sets new geo node at given position
func WithGeoPoint(pt GeoPoint) func(*Node) {
	return func(node *Node) {
		node.GeoNode = NewGeoNode(pt)
	}
}

func (node *Node) String() string {
	return fmt.Sprintf("Node(%s)", node.ID)
}

// ConnectedEdges returns incident edges in attachment order
func (node *Node) ConnectedEdges() []*Edge {
	node.mu.Lock()
	defer node.mu.Unlock()
	edges := make([]*Edge, len(node.connectedEdges))
	copy(edges, node.connectedEdges)
	return edges
}

// ConnectedNodes returns opposite endpoints of incident edges (may contain duplicates for parallel edges)
func (node *Node) ConnectedNodes() []*Node {
	edges := node.ConnectedEdges()
	nodes := make([]*Node, 0, len(edges))
	for _, edge := range edges {
		nodes = append(nodes, edge.OtherNode(node))
	}
	return nodes
}

func (node *Node) Degree() int {
	node.mu.Lock()
	defer node.mu.Unlock()
	return len(node.connectedEdges)
}

// IsPoint reports whether node is a switch
func (node *Node) IsPoint() bool {
	return node.Degree() >= 3
}

// IsTrackEnd reports whether node has exactly one connected edge
func (node *Node) IsTrackEnd() bool {
	return node.Degree() == 1
}

// SetGeoNode replaces position of node and drops derived roles
func (node *Node) SetGeoNode(gn *GeoNode) {
	node.mu.Lock()
	defer node.mu.Unlock()
	node.GeoNode = gn
	node.roles = nil
}

func (node *Node) attach(edge *Edge) {
	node.mu.Lock()
	defer node.mu.Unlock()
	for _, e := range node.connectedEdges {
		if e == edge {
			return
		}
	}
	node.connectedEdges = append(node.connectedEdges, edge)
	node.roles = nil
}

func (node *Node) detach(edge *Edge) {
	node.mu.Lock()
	defer node.mu.Unlock()
	for i, e := range node.connectedEdges {
		if e == edge {
			node.connectedEdges = append(node.connectedEdges[:i], node.connectedEdges[i+1:]...)
			node.roles = nil
			return
		}
	}
}

// DetachEdge removes edge from incident edges
func (node *Node) DetachEdge(edge *Edge) {
	node.detach(edge)
}

// InvalidateRoles drops cached roles so they are derived again on next access
func (node *Node) InvalidateRoles() {
	node.mu.Lock()
	node.roles = nil
	node.mu.Unlock()
}

// CachedRoles returns roles if they are derived or restored already
func (node *Node) CachedRoles() (RoleAssignment, bool) {
	node.mu.Lock()
	defer node.mu.Unlock()
	if node.roles == nil {
		return RoleAssignment{}, false
	}
	return *node.roles, true
}

// Roles returns head/left/right of node. Roles are derived once and cached
func (node *Node) Roles() (RoleAssignment, error) {
	node.mu.Lock()
	defer node.mu.Unlock()
	if node.roles != nil {
		return *node.roles, nil
	}
	roles, err := resolveRoles(node, node.connectedEdges)
	if err != nil {
		return RoleAssignment{}, err
	}
	node.roles = &roles
	return roles, nil
}

func (node *Node) Head() (*Edge, error) {
	roles, err := node.Roles()
	return roles.Head, err
}

// Left is nil for nodes which are not points
func (node *Node) Left() (*Edge, error) {
	roles, err := node.Roles()
	return roles.Left, err
}

// Right is nil for nodes which are not points
func (node *Node) Right() (*Edge, error) {
	roles, err := node.Roles()
	return roles.Right, err
}

// SetRoles stores roles as is. Every given edge must be incident to node
func (node *Node) SetRoles(head, left, right *Edge) error {
	node.mu.Lock()
	defer node.mu.Unlock()
	for _, edge := range []*Edge{head, left, right} {
		if edge == nil {
			continue
		}
		if !edge.IsNodeConnected(node) || !containsEdge(node.connectedEdges, edge) {
			return errors.Wrapf(ErrReference, "edge '%s' is not connected to node '%s'", edge.ID, node.ID)
		}
	}
	node.roles = &RoleAssignment{Head: head, Left: left, Right: right}
	return nil
}

// RoleOf returns role of given incident edge
func (node *Node) RoleOf(edge *Edge) (Role, error) {
	roles, err := node.Roles()
	if err != nil {
		return 0, err
	}
	role, ok := roles.RoleOf(edge)
	if !ok {
		return 0, errors.Wrapf(ErrReference, "edge '%s' has no role at node '%s'", edge.ID, node.ID)
	}
	return role, nil
}

// PossibleFollowers returns edges which a train arriving via source can leave node by.
// Nil source means that train starts at node
func (node *Node) PossibleFollowers(source *Edge) ([]*Edge, error) {
	edges := node.ConnectedEdges()
	if source == nil {
		return edges, nil
	}
	if !containsEdge(edges, source) {
		return nil, errors.Wrapf(ErrReference, "edge '%s' is not connected to node '%s'", source.ID, node.ID)
	}
	switch len(edges) {
	case 1:
		return nil, nil
	case 2:
		for _, e := range edges {
			if e != source {
				return []*Edge{e}, nil
			}
		}
		return nil, nil
	}
	roles, err := node.Roles()
	if err != nil {
		return nil, err
	}
	if source == roles.Head {
		return []*Edge{roles.Left, roles.Right}, nil
	}
	return []*Edge{roles.Head}, nil
}

// DivergingEdge returns leg of point which is not through edge
func (node *Node) DivergingEdge(through *Edge) (*Edge, error) {
	if !node.IsPoint() {
		return nil, errors.Wrapf(ErrDegree, "node '%s' is not a point", node.ID)
	}
	roles, err := node.Roles()
	if err != nil {
		return nil, err
	}
	switch through {
	case roles.Head:
		return nil, errors.Wrapf(ErrValue, "through edge '%s' is connected on head of node '%s'", through.ID, node.ID)
	case roles.Left:
		return roles.Right, nil
	case roles.Right:
		return roles.Left, nil
	}
	return nil, errors.Wrapf(ErrReference, "edge '%s' is not connected to node '%s'", through.ID, node.ID)
}

func containsEdge(edges []*Edge, edge *Edge) bool {
	for _, e := range edges {
		if e == edge {
			return true
		}
	}
	return false
}
