package railtopo

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Union merges two topologies. Every key of matching is track end of a, every value is track end of b.
// Each matched pair is replaced by single edge between neighbours of both ends
func Union(a, b *Topology, matching map[*Node]*Node) (*Topology, error) {
	pairs, err := validateMatching(a, b, matching)
	if err != nil {
		return nil, err
	}
	if err := checkIDConflicts(a, b, matching); err != nil {
		return nil, err
	}

	dropped := make(map[*Node]struct{}, 2*len(pairs))
	stubOf := make(map[*Edge]*unionPair, 2*len(pairs))
	for _, p := range pairs {
		dropped[p.endA] = struct{}{}
		dropped[p.endB] = struct{}{}
		stubOf[p.stubA] = p
		stubOf[p.stubB] = p
	}

	merged := NewTopology(WithTopologyName(a.Name), WithCreatedWith(a.CreatedWith))
	sections := newSectionCopier()
	nodeCopies := make(map[*Node]*Node)
	sources := [2]*Topology{a, b}
	for _, source := range sources {
		for _, node := range source.Nodes() {
			if _, ok := dropped[node]; ok {
				continue
			}
			cp := copyNode(node)
			nodeCopies[node] = cp
			merged.addNode(cp)
		}
	}

	edgeCopies := make(map[*Edge]*Edge)
	for _, source := range sources {
		for _, edge := range source.Edges() {
			if p, ok := stubOf[edge]; ok {
				if edge != p.stubA {
					continue
				}
				join, err := joinStubs(p, nodeCopies[p.neighbourA], nodeCopies[p.neighbourB])
				if err != nil {
					return nil, err
				}
				join.VacancySection = sections.get(p.section())
				p.join = join
				if err := merged.addEdge(join); err != nil {
					return nil, err
				}
				logger().Debug("track ends joined", "end_a", p.endA.ID, "end_b", p.endB.ID, "edge", join.ID)
				continue
			}
			cp := copyEdge(edge, nodeCopies[edge.NodeA], nodeCopies[edge.NodeB])
			cp.VacancySection = sections.get(edge.VacancySection)
			edgeCopies[edge] = cp
			if err := merged.addEdge(cp); err != nil {
				return nil, errors.Wrap(err, "Can't copy edge")
			}
		}
	}

	replace := func(edge *Edge) *Edge {
		if cp, ok := edgeCopies[edge]; ok {
			return cp
		}
		if p, ok := stubOf[edge]; ok {
			return p.join
		}
		return nil
	}
	for _, source := range sources {
		for _, node := range source.Nodes() {
			if cp, ok := nodeCopies[node]; ok {
				restoreConnections(node, cp, replace)
			}
		}
	}

	signalCopies := make(map[*Signal]*Signal)
	tripCopies := make(map[string]*Trip)
	for _, source := range sources {
		for _, signal := range source.allSignals() {
			cp, err := unionSignal(signal, edgeCopies, stubOf)
			if err != nil {
				return nil, err
			}
			if cp == nil {
				continue
			}
			cp.Trip = unionTrip(signal.Trip, tripCopies, replace)
			signalCopies[signal] = cp
			if err := merged.addSignal(cp); err != nil {
				return nil, err
			}
		}
	}

	for _, source := range sources {
		for _, route := range source.Routes() {
			cp, ok := unionRoute(route, signalCopies, replace)
			if !ok {
				logger().Debug("route dropped by union", "route", route.ID)
				continue
			}
			if err := merged.addRoute(cp); err != nil {
				return nil, err
			}
		}
		for _, section := range source.VacancySections() {
			sections.get(section)
		}
	}
	for _, section := range sections.order {
		merged.addVacancySection(section)
	}
	return merged, nil
}

type unionPair struct {
	endA, endB             *Node
	stubA, stubB           *Edge
	neighbourA, neighbourB *Node
	join                   *Edge
	// position of endB along join, measured from its NodeA
	joinOffsetB float64
}

func (p *unionPair) section() *VacancySection {
	if p.stubA.VacancySection != nil {
		return p.stubA.VacancySection
	}
	return p.stubB.VacancySection
}

// validateMatching returns pairs ordered by insertion order of a
func validateMatching(a, b *Topology, matching map[*Node]*Node) ([]*unionPair, error) {
	values := make(map[*Node]*Node, len(matching))
	for endA, endB := range matching {
		if endA == nil || endB == nil {
			return nil, errors.Wrap(ErrValue, "matching contains nil node")
		}
		if !a.HasNode(endA) {
			return nil, errors.Wrapf(ErrNodeNotInTopology, "node '%s' is not in first topology", endA.ID)
		}
		if !b.HasNode(endB) {
			return nil, errors.Wrapf(ErrNodeNotInTopology, "node '%s' is not in second topology", endB.ID)
		}
		if other, ok := values[endB]; ok {
			return nil, errors.Wrapf(ErrValue, "node '%s' is matched with both '%s' and '%s'", endB.ID, other.ID, endA.ID)
		}
		values[endB] = endA
	}
	for endA, endB := range matching {
		for _, end := range []*Node{endA, endB} {
			if end.IsPoint() {
				return nil, errors.Wrapf(ErrPointNode, "node '%s'", end.ID)
			}
			if end.Degree() != 1 {
				return nil, errors.Wrapf(ErrNotTrackEnd, "node '%s' has %d connected edges", end.ID, end.Degree())
			}
		}
	}
	pairs := make([]*unionPair, 0, len(matching))
	for _, endA := range a.Nodes() {
		endB, ok := matching[endA]
		if !ok {
			continue
		}
		p := &unionPair{endA: endA, endB: endB}
		p.stubA = endA.ConnectedEdges()[0]
		p.stubB = endB.ConnectedEdges()[0]
		if known, ok := a.Edge(p.stubA.ID); !ok || known != p.stubA {
			return nil, errors.Wrapf(ErrReference, "edge '%s' of node '%s' is not in first topology", p.stubA.ID, endA.ID)
		}
		if known, ok := b.Edge(p.stubB.ID); !ok || known != p.stubB {
			return nil, errors.Wrapf(ErrReference, "edge '%s' of node '%s' is not in second topology", p.stubB.ID, endB.ID)
		}
		p.neighbourA = p.stubA.OtherNode(endA)
		p.neighbourB = p.stubB.OtherNode(endB)
		if _, ok := matching[p.neighbourA]; ok {
			return nil, errors.Wrapf(ErrNotTrackEnd, "neighbour '%s' of node '%s' is matched too", p.neighbourA.ID, endA.ID)
		}
		if _, ok := values[p.neighbourB]; ok {
			return nil, errors.Wrapf(ErrNotTrackEnd, "neighbour '%s' of node '%s' is matched too", p.neighbourB.ID, endB.ID)
		}
		pairs = append(pairs, p)
	}
	return pairs, nil
}

// checkIDConflicts rejects identifiers which survive from both topologies
func checkIDConflicts(a, b *Topology, matching map[*Node]*Node) error {
	dropped := make(map[string]struct{})
	for endA, endB := range matching {
		for _, end := range []*Node{endA, endB} {
			dropped[end.ID] = struct{}{}
			for _, edge := range end.ConnectedEdges() {
				dropped[edge.ID] = struct{}{}
			}
		}
	}
	seen := make(map[string]struct{})
	for _, node := range a.Nodes() {
		seen[node.ID] = struct{}{}
	}
	for _, edge := range a.Edges() {
		seen[edge.ID] = struct{}{}
	}
	for _, signal := range a.allSignals() {
		seen[signal.ID] = struct{}{}
	}
	for _, route := range a.Routes() {
		seen[route.ID] = struct{}{}
	}
	var ids []string
	for _, node := range b.Nodes() {
		ids = append(ids, node.ID)
	}
	for _, edge := range b.Edges() {
		ids = append(ids, edge.ID)
	}
	for _, signal := range b.allSignals() {
		ids = append(ids, signal.ID)
	}
	for _, route := range b.Routes() {
		ids = append(ids, route.ID)
	}
	for _, id := range ids {
		if _, ok := dropped[id]; ok {
			continue
		}
		if _, ok := seen[id]; ok {
			return errors.Wrapf(ErrIDConflict, "'%s'", id)
		}
	}
	return nil
}

// joinStubs builds edge neighbourA -> endA -> endB -> neighbourB keeping ends as waypoints
func joinStubs(p *unionPair, nodeA, nodeB *Node) (*Edge, error) {
	var waypoints []*GeoNode
	waypoints = append(waypoints, copyGeoNodes(p.stubA.geoNodesFrom(p.neighbourA))...)
	if p.endA.GeoNode != nil {
		waypoints = append(waypoints, p.endA.GeoNode.Copy())
	}
	if p.endB.GeoNode != nil && (p.endA.GeoNode == nil || !p.endB.GeoNode.Point.Point.Equal(p.endA.GeoNode.Point.Point) || p.endB.GeoNode.Point.System != p.endA.GeoNode.Point.System) {
		waypoints = append(waypoints, p.endB.GeoNode.Copy())
	}
	waypoints = append(waypoints, copyGeoNodes(p.stubB.geoNodesFrom(p.endB))...)

	join := &Edge{
		ID:                   uuid.NewString(),
		Name:                 p.stubA.Name,
		NodeA:                nodeA,
		NodeB:                nodeB,
		IntermediateGeoNodes: waypoints,
		MaximumSpeed:         p.stubA.MaximumSpeed,
		distance:             p.stubA.distance,
	}
	lengthA, errA := p.stubA.Length()
	lengthB, errB := p.stubB.Length()
	if errA == nil && errB == nil {
		gap := 0.0
		if p.endA.GeoNode != nil && p.endB.GeoNode != nil {
			if d, err := p.endA.GeoNode.DistanceTo(p.endB.GeoNode); err == nil {
				gap = d
			}
		}
		p.joinOffsetB = lengthA + gap
		if p.stubA.HasStoredLength() || p.stubB.HasStoredLength() {
			join.SetLength(lengthA + gap + lengthB)
		}
	} else if errA == nil {
		p.joinOffsetB = lengthA
	}
	return join, nil
}

// unionSignal copies signal into merged topology. Signals of joined stubs move onto join edge
func unionSignal(signal *Signal, edgeCopies map[*Edge]*Edge, stubOf map[*Edge]*unionPair) (*Signal, error) {
	offset, err := signal.offsetFromNodeA()
	if err != nil {
		return nil, errors.Wrapf(err, "Can't locate signal '%s'", signal.ID)
	}
	if cp, ok := edgeCopies[signal.Edge]; ok {
		return copySignalTo(signal, cp, offset, signal.Direction)
	}
	p, ok := stubOf[signal.Edge]
	if !ok {
		return nil, nil
	}
	stub := signal.Edge
	length, err := stub.Length()
	if err != nil {
		return nil, errors.Wrapf(err, "Can't move signal '%s'", signal.ID)
	}
	direction := signal.Direction
	var along float64
	switch stub {
	case p.stubA:
		// join runs from neighbourA to the end
		along = offset
		if stub.NodeA != p.neighbourA {
			along = length - offset
			direction = direction.flip()
		}
	case p.stubB:
		// join continues from the end to neighbourB
		along = p.joinOffsetB + offset
		if stub.NodeA != p.endB {
			along = p.joinOffsetB + length - offset
			direction = direction.flip()
		}
	}
	return copySignalTo(signal, p.join, along, direction)
}

// unionTrip copies trip once per identifier. Both stubs of a joined pair turn into the same join edge
func unionTrip(trip *Trip, copies map[string]*Trip, replace func(*Edge) *Edge) *Trip {
	if trip == nil {
		return nil
	}
	if cp, ok := copies[trip.ID]; ok {
		return cp
	}
	cp := &Trip{ID: trip.ID, Name: trip.Name, Edges: make([]*Edge, 0, len(trip.Edges))}
	for _, edge := range trip.Edges {
		r := replace(edge)
		if r == nil {
			continue
		}
		if n := len(cp.Edges); n > 0 && cp.Edges[n-1] == r {
			continue
		}
		cp.Edges = append(cp.Edges, r)
	}
	copies[trip.ID] = cp
	return cp
}

func unionRoute(route *Route, signalCopies map[*Signal]*Signal, replace func(*Edge) *Edge) (*Route, bool) {
	start, ok := signalCopies[route.StartSignal]
	if !ok {
		return nil, false
	}
	var end *Signal
	if route.EndSignal != nil {
		if end, ok = signalCopies[route.EndSignal]; !ok {
			return nil, false
		}
	}
	cp := &Route{
		ID:           route.ID,
		Name:         route.Name,
		StartSignal:  start,
		EndSignal:    end,
		MaximumSpeed: route.MaximumSpeed,
	}
	for _, edge := range route.Edges {
		r := replace(edge)
		if r == nil {
			return nil, false
		}
		cp.AddEdge(r)
	}
	return cp, true
}
