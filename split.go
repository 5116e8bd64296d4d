package railtopo

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Cut designates interior point of edge. Distance is measured from NodeA
type Cut struct {
	Edge     *Edge
	Distance float64
}

type splitSide struct {
	topology *Topology
	sections *sectionCopier
}

// Split cuts topology at given points and returns two independent topologies.
// First one contains first node of source topology
func Split(topology *Topology, cuts []Cut) (*Topology, *Topology, error) {
	cutAt, err := validateCuts(topology, cuts)
	if err != nil {
		return nil, nil, err
	}
	nodes := topology.Nodes()
	component, count := components(nodes, cutAt)
	if count != 2 {
		return nil, nil, errors.Wrapf(ErrPartition, "got %d components", count)
	}
	var sides [2]*splitSide
	for i := range sides {
		sides[i] = &splitSide{
			topology: NewTopology(WithTopologyName(topology.Name), WithCreatedWith(topology.CreatedWith)),
			sections: newSectionCopier(),
		}
	}

	nodeCopies := make(map[*Node]*Node, len(nodes))
	for _, node := range nodes {
		cp := copyNode(node)
		nodeCopies[node] = cp
		sides[component[node]].topology.addNode(cp)
	}

	edgeCopies := make(map[*Edge]*Edge)
	stubs := make(map[*Edge][2]*Edge)
	edgeSide := make(map[*Edge]int)
	for _, edge := range topology.Edges() {
		at, isCut := cutAt[edge]
		if !isCut {
			s := component[edge.NodeA]
			cp := copyEdge(edge, nodeCopies[edge.NodeA], nodeCopies[edge.NodeB])
			cp.VacancySection = sides[s].sections.get(edge.VacancySection)
			edgeCopies[edge] = cp
			edgeSide[cp] = s
			if err := sides[s].topology.addEdge(cp); err != nil {
				return nil, nil, errors.Wrap(err, "Can't copy edge")
			}
			continue
		}
		sa, sb := component[edge.NodeA], component[edge.NodeB]
		first, second, err := cutEdge(edge, at, nodeCopies[edge.NodeA], nodeCopies[edge.NodeB])
		if err != nil {
			return nil, nil, err
		}
		first.VacancySection = sides[sa].sections.get(edge.VacancySection)
		second.VacancySection = sides[sb].sections.get(edge.VacancySection)
		stubs[edge] = [2]*Edge{first, second}
		edgeSide[first] = sa
		edgeSide[second] = sb
		sides[sa].topology.addNode(first.NodeB)
		sides[sb].topology.addNode(second.NodeA)
		if err := sides[sa].topology.addEdge(first); err != nil {
			return nil, nil, errors.Wrap(err, "Can't add stub edge")
		}
		if err := sides[sb].topology.addEdge(second); err != nil {
			return nil, nil, errors.Wrap(err, "Can't add stub edge")
		}
		logger().Debug("edge cut", "edge", edge.ID, "distance", at, "stub_a", first.ID, "stub_b", second.ID)
	}

	for _, node := range nodes {
		original := node
		restoreConnections(original, nodeCopies[original], func(edge *Edge) *Edge {
			if cp, ok := edgeCopies[edge]; ok {
				return cp
			}
			if st, ok := stubs[edge]; ok {
				if edge.NodeA == original {
					return st[0]
				}
				return st[1]
			}
			return nil
		})
	}

	signalCopies := make(map[*Signal]*Signal)
	signalSide := make(map[*Signal]int)
	for _, signal := range topology.allSignals() {
		offset, err := signal.offsetFromNodeA()
		if err != nil {
			return nil, nil, errors.Wrapf(err, "Can't locate signal '%s'", signal.ID)
		}
		target, ok := edgeCopies[signal.Edge]
		if !ok {
			st, isCut := stubs[signal.Edge]
			if !isCut {
				continue
			}
			target = st[0]
			if at := cutAt[signal.Edge]; offset >= at {
				target = st[1]
				offset -= at
			}
		}
		cp, err := copySignalTo(signal, target, offset, signal.Direction)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "Can't place signal '%s'", signal.ID)
		}
		s := edgeSide[target]
		signalCopies[signal] = cp
		signalSide[signal] = s
		if err := sides[s].topology.addSignal(cp); err != nil {
			return nil, nil, err
		}
	}

	for _, route := range topology.Routes() {
		cp, s, ok := splitRoute(route, signalCopies, signalSide, edgeCopies, stubs, edgeSide)
		if !ok {
			logger().Debug("route dropped by split", "route", route.ID)
			continue
		}
		if err := sides[s].topology.addRoute(cp); err != nil {
			return nil, nil, err
		}
	}

	// sections which no edge references stay with the first topology
	for _, section := range topology.VacancySections() {
		if _, ok := sides[1].sections.copies[section.ID]; !ok {
			sides[0].sections.get(section)
		}
	}
	for _, side := range sides {
		for _, section := range side.sections.order {
			side.topology.addVacancySection(section)
		}
	}
	return sides[0].topology, sides[1].topology, nil
}

func validateCuts(topology *Topology, cuts []Cut) (map[*Edge]float64, error) {
	cutAt := make(map[*Edge]float64, len(cuts))
	for _, cut := range cuts {
		if cut.Edge == nil {
			return nil, errors.Wrap(ErrValue, "cut without edge")
		}
		if known, ok := topology.Edge(cut.Edge.ID); !ok || known != cut.Edge {
			return nil, errors.Wrapf(ErrReference, "cut edge '%s' is not in topology", cut.Edge.ID)
		}
		if _, ok := cutAt[cut.Edge]; ok {
			return nil, errors.Wrapf(ErrValue, "edge '%s' is cut twice", cut.Edge.ID)
		}
		length, err := cut.Edge.Length()
		if err != nil {
			return nil, errors.Wrapf(err, "Can't cut edge '%s'", cut.Edge.ID)
		}
		if !(cut.Distance > 0 && cut.Distance < length) {
			return nil, errors.Wrapf(ErrCutDistance, "distance %f on edge '%s' of length %f", cut.Distance, cut.Edge.ID, length)
		}
		cutAt[cut.Edge] = cut.Distance
	}
	return cutAt, nil
}

// components labels connected components of nodes, ignoring removed edges. Labels follow order of nodes
func components(nodes []*Node, removed map[*Edge]float64) (map[*Node]int, int) {
	member := make(map[*Node]struct{}, len(nodes))
	for _, node := range nodes {
		member[node] = struct{}{}
	}
	label := make(map[*Node]int, len(nodes))
	count := 0
	for _, start := range nodes {
		if _, seen := label[start]; seen {
			continue
		}
		label[start] = count
		queue := []*Node{start}
		for len(queue) > 0 {
			current := queue[0]
			queue = queue[1:]
			for _, edge := range current.ConnectedEdges() {
				if _, cut := removed[edge]; cut {
					continue
				}
				other := edge.OtherNode(current)
				if other == nil {
					continue
				}
				if _, ok := member[other]; !ok {
					continue
				}
				if _, seen := label[other]; seen {
					continue
				}
				label[other] = count
				queue = append(queue, other)
			}
		}
		count++
	}
	return label, count
}

// cutEdge returns stubs NodeA -> new end and new end -> NodeB with sub lengths
func cutEdge(edge *Edge, at float64, nodeA, nodeB *Node) (*Edge, *Edge, error) {
	length, err := edge.Length()
	if err != nil {
		return nil, nil, err
	}
	endA := NewNode()
	endB := NewNode()
	var before, after []*GeoNode
	if _, gerr := edge.Geometry(); gerr == nil {
		pt, idx, err := edge.PointAtDistance(at)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "Can't find cut point on edge '%s'", edge.ID)
		}
		endA.GeoNode = NewGeoNode(pt)
		endB.GeoNode = NewGeoNode(pt)
		for i, gn := range edge.IntermediateGeoNodes {
			if gn.Point.Point.Equal(pt.Point) {
				continue
			}
			if i < idx {
				before = append(before, gn.Copy())
			} else {
				after = append(after, gn.Copy())
			}
		}
	}
	first := &Edge{
		ID:                   uuid.NewString(),
		Name:                 edge.Name,
		NodeA:                nodeA,
		NodeB:                endA,
		IntermediateGeoNodes: before,
		MaximumSpeed:         edge.MaximumSpeed,
		length:               at,
		hasLength:            true,
		distance:             edge.distance,
	}
	second := &Edge{
		ID:                   uuid.NewString(),
		Name:                 edge.Name,
		NodeA:                endB,
		NodeB:                nodeB,
		IntermediateGeoNodes: after,
		MaximumSpeed:         edge.MaximumSpeed,
		length:               length - at,
		hasLength:            true,
		distance:             edge.distance,
	}
	endA.connectedEdges = []*Edge{first}
	endB.connectedEdges = []*Edge{second}
	return first, second, nil
}

// splitRoute keeps route when both its signals end up at the same side
func splitRoute(route *Route, signalCopies map[*Signal]*Signal, signalSide map[*Signal]int, edgeCopies map[*Edge]*Edge, stubs map[*Edge][2]*Edge, edgeSide map[*Edge]int) (*Route, int, bool) {
	start, ok := signalCopies[route.StartSignal]
	if !ok {
		return nil, 0, false
	}
	s := signalSide[route.StartSignal]
	var end *Signal
	if route.EndSignal != nil {
		end, ok = signalCopies[route.EndSignal]
		if !ok || signalSide[route.EndSignal] != s {
			return nil, 0, false
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
		if ec, ok := edgeCopies[edge]; ok {
			if edgeSide[ec] != s {
				return nil, 0, false
			}
			cp.AddEdge(ec)
			continue
		}
		st, ok := stubs[edge]
		if !ok {
			return nil, 0, false
		}
		for _, stub := range st {
			if edgeSide[stub] == s {
				cp.AddEdge(stub)
			}
		}
	}
	return cp, s, true
}
