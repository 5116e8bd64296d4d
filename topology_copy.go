package railtopo

// copyNode returns node with the same identity and position but without connections
func copyNode(node *Node) *Node {
	cp := &Node{
		ID:   node.ID,
		Name: node.Name,
	}
	if node.GeoNode != nil {
		cp.GeoNode = node.GeoNode.Copy()
	}
	return cp
}

// copyEdge returns edge with the same identity between given nodes. Edge is not attached to nodes
func copyEdge(edge *Edge, nodeA, nodeB *Node) *Edge {
	return &Edge{
		ID:                   edge.ID,
		Name:                 edge.Name,
		NodeA:                nodeA,
		NodeB:                nodeB,
		IntermediateGeoNodes: copyGeoNodes(edge.IntermediateGeoNodes),
		MaximumSpeed:         edge.MaximumSpeed,
		length:               edge.length,
		hasLength:            edge.hasLength,
		distance:             edge.distance,
	}
}

// restoreConnections gives copied node the connections of original one in the same order.
// Cached roles are carried over when every role edge has a replacement
func restoreConnections(original, copied *Node, replace func(*Edge) *Edge) {
	edges := original.ConnectedEdges()
	connected := make([]*Edge, 0, len(edges))
	for _, edge := range edges {
		if r := replace(edge); r != nil {
			connected = append(connected, r)
		}
	}
	copied.mu.Lock()
	copied.connectedEdges = connected
	copied.roles = nil
	copied.mu.Unlock()

	roles, ok := original.CachedRoles()
	if !ok || len(connected) != len(edges) {
		return
	}
	mapped := RoleAssignment{Head: replace(roles.Head)}
	if roles.Left != nil {
		mapped.Left = replace(roles.Left)
		mapped.Right = replace(roles.Right)
	}
	if mapped.Head == nil || (roles.Left != nil && (mapped.Left == nil || mapped.Right == nil)) {
		return
	}
	copied.mu.Lock()
	copied.roles = &mapped
	copied.mu.Unlock()
}

// copySignalTo copies signal onto edge at offset measured from NodeA of that edge
func copySignalTo(signal *Signal, edge *Edge, offset float64, direction SignalDirection) (*Signal, error) {
	cp := signal.copyWithout()
	if err := cp.place(edge, offset, direction); err != nil {
		return nil, err
	}
	edge.Signals = append(edge.Signals, cp)
	return cp, nil
}

// sectionCopier keeps one copy of vacancy section per output topology
type sectionCopier struct {
	copies map[string]*VacancySection
	order  []*VacancySection
}

func newSectionCopier() *sectionCopier {
	return &sectionCopier{copies: make(map[string]*VacancySection)}
}

func (sc *sectionCopier) get(section *VacancySection) *VacancySection {
	if section == nil {
		return nil
	}
	if cp, ok := sc.copies[section.ID]; ok {
		return cp
	}
	cp := *section
	sc.copies[section.ID] = &cp
	sc.order = append(sc.order, &cp)
	return &cp
}
