package railtopo

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

const (
	objectGeoNode          = "geo_node"
	objectTrip             = "trip"
	objectAdditionalSignal = "additional_signal"
)

// Document is interchange representation of topology. References are identifiers;
// geo nodes, trips and additional signals live in Objects
type Document struct {
	ID              string                  `json:"uuid"`
	Name            string                  `json:"name,omitempty"`
	CreatedAt       string                  `json:"created_at"`
	CreatedWith     string                  `json:"created_with"`
	Nodes           []NodeRecord            `json:"nodes"`
	Edges           []EdgeRecord            `json:"edges"`
	Signals         []SignalRecord          `json:"signals"`
	Routes          []RouteRecord           `json:"routes"`
	VacancySections []VacancySectionRecord  `json:"vacancy_sections"`
	Objects         map[string]ObjectRecord `json:"objects"`
}

type NodeRecord struct {
	ID               string   `json:"uuid"`
	Name             string   `json:"name,omitempty"`
	GeoNode          string   `json:"geo_node,omitempty"`
	ConnectedEdges   []string `json:"connected_edges"`
	ConnectedOnHead  string   `json:"connected_on_head,omitempty"`
	ConnectedOnLeft  string   `json:"connected_on_left,omitempty"`
	ConnectedOnRight string   `json:"connected_on_right,omitempty"`
}

type EdgeRecord struct {
	ID                   string   `json:"uuid"`
	Name                 string   `json:"name,omitempty"`
	NodeA                string   `json:"node_a"`
	NodeB                string   `json:"node_b"`
	IntermediateGeoNodes []string `json:"intermediate_geo_nodes"`
	Length               float64  `json:"length"`
	LengthStored         bool     `json:"length_stored"`
	MaximumSpeed         int      `json:"maximum_speed,omitempty"`
	Signals              []string `json:"signals"`
	VacancySection       string   `json:"vacancy_section,omitempty"`
}

type SignalRecord struct {
	ID                   string   `json:"uuid"`
	Name                 string   `json:"name,omitempty"`
	Edge                 string   `json:"edge"`
	DistancePreviousNode float64  `json:"distance_previous_node"`
	Direction            string   `json:"direction"`
	Function             string   `json:"function"`
	Kind                 string   `json:"kind"`
	SideDistance         float64  `json:"side_distance"`
	ClassificationNumber string   `json:"classification_number"`
	ControlMemberID      string   `json:"control_member_uuid"`
	AdditionalSignals    []string `json:"additional_signals,omitempty"`
	Trip                 string   `json:"trip,omitempty"`
}

type RouteRecord struct {
	ID           string            `json:"uuid"`
	Name         string            `json:"name,omitempty"`
	StartSignal  string            `json:"start_signal"`
	EndSignal    string            `json:"end_signal,omitempty"`
	MaximumSpeed int               `json:"maximum_speed,omitempty"`
	Edges        []RouteEdgeRecord `json:"edges"`
}

// RouteEdgeRecord is part of edge used by route
type RouteEdgeRecord struct {
	Edge string  `json:"edge_uuid"`
	From float64 `json:"from"`
	To   float64 `json:"to"`
}

type VacancySectionRecord struct {
	ID   string `json:"uuid"`
	Name string `json:"name,omitempty"`
}

// ObjectRecord is one of geo node, trip or additional signal depending on Type
type ObjectRecord struct {
	Type    string      `json:"type"`
	ID      string      `json:"uuid"`
	Name    string      `json:"name,omitempty"`
	Point   PointRecord `json:"geo_point"`
	Edges   []string    `json:"edges,omitempty"`
	Kind    string      `json:"kind,omitempty"`
	Symbols []string    `json:"symbols,omitempty"`
}

type PointRecord struct {
	System string  `json:"system,omitempty"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

// ToDocument returns interchange representation of topology
func (topology *Topology) ToDocument() (*Document, error) {
	doc := &Document{
		ID:              topology.ID,
		Name:            topology.Name,
		CreatedAt:       topology.CreatedAt.Format(time.RFC3339Nano),
		CreatedWith:     topology.CreatedWith,
		Nodes:           []NodeRecord{},
		Edges:           []EdgeRecord{},
		Signals:         []SignalRecord{},
		Routes:          []RouteRecord{},
		VacancySections: []VacancySectionRecord{},
		Objects:         make(map[string]ObjectRecord),
	}
	putGeoNode := func(gn *GeoNode) string {
		if gn == nil {
			return ""
		}
		doc.Objects[gn.ID] = ObjectRecord{
			Type: objectGeoNode,
			ID:   gn.ID,
			Name: gn.Name,
			Point: PointRecord{
				System: gn.Point.System.String(),
				X:      gn.Point.X(),
				Y:      gn.Point.Y(),
			},
		}
		return gn.ID
	}

	for _, node := range topology.Nodes() {
		rec := NodeRecord{
			ID:             node.ID,
			Name:           node.Name,
			GeoNode:        putGeoNode(node.GeoNode),
			ConnectedEdges: edgeIDs(node.ConnectedEdges()),
		}
		if roles, ok := node.CachedRoles(); ok {
			rec.ConnectedOnHead = edgeID(roles.Head)
			rec.ConnectedOnLeft = edgeID(roles.Left)
			rec.ConnectedOnRight = edgeID(roles.Right)
		}
		doc.Nodes = append(doc.Nodes, rec)
	}

	for _, edge := range topology.Edges() {
		rec := EdgeRecord{
			ID:                   edge.ID,
			Name:                 edge.Name,
			NodeA:                edge.NodeA.ID,
			NodeB:                edge.NodeB.ID,
			IntermediateGeoNodes: make([]string, 0, len(edge.IntermediateGeoNodes)),
			LengthStored:         edge.hasLength,
			MaximumSpeed:         edge.MaximumSpeed,
			Signals:              make([]string, 0, len(edge.Signals)),
		}
		if l, err := edge.Length(); err == nil {
			rec.Length = l
		}
		for _, gn := range edge.IntermediateGeoNodes {
			rec.IntermediateGeoNodes = append(rec.IntermediateGeoNodes, putGeoNode(gn))
		}
		for _, signal := range edge.Signals {
			if signal.Edge == edge {
				rec.Signals = append(rec.Signals, signal.ID)
			}
		}
		if edge.VacancySection != nil {
			rec.VacancySection = edge.VacancySection.ID
		}
		doc.Edges = append(doc.Edges, rec)
	}

	for _, signal := range topology.allSignals() {
		rec := SignalRecord{
			ID:                   signal.ID,
			Name:                 signal.Name,
			Edge:                 signal.Edge.ID,
			DistancePreviousNode: signal.DistancePreviousNode,
			Direction:            signal.Direction.String(),
			Function:             signal.Function.String(),
			Kind:                 signal.Kind.String(),
			SideDistance:         signal.SideDistance,
			ClassificationNumber: signal.ClassificationNumber,
			ControlMemberID:      signal.ControlMemberID,
		}
		for _, as := range signal.AdditionalSignals {
			doc.Objects[as.ID] = ObjectRecord{
				Type:    objectAdditionalSignal,
				ID:      as.ID,
				Name:    as.Name,
				Kind:    as.Kind.String(),
				Symbols: as.Symbols,
			}
			rec.AdditionalSignals = append(rec.AdditionalSignals, as.ID)
		}
		if signal.Trip != nil {
			doc.Objects[signal.Trip.ID] = ObjectRecord{
				Type:  objectTrip,
				ID:    signal.Trip.ID,
				Name:  signal.Trip.Name,
				Edges: edgeIDs(signal.Trip.Edges),
			}
			rec.Trip = signal.Trip.ID
		}
		doc.Signals = append(doc.Signals, rec)
	}

	for _, route := range topology.Routes() {
		rec := RouteRecord{
			ID:           route.ID,
			Name:         route.Name,
			StartSignal:  route.StartSignal.ID,
			MaximumSpeed: route.MaximumSpeed,
			Edges:        routeEdgeRecords(route),
		}
		if route.EndSignal != nil {
			rec.EndSignal = route.EndSignal.ID
		}
		doc.Routes = append(doc.Routes, rec)
	}

	for _, section := range topology.VacancySections() {
		doc.VacancySections = append(doc.VacancySections, VacancySectionRecord{ID: section.ID, Name: section.Name})
	}
	return doc, nil
}

// routeEdgeRecords returns used parts of route edges. Parts are known only for routes which could be walked in order
func routeEdgeRecords(route *Route) []RouteEdgeRecord {
	edges, err := route.EdgesInOrder()
	if err != nil {
		edges = route.Edges
	}
	records := make([]RouteEdgeRecord, 0, len(edges))
	for i, edge := range edges {
		length, _ := edge.Length()
		rec := RouteEdgeRecord{Edge: edge.ID, From: 0, To: length}
		if err == nil {
			if i == 0 {
				rec.From = route.StartSignal.DistancePreviousNode
				if route.StartSignal.Direction == SignalGegen {
					rec.To = 0
				}
			}
			if i == len(edges)-1 {
				rec.To = route.EndSignal.DistancePreviousNode
				if i > 0 && route.EndSignal.Direction == SignalGegen {
					rec.From = length
				}
			}
		}
		records = append(records, rec)
	}
	return records
}

// FromDocument restores topology. Cached roles are restored as is instead of being derived
func FromDocument(doc *Document) (*Topology, error) {
	options := []func(*Topology){
		WithTopologyName(doc.Name),
		WithCreatedWith(doc.CreatedWith),
	}
	if doc.ID != "" {
		options = append(options, WithTopologyID(doc.ID))
	}
	if doc.CreatedAt != "" {
		at, err := time.Parse(time.RFC3339Nano, doc.CreatedAt)
		if err != nil {
			return nil, errors.Wrap(err, "Can't parse creation time")
		}
		options = append(options, WithCreatedAt(at))
	}
	topology := NewTopology(options...)

	geoNodes := make(map[string]*GeoNode)
	additional := make(map[string]*AdditionalSignal)
	for id, obj := range doc.Objects {
		switch obj.Type {
		case objectGeoNode:
			system, err := ParseCoordinateSystem(obj.Point.System)
			if err != nil {
				return nil, errors.Wrapf(err, "Can't restore geo node '%s'", id)
			}
			geoNodes[id] = &GeoNode{
				ID:    id,
				Name:  obj.Name,
				Point: GeoPoint{System: system, Point: [2]float64{obj.Point.X, obj.Point.Y}},
			}
		case objectAdditionalSignal:
			kind, err := ParseAdditionalSignalKind(obj.Kind)
			if err != nil {
				return nil, errors.Wrapf(err, "Can't restore additional signal '%s'", id)
			}
			additional[id] = &AdditionalSignal{ID: id, Name: obj.Name, Kind: kind, Symbols: obj.Symbols}
		}
	}
	lookupGeoNode := func(id string) (*GeoNode, error) {
		gn, ok := geoNodes[id]
		if !ok {
			return nil, errors.Wrapf(ErrReference, "geo node '%s' is missing in objects", id)
		}
		return gn, nil
	}

	sections := make(map[string]*VacancySection, len(doc.VacancySections))
	for _, rec := range doc.VacancySections {
		section := &VacancySection{ID: rec.ID, Name: rec.Name}
		sections[rec.ID] = section
		topology.AddVacancySection(section)
	}

	for _, rec := range doc.Nodes {
		node := NewNode(WithNodeID(rec.ID), WithNodeName(rec.Name))
		if rec.GeoNode != "" {
			gn, err := lookupGeoNode(rec.GeoNode)
			if err != nil {
				return nil, err
			}
			node.GeoNode = gn
		}
		topology.AddNode(node)
	}

	edges := make(map[string]*Edge, len(doc.Edges))
	for _, rec := range doc.Edges {
		nodeA, okA := topology.Node(rec.NodeA)
		nodeB, okB := topology.Node(rec.NodeB)
		if !okA || !okB {
			return nil, errors.Wrapf(ErrReference, "edge '%s' references missing node", rec.ID)
		}
		edge := &Edge{
			ID:           rec.ID,
			Name:         rec.Name,
			NodeA:        nodeA,
			NodeB:        nodeB,
			MaximumSpeed: rec.MaximumSpeed,
			length:       rec.Length,
			hasLength:    rec.LengthStored,
			distance:     DefaultDistance,
		}
		for _, id := range rec.IntermediateGeoNodes {
			gn, err := lookupGeoNode(id)
			if err != nil {
				return nil, err
			}
			edge.IntermediateGeoNodes = append(edge.IntermediateGeoNodes, gn)
		}
		if rec.VacancySection != "" {
			section, ok := sections[rec.VacancySection]
			if !ok {
				return nil, errors.Wrapf(ErrReference, "edge '%s' references missing vacancy section '%s'", rec.ID, rec.VacancySection)
			}
			edge.VacancySection = section
		}
		edges[rec.ID] = edge
		if err := topology.AddEdge(edge); err != nil {
			return nil, err
		}
	}

	for _, rec := range doc.Nodes {
		node, _ := topology.Node(rec.ID)
		for _, id := range rec.ConnectedEdges {
			edge, ok := edges[id]
			if !ok {
				return nil, errors.Wrapf(ErrReference, "node '%s' references missing edge '%s'", rec.ID, id)
			}
			node.attach(edge)
		}
	}
	// edges not listed by their nodes
	for _, edge := range topology.Edges() {
		edge.NodeA.attach(edge)
		edge.NodeB.attach(edge)
	}

	for _, rec := range doc.Nodes {
		if rec.ConnectedOnHead == "" {
			continue
		}
		node, _ := topology.Node(rec.ID)
		var roles [3]*Edge
		for i, id := range []string{rec.ConnectedOnHead, rec.ConnectedOnLeft, rec.ConnectedOnRight} {
			if id == "" {
				continue
			}
			edge, ok := edges[id]
			if !ok {
				return nil, errors.Wrapf(ErrReference, "node '%s' has role on missing edge '%s'", rec.ID, id)
			}
			roles[i] = edge
		}
		if err := node.SetRoles(roles[0], roles[1], roles[2]); err != nil {
			return nil, err
		}
	}

	trips := make(map[string]*Trip)
	for id, obj := range doc.Objects {
		if obj.Type != objectTrip {
			continue
		}
		trip := &Trip{ID: id, Name: obj.Name}
		for _, edgeID := range obj.Edges {
			edge, ok := edges[edgeID]
			if !ok {
				return nil, errors.Wrapf(ErrReference, "trip '%s' references missing edge '%s'", id, edgeID)
			}
			trip.Edges = append(trip.Edges, edge)
		}
		trips[id] = trip
	}

	signals := make(map[string]*Signal, len(doc.Signals))
	for _, rec := range doc.Signals {
		edge, ok := edges[rec.Edge]
		if !ok {
			return nil, errors.Wrapf(ErrReference, "signal '%s' references missing edge '%s'", rec.ID, rec.Edge)
		}
		signal := &Signal{
			ID:                   rec.ID,
			Name:                 rec.Name,
			Edge:                 edge,
			DistancePreviousNode: rec.DistancePreviousNode,
			Direction:            ParseSignalDirection(rec.Direction),
			Function:             ParseSignalFunction(rec.Function),
			Kind:                 ParseSignalKind(rec.Kind),
			SideDistance:         rec.SideDistance,
			ClassificationNumber: rec.ClassificationNumber,
			ControlMemberID:      rec.ControlMemberID,
		}
		for _, id := range rec.AdditionalSignals {
			as, ok := additional[id]
			if !ok {
				return nil, errors.Wrapf(ErrReference, "signal '%s' references missing additional signal '%s'", rec.ID, id)
			}
			signal.AdditionalSignals = append(signal.AdditionalSignals, as)
		}
		if rec.Trip != "" {
			trip, ok := trips[rec.Trip]
			if !ok {
				return nil, errors.Wrapf(ErrReference, "signal '%s' references missing trip '%s'", rec.ID, rec.Trip)
			}
			signal.Trip = trip
		}
		signals[rec.ID] = signal
	}
	for _, rec := range doc.Edges {
		edge := edges[rec.ID]
		for _, id := range rec.Signals {
			signal, ok := signals[id]
			if !ok {
				return nil, errors.Wrapf(ErrReference, "edge '%s' references missing signal '%s'", rec.ID, id)
			}
			edge.Signals = append(edge.Signals, signal)
		}
	}
	for _, rec := range doc.Signals {
		signal := signals[rec.ID]
		if !containsSignal(signal.Edge.Signals, signal) {
			signal.Edge.Signals = append(signal.Edge.Signals, signal)
		}
		if err := topology.AddSignal(signal); err != nil {
			return nil, err
		}
	}

	for _, rec := range doc.Routes {
		start, ok := signals[rec.StartSignal]
		if !ok {
			return nil, errors.Wrapf(ErrReference, "route '%s' references missing signal '%s'", rec.ID, rec.StartSignal)
		}
		route := &Route{
			ID:           rec.ID,
			Name:         rec.Name,
			StartSignal:  start,
			MaximumSpeed: rec.MaximumSpeed,
		}
		if rec.EndSignal != "" {
			end, ok := signals[rec.EndSignal]
			if !ok {
				return nil, errors.Wrapf(ErrReference, "route '%s' references missing signal '%s'", rec.ID, rec.EndSignal)
			}
			route.EndSignal = end
		}
		for _, re := range rec.Edges {
			edge, ok := edges[re.Edge]
			if !ok {
				return nil, errors.Wrapf(ErrReference, "route '%s' references missing edge '%s'", rec.ID, re.Edge)
			}
			route.AddEdge(edge)
		}
		if err := topology.AddRoute(route); err != nil {
			return nil, err
		}
	}
	return topology, nil
}

// ToJSON returns indented JSON document of topology
func (topology *Topology) ToJSON() ([]byte, error) {
	doc, err := topology.ToDocument()
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(doc, "", "  ")
}

// FromJSON restores topology from JSON document
func FromJSON(data []byte) (*Topology, error) {
	doc := &Document{}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, errors.Wrap(err, "Can't unmarshal topology document")
	}
	return FromDocument(doc)
}

func edgeID(edge *Edge) string {
	if edge == nil {
		return ""
	}
	return edge.ID
}

func edgeIDs(edges []*Edge) []string {
	ids := make([]string, 0, len(edges))
	for _, edge := range edges {
		ids = append(ids, edge.ID)
	}
	return ids
}

func containsSignal(signals []*Signal, signal *Signal) bool {
	for _, s := range signals {
		if s == signal {
			return true
		}
	}
	return false
}
