package railtopo

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// EdgeDirection is orientation of travel along edge relative to (NodeA, NodeB)
type EdgeDirection uint8

const (
	Forward EdgeDirection = iota + 1
	Backward
)

func (d EdgeDirection) String() string {
	switch d {
	case Forward:
		return "forward"
	case Backward:
		return "backward"
	default:
		return "undefined"
	}
}

// Edge is undirected track between two different nodes
type Edge struct {
	ID                   string
	Name                 string
	NodeA                *Node
	NodeB                *Node
	IntermediateGeoNodes []*GeoNode
	Signals              []*Signal
	VacancySection       *VacancySection
	MaximumSpeed         int

	length    float64
	hasLength bool
	distance  DistanceFunc
}

// NewEdge creates edge between two nodes and attaches it to both of them
func NewEdge(nodeA, nodeB *Node, options ...func(*Edge)) (*Edge, error) {
	if nodeA == nil || nodeB == nil {
		return nil, errors.Wrap(ErrValue, "Can't create edge with missing node")
	}
	if nodeA == nodeB || nodeA.ID == nodeB.ID {
		return nil, errors.Wrapf(ErrSelfLoop, "node '%s'", nodeA.ID)
	}
	edge := &Edge{
		ID:       uuid.NewString(),
		NodeA:    nodeA,
		NodeB:    nodeB,
		distance: DefaultDistance,
	}
	for _, option := range options {
		option(edge)
	}
	nodeA.attach(edge)
	nodeB.attach(edge)
	return edge, nil
}

func WithEdgeID(id string) func(*Edge) {
	return func(edge *Edge) {
		edge.ID = id
	}
}

func WithEdgeName(name string) func(*Edge) {
	return func(edge *Edge) {
		edge.Name = name
	}
}

// WithLength sets explicit length which overrides geometry
func WithLength(length float64) func(*Edge) {
	return func(edge *Edge) {
		edge.length = length
		edge.hasLength = true
	}
}

func WithIntermediateGeoNodes(geoNodes []*GeoNode) func(*Edge) {
	return func(edge *Edge) {
		edge.IntermediateGeoNodes = geoNodes
	}
}

func WithMaximumSpeed(speed int) func(*Edge) {
	return func(edge *Edge) {
		edge.MaximumSpeed = speed
	}
}

// WithDistanceFunc sets metric used to derive length from geometry
func WithDistanceFunc(fn DistanceFunc) func(*Edge) {
	return func(edge *Edge) {
		if fn != nil {
			edge.distance = fn
		}
	}
}

func (edge *Edge) String() string {
	return fmt.Sprintf("Edge(%s: %s-%s)", edge.ID, edge.NodeA.ID, edge.NodeB.ID)
}

// Length returns explicit (or stored) length, otherwise length of polyline
func (edge *Edge) Length() (float64, error) {
	if edge.hasLength {
		return edge.length, nil
	}
	return edge.geometryLength()
}

// HasStoredLength reports whether length is set explicitly or stored by UpdateLength
func (edge *Edge) HasStoredLength() bool {
	return edge.hasLength
}

// SetLength overrides length of edge
func (edge *Edge) SetLength(length float64) {
	edge.length = length
	edge.hasLength = true
}

// UpdateLength recomputes length from geometry and stores it
func (edge *Edge) UpdateLength() error {
	l, err := edge.geometryLength()
	if err != nil {
		return err
	}
	edge.length = l
	edge.hasLength = true
	return nil
}

func (edge *Edge) geometryLength() (float64, error) {
	line, err := edge.Geometry()
	if err != nil {
		return 0, errors.Wrapf(err, "Can't derive length of edge '%s'", edge.ID)
	}
	return polylineLength(line, edge.metric())
}

func (edge *Edge) metric() DistanceFunc {
	if edge.distance == nil {
		return DefaultDistance
	}
	return edge.distance
}

// Geometry returns polyline NodeA -> intermediates -> NodeB
func (edge *Edge) Geometry() ([]GeoPoint, error) {
	if edge.NodeA.GeoNode == nil || edge.NodeB.GeoNode == nil {
		return nil, errors.Wrapf(ErrGeometry, "edge '%s' has node without geo node", edge.ID)
	}
	line := make([]GeoPoint, 0, len(edge.IntermediateGeoNodes)+2)
	line = append(line, edge.NodeA.GeoNode.Point)
	for _, gn := range edge.IntermediateGeoNodes {
		line = append(line, gn.Point)
	}
	line = append(line, edge.NodeB.GeoNode.Point)
	return line, nil
}

// IsNodeConnected reports whether node is one of endpoints
func (edge *Edge) IsNodeConnected(node *Node) bool {
	return edge.NodeA == node || edge.NodeB == node
}

// OtherNode returns opposite endpoint. Returns nil when node is not connected
func (edge *Edge) OtherNode(node *Node) *Node {
	switch node {
	case edge.NodeA:
		return edge.NodeB
	case edge.NodeB:
		return edge.NodeA
	}
	return nil
}

// Direction returns orientation of ordered pair (from, to) relative to edge
func (edge *Edge) Direction(from, to *Node) (EdgeDirection, error) {
	if from == edge.NodeA && to == edge.NodeB {
		return Forward, nil
	}
	if from == edge.NodeB && to == edge.NodeA {
		return Backward, nil
	}
	return 0, errors.Wrapf(ErrValue, "nodes do not match endpoints of edge '%s'", edge.ID)
}

// PointAtDistance returns point located at given distance from NodeA and index of segment it belongs to.
// Distance is measured in units of Length and scaled onto polyline
func (edge *Edge) PointAtDistance(distance float64) (GeoPoint, int, error) {
	line, err := edge.Geometry()
	if err != nil {
		return GeoPoint{}, 0, err
	}
	geomLength, err := polylineLength(line, edge.metric())
	if err != nil {
		return GeoPoint{}, 0, err
	}
	length, err := edge.Length()
	if err != nil {
		return GeoPoint{}, 0, err
	}
	along := distance
	if length > 0 {
		along = distance * geomLength / length
	}
	idx, pt, err := pointAlongPolyline(line, along, edge.metric())
	if err != nil {
		return GeoPoint{}, 0, errors.Wrapf(err, "Can't interpolate along edge '%s'", edge.ID)
	}
	return pt, idx, nil
}

// neighbourPosition returns first polyline vertex after node when leaving it along edge
func (edge *Edge) neighbourPosition(node *Node) (GeoPoint, error) {
	var gn *GeoNode
	switch node {
	case edge.NodeA:
		if len(edge.IntermediateGeoNodes) > 0 {
			gn = edge.IntermediateGeoNodes[0]
		} else {
			gn = edge.NodeB.GeoNode
		}
	case edge.NodeB:
		if len(edge.IntermediateGeoNodes) > 0 {
			gn = edge.IntermediateGeoNodes[len(edge.IntermediateGeoNodes)-1]
		} else {
			gn = edge.NodeA.GeoNode
		}
	default:
		return GeoPoint{}, errors.Wrapf(ErrReference, "node '%s' is not connected to edge '%s'", node.ID, edge.ID)
	}
	if gn == nil {
		return GeoPoint{}, errors.Wrapf(ErrGeometry, "neighbour of node '%s' along edge '%s' has no geo node", node.ID, edge.ID)
	}
	return gn.Point, nil
}

// geoNodesFrom returns intermediate geo nodes ordered from given endpoint
func (edge *Edge) geoNodesFrom(node *Node) []*GeoNode {
	if node == edge.NodeB {
		return reverseGeoNodes(edge.IntermediateGeoNodes)
	}
	return edge.IntermediateGeoNodes
}
