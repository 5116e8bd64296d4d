package railtopo

import (
	"github.com/google/uuid"
)

// GeoNode is identified position. Nodes own one, edges keep them as intermediate waypoints
type GeoNode struct {
	ID    string
	Name  string
	Point GeoPoint
}

func NewGeoNode(pt GeoPoint, options ...func(*GeoNode)) *GeoNode {
	gn := &GeoNode{
		ID:    uuid.NewString(),
		Point: pt,
	}
	for _, option := range options {
		option(gn)
	}
	return gn
}

func WithGeoNodeID(id string) func(*GeoNode) {
	return func(gn *GeoNode) {
		gn.ID = id
	}
}

func WithGeoNodeName(name string) func(*GeoNode) {
	return func(gn *GeoNode) {
		gn.Name = name
	}
}

// DistanceTo returns distance between positions of geo nodes
func (gn *GeoNode) DistanceTo(other *GeoNode) (float64, error) {
	return gn.Point.DistanceTo(other.Point)
}

// Copy returns geo node with the same identifier and position
func (gn *GeoNode) Copy() *GeoNode {
	cp := *gn
	return &cp
}
