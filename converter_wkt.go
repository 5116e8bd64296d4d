package railtopo

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
)

// PrepareWKTLinestring returns WKT representation of LineString
func PrepareWKTLinestring(pts []GeoPoint) string {
	line := make(orb.LineString, len(pts))
	for i := range pts {
		line[i] = pts[i].Point
	}
	return wkt.MarshalString(line)
}

// PrepareWKTPoint returns WKT representation of Point
func PrepareWKTPoint(pt GeoPoint) string {
	return wkt.MarshalString(pt.Point)
}

// WKT returns geometry of edge in its own coordinate system
func (edge *Edge) WKT() (string, error) {
	line, err := edge.Geometry()
	if err != nil {
		return "", err
	}
	return PrepareWKTLinestring(line), nil
}

// WKT returns position of node. Empty string for nodes without geo node
func (node *Node) WKT() string {
	if node.GeoNode == nil {
		return ""
	}
	return PrepareWKTPoint(node.GeoNode.Point)
}
