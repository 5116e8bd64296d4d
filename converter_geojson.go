package railtopo

import (
	geojson "github.com/paulmach/go.geojson"
	"github.com/pkg/errors"
	"github.com/twpayne/go-polyline"
)

// PrepareGeoJSONLinestring returns GeoJSON representation of LineString
func PrepareGeoJSONLinestring(pts []GeoPoint) string {
	pts2d := make([][]float64, len(pts))
	for i := range pts {
		pts2d[i] = []float64{pts[i].X(), pts[i].Y()}
	}
	b, err := geojson.NewLineStringGeometry(pts2d).MarshalJSON()
	if err != nil {
		logger().Warn("Can not convert geometry to geojson format", "error", err)
		return ""
	}
	return string(b)
}

// PrepareGeoJSONPoint returns GeoJSON representation of Point
func PrepareGeoJSONPoint(pt GeoPoint) string {
	b, err := geojson.NewPointGeometry([]float64{pt.X(), pt.Y()}).MarshalJSON()
	if err != nil {
		logger().Warn("Can not convert geometry to geojson format", "error", err)
		return ""
	}
	return string(b)
}

// nodeKind describes node by number of connected edges
func nodeKind(node *Node) string {
	switch node.Degree() {
	case 0:
		return "isolated"
	case 1:
		return "end"
	case 2:
		return "pass"
	default:
		return "point"
	}
}

// ToGeoJSON returns feature collection of nodes (points) and edges (line strings) in WGS84
func (topology *Topology) ToGeoJSON() (*geojson.FeatureCollection, error) {
	fc := geojson.NewFeatureCollection()
	for _, node := range topology.Nodes() {
		if node.GeoNode == nil {
			continue
		}
		pt, err := node.GeoNode.Point.Convert(WGS84)
		if err != nil {
			return nil, errors.Wrapf(err, "Can't export node '%s'", node.ID)
		}
		f := geojson.NewPointFeature([]float64{pt.X(), pt.Y()})
		f.ID = node.ID
		f.SetProperty("kind", nodeKind(node))
		if node.Name != "" {
			f.SetProperty("name", node.Name)
		}
		if roles, err := node.Roles(); err == nil && node.IsPoint() {
			f.SetProperty("head", roles.Head.ID)
			f.SetProperty("left", roles.Left.ID)
			f.SetProperty("right", roles.Right.ID)
		}
		fc.AddFeature(f)
	}
	for _, edge := range topology.Edges() {
		line, err := edge.Geometry()
		if err != nil {
			continue
		}
		coords := make([][]float64, 0, len(line))
		latLons := make([][]float64, 0, len(line))
		for _, pt := range line {
			wgs, err := pt.Convert(WGS84)
			if err != nil {
				return nil, errors.Wrapf(err, "Can't export edge '%s'", edge.ID)
			}
			coords = append(coords, []float64{wgs.X(), wgs.Y()})
			latLons = append(latLons, []float64{wgs.Y(), wgs.X()})
		}
		f := geojson.NewLineStringFeature(coords)
		f.ID = edge.ID
		f.SetProperty("node_a", edge.NodeA.ID)
		f.SetProperty("node_b", edge.NodeB.ID)
		if length, err := edge.Length(); err == nil {
			f.SetProperty("length", length)
		}
		f.SetProperty("signals", len(edge.Signals))
		f.SetProperty("polyline", string(polyline.EncodeCoords(latLons)))
		fc.AddFeature(f)
	}
	return fc, nil
}

// GeoJSON returns serialized feature collection
func (topology *Topology) GeoJSON() ([]byte, error) {
	fc, err := topology.ToGeoJSON()
	if err != nil {
		return nil, err
	}
	b, err := fc.MarshalJSON()
	if err != nil {
		return nil, errors.Wrap(err, "Can't marshal feature collection")
	}
	return b, nil
}
