package railtopo

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/planar"
	"github.com/pkg/errors"
)

// CoordinateSystem is reference system of GeoPoint
type CoordinateSystem uint8

const (
	// WGS84 is geodetic system: X is longitude, Y is latitude (degrees)
	WGS84 CoordinateSystem = iota + 1
	// Mercator is EPSG:3857 projection (meters)
	Mercator
	// DBRef is projected system of Deutsche Bahn (meters)
	DBRef
)

func (cs CoordinateSystem) String() string {
	switch cs {
	case WGS84:
		return "wgs84"
	case Mercator:
		return "mercator"
	case DBRef:
		return "dbref"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(cs))
	}
}

// ParseCoordinateSystem returns coordinate system by its name
func ParseCoordinateSystem(s string) (CoordinateSystem, error) {
	switch s {
	case "wgs84", "WGS84", "epsg:4326", "EPSG:4326":
		return WGS84, nil
	case "mercator", "epsg:3857", "EPSG:3857":
		return Mercator, nil
	case "dbref", "DBRef", "DB_REF":
		return DBRef, nil
	}
	return 0, errors.Wrapf(ErrUnsupportedConversion, "unknown coordinate system '%s'", s)
}

// planar reports whether distances in system are Euclidean
func (cs CoordinateSystem) planar() bool {
	return cs == Mercator || cs == DBRef
}

// GeoPoint is immutable coordinate in some reference system
type GeoPoint struct {
	System CoordinateSystem
	Point  orb.Point
}

// NewWGS84Point returns geodetic point
func NewWGS84Point(lon, lat float64) GeoPoint {
	return GeoPoint{System: WGS84, Point: orb.Point{lon, lat}}
}

// NewMercatorPoint returns EPSG:3857 point
func NewMercatorPoint(x, y float64) GeoPoint {
	return GeoPoint{System: Mercator, Point: orb.Point{x, y}}
}

// NewDBRefPoint returns DB_REF point
func NewDBRefPoint(x, y float64) GeoPoint {
	return GeoPoint{System: DBRef, Point: orb.Point{x, y}}
}

func (gp GeoPoint) X() float64 { return gp.Point[0] }
func (gp GeoPoint) Y() float64 { return gp.Point[1] }

// String returns pretty printed value for for GeoPoint
func (gp GeoPoint) String() string {
	return fmt.Sprintf("%s(%f, %f)", gp.System, gp.Point[0], gp.Point[1])
}

// DistanceTo returns distance in meters between two points of the same system
func (gp GeoPoint) DistanceTo(other GeoPoint) (float64, error) {
	if gp.System != other.System {
		return 0, errors.Wrapf(ErrCoordinateSystemMismatch, "%s and %s", gp.System, other.System)
	}
	switch {
	case gp.System == WGS84:
		return geo.DistanceHaversine(gp.Point, other.Point), nil
	case gp.System.planar():
		return planar.Distance(gp.Point, other.Point), nil
	}
	return 0, errors.Wrapf(ErrUnsupportedConversion, "no metric for %s", gp.System)
}

// Convert returns point in target system
func (gp GeoPoint) Convert(target CoordinateSystem) (GeoPoint, error) {
	if gp.System == target {
		return gp, nil
	}
	convert, ok := conversions[[2]CoordinateSystem{gp.System, target}]
	if !ok {
		return GeoPoint{}, errors.Wrapf(ErrUnsupportedConversion, "%s to %s", gp.System, target)
	}
	return GeoPoint{System: target, Point: convert(gp.Point)}, nil
}

// DistanceFunc is metric used to derive lengths of edges
type DistanceFunc func(p, q GeoPoint) (float64, error)

// DefaultDistance is great-circle distance for WGS84 and Euclidean distance for projected systems
func DefaultDistance(p, q GeoPoint) (float64, error) {
	return p.DistanceTo(q)
}
