package railtopo

import (
	"math"

	"github.com/golang/geo/s2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

var conversions = map[[2]CoordinateSystem]orb.Projection{
	{WGS84, Mercator}: project.WGS84.ToMercator,
	{Mercator, WGS84}: project.Mercator.ToWGS84,
}

// bearing returns planar angle of direction from p to q
func bearing(p, q orb.Point) float64 {
	return math.Atan2(q.Y()-p.Y(), q.X()-p.X())
}

// wrapAngle brings angle into (-pi, pi]
func wrapAngle(angle float64) float64 {
	for angle <= -math.Pi {
		angle += 2 * math.Pi
	}
	for angle > math.Pi {
		angle -= 2 * math.Pi
	}
	return angle
}

// interpolate returns point between p and q by given fraction.
// Geodetic segments are interpolated along great circle
func interpolate(p, q GeoPoint, fraction float64) GeoPoint {
	if p.System == WGS84 {
		a := s2.PointFromLatLng(s2.LatLngFromDegrees(p.Y(), p.X()))
		b := s2.PointFromLatLng(s2.LatLngFromDegrees(q.Y(), q.X()))
		ll := s2.LatLngFromPoint(s2.Interpolate(fraction, a, b))
		return NewWGS84Point(ll.Lng.Degrees(), ll.Lat.Degrees())
	}
	return GeoPoint{
		System: p.System,
		Point: orb.Point{
			(1-fraction)*p.X() + fraction*q.X(),
			(1-fraction)*p.Y() + fraction*q.Y(),
		},
	}
}
