package railtopo

import (
	"math"
	"testing"
)

func Round(x, unit float64) float64 {
	if x > 0 {
		return float64(int64(x/unit+0.5)) * unit
	}
	return float64(int64(x/unit-0.5)) * unit
}

func TestGreatCircleDistance(t *testing.T) {
	p1 := NewWGS84Point(0, 0)
	p2 := NewWGS84Point(1, 0)
	res := 111319.49079327357 // meters
	gcd, err := p1.DistanceTo(p2)
	if err != nil {
		t.Error(err)
	}
	if Round(gcd, 0.0005) != Round(res, 0.0005) {
		t.Errorf("Great circle dist must be %f, but got %f", res, gcd)
	}
}

func TestPolylineLength(t *testing.T) {
	line := []GeoPoint{
		NewMercatorPoint(0, 0),
		NewMercatorPoint(3, 4),
		NewMercatorPoint(3, 10),
	}
	length, err := polylineLength(line, DefaultDistance)
	if err != nil {
		t.Error(err)
	}
	if length != 11.0 {
		t.Errorf("Length must be %f, but got %f", 11.0, length)
	}
	length, err = polylineLength(line[:1], DefaultDistance)
	if err != nil {
		t.Error(err)
	}
	if length != 0 {
		t.Errorf("Length of single point must be 0, but got %f", length)
	}
	_, err = polylineLength([]GeoPoint{NewMercatorPoint(0, 0), NewWGS84Point(0, 0)}, DefaultDistance)
	if err == nil {
		t.Errorf("Mixed coordinate systems must produce error")
	}
}

func TestPointAlongPolyline(t *testing.T) {
	line := []GeoPoint{
		NewMercatorPoint(0, 0),
		NewMercatorPoint(10, 0),
		NewMercatorPoint(10, 10),
	}
	type testCase struct {
		distance float64
		idx      int
		x, y     float64
	}
	cases := []testCase{
		{distance: 0, idx: 0, x: 0, y: 0},
		{distance: 4, idx: 0, x: 4, y: 0},
		{distance: 10, idx: 0, x: 10, y: 0},
		{distance: 15, idx: 1, x: 10, y: 5},
		{distance: 100, idx: 1, x: 10, y: 10},
	}
	for i, tc := range cases {
		idx, pt, err := pointAlongPolyline(line, tc.distance, DefaultDistance)
		if err != nil {
			t.Error(err)
			continue
		}
		if idx != tc.idx {
			t.Errorf("Case %d: segment index must be %d, but got %d", i, tc.idx, idx)
		}
		if math.Abs(pt.X()-tc.x) > 1e-9 || math.Abs(pt.Y()-tc.y) > 1e-9 {
			t.Errorf("Case %d: point must be (%f, %f), but got %v", i, tc.x, tc.y, pt)
		}
	}
	if _, _, err := pointAlongPolyline(nil, 1, DefaultDistance); err == nil {
		t.Errorf("Empty line must produce error")
	}
}

func TestInterpolateGreatCircle(t *testing.T) {
	p := NewWGS84Point(10, 0)
	q := NewWGS84Point(10, 20)
	mid := interpolate(p, q, 0.5)
	if mid.System != WGS84 {
		t.Errorf("Interpolated point must stay in %s, but got %s", WGS84, mid.System)
	}
	if math.Abs(mid.X()-10) > 1e-9 || math.Abs(mid.Y()-10) > 1e-9 {
		t.Errorf("Middle point of meridian segment must be (10, 10), but got %v", mid)
	}
}

func TestWrapAngle(t *testing.T) {
	cases := [][2]float64{
		{0, 0},
		{math.Pi, math.Pi},
		{-math.Pi, math.Pi},
		{3 * math.Pi / 2, -math.Pi / 2},
		{-5 * math.Pi / 2, -math.Pi / 2},
	}
	for _, c := range cases {
		if w := wrapAngle(c[0]); math.Abs(w-c[1]) > 1e-12 {
			t.Errorf("Wrapped %f must be %f, but got %f", c[0], c[1], w)
		}
	}
}

func TestReverseGeoNodes(t *testing.T) {
	nodes := []*GeoNode{
		NewGeoNode(NewMercatorPoint(0, 0)),
		NewGeoNode(NewMercatorPoint(1, 0)),
		NewGeoNode(NewMercatorPoint(2, 0)),
	}
	reversed := reverseGeoNodes(nodes)
	for i := range nodes {
		if reversed[i] != nodes[len(nodes)-1-i] {
			t.Errorf("Geo node %d is not reversed", i)
		}
	}
	if nodes[0].Point.X() != 0 {
		t.Errorf("Source slice must stay untouched")
	}
}
