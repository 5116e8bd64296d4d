package railtopo

import (
	"github.com/pkg/errors"
)

// polylineLength returns length for given line using provided metric
func polylineLength(line []GeoPoint, dist DistanceFunc) (float64, error) {
	totalLength := 0.0
	if len(line) < 2 {
		return totalLength, nil
	}
	for i := 1; i < len(line); i++ {
		d, err := dist(line[i-1], line[i])
		if err != nil {
			return 0, errors.Wrapf(err, "Can't measure segment %d", i-1)
		}
		totalLength += d
	}
	return totalLength, nil
}

// pointAlongPolyline returns point located at given distance from the start of line and index of point in line right before it.
// Distance is clamped to the line
func pointAlongPolyline(line []GeoPoint, distance float64, dist DistanceFunc) (int, GeoPoint, error) {
	if len(line) == 0 {
		return 0, GeoPoint{}, errors.Wrap(ErrGeometry, "Can't interpolate on empty line")
	}
	if distance <= 0 || len(line) == 1 {
		return 0, line[0], nil
	}
	cl := 0.0
	for i := 1; i < len(line); i++ {
		ol := cl
		tmpDist, err := dist(line[i-1], line[i])
		if err != nil {
			return 0, GeoPoint{}, errors.Wrapf(err, "Can't measure segment %d", i-1)
		}
		cl += tmpDist
		if distance <= cl && tmpDist > 0 {
			return i - 1, interpolate(line[i-1], line[i], (distance-ol)/tmpDist), nil
		}
	}
	return len(line) - 2, line[len(line)-1], nil
}

// reverseGeoNodes reverses order of geo nodes. Returns new slice
func reverseGeoNodes(nodes []*GeoNode) []*GeoNode {
	inputLen := len(nodes)
	output := make([]*GeoNode, inputLen)
	for i, n := range nodes {
		output[inputLen-i-1] = n
	}
	return output
}

// copyGeoNodes returns deep copy of geo nodes
func copyGeoNodes(nodes []*GeoNode) []*GeoNode {
	output := make([]*GeoNode, len(nodes))
	for i, n := range nodes {
		output[i] = n.Copy()
	}
	return output
}
