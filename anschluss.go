package railtopo

import (
	"math"

	"github.com/pkg/errors"
)

// Role is "Anschluss" of edge at node
type Role uint8

const (
	RoleHead Role = iota + 1
	RoleLeft
	RoleRight
)

func (r Role) String() string {
	switch r {
	case RoleHead:
		return "head"
	case RoleLeft:
		return "left"
	case RoleRight:
		return "right"
	default:
		return "none"
	}
}

// RoleAssignment maps roles to incident edges. Left and Right are set for points only
type RoleAssignment struct {
	Head  *Edge
	Left  *Edge
	Right *Edge
}

// RoleOf returns role of edge within assignment
func (ra RoleAssignment) RoleOf(edge *Edge) (Role, bool) {
	if edge == nil {
		return 0, false
	}
	switch edge {
	case ra.Head:
		return RoleHead, true
	case ra.Left:
		return RoleLeft, true
	case ra.Right:
		return RoleRight, true
	}
	return 0, false
}

const (
	// rightAngleEpsilon is machine epsilon for float64: legs at (or beyond) right angle to direction of travel are rejected
	rightAngleEpsilon = 2.220446049250313e-16
	// legSpreadTolerance rejects legs which diverge from each other by right angle or more
	legSpreadTolerance = 1e-9
)

// permutations of three incident edges as (head, left, right) in lexicographic order
var permutations3 = [6][3]int{
	{0, 1, 2},
	{0, 2, 1},
	{1, 0, 2},
	{1, 2, 0},
	{2, 0, 1},
	{2, 1, 0},
}

func resolveRoles(node *Node, edges []*Edge) (RoleAssignment, error) {
	switch len(edges) {
	case 1, 2:
		return RoleAssignment{Head: edges[0]}, nil
	case 3:
	default:
		return RoleAssignment{}, errors.Wrapf(ErrDegree, "node '%s' has %d connected edges", node.ID, len(edges))
	}
	if node.GeoNode == nil {
		return RoleAssignment{}, errors.Wrapf(ErrGeometry, "point '%s' has no geo node", node.ID)
	}
	center := node.GeoNode.Point
	var neighbours [3]GeoPoint
	for i, edge := range edges {
		pt, err := edge.neighbourPosition(node)
		if err != nil {
			return RoleAssignment{}, err
		}
		if pt.System != center.System {
			return RoleAssignment{}, errors.Wrapf(ErrGeometry, "point '%s': %s", node.ID, ErrCoordinateSystemMismatch)
		}
		if pt.Point.Equal(center.Point) {
			return RoleAssignment{}, errors.Wrapf(ErrGeometry, "point '%s': neighbour along edge '%s' coincides with point", node.ID, edge.ID)
		}
		neighbours[i] = pt
	}
	head, left, right, ok := resolvePointRoles(center, neighbours)
	if !ok {
		return RoleAssignment{}, errors.Wrapf(ErrGeometry, "no plausible head/left/right for point '%s'", node.ID)
	}
	return RoleAssignment{Head: edges[head], Left: edges[left], Right: edges[right]}, nil
}

// resolvePointRoles returns indices of head, left and right neighbours.
// Direction of travel is taken as arriving from head neighbour; left leg is the one with positive turn
func resolvePointRoles(center GeoPoint, neighbours [3]GeoPoint) (int, int, int, bool) {
	for _, p := range permutations3 {
		travel := bearing(center.Point, neighbours[p[0]].Point) + math.Pi
		relLeft := wrapAngle(bearing(center.Point, neighbours[p[1]].Point) - travel)
		relRight := wrapAngle(bearing(center.Point, neighbours[p[2]].Point) - travel)
		if math.Cos(relLeft) <= rightAngleEpsilon || math.Cos(relRight) <= rightAngleEpsilon {
			continue
		}
		// legs 90 degrees or more apart (symmetric Y at +-45 and wider, opposite legs) are rejected
		if math.Cos(relLeft-relRight) <= legSpreadTolerance {
			continue
		}
		left, right := p[1], p[2]
		if math.Sin(relLeft) < math.Sin(relRight) {
			left, right = right, left
		}
		return p[0], left, right, true
	}
	return 0, 0, 0, false
}
