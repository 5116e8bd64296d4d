package railtopo

import (
	"math"

	"github.com/pkg/errors"
)

// MatchTrackEnds pairs every track end of a with the nearest unused track end of b within tolerance (meters).
// Result could be passed to Union directly
func MatchTrackEnds(a, b *Topology, tolerance float64) (map[*Node]*Node, error) {
	if tolerance < 0 {
		return nil, errors.Wrapf(ErrValue, "negative tolerance %f", tolerance)
	}
	candidates := b.TrackEnds()
	used := make(map[*Node]struct{}, len(candidates))
	matching := make(map[*Node]*Node)
	for _, endA := range a.TrackEnds() {
		if endA.GeoNode == nil {
			continue
		}
		var best *Node
		bestDist := math.Inf(1)
		for _, endB := range candidates {
			if _, ok := used[endB]; ok || endB.GeoNode == nil {
				continue
			}
			d, err := endA.GeoNode.DistanceTo(endB.GeoNode)
			if err != nil {
				return nil, errors.Wrapf(err, "Can't compare track ends '%s' and '%s'", endA.ID, endB.ID)
			}
			if d <= tolerance && d < bestDist {
				best, bestDist = endB, d
			}
		}
		if best != nil {
			used[best] = struct{}{}
			matching[endA] = best
		}
	}
	return matching, nil
}
