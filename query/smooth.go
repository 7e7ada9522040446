package query

import (
	"github.com/o0olele/octree-nav/math32"
	"github.com/o0olele/octree-nav/octree"
)

// SmoothPath returns waypoints along path with every node skipped that the
// previous kept waypoint can see past. Visibility is tested against the
// occupied leaves of tree, so the result never crosses an obstacle cell.
func SmoothPath(tree *octree.Octree, path *Path) []math32.Vector3 {
	if path == nil || len(path.Nodes) == 0 {
		return nil
	}

	nodes := path.Nodes
	smoothed := []math32.Vector3{nodes[0].Center}
	for current := 0; current < len(nodes)-1; {
		// farthest node visible from current; the next node is always reachable
		farthest := current + 1
		for next := len(nodes) - 1; next > current+1; next-- {
			if !tree.SegmentBlocked(nodes[current].Center, nodes[next].Center) {
				farthest = next
				break
			}
		}
		smoothed = append(smoothed, nodes[farthest].Center)
		current = farthest
	}
	return smoothed
}

// PolylineLength sums the segment lengths of points.
func PolylineLength(points []math32.Vector3) float32 {
	var length float32
	for i := 1; i < len(points); i++ {
		length += points[i-1].Distance(points[i])
	}
	return length
}
