package spatial

import "github.com/chazu/trellis/pkg/geom"

// DefaultValenceRadius is the neighbourhood radius used by valence queries
// when the caller has no better scale.
const DefaultValenceRadius = 0.01

// Valences returns, for every point, the number of points (itself included)
// within radius of it.
func Valences(points []geom.Vec, radius float64) []int {
	idx := FromPoints(points)
	out := make([]int, len(points))
	for i, p := range points {
		out[i] = idx.CountWithin(p, radius)
	}
	return out
}

// ClosestIndices returns, for every query point, the index of the nearest
// point in targets. It returns nil when targets is empty.
func ClosestIndices(queries, targets []geom.Vec) []int {
	if len(targets) == 0 {
		return nil
	}
	idx := FromPoints(targets)
	out := make([]int, len(queries))
	for i, q := range queries {
		out[i], _, _ = idx.Nearest(q)
	}
	return out
}
