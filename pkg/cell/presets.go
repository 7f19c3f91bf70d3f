package cell

import (
	"fmt"
	"sort"

	"github.com/chazu/trellis/pkg/geom"
	"github.com/samber/lo"
)

// CornerNodes returns the eight corners of the axis-aligned cube of side d
// at the origin. The bottom square comes first, counter-clockwise from the
// origin, then the top square in the same order.
func CornerNodes(d float64) []geom.Vec {
	return []geom.Vec{
		{X: 0, Y: 0, Z: 0},
		{X: d, Y: 0, Z: 0},
		{X: d, Y: d, Z: 0},
		{X: 0, Y: d, Z: 0},
		{X: 0, Y: 0, Z: d},
		{X: d, Y: 0, Z: d},
		{X: d, Y: d, Z: d},
		{X: 0, Y: d, Z: d},
	}
}

// CubeCorners returns the corners of the unit cube, the usual reference
// offsets for lattice generation.
func CubeCorners() []geom.Vec {
	return CornerNodes(1)
}

var presets = map[string]func() []geom.Segment{
	"cube":  cubeEdges,
	"bcc":   bodyDiagonals,
	"cross": axisCross,
	"x":     faceDiagonals,
}

// PresetNames lists the stock topologies in name order.
func PresetNames() []string {
	names := lo.Keys(presets)
	sort.Strings(names)
	return names
}

// Preset returns the raw segments of a stock unit cell topology.
func Preset(name string) ([]geom.Segment, error) {
	fn, ok := presets[name]
	if !ok {
		return nil, fmt.Errorf("cell: unknown preset %q (have %v)", name, PresetNames())
	}
	return fn(), nil
}

func cubeEdges() []geom.Segment {
	c := CubeCorners()
	pairs := [12][2]int{
		{0, 1}, {1, 2}, {2, 3}, {3, 0},
		{4, 5}, {5, 6}, {6, 7}, {7, 4},
		{0, 4}, {1, 5}, {2, 6}, {3, 7},
	}
	segs := make([]geom.Segment, len(pairs))
	for i, p := range pairs {
		segs[i] = geom.Seg(c[p[0]], c[p[1]])
	}
	return segs
}

func bodyDiagonals() []geom.Segment {
	c := CubeCorners()
	return []geom.Segment{
		geom.Seg(c[0], c[6]),
		geom.Seg(c[1], c[7]),
		geom.Seg(c[2], c[4]),
		geom.Seg(c[3], c[5]),
	}
}

func axisCross() []geom.Segment {
	return []geom.Segment{
		geom.Seg(geom.Vec{X: 0, Y: 0.5, Z: 0.5}, geom.Vec{X: 1, Y: 0.5, Z: 0.5}),
		geom.Seg(geom.Vec{X: 0.5, Y: 0, Z: 0.5}, geom.Vec{X: 0.5, Y: 1, Z: 0.5}),
		geom.Seg(geom.Vec{X: 0.5, Y: 0.5, Z: 0}, geom.Vec{X: 0.5, Y: 0.5, Z: 1}),
	}
}

// faceDiagonals crosses every face of the unit cube with both diagonals.
func faceDiagonals() []geom.Segment {
	c := CubeCorners()
	faces := [6][4]int{
		{0, 1, 2, 3}, {4, 5, 6, 7},
		{0, 1, 5, 4}, {3, 2, 6, 7},
		{0, 3, 7, 4}, {1, 2, 6, 5},
	}
	segs := make([]geom.Segment, 0, 12)
	for _, f := range faces {
		segs = append(segs,
			geom.Seg(c[f[0]], c[f[2]]),
			geom.Seg(c[f[1]], c[f[3]]))
	}
	return segs
}
