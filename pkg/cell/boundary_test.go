package cell

import (
	"testing"

	"github.com/chazu/trellis/pkg/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOwnerOffset(t *testing.T) {
	tests := []struct {
		mask faceMask
		want [3]int
	}{
		{0, [3]int{0, 0, 0}},
		{onX, [3]int{1, 0, 0}},
		{onY, [3]int{0, 1, 0}},
		{onZ, [3]int{0, 0, 1}},
		{onX | onY, [3]int{1, 1, 0}},
		{onX | onZ, [3]int{1, 0, 1}},
		{onY | onZ, [3]int{0, 1, 1}},
		{onX | onY | onZ, [3]int{1, 1, 1}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ownerOffset(tt.mask), "mask %03b", tt.mask)
	}
}

func TestIndexBoundariesCube(t *testing.T) {
	c, err := Extract(cubeEdges(), DefaultTolerance, nil)
	require.NoError(t, err)

	r := c.IndexBoundaries(DefaultTolerance, nil)
	assert.Empty(t, r.Unmatched)
	assert.Len(t, r.Removed, 9)
	assert.Equal(t, r.Removed, c.Seams)

	// Every edge with both ends on a shared positive face goes; what is left
	// are the three edges leaving the origin corner.
	assert.ElementsMatch(t, []Edge{{A: 0, B: 1}, {A: 0, B: 3}, {A: 0, B: 4}}, c.Edges)

	require.Len(t, c.Paths, 8)
	assert.True(t, c.Paths[0].Owned())
	assert.Equal(t, BoundaryPath{Offset: [3]int{1, 1, 1}, Local: 0}, c.Paths[6])
	assert.Equal(t, BoundaryPath{Offset: [3]int{1, 0, 1}, Local: 0}, c.Paths[5])
	assert.Equal(t, BoundaryPath{Offset: [3]int{0, 1, 1}, Local: 0}, c.Paths[7])
	for i, p := range c.Paths {
		assert.Equal(t, 0, p.Local, "corner %d is owned by some cell's origin", i)
	}
}

func TestIndexBoundariesInteriorNodes(t *testing.T) {
	segs, err := Preset("bcc")
	require.NoError(t, err)
	c, err := Extract(segs, DefaultTolerance, nil)
	require.NoError(t, err)

	r := c.IndexBoundaries(DefaultTolerance, nil)
	assert.Empty(t, r.Removed, "struts through the body are never pruned")
	assert.Len(t, c.Edges, 8)

	for i, n := range c.Nodes {
		if geom.EpsilonEquals(n, v(0.5, 0.5, 0.5), DefaultTolerance) {
			assert.Equal(t, BoundaryPath{Local: i}, c.Paths[i])
		}
	}
}

func TestIndexBoundariesFaceCenters(t *testing.T) {
	segs, err := Preset("cross")
	require.NoError(t, err)
	c, err := Extract(segs, DefaultTolerance, nil)
	require.NoError(t, err)
	c.IndexBoundaries(DefaultTolerance, nil)

	for i, n := range c.Nodes {
		p := c.Paths[i]
		if p.Owned() {
			assert.Equal(t, i, p.Local)
			continue
		}
		owner := c.Nodes[p.Local]
		for a, step := range p.Offset {
			if step == 1 {
				assert.InDelta(t, 1, geom.Component(n, geom.Axis(a)), DefaultTolerance)
				assert.InDelta(t, 0, geom.Component(owner, geom.Axis(a)), DefaultTolerance)
			}
		}
	}
}

func TestIndexBoundariesUnmatched(t *testing.T) {
	// The node on x=1 has no counterpart on x=0 at the same height.
	c := &UnitCell{
		Nodes: []geom.Vec{v(0, 0, 0), v(1, 0.5, 0.5), v(0.5, 1, 1)},
		Edges: []Edge{{A: 0, B: 1}, {A: 1, B: 2}},
	}
	r := c.IndexBoundaries(DefaultTolerance, nil)
	assert.Contains(t, r.Unmatched, 1)
	assert.Equal(t, [3]int{1, 0, 0}, c.Paths[1].Offset)
	assert.True(t, c.Paths[1].Unmatched)
	assert.True(t, c.Paths[2].Unmatched)
	assert.False(t, c.Paths[0].Unmatched)
}
