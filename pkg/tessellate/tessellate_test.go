package tessellate_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/trellis/pkg/cell"
	"github.com/chazu/trellis/pkg/design"
	"github.com/chazu/trellis/pkg/geom"
	"github.com/chazu/trellis/pkg/kernel"
	"github.com/chazu/trellis/pkg/kernel/sdfx"
	"github.com/chazu/trellis/pkg/lattice"
	"github.com/chazu/trellis/pkg/surface"
	"github.com/chazu/trellis/pkg/tessellate"
)

// newKernel returns a coarse sdfx kernel so tests stay fast.
func newKernel() kernel.Kernel {
	return sdfx.NewWithCells(32)
}

// makeLattice adds a preset cell and a box lattice of side size to g.
func makeLattice(g *design.DesignGraph, name, preset string, size float64, ext lattice.Extent, strutRadius float64) *design.Node {
	cellID := design.NewNodeID("defcell/" + name)
	g.AddNode(&design.Node{ID: cellID, Kind: design.NodeCell, Name: name + "-cell", Data: design.CellData{Preset: preset}})
	n := &design.Node{
		ID:       design.NewNodeID("lattice/" + name),
		Kind:     design.NodeLattice,
		Name:     name,
		Children: []design.NodeID{cellID},
		Data: design.LatticeData{
			Cell:        cellID,
			Size:        size,
			Extent:      ext,
			Offsets:     design.OffsetsNodes,
			StrutRadius: strutRadius,
		},
	}
	g.AddNode(n)
	g.AddRoot(n.ID)
	return n
}

func assertMeshBounds(t *testing.T, m *kernel.Mesh, lo, hi [3]float32, tol float64) {
	t.Helper()
	gotLo, gotHi := m.Bounds()
	for i := 0; i < 3; i++ {
		assert.InDelta(t, lo[i], gotLo[i], tol, "min[%d]", i)
		assert.InDelta(t, hi[i], gotHi[i], tol, "max[%d]", i)
	}
}

func TestFrameSingleCube(t *testing.T) {
	segs, err := cell.Preset("cube")
	require.NoError(t, err)
	c, _, err := cell.Build(segs, cell.Options{})
	require.NoError(t, err)
	bottom, top := surface.FlatPair(1)
	tree, err := lattice.Generate(context.Background(), c.Nodes, lattice.Extent{Nu: 1, Nv: 1, Nw: 1}, bottom, top, lattice.Options{})
	require.NoError(t, err)
	frame, err := lattice.Struts(c, tree)
	require.NoError(t, err)
	require.Len(t, frame.Struts, 12)

	k := newKernel()
	m, err := tessellate.Frame(k, frame, tessellate.Options{StrutRadius: 0.1})
	require.NoError(t, err)
	require.False(t, m.IsEmpty())
	assert.Len(t, m.Normals, len(m.Vertices))
	assertMeshBounds(t, m, [3]float32{-0.1, -0.1, -0.1}, [3]float32{1.1, 1.1, 1.1}, 0.08)

	clipped, err := tessellate.Frame(k, frame, tessellate.Options{StrutRadius: 0.1, NodeRadius: 0.15, Clip: true})
	require.NoError(t, err)
	assertMeshBounds(t, clipped, [3]float32{0, 0, 0}, [3]float32{1, 1, 1}, 0.08)
}

func TestDesignOneMeshPerLattice(t *testing.T) {
	g := design.New()
	makeLattice(g, "block", "cube", 2, lattice.Extent{Nu: 2, Nv: 1, Nw: 1}, 0.1)
	makeLattice(g, "core", "bcc", 1, lattice.Extent{Nu: 1, Nv: 1, Nw: 1}, 0)

	meshes, err := tessellate.Design(context.Background(), g, newKernel(), tessellate.DesignOptions{})
	require.NoError(t, err)
	require.Len(t, meshes, 2)

	assert.Equal(t, "block", meshes[0].Name)
	assert.Equal(t, "core", meshes[1].Name)
	for _, m := range meshes {
		assert.False(t, m.IsEmpty(), m.Name)
		assert.NotZero(t, m.TriangleCount(), m.Name)
	}

	// Two cells split the box of side 2 along X; the struts reach its faces.
	assertMeshBounds(t, meshes[0], [3]float32{-0.1, -0.1, -0.1}, [3]float32{2.1, 2.1, 2.1}, 0.1)
	// Zero strut radius falls back to the graph default.
	r := float32(design.DefaultStrutRadius)
	assertMeshBounds(t, meshes[1], [3]float32{-r, -r, -r}, [3]float32{1 + r, 1 + r, 1 + r}, 0.08)
}

func TestDesignNilGraph(t *testing.T) {
	meshes, err := tessellate.Design(context.Background(), nil, newKernel(), tessellate.DesignOptions{})
	require.NoError(t, err)
	assert.Empty(t, meshes)
}

func TestDesignEmptyGraph(t *testing.T) {
	meshes, err := tessellate.Design(context.Background(), design.New(), newKernel(), tessellate.DesignOptions{})
	require.NoError(t, err)
	assert.Empty(t, meshes)
}

func TestDesignCancelled(t *testing.T) {
	g := design.New()
	makeLattice(g, "block", "cube", 1, lattice.Extent{Nu: 1, Nv: 1, Nw: 1}, 0.1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := tessellate.Design(ctx, g, newKernel(), tessellate.DesignOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDesignInvalidCell(t *testing.T) {
	g := design.New()
	cellID := design.NewNodeID("defcell/diag")
	g.AddNode(&design.Node{
		ID: cellID, Kind: design.NodeCell, Name: "diag",
		Data: design.CellData{
			Segments: []geom.Segment{geom.Seg(geom.Vec{}, geom.Vec{X: 1, Y: 1, Z: 1})},
			Mirror:   true,
		},
	})
	lat := &design.Node{
		ID: design.NewNodeID("lattice/diag-block"), Kind: design.NodeLattice, Name: "diag-block",
		Children: []design.NodeID{cellID},
		Data:     design.LatticeData{Cell: cellID, Extent: lattice.Extent{Nu: 1, Nv: 1, Nw: 1}, Offsets: design.OffsetsNodes, StrutRadius: 0.1},
	}
	g.AddNode(lat)
	g.AddRoot(lat.ID)

	_, err := tessellate.Design(context.Background(), g, newKernel(), tessellate.DesignOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, cell.ErrInvalid)
}
