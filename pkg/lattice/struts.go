package lattice

import (
	"fmt"

	"github.com/chazu/trellis/pkg/cell"
	"github.com/chazu/trellis/pkg/geom"
	"github.com/chazu/trellis/pkg/spatial"
)

// Frame is the strut graph of a tiled lattice. Every physical node appears
// once and every strut joins two distinct nodes, stored low index first.
type Frame struct {
	Nodes  []geom.Vec `json:"nodes" yaml:"nodes"`
	Struts [][2]int   `json:"struts" yaml:"struts"`
}

// Segments returns the struts as line segments.
func (f *Frame) Segments() []geom.Segment {
	out := make([]geom.Segment, len(f.Struts))
	for i, s := range f.Struts {
		out[i] = geom.Seg(f.Nodes[s[0]], f.Nodes[s[1]])
	}
	return out
}

// Degrees returns how many struts meet at each node.
func (f *Frame) Degrees() []int {
	out := make([]int, len(f.Nodes))
	for _, s := range f.Struts {
		out[s[0]]++
		out[s[1]]++
	}
	return out
}

// Valences counts, for every node, the frame nodes within radius of it.
// Nodes that should have merged show up with a valence above one.
func (f *Frame) Valences(radius float64) []int {
	return spatial.Valences(f.Nodes, radius)
}

// nodeKey names a physical node by the cell that owns it and its index in
// that cell. The owner cell need not be present in the tree.
type nodeKey struct {
	cell  Index
	local int
}

// Struts maps the edges of an indexed unit cell across every present cell
// of t. The tree must have been generated with the cell's nodes as
// reference offsets. Boundary nodes are resolved to their owner so a node
// shared by neighbouring cells becomes one frame node, and the seam edges
// pruned from the cell are restored and deduplicated so the outer faces of
// the lattice stay closed.
func Struts(c *cell.UnitCell, t *Tree) (*Frame, error) {
	if !c.Indexed() {
		return nil, fmt.Errorf("lattice: unit cell has no boundary index")
	}

	b := frameBuilder{
		nodes: make(map[nodeKey]int),
		seen:  make(map[[2]int]bool),
		frame: &Frame{},
	}
	for _, i := range t.Indices() {
		pts, _ := t.Get(i)
		if len(pts) != len(c.Nodes) {
			return nil, fmt.Errorf("lattice: cell %s has %d points, unit cell has %d nodes", i, len(pts), len(c.Nodes))
		}
		for _, edges := range [2][]cell.Edge{c.Edges, c.Seams} {
			for _, e := range edges {
				a := b.node(c, t, i, pts, e.A)
				z := b.node(c, t, i, pts, e.B)
				b.strut(a, z)
			}
		}
	}
	return b.frame, nil
}

type frameBuilder struct {
	nodes map[nodeKey]int
	seen  map[[2]int]bool
	frame *Frame
}

// node returns the frame index of node n of cell i, adding it on first use.
// The position is taken from the owner cell when it is present. A node whose
// path is unmatched has no owner elsewhere and is keyed by its own cell.
func (b *frameBuilder) node(c *cell.UnitCell, t *Tree, i Index, pts []geom.Vec, n int) int {
	path := c.Paths[n]
	key := nodeKey{cell: i.Step(path.Offset), local: path.Local}
	if path.Unmatched {
		key = nodeKey{cell: i, local: n}
	}
	if id, ok := b.nodes[key]; ok {
		return id
	}
	pos := pts[n]
	if owner, ok := t.Get(key.cell); ok && !path.Unmatched {
		pos = owner[path.Local]
	}
	id := len(b.frame.Nodes)
	b.frame.Nodes = append(b.frame.Nodes, pos)
	b.nodes[key] = id
	return id
}

func (b *frameBuilder) strut(a, z int) {
	if a == z {
		return
	}
	if a > z {
		a, z = z, a
	}
	s := [2]int{a, z}
	if b.seen[s] {
		return
	}
	b.seen[s] = true
	b.frame.Struts = append(b.frame.Struts, s)
}
