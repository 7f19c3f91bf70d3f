package lattice

import (
	"fmt"
	"sort"

	"github.com/chazu/trellis/pkg/geom"
)

// Index addresses one cell of the generation grid.
type Index struct {
	U int `json:"u" yaml:"u"`
	V int `json:"v" yaml:"v"`
	W int `json:"w" yaml:"w"`
}

// Step returns the index offset by a unit step per axis.
func (i Index) Step(off [3]int) Index {
	return Index{U: i.U + off[0], V: i.V + off[1], W: i.W + off[2]}
}

func (i Index) String() string {
	return fmt.Sprintf("{%d;%d;%d}", i.U, i.V, i.W)
}

func (i Index) less(j Index) bool {
	if i.U != j.U {
		return i.U < j.U
	}
	if i.V != j.V {
		return i.V < j.V
	}
	return i.W < j.W
}

// Branch is one populated cell of a Tree.
type Branch struct {
	Index  Index      `json:"index" yaml:"index"`
	Points []geom.Vec `json:"points" yaml:"points"`
}

// Tree maps grid cells to their world-space points. A cell missing from the
// tree was rejected during generation; it is not an empty cell.
type Tree struct {
	cells map[Index][]geom.Vec
}

// NewTree returns an empty tree.
func NewTree() *Tree {
	return &Tree{cells: make(map[Index][]geom.Vec)}
}

// Set stores the points of cell i, replacing any previous entry.
func (t *Tree) Set(i Index, pts []geom.Vec) {
	t.cells[i] = pts
}

// Get returns the points of cell i.
func (t *Tree) Get(i Index) ([]geom.Vec, bool) {
	pts, ok := t.cells[i]
	return pts, ok
}

// Has reports whether cell i is present.
func (t *Tree) Has(i Index) bool {
	_, ok := t.cells[i]
	return ok
}

// Len returns the number of present cells.
func (t *Tree) Len() int {
	return len(t.cells)
}

// Indices returns the present cells in lexicographic (u, v, w) order.
func (t *Tree) Indices() []Index {
	out := make([]Index, 0, len(t.cells))
	for i := range t.cells {
		out = append(out, i)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].less(out[b]) })
	return out
}

// Branches returns the present cells with their points in Indices order.
func (t *Tree) Branches() []Branch {
	idx := t.Indices()
	out := make([]Branch, len(idx))
	for k, i := range idx {
		out[k] = Branch{Index: i, Points: t.cells[i]}
	}
	return out
}

// Points flattens the tree in Indices order.
func (t *Tree) Points() []geom.Vec {
	var out []geom.Vec
	for _, i := range t.Indices() {
		out = append(out, t.cells[i]...)
	}
	return out
}
