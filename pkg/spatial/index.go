// Package spatial wraps an R-tree with the two queries the lattice pipeline
// needs: nearest point by a shrinking search sphere, and fixed-radius
// neighbour counts (valence). An Index is built for one batch of queries and
// discarded; it is not safe for concurrent mutation.
package spatial

import (
	"math"

	"github.com/chazu/trellis/pkg/geom"
	"github.com/dhconnelly/rtreego"
)

// R-tree branching factors.
const (
	minChildren = 4
	maxChildren = 16
)

// pointExtent is the half-width of the box stored for each point. rtreego
// treats touching boxes as disjoint, so points need a non-zero extent.
const pointExtent = 1e-12

// entry is a point stored in the tree.
type entry struct {
	p  geom.Vec
	id int
}

func (e *entry) Bounds() rtreego.Rect {
	return toPoint(e.p).ToRect(pointExtent)
}

func toPoint(v geom.Vec) rtreego.Point {
	return rtreego.Point{v.X, v.Y, v.Z}
}

// Index is a 3D point index.
type Index struct {
	tree  *rtreego.Rtree
	first *entry
}

// New returns an empty index.
func New() *Index {
	return &Index{tree: rtreego.NewTree(3, minChildren, maxChildren)}
}

// FromPoints builds an index over pts, using each point's slice position as
// its id.
func FromPoints(pts []geom.Vec) *Index {
	idx := New()
	for i, p := range pts {
		idx.Insert(p, i)
	}
	return idx
}

// Insert adds p under the given id.
func (idx *Index) Insert(p geom.Vec, id int) {
	e := &entry{p: p, id: id}
	if idx.first == nil {
		idx.first = e
	}
	idx.tree.Insert(e)
}

// Len returns the number of stored points.
func (idx *Index) Len() int {
	return idx.tree.Size()
}

// Nearest returns the id of the stored point closest to p and its distance.
// The search starts from a sphere through the first inserted point, which is
// guaranteed to hold a candidate, and shrinks the sphere whenever a closer
// candidate is visited. Exact ties resolve by traversal order. ok is false on
// an empty index.
func (idx *Index) Nearest(p geom.Vec) (id int, dist float64, ok bool) {
	if idx.first == nil {
		return -1, 0, false
	}

	best := idx.first
	radius := geom.Dist(p, best.p)
	if radius == 0 {
		return best.id, 0, true
	}

	seed := sphereRect(p, radius*1.1)
	shrink := func(_ []rtreego.Spatial, obj rtreego.Spatial) (refuse, abort bool) {
		e := obj.(*entry)
		if d := geom.Dist(p, e.p); d < radius {
			radius = d
			best = e
		}
		// Candidates are consumed by the filter; nothing is collected.
		return true, radius == 0
	}
	idx.tree.SearchIntersect(seed, shrink)

	return best.id, radius, true
}

// Within returns the ids of every stored point no farther than r from p, in
// traversal order.
func (idx *Index) Within(p geom.Vec, r float64) []int {
	var ids []int
	if r < 0 || idx.first == nil {
		return ids
	}
	inside := func(_ []rtreego.Spatial, obj rtreego.Spatial) (refuse, abort bool) {
		e := obj.(*entry)
		if geom.Dist(p, e.p) <= r {
			ids = append(ids, e.id)
		}
		return true, false
	}
	idx.tree.SearchIntersect(sphereRect(p, r), inside)
	return ids
}

// CountWithin returns how many stored points lie within r of p, p itself
// included when stored.
func (idx *Index) CountWithin(p geom.Vec, r float64) int {
	return len(idx.Within(p, r))
}

// sphereRect returns the box enclosing the sphere of radius r around p.
func sphereRect(p geom.Vec, r float64) rtreego.Rect {
	return toPoint(p).ToRect(math.Max(r, pointExtent) + pointExtent)
}
