package cell

import (
	"math"

	"github.com/chazu/trellis/pkg/geom"
	"github.com/chazu/trellis/pkg/logging"
	"github.com/chazu/trellis/pkg/spatial"
)

// faceMask records which of the positive boundary planes (x=1, y=1, z=1) a
// node lies on.
type faceMask uint8

const (
	onX faceMask = 1 << iota
	onY
	onZ
)

// ownerRules decides which neighbouring cell owns a boundary node. The first
// rule whose faces are all present wins: the z=1 plane is examined first,
// then x=1, then y=1. Adjacent cells must agree on this order or they will
// disagree about who owns a shared node.
var ownerRules = [...]struct {
	faces  faceMask
	offset [3]int
}{
	{onZ | onX | onY, [3]int{1, 1, 1}},
	{onZ | onX, [3]int{1, 0, 1}},
	{onZ | onY, [3]int{0, 1, 1}},
	{onZ, [3]int{0, 0, 1}},
	{onX | onY, [3]int{1, 1, 0}},
	{onX, [3]int{1, 0, 0}},
	{onY, [3]int{0, 1, 0}},
	{0, [3]int{0, 0, 0}},
}

// ownerOffset returns the owner offset for a face mask.
func ownerOffset(m faceMask) [3]int {
	for _, r := range ownerRules {
		if m&r.faces == r.faces {
			return r.offset
		}
	}
	return [3]int{}
}

// facesOf returns the positive planes p lies on.
func facesOf(p geom.Vec, tol float64) faceMask {
	var m faceMask
	if math.Abs(p.X-1) <= tol {
		m |= onX
	}
	if math.Abs(p.Y-1) <= tol {
		m |= onY
	}
	if math.Abs(p.Z-1) <= tol {
		m |= onZ
	}
	return m
}

// reflect moves p onto the 0 plane of every axis flagged in offset, giving
// the node's position in the owning cell's frame.
func reflect(p geom.Vec, offset [3]int) geom.Vec {
	for a, step := range offset {
		if step != 0 {
			p = geom.WithComponent(p, geom.Axis(a), 0)
		}
	}
	return p
}

// IndexReport summarises IndexBoundaries.
type IndexReport struct {
	// Unmatched lists boundary nodes whose reflected position has no node
	// within tolerance. Their paths are flagged Unmatched and keep the
	// closest node only as a diagnostic.
	Unmatched []int
	// Removed lists the edges dropped because they lie on a boundary plane
	// owned by a neighbour.
	Removed []Edge
}

// IndexBoundaries assigns every node its owner path and removes edges that
// lie entirely on one positive boundary plane. Those edges are interior to
// the neighbouring cell and would be duplicated at tiling seams. The cell
// must already be normalized.
func (c *UnitCell) IndexBoundaries(tol float64, log logging.Logger) IndexReport {
	log = logging.OrNop(log)
	var report IndexReport

	idx := spatial.FromPoints(c.Nodes)
	masks := make([]faceMask, len(c.Nodes))
	c.Paths = make([]BoundaryPath, len(c.Nodes))
	for i, n := range c.Nodes {
		masks[i] = facesOf(n, tol)
		off := ownerOffset(masks[i])
		if off == [3]int{} {
			c.Paths[i] = BoundaryPath{Local: i}
			continue
		}
		j, d, _ := idx.Nearest(reflect(n, off))
		unmatched := d > tol
		if unmatched {
			report.Unmatched = append(report.Unmatched, i)
			log.Warn("boundary node has no counterpart in its owner cell",
				logging.Int("node", i),
				logging.Float64("distance", d))
		}
		c.Paths[i] = BoundaryPath{Offset: off, Local: j, Unmatched: unmatched}
	}

	kept := make([]Edge, 0, len(c.Edges))
	for _, e := range c.Edges {
		if masks[e.A]&masks[e.B] != 0 {
			report.Removed = append(report.Removed, e)
			continue
		}
		kept = append(kept, e)
	}
	c.Edges = kept
	c.Seams = report.Removed

	c.checkInvariants()
	return report
}
