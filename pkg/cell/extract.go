package cell

import (
	"github.com/chazu/trellis/pkg/geom"
	"github.com/chazu/trellis/pkg/logging"
	"github.com/chazu/trellis/pkg/spatial"
)

// ResolveIntersections splits segments where they cross the interior of
// another segment so that every crossing becomes a node.
//
// It makes a single pass over the pairs of the input segments. A segment is
// split at most once per pass: a second interior crossing on a segment that
// was already split is logged and left unresolved. Surviving segments keep
// their order and the split halves follow them.
func ResolveIntersections(segs []geom.Segment, tol float64, log logging.Logger) []geom.Segment {
	log = logging.OrNop(log)
	split := make([]bool, len(segs))
	var halves []geom.Segment

	for a := 0; a < len(segs); a++ {
		for b := a + 1; b < len(segs); b++ {
			ta, tb, ok := geom.Intersect(segs[a], segs[b], tol)
			if !ok {
				continue
			}
			for _, hit := range [2]struct {
				i int
				t float64
			}{{a, ta}, {b, tb}} {
				s := segs[hit.i]
				if !interior(s, hit.t, tol) {
					continue
				}
				if split[hit.i] {
					log.Warn("second crossing on an already split segment left unresolved",
						logging.Int("segment", hit.i),
						logging.Any("at", s.PointAt(hit.t)))
					continue
				}
				lo, hi := s.Split(hit.t)
				halves = append(halves, lo, hi)
				split[hit.i] = true
			}
		}
	}

	out := make([]geom.Segment, 0, len(segs)+len(halves)/2)
	for i, s := range segs {
		if !split[i] {
			out = append(out, s)
		}
	}
	return append(out, halves...)
}

// interior reports whether parameter t on s lies more than tol away from
// both endpoints.
func interior(s geom.Segment, t, tol float64) bool {
	l := s.Length()
	return t*l > tol && (1-t)*l > tol
}

// Extract builds a unit cell from raw segments: crossings are resolved, end
// points within tol of an existing node reuse it, and each unordered node
// pair becomes one edge. A segment no longer than tol is a *DegenerateError.
func Extract(segs []geom.Segment, tol float64, log logging.Logger) (*UnitCell, error) {
	for i, s := range segs {
		if s.Length() <= tol {
			return nil, &DegenerateError{Segment: i, Reason: "length within tolerance of zero"}
		}
	}

	resolved := ResolveIntersections(segs, tol, log)

	c := &UnitCell{}
	idx := spatial.New()
	seen := make(map[Edge]bool, len(resolved))
	for _, s := range resolved {
		a := c.nodeAt(idx, s.From, tol)
		b := c.nodeAt(idx, s.To, tol)
		if a == b {
			// Both ends snapped onto the same node.
			continue
		}
		e := NewEdge(a, b)
		if seen[e] {
			continue
		}
		seen[e] = true
		c.Edges = append(c.Edges, e)
	}

	c.checkInvariants()
	return c, nil
}

// nodeAt returns the index of the node within tol of p, appending p as a new
// node when none exists.
func (c *UnitCell) nodeAt(idx *spatial.Index, p geom.Vec, tol float64) int {
	if id, d, ok := idx.Nearest(p); ok && d <= tol {
		return id
	}
	c.Nodes = append(c.Nodes, p)
	id := len(c.Nodes) - 1
	idx.Insert(p, id)
	return id
}
