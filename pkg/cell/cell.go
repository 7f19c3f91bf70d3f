package cell

import (
	"fmt"

	"github.com/chazu/trellis/pkg/geom"
	"github.com/chazu/trellis/pkg/logging"
)

// DefaultTolerance is the coincidence distance used when none is given.
const DefaultTolerance = 1e-6

// Edge is an unordered pair of node indices, stored with A < B.
type Edge struct {
	A int `json:"a"`
	B int `json:"b"`
}

// NewEdge returns the canonical edge between nodes i and j.
func NewEdge(i, j int) Edge {
	if i > j {
		i, j = j, i
	}
	return Edge{A: i, B: j}
}

// BoundaryPath names the cell instance that owns a node. Offset is the step
// (each 0 or 1) from the current cell to the owner, and Local is the node's
// index inside the owner's frame. Unmatched marks a boundary node with no
// counterpart in the owner cell; such a node stays with its own cell.
type BoundaryPath struct {
	Offset    [3]int `json:"offset"`
	Local     int    `json:"local"`
	Unmatched bool   `json:"unmatched,omitempty"`
}

// Owned reports whether the node belongs to the cell itself.
func (p BoundaryPath) Owned() bool {
	return p.Offset == [3]int{}
}

// UnitCell is the repeating topology of a lattice. Paths is empty until
// IndexBoundaries runs, after which it is parallel to Nodes. Seams holds
// the edges IndexBoundaries pruned from the positive faces; they belong to
// neighbouring cells and are only needed where no neighbour exists.
type UnitCell struct {
	Nodes []geom.Vec     `json:"nodes"`
	Edges []Edge         `json:"edges"`
	Paths []BoundaryPath `json:"paths,omitempty"`
	Seams []Edge         `json:"seams,omitempty"`
}

// Clone returns a deep copy of c.
func (c *UnitCell) Clone() *UnitCell {
	dup := &UnitCell{
		Nodes: append([]geom.Vec(nil), c.Nodes...),
		Edges: append([]Edge(nil), c.Edges...),
	}
	if c.Paths != nil {
		dup.Paths = append([]BoundaryPath(nil), c.Paths...)
	}
	if c.Seams != nil {
		dup.Seams = append([]Edge(nil), c.Seams...)
	}
	return dup
}

// Indexed reports whether boundary paths have been assigned.
func (c *UnitCell) Indexed() bool {
	return len(c.Paths) == len(c.Nodes) && len(c.Nodes) > 0
}

// Segments returns the edges as line segments.
func (c *UnitCell) Segments() []geom.Segment {
	segs := make([]geom.Segment, len(c.Edges))
	for i, e := range c.Edges {
		segs[i] = geom.Seg(c.Nodes[e.A], c.Nodes[e.B])
	}
	return segs
}

// checkInvariants panics when the topology references nodes that do not
// exist. Such a cell can only come from a bug in this package.
func (c *UnitCell) checkInvariants() {
	seen := make(map[Edge]bool, len(c.Edges))
	for i, e := range c.Edges {
		if e.A < 0 || e.B >= len(c.Nodes) || e.A >= e.B {
			panic(fmt.Sprintf("cell: edge %d (%d,%d) invalid for %d nodes", i, e.A, e.B, len(c.Nodes)))
		}
		if seen[e] {
			panic(fmt.Sprintf("cell: edge %d (%d,%d) duplicated", i, e.A, e.B))
		}
		seen[e] = true
	}
	if c.Paths == nil {
		return
	}
	if len(c.Paths) != len(c.Nodes) {
		panic(fmt.Sprintf("cell: %d boundary paths for %d nodes", len(c.Paths), len(c.Nodes)))
	}
	for i, p := range c.Paths {
		if p.Local < 0 || p.Local >= len(c.Nodes) {
			panic(fmt.Sprintf("cell: node %d has boundary path to missing node %d", i, p.Local))
		}
	}
}

// Options configures Build.
type Options struct {
	// Tolerance is the coincidence distance. Zero means DefaultTolerance.
	Tolerance float64
	// Reference, when set, supplies the bounding box used for normalization
	// instead of the cell's own nodes (a sub-cell inside a parent's extent).
	Reference []geom.Vec
	// SkipNormalize leaves node coordinates untouched.
	SkipNormalize bool
	// Mirror enables the opposite-face mirror node check.
	Mirror bool
	// AllowInvalid indexes the cell even when validation fails.
	AllowInvalid bool
	Logger       logging.Logger
}

func (o Options) tolerance() float64 {
	if o.Tolerance <= 0 {
		return DefaultTolerance
	}
	return o.Tolerance
}

// Build runs the full pipeline on raw segments. The returned report is
// meaningful whenever validation ran, including when the error is a
// *ValidationError.
func Build(segs []geom.Segment, opts Options) (*UnitCell, Report, error) {
	tol := opts.tolerance()
	log := logging.OrNop(opts.Logger).Named("cell")

	c, err := Extract(segs, tol, log)
	if err != nil {
		return nil, Report{}, err
	}

	if !opts.SkipNormalize {
		ref := opts.Reference
		if ref == nil {
			ref = c.Nodes
		}
		if err := c.NormalizeTo(ref, tol); err != nil {
			return nil, Report{}, err
		}
	}

	report := c.Validate(ValidateOptions{Tolerance: tol, Mirror: opts.Mirror})
	if !report.Valid() {
		if !opts.AllowInvalid {
			return nil, report, report.Err()
		}
		log.Warn("indexing invalid unit cell",
			logging.String("status", report.Status.String()))
	}

	ir := c.IndexBoundaries(tol, log)
	log.Debug("unit cell built",
		logging.Int("nodes", len(c.Nodes)),
		logging.Int("edges", len(c.Edges)),
		logging.Int("pruned", len(ir.Removed)),
		logging.Int("unmatched", len(ir.Unmatched)))

	return c, report, nil
}
