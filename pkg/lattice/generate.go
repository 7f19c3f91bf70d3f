// Package lattice tiles a unit cell across a grid morphed between two
// bounding surfaces and turns the result into a strut frame.
package lattice

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/chazu/trellis/pkg/geom"
	"github.com/chazu/trellis/pkg/logging"
	"github.com/chazu/trellis/pkg/surface"
	"golang.org/x/sync/errgroup"
)

// DefaultTolerance absorbs rounding in offsets that should land exactly on a
// grid boundary.
const DefaultTolerance = 1e-6

// ErrNoOffsets is returned when generation is asked to place no points.
var ErrNoOffsets = errors.New("lattice: no reference offsets")

// Extent is the number of cells along each grid axis.
type Extent struct {
	Nu int `json:"nu" yaml:"nu"`
	Nv int `json:"nv" yaml:"nv"`
	Nw int `json:"nw" yaml:"nw"`
}

// Validate rejects negative extents.
func (e Extent) Validate() error {
	if e.Nu < 0 || e.Nv < 0 || e.Nw < 0 {
		return fmt.Errorf("lattice: negative extent %d x %d x %d", e.Nu, e.Nv, e.Nw)
	}
	return nil
}

// Cells returns the number of candidate grid cells, the inclusive range
// 0..N on every axis.
func (e Extent) Cells() int {
	return (e.Nu + 1) * (e.Nv + 1) * (e.Nw + 1)
}

// Options configures Generate.
type Options struct {
	// Tolerance is the slack allowed when testing a point against the grid
	// bound. Zero means DefaultTolerance.
	Tolerance float64
	// Workers caps concurrent cell evaluations. Zero means GOMAXPROCS.
	Workers int
	Logger  logging.Logger
}

// Generate places the reference offsets in every grid cell of ext and maps
// them into the space between the surfaces bottom and top. A cell is kept
// only when all of its offsets stay inside the grid; points are listed in
// offset order. Both surfaces are evaluated concurrently and must be safe
// for concurrent use.
func Generate(ctx context.Context, offsets []geom.Vec, ext Extent, bottom, top surface.Surface, opts Options) (*Tree, error) {
	if err := ext.Validate(); err != nil {
		return nil, err
	}
	if len(offsets) == 0 {
		return nil, ErrNoOffsets
	}
	tol := opts.Tolerance
	if tol <= 0 {
		tol = DefaultTolerance
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	log := logging.OrNop(opts.Logger).Named("lattice")

	m := mapper{ext: ext, bottom: bottom, top: top, tol: tol}
	slots := make([][]geom.Vec, ext.Cells())

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for k := range slots {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			slots[k] = m.cell(ext.index(k), offsets)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("lattice: generate: %w", err)
	}

	t := NewTree()
	for k, pts := range slots {
		if pts != nil {
			t.Set(ext.index(k), pts)
		}
	}
	log.Debug("lattice generated",
		logging.Int("candidates", len(slots)),
		logging.Int("cells", t.Len()),
		logging.Int("offsets", len(offsets)))
	return t, nil
}

// index returns the grid index of slot k, w varying fastest.
func (e Extent) index(k int) Index {
	w := k % (e.Nw + 1)
	k /= e.Nw + 1
	v := k % (e.Nv + 1)
	return Index{U: k / (e.Nv + 1), V: v, W: w}
}

type mapper struct {
	ext         Extent
	bottom, top surface.Surface
	tol         float64
}

// cell returns the points of grid cell i, or nil when any offset leaves the
// grid.
func (m mapper) cell(i Index, offsets []geom.Vec) []geom.Vec {
	pts := make([]geom.Vec, len(offsets))
	for j, o := range offsets {
		gu := float64(i.U) + o.X
		gv := float64(i.V) + o.Y
		gw := float64(i.W) + o.Z
		if gu > float64(m.ext.Nu)+m.tol || gv > float64(m.ext.Nv)+m.tol || gw > float64(m.ext.Nw)+m.tol {
			return nil
		}
		pts[j] = m.at(gu, gv, gw)
	}
	return pts
}

// at maps a global grid coordinate to world space.
func (m mapper) at(gu, gv, gw float64) geom.Vec {
	u, v := param(gu, m.ext.Nu), param(gv, m.ext.Nv)
	lo := m.bottom.At(u, v)
	hi := m.top.At(u, v)
	return geom.Lerp(lo, hi, param(gw, m.ext.Nw))
}

// param normalizes a grid coordinate; a zero-width axis maps to 0.
func param(g float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return g / float64(n)
}
