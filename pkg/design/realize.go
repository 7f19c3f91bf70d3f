package design

import (
	"context"
	"fmt"

	"github.com/chazu/trellis/pkg/cell"
	"github.com/chazu/trellis/pkg/lattice"
	"github.com/chazu/trellis/pkg/logging"
	"github.com/chazu/trellis/pkg/surface"
)

// RealizeOptions configures Realize.
type RealizeOptions struct {
	Workers      int
	AllowInvalid bool
	Logger       logging.Logger
}

// Realized is a lattice node turned into geometry.
type Realized struct {
	Node   *Node
	Cell   *cell.UnitCell
	Report cell.Report
	// Grid holds the generated points per grid cell: cube corners or cell
	// nodes depending on the lattice's offsets mode.
	Grid *lattice.Tree
	// Nodes holds the unit cell nodes placed in every grid cell.
	Nodes *lattice.Tree
	Frame *lattice.Frame
}

// BuildCell runs the unit cell pipeline for a cell node.
func (g *DesignGraph) BuildCell(n *Node, opts RealizeOptions) (*cell.UnitCell, cell.Report, error) {
	d, ok := n.Data.(CellData)
	if !ok {
		return nil, cell.Report{}, fmt.Errorf("design: node %s is a %s, not a cell", n.ID.Short(), n.Kind)
	}
	segs := d.Segments
	if d.Preset != "" {
		var err error
		if segs, err = cell.Preset(d.Preset); err != nil {
			return nil, cell.Report{}, err
		}
	}
	tol := d.Tolerance
	if tol == 0 {
		tol = g.Defaults.Tolerance
	}
	c, report, err := cell.Build(segs, cell.Options{
		Tolerance:    tol,
		Reference:    d.Reference,
		Mirror:       d.Mirror || g.Defaults.Mirror,
		AllowInvalid: opts.AllowInvalid,
		Logger:       logging.OrNop(opts.Logger).With(logging.String("cell", n.Name)),
	})
	if err != nil {
		return nil, report, fmt.Errorf("design: cell %q: %w", n.Name, err)
	}
	return c, report, nil
}

// Realize builds the cell of a lattice node, generates its grid and maps the
// cell's edges into a strut frame.
func (g *DesignGraph) Realize(ctx context.Context, n *Node, opts RealizeOptions) (*Realized, error) {
	d, ok := n.Data.(LatticeData)
	if !ok {
		return nil, fmt.Errorf("design: node %s is a %s, not a lattice", n.ID.Short(), n.Kind)
	}
	cn := g.Get(d.Cell)
	if cn == nil {
		return nil, fmt.Errorf("design: lattice %q: cell %s not found", n.Name, d.Cell.Short())
	}
	c, report, err := g.BuildCell(cn, opts)
	if err != nil {
		return nil, err
	}

	bottom, top, err := g.surfaces(d)
	if err != nil {
		return nil, fmt.Errorf("design: lattice %q: %w", n.Name, err)
	}

	offsets := c.Nodes
	if d.Offsets == OffsetsCorners {
		offsets = cell.CubeCorners()
	}
	grid, err := lattice.Generate(ctx, offsets, d.Extent, bottom, top, lattice.Options{
		Tolerance: g.Defaults.Tolerance,
		Workers:   opts.Workers,
		Logger:    opts.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("design: lattice %q: %w", n.Name, err)
	}

	nodes := grid
	if d.Offsets == OffsetsCorners {
		if nodes, err = lattice.Morph(grid, c.Nodes); err != nil {
			return nil, fmt.Errorf("design: lattice %q: %w", n.Name, err)
		}
	}
	frame, err := lattice.Struts(c, nodes)
	if err != nil {
		return nil, fmt.Errorf("design: lattice %q: %w", n.Name, err)
	}

	return &Realized{Node: n, Cell: c, Report: report, Grid: grid, Nodes: nodes, Frame: frame}, nil
}

// RealizeAll realizes every lattice root in declaration order.
func (g *DesignGraph) RealizeAll(ctx context.Context, opts RealizeOptions) ([]*Realized, error) {
	var out []*Realized
	for _, n := range g.Lattices() {
		r, err := g.Realize(ctx, n, opts)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func (g *DesignGraph) surfaces(d LatticeData) (surface.Surface, surface.Surface, error) {
	if d.Bottom.IsZero() && d.Top.IsZero() {
		size := d.Size
		if size <= 0 {
			size = DefaultSize
		}
		b, t := surface.FlatPair(size)
		return b, t, nil
	}
	var out [2]surface.Surface
	for i, id := range [2]NodeID{d.Bottom, d.Top} {
		n := g.Get(id)
		if n == nil {
			return nil, nil, fmt.Errorf("surface %s not found", id.Short())
		}
		sd, ok := n.Data.(SurfaceData)
		if !ok {
			return nil, nil, fmt.Errorf("node %s is a %s, not a surface", id.Short(), n.Kind)
		}
		out[i] = surface.Bilinear(sd.Corners[0], sd.Corners[1], sd.Corners[2], sd.Corners[3])
	}
	return out[0], out[1], nil
}
