package cell

import "github.com/chazu/trellis/pkg/geom"

// Normalize moves and scales the nodes so their bounding box is the unit
// cube. Each axis is scaled independently.
func (c *UnitCell) Normalize(tol float64) error {
	return c.NormalizeTo(c.Nodes, tol)
}

// NormalizeTo maps the bounding box of ref onto the unit cube and applies
// that map to the nodes. Passing a parent cell's points normalizes a sub-cell
// relative to the parent's extent. An axis whose extent is within tol of
// zero is a *DegenerateError and leaves the nodes unchanged.
func (c *UnitCell) NormalizeTo(ref []geom.Vec, tol float64) error {
	box, ok := geom.Bounds(ref)
	if !ok {
		return &DegenerateError{Segment: -1, Axis: geom.AxisX, Reason: "no points to bound"}
	}
	size := box.Max.Sub(box.Min)
	for _, a := range geom.Axes {
		if geom.Component(size, a) <= tol {
			return &DegenerateError{Segment: -1, Axis: a, Reason: "zero extent"}
		}
	}

	for i, n := range c.Nodes {
		c.Nodes[i] = geom.Vec{
			X: (n.X - box.Min.X) / size.X,
			Y: (n.Y - box.Min.Y) / size.Y,
			Z: (n.Z - box.Min.Z) / size.Z,
		}
	}
	return nil
}
