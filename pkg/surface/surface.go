// Package surface provides the bounding surfaces a lattice is morphed
// between. Every surface is parametrized over the unit square.
package surface

import "github.com/chazu/trellis/pkg/geom"

// Surface maps (u, v) in [0,1]^2 to a point in space.
type Surface interface {
	At(u, v float64) geom.Vec
}

// Func adapts a plain function to Surface.
type Func func(u, v float64) geom.Vec

func (f Func) At(u, v float64) geom.Vec { return f(u, v) }

// Patch is a bilinear patch through four corners listed around its
// boundary: P[0] at (0,0), P[1] at (1,0), P[2] at (1,1), P[3] at (0,1).
type Patch struct {
	P [4]geom.Vec `json:"corners"`
}

// Bilinear returns the patch through p0..p3.
func Bilinear(p0, p1, p2, p3 geom.Vec) Patch {
	return Patch{P: [4]geom.Vec{p0, p1, p2, p3}}
}

func (p Patch) At(u, v float64) geom.Vec {
	bottom := geom.Lerp(p.P[0], p.P[1], u)
	top := geom.Lerp(p.P[3], p.P[2], u)
	return geom.Lerp(bottom, top, v)
}

// Reparam maps the unit square onto the domain [u0,u1]x[v0,v1] of fn, so a
// surface with an arbitrary parameter range can bound a lattice.
func Reparam(fn func(u, v float64) geom.Vec, u0, u1, v0, v1 float64) Surface {
	return Func(func(u, v float64) geom.Vec {
		return fn(u0+u*(u1-u0), v0+v*(v1-v0))
	})
}

// FlatPair returns the bottom and top faces of the axis-aligned cube of side
// size at the origin. Generating between them with an N x N x N extent
// yields a regular grid of spacing size/N.
func FlatPair(size float64) (bottom, top Patch) {
	bottom = Bilinear(
		geom.Vec{X: 0, Y: 0, Z: 0},
		geom.Vec{X: size, Y: 0, Z: 0},
		geom.Vec{X: size, Y: size, Z: 0},
		geom.Vec{X: 0, Y: size, Z: 0},
	)
	top = Bilinear(
		geom.Vec{X: 0, Y: 0, Z: size},
		geom.Vec{X: size, Y: 0, Z: size},
		geom.Vec{X: size, Y: size, Z: size},
		geom.Vec{X: 0, Y: size, Z: size},
	)
	return bottom, top
}
