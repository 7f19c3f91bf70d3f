package geom

import (
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Vec is a point or direction in 3D space.
type Vec = v3.Vec

// Box is an axis-aligned bounding box.
type Box = sdf.Box3

// Axis selects a coordinate of a Vec.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

// Axes lists the three axes in x, y, z order.
var Axes = [3]Axis{AxisX, AxisY, AxisZ}

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisZ:
		return "z"
	default:
		return "unknown"
	}
}

// Component returns the coordinate of v along axis a.
func Component(v Vec, a Axis) float64 {
	switch a {
	case AxisX:
		return v.X
	case AxisY:
		return v.Y
	default:
		return v.Z
	}
}

// WithComponent returns a copy of v with the coordinate along a set to f.
func WithComponent(v Vec, a Axis, f float64) Vec {
	switch a {
	case AxisX:
		v.X = f
	case AxisY:
		v.Y = f
	default:
		v.Z = f
	}
	return v
}

// Dist returns the Euclidean distance between a and b.
func Dist(a, b Vec) float64 {
	return a.Sub(b).Length()
}

// EpsilonEquals reports whether a and b are within tol of each other.
func EpsilonEquals(a, b Vec, tol float64) bool {
	return Dist(a, b) <= tol
}

// Lerp interpolates linearly from a to b by t.
func Lerp(a, b Vec, t float64) Vec {
	return a.Add(b.Sub(a).MulScalar(t))
}

// IsFinite reports whether every coordinate of v is a finite number.
func IsFinite(v Vec) bool {
	for _, f := range [3]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}

// Bounds returns the bounding box of pts. The second result is false when
// pts is empty.
func Bounds(pts []Vec) (Box, bool) {
	if len(pts) == 0 {
		return Box{}, false
	}
	lo, hi := pts[0], pts[0]
	for _, p := range pts[1:] {
		lo = Vec{X: math.Min(lo.X, p.X), Y: math.Min(lo.Y, p.Y), Z: math.Min(lo.Z, p.Z)}
		hi = Vec{X: math.Max(hi.X, p.X), Y: math.Max(hi.Y, p.Y), Z: math.Max(hi.Z, p.Z)}
	}
	return Box{Min: lo, Max: hi}, true
}
