package geom

import "math"

// Segment is a finite straight line between two points.
type Segment struct {
	From Vec `json:"from"`
	To   Vec `json:"to"`
}

// Seg is shorthand for building a Segment from two points.
func Seg(from, to Vec) Segment {
	return Segment{From: from, To: to}
}

// Length returns the distance between the endpoints.
func (s Segment) Length() float64 {
	return Dist(s.From, s.To)
}

// PointAt returns the point at normalized parameter t (0 = From, 1 = To).
func (s Segment) PointAt(t float64) Vec {
	return Lerp(s.From, s.To, t)
}

// Split cuts s at parameter t.
func (s Segment) Split(t float64) (Segment, Segment) {
	p := s.PointAt(t)
	return Segment{From: s.From, To: p}, Segment{From: p, To: s.To}
}

// parallelEps is the relative threshold below which two directions are
// treated as parallel.
const parallelEps = 1e-12

// ClosestParams returns the parameters of the closest points between the two
// finite segments a and b. ok is false when either segment is degenerate or
// the segments are parallel, in which case the closest pair is not unique.
func ClosestParams(a, b Segment) (ta, tb float64, ok bool) {
	d1 := a.To.Sub(a.From)
	d2 := b.To.Sub(b.From)
	r := a.From.Sub(b.From)
	aa := d1.Dot(d1)
	ee := d2.Dot(d2)
	if aa == 0 || ee == 0 {
		return 0, 0, false
	}
	f := d2.Dot(r)
	c := d1.Dot(r)
	bb := d1.Dot(d2)
	denom := aa*ee - bb*bb
	if denom <= parallelEps*aa*ee {
		return 0, 0, false
	}

	ta = clamp01((bb*f - c*ee) / denom)
	tb = (bb*ta + f) / ee
	switch {
	case tb < 0:
		tb = 0
		ta = clamp01(-c / aa)
	case tb > 1:
		tb = 1
		ta = clamp01((bb - c) / aa)
	}
	return ta, tb, true
}

// Intersect reports where two finite segments meet within tol. The returned
// parameters locate the meeting point on each segment.
func Intersect(a, b Segment, tol float64) (ta, tb float64, ok bool) {
	ta, tb, ok = ClosestParams(a, b)
	if !ok {
		return 0, 0, false
	}
	if Dist(a.PointAt(ta), b.PointAt(tb)) > tol {
		return 0, 0, false
	}
	return ta, tb, true
}

func clamp01(t float64) float64 {
	return math.Max(0, math.Min(1, t))
}
