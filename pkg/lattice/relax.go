package lattice

import (
	"context"
	"fmt"

	"github.com/chazu/trellis/pkg/geom"
)

// Goal is a constraint handed through to a Solver. The lattice never looks
// inside a goal; Kind only labels diagnostics.
type Goal interface {
	Kind() string
}

// Anchor pins a point to a target position.
type Anchor struct {
	Point  int      `json:"point"`
	Target geom.Vec `json:"target"`
}

func (Anchor) Kind() string { return "anchor" }

// Length pulls two points towards a rest distance.
type Length struct {
	A, B int
	Rest float64
}

func (Length) Kind() string { return "length" }

// Solution is what a Solver returns: one position per input point and one
// diagnostic value per goal.
type Solution struct {
	Positions   []geom.Vec `json:"positions"`
	Diagnostics []any      `json:"diagnostics,omitempty"`
}

// Solver relaxes a point set against goals for a fixed number of
// iterations.
type Solver interface {
	Solve(ctx context.Context, points []geom.Vec, goals []Goal, iterations int) (Solution, error)
}

// Relax flattens t in Indices order, runs the solver and rebuilds a tree of
// the same shape from the returned positions. Goal point indices refer to
// that flattened order.
func Relax(ctx context.Context, s Solver, t *Tree, goals []Goal, iterations int) (*Tree, Solution, error) {
	branches := t.Branches()
	var flat []geom.Vec
	for _, br := range branches {
		flat = append(flat, br.Points...)
	}

	sol, err := s.Solve(ctx, flat, goals, iterations)
	if err != nil {
		return nil, Solution{}, fmt.Errorf("lattice: relax: %w", err)
	}
	if len(sol.Positions) != len(flat) {
		return nil, sol, fmt.Errorf("lattice: relax: solver returned %d positions for %d points", len(sol.Positions), len(flat))
	}

	out := NewTree()
	k := 0
	for _, br := range branches {
		n := len(br.Points)
		out.Set(br.Index, append([]geom.Vec(nil), sol.Positions[k:k+n]...))
		k += n
	}
	return out, sol, nil
}
