package cell

import (
	"fmt"
	"math"

	"github.com/chazu/trellis/pkg/geom"
	"github.com/chazu/trellis/pkg/spatial"
)

// Status is the outcome of validating a normalized cell.
type Status int

const (
	Valid             Status = iota
	InvalidNoFaceNode        // some axis has no node on either of its faces
	InvalidNoMirror          // a face node has no partner on the opposite face
)

func (s Status) String() string {
	switch s {
	case Valid:
		return "valid"
	case InvalidNoFaceNode:
		return "invalid: an axis has no node on its faces"
	case InvalidNoMirror:
		return "invalid: face node without mirror node"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Code returns the legacy numeric code: 1 valid, 0 missing face node,
// -1 missing mirror.
func (s Status) Code() int {
	switch s {
	case Valid:
		return 1
	case InvalidNoMirror:
		return -1
	default:
		return 0
	}
}

// ValidateOptions configures Validate.
type ValidateOptions struct {
	Tolerance float64
	// Mirror requires every node on a face to have a node at the mirrored
	// position on the opposite face. Off by default.
	Mirror bool
}

// Report is the result of Validate.
type Report struct {
	Status Status `json:"status"`
	// Coverage counts nodes on each face, indexed [axis][side] where side 0
	// is the plane at 0 and side 1 the plane at 1.
	Coverage [3][2]int `json:"coverage"`
	// Unmirrored lists face nodes without a mirror. Filled only when the
	// mirror check ran.
	Unmirrored []int `json:"unmirrored,omitempty"`
}

// Valid reports whether the cell passed.
func (r Report) Valid() bool {
	return r.Status == Valid
}

// Err returns nil for a valid report and a *ValidationError otherwise.
func (r Report) Err() error {
	if r.Valid() {
		return nil
	}
	return &ValidationError{Report: r}
}

// Validate checks that the normalized cell can tile: every axis needs a node
// on at least one of its two faces and, when opts.Mirror is set, each face
// node needs a mirror on the opposite face.
func (c *UnitCell) Validate(opts ValidateOptions) Report {
	tol := opts.Tolerance
	if tol <= 0 {
		tol = DefaultTolerance
	}

	var r Report
	var idx *spatial.Index
	if opts.Mirror {
		idx = spatial.FromPoints(c.Nodes)
	}

	for i, n := range c.Nodes {
		mirrored := true
		for _, a := range geom.Axes {
			v := geom.Component(n, a)
			for side := 0; side < 2; side++ {
				if math.Abs(v-float64(side)) > tol {
					continue
				}
				r.Coverage[a][side]++
				if idx == nil {
					continue
				}
				want := geom.WithComponent(n, a, float64(1-side))
				if _, d, ok := idx.Nearest(want); !ok || d > tol {
					mirrored = false
				}
			}
		}
		if !mirrored {
			r.Unmirrored = append(r.Unmirrored, i)
		}
	}

	switch {
	case len(r.Unmirrored) > 0:
		r.Status = InvalidNoMirror
	case !r.facesCovered():
		r.Status = InvalidNoFaceNode
	default:
		r.Status = Valid
	}
	return r
}

func (r Report) facesCovered() bool {
	for _, sides := range r.Coverage {
		if sides[0]+sides[1] == 0 {
			return false
		}
	}
	return true
}
