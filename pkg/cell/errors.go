package cell

import (
	"errors"
	"fmt"

	"github.com/chazu/trellis/pkg/geom"
)

var (
	// ErrDegenerate matches every *DegenerateError.
	ErrDegenerate = errors.New("degenerate input")
	// ErrInvalid matches every *ValidationError.
	ErrInvalid = errors.New("invalid unit cell")
)

// DegenerateError reports input that cannot produce a usable cell: a
// zero-length segment or a bounding box that is flat along some axis.
type DegenerateError struct {
	Segment int       // offending segment index, -1 when not segment related
	Axis    geom.Axis // flat axis, meaningful when Segment is -1
	Reason  string
}

func (e *DegenerateError) Error() string {
	if e.Segment >= 0 {
		return fmt.Sprintf("cell: degenerate segment %d: %s", e.Segment, e.Reason)
	}
	return fmt.Sprintf("cell: degenerate bounds along %s: %s", e.Axis, e.Reason)
}

func (e *DegenerateError) Unwrap() error { return ErrDegenerate }

// ValidationError carries a failed validation report.
type ValidationError struct {
	Report Report
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("cell: %s", e.Report.Status)
	if n := len(e.Report.Unmirrored); n > 0 {
		msg += fmt.Sprintf(" (%d face nodes without a mirror)", n)
	}
	return msg
}

func (e *ValidationError) Unwrap() error { return ErrInvalid }
