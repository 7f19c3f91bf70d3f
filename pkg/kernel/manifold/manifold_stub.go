//go:build !manifold

// Package manifold is the Manifold-backed geometry kernel. Without the
// "manifold" build tag New always fails and callers fall back to sdfx.
package manifold

import (
	"errors"

	"github.com/chazu/trellis/pkg/kernel"
)

// New reports that the binary was built without Manifold.
func New() (kernel.Kernel, error) {
	return nil, errors.New("manifold kernel not available: build with -tags=manifold")
}
