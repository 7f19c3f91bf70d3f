package main

import (
	"fmt"
	"strings"
	"testing"

	"github.com/chazu/trellis/pkg/config"
)

func hasMessage(list []EvalErrorData, sub string) bool {
	for _, e := range list {
		if strings.Contains(e.Message, sub) {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// 1. Empty editor: empty string -> 0 meshes, 0 errors, non-nil slices.
// ---------------------------------------------------------------------------

func TestE2EEmptySourceExtended(t *testing.T) {
	result := newTestApp(t).Evaluate("")

	if len(result.Errors) != 0 || len(result.Warnings) != 0 || len(result.Meshes) != 0 {
		t.Errorf("expected empty result, got %+v", result)
	}
	// Slices must be non-nil so JSON serializes as [] not null.
	if result.Meshes == nil || result.Lattices == nil || result.Errors == nil || result.Warnings == nil {
		t.Error("result slices should be non-nil")
	}
}

func TestE2ECommentsOnly(t *testing.T) {
	for _, source := range []string{
		";; just a comment",
		"   \n\t\n  ",
		"; one\n\n  ;; two\n",
	} {
		result := newTestApp(t).Evaluate(source)
		if len(result.Errors) != 0 || len(result.Meshes) != 0 {
			t.Errorf("source %q: errors=%v meshes=%d", source, result.Errors, len(result.Meshes))
		}
	}
}

// ---------------------------------------------------------------------------
// 2. Syntax errors carry a message and produce no meshes.
// ---------------------------------------------------------------------------

func TestE2ESyntaxErrorWithLineInfo(t *testing.T) {
	// Valid code on line 1, broken code on line 2 so line info is meaningful.
	result := newTestApp(t).Evaluate("(+ 1 2)\n(defcell \"test\"")

	if len(result.Errors) == 0 {
		t.Fatal("expected at least one eval error for unmatched parens")
	}
	if len(result.Meshes) != 0 {
		t.Errorf("expected 0 meshes on syntax error, got %d", len(result.Meshes))
	}
	e := result.Errors[0]
	if e.Message == "" {
		t.Error("syntax error should have a non-empty message")
	}
	t.Logf("syntax error: line=%d, col=%d, message=%q", e.Line, e.Col, e.Message)
}

func TestE2EUndefinedFunction(t *testing.T) {
	result := newTestApp(t).Evaluate(`(undefined-func 1 2 3)`)
	if len(result.Errors) == 0 {
		t.Fatal("expected an error for an undefined function")
	}
}

// ---------------------------------------------------------------------------
// 3. Undefined references.
// ---------------------------------------------------------------------------

func TestE2EUndefinedCellReference(t *testing.T) {
	source := `
(defcell "cube" (preset "cube"))
(lattice "block" :cell (cell "nonexistent") :size 1 :extent (list 1 1 1))
`
	result := newTestApp(t).Evaluate(source)

	if !hasMessage(result.Errors, "nonexistent") {
		t.Errorf("expected error mentioning 'nonexistent', got: %v", result.Errors)
	}
	if len(result.Meshes) != 0 {
		t.Errorf("expected 0 meshes on error, got %d", len(result.Meshes))
	}
}

func TestE2EUndefinedSurfaceReference(t *testing.T) {
	source := `
(defcell "cube" (preset "cube"))
(defsurface "floor" (vec3 0 0 0) (vec3 1 0 0) (vec3 1 1 0) (vec3 0 1 0))
(lattice "block" :cell (cell "cube") :bottom (surface "floor") :top (surface "ghost") :extent (list 1 1 1))
`
	result := newTestApp(t).Evaluate(source)
	if !hasMessage(result.Errors, "ghost") {
		t.Errorf("expected error mentioning 'ghost', got: %v", result.Errors)
	}
}

// ---------------------------------------------------------------------------
// 4. Cells that cannot tile.
// ---------------------------------------------------------------------------

const diagonalCell = `
(defcell "diag" (line (vec3 0 0 0) (vec3 1 1 1)) :mirror true)
(lattice "block" :cell (cell "diag") :size 1 :extent (list 2 2 2))
`

func TestE2EInvalidCellFailsFast(t *testing.T) {
	result := newTestApp(t).Evaluate(diagonalCell)

	if !hasMessage(result.Errors, "face node without mirror node") {
		t.Errorf("expected a mirror validation error, got: %v", result.Errors)
	}
	if len(result.Meshes) != 0 {
		t.Errorf("expected 0 meshes, got %d", len(result.Meshes))
	}
}

func TestE2EInvalidCellAllowed(t *testing.T) {
	app := newTestApp(t, func(cfg *config.Config) { cfg.Cell.AllowInvalid = true })
	result := app.Evaluate(diagonalCell)

	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Lattices) != 1 || !strings.HasPrefix(result.Lattices[0].Status, "invalid") {
		t.Fatalf("lattices = %+v, want one invalid lattice", result.Lattices)
	}
	if len(result.Meshes) != 1 {
		t.Errorf("expected 1 mesh, got %d", len(result.Meshes))
	}
}

func TestE2EMirrorFromConfig(t *testing.T) {
	source := `
(defcell "diag" (line (vec3 0 0 0) (vec3 1 1 1)))
(lattice "block" :cell (cell "diag") :size 1 :extent (list 1 1 1))
`
	if result := newTestApp(t).Evaluate(source); len(result.Errors) != 0 {
		t.Fatalf("mirror check is off by default, got %v", result.Errors)
	}
	app := newTestApp(t, func(cfg *config.Config) { cfg.Cell.Mirror = true })
	if result := app.Evaluate(source); !hasMessage(result.Errors, "mirror") {
		t.Fatalf("expected a mirror error with the check enabled, got %v", result.Errors)
	}
}

func TestE2EDegenerateSegment(t *testing.T) {
	source := `
(defcell "dot" (line (vec3 1 1 1) (vec3 1 1 1)) (line (vec3 0 0 0) (vec3 1 1 1)))
(lattice "block" :cell (cell "dot") :size 1 :extent (list 1 1 1))
`
	result := newTestApp(t).Evaluate(source)
	if !hasMessage(result.Errors, "degenerate segment") {
		t.Errorf("expected a degenerate segment error, got: %v", result.Errors)
	}
}

func TestE2EFlatCell(t *testing.T) {
	source := `
(defcell "flat" (line (vec3 0 0 0) (vec3 1 1 0)) (line (vec3 1 0 0) (vec3 0 1 0)))
(lattice "block" :cell (cell "flat") :size 1 :extent (list 1 1 1))
`
	result := newTestApp(t).Evaluate(source)
	if !hasMessage(result.Errors, "degenerate bounds along z") {
		t.Errorf("expected a degenerate bounds error, got: %v", result.Errors)
	}
}

// ---------------------------------------------------------------------------
// 5. Lattice parameters.
// ---------------------------------------------------------------------------

func TestE2EZeroExtentLatticeIsEmpty(t *testing.T) {
	source := `
(defcell "cube" (preset "cube"))
(lattice "nothing" :cell (cell "cube") :size 1 :extent (list 0 0 0))
`
	result := newTestApp(t).Evaluate(source)
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Meshes) != 0 {
		t.Errorf("expected no mesh for an empty lattice, got %d", len(result.Meshes))
	}
	if !hasMessage(result.Warnings, `lattice "nothing" is empty`) {
		t.Errorf("expected an empty-lattice warning, got %v", result.Warnings)
	}
}

func TestE2ENegativeExtent(t *testing.T) {
	source := `
(defcell "cube" (preset "cube"))
(lattice "block" :cell (cell "cube") :size 1 :extent (list 1 -1 1))
`
	result := newTestApp(t).Evaluate(source)
	if !hasMessage(result.Errors, "negative extent") {
		t.Errorf("expected a negative extent error, got: %v", result.Errors)
	}
}

func TestE2ENegativeStrutRadius(t *testing.T) {
	source := `
(defcell "cube" (preset "cube"))
(lattice "block" :cell (cell "cube") :size 1 :extent (list 1 1 1) :strut-radius -0.1)
`
	result := newTestApp(t).Evaluate(source)
	if !hasMessage(result.Errors, "strut radius must be positive") {
		t.Errorf("expected a strut radius error, got: %v", result.Errors)
	}
}

func TestE2EUnusedCellWarning(t *testing.T) {
	source := `
(defcell "cube" (preset "cube"))
(defcell "spare" (preset "bcc"))
(lattice "block" :cell (cell "cube") :size 1 :extent (list 1 1 1))
`
	result := newTestApp(t).Evaluate(source)
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if !hasMessage(result.Warnings, "spare") {
		t.Errorf("expected a warning about the unused cell, got %v", result.Warnings)
	}
}

func TestE2ESharedCell(t *testing.T) {
	source := `
(defcell "cube" (preset "cube"))
(lattice "left" :cell (cell "cube") :size 1 :extent (list 1 1 1))
(lattice "right" :cell (cell "cube") :size 2 :extent (list 2 1 1))
`
	result := newTestApp(t).Evaluate(source)
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Meshes) != 2 {
		t.Fatalf("expected 2 meshes, got %d", len(result.Meshes))
	}
	if result.Meshes[0].Name != "left" || result.Meshes[1].Name != "right" {
		t.Errorf("mesh order = %q, %q", result.Meshes[0].Name, result.Meshes[1].Name)
	}
	if result.Meshes[0].Color == result.Meshes[1].Color {
		t.Error("lattices should get distinct colors")
	}
}

// ---------------------------------------------------------------------------
// 6. Rapid evaluation (debounce simulation): no panics.
// ---------------------------------------------------------------------------

func TestE2ERapidEvaluationAlternating(t *testing.T) {
	// Alternates between valid and invalid sources. Calls are sequential
	// because zygomys has global state that is not safe for concurrent
	// sandbox creation; the engine mutex serializes calls in production.
	app := newTestApp(t)

	sources := []string{
		`(defcell "ok" (preset "cube")) (lattice "a" :cell (cell "ok") :size 1 :extent (list 1 1 1))`,
		`(defcell "broken"`,
		``,
		`(cell "missing")`,
		`(+ 1 2)`,
		`;; just a comment`,
		`(undefined-func 1 2 3)`,
		`(defcell "last" (preset "bcc")) (lattice "b" :cell (cell "last") :size 1 :extent (list 1 1 1))`,
	}

	for i, source := range sources {
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Errorf("iteration %d panicked on source %q: %v", i, source, r)
				}
			}()
			_ = app.Evaluate(source)
		}()
	}
}

// ---------------------------------------------------------------------------
// 7. Palette wrapping.
// ---------------------------------------------------------------------------

func TestE2EColorPaletteWrapping(t *testing.T) {
	var b strings.Builder
	b.WriteString(`(defcell "cube" (preset "cube"))` + "\n")
	n := len(colorPalette) + 1
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "(lattice \"l%d\" :cell (cell \"cube\") :size 1 :extent (list 1 1 1))\n", i)
	}

	result := newTestApp(t).Evaluate(b.String())
	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Meshes) != n {
		t.Fatalf("expected %d meshes, got %d", n, len(result.Meshes))
	}
	if result.Meshes[n-1].Color != colorPalette[0] {
		t.Errorf("mesh %d color = %q, want palette wrap to %q", n-1, result.Meshes[n-1].Color, colorPalette[0])
	}
}
