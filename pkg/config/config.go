// Package config provides configuration loading, defaults, and validation
// for the trellis command line and desktop shell.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/chazu/trellis/pkg/design"
	"github.com/chazu/trellis/pkg/logging"
	"github.com/chazu/trellis/pkg/tessellate"
)

// Config is the full trellis configuration.
type Config struct {
	Log     logging.LogConfig `mapstructure:"log" yaml:"log" json:"log"`
	Cell    CellConfig        `mapstructure:"cell" yaml:"cell" json:"cell"`
	Lattice LatticeConfig     `mapstructure:"lattice" yaml:"lattice" json:"lattice"`
	Mesh    MeshConfig        `mapstructure:"mesh" yaml:"mesh" json:"mesh"`
	Eval    EvalConfig        `mapstructure:"eval" yaml:"eval" json:"eval"`
	Output  OutputConfig      `mapstructure:"output" yaml:"output" json:"output"`
}

// CellConfig controls the unit cell pipeline.
type CellConfig struct {
	Tolerance    float64 `mapstructure:"tolerance" yaml:"tolerance" json:"tolerance" validate:"gt=0,lt=1"`
	Mirror       bool    `mapstructure:"mirror" yaml:"mirror" json:"mirror"`
	AllowInvalid bool    `mapstructure:"allow_invalid" yaml:"allow_invalid" json:"allow_invalid"`
}

// LatticeConfig controls grid generation. Zero workers means GOMAXPROCS.
type LatticeConfig struct {
	Workers int `mapstructure:"workers" yaml:"workers" json:"workers" validate:"gte=0,lte=1024"`
}

// MeshConfig controls tessellation.
type MeshConfig struct {
	Kernel   string `mapstructure:"kernel" yaml:"kernel" json:"kernel" validate:"oneof=sdfx manifold"`
	Cells    int    `mapstructure:"cells" yaml:"cells" json:"cells" validate:"gte=8,lte=2000"`
	Segments int    `mapstructure:"segments" yaml:"segments" json:"segments" validate:"gte=3,lte=256"`
	// StrutRadius replaces the design default strut radius when positive.
	StrutRadius float64 `mapstructure:"strut_radius" yaml:"strut_radius" json:"strut_radius" validate:"gte=0"`
	Clip        bool    `mapstructure:"clip" yaml:"clip" json:"clip"`
}

// EvalConfig controls DSL evaluation.
type EvalConfig struct {
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout" json:"timeout" validate:"gt=0"`
}

// OutputConfig controls how command results are encoded.
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format" json:"format" validate:"oneof=json yaml"`
}

var validate = validator.New()

// Validate checks cfg against its struct tags and returns the first
// violation in a readable form.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config: nil config")
	}
	if err := validate.Struct(c); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// RealizeOptions returns the design realization options cfg selects.
func (c *Config) RealizeOptions(log logging.Logger) design.RealizeOptions {
	return design.RealizeOptions{
		Workers:      c.Lattice.Workers,
		AllowInvalid: c.Cell.AllowInvalid,
		Logger:       log,
	}
}

// DesignOptions returns the tessellation options cfg selects.
func (c *Config) DesignOptions(log logging.Logger) tessellate.DesignOptions {
	return tessellate.DesignOptions{
		Realize:  c.RealizeOptions(log),
		Segments: c.Mesh.Segments,
		Clip:     c.Mesh.Clip,
		Logger:   log,
	}
}

// GraphDefaults returns the design defaults cfg selects.
func (c *Config) GraphDefaults() design.GlobalDefaults {
	d := design.GlobalDefaults{
		Tolerance:   c.Cell.Tolerance,
		StrutRadius: design.DefaultStrutRadius,
		Mirror:      c.Cell.Mirror,
	}
	if c.Mesh.StrutRadius > 0 {
		d.StrutRadius = c.Mesh.StrutRadius
	}
	return d
}

// formatValidationError converts validator errors to a readable message
// naming the config key.
func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("config: %w", err)
	}
	for _, e := range verrs {
		field := e.Namespace()
		switch e.Tag() {
		case "oneof":
			return fmt.Errorf("config: %s must be one of [%s], got %v", field, e.Param(), e.Value())
		case "gt", "gte", "lt", "lte":
			return fmt.Errorf("config: %s must be %s %s, got %v", field, e.Tag(), e.Param(), e.Value())
		default:
			return fmt.Errorf("config: %s failed %q validation", field, e.Tag())
		}
	}
	return fmt.Errorf("config: %w", err)
}
