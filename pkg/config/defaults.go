package config

import (
	"github.com/spf13/viper"

	"github.com/chazu/trellis/pkg/design"
	"github.com/chazu/trellis/pkg/engine"
	"github.com/chazu/trellis/pkg/tessellate"
)

const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = "console"

	DefaultTolerance = design.DefaultTolerance

	DefaultKernel = "sdfx"
	// DefaultCells is coarser than sdfx.DefaultMeshCells: a whole lattice
	// is meshed at once.
	DefaultCells    = 96
	DefaultSegments = tessellate.DefaultSegments

	DefaultEvalTimeout = engine.EvalTimeout

	DefaultFormat = "json"
)

// Default returns a Config with every default applied.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills every zero-value field in cfg with its default.
// Fields already set are left unchanged so explicit configuration wins.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
	if len(cfg.Log.OutputPaths) == 0 {
		cfg.Log.OutputPaths = []string{"stderr"}
	}

	if cfg.Cell.Tolerance == 0 {
		cfg.Cell.Tolerance = DefaultTolerance
	}

	if cfg.Mesh.Kernel == "" {
		cfg.Mesh.Kernel = DefaultKernel
	}
	if cfg.Mesh.Cells == 0 {
		cfg.Mesh.Cells = DefaultCells
	}
	if cfg.Mesh.Segments == 0 {
		cfg.Mesh.Segments = DefaultSegments
	}

	if cfg.Eval.Timeout == 0 {
		cfg.Eval.Timeout = DefaultEvalTimeout
	}

	if cfg.Output.Format == "" {
		cfg.Output.Format = DefaultFormat
	}
}

// setViperDefaults registers every key so environment overrides are seen by
// Unmarshal even when no config file mentions the key.
func setViperDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.output_paths", d.Log.OutputPaths)
	v.SetDefault("cell.tolerance", d.Cell.Tolerance)
	v.SetDefault("cell.mirror", d.Cell.Mirror)
	v.SetDefault("cell.allow_invalid", d.Cell.AllowInvalid)
	v.SetDefault("lattice.workers", d.Lattice.Workers)
	v.SetDefault("mesh.kernel", d.Mesh.Kernel)
	v.SetDefault("mesh.cells", d.Mesh.Cells)
	v.SetDefault("mesh.segments", d.Mesh.Segments)
	v.SetDefault("mesh.strut_radius", d.Mesh.StrutRadius)
	v.SetDefault("mesh.clip", d.Mesh.Clip)
	v.SetDefault("eval.timeout", d.Eval.Timeout)
	v.SetDefault("output.format", d.Output.Format)
}
