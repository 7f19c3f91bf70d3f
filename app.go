package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/lo"

	"github.com/chazu/trellis/pkg/cell"
	"github.com/chazu/trellis/pkg/config"
	"github.com/chazu/trellis/pkg/design"
	"github.com/chazu/trellis/pkg/engine"
	"github.com/chazu/trellis/pkg/kernel"
	"github.com/chazu/trellis/pkg/kernel/manifold"
	"github.com/chazu/trellis/pkg/kernel/sdfx"
	"github.com/chazu/trellis/pkg/logging"
	"github.com/chazu/trellis/pkg/tessellate"
)

// colorPalette is a default palette used to assign distinct colors to lattices.
var colorPalette = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

// App is the backend shared by the CLI and the desktop shell. Its exported
// methods are the desktop bindings.
type App struct {
	ctx    context.Context
	cfg    *config.Config
	log    logging.Logger
	engine *engine.Engine
	kernel kernel.Kernel
}

// MeshData is the JSON-serializable mesh format sent to the frontend.
type MeshData struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	Indices  []uint32  `json:"indices"`
	Name     string    `json:"name"`
	Color    string    `json:"color"`
}

// LatticeSummary describes one realized lattice.
type LatticeSummary struct {
	Name   string `json:"name" yaml:"name"`
	Cell   string `json:"cell" yaml:"cell"`
	Status string `json:"status" yaml:"status"`
	Cells  int    `json:"cells" yaml:"cells"`
	Nodes  int    `json:"nodes" yaml:"nodes"`
	Struts int    `json:"struts" yaml:"struts"`
}

// EvalErrorData is a JSON-serializable eval error for the frontend.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// EvalResult is the full result returned to the frontend.
type EvalResult struct {
	Meshes   []MeshData       `json:"meshes"`
	Lattices []LatticeSummary `json:"lattices"`
	Errors   []EvalErrorData  `json:"errors"`
	Warnings []EvalErrorData  `json:"warnings"`
}

// NewApp creates an App with the default configuration and the sdfx kernel.
func NewApp() *App {
	app, err := NewAppWithConfig(config.Default(), nil)
	if err != nil {
		panic(fmt.Sprintf("default config rejected: %v", err))
	}
	return app
}

// NewAppWithConfig creates an App from cfg. A nil logger discards output.
func NewAppWithConfig(cfg *config.Config, log logging.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log = logging.OrNop(log)
	k := newKernel(cfg, log)
	defaults := cfg.GraphDefaults()
	return &App{
		ctx: context.Background(),
		cfg: cfg,
		log: log,
		engine: engine.New(engine.Options{
			Timeout:  cfg.Eval.Timeout,
			Defaults: &defaults,
			Logger:   log,
		}),
		kernel: k,
	}, nil
}

// newKernel returns the geometry kernel cfg selects. A binary built without
// Manifold falls back to sdfx.
func newKernel(cfg *config.Config, log logging.Logger) kernel.Kernel {
	if cfg.Mesh.Kernel == "manifold" {
		k, err := manifold.New()
		if err == nil {
			return k
		}
		log.Warn("falling back to sdfx kernel", logging.Err(err))
	}
	return sdfx.NewWithCells(cfg.Mesh.Cells)
}

// startup is called by the desktop runtime on app startup. The context is
// saved so runtime methods can be called later if needed.
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx
}

// Presets lists the stock unit cell topologies.
func (a *App) Presets() []string {
	return cell.PresetNames()
}

// Evaluate takes Lisp source and returns mesh data + errors.
// This is the primary binding called by the frontend editor.
func (a *App) Evaluate(source string) EvalResult {
	result := EvalResult{
		Meshes:   []MeshData{},
		Lattices: []LatticeSummary{},
		Errors:   []EvalErrorData{},
		Warnings: []EvalErrorData{},
	}

	// Step 1: Evaluate the Lisp source into a design graph.
	g, res, err := a.evaluate(source)
	if err != nil {
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result
	}
	result.Warnings = lo.Map(res.Warnings, func(w engine.EvalWarning, _ int) EvalErrorData {
		return EvalErrorData{Message: w.Message}
	})
	if len(res.Errors) > 0 {
		result.Errors = lo.Map(res.Errors, func(e engine.EvalError, _ int) EvalErrorData {
			return EvalErrorData{Line: e.Line, Col: e.Col, Message: e.Message}
		})
		return result
	}

	// Step 2: Realize every lattice into a strut frame.
	opts := a.cfg.DesignOptions(a.log)
	realized, err := g.RealizeAll(a.ctx, opts.Realize)
	if err != nil {
		a.log.Warn("realize failed", logging.Err(err))
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result
	}

	// Step 3: Mesh each frame and convert it to the frontend format.
	for _, r := range realized {
		result.Lattices = append(result.Lattices, summarize(g, r))
		m, err := tessellate.Lattice(g, a.kernel, r, opts)
		if errors.Is(err, tessellate.ErrEmptyFrame) {
			result.Warnings = append(result.Warnings, EvalErrorData{Message: fmt.Sprintf("lattice %q is empty", r.Node.Name)})
			continue
		}
		if err != nil {
			a.log.Warn("tessellate failed", logging.Err(err))
			result.Errors = append(result.Errors, EvalErrorData{Message: "tessellation failed: " + err.Error()})
			return result
		}
		result.Meshes = append(result.Meshes, MeshData{
			Vertices: m.Vertices,
			Normals:  m.Normals,
			Indices:  m.Indices,
			Name:     m.Name,
			Color:    colorPalette[len(result.Meshes)%len(colorPalette)],
		})
	}

	return result
}

// evaluate runs source through the engine. The error is fatal (timeout or
// panic); script and validation problems come back in the result.
func (a *App) evaluate(source string) (*design.DesignGraph, engine.EvalResult, error) {
	res, err := a.engine.EvaluateResult(source)
	if err != nil {
		a.log.Error("evaluate fatal error", logging.Err(err))
		return nil, engine.EvalResult{}, err
	}
	return res.Graph, res, nil
}

func summarize(g *design.DesignGraph, r *design.Realized) LatticeSummary {
	s := LatticeSummary{
		Name:   r.Node.Name,
		Status: r.Report.Status.String(),
		Cells:  r.Nodes.Len(),
		Nodes:  len(r.Frame.Nodes),
		Struts: len(r.Frame.Struts),
	}
	if d, ok := r.Node.Data.(design.LatticeData); ok {
		if cn := g.Get(d.Cell); cn != nil {
			s.Cell = cn.Name
		}
	}
	return s
}
