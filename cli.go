package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/chazu/trellis/pkg/cell"
	"github.com/chazu/trellis/pkg/config"
	"github.com/chazu/trellis/pkg/design"
	"github.com/chazu/trellis/pkg/geom"
	"github.com/chazu/trellis/pkg/lattice"
	"github.com/chazu/trellis/pkg/logging"
)

// Version is injected at build time via ldflags.
var Version = "dev"

// errInvalidCells is returned by check when any cell fails validation.
var errInvalidCells = errors.New("invalid unit cells")

// rootOptions holds global CLI flags.
type rootOptions struct {
	configPath string
	out        string
	format     string
	logLevel   string
}

// cliContext carries initialized dependencies through the command tree.
type cliContext struct {
	opts  rootOptions
	cfg   *config.Config
	log   logging.Logger
	app   *App
	runID string
}

// newRootCommand creates the root command with its global flags and
// subcommands.
func newRootCommand() *cobra.Command {
	cc := &cliContext{}

	cmd := &cobra.Command{
		Use:   "trellis",
		Short: "Periodic lattice generator",
		Long: "trellis evaluates lattice scripts: it extracts unit cell topology from\n" +
			"line segments, validates it for periodic tiling and tiles it across a\n" +
			"grid morphed between two bounding surfaces.",
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return cc.init()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&cc.opts.configPath, "config", "c", "", "config file path (YAML)")
	pf.StringVarP(&cc.opts.out, "out", "o", "", "output file (default: stdout)")
	pf.StringVarP(&cc.opts.format, "format", "f", "", "output format (json, yaml)")
	pf.StringVar(&cc.opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	cmd.AddCommand(
		newRunCmd(cc),
		newPointsCmd(cc),
		newCheckCmd(cc),
		newMeshCmd(cc),
		newVersionCmd(),
	)
	return cmd
}

// init loads configuration, applies flag overrides and builds the logger
// and app.
func (cc *cliContext) init() error {
	cfg, err := config.Load(cc.opts.configPath)
	if err != nil {
		return err
	}
	if cc.opts.format != "" {
		cfg.Output.Format = cc.opts.format
	}
	if cc.opts.logLevel != "" {
		cfg.Log.Level = cc.opts.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	cc.runID = uuid.NewString()
	cc.log = log.With(logging.String("run_id", cc.runID))
	cc.cfg = cfg

	cc.app, err = NewAppWithConfig(cfg, cc.log)
	return err
}

// load reads and evaluates the script named by path ("-" is stdin). Script
// errors are joined into one error; warnings are logged.
func (cc *cliContext) load(cmd *cobra.Command, path string) (*design.DesignGraph, error) {
	src, err := readScript(cmd, path)
	if err != nil {
		return nil, err
	}

	g, res, err := cc.app.evaluate(string(src))
	if err != nil {
		return nil, err
	}
	for _, w := range res.Warnings {
		cc.log.Warn(w.Message, logging.String("script", path))
	}
	if len(res.Errors) > 0 {
		lines := make([]string, len(res.Errors))
		for i, e := range res.Errors {
			lines[i] = "  " + e.Error()
		}
		return nil, fmt.Errorf("%s: %d error(s):\n%s", path, len(res.Errors), strings.Join(lines, "\n"))
	}
	cc.log.Debug("script evaluated",
		logging.String("script", path),
		logging.Int("nodes", g.NodeCount()))
	return g, nil
}

// readScript returns the script at path, or stdin when path is "-".
func readScript(cmd *cobra.Command, path string) ([]byte, error) {
	var (
		src []byte
		err error
	)
	if path == "-" {
		src, err = io.ReadAll(cmd.InOrStdin())
	} else {
		src, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	return src, nil
}

func (cc *cliContext) realize(cmd *cobra.Command, path string) (*design.DesignGraph, []*design.Realized, error) {
	g, err := cc.load(cmd, path)
	if err != nil {
		return nil, nil, err
	}
	realized, err := g.RealizeAll(cmd.Context(), cc.cfg.RealizeOptions(cc.log))
	if err != nil {
		return nil, nil, err
	}
	return g, realized, nil
}

// write encodes v in the configured format to --out or stdout.
func (cc *cliContext) write(cmd *cobra.Command, v any) (err error) {
	if cc.opts.out == "" {
		return encode(cmd.OutOrStdout(), cc.cfg.Output.Format, v)
	}
	f, err := os.Create(cc.opts.out)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	return encodeAndClose(f, cc.cfg.Output.Format, v)
}

// encodeAndClose encodes v to w and closes it. A failed close is reported
// when the encode itself succeeded.
func encodeAndClose(w io.WriteCloser, format string, v any) (err error) {
	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close output: %w", cerr)
		}
	}()
	return encode(w, format, v)
}

func encode(w io.Writer, format string, v any) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		return nil
	}
}

// frameOutput is the run command's per-lattice result.
type frameOutput struct {
	LatticeSummary `yaml:",inline"`
	Frame          *lattice.Frame `json:"frame" yaml:"frame"`
}

func newRunCmd(cc *cliContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run <script>",
		Short: "Evaluate a script and print the strut frame of every lattice",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, realized, err := cc.realize(cmd, args[0])
			if err != nil {
				return err
			}
			out := make([]frameOutput, len(realized))
			for i, r := range realized {
				out[i] = frameOutput{LatticeSummary: summarize(g, r), Frame: r.Frame}
			}
			return cc.write(cmd, out)
		},
	}
}

type branchOutput struct {
	Index  string     `json:"index" yaml:"index"`
	Points []geom.Vec `json:"points" yaml:"points"`
}

type pointsOutput struct {
	Name     string         `json:"name" yaml:"name"`
	Offsets  string         `json:"offsets" yaml:"offsets"`
	Branches []branchOutput `json:"branches" yaml:"branches"`
}

func newPointsCmd(cc *cliContext) *cobra.Command {
	return &cobra.Command{
		Use:   "points <script>",
		Short: "Evaluate a script and print the generated lattice points per grid cell",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, realized, err := cc.realize(cmd, args[0])
			if err != nil {
				return err
			}
			out := make([]pointsOutput, len(realized))
			for i, r := range realized {
				d := r.Node.Data.(design.LatticeData)
				po := pointsOutput{Name: r.Node.Name, Offsets: string(d.Offsets)}
				for _, b := range r.Grid.Branches() {
					po.Branches = append(po.Branches, branchOutput{Index: b.Index.String(), Points: b.Points})
				}
				out[i] = po
			}
			return cc.write(cmd, out)
		},
	}
}

type checkOutput struct {
	Name       string    `json:"name" yaml:"name"`
	Status     string    `json:"status" yaml:"status"`
	Code       int       `json:"code" yaml:"code"`
	Coverage   [3][2]int `json:"coverage" yaml:"coverage"`
	Unmirrored []int     `json:"unmirrored,omitempty" yaml:"unmirrored,omitempty"`
	Nodes      int       `json:"nodes" yaml:"nodes"`
	Edges      int       `json:"edges" yaml:"edges"`
	Seams      int       `json:"seams" yaml:"seams"`
}

func newCheckCmd(cc *cliContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check <script>",
		Short: "Validate every unit cell a script defines",
		Long:  "check builds every cell, prints its validation report and fails when any cell is invalid.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := cc.load(cmd, args[0])
			if err != nil {
				return err
			}
			opts := cc.cfg.RealizeOptions(cc.log)
			opts.AllowInvalid = true

			var out []checkOutput
			invalid := 0
			for _, n := range g.Cells() {
				c, report, err := g.BuildCell(n, opts)
				if err != nil {
					return err
				}
				if !report.Valid() {
					invalid++
				}
				out = append(out, checkOutput{
					Name:       n.Name,
					Status:     report.Status.String(),
					Code:       report.Status.Code(),
					Coverage:   report.Coverage,
					Unmirrored: report.Unmirrored,
					Nodes:      len(c.Nodes),
					Edges:      len(c.Edges),
					Seams:      len(c.Seams),
				})
			}
			if err := cc.write(cmd, out); err != nil {
				return err
			}
			if invalid > 0 {
				return fmt.Errorf("%d of %d: %w", invalid, len(out), errInvalidCells)
			}
			return nil
		},
	}
}

func newMeshCmd(cc *cliContext) *cobra.Command {
	return &cobra.Command{
		Use:   "mesh <script>",
		Short: "Evaluate a script and print one triangle mesh per lattice",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := readScript(cmd, args[0])
			if err != nil {
				return err
			}
			res := cc.app.Evaluate(string(src))
			if len(res.Errors) > 0 {
				msgs := make([]string, len(res.Errors))
				for i, e := range res.Errors {
					msgs[i] = "  " + e.Message
				}
				return fmt.Errorf("%s: %d error(s):\n%s", args[0], len(res.Errors), strings.Join(msgs, "\n"))
			}
			return cc.write(cmd, res.Meshes)
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		// Skips config loading.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "trellis %s (presets: %s)\n", Version, strings.Join(cell.PresetNames(), ", "))
		},
	}
}

// execute runs the CLI with args and returns the process exit code.
func execute(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cmd := newRootCommand()
	cmd.SetArgs(args)
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(stderr, "trellis: %v\n", err)
		return 1
	}
	return 0
}
