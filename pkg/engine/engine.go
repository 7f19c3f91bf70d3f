// Package engine provides the Lisp evaluation engine for trellis.
// It wraps zygomys in a sandboxed environment and produces a DesignGraph
// from user source code.
package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chazu/trellis/pkg/design"
	"github.com/chazu/trellis/pkg/logging"
	zygo "github.com/glycerine/zygomys/zygo"
)

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error or a runtime error in user code.
type EvalError struct {
	Line    int    `json:"line,omitempty"`
	Col     int    `json:"col,omitempty"`
	Message string `json:"message"`
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// EvalWarning represents a non-fatal warning produced during evaluation.
type EvalWarning struct {
	Line    int           `json:"line,omitempty"`
	Col     int           `json:"col,omitempty"`
	Message string        `json:"message"`
	NodeID  design.NodeID `json:"node_id,omitempty"`
}

// EvalResult bundles the full output of an evaluation for use by UI bindings.
type EvalResult struct {
	Graph    *design.DesignGraph `json:"graph,omitempty"`
	Errors   []EvalError         `json:"errors,omitempty"`
	Warnings []EvalWarning       `json:"warnings,omitempty"`
}

// Options configures an Engine.
type Options struct {
	// Timeout is the hard limit for a single evaluation. Zero means
	// EvalTimeout.
	Timeout time.Duration
	// Defaults seeds every evaluated graph. A script's (defaults ...) form
	// overrides them. Nil means design.New's defaults.
	Defaults *design.GlobalDefaults
	Logger   logging.Logger
}

// Engine wraps the zygomys interpreter for trellis evaluation.
// It is safe for concurrent use; each call to Evaluate creates a fresh
// sandboxed environment for determinism.
type Engine struct {
	mu         sync.Mutex
	generation uint64
	timeout    time.Duration
	defaults   *design.GlobalDefaults
	log        logging.Logger
}

// NewEngine creates a new Engine instance with default options.
func NewEngine() *Engine {
	return New(Options{})
}

// New creates an Engine from opts.
func New(opts Options) *Engine {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = EvalTimeout
	}
	return &Engine{
		timeout:  timeout,
		defaults: opts.Defaults,
		log:      logging.OrNop(opts.Logger).Named("engine"),
	}
}

// Evaluate takes Lisp source code and produces a new DesignGraph.
// Each call creates a fresh zygomys sandbox for deterministic evaluation.
//
// Return semantics:
//   - On success: returns graph + nil errors + nil error
//   - On parse/eval/validation failure: returns nil graph + eval errors + nil error
//   - On fatal failure (timeout, panic): returns nil + nil + error
func (e *Engine) Evaluate(source string) (*design.DesignGraph, []EvalError, error) {
	res, err := e.EvaluateResult(source)
	if err != nil {
		return nil, nil, err
	}
	return res.Graph, res.Errors, nil
}

// EvaluateResult is Evaluate with warnings included.
func (e *Engine) EvaluateResult(source string) (EvalResult, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		ch <- e.evaluate(source)
	}()

	res, err := waitWithTimeout(ch, gen, &e.mu, &e.generation, e.timeout)
	if err != nil {
		e.log.Warn("evaluation failed", logging.Err(err))
		return EvalResult{}, err
	}
	for _, w := range res.Warnings {
		e.log.Debug("evaluation warning", logging.String("message", w.Message))
	}
	return res, nil
}

func (e *Engine) newGraph() *design.DesignGraph {
	g := design.New()
	if e.defaults != nil {
		g.Defaults = *e.defaults
	}
	return g
}

// evaluate performs the actual zygomys evaluation in a fresh sandbox.
func (e *Engine) evaluate(source string) evalResult {
	// Empty source is a valid program that produces an empty graph.
	if strings.TrimSpace(source) == "" {
		return evalResult{EvalResult: EvalResult{Graph: e.newGraph()}}
	}

	g := e.newGraph()

	// Sandbox mode prevents user code from accessing the filesystem or syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()
	registerBuiltins(env, g)

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return evalResult{EvalResult: EvalResult{Errors: parseZygomysError(err)}}
	}
	if _, err := env.Run(); err != nil {
		return evalResult{EvalResult: EvalResult{Errors: parseZygomysError(err)}}
	}

	var res EvalResult
	for _, v := range design.Validate(g) {
		if v.Severity == design.SeverityWarning {
			res.Warnings = append(res.Warnings, EvalWarning{Message: v.Message, NodeID: v.NodeID})
			continue
		}
		res.Errors = append(res.Errors, EvalError{Message: v.Error()})
	}
	if len(res.Errors) == 0 {
		res.Graph = g
	}
	return evalResult{EvalResult: res}
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into one or more EvalError values.
// It attempts to extract line number information from the error message.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	for _, re := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{
				Line:    line,
				Message: strings.TrimSpace(m[2]),
			}}
		}
	}

	// Fallback: no line info available.
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
