package engine

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/chazu/trellis/pkg/cell"
	"github.com/chazu/trellis/pkg/design"
	"github.com/chazu/trellis/pkg/geom"
	"github.com/chazu/trellis/pkg/lattice"
	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpVec3 wraps a geom.Vec.
type sexpVec3 struct {
	vec geom.Vec
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// sexpSegment wraps a geom.Segment returned from `line`.
type sexpSegment struct {
	seg geom.Segment
}

func (s *sexpSegment) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(line (vec3 %g %g %g) (vec3 %g %g %g))",
		s.seg.From.X, s.seg.From.Y, s.seg.From.Z, s.seg.To.X, s.seg.To.Y, s.seg.To.Z)
}
func (s *sexpSegment) Type() *zygo.RegisteredType { return nil }

// sexpPreset names a stock topology so `defcell` can take it as a body.
type sexpPreset struct {
	name string
}

func (p *sexpPreset) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(preset %q)", p.name)
}
func (p *sexpPreset) Type() *zygo.RegisteredType { return nil }

// sexpNodeRef wraps a design.NodeID so it can be passed between builtins.
type sexpNodeRef struct {
	id   design.NodeID
	name string // human-readable name for error messages
}

func (n *sexpNodeRef) SexpString(ps *zygo.PrintState) string {
	if n.name != "" {
		return fmt.Sprintf("(noderef %q)", n.name)
	}
	return fmt.Sprintf("(noderef %s)", n.id.Short())
}
func (n *sexpNodeRef) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
// Keywords are identified by the __kw_ prefix added during preprocessing.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				// Keyword at end with no value: treat as flag with nil.
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toInt extracts a whole number from a Sexp.
func toInt(s zygo.Sexp) (int, error) {
	if v, ok := s.(*zygo.SexpInt); ok {
		return int(v.Val), nil
	}
	return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
}

// toBool extracts a boolean from a Sexp. A bare trailing keyword (nil
// value) counts as true.
func toBool(s zygo.Sexp) (bool, error) {
	switch v := s.(type) {
	case *zygo.SexpBool:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return true, nil
		}
	}
	return false, fmt.Errorf("expected boolean, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
// Handles both preprocessed keywords (__kw_nodes) and plain strings ("nodes").
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], nil
	}
	return str.S, nil
}

// toNodeRef extracts a NodeID of the given kind from a sexpNodeRef.
func toNodeRef(g *design.DesignGraph, s zygo.Sexp, kind design.NodeKind) (design.NodeID, error) {
	ref, ok := s.(*sexpNodeRef)
	if !ok {
		return "", fmt.Errorf("expected %s reference, got %T (%s)", kind, s, s.SexpString(nil))
	}
	if n := g.Get(ref.id); n != nil && n.Kind != kind {
		return "", fmt.Errorf("expected %s reference, got %s %q", kind, n.Kind, n.Name)
	}
	return ref.id, nil
}

// toVec3 extracts a geom.Vec from a sexpVec3.
func toVec3(s zygo.Sexp) (geom.Vec, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return geom.Vec{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// toSegments flattens a `line`, or a list or array of them, into segments.
func toSegments(s zygo.Sexp) ([]geom.Segment, error) {
	if seg, ok := s.(*sexpSegment); ok {
		return []geom.Segment{seg.seg}, nil
	}
	items, err := sexpListToSlice(s)
	if err != nil {
		return nil, fmt.Errorf("expected line or list of lines: %w", err)
	}
	var out []geom.Segment
	for _, item := range items {
		segs, err := toSegments(item)
		if err != nil {
			return nil, err
		}
		out = append(out, segs...)
	}
	return out, nil
}

// toVecs converts a list or array of vec3 values.
func toVecs(s zygo.Sexp) ([]geom.Vec, error) {
	items, err := sexpListToSlice(s)
	if err != nil {
		return nil, err
	}
	out := make([]geom.Vec, len(items))
	for i, item := range items {
		if out[i], err = toVec3(item); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Node ID generation
// ---------------------------------------------------------------------------

// nodeCounter provides unique suffixes for anonymous nodes.
var nodeCounter uint64

func nextNodeSuffix() string {
	n := atomic.AddUint64(&nodeCounter, 1)
	return fmt.Sprintf("_anon_%d", n)
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs all trellis DSL builtins into a zygomys
// environment. The builtins operate on the provided DesignGraph, populating
// it during evaluation.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, g *design.DesignGraph) {

	// -----------------------------------------------------------------------
	// (defaults :tolerance 1e-4 :strut-radius 0.1 :mirror true)
	// -----------------------------------------------------------------------
	env.AddFunction("defaults", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if v, ok := pa.kw["tolerance"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("defaults: tolerance: %w", err)
			}
			if f <= 0 {
				return zygo.SexpNull, fmt.Errorf("defaults: tolerance must be positive, got %g", f)
			}
			g.Defaults.Tolerance = f
		}
		if v, ok := pa.kw["strut-radius"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("defaults: strut-radius: %w", err)
			}
			g.Defaults.StrutRadius = f
		}
		if v, ok := pa.kw["mirror"]; ok {
			b, err := toBool(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("defaults: mirror: %w", err)
			}
			g.Defaults.Mirror = b
		}
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (vec3 1 2 3)
	// -----------------------------------------------------------------------
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}

		x, err := toFloat64(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: x: %w", err)
		}
		y, err := toFloat64(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: y: %w", err)
		}
		z, err := toFloat64(args[2])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: z: %w", err)
		}

		return &sexpVec3{vec: geom.Vec{X: x, Y: y, Z: z}}, nil
	})

	// -----------------------------------------------------------------------
	// (line (vec3 0 0 0) (vec3 1 1 1))
	// -----------------------------------------------------------------------
	env.AddFunction("line", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("line requires exactly 2 points, got %d", len(args))
		}
		from, err := toVec3(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("line: from: %w", err)
		}
		to, err := toVec3(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("line: to: %w", err)
		}
		return &sexpSegment{seg: geom.Seg(from, to)}, nil
	})

	// -----------------------------------------------------------------------
	// (preset "bcc")
	// -----------------------------------------------------------------------
	env.AddFunction("preset", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("preset requires a name argument")
		}
		pname, err := toKeywordString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("preset: name: %w", err)
		}
		if _, err := cell.Preset(pname); err != nil {
			return zygo.SexpNull, fmt.Errorf("preset: %w", err)
		}
		return &sexpPreset{name: pname}, nil
	})

	// -----------------------------------------------------------------------
	// (defcell "name" (line ...) (line ...) :tolerance 1e-4 :mirror true
	//          :reference (list (vec3 ...) ...))
	// (defcell "name" (preset "bcc"))
	// -----------------------------------------------------------------------
	env.AddFunction("defcell", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 2 {
			return zygo.SexpNull, fmt.Errorf("defcell requires a name and a body expression")
		}

		cellName, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("defcell: name: %w", err)
		}

		var cd design.CellData
		for i, body := range pa.positional[1:] {
			if p, ok := body.(*sexpPreset); ok {
				if cd.Preset != "" || len(cd.Segments) > 0 {
					return zygo.SexpNull, fmt.Errorf("defcell: a preset cannot be combined with other bodies")
				}
				cd.Preset = p.name
				continue
			}
			if cd.Preset != "" {
				return zygo.SexpNull, fmt.Errorf("defcell: a preset cannot be combined with other bodies")
			}
			segs, err := toSegments(body)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("defcell: body %d: %w", i+1, err)
			}
			cd.Segments = append(cd.Segments, segs...)
		}

		if v, ok := pa.kw["tolerance"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("defcell: tolerance: %w", err)
			}
			cd.Tolerance = f
		}
		if v, ok := pa.kw["mirror"]; ok {
			b, err := toBool(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("defcell: mirror: %w", err)
			}
			cd.Mirror = b
		}
		if v, ok := pa.kw["reference"]; ok {
			ref, err := toVecs(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("defcell: reference: %w", err)
			}
			cd.Reference = ref
		}

		id := design.NewNodeID("defcell/" + cellName)
		g.AddNode(&design.Node{
			ID:   id,
			Kind: design.NodeCell,
			Name: cellName,
			Data: cd,
		})

		return &sexpNodeRef{id: id, name: cellName}, nil
	})

	// -----------------------------------------------------------------------
	// (cell "name")
	// -----------------------------------------------------------------------
	env.AddFunction("cell", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		return lookupRef(g, "cell", design.NodeCell, args)
	})

	// -----------------------------------------------------------------------
	// (defsurface "name" p0 p1 p2 p3)
	// -----------------------------------------------------------------------
	env.AddFunction("defsurface", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 5 {
			return zygo.SexpNull, fmt.Errorf("defsurface requires a name and four corners, got %d arguments", len(args))
		}
		surfName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("defsurface: name: %w", err)
		}
		var sd design.SurfaceData
		for i := range sd.Corners {
			if sd.Corners[i], err = toVec3(args[i+1]); err != nil {
				return zygo.SexpNull, fmt.Errorf("defsurface: corner %d: %w", i, err)
			}
		}

		id := design.NewNodeID("defsurface/" + surfName)
		g.AddNode(&design.Node{
			ID:   id,
			Kind: design.NodeSurface,
			Name: surfName,
			Data: sd,
		})

		return &sexpNodeRef{id: id, name: surfName}, nil
	})

	// -----------------------------------------------------------------------
	// (surface "name")
	// -----------------------------------------------------------------------
	env.AddFunction("surface", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		return lookupRef(g, "surface", design.NodeSurface, args)
	})

	// -----------------------------------------------------------------------
	// (lattice "name" :cell (cell "c") :bottom (surface "a") :top (surface "b")
	//          :extent (list 4 4 2) :offsets :nodes :strut-radius 0.1
	//          :node-radius 0.15)
	// (lattice "name" :cell (cell "c") :size 10 :extent (list 4 4 4))
	// -----------------------------------------------------------------------
	env.AddFunction("lattice", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("lattice requires a name argument")
		}
		latName, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("lattice: name: %w", err)
		}

		ld := design.LatticeData{
			Offsets:     design.OffsetsNodes,
			StrutRadius: g.Defaults.StrutRadius,
			Size:        design.DefaultSize,
		}

		v, ok := pa.kw["cell"]
		if !ok {
			return zygo.SexpNull, fmt.Errorf("lattice: :cell is required")
		}
		if ld.Cell, err = toNodeRef(g, v, design.NodeCell); err != nil {
			return zygo.SexpNull, fmt.Errorf("lattice: cell: %w", err)
		}
		children := []design.NodeID{ld.Cell}

		for _, side := range []struct {
			kw  string
			dst *design.NodeID
		}{{"bottom", &ld.Bottom}, {"top", &ld.Top}} {
			v, ok := pa.kw[side.kw]
			if !ok {
				continue
			}
			id, err := toNodeRef(g, v, design.NodeSurface)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("lattice: %s: %w", side.kw, err)
			}
			*side.dst = id
			children = append(children, id)
		}

		if v, ok := pa.kw["extent"]; ok {
			items, err := sexpListToSlice(v)
			if err != nil || len(items) != 3 {
				return zygo.SexpNull, fmt.Errorf("lattice: extent: expected a list of three integers")
			}
			var n [3]int
			for i, item := range items {
				if n[i], err = toInt(item); err != nil {
					return zygo.SexpNull, fmt.Errorf("lattice: extent: %w", err)
				}
			}
			ld.Extent = lattice.Extent{Nu: n[0], Nv: n[1], Nw: n[2]}
		}
		if v, ok := pa.kw["size"]; ok {
			if ld.Size, err = toFloat64(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("lattice: size: %w", err)
			}
		}
		if v, ok := pa.kw["offsets"]; ok {
			mode, err := toKeywordString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("lattice: offsets: %w", err)
			}
			ld.Offsets = design.OffsetMode(mode)
		}
		if v, ok := pa.kw["strut-radius"]; ok {
			if ld.StrutRadius, err = toFloat64(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("lattice: strut-radius: %w", err)
			}
		}
		if v, ok := pa.kw["node-radius"]; ok {
			if ld.NodeRadius, err = toFloat64(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("lattice: node-radius: %w", err)
			}
		}

		idPath := "lattice/" + latName
		if latName == "" {
			idPath = "lattice/" + nextNodeSuffix()
		}
		id := design.NewNodeID(idPath)
		g.AddNode(&design.Node{
			ID:       id,
			Kind:     design.NodeLattice,
			Name:     latName,
			Children: children,
			Data:     ld,
		})
		g.AddRoot(id)

		return &sexpNodeRef{id: id, name: latName}, nil
	})
}

// lookupRef implements the (cell "name") and (surface "name") lookups.
func lookupRef(g *design.DesignGraph, fn string, kind design.NodeKind, args []zygo.Sexp) (zygo.Sexp, error) {
	if len(args) < 1 {
		return zygo.SexpNull, fmt.Errorf("%s requires a name argument", fn)
	}
	refName, err := toString(args[0])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("%s: name: %w", fn, err)
	}
	n := g.Lookup(refName)
	if n == nil || n.Kind != kind {
		return zygo.SexpNull, fmt.Errorf("%s: no %s named %q", fn, kind, refName)
	}
	return &sexpNodeRef{id: n.ID, name: refName}, nil
}
