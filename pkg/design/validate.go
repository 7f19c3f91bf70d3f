package design

import (
	"fmt"

	"github.com/chazu/trellis/pkg/cell"
)

// ValidationSeverity indicates whether a validation finding blocks evaluation
// or is merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // blocks evaluation
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	NodeID   NodeID             // which node has the problem (zero if graph-level)
	Message  string             // human-readable description
	Severity ValidationSeverity // error or warning
}

func (e ValidationError) Error() string {
	if e.NodeID.IsZero() {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] node %s: %s", e.Severity, e.NodeID.Short(), e.Message)
}

// HasErrors reports whether any finding is blocking.
func HasErrors(errs []ValidationError) bool {
	for _, e := range errs {
		if e.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Validate runs the structural checks on the design graph and returns every
// finding. An empty slice means the graph is valid. This function is
// read-only and never mutates the graph.
func Validate(g *DesignGraph) []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateDAG(g)...)
	errs = append(errs, validateReferences(g)...)
	errs = append(errs, validateNames(g)...)
	errs = append(errs, validateRoots(g)...)
	errs = append(errs, validateData(g)...)
	return errs
}

// validateDAG checks for cycles using DFS with 3-color marking.
func validateDAG(g *DesignGraph) []ValidationError {
	const (
		white = iota
		gray
		black
	)

	color := make(map[NodeID]int)
	var errs []ValidationError

	var visit func(id NodeID) bool
	visit = func(id NodeID) bool {
		switch color[id] {
		case black:
			return false
		case gray:
			errs = append(errs, ValidationError{
				NodeID:   id,
				Message:  fmt.Sprintf("cycle detected: node %s is part of a cycle", id.Short()),
				Severity: SeverityError,
			})
			return true
		}

		color[id] = gray
		node, ok := g.Nodes[id]
		if !ok {
			// Dangling reference; handled by validateReferences.
			color[id] = black
			return false
		}
		for _, childID := range node.Children {
			if visit(childID) {
				return true
			}
		}
		color[id] = black
		return false
	}

	for id := range g.Nodes {
		if color[id] == white && visit(id) {
			break
		}
	}
	return errs
}

// validateReferences checks that every referenced NodeID exists and has the
// kind its role requires.
func validateReferences(g *DesignGraph) []ValidationError {
	var errs []ValidationError

	for _, node := range g.Nodes {
		for _, childID := range node.Children {
			if _, ok := g.Nodes[childID]; !ok {
				errs = append(errs, ValidationError{
					NodeID:   node.ID,
					Message:  fmt.Sprintf("child reference %s does not exist", childID.Short()),
					Severity: SeverityError,
				})
			}
		}

		d, ok := node.Data.(LatticeData)
		if !ok {
			continue
		}
		refs := []struct {
			role string
			id   NodeID
			kind NodeKind
		}{
			{"cell", d.Cell, NodeCell},
			{"bottom", d.Bottom, NodeSurface},
			{"top", d.Top, NodeSurface},
		}
		for _, r := range refs {
			if r.id.IsZero() {
				if r.role == "cell" {
					errs = append(errs, ValidationError{
						NodeID:   node.ID,
						Message:  "lattice has no cell",
						Severity: SeverityError,
					})
				}
				continue
			}
			target, ok := g.Nodes[r.id]
			switch {
			case !ok:
				errs = append(errs, ValidationError{
					NodeID:   node.ID,
					Message:  fmt.Sprintf("lattice %s reference %s does not exist", r.role, r.id.Short()),
					Severity: SeverityError,
				})
			case target.Kind != r.kind:
				errs = append(errs, ValidationError{
					NodeID:   node.ID,
					Message:  fmt.Sprintf("lattice %s reference %s is a %s, want %s", r.role, r.id.Short(), target.Kind, r.kind),
					Severity: SeverityError,
				})
			}
		}
		if d.Bottom.IsZero() != d.Top.IsZero() {
			errs = append(errs, ValidationError{
				NodeID:   node.ID,
				Message:  "lattice needs both bounding surfaces or neither",
				Severity: SeverityError,
			})
		}
	}
	return errs
}

// validateNames checks that every NameIndex entry exists and that no two
// nodes share a name.
func validateNames(g *DesignGraph) []ValidationError {
	var errs []ValidationError

	for name, id := range g.NameIndex {
		if _, ok := g.Nodes[id]; !ok {
			errs = append(errs, ValidationError{
				Message:  fmt.Sprintf("name index entry %q references non-existent node %s", name, id.Short()),
				Severity: SeverityError,
			})
		}
	}

	nameToNodes := make(map[string][]NodeID)
	for id, node := range g.Nodes {
		if node.Name != "" {
			nameToNodes[node.Name] = append(nameToNodes[node.Name], id)
		}
	}
	for name, ids := range nameToNodes {
		if len(ids) > 1 {
			errs = append(errs, ValidationError{
				Message:  fmt.Sprintf("duplicate name %q assigned to %d nodes", name, len(ids)),
				Severity: SeverityError,
			})
		}
	}
	return errs
}

// validateRoots checks that every root exists and warns about nodes no root
// reaches.
func validateRoots(g *DesignGraph) []ValidationError {
	var errs []ValidationError

	reachable := make(map[NodeID]bool)
	queue := make([]NodeID, 0, len(g.Roots))
	for _, rid := range g.Roots {
		if _, ok := g.Nodes[rid]; !ok {
			errs = append(errs, ValidationError{
				Message:  fmt.Sprintf("root reference %s does not exist", rid.Short()),
				Severity: SeverityError,
			})
			continue
		}
		if !reachable[rid] {
			reachable[rid] = true
			queue = append(queue, rid)
		}
	}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, cid := range g.Nodes[current].Children {
			if _, ok := g.Nodes[cid]; ok && !reachable[cid] {
				reachable[cid] = true
				queue = append(queue, cid)
			}
		}
	}

	for id, node := range g.Nodes {
		if !reachable[id] {
			errs = append(errs, ValidationError{
				NodeID:   id,
				Message:  fmt.Sprintf("%s %q is not used by any lattice", node.Kind, node.Name),
				Severity: SeverityWarning,
			})
		}
	}
	return errs
}

// validateData checks kind-specific payloads.
func validateData(g *DesignGraph) []ValidationError {
	var errs []ValidationError
	fail := func(id NodeID, format string, args ...any) {
		errs = append(errs, ValidationError{
			NodeID:   id,
			Message:  fmt.Sprintf(format, args...),
			Severity: SeverityError,
		})
	}

	for id, node := range g.Nodes {
		switch d := node.Data.(type) {
		case CellData:
			if len(d.Segments) == 0 && d.Preset == "" {
				fail(id, "cell %q has no segments", node.Name)
			}
			if d.Preset != "" {
				if _, err := cell.Preset(d.Preset); err != nil {
					fail(id, "cell %q: %v", node.Name, err)
				}
			}
			if d.Tolerance < 0 {
				fail(id, "cell %q has negative tolerance %g", node.Name, d.Tolerance)
			}
		case LatticeData:
			if err := d.Extent.Validate(); err != nil {
				fail(id, "%v", err)
			}
			if d.StrutRadius <= 0 {
				fail(id, "strut radius must be positive, got %g", d.StrutRadius)
			}
			if d.NodeRadius < 0 {
				fail(id, "node radius must not be negative, got %g", d.NodeRadius)
			}
			if d.Offsets != OffsetsCorners && d.Offsets != OffsetsNodes {
				fail(id, "unknown offsets mode %q", d.Offsets)
			}
			if d.Bottom.IsZero() && d.Size <= 0 {
				fail(id, "lattice without surfaces needs a positive size, got %g", d.Size)
			}
		case nil:
			fail(id, "%s node has no data", node.Kind)
		}
	}
	return errs
}
