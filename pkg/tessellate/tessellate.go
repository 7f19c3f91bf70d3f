// Package tessellate turns lattice frames into triangle meshes using a
// geometry kernel. Struts become cylinders, nodes optionally become spheres,
// and one mesh is produced per lattice.
package tessellate

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/chazu/trellis/pkg/design"
	"github.com/chazu/trellis/pkg/geom"
	"github.com/chazu/trellis/pkg/kernel"
	"github.com/chazu/trellis/pkg/lattice"
	"github.com/chazu/trellis/pkg/logging"
)

// DefaultSegments is the circular resolution for polygonal kernels.
const DefaultSegments = 16

// ErrEmptyFrame is returned when a frame has no struts and no node spheres.
var ErrEmptyFrame = errors.New("tessellate: frame has no geometry")

// Options controls how a frame is turned into solids.
type Options struct {
	StrutRadius float64
	NodeRadius  float64 // 0 = no node spheres
	Segments    int     // 0 = DefaultSegments
	// Clip trims the solid to the bounding box of the frame nodes, flattening
	// strut ends and spheres on the outer faces.
	Clip   bool
	Logger logging.Logger
}

// Solid builds the union of all strut cylinders (and node spheres) of f.
func Solid(k kernel.Kernel, f *lattice.Frame, opts Options) (kernel.Solid, error) {
	if opts.StrutRadius <= 0 {
		return nil, fmt.Errorf("tessellate: strut radius must be positive, got %g", opts.StrutRadius)
	}
	if opts.NodeRadius < 0 {
		return nil, fmt.Errorf("tessellate: node radius must not be negative, got %g", opts.NodeRadius)
	}
	segments := opts.Segments
	if segments <= 0 {
		segments = DefaultSegments
	}
	log := logging.OrNop(opts.Logger)

	var parts []kernel.Solid
	skipped := 0
	for _, s := range f.Segments() {
		solid, ok := strut(k, s, opts.StrutRadius, segments)
		if !ok {
			skipped++
			continue
		}
		parts = append(parts, solid)
	}
	if skipped > 0 {
		log.Warn("skipped zero-length struts", logging.Int("count", skipped))
	}
	if opts.NodeRadius > 0 {
		for _, p := range f.Nodes {
			parts = append(parts, k.Translate(k.Sphere(opts.NodeRadius, segments), p.X, p.Y, p.Z))
		}
	}
	if len(parts) == 0 {
		return nil, ErrEmptyFrame
	}

	solid := union(k, parts)
	if opts.Clip {
		box, _ := geom.Bounds(f.Nodes)
		size := box.Size()
		if size.X > 0 && size.Y > 0 && size.Z > 0 {
			clip := k.Translate(k.Box(size.X, size.Y, size.Z), box.Min.X, box.Min.Y, box.Min.Z)
			solid = k.Intersection(solid, clip)
		} else {
			log.Warn("frame is flat, not clipping", logging.Any("size", [3]float64{size.X, size.Y, size.Z}))
		}
	}
	log.Debug("frame solid built",
		logging.Int("struts", len(f.Struts)-skipped),
		logging.Int("parts", len(parts)))
	return solid, nil
}

// Frame meshes f as a single part.
func Frame(k kernel.Kernel, f *lattice.Frame, opts Options) (*kernel.Mesh, error) {
	solid, err := Solid(k, f, opts)
	if err != nil {
		return nil, err
	}
	mesh, err := k.ToMesh(solid)
	if err != nil {
		return nil, fmt.Errorf("tessellate: ToMesh failed: %w", err)
	}
	return mesh, nil
}

// strut returns a cylinder spanning s. The kernel cylinder runs along Z, so
// it is tilted about Y onto the strut's polar angle, turned about Z onto its
// azimuth and moved to the midpoint.
func strut(k kernel.Kernel, s geom.Segment, radius float64, segments int) (kernel.Solid, bool) {
	length := s.Length()
	if length <= 0 {
		return nil, false
	}
	d := s.To.Sub(s.From).MulScalar(1 / length)
	phi := math.Acos(math.Max(-1, math.Min(1, d.Z))) * 180 / math.Pi
	theta := math.Atan2(d.Y, d.X) * 180 / math.Pi

	c := k.Cylinder(length, radius, segments)
	if phi != 0 || theta != 0 {
		c = k.Rotate(c, 0, phi, theta)
	}
	mid := geom.Lerp(s.From, s.To, 0.5)
	return k.Translate(c, mid.X, mid.Y, mid.Z), true
}

// union joins parts as a balanced tree so no branch grows deeper than
// log2(len(parts)).
func union(k kernel.Kernel, parts []kernel.Solid) kernel.Solid {
	switch len(parts) {
	case 1:
		return parts[0]
	case 2:
		return k.Union(parts[0], parts[1])
	}
	mid := len(parts) / 2
	return k.Union(union(k, parts[:mid]), union(k, parts[mid:]))
}

// DesignOptions configures Design.
type DesignOptions struct {
	Realize  design.RealizeOptions
	Segments int
	Clip     bool
	Logger   logging.Logger
}

// Design realizes every lattice root of g and meshes its frame. Meshes are
// returned in declaration order.
func Design(ctx context.Context, g *design.DesignGraph, k kernel.Kernel, opts DesignOptions) ([]*kernel.Mesh, error) {
	if g == nil {
		return nil, nil
	}
	realized, err := g.RealizeAll(ctx, opts.Realize)
	if err != nil {
		return nil, fmt.Errorf("tessellate: %w", err)
	}

	meshes := make([]*kernel.Mesh, 0, len(realized))
	for _, r := range realized {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		mesh, err := Lattice(g, k, r, opts)
		if err != nil {
			return nil, err
		}
		meshes = append(meshes, mesh)
	}
	return meshes, nil
}

// Lattice meshes one realized lattice of g. The mesh is named after the
// lattice; a zero strut radius on the lattice falls back to the graph
// default.
func Lattice(g *design.DesignGraph, k kernel.Kernel, r *design.Realized, opts DesignOptions) (*kernel.Mesh, error) {
	log := logging.OrNop(opts.Logger).Named("tessellate")
	d, ok := r.Node.Data.(design.LatticeData)
	if !ok {
		return nil, fmt.Errorf("tessellate: node %s is a %s, not a lattice", r.Node.ID.Short(), r.Node.Kind)
	}
	radius := d.StrutRadius
	if radius == 0 {
		radius = g.Defaults.StrutRadius
	}
	name := r.Node.Name
	if name == "" {
		name = r.Node.ID.Short()
	}

	mesh, err := Frame(k, r.Frame, Options{
		StrutRadius: radius,
		NodeRadius:  d.NodeRadius,
		Segments:    opts.Segments,
		Clip:        opts.Clip,
		Logger:      log.With(logging.String("lattice", name)),
	})
	if err != nil {
		return nil, fmt.Errorf("tessellate: lattice %q: %w", name, err)
	}
	mesh.Name = name
	log.Info("lattice meshed",
		logging.String("lattice", name),
		logging.Int("struts", len(r.Frame.Struts)),
		logging.Int("triangles", mesh.TriangleCount()))
	return mesh, nil
}
