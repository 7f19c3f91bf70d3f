//go:build manifold

// Package manifold is a cgo geometry kernel over the Manifold C bindings
// (https://github.com/elalish/manifold). Manifold booleans always return
// closed 2-manifolds, so a union of hundreds of overlapping struts and node
// spheres meshes without cracks at the joints.
//
// Requires manifoldc under /usr/local. Build with -tags=manifold.
package manifold

/*
#cgo CFLAGS: -I/usr/local/include
#cgo LDFLAGS: -L/usr/local/lib -lmanifoldc

#include <stdlib.h>
#include <manifold/manifoldc.h>
*/
import "C"

import (
	"fmt"
	"runtime"
	"unsafe"

	"github.com/chazu/trellis/pkg/kernel"
)

var _ kernel.Kernel = (*ManifoldKernel)(nil)

// solid owns one C manifold. The finalizer frees it.
type solid struct {
	ptr *C.ManifoldManifold
}

func (s *solid) BoundingBox() (min, max [3]float64) {
	box := C.manifold_bounding_box(C.manifold_alloc_box(), s.ptr)
	defer C.manifold_delete_box(box)

	min = [3]float64{
		float64(C.manifold_box_min_x(box)),
		float64(C.manifold_box_min_y(box)),
		float64(C.manifold_box_min_z(box)),
	}
	max = [3]float64{
		float64(C.manifold_box_max_x(box)),
		float64(C.manifold_box_max_y(box)),
		float64(C.manifold_box_max_z(box)),
	}
	return min, max
}

func own(ptr *C.ManifoldManifold) kernel.Solid {
	s := &solid{ptr: ptr}
	runtime.SetFinalizer(s, func(s *solid) {
		if s.ptr != nil {
			C.manifold_delete_manifold(s.ptr)
			s.ptr = nil
		}
	})
	return s
}

func raw(s kernel.Solid) *C.ManifoldManifold {
	return s.(*solid).ptr
}

// ManifoldKernel builds lattice solids with Manifold.
type ManifoldKernel struct{}

// New returns a ManifoldKernel.
func New() (kernel.Kernel, error) {
	return &ManifoldKernel{}, nil
}

func (k *ManifoldKernel) Box(x, y, z float64) kernel.Solid {
	return own(C.manifold_cube(C.manifold_alloc_manifold(),
		C.double(x), C.double(y), C.double(z), C.int(0)))
}

func (k *ManifoldKernel) Sphere(radius float64, segments int) kernel.Solid {
	return own(C.manifold_sphere(C.manifold_alloc_manifold(),
		C.double(radius), C.int(segments)))
}

// Cylinder is an untapered prism of the given number of sides, centred on
// the origin along Z.
func (k *ManifoldKernel) Cylinder(height, radius float64, segments int) kernel.Solid {
	return own(C.manifold_cylinder(C.manifold_alloc_manifold(),
		C.double(height), C.double(radius), C.double(radius),
		C.int(segments), C.int(1)))
}

func (k *ManifoldKernel) Union(a, b kernel.Solid) kernel.Solid {
	return own(C.manifold_union(C.manifold_alloc_manifold(), raw(a), raw(b)))
}

func (k *ManifoldKernel) Intersection(a, b kernel.Solid) kernel.Solid {
	return own(C.manifold_intersection(C.manifold_alloc_manifold(), raw(a), raw(b)))
}

func (k *ManifoldKernel) Translate(s kernel.Solid, x, y, z float64) kernel.Solid {
	return own(C.manifold_translate(C.manifold_alloc_manifold(), raw(s),
		C.double(x), C.double(y), C.double(z)))
}

// Rotate applies Euler angles in degrees, X first.
func (k *ManifoldKernel) Rotate(s kernel.Solid, x, y, z float64) kernel.Solid {
	return own(C.manifold_rotate(C.manifold_alloc_manifold(), raw(s),
		C.double(x), C.double(y), C.double(z)))
}

// ToMesh copies the solid's MeshGL buffers into a kernel.Mesh. MeshGL
// interleaves numProp floats per vertex with the position first; anything
// after it is ignored and normals are recomputed from the triangles.
func (k *ManifoldKernel) ToMesh(s kernel.Solid) (*kernel.Mesh, error) {
	gl := C.manifold_get_meshgl(C.manifold_alloc_meshgl(), raw(s))
	defer C.manifold_delete_meshgl(gl)

	nVert := int(C.manifold_meshgl_num_vert(gl))
	nTri := int(C.manifold_meshgl_num_tri(gl))
	nProp := int(C.manifold_meshgl_num_prop(gl))
	if nVert == 0 || nTri == 0 {
		return &kernel.Mesh{}, nil
	}
	if nProp < 3 {
		return nil, fmt.Errorf("manifold: meshgl has %d properties per vertex, need 3", nProp)
	}

	props := make([]float32, nVert*nProp)
	C.manifold_meshgl_vert_properties((*C.float)(unsafe.Pointer(&props[0])), gl)

	indices := make([]uint32, nTri*3)
	C.manifold_meshgl_tri_verts((*C.uint32_t)(unsafe.Pointer(&indices[0])), gl)

	vertices := positions(props, nProp)
	return &kernel.Mesh{
		Vertices: vertices,
		Normals:  kernel.VertexNormals(vertices, indices),
		Indices:  indices,
	}, nil
}

// positions strips the first three properties of every vertex.
func positions(props []float32, nProp int) []float32 {
	n := len(props) / nProp
	out := make([]float32, 0, n*3)
	for i := 0; i < n; i++ {
		out = append(out, props[i*nProp:i*nProp+3]...)
	}
	return out
}
