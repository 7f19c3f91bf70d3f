package kernel

import "math"

// Mesh is a triangle mesh suitable for rendering.
// All arrays are flat: vertices has 3 floats per vertex (x,y,z),
// normals has 3 floats per vertex, indices has 3 uint32s per triangle.
type Mesh struct {
	Vertices []float32 `json:"vertices"` // [x0,y0,z0, x1,y1,z1, ...]
	Normals  []float32 `json:"normals"`  // [nx0,ny0,nz0, ...]
	Indices  []uint32  `json:"indices"`  // [i0,i1,i2, ...] triangles
	Name     string    `json:"name"`     // which lattice this came from
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0
}

// Bounds returns the axis-aligned bounds of the vertices. Both are zero for
// an empty mesh.
func (m *Mesh) Bounds() (min, max [3]float32) {
	if m.IsEmpty() {
		return min, max
	}
	copy(min[:], m.Vertices[:3])
	copy(max[:], m.Vertices[:3])
	for i := 3; i < len(m.Vertices); i += 3 {
		for a := 0; a < 3; a++ {
			v := m.Vertices[i+a]
			if v < min[a] {
				min[a] = v
			}
			if v > max[a] {
				max[a] = v
			}
		}
	}
	return min, max
}

// VertexNormals returns unit per-vertex normals for an indexed triangle
// list, averaging the area-weighted face normals around each vertex.
// Vertices touched only by degenerate triangles get a zero normal.
func VertexNormals(vertices []float32, indices []uint32) []float32 {
	normals := make([]float32, len(vertices))
	for t := 0; t+2 < len(indices); t += 3 {
		tri := [3]uint32{indices[t], indices[t+1], indices[t+2]}
		var p [3][3]float64
		for j, idx := range tri {
			for a := 0; a < 3; a++ {
				p[j][a] = float64(vertices[idx*3+uint32(a)])
			}
		}
		u := [3]float64{p[1][0] - p[0][0], p[1][1] - p[0][1], p[1][2] - p[0][2]}
		v := [3]float64{p[2][0] - p[0][0], p[2][1] - p[0][1], p[2][2] - p[0][2]}
		n := [3]float32{
			float32(u[1]*v[2] - u[2]*v[1]),
			float32(u[2]*v[0] - u[0]*v[2]),
			float32(u[0]*v[1] - u[1]*v[0]),
		}
		for _, idx := range tri {
			for a := 0; a < 3; a++ {
				normals[idx*3+uint32(a)] += n[a]
			}
		}
	}
	for i := 0; i+2 < len(normals); i += 3 {
		x, y, z := float64(normals[i]), float64(normals[i+1]), float64(normals[i+2])
		l := math.Sqrt(x*x + y*y + z*z)
		if l < 1e-12 {
			continue
		}
		normals[i], normals[i+1], normals[i+2] = float32(x/l), float32(y/l), float32(z/l)
	}
	return normals
}
