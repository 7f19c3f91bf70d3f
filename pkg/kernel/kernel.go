// Package kernel is the seam between lattice frames and solid geometry.
// Tessellation only talks to Kernel; sdfx and manifold are the two
// backends.
package kernel

// Solid is a backend-specific solid handle.
type Solid interface {
	BoundingBox() (min, max [3]float64)
}

// Kernel builds and meshes the solids a lattice is made of: a cylinder per
// strut, an optional sphere per node, unions to join them and a box
// intersection to clip the result.
type Kernel interface {
	// Box has its minimum corner at the origin. Sphere and Cylinder are
	// centred on it, the cylinder running along Z. segments is the number
	// of facets around a circle; backends without facets ignore it.
	Box(x, y, z float64) Solid
	Sphere(radius float64, segments int) Solid
	Cylinder(height, radius float64, segments int) Solid

	Union(a, b Solid) Solid
	Intersection(a, b Solid) Solid

	Translate(s Solid, x, y, z float64) Solid
	// Rotate applies Euler angles in degrees about X, then Y, then Z.
	Rotate(s Solid, x, y, z float64) Solid

	ToMesh(s Solid) (*Mesh, error)
}
