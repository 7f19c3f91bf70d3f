package sdfx

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCells = 40

func assertBounds(t *testing.T, gotMin, gotMax, wantMin, wantMax [3]float64, tol float64) {
	t.Helper()
	for i := 0; i < 3; i++ {
		assert.InDelta(t, wantMin[i], gotMin[i], tol, "min[%d]", i)
		assert.InDelta(t, wantMax[i], gotMax[i], tol, "max[%d]", i)
	}
}

func TestNewWithCells(t *testing.T) {
	assert.Equal(t, DefaultMeshCells, New().Cells())
	assert.Equal(t, 64, NewWithCells(64).Cells())
	assert.Equal(t, DefaultMeshCells, NewWithCells(0).Cells())
}

func TestBox(t *testing.T) {
	k := NewWithCells(testCells)
	box := k.Box(100, 50, 25)
	mesh, err := k.ToMesh(box)
	require.NoError(t, err)
	require.False(t, mesh.IsEmpty())

	triCount := mesh.TriangleCount()
	require.NotZero(t, triCount)
	assert.Len(t, mesh.Normals, len(mesh.Vertices))
	assert.Len(t, mesh.Indices, triCount*3)
}

func TestBoxBoundingBox(t *testing.T) {
	k := New()
	min, max := k.Box(100, 50, 25).BoundingBox()
	assertBounds(t, min, max, [3]float64{0, 0, 0}, [3]float64{100, 50, 25}, 0.01)
}

func TestSphere(t *testing.T) {
	k := NewWithCells(testCells)
	s := k.Sphere(2, 16)
	min, max := s.BoundingBox()
	assertBounds(t, min, max, [3]float64{-2, -2, -2}, [3]float64{2, 2, 2}, 0.01)

	mesh, err := k.ToMesh(s)
	require.NoError(t, err)
	require.False(t, mesh.IsEmpty())

	// Every vertex lies close to the sphere surface.
	for i := 0; i < len(mesh.Vertices); i += 3 {
		x, y, z := float64(mesh.Vertices[i]), float64(mesh.Vertices[i+1]), float64(mesh.Vertices[i+2])
		r := math.Sqrt(x*x + y*y + z*z)
		assert.InDelta(t, 2, r, 0.15)
	}
}

func TestSphereInvalidRadiusPanics(t *testing.T) {
	k := New()
	assert.Panics(t, func() { k.Sphere(0, 16) })
}

func TestCylinder(t *testing.T) {
	k := NewWithCells(testCells)
	cyl := k.Cylinder(50, 10, 32)
	min, max := cyl.BoundingBox()
	assertBounds(t, min, max, [3]float64{-10, -10, -25}, [3]float64{10, 10, 25}, 0.01)

	mesh, err := k.ToMesh(cyl)
	require.NoError(t, err)
	require.False(t, mesh.IsEmpty())
}

func TestUnion(t *testing.T) {
	k := NewWithCells(testCells)
	a := k.Sphere(1, 16)
	b := k.Translate(k.Sphere(1, 16), 3, 0, 0)
	u := k.Union(a, b)

	min, max := u.BoundingBox()
	assertBounds(t, min, max, [3]float64{-1, -1, -1}, [3]float64{4, 1, 1}, 0.01)

	mesh, err := k.ToMesh(u)
	require.NoError(t, err)
	assert.False(t, mesh.IsEmpty())
}

func TestTranslate(t *testing.T) {
	k := New()
	translated := k.Translate(k.Box(10, 10, 10), 100, 200, 300)
	min, max := translated.BoundingBox()
	assertBounds(t, min, max, [3]float64{100, 200, 300}, [3]float64{110, 210, 310}, 0.5)
}

func TestIntersection(t *testing.T) {
	k := NewWithCells(testCells)
	box1 := k.Box(100, 100, 100)
	box2 := k.Translate(k.Box(100, 100, 100), 50, 0, 0)
	mesh, err := k.ToMesh(k.Intersection(box1, box2))
	require.NoError(t, err)
	require.False(t, mesh.IsEmpty())

	lo, hi := mesh.Bounds()
	assert.InDelta(t, 50, lo[0], 3)
	assert.InDelta(t, 100, hi[0], 3)
}

func TestRotate(t *testing.T) {
	k := New()
	// A cylinder along Z turned 90 degrees about Y runs along X.
	rotated := k.Rotate(k.Cylinder(100, 5, 16), 0, 90, 0)
	min, max := rotated.BoundingBox()

	const tol = 1.0
	assert.InDelta(t, 100, max[0]-min[0], tol)
	assert.InDelta(t, 10, max[1]-min[1], tol)
	assert.InDelta(t, 10, max[2]-min[2], tol)
}

func TestRotateOrder(t *testing.T) {
	k := New()
	// Y then Z: the cylinder first lies on X, then swings onto Y.
	rotated := k.Rotate(k.Cylinder(100, 5, 16), 0, 90, 90)
	min, max := rotated.BoundingBox()

	const tol = 1.0
	assert.InDelta(t, 10, max[0]-min[0], tol)
	assert.InDelta(t, 100, max[1]-min[1], tol)
	assert.InDelta(t, 10, max[2]-min[2], tol)
}
