package spatial

import (
	"math/rand"
	"testing"

	"github.com/chazu/trellis/pkg/geom"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func v(x, y, z float64) geom.Vec { return geom.Vec{X: x, Y: y, Z: z} }

func grid(n int) []geom.Vec {
	var pts []geom.Vec
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			for k := 0; k < n; k++ {
				pts = append(pts, v(float64(i), float64(j), float64(k)))
			}
		}
	}
	return pts
}

func TestNearestEmpty(t *testing.T) {
	id, _, ok := New().Nearest(v(0, 0, 0))
	assert.False(t, ok)
	assert.Equal(t, -1, id)
}

func TestNearestGrid(t *testing.T) {
	pts := grid(5)
	idx := FromPoints(pts)
	require.Equal(t, len(pts), idx.Len())

	id, d, ok := idx.Nearest(v(3.1, 1.9, 0.2))
	require.True(t, ok)
	assert.Equal(t, v(3, 2, 0), pts[id])
	assert.InDelta(t, geom.Dist(v(3.1, 1.9, 0.2), v(3, 2, 0)), d, 1e-12)

	id, d, ok = idx.Nearest(v(4, 4, 4))
	require.True(t, ok)
	assert.Equal(t, v(4, 4, 4), pts[id])
	assert.Zero(t, d)

	// Far outside the cloud.
	id, _, _ = idx.Nearest(v(100, -50, 2))
	assert.Equal(t, v(4, 0, 2), pts[id])
}

func TestNearestMatchesBruteForce(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("nearest distance equals brute force", prop.ForAll(
		func(seed int64, n int) bool {
			rng := rand.New(rand.NewSource(seed))
			pts := make([]geom.Vec, n)
			for i := range pts {
				pts[i] = v(rng.Float64()*10, rng.Float64()*10, rng.Float64()*10)
			}
			idx := FromPoints(pts)
			for q := 0; q < 10; q++ {
				p := v(rng.Float64()*12-1, rng.Float64()*12-1, rng.Float64()*12-1)
				best := geom.Dist(p, pts[0])
				for _, c := range pts[1:] {
					if d := geom.Dist(p, c); d < best {
						best = d
					}
				}
				_, d, ok := idx.Nearest(p)
				if !ok || d != best {
					return false
				}
			}
			return true
		},
		gen.Int64(),
		gen.IntRange(1, 200),
	))

	properties.TestingRun(t)
}

func TestWithin(t *testing.T) {
	pts := grid(3)
	idx := FromPoints(pts)

	assert.Len(t, idx.Within(v(1, 1, 1), 0.5), 1)
	// Centre plus its six axis neighbours.
	assert.Len(t, idx.Within(v(1, 1, 1), 1), 7)
	assert.Equal(t, 27, idx.CountWithin(v(1, 1, 1), 2))
	assert.Empty(t, idx.Within(v(1, 1, 1), -1))
}

func TestValences(t *testing.T) {
	pts := []geom.Vec{v(0, 0, 0), v(0, 0, 0.005), v(1, 1, 1)}
	assert.Equal(t, []int{2, 2, 1}, Valences(pts, DefaultValenceRadius))
}

func TestClosestIndices(t *testing.T) {
	targets := []geom.Vec{v(0, 0, 0), v(10, 0, 0), v(0, 10, 0)}
	queries := []geom.Vec{v(9, 1, 0), v(1, 1, 1), v(-2, 8, 0)}
	assert.Equal(t, []int{1, 0, 2}, ClosestIndices(queries, targets))
	assert.Nil(t, ClosestIndices(queries, nil))
}
