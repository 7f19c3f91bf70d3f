package cell

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/chazu/trellis/pkg/geom"
	"github.com/chazu/trellis/pkg/logging"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func v(x, y, z float64) geom.Vec { return geom.Vec{X: x, Y: y, Z: z} }

func TestExtractCrossingSegments(t *testing.T) {
	segs := []geom.Segment{
		geom.Seg(v(0, 0, 0), v(1, 1, 0)),
		geom.Seg(v(1, 0, 0), v(0, 1, 0)),
	}
	c, err := Extract(segs, DefaultTolerance, nil)
	require.NoError(t, err)

	assert.Len(t, c.Nodes, 5)
	assert.Len(t, c.Edges, 4)

	center := -1
	for i, n := range c.Nodes {
		if geom.EpsilonEquals(n, v(0.5, 0.5, 0), DefaultTolerance) {
			center = i
		}
	}
	require.NotEqual(t, -1, center, "crossing point should become a node")
	for _, e := range c.Edges {
		assert.True(t, e.A == center || e.B == center, "edge %v should touch the crossing", e)
	}
}

func TestExtractDeduplicates(t *testing.T) {
	a, b := v(0, 0, 0), v(1, 0, 0)
	segs := []geom.Segment{
		geom.Seg(a, b),
		geom.Seg(b, a),
		geom.Seg(a, b.Add(v(0, 1e-9, 0))),
	}
	c, err := Extract(segs, DefaultTolerance, nil)
	require.NoError(t, err)
	assert.Len(t, c.Nodes, 2)
	assert.Equal(t, []Edge{{A: 0, B: 1}}, c.Edges)
}

func TestExtractSplitsOnlyInteriorHits(t *testing.T) {
	// The second segment starts on the interior of the first: only the first
	// one is split.
	segs := []geom.Segment{
		geom.Seg(v(0, 0, 0), v(2, 0, 0)),
		geom.Seg(v(1, 0, 0), v(1, 1, 0)),
	}
	c, err := Extract(segs, DefaultTolerance, nil)
	require.NoError(t, err)
	assert.Len(t, c.Nodes, 4)
	assert.Len(t, c.Edges, 3)
}

func TestExtractSharedEndpointsNotSplit(t *testing.T) {
	c, err := Extract(cubeEdges(), DefaultTolerance, nil)
	require.NoError(t, err)
	assert.Len(t, c.Nodes, 8)
	assert.Len(t, c.Edges, 12)
	for i, n := range c.Nodes {
		assert.True(t, geom.EpsilonEquals(n, CubeCorners()[i], 0), "node %d", i)
	}
}

func TestExtractSinglePassLeavesSecondCrossing(t *testing.T) {
	// Three segments through one point: the first pair splits both, the
	// third is split against the first pair's already split member.
	segs, err := Preset("cross")
	require.NoError(t, err)
	resolved := ResolveIntersections(segs, DefaultTolerance, nil)
	assert.Len(t, resolved, 6)

	// A segment crossed at two interior points is split only once.
	long := geom.Seg(v(0, 0, 0), v(3, 0, 0))
	segs = []geom.Segment{
		long,
		geom.Seg(v(1, -1, 0), v(1, 1, 0)),
		geom.Seg(v(2, -1, 0), v(2, 1, 0)),
	}
	resolved = ResolveIntersections(segs, DefaultTolerance, nil)
	// Every segment is split once; the long one only at its first crossing.
	require.Len(t, resolved, 6)
	assert.Equal(t, long.From, resolved[0].From)
	assert.InDelta(t, 1, resolved[0].To.X, 1e-9)
	assert.InDelta(t, 3, resolved[1].To.X, 1e-9)

	c, err := Extract(segs, DefaultTolerance, nil)
	require.NoError(t, err)
	var at2 int
	for i, n := range c.Nodes {
		if geom.EpsilonEquals(n, v(2, 0, 0), DefaultTolerance) {
			at2 = i
		}
	}
	require.NotZero(t, at2)
	var touching int
	for _, e := range c.Edges {
		if e.A == at2 || e.B == at2 {
			touching++
		}
	}
	assert.Equal(t, 2, touching, "missed crossing is not joined to the long segment")
}

func TestExtractDegenerateSegment(t *testing.T) {
	segs := []geom.Segment{
		geom.Seg(v(0, 0, 0), v(1, 0, 0)),
		geom.Seg(v(1, 1, 1), v(1, 1, 1)),
	}
	_, err := Extract(segs, DefaultTolerance, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDegenerate))

	var de *DegenerateError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, 1, de.Segment)
}

func TestExtractEmpty(t *testing.T) {
	c, err := Extract(nil, DefaultTolerance, nil)
	require.NoError(t, err)
	assert.Empty(t, c.Nodes)
	assert.Empty(t, c.Edges)
}

func TestNewEdgeCanonical(t *testing.T) {
	assert.Equal(t, Edge{A: 2, B: 5}, NewEdge(5, 2))
	assert.Equal(t, NewEdge(1, 3), NewEdge(3, 1))
}

func TestCheckInvariantsPanics(t *testing.T) {
	c := &UnitCell{Nodes: CubeCorners(), Edges: []Edge{{A: 0, B: 8}}}
	assert.Panics(t, c.checkInvariants)

	c = &UnitCell{Nodes: CubeCorners(), Edges: []Edge{{A: 1, B: 1}}}
	assert.Panics(t, c.checkInvariants)

	c = &UnitCell{Nodes: CubeCorners(), Edges: []Edge{{A: 0, B: 1}, {A: 0, B: 1}}}
	assert.Panics(t, c.checkInvariants)
}

func TestExtractOrderIndependence(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("cube topology survives shuffling and reversal", prop.ForAll(
		func(seed int64, flips []bool) bool {
			segs := cubeEdges()
			rng := rand.New(rand.NewSource(seed))
			rng.Shuffle(len(segs), func(i, j int) { segs[i], segs[j] = segs[j], segs[i] })
			for i, f := range flips {
				if f {
					segs[i] = geom.Seg(segs[i].To, segs[i].From)
				}
			}
			c, err := Extract(segs, DefaultTolerance, nil)
			if err != nil {
				return false
			}
			return len(c.Nodes) == 8 && len(c.Edges) == 12
		},
		gen.Int64(),
		gen.SliceOfN(12, gen.Bool()),
	))

	properties.Property("edges are unique and canonical", prop.ForAll(
		func(dup int, seed int64) bool {
			segs := cubeEdges()
			for i := 0; i < dup; i++ {
				s := segs[i%len(segs)]
				segs = append(segs, geom.Seg(s.To, s.From))
			}
			rng := rand.New(rand.NewSource(seed))
			rng.Shuffle(len(segs), func(i, j int) { segs[i], segs[j] = segs[j], segs[i] })
			c, err := Extract(segs, DefaultTolerance, nil)
			if err != nil {
				return false
			}
			seen := make(map[Edge]bool)
			for _, e := range c.Edges {
				if e.A >= e.B || seen[e] {
					return false
				}
				seen[e] = true
			}
			return len(c.Edges) == 12
		},
		gen.IntRange(0, 30),
		gen.Int64(),
	))

	properties.Property("separated endpoints give order-independent nodes", prop.ForAll(
		func(seed int64, lines int) bool {
			rng := rand.New(rand.NewSource(seed))
			segs, want := separatedSegments(rng, lines)
			c, err := Extract(segs, DefaultTolerance, nil)
			if err != nil || len(c.Nodes) != want || !separated(c.Nodes, DefaultTolerance) {
				return false
			}

			rng.Shuffle(len(segs), func(i, j int) { segs[i], segs[j] = segs[j], segs[i] })
			for i := range segs {
				if rng.Intn(2) == 0 {
					segs[i] = geom.Seg(segs[i].To, segs[i].From)
				}
			}
			d, err := Extract(segs, DefaultTolerance, nil)
			return err == nil && len(d.Nodes) == len(c.Nodes) && len(d.Edges) == len(c.Edges)
		},
		gen.Int64(),
		gen.IntRange(1, 12),
	))

	properties.TestingRun(t)
}

// separatedSegments returns segments along X on distinct grid lines, one or
// two per line, so none cross. Endpoints sit on an integer grid. The second
// result is the number of distinct endpoints.
func separatedSegments(rng *rand.Rand, lines int) ([]geom.Segment, int) {
	var segs []geom.Segment
	ends := make(map[geom.Vec]bool)
	for _, k := range rng.Perm(25)[:lines] {
		y, z := float64(k%5), float64(k/5)
		a := rng.Intn(2)
		b := a + 1 + rng.Intn(2)
		xs := []int{a, b}
		if rng.Intn(2) == 0 {
			xs = append(xs, b+1+rng.Intn(2))
		}
		for i := 0; i+1 < len(xs); i++ {
			from, to := v(float64(xs[i]), y, z), v(float64(xs[i+1]), y, z)
			segs = append(segs, geom.Seg(from, to))
			ends[from], ends[to] = true, true
		}
	}
	return segs, len(ends)
}

func separated(nodes []geom.Vec, tol float64) bool {
	for i := range nodes {
		for j := i + 1; j < len(nodes); j++ {
			if geom.Dist(nodes[i], nodes[j]) <= tol {
				return false
			}
		}
	}
	return true
}

func TestResolveIntersectionsWarnsOnMissedSplit(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	segs := []geom.Segment{
		geom.Seg(v(0, 0, 0), v(3, 0, 0)),
		geom.Seg(v(1, -1, 0), v(1, 1, 0)),
		geom.Seg(v(2, -1, 0), v(2, 1, 0)),
	}
	ResolveIntersections(segs, DefaultTolerance, logging.NewFromCore(core))

	missed := logs.FilterMessageSnippet("left unresolved").All()
	require.Len(t, missed, 1)
	assert.Equal(t, zapcore.WarnLevel, missed[0].Level)
}
