package octree

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func randomSphere(rng *rand.Rand) (Vector3f, float32) {
	center := Vector3f{
		rng.Float32()*260 - 130,
		rng.Float32()*260 - 130,
		rng.Float32()*260 - 130,
	}
	if rng.Intn(4) == 0 {
		// integer centers put the sphere on split planes.
		center = Vector3f{
			float32(rng.Intn(200) - 100),
			float32(rng.Intn(200) - 100),
			float32(rng.Intn(200) - 100),
		}
	}
	return center, rng.Float32() * 80
}

// reachable returns the ids of the points whose leaf and every ancestor
// intersect the sphere, together with the number of such nodes.
func reachable(tree *Octree, center Vector3f, radius float32) (map[uint32]*Point, int) {
	points := make(map[uint32]*Point)
	var nodes int

	tree.Walk(func(n NodeInfo) bool {
		closest := Clamp(center, n.Min, n.Max)
		if DistanceSquared(closest, center) > radius*radius {
			return false
		}
		nodes++
		for _, p := range n.Points {
			points[p.ID()] = p
		}
		return true
	})
	return points, nodes
}

func TestQueryMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	positions := randomPositions(rng, 2000)
	tree := Build(Vector3f{0, 0, 0}, 200, positions, Options{})

	for i := 0; i < 300; i++ {
		center, radius := randomSphere(rng)

		points := tree.Query(center, radius)
		require.Equal(t, bruteForce(positions, center, radius), ids(points),
			"sphere %v r=%v", center, radius)
	}
}

func TestQueryFlags(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	positions := randomPositions(rng, 1000)
	tree := Build(Vector3f{0, 0, 0}, 200, positions, Options{})

	for i := 0; i < 100; i++ {
		center, radius := randomSphere(rng)
		tree.Query(center, radius)

		points, _ := reachable(tree, center, radius)
		for id, p := range points {
			expected := DistanceSquared(positions[id], center) <= radius*radius
			require.Equal(t, expected, p.InsideQuery(), "point %d", id)
		}
	}
}

func TestQueryPrunedFlagsAreKept(t *testing.T) {
	tree := Build(Vector3f{0, 0, 0}, 200, []Vector3f{
		{-50, -50, -50},
		{50, 50, 50},
	}, Options{Capacity: 1})

	points := tree.Query(Vector3f{-50, -50, -50}, 1)
	require.Len(t, points, 1)
	first := points[0]
	require.True(t, first.InsideQuery())

	points = tree.Query(Vector3f{50, 50, 50}, 1)
	require.Len(t, points, 1)
	require.Equal(t, uint32(1), points[0].ID())

	// the octant holding the first point is pruned by the second query.
	require.True(t, first.InsideQuery())

	tree.Query(Vector3f{0, 0, 0}, 200)
	tree.Query(Vector3f{0, 0, 0}, 1)
	require.False(t, first.InsideQuery())
}

func TestQueryPruning(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	positions := randomPositions(rng, 2000)
	tree := Build(Vector3f{0, 0, 0}, 200, positions, Options{})
	info := tree.DebugInfo()

	for i := 0; i < 200; i++ {
		center, radius := randomSphere(rng)

		points, stats := tree.QueryWithStats(center, radius)
		reached, nodes := reachable(tree, center, radius)

		require.Equal(t, nodes, stats.VisitedNodes)
		require.Equal(t, len(points), stats.Matches)
		require.LessOrEqual(t, stats.VisitedNodes, int(info.NodeCount))

		require.Equal(t, len(reached), stats.TestedPoints)
	}

	t.Run("sphere away from the root", func(t *testing.T) {
		points, stats := tree.QueryWithStats(Vector3f{500, 500, 500}, 10)
		require.Empty(t, points)
		require.Zero(t, stats.VisitedNodes)
		require.Equal(t, 1, stats.PrunedNodes)
	})
}

func TestQueryIdempotence(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	positions := randomPositions(rng, 1000)
	tree := Build(Vector3f{0, 0, 0}, 200, positions, Options{})

	snapshot := func() map[uint32]bool {
		flags := make(map[uint32]bool)
		tree.Walk(func(n NodeInfo) bool {
			for _, p := range n.Points {
				flags[p.ID()] = p.InsideQuery()
			}
			return true
		})
		return flags
	}

	for i := 0; i < 20; i++ {
		center, radius := randomSphere(rng)

		first, firstStats := tree.QueryWithStats(center, radius)
		firstFlags := snapshot()

		second, secondStats := tree.QueryWithStats(center, radius)
		require.Equal(t, ids(first), ids(second))
		require.Equal(t, firstStats, secondStats)
		require.Equal(t, firstFlags, snapshot())
	}
}

func TestQueryDegenerateRadius(t *testing.T) {
	tree := Build(Vector3f{0, 0, 0}, 200, axisPoints(), Options{})

	t.Run("zero radius matches coincident points", func(t *testing.T) {
		points := tree.Query(Vector3f{0, 0, 2}, 0)
		require.Equal(t, []uint32{2}, ids(points))

		require.Empty(t, tree.Query(Vector3f{0, 0, 2.5}, 0))
	})

	t.Run("negative radius is a zero radius", func(t *testing.T) {
		points := tree.Query(Vector3f{0, 0, 3}, -5)
		require.Equal(t, []uint32{3}, ids(points))

		require.Empty(t, tree.Query(Vector3f{0, 0, 3.5}, -5))
	})

	t.Run("nan input matches nothing", func(t *testing.T) {
		nan := float32(math.NaN())
		require.Empty(t, tree.Query(Vector3f{0, 0, 0}, nan))
		require.Empty(t, tree.Query(Vector3f{nan, 0, 0}, 10))
	})

	t.Run("infinite radius matches everything", func(t *testing.T) {
		points := tree.Query(Vector3f{0, 0, 0}, float32(math.Inf(1)))
		require.Len(t, points, 5)
	})
}

func TestQueryEmptyTree(t *testing.T) {
	tree := New(Vector3f{0, 0, 0}, 200, Options{})

	points, stats := tree.QueryWithStats(Vector3f{0, 0, 0}, 50)
	require.Empty(t, points)
	require.Equal(t, 1, stats.VisitedNodes)
	require.Zero(t, stats.TestedPoints)
}
