package octree

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"
)

func TestEqualWithEpsilon(t *testing.T) {
	require.True(t, EqualWithEpsilon(0.1, 0.2, 0.11))
	require.False(t, EqualWithEpsilon(0.1, 0.3, 0.11))
}

func TestDot(t *testing.T) {
	xAxis := Vector3f{1, 0, 0}
	yAxis := Vector3f{0, 1, 0}

	require.Equal(t, (float32)(0), xAxis.Dot(yAxis))
	require.Equal(t, (float32)(1), xAxis.Dot(xAxis))
}

func TestVectorClass(t *testing.T) {
	zeroVector := Vector3f{0, 0, 0}
	oneVector := Vector3f{1, 1, 1}

	require.True(t, zeroVector.Equal(Vector3f{0, 0, 0}))
	require.True(t, oneVector.EqualWithEpsilon(Vector3f{0.9, 1.1, 1}, 0.11))
	require.True(t, oneVector.GreaterOrEqualThan(zeroVector))
	require.True(t, oneVector.GreaterOrEqualThan(oneVector))
	require.True(t, zeroVector.LesserOrEqualThan(oneVector))
	require.False(t, oneVector.LesserOrEqualThan(zeroVector))

	require.True(t, oneVector.Equal(Add(zeroVector, oneVector)))
	require.True(t, oneVector.Equal(Sub(oneVector, zeroVector)))
	require.True(t, zeroVector.Equal(Mul(oneVector, 0)))

	l1Vector := Vector3f{1, 0, 0}
	require.True(t, 1 == l1Vector.Length())
}

func TestDistanceSquared(t *testing.T) {
	require.Equal(t, float32(0), DistanceSquared(Vector3f{1, 2, 3}, Vector3f{1, 2, 3}))
	require.Equal(t, float32(9), DistanceSquared(Vector3f{0, 0, 0}, Vector3f{0, 0, 3}))
	require.Equal(t, float32(3), DistanceSquared(Vector3f{-1, -1, -1}, Vector3f{0, 0, 0}))
}

func TestClamp(t *testing.T) {
	min := Vector3f{-1, -1, -1}
	max := Vector3f{1, 1, 1}

	require.Equal(t, Vector3f{0, 0.5, -0.5}, Clamp(Vector3f{0, 0.5, -0.5}, min, max))
	require.Equal(t, Vector3f{1, -1, 1}, Clamp(Vector3f{5, -5, 1}, min, max))
}

func TestIsFinite(t *testing.T) {
	require.True(t, Vector3f{1, 2, 3}.IsFinite())
	require.False(t, Vector3f{float32(math.NaN()), 0, 0}.IsFinite())
	require.False(t, Vector3f{0, float32(math.Inf(1)), 0}.IsFinite())
}

func TestVec3Conversion(t *testing.T) {
	v := NewVector3fFromVec3(mgl32.Vec3{1, 2, 3})
	require.Equal(t, Vector3f{1, 2, 3}, v)
	require.Equal(t, mgl32.Vec3{1, 2, 3}, v.Vec3())
}
