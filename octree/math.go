package octree

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

func EqualWithEpsilon(a float32, b float32, epsilon float64) bool {
	return math.Abs((float64)(a-b)) <= epsilon
}

func clamp(v float32, min float32, max float32) float32 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func isFinite(v float32) bool {
	return !math.IsNaN((float64)(v)) && !math.IsInf((float64)(v), 0)
}

type Vector3f struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
	Z float32 `json:"z"`
}

func NewVector3f(x, y, z float32) Vector3f {
	return Vector3f{x, y, z}
}

func NewVector3fFromVec3(v mgl32.Vec3) Vector3f {
	return Vector3f{v.X(), v.Y(), v.Z()}
}

func (v Vector3f) Vec3() mgl32.Vec3 {
	return mgl32.Vec3{v.X, v.Y, v.Z}
}

func (v1 Vector3f) Equal(v2 Vector3f) bool {
	return v1.X == v2.X && v1.Y == v2.Y && v1.Z == v2.Z
}

func (v1 Vector3f) EqualWithEpsilon(v2 Vector3f, epsilon float64) bool {
	return EqualWithEpsilon(v1.X, v2.X, epsilon) &&
		EqualWithEpsilon(v1.Y, v2.Y, epsilon) &&
		EqualWithEpsilon(v1.Z, v2.Z, epsilon)
}

func (v1 Vector3f) GreaterOrEqualThan(v2 Vector3f) bool {
	return v1.X >= v2.X && v1.Y >= v2.Y && v1.Z >= v2.Z
}

func (v1 Vector3f) LesserOrEqualThan(v2 Vector3f) bool {
	return v1.X <= v2.X && v1.Y <= v2.Y && v1.Z <= v2.Z
}

// IsFinite reports whether no component is NaN or infinite.
func (v Vector3f) IsFinite() bool {
	return isFinite(v.X) && isFinite(v.Y) && isFinite(v.Z)
}

func Add(a Vector3f, b Vector3f) Vector3f {
	return Vector3f{a.X + b.X, a.Y + b.Y, a.Z + b.Z}
}

func Sub(a Vector3f, b Vector3f) Vector3f {
	return Vector3f{a.X - b.X, a.Y - b.Y, a.Z - b.Z}
}

func Mul(a Vector3f, s float32) Vector3f {
	return Vector3f{a.X * s, a.Y * s, a.Z * s}
}

func (a Vector3f) Dot(b Vector3f) float32 {
	return a.X*b.X + a.Y*b.Y + a.Z*b.Z
}

func (a Vector3f) Length() float64 {
	return math.Sqrt((float64)(a.Dot(a)))
}

// DistanceSquared is the squared euclidean distance between a and b. Every
// membership decision of the index goes through it so that callers comparing
// against a linear scan get bit-identical answers.
func DistanceSquared(a Vector3f, b Vector3f) float32 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	dz := a.Z - b.Z
	return dx*dx + dy*dy + dz*dz
}

// Clamp returns the point of the [min, max] box closest to v.
func Clamp(v Vector3f, min Vector3f, max Vector3f) Vector3f {
	return Vector3f{
		clamp(v.X, min.X, max.X),
		clamp(v.Y, min.Y, max.Y),
		clamp(v.Z, min.Z, max.Z),
	}
}
