package models

import (
	"math/rand"

	"github.com/aukilabs/octree/octree"
)

// GeneratePoints returns n pseudo-random positions inside the cube of edge
// size centered on center. Integral positions sit on whole-unit offsets from
// the cube's min corner, which lands many of them on octant split planes.
func GeneratePoints(rng *rand.Rand, n int, center octree.Vector3f, size float32, integral bool) []octree.Vector3f {
	half := size / 2
	min := octree.Sub(center, octree.Vector3f{X: half, Y: half, Z: half})

	span := int(size)
	if span <= 0 {
		integral = false
	}

	coord := func() float32 {
		if integral {
			return float32(rng.Intn(span))
		}
		return rng.Float32() * size
	}

	positions := make([]octree.Vector3f, n)
	for i := range positions {
		positions[i] = octree.Add(min, octree.Vector3f{X: coord(), Y: coord(), Z: coord()})
	}
	return positions
}
