package octree

import (
	"strconv"
)

// Point is a stored position plus the membership flag rewritten by queries.
// Only the index mutates a point once it has been inserted.
type Point struct {
	id          uint32
	position    Vector3f
	insideQuery bool
}

func NewPoint(id uint32, position Vector3f) *Point {
	return &Point{
		id:       id,
		position: position,
	}
}

func (p *Point) ID() uint32 {
	return p.id
}

func (p *Point) Position() Vector3f {
	return p.position
}

func (p *Point) X() float32 {
	return p.position.X
}

func (p *Point) Y() float32 {
	return p.position.Y
}

func (p *Point) Z() float32 {
	return p.position.Z
}

// InsideQuery reports whether the last query that reached this point found it
// inside the sphere. Points in subtrees pruned by that query keep the value of
// an earlier query.
func (p *Point) InsideQuery() bool {
	return p.insideQuery
}

func (p *Point) String() string {
	return "#" + strconv.FormatUint(uint64(p.id), 10) + "[" +
		strconv.FormatFloat(float64(p.position.X), 'f', -1, 32) + "," +
		strconv.FormatFloat(float64(p.position.Y), 'f', -1, 32) + "," +
		strconv.FormatFloat(float64(p.position.Z), 'f', -1, 32) + "]"
}
