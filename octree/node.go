package octree

// node is an axis-aligned cube. A leaf has nil children and holds points
// directly; an internal node owns exactly eight children and holds none.
type node struct {
	center Vector3f
	size   float32
	min    Vector3f
	max    Vector3f
	depth  int
	octant int

	points   []*Point
	children *[8]node
}

func newNode(center Vector3f, size float32) node {
	half := size / 2
	return node{
		center: center,
		size:   size,
		min:    Sub(center, Vector3f{half, half, half}),
		max:    Add(center, Vector3f{half, half, half}),
	}
}

func (n *node) isLeaf() bool {
	return n.children == nil
}

// containsPoint uses closed intervals on every face, so a point lying on a
// split plane is contained by all the octants sharing that plane.
func (n *node) containsPoint(p Vector3f) bool {
	return n.min.LesserOrEqualThan(p) && p.LesserOrEqualThan(n.max)
}

// intersectsSphere clamps the sphere center to the cube and compares the
// squared distance of that closest point against radius².
func (n *node) intersectsSphere(center Vector3f, radius float32) bool {
	closest := Clamp(center, n.min, n.max)
	return DistanceSquared(closest, center) <= radius*radius
}

// child builds the octant i of n: bit0 selects +x, bit1 +y and bit2 +z.
// Child bounds reuse the parent's min, center and max values so that the
// eight children tile the parent exactly.
func (n *node) child(i int) node {
	quarter := n.size / 4

	c := node{
		center: n.center,
		size:   n.size / 2,
		min:    n.min,
		max:    n.center,
		depth:  n.depth + 1,
		octant: i,
	}

	c.center.X -= quarter
	if i&1 != 0 {
		c.center.X = n.center.X + quarter
		c.min.X, c.max.X = n.center.X, n.max.X
	}

	c.center.Y -= quarter
	if i&2 != 0 {
		c.center.Y = n.center.Y + quarter
		c.min.Y, c.max.Y = n.center.Y, n.max.Y
	}

	c.center.Z -= quarter
	if i&4 != 0 {
		c.center.Z = n.center.Z + quarter
		c.min.Z, c.max.Z = n.center.Z, n.max.Z
	}

	return c
}
