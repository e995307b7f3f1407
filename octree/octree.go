package octree

const (
	DefaultCapacity = 4
	DefaultMaxDepth = 16
)

// Options configures an Octree. Zero values select the defaults.
type Options struct {
	// The number of points a leaf holds before it subdivides.
	Capacity int

	// The depth at which leaves stop subdividing and hold any number of
	// points. It bounds the recursion when more than Capacity points share
	// the same position. Leaves at MaxDepth are the only exception to the
	// capacity bound.
	MaxDepth int
}

// Octree is a point octree over a fixed cube. It is not safe for concurrent
// use.
type Octree struct {
	capacity int
	maxDepth int

	root node

	pointCount   int
	droppedCount int
	nodeCount    int
	leafCount    int
}

// New creates an empty octree covering the cube of edge size centered on
// center.
func New(center Vector3f, size float32, opts Options) *Octree {
	if opts.Capacity <= 0 {
		opts.Capacity = DefaultCapacity
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}

	return &Octree{
		capacity:  opts.Capacity,
		maxDepth:  opts.MaxDepth,
		root:      newNode(center, size),
		nodeCount: 1,
		leafCount: 1,
	}
}

// Build creates an octree and inserts the positions in order. Point ids are
// the positions' indexes. Positions outside the cube are dropped.
func Build(center Vector3f, size float32, positions []Vector3f, opts Options) *Octree {
	t := New(center, size, opts)
	for i, pos := range positions {
		t.Insert(NewPoint(uint32(i), pos))
	}
	return t
}

func (t *Octree) Center() Vector3f {
	return t.root.center
}

func (t *Octree) Size() float32 {
	return t.root.size
}

func (t *Octree) Capacity() int {
	return t.capacity
}

// Len returns the number of stored points.
func (t *Octree) Len() int {
	return t.pointCount
}

// Dropped returns the number of inserts rejected because the point was
// outside the root cube.
func (t *Octree) Dropped() int {
	return t.droppedCount
}

// Insert stores p in the single leaf that accepts it and reports whether it
// was stored. A point outside the root cube is dropped.
func (t *Octree) Insert(p *Point) bool {
	if !t.insert(&t.root, p) {
		t.droppedCount++
		return false
	}
	t.pointCount++
	return true
}

func (t *Octree) insert(n *node, p *Point) bool {
	if !n.containsPoint(p.position) {
		return false
	}

	if n.isLeaf() && (len(n.points) < t.capacity || n.depth >= t.maxDepth) {
		n.points = append(n.points, p)
		return true
	}

	if n.isLeaf() {
		t.subdivide(n)
	}
	return t.insertIntoChildren(n, p)
}

// insertIntoChildren offers p to the children in octant order and stops at
// the first one that keeps it.
func (t *Octree) insertIntoChildren(n *node, p *Point) bool {
	for i := range n.children {
		if t.insert(&n.children[i], p) {
			return true
		}
	}
	return false
}

func (t *Octree) subdivide(n *node) {
	if !n.isLeaf() {
		panic("octree: subdividing an internal node")
	}

	n.children = new([8]node)
	for i := range n.children {
		n.children[i] = n.child(i)
	}
	t.nodeCount += 8
	t.leafCount += 7

	points := n.points
	n.points = nil
	for _, p := range points {
		if !t.insertIntoChildren(n, p) {
			panic("octree: subdivision lost point " + p.String())
		}
	}
}

// NodeInfo describes a node visited by Walk.
type NodeInfo struct {
	Center Vector3f
	Size   float32
	Min    Vector3f
	Max    Vector3f
	Depth  int
	Octant int
	Leaf   bool
	Points []*Point
}

// Walk visits the nodes depth first, children in octant order. Returning false
// from fn skips the children of the visited node.
func (t *Octree) Walk(fn func(NodeInfo) bool) {
	walk(&t.root, fn)
}

func walk(n *node, fn func(NodeInfo) bool) {
	info := NodeInfo{
		Center: n.center,
		Size:   n.size,
		Min:    n.min,
		Max:    n.max,
		Depth:  n.depth,
		Octant: n.octant,
		Leaf:   n.isLeaf(),
		Points: n.points,
	}
	if !fn(info) || n.isLeaf() {
		return
	}
	for i := range n.children {
		walk(&n.children[i], fn)
	}
}

func (t *Octree) DebugInfo() DebugInfo {
	info := DebugInfo{
		Capacity:     uint32(t.capacity),
		MaxDepth:     uint32(t.maxDepth),
		Center:       t.root.center,
		Size:         t.root.size,
		NodeCount:    uint32(t.nodeCount),
		LeafCount:    uint32(t.leafCount),
		PointCount:   uint32(t.pointCount),
		DroppedCount: uint32(t.droppedCount),
		Occupancy:    make([]uint32, 0, t.leafCount),
	}

	t.Walk(func(n NodeInfo) bool {
		if uint32(n.Depth) > info.Depth {
			info.Depth = uint32(n.Depth)
		}
		if n.Leaf {
			info.Occupancy = append(info.Occupancy, uint32(len(n.Points)))
		}
		return true
	})
	return info
}
