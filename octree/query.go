package octree

// QueryStats counts the work done by a sphere query.
type QueryStats struct {
	VisitedNodes int `json:"visited_nodes"`
	PrunedNodes  int `json:"pruned_nodes"`
	TestedPoints int `json:"tested_points"`
	Matches      int `json:"matches"`
}

// Query returns the stored points whose distance to center is at most radius
// and rewrites the membership flag of every point it reaches.
func (t *Octree) Query(center Vector3f, radius float32) []*Point {
	points, _ := t.QueryWithStats(center, radius)
	return points
}

// QueryWithStats is Query that also reports how many nodes were visited and
// pruned. A negative radius is a degenerate sphere that only matches points
// coincident with center.
func (t *Octree) QueryWithStats(center Vector3f, radius float32) ([]*Point, QueryStats) {
	if radius < 0 {
		radius = 0
	}

	var stats QueryStats
	var points []*Point
	querySphere(&t.root, center, radius, &points, &stats)
	stats.Matches = len(points)
	return points, stats
}

func querySphere(n *node, center Vector3f, radius float32, result *[]*Point, stats *QueryStats) {
	if n == nil || !n.intersectsSphere(center, radius) {
		stats.PrunedNodes++
		return
	}
	stats.VisitedNodes++

	r2 := radius * radius
	for _, p := range n.points {
		stats.TestedPoints++
		p.insideQuery = DistanceSquared(p.position, center) <= r2
		if p.insideQuery {
			*result = append(*result, p)
		}
	}

	if n.isLeaf() {
		return
	}
	for i := range n.children {
		querySphere(&n.children[i], center, radius, result, stats)
	}
}
