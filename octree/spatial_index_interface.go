package octree

type DebugInfo struct {
	Capacity     uint32   `json:"capacity"`
	MaxDepth     uint32   `json:"max_depth"`
	Center       Vector3f `json:"center"`
	Size         float32  `json:"size"`
	NodeCount    uint32   `json:"node_count"`
	LeafCount    uint32   `json:"leaf_count"`
	PointCount   uint32   `json:"point_count"`
	DroppedCount uint32   `json:"dropped_count"`
	Depth        uint32   `json:"depth"`
	Occupancy    []uint32 `json:"occupancy"`
}

type SpatialIndex interface {
	Insert(p *Point) bool
	Query(center Vector3f, radius float32) []*Point
	QueryWithStats(center Vector3f, radius float32) ([]*Point, QueryStats)
	Len() int

	// debug stuff:
	DebugInfo() DebugInfo
}

var _ SpatialIndex = (*Octree)(nil)
