package models

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/octree/octree"
	"github.com/google/uuid"
)

const (
	ErrTypeInvalidSceneConfig = "invalid_scene_config"

	QuerySourceHTTP       = "http"
	QuerySourceWebsocket  = "websocket"
	QuerySourceSimulation = "simulation"
)

// SceneConfig describes the cube covered by a scene and the point set it is
// built from.
type SceneConfig struct {
	Center   octree.Vector3f
	Size     float32
	Capacity int
	MaxDepth int

	// The number of generated points.
	PointCount int

	// The seed of the point generator.
	Seed int64

	// Generates points on whole-unit coordinates.
	Integral bool
}

func (c SceneConfig) Validate() error {
	if !c.Center.IsFinite() {
		return errors.New("scene center is not finite").
			WithType(ErrTypeInvalidSceneConfig).
			WithTag("center", c.Center)
	}

	if c.Size <= 0 || math.IsInf(float64(c.Size), 0) || math.IsNaN(float64(c.Size)) {
		return errors.New("scene size must be a positive number").
			WithType(ErrTypeInvalidSceneConfig).
			WithTag("size", c.Size)
	}

	if c.Capacity < 0 {
		return errors.New("scene capacity cannot be negative").
			WithType(ErrTypeInvalidSceneConfig).
			WithTag("capacity", c.Capacity)
	}

	if c.MaxDepth < 0 {
		return errors.New("scene max depth cannot be negative").
			WithType(ErrTypeInvalidSceneConfig).
			WithTag("max_depth", c.MaxDepth)
	}

	if c.PointCount < 0 {
		return errors.New("scene point count cannot be negative").
			WithType(ErrTypeInvalidSceneConfig).
			WithTag("point_count", c.PointCount)
	}

	return nil
}

// PointView is a copy of a stored point taken while the scene was locked.
type PointView struct {
	ID          uint32          `json:"id"`
	Position    octree.Vector3f `json:"position"`
	InsideQuery bool            `json:"inside_query"`
}

func newPointView(p *octree.Point) PointView {
	return PointView{
		ID:          p.ID(),
		Position:    p.Position(),
		InsideQuery: p.InsideQuery(),
	}
}

type QueryResult struct {
	Points []PointView       `json:"points"`
	Stats  octree.QueryStats `json:"stats"`
}

// Scene owns an octree built once at startup and serializes the queries
// issued by its collaborators.
type Scene struct {
	ID string

	mutex  sync.Mutex
	index  octree.SpatialIndex
	points []*octree.Point
	ids    SequentialIDGenerator
}

// NewScene generates cfg.PointCount points from cfg.Seed and builds a scene
// with them.
func NewScene(cfg SceneConfig) (*Scene, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	positions := GeneratePoints(rng, cfg.PointCount, cfg.Center, cfg.Size, cfg.Integral)
	return NewSceneFromPositions(cfg, positions)
}

// NewSceneFromPositions builds a scene with the given positions, inserted in
// order. Positions outside the scene cube are dropped.
func NewSceneFromPositions(cfg SceneConfig, positions []octree.Vector3f) (*Scene, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Scene{
		ID: uuid.NewString(),
		index: octree.New(cfg.Center, cfg.Size, octree.Options{
			Capacity: cfg.Capacity,
			MaxDepth: cfg.MaxDepth,
		}),
		points: make([]*octree.Point, 0, len(positions)),
	}

	for _, pos := range positions {
		p := octree.NewPoint(s.ids.New(), pos)
		if s.index.Insert(p) {
			s.points = append(s.points, p)
		}
	}

	info := s.index.DebugInfo()
	instrumentSceneBuild(s.ID, info)

	logs.WithTag("scene_id", s.ID).
		WithTag("points", info.PointCount).
		WithTag("dropped", info.DroppedCount).
		WithTag("nodes", info.NodeCount).
		WithTag("depth", info.Depth).
		Info("scene built")
	return s, nil
}

// Query runs a sphere query and returns a copy of the matched points. source
// labels the caller in metrics.
func (s *Scene) Query(source string, center octree.Vector3f, radius float32) QueryResult {
	start := time.Now()

	s.mutex.Lock()
	points, stats := s.index.QueryWithStats(center, radius)
	res := QueryResult{
		Points: make([]PointView, len(points)),
		Stats:  stats,
	}
	for i, p := range points {
		res.Points[i] = newPointView(p)
	}
	s.mutex.Unlock()

	instrumentQuery(source, stats, start)
	return res
}

// Points returns a copy of every stored point, in insertion order, with the
// flags left by the last queries.
func (s *Scene) Points() []PointView {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	res := make([]PointView, len(s.points))
	for i, p := range s.points {
		res[i] = newPointView(p)
	}
	return res
}

func (s *Scene) Len() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return s.index.Len()
}

func (s *Scene) DebugInfo() octree.DebugInfo {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return s.index.DebugInfo()
}
