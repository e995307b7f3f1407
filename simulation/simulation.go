package simulation

import (
	"context"
	"sync"
	"time"

	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/octree/models"
	"github.com/aukilabs/octree/octree"
	"github.com/go-gl/mathgl/mgl32"
)

// Querier runs sphere queries against a scene.
type Querier interface {
	Query(source string, center octree.Vector3f, radius float32) models.QueryResult
}

// Sphere is the query volume moved by the simulation.
type Sphere struct {
	Center octree.Vector3f `json:"center"`
	Radius float32         `json:"radius"`
}

// Simulation is a headless frame loop that moves a sphere along a circular
// orbit around Origin and queries the scene once per frame.
type Simulation struct {
	Scene Querier

	// The duration of a frame.
	FrameDuration time.Duration

	// The duration between each summary log.
	LogSummaryInterval time.Duration

	// The center of the orbit, in the XZ plane.
	Origin octree.Vector3f

	// The distance between the sphere center and Origin.
	OrbitRadius float32

	// The rotation applied to the sphere every frame, in radians.
	AngularSpeed float32

	// The sphere radius.
	Radius float32

	mutex   sync.Mutex
	angle   float32
	sphere  Sphere
	summary summary
}

type summary struct {
	frames  int
	matches int
	visited int
}

// Step advances the orbit by one frame and queries the scene.
func (s *Simulation) Step() models.QueryResult {
	s.mutex.Lock()
	s.angle += s.AngularSpeed
	offset := mgl32.Rotate3DY(s.angle).Mul3x1(mgl32.Vec3{s.OrbitRadius, 0, 0})
	s.sphere = Sphere{
		Center: octree.NewVector3fFromVec3(s.Origin.Vec3().Add(offset)),
		Radius: s.Radius,
	}
	sphere := s.sphere
	s.mutex.Unlock()

	res := s.Scene.Query(models.QuerySourceSimulation, sphere.Center, sphere.Radius)

	s.mutex.Lock()
	s.summary.frames++
	s.summary.matches += res.Stats.Matches
	s.summary.visited += res.Stats.VisitedNodes
	s.mutex.Unlock()
	return res
}

// Move translates the orbit origin.
func (s *Simulation) Move(delta octree.Vector3f) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.Origin = octree.Add(s.Origin, delta)
}

// Grow changes the sphere radius. The radius never goes below zero.
func (s *Simulation) Grow(delta float32) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.Radius += delta
	if s.Radius < 0 {
		s.Radius = 0
	}
}

// Sphere returns the sphere queried by the last frame.
func (s *Simulation) Sphere() Sphere {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return s.sphere
}

// Run steps the simulation every FrameDuration until ctx is done.
func (s *Simulation) Run(ctx context.Context) {
	frameTicker := time.NewTicker(s.FrameDuration)
	defer frameTicker.Stop()

	summaryInterval := s.LogSummaryInterval
	if summaryInterval <= 0 {
		summaryInterval = time.Minute
	}
	summaryTicker := time.NewTicker(summaryInterval)
	defer summaryTicker.Stop()

	logs.WithTag("frame_duration", s.FrameDuration).
		WithTag("orbit_radius", s.OrbitRadius).
		WithTag("radius", s.Radius).
		Info("starting simulation")

	for {
		select {
		case <-ctx.Done():
			s.logSummary()
			logs.WithTag("reason", ctx.Err()).Info("stopping simulation")
			return

		case <-frameTicker.C:
			s.Step()

		case <-summaryTicker.C:
			s.logSummary()
		}
	}
}

func (s *Simulation) logSummary() {
	s.mutex.Lock()
	sum := s.summary
	sphere := s.sphere
	s.summary = summary{}
	s.mutex.Unlock()

	if sum.frames == 0 {
		return
	}

	logs.WithTag("frames", sum.frames).
		WithTag("avg_matches", float64(sum.matches)/float64(sum.frames)).
		WithTag("avg_visited_nodes", float64(sum.visited)/float64(sum.frames)).
		WithTag("sphere", sphere).
		Info("simulation summary")
}
