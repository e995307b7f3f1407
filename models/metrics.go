package models

import (
	"time"

	"github.com/aukilabs/octree/octree"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	sceneIDLabel = "scene_id"
	sourceLabel  = "source"
)

var (
	scenePoints = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "octree_scene_points",
		Help: "The number of points stored in a scene.",
	}, []string{sceneIDLabel})

	sceneDroppedPoints = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "octree_scene_dropped_points_total",
		Help: "The number of points dropped because they were outside the scene cube.",
	}, []string{sceneIDLabel})

	sceneNodes = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "octree_scene_nodes",
		Help: "The number of octree nodes of a scene.",
	}, []string{sceneIDLabel})

	sceneQueries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "octree_queries_total",
		Help: "The number of sphere queries.",
	}, []string{sourceLabel})

	sceneQueryMatches = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "octree_query_matches",
		Help:    "The number of points matched by a sphere query.",
		Buckets: prometheus.ExponentialBuckets(1, 4, 8),
	}, []string{sourceLabel})

	sceneQueryVisitedNodes = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "octree_query_visited_nodes",
		Help:    "The number of octree nodes visited by a sphere query.",
		Buckets: prometheus.ExponentialBuckets(1, 4, 8),
	}, []string{sourceLabel})

	sceneQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "octree_query_latency",
		Help:    "The time to run a sphere query.",
		Buckets: prometheus.ExponentialBuckets(0.000001, 4, 10),
	}, []string{sourceLabel})
)

func instrumentSceneBuild(sceneID string, info octree.DebugInfo) {
	labels := prometheus.Labels{sceneIDLabel: sceneID}
	scenePoints.With(labels).Set(float64(info.PointCount))
	sceneNodes.With(labels).Set(float64(info.NodeCount))
	sceneDroppedPoints.With(labels).Add(float64(info.DroppedCount))
}

func instrumentQuery(source string, stats octree.QueryStats, start time.Time) {
	labels := prometheus.Labels{sourceLabel: source}
	sceneQueries.With(labels).Inc()
	sceneQueryMatches.With(labels).Observe(float64(stats.Matches))
	sceneQueryVisitedNodes.With(labels).Observe(float64(stats.VisitedNodes))
	sceneQueryLatency.With(labels).Observe(time.Since(start).Seconds())
}
