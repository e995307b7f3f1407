package main

import (
	"testing"
	"time"

	"github.com/aukilabs/octree/octree"
	"github.com/stretchr/testify/require"
)

func TestValidateConfig(t *testing.T) {
	t.Run("default config is valid", func(t *testing.T) {
		require.NoError(t, validateConfig(defaultConfig()))
	})

	t.Run("invalid public endpoint", func(t *testing.T) {
		conf := defaultConfig()
		conf.PublicEndpoint = "not an url"
		require.Error(t, validateConfig(conf))
	})

	t.Run("non positive size", func(t *testing.T) {
		conf := defaultConfig()
		conf.Index.Size = 0
		require.Error(t, validateConfig(conf))
	})

	t.Run("non positive capacity", func(t *testing.T) {
		conf := defaultConfig()
		conf.Index.Capacity = 0
		require.Error(t, validateConfig(conf))
	})

	t.Run("non positive max depth", func(t *testing.T) {
		conf := defaultConfig()
		conf.Index.MaxDepth = -1
		require.Error(t, validateConfig(conf))
	})

	t.Run("non positive point count", func(t *testing.T) {
		conf := defaultConfig()
		conf.Points.Count = 0
		require.Error(t, validateConfig(conf))
	})

	t.Run("negative sphere radius", func(t *testing.T) {
		conf := defaultConfig()
		conf.Sphere.Radius = -1
		require.Error(t, validateConfig(conf))
	})

	t.Run("non positive frame duration", func(t *testing.T) {
		conf := defaultConfig()
		conf.FrameDuration = 0
		require.Error(t, validateConfig(conf))
	})

	t.Run("non positive log summary interval", func(t *testing.T) {
		conf := defaultConfig()
		conf.LogSummaryInterval = -time.Second
		require.Error(t, validateConfig(conf))
	})
}

func TestSceneConfig(t *testing.T) {
	conf := defaultConfig()
	conf.Index.CenterX = 1
	conf.Index.CenterY = 2
	conf.Index.CenterZ = 3

	sc := sceneConfig(conf)
	require.Equal(t, octree.NewVector3f(1, 2, 3), sc.Center)
	require.Equal(t, float32(200), sc.Size)
	require.Equal(t, octree.DefaultCapacity, sc.Capacity)
	require.Equal(t, octree.DefaultMaxDepth, sc.MaxDepth)
	require.Equal(t, 1000, sc.PointCount)
	require.Equal(t, int64(1), sc.Seed)
	require.True(t, sc.Integral)
	require.NoError(t, sc.Validate())
}
