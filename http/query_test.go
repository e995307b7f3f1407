package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aukilabs/octree/models"
	"github.com/aukilabs/octree/octree"
	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/require"
)

func newTestScene(t *testing.T) *models.Scene {
	scene, err := models.NewSceneFromPositions(models.SceneConfig{
		Center:   octree.NewVector3f(0, 0, 0),
		Size:     200,
		Capacity: 4,
	}, []octree.Vector3f{
		{X: 0, Y: 0, Z: 0},
		{X: 0, Y: 0, Z: 1},
		{X: 0, Y: 0, Z: 2},
		{X: 0, Y: 0, Z: 3},
		{X: 0, Y: 0, Z: 4},
	})
	require.NoError(t, err)
	return scene
}

func TestHandleQuery(t *testing.T) {
	h := HandleQuery(newTestScene(t))

	t.Run("matches the points inside the sphere", func(t *testing.T) {
		w := httptest.NewRecorder()
		h(w, httptest.NewRequest(http.MethodPost, "/query",
			strings.NewReader(`{"center":{"x":0,"y":0,"z":0},"radius":2}`)))
		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, "application/json", w.Header().Get("Content-Type"))

		var res models.QueryResult
		err := json.Unmarshal(w.Body.Bytes(), &res)
		require.NoError(t, err)
		require.Len(t, res.Points, 3)
		require.Equal(t, 3, res.Stats.Matches)
		for _, p := range res.Points {
			require.True(t, p.InsideQuery)
		}
	})

	t.Run("empty result", func(t *testing.T) {
		w := httptest.NewRecorder()
		h(w, httptest.NewRequest(http.MethodPost, "/query",
			strings.NewReader(`{"center":{"x":50,"y":50,"z":50},"radius":1}`)))
		require.Equal(t, http.StatusOK, w.Code)

		var res models.QueryResult
		err := json.Unmarshal(w.Body.Bytes(), &res)
		require.NoError(t, err)
		require.Empty(t, res.Points)
	})

	t.Run("negative radius", func(t *testing.T) {
		w := httptest.NewRecorder()
		h(w, httptest.NewRequest(http.MethodPost, "/query",
			strings.NewReader(`{"center":{"x":0,"y":0,"z":4},"radius":-3}`)))
		require.Equal(t, http.StatusOK, w.Code)

		var res models.QueryResult
		err := json.Unmarshal(w.Body.Bytes(), &res)
		require.NoError(t, err)
		require.Len(t, res.Points, 1)
		require.Equal(t, uint32(5), res.Points[0].ID)
	})

	t.Run("malformed body", func(t *testing.T) {
		w := httptest.NewRecorder()
		h(w, httptest.NewRequest(http.MethodPost, "/query", strings.NewReader(`{"center":`)))
		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing radius", func(t *testing.T) {
		w := httptest.NewRecorder()
		h(w, httptest.NewRequest(http.MethodPost, "/query",
			strings.NewReader(`{"center":{"x":0,"y":0,"z":0}}`)))
		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("wrong method", func(t *testing.T) {
		w := httptest.NewRecorder()
		h(w, httptest.NewRequest(http.MethodGet, "/query", nil))
		require.Equal(t, http.StatusMethodNotAllowed, w.Code)
	})
}

func TestHandlePoints(t *testing.T) {
	scene := newTestScene(t)
	scene.Query(models.QuerySourceHTTP, octree.NewVector3f(0, 0, 4), 0.5)

	w := httptest.NewRecorder()
	HandlePoints(scene)(w, httptest.NewRequest(http.MethodGet, "/points", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var res struct {
		Points []models.PointView `json:"points"`
	}
	err := json.Unmarshal(w.Body.Bytes(), &res)
	require.NoError(t, err)
	require.Len(t, res.Points, 5)

	inside := 0
	for _, p := range res.Points {
		if p.InsideQuery {
			inside++
			require.Equal(t, float32(4), p.Position.Z)
		}
	}
	require.Equal(t, 1, inside)
}

func TestHandleDebugInfo(t *testing.T) {
	w := httptest.NewRecorder()
	HandleDebugInfo(newTestScene(t))(w, httptest.NewRequest(http.MethodGet, "/debug", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var info octree.DebugInfo
	err := json.Unmarshal(w.Body.Bytes(), &info)
	require.NoError(t, err)
	require.Equal(t, uint32(5), info.PointCount)
	require.Equal(t, uint32(9), info.NodeCount)
	require.Equal(t, uint32(4), info.Capacity)
}
