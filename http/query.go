package http

import (
	"io"
	"net/http"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	httpcmn "github.com/aukilabs/hagall-common/http"
	"github.com/aukilabs/octree/models"
	"github.com/aukilabs/octree/octree"
	"github.com/segmentio/encoding/json"
)

const maxQueryBodySize = 4096

// Scene is the scene served by the query handlers.
type Scene interface {
	Query(source string, center octree.Vector3f, radius float32) models.QueryResult
	Points() []models.PointView
	DebugInfo() octree.DebugInfo
}

// QueryRequest is the body of a sphere query. Both fields are required.
type QueryRequest struct {
	Center *octree.Vector3f `json:"center"`
	Radius *float32         `json:"radius"`
}

// HandleQuery runs the sphere query posted in the request body and responds
// with the matched points.
func HandleQuery(scene Scene) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		b, err := io.ReadAll(io.LimitReader(r.Body, maxQueryBodySize))
		if err != nil {
			httpcmn.InternalServerError(w, errors.New("reading body failed").Wrap(err))
			return
		}

		var req QueryRequest
		if err := json.Unmarshal(b, &req); err != nil {
			httpcmn.BadRequest(w, httpcmn.ErrBadRequest)
			return
		}
		if req.Center == nil || req.Radius == nil {
			httpcmn.BadRequest(w, httpcmn.ErrBadRequest)
			return
		}

		writeJSON(w, scene.Query(models.QuerySourceHTTP, *req.Center, *req.Radius))
	}
}

// HandlePoints responds with every stored point and its membership flag.
func HandlePoints(scene Scene) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, struct {
			Points []models.PointView `json:"points"`
		}{
			Points: scene.Points(),
		})
	}
}

func HandleDebugInfo(scene Scene) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, scene.DebugInfo())
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		httpcmn.InternalServerError(w, errors.New("encoding response failed").Wrap(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(b); err != nil {
		logs.Warn(errors.New("writing response failed").Wrap(err))
	}
}
