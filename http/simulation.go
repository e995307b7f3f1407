package http

import (
	"io"
	"math"
	"net/http"

	"github.com/aukilabs/go-tooling/pkg/errors"
	httpcmn "github.com/aukilabs/hagall-common/http"
	"github.com/aukilabs/octree/octree"
	"github.com/aukilabs/octree/simulation"
	"github.com/segmentio/encoding/json"
)

// SimulationController steers the query sphere of a running simulation.
type SimulationController interface {
	Move(delta octree.Vector3f)
	Grow(delta float32)
	Sphere() simulation.Sphere
}

// MoveRequest is the body of a sphere move. Delta translates the orbit origin.
type MoveRequest struct {
	Delta *octree.Vector3f `json:"delta"`
}

// GrowRequest is the body of a sphere resize. Delta is added to the radius.
type GrowRequest struct {
	Delta *float32 `json:"delta"`
}

// HandleSimulationSphere responds with the sphere queried by the last frame.
func HandleSimulationSphere(sim SimulationController) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, sim.Sphere())
	}
}

// HandleSimulationMove moves the sphere. The next frame queries around the
// new position.
func HandleSimulationMove(sim SimulationController) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req MoveRequest
		if !decodeControl(w, r, &req) {
			return
		}
		if req.Delta == nil || !req.Delta.IsFinite() {
			httpcmn.BadRequest(w, httpcmn.ErrBadRequest)
			return
		}

		sim.Move(*req.Delta)
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleSimulationGrow resizes the sphere. The radius never goes below zero.
func HandleSimulationGrow(sim SimulationController) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req GrowRequest
		if !decodeControl(w, r, &req) {
			return
		}
		if req.Delta == nil || math.IsNaN(float64(*req.Delta)) || math.IsInf(float64(*req.Delta), 0) {
			httpcmn.BadRequest(w, httpcmn.ErrBadRequest)
			return
		}

		sim.Grow(*req.Delta)
		w.WriteHeader(http.StatusNoContent)
	}
}

func decodeControl(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return false
	}

	b, err := io.ReadAll(io.LimitReader(r.Body, maxQueryBodySize))
	if err != nil {
		httpcmn.InternalServerError(w, errors.New("reading body failed").Wrap(err))
		return false
	}

	if err := json.Unmarshal(b, v); err != nil {
		httpcmn.BadRequest(w, httpcmn.ErrBadRequest)
		return false
	}
	return true
}
