package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/octree/featureflag"
)

const shutdownTimeout = time.Second * 10

// ServiceOptions describes the routes of the public server.
type ServiceOptions struct {
	Scene        Scene
	Version      string
	FeatureFlags featureflag.FeatureFlag

	// The websocket query stream, mounted on /stream when not nil.
	Stream http.Handler

	// The running simulation, steered from /simulation when not nil.
	Simulation SimulationController
}

// NewServiceMux returns the public routes: sphere queries, scene inspection,
// simulation controls, health and the websocket stream.
func NewServiceMux(opts ServiceOptions) *http.ServeMux {
	var mux http.ServeMux

	mux.Handle("/health", HandleWithCORS(http.HandlerFunc(HandleHealthCheck)))
	mux.Handle("/version", HandleWithCORS(HandleVersion(opts.Version)))
	mux.Handle("/query", HandleWithCORS(HandleQuery(opts.Scene)))
	mux.Handle("/debug", HandleWithCORS(HandleDebugInfo(opts.Scene)))

	opts.FeatureFlags.IfNotSet(featureflag.FlagDisablePointsEndpoint, func() {
		mux.Handle("/points", HandleWithCORS(HandlePoints(opts.Scene)))
	})

	if opts.Simulation != nil {
		mux.Handle("/simulation", HandleWithCORS(HandleSimulationSphere(opts.Simulation)))
		mux.Handle("/simulation/move", HandleWithCORS(HandleSimulationMove(opts.Simulation)))
		mux.Handle("/simulation/grow", HandleWithCORS(HandleSimulationGrow(opts.Simulation)))
	}

	if opts.Stream != nil {
		mux.Handle("/stream", opts.Stream)
	}
	return &mux
}

// ListenAndServe starts the servers and blocks until they are all stopped.
// The servers are shut down when ctx is done.
func ListenAndServe(ctx context.Context, servers ...*http.Server) {
	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		for _, s := range servers {
			if err := s.Shutdown(shutdownCtx); err != nil {
				logs.Warn(errors.Newf("shutting down the server failed").
					WithTag("addr", s.Addr).
					Wrap(err))
			}
		}
	}()

	var wg sync.WaitGroup

	for _, s := range servers {
		wg.Add(1)

		go func(s *http.Server) {
			defer wg.Done()

			logs.WithTag("addr", s.Addr).Info("starting server")

			switch err := s.ListenAndServe(); err {
			case nil, http.ErrServerClosed, context.Canceled:
				logs.WithTag("addr", s.Addr).Info("stopping server")

			default:
				logs.Warn(errors.Newf("server stopped").
					WithTag("addr", s.Addr).
					Wrap(err))
			}
		}(s)
	}

	wg.Wait()
}

// MetricsPathFormatter returns empty string on HTTP 301, 400, 404 or 405
// statusCode, which keeps scanners from creating a metric per unknown path.
func MetricsPathFormatter(statusCode int, path string) string {
	switch statusCode {
	case http.StatusMovedPermanently,
		http.StatusBadRequest,
		http.StatusNotFound,
		http.StatusMethodNotAllowed:
		return ""

	default:
		return path
	}
}
