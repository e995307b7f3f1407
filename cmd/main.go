package main

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/http/pprof"
	"net/url"
	"os"
	"reflect"
	"sync"
	"syscall"
	"time"

	"github.com/aukilabs/go-tooling/pkg/cli"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/go-tooling/pkg/metrics"
	"github.com/aukilabs/octree/featureflag"
	octreehttp "github.com/aukilabs/octree/http"
	"github.com/aukilabs/octree/models"
	"github.com/aukilabs/octree/octree"
	"github.com/aukilabs/octree/simulation"
	"github.com/aukilabs/octree/smoketest"
	owebsocket "github.com/aukilabs/octree/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/encoding/json"
	"golang.org/x/net/websocket"
)

var (
	// The server version number. Set at build.
	version = "v0.1.0"

	infoGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name:        "octree_info",
		Help:        "Octree server information.",
		ConstLabels: prometheus.Labels{"version": version},
	})
)

// This will effectively disable obfuscation of the config struct. Without it, the keys would get obfuscated causing the cli package to generate garbled command-line options.
// https://github.com/burrowers/garble/issues/403
var _ = reflect.TypeOf(config{})

type config struct {
	Addr               string        `cli:""        env:"OCTREE_ADDR"                 help:"Listening address for client connections."`
	AdminAddr          string        `cli:""        env:"OCTREE_ADMIN_ADDR"           help:"Admin listening address."`
	PublicEndpoint     string        `cli:""        env:"OCTREE_PUBLIC_ENDPOINT"      help:"The public endpoint where this server is reachable."`
	LogLevel           string        `cli:""        env:"OCTREE_LOG_LEVEL"            help:"Log level (debug|info|warning|error)."`
	LogIndent          bool          `cli:""        env:"OCTREE_LOG_INDENT"           help:"Indent logs."`
	ClientIdleTimeout  time.Duration `cli:",hidden" env:"OCTREE_CLIENT_IDLE_TIMEOUT"  help:"Time until an idle stream client will be disconnected."`
	FrameDuration      time.Duration `cli:",hidden" env:"OCTREE_FRAME_DURATION"       help:"The duration of a simulation frame."`
	LogSummaryInterval time.Duration `cli:",hidden" env:"OCTREE_LOG_SUMMARY_INTERVAL" help:"The duration between each log summary."`
	Index              indexConfig   `cli:",hidden" env:"-"                           help:"Octree configuration."`
	Points             pointsConfig  `cli:",hidden" env:"-"                           help:"Generated point set configuration."`
	Sphere             sphereConfig  `cli:",hidden" env:"-"                           help:"Simulated query sphere configuration."`
	FeatureFlags       []string      `cli:",hidden" env:"OCTREE_FEATURE_FLAGS"        help:"Comma separated feature flags"`
	Version            bool          `cli:""        env:"-"                           help:"Show version."`
	Help               bool          `cli:""        env:"-"                           help:"Show help."`
}

type indexConfig struct {
	CenterX  float64 `cli:",hidden" env:"OCTREE_INDEX_CENTER_X" help:"The x coordinate of the root cube center."`
	CenterY  float64 `cli:",hidden" env:"OCTREE_INDEX_CENTER_Y" help:"The y coordinate of the root cube center."`
	CenterZ  float64 `cli:",hidden" env:"OCTREE_INDEX_CENTER_Z" help:"The z coordinate of the root cube center."`
	Size     float64 `cli:",hidden" env:"OCTREE_INDEX_SIZE"     help:"The edge length of the root cube."`
	Capacity int     `cli:",hidden" env:"OCTREE_INDEX_CAPACITY" help:"The number of points a leaf holds before subdividing."`
	MaxDepth int     `cli:",hidden" env:"OCTREE_INDEX_MAX_DEPTH" help:"The depth at which leaves stop subdividing."`
}

type pointsConfig struct {
	Count    int   `cli:",hidden" env:"OCTREE_POINTS_COUNT"    help:"The number of generated points."`
	Seed     int64 `cli:",hidden" env:"OCTREE_POINTS_SEED"     help:"The seed of the point generator."`
	Integral bool  `cli:",hidden" env:"OCTREE_POINTS_INTEGRAL" help:"Generate points on whole-unit coordinates."`
}

type sphereConfig struct {
	Radius       float64 `cli:",hidden" env:"OCTREE_SPHERE_RADIUS"        help:"The radius of the simulated query sphere."`
	OrbitRadius  float64 `cli:",hidden" env:"OCTREE_SPHERE_ORBIT_RADIUS"  help:"The distance between the sphere and the cube center."`
	AngularSpeed float64 `cli:",hidden" env:"OCTREE_SPHERE_ANGULAR_SPEED" help:"The rotation of the sphere per frame, in radians."`
}

func main() {
	conf := defaultConfig()

	// set the information gauge to 1, useful for SUM query
	infoGauge.Set(1)

	ctx, cancel := cli.ContextWithSignals(context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer cancel()

	cli.Register().
		Help("Starts the octree sphere query server.").
		Options(&conf)
	cli.Load()

	if conf.Version {
		fmt.Println(version)
		os.Exit(0)
	}

	if err := validateConfig(conf); err != nil {
		logs.Fatal(err)
	}

	logs.SetLevel(logs.ParseLevel(conf.LogLevel))
	logs.Encoder = json.Marshal
	if conf.LogIndent {
		logs.Encoder = func(v any) ([]byte, error) {
			return json.MarshalIndent(v, "", "  ")
		}
	}

	errors.Encoder = json.Marshal

	featureFlags := featureflag.New(conf.FeatureFlags)

	scene, err := models.NewScene(sceneConfig(conf))
	if err != nil {
		logs.Fatal(errors.New("building scene failed").Wrap(err))
	}

	var wg sync.WaitGroup

	var sim *simulation.Simulation
	featureFlags.IfNotSet(featureflag.FlagDisableSimulation, func() {
		sim = &simulation.Simulation{
			Scene:              scene,
			FrameDuration:      conf.FrameDuration,
			LogSummaryInterval: conf.LogSummaryInterval,
			Origin:             octree.NewVector3f(float32(conf.Index.CenterX), float32(conf.Index.CenterY), float32(conf.Index.CenterZ)),
			OrbitRadius:        float32(conf.Sphere.OrbitRadius),
			AngularSpeed:       float32(conf.Sphere.AngularSpeed),
			Radius:             float32(conf.Sphere.Radius),
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			sim.Run(ctx)
		}()
	})

	var stream http.Handler
	featureFlags.IfNotSet(featureflag.FlagDisableWebsocketStream, func() {
		stream = websocket.Server{
			Handler: func(conn *websocket.Conn) {
				defer conn.Close()

				var sh owebsocket.Handler = &owebsocket.StreamHandler{
					Scene:             scene,
					ClientIdleTimeout: conf.ClientIdleTimeout,
				}
				h := owebsocket.HandlerWithLogs(sh, conf.LogSummaryInterval)
				h = owebsocket.HandlerWithMetrics(h, conf.PublicEndpoint)
				defer h.Close()

				owebsocket.Handle(ctx, conn, h)
			},
		}
	})

	serviceOpts := octreehttp.ServiceOptions{
		Scene:        scene,
		Version:      version,
		FeatureFlags: featureFlags,
		Stream:       stream,
	}
	if sim != nil {
		serviceOpts.Simulation = sim
	}
	service := octreehttp.NewServiceMux(serviceOpts)

	readinessCheck := func() bool {
		return ctx.Err() == nil
	}
	service.Handle("/ready", octreehttp.HandleWithCORS(octreehttp.HandleReadyCheck(readinessCheck)))
	service.HandleFunc("/smoke-test", smoketest.HandleSmokeTest(ctx, smoketest.Options{
		Endpoint:  conf.PublicEndpoint,
		UserAgent: fmt.Sprintf("Octree %s", version),
	}))

	var admin http.ServeMux
	admin.Handle("/metrics", promhttp.Handler())
	admin.HandleFunc("/health", octreehttp.HandleHealthCheck)
	admin.HandleFunc("/debug/pprof/", pprof.Index)
	admin.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	admin.HandleFunc("/debug/pprof/profile", pprof.Profile)
	admin.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	admin.HandleFunc("/debug/pprof/trace", pprof.Trace)
	admin.Handle("/debug/pprof/goroutine", pprof.Handler("goroutine"))
	admin.Handle("/debug/pprof/heap", pprof.Handler("heap"))
	admin.Handle("/debug/pprof/threadcreate", pprof.Handler("threadcreate"))
	admin.Handle("/debug/pprof/block", pprof.Handler("block"))
	admin.HandleFunc("/ready", octreehttp.HandleReadyCheck(readinessCheck))

	logs.WithTag("version", version).
		WithTag("log_level", conf.LogLevel).
		WithTag("endpoint", conf.PublicEndpoint).
		WithTag("scene_id", scene.ID).
		WithTag("feature_flags", conf.FeatureFlags).
		Info("starting octree server")

	octreehttp.ListenAndServe(ctx,
		&http.Server{Addr: conf.Addr, Handler: metrics.HTTPHandler(service,
			octreehttp.MetricsPathFormatter)},
		&http.Server{Addr: conf.AdminAddr, Handler: &admin},
	)

	wg.Wait()
}

func defaultConfig() config {
	return config{
		Addr:               ":4000",
		AdminAddr:          ":18190",
		PublicEndpoint:     "http://localhost:4000",
		LogLevel:           logs.InfoLevel.String(),
		ClientIdleTimeout:  time.Minute * 5,
		FrameDuration:      time.Millisecond * 16,
		LogSummaryInterval: time.Minute,
		Index: indexConfig{
			Size:     200,
			Capacity: octree.DefaultCapacity,
			MaxDepth: octree.DefaultMaxDepth,
		},
		Points: pointsConfig{
			Count:    1000,
			Seed:     1,
			Integral: true,
		},
		Sphere: sphereConfig{
			Radius:       20,
			OrbitRadius:  50,
			AngularSpeed: 0.01,
		},
	}
}

func sceneConfig(conf config) models.SceneConfig {
	return models.SceneConfig{
		Center: octree.NewVector3f(
			float32(conf.Index.CenterX),
			float32(conf.Index.CenterY),
			float32(conf.Index.CenterZ),
		),
		Size:       float32(conf.Index.Size),
		Capacity:   conf.Index.Capacity,
		MaxDepth:   conf.Index.MaxDepth,
		PointCount: conf.Points.Count,
		Seed:       conf.Points.Seed,
		Integral:   conf.Points.Integral,
	}
}

func validateConfig(conf config) error {
	if _, err := url.ParseRequestURI(conf.PublicEndpoint); err != nil {
		return errors.New("invalid public endpoint").Wrap(err)
	}

	if conf.Index.Size <= 0 || math.IsInf(conf.Index.Size, 0) || math.IsNaN(conf.Index.Size) {
		return errors.New("index size must be a positive number").
			WithTag("size", conf.Index.Size)
	}

	if conf.Index.Capacity <= 0 {
		return errors.New("index capacity must be positive").
			WithTag("capacity", conf.Index.Capacity)
	}

	if conf.Index.MaxDepth <= 0 {
		return errors.New("index max depth must be positive").
			WithTag("max_depth", conf.Index.MaxDepth)
	}

	if conf.Points.Count <= 0 {
		return errors.New("point count must be positive").
			WithTag("count", conf.Points.Count)
	}

	if conf.Sphere.Radius < 0 {
		return errors.New("sphere radius cannot be negative").
			WithTag("radius", conf.Sphere.Radius)
	}

	if conf.FrameDuration <= 0 {
		return errors.New("frame duration must be positive").
			WithTag("frame_duration", conf.FrameDuration)
	}

	if conf.LogSummaryInterval <= 0 {
		return errors.New("log summary interval must be positive").
			WithTag("log_summary_interval", conf.LogSummaryInterval)
	}

	return nil
}
