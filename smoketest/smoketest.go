package smoketest

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	httpcmn "github.com/aukilabs/hagall-common/http"
	"github.com/aukilabs/octree/octree"
	owebsocket "github.com/aukilabs/octree/websocket"
	"github.com/segmentio/encoding/json"
	"golang.org/x/net/websocket"
)

const (
	StatusSuccess = "success"
	StatusFailed  = "failed"

	defaultTimeout = time.Second * 5

	maxRequestBodySize = 4096
)

type Options struct {
	// The endpoint of the server running the smoke test.
	Endpoint  string
	UserAgent string
}

// Request describes the query stream to test and the sphere to query.
type Request struct {
	Endpoint string          `json:"endpoint"`
	Timeout  time.Duration   `json:"timeout"`
	Center   octree.Vector3f `json:"center"`
	Radius   float32         `json:"radius"`
}

type Result struct {
	FromEndpoint    string  `json:"from_endpoint"`
	ToEndpoint      string  `json:"to_endpoint"`
	Status          string  `json:"status"`
	LatencyMilliSec float64 `json:"latency_ms"`
	Matches         int     `json:"matches"`
	Error           string  `json:"error,omitempty"`
}

// HandleSmokeTest runs a ping and a sphere query against the query stream
// given in the request body and responds with the result.
func HandleSmokeTest(ctx context.Context, opts Options) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		b, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodySize))
		if err != nil {
			httpcmn.InternalServerError(w, errors.New("reading body failed").Wrap(err))
			return
		}

		var req Request
		if err := json.Unmarshal(b, &req); err != nil || req.Endpoint == "" {
			httpcmn.BadRequest(w, httpcmn.ErrBadRequest)
			return
		}

		res, err := Run(ctx, opts, req)
		if err != nil {
			logs.WithTag("from_endpoint", opts.Endpoint).
				WithTag("to_endpoint", req.Endpoint).
				Warn(err)
		}

		body, err := json.Marshal(res)
		if err != nil {
			httpcmn.InternalServerError(w, errors.New("encoding smoke test result failed").Wrap(err))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(body); err != nil {
			logs.Warn(errors.New("writing smoke test result failed").Wrap(err))
		}
	}
}

// Run connects to the query stream at req.Endpoint, checks it answers a ping
// and measures the latency of one sphere query. The returned result is always
// filled, with a failed status when err is not nil.
func Run(ctx context.Context, opts Options, req Request) (Result, error) {
	res := Result{
		FromEndpoint: opts.Endpoint,
		ToEndpoint:   req.Endpoint,
		Status:       StatusFailed,
	}

	err := run(ctx, opts, req, &res)
	if err != nil {
		res.Error = err.Error()
		return res, errors.New("smoke test failed").
			WithTag("to_endpoint", req.Endpoint).
			Wrap(err)
	}

	res.Status = StatusSuccess
	return res, nil
}

func run(ctx context.Context, opts Options, req Request, res *Result) error {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	origin := opts.Endpoint
	if origin == "" {
		origin = "http://localhost"
	}

	config, err := websocket.NewConfig(websocketURL(req.Endpoint), origin)
	if err != nil {
		return errors.New("invalid endpoint").Wrap(err)
	}
	if opts.UserAgent != "" {
		config.Header.Set("User-Agent", opts.UserAgent)
	}

	conn, err := websocket.DialConfig(config)
	if err != nil {
		return errors.New("dialing query stream failed").Wrap(err)
	}
	defer conn.Close()

	deadline := time.Now().Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return errors.New("setting deadline failed").Wrap(err)
	}

	if _, err := roundTrip(conn, owebsocket.Request{
		Type:      owebsocket.MsgTypePing,
		RequestID: 1,
	}, owebsocket.MsgTypePong); err != nil {
		return err
	}

	start := time.Now()
	qres, err := roundTrip(conn, owebsocket.Request{
		Type:      owebsocket.MsgTypeQuery,
		RequestID: 2,
		Center:    req.Center,
		Radius:    req.Radius,
	}, owebsocket.MsgTypeQueryResponse)
	if err != nil {
		return err
	}

	res.LatencyMilliSec = float64(time.Since(start).Microseconds()) / 1000
	res.Matches = len(qres.IDs)
	return nil
}

func roundTrip(conn *websocket.Conn, req owebsocket.Request, expectedType string) (owebsocket.Response, error) {
	b, err := json.Marshal(req)
	if err != nil {
		return owebsocket.Response{}, errors.New("encoding request failed").Wrap(err)
	}

	if err := websocket.Message.Send(conn, string(b)); err != nil {
		return owebsocket.Response{}, errors.New("sending request failed").
			WithTag("msg_type", req.Type).
			Wrap(err)
	}

	for {
		var data []byte
		if err := websocket.Message.Receive(conn, &data); err != nil {
			return owebsocket.Response{}, errors.New("receiving response failed").
				WithTag("msg_type", req.Type).
				Wrap(err)
		}

		var res owebsocket.Response
		if err := json.Unmarshal(data, &res); err != nil {
			return owebsocket.Response{}, errors.New("decoding response failed").Wrap(err)
		}

		if res.RequestID != req.RequestID {
			continue
		}
		if res.Type == owebsocket.MsgTypeError {
			return res, errors.New("server responded with an error").
				WithTag("msg_type", req.Type).
				WithTag("error", res.Error)
		}
		if res.Type != expectedType {
			return res, errors.New("unexpected response type").
				WithTag("expected", expectedType).
				WithTag("got", res.Type)
		}
		return res, nil
	}
}

func websocketURL(endpoint string) string {
	switch {
	case strings.HasPrefix(endpoint, "https://"):
		return "wss://" + strings.TrimPrefix(endpoint, "https://")

	case strings.HasPrefix(endpoint, "http://"):
		return "ws://" + strings.TrimPrefix(endpoint, "http://")

	default:
		return endpoint
	}
}
