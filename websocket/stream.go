package websocket

import (
	"context"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	httpcmn "github.com/aukilabs/hagall-common/http"
	"github.com/aukilabs/octree/models"
	"github.com/aukilabs/octree/octree"
	"github.com/google/uuid"
	"github.com/segmentio/encoding/json"
	"golang.org/x/net/websocket"
)

const defaultIdleTimeout = time.Minute * 5

// Querier runs sphere queries against a scene.
type Querier interface {
	Query(source string, center octree.Vector3f, radius float32) models.QueryResult
}

// StreamHandler answers the sphere queries a client sends every frame with
// the ids of the matched points.
type StreamHandler struct {
	// The scene being queried.
	Scene Querier

	// The time a client is idle before being disconnected.
	ClientIdleTimeout time.Duration

	conn     *websocket.Conn
	clientID string
}

func (h *StreamHandler) HandleConnect(conn *websocket.Conn) {
	h.conn = conn

	if req := conn.Request(); req != nil {
		h.clientID = req.Header.Get(httpcmn.HeaderPosemeshClientID)
	}
	if h.clientID == "" {
		h.clientID = uuid.NewString()
	}
}

func (h *StreamHandler) HandlePing(ctx context.Context, respond ResponseSender, req Request) error {
	respond(Response{
		Type:      MsgTypePong,
		RequestID: req.RequestID,
	})
	return nil
}

func (h *StreamHandler) HandleQuery(ctx context.Context, respond ResponseSender, req Request) error {
	res := h.Scene.Query(models.QuerySourceWebsocket, req.Center, req.Radius)

	ids := make([]uint32, len(res.Points))
	for i, p := range res.Points {
		ids[i] = p.ID
	}

	respond(Response{
		Type:      MsgTypeQueryResponse,
		RequestID: req.RequestID,
		IDs:       ids,
		Stats:     &res.Stats,
	})
	return nil
}

func (h *StreamHandler) HandleDisconnect(err error) {
}

func (h *StreamHandler) Receiver() Receiver {
	return func() (Request, int, error) {
		var data []byte
		if err := websocket.Message.Receive(h.conn, &data); err != nil {
			return Request{}, 0, err
		}

		var req Request
		if err := json.Unmarshal(data, &req); err != nil {
			return Request{}, len(data), errors.New("decoding message failed").
				WithType(ErrTypeInvalidMsg).
				Wrap(err)
		}
		return req, len(data), nil
	}
}

func (h *StreamHandler) Sender() Sender {
	return func(res Response) (int, error) {
		b, err := json.Marshal(res)
		if err != nil {
			return 0, errors.New("encoding message failed").Wrap(err)
		}

		if err := websocket.Message.Send(h.conn, string(b)); err != nil {
			return 0, err
		}
		return len(b), nil
	}
}

func (h *StreamHandler) Close() {
}

func (h *StreamHandler) IdleTimeout() time.Duration {
	if h.ClientIdleTimeout <= 0 {
		return defaultIdleTimeout
	}
	return h.ClientIdleTimeout
}

func (h *StreamHandler) GetClientID() string {
	return h.clientID
}
