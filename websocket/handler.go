package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/octree/octree"
	"golang.org/x/net/websocket"
)

const (
	sendChanSize    = 512
	receiveChanSize = 64
)

const (
	MsgTypePing          = "ping"
	MsgTypePong          = "pong"
	MsgTypeQuery         = "query"
	MsgTypeQueryResponse = "query_response"
	MsgTypeError         = "error"
)

const (
	ErrTypeInvalidMsg = "invalid_msg"
	ErrTypeUnknownMsg = "unknown_msg"
)

// Request is a message sent by a client. Center and Radius are only used by
// query messages.
type Request struct {
	Type      string          `json:"type"`
	RequestID uint32          `json:"request_id"`
	Center    octree.Vector3f `json:"center"`
	Radius    float32         `json:"radius"`
}

// Response is a message sent to a client.
type Response struct {
	Type      string             `json:"type"`
	RequestID uint32             `json:"request_id"`
	IDs       []uint32           `json:"ids,omitempty"`
	Stats     *octree.QueryStats `json:"stats,omitempty"`
	Error     string             `json:"error,omitempty"`
}

// Receiver reads the next request from a connection and returns the number of
// bytes read.
type Receiver func() (Request, int, error)

// Sender writes a response to a connection and returns the number of bytes
// written.
type Sender func(Response) (int, error)

// ResponseSender queues a response to the client that sent a request.
type ResponseSender func(Response)

// Handler represents a query stream handler.
type Handler interface {
	// Handles a client connection.
	HandleConnect(conn *websocket.Conn)

	// Handles a ping request.
	HandlePing(ctx context.Context, respond ResponseSender, req Request) error

	// Handles a sphere query.
	HandleQuery(ctx context.Context, respond ResponseSender, req Request) error

	// Handles a client's disconnection.
	HandleDisconnect(error)

	// Creates a message receiver used to receive incoming messages.
	Receiver() Receiver

	// Creates a message sender used to send responses.
	Sender() Sender

	// Closes the handler and releases its allocated resources.
	Close()

	// The time a client is idle before being disconnected.
	IdleTimeout() time.Duration

	// Get ClientID
	GetClientID() string
}

// Handle serves the given connection with h until the client disconnects,
// stays idle for too long or ctx is done.
func Handle(ctx context.Context, conn *websocket.Conn, h Handler) {
	handler := handler{
		Conn:    conn,
		Handler: h,
	}

	handler.Handle(ctx)
}

type handler struct {
	// The WebSocket connection.
	Conn *websocket.Conn

	// The query stream handler.
	Handler Handler

	sendChan       chan Response
	receiveChan    chan Request
	disconnectChan chan error
}

func (h *handler) Handle(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	h.Handler.HandleConnect(h.Conn)

	h.disconnectChan = make(chan error, 8)
	h.sendChan = make(chan Response, sendChanSize)
	h.receiveChan = make(chan Request, receiveChanSize)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		h.startSending(ctx, h.Handler.Sender())
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		h.startReceiving(ctx, h.Handler.Receiver())
	}()

	err := h.serve(ctx)
	h.Handler.HandleDisconnect(err)

	// unblocks the receiver so go routines can cleanly exit.
	h.Conn.Close()
	cancel()

	wg.Wait()
}

// serve dispatches the received requests until the connection has to be
// closed and returns the reason.
func (h *handler) serve(ctx context.Context) error {
	idleTimeout := h.Handler.IdleTimeout()
	idleTimer := time.NewTimer(idleTimeout)
	defer idleTimer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-idleTimer.C:
			return errors.New("idle connection").WithTag("duration", idleTimeout)

		case err := <-h.disconnectChan:
			return err

		case req := <-h.receiveChan:
			idleTimer.Stop()
			idleTimer.Reset(idleTimeout)

			err := h.handleRequest(ctx, req)
			if errors.IsType(err, ErrTypeUnknownMsg) {
				h.send(errorResponse(req.RequestID, err))
			} else if err != nil {
				return errors.New("handling message failed").Wrap(err)
			}
		}
	}
}

func (h *handler) handleRequest(ctx context.Context, req Request) error {
	switch req.Type {
	case MsgTypePing:
		return h.Handler.HandlePing(ctx, h.send, req)

	case MsgTypeQuery:
		return h.Handler.HandleQuery(ctx, h.send, req)

	default:
		return errors.New("unknown message type").
			WithType(ErrTypeUnknownMsg).
			WithTag("msg_type", req.Type)
	}
}

func (h *handler) send(res Response) {
	select {
	case h.sendChan <- res:
	default:
		h.disconnect(errors.New("send queue is full").WithTag("size", sendChanSize))
	}
}

func (h *handler) disconnect(err error) {
	select {
	case h.disconnectChan <- err:
	default:
	}
}

func (h *handler) startSending(ctx context.Context, sender Sender) {
	for {
		select {
		case <-ctx.Done():
			return

		case res := <-h.sendChan:
			if _, err := sender(res); err != nil {
				h.disconnect(errors.New("sending message failed").Wrap(err))
				return
			}
		}
	}
}

func (h *handler) startReceiving(ctx context.Context, receiver Receiver) {
	for {
		req, _, err := receiver()
		if ctx.Err() != nil {
			return
		}

		if errors.IsType(err, ErrTypeInvalidMsg) {
			h.send(errorResponse(0, err))
			continue
		}
		if err != nil {
			h.disconnect(errors.New("receiving message failed").Wrap(err))
			return
		}

		select {
		case h.receiveChan <- req:
		case <-ctx.Done():
			return
		}
	}
}

func errorResponse(requestID uint32, err error) Response {
	return Response{
		Type:      MsgTypeError,
		RequestID: requestID,
		Error:     errors.Type(err),
	}
}
