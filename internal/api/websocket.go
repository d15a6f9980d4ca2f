package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rcm-webdev/insight-lens/internal/upload"
)

// WebSocket message types for the queue stream
const (
	// Client -> Server messages
	MsgTypePing = "ping"

	// Server -> Client messages
	MsgTypeConnected = "connected"
	MsgTypeQueue     = "queue"
	MsgTypeError     = "error"
	MsgTypePong      = "pong"
)

const (
	queuePollInterval = 200 * time.Millisecond
	pingInterval      = 30 * time.Second
	pongWait          = 60 * time.Second
	writeWait         = 10 * time.Second
)

// WSMessage is the envelope for every frame on the stream
type WSMessage struct {
	Type      string          `json:"type"`
	ID        string          `json:"id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// WSErrorResponse is the payload of an error frame
type WSErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// QueueStreamHandlerImpl pushes queue snapshots whenever a queue changes
type QueueStreamHandlerImpl struct {
	uploads  QueueManager
	upgrader websocket.Upgrader
	interval time.Duration
}

// NewQueueStreamHandler creates a new queue stream handler
func NewQueueStreamHandler(uploads QueueManager) *QueueStreamHandlerImpl {
	return &QueueStreamHandlerImpl{
		uploads: uploads,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Allow connections from dev server
				return true
			},
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 64 * 1024,
		},
		interval: queuePollInterval,
	}
}

// HandleQueueStream upgrades to a WebSocket and streams snapshots of one queue.
// The stream ends when the client disconnects or the queue goes away.
func (h *QueueStreamHandlerImpl) HandleQueueStream(c echo.Context) error {
	queueID := c.Param("id")
	snap, err := h.uploads.Queue(queueID)
	if err != nil {
		return NewNotFoundError("queue", queueID)
	}

	ws, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	slog.Debug("queue stream connected", "queue", queueID)

	pings := make(chan struct{}, 1)
	done := make(chan struct{})
	go h.readLoop(ws, pings, done)

	send := func(msg WSMessage) bool {
		msg.Timestamp = time.Now().UnixMilli()
		_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
		if err := ws.WriteJSON(msg); err != nil {
			slog.Debug("queue stream write failed", "queue", queueID, "err", err)
			return false
		}
		return true
	}

	if !send(WSMessage{Type: MsgTypeConnected, ID: queueID}) {
		return nil
	}
	if !send(WSMessage{Type: MsgTypeQueue, ID: queueID, Payload: mustJSON(snap)}) {
		return nil
	}
	lastVersion := snap.Version

	poll := time.NewTicker(h.interval)
	defer poll.Stop()
	keepAlive := time.NewTicker(pingInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-done:
			slog.Debug("queue stream disconnected", "queue", queueID)
			return nil

		case <-pings:
			if !send(WSMessage{Type: MsgTypePong, ID: queueID}) {
				return nil
			}

		case <-keepAlive.C:
			if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return nil
			}

		case <-poll.C:
			snap, err := h.uploads.Queue(queueID)
			if errors.Is(err, upload.ErrQueueNotFound) {
				send(WSMessage{
					Type:    MsgTypeError,
					ID:      queueID,
					Payload: mustJSON(WSErrorResponse{Message: "queue no longer exists", Code: "QUEUE_GONE"}),
				})
				_ = ws.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "queue deleted"),
					time.Now().Add(writeWait))
				return nil
			}
			if err != nil || snap.Version == lastVersion {
				continue
			}
			lastVersion = snap.Version
			if !send(WSMessage{Type: MsgTypeQueue, ID: queueID, Payload: mustJSON(snap)}) {
				return nil
			}
		}
	}
}

// readLoop consumes client frames until the connection closes. Only ping
// requests are understood; everything else is ignored.
func (h *QueueStreamHandlerImpl) readLoop(ws *websocket.Conn, pings chan<- struct{}, done chan<- struct{}) {
	defer close(done)

	// the server's read timeout still applies to the hijacked conn
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg WSMessage
		if err := ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("queue stream read error", "err", err)
			}
			return
		}
		_ = ws.SetReadDeadline(time.Now().Add(pongWait))
		if msg.Type == MsgTypePing {
			select {
			case pings <- struct{}{}:
			default:
			}
		}
	}
}

func mustJSON(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage(`{}`)
	}
	return data
}
