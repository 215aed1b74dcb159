package presence

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/playrps/rpsroom/internal/metrics"
	"github.com/playrps/rpsroom/internal/model"
	"github.com/playrps/rpsroom/internal/store"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	refreshPeriod  = 30 * time.Second
	countPeriod    = 5 * time.Second
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Tracker maintains live-viewer presence over websocket connections.
// A client counts as online for exactly the lifetime of its connection:
// registration happens on upgrade, removal on disconnect, and the store
// record is refreshed well inside its TTL so a crashed server cannot
// leave viewers online forever.
type Tracker struct {
	store   store.RoomStore
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewTracker creates a new presence Tracker
func NewTracker(roomStore store.RoomStore, m *metrics.Metrics, logger *slog.Logger) *Tracker {
	return &Tracker{
		store:   roomStore,
		metrics: m,
		logger:  logger.With(slog.String("component", "presence")),
	}
}

// countMessage is the only frame the tracker sends
type countMessage struct {
	Viewers int `json:"viewers"`
}

// Serve upgrades the request to a websocket and holds the client online
// until it disconnects
func (t *Tracker) Serve(w http.ResponseWriter, r *http.Request, id model.ClientID) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		t.logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	ctx := context.Background()
	if err := t.store.SetViewerOnline(ctx, id); err != nil {
		t.logger.Warn("viewer registration failed", slog.String("error", err.Error()))
		conn.Close()
		return
	}
	t.metrics.ViewersOnline.Inc()

	done := make(chan struct{})
	go t.readPump(conn, done)
	t.writePump(ctx, conn, id, done)

	t.metrics.ViewersOnline.Dec()
	if err := t.store.SetViewerOffline(ctx, id); err != nil {
		t.logger.Warn("viewer removal failed", slog.String("error", err.Error()))
	}
	conn.Close()
}

// readPump discards inbound frames and closes done when the peer goes away
func (t *Tracker) readPump(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump pings the peer, refreshes the store record and pushes the
// global viewer count until the connection drops
func (t *Tracker) writePump(ctx context.Context, conn *websocket.Conn, id model.ClientID, done <-chan struct{}) {
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()
	refresh := time.NewTicker(refreshPeriod)
	defer refresh.Stop()
	count := time.NewTicker(countPeriod)
	defer count.Stop()

	if err := t.sendCount(ctx, conn); err != nil {
		return
	}

	for {
		select {
		case <-done:
			return
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-refresh.C:
			if err := t.store.SetViewerOnline(ctx, id); err != nil {
				t.logger.Warn("viewer refresh failed", slog.String("error", err.Error()))
			}
		case <-count.C:
			if err := t.sendCount(ctx, conn); err != nil {
				return
			}
		}
	}
}

func (t *Tracker) sendCount(ctx context.Context, conn *websocket.Conn) error {
	n, err := t.store.ViewerCount(ctx)
	if err != nil {
		t.logger.Warn("viewer count failed", slog.String("error", err.Error()))
		return nil
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(countMessage{Viewers: n})
}

// Count reports the number of live viewers
func (t *Tracker) Count(ctx context.Context) (int, error) {
	return t.store.ViewerCount(ctx)
}
