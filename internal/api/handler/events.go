package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/playrps/rpsroom/internal/api/middleware"
	"github.com/playrps/rpsroom/internal/api/response"
	"github.com/playrps/rpsroom/internal/metrics"
	"github.com/playrps/rpsroom/internal/services/round"
)

const keepalivePeriod = 15 * time.Second

// EventsHandler streams per-client round updates over SSE
type EventsHandler struct {
	synchronizer *round.Synchronizer
	metrics      *metrics.Metrics
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(synchronizer *round.Synchronizer, m *metrics.Metrics) *EventsHandler {
	return &EventsHandler{synchronizer: synchronizer, metrics: m}
}

// roundEvent is one SSE data payload
type roundEvent struct {
	Status             string         `json:"status"`
	OpponentName       string         `json:"opponent_name,omitempty"`
	WaitingForOpponent bool           `json:"waiting_for_opponent"`
	Epoch              int64          `json:"epoch"`
	Resolution         *resolution    `json:"resolution,omitempty"`
	Score              response.Score `json:"score"`
}

type resolution struct {
	MyMove    string `json:"my_move"`
	TheirMove string `json:"their_move"`
	Result    string `json:"result"`
}

// Stream handles GET /api/v1/rooms/{code}/events
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	cctx := middleware.MustGetClient(r.Context())

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	updates, err := h.synchronizer.Watch(r.Context(), cctx)
	if err != nil {
		WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("X-Accel-Buffering", "no")

	h.metrics.WatchersActive.Inc()
	defer h.metrics.WatchersActive.Dec()

	_, _ = w.Write([]byte("event: connected\ndata: {\"status\":\"connected\"}\n\n"))
	flusher.Flush()

	ticker := time.NewTicker(keepalivePeriod)
	defer ticker.Stop()

	for {
		select {
		case update, ok := <-updates:
			if !ok {
				// Room deleted; tell the client before closing
				_, _ = w.Write([]byte("event: closed\ndata: {\"status\":\"closed\"}\n\n"))
				flusher.Flush()
				return
			}
			if err := writeEvent(w, update); err != nil {
				return
			}
			if update.Resolution != nil {
				h.metrics.RoundsResolved.WithLabelValues(string(update.Resolution.Result)).Inc()
			}
			flusher.Flush()

		case <-ticker.C:
			if _, err := w.Write([]byte(": keepalive\n\n")); err != nil {
				return
			}
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}

func writeEvent(w http.ResponseWriter, update round.Update) error {
	event := roundEvent{
		Status:             string(update.State.RoomStatus),
		OpponentName:       update.State.OpponentName,
		WaitingForOpponent: update.State.WaitingForOpponent,
		Epoch:              update.State.Epoch,
		Score:              response.ScoreFromModel(update.Score),
	}
	if update.Resolution != nil {
		event.Resolution = &resolution{
			MyMove:    string(update.Resolution.MyMove),
			TheirMove: string(update.Resolution.TheirMove),
			Result:    string(update.Resolution.Result),
		}
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: round\ndata: %s\n\n", data)
	return err
}
