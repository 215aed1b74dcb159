package handler

import (
	"net/http"

	"github.com/playrps/rpsroom/internal/api/middleware"
	"github.com/playrps/rpsroom/internal/api/response"
	"github.com/playrps/rpsroom/internal/presence"
)

// PresenceHandler handles the live-viewer endpoints
type PresenceHandler struct {
	tracker *presence.Tracker
}

// NewPresenceHandler creates a new presence handler
func NewPresenceHandler(tracker *presence.Tracker) *PresenceHandler {
	return &PresenceHandler{tracker: tracker}
}

// Connect handles GET /api/v1/presence, upgrading to a websocket
func (h *PresenceHandler) Connect(w http.ResponseWriter, r *http.Request) {
	cctx := middleware.MustGetClient(r.Context())
	h.tracker.Serve(w, r, cctx.Identity)
}

// Count handles GET /api/v1/presence/count
func (h *PresenceHandler) Count(w http.ResponseWriter, r *http.Request) {
	n, err := h.tracker.Count(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.ViewerCount{Viewers: n})
}
