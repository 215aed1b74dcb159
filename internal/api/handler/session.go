package handler

import (
	"encoding/json"
	"net/http"

	"github.com/playrps/rpsroom/internal/api/middleware"
	"github.com/playrps/rpsroom/internal/api/request"
	"github.com/playrps/rpsroom/internal/api/response"
	"github.com/playrps/rpsroom/internal/session"
)

// SessionHandler handles session and score endpoints
type SessionHandler struct {
	sessions *session.Manager
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessions *session.Manager) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// Start handles POST /api/v1/session
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req request.StartSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		// Empty body gets a generated guest name
		req = request.StartSessionRequest{}
	}

	cctx, err := h.sessions.StartSession(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	if req.DisplayName != "" {
		if err := h.sessions.SetDisplayName(r.Context(), cctx, req.DisplayName); err != nil {
			WriteError(w, err)
			return
		}
	}

	response.JSON(w, http.StatusCreated, response.SessionFromContext(cctx, ""))
}

// Get handles GET /api/v1/session
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	cctx := middleware.MustGetClient(r.Context())

	accent, err := h.sessions.Accent(r.Context(), cctx.Identity)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.SessionFromContext(cctx, accent))
}

// End handles DELETE /api/v1/session
func (h *SessionHandler) End(w http.ResponseWriter, r *http.Request) {
	cctx := middleware.MustGetClient(r.Context())

	if err := h.sessions.EndSession(r.Context(), cctx.Identity); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}

// SetDisplayName handles PATCH /api/v1/session/name
func (h *SessionHandler) SetDisplayName(w http.ResponseWriter, r *http.Request) {
	cctx := middleware.MustGetClient(r.Context())

	var req request.DisplayNameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}
	if req.DisplayName == "" {
		WriteError(w, NewInvalidRequestError("display_name is required"))
		return
	}

	if err := h.sessions.SetDisplayName(r.Context(), cctx, req.DisplayName); err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.SessionFromContext(cctx, ""))
}

// SetAccent handles PATCH /api/v1/session/accent
func (h *SessionHandler) SetAccent(w http.ResponseWriter, r *http.Request) {
	cctx := middleware.MustGetClient(r.Context())

	var req request.AccentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	if err := h.sessions.SetAccent(r.Context(), cctx.Identity, req.Accent); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}

// GetScore handles GET /api/v1/session/score
func (h *SessionHandler) GetScore(w http.ResponseWriter, r *http.Request) {
	cctx := middleware.MustGetClient(r.Context())

	score, err := h.sessions.Score(r.Context(), cctx.Identity)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.ScoreFromModel(score))
}

// ResetScore handles DELETE /api/v1/session/score
func (h *SessionHandler) ResetScore(w http.ResponseWriter, r *http.Request) {
	cctx := middleware.MustGetClient(r.Context())

	if err := h.sessions.ResetScore(r.Context(), cctx.Identity); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}
