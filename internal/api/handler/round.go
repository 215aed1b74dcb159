package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/playrps/rpsroom/internal/api/middleware"
	"github.com/playrps/rpsroom/internal/api/request"
	"github.com/playrps/rpsroom/internal/api/response"
	"github.com/playrps/rpsroom/internal/model"
	"github.com/playrps/rpsroom/internal/services/round"
)

// RoundHandler handles move submission and round reset
type RoundHandler struct {
	synchronizer *round.Synchronizer
}

// NewRoundHandler creates a new round handler
func NewRoundHandler(synchronizer *round.Synchronizer) *RoundHandler {
	return &RoundHandler{synchronizer: synchronizer}
}

// Move handles POST /api/v1/rooms/{code}/move
//
// Submitting before an opponent has joined is not an error condition
// for the client; it comes back 200 with waiting set.
func (h *RoundHandler) Move(w http.ResponseWriter, r *http.Request) {
	cctx := middleware.MustGetClient(r.Context())

	var req request.MoveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	move, err := h.synchronizer.SubmitMove(r.Context(), cctx, req.Move)
	if errors.Is(err, model.ErrWaitingForOpponent) {
		response.JSON(w, http.StatusOK, response.MoveResponse{Waiting: true})
		return
	}
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.MoveResponse{Move: string(move)})
}

// Reset handles POST /api/v1/rooms/{code}/reset
func (h *RoundHandler) Reset(w http.ResponseWriter, r *http.Request) {
	cctx := middleware.MustGetClient(r.Context())

	if err := h.synchronizer.ResetRound(r.Context(), cctx); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}
