package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/playrps/rpsroom/internal/api/middleware"
	"github.com/playrps/rpsroom/internal/api/request"
	"github.com/playrps/rpsroom/internal/api/response"
	"github.com/playrps/rpsroom/internal/metrics"
	"github.com/playrps/rpsroom/internal/model"
	"github.com/playrps/rpsroom/internal/services/match"
)

// RoomHandler handles room lifecycle endpoints
type RoomHandler struct {
	coordinator *match.Coordinator
	metrics     *metrics.Metrics
	baseURL     string
}

// NewRoomHandler creates a new room handler. baseURL is the public
// address used to build share links.
func NewRoomHandler(coordinator *match.Coordinator, m *metrics.Metrics, baseURL string) *RoomHandler {
	return &RoomHandler{
		coordinator: coordinator,
		metrics:     m,
		baseURL:     baseURL,
	}
}

// Create handles POST /api/v1/rooms
func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	cctx := middleware.MustGetClient(r.Context())

	var req request.CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		req = request.CreateRoomRequest{}
	}

	room, err := h.coordinator.CreateRoom(r.Context(), cctx, req.Name, req.ForceNew)
	if err != nil {
		WriteError(w, err)
		return
	}
	h.metrics.RoomsCreated.Inc()

	response.JSON(w, http.StatusCreated, response.CreateRoomResponse{
		Room:      response.RoomFromModel(room, cctx.Role),
		ShareLink: fmt.Sprintf("%s/join/%s", h.baseURL, room.Code),
	})
}

// Get handles GET /api/v1/rooms/{code}
func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	cctx := middleware.MustGetClient(r.Context())
	code := model.RoomCode(mux.Vars(r)["code"])

	room, err := h.coordinator.Room(r.Context(), code)
	if err != nil {
		WriteError(w, err)
		return
	}

	role := model.Slot("")
	if slot, ok := room.SlotOf(cctx.Identity); ok {
		role = slot
	}
	response.JSON(w, http.StatusOK, response.RoomFromModel(room, role))
}

// Join handles POST /api/v1/rooms/{code}/join
func (h *RoomHandler) Join(w http.ResponseWriter, r *http.Request) {
	cctx := middleware.MustGetClient(r.Context())
	code := model.RoomCode(mux.Vars(r)["code"])

	var req request.JoinRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		req = request.JoinRoomRequest{}
	}

	room, err := h.coordinator.JoinRoom(r.Context(), cctx, code, req.Name)
	if err != nil {
		WriteError(w, err)
		return
	}
	h.metrics.RoomsJoined.Inc()

	response.JSON(w, http.StatusOK, response.RoomFromModel(room, cctx.Role))
}

// Resume handles POST /api/v1/rooms/resume
func (h *RoomHandler) Resume(w http.ResponseWriter, r *http.Request) {
	cctx := middleware.MustGetClient(r.Context())

	room, err := h.coordinator.Resume(r.Context(), cctx)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.RoomFromModel(room, cctx.Role))
}

// Ready handles POST /api/v1/rooms/{code}/ready
func (h *RoomHandler) Ready(w http.ResponseWriter, r *http.Request) {
	cctx := middleware.MustGetClient(r.Context())

	var req request.ReadyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	if err := h.coordinator.SetReady(r.Context(), cctx, req.Ready); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}

// Leave handles POST /api/v1/rooms/{code}/leave
func (h *RoomHandler) Leave(w http.ResponseWriter, r *http.Request) {
	cctx := middleware.MustGetClient(r.Context())

	if err := h.coordinator.LeaveRoom(r.Context(), cctx); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}
