package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/playrps/rpsroom/internal/model"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeInvalidMove        = "INVALID_MOVE"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeRoomNotFound       = "ROOM_NOT_FOUND"
	CodeRoomFull           = "ROOM_FULL"
	CodeRoomExpired        = "ROOM_EXPIRED"
	CodeRoomCodeCollision  = "ROOM_CODE_COLLISION"
	CodeNotInRoom          = "NOT_IN_ROOM"
	CodeSessionNotFound    = "SESSION_NOT_FOUND"
	CodeStoreUnavailable   = "STORE_UNAVAILABLE"
	CodeWaitingForOpponent = "WAITING_FOR_OPPONENT"
	CodeInternalError      = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	switch {
	case errors.Is(err, model.ErrRoomNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeRoomNotFound, "Room not found"}}
	case errors.Is(err, model.ErrRoomFull):
		return &httpError{http.StatusConflict, APIError{CodeRoomFull, "Room already has two players"}}
	case errors.Is(err, model.ErrRoomExpired):
		return &httpError{http.StatusGone, APIError{CodeRoomExpired, "Room code has expired"}}
	case errors.Is(err, model.ErrRoomCodeCollision):
		return &httpError{http.StatusConflict, APIError{CodeRoomCodeCollision, "Room code is taken by another game"}}
	case errors.Is(err, model.ErrNotInRoom):
		return &httpError{http.StatusConflict, APIError{CodeNotInRoom, "Not currently in a room"}}
	case errors.Is(err, model.ErrInvalidMove):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidMove, "Move must be rock, paper or scissor"}}
	case errors.Is(err, model.ErrStoreUnavailable):
		return &httpError{http.StatusServiceUnavailable, APIError{CodeStoreUnavailable, "Store unavailable, try again"}}
	case errors.Is(err, model.ErrNotAuthenticated):
		return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Authentication required"}}
	case errors.Is(err, model.ErrSessionNotFound):
		return &httpError{http.StatusUnauthorized, APIError{CodeSessionNotFound, "Session not found"}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Authentication required"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
