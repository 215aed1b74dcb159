package request

// StartSessionRequest is the request body for starting a session
type StartSessionRequest struct {
	DisplayName string `json:"display_name,omitempty"`
}

// CreateRoomRequest is the request body for creating a room
type CreateRoomRequest struct {
	Name     string `json:"name,omitempty"`
	ForceNew bool   `json:"force_new,omitempty"`
}

// JoinRoomRequest is the request body for joining a room
type JoinRoomRequest struct {
	Name string `json:"name,omitempty"`
}

// ReadyRequest is the request body for setting readiness
type ReadyRequest struct {
	Ready bool `json:"ready"`
}

// MoveRequest is the request body for submitting a move
type MoveRequest struct {
	Move string `json:"move"`
}

// DisplayNameRequest is the request body for renaming the session
type DisplayNameRequest struct {
	DisplayName string `json:"display_name"`
}

// AccentRequest is the request body for the durable accent preference
type AccentRequest struct {
	Accent string `json:"accent"`
}
