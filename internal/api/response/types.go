package response

import (
	"time"

	"github.com/playrps/rpsroom/internal/model"
)

// Session represents the caller's session in API responses
type Session struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	RoomCode    string `json:"room_code,omitempty"`
	Role        string `json:"role,omitempty"`
	Accent      string `json:"accent,omitempty"`
}

// SessionFromContext converts a ClientContext to a response Session
func SessionFromContext(cctx *model.ClientContext, accent string) Session {
	return Session{
		ID:          string(cctx.Identity),
		DisplayName: cctx.DisplayName,
		RoomCode:    string(cctx.RoomCode),
		Role:        string(cctx.Role),
		Accent:      accent,
	}
}

// Player represents one room occupant. Identities are never exposed.
type Player struct {
	Name  string `json:"name"`
	Ready bool   `json:"ready"`
}

// Room represents a room in API responses, from the caller's perspective
// when a role is known
type Room struct {
	Code           string  `json:"code"`
	Status         string  `json:"status"`
	Players        map[string]Player `json:"players"`
	RoundEpoch     int64   `json:"round_epoch"`
	YourRole       string  `json:"your_role,omitempty"`
	OpponentName   string  `json:"opponent_name,omitempty"`
	YourMoveIn     bool    `json:"your_move_in"`
	OpponentMoveIn bool    `json:"opponent_move_in"`
	CreatedAt      time.Time `json:"created_at"`
}

// RoomFromModel converts a model.Room, folding in the caller's role when
// it occupies a slot
func RoomFromModel(room *model.Room, role model.Slot) Room {
	players := make(map[string]Player, len(room.Players))
	for slot, info := range room.Players {
		players[string(slot)] = Player{Name: info.Name, Ready: info.Ready}
	}

	resp := Room{
		Code:       string(room.Code),
		Status:     string(room.Status),
		Players:    players,
		RoundEpoch: room.RoundEpoch,
		CreatedAt:  room.CreatedAt,
	}

	if role != "" {
		resp.YourRole = string(role)
		if opp, ok := room.Player(role.Opponent()); ok {
			resp.OpponentName = opp.Name
		}
		_, resp.YourMoveIn = room.Moves[role]
		_, resp.OpponentMoveIn = room.Moves[role.Opponent()]
	}

	return resp
}

// CreateRoomResponse is the response for room creation
type CreateRoomResponse struct {
	Room      Room   `json:"room"`
	ShareLink string `json:"share_link"`
}

// MoveResponse is the response after submitting a move
type MoveResponse struct {
	Move    string `json:"move"`
	Waiting bool   `json:"waiting"`
}

// Score represents the durable score in API responses
type Score struct {
	Wins   int `json:"wins"`
	Losses int `json:"losses"`
	Ties   int `json:"ties"`
}

// ScoreFromModel converts a model.Score
func ScoreFromModel(s model.Score) Score {
	return Score{Wins: s.Wins, Losses: s.Losses, Ties: s.Ties}
}

// ViewerCount is the response for the presence count endpoint
type ViewerCount struct {
	Viewers int `json:"viewers"`
}
