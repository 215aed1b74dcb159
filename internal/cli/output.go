package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Println(string(data))
	} else {
		fmt.Println(msg)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Session:
		o.printSession(v)
	case Room:
		o.printRoom(v)
	case CreateRoomResult:
		o.printCreateRoomResult(v)
	case MoveResult:
		o.printMoveResult(v)
	case Score:
		o.printScore(v)
	case ViewerCount:
		fmt.Printf("Viewers online: %d\n", v.Viewers)
	case HealthResult:
		fmt.Printf("Status: %s\n", v.Status)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Session response type (matches API)
type Session struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	RoomCode    string `json:"room_code,omitempty"`
	Role        string `json:"role,omitempty"`
	Accent      string `json:"accent,omitempty"`
}

// RoomPlayer response type
type RoomPlayer struct {
	Name  string `json:"name"`
	Ready bool   `json:"ready"`
}

// Room response type
type Room struct {
	Code           string                `json:"code"`
	Status         string                `json:"status"`
	Players        map[string]RoomPlayer `json:"players"`
	RoundEpoch     int64                 `json:"round_epoch"`
	YourRole       string                `json:"your_role,omitempty"`
	OpponentName   string                `json:"opponent_name,omitempty"`
	YourMoveIn     bool                  `json:"your_move_in"`
	OpponentMoveIn bool                  `json:"opponent_move_in"`
}

// CreateRoomResult response type
type CreateRoomResult struct {
	Room      Room   `json:"room"`
	ShareLink string `json:"share_link"`
}

// MoveResult response type
type MoveResult struct {
	Move    string `json:"move"`
	Waiting bool   `json:"waiting"`
}

// Score response type
type Score struct {
	Wins   int `json:"wins"`
	Losses int `json:"losses"`
	Ties   int `json:"ties"`
}

// ViewerCount response type
type ViewerCount struct {
	Viewers int `json:"viewers"`
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

func (o *Output) printSession(s Session) {
	fmt.Printf("Session: %s\n", s.ID)
	fmt.Printf("Name: %s\n", s.DisplayName)
	if s.RoomCode != "" {
		fmt.Printf("Room: %s (%s)\n", s.RoomCode, s.Role)
	}
	if s.Accent != "" {
		fmt.Printf("Accent: %s\n", s.Accent)
	}
}

func (o *Output) printRoom(r Room) {
	fmt.Printf("Room: %s\n", r.Code)
	fmt.Printf("Status: %s\n", r.Status)
	fmt.Printf("Round: %d\n", r.RoundEpoch+1)

	slots := make([]string, 0, len(r.Players))
	for slot := range r.Players {
		slots = append(slots, slot)
	}
	sort.Strings(slots)
	for _, slot := range slots {
		p := r.Players[slot]
		readyStr := ""
		if p.Ready {
			readyStr = " [ready]"
		}
		youStr := ""
		if slot == r.YourRole {
			youStr = " (you)"
		}
		fmt.Printf("  %s: %s%s%s\n", slot, p.Name, readyStr, youStr)
	}

	if r.YourRole != "" {
		fmt.Printf("Your move in: %t\n", r.YourMoveIn)
		fmt.Printf("Opponent move in: %t\n", r.OpponentMoveIn)
	}
}

func (o *Output) printCreateRoomResult(c CreateRoomResult) {
	o.printRoom(c.Room)
	fmt.Printf("Share link: %s\n", c.ShareLink)
}

func (o *Output) printMoveResult(m MoveResult) {
	if m.Waiting {
		fmt.Println("Waiting for an opponent to join")
		return
	}
	fmt.Printf("Played: %s\n", m.Move)
}

func (o *Output) printScore(s Score) {
	fmt.Printf("Wins: %d\n", s.Wins)
	fmt.Printf("Losses: %d\n", s.Losses)
	fmt.Printf("Ties: %d\n", s.Ties)
}
