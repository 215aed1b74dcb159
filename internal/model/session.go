package model

// ClientContext is the client-local record of who this client is and which
// room/slot it currently occupies. It is an explicit value passed into
// every coordinator call; persistence is a save/load at context boundaries
// rather than ambient storage.
type ClientContext struct {
	// Identity is random per client, stable for the session's lifetime,
	// used to distinguish concurrent viewers.
	Identity    ClientID `json:"identity"`
	DisplayName string   `json:"display_name"`

	// Room binding, set at create/join time so a reload re-enters the same
	// room and slot instead of re-joining. Empty RoomCode means no room.
	RoomCode     RoomCode `json:"room_code,omitempty"`
	Role         Slot     `json:"role,omitempty"`
	OpponentName string   `json:"opponent_name,omitempty"`
}

// InRoom reports whether the context is bound to a room
func (c *ClientContext) InRoom() bool {
	return c.RoomCode != ""
}

// Score is the per-client running tally. It is owned by the local client,
// mutated only after round resolution, and persisted opaquely; the two
// clients' tallies may diverge if one misses an update.
type Score struct {
	Wins   int `json:"wins"`
	Losses int `json:"losses"`
	Ties   int `json:"ties"`
}

// Record counts one round result
func (s *Score) Record(r RoundResult) {
	switch r {
	case RoundWin:
		s.Wins++
	case RoundLose:
		s.Losses++
	case RoundTie:
		s.Ties++
	}
}
