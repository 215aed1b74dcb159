package model

import "time"

// RoomCode is the human-shareable identifier for joining rooms.
// Codes are four digits and unique only among live rooms; expired codes
// are recycled.
type RoomCode string

// RoomStatus represents the current state of a room
type RoomStatus string

const (
	RoomStatusWaiting RoomStatus = "waiting" // fewer than two slots filled
	RoomStatusReady   RoomStatus = "ready"   // both slots filled, no round resolved yet
	RoomStatusPlaying RoomStatus = "playing" // at least one round resolved
)

// Slot identifies one of the two fixed occupancy positions in a room
type Slot string

const (
	Slot1 Slot = "slot1" // creator
	Slot2 Slot = "slot2" // first successful joiner
)

// Opponent returns the other slot
func (s Slot) Opponent() Slot {
	if s == Slot1 {
		return Slot2
	}
	return Slot1
}

// ClientID is the opaque identity of a connected client, provided by the
// external identity layer
type ClientID string

// PlayerInfo describes a slot occupant
type PlayerInfo struct {
	Name     string   `json:"name"`
	Ready    bool     `json:"ready"`
	Identity ClientID `json:"identity"`
}

// Room is the shared document representing one two-player match.
// It is the single shared mutable resource between the two clients; all
// writes are field-granular and last-write-wins, so consumers derive state
// from whole snapshots rather than deltas.
type Room struct {
	Code    RoomCode            `json:"code"`
	Status  RoomStatus          `json:"status"`
	Players map[Slot]PlayerInfo `json:"players"`
	Moves   map[Slot]Move       `json:"moves"`
	// RoundEpoch increments on every reset. Resolution is gated on it so a
	// stale pre-reset snapshot cannot re-fire a round.
	RoundEpoch int64     `json:"round_epoch"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Player returns the occupant of a slot, if any
func (r *Room) Player(s Slot) (PlayerInfo, bool) {
	p, ok := r.Players[s]
	return p, ok
}

// SlotOf returns the slot occupied by the given identity, if any
func (r *Room) SlotOf(id ClientID) (Slot, bool) {
	for _, s := range []Slot{Slot1, Slot2} {
		if p, ok := r.Players[s]; ok && p.Identity == id {
			return s, true
		}
	}
	return "", false
}

// BothSlotsFilled reports whether both player slots are occupied
func (r *Room) BothSlotsFilled() bool {
	_, p1 := r.Players[Slot1]
	_, p2 := r.Players[Slot2]
	return p1 && p2
}

// BothMovesIn reports whether both players have submitted a move for the
// current round
func (r *Room) BothMovesIn() bool {
	_, m1 := r.Moves[Slot1]
	_, m2 := r.Moves[Slot2]
	return m1 && m2
}

// BothReady reports whether both occupants have flagged ready
func (r *Room) BothReady() bool {
	p1, ok1 := r.Players[Slot1]
	p2, ok2 := r.Players[Slot2]
	return ok1 && ok2 && p1.Ready && p2.Ready
}

// ExpiredAt reports whether a still-waiting room is past its code TTL at
// the given instant. Rooms with both slots filled never expire. The
// boundary matches the allocator: a code is dead the moment the full TTL
// has elapsed.
func (r *Room) ExpiredAt(now time.Time, ttl time.Duration) bool {
	return r.Status == RoomStatusWaiting && now.Sub(r.CreatedAt) >= ttl
}

// Clone returns a deep copy of the room. Snapshots handed to subscribers
// must not alias store-owned maps.
func (r *Room) Clone() *Room {
	out := *r
	out.Players = make(map[Slot]PlayerInfo, len(r.Players))
	for s, p := range r.Players {
		out.Players[s] = p
	}
	out.Moves = make(map[Slot]Move, len(r.Moves))
	for s, m := range r.Moves {
		out.Moves[s] = m
	}
	return &out
}
