package roomcode

import (
	"strconv"
	"time"

	"github.com/playrps/rpsroom/internal/dependencies/clock"
	"github.com/playrps/rpsroom/internal/dependencies/random"
	"github.com/playrps/rpsroom/internal/model"
)

const (
	// CodeTTL is how long an allocated code stays valid for reuse. A room
	// still waiting past this window must rotate to a fresh code.
	CodeTTL = 600 * time.Second

	// Codes are four digits, 1000-9999 inclusive
	codeMin  = 1000
	codeSpan = 9000
)

// Allocation records a code handed out to one client and when it was
// generated. Clients persist it so a reload within the TTL reuses the same
// code.
type Allocation struct {
	Code        model.RoomCode `json:"code"`
	GeneratedAt time.Time      `json:"generated_at"`
}

// Allocator generates human-shareable room codes. Uniqueness against
// concurrently-live rooms is best-effort only; the coordinator surfaces a
// collision when a generated code turns out to be occupied by another host.
type Allocator struct {
	clock  clock.Clock
	random random.Random
}

// New creates a new Allocator
func New(clock clock.Clock, random random.Random) *Allocator {
	return &Allocator{clock: clock, random: random}
}

// Allocate returns the previous allocation when it is still inside the TTL
// and forceNew is false; otherwise it generates a fresh code and restarts
// the TTL clock.
func (a *Allocator) Allocate(prev *Allocation, forceNew bool) Allocation {
	now := a.clock.Now()
	if prev != nil && !forceNew && now.Sub(prev.GeneratedAt) < CodeTTL {
		return *prev
	}
	return Allocation{
		Code:        model.RoomCode(strconv.Itoa(codeMin + a.random.Intn(codeSpan))),
		GeneratedAt: now,
	}
}

// Expired reports whether an allocation is past its TTL
func (a *Allocator) Expired(alloc Allocation) bool {
	return a.clock.Now().Sub(alloc.GeneratedAt) >= CodeTTL
}
