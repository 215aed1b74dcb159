package store

import (
	"context"

	"github.com/playrps/rpsroom/internal/model"
)

// Subscription delivers full room snapshots to a single consumer. A
// snapshot arrives for every change to any field of the room, at least
// once, in the store's delivery order. The channel is closed when the room
// is deleted or the subscription is closed.
type Subscription interface {
	Snapshots() <-chan *model.Room
	Close()
}

// RoomStore is the contract over the shared document store. All writes are
// last-write-wins at field granularity; there is no multi-field transaction,
// so callers must tolerate interleavings and always reconcile from the
// latest snapshot.
type RoomStore interface {
	// CreateRoom writes the room document only if none exists at its code.
	// Returns true if this call created it.
	CreateRoom(ctx context.Context, room *model.Room) (bool, error)

	// GetRoom returns the current document, or model.ErrRoomNotFound.
	GetRoom(ctx context.Context, code model.RoomCode) (*model.Room, error)

	// ClaimSlot writes a slot occupant only if the slot is currently empty.
	// Returns false if the slot was already taken.
	ClaimSlot(ctx context.Context, code model.RoomCode, slot model.Slot, info model.PlayerInfo) (bool, error)

	// SetPlayer overwrites a slot occupant unconditionally (ready flags,
	// display name updates).
	SetPlayer(ctx context.Context, code model.RoomCode, slot model.Slot, info model.PlayerInfo) error

	// SetStatus writes the status field.
	SetStatus(ctx context.Context, code model.RoomCode, status model.RoomStatus) error

	// SetMove writes one slot's move for the current round. Overwrites any
	// previous move for the slot.
	SetMove(ctx context.Context, code model.RoomCode, slot model.Slot, move model.Move) error

	// ClearMoves removes both moves, increments the round epoch and sets
	// the status, starting the next round.
	ClearMoves(ctx context.Context, code model.RoomCode, status model.RoomStatus) error

	// ClearSlot vacates a slot occupant.
	ClearSlot(ctx context.Context, code model.RoomCode, slot model.Slot) error

	// DeleteRoom removes the document. Open subscriptions are closed.
	DeleteRoom(ctx context.Context, code model.RoomCode) error

	// RoomExists reports whether a document exists at the code.
	RoomExists(ctx context.Context, code model.RoomCode) (bool, error)

	// Subscribe starts snapshot delivery for a room. The current snapshot
	// is delivered immediately if the room exists.
	Subscribe(ctx context.Context, code model.RoomCode) (Subscription, error)

	// Live-viewer registry. Entries are best-effort: the store removes a
	// viewer automatically when its owning connection stops refreshing.
	SetViewerOnline(ctx context.Context, id model.ClientID) error
	SetViewerOffline(ctx context.Context, id model.ClientID) error
	ViewerCount(ctx context.Context) (int, error)

	Close() error
}
