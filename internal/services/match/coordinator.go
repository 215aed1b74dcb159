package match

import (
	"context"
	"errors"
	"log/slog"

	"github.com/playrps/rpsroom/internal/dependencies/clock"
	"github.com/playrps/rpsroom/internal/model"
	"github.com/playrps/rpsroom/internal/services/roomcode"
	"github.com/playrps/rpsroom/internal/session"
	"github.com/playrps/rpsroom/internal/store"
)

// State is the room lifecycle as observed by one client from snapshots.
// Each client derives it independently from the latest snapshot; there is
// no shared authority beyond the document itself.
type State string

const (
	StateNoRoom  State = "no_room"
	StateWaiting State = "waiting"
	StateReady   State = "ready"
	StatePlaying State = "playing"
)

// StateOf derives the observed state from a snapshot
func StateOf(room *model.Room) State {
	switch {
	case room == nil:
		return StateNoRoom
	case !room.BothSlotsFilled():
		return StateWaiting
	case room.Status == model.RoomStatusPlaying:
		return StatePlaying
	default:
		return StateReady
	}
}

// Coordinator orchestrates room creation, joining, readiness and leaving.
// It never holds room state of its own: every decision is made against a
// fresh read, and the store's conditional writes arbitrate races.
type Coordinator struct {
	store     store.RoomStore
	allocator *roomcode.Allocator
	sessions  *session.Manager
	clock     clock.Clock
	logger    *slog.Logger
}

// NewCoordinator creates a new match Coordinator
func NewCoordinator(
	store store.RoomStore,
	allocator *roomcode.Allocator,
	sessions *session.Manager,
	clock clock.Clock,
	logger *slog.Logger,
) *Coordinator {
	return &Coordinator{
		store:     store,
		allocator: allocator,
		sessions:  sessions,
		clock:     clock,
		logger:    logger.With(slog.String("component", "match")),
	}
}

// CreateRoom allocates (or reuses) a code and creates a room with the
// caller in slot1. Creating against a code that already holds the caller's
// own room is an idempotent no-op; a code held by another live host is a
// collision. A code held by an expired room is recycled.
func (c *Coordinator) CreateRoom(ctx context.Context, cctx *model.ClientContext, hostName string, forceNew bool) (*model.Room, error) {
	if cctx == nil || cctx.Identity == "" {
		return nil, model.ErrNotAuthenticated
	}
	if hostName == "" {
		hostName = cctx.DisplayName
	}

	prev, err := c.sessions.LoadAllocation(ctx, cctx.Identity)
	if err != nil {
		return nil, err
	}

	// A code past its TTL while the room is still waiting must rotate. The
	// old room is left in place so joins against the stale code surface
	// RoomExpired rather than RoomNotFound.
	rotate := forceNew || (prev != nil && c.allocator.Expired(*prev))

	alloc := c.allocator.Allocate(prev, rotate)
	if err := c.sessions.SaveAllocation(ctx, cctx.Identity, alloc); err != nil {
		return nil, err
	}

	room, err := c.createAt(ctx, cctx, alloc.Code, hostName)
	if err != nil {
		return nil, err
	}

	opponent := ""
	if guest, ok := room.Player(model.Slot2); ok {
		opponent = guest.Name
	}
	if err := c.sessions.BindRoom(ctx, cctx, room.Code, model.Slot1, opponent); err != nil {
		return nil, err
	}

	c.logger.Info("room created",
		slog.String("code", string(room.Code)),
		slog.String("identity", string(cctx.Identity)),
	)
	return room, nil
}

// createAt performs the idempotent create against one code
func (c *Coordinator) createAt(ctx context.Context, cctx *model.ClientContext, code model.RoomCode, hostName string) (*model.Room, error) {
	now := c.clock.Now()
	fresh := &model.Room{
		Code:   code,
		Status: model.RoomStatusWaiting,
		Players: map[model.Slot]model.PlayerInfo{
			model.Slot1: {Name: hostName, Ready: false, Identity: cctx.Identity},
		},
		Moves:     map[model.Slot]model.Move{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	created, err := c.store.CreateRoom(ctx, fresh)
	if err != nil {
		return nil, err
	}
	if created {
		return fresh, nil
	}

	existing, err := c.store.GetRoom(ctx, code)
	if errors.Is(err, model.ErrRoomNotFound) {
		// Deleted between the failed create and the read; take it
		if created, err := c.store.CreateRoom(ctx, fresh); err != nil {
			return nil, err
		} else if created {
			return fresh, nil
		}
		return nil, model.ErrRoomCodeCollision
	}
	if err != nil {
		return nil, err
	}

	if host, ok := existing.Player(model.Slot1); ok && host.Identity == cctx.Identity {
		// Idempotent create: the existing document wins, including its
		// original host name.
		return existing, nil
	}

	if existing.ExpiredAt(now, roomcode.CodeTTL) {
		// Recycle a dead room holding the code
		if err := c.store.DeleteRoom(ctx, code); err != nil {
			return nil, err
		}
		if created, err := c.store.CreateRoom(ctx, fresh); err != nil {
			return nil, err
		} else if created {
			return fresh, nil
		}
	}

	return nil, model.ErrRoomCodeCollision
}

// JoinRoom claims slot2 for the caller. The read-then-claim is not atomic
// against the store; the conditional slot write arbitrates racing guests
// and the loser reports RoomFull.
func (c *Coordinator) JoinRoom(ctx context.Context, cctx *model.ClientContext, code model.RoomCode, guestName string) (*model.Room, error) {
	if cctx == nil || cctx.Identity == "" {
		return nil, model.ErrNotAuthenticated
	}
	if guestName == "" {
		guestName = cctx.DisplayName
	}

	room, err := c.store.GetRoom(ctx, code)
	if err != nil {
		return nil, err
	}
	if room.ExpiredAt(c.clock.Now(), roomcode.CodeTTL) {
		return nil, model.ErrRoomExpired
	}

	if slot, ok := room.SlotOf(cctx.Identity); ok {
		// Already in this room (reload mid-join); resume the binding
		return c.bindToRoom(ctx, cctx, room, slot)
	}

	if _, taken := room.Player(model.Slot2); taken {
		return nil, model.ErrRoomFull
	}

	info := model.PlayerInfo{Name: guestName, Ready: true, Identity: cctx.Identity}
	claimed, err := c.store.ClaimSlot(ctx, code, model.Slot2, info)
	if err != nil {
		return nil, err
	}
	if !claimed {
		// Lost the race: confirm on a retry read and report full
		if refetched, err := c.store.GetRoom(ctx, code); err == nil {
			if slot, ok := refetched.SlotOf(cctx.Identity); ok {
				return c.bindToRoom(ctx, cctx, refetched, slot)
			}
		}
		return nil, model.ErrRoomFull
	}

	if err := c.store.SetStatus(ctx, code, model.RoomStatusReady); err != nil {
		return nil, err
	}

	room, err = c.store.GetRoom(ctx, code)
	if err != nil {
		return nil, err
	}

	c.logger.Info("room joined",
		slog.String("code", string(code)),
		slog.String("identity", string(cctx.Identity)),
	)
	return c.bindToRoom(ctx, cctx, room, model.Slot2)
}

// bindToRoom records the session binding, taking the opponent's canonical
// name from the room document rather than any local cache
func (c *Coordinator) bindToRoom(ctx context.Context, cctx *model.ClientContext, room *model.Room, role model.Slot) (*model.Room, error) {
	opponent := ""
	if p, ok := room.Player(role.Opponent()); ok {
		opponent = p.Name
	}
	if err := c.sessions.BindRoom(ctx, cctx, room.Code, role, opponent); err != nil {
		return nil, err
	}
	return room, nil
}

// Resume re-enters the room recorded in the session binding after a
// reload or transient disconnect
func (c *Coordinator) Resume(ctx context.Context, cctx *model.ClientContext) (*model.Room, error) {
	if cctx == nil || cctx.Identity == "" {
		return nil, model.ErrNotAuthenticated
	}
	if !cctx.InRoom() {
		return nil, model.ErrNotInRoom
	}

	room, err := c.store.GetRoom(ctx, cctx.RoomCode)
	if errors.Is(err, model.ErrRoomNotFound) {
		_ = c.sessions.ClearRoomBinding(ctx, cctx)
		return nil, model.ErrNotInRoom
	}
	if err != nil {
		return nil, err
	}

	if slot, ok := room.SlotOf(cctx.Identity); !ok || slot != cctx.Role {
		// The slot was recycled while this client was away
		_ = c.sessions.ClearRoomBinding(ctx, cctx)
		return nil, model.ErrNotInRoom
	}

	return c.bindToRoom(ctx, cctx, room, cctx.Role)
}

// SetReady flags the caller's readiness. When both occupants are ready
// the room moves to playing even before the first round resolves.
func (c *Coordinator) SetReady(ctx context.Context, cctx *model.ClientContext, ready bool) error {
	if cctx == nil || cctx.Identity == "" {
		return model.ErrNotAuthenticated
	}
	if !cctx.InRoom() {
		return model.ErrNotInRoom
	}

	room, err := c.store.GetRoom(ctx, cctx.RoomCode)
	if err != nil {
		return err
	}
	info, ok := room.Player(cctx.Role)
	if !ok || info.Identity != cctx.Identity {
		return model.ErrNotInRoom
	}

	info.Ready = ready
	if err := c.store.SetPlayer(ctx, cctx.RoomCode, cctx.Role, info); err != nil {
		return err
	}

	refetched, err := c.store.GetRoom(ctx, cctx.RoomCode)
	if err != nil {
		return err
	}
	if refetched.BothReady() && refetched.Status == model.RoomStatusReady {
		return c.store.SetStatus(ctx, cctx.RoomCode, model.RoomStatusPlaying)
	}
	return nil
}

// LeaveRoom clears the caller's binding. The host leaving deletes the
// room; a guest leaving vacates slot2 and returns the room to waiting.
func (c *Coordinator) LeaveRoom(ctx context.Context, cctx *model.ClientContext) error {
	if cctx == nil || cctx.Identity == "" {
		return model.ErrNotAuthenticated
	}
	if !cctx.InRoom() {
		return nil
	}

	code, role := cctx.RoomCode, cctx.Role
	if err := c.sessions.ClearRoomBinding(ctx, cctx); err != nil {
		return err
	}

	if role == model.Slot1 {
		err := c.store.DeleteRoom(ctx, code)
		if err != nil && !errors.Is(err, model.ErrRoomNotFound) {
			return err
		}
		return nil
	}

	if err := c.store.ClearSlot(ctx, code, role); err != nil {
		if errors.Is(err, model.ErrRoomNotFound) {
			return nil
		}
		return err
	}
	return c.store.SetStatus(ctx, code, model.RoomStatusWaiting)
}

// Room reads the current room document, reporting expiry the same way
// a join would
func (c *Coordinator) Room(ctx context.Context, code model.RoomCode) (*model.Room, error) {
	room, err := c.store.GetRoom(ctx, code)
	if err != nil {
		return nil, err
	}
	if room.ExpiredAt(c.clock.Now(), roomcode.CodeTTL) {
		return nil, model.ErrRoomExpired
	}
	return room, nil
}

// Watch subscribes to snapshot delivery for a room
func (c *Coordinator) Watch(ctx context.Context, code model.RoomCode) (store.Subscription, error) {
	return c.store.Subscribe(ctx, code)
}
