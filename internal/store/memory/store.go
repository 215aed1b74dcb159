package memory

import (
	"context"
	"sync"
	"time"

	"github.com/playrps/rpsroom/internal/model"
	"github.com/playrps/rpsroom/internal/store"
)

const snapshotBuffer = 16

// Store is an in-memory implementation of the room store. Snapshot
// delivery is synchronous with the mutating call, which makes tests
// deterministic.
type Store struct {
	mu      sync.RWMutex
	rooms   map[model.RoomCode]*model.Room
	subs    map[model.RoomCode][]*subscription
	viewers map[model.ClientID]struct{}
	now     func() time.Time
}

// New creates a new in-memory store
func New() *Store {
	return &Store{
		rooms:   make(map[model.RoomCode]*model.Room),
		subs:    make(map[model.RoomCode][]*subscription),
		viewers: make(map[model.ClientID]struct{}),
		now:     time.Now,
	}
}

// Ensure Store implements the interface
var _ store.RoomStore = (*Store)(nil)

type subscription struct {
	s      *Store
	code   model.RoomCode
	ch     chan *model.Room
	closed bool
}

func (sub *subscription) Snapshots() <-chan *model.Room {
	return sub.ch
}

func (sub *subscription) Close() {
	sub.s.mu.Lock()
	defer sub.s.mu.Unlock()
	sub.s.detach(sub)
}

// detach removes and closes a subscription. Caller holds the lock.
func (s *Store) detach(sub *subscription) {
	if sub.closed {
		return
	}
	sub.closed = true
	close(sub.ch)
	subs := s.subs[sub.code]
	for i, candidate := range subs {
		if candidate == sub {
			s.subs[sub.code] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
}

// notify fans the current snapshot out to every subscriber of the room.
// Caller holds the lock. Sends are non-blocking; a subscriber that cannot
// keep up misses intermediate snapshots but always receives a later one,
// which is all the at-least-once contract promises.
func (s *Store) notify(code model.RoomCode) {
	room, ok := s.rooms[code]
	if !ok {
		return
	}
	for _, sub := range s.subs[code] {
		select {
		case sub.ch <- room.Clone():
		default:
		}
	}
}

// Room operations

func (s *Store) CreateRoom(ctx context.Context, room *model.Room) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.rooms[room.Code]; exists {
		return false, nil
	}
	s.rooms[room.Code] = room.Clone()
	s.notify(room.Code)
	return true, nil
}

func (s *Store) GetRoom(ctx context.Context, code model.RoomCode) (*model.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[code]
	if !ok {
		return nil, model.ErrRoomNotFound
	}
	return room.Clone(), nil
}

func (s *Store) ClaimSlot(ctx context.Context, code model.RoomCode, slot model.Slot, info model.PlayerInfo) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[code]
	if !ok {
		return false, model.ErrRoomNotFound
	}
	if _, taken := room.Players[slot]; taken {
		return false, nil
	}
	room.Players[slot] = info
	room.UpdatedAt = s.now()
	s.notify(code)
	return true, nil
}

func (s *Store) SetPlayer(ctx context.Context, code model.RoomCode, slot model.Slot, info model.PlayerInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[code]
	if !ok {
		return model.ErrRoomNotFound
	}
	room.Players[slot] = info
	room.UpdatedAt = s.now()
	s.notify(code)
	return nil
}

func (s *Store) SetStatus(ctx context.Context, code model.RoomCode, status model.RoomStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[code]
	if !ok {
		return model.ErrRoomNotFound
	}
	room.Status = status
	room.UpdatedAt = s.now()
	s.notify(code)
	return nil
}

func (s *Store) SetMove(ctx context.Context, code model.RoomCode, slot model.Slot, move model.Move) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[code]
	if !ok {
		return model.ErrRoomNotFound
	}
	room.Moves[slot] = move
	room.UpdatedAt = s.now()
	s.notify(code)
	return nil
}

func (s *Store) ClearMoves(ctx context.Context, code model.RoomCode, status model.RoomStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[code]
	if !ok {
		return model.ErrRoomNotFound
	}
	room.Moves = make(map[model.Slot]model.Move)
	room.RoundEpoch++
	room.Status = status
	room.UpdatedAt = s.now()
	s.notify(code)
	return nil
}

func (s *Store) ClearSlot(ctx context.Context, code model.RoomCode, slot model.Slot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[code]
	if !ok {
		return model.ErrRoomNotFound
	}
	delete(room.Players, slot)
	room.UpdatedAt = s.now()
	s.notify(code)
	return nil
}

func (s *Store) DeleteRoom(ctx context.Context, code model.RoomCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, code)
	for _, sub := range append([]*subscription(nil), s.subs[code]...) {
		s.detach(sub)
	}
	return nil
}

func (s *Store) RoomExists(ctx context.Context, code model.RoomCode) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.rooms[code]
	return ok, nil
}

func (s *Store) Subscribe(ctx context.Context, code model.RoomCode) (store.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub := &subscription{
		s:    s,
		code: code,
		ch:   make(chan *model.Room, snapshotBuffer),
	}
	s.subs[code] = append(s.subs[code], sub)
	// Deliver the current snapshot immediately so late subscribers resume
	// from live state rather than waiting for the next write.
	if room, ok := s.rooms[code]; ok {
		sub.ch <- room.Clone()
	}
	return sub, nil
}

// Viewer operations

func (s *Store) SetViewerOnline(ctx context.Context, id model.ClientID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.viewers[id] = struct{}{}
	return nil
}

func (s *Store) SetViewerOffline(ctx context.Context, id model.ClientID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.viewers, id)
	return nil
}

func (s *Store) ViewerCount(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.viewers), nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for code := range s.subs {
		for _, sub := range append([]*subscription(nil), s.subs[code]...) {
			s.detach(sub)
		}
	}
	return nil
}
