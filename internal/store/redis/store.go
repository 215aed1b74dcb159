package redis

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/playrps/rpsroom/internal/model"
	"github.com/playrps/rpsroom/internal/store"
)

// changed is the only payload published on room channels. Subscribers
// re-read the room on every notification instead of trusting the message
// body, so duplicated or reordered deliveries are harmless.
const changed = "changed"

// Store is a Redis-backed implementation of the room store. A room is a
// hash so that each document field can be written independently; slot
// claims use HSETNX so two racing joiners cannot both win a slot.
type Store struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis store
func New(cfg Config) (*Store, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Store{client: client, cfg: cfg}, nil
}

// NewWithClient creates a Redis store with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Store {
	return &Store{client: client, cfg: cfg}
}

// Close closes the Redis connection
func (s *Store) Close() error {
	return s.client.Close()
}

// Client exposes the underlying connection so other Redis-backed
// components can share the pool
func (s *Store) Client() *redis.Client {
	return s.client
}

// Ensure Store implements the interface
var _ store.RoomStore = (*Store)(nil)

// Room operations

func (s *Store) CreateRoom(ctx context.Context, room *model.Room) (bool, error) {
	key := roomKey(room.Code)

	// The created_at field doubles as the existence marker; HSETNX on it
	// decides which of two racing creators owns the document.
	claimed, err := s.client.HSetNX(ctx, key, fieldCreatedAt, room.CreatedAt.Format(time.RFC3339Nano)).Result()
	if err != nil {
		return false, err
	}
	if !claimed {
		return false, nil
	}

	pipe := s.client.Pipeline()
	pipe.HSet(ctx, key,
		fieldCode, string(room.Code),
		fieldStatus, string(room.Status),
		fieldEpoch, room.RoundEpoch,
		fieldUpdatedAt, room.UpdatedAt.Format(time.RFC3339Nano),
	)
	for slot, info := range room.Players {
		data, err := json.Marshal(info)
		if err != nil {
			return false, err
		}
		pipe.HSet(ctx, key, playerField(slot), data)
	}
	for slot, move := range room.Moves {
		pipe.HSet(ctx, key, moveField(slot), string(move))
	}
	pipe.Expire(ctx, key, s.cfg.RoomTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}

	return true, s.publish(ctx, room.Code)
}

func (s *Store) GetRoom(ctx context.Context, code model.RoomCode) (*model.Room, error) {
	fields, err := s.client.HGetAll(ctx, roomKey(code)).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, model.ErrRoomNotFound
	}
	return roomFromHash(code, fields)
}

// roomFromHash reconstructs a room from its hash fields. Missing or
// malformed fields are treated as "not yet present" rather than errors;
// clients must never crash on a partial snapshot.
func roomFromHash(code model.RoomCode, fields map[string]string) (*model.Room, error) {
	room := &model.Room{
		Code:    code,
		Status:  model.RoomStatusWaiting,
		Players: make(map[model.Slot]model.PlayerInfo),
		Moves:   make(map[model.Slot]model.Move),
	}

	if v, ok := fields[fieldStatus]; ok {
		room.Status = model.RoomStatus(v)
	}
	if v, ok := fields[fieldEpoch]; ok {
		if epoch, err := strconv.ParseInt(v, 10, 64); err == nil {
			room.RoundEpoch = epoch
		}
	}
	if v, ok := fields[fieldCreatedAt]; ok {
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			room.CreatedAt = t
		}
	}
	if v, ok := fields[fieldUpdatedAt]; ok {
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			room.UpdatedAt = t
		}
	}

	for _, slot := range []model.Slot{model.Slot1, model.Slot2} {
		if v, ok := fields[playerField(slot)]; ok {
			var info model.PlayerInfo
			if err := json.Unmarshal([]byte(v), &info); err == nil {
				room.Players[slot] = info
			}
		}
		if v, ok := fields[moveField(slot)]; ok {
			if move, err := model.ParseMove(v); err == nil {
				room.Moves[slot] = move
			}
		}
	}

	return room, nil
}

func (s *Store) ClaimSlot(ctx context.Context, code model.RoomCode, slot model.Slot, info model.PlayerInfo) (bool, error) {
	key := roomKey(code)

	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if exists == 0 {
		return false, model.ErrRoomNotFound
	}

	data, err := json.Marshal(info)
	if err != nil {
		return false, err
	}

	claimed, err := s.client.HSetNX(ctx, key, playerField(slot), data).Result()
	if err != nil {
		return false, err
	}
	if !claimed {
		return false, nil
	}

	if err := s.touch(ctx, code); err != nil {
		return true, err
	}
	return true, s.publish(ctx, code)
}

func (s *Store) SetPlayer(ctx context.Context, code model.RoomCode, slot model.Slot, info model.PlayerInfo) error {
	data, err := json.Marshal(info)
	if err != nil {
		return err
	}
	return s.setField(ctx, code, playerField(slot), data)
}

func (s *Store) SetStatus(ctx context.Context, code model.RoomCode, status model.RoomStatus) error {
	return s.setField(ctx, code, fieldStatus, string(status))
}

func (s *Store) SetMove(ctx context.Context, code model.RoomCode, slot model.Slot, move model.Move) error {
	return s.setField(ctx, code, moveField(slot), string(move))
}

func (s *Store) ClearMoves(ctx context.Context, code model.RoomCode, status model.RoomStatus) error {
	key := roomKey(code)

	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return err
	}
	if exists == 0 {
		return model.ErrRoomNotFound
	}

	pipe := s.client.Pipeline()
	pipe.HDel(ctx, key, moveField(model.Slot1), moveField(model.Slot2))
	pipe.HIncrBy(ctx, key, fieldEpoch, 1)
	pipe.HSet(ctx, key, fieldStatus, string(status))
	pipe.HSet(ctx, key, fieldUpdatedAt, time.Now().Format(time.RFC3339Nano))
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}

	return s.publish(ctx, code)
}

func (s *Store) ClearSlot(ctx context.Context, code model.RoomCode, slot model.Slot) error {
	key := roomKey(code)

	if err := s.client.HDel(ctx, key, playerField(slot)).Err(); err != nil {
		return err
	}
	if err := s.touch(ctx, code); err != nil {
		return err
	}
	return s.publish(ctx, code)
}

func (s *Store) DeleteRoom(ctx context.Context, code model.RoomCode) error {
	if err := s.client.Del(ctx, roomKey(code)).Err(); err != nil {
		return err
	}
	// Subscribers re-read on notification, find the room gone, and close.
	return s.publish(ctx, code)
}

func (s *Store) RoomExists(ctx context.Context, code model.RoomCode) (bool, error) {
	exists, err := s.client.Exists(ctx, roomKey(code)).Result()
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}

// setField writes one hash field, bumps updated_at and notifies
func (s *Store) setField(ctx context.Context, code model.RoomCode, field string, value any) error {
	key := roomKey(code)

	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return err
	}
	if exists == 0 {
		return model.ErrRoomNotFound
	}

	pipe := s.client.Pipeline()
	pipe.HSet(ctx, key, field, value)
	pipe.HSet(ctx, key, fieldUpdatedAt, time.Now().Format(time.RFC3339Nano))
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}

	return s.publish(ctx, code)
}

func (s *Store) touch(ctx context.Context, code model.RoomCode) error {
	return s.client.HSet(ctx, roomKey(code), fieldUpdatedAt, time.Now().Format(time.RFC3339Nano)).Err()
}

func (s *Store) publish(ctx context.Context, code model.RoomCode) error {
	return s.client.Publish(ctx, roomChannel(code), changed).Err()
}

// Subscriptions

type subscription struct {
	pubsub *redis.PubSub
	ch     chan *model.Room
	cancel context.CancelFunc
}

func (sub *subscription) Snapshots() <-chan *model.Room {
	return sub.ch
}

func (sub *subscription) Close() {
	sub.cancel()
	_ = sub.pubsub.Close()
}

func (s *Store) Subscribe(ctx context.Context, code model.RoomCode) (store.Subscription, error) {
	pubsub := s.client.Subscribe(ctx, roomChannel(code))

	// Force the subscription onto the wire before the initial read, so no
	// change between the read and the first message is missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	sub := &subscription{
		pubsub: pubsub,
		ch:     make(chan *model.Room, 16),
		cancel: cancel,
	}

	go sub.run(runCtx, s, code)
	return sub, nil
}

func (sub *subscription) run(ctx context.Context, s *Store, code model.RoomCode) {
	defer close(sub.ch)

	// Initial snapshot, if the room already exists
	if room, err := s.GetRoom(ctx, code); err == nil {
		sub.deliver(ctx, room)
	}

	msgs := sub.pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-msgs:
			if !ok {
				return
			}
			room, err := s.GetRoom(ctx, code)
			if errors.Is(err, model.ErrRoomNotFound) {
				// Room deleted; end the subscription
				return
			}
			if err != nil {
				continue
			}
			sub.deliver(ctx, room)
		}
	}
}

func (sub *subscription) deliver(ctx context.Context, room *model.Room) {
	select {
	case sub.ch <- room:
	case <-ctx.Done():
	}
}

// Viewer operations

func (s *Store) SetViewerOnline(ctx context.Context, id model.ClientID) error {
	return s.client.Set(ctx, viewerKey(id), "1", s.cfg.ViewerTTL).Err()
}

func (s *Store) SetViewerOffline(ctx context.Context, id model.ClientID) error {
	return s.client.Del(ctx, viewerKey(id)).Err()
}

func (s *Store) ViewerCount(ctx context.Context) (int, error) {
	keys, err := s.client.Keys(ctx, viewerPattern()).Result()
	if err != nil {
		return 0, err
	}
	return len(keys), nil
}
