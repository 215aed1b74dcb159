package round

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/playrps/rpsroom/internal/dependencies/clock"
	"github.com/playrps/rpsroom/internal/model"
	"github.com/playrps/rpsroom/internal/session"
	"github.com/playrps/rpsroom/internal/store"
)

const (
	defaultMoveRetries = 3
	defaultMoveBackoff = 250 * time.Millisecond
)

// Synchronizer submits moves, resets rounds and turns a room's snapshot
// stream into per-client round updates
type Synchronizer struct {
	store    store.RoomStore
	sessions *session.Manager
	clock    clock.Clock
	logger   *slog.Logger

	moveRetries int
	moveBackoff time.Duration
}

// NewSynchronizer creates a new Synchronizer
func NewSynchronizer(
	roomStore store.RoomStore,
	sessions *session.Manager,
	clk clock.Clock,
	logger *slog.Logger,
) *Synchronizer {
	return &Synchronizer{
		store:       roomStore,
		sessions:    sessions,
		clock:       clk,
		logger:      logger.With(slog.String("component", "round")),
		moveRetries: defaultMoveRetries,
		moveBackoff: defaultMoveBackoff,
	}
}

// SubmitMove records the caller's move for the current round. While the
// room has an empty slot the submission is rejected locally with
// WaitingForOpponent and nothing reaches the store. Re-submitting before
// the opponent has moved overwrites the earlier move (last write wins);
// once both moves are in, further submissions are ignored until reset.
// The write itself is retried with backoff; exhausting the retries
// reports StoreUnavailable and the round stays unresolved rather than
// half-written.
func (s *Synchronizer) SubmitMove(ctx context.Context, cctx *model.ClientContext, raw string) (model.Move, error) {
	if cctx == nil || cctx.Identity == "" {
		return "", model.ErrNotAuthenticated
	}
	if !cctx.InRoom() {
		return "", model.ErrNotInRoom
	}

	move, err := model.ParseMove(raw)
	if err != nil {
		return "", err
	}

	room, err := s.store.GetRoom(ctx, cctx.RoomCode)
	if err != nil {
		return "", err
	}
	if info, ok := room.Player(cctx.Role); !ok || info.Identity != cctx.Identity {
		return "", model.ErrNotInRoom
	}
	if !room.BothSlotsFilled() {
		return "", model.ErrWaitingForOpponent
	}
	if room.BothMovesIn() {
		// Round complete; the stored move stands until a reset
		return room.Moves[cctx.Role], nil
	}

	if err := s.writeMove(ctx, cctx.RoomCode, cctx.Role, move); err != nil {
		return "", err
	}
	return move, nil
}

// writeMove retries the single-field write with exponential backoff
func (s *Synchronizer) writeMove(ctx context.Context, code model.RoomCode, slot model.Slot, move model.Move) error {
	var lastErr error
	delay := s.moveBackoff
	for attempt := 0; attempt <= s.moveRetries; attempt++ {
		if attempt > 0 {
			s.clock.Sleep(delay)
			delay *= 2
		}
		lastErr = s.store.SetMove(ctx, code, slot, move)
		if lastErr == nil {
			return nil
		}
		s.logger.Warn("move write failed",
			slog.String("code", string(code)),
			slog.Int("attempt", attempt+1),
			slog.String("error", lastErr.Error()),
		)
	}
	return fmt.Errorf("%w: %v", model.ErrStoreUnavailable, lastErr)
}

// ResetRound clears both moves and advances the round epoch. Either
// player may reset; the epoch bump keeps a client that still holds the
// pre-reset snapshot from resolving the old round twice.
func (s *Synchronizer) ResetRound(ctx context.Context, cctx *model.ClientContext) error {
	if cctx == nil || cctx.Identity == "" {
		return model.ErrNotAuthenticated
	}
	if !cctx.InRoom() {
		return model.ErrNotInRoom
	}
	return s.store.ClearMoves(ctx, cctx.RoomCode, model.RoomStatusPlaying)
}

// Update pairs the reduced state with the resolution that produced it,
// when one fired, and the caller's durable score as of this update
type Update struct {
	State      State
	Resolution *Resolution
	Score      model.Score
}

// Watch subscribes to the caller's room and reduces its snapshots into
// updates. A resolution is recorded into the durable score before its
// update is delivered. The channel closes when the room is deleted or
// ctx ends.
//
// Score recording assumes one stream per identity: each stream reduces
// independently, so a second concurrent Watch for the same identity
// would count the same resolution twice.
func (s *Synchronizer) Watch(ctx context.Context, cctx *model.ClientContext) (<-chan Update, error) {
	if cctx == nil || cctx.Identity == "" {
		return nil, model.ErrNotAuthenticated
	}
	if !cctx.InRoom() {
		return nil, model.ErrNotInRoom
	}

	sub, err := s.store.Subscribe(ctx, cctx.RoomCode)
	if err != nil {
		return nil, err
	}

	updates := make(chan Update, 8)
	go s.run(ctx, cctx, sub, updates)
	return updates, nil
}

func (s *Synchronizer) run(ctx context.Context, cctx *model.ClientContext, sub store.Subscription, updates chan<- Update) {
	defer close(updates)
	defer sub.Close()

	state := NewState(cctx.Role)
	score, err := s.sessions.Score(ctx, cctx.Identity)
	if err != nil {
		s.logger.Warn("score load failed", slog.String("error", err.Error()))
	}

	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-sub.Snapshots():
			if !ok {
				return
			}

			var res *Resolution
			state, res = Apply(state, snap)
			if res != nil {
				score, err = s.sessions.RecordResult(ctx, cctx.Identity, res.Result)
				if err != nil {
					s.logger.Warn("score record failed", slog.String("error", err.Error()))
				}
				// First resolution moves the room into playing
				if snap.Status != model.RoomStatusPlaying {
					if err := s.store.SetStatus(ctx, cctx.RoomCode, model.RoomStatusPlaying); err != nil {
						s.logger.Warn("status update failed", slog.String("error", err.Error()))
					}
				}
			}

			select {
			case <-ctx.Done():
				return
			case updates <- Update{State: state, Resolution: res, Score: score}:
			}
		}
	}
}
