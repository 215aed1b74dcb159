package round_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/playrps/rpsroom/internal/dependencies/mocks"
	"github.com/playrps/rpsroom/internal/model"
	"github.com/playrps/rpsroom/internal/services/round"
	"github.com/playrps/rpsroom/internal/session"
	"github.com/playrps/rpsroom/internal/store"
	"github.com/playrps/rpsroom/internal/store/memory"
	"github.com/playrps/rpsroom/internal/testutil"
)

// flakyStore fails a configured number of move writes before recovering
type flakyStore struct {
	store.RoomStore
	failures int
}

func (f *flakyStore) SetMove(ctx context.Context, code model.RoomCode, slot model.Slot, move model.Move) error {
	if f.failures > 0 {
		f.failures--
		return errors.New("connection refused")
	}
	return f.RoomStore.SetMove(ctx, code, slot, move)
}

type SynchronizerTestSuite struct {
	suite.Suite
	ctx      context.Context
	store    *memory.Store
	flaky    *flakyStore
	clock    *mocks.MockClock
	random   *mocks.MockRandom
	sessions *session.Manager
	sync     *round.Synchronizer

	code  model.RoomCode
	alice *model.ClientContext
	bob   *model.ClientContext
}

func TestSynchronizerTestSuite(t *testing.T) {
	suite.Run(t, new(SynchronizerTestSuite))
}

func (s *SynchronizerTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memory.New()
	s.flaky = &flakyStore{RoomStore: s.store}
	s.clock = mocks.NewMockClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	s.random = mocks.NewMockRandom()
	s.sessions = session.NewManager(session.NewMemoryStore(), s.random, testutil.NopLogger())
	s.sync = round.NewSynchronizer(s.flaky, s.sessions, s.clock, testutil.NopLogger())

	s.random.QueueIntn(1111)
	alice, err := s.sessions.StartSession(s.ctx)
	s.Require().NoError(err)
	s.random.QueueIntn(2222)
	bob, err := s.sessions.StartSession(s.ctx)
	s.Require().NoError(err)
	s.alice, s.bob = alice, bob

	s.code = model.RoomCode("4821")
	created, err := s.store.CreateRoom(s.ctx, &model.Room{
		Code:   s.code,
		Status: model.RoomStatusReady,
		Players: map[model.Slot]model.PlayerInfo{
			model.Slot1: {Name: "Alice", Identity: alice.Identity},
			model.Slot2: {Name: "Bob", Ready: true, Identity: bob.Identity},
		},
		Moves:     map[model.Slot]model.Move{},
		CreatedAt: s.clock.Now(),
		UpdatedAt: s.clock.Now(),
	})
	s.Require().NoError(err)
	s.Require().True(created)

	s.Require().NoError(s.sessions.BindRoom(s.ctx, s.alice, s.code, model.Slot1, "Bob"))
	s.Require().NoError(s.sessions.BindRoom(s.ctx, s.bob, s.code, model.Slot2, "Alice"))
}

func (s *SynchronizerTestSuite) nextUpdate(ch <-chan round.Update) round.Update {
	s.T().Helper()
	select {
	case u, ok := <-ch:
		s.Require().True(ok, "updates channel closed")
		return u
	case <-time.After(2 * time.Second):
		s.Require().FailNow("timed out waiting for update")
		return round.Update{}
	}
}

// nextResolved drains updates until one carries a resolution
func (s *SynchronizerTestSuite) nextResolved(ch <-chan round.Update) round.Update {
	s.T().Helper()
	for i := 0; i < 10; i++ {
		u := s.nextUpdate(ch)
		if u.Resolution != nil {
			return u
		}
	}
	s.Require().FailNow("no resolution delivered")
	return round.Update{}
}

func (s *SynchronizerTestSuite) TestSubmitMove() {
	move, err := s.sync.SubmitMove(s.ctx, s.alice, "rock")
	s.Require().NoError(err)
	s.Equal(model.MoveRock, move)

	room, err := s.store.GetRoom(s.ctx, s.code)
	s.Require().NoError(err)
	s.Equal(model.MoveRock, room.Moves[model.Slot1])
}

func (s *SynchronizerTestSuite) TestSubmitMoveInvalid() {
	_, err := s.sync.SubmitMove(s.ctx, s.alice, "dynamite")
	s.Require().ErrorIs(err, model.ErrInvalidMove)
}

func (s *SynchronizerTestSuite) TestSubmitMoveRejectedWhileSlotEmpty() {
	// Back to a one-player room
	s.Require().NoError(s.store.ClearSlot(s.ctx, s.code, model.Slot2))
	s.Require().NoError(s.store.SetStatus(s.ctx, s.code, model.RoomStatusWaiting))

	_, err := s.sync.SubmitMove(s.ctx, s.alice, "rock")
	s.Require().ErrorIs(err, model.ErrWaitingForOpponent)

	// Rejected locally; nothing reached the store
	room, err := s.store.GetRoom(s.ctx, s.code)
	s.Require().NoError(err)
	s.Empty(room.Moves)
}

func (s *SynchronizerTestSuite) TestSubmitMoveOverwritesBeforeOpponentMoves() {
	_, err := s.sync.SubmitMove(s.ctx, s.alice, "rock")
	s.Require().NoError(err)

	move, err := s.sync.SubmitMove(s.ctx, s.alice, "paper")
	s.Require().NoError(err)
	s.Equal(model.MovePaper, move)

	// Last write wins
	room, err := s.store.GetRoom(s.ctx, s.code)
	s.Require().NoError(err)
	s.Equal(model.MovePaper, room.Moves[model.Slot1])
}

func (s *SynchronizerTestSuite) TestSubmitMoveIgnoredOnceRoundComplete() {
	_, err := s.sync.SubmitMove(s.ctx, s.alice, "rock")
	s.Require().NoError(err)
	_, err = s.sync.SubmitMove(s.ctx, s.bob, "scissor")
	s.Require().NoError(err)

	// The complete round is frozen until reset
	move, err := s.sync.SubmitMove(s.ctx, s.alice, "paper")
	s.Require().NoError(err)
	s.Equal(model.MoveRock, move)

	room, err := s.store.GetRoom(s.ctx, s.code)
	s.Require().NoError(err)
	s.Equal(model.MoveRock, room.Moves[model.Slot1])
	s.Equal(model.MoveScissor, room.Moves[model.Slot2])
}

func (s *SynchronizerTestSuite) TestSubmitMoveRetriesTransientFailures() {
	s.flaky.failures = 2

	move, err := s.sync.SubmitMove(s.ctx, s.alice, "paper")
	s.Require().NoError(err)
	s.Equal(model.MovePaper, move)

	// Two failed attempts, two backoff sleeps, doubling
	s.Require().Len(s.clock.Slept, 2)
	s.Equal(s.clock.Slept[1], 2*s.clock.Slept[0])
}

func (s *SynchronizerTestSuite) TestSubmitMoveStoreUnavailable() {
	s.flaky.failures = 10

	_, err := s.sync.SubmitMove(s.ctx, s.alice, "paper")
	s.Require().ErrorIs(err, model.ErrStoreUnavailable)
	s.Len(s.clock.Slept, 3)

	room, getErr := s.store.GetRoom(s.ctx, s.code)
	s.Require().NoError(getErr)
	s.Empty(room.Moves)
}

func (s *SynchronizerTestSuite) TestWatchResolvesRoundForBothPlayers() {
	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()

	aliceCh, err := s.sync.Watch(ctx, s.alice)
	s.Require().NoError(err)
	bobCh, err := s.sync.Watch(ctx, s.bob)
	s.Require().NoError(err)

	_, err = s.sync.SubmitMove(s.ctx, s.alice, "rock")
	s.Require().NoError(err)
	_, err = s.sync.SubmitMove(s.ctx, s.bob, "scissor")
	s.Require().NoError(err)

	aliceUpdate := s.nextResolved(aliceCh)
	s.Equal(model.RoundWin, aliceUpdate.Resolution.Result)
	s.Equal(model.MoveRock, aliceUpdate.Resolution.MyMove)
	s.Equal(model.MoveScissor, aliceUpdate.Resolution.TheirMove)
	s.Equal(model.Score{Wins: 1}, aliceUpdate.Score)

	bobUpdate := s.nextResolved(bobCh)
	s.Equal(model.RoundLose, bobUpdate.Resolution.Result)
	s.Equal(model.Score{Losses: 1}, bobUpdate.Score)

	// The first resolution moves the room into playing
	room, err := s.store.GetRoom(s.ctx, s.code)
	s.Require().NoError(err)
	s.Equal(model.RoomStatusPlaying, room.Status)
}

func (s *SynchronizerTestSuite) TestWatchResolvesOnceAcrossReset() {
	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()

	aliceCh, err := s.sync.Watch(ctx, s.alice)
	s.Require().NoError(err)

	_, err = s.sync.SubmitMove(s.ctx, s.alice, "rock")
	s.Require().NoError(err)
	_, err = s.sync.SubmitMove(s.ctx, s.bob, "scissor")
	s.Require().NoError(err)

	first := s.nextResolved(aliceCh)
	s.EqualValues(0, first.Resolution.Epoch)

	s.Require().NoError(s.sync.ResetRound(s.ctx, s.alice))

	_, err = s.sync.SubmitMove(s.ctx, s.alice, "paper")
	s.Require().NoError(err)
	_, err = s.sync.SubmitMove(s.ctx, s.bob, "paper")
	s.Require().NoError(err)

	second := s.nextResolved(aliceCh)
	s.EqualValues(1, second.Resolution.Epoch)
	s.Equal(model.RoundTie, second.Resolution.Result)
	s.Equal(model.Score{Wins: 1, Ties: 1}, second.Score)
}

func (s *SynchronizerTestSuite) TestWatchClosesWhenRoomDeleted() {
	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()

	aliceCh, err := s.sync.Watch(ctx, s.alice)
	s.Require().NoError(err)
	s.nextUpdate(aliceCh)

	s.Require().NoError(s.store.DeleteRoom(s.ctx, s.code))

	select {
	case _, ok := <-aliceCh:
		if ok {
			// Drain any buffered update before the close
			for range aliceCh {
			}
		}
	case <-time.After(2 * time.Second):
		s.Require().FailNow("updates channel did not close")
	}
}

func (s *SynchronizerTestSuite) TestWatchRequiresRoomBinding() {
	s.random.QueueIntn(3333)
	outsider, err := s.sessions.StartSession(s.ctx)
	s.Require().NoError(err)

	_, err = s.sync.Watch(s.ctx, outsider)
	s.Require().ErrorIs(err, model.ErrNotInRoom)
}
