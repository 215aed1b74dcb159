package match_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/playrps/rpsroom/internal/dependencies/mocks"
	"github.com/playrps/rpsroom/internal/model"
	"github.com/playrps/rpsroom/internal/services/match"
	"github.com/playrps/rpsroom/internal/services/roomcode"
	"github.com/playrps/rpsroom/internal/session"
	"github.com/playrps/rpsroom/internal/store"
	"github.com/playrps/rpsroom/internal/store/memory"
	"github.com/playrps/rpsroom/internal/testutil"
)

type CoordinatorTestSuite struct {
	suite.Suite
	ctx      context.Context
	store    *memory.Store
	clock    *mocks.MockClock
	random   *mocks.MockRandom
	sessions *session.Manager
	coord    *match.Coordinator
}

func TestCoordinatorTestSuite(t *testing.T) {
	suite.Run(t, new(CoordinatorTestSuite))
}

func (s *CoordinatorTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.sessions = session.NewManager(session.NewMemoryStore(), s.random, testutil.NopLogger())
	allocator := roomcode.New(s.clock, s.random)
	s.coord = match.NewCoordinator(s.store, allocator, s.sessions, s.clock, testutil.NopLogger())
}

// newClient starts a session and renames it for readability
func (s *CoordinatorTestSuite) newClient(name string) *model.ClientContext {
	s.random.QueueIntn(1234)
	cctx, err := s.sessions.StartSession(s.ctx)
	s.Require().NoError(err)
	s.Require().NoError(s.sessions.SetDisplayName(s.ctx, cctx, name))
	return cctx
}

func (s *CoordinatorTestSuite) TestCreateRoom() {
	alice := s.newClient("Alice")
	s.random.QueueIntn(2345)

	room, err := s.coord.CreateRoom(s.ctx, alice, "Alice", false)
	s.Require().NoError(err)
	s.Equal(model.RoomCode("3345"), room.Code)
	s.Equal(model.RoomStatusWaiting, room.Status)

	host, ok := room.Player(model.Slot1)
	s.Require().True(ok)
	s.Equal("Alice", host.Name)
	s.Equal(alice.Identity, host.Identity)
	s.False(host.Ready)

	s.Equal(room.Code, alice.RoomCode)
	s.Equal(model.Slot1, alice.Role)
	s.Equal(match.StateWaiting, match.StateOf(room))
}

func (s *CoordinatorTestSuite) TestCreateRoomIsIdempotentForSameHost() {
	alice := s.newClient("Alice")
	s.random.QueueIntn(2345)

	first, err := s.coord.CreateRoom(s.ctx, alice, "Alice", false)
	s.Require().NoError(err)

	// Second create within the code TTL reuses the allocation and leaves
	// the existing document untouched, even with a different name.
	s.clock.Advance(30 * time.Second)
	second, err := s.coord.CreateRoom(s.ctx, alice, "Alys", false)
	s.Require().NoError(err)
	s.Equal(first.Code, second.Code)

	host, ok := second.Player(model.Slot1)
	s.Require().True(ok)
	s.Equal("Alice", host.Name)
}

func (s *CoordinatorTestSuite) TestCreateRoomCollisionWithOtherHost() {
	alice := s.newClient("Alice")
	mallory := s.newClient("Mallory")

	s.random.QueueIntn(2345)
	room, err := s.coord.CreateRoom(s.ctx, alice, "Alice", false)
	s.Require().NoError(err)
	s.Equal(model.RoomCode("3345"), room.Code)

	// Mallory draws the same code while Alice's room is still live
	s.random.QueueIntn(2345)
	_, err = s.coord.CreateRoom(s.ctx, mallory, "Mallory", false)
	s.Require().ErrorIs(err, model.ErrRoomCodeCollision)
}

func (s *CoordinatorTestSuite) TestCreateRoomRecyclesExpiredCode() {
	alice := s.newClient("Alice")
	bob := s.newClient("Bob")

	s.random.QueueIntn(2345)
	_, err := s.coord.CreateRoom(s.ctx, alice, "Alice", false)
	s.Require().NoError(err)

	// Past the TTL the waiting room is dead and the code is free
	s.clock.Advance(roomcode.CodeTTL + time.Second)
	s.random.QueueIntn(2345)
	room, err := s.coord.CreateRoom(s.ctx, bob, "Bob", false)
	s.Require().NoError(err)
	s.Equal(model.RoomCode("3345"), room.Code)

	host, ok := room.Player(model.Slot1)
	s.Require().True(ok)
	s.Equal(bob.Identity, host.Identity)
}

func (s *CoordinatorTestSuite) TestCreateRoomForceNewRotatesCode() {
	alice := s.newClient("Alice")

	s.random.QueueIntn(2345)
	first, err := s.coord.CreateRoom(s.ctx, alice, "Alice", false)
	s.Require().NoError(err)

	s.random.QueueIntn(7777)
	second, err := s.coord.CreateRoom(s.ctx, alice, "Alice", true)
	s.Require().NoError(err)
	s.Equal(model.RoomCode("8777"), second.Code)
	s.NotEqual(first.Code, second.Code)
}

func (s *CoordinatorTestSuite) TestCreateRoomRequiresSession() {
	_, err := s.coord.CreateRoom(s.ctx, nil, "Alice", false)
	s.Require().ErrorIs(err, model.ErrNotAuthenticated)

	_, err = s.coord.CreateRoom(s.ctx, &model.ClientContext{}, "Alice", false)
	s.Require().ErrorIs(err, model.ErrNotAuthenticated)
}

func (s *CoordinatorTestSuite) TestJoinRoom() {
	alice := s.newClient("Alice")
	bob := s.newClient("Bob")

	s.random.QueueIntn(2345)
	created, err := s.coord.CreateRoom(s.ctx, alice, "Alice", false)
	s.Require().NoError(err)

	room, err := s.coord.JoinRoom(s.ctx, bob, created.Code, "Bob")
	s.Require().NoError(err)
	s.Equal(model.RoomStatusReady, room.Status)

	guest, ok := room.Player(model.Slot2)
	s.Require().True(ok)
	s.Equal("Bob", guest.Name)
	s.True(guest.Ready)

	s.Equal(created.Code, bob.RoomCode)
	s.Equal(model.Slot2, bob.Role)
	s.Equal("Alice", bob.OpponentName)
	s.Equal(match.StateReady, match.StateOf(room))
}

func (s *CoordinatorTestSuite) TestJoinRoomNotFound() {
	bob := s.newClient("Bob")
	_, err := s.coord.JoinRoom(s.ctx, bob, "4444", "Bob")
	s.Require().ErrorIs(err, model.ErrRoomNotFound)
}

func (s *CoordinatorTestSuite) TestJoinRoomExpired() {
	alice := s.newClient("Alice")
	bob := s.newClient("Bob")

	s.random.QueueIntn(2345)
	created, err := s.coord.CreateRoom(s.ctx, alice, "Alice", false)
	s.Require().NoError(err)

	s.clock.Advance(roomcode.CodeTTL + time.Second)
	_, err = s.coord.JoinRoom(s.ctx, bob, created.Code, "Bob")
	s.Require().ErrorIs(err, model.ErrRoomExpired)
}

func (s *CoordinatorTestSuite) TestJoinRoomExpiredAtExactTTL() {
	alice := s.newClient("Alice")
	bob := s.newClient("Bob")

	s.random.QueueIntn(2345)
	created, err := s.coord.CreateRoom(s.ctx, alice, "Alice", false)
	s.Require().NoError(err)

	// The room dies on the same tick the allocation rotates
	s.clock.Advance(roomcode.CodeTTL)
	_, err = s.coord.JoinRoom(s.ctx, bob, created.Code, "Bob")
	s.Require().ErrorIs(err, model.ErrRoomExpired)
}

func (s *CoordinatorTestSuite) TestJoinRoomFull() {
	alice := s.newClient("Alice")
	bob := s.newClient("Bob")
	carol := s.newClient("Carol")

	s.random.QueueIntn(2345)
	created, err := s.coord.CreateRoom(s.ctx, alice, "Alice", false)
	s.Require().NoError(err)

	_, err = s.coord.JoinRoom(s.ctx, bob, created.Code, "Bob")
	s.Require().NoError(err)

	_, err = s.coord.JoinRoom(s.ctx, carol, created.Code, "Carol")
	s.Require().ErrorIs(err, model.ErrRoomFull)
}

// slotStealingStore hands slot2 to a rival just before the delegated
// claim, simulating a guest racing in between the read and the claim
type slotStealingStore struct {
	store.RoomStore
	rival model.PlayerInfo
}

func (st *slotStealingStore) ClaimSlot(ctx context.Context, code model.RoomCode, slot model.Slot, info model.PlayerInfo) (bool, error) {
	if _, err := st.RoomStore.ClaimSlot(ctx, code, slot, st.rival); err != nil {
		return false, err
	}
	return st.RoomStore.ClaimSlot(ctx, code, slot, info)
}

func (s *CoordinatorTestSuite) TestJoinRoomLosesClaimRace() {
	alice := s.newClient("Alice")
	bob := s.newClient("Bob")
	carol := s.newClient("Carol")

	stealing := &slotStealingStore{
		RoomStore: s.store,
		rival:     model.PlayerInfo{Name: "Carol", Ready: true, Identity: carol.Identity},
	}
	allocator := roomcode.New(s.clock, s.random)
	coord := match.NewCoordinator(stealing, allocator, s.sessions, s.clock, testutil.NopLogger())

	s.random.QueueIntn(2345)
	created, err := coord.CreateRoom(s.ctx, alice, "Alice", false)
	s.Require().NoError(err)

	// Bob's read saw slot2 free, but Carol's claim lands first
	_, err = coord.JoinRoom(s.ctx, bob, created.Code, "Bob")
	s.Require().ErrorIs(err, model.ErrRoomFull)

	// Exactly one occupant, and it is the race winner
	room, err := s.store.GetRoom(s.ctx, created.Code)
	s.Require().NoError(err)
	guest, ok := room.Player(model.Slot2)
	s.Require().True(ok)
	s.Equal(carol.Identity, guest.Identity)

	// The loser keeps no binding to the room
	loaded, err := s.sessions.Load(s.ctx, bob.Identity)
	s.Require().NoError(err)
	s.False(loaded.InRoom())
}

func (s *CoordinatorTestSuite) TestJoinRoomIsIdempotentForSameGuest() {
	alice := s.newClient("Alice")
	bob := s.newClient("Bob")

	s.random.QueueIntn(2345)
	created, err := s.coord.CreateRoom(s.ctx, alice, "Alice", false)
	s.Require().NoError(err)

	_, err = s.coord.JoinRoom(s.ctx, bob, created.Code, "Bob")
	s.Require().NoError(err)

	room, err := s.coord.JoinRoom(s.ctx, bob, created.Code, "Bob")
	s.Require().NoError(err)
	s.Equal(model.Slot2, bob.Role)

	guest, ok := room.Player(model.Slot2)
	s.Require().True(ok)
	s.Equal(bob.Identity, guest.Identity)
}

func (s *CoordinatorTestSuite) TestResume() {
	alice := s.newClient("Alice")
	bob := s.newClient("Bob")

	s.random.QueueIntn(2345)
	created, err := s.coord.CreateRoom(s.ctx, alice, "Alice", false)
	s.Require().NoError(err)
	_, err = s.coord.JoinRoom(s.ctx, bob, created.Code, "Bob")
	s.Require().NoError(err)

	// Simulate a reload: rebuild the context from the session store
	reloaded, err := s.sessions.Load(s.ctx, bob.Identity)
	s.Require().NoError(err)
	s.Require().True(reloaded.InRoom())

	room, err := s.coord.Resume(s.ctx, reloaded)
	s.Require().NoError(err)
	s.Equal(created.Code, room.Code)
	s.Equal("Alice", reloaded.OpponentName)
}

func (s *CoordinatorTestSuite) TestResumeAfterRoomDeleted() {
	alice := s.newClient("Alice")

	s.random.QueueIntn(2345)
	created, err := s.coord.CreateRoom(s.ctx, alice, "Alice", false)
	s.Require().NoError(err)
	s.Require().NoError(s.store.DeleteRoom(s.ctx, created.Code))

	_, err = s.coord.Resume(s.ctx, alice)
	s.Require().ErrorIs(err, model.ErrNotInRoom)
	s.False(alice.InRoom())
}

func (s *CoordinatorTestSuite) TestSetReadyMovesRoomToPlaying() {
	alice := s.newClient("Alice")
	bob := s.newClient("Bob")

	s.random.QueueIntn(2345)
	created, err := s.coord.CreateRoom(s.ctx, alice, "Alice", false)
	s.Require().NoError(err)
	_, err = s.coord.JoinRoom(s.ctx, bob, created.Code, "Bob")
	s.Require().NoError(err)

	// The guest is ready on join; the host readying completes the pair
	s.Require().NoError(s.coord.SetReady(s.ctx, alice, true))

	room, err := s.store.GetRoom(s.ctx, created.Code)
	s.Require().NoError(err)
	s.Equal(model.RoomStatusPlaying, room.Status)
	s.Equal(match.StatePlaying, match.StateOf(room))
}

func (s *CoordinatorTestSuite) TestLeaveRoomAsHostDeletesRoom() {
	alice := s.newClient("Alice")
	bob := s.newClient("Bob")

	s.random.QueueIntn(2345)
	created, err := s.coord.CreateRoom(s.ctx, alice, "Alice", false)
	s.Require().NoError(err)
	_, err = s.coord.JoinRoom(s.ctx, bob, created.Code, "Bob")
	s.Require().NoError(err)

	s.Require().NoError(s.coord.LeaveRoom(s.ctx, alice))
	s.False(alice.InRoom())

	_, err = s.store.GetRoom(s.ctx, created.Code)
	s.Require().ErrorIs(err, model.ErrRoomNotFound)
}

func (s *CoordinatorTestSuite) TestLeaveRoomAsGuestReturnsRoomToWaiting() {
	alice := s.newClient("Alice")
	bob := s.newClient("Bob")

	s.random.QueueIntn(2345)
	created, err := s.coord.CreateRoom(s.ctx, alice, "Alice", false)
	s.Require().NoError(err)
	_, err = s.coord.JoinRoom(s.ctx, bob, created.Code, "Bob")
	s.Require().NoError(err)

	s.Require().NoError(s.coord.LeaveRoom(s.ctx, bob))
	s.False(bob.InRoom())

	room, err := s.store.GetRoom(s.ctx, created.Code)
	s.Require().NoError(err)
	s.Equal(model.RoomStatusWaiting, room.Status)
	_, taken := room.Player(model.Slot2)
	s.False(taken)
}

func (s *CoordinatorTestSuite) TestWatchDeliversSnapshotOnJoin() {
	alice := s.newClient("Alice")
	bob := s.newClient("Bob")

	s.random.QueueIntn(2345)
	created, err := s.coord.CreateRoom(s.ctx, alice, "Alice", false)
	s.Require().NoError(err)

	sub, err := s.coord.Watch(s.ctx, created.Code)
	s.Require().NoError(err)
	defer sub.Close()

	// Initial snapshot shows the waiting room
	initial := <-sub.Snapshots()
	s.Equal(match.StateWaiting, match.StateOf(initial))

	_, err = s.coord.JoinRoom(s.ctx, bob, created.Code, "Bob")
	s.Require().NoError(err)

	// Drain until the guest is visible; claim and status are separate writes
	var latest *model.Room
	for snap := range sub.Snapshots() {
		latest = snap
		if latest.BothSlotsFilled() && latest.Status == model.RoomStatusReady {
			break
		}
	}
	s.Require().NotNil(latest)
	guest, ok := latest.Player(model.Slot2)
	s.Require().True(ok)
	s.Equal("Bob", guest.Name)
}
