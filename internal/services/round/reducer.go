package round

import (
	"github.com/playrps/rpsroom/internal/model"
	"github.com/playrps/rpsroom/internal/services/rules"
)

// State is one client's view of the current round, rebuilt from room
// snapshots. It carries no authority: any field can be recomputed from
// the latest snapshot alone, except ResolvedEpoch which records what
// this client has already counted.
type State struct {
	Role               model.Slot
	RoomStatus         model.RoomStatus
	OpponentName       string
	MyMove             model.Move
	TheirMoveIn        bool
	WaitingForOpponent bool
	Epoch              int64
	ResolvedEpoch      int64
	LastResult         model.RoundResult
}

// NewState returns the initial state for a client playing the given slot
func NewState(role model.Slot) State {
	return State{Role: role, ResolvedEpoch: -1}
}

// Resolution describes a round that just resolved, from the local
// role's perspective
type Resolution struct {
	Epoch     int64
	MyMove    model.Move
	TheirMove model.Move
	Outcome   model.Outcome
	Result    model.RoundResult
}

// Apply folds one snapshot into the state. It returns a Resolution only
// for the first snapshot that shows both moves at an epoch this client
// has not yet counted; later snapshots of the same epoch, including
// stale redeliveries after a reset, return nil.
func Apply(prev State, snap *model.Room) (State, *Resolution) {
	next := prev
	next.RoomStatus = snap.Status
	next.Epoch = snap.RoundEpoch

	if opp, ok := snap.Player(prev.Role.Opponent()); ok {
		next.OpponentName = opp.Name
	} else {
		next.OpponentName = ""
	}

	myMove, myIn := snap.Moves[prev.Role]
	_, theirIn := snap.Moves[prev.Role.Opponent()]
	if myIn {
		next.MyMove = myMove
	} else {
		next.MyMove = ""
	}
	next.TheirMoveIn = theirIn
	next.WaitingForOpponent = !snap.BothSlotsFilled()

	if snap.BothMovesIn() && snap.RoundEpoch > prev.ResolvedEpoch {
		outcome := rules.Resolve(snap.Moves[model.Slot1], snap.Moves[model.Slot2])
		result := rules.FromPerspective(outcome, prev.Role)
		next.ResolvedEpoch = snap.RoundEpoch
		next.LastResult = result
		return next, &Resolution{
			Epoch:     snap.RoundEpoch,
			MyMove:    myMove,
			TheirMove: snap.Moves[prev.Role.Opponent()],
			Outcome:   outcome,
			Result:    result,
		}
	}

	return next, nil
}
