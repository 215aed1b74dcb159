package rules

import "github.com/playrps/rpsroom/internal/model"

// Resolve maps two simultaneous moves to an outcome under the cyclic
// dominance rock > scissor > paper > rock. Total over the 3x3 input space
// and side-agnostic: Resolve(b, a) is always the inverse of Resolve(a, b).
func Resolve(a, b model.Move) model.Outcome {
	if a == b {
		return model.OutcomeTie
	}
	if beats(a, b) {
		return model.OutcomeWinA
	}
	return model.OutcomeWinB
}

func beats(a, b model.Move) bool {
	switch a {
	case model.MoveRock:
		return b == model.MoveScissor
	case model.MovePaper:
		return b == model.MoveRock
	case model.MoveScissor:
		return b == model.MovePaper
	}
	return false
}

// FromPerspective converts an outcome into the result seen by the player
// occupying the given slot, where OutcomeWinA means slot1 won.
func FromPerspective(o model.Outcome, role model.Slot) model.RoundResult {
	if role == model.Slot2 {
		o = o.Invert()
	}
	switch o {
	case model.OutcomeWinA:
		return model.RoundWin
	case model.OutcomeWinB:
		return model.RoundLose
	}
	return model.RoundTie
}
