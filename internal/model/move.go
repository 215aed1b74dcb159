package model

// Move is one of the three throws. The singular "scissor" matches the wire
// value used by existing clients.
type Move string

const (
	MoveRock    Move = "rock"
	MovePaper   Move = "paper"
	MoveScissor Move = "scissor"
)

// ParseMove validates a wire string as a Move
func ParseMove(s string) (Move, error) {
	switch Move(s) {
	case MoveRock, MovePaper, MoveScissor:
		return Move(s), nil
	}
	return "", ErrInvalidMove
}

// Outcome is the result of resolving two simultaneous moves
type Outcome string

const (
	OutcomeWinA Outcome = "win_a"
	OutcomeWinB Outcome = "win_b"
	OutcomeTie  Outcome = "tie"
)

// Invert mirrors an outcome to the other side's perspective
func (o Outcome) Invert() Outcome {
	switch o {
	case OutcomeWinA:
		return OutcomeWinB
	case OutcomeWinB:
		return OutcomeWinA
	}
	return OutcomeTie
}

// RoundResult is an outcome viewed from one player's perspective
type RoundResult string

const (
	RoundWin  RoundResult = "win"
	RoundLose RoundResult = "lose"
	RoundTie  RoundResult = "tie"
)
