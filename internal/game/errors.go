// internal/game/errors.go
//
// Sentinel errors for the game package.
// Responsibilities:
//   - Name every rejection a Session or Strategy can return.
//   - Let callers map failures with errors.Is (see internal/httpserver).

package game

import "errors"

// Session errors. All are recoverable: the session keeps its prior state.
var (
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrRoundInactive        = errors.New("round inactive")
	ErrNotYourTurn          = errors.New("not your turn")
	ErrOutOfRange           = errors.New("out of range")
	ErrNotANumber           = errors.New("not a number")
)

// Strategy misuse errors.
var (
	ErrNoCandidates    = errors.New("strategy: no candidates left")
	ErrFeedbackPending = errors.New("strategy: feedback for last guess not reported")
	ErrNoPendingGuess  = errors.New("strategy: no guess awaiting feedback")
)
