package game

import (
	"errors"
	"fmt"
)

// Error categories. Every error returned by this package wraps exactly one of
// these, so callers can tell bad input from an out-of-turn action from a
// depleted shoe with errors.Is.
var (
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrIllegalAction = errors.New("illegal action")
	ErrEmptyShoe     = errors.New("shoe is empty")
)

var (
	ErrInvalidBet        = fmt.Errorf("%w: bet outside table limits", ErrInvalidConfig)
	ErrInsufficientFunds = fmt.Errorf("%w: insufficient balance", ErrInvalidConfig)
	ErrUnknownPlayer     = fmt.Errorf("%w: player not at the table", ErrInvalidConfig)
	ErrUnknownHand       = fmt.Errorf("%w: no such hand", ErrInvalidConfig)

	ErrWrongPhase  = fmt.Errorf("%w: not allowed in the current phase", ErrIllegalAction)
	ErrNotYourTurn = fmt.Errorf("%w: not this hand's turn", ErrIllegalAction)
	ErrHandLimit   = fmt.Errorf("%w: hand limit reached", ErrIllegalAction)
)

func illegal(a Action) error {
	return fmt.Errorf("%w: %s is not available for this hand", ErrIllegalAction, a)
}

// invariant panics on programming errors; these are never user facing.
func invariant(ok bool, format string, args ...interface{}) {
	if !ok {
		panic(fmt.Sprintf("blackjack invariant violated: "+format, args...))
	}
}
