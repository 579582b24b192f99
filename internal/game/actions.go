package game

import "slices"

type Action string

const (
	ActionHit       Action = "hit"
	ActionStand     Action = "stand"
	ActionDouble    Action = "double"
	ActionSplit     Action = "split"
	ActionSurrender Action = "surrender"
	ActionInsurance Action = "insurance"
)

// ParseAction maps a request string onto an Action.
func ParseAction(s string) (Action, bool) {
	a := Action(s)
	switch a {
	case ActionHit, ActionStand, ActionDouble, ActionSplit, ActionSurrender, ActionInsurance:
		return a, true
	}
	return "", false
}

// ActionContext is the table state the resolver needs beyond the hand itself.
type ActionContext struct {
	// Balance is what the player can still put on the table for a double or
	// split.
	Balance int
	// SplitsUsed counts splits the owning player already made this round.
	SplitsUsed int
}

// LegalActions returns the actions available to h. It has no side effects.
func LegalActions(h Hand, dealerUp Card, rules Rules, ctx ActionContext) []Action {
	if h.Status != HandActive || len(h.Cards) < 2 {
		return nil
	}

	initial := len(h.Cards) == 2 && h.Decisions == 0
	actions := make([]Action, 0, 6)

	canSplit := initial &&
		h.IsPair() &&
		ctx.SplitsUsed < rules.MaxSplits &&
		ctx.Balance >= h.Wager.Amount &&
		(h.Cards[0].Rank != Ace || !h.FromSplit || rules.ResplitAces)

	if h.isSplitAces() && !rules.HitSplitAces {
		actions = append(actions, ActionStand)
		if canSplit {
			actions = append(actions, ActionSplit)
		}
		return actions
	}

	actions = append(actions, ActionHit, ActionStand)

	if initial && (!h.FromSplit || rules.DoubleAfterSplit) && ctx.Balance >= h.Wager.Amount {
		actions = append(actions, ActionDouble)
	}
	if canSplit {
		actions = append(actions, ActionSplit)
	}
	if initial && !h.FromSplit && rules.Surrender != SurrenderNone {
		actions = append(actions, ActionSurrender)
	}
	if initial && !h.FromSplit && dealerUp.Rank == Ace && !h.InsuranceDecided {
		actions = append(actions, ActionInsurance)
	}
	return actions
}

func hasAction(actions []Action, a Action) bool {
	return slices.Contains(actions, a)
}
