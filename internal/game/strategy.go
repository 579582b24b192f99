package game

import (
	"fmt"
	"sort"
)

type StrategyKind string

const (
	StrategyFlat        StrategyKind = "flat"
	StrategyMartingale  StrategyKind = "martingale"
	StrategyParoli      StrategyKind = "paroli"
	StrategyDAlembert   StrategyKind = "dalembert"
	StrategyFibonacci   StrategyKind = "fibonacci"
	StrategyOscarsGrind StrategyKind = "oscars-grind"
	Strategy1326        StrategyKind = "1-3-2-6"
)

// StrategyInput is everything NextBet looks at. History is oldest first.
type StrategyInput struct {
	Strategy   StrategyKind `json:"strategy"`
	History    []Outcome    `json:"history"`
	CurrentBet int          `json:"currentBet"`
	BaseUnit   int          `json:"baseUnit"`
	MinBet     int          `json:"minBet"`
	MaxBet     int          `json:"maxBet"`
	Balance    int          `json:"balance"`
}

// progress is the position of a progression after replaying some history.
type progress struct {
	bet    int
	streak int
	index  int
	profit int
}

type progressionStep func(p progress, won bool, unit int) progress

var progressions = map[StrategyKind]progressionStep{
	StrategyFlat:        stepFlat,
	StrategyMartingale:  stepMartingale,
	StrategyParoli:      stepParoli,
	StrategyDAlembert:   stepDAlembert,
	StrategyFibonacci:   stepFibonacci,
	StrategyOscarsGrind: stepOscarsGrind,
	Strategy1326:        step1326,
}

// Strategies lists the known strategies in name order.
func Strategies() []StrategyKind {
	out := make([]StrategyKind, 0, len(progressions))
	for k := range progressions {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// NextBet replays History from the base unit and returns the next wager.
//
// Every step is clamped to the table limits and the progression carries on
// from the clamped amount, i.e. the bet that was actually placed. It never
// snaps back to the base unit because a limit was hit. The result is finally
// capped at Balance; a balance below the table minimum is an error.
func NextBet(in StrategyInput) (int, error) {
	step, ok := progressions[in.Strategy]
	switch {
	case !ok:
		return 0, fmt.Errorf("%w: unknown strategy %q", ErrInvalidConfig, in.Strategy)
	case in.BaseUnit <= 0:
		return 0, fmt.Errorf("%w: base unit must be positive", ErrInvalidConfig)
	case in.MinBet <= 0 || in.MaxBet < in.MinBet:
		return 0, fmt.Errorf("%w: table limits %d-%d", ErrInvalidConfig, in.MinBet, in.MaxBet)
	case in.Balance < in.MinBet:
		return 0, ErrInsufficientFunds
	}

	clamp := func(v int) int { return max(in.MinBet, min(v, in.MaxBet)) }

	p := progress{bet: clamp(in.BaseUnit)}
	if in.Strategy == StrategyFlat && in.CurrentBet > 0 {
		p.bet = clamp(in.CurrentBet)
	}

	for _, o := range in.History {
		var won bool
		switch o {
		case OutcomeWin, OutcomeBlackjack:
			won = true
		case OutcomeLoss, OutcomeSurrender:
			won = false
		default:
			continue
		}
		p = step(p, won, in.BaseUnit)
		p.bet = clamp(p.bet)
	}

	return min(p.bet, in.Balance), nil
}

func stepFlat(p progress, _ bool, _ int) progress {
	return p
}

func stepMartingale(p progress, won bool, unit int) progress {
	if won {
		p.bet = unit
	} else {
		p.bet *= 2
	}
	return p
}

// stepParoli doubles after each win and resets after three in a row or any
// loss.
func stepParoli(p progress, won bool, unit int) progress {
	if !won {
		return progress{bet: unit}
	}
	p.streak++
	if p.streak >= 3 {
		return progress{bet: unit}
	}
	p.bet *= 2
	return p
}

func stepDAlembert(p progress, won bool, unit int) progress {
	if won {
		p.bet = max(unit, p.bet-unit)
	} else {
		p.bet += unit
	}
	return p
}

func fibonacci(n int) int {
	a, b := 1, 1
	for i := 0; i < n; i++ {
		a, b = b, a+b
	}
	return a
}

// stepFibonacci moves one place up the sequence on a loss and two places
// back on a win. It holds its place while the table maximum caps the bet.
func stepFibonacci(p progress, won bool, unit int) progress {
	switch {
	case won:
		p.index = max(0, p.index-2)
	case unit*fibonacci(p.index) <= p.bet:
		p.index++
	}
	p.bet = unit * fibonacci(p.index)
	return p
}

// stepOscarsGrind raises by one unit after a win, holds after a loss, and
// never bets more than needed to finish the cycle one unit up.
func stepOscarsGrind(p progress, won bool, unit int) progress {
	if !won {
		p.profit -= p.bet
		return p
	}
	p.profit += p.bet
	if p.profit >= unit {
		return progress{bet: unit}
	}
	p.bet = min(p.bet+unit, unit-p.profit)
	return p
}

var sequence1326 = []int{1, 3, 2, 6}

func step1326(p progress, won bool, unit int) progress {
	if won {
		p.index = (p.index + 1) % len(sequence1326)
	} else {
		p.index = 0
	}
	p.bet = unit * sequence1326[p.index]
	return p
}
