package main

import (
	"errors"
	"fmt"

	"github.com/calvinwijaya/blackjack-table/internal/game"
)

const simPlayer = "sim"

type simConfig struct {
	Rounds    int
	Strategy  game.StrategyKind
	BaseUnit  int
	MinBet    int
	MaxBet    int
	Balance   int
	Decks     int
	Seed      int64
	Shuffle   game.ShuffleKind
	HitSoft17 bool
	// SideBet is the Perfect Pairs stake per round; zero places none.
	SideBet int
}

type report struct {
	Rounds       int
	StartBalance int
	EndBalance   int
	Peak         int
	Trough       int
	Wagered      int
	LargestBet   int
	Outcomes     map[game.Outcome]int
	SideBets     int
	SideBetsWon  int
	SideBetPaid  int
	Reshuffles   int
	Voided       int
	Broke        bool
}

func (r report) Net() int { return r.EndBalance - r.StartBalance }

// simulate plays cfg.Rounds rounds heads-up. The player mimics the dealer:
// hit below 17, never double, split or take insurance.
func simulate(cfg simConfig) (report, error) {
	rules := game.DefaultRules()
	rules.DeckCount = cfg.Decks
	rules.MinBet = cfg.MinBet
	rules.MaxBet = cfg.MaxBet
	rules.DealerHitsSoft17 = cfg.HitSoft17
	rules.Shuffle = cfg.Shuffle

	seed := cfg.Seed
	g, err := game.NewBlackjackGame("simulator", rules, &seed)
	if err != nil {
		return report{}, err
	}
	if _, err := g.AddPlayer(simPlayer, "Simulator", cfg.Balance); err != nil {
		return report{}, err
	}

	rep := report{
		StartBalance: cfg.Balance,
		EndBalance:   cfg.Balance,
		Peak:         cfg.Balance,
		Trough:       cfg.Balance,
		Outcomes:     make(map[game.Outcome]int),
	}

	var history []game.Outcome
	lastBet := 0
	for rep.Rounds < cfg.Rounds {
		if g.NeedsReshuffle() {
			if err := g.Reshuffle(); err != nil {
				return rep, err
			}
			rep.Reshuffles++
		}

		p, err := g.Player(simPlayer)
		if err != nil {
			return rep, err
		}
		bet, err := game.NextBet(game.StrategyInput{
			Strategy:   cfg.Strategy,
			History:    history,
			CurrentBet: lastBet,
			BaseUnit:   cfg.BaseUnit,
			MinBet:     cfg.MinBet,
			MaxBet:     cfg.MaxBet,
			Balance:    p.Balance,
		})
		if errors.Is(err, game.ErrInsufficientFunds) {
			rep.Broke = true
			break
		}
		if err != nil {
			return rep, err
		}

		hand, err := g.PlaceBet(simPlayer, bet)
		if err != nil {
			return rep, fmt.Errorf("round %d: %w", rep.Rounds+1, err)
		}
		if cfg.SideBet > 0 && p.Balance-bet >= cfg.SideBet {
			if _, err := g.PlaceSideBet(hand.ID, game.SideBetPerfectPairs, cfg.SideBet); err != nil {
				return rep, fmt.Errorf("round %d: %w", rep.Rounds+1, err)
			}
		}

		voided, err := playRound(g)
		if err != nil {
			return rep, fmt.Errorf("round %d: %w", rep.Rounds+1, err)
		}
		if voided {
			rep.Voided++
			if err := g.Reshuffle(); err != nil {
				return rep, err
			}
			rep.Reshuffles++
			continue
		}

		rep.Rounds++
		lastBet = bet
		rep.Wagered += bet
		rep.LargestBet = max(rep.LargestBet, bet)
		for _, s := range g.LastResult.Hands {
			rep.Outcomes[s.Outcome]++
			history = append(history, s.Outcome)
		}
		for _, sb := range g.LastResult.SideBets {
			rep.SideBets++
			if sb.Status == game.BetWon {
				rep.SideBetsWon++
				rep.SideBetPaid += sb.Payout
			}
		}

		if err := g.NextRound(); err != nil {
			return rep, err
		}
		p, _ = g.Player(simPlayer)
		rep.EndBalance = p.Balance
		rep.Peak = max(rep.Peak, p.Balance)
		rep.Trough = min(rep.Trough, p.Balance)
	}

	return rep, nil
}

// playRound deals and plays one round to settlement. A round the shoe
// cannot finish is voided and reported as such.
func playRound(g *game.BlackjackGame) (bool, error) {
	if err := g.Deal(); err != nil {
		if errors.Is(err, game.ErrEmptyShoe) {
			return true, g.ClearBets(simPlayer)
		}
		return false, err
	}

	for g.Phase == game.PhaseDealing {
		for _, h := range g.Hands() {
			if h.InsuranceDecided {
				continue
			}
			if err := g.Insurance(h.ID, false); err != nil {
				return false, err
			}
		}
	}

	for g.Phase == game.PhasePlayerTurn {
		id := g.ActiveHandID()
		h, err := g.Hand(id)
		if err != nil {
			return false, err
		}
		action := game.ActionStand
		if h.Total() < 17 {
			action = game.ActionHit
		}
		if err := g.Act(id, action); err != nil {
			if errors.Is(err, game.ErrEmptyShoe) {
				return true, g.VoidRound()
			}
			return false, err
		}
	}

	if g.Phase == game.PhaseDealerTurn {
		return true, g.VoidRound()
	}
	if g.Phase != game.PhaseSettlement || g.LastResult == nil {
		return false, fmt.Errorf("round ended in phase %s", g.Phase)
	}
	return false, nil
}
