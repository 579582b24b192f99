package game

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// AllTotals returns every achievable total for cards, ascending and without
// duplicates. An empty hand totals 0.
func AllTotals(cards []Card) []int {
	totals := map[int]struct{}{0: {}}
	for _, c := range cards {
		next := make(map[int]struct{}, len(totals)*2)
		for t := range totals {
			for _, v := range c.Values() {
				next[t+v] = struct{}{}
			}
		}
		totals = next
	}

	out := make([]int, 0, len(totals))
	for t := range totals {
		out = append(out, t)
	}
	sort.Ints(out)
	return out
}

// BestTotal returns the highest total not over 21. When every total busts it
// returns the lowest one, for display. Never infer a bust from this number;
// use IsBusted.
func BestTotal(cards []Card) int {
	totals := AllTotals(cards)
	best := -1
	for _, t := range totals {
		if t <= 21 {
			best = t
		}
	}
	if best < 0 {
		return totals[0]
	}
	return best
}

// IsBusted reports whether every total exceeds 21.
func IsBusted(cards []Card) bool {
	return AllTotals(cards)[0] > 21
}

// IsBlackjack reports a two-card 21.
func IsBlackjack(cards []Card) bool {
	if len(cards) != 2 {
		return false
	}
	for _, t := range AllTotals(cards) {
		if t == 21 {
			return true
		}
	}
	return false
}

// IsSoft reports whether an ace can still count as 11 without busting.
func IsSoft(cards []Card) bool {
	hasAce := false
	for _, c := range cards {
		if c.Rank == Ace {
			hasAce = true
			break
		}
	}
	if !hasAce {
		return false
	}

	live := 0
	for _, t := range AllTotals(cards) {
		if t <= 21 {
			live++
		}
	}
	return live > 1
}

// IsPair reports two cards of equal rank.
func IsPair(cards []Card) bool {
	return len(cards) == 2 && cards[0].Rank == cards[1].Rank
}

type HandStatus string

const (
	HandActive      HandStatus = "active"
	HandStanding    HandStatus = "standing"
	HandBusted      HandStatus = "busted"
	HandBlackjack   HandStatus = "blackjack"
	HandSurrendered HandStatus = "surrendered"
)

// Outcome is the result of a settled hand.
type Outcome string

const (
	OutcomeWin       Outcome = "win"
	OutcomeLoss      Outcome = "loss"
	OutcomePush      Outcome = "push"
	OutcomeBlackjack Outcome = "blackjack"
	OutcomeSurrender Outcome = "surrender"
)

type BetStatus string

const (
	BetPending     BetStatus = "pending"
	BetWon         BetStatus = "won"
	BetLost        BetStatus = "lost"
	BetPush        BetStatus = "push"
	BetSurrendered BetStatus = "surrendered"
	BetCancelled   BetStatus = "cancelled"
)

// Bet is a wager record. Payout is the total returned to the player,
// stake included.
type Bet struct {
	ID         string    `json:"id"`
	PlayerID   string    `json:"playerId"`
	HandID     string    `json:"handId"`
	Amount     int       `json:"amount"`
	Status     BetStatus `json:"status"`
	Payout     int       `json:"payout"`
	Multiplier float64   `json:"multiplier"`
	PlacedAt   time.Time `json:"placedAt"`
}

func newBet(playerID, handID string, amount int) Bet {
	invariant(amount >= 0, "negative wager %d", amount)
	return Bet{
		ID:       uuid.New().String(),
		PlayerID: playerID,
		HandID:   handID,
		Amount:   amount,
		Status:   BetPending,
		PlacedAt: time.Now(),
	}
}

// Hand is one player hand. Result is empty until settlement.
type Hand struct {
	ID        string     `json:"id"`
	PlayerID  string     `json:"playerId"`
	Cards     []Card     `json:"cards"`
	Dealt     []Card     `json:"dealt,omitempty"`
	Wager     Bet        `json:"wager"`
	Insurance *Bet       `json:"insurance,omitempty"`
	SideBets  []SideBet  `json:"sideBets,omitempty"`
	Status    HandStatus `json:"status"`
	Result    Outcome    `json:"result,omitempty"`

	// FromSplit marks hands created by a split, including the parent.
	FromSplit bool `json:"fromSplit"`
	// Decisions counts hit/stand/double/split/surrender taken on this hand.
	Decisions        int  `json:"decisions"`
	Doubled          bool `json:"doubled"`
	InsuranceDecided bool `json:"insuranceDecided"`
}

// NewHand creates an empty active hand backed by a pending wager.
func NewHand(playerID string, amount int) Hand {
	id := uuid.New().String()
	return Hand{
		ID:       id,
		PlayerID: playerID,
		Cards:    []Card{},
		Wager:    newBet(playerID, id, amount),
		Status:   HandActive,
	}
}

// withCard returns the cards with c appended on a fresh backing array, so a
// hand never shares storage with a copy taken earlier.
func withCard(cards []Card, c Card) []Card {
	out := make([]Card, len(cards), len(cards)+1)
	copy(out, cards)
	return append(out, c)
}

func (h Hand) Total() int       { return BestTotal(h.Cards) }
func (h Hand) Totals() []int    { return AllTotals(h.Cards) }
func (h Hand) IsBusted() bool   { return IsBusted(h.Cards) }
func (h Hand) IsSoft() bool     { return IsSoft(h.Cards) }
func (h Hand) IsPair() bool     { return IsPair(h.Cards) }
func (h Hand) IsResolved() bool { return h.Status != HandActive }

// IsNatural is a two-card 21 dealt as an original hand. Split hands never
// count as blackjack.
func (h Hand) IsNatural() bool {
	return !h.FromSplit && IsBlackjack(h.Cards)
}

// dealtCards returns the two cards the hand was dealt, which side bets are
// judged on even after a split.
func (h Hand) dealtCards() []Card {
	if len(h.Dealt) > 0 {
		return h.Dealt
	}
	return h.Cards
}

// isSplitAces reports a split hand that started from an ace.
func (h Hand) isSplitAces() bool {
	return h.FromSplit && len(h.Cards) > 0 && h.Cards[0].Rank == Ace
}
