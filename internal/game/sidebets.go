package game

import (
	"fmt"
	"sort"
)

type SideBetType string

const (
	SideBetPerfectPairs SideBetType = "perfect-pairs"
	SideBet21Plus3      SideBetType = "21+3"
	SideBetLuckyLucky   SideBetType = "lucky-lucky"
	SideBetRoyalMatch   SideBetType = "royal-match"
	SideBetOver13       SideBetType = "over-13"
	SideBetUnder13      SideBetType = "under-13"
	SideBetInsurance    SideBetType = "insurance"
)

// PayoutTable maps a combination label to its "to one" multiplier.
type PayoutTable map[string]float64

// PayoutTables is the per-table side bet configuration. A side bet type
// without a table is not offered.
type PayoutTables map[SideBetType]PayoutTable

// DefaultPayoutTables returns common casino pay tables.
func DefaultPayoutTables() PayoutTables {
	return PayoutTables{
		SideBetPerfectPairs: {
			"perfect-pair": 25,
			"colored-pair": 12,
			"mixed-pair":   6,
		},
		SideBet21Plus3: {
			"suited-trips":    100,
			"straight-flush":  40,
			"three-of-a-kind": 30,
			"straight":        10,
			"flush":           5,
		},
		SideBetLuckyLucky: {
			"21-777-suited": 200,
			"21-678-suited": 100,
			"21-777":        50,
			"21-678":        30,
			"21-suited":     15,
			"21":            3,
			"20":            2,
			"19":            2,
		},
		SideBetRoyalMatch: {
			"royal-match": 25,
			"suited":      2.5,
		},
		SideBetOver13:    {"over": 1},
		SideBetUnder13:   {"under": 1},
		SideBetInsurance: {"dealer-blackjack": 2},
	}
}

func (p PayoutTables) Validate() error {
	for t, table := range p {
		if _, ok := sideBetEvaluators[t]; !ok {
			return fmt.Errorf("%w: unknown side bet %q", ErrInvalidConfig, t)
		}
		for label, m := range table {
			if m <= 0 {
				return fmt.Errorf("%w: %s %q pays %v", ErrInvalidConfig, t, label, m)
			}
		}
	}
	return nil
}

// Offers reports whether the tables carry a pay table for t.
func (p PayoutTables) Offers(t SideBetType) bool {
	_, ok := p[t]
	return ok
}

// SideBetCards are the cards a side bet may look at. Player holds the
// player's first two cards; Dealer is the dealer's final hand and is only
// read by insurance.
type SideBetCards struct {
	Player   []Card `json:"player"`
	DealerUp Card   `json:"dealerUp"`
	Dealer   []Card `json:"dealer,omitempty"`
}

// SideBetResult is the evaluation of one side bet type against a deal.
type SideBetResult struct {
	Type       SideBetType `json:"type"`
	Label      string      `json:"label,omitempty"`
	Multiplier float64     `json:"multiplier"`
	Won        bool        `json:"won"`
}

// SideBet is a wager on a side bet type attached to a hand.
type SideBet struct {
	Bet
	Type  SideBetType `json:"type"`
	Label string      `json:"label,omitempty"`
}

// NewSideBet creates a pending side bet record for a hand.
func NewSideBet(playerID, handID string, t SideBetType, amount int) SideBet {
	return SideBet{Bet: newBet(playerID, handID, amount), Type: t}
}

// sideBetEvaluator returns every label the cards qualify for, best first.
type sideBetEvaluator func(in SideBetCards) []string

var sideBetEvaluators = map[SideBetType]sideBetEvaluator{
	SideBetPerfectPairs: evalPerfectPairs,
	SideBet21Plus3:      eval21Plus3,
	SideBetLuckyLucky:   evalLuckyLucky,
	SideBetRoyalMatch:   evalRoyalMatch,
	SideBetOver13:       evalOver13,
	SideBetUnder13:      evalUnder13,
	SideBetInsurance:    evalInsurance,
}

// EvaluateSideBet returns the best paying label for t in tables, or a losing
// result when nothing on the pay table matches.
func EvaluateSideBet(t SideBetType, in SideBetCards, tables PayoutTables) (SideBetResult, error) {
	eval, ok := sideBetEvaluators[t]
	if !ok {
		return SideBetResult{}, fmt.Errorf("%w: unknown side bet %q", ErrInvalidConfig, t)
	}
	table, ok := tables[t]
	if !ok {
		return SideBetResult{}, fmt.Errorf("%w: side bet %q is not offered", ErrInvalidConfig, t)
	}

	for _, label := range eval(in) {
		if m, ok := table[label]; ok {
			return SideBetResult{Type: t, Label: label, Multiplier: m, Won: true}, nil
		}
	}
	return SideBetResult{Type: t}, nil
}

// SettleSideBet resolves sb against the cards. A win pays the stake plus
// stake times the multiplier.
func SettleSideBet(sb SideBet, in SideBetCards, tables PayoutTables) (SideBet, error) {
	res, err := EvaluateSideBet(sb.Type, in, tables)
	if err != nil {
		return sb, err
	}

	sb.Label = res.Label
	sb.Multiplier = res.Multiplier
	if res.Won {
		sb.Status = BetWon
		sb.Payout = sb.Amount + int(float64(sb.Amount)*res.Multiplier)
	} else {
		sb.Status = BetLost
		sb.Payout = 0
	}
	return sb, nil
}

func firstTwo(cards []Card) (Card, Card, bool) {
	if len(cards) < 2 {
		return Card{}, Card{}, false
	}
	return cards[0], cards[1], true
}

func evalPerfectPairs(in SideBetCards) []string {
	a, b, ok := firstTwo(in.Player)
	if !ok || a.Rank != b.Rank {
		return nil
	}
	switch {
	case a.Suit == b.Suit:
		return []string{"perfect-pair"}
	case a.IsRed() == b.IsRed():
		return []string{"colored-pair"}
	default:
		return []string{"mixed-pair"}
	}
}

func threeCards(in SideBetCards) ([]Card, bool) {
	a, b, ok := firstTwo(in.Player)
	if !ok || in.DealerUp.Rank == "" {
		return nil, false
	}
	return []Card{a, b, in.DealerUp}, true
}

func suited(cards []Card) bool {
	for _, c := range cards[1:] {
		if c.Suit != cards[0].Suit {
			return false
		}
	}
	return true
}

func sortedOrders(cards []Card) []int {
	o := make([]int, len(cards))
	for i, c := range cards {
		o[i] = c.rankOrder()
	}
	sort.Ints(o)
	return o
}

func isStraight(cards []Card) bool {
	o := sortedOrders(cards)
	if o[0]+1 == o[1] && o[1]+1 == o[2] {
		return true
	}
	// Q-K-A
	return o[0] == 1 && o[1] == 12 && o[2] == 13
}

func eval21Plus3(in SideBetCards) []string {
	cards, ok := threeCards(in)
	if !ok {
		return nil
	}

	flush := suited(cards)
	trips := cards[0].Rank == cards[1].Rank && cards[1].Rank == cards[2].Rank
	straight := !trips && isStraight(cards)

	var labels []string
	if trips && flush {
		labels = append(labels, "suited-trips")
	}
	if straight && flush {
		labels = append(labels, "straight-flush")
	}
	if trips {
		labels = append(labels, "three-of-a-kind")
	}
	if straight {
		labels = append(labels, "straight")
	}
	if flush {
		labels = append(labels, "flush")
	}
	return labels
}

func evalLuckyLucky(in SideBetCards) []string {
	cards, ok := threeCards(in)
	if !ok {
		return nil
	}

	switch total := BestTotal(cards); total {
	case 21:
		var labels []string
		flush := suited(cards)
		o := sortedOrders(cards)
		sevens := o[0] == 7 && o[1] == 7 && o[2] == 7
		sixSevenEight := o[0] == 6 && o[1] == 7 && o[2] == 8
		switch {
		case sevens && flush:
			labels = append(labels, "21-777-suited", "21-777")
		case sixSevenEight && flush:
			labels = append(labels, "21-678-suited", "21-678")
		case sevens:
			labels = append(labels, "21-777")
		case sixSevenEight:
			labels = append(labels, "21-678")
		}
		if flush {
			labels = append(labels, "21-suited")
		}
		return append(labels, "21")
	case 20:
		return []string{"20"}
	case 19:
		return []string{"19"}
	}
	return nil
}

func evalRoyalMatch(in SideBetCards) []string {
	a, b, ok := firstTwo(in.Player)
	if !ok || a.Suit != b.Suit {
		return nil
	}
	if (a.Rank == King && b.Rank == Queen) || (a.Rank == Queen && b.Rank == King) {
		return []string{"royal-match", "suited"}
	}
	return []string{"suited"}
}

// hardPair totals the first two player cards with aces as one.
func hardPair(in SideBetCards) (int, bool) {
	a, b, ok := firstTwo(in.Player)
	if !ok {
		return 0, false
	}
	return a.Value() + b.Value(), true
}

func evalOver13(in SideBetCards) []string {
	if t, ok := hardPair(in); ok && t > 13 {
		return []string{"over"}
	}
	return nil
}

func evalUnder13(in SideBetCards) []string {
	if t, ok := hardPair(in); ok && t < 13 {
		return []string{"under"}
	}
	return nil
}

func evalInsurance(in SideBetCards) []string {
	if IsBlackjack(in.Dealer) {
		return []string{"dealer-blackjack"}
	}
	return nil
}
