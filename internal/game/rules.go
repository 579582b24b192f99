package game

import "fmt"

type SurrenderPolicy string

const (
	SurrenderNone SurrenderPolicy = "none"
	// SurrenderLate allows surrender after the dealer has checked for a
	// natural.
	SurrenderLate SurrenderPolicy = "late"
)

// Rules is the table configuration a session is created with.
type Rules struct {
	DeckCount        int             `json:"deckCount"`
	Penetration      float64         `json:"penetration"`
	DealerHitsSoft17 bool            `json:"dealerHitsSoft17"`
	DealerPeek       bool            `json:"dealerPeek"`
	DoubleAfterSplit bool            `json:"doubleAfterSplit"`
	MaxSplits        int             `json:"maxSplits"`
	ResplitAces      bool            `json:"resplitAces"`
	HitSplitAces     bool            `json:"hitSplitAces"`
	Surrender        SurrenderPolicy `json:"surrender"`
	BlackjackPayout  float64         `json:"blackjackPayout"`
	MaxHands         int             `json:"maxHands"`
	MinBet           int             `json:"minBet"`
	MaxBet           int             `json:"maxBet"`
	Shuffle          ShuffleKind     `json:"shuffle"`
	SideBetPayouts   PayoutTables    `json:"sideBetPayouts"`
}

// DefaultRules is a six deck, dealer stands on soft 17, 3:2 table.
func DefaultRules() Rules {
	return Rules{
		DeckCount:        6,
		Penetration:      0.75,
		DealerHitsSoft17: false,
		DealerPeek:       true,
		DoubleAfterSplit: true,
		MaxSplits:        3,
		ResplitAces:      false,
		HitSplitAces:     false,
		Surrender:        SurrenderLate,
		BlackjackPayout:  1.5,
		MaxHands:         3,
		MinBet:           10,
		MaxBet:           1000,
		Shuffle:          FisherYates,
		SideBetPayouts:   DefaultPayoutTables(),
	}
}

// Validate rejects configurations a session cannot run with.
func (r Rules) Validate() error {
	switch {
	case r.DeckCount <= 0:
		return fmt.Errorf("%w: deck count must be positive", ErrInvalidConfig)
	case r.Penetration <= 0 || r.Penetration >= 1:
		return fmt.Errorf("%w: penetration must be in (0,1)", ErrInvalidConfig)
	case r.MaxSplits < 0:
		return fmt.Errorf("%w: max splits cannot be negative", ErrInvalidConfig)
	case r.BlackjackPayout <= 0:
		return fmt.Errorf("%w: blackjack payout must be positive", ErrInvalidConfig)
	case r.MaxHands <= 0:
		return fmt.Errorf("%w: max hands must be positive", ErrInvalidConfig)
	case r.MinBet <= 0 || r.MaxBet < r.MinBet:
		return fmt.Errorf("%w: table limits %d-%d", ErrInvalidConfig, r.MinBet, r.MaxBet)
	case r.Surrender != SurrenderNone && r.Surrender != SurrenderLate:
		return fmt.Errorf("%w: unknown surrender policy %q", ErrInvalidConfig, r.Surrender)
	case !ValidShuffle(r.Shuffle):
		return fmt.Errorf("%w: unknown shuffle %q", ErrInvalidConfig, r.Shuffle)
	}
	return r.SideBetPayouts.Validate()
}
