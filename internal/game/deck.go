package game

import (
	"fmt"
	"math"
)

// NewDeck creates a standard 52-card deck, face down, in suit then rank order.
func NewDeck() []Card {
	cards := make([]Card, 0, len(Suits)*len(Ranks))
	for _, suit := range Suits {
		for _, rank := range Ranks {
			cards = append(cards, Card{Suit: suit, Rank: rank})
		}
	}
	return cards
}

// Shoe is the draw pile for a session. Cards holds the whole shoe in draw
// order; CardsDealt is the cursor into it and only ever grows until the next
// Shuffle.
type Shoe struct {
	Cards           []Card  `json:"cards"`
	DeckCount       int     `json:"deckCount"`
	Penetration     float64 `json:"penetration"`
	CutCardPosition int     `json:"cutCardPosition"`
	CardsDealt      int     `json:"cardsDealt"`
}

// NewShoe builds deckCount decks in order. The shoe is not shuffled.
func NewShoe(deckCount int, penetration float64) (*Shoe, error) {
	if deckCount <= 0 {
		return nil, fmt.Errorf("%w: deck count must be positive, got %d", ErrInvalidConfig, deckCount)
	}
	if penetration <= 0 || penetration >= 1 {
		return nil, fmt.Errorf("%w: penetration must be in (0,1), got %v", ErrInvalidConfig, penetration)
	}

	cards := make([]Card, 0, deckCount*52)
	for i := 0; i < deckCount; i++ {
		cards = append(cards, NewDeck()...)
	}

	return &Shoe{
		Cards:           cards,
		DeckCount:       deckCount,
		Penetration:     penetration,
		CutCardPosition: int(math.Floor(float64(len(cards)) * penetration)),
	}, nil
}

// Shuffle reorders the whole shoe, including dealt cards, and resets the
// cursor.
func (s *Shoe) Shuffle(kind ShuffleKind, rng Source) error {
	shuffled, err := Shuffle(kind, s.Cards, rng)
	if err != nil {
		return err
	}
	s.Cards = shuffled
	s.CardsDealt = 0
	return nil
}

// NeedsReshuffle reports whether the cut card has been reached.
func (s *Shoe) NeedsReshuffle() bool {
	return s.CardsDealt >= s.CutCardPosition
}

// Draw returns the next card with the requested orientation. It never
// reshuffles; an exhausted shoe yields ErrEmptyShoe.
func (s *Shoe) Draw(faceUp bool) (Card, error) {
	if s.CardsDealt >= len(s.Cards) {
		return Card{}, ErrEmptyShoe
	}

	card := s.Cards[s.CardsDealt].WithFace(faceUp)
	s.CardsDealt++
	return card, nil
}

// Remaining returns the number of undealt cards.
func (s *Shoe) Remaining() int {
	return len(s.Cards) - s.CardsDealt
}

// Total returns the number of cards in the shoe.
func (s *Shoe) Total() int {
	return len(s.Cards)
}

// RemainingCards returns a copy of the undealt cards in draw order.
func (s *Shoe) RemainingCards() []Card {
	return append([]Card(nil), s.Cards[s.CardsDealt:]...)
}
