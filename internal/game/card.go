package game

import (
	"fmt"
	"strings"
)

type Suit string
type Rank string

const (
	Hearts   Suit = "hearts"
	Diamonds Suit = "diamonds"
	Clubs    Suit = "clubs"
	Spades   Suit = "spades"
)

const (
	Ace   Rank = "A"
	Two   Rank = "2"
	Three Rank = "3"
	Four  Rank = "4"
	Five  Rank = "5"
	Six   Rank = "6"
	Seven Rank = "7"
	Eight Rank = "8"
	Nine  Rank = "9"
	Ten   Rank = "10"
	Jack  Rank = "J"
	Queen Rank = "Q"
	King  Rank = "K"
)

// Suits and Ranks in deck construction order.
var (
	Suits = []Suit{Hearts, Diamonds, Clubs, Spades}
	Ranks = []Rank{Ace, Two, Three, Four, Five, Six, Seven, Eight, Nine, Ten, Jack, Queen, King}
)

// Card is an immutable playing card. FaceUp is a presentation flag and is not
// part of the card's identity; use WithFace to get a flipped copy.
type Card struct {
	Suit   Suit `json:"suit"`
	Rank   Rank `json:"rank"`
	FaceUp bool `json:"faceUp"`
}

// Values returns every blackjack value the card can take. Aces count as 1 or 11.
func (c Card) Values() []int {
	if c.Rank == Ace {
		return []int{1, 11}
	}
	return []int{c.Value()}
}

// Value returns the hard value of the card, counting aces as 1.
func (c Card) Value() int {
	switch c.Rank {
	case Ace:
		return 1
	case Ten, Jack, Queen, King:
		return 10
	case Two:
		return 2
	case Three:
		return 3
	case Four:
		return 4
	case Five:
		return 5
	case Six:
		return 6
	case Seven:
		return 7
	case Eight:
		return 8
	case Nine:
		return 9
	default:
		return 0
	}
}

// WithFace returns a copy of the card with the given orientation.
func (c Card) WithFace(up bool) Card {
	c.FaceUp = up
	return c
}

// Identity strips presentation state so cards can be compared by suit and rank.
func (c Card) Identity() Card {
	c.FaceUp = false
	return c
}

func (c Card) IsRed() bool {
	return c.Suit == Hearts || c.Suit == Diamonds
}

// rankOrder is the ace-low ordinal used by straight detection.
func (c Card) rankOrder() int {
	for i, r := range Ranks {
		if r == c.Rank {
			return i + 1
		}
	}
	return 0
}

var suitLetters = map[Suit]string{Hearts: "H", Diamonds: "D", Clubs: "C", Spades: "S"}

func (c Card) String() string {
	return string(c.Rank) + suitLetters[c.Suit]
}

// ParseCard reads the short form produced by String, e.g. "AS", "10H", "qd".
func ParseCard(s string) (Card, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) < 2 {
		return Card{}, fmt.Errorf("%w: bad card %q", ErrInvalidConfig, s)
	}

	rank := Rank(s[:len(s)-1])
	letter := s[len(s)-1:]

	var suit Suit
	for st, l := range suitLetters {
		if l == letter {
			suit = st
		}
	}
	if suit == "" {
		return Card{}, fmt.Errorf("%w: bad suit in %q", ErrInvalidConfig, s)
	}

	c := Card{Suit: suit, Rank: rank, FaceUp: true}
	if c.Value() == 0 {
		return Card{}, fmt.Errorf("%w: bad rank in %q", ErrInvalidConfig, s)
	}
	return c, nil
}

// MustParseCards parses a space separated list of cards and panics on error.
// Intended for fixtures.
func MustParseCards(s string) []Card {
	fields := strings.Fields(s)
	cards := make([]Card, 0, len(fields))
	for _, f := range fields {
		c, err := ParseCard(f)
		if err != nil {
			panic(err)
		}
		cards = append(cards, c)
	}
	return cards
}
