package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDeck(t *testing.T) {
	deck := NewDeck()
	require.Len(t, deck, 52)

	seen := make(map[Card]bool)
	for _, c := range deck {
		assert.False(t, seen[c], "duplicate card %v", c)
		assert.False(t, c.FaceUp)
		seen[c] = true
	}
}

func TestParseCard(t *testing.T) {
	c, err := ParseCard("10H")
	require.NoError(t, err)
	assert.Equal(t, Card{Suit: Hearts, Rank: Ten, FaceUp: true}, c)

	c, err = ParseCard(" qd ")
	require.NoError(t, err)
	assert.Equal(t, Queen, c.Rank)
	assert.Equal(t, Diamonds, c.Suit)

	for _, bad := range []string{"", "A", "1X", "ZS", "11H"} {
		_, err := ParseCard(bad)
		assert.ErrorIs(t, err, ErrInvalidConfig, bad)
	}

	for _, c := range NewDeck() {
		parsed, err := ParseCard(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, parsed.Identity())
	}
}

func TestCardValues(t *testing.T) {
	assert.Equal(t, []int{1, 11}, Card{Rank: Ace}.Values())
	assert.Equal(t, []int{10}, Card{Rank: Jack}.Values())
	assert.Equal(t, 7, Card{Rank: Seven}.Value())
	assert.Equal(t, 0, Card{}.Value())
}

func TestNewShoe(t *testing.T) {
	shoe, err := NewShoe(6, 0.75)
	require.NoError(t, err)
	assert.Equal(t, 312, shoe.Total())
	assert.Equal(t, 312, shoe.Remaining())
	assert.Equal(t, 234, shoe.CutCardPosition)
	assert.False(t, shoe.NeedsReshuffle())

	_, err = NewShoe(0, 0.75)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	_, err = NewShoe(1, 1)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	_, err = NewShoe(1, 0)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestShoeDraw(t *testing.T) {
	shoe, err := NewShoe(1, 0.5)
	require.NoError(t, err)

	for i := 0; i < 25; i++ {
		_, err := shoe.Draw(true)
		require.NoError(t, err)
	}
	assert.False(t, shoe.NeedsReshuffle())

	c, err := shoe.Draw(false)
	require.NoError(t, err)
	assert.False(t, c.FaceUp)
	assert.True(t, shoe.NeedsReshuffle())

	for shoe.Remaining() > 0 {
		_, err := shoe.Draw(true)
		require.NoError(t, err)
	}
	_, err = shoe.Draw(true)
	assert.ErrorIs(t, err, ErrEmptyShoe)
	assert.Equal(t, 52, shoe.CardsDealt)
}

func TestShoeConservation(t *testing.T) {
	shoe, err := NewShoe(2, 0.75)
	require.NoError(t, err)
	original := append([]Card(nil), shoe.Cards...)

	var drawn []Card
	for i := 0; i < 40; i++ {
		c, err := shoe.Draw(true)
		require.NoError(t, err)
		drawn = append(drawn, c.Identity())
	}
	all := append(drawn, shoe.RemainingCards()...)
	assert.ElementsMatch(t, original, all)
	assert.Equal(t, shoe.Total(), shoe.CardsDealt+shoe.Remaining())
}

func TestShufflePermutation(t *testing.T) {
	shoe, err := NewShoe(2, 0.75)
	require.NoError(t, err)

	for kind := range shufflers {
		t.Run(string(kind), func(t *testing.T) {
			input := append([]Card(nil), shoe.Cards...)
			out, err := Shuffle(kind, input, NewLCG(42))
			require.NoError(t, err)

			assert.ElementsMatch(t, shoe.Cards, out)
			assert.Equal(t, shoe.Cards, input, "input must not be modified")
			assert.NotEqual(t, shoe.Cards, out)
		})
	}
}

func TestShuffleSmallInputs(t *testing.T) {
	inputs := [][]Card{
		{},
		MustParseCards("AS"),
		MustParseCards("AS KD"),
		MustParseCards("AS KD 7C"),
	}

	for kind := range shufflers {
		for _, cards := range inputs {
			input := append([]Card{}, cards...)
			out, err := Shuffle(kind, input, NewLCG(42))
			require.NoError(t, err)
			assert.Len(t, out, len(cards), "%s %d", kind, len(cards))
			assert.ElementsMatch(t, cards, out, "%s %d", kind, len(cards))
			assert.Equal(t, cards, input, "%s %d", kind, len(cards))
		}
	}
}

func TestShuffleSeeded(t *testing.T) {
	for kind := range shufflers {
		a, err := NewShoe(6, 0.75)
		require.NoError(t, err)
		b, err := NewShoe(6, 0.75)
		require.NoError(t, err)

		require.NoError(t, a.Shuffle(kind, NewLCG(7)))
		require.NoError(t, b.Shuffle(kind, NewLCG(7)))
		assert.Equal(t, a.Cards, b.Cards, kind)

		require.NoError(t, b.Shuffle(kind, NewLCG(8)))
		assert.NotEqual(t, a.Cards, b.Cards, kind)
	}
}

func TestShuffleResetsCursor(t *testing.T) {
	shoe, err := NewShoe(1, 0.75)
	require.NoError(t, err)
	for i := 0; i < 45; i++ {
		_, err := shoe.Draw(true)
		require.NoError(t, err)
	}
	require.True(t, shoe.NeedsReshuffle())

	require.NoError(t, shoe.Shuffle(Riffle, NewLCG(1)))
	assert.Equal(t, 0, shoe.CardsDealt)
	assert.Equal(t, 52, shoe.Remaining())
	assert.False(t, shoe.NeedsReshuffle())
}

func TestShuffleUnknownKind(t *testing.T) {
	_, err := Shuffle("mexican-spiral", NewDeck(), NewLCG(1))
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.False(t, ValidShuffle("mexican-spiral"))
	assert.True(t, ValidShuffle(Strip))
}
