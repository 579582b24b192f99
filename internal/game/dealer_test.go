package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stackedShoe(cards string) *Shoe {
	c := MustParseCards(cards)
	return &Shoe{Cards: c, DeckCount: 1, Penetration: 0.75, CutCardPosition: len(c) * 3 / 4}
}

func dealerHand(cards string) DealerHand {
	c := MustParseCards(cards)
	c[1] = c[1].WithFace(false)
	return DealerHand{Cards: c, HasHiddenCard: true}
}

func moveStates(moves []DealerMove) []DealerState {
	out := make([]DealerState, len(moves))
	for i, m := range moves {
		out[i] = m.State
	}
	return out
}

func TestDealerShouldHit(t *testing.T) {
	s17 := DefaultRules()
	h17 := DefaultRules()
	h17.DealerHitsSoft17 = true

	softSeventeen := MustParseCards("AS 6H")
	assert.False(t, DealerShouldHit(softSeventeen, s17))
	assert.True(t, DealerShouldHit(softSeventeen, h17))

	hardSeventeen := MustParseCards("10S 7H")
	assert.False(t, DealerShouldHit(hardSeventeen, s17))
	assert.False(t, DealerShouldHit(hardSeventeen, h17))

	assert.True(t, DealerShouldHit(MustParseCards("10S 6H"), s17))
	assert.False(t, DealerShouldHit(MustParseCards("AS 7H"), h17))
	assert.False(t, DealerShouldHit(MustParseCards("10S 6H KD"), s17))
}

func TestDealerAutomatonHitsToTwentyOne(t *testing.T) {
	shoe := stackedShoe("5C 9D")
	a := NewDealerAutomaton(dealerHand("KS 6H"), DefaultRules())
	assert.Equal(t, DealerHiddenHole, a.State())

	moves, err := a.Run(shoe)
	require.NoError(t, err)
	assert.Equal(t, []DealerState{DealerRevealing, DealerHitting, DealerStanding}, moveStates(moves))
	assert.Equal(t, 21, moves[1].Total)
	assert.Equal(t, Five, moves[1].Card.Rank)
	assert.Equal(t, Six, moves[0].Card.Rank)
	assert.Equal(t, 1, shoe.CardsDealt)

	hand := a.Hand()
	assert.False(t, hand.HasHiddenCard)
	for _, c := range hand.Cards {
		assert.True(t, c.FaceUp)
	}
}

func TestDealerAutomatonNatural(t *testing.T) {
	shoe := stackedShoe("5C")
	final, moves, err := PlayDealer(dealerHand("AS KH"), shoe, DefaultRules())
	require.NoError(t, err)
	assert.Equal(t, []DealerState{DealerRevealing, DealerStanding}, moveStates(moves))
	assert.True(t, final.IsBlackjack())
	assert.Equal(t, 0, shoe.CardsDealt)
}

func TestDealerAutomatonBusts(t *testing.T) {
	final, moves, err := PlayDealer(dealerHand("10S 6H"), stackedShoe("KD"), DefaultRules())
	require.NoError(t, err)
	assert.Equal(t, []DealerState{DealerRevealing, DealerHitting, DealerBusted}, moveStates(moves))
	assert.True(t, IsBusted(final.Cards))
}

func TestDealerSoftSeventeen(t *testing.T) {
	h17 := DefaultRules()
	h17.DealerHitsSoft17 = true

	final, _, err := PlayDealer(dealerHand("AS 6H"), stackedShoe("2C"), h17)
	require.NoError(t, err)
	assert.Equal(t, 19, BestTotal(final.Cards))

	final, _, err = PlayDealer(dealerHand("AS 6H"), stackedShoe("2C"), DefaultRules())
	require.NoError(t, err)
	assert.Equal(t, 17, BestTotal(final.Cards))
	assert.Len(t, final.Cards, 2)
}

func TestDealerAutomatonEmptyShoe(t *testing.T) {
	a := NewDealerAutomaton(dealerHand("10S 3H"), DefaultRules())
	_, err := a.Run(stackedShoe(""))
	assert.ErrorIs(t, err, ErrEmptyShoe)
	assert.Equal(t, DealerRevealing, a.State())
	assert.Len(t, a.Hand().Cards, 2)
}

func TestDealerAutomatonFinished(t *testing.T) {
	a := NewDealerAutomaton(dealerHand("10S 7H"), DefaultRules())
	_, err := a.Run(stackedShoe(""))
	require.NoError(t, err)
	assert.True(t, a.Done())

	_, err = a.Step(stackedShoe("2C"))
	assert.ErrorIs(t, err, ErrIllegalAction)
}

func TestDealerAutomatonFinish(t *testing.T) {
	a := NewDealerAutomaton(dealerHand("10S 3H"), DefaultRules())
	m := a.Finish()
	assert.Equal(t, DealerStanding, m.State)
	assert.Equal(t, []DealerState{DealerRevealing, DealerStanding}, moveStates(a.Moves()))
	assert.Len(t, a.Hand().Cards, 2)
}

func TestDealerHandMasked(t *testing.T) {
	d := dealerHand("KS 9H")
	masked := d.Masked()
	assert.Equal(t, Card{}, masked.Cards[1])
	assert.Equal(t, King, masked.Cards[0].Rank)
	assert.Equal(t, 10, d.VisibleTotal())
	assert.Len(t, d.VisibleCards(), 1)

	// the original keeps its hole card
	assert.Equal(t, Nine, d.Cards[1].Rank)
}
