package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sideCards(player, up string) SideBetCards {
	in := SideBetCards{Player: MustParseCards(player)}
	if up != "" {
		in.DealerUp = MustParseCards(up)[0]
	}
	return in
}

func TestEvaluateSideBet(t *testing.T) {
	tables := DefaultPayoutTables()

	tests := []struct {
		t          SideBetType
		player, up string
		label      string
		multiplier float64
	}{
		{SideBetPerfectPairs, "8H 8H", "2C", "perfect-pair", 25},
		{SideBetPerfectPairs, "8H 8D", "2C", "colored-pair", 12},
		{SideBetPerfectPairs, "8H 8S", "2C", "mixed-pair", 6},
		{SideBetPerfectPairs, "8H 9H", "2C", "", 0},

		{SideBet21Plus3, "7H 8H", "9H", "straight-flush", 40},
		{SideBet21Plus3, "QS KD", "AH", "straight", 10},
		{SideBet21Plus3, "5C 5D", "5S", "three-of-a-kind", 30},
		{SideBet21Plus3, "5C 5C", "5C", "suited-trips", 100},
		{SideBet21Plus3, "2H 9H", "KH", "flush", 5},
		{SideBet21Plus3, "2H 9D", "KH", "", 0},

		{SideBetLuckyLucky, "7S 7S", "7S", "21-777-suited", 200},
		{SideBetLuckyLucky, "6H 7D", "8C", "21-678", 30},
		{SideBetLuckyLucky, "KH 5D", "6C", "21", 3},
		{SideBetLuckyLucky, "KH 4D", "6C", "20", 2},
		{SideBetLuckyLucky, "KH 2D", "6C", "", 0},

		{SideBetRoyalMatch, "KH QH", "2C", "royal-match", 25},
		{SideBetRoyalMatch, "2H 9H", "2C", "suited", 2.5},
		{SideBetRoyalMatch, "KH QD", "2C", "", 0},

		{SideBetOver13, "10H 5D", "", "over", 1},
		{SideBetOver13, "10H 3D", "", "", 0},
		{SideBetUnder13, "5H 4D", "", "under", 1},
		{SideBetUnder13, "KH 5D", "", "", 0},
	}

	for _, tt := range tests {
		res, err := EvaluateSideBet(tt.t, sideCards(tt.player, tt.up), tables)
		require.NoError(t, err)
		assert.Equal(t, tt.label, res.Label, "%s %s %s", tt.t, tt.player, tt.up)
		assert.Equal(t, tt.multiplier, res.Multiplier, "%s %s %s", tt.t, tt.player, tt.up)
		assert.Equal(t, tt.label != "", res.Won)
	}
}

func TestEvaluateSideBetFallsBackToPaidLabel(t *testing.T) {
	tables := PayoutTables{SideBet21Plus3: {"flush": 9}}
	res, err := EvaluateSideBet(SideBet21Plus3, sideCards("7H 8H", "9H"), tables)
	require.NoError(t, err)
	assert.Equal(t, "flush", res.Label)
	assert.Equal(t, 9.0, res.Multiplier)
}

func TestEvaluateSideBetErrors(t *testing.T) {
	_, err := EvaluateSideBet("hot-3", sideCards("7H 8H", "9H"), DefaultPayoutTables())
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = EvaluateSideBet(SideBetRoyalMatch, sideCards("KH QH", "9H"), PayoutTables{})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestSettleSideBet(t *testing.T) {
	sb := NewSideBet("p1", "h1", SideBetPerfectPairs, 10)
	out, err := SettleSideBet(sb, sideCards("8H 8H", "2C"), DefaultPayoutTables())
	require.NoError(t, err)
	assert.Equal(t, BetWon, out.Status)
	assert.Equal(t, 260, out.Payout)
	assert.Equal(t, "perfect-pair", out.Label)

	sb = NewSideBet("p1", "h1", SideBetRoyalMatch, 10)
	out, err = SettleSideBet(sb, sideCards("2H 9H", "2C"), DefaultPayoutTables())
	require.NoError(t, err)
	assert.Equal(t, 35, out.Payout)

	out, err = SettleSideBet(sb, sideCards("2H 9D", "2C"), DefaultPayoutTables())
	require.NoError(t, err)
	assert.Equal(t, BetLost, out.Status)
	assert.Equal(t, 0, out.Payout)

	// the input record is untouched
	assert.Equal(t, BetPending, sb.Status)
}

func TestPayoutTablesValidate(t *testing.T) {
	assert.NoError(t, DefaultPayoutTables().Validate())
	assert.ErrorIs(t, PayoutTables{SideBetOver13: {"over": 0}}.Validate(), ErrInvalidConfig)
	assert.ErrorIs(t, PayoutTables{"hot-3": {"x": 1}}.Validate(), ErrInvalidConfig)
}
