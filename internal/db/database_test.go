package db

import (
	"path/filepath"
	"testing"

	"github.com/calvinwijaya/blackjack-table/internal/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func openTestDB(t *testing.T) *Database {
	t.Helper()
	d, err := NewDatabase("sqlite3", filepath.Join(t.TempDir(), "test.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	return d
}

func newGame(t *testing.T, tableID string) *game.BlackjackGame {
	t.Helper()
	seed := int64(1)
	g, err := game.NewBlackjackGame(tableID, game.DefaultRules(), &seed)
	require.NoError(t, err)
	return g
}

func TestNewDatabaseRejectsDriver(t *testing.T) {
	_, err := NewDatabase("mysql", "x", zap.NewNop())
	assert.Error(t, err)
}

func TestPlayers(t *testing.T) {
	d := openTestDB(t)

	p, err := d.GetPlayerByID("nobody")
	require.NoError(t, err)
	assert.Nil(t, p)

	require.NoError(t, d.CreatePlayer("p1", "Alice", 500))
	require.NoError(t, d.UpdatePlayerBalance("p1", 750))
	require.NoError(t, d.UpdatePlayerLastLogin("p1"))

	p, err = d.GetPlayerByID("p1")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "Alice", p.Name)
	assert.Equal(t, 750, p.Balance)

	assert.Error(t, d.CreatePlayer("p1", "Again", 1))
}

func TestSaveAndLoadGame(t *testing.T) {
	d := openTestDB(t)
	g := newGame(t, "table-1")
	_, err := g.AddPlayer("p1", "Alice", 1000)
	require.NoError(t, err)
	_, err = g.PlaceBet("p1", 10)
	require.NoError(t, err)

	require.NoError(t, d.SaveGame(g))
	require.NoError(t, d.SaveGame(g))

	loaded, err := d.GetGame(g.ID)
	require.NoError(t, err)
	assert.Equal(t, g.ID, loaded.ID)
	assert.Equal(t, g.Shoe.Cards, loaded.Shoe.Cards)
	assert.Equal(t, 990, loaded.Players[0].Balance)
	require.NoError(t, loaded.Deal())

	all, err := d.GetAllGames()
	require.NoError(t, err)
	assert.Len(t, all, 1)

	active, err := d.GetActiveTableGame("table-1")
	require.NoError(t, err)
	assert.Equal(t, g.ID, active.ID)

	g.Closed = true
	require.NoError(t, d.SaveGame(g))
	_, err = d.GetActiveTableGame("table-1")
	assert.ErrorIs(t, err, ErrNotFound)

	tableGames, err := d.GetTableGames("table-1")
	require.NoError(t, err)
	assert.Len(t, tableGames, 1)

	require.NoError(t, d.DeleteGame(g.ID))
	_, err = d.GetGame(g.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRoundResultsAndStats(t *testing.T) {
	d := openTestDB(t)
	require.NoError(t, d.CreatePlayer("p1", "Alice", 1000))

	g := newGame(t, "table-1")
	require.NoError(t, d.SaveGame(g))

	ins := game.Bet{ID: "ins-1", PlayerID: "p1", HandID: "h2", Amount: 5, Status: game.BetLost}
	res := game.RoundResult{
		Round: 1,
		Hands: []game.Settlement{
			{HandID: "h1", PlayerID: "p1", Outcome: game.OutcomeWin, Bet: 10, Payout: 20},
			{HandID: "h2", PlayerID: "p1", Outcome: game.OutcomeLoss, Bet: 10, Payout: 0},
		},
		Insurance: []game.Bet{ins},
		SideBets: []game.SideBet{{
			Bet:   game.Bet{ID: "sb-1", PlayerID: "p1", HandID: "h1", Amount: 5, Status: game.BetWon, Payout: 35},
			Type:  game.SideBetPerfectPairs,
			Label: "mixed-pair",
		}},
	}
	require.NoError(t, d.SaveRoundResult(g.ID, res))

	res2 := game.RoundResult{
		Round: 2,
		Hands: []game.Settlement{{HandID: "h3", PlayerID: "p1", Outcome: game.OutcomeBlackjack, Bet: 10, Payout: 25}},
	}
	require.NoError(t, d.SaveRoundResult(g.ID, res2))

	stats, err := d.GetPlayerStats("p1")
	require.NoError(t, err)
	assert.Equal(t, "Alice", stats.PlayerName)
	assert.Equal(t, 3, stats.HandsPlayed)
	assert.Equal(t, 2, stats.HandsWon)
	assert.Equal(t, 1, stats.HandsLost)
	assert.Equal(t, 1, stats.Blackjacks)
	assert.Equal(t, 30, stats.TotalBets)
	assert.Equal(t, 45, stats.TotalPayout)
	assert.Equal(t, 15, stats.Net)
	assert.Equal(t, 1, stats.SideBetsPlaced)
	assert.Equal(t, 1, stats.SideBetsWon)
	assert.Equal(t, 35, stats.SideBetPayout)
	assert.False(t, stats.LastPlayed.IsZero())

	history, err := d.GetOutcomeHistory("p1", 10)
	require.NoError(t, err)
	assert.Equal(t, []game.Outcome{game.OutcomeWin, game.OutcomeLoss, game.OutcomeBlackjack}, history)

	history, err = d.GetOutcomeHistory("p1", 2)
	require.NoError(t, err)
	assert.Equal(t, []game.Outcome{game.OutcomeLoss, game.OutcomeBlackjack}, history)

	_, err = d.GetPlayerStats("ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}
