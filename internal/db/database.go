package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/calvinwijaya/blackjack-table/internal/game"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

var ErrNotFound = errors.New("record not found")

type Database struct {
	db     *sql.DB
	driver string
	logger *zap.Logger
}

type PlayerStats struct {
	PlayerID       string    `json:"playerId"`
	PlayerName     string    `json:"playerName"`
	HandsPlayed    int       `json:"handsPlayed"`
	HandsWon       int       `json:"handsWon"`
	HandsLost      int       `json:"handsLost"`
	Pushes         int       `json:"pushes"`
	Blackjacks     int       `json:"blackjacks"`
	Surrenders     int       `json:"surrenders"`
	TotalBets      int       `json:"totalBets"`
	TotalPayout    int       `json:"totalPayout"`
	Net            int       `json:"net"`
	SideBetsPlaced int       `json:"sideBetsPlaced"`
	SideBetsWon    int       `json:"sideBetsWon"`
	SideBetPayout  int       `json:"sideBetPayout"`
	LastPlayed     time.Time `json:"lastPlayed"`
}

// NewDatabase opens driver ("postgres" or "sqlite3") at dsn and creates the
// tables if needed.
func NewDatabase(driver, dsn string, logger *zap.Logger) (*Database, error) {
	if driver != "postgres" && driver != "sqlite3" {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to the database: %w", err)
	}

	if driver == "sqlite3" {
		// SQLite allows a single writer.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
	}
	db.SetConnMaxLifetime(time.Hour)

	d := &Database{db: db, driver: driver, logger: logger}
	if err := d.initTables(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("database ready", zap.String("driver", driver))
	return d, nil
}

func (d *Database) dialect() (serial, jsonType string) {
	if d.driver == "postgres" {
		return "SERIAL PRIMARY KEY", "JSONB"
	}
	return "INTEGER PRIMARY KEY AUTOINCREMENT", "TEXT"
}

// initTables creates the necessary tables if they don't exist
func (d *Database) initTables() error {
	serial, jsonType := d.dialect()

	statements := []struct {
		table string
		ddl   string
	}{
		{"players", `
			CREATE TABLE IF NOT EXISTS players (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				balance INTEGER NOT NULL DEFAULT 1000,
				created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
				last_login TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
			)`},
		{"games", fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS games (
				id TEXT PRIMARY KEY,
				table_id TEXT NOT NULL,
				created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMP,
				phase TEXT NOT NULL,
				round INTEGER NOT NULL DEFAULT 1,
				closed BOOLEAN NOT NULL DEFAULT FALSE,
				min_bet INTEGER NOT NULL DEFAULT 10,
				max_bet INTEGER NOT NULL DEFAULT 1000,
				game_state %s
			)`, jsonType)},
		{"hand_results", fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS hand_results (
				id %s,
				game_id TEXT NOT NULL,
				round INTEGER NOT NULL,
				hand_id TEXT NOT NULL,
				player_id TEXT NOT NULL,
				bet INTEGER NOT NULL,
				outcome TEXT NOT NULL,
				payout INTEGER NOT NULL,
				created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
				FOREIGN KEY (game_id) REFERENCES games (id)
			)`, serial)},
		{"side_bet_results", fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS side_bet_results (
				id %s,
				game_id TEXT NOT NULL,
				round INTEGER NOT NULL,
				bet_id TEXT NOT NULL,
				hand_id TEXT NOT NULL,
				player_id TEXT NOT NULL,
				type TEXT NOT NULL,
				label TEXT NOT NULL,
				amount INTEGER NOT NULL,
				payout INTEGER NOT NULL,
				won BOOLEAN NOT NULL,
				created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
				FOREIGN KEY (game_id) REFERENCES games (id)
			)`, serial)},
	}

	for _, s := range statements {
		if _, err := d.db.Exec(s.ddl); err != nil {
			return fmt.Errorf("error creating %s table: %w", s.table, err)
		}
	}
	return nil
}

// Close closes the database connection
func (d *Database) Close() error {
	return d.db.Close()
}

// GetPlayerByID returns the registered player, or nil when there is none.
func (d *Database) GetPlayerByID(playerID string) (*game.Player, error) {
	player := game.Player{Hands: []game.Hand{}}

	err := d.db.QueryRow("SELECT id, name, balance FROM players WHERE id = $1", playerID).Scan(
		&player.ID,
		&player.Name,
		&player.Balance,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading player %s: %w", playerID, err)
	}

	return &player, nil
}

// CreatePlayer creates a new player in the database
func (d *Database) CreatePlayer(playerID, playerName string, initialBalance int) error {
	now := time.Now()
	_, err := d.db.Exec(
		"INSERT INTO players (id, name, balance, created_at, last_login) VALUES ($1, $2, $3, $4, $5)",
		playerID, playerName, initialBalance, now, now,
	)
	return err
}

func (d *Database) UpdatePlayerBalance(playerID string, newBalance int) error {
	_, err := d.db.Exec(
		"UPDATE players SET balance = $1, last_login = $2 WHERE id = $3",
		newBalance, time.Now(), playerID,
	)
	return err
}

func (d *Database) UpdatePlayerLastLogin(playerID string) error {
	_, err := d.db.Exec(
		"UPDATE players SET last_login = $1 WHERE id = $2",
		time.Now(), playerID,
	)
	return err
}

// SaveGame upserts the full session as JSON.
func (d *Database) SaveGame(g *game.BlackjackGame) error {
	gameState, err := json.Marshal(g)
	if err != nil {
		return err
	}

	_, err = d.db.Exec(`
		INSERT INTO games (id, table_id, created_at, updated_at, phase, round, closed, min_bet, max_bet, game_state)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE
		SET updated_at = $4, phase = $5, round = $6, closed = $7, min_bet = $8, max_bet = $9, game_state = $10
	`,
		g.ID, g.TableID, g.CreatedAt, time.Now(), string(g.Phase), g.Round, g.Closed,
		g.Rules.MinBet, g.Rules.MaxBet, string(gameState))
	if err != nil {
		return fmt.Errorf("saving game %s: %w", g.ID, err)
	}
	return nil
}

func decodeGame(state string) (*game.BlackjackGame, error) {
	var g game.BlackjackGame
	if err := json.Unmarshal([]byte(state), &g); err != nil {
		return nil, fmt.Errorf("decoding game state: %w", err)
	}
	return &g, nil
}

func (d *Database) queryGames(query string, args ...interface{}) ([]*game.BlackjackGame, error) {
	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	games := []*game.BlackjackGame{}
	for rows.Next() {
		var state string
		if err := rows.Scan(&state); err != nil {
			return nil, err
		}
		g, err := decodeGame(state)
		if err != nil {
			return nil, err
		}
		games = append(games, g)
	}
	return games, rows.Err()
}

func (d *Database) queryGame(query string, args ...interface{}) (*game.BlackjackGame, error) {
	var state string
	err := d.db.QueryRow(query, args...).Scan(&state)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return decodeGame(state)
}

// GetGame retrieves a game by ID
func (d *Database) GetGame(id string) (*game.BlackjackGame, error) {
	return d.queryGame("SELECT game_state FROM games WHERE id = $1", id)
}

// GetTableGames retrieves all games for a table
func (d *Database) GetTableGames(tableID string) ([]*game.BlackjackGame, error) {
	return d.queryGames("SELECT game_state FROM games WHERE table_id = $1 ORDER BY created_at DESC", tableID)
}

// GetActiveTableGame retrieves the newest open game for a table
func (d *Database) GetActiveTableGame(tableID string) (*game.BlackjackGame, error) {
	return d.queryGame(`
		SELECT game_state FROM games
		WHERE table_id = $1 AND closed = $2
		ORDER BY created_at DESC LIMIT 1
	`, tableID, false)
}

// DeleteGame removes a game and its results.
func (d *Database) DeleteGame(id string) error {
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, q := range []string{
		"DELETE FROM side_bet_results WHERE game_id = $1",
		"DELETE FROM hand_results WHERE game_id = $1",
		"DELETE FROM games WHERE id = $1",
	} {
		if _, err := tx.Exec(q, id); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetAllGames returns all games in the database
func (d *Database) GetAllGames() ([]*game.BlackjackGame, error) {
	return d.queryGames("SELECT game_state FROM games ORDER BY created_at DESC")
}

// SaveRoundResult records every settled hand, insurance and side bet of a
// round in one transaction. Insurance is stored as a side bet.
func (d *Database) SaveRoundResult(gameID string, res game.RoundResult) error {
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now()
	for _, s := range res.Hands {
		_, err := tx.Exec(`
			INSERT INTO hand_results (game_id, round, hand_id, player_id, bet, outcome, payout, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, gameID, res.Round, s.HandID, s.PlayerID, s.Bet, string(s.Outcome), s.Payout, now)
		if err != nil {
			return fmt.Errorf("saving hand result: %w", err)
		}
	}

	sideBets := make([]game.SideBet, 0, len(res.SideBets)+len(res.Insurance))
	sideBets = append(sideBets, res.SideBets...)
	for _, ins := range res.Insurance {
		sideBets = append(sideBets, game.SideBet{Bet: ins, Type: game.SideBetInsurance})
	}

	for _, sb := range sideBets {
		_, err := tx.Exec(`
			INSERT INTO side_bet_results (game_id, round, bet_id, hand_id, player_id, type, label, amount, payout, won, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`, gameID, res.Round, sb.ID, sb.HandID, sb.PlayerID, string(sb.Type), sb.Label, sb.Amount, sb.Payout,
			sb.Status == game.BetWon, now)
		if err != nil {
			return fmt.Errorf("saving side bet result: %w", err)
		}
	}

	return tx.Commit()
}

// GetPlayerStats aggregates a registered player's settled hands and side bets.
func (d *Database) GetPlayerStats(playerID string) (*PlayerStats, error) {
	stats := PlayerStats{PlayerID: playerID}

	err := d.db.QueryRow("SELECT name FROM players WHERE id = $1", playerID).Scan(&stats.PlayerName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	err = d.db.QueryRow(`
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN outcome IN ('win', 'blackjack') THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN outcome = 'loss' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN outcome = 'push' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN outcome = 'blackjack' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN outcome = 'surrender' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(bet), 0),
			COALESCE(SUM(payout), 0)
		FROM hand_results WHERE player_id = $1
	`, playerID).Scan(
		&stats.HandsPlayed,
		&stats.HandsWon,
		&stats.HandsLost,
		&stats.Pushes,
		&stats.Blackjacks,
		&stats.Surrenders,
		&stats.TotalBets,
		&stats.TotalPayout,
	)
	if err != nil {
		return nil, fmt.Errorf("aggregating hands: %w", err)
	}

	err = d.db.QueryRow(`
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN won THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(payout), 0)
		FROM side_bet_results WHERE player_id = $1 AND type != $2
	`, playerID, string(game.SideBetInsurance)).Scan(&stats.SideBetsPlaced, &stats.SideBetsWon, &stats.SideBetPayout)
	if err != nil {
		d.logger.Warn("aggregating side bets", zap.String("playerId", playerID), zap.Error(err))
	}

	err = d.db.QueryRow(
		"SELECT created_at FROM hand_results WHERE player_id = $1 ORDER BY created_at DESC LIMIT 1",
		playerID,
	).Scan(&stats.LastPlayed)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		d.logger.Warn("loading last played", zap.String("playerId", playerID), zap.Error(err))
	}

	stats.Net = stats.TotalPayout - stats.TotalBets
	return &stats, nil
}

// GetOutcomeHistory returns the player's last limit hand outcomes, oldest
// first.
func (d *Database) GetOutcomeHistory(playerID string, limit int) ([]game.Outcome, error) {
	rows, err := d.db.Query(
		"SELECT outcome FROM hand_results WHERE player_id = $1 ORDER BY id DESC LIMIT $2",
		playerID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []game.Outcome
	for rows.Next() {
		var o string
		if err := rows.Scan(&o); err != nil {
			return nil, err
		}
		history = append(history, game.Outcome(o))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, j := 0, len(history)-1; i < j; i, j = i+1, j-1 {
		history[i], history[j] = history[j], history[i]
	}
	return history, nil
}
