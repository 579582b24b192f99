package store

import (
	"errors"
	"fmt"

	"github.com/calvinwijaya/blackjack-table/internal/db"
	"github.com/calvinwijaya/blackjack-table/internal/game"
)

// DatabaseStore persists games in the database and keeps the sessions it has
// handed out in memory, so a live session keeps its random source between
// requests.
type DatabaseStore struct {
	db   *db.Database
	live *MemoryStore
}

// NewDatabaseStore creates a new database store
func NewDatabaseStore(database *db.Database) *DatabaseStore {
	return &DatabaseStore{
		db:   database,
		live: NewMemoryStore(),
	}
}

func notFound(err error, what string) error {
	if errors.Is(err, db.ErrNotFound) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return err
}

// SaveGame writes the game to the database, then to the live set.
func (s *DatabaseStore) SaveGame(g *game.BlackjackGame) error {
	if err := s.db.SaveGame(g); err != nil {
		return err
	}
	return s.live.SaveGame(g)
}

// adopt returns the live instance of g if there is one, registering g
// otherwise.
func (s *DatabaseStore) adopt(g *game.BlackjackGame) *game.BlackjackGame {
	if live, err := s.live.GetGame(g.ID); err == nil {
		return live
	}
	s.live.SaveGame(g)
	return g
}

// GetGame retrieves a game by ID
func (s *DatabaseStore) GetGame(id string) (*game.BlackjackGame, error) {
	if g, err := s.live.GetGame(id); err == nil {
		return g, nil
	}

	g, err := s.db.GetGame(id)
	if err != nil {
		return nil, notFound(err, "game "+id)
	}
	return s.adopt(g), nil
}

// GetTableGames retrieves all games for a table
func (s *DatabaseStore) GetTableGames(tableID string) ([]*game.BlackjackGame, error) {
	games, err := s.db.GetTableGames(tableID)
	if err != nil {
		return nil, err
	}
	for i, g := range games {
		games[i] = s.adopt(g)
	}
	return games, nil
}

// GetActiveTableGame retrieves the active game for a table
func (s *DatabaseStore) GetActiveTableGame(tableID string) (*game.BlackjackGame, error) {
	g, err := s.db.GetActiveTableGame(tableID)
	if err != nil {
		return nil, notFound(err, "active game for table "+tableID)
	}
	return s.adopt(g), nil
}

// DeleteGame removes a game from the database
func (s *DatabaseStore) DeleteGame(id string) error {
	if err := s.db.DeleteGame(id); err != nil {
		return err
	}
	if err := s.live.DeleteGame(id); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return nil
}

// GetAllGames returns all games in the database
func (s *DatabaseStore) GetAllGames() ([]*game.BlackjackGame, error) {
	games, err := s.db.GetAllGames()
	if err != nil {
		return nil, err
	}
	for i, g := range games {
		games[i] = s.adopt(g)
	}
	return games, nil
}
