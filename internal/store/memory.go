package store

import (
	"fmt"
	"sort"
	"sync"

	"github.com/calvinwijaya/blackjack-table/internal/game"
)

// MemoryStore is an in-memory implementation of game storage
type MemoryStore struct {
	games  map[string]*game.BlackjackGame
	tables map[string][]*game.BlackjackGame
	mu     sync.RWMutex
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		games:  make(map[string]*game.BlackjackGame),
		tables: make(map[string][]*game.BlackjackGame),
	}
}

// SaveGame saves a game to the store. Saving a known game replaces it in
// place.
func (s *MemoryStore) SaveGame(g *game.BlackjackGame) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, known := s.games[g.ID]
	s.games[g.ID] = g

	tableGames := s.tables[g.TableID]
	if known {
		for i, tg := range tableGames {
			if tg.ID == g.ID {
				tableGames[i] = g
				return nil
			}
		}
	}
	s.tables[g.TableID] = append(tableGames, g)

	return nil
}

// GetGame retrieves a game by ID
func (s *MemoryStore) GetGame(id string) (*game.BlackjackGame, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, exists := s.games[id]
	if !exists {
		return nil, fmt.Errorf("game %s: %w", id, ErrNotFound)
	}

	return g, nil
}

// GetTableGames retrieves all games for a table, newest first
func (s *MemoryStore) GetTableGames(tableID string) ([]*game.BlackjackGame, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	games := append([]*game.BlackjackGame{}, s.tables[tableID]...)
	sortNewestFirst(games)
	return games, nil
}

// GetActiveTableGame retrieves the newest game for a table that is not closed
func (s *MemoryStore) GetActiveTableGame(tableID string) (*game.BlackjackGame, error) {
	games, _ := s.GetTableGames(tableID)

	for _, g := range games {
		if !g.Closed {
			return g, nil
		}
	}

	return nil, fmt.Errorf("active game for table %s: %w", tableID, ErrNotFound)
}

// DeleteGame removes a game from the store
func (s *MemoryStore) DeleteGame(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, exists := s.games[id]
	if !exists {
		return fmt.Errorf("game %s: %w", id, ErrNotFound)
	}

	delete(s.games, id)

	tableGames := s.tables[g.TableID]
	for i, tg := range tableGames {
		if tg.ID == id {
			s.tables[g.TableID] = append(tableGames[:i], tableGames[i+1:]...)
			break
		}
	}
	if len(s.tables[g.TableID]) == 0 {
		delete(s.tables, g.TableID)
	}

	return nil
}

// GetAllGames returns all games in the store, newest first
func (s *MemoryStore) GetAllGames() ([]*game.BlackjackGame, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	games := make([]*game.BlackjackGame, 0, len(s.games))
	for _, g := range s.games {
		games = append(games, g)
	}
	sortNewestFirst(games)

	return games, nil
}

func sortNewestFirst(games []*game.BlackjackGame) {
	sort.SliceStable(games, func(i, j int) bool {
		return games[i].CreatedAt.After(games[j].CreatedAt)
	})
}
