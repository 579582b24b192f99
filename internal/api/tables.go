package api

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/calvinwijaya/blackjack-table/internal/db"
	"github.com/calvinwijaya/blackjack-table/internal/game"
	"github.com/calvinwijaya/blackjack-table/internal/store"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const (
	defaultBalance = 1000
	historyLimit   = 50
)

// RegisterPlayer registers a new player
func (h *Handlers) RegisterPlayer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name    string `json:"name"`
		Balance int    `json:"balance"`
	}

	if err := decode(r, &req); err != nil {
		errorResponse(w, http.StatusBadRequest, codeBadRequest, "Invalid request body")
		return
	}

	if req.Name == "" {
		errorResponse(w, http.StatusBadRequest, codeBadRequest, "Player name is required")
		return
	}
	if req.Balance <= 0 {
		req.Balance = defaultBalance
	}

	playerID := uuid.New().String()

	// Create player in database if available
	if h.database != nil {
		if err := h.database.CreatePlayer(playerID, req.Name, req.Balance); err != nil {
			h.fail(w, r, fmt.Errorf("create player: %w", err))
			return
		}
	}

	h.logger.Info("player registered", zap.String("player", playerID), zap.Int("balance", req.Balance))

	response(w, http.StatusCreated, map[string]interface{}{
		"id":      playerID,
		"name":    req.Name,
		"balance": req.Balance,
	})
}

// GetPlayer returns player information
func (h *Handlers) GetPlayer(w http.ResponseWriter, r *http.Request) {
	playerID := mux.Vars(r)["id"]

	if h.database == nil {
		h.fail(w, r, errNoDatabase)
		return
	}

	player, err := h.database.GetPlayerByID(playerID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if player == nil {
		h.fail(w, r, fmt.Errorf("player %s: %w", playerID, errNotRegistered))
		return
	}

	if err := h.database.UpdatePlayerLastLogin(playerID); err != nil {
		h.logger.Warn("failed to update last login", zap.String("player", playerID), zap.Error(err))
	}

	response(w, http.StatusOK, player)
}

// GetPlayerStats returns player statistics. Results are cached until the
// player's next settled round.
func (h *Handlers) GetPlayerStats(w http.ResponseWriter, r *http.Request) {
	playerID := mux.Vars(r)["id"]

	if h.database == nil {
		h.fail(w, r, errNoDatabase)
		return
	}

	stats, err := h.stats.GetOrLoad(playerID, func() (*db.PlayerStats, error) {
		return h.database.GetPlayerStats(playerID)
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response(w, http.StatusOK, stats)
}

// JoinTable seats a player at the table's active session, opening one if
// the table has none
func (h *Handlers) JoinTable(w http.ResponseWriter, r *http.Request) {
	tableID := mux.Vars(r)["id"]

	var req struct {
		PlayerID   string `json:"playerId"`
		PlayerName string `json:"playerName"`
	}

	if err := decode(r, &req); err != nil {
		errorResponse(w, http.StatusBadRequest, codeBadRequest, "Invalid request body")
		return
	}
	if req.PlayerID == "" {
		errorResponse(w, http.StatusBadRequest, codeBadRequest, "Player ID is required")
		return
	}

	unlock := h.locks.lock("table:" + tableID)
	defer unlock()

	g, err := h.store.GetActiveTableGame(tableID)
	if errors.Is(err, store.ErrNotFound) {
		g, err = game.NewBlackjackGame(tableID, h.rules, nil)
		if err == nil {
			err = h.store.SaveGame(g)
		}
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}

	balance := defaultBalance
	if h.database != nil {
		if p, err := h.database.GetPlayerByID(req.PlayerID); err != nil {
			h.logger.Warn("failed to load player", zap.String("player", req.PlayerID), zap.Error(err))
		} else if p != nil {
			balance = p.Balance
		}
	}

	var player game.Player
	var view game.GameView
	err = h.mutate(g.ID, func(g *game.BlackjackGame) error {
		// a finished round makes way for the next one
		if g.Phase == game.PhaseSettlement {
			if err := g.NextRound(); err != nil {
				return err
			}
		}
		var err error
		if player, err = g.AddPlayer(req.PlayerID, req.PlayerName, balance); err != nil {
			return err
		}
		view = g.View(req.PlayerID)
		return nil
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if h.hub != nil {
		h.hub.BroadcastToTable(tableID, Message{
			Type:     "playerJoined",
			GameID:   view.ID,
			TableID:  tableID,
			PlayerID: req.PlayerID,
			Data:     map[string]string{"id": player.ID, "name": player.Name},
		})
	}

	response(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"player":  player,
		"game":    view,
	})
}

// LeaveTable removes a player from the table's active session
func (h *Handlers) LeaveTable(w http.ResponseWriter, r *http.Request) {
	tableID := mux.Vars(r)["id"]

	var req struct {
		PlayerID string `json:"playerId"`
	}

	if err := decode(r, &req); err != nil {
		errorResponse(w, http.StatusBadRequest, codeBadRequest, "Invalid request body")
		return
	}

	unlock := h.locks.lock("table:" + tableID)
	defer unlock()

	g, err := h.store.GetActiveTableGame(tableID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var player game.Player
	err = h.mutate(g.ID, func(g *game.BlackjackGame) error {
		var err error
		if player, err = g.RemovePlayer(req.PlayerID); err != nil {
			return err
		}
		// If this was the last player, the session is over
		if len(g.Players) == 0 {
			g.Closed = true
		}
		return nil
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if h.database != nil {
		if err := h.database.UpdatePlayerBalance(player.ID, player.Balance); err != nil {
			h.logger.Warn("failed to update balance", zap.String("player", player.ID), zap.Error(err))
		}
	}

	if h.hub != nil {
		h.hub.BroadcastToTable(tableID, Message{
			Type:     "playerLeft",
			TableID:  tableID,
			PlayerID: req.PlayerID,
		})
	}

	response(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"balance": player.Balance,
	})
}

// TableSummary is one entry of the table list.
type TableSummary struct {
	ID          string     `json:"id"`
	PlayerCount int        `json:"playerCount"`
	Phase       game.Phase `json:"phase"`
	Round       int        `json:"round"`
	MinBet      int        `json:"minBet"`
	MaxBet      int        `json:"maxBet"`
	Closed      bool       `json:"closed"`
	CurrentGame string     `json:"currentGame"`
	LastUpdated string     `json:"lastUpdated"`
}

// ListTables returns the newest session of every table, preferring open ones
func (h *Handlers) ListTables(w http.ResponseWriter, r *http.Request) {
	allGames, err := h.store.GetAllGames()
	if err != nil {
		h.fail(w, r, err)
		return
	}

	tables := make(map[string]TableSummary)
	for _, g := range allGames {
		var summary TableSummary
		err := h.inspect(g.ID, func(g *game.BlackjackGame) error {
			summary = TableSummary{
				ID:          g.TableID,
				PlayerCount: len(g.Players),
				Phase:       g.Phase,
				Round:       g.Round,
				MinBet:      g.Rules.MinBet,
				MaxBet:      g.Rules.MaxBet,
				Closed:      g.Closed,
				CurrentGame: g.ID,
				LastUpdated: g.UpdatedAt.Format(time.RFC3339),
			}
			return nil
		})
		if err != nil {
			continue
		}

		// games arrive newest first
		if seen, ok := tables[summary.ID]; ok && !(seen.Closed && !summary.Closed) {
			continue
		}
		tables[summary.ID] = summary
	}

	tablesList := make([]TableSummary, 0, len(tables))
	for _, t := range tables {
		tablesList = append(tablesList, t)
	}
	sort.Slice(tablesList, func(i, j int) bool { return tablesList[i].ID < tablesList[j].ID })

	response(w, http.StatusOK, tablesList)
}

// ListStrategies returns the known betting strategies
func (h *Handlers) ListStrategies(w http.ResponseWriter, r *http.Request) {
	response(w, http.StatusOK, game.Strategies())
}

// SuggestBet returns the next wager for a betting strategy. Without an
// explicit history the player's recorded outcomes are replayed.
func (h *Handlers) SuggestBet(w http.ResponseWriter, r *http.Request) {
	var req struct {
		game.StrategyInput
		PlayerID string `json:"playerId"`
	}

	if err := decode(r, &req); err != nil {
		errorResponse(w, http.StatusBadRequest, codeBadRequest, "Invalid request body")
		return
	}

	in := req.StrategyInput
	if in.MinBet == 0 && in.MaxBet == 0 {
		in.MinBet, in.MaxBet = h.rules.MinBet, h.rules.MaxBet
	}

	if req.PlayerID != "" && (in.History == nil || in.Balance == 0) {
		if h.database == nil {
			h.fail(w, r, errNoDatabase)
			return
		}
		if in.History == nil {
			history, err := h.database.GetOutcomeHistory(req.PlayerID, historyLimit)
			if err != nil {
				h.fail(w, r, err)
				return
			}
			in.History = history
		}
		if in.Balance == 0 {
			p, err := h.database.GetPlayerByID(req.PlayerID)
			if err != nil {
				h.fail(w, r, err)
				return
			}
			if p == nil {
				h.fail(w, r, fmt.Errorf("player %s: %w", req.PlayerID, errNotRegistered))
				return
			}
			in.Balance = p.Balance
		}
	}

	bet, err := game.NextBet(in)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response(w, http.StatusOK, map[string]interface{}{
		"strategy": in.Strategy,
		"bet":      bet,
		"history":  len(in.History),
	})
}
