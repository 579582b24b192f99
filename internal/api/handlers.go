package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/calvinwijaya/blackjack-table/internal/cache"
	"github.com/calvinwijaya/blackjack-table/internal/db"
	"github.com/calvinwijaya/blackjack-table/internal/game"
	"github.com/calvinwijaya/blackjack-table/internal/store"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const (
	statsTTL       = 30 * time.Second
	statsCacheSize = 1024
)

// Handlers contains all the API handlers
type Handlers struct {
	store    store.Store
	database *db.Database
	hub      *Hub
	rules    game.Rules
	logger   *zap.Logger
	locks    *sessionLocks
	stats    *cache.Cache[string, *db.PlayerStats]
}

// NewHandlers creates a new instance of Handlers. rules are the defaults new
// sessions start from; database and hub may be nil.
func NewHandlers(store store.Store, database *db.Database, hub *Hub, rules game.Rules, logger *zap.Logger) *Handlers {
	return &Handlers{
		store:    store,
		database: database,
		hub:      hub,
		rules:    rules,
		logger:   logger,
		locks:    &sessionLocks{locks: make(map[string]*sync.Mutex)},
		stats:    cache.New[string, *db.PlayerStats](statsCacheSize, statsTTL),
	}
}

// RegisterRoutes registers all API routes
func (h *Handlers) RegisterRoutes(r *mux.Router) {
	// Game endpoints
	r.HandleFunc("/api/game/new", h.NewGame).Methods("POST")
	r.HandleFunc("/api/game/{id}", h.GetGame).Methods("GET")
	r.HandleFunc("/api/game/{id}/bet", h.PlaceBet).Methods("POST")
	r.HandleFunc("/api/game/{id}/bet/clear", h.ClearBets).Methods("POST")
	r.HandleFunc("/api/game/{id}/sidebet", h.PlaceSideBet).Methods("POST")
	r.HandleFunc("/api/game/{id}/deal", h.Deal).Methods("POST")
	r.HandleFunc("/api/game/{id}/next", h.NextRound).Methods("POST")
	r.HandleFunc("/api/game/{id}/reshuffle", h.Reshuffle).Methods("POST")
	r.HandleFunc("/api/game/{id}/void", h.VoidRound).Methods("POST")
	r.HandleFunc("/api/game/{id}/odds", h.Odds).Methods("GET")
	r.HandleFunc("/api/game/{id}/hand/{handId}/actions", h.LegalActions).Methods("GET")
	r.HandleFunc("/api/game/{id}/hand/{handId}/{action}", h.Act).Methods("POST")

	// Strategy endpoints
	r.HandleFunc("/api/strategy/list", h.ListStrategies).Methods("GET")
	r.HandleFunc("/api/strategy/next", h.SuggestBet).Methods("POST")

	// Player endpoints
	r.HandleFunc("/api/player/register", h.RegisterPlayer).Methods("POST")
	r.HandleFunc("/api/player/{id}", h.GetPlayer).Methods("GET")
	r.HandleFunc("/api/player/{id}/stats", h.GetPlayerStats).Methods("GET")

	// Table endpoints
	r.HandleFunc("/api/table/list", h.ListTables).Methods("GET")
	r.HandleFunc("/api/table/{id}/join", h.JoinTable).Methods("POST")
	r.HandleFunc("/api/table/{id}/leave", h.LeaveTable).Methods("POST")

	// WebSocket endpoint
	if h.hub != nil {
		r.HandleFunc("/ws", h.hub.WebSocketHandler)
	}
}

// sessionLocks hands out one mutex per key. A session is only ever touched
// while its mutex is held.
type sessionLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (l *sessionLocks) lock(key string) func() {
	l.mu.Lock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// inspect runs fn on a session without persisting it.
func (h *Handlers) inspect(gameID string, fn func(g *game.BlackjackGame) error) error {
	unlock := h.locks.lock(gameID)
	defer unlock()

	g, err := h.store.GetGame(gameID)
	if err != nil {
		return err
	}
	return fn(g)
}

// mutate runs fn on a session, then saves it and pushes the new state to the
// table. A rejected change that left the session untouched is not saved.
func (h *Handlers) mutate(gameID string, fn func(g *game.BlackjackGame) error) error {
	unlock := h.locks.lock(gameID)
	defer unlock()

	g, err := h.store.GetGame(gameID)
	if err != nil {
		return err
	}
	return h.apply(g, fn)
}

func (h *Handlers) apply(g *game.BlackjackGame, fn func(g *game.BlackjackGame) error) error {
	phase, updated := g.Phase, g.UpdatedAt

	fnErr := fn(g)
	if fnErr != nil && g.UpdatedAt.Equal(updated) {
		return fnErr
	}

	if err := h.store.SaveGame(g); err != nil {
		return fmt.Errorf("save game %s: %w", g.ID, err)
	}
	if phase != game.PhaseSettlement && g.Phase == game.PhaseSettlement {
		h.recordRound(g)
	}
	if h.hub != nil {
		h.hub.BroadcastGameUpdate(g)
	}
	return fnErr
}

// recordRound persists a settled round. Failures are logged; the round has
// already been paid out in the session.
func (h *Handlers) recordRound(g *game.BlackjackGame) {
	res := g.LastResult
	if res == nil {
		return
	}

	h.logger.Info("round settled",
		zap.String("game", g.ID),
		zap.String("table", g.TableID),
		zap.Int("round", res.Round),
		zap.Int("hands", len(res.Hands)),
		zap.Int("payout", res.TotalPayout()),
	)

	h.saveRound(g, res)
	for _, p := range g.Players {
		// only once the round is written
		h.stats.Invalidate(p.ID)
		if h.hub != nil {
			h.hub.SendToPlayer(p.ID, Message{
				Type:     "roundSettled",
				GameID:   g.ID,
				TableID:  g.TableID,
				PlayerID: p.ID,
				Data: map[string]int{
					"round":   res.Round,
					"payout":  res.PayoutFor(p.ID),
					"balance": p.Balance,
				},
			})
		}
	}
}

func (h *Handlers) saveRound(g *game.BlackjackGame, res *game.RoundResult) {
	if h.database == nil {
		return
	}

	if err := h.database.SaveRoundResult(g.ID, *res); err != nil {
		h.logger.Error("failed to save round result", zap.String("game", g.ID), zap.Error(err))
	}
	for _, p := range g.Players {
		if err := h.database.UpdatePlayerBalance(p.ID, p.Balance); err != nil {
			h.logger.Warn("failed to update balance", zap.String("player", p.ID), zap.Error(err))
		}
	}
}

// tableRules overlays the fields present in raw on the default rules.
func (h *Handlers) tableRules(raw json.RawMessage) (game.Rules, error) {
	rules := h.rules
	if len(raw) == 0 {
		return rules, nil
	}

	// decoding into the shared default map would modify it
	rules.SideBetPayouts = nil
	if err := json.Unmarshal(raw, &rules); err != nil {
		return game.Rules{}, fmt.Errorf("%w: rules: %v", game.ErrInvalidConfig, err)
	}
	if rules.SideBetPayouts == nil {
		rules.SideBetPayouts = h.rules.SideBetPayouts
	}
	return rules, nil
}

// NewGame creates a new blackjack session
func (h *Handlers) NewGame(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TableID string          `json:"tableId"`
		Seed    *int64          `json:"seed"`
		Rules   json.RawMessage `json:"rules"`
	}

	if err := decode(r, &req); err != nil {
		errorResponse(w, http.StatusBadRequest, codeBadRequest, "Invalid request body")
		return
	}

	if req.TableID == "" {
		req.TableID = uuid.New().String()
	}

	rules, err := h.tableRules(req.Rules)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	g, err := game.NewBlackjackGame(req.TableID, rules, req.Seed)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.store.SaveGame(g); err != nil {
		h.fail(w, r, fmt.Errorf("save game %s: %w", g.ID, err))
		return
	}

	h.logger.Info("game created",
		zap.String("game", g.ID),
		zap.String("table", g.TableID),
		zap.Int("decks", rules.DeckCount),
		zap.Bool("seeded", req.Seed != nil),
	)

	view := g.View("")
	if h.hub != nil {
		h.hub.BroadcastToTable(g.TableID, Message{
			Type:    "gameCreated",
			GameID:  g.ID,
			TableID: g.TableID,
			Data:    view,
		})
	}

	response(w, http.StatusCreated, view)
}

// GetGame returns the state of a game as seen by the requesting player
func (h *Handlers) GetGame(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["id"]
	playerID := r.URL.Query().Get("playerId")

	var view game.GameView
	err := h.inspect(gameID, func(g *game.BlackjackGame) error {
		view = g.View(playerID)
		return nil
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response(w, http.StatusOK, view)
}

// PlaceBet opens a new hand for a player
func (h *Handlers) PlaceBet(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["id"]

	var req struct {
		PlayerID string `json:"playerId"`
		Amount   int    `json:"amount"`
	}

	if err := decode(r, &req); err != nil {
		errorResponse(w, http.StatusBadRequest, codeBadRequest, "Invalid request body")
		return
	}

	var hand game.Hand
	var view game.GameView
	err := h.mutate(gameID, func(g *game.BlackjackGame) error {
		var err error
		if hand, err = g.PlaceBet(req.PlayerID, req.Amount); err != nil {
			return err
		}
		view = g.View(req.PlayerID)
		return nil
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"hand":    hand,
		"game":    view,
	})
}

// ClearBets takes back every hand a player opened this round
func (h *Handlers) ClearBets(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["id"]

	var req struct {
		PlayerID string `json:"playerId"`
	}

	if err := decode(r, &req); err != nil {
		errorResponse(w, http.StatusBadRequest, codeBadRequest, "Invalid request body")
		return
	}

	h.respondWithView(w, r, gameID, req.PlayerID, func(g *game.BlackjackGame) error {
		return g.ClearBets(req.PlayerID)
	})
}

// PlaceSideBet adds a side bet to one of the player's hands
func (h *Handlers) PlaceSideBet(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["id"]

	var req struct {
		PlayerID string           `json:"playerId"`
		HandID   string           `json:"handId"`
		Type     game.SideBetType `json:"type"`
		Amount   int              `json:"amount"`
	}

	if err := decode(r, &req); err != nil {
		errorResponse(w, http.StatusBadRequest, codeBadRequest, "Invalid request body")
		return
	}

	var sb game.SideBet
	var view game.GameView
	err := h.mutate(gameID, func(g *game.BlackjackGame) error {
		if err := ownHand(g, req.HandID, req.PlayerID); err != nil {
			return err
		}
		var err error
		if sb, err = g.PlaceSideBet(req.HandID, req.Type, req.Amount); err != nil {
			return err
		}
		view = g.View(req.PlayerID)
		return nil
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"sideBet": sb,
		"game":    view,
	})
}

// Deal closes betting and deals the opening cards
func (h *Handlers) Deal(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["id"]
	h.respondWithView(w, r, gameID, r.URL.Query().Get("playerId"), (*game.BlackjackGame).Deal)
}

// NextRound clears a settled round and reopens betting
func (h *Handlers) NextRound(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["id"]
	h.respondWithView(w, r, gameID, r.URL.Query().Get("playerId"), (*game.BlackjackGame).NextRound)
}

// Reshuffle rebuilds and shuffles the shoe between rounds
func (h *Handlers) Reshuffle(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["id"]
	h.respondWithView(w, r, gameID, r.URL.Query().Get("playerId"), (*game.BlackjackGame).Reshuffle)
}

// VoidRound cancels the round in progress and refunds every wager
func (h *Handlers) VoidRound(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["id"]
	h.respondWithView(w, r, gameID, r.URL.Query().Get("playerId"), func(g *game.BlackjackGame) error {
		round := g.Round
		if err := g.VoidRound(); err != nil {
			return err
		}
		h.logger.Warn("round voided", zap.String("game", g.ID), zap.Int("round", round))
		return nil
	})
}

// Act applies a player decision to a hand. The insurance action takes an
// optional {"take": false} to decline.
func (h *Handlers) Act(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	gameID, handID := vars["id"], vars["handId"]

	action, ok := game.ParseAction(vars["action"])
	if !ok {
		errorResponse(w, http.StatusBadRequest, codeBadRequest, "Unknown action "+vars["action"])
		return
	}

	var req struct {
		PlayerID string `json:"playerId"`
		Take     *bool  `json:"take"`
	}

	if err := decode(r, &req); err != nil {
		errorResponse(w, http.StatusBadRequest, codeBadRequest, "Invalid request body")
		return
	}

	h.respondWithView(w, r, gameID, req.PlayerID, func(g *game.BlackjackGame) error {
		if err := ownHand(g, handID, req.PlayerID); err != nil {
			return err
		}
		if action == game.ActionInsurance && req.Take != nil {
			return g.Insurance(handID, *req.Take)
		}
		return g.Act(handID, action)
	})
}

// LegalActions lists what the hand may do right now
func (h *Handlers) LegalActions(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	gameID, handID := vars["id"], vars["handId"]

	var actions []game.Action
	err := h.inspect(gameID, func(g *game.BlackjackGame) error {
		var err error
		actions, err = g.LegalActions(handID)
		return err
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if actions == nil {
		actions = []game.Action{}
	}
	response(w, http.StatusOK, map[string]interface{}{
		"handId":  handID,
		"actions": actions,
	})
}

// Odds returns the dealer's final-hand distribution while the hole card is
// down
func (h *Handlers) Odds(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["id"]

	var odds game.DealerOdds
	err := h.inspect(gameID, func(g *game.BlackjackGame) error {
		var err error
		odds, err = g.Odds()
		return err
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response(w, http.StatusOK, odds)
}

func (h *Handlers) respondWithView(w http.ResponseWriter, r *http.Request, gameID, viewerID string, fn func(g *game.BlackjackGame) error) {
	var view game.GameView
	err := h.mutate(gameID, func(g *game.BlackjackGame) error {
		if err := fn(g); err != nil {
			return err
		}
		view = g.View(viewerID)
		return nil
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"game":    view,
	})
}

// ownHand rejects requests for a hand that belongs to someone else.
func ownHand(g *game.BlackjackGame, handID, playerID string) error {
	hand, err := g.Hand(handID)
	if err != nil {
		return err
	}
	if hand.PlayerID != playerID {
		return fmt.Errorf("hand %s: %w", handID, errNotOwner)
	}
	return nil
}
