package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/calvinwijaya/blackjack-table/internal/db"
	"github.com/calvinwijaya/blackjack-table/internal/game"
	"github.com/calvinwijaya/blackjack-table/internal/store"
	"go.uber.org/zap"
)

// Error codes returned in the "code" field of error bodies.
const (
	codeBadRequest    = "bad_request"
	codeInvalidConfig = "invalid_config"
	codeIllegalAction = "illegal_action"
	codeEmptyShoe     = "empty_shoe"
	codeNotFound      = "not_found"
	codeForbidden     = "forbidden"
	codeUnavailable   = "unavailable"
	codeInternal      = "internal"
)

var (
	errNotOwner      = errors.New("hand belongs to another player")
	errNoDatabase    = errors.New("database not available")
	errNotRegistered = errors.New("player not registered")
)

// response helper function to send JSON responses
func response(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResponse(w http.ResponseWriter, status int, code, message string) {
	response(w, status, map[string]string{"error": message, "code": code})
}

// decode reads an optional JSON body into v. An empty body is not an error.
func decode(r *http.Request, v interface{}) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// classify maps an error onto an HTTP status and error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, errNotOwner):
		return http.StatusForbidden, codeForbidden
	case errors.Is(err, errNoDatabase):
		return http.StatusServiceUnavailable, codeUnavailable
	case errors.Is(err, errNotRegistered),
		errors.Is(err, store.ErrNotFound),
		errors.Is(err, db.ErrNotFound),
		errors.Is(err, game.ErrUnknownHand),
		errors.Is(err, game.ErrUnknownPlayer):
		return http.StatusNotFound, codeNotFound
	case errors.Is(err, game.ErrEmptyShoe):
		return http.StatusConflict, codeEmptyShoe
	case errors.Is(err, game.ErrIllegalAction):
		return http.StatusConflict, codeIllegalAction
	case errors.Is(err, game.ErrInvalidConfig):
		return http.StatusBadRequest, codeInvalidConfig
	default:
		return http.StatusInternalServerError, codeInternal
	}
}

func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		errorResponse(w, status, code, "internal error")
		return
	}
	errorResponse(w, status, code, err.Error())
}
