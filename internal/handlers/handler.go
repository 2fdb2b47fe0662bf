package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/jamubc/gemini-mcp-tool-sub000/internal/chat"
	"github.com/jamubc/gemini-mcp-tool-sub000/internal/gemini"
	"github.com/jamubc/gemini-mcp-tool-sub000/internal/store"
)

// Handler contains shared dependencies for all HTTP handlers.
type Handler struct {
	chats   *chat.Store
	gem     *gemini.Client
	adapter store.Adapter
	logger  zerolog.Logger
}

// NewHandler creates a new Handler with the given dependencies.
func NewHandler(chats *chat.Store, gem *gemini.Client, adapter store.Adapter, logger zerolog.Logger) *Handler {
	return &Handler{chats: chats, gem: gem, adapter: adapter, logger: logger}
}

// buildTurn assembles one reasoning turn for the Gemini client.
func buildTurn(history, agent, message string) gemini.Request {
	return gemini.Request{History: history, Agent: agent, Message: message}
}

// JSON sends a JSON response with the given status code.
func (h *Handler) JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Error sends a JSON error response with the given status code.
func (h *Handler) Error(w http.ResponseWriter, status int, message string) {
	h.JSON(w, status, map[string]string{"error": message})
}

// Fail maps a chat-layer error to its HTTP status and error body.
func (h *Handler) Fail(w http.ResponseWriter, err error) {
	var (
		validation *chat.ValidationError
		notFound   *chat.NotFoundError
		quota      *chat.QuotaExceededError
		lockWait   *chat.LockTimeoutError
		persist    *chat.PersistenceError
	)
	switch {
	case errors.As(err, &validation):
		h.Error(w, http.StatusBadRequest, validation.Error())
	case errors.As(err, &notFound):
		h.Error(w, http.StatusNotFound, notFound.Error())
	case errors.As(err, &quota):
		h.Error(w, http.StatusTooManyRequests, quota.Error())
	case errors.As(err, &lockWait):
		// Safe to retry; no side effects occurred.
		h.Error(w, http.StatusServiceUnavailable, lockWait.Error())
	case errors.As(err, &persist):
		h.logger.Error().Err(err).Msg("persistence failure")
		h.Error(w, http.StatusInternalServerError, "storage error")
	default:
		h.logger.Error().Err(err).Msg("unhandled error")
		h.Error(w, http.StatusInternalServerError, "internal error")
	}
}
