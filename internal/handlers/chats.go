package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/jamubc/gemini-mcp-tool-sub000/internal/models"
	"github.com/jamubc/gemini-mcp-tool-sub000/internal/store"
)

// GeminiAgent is the participant name Gemini replies are recorded under.
const GeminiAgent = "gemini"

// CreateChatRequest represents the chat creation request.
type CreateChatRequest struct {
	Title string `json:"title"`
	Agent string `json:"agent"`
}

// CreateChatResponse represents the chat creation response.
type CreateChatResponse struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// CreateChat handles chat creation.
func (h *Handler) CreateChat(w http.ResponseWriter, r *http.Request) {
	var req CreateChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	id, err := h.chats.CreateChat(r.Context(), req.Title, req.Agent)
	if err != nil {
		h.Fail(w, err)
		return
	}

	h.JSON(w, http.StatusCreated, CreateChatResponse{ID: id, Title: req.Title})
}

// GetChat handles fetching one chat. A non-empty ?agent= joins the caller as
// a participant as a side effect of the read.
func (h *Handler) GetChat(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	agent := r.URL.Query().Get("agent")

	loaded, err := h.chats.GetChat(r.Context(), id, agent)
	if err != nil {
		h.Fail(w, err)
		return
	}
	if loaded == nil {
		h.Error(w, http.StatusNotFound, "chat not found")
		return
	}
	h.JSON(w, http.StatusOK, loaded)
}

// ChatListResponse represents the chat list response.
type ChatListResponse struct {
	Chats []models.ChatSummary `json:"chats"`
	Total int                  `json:"total"`
}

// ListChats handles listing chats with status/agent filters and pagination.
func (h *Handler) ListChats(w http.ResponseWriter, r *http.Request) {
	opts := store.ListOptions{
		Status: r.URL.Query().Get("status"),
		Agent:  r.URL.Query().Get("agent"),
		Limit:  20,
	}
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			opts.Limit = l
		}
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			opts.Offset = o
		}
	}

	summaries, err := h.chats.ListChats(r.Context(), opts)
	if err != nil {
		h.Fail(w, err)
		return
	}
	h.JSON(w, http.StatusOK, ChatListResponse{Chats: summaries, Total: len(summaries)})
}

// DeleteChat handles chat deletion. Deleting a missing chat is not an error.
func (h *Handler) DeleteChat(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	deleted, err := h.chats.DeleteChat(r.Context(), id)
	if err != nil {
		h.Fail(w, err)
		return
	}
	h.JSON(w, http.StatusOK, map[string]bool{"deleted": deleted})
}

// PostMessageRequest represents the post message request.
type PostMessageRequest struct {
	Agent   string `json:"agent"`
	Message string `json:"message"`
}

// PostMessageResponse represents the post message response.
type PostMessageResponse struct {
	ID        string `json:"id"`
	Sanitized bool   `json:"sanitized,omitempty"`
	Timestamp int64  `json:"ts"`
}

// PostMessage handles appending a message to a chat.
func (h *Handler) PostMessage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req PostMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	msg, err := h.chats.AddMessage(r.Context(), id, req.Agent, req.Message, nil)
	if err != nil {
		h.Fail(w, err)
		return
	}

	h.JSON(w, http.StatusCreated, PostMessageResponse{
		ID:        msg.ID,
		Sanitized: msg.Sanitized,
		Timestamp: msg.Timestamp.UnixMilli(),
	})
}

// AskRequest represents an ask-gemini request: the agent's message is
// appended to the chat, relayed to the Gemini CLI with the agent's history
// view, and the reply appended under the gemini participant.
type AskRequest struct {
	Agent   string `json:"agent"`
	Message string `json:"message"`
}

// AskResponse represents the ask-gemini response.
type AskResponse struct {
	Reply     string `json:"reply"`
	MessageID string `json:"messageId"`
}

// Ask handles one reasoning turn against the Gemini CLI.
func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	history, err := h.chats.HistoryForAgent(r.Context(), id, GeminiAgent)
	if err != nil {
		h.Fail(w, err)
		return
	}

	msg, err := h.chats.AddMessage(r.Context(), id, req.Agent, req.Message, nil)
	if err != nil {
		h.Fail(w, err)
		return
	}

	reply, err := h.gem.Ask(r.Context(), buildTurn(history, req.Agent, msg.Content))
	if err != nil {
		h.logger.Error().Err(err).Str("chat_id", id).Msg("gemini turn failed")
		h.Error(w, http.StatusBadGateway, "reasoning backend unavailable")
		return
	}

	if _, err := h.chats.AddMessage(r.Context(), id, GeminiAgent, reply, nil); err != nil {
		h.Fail(w, err)
		return
	}

	h.JSON(w, http.StatusOK, AskResponse{Reply: reply, MessageID: msg.ID})
}

// History returns the transcript an agent should replay: full on first
// consumption, incremental afterwards.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	agent := r.URL.Query().Get("agent")
	if agent == "" {
		h.Error(w, http.StatusBadRequest, "agent query parameter is required")
		return
	}

	transcript, err := h.chats.HistoryForAgent(r.Context(), id, agent)
	if err != nil {
		h.Fail(w, err)
		return
	}
	h.JSON(w, http.StatusOK, map[string]string{"history": transcript})
}
