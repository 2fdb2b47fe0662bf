package handlers

import (
	"net/http"
	"time"

	"github.com/jamubc/gemini-mcp-tool-sub000/internal/models"
	"github.com/jamubc/gemini-mcp-tool-sub000/internal/store"
)

// ChatStats represents stats for a single chat.
type ChatStats struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	MessageCount int    `json:"message_count"`
	LastActivity string `json:"last_activity"`
}

// StatsResponse represents the response from the stats endpoint.
type StatsResponse struct {
	TotalChats    int         `json:"total_chats"`
	ActiveChats   int         `json:"active_chats"`
	TotalMessages int         `json:"total_messages"`
	LastActivity  string      `json:"last_activity"`
	RecentChats   []ChatStats `json:"recent_chats"`
}

// Stats returns aggregate statistics over the chat store.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.chats.ListChats(r.Context(), store.ListOptions{})
	if err != nil {
		h.Fail(w, err)
		return
	}

	totalMessages := 0
	activeChats := 0
	for _, s := range summaries {
		totalMessages += s.MessageCount
		if s.Status == models.StatusActive {
			activeChats++
		}
	}

	lastActivity := "no activity yet"
	if len(summaries) > 0 {
		// Summaries are ordered by last activity descending.
		lastActivity = formatTimeAgo(summaries[0].LastActivity)
	}

	recent := make([]ChatStats, 0, 5)
	for _, s := range summaries {
		if len(recent) == 5 {
			break
		}
		recent = append(recent, ChatStats{
			ID:           s.ID,
			Title:        s.Title,
			MessageCount: s.MessageCount,
			LastActivity: s.LastActivity.UTC().Format(time.RFC3339),
		})
	}

	h.JSON(w, http.StatusOK, StatsResponse{
		TotalChats:    len(summaries),
		ActiveChats:   activeChats,
		TotalMessages: totalMessages,
		LastActivity:  lastActivity,
		RecentChats:   recent,
	})
}

// formatTimeAgo formats a time as a human-readable "X ago" string.
func formatTimeAgo(t time.Time) string {
	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		mins := int(diff.Minutes())
		if mins == 1 {
			return "1 minute ago"
		}
		return formatInt(mins) + " minutes ago"
	case diff < 24*time.Hour:
		hours := int(diff.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return formatInt(hours) + " hours ago"
	default:
		days := int(diff.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return formatInt(days) + " days ago"
	}
}

// formatInt converts an int to string without importing strconv.
func formatInt(n int) string {
	if n == 0 {
		return "0"
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}
