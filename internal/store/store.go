package store

import (
	"context"
	"sort"
	"time"

	"github.com/jamubc/gemini-mcp-tool-sub000/internal/models"
)

// ExpiryAge is how long a chat may go unread before the TTL sweep removes it.
const ExpiryAge = 24 * time.Hour

// ListOptions filters and paginates chat listings.
type ListOptions struct {
	Status    string // match chat status; empty matches all
	Agent     string // match a participant or the creator; empty matches all
	CreatedBy string // match the creator only; empty matches all
	Limit     int    // 0 means no limit
	Offset    int
}

// CleanupResult reports the outcome of a TTL sweep.
type CleanupResult struct {
	Deleted int
	Errors  []error
}

// Adapter is the interface for durable or volatile chat persistence.
// MemoryStore, FileStore, RedisStore, and SQLiteStore implement it.
//
// LoadChat returns (nil, nil) for an unknown id and refreshes the record's
// last-access timestamp as a side effect of the read. Implementations hand
// out records the caller may freely mutate.
type Adapter interface {
	SaveChat(ctx context.Context, rec *models.ChatRecord) error
	LoadChat(ctx context.Context, id string) (*models.ChatRecord, error)
	ListChats(ctx context.Context, opts ListOptions) ([]models.ChatSummary, error)
	DeleteChat(ctx context.Context, id string) (bool, error)

	// CleanupExpired removes chats unread for longer than olderThan. It is
	// best-effort: individual failures are collected, never fatal.
	CleanupExpired(ctx context.Context, olderThan time.Duration) (CleanupResult, error)

	Ping(ctx context.Context) error
	Close() error
}

// matches reports whether a record passes the list filter.
func matches(rec *models.ChatRecord, opts ListOptions) bool {
	if opts.Status != "" && rec.Chat.Status != opts.Status {
		return false
	}
	if opts.CreatedBy != "" && rec.Chat.CreatedBy != opts.CreatedBy {
		return false
	}
	if opts.Agent != "" && rec.Chat.CreatedBy != opts.Agent && !rec.Chat.HasParticipant(opts.Agent) {
		return false
	}
	return true
}

// summarize filters, orders by last activity descending, and paginates.
func summarize(records []*models.ChatRecord, opts ListOptions) []models.ChatSummary {
	summaries := make([]models.ChatSummary, 0, len(records))
	for _, rec := range records {
		if matches(rec, opts) {
			summaries = append(summaries, rec.Summary())
		}
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].LastActivity.After(summaries[j].LastActivity)
	})
	if opts.Offset > 0 {
		if opts.Offset >= len(summaries) {
			return []models.ChatSummary{}
		}
		summaries = summaries[opts.Offset:]
	}
	if opts.Limit > 0 && len(summaries) > opts.Limit {
		summaries = summaries[:opts.Limit]
	}
	return summaries
}
