package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/jamubc/gemini-mcp-tool-sub000/internal/metrics"
	"github.com/jamubc/gemini-mcp-tool-sub000/internal/models"
	"github.com/jamubc/gemini-mcp-tool-sub000/internal/store"
)

// Limits enforced by the chat store.
const (
	MaxTitleLength         = 200
	MaxContentLength       = 10000
	MaxActiveChatsPerAgent = 10

	// DefaultLockTimeout bounds how long an operation waits for a chat's
	// critical section.
	DefaultLockTimeout = 5 * time.Second

	// continuousWindow is the gap below which a returning agent is
	// considered continuously active.
	continuousWindow = 5 * time.Minute
)

// AcceptedFunc is invoked with the raw (pre-sanitization) message content
// after a successful append, while the chat's lock is still held. Callers
// use it to pipeline further processing inside the same critical section.
type AcceptedFunc func(content string)

// Store orchestrates chat creation, reads, appends, listing, and deletion
// over an injected persistence adapter and lock manager.
type Store struct {
	adapter     store.Adapter
	locks       *LockManager
	logger      zerolog.Logger
	lockTimeout time.Duration
	now         func() time.Time
}

// NewStore creates a chat store over the given adapter and lock manager.
// A non-positive lockTimeout falls back to DefaultLockTimeout.
func NewStore(adapter store.Adapter, locks *LockManager, logger zerolog.Logger, lockTimeout time.Duration) *Store {
	if lockTimeout <= 0 {
		lockTimeout = DefaultLockTimeout
	}
	return &Store{
		adapter:     adapter,
		locks:       locks,
		logger:      logger,
		lockTimeout: lockTimeout,
		now:         time.Now,
	}
}

// chatLockKey namespaces chat locks apart from per-agent creation locks.
func chatLockKey(id string) string { return "chat:" + id }
func agentLockKey(agent string) string { return "agent:" + agent }

// CreateChat validates the title and creator, enforces the creator's
// active-chat quota, allocates a canonical id, and persists an empty chat.
// Creation for the same agent is serialized so the quota check and the
// insert cannot race.
func (s *Store) CreateChat(ctx context.Context, title, creator string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", &ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if ContentLength(title) > MaxTitleLength {
		return "", &ValidationError{Field: "title", Reason: "must be at most 200 characters"}
	}
	creator = strings.TrimSpace(creator)
	if creator == "" {
		return "", &ValidationError{Field: "agent", Reason: "must not be empty"}
	}

	var chatID string
	err := s.locks.WithLock(ctx, agentLockKey(creator), s.lockTimeout, func() error {
		owned, err := s.adapter.ListChats(ctx, store.ListOptions{
			Status:    models.StatusActive,
			CreatedBy: creator,
		})
		if err != nil {
			return &PersistenceError{Op: "list", Err: err}
		}
		if len(owned) >= MaxActiveChatsPerAgent {
			return &QuotaExceededError{Agent: creator, Limit: MaxActiveChatsPerAgent}
		}

		all, err := s.adapter.ListChats(ctx, store.ListOptions{})
		if err != nil {
			return &PersistenceError{Op: "list", Err: err}
		}
		existing := make(map[string]bool, len(all))
		for _, summary := range all {
			existing[summary.ID] = true
		}
		id, err := GenerateUniqueFromTitle(title, existing, 10)
		if err != nil {
			return err
		}

		now := s.now()
		rec := &models.ChatRecord{
			Chat: models.Chat{
				ID:           id,
				Title:        title,
				CreatedBy:    creator,
				Participants: []string{},
				Messages:     []models.Message{},
				Created:      now,
				LastActivity: now,
				Status:       models.StatusActive,
			},
			AgentStates:    make(map[string]models.AgentState),
			LastAccessTime: now,
		}
		if err := s.adapter.SaveChat(ctx, rec); err != nil {
			return &PersistenceError{Op: "save", Err: err}
		}
		chatID = id
		return nil
	})
	if err != nil {
		s.noteLockTimeout(err)
		return "", err
	}

	metrics.ChatsCreated.Inc()
	s.logger.Info().Str("chat_id", chatID).Str("agent", creator).Msg("chat created")
	return chatID, nil
}

// GetChat loads a chat, returning nil when it does not exist. When
// requestingAgent is non-empty and not yet a participant, it is added and
// the change persisted as a side effect of the read. Plain reads bypass the
// lock; a join is a write and runs inside the chat's critical section so it
// cannot clobber a concurrent append.
func (s *Store) GetChat(ctx context.Context, id, requestingAgent string) (*models.Chat, error) {
	chatID := CanonicalID(id)

	if requestingAgent == "" {
		rec, err := s.adapter.LoadChat(ctx, chatID)
		if err != nil {
			return nil, &PersistenceError{Op: "load", Err: err}
		}
		if rec == nil {
			return nil, nil
		}
		return &rec.Chat, nil
	}

	var out *models.Chat
	err := s.locks.WithLock(ctx, chatLockKey(chatID), s.lockTimeout, func() error {
		rec, err := s.adapter.LoadChat(ctx, chatID)
		if err != nil {
			return &PersistenceError{Op: "load", Err: err}
		}
		if rec == nil {
			return nil
		}
		if !rec.Chat.HasParticipant(requestingAgent) {
			rec.Chat.AddParticipant(requestingAgent)
			if err := s.adapter.SaveChat(ctx, rec); err != nil {
				return &PersistenceError{Op: "save", Err: err}
			}
		}
		out = &rec.Chat
		return nil
	})
	if err != nil {
		s.noteLockTimeout(err)
		return nil, err
	}
	return out, nil
}

// AddMessage appends a message to a chat inside its critical section:
// sanitize, append, update participants and agent state, truncate, persist.
// onAccepted, when supplied, runs with the raw content before the lock is
// released.
func (s *Store) AddMessage(ctx context.Context, id, agent, content string, onAccepted AcceptedFunc) (*models.Message, error) {
	agent = strings.TrimSpace(agent)
	if agent == "" {
		return nil, &ValidationError{Field: "agent", Reason: "must not be empty"}
	}
	if content == "" {
		return nil, &ValidationError{Field: "content", Reason: "must not be empty"}
	}
	if ContentLength(content) > MaxContentLength {
		return nil, &ValidationError{Field: "content", Reason: "must be at most 10000 characters"}
	}

	// No existence pre-check: loading would refresh the chat's last-access
	// timestamp, and a timed-out append must leave no trace at all. The
	// in-lock load raises NotFound instead.
	chatID := CanonicalID(id)

	var msg *models.Message
	err := s.locks.WithLock(ctx, chatLockKey(chatID), s.lockTimeout, func() error {
		rec, err := s.adapter.LoadChat(ctx, chatID)
		if err != nil {
			return &PersistenceError{Op: "load", Err: err}
		}
		if rec == nil {
			return &NotFoundError{ChatID: chatID}
		}

		cleaned, sanitized := Sanitize(content)
		now := s.now()
		m := models.Message{
			ID:        ulid.Make().String(),
			ChatID:    chatID,
			Agent:     agent,
			Content:   cleaned,
			Timestamp: now,
			Sanitized: sanitized,
		}
		rec.Chat.Messages = append(rec.Chat.Messages, m)
		rec.Chat.AddParticipant(agent)

		state, seen := rec.AgentStates[agent]
		switch {
		case !seen:
			state.ParticipationState = models.ParticipationNew
		case now.Sub(state.LastActiveAt) <= continuousWindow:
			state.ParticipationState = models.ParticipationContinuous
		default:
			state.ParticipationState = models.ParticipationReturning
		}
		state.LastSeenMessageID = m.ID
		state.LastActiveAt = now
		rec.AgentStates[agent] = state

		truncated := Truncate(&rec.Chat)
		rec.Chat.LastActivity = now
		rec.LastAccessTime = now

		if err := s.adapter.SaveChat(ctx, rec); err != nil {
			return &PersistenceError{Op: "save", Err: err}
		}

		metrics.MessagesAppended.Inc()
		if sanitized {
			metrics.MessagesSanitized.Inc()
		}
		if truncated.Evicted > 0 {
			metrics.MessagesEvicted.Add(float64(truncated.Evicted))
			s.logger.Debug().
				Str("chat_id", chatID).
				Int("evicted", truncated.Evicted).
				Msg("history truncated")
		}

		msg = &m
		if onAccepted != nil {
			onAccepted(content)
		}
		return nil
	})
	if err != nil {
		s.noteLockTimeout(err)
		return nil, err
	}
	return msg, nil
}

// ListChats returns chat summaries ordered by last activity descending.
func (s *Store) ListChats(ctx context.Context, opts store.ListOptions) ([]models.ChatSummary, error) {
	summaries, err := s.adapter.ListChats(ctx, opts)
	if err != nil {
		return nil, &PersistenceError{Op: "list", Err: err}
	}
	return summaries, nil
}

// DeleteChat removes the chat and all durable artifacts. Deleting a missing
// chat returns false, not an error.
func (s *Store) DeleteChat(ctx context.Context, id string) (bool, error) {
	deleted, err := s.adapter.DeleteChat(ctx, CanonicalID(id))
	if err != nil {
		return false, &PersistenceError{Op: "delete", Err: err}
	}
	return deleted, nil
}

// HistoryForAgent returns the transcript the agent should replay to the
// reasoning CLI: the full formatted history on first consumption, or only
// the messages after the agent's last-seen message once it has history.
// Consumption is recorded under the chat's lock.
func (s *Store) HistoryForAgent(ctx context.Context, id, agent string) (string, error) {
	chatID := CanonicalID(id)
	var transcript string
	err := s.locks.WithLock(ctx, chatLockKey(chatID), s.lockTimeout, func() error {
		rec, err := s.adapter.LoadChat(ctx, chatID)
		if err != nil {
			return &PersistenceError{Op: "load", Err: err}
		}
		if rec == nil {
			return &NotFoundError{ChatID: chatID}
		}

		state := rec.AgentStates[agent]
		if rec.Chat.HasHistory(agent) && state.LastSeenMessageID != "" {
			transcript = FormatMessages(messagesAfter(rec.Chat.Messages, state.LastSeenMessageID))
		} else {
			transcript = FormatHistoryForGemini(&rec.Chat)
		}

		rec.Chat.MarkHistoryConsumed(agent)
		if n := len(rec.Chat.Messages); n > 0 {
			state.LastSeenMessageID = rec.Chat.Messages[n-1].ID
		}
		state.LastActiveAt = s.now()
		if state.ParticipationState == "" {
			state.ParticipationState = models.ParticipationNew
		}
		rec.AgentStates[agent] = state
		rec.LastAccessTime = s.now()

		if err := s.adapter.SaveChat(ctx, rec); err != nil {
			return &PersistenceError{Op: "save", Err: err}
		}
		return nil
	})
	if err != nil {
		s.noteLockTimeout(err)
		return "", err
	}
	return transcript, nil
}

// messagesAfter returns the messages strictly after the one with the given
// id. An id no longer present (evicted) yields the whole list.
func messagesAfter(messages []models.Message, lastSeenID string) []models.Message {
	for i, m := range messages {
		if m.ID == lastSeenID {
			return messages[i+1:]
		}
	}
	return messages
}

// CleanupExpired runs the TTL sweep: chats unread for 24 hours are removed.
// Sweep failures are logged, never surfaced to the caller.
func (s *Store) CleanupExpired(ctx context.Context) store.CleanupResult {
	result, err := s.adapter.CleanupExpired(ctx, store.ExpiryAge)
	if err != nil {
		s.logger.Error().Err(err).Msg("cleanup sweep failed")
		return result
	}
	for _, sweepErr := range result.Errors {
		s.logger.Warn().Err(sweepErr).Msg("cleanup sweep entry failed")
	}
	if result.Deleted > 0 {
		metrics.ChatsCleaned.Add(float64(result.Deleted))
		s.logger.Info().Int("deleted", result.Deleted).Msg("expired chats removed")
	}
	return result
}

// noteLockTimeout counts lock-timeout failures.
func (s *Store) noteLockTimeout(err error) {
	var lt *LockTimeoutError
	if errors.As(err, &lt) {
		metrics.LockTimeouts.Inc()
	}
}
