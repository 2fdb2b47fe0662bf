package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/jamubc/gemini-mcp-tool-sub000/internal/models"
)

// SQLiteStore persists chat records in a single SQLite table. Messages and
// per-agent state are stored as JSON columns; INSERT OR REPLACE keeps
// exactly one row per chat id.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore opens (or creates) the database at dbPath.
// If dbPath is empty, defaults to "./data/chats.db".
func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		dbPath = "./data/chats.db"
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db, now: time.Now}
	if err := store.initSchema(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

// initSchema creates the chats table if it doesn't exist.
func (s *SQLiteStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS chats (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		created_by TEXT NOT NULL DEFAULT '',
		created INTEGER NOT NULL,
		last_activity INTEGER NOT NULL,
		last_access INTEGER NOT NULL,
		status TEXT NOT NULL DEFAULT 'active',
		participants TEXT NOT NULL DEFAULT '[]',
		messages TEXT NOT NULL DEFAULT '[]',
		agents_with_history TEXT NOT NULL DEFAULT '[]',
		agent_states TEXT NOT NULL DEFAULT '{}'
	);

	CREATE INDEX IF NOT EXISTS idx_chats_last_activity ON chats(last_activity);
	CREATE INDEX IF NOT EXISTS idx_chats_last_access ON chats(last_access);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// SaveChat upserts the record; only the newest version per id is retained.
func (s *SQLiteStore) SaveChat(ctx context.Context, rec *models.ChatRecord) error {
	participants, err := json.Marshal(rec.Chat.Participants)
	if err != nil {
		return err
	}
	messages, err := json.Marshal(rec.Chat.Messages)
	if err != nil {
		return err
	}
	withHistory, err := json.Marshal(rec.Chat.AgentsWithHistory)
	if err != nil {
		return err
	}
	states, err := json.Marshal(rec.AgentStates)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO chats
			(id, title, created_by, created, last_activity, last_access, status,
			 participants, messages, agents_with_history, agent_states)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.Chat.ID,
		rec.Chat.Title,
		rec.Chat.CreatedBy,
		rec.Chat.Created.UnixMilli(),
		rec.Chat.LastActivity.UnixMilli(),
		rec.LastAccessTime.UnixMilli(),
		rec.Chat.Status,
		string(participants),
		string(messages),
		string(withHistory),
		string(states),
	)
	return err
}

// scanRecord reads one row into a ChatRecord.
func scanRecord(row interface{ Scan(...any) error }) (*models.ChatRecord, error) {
	var (
		rec          models.ChatRecord
		created      int64
		lastActivity int64
		lastAccess   int64
		participants string
		messages     string
		withHistory  string
		states       string
	)
	err := row.Scan(
		&rec.Chat.ID,
		&rec.Chat.Title,
		&rec.Chat.CreatedBy,
		&created,
		&lastActivity,
		&lastAccess,
		&rec.Chat.Status,
		&participants,
		&messages,
		&withHistory,
		&states,
	)
	if err != nil {
		return nil, err
	}
	rec.Chat.Created = time.UnixMilli(created)
	rec.Chat.LastActivity = time.UnixMilli(lastActivity)
	rec.LastAccessTime = time.UnixMilli(lastAccess)
	if err := json.Unmarshal([]byte(participants), &rec.Chat.Participants); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(messages), &rec.Chat.Messages); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(withHistory), &rec.Chat.AgentsWithHistory); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(states), &rec.AgentStates); err != nil {
		return nil, err
	}
	if rec.AgentStates == nil {
		rec.AgentStates = make(map[string]models.AgentState)
	}
	return &rec, nil
}

const selectColumns = `id, title, created_by, created, last_activity, last_access, status,
	participants, messages, agents_with_history, agent_states`

// LoadChat reads the record and refreshes its last-access timestamp.
func (s *SQLiteStore) LoadChat(ctx context.Context, id string) (*models.ChatRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM chats WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	now := s.now()
	if _, err := s.db.ExecContext(ctx, `UPDATE chats SET last_access = ? WHERE id = ?`, now.UnixMilli(), id); err != nil {
		return nil, err
	}
	rec.LastAccessTime = now
	return rec, nil
}

// ListChats reads all rows newest-activity-first and summarizes.
func (s *SQLiteStore) ListChats(ctx context.Context, opts ListOptions) ([]models.ChatSummary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+selectColumns+` FROM chats ORDER BY last_activity DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*models.ChatRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return summarize(records, opts), nil
}

// DeleteChat removes the row; false when it was already absent.
func (s *SQLiteStore) DeleteChat(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM chats WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// CleanupExpired removes chats unread for longer than olderThan.
func (s *SQLiteStore) CleanupExpired(ctx context.Context, olderThan time.Duration) (CleanupResult, error) {
	var result CleanupResult
	cutoff := s.now().Add(-olderThan).UnixMilli()
	res, err := s.db.ExecContext(ctx, `DELETE FROM chats WHERE last_access < ?`, cutoff)
	if err != nil {
		return result, fmt.Errorf("expiry sweep: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return result, err
	}
	result.Deleted = int(affected)
	return result, nil
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
