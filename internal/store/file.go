package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jamubc/gemini-mcp-tool-sub000/internal/models"
)

// FileStore persists each chat as a JSON record in its own file. Every save
// writes a fresh `<id>_<unixms>.json` version and best-effort removes older
// versions of the same chat. Writes are not atomic across abrupt process
// termination; a torn file is treated as absent.
type FileStore struct {
	dir    string
	logger zerolog.Logger
	now    func() time.Time
}

// NewFileStore creates a file store rooted at dir, creating it if needed.
func NewFileStore(dir string, logger zerolog.Logger) (*FileStore, error) {
	if dir == "" {
		dir = "./data/chats"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileStore{dir: dir, logger: logger, now: time.Now}, nil
}

// recordFile names a version of a chat record. Chat ids never contain an
// underscore, so the last one separates id from version.
func recordFile(id string, ts time.Time) string {
	return fmt.Sprintf("%s_%d.json", id, ts.UnixMilli())
}

// splitRecordFile recovers (id, version) from a record filename.
func splitRecordFile(name string) (string, int64, bool) {
	base, ok := strings.CutSuffix(name, ".json")
	if !ok {
		return "", 0, false
	}
	i := strings.LastIndexByte(base, '_')
	if i <= 0 {
		return "", 0, false
	}
	version, err := strconv.ParseInt(base[i+1:], 10, 64)
	if err != nil {
		return "", 0, false
	}
	return base[:i], version, true
}

// SaveChat writes a new version of the record and prunes older ones.
func (s *FileStore) SaveChat(ctx context.Context, rec *models.ChatRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	name := recordFile(rec.Chat.ID, s.now())
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return err
	}
	s.pruneOldVersions(rec.Chat.ID, name)
	return nil
}

// pruneOldVersions removes every version of the chat except keep. Failures
// are logged and ignored; the newest version always wins on load.
func (s *FileStore) pruneOldVersions(id, keep string) {
	names, err := s.versionsOf(id)
	if err != nil {
		s.logger.Warn().Err(err).Str("chat_id", id).Msg("listing old chat versions failed")
		return
	}
	for _, name := range names {
		if name == keep {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil {
			s.logger.Warn().Err(err).Str("file", name).Msg("removing old chat version failed")
		}
	}
}

// versionsOf returns all record filenames for a chat id.
func (s *FileStore) versionsOf(id string) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		fileID, _, ok := splitRecordFile(entry.Name())
		if ok && fileID == id {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

// newestVersion returns the highest-versioned record filename for id, or ""
// when none exists.
func (s *FileStore) newestVersion(id string) (string, error) {
	names, err := s.versionsOf(id)
	if err != nil {
		return "", err
	}
	newest := ""
	var newestTS int64 = -1
	for _, name := range names {
		_, ts, _ := splitRecordFile(name)
		if ts > newestTS {
			newest, newestTS = name, ts
		}
	}
	return newest, nil
}

// LoadChat reads the newest version and writes the refreshed last-access
// timestamp back in place.
func (s *FileStore) LoadChat(ctx context.Context, id string) (*models.ChatRecord, error) {
	name, err := s.newestVersion(id)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, nil
	}
	path := filepath.Join(s.dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var rec models.ChatRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		// Torn or foreign file; treat as absent.
		s.logger.Warn().Err(err).Str("file", name).Msg("unreadable chat record")
		return nil, nil
	}

	rec.LastAccessTime = s.now()
	if updated, err := json.Marshal(&rec); err == nil {
		if err := os.WriteFile(path, updated, 0o644); err != nil {
			s.logger.Warn().Err(err).Str("file", name).Msg("last-access write-back failed")
		}
	}
	return &rec, nil
}

// ListChats loads the newest version of every chat and summarizes.
func (s *FileStore) ListChats(ctx context.Context, opts ListOptions) ([]models.ChatSummary, error) {
	ids, err := s.allIDs()
	if err != nil {
		return nil, err
	}
	records := make([]*models.ChatRecord, 0, len(ids))
	for id := range ids {
		rec, err := s.readNewest(id)
		if err != nil {
			s.logger.Warn().Err(err).Str("chat_id", id).Msg("skipping unreadable chat")
			continue
		}
		if rec != nil {
			records = append(records, rec)
		}
	}
	return summarize(records, opts), nil
}

// readNewest reads the newest version without the last-access write-back.
func (s *FileStore) readNewest(id string) (*models.ChatRecord, error) {
	name, err := s.newestVersion(id)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, nil
	}
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return nil, err
	}
	var rec models.ChatRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// allIDs returns the set of chat ids present in the directory.
func (s *FileStore) allIDs() (map[string]bool, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	ids := make(map[string]bool)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if id, _, ok := splitRecordFile(entry.Name()); ok {
			ids[id] = true
		}
	}
	return ids, nil
}

// DeleteChat removes every version of the chat.
func (s *FileStore) DeleteChat(ctx context.Context, id string) (bool, error) {
	names, err := s.versionsOf(id)
	if err != nil {
		return false, err
	}
	if len(names) == 0 {
		return false, nil
	}
	for _, name := range names {
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !os.IsNotExist(err) {
			return false, err
		}
	}
	return true, nil
}

// CleanupExpired removes chats whose newest record has gone unread for
// longer than olderThan. Individual failures are collected and the sweep
// continues.
func (s *FileStore) CleanupExpired(ctx context.Context, olderThan time.Duration) (CleanupResult, error) {
	var result CleanupResult
	ids, err := s.allIDs()
	if err != nil {
		return result, err
	}
	cutoff := s.now().Add(-olderThan)
	for id := range ids {
		rec, err := s.readNewest(id)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("chat %s: %w", id, err))
			continue
		}
		if rec == nil || !rec.LastAccessTime.Before(cutoff) {
			continue
		}
		deleted, err := s.DeleteChat(ctx, id)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("chat %s: %w", id, err))
			continue
		}
		if deleted {
			result.Deleted++
		}
	}
	return result, nil
}

// Ping verifies the storage directory is still accessible.
func (s *FileStore) Ping(ctx context.Context) error {
	_, err := os.Stat(s.dir)
	return err
}

// Close is a no-op.
func (s *FileStore) Close() error {
	return nil
}
