package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jamubc/gemini-mcp-tool-sub000/internal/models"
)

// testRecord builds a chat record with millisecond-precision timestamps so
// round trips compare cleanly across every backend.
func testRecord(id, title, creator string) *models.ChatRecord {
	now := time.Now().Truncate(time.Millisecond)
	return &models.ChatRecord{
		Chat: models.Chat{
			ID:           id,
			Title:        title,
			CreatedBy:    creator,
			Participants: []string{creator},
			Messages: []models.Message{
				{
					ID:        "01J0000000000000000000000" + id[:1],
					ChatID:    id,
					Agent:     creator,
					Content:   "hello from " + creator,
					Timestamp: now,
				},
			},
			Created:           now,
			LastActivity:      now,
			Status:            models.StatusActive,
			AgentsWithHistory: []string{},
		},
		AgentStates: map[string]models.AgentState{
			creator: {
				LastSeenMessageID:  "01J0000000000000000000000" + id[:1],
				ParticipationState: models.ParticipationNew,
				LastActiveAt:       now,
			},
		},
		LastAccessTime: now,
	}
}

// runAdapterSuite exercises the Adapter contract shared by every backend.
func runAdapterSuite(t *testing.T, adapter Adapter) {
	t.Helper()
	ctx := context.Background()

	t.Run("MissingChatIsNilNil", func(t *testing.T) {
		rec, err := adapter.LoadChat(ctx, "deadbeef")
		if err != nil {
			t.Fatal(err)
		}
		if rec != nil {
			t.Fatal("unknown ids must load as nil, nil")
		}
	})

	t.Run("SaveLoadRoundTrip", func(t *testing.T) {
		want := testRecord("aaaa1111", "Round Trip", "alice")
		if err := adapter.SaveChat(ctx, want); err != nil {
			t.Fatal(err)
		}

		got, err := adapter.LoadChat(ctx, "aaaa1111")
		if err != nil {
			t.Fatal(err)
		}
		if got == nil {
			t.Fatal("saved chat not found")
		}
		if got.Chat.Title != want.Chat.Title || got.Chat.CreatedBy != want.Chat.CreatedBy {
			t.Fatalf("chat fields lost in round trip: %+v", got.Chat)
		}
		if len(got.Chat.Messages) != 1 || got.Chat.Messages[0].Content != "hello from alice" {
			t.Fatalf("messages lost in round trip: %+v", got.Chat.Messages)
		}
		if !got.Chat.Created.Equal(want.Chat.Created) {
			t.Fatalf("created time drifted: %v vs %v", got.Chat.Created, want.Chat.Created)
		}
		state, ok := got.AgentStates["alice"]
		if !ok || state.ParticipationState != models.ParticipationNew {
			t.Fatalf("agent state lost in round trip: %+v", got.AgentStates)
		}
	})

	t.Run("LoadRefreshesLastAccess", func(t *testing.T) {
		rec := testRecord("bbbb2222", "Touched", "alice")
		rec.LastAccessTime = time.Now().Add(-time.Hour).Truncate(time.Millisecond)
		if err := adapter.SaveChat(ctx, rec); err != nil {
			t.Fatal(err)
		}

		got, err := adapter.LoadChat(ctx, "bbbb2222")
		if err != nil {
			t.Fatal(err)
		}
		if time.Since(got.LastAccessTime) > time.Minute {
			t.Fatalf("load must refresh last access, got %v", got.LastAccessTime)
		}

		// And the refresh is durable, not just on the returned copy.
		again, err := adapter.LoadChat(ctx, "bbbb2222")
		if err != nil {
			t.Fatal(err)
		}
		if time.Since(again.LastAccessTime) > time.Minute {
			t.Fatalf("last-access refresh was not persisted, got %v", again.LastAccessTime)
		}
	})

	t.Run("SaveOverwrites", func(t *testing.T) {
		rec := testRecord("cccc3333", "First Title", "alice")
		if err := adapter.SaveChat(ctx, rec); err != nil {
			t.Fatal(err)
		}
		rec.Chat.Title = "Second Title"
		if err := adapter.SaveChat(ctx, rec); err != nil {
			t.Fatal(err)
		}

		got, err := adapter.LoadChat(ctx, "cccc3333")
		if err != nil {
			t.Fatal(err)
		}
		if got.Chat.Title != "Second Title" {
			t.Fatalf("save must overwrite, got title %q", got.Chat.Title)
		}
	})

	t.Run("ListFiltersAndPaginates", func(t *testing.T) {
		base := time.Now().Truncate(time.Millisecond)
		for i := 0; i < 4; i++ {
			rec := testRecord(fmt.Sprintf("dddd444%d", i), fmt.Sprintf("Listing %d", i), "lister")
			rec.Chat.LastActivity = base.Add(time.Duration(i) * time.Minute)
			if i == 3 {
				rec.Chat.Status = models.StatusArchived
			}
			if err := adapter.SaveChat(ctx, rec); err != nil {
				t.Fatal(err)
			}
		}

		active, err := adapter.ListChats(ctx, ListOptions{Status: models.StatusActive, CreatedBy: "lister"})
		if err != nil {
			t.Fatal(err)
		}
		if len(active) != 3 {
			t.Fatalf("expected 3 active chats for lister, got %d", len(active))
		}
		for i := 1; i < len(active); i++ {
			if active[i].LastActivity.After(active[i-1].LastActivity) {
				t.Fatal("listings must be ordered by last activity descending")
			}
		}

		page, err := adapter.ListChats(ctx, ListOptions{CreatedBy: "lister", Limit: 2, Offset: 3})
		if err != nil {
			t.Fatal(err)
		}
		if len(page) != 1 {
			t.Fatalf("expected 1 chat on the last page, got %d", len(page))
		}

		byAgent, err := adapter.ListChats(ctx, ListOptions{Agent: "lister"})
		if err != nil {
			t.Fatal(err)
		}
		if len(byAgent) != 4 {
			t.Fatalf("participant filter missed chats: %d", len(byAgent))
		}
	})

	t.Run("DeleteChat", func(t *testing.T) {
		rec := testRecord("eeee5555", "Doomed", "alice")
		if err := adapter.SaveChat(ctx, rec); err != nil {
			t.Fatal(err)
		}

		deleted, err := adapter.DeleteChat(ctx, "eeee5555")
		if err != nil || !deleted {
			t.Fatalf("expected delete to succeed, got %v %v", deleted, err)
		}
		got, err := adapter.LoadChat(ctx, "eeee5555")
		if err != nil {
			t.Fatal(err)
		}
		if got != nil {
			t.Fatal("deleted chat must be gone")
		}

		deleted, err = adapter.DeleteChat(ctx, "eeee5555")
		if err != nil {
			t.Fatalf("deleting a missing chat must not error: %v", err)
		}
		if deleted {
			t.Fatal("deleting a missing chat must report false")
		}
	})

	t.Run("CleanupExpired", func(t *testing.T) {
		stale := testRecord("ffff6666", "Stale", "alice")
		stale.LastAccessTime = time.Now().Add(-25 * time.Hour).Truncate(time.Millisecond)
		if err := adapter.SaveChat(ctx, stale); err != nil {
			t.Fatal(err)
		}
		fresh := testRecord("1111aaaa", "Fresh", "alice")
		if err := adapter.SaveChat(ctx, fresh); err != nil {
			t.Fatal(err)
		}

		result, err := adapter.CleanupExpired(ctx, ExpiryAge)
		if err != nil {
			t.Fatal(err)
		}
		if result.Deleted != 1 {
			t.Fatalf("expected exactly the stale chat removed, got %d", result.Deleted)
		}

		got, err := adapter.LoadChat(ctx, "ffff6666")
		if err != nil {
			t.Fatal(err)
		}
		if got != nil {
			t.Fatal("stale chat must be gone after the sweep")
		}
		got, err = adapter.LoadChat(ctx, "1111aaaa")
		if err != nil {
			t.Fatal(err)
		}
		if got == nil {
			t.Fatal("fresh chat must survive the sweep")
		}
	})

	t.Run("Ping", func(t *testing.T) {
		if err := adapter.Ping(ctx); err != nil {
			t.Fatal(err)
		}
	})
}
