package chat

import (
	"strings"
	"testing"

	"github.com/jamubc/gemini-mcp-tool-sub000/internal/models"
)

func TestFormatHistoryForGemini(t *testing.T) {
	c := &models.Chat{
		ID:    "abcd1234",
		Title: "Planning",
		Messages: []models.Message{
			{Agent: "alice", Content: "hi"},
			{Agent: "bob", Content: "hello"},
		},
	}

	got := FormatHistoryForGemini(c)
	want := "=== Conversation: Planning ===\n" +
		"[alice]: hi\n" +
		"[bob]: hello\n" +
		"=== End of conversation ===\n"
	if got != want {
		t.Fatalf("transcript mismatch:\n got: %q\nwant: %q", got, want)
	}
}

func TestFormatHistoryForGeminiEmpty(t *testing.T) {
	if got := FormatHistoryForGemini(&models.Chat{ID: "abcd1234", Title: "Empty"}); got != "" {
		t.Fatalf("empty chat must render empty, got %q", got)
	}
	if got := FormatHistoryForGemini(nil); got != "" {
		t.Fatalf("nil chat must render empty, got %q", got)
	}
}

func TestFormatHistoryIsPure(t *testing.T) {
	c := &models.Chat{
		ID:       "abcd1234",
		Title:    "Pure",
		Messages: []models.Message{{Agent: "alice", Content: strings.Repeat("x", 40000)}},
	}
	got := FormatHistoryForGemini(c)
	// Formatting never truncates; the budget is TruncationPolicy's job.
	if !strings.Contains(got, c.Messages[0].Content) {
		t.Fatal("formatter must not truncate content")
	}
	if len(c.Messages) != 1 {
		t.Fatal("formatter must not mutate the chat")
	}
}

func TestFormatMessages(t *testing.T) {
	got := FormatMessages([]models.Message{{Agent: "bob", Content: "only this"}})
	if got != "[bob]: only this\n" {
		t.Fatalf("unexpected incremental rendering: %q", got)
	}
	if got := FormatMessages(nil); got != "" {
		t.Fatalf("no messages must render empty, got %q", got)
	}
}
