package chat

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jamubc/gemini-mcp-tool-sub000/internal/models"
)

func chatWithMessages(contents ...string) *models.Chat {
	c := &models.Chat{ID: "abcd1234", Title: "Budget", Status: models.StatusActive}
	for i, content := range contents {
		c.Messages = append(c.Messages, models.Message{
			ID:        fmt.Sprintf("msg-%d", i),
			ChatID:    c.ID,
			Agent:     fmt.Sprintf("agent-%d", i%2),
			Content:   content,
			Timestamp: time.Unix(int64(i), 0),
		})
	}
	return c
}

func TestContentLength(t *testing.T) {
	if got := ContentLength("hello"); got != 5 {
		t.Fatalf("expected 5, got %d", got)
	}
	// Astral-plane runes count as two UTF-16 code units.
	if got := ContentLength("🙂"); got != 2 {
		t.Fatalf("expected 2 for an emoji, got %d", got)
	}
	if got := ContentLength("héllo"); got != 5 {
		t.Fatalf("BMP runes count once, got %d", got)
	}
}

func TestTruncateEvictsOldestFirst(t *testing.T) {
	big := strings.Repeat("x", 10000)
	c := chatWithMessages(big, big, big, big)

	result := Truncate(c)

	if result.Evicted != 1 {
		t.Fatalf("expected 1 eviction, got %d", result.Evicted)
	}
	if got := TotalContentLength(c.Messages); got > HistoryLimit {
		t.Fatalf("total %d exceeds limit", got)
	}
	if c.Messages[0].ID != "msg-1" {
		t.Fatalf("expected oldest message evicted, head is %s", c.Messages[0].ID)
	}
	if last := c.Messages[len(c.Messages)-1].ID; last != "msg-3" {
		t.Fatalf("newest message must be retained, tail is %s", last)
	}
}

func TestTruncateBulkOverflowSinglePass(t *testing.T) {
	small := strings.Repeat("a", 5000)
	huge := strings.Repeat("b", 29000)
	c := chatWithMessages(small, small, small, small, huge)

	result := Truncate(c)

	// One huge arrival forces all four small messages out in one call.
	if result.Evicted != 4 {
		t.Fatalf("expected 4 evictions in one pass, got %d", result.Evicted)
	}
	if len(c.Messages) != 1 || c.Messages[0].Content != huge {
		t.Fatalf("expected only the huge message to remain")
	}
}

func TestTruncateNeverEvictsLastMessage(t *testing.T) {
	over := strings.Repeat("z", HistoryLimit+500)
	c := chatWithMessages(over)

	result := Truncate(c)

	if result.Evicted != 0 {
		t.Fatalf("sole message must never be evicted, got %d evictions", result.Evicted)
	}
	if len(c.Messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(c.Messages))
	}
}

func TestTruncateNoopUnderBudget(t *testing.T) {
	c := chatWithMessages("hi", "hello")
	if result := Truncate(c); result.Evicted != 0 {
		t.Fatalf("expected no evictions, got %d", result.Evicted)
	}
	if len(c.Messages) != 2 {
		t.Fatalf("messages must be untouched")
	}
}

func TestTruncateRecordsEvictedAuthors(t *testing.T) {
	big := strings.Repeat("x", 10000)
	c := chatWithMessages(big, big, big, big, big)

	result := Truncate(c)

	if result.Evicted != 2 {
		t.Fatalf("expected 2 evictions, got %d", result.Evicted)
	}
	// msg-0 by agent-0, msg-1 by agent-1.
	if result.ByAgent["agent-0"] != 1 || result.ByAgent["agent-1"] != 1 {
		t.Fatalf("unexpected eviction tally: %v", result.ByAgent)
	}
}
