package chat

import (
	"github.com/jamubc/gemini-mcp-tool-sub000/internal/models"
)

// HistoryLimit is the aggregate content budget for one chat, measured in
// UTF-16 code units for parity with the upstream protocol's length counting.
// Dense multi-byte content can therefore satisfy this budget while still
// exceeding downstream byte or token limits; handling that is the Gemini
// collaborator's responsibility, not this package's.
const HistoryLimit = 30000

// ContentLength returns the length of s in UTF-16 code units.
func ContentLength(s string) int {
	n := 0
	for _, r := range s {
		if r > 0xFFFF {
			n += 2
		} else {
			n++
		}
	}
	return n
}

// TotalContentLength sums the content lengths of all messages in the chat.
func TotalContentLength(messages []models.Message) int {
	total := 0
	for _, m := range messages {
		total += ContentLength(m.Content)
	}
	return total
}

// TruncationResult reports what a truncation pass evicted.
type TruncationResult struct {
	Evicted int
	ByAgent map[string]int
}

// Truncate evicts the oldest messages until the chat's aggregate content
// length fits within HistoryLimit, in a single pass. The newest message is
// never evicted, even when it alone exceeds the budget.
func Truncate(chat *models.Chat) TruncationResult {
	result := TruncationResult{ByAgent: make(map[string]int)}

	total := TotalContentLength(chat.Messages)
	cut := 0
	for total > HistoryLimit && len(chat.Messages)-cut > 1 {
		evicted := chat.Messages[cut]
		total -= ContentLength(evicted.Content)
		result.ByAgent[evicted.Agent]++
		result.Evicted++
		cut++
	}
	if cut > 0 {
		chat.Messages = append([]models.Message(nil), chat.Messages[cut:]...)
	}
	return result
}
