package chat

import (
	"fmt"
	"strings"

	"github.com/jamubc/gemini-mcp-tool-sub000/internal/models"
)

// FormatHistoryForGemini renders a chat as the flat transcript the Gemini
// CLI consumes: a header naming the chat, one line per message, a footer.
// An empty chat renders to an empty string. The rendering is pure: no
// truncation, no I/O.
func FormatHistoryForGemini(chat *models.Chat) string {
	if chat == nil || len(chat.Messages) == 0 {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "=== Conversation: %s ===\n", chat.Title)
	b.WriteString(FormatMessages(chat.Messages))
	b.WriteString("=== End of conversation ===\n")
	return b.String()
}

// FormatMessages renders messages as transcript lines without the
// surrounding header and footer, one `[<agent>]: <text>` line each. Used for
// incremental replay to agents that have already seen the full history.
func FormatMessages(messages []models.Message) string {
	var b strings.Builder
	for _, m := range messages {
		fmt.Fprintf(&b, "[%s]: %s\n", m.Agent, m.Content)
	}
	return b.String()
}
