package models

import "time"

// Message represents one authored unit of text within a chat.
type Message struct {
	ID        string    `json:"id"` // ULID
	ChatID    string    `json:"chatId"`
	Agent     string    `json:"agent"`
	Content   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Sanitized bool      `json:"sanitized,omitempty"` // injection stripping altered the content
}
