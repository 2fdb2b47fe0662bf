package models

import (
	"time"
)

// Chat status values.
const (
	StatusActive   = "active"
	StatusArchived = "archived"
)

// Chat represents a shared conversation between AI agents.
type Chat struct {
	ID                string    `json:"chatId"`
	Title             string    `json:"title"`
	CreatedBy         string    `json:"createdBy"`
	Participants      []string  `json:"participants"`
	Messages          []Message `json:"messages"`
	Created           time.Time `json:"created"`
	LastActivity      time.Time `json:"lastActivity"`
	Status            string    `json:"status"`
	AgentsWithHistory []string  `json:"agentsWithHistory,omitempty"`
}

// HasParticipant reports whether the agent already appears in the
// participant list.
func (c *Chat) HasParticipant(agent string) bool {
	for _, p := range c.Participants {
		if p == agent {
			return true
		}
	}
	return false
}

// AddParticipant appends the agent unless already present, preserving
// first-appearance order.
func (c *Chat) AddParticipant(agent string) {
	if !c.HasParticipant(agent) {
		c.Participants = append(c.Participants, agent)
	}
}

// HasHistory reports whether the agent has already consumed this chat's
// history at least once.
func (c *Chat) HasHistory(agent string) bool {
	for _, a := range c.AgentsWithHistory {
		if a == agent {
			return true
		}
	}
	return false
}

// MarkHistoryConsumed records that the agent has consumed the chat history.
func (c *Chat) MarkHistoryConsumed(agent string) {
	if !c.HasHistory(agent) {
		c.AgentsWithHistory = append(c.AgentsWithHistory, agent)
	}
}

// ChatRecord is the persisted unit: the chat itself, per-agent state, and
// the last-access timestamp used by the TTL sweep.
type ChatRecord struct {
	Chat           Chat                  `json:"chat"`
	AgentStates    map[string]AgentState `json:"agentStates"`
	LastAccessTime time.Time             `json:"lastAccessTime"`
}

// Clone returns a deep copy of the record. Stores hand out clones so callers
// can never alias their internal state.
func (r *ChatRecord) Clone() *ChatRecord {
	out := &ChatRecord{
		Chat:           r.Chat,
		AgentStates:    make(map[string]AgentState, len(r.AgentStates)),
		LastAccessTime: r.LastAccessTime,
	}
	out.Chat.Participants = append([]string(nil), r.Chat.Participants...)
	out.Chat.Messages = append([]Message(nil), r.Chat.Messages...)
	out.Chat.AgentsWithHistory = append([]string(nil), r.Chat.AgentsWithHistory...)
	for k, v := range r.AgentStates {
		out.AgentStates[k] = v
	}
	return out
}

// Summary reduces the record to its listing shape.
func (r *ChatRecord) Summary() ChatSummary {
	return ChatSummary{
		ID:               r.Chat.ID,
		Title:            r.Chat.Title,
		ParticipantCount: len(r.Chat.Participants),
		MessageCount:     len(r.Chat.Messages),
		LastActivity:     r.Chat.LastActivity,
		Status:           r.Chat.Status,
	}
}

// ChatSummary is the listing view of a chat.
type ChatSummary struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	ParticipantCount int       `json:"participantCount"`
	MessageCount     int       `json:"messageCount"`
	LastActivity     time.Time `json:"lastActivity"`
	Status           string    `json:"status"`
}
