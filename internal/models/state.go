package models

import "time"

// Participation states for an agent within a chat.
const (
	ParticipationNew        = "new"
	ParticipationReturning  = "returning"
	ParticipationContinuous = "continuous"
)

// AgentState tracks one agent's read and participation progress in a chat.
type AgentState struct {
	LastSeenMessageID  string    `json:"lastSeenMessageId"`
	ParticipationState string    `json:"participationState"`
	LastActiveAt       time.Time `json:"lastActiveAt"`
}
