package chat

import (
	"fmt"
	"time"
)

// ValidationError reports caller-fixable bad input. It is always raised
// before any mutation takes place.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NotFoundError reports an unknown chat id.
type NotFoundError struct {
	ChatID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("chat %s not found", e.ChatID)
}

// QuotaExceededError reports that an agent is at its active-chat limit.
type QuotaExceededError struct {
	Agent string
	Limit int
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("agent %s already has %d active chats", e.Agent, e.Limit)
}

// LockTimeoutError reports that a critical section could not be entered
// within the allotted time. No side effects have occurred; the operation is
// safe to retry.
type LockTimeoutError struct {
	Resource string
	Timeout  time.Duration
}

func (e *LockTimeoutError) Error() string {
	return fmt.Sprintf("could not acquire lock on %s within %s", e.Resource, e.Timeout)
}

// PersistenceError wraps a backing-store failure, propagated verbatim.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
