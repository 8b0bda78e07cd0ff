package models

import "time"

// Outcome of a console mutation.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// ConsoleAction is one mutation an operator issued through the console,
// recorded in the action journal whether or not the backend accepted it.
type ConsoleAction struct {
	ID        int64     `json:"id"`
	Role      string    `json:"role"`
	UserID    string    `json:"user_id,omitempty"`
	Entity    string    `json:"entity"`
	EntityID  string    `json:"entity_id,omitempty"`
	Action    string    `json:"action"`
	Outcome   string    `json:"outcome"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
