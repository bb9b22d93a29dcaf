package models

import "time"

// Notification is an in-app notice a user can later read. Creation is
// fire-and-forget from the caller's point of view: a failed insert never
// aborts the state transition that produced it.
type Notification struct {
	ID          string
	RecipientID string
	Message     string
	Link        *string // nil when the notice has no destination
	IsRead      bool
	CreatedAt   time.Time
}
