// Package queue defines message payloads exchanged over the message broker.
package queue

import "time"

// Sources of a role change.
const (
	SourceSignup    = "signup"
	SourceOAuth     = "oauth"
	SourceAdmin     = "admin"
	SourceBootstrap = "bootstrap"
	SourceDelete    = "delete"
)

// RoleChangedEvent is published whenever an account is created with a role,
// has its role replaced, or is removed. Consumers keep an audit trail
// without querying the user store.
type RoleChangedEvent struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	FromRole  string    `json:"from_role,omitempty"`
	ToRole    string    `json:"to_role,omitempty"`
	Source    string    `json:"source"`
	Actor     string    `json:"actor,omitempty"`
	ChangedAt time.Time `json:"changed_at"`
}
