// Package queue defines message payloads exchanged over the message broker.
package queue

// EventsQueueName is the durable queue all identity events are published to.
const EventsQueueName = "identity.events"

// Event type discriminators carried in the envelope.
const (
	TypeUserRegistered  = "user.registered"
	TypeSessionsRevoked = "sessions.revoked"
)

// Envelope wraps every published event with its type and timestamp so a
// single queue can carry the full event stream.
type Envelope struct {
	Type       string      `json:"type"`
	OccurredAt string      `json:"occurred_at"`
	Payload    interface{} `json:"payload"`
}

// UserRegisteredEvent is published when a new user account is created,
// either through self-registration or by an admin. Downstream consumers
// use it for notifications and audit without querying the primary
// database. It never carries credentials.
type UserRegisteredEvent struct {
	UserID   uint64 `json:"user_id"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	TenantID uint64 `json:"tenant_id,omitempty"`
}

// SessionsRevokedEvent is published when all refresh tokens of a user are
// revoked (logout-everywhere or an account-compromise response).
type SessionsRevokedEvent struct {
	UserID uint64 `json:"user_id"`
}
