package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/flight-auth/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserSignedUp          EventType = "user_signed_up"
	EventLoginSucceeded        EventType = "login_succeeded"
	EventLoginFailed           EventType = "login_failed"
	EventTokenRefreshed        EventType = "token_refreshed"
	EventAdminCreated          EventType = "admin_created"
	EventAdminPrivilegeChanged EventType = "admin_privilege_changed"
)

// AllEventTypes lists every event the auth service emits.
var AllEventTypes = []EventType{
	EventUserSignedUp,
	EventLoginSucceeded,
	EventLoginFailed,
	EventTokenRefreshed,
	EventAdminCreated,
	EventAdminPrivilegeChanged,
}

// Actor identifies who caused an event. Key is the login identifier as
// submitted, which for failed logins may not match any account.
type Actor struct {
	Kind domain.PrincipalKind `json:"kind"`
	Key  string               `json:"key"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// NewEvent stamps an event with an id and the current time.
func NewEvent(eventType EventType, actor Actor, payload interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Actor:     actor,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// LoginFailedPayload payload.
type LoginFailedPayload struct {
	Reason string `json:"reason"`
}

// LoginSucceededPayload payload.
type LoginSucceededPayload struct {
	Role domain.Role `json:"role"`
}

// TokenRefreshedPayload payload.
type TokenRefreshedPayload struct {
	Role domain.Role `json:"role"`
}

// AdminCreatedPayload payload.
type AdminCreatedPayload struct {
	Username     string `json:"username"`
	IsSuperadmin bool   `json:"is_superadmin"`
}

// AdminPrivilegeChangedPayload payload.
type AdminPrivilegeChangedPayload struct {
	Username     string `json:"username"`
	IsSuperadmin bool   `json:"is_superadmin"`
}
