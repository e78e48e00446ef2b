package domain

import "time"

// AuthEventType names an entry in the auth audit trail.
type AuthEventType string

const (
	EventLoginSucceeded AuthEventType = "login_succeeded"
	EventLoginFailed    AuthEventType = "login_failed"
	EventRegistered     AuthEventType = "registered"
	EventLoggedOut      AuthEventType = "logged_out"
	EventUserDeleted    AuthEventType = "user_deleted"
)

// AuthEvent records something that happened to an identity. Identifier is the
// username or email the caller supplied and is the ordering key.
type AuthEvent struct {
	Type       AuthEventType
	Identifier string
	UserID     string
	Email      string
	Role       string
	Timestamp  time.Time
	Detail     string
}

// NotificationMessage is the payload consumed by the notification service.
type NotificationMessage struct {
	UserID    string    `json:"userId"`
	Type      string    `json:"type"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	Email     string    `json:"email,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NotificationTypeEmail routes a message to the e-mail queue.
const NotificationTypeEmail = "EMAIL"
