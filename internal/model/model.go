// Package model defines the core domain types for the event participation system.
package model

import "time"

// ExtraInfo holds the free-form event details stored alongside an event.
// Places is the event capacity; zero means unlimited.
type ExtraInfo struct {
	Places int `json:"places,omitempty"`
}

// Event represents an event created by a user.
type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"titre"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	Location    string    `json:"lieu"`
	Tags        []string  `json:"tags"`
	IsPrivate   bool      `json:"is_private"`
	Info        ExtraInfo `json:"infos_sup"`
	OwnerID     string    `json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// Capacity returns the seat limit and whether the event has one.
func (e *Event) Capacity() (int, bool) {
	if e.Info.Places <= 0 {
		return 0, false
	}
	return e.Info.Places, true
}

// Remaining returns the number of available seats for the given participant
// count, or nil when the event is unlimited. Never negative.
func (e *Event) Remaining(count int) *int {
	capacity, ok := e.Capacity()
	if !ok {
		return nil
	}
	left := capacity - count
	if left < 0 {
		left = 0
	}
	return &left
}

// IsFull returns true when a capacity is set and count has reached it.
func (e *Event) IsFull(count int) bool {
	capacity, ok := e.Capacity()
	return ok && count >= capacity
}

// VisibleTo reports whether the event may be shown to the given user.
// Private events are visible to their owner only.
func (e *Event) VisibleTo(userID string) bool {
	return !e.IsPrivate || (userID != "" && e.OwnerID == userID)
}

// Participation represents a user's participation in an event.
type Participation struct {
	EventID   string    `json:"event_id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// User is a registered account.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Identity is the authenticated caller of an operation. The zero value is
// an anonymous caller.
type Identity struct {
	UserID string `json:"id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

// IsAnonymous reports whether no user is signed in.
func (i Identity) IsAnonymous() bool {
	return i.UserID == ""
}

// ParticipationState is the outcome of a toggle.
type ParticipationState string

const (
	StateJoined ParticipationState = "joined"
	StateLeft   ParticipationState = "left"
)

// ParticipationStatus is the answer to "is this user participating?".
type ParticipationStatus struct {
	EventID         string `json:"event_id"`
	IsParticipating bool   `json:"is_participating"`
}

// ToggleResult carries everything the caller needs to re-render after a toggle.
type ToggleResult struct {
	EventID          string             `json:"event_id"`
	State            ParticipationState `json:"state"`
	IsParticipating  bool               `json:"is_participating"`
	ParticipantCount int                `json:"participant_count"`
	Remaining        *int               `json:"remaining"`
	Full             bool               `json:"full"`
}

// EventView is an event together with its participation statistics as seen
// by one caller.
type EventView struct {
	Event
	ParticipantCount int  `json:"participant_count"`
	Remaining        *int `json:"remaining"`
	Full             bool `json:"full"`
	IsParticipating  bool `json:"is_participating"`
}

// CreateEventRequest is the payload for creating a new event.
// Tags may arrive as a list or as one comma-separated string.
type CreateEventRequest struct {
	Title       string   `json:"titre"`
	Description string   `json:"description"`
	Date        string   `json:"date"`
	Location    string   `json:"lieu"`
	Tags        []string `json:"tags"`
	TagsText    string   `json:"tags_text"`
	IsPrivate   bool     `json:"is_private"`
	Places      int      `json:"places"`
}

// SignupRequest is the payload for creating an account.
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the payload for signing in.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Session is returned after a successful login.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      Identity  `json:"user"`
}

// MessageKind classifies a banner message.
type MessageKind string

const (
	MessageSuccess MessageKind = "success"
	MessageError   MessageKind = "error"
)

// Message is a transient banner shown to the user.
type Message struct {
	Text           string      `json:"text"`
	Kind           MessageKind `json:"kind"`
	DismissAfterMS int64       `json:"dismiss_after_ms"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error   string   `json:"error"`
	Message *Message `json:"message,omitempty"`
}
