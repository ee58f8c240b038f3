// Package notify translates an event's recurrence into concrete
// one-shot notification triggers and manages their lifecycle.
//
// The Notifier interface is the OS-level local-notification service:
// absolute-time one-shot fires only. Recurrence is recomputed by the
// date engine on every (re)schedule, never delegated to the notifier.
package notify

import (
	"context"
	"time"
)

// Kind distinguishes the two notifications an event can own.
const (
	KindReminder = "reminder"
	KindOnDay    = "onDay"
)

// Content is what a fired notification shows.
type Content struct {
	Title   string `json:"title"`
	Body    string `json:"body"`
	Sound   bool   `json:"sound"`
	EventID string `json:"eventId,omitempty"`
	Kind    string `json:"kind,omitempty"`
}

// Pending is a registered, not-yet-fired notification.
type Pending struct {
	ID      string    `json:"id"`
	Content Content   `json:"content"`
	FireAt  time.Time `json:"fireAt"`
}

// Notifier is the local-notification service contract.
type Notifier interface {
	// RequestPermission asks for (or re-checks) notification
	// permission. false means denied.
	RequestPermission(ctx context.Context) (bool, error)
	// Schedule registers a one-shot notification and returns its
	// identifier.
	Schedule(ctx context.Context, content Content, fireAt time.Time) (string, error)
	// Cancel removes one registered notification. Unknown identifiers
	// are a no-op.
	Cancel(ctx context.Context, id string) error
	// CancelAll removes every registered notification.
	CancelAll(ctx context.Context) error
	// Scheduled lists the currently registered notifications.
	Scheduled(ctx context.Context) ([]Pending, error)
}
