// Package model holds the persisted record types shared across the
// store, scheduler and lifecycle layers.
package model

import (
	"encoding/json"
	"strings"
	"time"
)

type EventType string

const (
	TypeBirthday    EventType = "birthday"
	TypeAnniversary EventType = "anniversary"
	TypeOther       EventType = "other"
)

type Relation string

const (
	RelationFamily  Relation = "family"
	RelationFriends Relation = "friends"
	RelationWork    Relation = "work"
	RelationOther   Relation = "other"
)

// NormalizeType lower-cases and trims s, falling back to "other" for
// anything unrecognized.
func NormalizeType(s string) EventType {
	switch EventType(strings.ToLower(strings.TrimSpace(s))) {
	case TypeBirthday:
		return TypeBirthday
	case TypeAnniversary:
		return TypeAnniversary
	default:
		return TypeOther
	}
}

// NormalizeRelation lower-cases and trims s, falling back to "other".
func NormalizeRelation(s string) Relation {
	switch Relation(strings.ToLower(strings.TrimSpace(s))) {
	case RelationFamily:
		return RelationFamily
	case RelationFriends:
		return RelationFriends
	case RelationWork:
		return RelationWork
	default:
		return RelationOther
	}
}

// NotificationIDs is the ordered list of identifiers for the live
// notifications of one event: zero, one (on-day only) or two (early
// reminder + on-day). Older exports stored a comma-joined string, so
// unmarshalling accepts both forms.
type NotificationIDs []string

func (n NotificationIDs) Empty() bool { return len(n) == 0 }

func (n *NotificationIDs) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*n = list
		return nil
	}
	var joined string
	if err := json.Unmarshal(data, &joined); err != nil {
		return err
	}
	*n = nil
	for _, id := range strings.Split(joined, ",") {
		if id = strings.TrimSpace(id); id != "" {
			*n = append(*n, id)
		}
	}
	return nil
}

// Event is one recurring date. Year 0 means "recurring, no anchor
// year"; a non-zero Year in the future makes the event one-shot.
type Event struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Day             int             `json:"day"`
	Month           int             `json:"month"`
	Year            int             `json:"year,omitempty"`
	Type            EventType       `json:"type"`
	Relation        Relation        `json:"relation"`
	Notes           string          `json:"notes,omitempty"`
	ReminderDays    int             `json:"reminderDays"`
	NotificationIDs NotificationIDs `json:"notificationIds,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// Patch is a partial update for an event. Nil fields pass through
// unchanged.
type Patch struct {
	Name            *string          `json:"name,omitempty"`
	Day             *int             `json:"day,omitempty"`
	Month           *int             `json:"month,omitempty"`
	Year            *int             `json:"year,omitempty"`
	Type            *string          `json:"type,omitempty"`
	Relation        *string          `json:"relation,omitempty"`
	Notes           *string          `json:"notes,omitempty"`
	ReminderDays    *int             `json:"reminderDays,omitempty"`
	NotificationIDs *NotificationIDs `json:"notificationIds,omitempty"`
}

// Apply merges p into a copy of ev and returns it. UpdatedAt is left
// to the caller (the store stamps it on persist).
func (p Patch) Apply(ev Event) Event {
	if p.Name != nil {
		ev.Name = strings.TrimSpace(*p.Name)
	}
	if p.Day != nil {
		ev.Day = *p.Day
	}
	if p.Month != nil {
		ev.Month = *p.Month
	}
	if p.Year != nil {
		ev.Year = *p.Year
	}
	if p.Type != nil {
		ev.Type = NormalizeType(*p.Type)
	}
	if p.Relation != nil {
		ev.Relation = NormalizeRelation(*p.Relation)
	}
	if p.Notes != nil {
		ev.Notes = *p.Notes
	}
	if p.ReminderDays != nil {
		ev.ReminderDays = *p.ReminderDays
	}
	if p.NotificationIDs != nil {
		ev.NotificationIDs = *p.NotificationIDs
	}
	return ev
}

const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// Settings is the persisted singleton of user preferences.
type Settings struct {
	Theme               string `json:"theme"`
	DefaultReminderDays int    `json:"defaultReminderDays"`
	NotificationSound   bool   `json:"notificationSound"`
}

// DefaultSettings are returned whenever nothing has been persisted yet.
func DefaultSettings() Settings {
	return Settings{
		Theme:               ThemeDark,
		DefaultReminderDays: 1,
		NotificationSound:   true,
	}
}

// SettingsPatch is a partial update for Settings.
type SettingsPatch struct {
	Theme               *string `json:"theme,omitempty"`
	DefaultReminderDays *int    `json:"defaultReminderDays,omitempty"`
	NotificationSound   *bool   `json:"notificationSound,omitempty"`
}

func (p SettingsPatch) Apply(s Settings) Settings {
	if p.Theme != nil {
		s.Theme = *p.Theme
	}
	if p.DefaultReminderDays != nil {
		s.DefaultReminderDays = *p.DefaultReminderDays
	}
	if p.NotificationSound != nil {
		s.NotificationSound = *p.NotificationSound
	}
	return s
}
