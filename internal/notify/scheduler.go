package notify

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/stellarlinkco/keepsake/internal/dateutil"
	"github.com/stellarlinkco/keepsake/internal/model"
)

// DefaultHour is the local time-of-day notifications fire at.
const DefaultHour = 9

// Scheduler computes fire times for an event and registers up to two
// notifications with the underlying Notifier: an early reminder
// (reminderDays before the occurrence) and an on-the-day one.
type Scheduler struct {
	notifier Notifier
	log      *zap.SugaredLogger
	hour     int
	now      func() time.Time
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithHour overrides the fire hour (default 09:00 local).
func WithHour(hour int) Option {
	return func(s *Scheduler) { s.hour = hour }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

func NewScheduler(n Notifier, log *zap.SugaredLogger, opts ...Option) *Scheduler {
	s := &Scheduler{notifier: n, log: log, hour: DefaultHour, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ScheduleEvent registers the event's notifications and returns the
// identifiers actually registered, in fire order. It returns nil when
// permission is denied or when no trigger lies strictly in the future
// — for an event occurring today that is the case from the fire hour
// onward.
//
// Scheduling is not idempotent: callers must cancel before
// rescheduling or duplicate live notifications result.
func (s *Scheduler) ScheduleEvent(ctx context.Context, ev model.Event) model.NotificationIDs {
	granted, err := s.notifier.RequestPermission(ctx)
	if err != nil {
		s.log.Errorf("[notify] permission request failed: %v", err)
		return nil
	}
	if !granted {
		s.log.Warnf("[notify] permission denied, skipping schedule for %q", ev.Name)
		return nil
	}

	now := s.now()
	occurrence := dateutil.NextOccurrenceFrom(now, ev.Day, ev.Month, ev.Year)

	var ids model.NotificationIDs

	if ev.ReminderDays > 0 {
		fireAt := s.atHour(occurrence.AddDate(0, 0, -ev.ReminderDays))
		if fireAt.After(now) {
			id, err := s.notifier.Schedule(ctx, reminderContent(ev), fireAt)
			if err != nil {
				s.log.Errorf("[notify] schedule reminder for %q: %v", ev.Name, err)
			} else {
				ids = append(ids, id)
				s.log.Infof("[notify] reminder for %q at %s", ev.Name, fireAt.Format(time.RFC3339))
			}
		} else {
			s.log.Debugf("[notify] reminder time for %q already passed", ev.Name)
		}
	}

	onDay := s.atHour(occurrence)
	if onDay.After(now) {
		id, err := s.notifier.Schedule(ctx, onDayContent(ev), onDay)
		if err != nil {
			s.log.Errorf("[notify] schedule on-day for %q: %v", ev.Name, err)
		} else {
			ids = append(ids, id)
			s.log.Infof("[notify] on-day for %q at %s", ev.Name, onDay.Format(time.RFC3339))
		}
	} else {
		s.log.Debugf("[notify] on-day time for %q already passed", ev.Name)
	}

	return ids
}

// CancelEvent cancels each of the event's registered notifications.
// Individual failures are logged and do not abort the rest; an event
// with no identifiers is a no-op.
func (s *Scheduler) CancelEvent(ctx context.Context, ev model.Event) {
	for _, id := range ev.NotificationIDs {
		if id == "" {
			continue
		}
		if err := s.notifier.Cancel(ctx, id); err != nil {
			s.log.Errorf("[notify] cancel %s for %q: %v", id, ev.Name, err)
			continue
		}
		s.log.Infof("[notify] cancelled %s for %q", id, ev.Name)
	}
}

// RescheduleEvent cancels the event's current notifications and
// schedules fresh ones; used after any edit that touches the
// occurrence date, name or reminder offset.
func (s *Scheduler) RescheduleEvent(ctx context.Context, ev model.Event) model.NotificationIDs {
	s.CancelEvent(ctx, ev)
	return s.ScheduleEvent(ctx, ev)
}

// CancelAll clears every registered notification regardless of owning
// event. Only the explicit clear-all-data action uses this.
func (s *Scheduler) CancelAll(ctx context.Context) {
	if err := s.notifier.CancelAll(ctx); err != nil {
		s.log.Errorf("[notify] cancel all: %v", err)
	}
}

func (s *Scheduler) atHour(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), s.hour, 0, 0, 0, day.Location())
}

func typeEmoji(t model.EventType) string {
	switch t {
	case model.TypeBirthday:
		return "🎂"
	case model.TypeAnniversary:
		return "💝"
	default:
		return "🎉"
	}
}

func reminderContent(ev model.Event) Content {
	emoji := typeEmoji(ev.Type)
	var title, body string
	if ev.ReminderDays == 1 {
		title = fmt.Sprintf("%s Tomorrow: %s", emoji, ev.Name)
		body = fmt.Sprintf("Reminder: %s's %s is tomorrow!", ev.Name, ev.Type)
	} else {
		title = fmt.Sprintf("%s Upcoming: %s", emoji, ev.Name)
		body = fmt.Sprintf("%s's %s is in %d days", ev.Name, ev.Type, ev.ReminderDays)
	}
	return Content{Title: title, Body: body, Sound: true, EventID: ev.ID, Kind: KindReminder}
}

func onDayContent(ev model.Event) Content {
	emoji := typeEmoji(ev.Type)
	return Content{
		Title:   fmt.Sprintf("%s Today: %s", emoji, ev.Name),
		Body:    fmt.Sprintf("Don't forget! It's %s's %s today!", ev.Name, ev.Type),
		Sound:   true,
		EventID: ev.ID,
		Kind:    KindOnDay,
	}
}
