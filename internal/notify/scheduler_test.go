package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/stellarlinkco/keepsake/internal/model"
)

// fakeNotifier records every call; individual operations can be forced
// to fail.
type fakeNotifier struct {
	denied      bool
	permErr     error
	scheduleErr error
	cancelErr   map[string]error

	scheduled []Pending
	cancelled []string
	clearedAt int
	nextID    int
}

func (f *fakeNotifier) RequestPermission(ctx context.Context) (bool, error) {
	if f.permErr != nil {
		return false, f.permErr
	}
	return !f.denied, nil
}

func (f *fakeNotifier) Schedule(ctx context.Context, content Content, fireAt time.Time) (string, error) {
	if f.scheduleErr != nil {
		return "", f.scheduleErr
	}
	f.nextID++
	id := fmt.Sprintf("n%d", f.nextID)
	f.scheduled = append(f.scheduled, Pending{ID: id, Content: content, FireAt: fireAt})
	return id, nil
}

func (f *fakeNotifier) Cancel(ctx context.Context, id string) error {
	if err := f.cancelErr[id]; err != nil {
		return err
	}
	f.cancelled = append(f.cancelled, id)
	return nil
}

func (f *fakeNotifier) CancelAll(ctx context.Context) error {
	f.clearedAt++
	return nil
}

func (f *fakeNotifier) Scheduled(ctx context.Context) ([]Pending, error) {
	return f.scheduled, nil
}

// Sunday 2025-06-15, 10:30 local: past the default fire hour.
var clock = time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)

func newTestScheduler(f *fakeNotifier) *Scheduler {
	return NewScheduler(f, zap.NewNop().Sugar(), WithClock(func() time.Time { return clock }))
}

func birthday(name string, day, month, year, reminderDays int) model.Event {
	return model.Event{
		ID:           "ev-" + name,
		Name:         name,
		Day:          day,
		Month:        month,
		Year:         year,
		Type:         model.TypeBirthday,
		ReminderDays: reminderDays,
	}
}

func TestScheduleEventBothNotifications(t *testing.T) {
	f := &fakeNotifier{}
	s := newTestScheduler(f)

	// Ten days out with three days of early notice.
	ids := s.ScheduleEvent(context.Background(), birthday("Ana", 25, 6, 0, 3))
	if len(ids) != 2 {
		t.Fatalf("got %d ids, want 2", len(ids))
	}
	if len(f.scheduled) != 2 {
		t.Fatalf("notifier saw %d schedules", len(f.scheduled))
	}

	reminder, onDay := f.scheduled[0], f.scheduled[1]
	wantReminder := time.Date(2025, 6, 22, 9, 0, 0, 0, time.UTC)
	wantOnDay := time.Date(2025, 6, 25, 9, 0, 0, 0, time.UTC)
	if !reminder.FireAt.Equal(wantReminder) {
		t.Errorf("reminder fires at %v, want %v", reminder.FireAt, wantReminder)
	}
	if !onDay.FireAt.Equal(wantOnDay) {
		t.Errorf("on-day fires at %v, want %v", onDay.FireAt, wantOnDay)
	}
	if reminder.Content.Kind != KindReminder || onDay.Content.Kind != KindOnDay {
		t.Errorf("kinds = %q, %q", reminder.Content.Kind, onDay.Content.Kind)
	}
	if ids[0] != reminder.ID || ids[1] != onDay.ID {
		t.Errorf("ids %v not in fire order", ids)
	}
}

func TestScheduleEventOnDayOnly(t *testing.T) {
	f := &fakeNotifier{}
	s := newTestScheduler(f)

	ids := s.ScheduleEvent(context.Background(), birthday("Ana", 16, 6, 0, 0))
	if len(ids) != 1 {
		t.Fatalf("got %d ids, want 1", len(ids))
	}
	if f.scheduled[0].Content.Kind != KindOnDay {
		t.Errorf("kind = %q", f.scheduled[0].Content.Kind)
	}
}

func TestScheduleEventReminderAlreadyPassed(t *testing.T) {
	f := &fakeNotifier{}
	s := newTestScheduler(f)

	// Occurrence in ten days but thirty days of notice: the reminder
	// time is in the past, only the on-day trigger registers.
	ids := s.ScheduleEvent(context.Background(), birthday("Ana", 25, 6, 0, 30))
	if len(ids) != 1 {
		t.Fatalf("got %d ids, want 1", len(ids))
	}
	if f.scheduled[0].Content.Kind != KindOnDay {
		t.Errorf("kind = %q", f.scheduled[0].Content.Kind)
	}
}

func TestScheduleEventTodayAfterFireHour(t *testing.T) {
	f := &fakeNotifier{}
	s := newTestScheduler(f)

	// Occurs today, but the clock is past 09:00: nothing is strictly
	// in the future, so nothing registers.
	ids := s.ScheduleEvent(context.Background(), birthday("Ana", 15, 6, 0, 1))
	if len(ids) != 0 {
		t.Errorf("got %v, want none", ids)
	}
}

func TestScheduleEventTodayBeforeFireHour(t *testing.T) {
	f := &fakeNotifier{}
	s := NewScheduler(f, zap.NewNop().Sugar(),
		WithHour(18),
		WithClock(func() time.Time { return clock }))

	ids := s.ScheduleEvent(context.Background(), birthday("Ana", 15, 6, 0, 0))
	if len(ids) != 1 {
		t.Fatalf("got %d ids, want 1: 18:00 is still ahead", len(ids))
	}
	want := time.Date(2025, 6, 15, 18, 0, 0, 0, time.UTC)
	if !f.scheduled[0].FireAt.Equal(want) {
		t.Errorf("fires at %v, want %v", f.scheduled[0].FireAt, want)
	}
}

func TestScheduleEventPastAnchorYear(t *testing.T) {
	f := &fakeNotifier{}
	s := newTestScheduler(f)

	// An explicit past year pins the occurrence in the past; no
	// triggers can lie in the future.
	ids := s.ScheduleEvent(context.Background(), birthday("Ana", 20, 6, 1990, 3))
	if len(ids) != 0 {
		t.Errorf("got %v, want none", ids)
	}
}

func TestScheduleEventPermissionDenied(t *testing.T) {
	f := &fakeNotifier{denied: true}
	s := newTestScheduler(f)

	ids := s.ScheduleEvent(context.Background(), birthday("Ana", 25, 6, 0, 3))
	if ids != nil {
		t.Errorf("got %v, want nil", ids)
	}
	if len(f.scheduled) != 0 {
		t.Error("schedule attempted despite denied permission")
	}
}

func TestScheduleEventPermissionError(t *testing.T) {
	f := &fakeNotifier{permErr: errors.New("boom")}
	s := newTestScheduler(f)

	if ids := s.ScheduleEvent(context.Background(), birthday("Ana", 25, 6, 0, 3)); ids != nil {
		t.Errorf("got %v, want nil", ids)
	}
}

func TestScheduleEventPartialFailure(t *testing.T) {
	f := &fakeNotifier{scheduleErr: errors.New("down")}
	s := newTestScheduler(f)

	// Every individual registration fails; the event still exists,
	// just without notifications.
	if ids := s.ScheduleEvent(context.Background(), birthday("Ana", 25, 6, 0, 3)); len(ids) != 0 {
		t.Errorf("got %v, want none", ids)
	}
}

func TestCancelEvent(t *testing.T) {
	f := &fakeNotifier{cancelErr: map[string]error{"bad": errors.New("gone")}}
	s := newTestScheduler(f)

	ev := birthday("Ana", 25, 6, 0, 3)
	ev.NotificationIDs = model.NotificationIDs{"good1", "bad", "", "good2"}
	s.CancelEvent(context.Background(), ev)

	// One failing id must not stop the rest; blanks are skipped.
	if len(f.cancelled) != 2 || f.cancelled[0] != "good1" || f.cancelled[1] != "good2" {
		t.Errorf("cancelled %v, want [good1 good2]", f.cancelled)
	}
}

func TestRescheduleEvent(t *testing.T) {
	f := &fakeNotifier{}
	s := newTestScheduler(f)

	ev := birthday("Ana", 25, 6, 0, 0)
	ev.NotificationIDs = model.NotificationIDs{"old1"}
	ids := s.RescheduleEvent(context.Background(), ev)

	if len(f.cancelled) != 1 || f.cancelled[0] != "old1" {
		t.Errorf("cancelled %v, want [old1]", f.cancelled)
	}
	if len(ids) != 1 {
		t.Errorf("got %d new ids, want 1", len(ids))
	}
}

func TestNotificationContent(t *testing.T) {
	ev := birthday("Ana", 25, 6, 0, 1)

	c := reminderContent(ev)
	if !strings.Contains(c.Title, "Tomorrow: Ana") {
		t.Errorf("one-day reminder title = %q", c.Title)
	}

	ev.ReminderDays = 5
	c = reminderContent(ev)
	if !strings.Contains(c.Title, "Upcoming: Ana") {
		t.Errorf("multi-day reminder title = %q", c.Title)
	}
	if !strings.Contains(c.Body, "in 5 days") {
		t.Errorf("multi-day reminder body = %q", c.Body)
	}

	c = onDayContent(ev)
	if c.Body != "Don't forget! It's Ana's birthday today!" {
		t.Errorf("on-day body = %q", c.Body)
	}
	if !strings.HasPrefix(c.Title, "🎂") {
		t.Errorf("birthday title missing emoji: %q", c.Title)
	}

	ev.Type = model.TypeAnniversary
	if c := onDayContent(ev); !strings.HasPrefix(c.Title, "💝") {
		t.Errorf("anniversary title = %q", c.Title)
	}
}
