// Package lifecycle orchestrates event create/update/delete across
// validation, the persistence store and the notification scheduler,
// and owns the suspend/resume bookkeeping of the in-memory working
// copy.
package lifecycle

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stellarlinkco/keepsake/internal/model"
	"github.com/stellarlinkco/keepsake/internal/notify"
	"github.com/stellarlinkco/keepsake/internal/store"
	"github.com/stellarlinkco/keepsake/internal/validate"
)

// ErrStorage reports that a save could not be completed; the persisted
// state is the last known good one.
var ErrStorage = errors.New("lifecycle: storage save failed")

type Coordinator struct {
	store *store.Store
	sched *notify.Scheduler
	log   *zap.SugaredLogger

	mu      sync.Mutex
	unsaved bool
	cache   []model.Event
}

func New(st *store.Store, sched *notify.Scheduler, log *zap.SugaredLogger) *Coordinator {
	return &Coordinator{store: st, sched: sched, log: log}
}

// CreateInput is the raw form input for a new event. ReminderDays < 0
// means "use the settings default".
type CreateInput struct {
	Name         string
	Day          int
	Month        int
	Year         int
	Type         string
	Relation     string
	Notes        string
	ReminderDays int
}

// Create validates the input, persists the new event and schedules its
// notifications. A non-empty Errors map means validation failed and
// storage was not touched. ErrStorage means the collection could not
// be saved.
func (c *Coordinator) Create(ctx context.Context, in CreateInput) (*model.Event, validate.Errors, error) {
	errs := validate.ValidateDate(in.Day, in.Month, in.Year)
	if strings.TrimSpace(in.Name) == "" {
		errs["name"] = "Name is required"
	}
	if !errs.OK() {
		return nil, errs, nil
	}

	reminderDays := in.ReminderDays
	if reminderDays < 0 {
		reminderDays = c.store.LoadSettings().DefaultReminderDays
	}

	now := time.Now()
	ev := model.Event{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(in.Name),
		Day:          in.Day,
		Month:        in.Month,
		Year:         in.Year,
		Type:         model.NormalizeType(in.Type),
		Relation:     model.NormalizeRelation(in.Relation),
		Notes:        in.Notes,
		ReminderDays: reminderDays,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	events := append(c.store.LoadEvents(), ev)
	if !c.store.SaveEvents(events) {
		return nil, nil, ErrStorage
	}

	// Schedule only after the record is durable; a denied permission
	// leaves the event persisted without notifications.
	if ids := c.sched.ScheduleEvent(ctx, ev); !ids.Empty() {
		ev.NotificationIDs = ids
		events = c.store.UpdateEventByID(ev.ID, model.Patch{NotificationIDs: &ids}, events)
	}

	c.setCache(events, false)
	c.log.Infof("[lifecycle] created event %s (%s)", ev.ID, ev.Name)
	return &ev, nil, nil
}

// Update validates the merged record, cancels the prior notifications,
// persists the patch and reschedules against the persisted state. An
// unknown id returns the collection unchanged.
func (c *Coordinator) Update(ctx context.Context, id string, patch model.Patch) ([]model.Event, validate.Errors, error) {
	events := c.store.LoadEvents()
	prior := findEvent(events, id)
	if prior == nil {
		return events, nil, nil
	}

	merged := patch.Apply(*prior)
	errs := validate.ValidateDate(merged.Day, merged.Month, merged.Year)
	if strings.TrimSpace(merged.Name) == "" {
		errs["name"] = "Name is required"
	}
	if !errs.OK() {
		return events, errs, nil
	}

	c.sched.CancelEvent(ctx, *prior)

	events = c.store.UpdateEventByID(id, patch, events)

	// Reschedule from whatever actually got persisted, so a failed
	// save never leaves identifiers pointing at the wrong occurrence.
	current := findEvent(events, id)
	ids := c.sched.ScheduleEvent(ctx, *current)
	events = c.store.UpdateEventByID(id, model.Patch{NotificationIDs: &ids}, events)

	c.setCache(events, false)
	c.log.Infof("[lifecycle] updated event %s", id)
	return events, nil, nil
}

// Delete cancels the event's notifications and removes it. Unknown ids
// leave the collection unchanged.
func (c *Coordinator) Delete(ctx context.Context, id string) []model.Event {
	events := c.store.LoadEvents()
	if prior := findEvent(events, id); prior != nil {
		c.sched.CancelEvent(ctx, *prior)
	}
	events = c.store.DeleteEventByID(id, events)
	c.setCache(events, false)
	return events
}

// ClearAll cancels every notification and wipes events, settings and
// backups.
func (c *Coordinator) ClearAll(ctx context.Context) bool {
	c.sched.CancelAll(ctx)
	ok := c.store.ClearAllData()
	c.setCache(nil, false)
	return ok
}

// ClearEvents cancels every notification and wipes the events
// collection and its backup; settings survive.
func (c *Coordinator) ClearEvents(ctx context.Context) bool {
	c.sched.CancelAll(ctx)
	ok := c.store.ClearAllEvents()
	c.setCache(nil, false)
	return ok
}

// Events returns the persisted collection.
func (c *Coordinator) Events() []model.Event {
	return c.store.LoadEvents()
}

// MarkUnsaved tracks a working copy that has not been flushed yet; the
// host calls this after in-memory edits it intends to batch.
func (c *Coordinator) MarkUnsaved(events []model.Event) {
	c.setCache(events, true)
}

// FlushPending writes the tracked working copy through SaveEvents if
// there is one.
func (c *Coordinator) FlushPending() bool {
	c.mu.Lock()
	if !c.unsaved || len(c.cache) == 0 {
		c.mu.Unlock()
		return true
	}
	events := make([]model.Event, len(c.cache))
	copy(events, c.cache)
	c.unsaved = false
	c.mu.Unlock()

	return c.store.SaveEvents(events)
}

// ReconcileFromStore drops the working copy and reloads from the
// store, which is the source of truth after every mutation.
func (c *Coordinator) ReconcileFromStore() []model.Event {
	events := c.store.LoadEvents()
	c.setCache(events, false)
	return events
}

// OnSuspend is the host's going-to-background hook: flush unsaved
// changes before the process may be frozen.
func (c *Coordinator) OnSuspend() {
	c.log.Infof("[lifecycle] suspending, flushing pending changes")
	c.FlushPending()
}

// OnResume is the host's back-to-foreground hook: reconcile with
// whatever was last written.
func (c *Coordinator) OnResume() []model.Event {
	c.log.Infof("[lifecycle] resuming, reloading from store")
	return c.ReconcileFromStore()
}

func (c *Coordinator) setCache(events []model.Event, unsaved bool) {
	c.mu.Lock()
	c.cache = events
	c.unsaved = unsaved
	c.mu.Unlock()
}

func findEvent(events []model.Event, id string) *model.Event {
	for i := range events {
		if events[i].ID == id {
			return &events[i]
		}
	}
	return nil
}
