// Package store is the persistence layer: serialized, atomic,
// backup-protected storage of the events collection and the settings
// singleton on top of a kv.Store.
//
// Failure policy: nothing here raises a raw storage error to callers.
// Saves report a boolean, loads degrade to backup data or defaults.
package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/stellarlinkco/keepsake/internal/kv"
	"github.com/stellarlinkco/keepsake/internal/model"
)

const (
	eventsKey    = "events"
	settingsKey  = "settings"
	backupSuffix = "_backup"
)

var errVerification = errors.New("store: post-write verification failed")

type Store struct {
	kv    kv.Store
	log   *zap.SugaredLogger
	queue *writeQueue
}

func New(kvs kv.Store, log *zap.SugaredLogger) *Store {
	return &Store{kv: kvs, log: log, queue: newWriteQueue()}
}

// atomicSave protects one key: snapshot the current value to the
// backup key, write, read back and verify byte-for-byte. Any failure
// restores the key from the backup before reporting.
func (s *Store) atomicSave(key string, data []byte) (err error) {
	backupKey := key + backupSuffix

	defer func() {
		if err == nil {
			return
		}
		s.log.Errorf("[store] save of %q failed, restoring from backup: %v", key, err)
		backup, ok, rerr := s.kv.Get(backupKey)
		if rerr != nil || !ok {
			s.log.Errorf("[store] no backup available for %q: %v", key, rerr)
			return
		}
		if rerr := s.kv.Set(key, backup); rerr != nil {
			s.log.Errorf("[store] backup restore for %q failed: %v", key, rerr)
		} else {
			s.log.Infof("[store] restored %q from backup", key)
		}
	}()

	current, ok, err := s.kv.Get(key)
	if err != nil {
		return err
	}
	if ok {
		if err = s.kv.Set(backupKey, current); err != nil {
			return err
		}
	}

	if err = s.kv.Set(key, data); err != nil {
		return err
	}

	verify, ok, err := s.kv.Get(key)
	if err != nil {
		return err
	}
	if !ok || !bytes.Equal(verify, data) {
		err = errVerification
		return err
	}
	return nil
}

func (s *Store) save(key string, v interface{}) bool {
	data, err := json.Marshal(v)
	if err != nil {
		s.log.Errorf("[store] marshal %q: %v", key, err)
		return false
	}
	if err := s.queue.Do(key, func() error { return s.atomicSave(key, data) }); err != nil {
		return false
	}
	return true
}

// SaveEvents persists the whole collection. Concurrent saves are
// serialized and coalesced by the write queue.
func (s *Store) SaveEvents(events []model.Event) bool {
	if s.save(eventsKey, events) {
		s.log.Infof("[store] saved %d events", len(events))
		return true
	}
	return false
}

// LoadEvents reads the collection, falling back to the backup key when
// the main key is absent or unparseable. Both failing degrades to an
// empty collection.
func (s *Store) LoadEvents() []model.Event {
	if events, ok := s.readEvents(eventsKey); ok {
		return events
	}
	if events, ok := s.readEvents(eventsKey + backupSuffix); ok {
		s.log.Warnf("[store] recovered %d events from backup", len(events))
		return events
	}
	return []model.Event{}
}

func (s *Store) readEvents(key string) ([]model.Event, bool) {
	data, ok, err := s.kv.Get(key)
	if err != nil || !ok {
		if err != nil {
			s.log.Errorf("[store] read %q: %v", key, err)
		}
		return nil, false
	}
	var events []model.Event
	if err := json.Unmarshal(data, &events); err != nil {
		s.log.Errorf("[store] parse %q: %v", key, err)
		return nil, false
	}
	if events == nil {
		events = []model.Event{}
	}
	return events, true
}

func (s *Store) SaveSettings(settings model.Settings) bool {
	return s.save(settingsKey, settings)
}

// LoadSettings returns the persisted settings, or defaults when
// nothing was saved yet. Defaults are not persisted implicitly.
func (s *Store) LoadSettings() model.Settings {
	data, ok, err := s.kv.Get(settingsKey)
	if err != nil || !ok {
		if err != nil {
			s.log.Errorf("[store] read settings: %v", err)
		}
		return model.DefaultSettings()
	}
	var settings model.Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		s.log.Errorf("[store] parse settings: %v", err)
		return model.DefaultSettings()
	}
	return settings
}

// UpdateSettings applies a partial patch to the persisted settings.
// The second return is false when the save failed.
func (s *Store) UpdateSettings(patch model.SettingsPatch) (model.Settings, bool) {
	updated := patch.Apply(s.LoadSettings())
	return updated, s.SaveSettings(updated)
}

// UpdateEventByID replaces the matching record's fields with patch,
// stamps UpdatedAt and persists. An unknown id or a failed save leaves
// the input collection unchanged.
func (s *Store) UpdateEventByID(id string, patch model.Patch, current []model.Event) []model.Event {
	found := false
	updated := make([]model.Event, len(current))
	for i, ev := range current {
		if ev.ID == id {
			ev = patch.Apply(ev)
			ev.UpdatedAt = time.Now()
			found = true
		}
		updated[i] = ev
	}
	if !found {
		return current
	}
	if !s.SaveEvents(updated) {
		return current
	}
	return updated
}

// DeleteEventByID removes the matching record and persists. An unknown
// id or a failed save leaves the input collection unchanged.
func (s *Store) DeleteEventByID(id string, current []model.Event) []model.Event {
	updated := make([]model.Event, 0, len(current))
	for _, ev := range current {
		if ev.ID != id {
			updated = append(updated, ev)
		}
	}
	if len(updated) == len(current) {
		return current
	}
	if !s.SaveEvents(updated) {
		return current
	}
	s.log.Infof("[store] deleted event %s", id)
	return updated
}

// AllData is a snapshot of everything persisted.
func (s *Store) AllData() ([]model.Event, model.Settings) {
	return s.LoadEvents(), s.LoadSettings()
}

// ClearAllEvents removes the collection and its backup.
func (s *Store) ClearAllEvents() bool {
	if err := s.kv.MultiRemove([]string{eventsKey, eventsKey + backupSuffix}); err != nil {
		s.log.Errorf("[store] clear events: %v", err)
		return false
	}
	return true
}

// ClearAllData removes events, settings and both backups. Subsequent
// loads return empty/default values.
func (s *Store) ClearAllData() bool {
	keys := []string{
		eventsKey, eventsKey + backupSuffix,
		settingsKey, settingsKey + backupSuffix,
	}
	if err := s.kv.MultiRemove(keys); err != nil {
		s.log.Errorf("[store] clear all: %v", err)
		return false
	}
	s.log.Infof("[store] all data cleared")
	return true
}

// Dump returns every stored key with its raw value, for diagnostics.
func (s *Store) Dump() map[string]string {
	out := map[string]string{}
	keys, err := s.kv.Keys()
	if err != nil {
		s.log.Errorf("[store] list keys: %v", err)
		return out
	}
	values, err := s.kv.MultiGet(keys)
	if err != nil {
		s.log.Errorf("[store] multi get: %v", err)
		return out
	}
	for key, val := range values {
		out[key] = string(val)
	}
	return out
}
