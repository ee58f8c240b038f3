package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/stellarlinkco/keepsake/internal/lifecycle"
	"github.com/stellarlinkco/keepsake/internal/model"
	"github.com/stellarlinkco/keepsake/internal/notify"
	"github.com/stellarlinkco/keepsake/internal/store"
)

// RegisterEventHandlers exposes the event lifecycle on the control
// plane: events.list, events.create, events.update, events.delete,
// events.clear.
func RegisterEventHandlers(s *Server, coord *lifecycle.Coordinator) {
	s.Register("events.list", func(params json.RawMessage, respond RespondFn) {
		respond(true, map[string]interface{}{"events": coord.Events()}, "")
	})

	s.Register("events.create", func(params json.RawMessage, respond RespondFn) {
		var p struct {
			Name         string `json:"name"`
			Day          int    `json:"day"`
			Month        int    `json:"month"`
			Year         int    `json:"year"`
			Type         string `json:"type"`
			Relation     string `json:"relation"`
			Notes        string `json:"notes"`
			ReminderDays *int   `json:"reminderDays"`
		}
		if err := json.Unmarshal(params, &p); err != nil {
			respond(false, nil, fmt.Sprintf("invalid params: %v", err))
			return
		}
		reminderDays := -1 // settings default
		if p.ReminderDays != nil {
			reminderDays = *p.ReminderDays
		}
		ev, errs, err := coord.Create(context.Background(), lifecycle.CreateInput{
			Name:         p.Name,
			Day:          p.Day,
			Month:        p.Month,
			Year:         p.Year,
			Type:         p.Type,
			Relation:     p.Relation,
			Notes:        p.Notes,
			ReminderDays: reminderDays,
		})
		if err != nil {
			respond(false, nil, err.Error())
			return
		}
		if !errs.OK() {
			respond(false, map[string]interface{}{"validationErrors": errs}, errs.String())
			return
		}
		respond(true, map[string]interface{}{"event": ev}, "")
	})

	s.Register("events.update", func(params json.RawMessage, respond RespondFn) {
		var p struct {
			ID    string      `json:"id"`
			Patch model.Patch `json:"patch"`
		}
		if err := json.Unmarshal(params, &p); err != nil {
			respond(false, nil, fmt.Sprintf("invalid params: %v", err))
			return
		}
		if p.ID == "" {
			respond(false, nil, "missing id")
			return
		}
		events, errs, err := coord.Update(context.Background(), p.ID, p.Patch)
		if err != nil {
			respond(false, nil, err.Error())
			return
		}
		if !errs.OK() {
			respond(false, map[string]interface{}{"validationErrors": errs}, errs.String())
			return
		}
		respond(true, map[string]interface{}{"events": events}, "")
	})

	s.Register("events.delete", func(params json.RawMessage, respond RespondFn) {
		var p struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(params, &p); err != nil {
			respond(false, nil, fmt.Sprintf("invalid params: %v", err))
			return
		}
		if p.ID == "" {
			respond(false, nil, "missing id")
			return
		}
		events := coord.Delete(context.Background(), p.ID)
		respond(true, map[string]interface{}{"events": events}, "")
	})

	s.Register("events.clear", func(params json.RawMessage, respond RespondFn) {
		if !coord.ClearAll(context.Background()) {
			respond(false, nil, "clear failed")
			return
		}
		respond(true, map[string]interface{}{"ok": true}, "")
	})
}

// RegisterSettingsHandlers exposes settings.get and settings.set.
func RegisterSettingsHandlers(s *Server, st *store.Store) {
	s.Register("settings.get", func(params json.RawMessage, respond RespondFn) {
		respond(true, map[string]interface{}{"settings": st.LoadSettings()}, "")
	})

	s.Register("settings.set", func(params json.RawMessage, respond RespondFn) {
		var patch model.SettingsPatch
		if err := json.Unmarshal(params, &patch); err != nil {
			respond(false, nil, fmt.Sprintf("invalid params: %v", err))
			return
		}
		settings, ok := st.UpdateSettings(patch)
		if !ok {
			respond(false, nil, "settings could not be saved")
			return
		}
		respond(true, map[string]interface{}{"settings": settings}, "")
	})
}

// RegisterNotifyHandlers exposes a test-fire method so users can check
// their delivery channel end to end.
func RegisterNotifyHandlers(s *Server, notifier notify.Notifier) {
	s.Register("notify.test", func(params json.RawMessage, respond RespondFn) {
		var p struct {
			DelaySeconds int `json:"delaySeconds"`
		}
		if len(params) > 0 {
			if err := json.Unmarshal(params, &p); err != nil {
				respond(false, nil, fmt.Sprintf("invalid params: %v", err))
				return
			}
		}
		if p.DelaySeconds <= 0 {
			p.DelaySeconds = 10
		}
		id, err := notifier.Schedule(context.Background(), notify.Content{
			Title: "🎉 Test Notification",
			Body:  "Local notifications are working.",
			Sound: true,
		}, time.Now().Add(time.Duration(p.DelaySeconds)*time.Second))
		if err != nil {
			respond(false, nil, err.Error())
			return
		}
		respond(true, map[string]interface{}{"id": id}, "")
	})
}
