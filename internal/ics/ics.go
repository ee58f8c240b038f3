// Package ics exports the events collection as an iCalendar feed so
// other calendar apps can subscribe to it.
package ics

import (
	"fmt"
	"io"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/stellarlinkco/keepsake/internal/dateutil"
	"github.com/stellarlinkco/keepsake/internal/model"
)

const prodID = "-//keepsake//events//EN"

// Export writes a VCALENDAR with one VEVENT per event: a yearly
// recurring all-day entry for year-less events, a one-shot entry for
// events pinned to an explicit year.
func Export(w io.Writer, events []model.Event) error {
	return ExportFrom(time.Now(), w, events)
}

func ExportFrom(now time.Time, w io.Writer, events []model.Event) error {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(prodID)

	for _, ev := range events {
		start := dateutil.NextOccurrenceFrom(now, ev.Day, ev.Month, ev.Year)

		ve := cal.AddEvent(fmt.Sprintf("%s@keepsake", ev.ID))
		ve.SetDtStampTime(now)
		ve.SetAllDayStartAt(start)
		ve.SetAllDayEndAt(start.AddDate(0, 0, 1))
		ve.SetSummary(summary(ev))
		if ev.Notes != "" {
			ve.SetDescription(ev.Notes)
		}
		if ev.Year == 0 {
			ve.AddRrule("FREQ=YEARLY")
		}
	}

	return cal.SerializeTo(w)
}

func summary(ev model.Event) string {
	switch ev.Type {
	case model.TypeBirthday:
		return fmt.Sprintf("%s's birthday", ev.Name)
	case model.TypeAnniversary:
		return fmt.Sprintf("%s's anniversary", ev.Name)
	default:
		return ev.Name
	}
}
