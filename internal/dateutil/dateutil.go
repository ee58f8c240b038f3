// Package dateutil is the date engine: next-occurrence arithmetic,
// countdowns and age derivation for recurring (day, month, optional
// year) dates. Everything works at day granularity in local time.
//
// Each computation has a *From variant taking an explicit "today" so
// callers and tests can pin the reference date; the plain variants use
// time.Now().
package dateutil

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/stellarlinkco/keepsake/internal/model"
)

// Midnight truncates t to 00:00:00 in its own location.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// ceilDays returns the difference to - from in whole days, rounding
// partial days (DST shifts) up.
func ceilDays(from, to time.Time) int {
	return int(math.Ceil(to.Sub(from).Hours() / 24))
}

// DaysUntil returns the number of days until the next occurrence of
// (day, month). year == 0 means a recurring date with no anchor year.
//
// When year is set and not in the past, the result is the exact signed
// difference to that one date: negative for a fixed date that has
// already passed. Otherwise the occurrence rolls forward to this year
// or the next, and the result is always >= 0.
func DaysUntil(day, month, year int) int {
	return DaysUntilFrom(time.Now(), day, month, year)
}

func DaysUntilFrom(now time.Time, day, month, year int) int {
	today := Midnight(now)

	if year != 0 && year >= today.Year() {
		target := time.Date(year, time.Month(month), day, 0, 0, 0, 0, now.Location())
		return ceilDays(today, target)
	}

	next := time.Date(today.Year(), time.Month(month), day, 0, 0, 0, 0, now.Location())
	if next.Before(today) {
		next = time.Date(today.Year()+1, time.Month(month), day, 0, 0, 0, 0, now.Location())
	}
	return ceilDays(today, next)
}

// NextOccurrence returns the concrete date of the next occurrence. A
// non-zero year pins the event to that exact date, past or future;
// otherwise the (day, month) pattern rolls to this year or the next.
func NextOccurrence(day, month, year int) time.Time {
	return NextOccurrenceFrom(time.Now(), day, month, year)
}

func NextOccurrenceFrom(now time.Time, day, month, year int) time.Time {
	today := Midnight(now)

	if year != 0 {
		return time.Date(year, time.Month(month), day, 0, 0, 0, 0, now.Location())
	}

	next := time.Date(today.Year(), time.Month(month), day, 0, 0, 0, 0, now.Location())
	if next.Before(today) {
		next = time.Date(today.Year()+1, time.Month(month), day, 0, 0, 0, 0, now.Location())
	}
	return next
}

// FormatEventDate renders "Weekday, D Month Year" for the next
// occurrence. With no anchor year, the occurrence's own year is shown.
func FormatEventDate(day, month, year int) string {
	return FormatEventDateFrom(time.Now(), day, month, year)
}

func FormatEventDateFrom(now time.Time, day, month, year int) string {
	next := NextOccurrenceFrom(now, day, month, year)
	displayYear := year
	if displayYear == 0 {
		displayYear = next.Year()
	}
	return fmt.Sprintf("%s, %d %s %d", next.Weekday(), day, time.Month(month), displayYear)
}

// FormatDaysRemaining renders a countdown as short human text.
func FormatDaysRemaining(days int) string {
	switch {
	case days == 0:
		return "Today"
	case days == 1:
		return "Tomorrow"
	case days < 0:
		return fmt.Sprintf("%d days ago", -days)
	case days < 7:
		return fmt.Sprintf("In %d days", days)
	case days < 14:
		return "In 1 week"
	case days < 30:
		return fmt.Sprintf("In %d weeks", days/7)
	case days < 60:
		return "In 1 month"
	case days < 365:
		return fmt.Sprintf("In %d months", days/30)
	case days < 730:
		return "In 1 year"
	default:
		return fmt.Sprintf("In %d years", days/365)
	}
}

// Age returns the age today for a date with an anchor year. ok is
// false when year == 0.
func Age(day, month, year int) (int, bool) {
	return AgeFrom(time.Now(), day, month, year)
}

func AgeFrom(now time.Time, day, month, year int) (int, bool) {
	if year == 0 {
		return 0, false
	}
	age := now.Year() - year
	if int(now.Month()) < month || (int(now.Month()) == month && now.Day() < day) {
		age--
	}
	return age, true
}

// UpcomingAge returns the age reached at the next occurrence: current
// age + 1. ok is false when year == 0.
func UpcomingAge(day, month, year int) (int, bool) {
	return UpcomingAgeFrom(time.Now(), day, month, year)
}

func UpcomingAgeFrom(now time.Time, day, month, year int) (int, bool) {
	age, ok := AgeFrom(now, day, month, year)
	if !ok {
		return 0, false
	}
	return age + 1, true
}

// SortByNextOccurrence returns the events ordered ascending by their
// day count. The sort is stable: ties keep their input order.
func SortByNextOccurrence(events []model.Event) []model.Event {
	return SortByNextOccurrenceFrom(time.Now(), events)
}

func SortByNextOccurrenceFrom(now time.Time, events []model.Event) []model.Event {
	sorted := make([]model.Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return DaysUntilFrom(now, sorted[i].Day, sorted[i].Month, sorted[i].Year) <
			DaysUntilFrom(now, sorted[j].Day, sorted[j].Month, sorted[j].Year)
	})
	return sorted
}

// Groups buckets events by how far out they are.
type Groups struct {
	Today     []model.Event
	ThisWeek  []model.Event
	ThisMonth []model.Event
	Later     []model.Event
	Past      []model.Event
}

// GroupByPeriod buckets events for an "upcoming" listing. An event
// with an explicit past year keeps its negative count and lands in
// Past; everything else is bucketed by its rolled-forward occurrence.
func GroupByPeriod(events []model.Event) Groups {
	return GroupByPeriodFrom(time.Now(), events)
}

func GroupByPeriodFrom(now time.Time, events []model.Event) Groups {
	var g Groups
	for _, ev := range events {
		days := DaysUntilFrom(now, ev.Day, ev.Month, ev.Year)
		switch {
		case days < 0:
			g.Past = append(g.Past, ev)
		case days == 0:
			g.Today = append(g.Today, ev)
		case days <= 7:
			g.ThisWeek = append(g.ThisWeek, ev)
		case days <= 30:
			g.ThisMonth = append(g.ThisMonth, ev)
		default:
			g.Later = append(g.Later, ev)
		}
	}
	return g
}

// IsToday reports whether the event's next occurrence is today.
func IsToday(day, month, year int) bool {
	return IsTodayFrom(time.Now(), day, month, year)
}

func IsTodayFrom(now time.Time, day, month, year int) bool {
	next := NextOccurrenceFrom(now, day, month, year)
	return now.Day() == next.Day() && now.Month() == next.Month() && now.Year() == next.Year()
}

// IsWithinDays reports whether the event occurs within the next n days.
func IsWithinDays(day, month, year, n int) bool {
	return IsWithinDaysFrom(time.Now(), day, month, year, n)
}

func IsWithinDaysFrom(now time.Time, day, month, year, n int) bool {
	days := DaysUntilFrom(now, day, month, year)
	return days >= 0 && days <= n
}
