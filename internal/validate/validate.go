// Package validate checks (day, month, optional year) triples before
// an event may be persisted. Errors come back as data, keyed by field,
// never as a Go error.
package validate

import (
	"fmt"
	"strings"
	"time"
)

// Errors maps a field name ("day", "month", "year") to a message.
// An empty map means the date is valid.
type Errors map[string]string

func (e Errors) OK() bool { return len(e) == 0 }

func (e Errors) String() string {
	if len(e) == 0 {
		return ""
	}
	parts := make([]string, 0, len(e))
	for _, field := range []string{"day", "month", "year"} {
		if msg, ok := e[field]; ok {
			parts = append(parts, field+": "+msg)
		}
	}
	return strings.Join(parts, "; ")
}

const (
	MinYear = 1900
	MaxYear = 2100
)

// IsLeapYear: divisible by 4 and not by 100, or divisible by 400.
func IsLeapYear(year int) bool {
	if year == 0 {
		return false
	}
	return (year%4 == 0 && year%100 != 0) || year%400 == 0
}

var monthDays = [12]int{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// DaysInMonth returns the number of days in month for the given year.
// year 0 (no anchor year) treats February as 28 days.
func DaysInMonth(month, year int) int {
	if month < 1 || month > 12 {
		return 31
	}
	if month == 2 && IsLeapYear(year) {
		return 29
	}
	return monthDays[month-1]
}

// ValidateDate applies the full rule set: range checks, month-length
// check, the Feb 29 leap-year rule (an error on both day and year),
// and a final round-trip construction that catches silent rollovers.
// year == 0 means no year was supplied.
func ValidateDate(day, month, year int) Errors {
	errs := Errors{}

	if day == 0 {
		errs["day"] = "Day is required"
	} else if day < 1 || day > 31 {
		errs["day"] = "Day must be 1-31"
	} else if month >= 1 && month <= 12 {
		if max := DaysInMonth(month, year); day > max {
			errs["day"] = fmt.Sprintf("%s has only %d days", time.Month(month), max)
		}
	}

	if month == 0 {
		errs["month"] = "Month is required"
	} else if month < 1 || month > 12 {
		errs["month"] = "Month must be 1-12"
	}

	if year != 0 {
		if year < MinYear {
			errs["year"] = fmt.Sprintf("Year must be %d or later", MinYear)
		} else if year > MaxYear {
			errs["year"] = fmt.Sprintf("Year must be %d or earlier", MaxYear)
		}

		if month == 2 && day == 29 && !IsLeapYear(year) {
			errs["day"] = "Feb 29 is only valid in leap years"
			errs["year"] = fmt.Sprintf("%d is not a leap year", year)
		}
	}

	if len(errs) == 0 {
		testYear := year
		if testYear == 0 {
			// Neutral year for the year-less recurring case.
			testYear = 2000
		}
		t := time.Date(testYear, time.Month(month), day, 0, 0, 0, 0, time.UTC)
		if t.Day() != day || int(t.Month()) != month {
			errs["day"] = "Invalid date"
		}
	}

	return errs
}

// FormatDate renders dd/mm/yyyy, with "YYYY" standing in when no year
// is set.
func FormatDate(day, month, year int) string {
	y := "YYYY"
	if year != 0 {
		y = fmt.Sprintf("%d", year)
	}
	return fmt.Sprintf("%02d/%02d/%s", day, month, y)
}

// SanitizeDateInput strips everything but digits from a form value.
func SanitizeDateInput(input string) string {
	var b strings.Builder
	for _, r := range input {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// AutoFormatDay clamps and zero-pads a day field on blur.
func AutoFormatDay(day int) string {
	if day < 1 {
		day = 1
	}
	if day > 31 {
		day = 31
	}
	return fmt.Sprintf("%02d", day)
}

// AutoFormatMonth clamps and zero-pads a month field on blur.
func AutoFormatMonth(month int) string {
	if month < 1 {
		month = 1
	}
	if month > 12 {
		month = 12
	}
	return fmt.Sprintf("%02d", month)
}
