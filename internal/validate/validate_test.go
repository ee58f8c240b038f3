package validate

import "testing"

func TestIsLeapYear(t *testing.T) {
	cases := map[int]bool{
		2000: true,  // divisible by 400
		1900: false, // divisible by 100 but not 400
		2024: true,
		2023: false,
		0:    false,
	}
	for year, want := range cases {
		if got := IsLeapYear(year); got != want {
			t.Errorf("IsLeapYear(%d) = %v, want %v", year, got, want)
		}
	}
}

func TestDaysInMonth(t *testing.T) {
	if got := DaysInMonth(2, 2024); got != 29 {
		t.Errorf("Feb 2024 = %d, want 29", got)
	}
	if got := DaysInMonth(2, 2023); got != 28 {
		t.Errorf("Feb 2023 = %d, want 28", got)
	}
	// No anchor year: February is conservative.
	if got := DaysInMonth(2, 0); got != 28 {
		t.Errorf("Feb without year = %d, want 28", got)
	}
	if got := DaysInMonth(4, 0); got != 30 {
		t.Errorf("April = %d, want 30", got)
	}
}

func TestValidateDateOK(t *testing.T) {
	for _, c := range []struct{ d, m, y int }{
		{15, 6, 0},
		{15, 6, 1990},
		{29, 2, 2020},
		{31, 12, 2100},
		{1, 1, 1900},
	} {
		if errs := ValidateDate(c.d, c.m, c.y); !errs.OK() {
			t.Errorf("ValidateDate(%d,%d,%d) = %v, want no errors", c.d, c.m, c.y, errs)
		}
	}
}

func TestValidateDateErrors(t *testing.T) {
	cases := []struct {
		name    string
		d, m, y int
		field   string
		msg     string
	}{
		{"day required", 0, 6, 0, "day", "Day is required"},
		{"day range", 32, 1, 0, "day", "Day must be 1-31"},
		{"month length", 31, 4, 0, "day", "April has only 30 days"},
		{"month required", 15, 0, 0, "month", "Month is required"},
		{"month range", 15, 13, 0, "month", "Month must be 1-12"},
		{"year too early", 15, 6, 1850, "year", "Year must be 1900 or later"},
		{"year too late", 15, 6, 2150, "year", "Year must be 2100 or earlier"},
		{"feb 29 without year", 29, 2, 0, "day", "February has only 28 days"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			errs := ValidateDate(tc.d, tc.m, tc.y)
			if got := errs[tc.field]; got != tc.msg {
				t.Errorf("ValidateDate(%d,%d,%d)[%s] = %q, want %q", tc.d, tc.m, tc.y, tc.field, got, tc.msg)
			}
		})
	}
}

func TestValidateDateFeb29NonLeap(t *testing.T) {
	errs := ValidateDate(29, 2, 2021)
	if errs["day"] != "Feb 29 is only valid in leap years" {
		t.Errorf("day = %q", errs["day"])
	}
	if errs["year"] != "2021 is not a leap year" {
		t.Errorf("year = %q", errs["year"])
	}
}

func TestErrorsString(t *testing.T) {
	errs := ValidateDate(0, 0, 0)
	if errs.OK() {
		t.Fatal("expected errors")
	}
	// Field order is fixed regardless of map iteration.
	want := "day: Day is required; month: Month is required"
	if got := errs.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestFormatDate(t *testing.T) {
	if got := FormatDate(5, 3, 1990); got != "05/03/1990" {
		t.Errorf("with year = %q", got)
	}
	if got := FormatDate(5, 3, 0); got != "05/03/YYYY" {
		t.Errorf("without year = %q", got)
	}
}

func TestSanitizeDateInput(t *testing.T) {
	if got := SanitizeDateInput("1a2b3"); got != "123" {
		t.Errorf("got %q", got)
	}
	if got := SanitizeDateInput("12/06/1990"); got != "12061990" {
		t.Errorf("got %q", got)
	}
}

func TestAutoFormat(t *testing.T) {
	if got := AutoFormatDay(0); got != "01" {
		t.Errorf("AutoFormatDay(0) = %q", got)
	}
	if got := AutoFormatDay(45); got != "31" {
		t.Errorf("AutoFormatDay(45) = %q", got)
	}
	if got := AutoFormatDay(7); got != "07" {
		t.Errorf("AutoFormatDay(7) = %q", got)
	}
	if got := AutoFormatMonth(13); got != "12" {
		t.Errorf("AutoFormatMonth(13) = %q", got)
	}
	if got := AutoFormatMonth(2); got != "02" {
		t.Errorf("AutoFormatMonth(2) = %q", got)
	}
}
