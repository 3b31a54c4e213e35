package calendar

import "time"

// CalendarID identifies a holiday calendar.
type CalendarID string

const (
	TARGET CalendarID = "TARGET"
	JPN    CalendarID = "JPN"
	USD    CalendarID = "USD"
	KRW    CalendarID = "KRW"
	// None treats every weekday as a business day.
	None CalendarID = ""
)

// Fixed-date holidays (MM-DD). Moveable feasts are not modelled.
var fixedHolidays = map[CalendarID]map[string]struct{}{
	TARGET: set("01-01", "05-01", "12-25", "12-26"),
	JPN:    set("01-01", "02-11", "04-29", "05-03", "05-04", "05-05", "11-03", "11-23"),
	USD:    set("01-01", "06-19", "07-04", "11-11", "12-25"),
	KRW:    set("01-01", "03-01", "05-05", "06-06", "08-15", "10-03", "10-09", "12-25"),
}

func set(days ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(days))
	for _, d := range days {
		m[d] = struct{}{}
	}
	return m
}

func isHoliday(cal CalendarID, t time.Time) bool {
	_, ok := fixedHolidays[cal][t.Format("01-02")]
	return ok
}

// IsBusinessDay checks weekends and holiday sets.
func IsBusinessDay(cal CalendarID, t time.Time) bool {
	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return false
	}
	return !isHoliday(cal, t)
}

// Adjust applies Modified Following.
func Adjust(cal CalendarID, t time.Time) time.Time {
	origMonth := t.Month()
	for !IsBusinessDay(cal, t) {
		t = t.AddDate(0, 0, 1)
	}
	if t.Month() != origMonth {
		t = t.AddDate(0, 0, -1)
		for !IsBusinessDay(cal, t) {
			t = t.AddDate(0, 0, -1)
		}
	}
	return t
}

// AddBusinessDays advances n business days (n can be negative).
func AddBusinessDays(cal CalendarID, t time.Time, n int) time.Time {
	step := 1
	if n < 0 {
		step = -1
	}
	for n != 0 {
		t = t.AddDate(0, 0, step)
		if IsBusinessDay(cal, t) {
			n -= step
		}
	}
	return t
}
