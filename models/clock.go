package models

import (
	"fmt"
	"strings"
	"time"
)

// TimeOfDay is a wall-clock time normalized to "HH:MM". The fixed width
// keeps string comparison equal to chronological order.
type TimeOfDay string

const (
	timeLayout = "15:04"
	dateLayout = "2006-01-02"
)

// ParseTimeOfDay accepts "HH:MM" or "HH:MM:SS"; seconds are dropped.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)
	layout := timeLayout
	if strings.Count(s, ":") == 2 {
		layout = "15:04:05"
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return "", fmt.Errorf("expected HH:MM, got %q", s)
	}
	return TimeOfDay(t.Format(timeLayout)), nil
}

// Minutes returns minutes since midnight.
func (t TimeOfDay) Minutes() int {
	p, err := time.Parse(timeLayout, string(t))
	if err != nil {
		return 0
	}
	return p.Hour()*60 + p.Minute()
}

// Add returns t shifted by d and false when the result leaves the day.
func (t TimeOfDay) Add(d time.Duration) (TimeOfDay, bool) {
	m := t.Minutes() + int(d/time.Minute)
	if m < 0 || m >= 24*60 {
		return "", false
	}
	return TimeOfDay(fmt.Sprintf("%02d:%02d", m/60, m%60)), true
}

func (t TimeOfDay) Before(o TimeOfDay) bool { return t < o }

// Date is a calendar date normalized to "YYYY-MM-DD".
type Date string

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("expected YYYY-MM-DD, got %q", s)
	}
	return Date(t.Format(dateLayout)), nil
}

// DateOf truncates a timestamp (as returned for DATE columns) to its date.
func DateOf(t time.Time) Date {
	return Date(t.UTC().Format(dateLayout))
}

func (d Date) Time() time.Time {
	t, _ := time.Parse(dateLayout, string(d))
	return t
}

func (d Date) Before(o Date) bool { return d < o }

// DaysUntil counts calendar days from d to o, inclusive of both ends.
func (d Date) DaysUntil(o Date) int {
	return int(o.Time().Sub(d.Time()).Hours()/24) + 1
}

// Within reports whether d lies inside [from, to].
func (d Date) Within(from, to Date) bool {
	return d >= from && d <= to
}

// Weekday is a day-of-week tag used by weekly events and slots.
type Weekday string

const (
	Monday    Weekday = "mon"
	Tuesday   Weekday = "tue"
	Wednesday Weekday = "wed"
	Thursday  Weekday = "thu"
	Friday    Weekday = "fri"
	Saturday  Weekday = "sat"
	Sunday    Weekday = "sun"
)

var Weekdays = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// Index is the calendar position, Monday first. Unknown tags sort last.
func (d Weekday) Index() int {
	for i, w := range Weekdays {
		if w == d {
			return i
		}
	}
	return len(Weekdays)
}

func ParseWeekday(s string) (Weekday, error) {
	switch w := Weekday(strings.ToLower(strings.TrimSpace(s))); w {
	case Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday:
		return w, nil
	case "thur":
		return Thursday, nil
	}
	return "", fmt.Errorf("unknown day %q", s)
}
