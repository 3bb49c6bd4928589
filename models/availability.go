package models

import "strings"

// AvailabilityKind is the family of availability an event type collects.
type AvailabilityKind string

const (
	AvailabilityWeekly AvailabilityKind = "weekly"
	AvailabilityDate   AvailabilityKind = "date"
	AvailabilityRSVP   AvailabilityKind = "rsvp"
)

// WeeklySlot is unique on (participant, day, start).
type WeeklySlot struct {
	ID            int64     `json:"id"`
	ParticipantID int64     `json:"participant"`
	Day           Weekday   `json:"selected_day"`
	StartTime     TimeOfDay `json:"selected_start_time"`
	EndTime       TimeOfDay `json:"selected_end_time"`
}

// DateSlot is unique on the full (participant, date, start, end) tuple.
// An all-day slot leaves both times nil.
type DateSlot struct {
	ID            int64      `json:"id"`
	ParticipantID int64      `json:"participant"`
	Date          Date       `json:"selected_date"`
	StartTime     *TimeOfDay `json:"start_time"`
	EndTime       *TimeOfDay `json:"end_time"`
}

func (d DateSlot) AllDay() bool { return d.StartTime == nil && d.EndTime == nil }

type RSVP string

const (
	RSVPAvailable   RSVP = "available"
	RSVPUnavailable RSVP = "unavailable"
	RSVPTentative   RSVP = "tentative"
	RSVPNoResponse  RSVP = "no_response"
)

func ParseRSVP(s string) (RSVP, error) {
	switch r := RSVP(strings.TrimSpace(s)); r {
	case RSVPAvailable, RSVPUnavailable, RSVPTentative, RSVPNoResponse:
		return r, nil
	case "":
		return "", InvalidField("status", "required")
	}
	return "", InvalidField("status", "must be one of available, unavailable, tentative, no_response")
}

// RSVPStatus is at most one row per participant.
type RSVPStatus struct {
	ID            int64 `json:"id"`
	ParticipantID int64 `json:"participant"`
	Status        RSVP  `json:"status"`
}

// Availabilities groups every participant's records of an event by kind.
type Availabilities struct {
	Weekly []WeeklySlot `json:"weekly"`
	Date   []DateSlot   `json:"date"`
	RSVP   []RSVPStatus `json:"rsvp"`
}
