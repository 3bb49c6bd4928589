package models

// EventType is the discriminator selecting an event's detail variant.
type EventType string

const (
	EventWeekly     EventType = "weekly"
	EventSingleDay  EventType = "single_day"
	EventMultiDay   EventType = "multi_day"
	EventRSVPSingle EventType = "rsvp_single"
	EventRSVPMulti  EventType = "rsvp_multi"
)

// Event is stored as a single document together with its details, so an
// event can never be observed without them.
type Event struct {
	ID            string    `json:"id" bson:"id"`
	Name          string    `json:"name" bson:"name"`
	Description   string    `json:"description" bson:"description"`
	Location      string    `json:"location" bson:"location"`
	Link          string    `json:"link" bson:"link"`
	CoordinatorID int64     `json:"coordinator" bson:"coordinatorId"` // 0 when created anonymously
	Type          EventType `json:"event_type" bson:"eventType"`
	Details       Details   `json:"-" bson:"details"`
	Version       int64     `json:"-" bson:"version"`
}

// HasCoordinator is false for events created without a session.
func (e Event) HasCoordinator() bool { return e.CoordinatorID != 0 }

// Details is a closed union: exactly one pointer is set and it matches
// Tag(). Dispatch on the tag, never on which field happens to be non-nil.
type Details struct {
	Weekly     *WeeklyDetails     `bson:"weekly,omitempty"`
	SingleDay  *SingleDayDetails  `bson:"singleDay,omitempty"`
	MultiDay   *MultiDayDetails   `bson:"multiDay,omitempty"`
	RSVPSingle *RSVPSingleDetails `bson:"rsvpSingle,omitempty"`
	RSVPMulti  *RSVPMultiDetails  `bson:"rsvpMulti,omitempty"`
}

// Tag reports which variant is populated, "" if none or more than one is.
func (d Details) Tag() EventType {
	var tag EventType
	n := 0
	if d.Weekly != nil {
		tag, n = EventWeekly, n+1
	}
	if d.SingleDay != nil {
		tag, n = EventSingleDay, n+1
	}
	if d.MultiDay != nil {
		tag, n = EventMultiDay, n+1
	}
	if d.RSVPSingle != nil {
		tag, n = EventRSVPSingle, n+1
	}
	if d.RSVPMulti != nil {
		tag, n = EventRSVPMulti, n+1
	}
	if n != 1 {
		return ""
	}
	return tag
}

// Variant returns the populated variant for serialization.
func (d Details) Variant() any {
	switch d.Tag() {
	case EventWeekly:
		return d.Weekly
	case EventSingleDay:
		return d.SingleDay
	case EventMultiDay:
		return d.MultiDay
	case EventRSVPSingle:
		return d.RSVPSingle
	case EventRSVPMulti:
		return d.RSVPMulti
	}
	return nil
}

// WeeklyDetails repeats every week on the selected days; it has no date.
type WeeklyDetails struct {
	Mon       bool      `json:"mon_selected" bson:"mon"`
	Tue       bool      `json:"tue_selected" bson:"tue"`
	Wed       bool      `json:"wed_selected" bson:"wed"`
	Thu       bool      `json:"thur_selected" bson:"thu"`
	Fri       bool      `json:"fri_selected" bson:"fri"`
	Sat       bool      `json:"sat_selected" bson:"sat"`
	Sun       bool      `json:"sun_selected" bson:"sun"`
	StartTime TimeOfDay `json:"start_time" bson:"startTime"`
	EndTime   TimeOfDay `json:"end_time" bson:"endTime"`
}

// Selected reports whether the weekly event runs on day.
func (w WeeklyDetails) Selected(day Weekday) bool {
	switch day {
	case Monday:
		return w.Mon
	case Tuesday:
		return w.Tue
	case Wednesday:
		return w.Wed
	case Thursday:
		return w.Thu
	case Friday:
		return w.Fri
	case Saturday:
		return w.Sat
	case Sunday:
		return w.Sun
	}
	return false
}

// SingleDayDetails proposes a date range out of which one day is picked.
type SingleDayDetails struct {
	StartDateRange     Date       `json:"start_date_range" bson:"startDateRange"`
	EndDateRange       Date       `json:"end_date_range" bson:"endDateRange"`
	IsAllDay           bool       `json:"is_all_day" bson:"isAllDay"`
	StartTime          *TimeOfDay `json:"start_time" bson:"startTime,omitempty"`
	EndTime            *TimeOfDay `json:"end_time" bson:"endTime,omitempty"`
	ConfirmedDate      *Date      `json:"confirmed_date" bson:"confirmedDate,omitempty"`
	ConfirmedStartTime *TimeOfDay `json:"confirmed_start_time" bson:"confirmedStartTime,omitempty"`
	ConfirmedEndTime   *TimeOfDay `json:"confirmed_end_time" bson:"confirmedEndTime,omitempty"`
}

// MultiDayDetails proposes a range out of which NumDays consecutive days are picked.
type MultiDayDetails struct {
	NumDays            int        `json:"num_days" bson:"numDays"`
	StartDateRange     Date       `json:"start_date_range" bson:"startDateRange"`
	EndDateRange       Date       `json:"end_date_range" bson:"endDateRange"`
	IsAllDay           bool       `json:"is_all_day" bson:"isAllDay"`
	StartTime          *TimeOfDay `json:"start_time" bson:"startTime,omitempty"`
	EndTime            *TimeOfDay `json:"end_time" bson:"endTime,omitempty"`
	ConfirmedStartDate *Date      `json:"confirmed_start_date" bson:"confirmedStartDate,omitempty"`
	ConfirmedEndDate   *Date      `json:"confirmed_end_date" bson:"confirmedEndDate,omitempty"`
}

// RSVPSingleDetails is already the final time; participants only respond.
type RSVPSingleDetails struct {
	Date      Date       `json:"date" bson:"date"`
	IsAllDay  bool       `json:"is_all_day" bson:"isAllDay"`
	StartTime *TimeOfDay `json:"start_time" bson:"startTime,omitempty"`
	EndTime   *TimeOfDay `json:"end_time" bson:"endTime,omitempty"`
}

type RSVPMultiDetails struct {
	StartDate Date       `json:"start_date" bson:"startDate"`
	EndDate   Date       `json:"end_date" bson:"endDate"`
	IsAllDay  bool       `json:"is_all_day" bson:"isAllDay"`
	StartTime *TimeOfDay `json:"start_time" bson:"startTime,omitempty"`
	EndTime   *TimeOfDay `json:"end_time" bson:"endTime,omitempty"`
}
