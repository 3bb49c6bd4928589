package models

import (
	"encoding/json"
	"sort"
	"strings"
)

// detailSpec describes one event type: the fields its detail payload may
// carry, the availability it collects, and how to decode+validate it.
type detailSpec struct {
	kind   AvailabilityKind
	fields []string
	decode func(r *fieldReader) Details
}

var registry = map[EventType]detailSpec{
	EventWeekly: {
		kind: AvailabilityWeekly,
		fields: []string{
			"mon_selected", "tue_selected", "wed_selected", "thur_selected",
			"fri_selected", "sat_selected", "sun_selected", "start_time", "end_time",
		},
		decode: decodeWeekly,
	},
	EventSingleDay: {
		kind: AvailabilityDate,
		fields: []string{
			"start_date_range", "end_date_range", "is_all_day", "start_time", "end_time",
			"confirmed_date", "confirmed_start_time", "confirmed_end_time",
		},
		decode: decodeSingleDay,
	},
	EventMultiDay: {
		kind: AvailabilityDate,
		fields: []string{
			"num_days", "start_date_range", "end_date_range", "is_all_day", "start_time",
			"end_time", "confirmed_start_date", "confirmed_end_date",
		},
		decode: decodeMultiDay,
	},
	EventRSVPSingle: {
		kind:   AvailabilityRSVP,
		fields: []string{"date", "is_all_day", "start_time", "end_time"},
		decode: decodeRSVPSingle,
	},
	EventRSVPMulti: {
		kind:   AvailabilityRSVP,
		fields: []string{"start_date", "end_date", "is_all_day", "start_time", "end_time"},
		decode: decodeRSVPMulti,
	},
}

// baseFields are event-level keys that may sit next to detail fields in a
// flat request body.
var baseFields = map[string]bool{
	"id": true, "name": true, "description": true, "location": true, "link": true,
	"event_type": true, "coordinator": true, "coordinator_name": true,
	"participants": true, "event_details": true,
}

// ParseEventType validates a tag against the registry.
func ParseEventType(s string) (EventType, error) {
	t := EventType(strings.TrimSpace(s))
	if _, ok := registry[t]; !ok {
		if t == "" {
			return "", InvalidField("event_type", "required")
		}
		return "", InvalidField("event_type", "unknown event type "+string(t))
	}
	return t, nil
}

// EventTypes lists registered tags in a stable order.
func EventTypes() []EventType {
	out := make([]EventType, 0, len(registry))
	for t := range registry {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// AvailabilityKindOf returns the single availability kind an event type collects.
func AvailabilityKindOf(t EventType) AvailabilityKind {
	return registry[t].kind
}

// DecodeDetails validates a raw detail payload for t and returns the
// normalized variant. raw is a JSON object, either the flat request body
// or one with a nested "event_details" object.
func DecodeDetails(t EventType, raw json.RawMessage) (Details, error) {
	spec, ok := registry[t]
	if !ok {
		return Details{}, InvalidField("event_type", "unknown event type "+string(t))
	}
	fields, err := detailFields(t, raw)
	if err != nil {
		return Details{}, err
	}
	return decodeWith(t, spec, fields)
}

// MergeDetails overlays the detail fields supplied in patch onto existing
// and re-validates the result as a whole.
func MergeDetails(t EventType, existing Details, patch json.RawMessage) (Details, error) {
	spec, ok := registry[t]
	if !ok {
		return Details{}, InvalidField("event_type", "unknown event type "+string(t))
	}
	if existing.Tag() != t {
		return Details{}, TypeMismatch("stored details do not match event type " + string(t))
	}
	base, err := json.Marshal(existing.Variant())
	if err != nil {
		return Details{}, err
	}
	merged := map[string]json.RawMessage{}
	if err := json.Unmarshal(base, &merged); err != nil {
		return Details{}, err
	}
	changes, err := detailFields(t, patch)
	if err != nil {
		return Details{}, err
	}
	for k, v := range changes {
		merged[k] = v
	}
	return decodeWith(t, spec, merged)
}

func decodeWith(t EventType, spec detailSpec, fields map[string]json.RawMessage) (Details, error) {
	r := newFieldReader(fields)
	d := spec.decode(r)
	if len(r.errs) > 0 {
		return Details{}, Validation(r.errs...)
	}
	if d.Tag() != t {
		return Details{}, TypeMismatch("decoded details do not match event type " + string(t))
	}
	return d, nil
}

// detailFields extracts the detail keys of raw, rejecting keys that only
// other event types understand (TypeMismatch) and keys nobody knows.
func detailFields(t EventType, raw json.RawMessage) (map[string]json.RawMessage, error) {
	all := map[string]json.RawMessage{}
	if len(strings.TrimSpace(string(raw))) > 0 {
		if err := json.Unmarshal(raw, &all); err != nil {
			return nil, InvalidField("event_details", "must be a JSON object")
		}
	}
	if nested, ok := all["event_details"]; ok && strings.TrimSpace(string(nested)) != "null" {
		inner := map[string]json.RawMessage{}
		if err := json.Unmarshal(nested, &inner); err != nil {
			return nil, InvalidField("event_details", "must be a JSON object")
		}
		for k, v := range inner {
			all[k] = v
		}
	}

	own := map[string]bool{}
	for _, f := range registry[t].fields {
		own[f] = true
	}
	out := map[string]json.RawMessage{}
	var foreign, unknown []FieldError
	for k, v := range all {
		switch {
		case baseFields[k]:
		case own[k]:
			out[k] = v
		case ownerOf(k) != "":
			foreign = append(foreign, FieldError{Field: k, Reason: "belongs to " + string(ownerOf(k)) + " events"})
		default:
			unknown = append(unknown, FieldError{Field: k, Reason: "unknown field"})
		}
	}
	if len(foreign) > 0 {
		sortFields(foreign)
		return nil, TypeMismatch("detail fields do not match event type "+string(t), foreign...)
	}
	if len(unknown) > 0 {
		sortFields(unknown)
		return nil, Validation(unknown...)
	}
	return out, nil
}

func ownerOf(field string) EventType {
	for _, t := range EventTypes() {
		for _, f := range registry[t].fields {
			if f == field {
				return t
			}
		}
	}
	return ""
}

func sortFields(fs []FieldError) {
	sort.Slice(fs, func(i, j int) bool { return fs[i].Field < fs[j].Field })
}

func decodeWeekly(r *fieldReader) Details {
	w := &WeeklyDetails{
		Mon: r.boolean("mon_selected"),
		Tue: r.boolean("tue_selected"),
		Wed: r.boolean("wed_selected"),
		Thu: r.boolean("thur_selected"),
		Fri: r.boolean("fri_selected"),
		Sat: r.boolean("sat_selected"),
		Sun: r.boolean("sun_selected"),
	}
	if !(w.Mon || w.Tue || w.Wed || w.Thu || w.Fri || w.Sat || w.Sun) {
		r.fail("mon_selected", "select at least one of mon_selected, tue_selected, wed_selected, thur_selected, fri_selected, sat_selected, sun_selected")
	}
	start, end := r.window(false, "start_time", "end_time")
	if start != nil && end != nil {
		w.StartTime, w.EndTime = *start, *end
	}
	return Details{Weekly: w}
}

func decodeSingleDay(r *fieldReader) Details {
	s := &SingleDayDetails{IsAllDay: r.boolean("is_all_day")}
	s.StartDateRange, s.EndDateRange = r.dateRange("start_date_range", "end_date_range")
	s.StartTime, s.EndTime = r.window(s.IsAllDay, "start_time", "end_time")

	if c := r.date("confirmed_date"); c != nil {
		if s.StartDateRange != "" && s.EndDateRange != "" && !c.Within(s.StartDateRange, s.EndDateRange) {
			r.fail("confirmed_date", "must lie inside the proposed date range")
		}
		s.ConfirmedDate = c
	}
	cs, ce := r.clock("confirmed_start_time"), r.clock("confirmed_end_time")
	switch {
	case s.IsAllDay:
	case cs == nil && ce == nil:
	case cs == nil:
		r.fail("confirmed_start_time", "required with confirmed_end_time")
	case ce == nil:
		r.fail("confirmed_end_time", "required with confirmed_start_time")
	case !cs.Before(*ce):
		r.fail("confirmed_end_time", "must be after confirmed_start_time")
	default:
		if s.ConfirmedDate == nil {
			r.fail("confirmed_date", "required with confirmed times")
		}
		s.ConfirmedStartTime, s.ConfirmedEndTime = cs, ce
	}
	return Details{SingleDay: s}
}

func decodeMultiDay(r *fieldReader) Details {
	m := &MultiDayDetails{IsAllDay: r.boolean("is_all_day")}
	m.StartDateRange, m.EndDateRange = r.dateRange("start_date_range", "end_date_range")
	m.StartTime, m.EndTime = r.window(m.IsAllDay, "start_time", "end_time")

	n, ok := r.integer("num_days")
	switch {
	case !ok && !r.failed("num_days"):
		r.fail("num_days", "required")
	case ok && n < 1:
		r.fail("num_days", "must be at least 1")
	case ok && m.StartDateRange != "" && m.EndDateRange != "" && n > m.StartDateRange.DaysUntil(m.EndDateRange):
		r.fail("num_days", "longer than the proposed date range")
	}
	m.NumDays = n

	cs, ce := r.date("confirmed_start_date"), r.date("confirmed_end_date")
	switch {
	case cs == nil && ce == nil:
	case cs == nil:
		r.fail("confirmed_start_date", "required with confirmed_end_date")
	case ce == nil:
		r.fail("confirmed_end_date", "required with confirmed_start_date")
	case m.StartDateRange != "" && m.EndDateRange != "" &&
		!(cs.Within(m.StartDateRange, m.EndDateRange) && ce.Within(m.StartDateRange, m.EndDateRange)):
		r.fail("confirmed_start_date", "must lie inside the proposed date range")
	case ce.Before(*cs):
		r.fail("confirmed_end_date", "must not be before confirmed_start_date")
	case n >= 1 && cs.DaysUntil(*ce) != n:
		r.fail("confirmed_end_date", "confirmed range must span num_days")
	default:
		m.ConfirmedStartDate, m.ConfirmedEndDate = cs, ce
	}
	return Details{MultiDay: m}
}

func decodeRSVPSingle(r *fieldReader) Details {
	s := &RSVPSingleDetails{IsAllDay: r.boolean("is_all_day")}
	s.Date = r.requiredDate("date")
	s.StartTime, s.EndTime = r.window(s.IsAllDay, "start_time", "end_time")
	return Details{RSVPSingle: s}
}

func decodeRSVPMulti(r *fieldReader) Details {
	m := &RSVPMultiDetails{IsAllDay: r.boolean("is_all_day")}
	m.StartDate, m.EndDate = r.dateRange("start_date", "end_date")
	m.StartTime, m.EndTime = r.window(m.IsAllDay, "start_time", "end_time")
	return Details{RSVPMulti: m}
}
