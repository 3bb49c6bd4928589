package models

import (
	"encoding/json"
	"strconv"
	"strings"
)

// fieldReader pulls typed values out of a raw JSON object and collects
// one FieldError per bad field instead of stopping at the first.
type fieldReader struct {
	raw  map[string]json.RawMessage
	errs []FieldError
}

func newFieldReader(raw map[string]json.RawMessage) *fieldReader {
	return &fieldReader{raw: raw}
}

func (r *fieldReader) fail(field, reason string) {
	for _, e := range r.errs {
		if e.Field == field {
			return
		}
	}
	r.errs = append(r.errs, FieldError{Field: field, Reason: reason})
}

func (r *fieldReader) failed(field string) bool {
	for _, e := range r.errs {
		if e.Field == field {
			return true
		}
	}
	return false
}

// present is true when the field is supplied with a non-null value.
func (r *fieldReader) present(name string) bool {
	v, ok := r.raw[name]
	return ok && strings.TrimSpace(string(v)) != "null"
}

func (r *fieldReader) str(name string) (string, bool) {
	if !r.present(name) {
		return "", false
	}
	var s string
	if err := json.Unmarshal(r.raw[name], &s); err != nil {
		r.fail(name, "must be a string")
		return "", false
	}
	if strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
}

func (r *fieldReader) boolean(name string) bool {
	if !r.present(name) {
		return false
	}
	var b bool
	if err := json.Unmarshal(r.raw[name], &b); err != nil {
		r.fail(name, "must be a boolean")
		return false
	}
	return b
}

func (r *fieldReader) integer(name string) (int, bool) {
	if !r.present(name) {
		return 0, false
	}
	raw := strings.Trim(string(r.raw[name]), `"`)
	n, err := strconv.Atoi(raw)
	if err != nil {
		r.fail(name, "must be an integer")
		return 0, false
	}
	return n, true
}

func (r *fieldReader) date(name string) *Date {
	s, ok := r.str(name)
	if !ok {
		return nil
	}
	d, err := ParseDate(s)
	if err != nil {
		r.fail(name, err.Error())
		return nil
	}
	return &d
}

func (r *fieldReader) clock(name string) *TimeOfDay {
	s, ok := r.str(name)
	if !ok {
		return nil
	}
	t, err := ParseTimeOfDay(s)
	if err != nil {
		r.fail(name, err.Error())
		return nil
	}
	return &t
}

func (r *fieldReader) requiredDate(name string) Date {
	d := r.date(name)
	if d == nil {
		if !r.failed(name) {
			r.fail(name, "required")
		}
		return ""
	}
	return *d
}

func (r *fieldReader) requiredClock(name string) TimeOfDay {
	t := r.clock(name)
	if t == nil {
		if !r.failed(name) {
			r.fail(name, "required")
		}
		return ""
	}
	return *t
}

// dateRange reads an inclusive range and checks from <= to.
func (r *fieldReader) dateRange(fromField, toField string) (Date, Date) {
	from, to := r.requiredDate(fromField), r.requiredDate(toField)
	if from != "" && to != "" && to.Before(from) {
		r.fail(toField, "must not be before "+fromField)
	}
	return from, to
}

// window applies the all-day rule: all-day drops both times, otherwise
// both are required and start must be strictly before end.
func (r *fieldReader) window(allDay bool, startField, endField string) (*TimeOfDay, *TimeOfDay) {
	start, end := r.clock(startField), r.clock(endField)
	if allDay {
		return nil, nil
	}
	if start == nil && !r.failed(startField) {
		r.fail(startField, "required unless is_all_day")
	}
	if end == nil && !r.failed(endField) {
		r.fail(endField, "required unless is_all_day")
	}
	if start != nil && end != nil && !start.Before(*end) {
		r.fail(endField, "must be after "+startField)
	}
	return start, end
}
