package models

import (
	"encoding/json"
	"errors"
	"testing"
)

func mustFields(t *testing.T, err error, kind Kind, want ...string) {
	t.Helper()
	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("want *Error of kind %s, got %v", kind, err)
	}
	if e.Kind != kind {
		t.Fatalf("want kind %s, got %s (%v)", kind, e.Kind, err)
	}
	got := map[string]bool{}
	for _, f := range e.Fields {
		got[f.Field] = true
	}
	for _, w := range want {
		if !got[w] {
			t.Fatalf("want field %q in %v", w, e.Fields)
		}
	}
}

func TestParseEventType(t *testing.T) {
	for _, typ := range EventTypes() {
		got, err := ParseEventType(" " + string(typ) + " ")
		if err != nil || got != typ {
			t.Fatalf("%s: got %q, %v", typ, got, err)
		}
	}
	_, err := ParseEventType("")
	mustFields(t, err, KindValidation, "event_type")
	_, err = ParseEventType("monthly")
	mustFields(t, err, KindValidation, "event_type")
}

func TestAvailabilityKindOf(t *testing.T) {
	cases := map[EventType]AvailabilityKind{
		EventWeekly:     AvailabilityWeekly,
		EventSingleDay:  AvailabilityDate,
		EventMultiDay:   AvailabilityDate,
		EventRSVPSingle: AvailabilityRSVP,
		EventRSVPMulti:  AvailabilityRSVP,
	}
	for typ, want := range cases {
		if got := AvailabilityKindOf(typ); got != want {
			t.Fatalf("%s: want %s, got %s", typ, want, got)
		}
	}
}

func TestDecodeWeekly(t *testing.T) {
	d, err := DecodeDetails(EventWeekly, json.RawMessage(`{
		"name": "standup", "event_type": "weekly",
		"mon_selected": true, "thur_selected": true,
		"start_time": "09:00:00", "end_time": "17:00"}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if d.Tag() != EventWeekly {
		t.Fatalf("tag %q", d.Tag())
	}
	w := d.Weekly
	if !w.Mon || !w.Thu || w.Tue || w.StartTime != "09:00" || w.EndTime != "17:00" {
		t.Fatalf("unexpected %+v", w)
	}
	if !w.Selected(Thursday) || w.Selected(Sunday) {
		t.Fatalf("Selected mismatch for %+v", w)
	}
}

func TestDecodeWeekly_Invalid(t *testing.T) {
	_, err := DecodeDetails(EventWeekly, json.RawMessage(`{"start_time": "10:00", "end_time": "09:00"}`))
	mustFields(t, err, KindValidation, "end_time", "mon_selected")

	_, err = DecodeDetails(EventWeekly, json.RawMessage(`{"mon_selected": true, "start_time": "9am", "end_time": "10:00"}`))
	mustFields(t, err, KindValidation, "start_time")
}

func TestDecodeNestedDetails(t *testing.T) {
	d, err := DecodeDetails(EventRSVPSingle, json.RawMessage(`{
		"name": "launch",
		"event_details": {"date": "2025-03-01", "is_all_day": true, "start_time": "10:00"}}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	// all-day drops any supplied times
	if d.RSVPSingle.Date != "2025-03-01" || d.RSVPSingle.StartTime != nil {
		t.Fatalf("unexpected %+v", d.RSVPSingle)
	}
}

func TestDecodeForeignFieldIsTypeMismatch(t *testing.T) {
	_, err := DecodeDetails(EventSingleDay, json.RawMessage(`{
		"start_date_range": "2025-01-01", "end_date_range": "2025-01-05",
		"is_all_day": true, "num_days": 2}`))
	mustFields(t, err, KindTypeMismatch, "num_days")
}

func TestDecodeUnknownField(t *testing.T) {
	_, err := DecodeDetails(EventRSVPSingle, json.RawMessage(`{"date": "2025-03-01", "is_all_day": true, "colour": "red"}`))
	mustFields(t, err, KindValidation, "colour")
}

func TestDecodeSingleDay(t *testing.T) {
	d, err := DecodeDetails(EventSingleDay, json.RawMessage(`{
		"start_date_range": "2025-01-01", "end_date_range": "2025-01-05",
		"start_time": "09:00", "end_time": "12:00",
		"confirmed_date": "2025-01-03", "confirmed_start_time": "10:00", "confirmed_end_time": "11:00"}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	s := d.SingleDay
	if *s.ConfirmedDate != "2025-01-03" || *s.ConfirmedStartTime != "10:00" {
		t.Fatalf("unexpected %+v", s)
	}

	_, err = DecodeDetails(EventSingleDay, json.RawMessage(`{
		"start_date_range": "2025-01-05", "end_date_range": "2025-01-01", "is_all_day": true,
		"confirmed_date": "2025-02-01"}`))
	mustFields(t, err, KindValidation, "end_date_range")

	_, err = DecodeDetails(EventSingleDay, json.RawMessage(`{
		"start_date_range": "2025-01-01", "end_date_range": "2025-01-05", "is_all_day": true,
		"confirmed_date": "2025-02-01"}`))
	mustFields(t, err, KindValidation, "confirmed_date")

	_, err = DecodeDetails(EventSingleDay, json.RawMessage(`{
		"start_date_range": "2025-01-01", "end_date_range": "2025-01-05"}`))
	mustFields(t, err, KindValidation, "start_time", "end_time")
}

func TestDecodeMultiDay(t *testing.T) {
	d, err := DecodeDetails(EventMultiDay, json.RawMessage(`{
		"num_days": 3, "start_date_range": "2025-06-01", "end_date_range": "2025-06-10", "is_all_day": true,
		"confirmed_start_date": "2025-06-02", "confirmed_end_date": "2025-06-04"}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if d.MultiDay.NumDays != 3 || *d.MultiDay.ConfirmedEndDate != "2025-06-04" {
		t.Fatalf("unexpected %+v", d.MultiDay)
	}

	_, err = DecodeDetails(EventMultiDay, json.RawMessage(`{
		"num_days": 12, "start_date_range": "2025-06-01", "end_date_range": "2025-06-10", "is_all_day": true}`))
	mustFields(t, err, KindValidation, "num_days")

	_, err = DecodeDetails(EventMultiDay, json.RawMessage(`{
		"num_days": 3, "start_date_range": "2025-06-01", "end_date_range": "2025-06-10", "is_all_day": true,
		"confirmed_start_date": "2025-06-02", "confirmed_end_date": "2025-06-03"}`))
	mustFields(t, err, KindValidation, "confirmed_end_date")

	_, err = DecodeDetails(EventMultiDay, json.RawMessage(`{
		"start_date_range": "2025-06-01", "end_date_range": "2025-06-10", "is_all_day": true}`))
	mustFields(t, err, KindValidation, "num_days")

	// inverted confirmed range is an ordering error, not a length error
	_, err = DecodeDetails(EventMultiDay, json.RawMessage(`{
		"num_days": 3, "start_date_range": "2025-06-01", "end_date_range": "2025-06-10", "is_all_day": true,
		"confirmed_start_date": "2025-06-05", "confirmed_end_date": "2025-06-03"}`))
	mustFields(t, err, KindValidation, "confirmed_end_date")
	if e := err.(*Error); e.Fields[0].Reason != "must not be before confirmed_start_date" {
		t.Fatalf("unexpected reason %q", e.Fields[0].Reason)
	}
}

func TestDecodeRSVPMulti(t *testing.T) {
	d, err := DecodeDetails(EventRSVPMulti, json.RawMessage(`{
		"start_date": "2025-07-01", "end_date": "2025-07-03", "start_time": "18:00", "end_time": "22:00"}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if d.RSVPMulti.EndDate != "2025-07-03" || *d.RSVPMulti.EndTime != "22:00" {
		t.Fatalf("unexpected %+v", d.RSVPMulti)
	}
}

func TestMergeDetails(t *testing.T) {
	base, err := DecodeDetails(EventWeekly, json.RawMessage(`{"mon_selected": true, "start_time": "09:00", "end_time": "10:00"}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	merged, err := MergeDetails(EventWeekly, base, json.RawMessage(`{"name": "renamed", "fri_selected": true, "end_time": "11:30"}`))
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	w := merged.Weekly
	if !w.Mon || !w.Fri || w.StartTime != "09:00" || w.EndTime != "11:30" {
		t.Fatalf("unexpected %+v", w)
	}
	if base.Weekly.EndTime != "10:00" {
		t.Fatalf("merge mutated its input")
	}

	// a patch is validated as a whole: end before the kept start fails
	_, err = MergeDetails(EventWeekly, base, json.RawMessage(`{"end_time": "08:00"}`))
	mustFields(t, err, KindValidation, "end_time")

	_, err = MergeDetails(EventWeekly, base, json.RawMessage(`{"date": "2025-01-01"}`))
	mustFields(t, err, KindTypeMismatch, "date")

	unchanged, err := MergeDetails(EventWeekly, base, nil)
	if err != nil || unchanged.Weekly.EndTime != "10:00" {
		t.Fatalf("empty patch: %+v, %v", unchanged.Weekly, err)
	}
}

func TestMergeDetails_StoredMismatch(t *testing.T) {
	bad := Details{RSVPSingle: &RSVPSingleDetails{Date: "2025-01-01", IsAllDay: true}}
	_, err := MergeDetails(EventWeekly, bad, json.RawMessage(`{}`))
	if KindOf(err) != KindTypeMismatch {
		t.Fatalf("want type mismatch, got %v", err)
	}
}

func TestDetailsTag(t *testing.T) {
	if (Details{}).Tag() != "" {
		t.Fatalf("empty union must have no tag")
	}
	two := Details{Weekly: &WeeklyDetails{}, RSVPMulti: &RSVPMultiDetails{}}
	if two.Tag() != "" || two.Variant() != nil {
		t.Fatalf("two variants must have no tag")
	}
}

func TestErrorIsByKind(t *testing.T) {
	err := &Error{Kind: KindNotFound, Message: "event not found"}
	if !errors.Is(err, ErrNotFound) || errors.Is(err, ErrForbidden) {
		t.Fatalf("Is must compare kinds")
	}
	wrapped := &Error{Kind: KindConflictRetry, Message: "lost race", Cause: errors.New("23505")}
	if !errors.Is(wrapped, ErrConflict) || errors.Unwrap(wrapped) == nil {
		t.Fatalf("conflict must match and unwrap")
	}
	if KindOf(errors.New("io")) != "" {
		t.Fatalf("foreign errors have no kind")
	}
}
