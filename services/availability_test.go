package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"avease/models"
)

// a participant fills a weekly grid; repeats are no-ops
func TestWeeklySlots(t *testing.T) {
	f := newFixture(t, DefaultPolicy())
	ctx := context.Background()
	coord, member := f.user("coord"), f.user("member")
	ev := f.event(t, coord.ID, models.EventWeekly, weeklyBody)
	p := f.join(t, member.ID, ev.Link)

	slot, err := f.s.SetWeeklySlot(ctx, member.ID, ev.Link, WeeklySlotInput{ParticipantID: p.ID, Day: "mon", StartTime: "10:00:00"})
	if err != nil {
		t.Fatalf("set: %v", err)
	}
	if slot.Day != models.Monday || slot.StartTime != "10:00" || slot.EndTime != "10:30" || slot.ParticipantID != p.ID {
		t.Fatalf("unexpected slot %+v", slot)
	}
	again, err := f.s.SetWeeklySlot(ctx, member.ID, ev.Link, WeeklySlotInput{ParticipantID: p.ID, Day: "mon", StartTime: "10:00"})
	if err != nil || again.ID != slot.ID {
		t.Fatalf("repeat must return the stored slot: %+v %v", again, err)
	}
	if _, err := f.s.SetWeeklySlot(ctx, member.ID, ev.Link, WeeklySlotInput{ParticipantID: p.ID, Day: "wed", StartTime: "16:00", EndTime: "17:00"}); err != nil {
		t.Fatalf("explicit end: %v", err)
	}

	view, err := f.s.GetAvailabilities(ctx, coord.ID, ev.Link)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if view.Kind != models.AvailabilityWeekly || len(view.Weekly) != 2 || len(view.Date) != 0 || len(view.RSVP) != 0 {
		t.Fatalf("unexpected view %+v", view)
	}

	if err := f.s.RemoveWeeklySlot(ctx, member.ID, ev.Link, WeeklySlotInput{ParticipantID: p.ID, Day: "mon", StartTime: "10:00"}); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := f.s.RemoveWeeklySlot(ctx, member.ID, ev.Link, WeeklySlotInput{ParticipantID: p.ID, Day: "mon", StartTime: "10:00"}); err != nil {
		t.Fatalf("remove is idempotent: %v", err)
	}
	view, _ = f.s.GetAvailabilities(ctx, member.ID, ev.Link)
	if len(view.Weekly) != 1 || view.Weekly[0].Day != models.Wednesday {
		t.Fatalf("unexpected after remove %+v", view.Weekly)
	}
}

// the aggregated grid runs Monday first, not alphabetically
func TestWeeklySlots_CalendarOrder(t *testing.T) {
	f := newFixture(t, DefaultPolicy())
	ctx := context.Background()
	coord, member := f.user("coord"), f.user("member")
	ev := f.event(t, coord.ID, models.EventWeekly, weeklyBody)
	p := f.join(t, member.ID, ev.Link)

	for _, in := range []WeeklySlotInput{
		{ParticipantID: p.ID, Day: "wed", StartTime: "09:00"},
		{ParticipantID: p.ID, Day: "mon", StartTime: "14:00"},
		{ParticipantID: p.ID, Day: "mon", StartTime: "09:00"},
	} {
		if _, err := f.s.SetWeeklySlot(ctx, member.ID, ev.Link, in); err != nil {
			t.Fatalf("set %+v: %v", in, err)
		}
	}

	view, err := f.s.GetAvailabilities(ctx, coord.ID, ev.Link)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	want := []struct {
		day   models.Weekday
		start models.TimeOfDay
	}{{models.Monday, "09:00"}, {models.Monday, "14:00"}, {models.Wednesday, "09:00"}}
	if len(view.Weekly) != len(want) {
		t.Fatalf("want %d slots, got %+v", len(want), view.Weekly)
	}
	for i, w := range want {
		if view.Weekly[i].Day != w.day || view.Weekly[i].StartTime != w.start {
			t.Fatalf("slot %d: want %s %s, got %+v", i, w.day, w.start, view.Weekly[i])
		}
	}
}

func TestWeeklySlots_Invalid(t *testing.T) {
	f := newFixture(t, DefaultPolicy())
	ctx := context.Background()
	coord, member := f.user("coord"), f.user("member")
	ev := f.event(t, coord.ID, models.EventWeekly, weeklyBody)
	p := f.join(t, member.ID, ev.Link)

	cases := map[string]WeeklySlotInput{
		"end before start": {Day: "mon", StartTime: "11:00", EndTime: "10:00"},
		"end equals start": {Day: "mon", StartTime: "11:00", EndTime: "11:00"},
		"unselected day":   {Day: "tue", StartTime: "11:00"},
		"before window":    {Day: "mon", StartTime: "08:30"},
		"after window":     {Day: "mon", StartTime: "16:45"},
		"bad day":          {Day: "someday", StartTime: "11:00"},
		"missing start":    {Day: "mon"},
		"past midnight":    {Day: "mon", StartTime: "23:50"},
	}
	for name, in := range cases {
		in.ParticipantID = p.ID
		_, err := f.s.SetWeeklySlot(ctx, member.ID, ev.Link, in)
		if models.KindOf(err) != models.KindValidation {
			t.Fatalf("%s: want validation error, got %v", name, err)
		}
	}
}

func TestAvailabilityOwnership(t *testing.T) {
	f := newFixture(t, DefaultPolicy())
	ctx := context.Background()
	coord, alice, bob, carol := f.user("coord"), f.user("alice"), f.user("bob"), f.user("carol")
	ev := f.event(t, coord.ID, models.EventWeekly, weeklyBody)
	other := f.event(t, coord.ID, models.EventWeekly, weeklyBody)
	pa := f.join(t, alice.ID, ev.Link)
	f.join(t, bob.ID, ev.Link)
	pc := f.join(t, carol.ID, other.Link)

	in := WeeklySlotInput{ParticipantID: pa.ID, Day: "mon", StartTime: "10:00"}
	_, err := f.s.SetWeeklySlot(ctx, bob.ID, ev.Link, in)
	wantKind(t, err, models.KindForbidden)
	_, err = f.s.SetWeeklySlot(ctx, coord.ID, ev.Link, in)
	wantKind(t, err, models.KindForbidden)
	_, err = f.s.SetWeeklySlot(ctx, carol.ID, ev.Link, in)
	wantKind(t, err, models.KindNotFound)

	// a participant id of another event is not a participant here
	in.ParticipantID = pc.ID
	_, err = f.s.SetWeeklySlot(ctx, bob.ID, ev.Link, in)
	wantKind(t, err, models.KindNotFound)

	in.ParticipantID = 9999
	_, err = f.s.SetWeeklySlot(ctx, bob.ID, ev.Link, in)
	wantKind(t, err, models.KindNotFound)
}

func TestAvailabilityKindMustMatchEventType(t *testing.T) {
	f := newFixture(t, DefaultPolicy())
	ctx := context.Background()
	coord, member := f.user("coord"), f.user("member")
	rsvp := f.event(t, coord.ID, models.EventRSVPSingle, rsvpBody)
	weekly := f.event(t, coord.ID, models.EventWeekly, weeklyBody)
	pr := f.join(t, member.ID, rsvp.Link)
	pw := f.join(t, member.ID, weekly.Link)

	_, err := f.s.SetWeeklySlot(ctx, member.ID, rsvp.Link, WeeklySlotInput{ParticipantID: pr.ID, Day: "mon", StartTime: "10:00"})
	wantKind(t, err, models.KindTypeMismatch)
	_, err = f.s.SetDateSlot(ctx, member.ID, rsvp.Link, DateSlotInput{ParticipantID: pr.ID, Date: "2025-03-01"})
	wantKind(t, err, models.KindTypeMismatch)
	_, err = f.s.SetRSVP(ctx, member.ID, weekly.Link, RSVPInput{ParticipantID: pw.ID, Status: "available"})
	wantKind(t, err, models.KindTypeMismatch)
}

func TestDateSlots(t *testing.T) {
	f := newFixture(t, DefaultPolicy())
	ctx := context.Background()
	coord, member := f.user("coord"), f.user("member")
	ev := f.event(t, coord.ID, models.EventSingleDay, singleBody)
	p := f.join(t, member.ID, ev.Link)

	set := func(date, start, end string) (models.DateSlot, error) {
		return f.s.SetDateSlot(ctx, member.ID, ev.Link, DateSlotInput{ParticipantID: p.ID, Date: date, StartTime: start, EndTime: end})
	}

	whole, err := set("2025-01-02", "", "")
	if err != nil || !whole.AllDay() {
		t.Fatalf("whole day: %+v %v", whole, err)
	}
	morning, err := set("2025-01-02", "09:00", "12:00")
	if err != nil || morning.AllDay() || morning.ID == whole.ID {
		t.Fatalf("time range is a separate slot: %+v %v", morning, err)
	}
	again, _ := set("2025-01-02", "09:00", "12:00")
	if again.ID != morning.ID {
		t.Fatalf("repeat must return the stored slot")
	}
	if _, err := set("2025-01-04", "13:00", "14:00"); err != nil {
		t.Fatalf("second date: %v", err)
	}

	for name, c := range map[string][3]string{
		"outside range": {"2025-02-01", "", ""},
		"only start":    {"2025-01-02", "09:00", ""},
		"only end":      {"2025-01-02", "", "12:00"},
		"reversed":      {"2025-01-02", "12:00", "09:00"},
		"outside hours": {"2025-01-02", "06:00", "09:00"},
		"bad date":      {"02/01/2025", "", ""},
		"missing date":  {"", "", ""},
	} {
		if _, err := set(c[0], c[1], c[2]); models.KindOf(err) != models.KindValidation {
			t.Fatalf("%s: want validation error, got %v", name, err)
		}
	}

	// narrowed remove drops one slot, a bare date drops the rest of that day
	if err := f.s.RemoveDateSlot(ctx, member.ID, ev.Link, DateSlotInput{ParticipantID: p.ID, Date: "2025-01-02", StartTime: "09:00", EndTime: "12:00"}); err != nil {
		t.Fatalf("narrow remove: %v", err)
	}
	view, _ := f.s.GetAvailabilities(ctx, coord.ID, ev.Link)
	if len(view.Date) != 2 {
		t.Fatalf("want 2 date slots left, got %+v", view.Date)
	}
	if err := f.s.RemoveDateSlot(ctx, member.ID, ev.Link, DateSlotInput{ParticipantID: p.ID, Date: "2025-01-02"}); err != nil {
		t.Fatalf("date remove: %v", err)
	}
	view, _ = f.s.GetAvailabilities(ctx, coord.ID, ev.Link)
	if len(view.Date) != 1 || view.Date[0].Date != "2025-01-04" {
		t.Fatalf("unexpected %+v", view.Date)
	}
}

func TestDateSlots_AllDayEventRejectsTimes(t *testing.T) {
	f := newFixture(t, DefaultPolicy())
	ctx := context.Background()
	coord, member := f.user("coord"), f.user("member")
	ev := f.event(t, coord.ID, models.EventMultiDay, allDayBody)
	p := f.join(t, member.ID, ev.Link)

	if _, err := f.s.SetDateSlot(ctx, member.ID, ev.Link, DateSlotInput{ParticipantID: p.ID, Date: "2025-01-03"}); err != nil {
		t.Fatalf("date only: %v", err)
	}
	_, err := f.s.SetDateSlot(ctx, member.ID, ev.Link, DateSlotInput{ParticipantID: p.ID, Date: "2025-01-03", StartTime: "09:00", EndTime: "10:00"})
	wantKind(t, err, models.KindValidation)
}

func TestRSVP_Upsert(t *testing.T) {
	f := newFixture(t, DefaultPolicy())
	ctx := context.Background()
	coord, member := f.user("coord"), f.user("member")
	ev := f.event(t, coord.ID, models.EventRSVPSingle, rsvpBody)
	p := f.join(t, member.ID, ev.Link)

	first, err := f.s.SetRSVP(ctx, member.ID, ev.Link, RSVPInput{ParticipantID: p.ID, Status: "tentative"})
	if err != nil {
		t.Fatalf("rsvp: %v", err)
	}
	second, err := f.s.SetRSVP(ctx, member.ID, ev.Link, RSVPInput{ParticipantID: p.ID, Status: "available"})
	if err != nil {
		t.Fatalf("rsvp update: %v", err)
	}
	if second.ID != first.ID || second.Status != models.RSVPAvailable {
		t.Fatalf("update must be in place: %+v %+v", first, second)
	}
	if f.store.Availability.CountRSVP(p.ID) != 1 {
		t.Fatalf("one row per participant")
	}

	_, err = f.s.SetRSVP(ctx, member.ID, ev.Link, RSVPInput{ParticipantID: p.ID, Status: "maybe"})
	wantKind(t, err, models.KindValidation)

	view, _ := f.s.GetAvailabilities(ctx, member.ID, ev.Link)
	if len(view.RSVP) != 1 || view.RSVP[0].Status != models.RSVPAvailable {
		t.Fatalf("unexpected view %+v", view.RSVP)
	}
}

// lost insert races are absorbed until the retry budget runs out
func TestRSVP_RetriesLostRace(t *testing.T) {
	f := newFixture(t, DefaultPolicy())
	ctx := context.Background()
	coord, member := f.user("coord"), f.user("member")
	ev := f.event(t, coord.ID, models.EventRSVPMulti, `{"start_date": "2025-07-01", "end_date": "2025-07-03", "is_all_day": true}`)
	p := f.join(t, member.ID, ev.Link)

	f.store.Availability.RSVPConflicts = maxConflictRetries - 1
	if _, err := f.s.SetRSVP(ctx, member.ID, ev.Link, RSVPInput{ParticipantID: p.ID, Status: "unavailable"}); err != nil {
		t.Fatalf("want retry to succeed, got %v", err)
	}

	f.store.Availability.RSVPConflicts = maxConflictRetries
	_, err := f.s.SetRSVP(ctx, member.ID, ev.Link, RSVPInput{ParticipantID: p.ID, Status: "available"})
	wantKind(t, err, models.KindConflictRetry)
}

func TestRSVP_Concurrent(t *testing.T) {
	f := newFixture(t, DefaultPolicy())
	coord, member := f.user("coord"), f.user("member")
	ev := f.event(t, coord.ID, models.EventRSVPSingle, rsvpBody)
	p := f.join(t, member.ID, ev.Link)

	statuses := []string{"available", "unavailable", "tentative", "no_response"}
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(status string) {
			defer wg.Done()
			if _, err := f.s.SetRSVP(context.Background(), member.ID, ev.Link, RSVPInput{ParticipantID: p.ID, Status: status}); err != nil {
				t.Errorf("rsvp: %v", err)
			}
		}(statuses[i%len(statuses)])
	}
	wg.Wait()
	if f.store.Availability.CountRSVP(p.ID) != 1 {
		t.Fatalf("concurrent upserts must leave a single row")
	}
}

func TestAggregate_ForeignKindIsReported(t *testing.T) {
	f := newFixture(t, DefaultPolicy())
	ctx := context.Background()
	coord, member := f.user("coord"), f.user("member")
	ev := f.event(t, coord.ID, models.EventWeekly, weeklyBody)
	p := f.join(t, member.ID, ev.Link)

	f.store.Availability.PutRSVP(models.RSVPStatus{ParticipantID: p.ID, Status: models.RSVPAvailable})
	_, err := f.s.GetAvailabilities(ctx, coord.ID, ev.Link)
	wantKind(t, err, models.KindTypeMismatch)
}

func TestSlotLengthPolicy(t *testing.T) {
	p := DefaultPolicy()
	p.SlotLength = time.Hour
	f := newFixture(t, p)
	ctx := context.Background()
	coord, member := f.user("coord"), f.user("member")
	ev := f.event(t, coord.ID, models.EventWeekly, weeklyBody)
	pv := f.join(t, member.ID, ev.Link)

	slot, err := f.s.SetWeeklySlot(ctx, member.ID, ev.Link, WeeklySlotInput{ParticipantID: pv.ID, Day: "wed", StartTime: "09:00"})
	if err != nil || slot.EndTime != "10:00" {
		t.Fatalf("want 1h slot, got %+v %v", slot, err)
	}
}
