package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"avease/mocks"
	"avease/models"
)

type fixture struct {
	s     *Scheduler
	store *mocks.Store
}

func newFixture(t *testing.T, policy Policy) *fixture {
	t.Helper()
	store := mocks.New()
	return &fixture{
		s:     New(store.Events, store.Users, store.Participants, store.Availability, policy, nil),
		store: store,
	}
}

func (f *fixture) user(name string) models.User {
	return f.store.Users.Seed(models.User{Email: name + "@example.com", FirstName: name})
}

func (f *fixture) event(t *testing.T, coordinator int64, typ models.EventType, details string) EventView {
	t.Helper()
	ev, err := f.s.CreateEvent(context.Background(), coordinator, CreateEventInput{
		Name:    string(typ) + " event",
		Type:    string(typ),
		Details: json.RawMessage(details),
	})
	if err != nil {
		t.Fatalf("create %s: %v", typ, err)
	}
	return ev
}

func (f *fixture) join(t *testing.T, uid int64, link string) ParticipantView {
	t.Helper()
	res, err := f.s.Join(context.Background(), uid, link, JoinInput{})
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	return res.Participant
}

func wantKind(t *testing.T, err error, kind models.Kind) {
	t.Helper()
	if got := models.KindOf(err); got != kind {
		t.Fatalf("want %s, got %q (%v)", kind, got, err)
	}
}

const (
	weeklyBody = `{"mon_selected": true, "wed_selected": true, "start_time": "09:00", "end_time": "17:00"}`
	singleBody = `{"start_date_range": "2025-01-01", "end_date_range": "2025-01-07", "start_time": "08:00", "end_time": "20:00"}`
	allDayBody = `{"num_days": 2, "start_date_range": "2025-01-01", "end_date_range": "2025-01-07", "is_all_day": true}`
	rsvpBody   = `{"date": "2025-03-01", "is_all_day": true}`
)

func TestRetryOnConflict(t *testing.T) {
	ctx := context.Background()

	calls := 0
	err := retryOnConflict(ctx, func() error {
		calls++
		if calls < 3 {
			return models.ErrConflict
		}
		return nil
	})
	if err != nil || calls != 3 {
		t.Fatalf("want success on 3rd attempt, got %v after %d", err, calls)
	}

	calls = 0
	err = retryOnConflict(ctx, func() error { calls++; return models.ErrConflict })
	if !errors.Is(err, models.ErrConflict) || calls != maxConflictRetries {
		t.Fatalf("want conflict after %d attempts, got %v after %d", maxConflictRetries, err, calls)
	}

	calls = 0
	err = retryOnConflict(ctx, func() error { calls++; return models.ErrForbidden })
	if !errors.Is(err, models.ErrForbidden) || calls != 1 {
		t.Fatalf("other errors must not be retried")
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	calls = 0
	err = retryOnConflict(cancelled, func() error { calls++; return models.ErrConflict })
	if !errors.Is(err, context.Canceled) || calls != 1 {
		t.Fatalf("cancelled context must stop retrying, got %v after %d", err, calls)
	}
}

func TestNewFillsPolicyDefaults(t *testing.T) {
	s := New(nil, nil, nil, nil, Policy{}, nil)
	if s.policy.Guests != GuestAlwaysNew || s.policy.SlotLength <= 0 || s.log == nil {
		t.Fatalf("defaults not applied: %+v", s.policy)
	}
	if !DefaultPolicy().MaskForbidden {
		t.Fatalf("masking is on by default")
	}
}

// authorization matrix for reads and writes on one event
func TestAccessControl(t *testing.T) {
	ctx := context.Background()
	for _, masked := range []bool{true, false} {
		t.Run(fmt.Sprintf("masked=%v", masked), func(t *testing.T) {
			p := DefaultPolicy()
			p.MaskForbidden = masked
			f := newFixture(t, p)
			coord, member, stranger := f.user("coord"), f.user("member"), f.user("stranger")
			ev := f.event(t, coord.ID, models.EventWeekly, weeklyBody)
			f.join(t, member.ID, ev.Link)

			strangerKind := models.KindNotFound
			if !masked {
				strangerKind = models.KindForbidden
			}

			if _, err := f.s.GetEvent(ctx, coord.ID, ev.Link); err != nil {
				t.Fatalf("coordinator read: %v", err)
			}
			if _, err := f.s.GetEvent(ctx, member.ID, ev.Link); err != nil {
				t.Fatalf("member read: %v", err)
			}
			_, err := f.s.GetEvent(ctx, stranger.ID, ev.Link)
			wantKind(t, err, strangerKind)
			_, err = f.s.GetEvent(ctx, 0, ev.Link)
			wantKind(t, err, strangerKind)
			_, err = f.s.GetEvent(ctx, coord.ID, "no-such-link")
			wantKind(t, err, models.KindNotFound)

			name := "renamed"
			_, err = f.s.UpdateEvent(ctx, member.ID, ev.Link, UpdateEventInput{Name: &name})
			wantKind(t, err, models.KindForbidden)
			_, err = f.s.UpdateEvent(ctx, stranger.ID, ev.Link, UpdateEventInput{Name: &name})
			wantKind(t, err, strangerKind)
			wantKind(t, f.s.DeleteEvent(ctx, member.ID, ev.Link), models.KindForbidden)

			_, err = f.s.GetAvailabilities(ctx, stranger.ID, ev.Link)
			wantKind(t, err, strangerKind)
		})
	}
}
