package services

import (
	"context"
	"fmt"
	"strings"

	"avease/models"
)

type WeeklySlotInput struct {
	ParticipantID int64
	Day           string
	StartTime     string
	EndTime       string // optional; defaults to start + Policy.SlotLength
}

type DateSlotInput struct {
	ParticipantID int64
	Date          string
	StartTime     string // both times or neither
	EndTime       string
}

type RSVPInput struct {
	ParticipantID int64
	Status        string
}

// requireKind rejects availability the event type does not collect.
func requireKind(ev models.Event, want models.AvailabilityKind) error {
	if got := models.AvailabilityKindOf(ev.Type); got != want {
		return models.TypeMismatch(fmt.Sprintf("%s events do not take %s availability", ev.Type, want))
	}
	return nil
}

// SetWeeklySlot records (day, start) for the participant; repeating it
// is a no-op that returns the stored slot.
func (s *Scheduler) SetWeeklySlot(ctx context.Context, requester int64, link string, in WeeklySlotInput) (models.WeeklySlot, error) {
	a, p, err := s.authorizeOwner(ctx, link, requester, in.ParticipantID)
	if err != nil {
		return models.WeeklySlot{}, err
	}
	if err := requireKind(a.event, models.AvailabilityWeekly); err != nil {
		return models.WeeklySlot{}, err
	}
	slot, err := s.weeklySlot(a.event.Details.Weekly, in)
	if err != nil {
		return models.WeeklySlot{}, err
	}
	slot.ParticipantID = p.ID
	if err := s.availability.AddWeekly(ctx, &slot); err != nil {
		return models.WeeklySlot{}, err
	}
	return slot, nil
}

func (s *Scheduler) weeklySlot(w *models.WeeklyDetails, in WeeklySlotInput) (models.WeeklySlot, error) {
	day, err := models.ParseWeekday(in.Day)
	if err != nil {
		if strings.TrimSpace(in.Day) == "" {
			return models.WeeklySlot{}, models.InvalidField("selected_day", "required")
		}
		return models.WeeklySlot{}, models.InvalidField("selected_day", err.Error())
	}
	start, err := parseClock("selected_start_time", in.StartTime, true)
	if err != nil {
		return models.WeeklySlot{}, err
	}
	end, err := parseClock("selected_end_time", in.EndTime, false)
	if err != nil {
		return models.WeeklySlot{}, err
	}
	if end == "" {
		var ok bool
		if end, ok = start.Add(s.policy.SlotLength); !ok {
			return models.WeeklySlot{}, models.InvalidField("selected_start_time", "slot runs past midnight")
		}
	}
	if !start.Before(end) {
		return models.WeeklySlot{}, models.InvalidField("selected_end_time", "must be after selected_start_time")
	}
	if w != nil {
		if !w.Selected(day) {
			return models.WeeklySlot{}, models.InvalidField("selected_day", "event does not run on "+string(day))
		}
		if start.Before(w.StartTime) || w.EndTime.Before(end) {
			return models.WeeklySlot{}, models.InvalidField("selected_start_time", "slot lies outside the event's hours")
		}
	}
	return models.WeeklySlot{Day: day, StartTime: start, EndTime: end}, nil
}

func (s *Scheduler) RemoveWeeklySlot(ctx context.Context, requester int64, link string, in WeeklySlotInput) error {
	_, p, err := s.authorizeOwner(ctx, link, requester, in.ParticipantID)
	if err != nil {
		return err
	}
	day, err := models.ParseWeekday(in.Day)
	if err != nil {
		return models.InvalidField("selected_day", err.Error())
	}
	start, err := parseClock("selected_start_time", in.StartTime, true)
	if err != nil {
		return err
	}
	return s.availability.RemoveWeekly(ctx, p.ID, day, start)
}

// SetDateSlot records a whole day, or a time range on it, for the participant.
func (s *Scheduler) SetDateSlot(ctx context.Context, requester int64, link string, in DateSlotInput) (models.DateSlot, error) {
	a, p, err := s.authorizeOwner(ctx, link, requester, in.ParticipantID)
	if err != nil {
		return models.DateSlot{}, err
	}
	if err := requireKind(a.event, models.AvailabilityDate); err != nil {
		return models.DateSlot{}, err
	}
	slot, err := dateSlot(a.event.Details, in)
	if err != nil {
		return models.DateSlot{}, err
	}
	slot.ParticipantID = p.ID
	if err := s.availability.AddDate(ctx, &slot); err != nil {
		return models.DateSlot{}, err
	}
	return slot, nil
}

func dateSlot(d models.Details, in DateSlotInput) (models.DateSlot, error) {
	if strings.TrimSpace(in.Date) == "" {
		return models.DateSlot{}, models.InvalidField("selected_date", "required")
	}
	date, err := models.ParseDate(in.Date)
	if err != nil {
		return models.DateSlot{}, models.InvalidField("selected_date", err.Error())
	}
	start, end, err := parseWindow(in.StartTime, in.EndTime)
	if err != nil {
		return models.DateSlot{}, err
	}

	var (
		from, to   models.Date
		allDay     bool
		open, shut *models.TimeOfDay
	)
	switch {
	case d.SingleDay != nil:
		from, to, allDay = d.SingleDay.StartDateRange, d.SingleDay.EndDateRange, d.SingleDay.IsAllDay
		open, shut = d.SingleDay.StartTime, d.SingleDay.EndTime
	case d.MultiDay != nil:
		from, to, allDay = d.MultiDay.StartDateRange, d.MultiDay.EndDateRange, d.MultiDay.IsAllDay
		open, shut = d.MultiDay.StartTime, d.MultiDay.EndTime
	}
	if from != "" && !date.Within(from, to) {
		return models.DateSlot{}, models.InvalidField("selected_date", "outside the proposed date range")
	}
	if start != nil {
		if allDay {
			return models.DateSlot{}, models.InvalidField("start_time", "event is all-day; submit the date only")
		}
		if open != nil && shut != nil && (start.Before(*open) || shut.Before(*end)) {
			return models.DateSlot{}, models.InvalidField("start_time", "slot lies outside the event's hours")
		}
	}
	return models.DateSlot{Date: date, StartTime: start, EndTime: end}, nil
}

func (s *Scheduler) RemoveDateSlot(ctx context.Context, requester int64, link string, in DateSlotInput) error {
	_, p, err := s.authorizeOwner(ctx, link, requester, in.ParticipantID)
	if err != nil {
		return err
	}
	date, err := models.ParseDate(in.Date)
	if err != nil {
		return models.InvalidField("selected_date", err.Error())
	}
	start, end, err := parseWindow(in.StartTime, in.EndTime)
	if err != nil {
		return err
	}
	return s.availability.RemoveDate(ctx, p.ID, date, start, end)
}

// SetRSVP upserts the participant's single RSVP row. Lost insert races
// are retried here and never reach the caller unless every retry loses.
func (s *Scheduler) SetRSVP(ctx context.Context, requester int64, link string, in RSVPInput) (models.RSVPStatus, error) {
	a, p, err := s.authorizeOwner(ctx, link, requester, in.ParticipantID)
	if err != nil {
		return models.RSVPStatus{}, err
	}
	if err := requireKind(a.event, models.AvailabilityRSVP); err != nil {
		return models.RSVPStatus{}, err
	}
	status, err := models.ParseRSVP(in.Status)
	if err != nil {
		return models.RSVPStatus{}, err
	}

	row := models.RSVPStatus{ParticipantID: p.ID, Status: status}
	if err := retryOnConflict(ctx, func() error {
		return s.availability.UpsertRSVP(ctx, &row)
	}); err != nil {
		return models.RSVPStatus{}, err
	}
	return row, nil
}

func parseClock(field, raw string, required bool) (models.TimeOfDay, error) {
	if strings.TrimSpace(raw) == "" {
		if required {
			return "", models.InvalidField(field, "required")
		}
		return "", nil
	}
	t, err := models.ParseTimeOfDay(raw)
	if err != nil {
		return "", models.InvalidField(field, err.Error())
	}
	return t, nil
}

// parseWindow reads an optional (start, end) pair: both or neither, and
// start strictly before end.
func parseWindow(rawStart, rawEnd string) (*models.TimeOfDay, *models.TimeOfDay, error) {
	start, err := parseClock("start_time", rawStart, false)
	if err != nil {
		return nil, nil, err
	}
	end, err := parseClock("end_time", rawEnd, false)
	if err != nil {
		return nil, nil, err
	}
	switch {
	case start == "" && end == "":
		return nil, nil, nil
	case start == "":
		return nil, nil, models.InvalidField("start_time", "required with end_time")
	case end == "":
		return nil, nil, models.InvalidField("end_time", "required with start_time")
	case !start.Before(end):
		return nil, nil, models.InvalidField("end_time", "must be after start_time")
	}
	return &start, &end, nil
}
