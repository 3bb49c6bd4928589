package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"avease/models"
	"avease/utils"
)

const maxTextLen = 255

type CreateEventInput struct {
	Name        string
	Description string
	Location    string
	Type        string
	// Details is the raw request object; detail fields may be flat or
	// nested under "event_details".
	Details json.RawMessage
}

// UpdateEventInput is a patch: nil fields are left alone.
type UpdateEventInput struct {
	Name        *string
	Description *string
	Location    *string
	Type        *string
	Details     json.RawMessage
}

// CreateEvent validates the event and its details and stores both in one
// write. requester 0 creates an event without a coordinator.
func (s *Scheduler) CreateEvent(ctx context.Context, requester int64, in CreateEventInput) (EventView, error) {
	var fields []models.FieldError
	name := strings.TrimSpace(in.Name)
	switch {
	case name == "":
		fields = append(fields, models.FieldError{Field: "name", Reason: "required"})
	case utf8.RuneCountInString(name) > maxTextLen:
		fields = append(fields, models.FieldError{Field: "name", Reason: "at most 255 characters"})
	}
	if utf8.RuneCountInString(in.Location) > maxTextLen {
		fields = append(fields, models.FieldError{Field: "location", Reason: "at most 255 characters"})
	}

	typ, err := models.ParseEventType(in.Type)
	if err != nil {
		return EventView{}, withFields(err, fields)
	}
	details, err := models.DecodeDetails(typ, in.Details)
	if err != nil {
		if models.KindOf(err) == models.KindValidation {
			return EventView{}, withFields(err, fields)
		}
		return EventView{}, err
	}
	if len(fields) > 0 {
		return EventView{}, models.Validation(fields...)
	}

	ev := models.Event{
		Name:          name,
		Description:   strings.TrimSpace(in.Description),
		Location:      strings.TrimSpace(in.Location),
		CoordinatorID: requester,
		Type:          typ,
		Details:       details,
		Version:       1,
	}
	// a colliding id or link is astronomically unlikely; mint new ones if so
	err = retryOnConflict(ctx, func() error {
		ev.ID = uuid.NewString()
		ev.Link = utils.NewLink()
		return s.events.Create(ctx, &ev)
	})
	if err != nil {
		return EventView{}, err
	}

	s.log.Info("event created",
		zap.String("event_id", ev.ID),
		zap.String("event_type", string(ev.Type)),
		zap.Int64("coordinator", requester))
	return s.view(ctx, ev, nil)
}

// withFields prepends base-field problems to a validation error.
func withFields(err error, fields []models.FieldError) error {
	var e *models.Error
	if len(fields) == 0 || !errors.As(err, &e) || e.Kind != models.KindValidation {
		return err
	}
	return models.Validation(append(fields, e.Fields...)...)
}

// GetEvent returns the aggregated view for coordinator and participants.
func (s *Scheduler) GetEvent(ctx context.Context, requester int64, link string) (EventView, error) {
	a, err := s.authorizeRead(ctx, link, requester)
	if err != nil {
		return EventView{}, err
	}
	participants, err := s.participants.ListByEvent(ctx, a.event.ID)
	if err != nil {
		return EventView{}, err
	}
	return s.view(ctx, a.event, participants)
}

// ListEvents returns the events requester coordinates or has joined.
func (s *Scheduler) ListEvents(ctx context.Context, requester int64) ([]EventSummary, error) {
	if requester == 0 {
		return []EventSummary{}, nil
	}
	ids, err := s.participants.EventIDsForUser(ctx, requester)
	if err != nil {
		return nil, err
	}
	events, err := s.events.ListVisible(ctx, ids, requester)
	if err != nil {
		return nil, err
	}

	names := map[int64]string{}
	out := make([]EventSummary, 0, len(events))
	for _, ev := range events {
		if s.checkCoupling(ev) != nil {
			continue
		}
		name, ok := names[ev.CoordinatorID]
		if !ok {
			if name, err = s.coordinatorName(ctx, ev); err != nil {
				return nil, err
			}
			names[ev.CoordinatorID] = name
		}
		out = append(out, EventSummary{
			ID:              ev.ID,
			Name:            ev.Name,
			Description:     ev.Description,
			Location:        ev.Location,
			Link:            ev.Link,
			CoordinatorName: name,
			Type:            ev.Type,
			Details:         ev.Details.Variant(),
		})
	}
	return out, nil
}

// UpdateEvent applies a coordinator's patch. The write is conditional on
// the version read, so a concurrent edit makes us re-read and re-merge
// rather than overwrite it.
func (s *Scheduler) UpdateEvent(ctx context.Context, requester int64, link string, in UpdateEventInput) (EventView, error) {
	var updated models.Event
	err := retryOnConflict(ctx, func() error {
		a, err := s.authorizeManage(ctx, link, requester)
		if err != nil {
			return err
		}
		ev := a.event
		if in.Type != nil && models.EventType(strings.TrimSpace(*in.Type)) != ev.Type {
			return models.InvalidField("event_type", "cannot be changed after creation")
		}

		var fields []models.FieldError
		if in.Name != nil {
			name := strings.TrimSpace(*in.Name)
			switch {
			case name == "":
				fields = append(fields, models.FieldError{Field: "name", Reason: "required"})
			case utf8.RuneCountInString(name) > maxTextLen:
				fields = append(fields, models.FieldError{Field: "name", Reason: "at most 255 characters"})
			}
			ev.Name = name
		}
		if in.Description != nil {
			ev.Description = strings.TrimSpace(*in.Description)
		}
		if in.Location != nil {
			if utf8.RuneCountInString(*in.Location) > maxTextLen {
				fields = append(fields, models.FieldError{Field: "location", Reason: "at most 255 characters"})
			}
			ev.Location = strings.TrimSpace(*in.Location)
		}

		details, err := models.MergeDetails(ev.Type, ev.Details, in.Details)
		if err != nil {
			return withFields(err, fields)
		}
		if len(fields) > 0 {
			return models.Validation(fields...)
		}
		ev.Details = details

		if err := s.events.Update(ctx, &ev, a.event.Version); err != nil {
			return err
		}
		updated = ev
		return nil
	})
	if err != nil {
		return EventView{}, err
	}

	s.log.Info("event updated", zap.String("event_id", updated.ID), zap.Int64("version", updated.Version))
	participants, err := s.participants.ListByEvent(ctx, updated.ID)
	if err != nil {
		return EventView{}, err
	}
	return s.view(ctx, updated, participants)
}

// DeleteEvent removes the event and everything hanging off it. The
// document goes first: once it is gone the event is unreachable, so a
// failed cascade leaves only invisible rows behind.
func (s *Scheduler) DeleteEvent(ctx context.Context, requester int64, link string) error {
	a, err := s.authorizeManage(ctx, link, requester)
	if err != nil {
		return err
	}
	if err := s.events.Delete(ctx, a.event.ID); err != nil {
		return err
	}
	if err := s.participants.DeleteByEvent(ctx, a.event.ID); err != nil {
		s.log.Error("participants of deleted event left behind",
			zap.String("event_id", a.event.ID), zap.Error(err))
	}
	s.log.Info("event deleted", zap.String("event_id", a.event.ID))
	return nil
}
