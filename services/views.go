package services

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"avease/models"
)

// EventView is the aggregated read model of one event.
type EventView struct {
	ID              string            `json:"id"`
	Name            string            `json:"name"`
	Description     string            `json:"description"`
	Location        string            `json:"location"`
	Link            string            `json:"link"`
	Coordinator     *int64            `json:"coordinator"`
	CoordinatorName string            `json:"coordinator_name"`
	Type            models.EventType  `json:"event_type"`
	Details         any               `json:"event_details"`
	Participants    []ParticipantView `json:"participants"`
}

// EventSummary is an EventView without the participant list.
type EventSummary struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	Description     string           `json:"description"`
	Location        string           `json:"location"`
	Link            string           `json:"link"`
	CoordinatorName string           `json:"coordinator_name"`
	Type            models.EventType `json:"event_type"`
	Details         any              `json:"event_details"`
}

type ParticipantView struct {
	ID        int64  `json:"id"`
	User      int64  `json:"user"`
	FirstName string `json:"user_first_name"`
	LastName  string `json:"user_last_name"`
	Email     string `json:"user_email"`
	Event     string `json:"event"`
	Guest     bool   `json:"is_guest"`
}

func participantView(p models.Participant) ParticipantView {
	return ParticipantView{
		ID:        p.ID,
		User:      p.UserID,
		FirstName: p.User.FirstName,
		LastName:  p.User.LastName,
		Email:     p.User.Email,
		Event:     p.EventID,
		Guest:     p.User.IsGuest(),
	}
}

const unknownCoordinator = "Unknown"

// coordinatorName resolves the display name, "Unknown" for anonymous
// events or coordinators that no longer exist.
func (s *Scheduler) coordinatorName(ctx context.Context, ev models.Event) (string, error) {
	if !ev.HasCoordinator() {
		return unknownCoordinator, nil
	}
	u, err := s.users.GetByID(ctx, ev.CoordinatorID)
	if errors.Is(err, models.ErrNotFound) {
		return unknownCoordinator, nil
	}
	if err != nil {
		return "", err
	}
	return u.DisplayName(), nil
}

// checkCoupling refuses to present an event whose stored variant differs
// from its declared type.
func (s *Scheduler) checkCoupling(ev models.Event) error {
	if ev.Details.Tag() != ev.Type {
		s.log.Error("event details do not match event type",
			zap.String("event_id", ev.ID),
			zap.String("event_type", string(ev.Type)),
			zap.String("details_tag", string(ev.Details.Tag())))
		return models.TypeMismatch("stored details do not match event type " + string(ev.Type))
	}
	return nil
}

func (s *Scheduler) view(ctx context.Context, ev models.Event, participants []models.Participant) (EventView, error) {
	if err := s.checkCoupling(ev); err != nil {
		return EventView{}, err
	}
	name, err := s.coordinatorName(ctx, ev)
	if err != nil {
		return EventView{}, err
	}
	v := EventView{
		ID:              ev.ID,
		Name:            ev.Name,
		Description:     ev.Description,
		Location:        ev.Location,
		Link:            ev.Link,
		CoordinatorName: name,
		Type:            ev.Type,
		Details:         ev.Details.Variant(),
		Participants:    make([]ParticipantView, 0, len(participants)),
	}
	if ev.HasCoordinator() {
		id := ev.CoordinatorID
		v.Coordinator = &id
	}
	for _, p := range participants {
		v.Participants = append(v.Participants, participantView(p))
	}
	return v, nil
}
