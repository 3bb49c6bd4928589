package services

import (
	"context"

	"go.uber.org/zap"

	"avease/models"
)

// AvailabilityView is every participant's availability for one event, in
// the single kind that event's type collects.
type AvailabilityView struct {
	EventID string                  `json:"event"`
	Kind    models.AvailabilityKind `json:"kind"`
	Weekly  []models.WeeklySlot     `json:"weekly"`
	Date    []models.DateSlot       `json:"date"`
	RSVP    []models.RSVPStatus     `json:"rsvp"`
}

// GetAvailabilities collects the availability of all participants of the
// linked event. Rows of a kind the event type does not collect mean the
// stores disagree; they are reported rather than silently returned.
func (s *Scheduler) GetAvailabilities(ctx context.Context, requester int64, link string) (AvailabilityView, error) {
	a, err := s.authorizeRead(ctx, link, requester)
	if err != nil {
		return AvailabilityView{}, err
	}
	if err := s.checkCoupling(a.event); err != nil {
		return AvailabilityView{}, err
	}
	all, err := s.availability.ListForEvent(ctx, a.event.ID)
	if err != nil {
		return AvailabilityView{}, err
	}

	kind := models.AvailabilityKindOf(a.event.Type)
	foreign := map[models.AvailabilityKind]int{
		models.AvailabilityWeekly: len(all.Weekly),
		models.AvailabilityDate:   len(all.Date),
		models.AvailabilityRSVP:   len(all.RSVP),
	}
	delete(foreign, kind)
	for k, n := range foreign {
		if n > 0 {
			s.log.Error("availability of foreign kind stored for event",
				zap.String("event_id", a.event.ID),
				zap.String("event_type", string(a.event.Type)),
				zap.String("kind", string(k)),
				zap.Int("rows", n))
			return AvailabilityView{}, models.TypeMismatch(string(a.event.Type) + " event holds " + string(k) + " availability")
		}
	}

	return AvailabilityView{
		EventID: a.event.ID,
		Kind:    kind,
		Weekly:  nonNil(all.Weekly),
		Date:    nonNil(all.Date),
		RSVP:    nonNil(all.RSVP),
	}, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
