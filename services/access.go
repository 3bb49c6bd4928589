package services

import (
	"context"
	"errors"

	"avease/models"
)

// access is an event together with what the requester is to it.
type access struct {
	event       models.Event
	membership  *models.Participant
	coordinator bool
}

func (a access) member() bool { return a.membership != nil }

// resolve looks the event up by its public link and the requester's
// membership in it. requester 0 is an anonymous caller.
func (s *Scheduler) resolve(ctx context.Context, link string, requester int64) (access, error) {
	ev, err := s.events.GetByLink(ctx, link)
	if err != nil {
		return access{}, err
	}
	a := access{event: ev, coordinator: requester != 0 && ev.CoordinatorID == requester}
	if requester == 0 {
		return a, nil
	}
	p, err := s.participants.Find(ctx, ev.ID, requester)
	switch {
	case err == nil:
		a.membership = &p
	case !errors.Is(err, models.ErrNotFound):
		return access{}, err
	}
	return a, nil
}

// denied is the answer for strangers. With masking on it is identical to
// an unknown link so valid links cannot be enumerated.
func (s *Scheduler) denied() error {
	if s.policy.MaskForbidden {
		return models.ErrNotFound
	}
	return models.ErrForbidden
}

// authorizeRead admits the coordinator and participants.
func (s *Scheduler) authorizeRead(ctx context.Context, link string, requester int64) (access, error) {
	a, err := s.resolve(ctx, link, requester)
	if err != nil {
		return access{}, err
	}
	if a.coordinator || a.member() {
		return a, nil
	}
	return access{}, s.denied()
}

// authorizeManage admits the coordinator only. Participants, who already
// know the event exists, get Forbidden.
func (s *Scheduler) authorizeManage(ctx context.Context, link string, requester int64) (access, error) {
	a, err := s.resolve(ctx, link, requester)
	if err != nil {
		return access{}, err
	}
	switch {
	case a.coordinator:
		return a, nil
	case a.member():
		return access{}, models.ErrForbidden
	}
	return access{}, s.denied()
}

// authorizeOwner admits only the identity that owns participantID, and
// only when that participant belongs to the linked event. The coordinator
// may read others' availability but never write it.
func (s *Scheduler) authorizeOwner(ctx context.Context, link string, requester, participantID int64) (access, models.Participant, error) {
	a, err := s.resolve(ctx, link, requester)
	if err != nil {
		return access{}, models.Participant{}, err
	}
	if !a.coordinator && !a.member() {
		return access{}, models.Participant{}, s.denied()
	}
	if a.member() && a.membership.ID == participantID {
		return a, *a.membership, nil
	}

	p, err := s.participants.Get(ctx, participantID)
	if err != nil {
		return access{}, models.Participant{}, err
	}
	if p.EventID != a.event.ID {
		return access{}, models.Participant{}, models.ErrNotFound
	}
	return access{}, models.Participant{}, models.ErrForbidden
}
