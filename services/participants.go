package services

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"avease/models"
	"avease/utils"
)

const maxGuestNameLen = 150

type JoinInput struct {
	GuestName string
}

// JoinResult carries the minted guest identity when the guest path ran,
// so the caller can issue that guest a token.
type JoinResult struct {
	Participant ParticipantView
	Guest       *models.User
}

// Join adds requester to the linked event, or, for anonymous callers,
// a guest identity minted from in.GuestName.
func (s *Scheduler) Join(ctx context.Context, requester int64, link string, in JoinInput) (JoinResult, error) {
	ev, err := s.events.GetByLink(ctx, link)
	if err != nil {
		return JoinResult{}, err
	}
	if requester != 0 {
		u, err := s.users.GetByID(ctx, requester)
		if err != nil {
			return JoinResult{}, err
		}
		p := models.Participant{EventID: ev.ID, UserID: u.ID, User: u}
		if err := s.participants.Add(ctx, &p); err != nil {
			return JoinResult{}, err
		}
		s.log.Info("participant joined", zap.String("event_id", ev.ID), zap.Int64("user_id", u.ID))
		return JoinResult{Participant: participantView(p)}, nil
	}
	return s.joinAsGuest(ctx, ev, in.GuestName)
}

func (s *Scheduler) joinAsGuest(ctx context.Context, ev models.Event, name string) (JoinResult, error) {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return JoinResult{}, models.InvalidField("guest_name", "required")
	case utf8.RuneCountInString(name) > maxGuestNameLen:
		return JoinResult{}, models.InvalidField("guest_name", "at most 150 characters")
	}

	guest := models.User{FirstName: name}
	var err error
	switch s.policy.Guests {
	case GuestReuseByName:
		guest.Email = utils.NamedGuestHandle(ev.ID, name)
		err = s.users.EnsureGuest(ctx, &guest)
	default:
		err = retryOnConflict(ctx, func() error {
			handle, err := utils.RandomGuestHandle()
			if err != nil {
				return err
			}
			guest.Email = handle
			return s.users.CreateGuest(ctx, &guest)
		})
	}
	if err != nil {
		return JoinResult{}, err
	}

	p := models.Participant{EventID: ev.ID, UserID: guest.ID, User: guest}
	err = s.participants.Add(ctx, &p)
	reused := false
	if errors.Is(err, models.ErrDuplicateMembership) && s.policy.Guests == GuestReuseByName {
		// same name, same event: hand back the existing membership
		p, err = s.participants.Find(ctx, ev.ID, guest.ID)
		reused = true
	}
	if err != nil {
		return JoinResult{}, err
	}

	s.log.Info("guest joined",
		zap.String("event_id", ev.ID),
		zap.Int64("user_id", guest.ID),
		zap.String("policy", string(s.policy.Guests)),
		zap.Bool("reused", reused))
	return JoinResult{Participant: participantView(p), Guest: &guest}, nil
}

// Leave drops the requester's own membership and, by cascade, all of
// its availability.
func (s *Scheduler) Leave(ctx context.Context, requester int64, link string) error {
	if requester == 0 {
		return models.ErrForbidden
	}
	a, err := s.resolve(ctx, link, requester)
	if err != nil {
		return err
	}
	if !a.member() {
		if a.coordinator {
			return models.ErrNotFound
		}
		return s.denied()
	}
	if err := s.participants.Remove(ctx, a.event.ID, requester); err != nil {
		return err
	}
	s.log.Info("participant left", zap.String("event_id", a.event.ID), zap.Int64("user_id", requester))
	return nil
}
