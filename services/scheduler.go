// Package services holds the scheduling core: event lifecycle,
// membership, the availability ledger, aggregation and the access rules
// that guard all of them. Storage is reached only through the models
// repository interfaces.
package services

import (
	"time"

	"go.uber.org/zap"

	"avease/models"
)

// GuestPolicy decides whether guests joining under the same display name
// share one identity.
type GuestPolicy string

const (
	GuestAlwaysNew GuestPolicy = "always_new"
	// GuestReuseByName hands a returning guest their old membership. The
	// display name is the only proof: anyone who types an existing guest's
	// name for the event receives that guest's token and can rewrite their
	// RSVP and slots. Enable it only where that is acceptable.
	GuestReuseByName GuestPolicy = "reuse_by_name"
)

type Policy struct {
	Guests GuestPolicy
	// SlotLength is the implicit end of a weekly slot submitted without one.
	SlotLength time.Duration
	// MaskForbidden answers NotFound instead of Forbidden to identities
	// that are neither coordinator nor participant.
	MaskForbidden bool
}

func DefaultPolicy() Policy {
	return Policy{Guests: GuestAlwaysNew, SlotLength: 30 * time.Minute, MaskForbidden: true}
}

type Scheduler struct {
	events       models.EventRepository
	users        models.UserRepository
	participants models.ParticipantRepository
	availability models.AvailabilityRepository
	policy       Policy
	log          *zap.Logger
}

func New(
	events models.EventRepository,
	users models.UserRepository,
	participants models.ParticipantRepository,
	availability models.AvailabilityRepository,
	policy Policy,
	logger *zap.Logger,
) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if policy.SlotLength <= 0 {
		policy.SlotLength = 30 * time.Minute
	}
	if policy.Guests == "" {
		policy.Guests = GuestAlwaysNew
	}
	logger = logger.Named("scheduler")
	if policy.Guests == GuestReuseByName {
		logger.Warn("guest identities are reclaimable by display name",
			zap.String("policy", string(policy.Guests)))
	}
	return &Scheduler{
		events:       events,
		users:        users,
		participants: participants,
		availability: availability,
		policy:       policy,
		log:          logger,
	}
}
