package models

import "context"

// ===== Events (document store, details embedded) =====
type EventRepository interface {
	Create(ctx context.Context, e *Event) error
	GetByID(ctx context.Context, id string) (Event, error)
	GetByLink(ctx context.Context, link string) (Event, error)
	// ListVisible returns events whose id is in ids or that coordinatorID owns.
	ListVisible(ctx context.Context, ids []string, coordinatorID int64) ([]Event, error)
	// Update writes e only if the stored version still equals expected,
	// otherwise ErrConflict. On success e.Version is bumped.
	Update(ctx context.Context, e *Event, expected int64) error
	Delete(ctx context.Context, id string) error
}

// ===== Users =====
type UserRepository interface {
	Create(ctx context.Context, u *User, password string) error
	// CreateGuest inserts a new guest; a taken handle is ErrConflict.
	CreateGuest(ctx context.Context, u *User) error
	// EnsureGuest inserts the guest or loads the one already holding u.Email.
	EnsureGuest(ctx context.Context, u *User) error
	ValidateCredentials(ctx context.Context, email, plain string) (User, error)
	GetByID(ctx context.Context, id int64) (User, error)
}

// ===== Participants =====
type ParticipantRepository interface {
	// Add relies on UNIQUE(user_id, event_id); a duplicate is ErrDuplicateMembership.
	Add(ctx context.Context, p *Participant) error
	Get(ctx context.Context, id int64) (Participant, error)
	Find(ctx context.Context, eventID string, userID int64) (Participant, error)
	ListByEvent(ctx context.Context, eventID string) ([]Participant, error)
	EventIDsForUser(ctx context.Context, userID int64) ([]string, error)
	Remove(ctx context.Context, eventID string, userID int64) error
	DeleteByEvent(ctx context.Context, eventID string) error
}

// ===== Availability =====
type AvailabilityRepository interface {
	// AddWeekly is create-or-noop; s is filled from the stored row.
	AddWeekly(ctx context.Context, s *WeeklySlot) error
	RemoveWeekly(ctx context.Context, participantID int64, day Weekday, start TimeOfDay) error
	AddDate(ctx context.Context, s *DateSlot) error
	// RemoveDate deletes every slot on date, or only the exact tuple when
	// start and end are given.
	RemoveDate(ctx context.Context, participantID int64, date Date, start, end *TimeOfDay) error
	// UpsertRSVP updates the participant's row in place or inserts it; an
	// insert that loses a race returns ErrConflict.
	UpsertRSVP(ctx context.Context, s *RSVPStatus) error
	ListForEvent(ctx context.Context, eventID string) (Availabilities, error)
}
