package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type sqlParticipantRepo struct{ db *sql.DB }

func NewSQLParticipantRepository(db *sql.DB) ParticipantRepository {
	return &sqlParticipantRepo{db}
}

const participantColumns = `p.id, p.event_id, p.user_id, u.email, u.first_name, u.last_name, u.kind`

func (r *sqlParticipantRepo) Add(ctx context.Context, p *Participant) error {
	// UNIQUE(user_id, event_id) is the only duplicate check
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO participants(user_id, event_id) VALUES ($1,$2) RETURNING id`,
		p.UserID, p.EventID).Scan(&p.ID)
	if isUniqueViolation(err) {
		return ErrDuplicateMembership
	}
	if err != nil {
		return fmt.Errorf("insert participant: %w", err)
	}
	return nil
}

func (r *sqlParticipantRepo) Get(ctx context.Context, id int64) (Participant, error) {
	return r.one(ctx, `WHERE p.id=$1`, id)
}

func (r *sqlParticipantRepo) Find(ctx context.Context, eventID string, userID int64) (Participant, error) {
	return r.one(ctx, `WHERE p.event_id=$1 AND p.user_id=$2`, eventID, userID)
}

func (r *sqlParticipantRepo) one(ctx context.Context, where string, args ...any) (Participant, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+participantColumns+` FROM participants p JOIN users u ON u.id = p.user_id `+where, args...)
	p, err := scanParticipant(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Participant{}, ErrNotFound
	}
	return p, err
}

func (r *sqlParticipantRepo) ListByEvent(ctx context.Context, eventID string) ([]Participant, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+participantColumns+` FROM participants p JOIN users u ON u.id = p.user_id
		 WHERE p.event_id=$1 ORDER BY p.id`, eventID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()

	out := []Participant{}
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *sqlParticipantRepo) EventIDsForUser(ctx context.Context, userID int64) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT event_id FROM participants WHERE user_id=$1`, userID)
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Availability rows go with the participant via ON DELETE CASCADE.
func (r *sqlParticipantRepo) Remove(ctx context.Context, eventID string, userID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM participants WHERE event_id=$1 AND user_id=$2`, eventID, userID)
	return err
}

func (r *sqlParticipantRepo) DeleteByEvent(ctx context.Context, eventID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM participants WHERE event_id=$1`, eventID)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanParticipant(s rowScanner) (Participant, error) {
	var p Participant
	if err := s.Scan(&p.ID, &p.EventID, &p.UserID, &p.User.Email, &p.User.FirstName, &p.User.LastName, &p.User.Kind); err != nil {
		return Participant{}, err
	}
	p.User.ID = p.UserID
	return p, nil
}
