package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

type sqlAvailabilityRepo struct{ db *sql.DB }

func NewSQLAvailabilityRepository(db *sql.DB) AvailabilityRepository {
	return &sqlAvailabilityRepo{db}
}

func (r *sqlAvailabilityRepo) AddWeekly(ctx context.Context, s *WeeklySlot) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO weekly_slots(participant_id, day, start_time, end_time) VALUES ($1,$2,$3,$4)
		 ON CONFLICT (participant_id, day, start_time) DO NOTHING`,
		s.ParticipantID, s.Day, s.StartTime, s.EndTime)
	if err != nil {
		return fmt.Errorf("insert weekly slot: %w", err)
	}
	// read back whichever row owns the key, ours or an earlier one
	return r.db.QueryRowContext(ctx,
		`SELECT id, end_time FROM weekly_slots WHERE participant_id=$1 AND day=$2 AND start_time=$3`,
		s.ParticipantID, s.Day, s.StartTime).Scan(&s.ID, &s.EndTime)
}

func (r *sqlAvailabilityRepo) RemoveWeekly(ctx context.Context, participantID int64, day Weekday, start TimeOfDay) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM weekly_slots WHERE participant_id=$1 AND day=$2 AND start_time=$3`,
		participantID, day, start)
	return err
}

func (r *sqlAvailabilityRepo) AddDate(ctx context.Context, s *DateSlot) error {
	start, end := clockValue(s.StartTime), clockValue(s.EndTime)
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO date_slots(participant_id, slot_date, start_time, end_time) VALUES ($1,$2,$3,$4)
		 ON CONFLICT (participant_id, slot_date, start_time, end_time) DO NOTHING`,
		s.ParticipantID, string(s.Date), start, end)
	if err != nil {
		return fmt.Errorf("insert date slot: %w", err)
	}
	return r.db.QueryRowContext(ctx,
		`SELECT id FROM date_slots WHERE participant_id=$1 AND slot_date=$2 AND start_time=$3 AND end_time=$4`,
		s.ParticipantID, string(s.Date), start, end).Scan(&s.ID)
}

func (r *sqlAvailabilityRepo) RemoveDate(ctx context.Context, participantID int64, date Date, start, end *TimeOfDay) error {
	var err error
	if start != nil && end != nil {
		_, err = r.db.ExecContext(ctx,
			`DELETE FROM date_slots WHERE participant_id=$1 AND slot_date=$2 AND start_time=$3 AND end_time=$4`,
			participantID, string(date), clockValue(start), clockValue(end))
	} else {
		_, err = r.db.ExecContext(ctx,
			`DELETE FROM date_slots WHERE participant_id=$1 AND slot_date=$2`, participantID, string(date))
	}
	return err
}

// UpsertRSVP updates in place first. When no row exists it inserts; if a
// concurrent caller inserted in between, UNIQUE(participant_id) rejects us
// and the caller is told to retry, which then takes the update path.
func (r *sqlAvailabilityRepo) UpsertRSVP(ctx context.Context, s *RSVPStatus) error {
	err := r.db.QueryRowContext(ctx,
		`UPDATE rsvp_statuses SET status=$2 WHERE participant_id=$1 RETURNING id`,
		s.ParticipantID, s.Status).Scan(&s.ID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update rsvp: %w", err)
	}

	err = r.db.QueryRowContext(ctx,
		`INSERT INTO rsvp_statuses(participant_id, status) VALUES ($1,$2) RETURNING id`,
		s.ParticipantID, s.Status).Scan(&s.ID)
	if isUniqueViolation(err) {
		return &Error{Kind: KindConflictRetry, Message: "rsvp inserted concurrently", Cause: err}
	}
	if err != nil {
		return fmt.Errorf("insert rsvp: %w", err)
	}
	return nil
}

// ListForEvent runs one query per kind; no cross-kind snapshot is promised.
func (r *sqlAvailabilityRepo) ListForEvent(ctx context.Context, eventID string) (Availabilities, error) {
	out := Availabilities{Weekly: []WeeklySlot{}, Date: []DateSlot{}, RSVP: []RSVPStatus{}}
	const members = `SELECT id FROM participants WHERE event_id=$1`

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, participant_id, day, start_time, end_time FROM weekly_slots
		 WHERE participant_id IN (`+members+`) ORDER BY participant_id, array_position(ARRAY['mon','tue','wed','thu','fri','sat','sun']::text[], day), start_time`, eventID)
	if err != nil {
		return out, fmt.Errorf("list weekly slots: %w", err)
	}
	for rows.Next() {
		var s WeeklySlot
		if err := rows.Scan(&s.ID, &s.ParticipantID, &s.Day, &s.StartTime, &s.EndTime); err != nil {
			rows.Close()
			return out, err
		}
		out.Weekly = append(out.Weekly, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return out, err
	}

	rows, err = r.db.QueryContext(ctx,
		`SELECT id, participant_id, slot_date, start_time, end_time FROM date_slots
		 WHERE participant_id IN (`+members+`) ORDER BY participant_id, slot_date, start_time`, eventID)
	if err != nil {
		return out, fmt.Errorf("list date slots: %w", err)
	}
	for rows.Next() {
		var (
			s          DateSlot
			day        time.Time
			start, end string
		)
		if err := rows.Scan(&s.ID, &s.ParticipantID, &day, &start, &end); err != nil {
			rows.Close()
			return out, err
		}
		s.Date = DateOf(day)
		s.StartTime, s.EndTime = clockPtr(start), clockPtr(end)
		out.Date = append(out.Date, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return out, err
	}

	rows, err = r.db.QueryContext(ctx,
		`SELECT id, participant_id, status FROM rsvp_statuses
		 WHERE participant_id IN (`+members+`) ORDER BY participant_id`, eventID)
	if err != nil {
		return out, fmt.Errorf("list rsvp statuses: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var s RSVPStatus
		if err := rows.Scan(&s.ID, &s.ParticipantID, &s.Status); err != nil {
			return out, err
		}
		out.RSVP = append(out.RSVP, s)
	}
	return out, rows.Err()
}

// Absent times are stored as '' so they still take part in the unique key
// (NULLs never collide in a UNIQUE constraint).
func clockValue(t *TimeOfDay) string {
	if t == nil {
		return ""
	}
	return string(*t)
}

func clockPtr(s string) *TimeOfDay {
	if s == "" {
		return nil
	}
	t := TimeOfDay(s)
	return &t
}
