package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// Open connects to Postgres and waits for a successful ping.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	return db, nil
}

// Every uniqueness rule the scheduler depends on lives here as a
// constraint; application code never checks before it writes.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password TEXT,
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL DEFAULT '',
		kind TEXT NOT NULL DEFAULT 'registered' CHECK (kind IN ('registered', 'guest')),
		CHECK (kind = 'registered' OR password IS NULL)
	);`,
	// events live in Mongo, so event_id carries no foreign key
	`CREATE TABLE IF NOT EXISTS participants (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		event_id UUID NOT NULL,
		UNIQUE (user_id, event_id)
	);`,
	`CREATE INDEX IF NOT EXISTS participants_event_id_idx ON participants(event_id);`,
	`CREATE TABLE IF NOT EXISTS weekly_slots (
		id BIGSERIAL PRIMARY KEY,
		participant_id BIGINT NOT NULL REFERENCES participants(id) ON DELETE CASCADE,
		day TEXT NOT NULL CHECK (day IN ('mon', 'tue', 'wed', 'thu', 'fri', 'sat', 'sun')),
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL,
		CHECK (start_time < end_time),
		UNIQUE (participant_id, day, start_time)
	);`,
	`CREATE TABLE IF NOT EXISTS date_slots (
		id BIGSERIAL PRIMARY KEY,
		participant_id BIGINT NOT NULL REFERENCES participants(id) ON DELETE CASCADE,
		slot_date DATE NOT NULL,
		start_time TEXT NOT NULL DEFAULT '',
		end_time TEXT NOT NULL DEFAULT '',
		CHECK ((start_time = '' AND end_time = '') OR start_time < end_time),
		UNIQUE (participant_id, slot_date, start_time, end_time)
	);`,
	`CREATE TABLE IF NOT EXISTS rsvp_statuses (
		id BIGSERIAL PRIMARY KEY,
		participant_id BIGINT NOT NULL UNIQUE REFERENCES participants(id) ON DELETE CASCADE,
		status TEXT NOT NULL DEFAULT 'no_response'
			CHECK (status IN ('available', 'unavailable', 'tentative', 'no_response'))
	);`,
}

// Migrate creates the schema if it does not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
