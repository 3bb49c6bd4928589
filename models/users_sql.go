package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"avease/utils"
)

type sqlUserRepo struct{ db *sql.DB }

func NewSQLUserRepository(db *sql.DB) UserRepository { return &sqlUserRepo{db} }

func (r *sqlUserRepo) Create(ctx context.Context, u *User, password string) error {
	hashed, err := utils.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	u.Kind = UserRegistered
	u.PasswordHash = hashed

	err = r.db.QueryRowContext(ctx,
		`INSERT INTO users(email, password, first_name, last_name, kind) VALUES ($1,$2,$3,$4,$5) RETURNING id`,
		u.Email, u.PasswordHash, u.FirstName, u.LastName, u.Kind).Scan(&u.ID)
	if isUniqueViolation(err) {
		return InvalidField("email", "already registered")
	}
	return err
}

// Guests are stored with a NULL password: there is nothing to log in with.
func (r *sqlUserRepo) CreateGuest(ctx context.Context, u *User) error {
	u.Kind = UserGuest
	u.PasswordHash = ""
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO users(email, password, first_name, kind) VALUES ($1, NULL, $2, $3) RETURNING id`,
		u.Email, u.FirstName, u.Kind).Scan(&u.ID)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	return err
}

func (r *sqlUserRepo) EnsureGuest(ctx context.Context, u *User) error {
	u.Kind = UserGuest
	u.PasswordHash = ""
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO users(email, password, first_name, kind) VALUES ($1, NULL, $2, $3)
		 ON CONFLICT (email) DO NOTHING RETURNING id`,
		u.Email, u.FirstName, u.Kind).Scan(&u.ID)
	if errors.Is(err, sql.ErrNoRows) {
		existing, err := r.scanOne(ctx, `WHERE email=$1`, u.Email)
		if err != nil {
			return err
		}
		if !existing.IsGuest() {
			return ErrConflict
		}
		*u = existing
		return nil
	}
	return err
}

func (r *sqlUserRepo) ValidateCredentials(ctx context.Context, email, plain string) (User, error) {
	u, err := r.scanOne(ctx, `WHERE email=$1`, email)
	if err != nil {
		return User{}, err
	}
	if !u.HasCredential() || !utils.CheckPasswordHash(plain, u.PasswordHash) {
		return User{}, ErrBadCredentials
	}
	return u, nil
}

func (r *sqlUserRepo) GetByID(ctx context.Context, id int64) (User, error) {
	return r.scanOne(ctx, `WHERE id=$1`, id)
}

func (r *sqlUserRepo) scanOne(ctx context.Context, where string, arg any) (User, error) {
	var (
		u    User
		pass sql.NullString
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, password, first_name, last_name, kind FROM users `+where, arg).
		Scan(&u.ID, &u.Email, &pass, &u.FirstName, &u.LastName, &u.Kind)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("load user: %w", err)
	}
	u.PasswordHash = pass.String
	return u, nil
}
