package models

import (
	"errors"
	"strings"
)

// ErrBadCredentials is a known handle with a wrong or absent password.
var ErrBadCredentials = errors.New("invalid credentials")

// UserKind separates full accounts from capability-limited guests.
type UserKind string

const (
	UserRegistered UserKind = "registered"
	UserGuest      UserKind = "guest"
)

// User is an identity that can own participations. Guests have no
// credential at all: PasswordHash stays empty and login is refused.
type User struct {
	ID           int64    `json:"id"`
	Email        string   `json:"email"`
	FirstName    string   `json:"first_name"`
	LastName     string   `json:"last_name"`
	Kind         UserKind `json:"kind"`
	PasswordHash string   `json:"-"`
}

func (u User) IsGuest() bool { return u.Kind == UserGuest }

// HasCredential is false for guests and for any account without a password.
func (u User) HasCredential() bool {
	return u.Kind == UserRegistered && u.PasswordHash != ""
}

// DisplayName is "first last", falling back to the handle.
func (u User) DisplayName() string {
	if full := strings.TrimSpace(u.FirstName + " " + u.LastName); full != "" {
		return full
	}
	return u.Email
}
