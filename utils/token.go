package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

const guestDomain = "@guest.local"

// NewLink returns a fresh public share token. UUIDv4 gives 122 random
// bits, which is not enumerable in practice.
func NewLink() string {
	return uuid.NewString()
}

// RandomGuestHandle mints a handle that only collides by chance; callers
// retry on a unique violation.
func RandomGuestHandle() (string, error) {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return "guest_" + hex.EncodeToString(b) + guestDomain, nil
}

// NamedGuestHandle is stable for (event, display name), so the users
// unique index turns "same guest joins again" into a reuse.
func NamedGuestHandle(eventID, displayName string) string {
	sum := sha256.Sum256([]byte(eventID + "|" + strings.ToLower(strings.TrimSpace(displayName))))
	return "guest_" + hex.EncodeToString(sum[:8]) + guestDomain
}
