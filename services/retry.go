package services

import (
	"context"
	"errors"

	"avease/models"
)

const maxConflictRetries = 3

// retryOnConflict reruns fn while it reports a unique-constraint race.
// The conflict only reaches the caller once every attempt has lost.
func retryOnConflict(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		if err = fn(); !errors.Is(err, models.ErrConflict) {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return err
}
