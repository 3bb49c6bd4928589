package models

import (
	"errors"

	"github.com/lib/pq"
)

// 23505 unique_violation
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
