package repository

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

const uniqueViolationCode = "23505"

// IsUniqueViolation reports whether err is a Postgres unique-constraint
// failure, letting services map duplicate natural keys to Conflict.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolationCode
	}
	return false
}

// wrapPgError annotates a database error with the failing operation while
// keeping the underlying pq error reachable for errors.As in callers.
func wrapPgError(err error, op string) error {
	return fmt.Errorf("%s: %w", op, err)
}
