package database

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

// UniqueViolation reports whether err is a unique-constraint failure. detail
// carries the constraint name (PostgreSQL) or the driver message (SQLite) so
// callers can tell which column collided; it may be empty.
func UniqueViolation(err error) (detail string, ok bool) {
	if err == nil {
		return "", false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == pgUniqueViolation {
			return pgErr.ConstraintName + " " + pgErr.Detail, true
		}
		return "", false
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return "", true
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique failed") {
		return msg, true
	}
	return "", false
}
