package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

const pgDuplicateDB = "42P04"

// IsDuplicateDatabaseErr reports whether CREATE DATABASE failed because the
// database is already there.
func IsDuplicateDatabaseErr(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgDuplicateDB
	}
	return strings.Contains(strings.ToLower(err.Error()), "already exists")
}
