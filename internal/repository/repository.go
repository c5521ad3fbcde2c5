package repository

import "errors"

// ErrNotFound is returned when a referenced record does not exist.
// Postgres-backed repositories translate pgx.ErrNoRows into it so callers
// never depend on the driver.
var ErrNotFound = errors.New("record not found")
