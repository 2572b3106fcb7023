// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package dberr provides a bridge between low-level database errors and
// higher-level application errors.
package dberr

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/taibuivan/quizdesk/internal/platform/apperr"
)

const (
	// uniqueViolation is the Postgres SQLSTATE for a unique constraint failure.
	uniqueViolation = "23505"

	// invalidTextRepresentation is raised when a parameter cannot be cast to
	// the column type, such as a malformed UUID.
	invalidTextRepresentation = "22P02"
)

// IsNotFound reports whether err is pgx's "no rows" sentinel.
func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// IsUniqueViolation reports whether err is a Postgres unique constraint failure.
func IsUniqueViolation(err error) bool {
	return hasCode(err, uniqueViolation)
}

func hasCode(err error, code string) bool {
	var pgError *pgconn.PgError
	return errors.As(err, &pgError) && pgError.Code == code
}

// Wrap inspects a database error and wraps it into a meaningful [apperr.AppError].
// It hides internal database details from the client while classifying the error type.
//
// # Parameters
//   - err: The raw driver error (nil passes through).
//   - resource: Human name used in NOT_FOUND and CONFLICT messages (e.g. "User").
func Wrap(err error, resource string) error {
	if err == nil {
		return nil
	}

	// 1. Not Found mapping
	if IsNotFound(err) {
		return apperr.NotFound(resource)
	}

	// 2. A key that cannot be parsed matches no row
	if hasCode(err, invalidTextRepresentation) {
		return apperr.NotFound(resource)
	}

	// 3. Unique constraint mapping
	if IsUniqueViolation(err) {
		return apperr.Conflict(fmt.Sprintf("%s already exists", resource)).WithCause(err)
	}

	// 4. Unknown query errors become Internal Server Errors
	return apperr.Internal(err)
}
