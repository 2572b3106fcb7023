// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/taibuivan/quizdesk/internal/platform/apperr"
	"github.com/taibuivan/quizdesk/internal/platform/dberr"
	"github.com/taibuivan/quizdesk/internal/platform/postgres"
	"github.com/taibuivan/quizdesk/pkg/pagination"
)

// # Identity Repository

// PostgresIdentityRepository implements [IdentityRepository] on users.account.
type PostgresIdentityRepository struct {
	db postgres.DB
}

// NewIdentityRepository creates a new PostgreSQL implementation of the IdentityRepository.
func NewIdentityRepository(db postgres.DB) *PostgresIdentityRepository {
	return &PostgresIdentityRepository{db: db}
}

// IdentityColumns is the users.account projection read by [ScanIdentity].
const IdentityColumns = `id, email, passwordhash, name, phone, role, status, createdat, updatedat`

// RowScanner is satisfied by pgx.Row and pgx.Rows.
type RowScanner interface {
	Scan(dest ...any) error
}

// ScanIdentity hydrates an [Identity] from a row selected with [IdentityColumns].
func ScanIdentity(row RowScanner) (*Identity, error) {
	identity := &Identity{}
	err := row.Scan(
		&identity.ID,
		&identity.Email,
		&identity.PasswordHash,
		&identity.Name,
		&identity.Phone,
		&identity.Role,
		&identity.Status,
		&identity.CreatedAt,
		&identity.UpdatedAt,
	)
	return identity, err
}

/*
Create persists a new account into the users.account table.

Parameters:
  - context: context.Context
  - identity: *Identity (Entity to persist)

Returns:
  - error: apperr.Conflict on a duplicate email, or connectivity errors
*/
func (repository *PostgresIdentityRepository) Create(context context.Context, identity *Identity) error {
	const query = `
		INSERT INTO users.account (` + IdentityColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	now := time.Now().UTC()
	if identity.CreatedAt.IsZero() {
		identity.CreatedAt = now
	}
	identity.UpdatedAt = now

	_, err := repository.db.Exec(context, query,
		identity.ID,
		identity.Email,
		identity.PasswordHash,
		identity.Name,
		identity.Phone,
		identity.Role,
		identity.Status,
		identity.CreatedAt,
		identity.UpdatedAt,
	)
	if err != nil {
		if dberr.IsUniqueViolation(err) {
			return apperr.Conflict("Email is already registered").WithCause(err)
		}
		return fmt.Errorf("postgres_identity_repo_create_failed: %w", err)
	}

	return nil
}

/*
FindByEmail retrieves an account by its normalized email address.

Description: Deleted accounts are returned as well; the caller decides how
to treat status=deleted.

Parameters:
  - context: context.Context
  - email: string

Returns:
  - *Identity: Hydrated account entity
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresIdentityRepository) FindByEmail(context context.Context, email string) (*Identity, error) {
	const query = `SELECT ` + IdentityColumns + ` FROM users.account WHERE email = $1`

	identity, err := ScanIdentity(repository.db.QueryRow(context, query, email))
	if err != nil {
		if dberr.IsNotFound(err) {
			return nil, apperr.NotFound("User")
		}
		return nil, fmt.Errorf("postgres_identity_repo_find_by_email_failed: %w", err)
	}

	return identity, nil
}

/*
FindByID retrieves an account by its unique ID.

Parameters:
  - context: context.Context
  - id: string (UUIDv7)

Returns:
  - *Identity: Hydrated account entity
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresIdentityRepository) FindByID(context context.Context, id string) (*Identity, error) {
	const query = `SELECT ` + IdentityColumns + ` FROM users.account WHERE id = $1`

	identity, err := ScanIdentity(repository.db.QueryRow(context, query, id))
	if err != nil {
		if dberr.IsNotFound(err) {
			return nil, apperr.NotFound("User")
		}
		return nil, fmt.Errorf("postgres_identity_repo_find_by_id_failed: %w", err)
	}

	return identity, nil
}

/*
MarkVerified promotes a pending account to verified.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - error: apperr.NotFound if no pending account matches
*/
func (repository *PostgresIdentityRepository) MarkVerified(context context.Context, id string) error {
	const query = `
		UPDATE users.account
		SET status = 'verified', updatedat = $2
		WHERE id = $1 AND status = 'pending'`

	result, err := repository.db.Exec(context, query, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("postgres_identity_repo_mark_verified_failed: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperr.NotFound("Pending account")
	}

	return nil
}

// # Login Record Repository

// PostgresLoginRecordRepository implements [LoginRecordRepository] on users.loginlog.
type PostgresLoginRecordRepository struct {
	db postgres.DB
}

// NewLoginRecordRepository creates a new PostgreSQL implementation of the LoginRecordRepository.
func NewLoginRecordRepository(db postgres.DB) *PostgresLoginRecordRepository {
	return &PostgresLoginRecordRepository{db: db}
}

const loginRecordColumns = `id, accountid, email, openedat, ip, os, browser, closedat`

func scanLoginRecord(row RowScanner) (*LoginRecord, error) {
	record := &LoginRecord{}
	err := row.Scan(
		&record.ID,
		&record.IdentityID,
		&record.Email,
		&record.OpenedAt,
		&record.IP,
		&record.OS,
		&record.Browser,
		&record.ClosedAt,
	)
	return record, err
}

/*
Insert appends a login record.

Parameters:
  - context: context.Context
  - record: *LoginRecord

Returns:
  - error: Persistence failures
*/
func (repository *PostgresLoginRecordRepository) Insert(context context.Context, record *LoginRecord) error {
	const query = `
		INSERT INTO users.loginlog (` + loginRecordColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := repository.db.Exec(context, query,
		record.ID,
		record.IdentityID,
		record.Email,
		record.OpenedAt,
		record.IP,
		record.OS,
		record.Browser,
		record.ClosedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres_login_record_repo_insert_failed: %w", err)
	}

	return nil
}

/*
Close stamps closed_at on a single record. An already-closed record is
overwritten.

Parameters:
  - context: context.Context
  - recordID: string
  - closedAt: time.Time

Returns:
  - error: apperr.NotFound if the record does not exist
*/
func (repository *PostgresLoginRecordRepository) Close(context context.Context, recordID string, closedAt time.Time) error {
	const query = `UPDATE users.loginlog SET closedat = $2 WHERE id = $1`

	result, err := repository.db.Exec(context, query, recordID, closedAt)
	if err != nil {
		return fmt.Errorf("postgres_login_record_repo_close_failed: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperr.NotFound("Login record")
	}

	return nil
}

/*
MostRecent returns the identity's record with the greatest opened_at.

Parameters:
  - context: context.Context
  - identityID: string

Returns:
  - *LoginRecord: Newest record, open or closed
  - error: apperr.NotFound if the identity has no records
*/
func (repository *PostgresLoginRecordRepository) MostRecent(context context.Context, identityID string) (*LoginRecord, error) {
	const query = `
		SELECT ` + loginRecordColumns + `
		FROM users.loginlog
		WHERE accountid = $1
		ORDER BY openedat DESC, id DESC
		LIMIT 1`

	record, err := scanLoginRecord(repository.db.QueryRow(context, query, identityID))
	if err != nil {
		if dberr.IsNotFound(err) {
			return nil, apperr.NotFound("Login record")
		}
		return nil, fmt.Errorf("postgres_login_record_repo_most_recent_failed: %w", err)
	}

	return record, nil
}

/*
ListByIdentity returns one page of the identity's records, newest first.

Parameters:
  - context: context.Context
  - identityID: string
  - page: pagination.Params

Returns:
  - []*LoginRecord: Page content
  - int: Total count
  - error: Retrieval failures
*/
func (repository *PostgresLoginRecordRepository) ListByIdentity(context context.Context, identityID string, page pagination.Params) ([]*LoginRecord, int, error) {
	const countQuery = `SELECT COUNT(*) FROM users.loginlog WHERE accountid = $1`
	const listQuery = `
		SELECT ` + loginRecordColumns + `
		FROM users.loginlog
		WHERE accountid = $1
		ORDER BY openedat DESC, id DESC
		LIMIT $2 OFFSET $3`

	var total int
	if err := repository.db.QueryRow(context, countQuery, identityID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("postgres_login_record_repo_count_failed: %w", err)
	}

	rows, err := repository.db.Query(context, listQuery, identityID, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("postgres_login_record_repo_list_failed: %w", err)
	}
	defer rows.Close()

	records := make([]*LoginRecord, 0, page.Limit)
	for rows.Next() {
		record, err := scanLoginRecord(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("postgres_login_record_repo_scan_failed: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("postgres_login_record_repo_rows_failed: %w", err)
	}

	return records, total, nil
}
