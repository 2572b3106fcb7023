// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/taibuivan/quizdesk/internal/platform/apperr"
	"github.com/taibuivan/quizdesk/internal/platform/postgres"
	"github.com/taibuivan/quizdesk/internal/platform/sec"
	"github.com/taibuivan/quizdesk/internal/users/auth"
	"github.com/taibuivan/quizdesk/pkg/pagination"
)

// PostgresAccountRepository implements [AccountRepository].
//
// Single-account reads are delegated to the auth identity repository so both
// packages hydrate accounts the same way.
type PostgresAccountRepository struct {
	*auth.PostgresIdentityRepository
	db postgres.DB
}

// NewAccountRepository creates a new PostgreSQL implementation of the AccountRepository.
func NewAccountRepository(db postgres.DB) *PostgresAccountRepository {
	return &PostgresAccountRepository{
		PostgresIdentityRepository: auth.NewIdentityRepository(db),
		db:                         db,
	}
}

/*
List returns one page of accounts, newest first.

Description: Role and status filters are bound as text arrays and matched
with ANY, so the statement text only varies with which filters are present.

Parameters:
  - context: context.Context
  - filter: Filter
  - page: pagination.Params

Returns:
  - []*auth.Identity: Page content
  - int: Total matching accounts
  - error: Retrieval failures
*/
func (repository *PostgresAccountRepository) List(context context.Context, filter Filter, page pagination.Params) ([]*auth.Identity, int, error) {
	var conditions []string
	var args []any

	if len(filter.Roles) > 0 {
		args = append(args, filter.Roles)
		conditions = append(conditions, fmt.Sprintf("role = ANY($%d)", len(args)))
	}
	if len(filter.Statuses) > 0 {
		args = append(args, filter.Statuses)
		conditions = append(conditions, fmt.Sprintf("status = ANY($%d)", len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM users.account` + where
	if err := repository.db.QueryRow(context, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("postgres_account_repo_count_failed: %w", err)
	}

	listQuery := fmt.Sprintf(`SELECT %s FROM users.account%s ORDER BY createdat DESC, id DESC LIMIT $%d OFFSET $%d`,
		auth.IdentityColumns, where, len(args)+1, len(args)+2)
	args = append(args, page.Limit, page.Offset())

	rows, err := repository.db.Query(context, listQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("postgres_account_repo_list_failed: %w", err)
	}
	defer rows.Close()

	identities := make([]*auth.Identity, 0, page.Limit)
	for rows.Next() {
		identity, err := auth.ScanIdentity(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("postgres_account_repo_scan_failed: %w", err)
		}
		identities = append(identities, identity)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("postgres_account_repo_rows_failed: %w", err)
	}

	return identities, total, nil
}

/*
UpdateProfile writes name and phone for a live account.

Parameters:
  - context: context.Context
  - identity: *auth.Identity

Returns:
  - error: apperr.NotFound or storage failures
*/
func (repository *PostgresAccountRepository) UpdateProfile(context context.Context, identity *auth.Identity) error {
	const query = `
		UPDATE users.account
		SET name = $2, phone = $3, updatedat = $4
		WHERE id = $1 AND status <> 'deleted'`

	identity.UpdatedAt = time.Now().UTC()

	result, err := repository.db.Exec(context, query, identity.ID, identity.Name, identity.Phone, identity.UpdatedAt)
	if err != nil {
		return fmt.Errorf("postgres_account_repo_update_profile_failed: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperr.NotFound("User")
	}

	return nil
}

/*
UpdateRole assigns role to a live account.

Parameters:
  - context: context.Context
  - id: string
  - role: sec.UserRole

Returns:
  - error: apperr.NotFound or storage failures
*/
func (repository *PostgresAccountRepository) UpdateRole(context context.Context, id string, role sec.UserRole) error {
	const query = `
		UPDATE users.account
		SET role = $2, updatedat = $3
		WHERE id = $1 AND status <> 'deleted'`

	result, err := repository.db.Exec(context, query, id, role, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("postgres_account_repo_update_role_failed: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperr.NotFound("User")
	}

	return nil
}

/*
SoftDelete sets status=deleted. Deleting an already deleted account is a no-op
success.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - error: apperr.NotFound or storage failures
*/
func (repository *PostgresAccountRepository) SoftDelete(context context.Context, id string) error {
	const query = `
		UPDATE users.account
		SET status = 'deleted', updatedat = $2
		WHERE id = $1`

	result, err := repository.db.Exec(context, query, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("postgres_account_repo_soft_delete_failed: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperr.NotFound("User")
	}

	return nil
}
