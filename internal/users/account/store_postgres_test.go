// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account_test

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/quizdesk/internal/platform/apperr"
	"github.com/taibuivan/quizdesk/internal/platform/sec"
	"github.com/taibuivan/quizdesk/internal/users/account"
	"github.com/taibuivan/quizdesk/internal/users/auth"
	"github.com/taibuivan/quizdesk/pkg/pagination"
)

var accountColumns = []string{"id", "email", "passwordhash", "name", "phone", "role", "status", "createdat", "updatedat"}

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})
	return mock
}

/*
TestAccountRepository_List verifies filter binding and placeholder numbering.
*/
func TestAccountRepository_List(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)

	t.Run("no_filters", func(t *testing.T) {
		mock := newMockPool(t)
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM users.account$`).
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(1))
		mock.ExpectQuery(`FROM users.account ORDER BY createdat DESC, id DESC LIMIT \$1 OFFSET \$2`).
			WithArgs(20, 0).
			WillReturnRows(pgxmock.NewRows(accountColumns).
				AddRow("u1", "ada@quizdesk.app", "h", "Ada", "", "admin", "verified", created, created))

		identities, total, err := account.NewAccountRepository(mock).List(ctx, account.Filter{}, pagination.Params{Page: 1, Limit: 20})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		require.Len(t, identities, 1)
		assert.Equal(t, sec.RoleAdmin, identities[0].Role)
	})

	t.Run("role_and_status_filters", func(t *testing.T) {
		mock := newMockPool(t)
		roles := []string{"user", "coordinator"}
		statuses := []string{"pending"}

		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM users.account WHERE role = ANY\(\$1\) AND status = ANY\(\$2\)`).
			WithArgs(roles, statuses).
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectQuery(`WHERE role = ANY\(\$1\) AND status = ANY\(\$2\) ORDER BY .+ LIMIT \$3 OFFSET \$4`).
			WithArgs(roles, statuses, 10, 10).
			WillReturnRows(pgxmock.NewRows(accountColumns))

		identities, total, err := account.NewAccountRepository(mock).List(ctx,
			account.Filter{Roles: roles, Statuses: statuses}, pagination.Params{Page: 2, Limit: 10})
		require.NoError(t, err)
		assert.Zero(t, total)
		assert.Empty(t, identities)
	})
}

/*
TestAccountRepository_Mutations covers the NOT_FOUND mapping of each update.
*/
func TestAccountRepository_Mutations(t *testing.T) {
	ctx := context.Background()
	mock := newMockPool(t)
	repository := account.NewAccountRepository(mock)

	mock.ExpectExec(`UPDATE users.account SET role = \$2`).
		WithArgs("u1", sec.RoleModerator, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	require.NoError(t, repository.UpdateRole(ctx, "u1", sec.RoleModerator))

	mock.ExpectExec(`UPDATE users.account SET role = \$2`).
		WithArgs("gone", sec.RoleModerator, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	assert.True(t, apperr.HasCode(repository.UpdateRole(ctx, "gone", sec.RoleModerator), apperr.CodeNotFound))

	mock.ExpectExec(`UPDATE users.account SET status = 'deleted'`).
		WithArgs("u1", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	require.NoError(t, repository.SoftDelete(ctx, "u1"))

	mock.ExpectExec(`UPDATE users.account SET name = \$2, phone = \$3`).
		WithArgs("missing", "Ada", "", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	err := repository.UpdateProfile(ctx, &auth.Identity{ID: "missing", Name: "Ada"})
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))
}
