// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package authz_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/quizdesk/internal/platform/apperr"
	"github.com/taibuivan/quizdesk/internal/platform/authz"
	"github.com/taibuivan/quizdesk/internal/platform/sec"
)

var allRoles = []sec.UserRole{sec.RoleUser, sec.RoleCoordinator, sec.RoleModerator, sec.RoleAdmin}

func claimsFor(id string, role sec.UserRole, status sec.AccountStatus) *sec.AuthClaims {
	return &sec.AuthClaims{UserID: id, Email: id + "@example.com", Role: role, Status: status}
}

func codeOf(t *testing.T, err error) string {
	t.Helper()
	ae := apperr.As(err)
	require.NotNil(t, ae, "expected an AppError, got %v", err)
	return ae.Code
}

/*
TestRequireAuthenticated distinguishes absent claims from present ones.
*/
func TestRequireAuthenticated(t *testing.T) {
	assert.Equal(t, apperr.CodeUnauthenticated, codeOf(t, authz.RequireAuthenticated(nil)))
	assert.NoError(t, authz.RequireAuthenticated(claimsFor("a", sec.RoleUser, sec.StatusPending)))
}

/*
TestRequireRoleFloor_Exhaustive checks every role against every floor.
*/
func TestRequireRoleFloor_Exhaustive(t *testing.T) {
	for i, role := range allRoles {
		for j, floor := range allRoles {
			err := authz.RequireRoleFloor(claimsFor("a", role, sec.StatusVerified), floor)
			if i >= j {
				assert.NoError(t, err, "%s should pass floor %s", role, floor)
				continue
			}

			ae := apperr.As(err)
			require.NotNil(t, ae)
			assert.Equal(t, apperr.CodeInsufficientRole, ae.Code)
			assert.Equal(t, sec.RolesAtLeast(floor), ae.RequiredRoles)
			assert.Equal(t, string(role), ae.UserRole)
		}
	}
}

/*
TestRequireRoleFloor_DeletedAlwaysDenied verifies deletion beats any role.
*/
func TestRequireRoleFloor_DeletedAlwaysDenied(t *testing.T) {
	for _, role := range allRoles {
		err := authz.RequireRoleFloor(claimsFor("a", role, sec.StatusDeleted), sec.FloorUser)
		assert.Equal(t, apperr.CodeAccountDeactivated, codeOf(t, err))
	}
}

/*
TestRequireRoleFloor_AbsentIsUnauthenticated verifies the tie-break rule.
*/
func TestRequireRoleFloor_AbsentIsUnauthenticated(t *testing.T) {
	assert.Equal(t, apperr.CodeUnauthenticated, codeOf(t, authz.RequireRoleFloor(nil, sec.FloorAdmin)))
	assert.Equal(t, apperr.CodeUnauthenticated, codeOf(t, authz.RequireSelfOrRoleFloor(nil, "a", sec.FloorAdmin)))
	assert.Equal(t, apperr.CodeUnauthenticated, codeOf(t, authz.RequireStatus(nil, sec.StatusVerified)))
}

/*
TestRequireSelfOrRoleFloor_SelfAlwaysAllowed verifies self access for every role.
*/
func TestRequireSelfOrRoleFloor_SelfAlwaysAllowed(t *testing.T) {
	for _, role := range allRoles {
		for _, floor := range allRoles {
			assert.NoError(t, authz.RequireSelfOrRoleFloor(claimsFor("self", role, sec.StatusPending), "self", floor))
		}
	}
}

/*
TestRequireSelfOrRoleFloor_Others checks the fallback to the role floor.
*/
func TestRequireSelfOrRoleFloor_Others(t *testing.T) {
	tests := []struct {
		name    string
		role    sec.UserRole
		status  sec.AccountStatus
		target  string
		floor   sec.UserRole
		wantErr string
	}{
		{"moderator_on_other", sec.RoleModerator, sec.StatusVerified, "other", sec.FloorModerator, ""},
		{"admin_on_other", sec.RoleAdmin, sec.StatusVerified, "other", sec.FloorModerator, ""},
		{"user_on_other", sec.RoleUser, sec.StatusVerified, "other", sec.FloorModerator, apperr.CodeForbidden},
		{"coordinator_on_other", sec.RoleCoordinator, sec.StatusVerified, "other", sec.FloorModerator, apperr.CodeForbidden},
		{"empty_target", sec.RoleUser, sec.StatusVerified, "", sec.FloorModerator, apperr.CodeForbidden},
		{"deleted_self", sec.RoleUser, sec.StatusDeleted, "a", sec.FloorModerator, apperr.CodeAccountDeactivated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := authz.RequireSelfOrRoleFloor(claimsFor("a", tt.role, tt.status), tt.target, tt.floor)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tt.wantErr, codeOf(t, err))
		})
	}
}

/*
TestRequireStatus verifies the VERIFICATION_REQUIRED denial.
*/
func TestRequireStatus(t *testing.T) {
	assert.NoError(t, authz.RequireStatus(claimsFor("a", sec.RoleUser, sec.StatusVerified), sec.StatusVerified))
	assert.Equal(t, apperr.CodeVerificationRequired,
		codeOf(t, authz.RequireStatus(claimsFor("a", sec.RoleAdmin, sec.StatusPending), sec.StatusVerified)))
	assert.Equal(t, apperr.CodeAccountDeactivated,
		codeOf(t, authz.RequireStatus(claimsFor("a", sec.RoleAdmin, sec.StatusDeleted), sec.StatusVerified)))
}

/*
TestScenario_UserBelowModerator walks the registered-user scenario: a plain
user is refused a moderator floor but may act on their own record.
*/
func TestScenario_UserBelowModerator(t *testing.T) {
	identityA := claimsFor("identity-a", sec.RoleUser, sec.StatusVerified)

	ae := apperr.As(authz.RequireRoleFloor(identityA, sec.FloorModerator))
	require.NotNil(t, ae)
	assert.Equal(t, apperr.CodeInsufficientRole, ae.Code)
	assert.Equal(t, []string{"moderator", "admin"}, ae.RequiredRoles)
	assert.Equal(t, "user", ae.UserRole)

	assert.NoError(t, authz.RequireSelfOrRoleFloor(identityA, identityA.UserID, sec.FloorModerator))
}
