// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package authz holds the authorization policy: pure decision functions that
// map a claim-set, a role floor and an optional target identity onto
// allow (nil) or a structured [apperr.AppError] denial.
//
// # Ordering
//
// Every function checks authentication first. An absent claim-set always
// yields UNAUTHENTICATED, never FORBIDDEN, so callers can tell "log in" apart
// from "you lack permission". A deleted account is rejected next, regardless
// of role or self-access.
package authz

import (
	"github.com/taibuivan/quizdesk/internal/platform/apperr"
	"github.com/taibuivan/quizdesk/internal/platform/sec"
)

// RequireAuthenticated denies an absent claim-set.
func RequireAuthenticated(claims *sec.AuthClaims) error {
	if claims == nil {
		return apperr.Unauthenticated("Authentication required")
	}
	return nil
}

// RequireActive denies an absent claim-set or one carrying status=deleted.
func RequireActive(claims *sec.AuthClaims) error {
	if err := RequireAuthenticated(claims); err != nil {
		return err
	}
	if claims.Status.IsDeleted() {
		return apperr.AccountDeactivated()
	}
	return nil
}

// RequireRoleFloor allows iff the claim-set is present, not deleted, and its
// role ranks at or above floor.
func RequireRoleFloor(claims *sec.AuthClaims, floor sec.UserRole) error {
	if err := RequireActive(claims); err != nil {
		return err
	}
	if !claims.Role.AtLeast(floor) {
		return apperr.InsufficientRole(sec.RolesAtLeast(floor), claims.Role.String())
	}
	return nil
}

// RequireSelfOrRoleFloor allows a caller acting on their own identity
// regardless of role, and otherwise falls back to [RequireRoleFloor].
func RequireSelfOrRoleFloor(claims *sec.AuthClaims, targetID string, floor sec.UserRole) error {
	if err := RequireActive(claims); err != nil {
		return err
	}
	if targetID != "" && claims.UserID == targetID {
		return nil
	}
	if claims.Role.AtLeast(floor) {
		return nil
	}
	return apperr.Forbidden(
		"You may only access your own data",
		sec.RolesAtLeast(floor),
		claims.Role.String(),
	)
}

// RequireStatus allows iff the claim-set carries exactly the required status.
func RequireStatus(claims *sec.AuthClaims, required sec.AccountStatus) error {
	if err := RequireActive(claims); err != nil {
		return err
	}
	if claims.Status != required {
		return apperr.VerificationRequired(string(required))
	}
	return nil
}
