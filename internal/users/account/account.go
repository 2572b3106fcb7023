// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package account handles account administration.

It lets members read and edit their own profile and lets moderators and
admins browse, promote and deactivate accounts. Every route is gated by a
role floor or a self-or-floor rule and throttled per subject.

# Architecture

  - Domain: This package depends on the auth package for the Identity and
    LoginRecord entities.
  - Deletion is soft: status=deleted, the row and its login trail remain.
*/
package account

import (
	"context"

	"github.com/taibuivan/quizdesk/internal/platform/sec"
	"github.com/taibuivan/quizdesk/internal/users/auth"
	"github.com/taibuivan/quizdesk/pkg/pagination"
)

// ParamID is the chi URL parameter naming the target account.
const ParamID = "id"

// Field names used in validation errors and payloads.
const (
	FieldRole   = "role"
	FieldStatus = "status"
)

// Filter narrows an account listing. Empty slices match everything.
type Filter struct {
	Roles    []string
	Statuses []string
}

// # Repository Contracts

// AccountRepository defines the persistence contract for account administration.
type AccountRepository interface {
	/*
		List returns one page of accounts matching filter, newest first.

		Parameters:
		  - context: context.Context
		  - filter: Filter
		  - page: pagination.Params

		Returns:
		  - []*auth.Identity: Page content
		  - int: Total matching accounts
		  - error: Retrieval failures
	*/
	List(context context.Context, filter Filter, page pagination.Params) ([]*auth.Identity, int, error)

	/*
		FindByID retrieves an account by its unique ID, including deleted ones.

		Parameters:
		  - context: context.Context
		  - id: string (UUID)

		Returns:
		  - *auth.Identity: Loaded account entity
		  - error: apperr.NotFound or storage failures
	*/
	FindByID(context context.Context, id string) (*auth.Identity, error)

	/*
		UpdateProfile persists the mutable profile fields (name, phone).

		Parameters:
		  - context: context.Context
		  - identity: *auth.Identity (Hydrated entity with changes)

		Returns:
		  - error: apperr.NotFound when the account is missing or deleted
	*/
	UpdateProfile(context context.Context, identity *auth.Identity) error

	/*
		UpdateRole assigns a new role to a live account.

		Parameters:
		  - context: context.Context
		  - id: string
		  - role: sec.UserRole

		Returns:
		  - error: apperr.NotFound when the account is missing or deleted
	*/
	UpdateRole(context context.Context, id string, role sec.UserRole) error

	/*
		SoftDelete flags an account as logically deleted.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - error: apperr.NotFound when the account does not exist
	*/
	SoftDelete(context context.Context, id string) error
}

// LoginHistory reads the login trail. [*auth.Trail] satisfies it.
type LoginHistory interface {
	ListByIdentity(context context.Context, identityID string, page pagination.Params) ([]*auth.LoginRecord, int, error)
}
