// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"time"

	"github.com/taibuivan/quizdesk/pkg/pagination"
)

// # Identity Data Access

// IdentityRepository defines the data access contract for accounts.
type IdentityRepository interface {

	/*
		FindByID returns the account with the given ID, including deleted ones.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - *Identity: Hydrated entity
		  - error: apperr.NotFound or database retrieval failures
	*/
	FindByID(context context.Context, id string) (*Identity, error)

	/*
		FindByEmail returns the account with the given normalized email.

		Deleted accounts are returned too, so the caller can tell a
		deactivated account apart from an unknown one.

		Parameters:
		  - context: context.Context
		  - email: string (normalized)

		Returns:
		  - *Identity: Hydrated entity
		  - error: apperr.NotFound or database retrieval failures
	*/
	FindByEmail(context context.Context, email string) (*Identity, error)

	/*
		Create persists a brand-new account.

		Parameters:
		  - context: context.Context
		  - identity: *Identity

		Returns:
		  - error: apperr.Conflict on a duplicate email, or persistence failures
	*/
	Create(context context.Context, identity *Identity) error

	/*
		MarkVerified moves a pending account to status=verified.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - error: apperr.NotFound when no pending account matches
	*/
	MarkVerified(context context.Context, id string) error
}

// # Login Trail Data Access

// LoginRecordRepository defines the persistence contract for the login trail.
type LoginRecordRepository interface {

	/*
		Insert appends a new login record.

		Parameters:
		  - context: context.Context
		  - record: *LoginRecord

		Returns:
		  - error: Persistence failures
	*/
	Insert(context context.Context, record *LoginRecord) error

	/*
		Close sets closed_at on exactly one record, overwriting any previous value.

		Parameters:
		  - context: context.Context
		  - recordID: string
		  - closedAt: time.Time

		Returns:
		  - error: apperr.NotFound when no record matches
	*/
	Close(context context.Context, recordID string, closedAt time.Time) error

	/*
		MostRecent returns the record with the greatest opened_at for an identity.

		Parameters:
		  - context: context.Context
		  - identityID: string

		Returns:
		  - *LoginRecord: Hydrated entity (open or closed)
		  - error: apperr.NotFound when the identity never logged in
	*/
	MostRecent(context context.Context, identityID string) (*LoginRecord, error)

	/*
		ListByIdentity returns one page of an identity's records, newest first.

		Parameters:
		  - context: context.Context
		  - identityID: string
		  - page: pagination.Params

		Returns:
		  - []*LoginRecord: Page content
		  - int: Total number of records for the identity
		  - error: Retrieval failures
	*/
	ListByIdentity(context context.Context, identityID string, page pagination.Params) ([]*LoginRecord, int, error)
}

// # Volatile Data Access

// VerificationTokenRepository defines the contract for storing volatile email verification tokens.
type VerificationTokenRepository interface {

	/*
		Set stores a verification token associated with an identity ID.

		Parameters:
		  - context: context.Context
		  - token: string
		  - identityID: string
		  - ttl: time.Duration

		Returns:
		  - error: Persistence failures
	*/
	Set(context context.Context, token string, identityID string, ttl time.Duration) error

	/*
		Consume atomically reads and deletes a verification token.

		Parameters:
		  - context: context.Context
		  - token: string

		Returns:
		  - string: Identity ID
		  - error: apperr.NotFound when absent or expired
	*/
	Consume(context context.Context, token string) (string, error)
}
