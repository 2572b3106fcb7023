// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"

	"github.com/taibuivan/quizdesk/internal/platform/apperr"
)

// PasswordHasher is the hashing capability the identity flows depend on.
//
// [sec.BcryptHasher] is the production implementation.
type PasswordHasher interface {
	Hash(plainTextPassword string) (string, error)
	Compare(plainTextPassword, existingHash string) bool

	// CompareDummy spends the cost of one comparison and reports false.
	CompareDummy(plainTextPassword string) bool
}

// # Credential Verification

// Verifier checks an (email, password) pair against the account store.
type Verifier struct {
	identities IdentityRepository
	hasher     PasswordHasher
}

// NewVerifier constructs a [Verifier].
func NewVerifier(identities IdentityRepository, hasher PasswordHasher) *Verifier {
	return &Verifier{identities: identities, hasher: hasher}
}

/*
Authenticate resolves a credential pair into an identity.

Description: Performs exactly one store lookup. An unknown email and a wrong
password produce the same INVALID_CREDENTIAL error, and both paths spend one
hash comparison. A deleted account is reported as ACCOUNT_DEACTIVATED before
its password is considered. A store failure is INTERNAL_ERROR, never a
credential error.

Parameters:
  - context: context.Context
  - email: string (raw, normalized here)
  - password: string

Returns:
  - *Identity: The account with its password hash scrubbed
  - error: INVALID_CREDENTIAL, ACCOUNT_DEACTIVATED or INTERNAL_ERROR
*/
func (verifier *Verifier) Authenticate(context context.Context, email, password string) (*Identity, error) {
	identity, err := verifier.identities.FindByEmail(context, NormalizeEmail(email))
	if err != nil {
		if apperr.HasCode(err, apperr.CodeNotFound) {
			verifier.hasher.CompareDummy(password)
			return nil, apperr.InvalidCredential()
		}
		return nil, apperr.Internal(fmt.Errorf("auth_verifier_lookup_failed: %w", err))
	}

	if identity.Status.IsDeleted() {
		verifier.hasher.CompareDummy(password)
		return nil, apperr.AccountDeactivated()
	}

	if !verifier.hasher.Compare(password, identity.PasswordHash) {
		return nil, apperr.InvalidCredential()
	}

	return identity.Scrubbed(), nil
}
