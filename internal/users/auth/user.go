// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth implements identity verification and the login trail.

It owns the account entity, the credential check performed at login, the
audit record of every login/logout pair, and the HTTP endpoints that drive
the identity lifecycle (register, verify email, login, logout).

# Architecture

  - Verifier: turns an (email, password) pair into an Identity or a rejection.
  - Trail: appends and closes login records.
  - Service: orchestrates registration and the login/logout flows.
  - Repositories: Postgres for accounts and login records, Redis for
    single-use email verification tokens.
*/
package auth

import (
	"time"

	"github.com/taibuivan/quizdesk/internal/platform/sec"
)

// # Domain Entities

// Identity represents a registered member of the quiz platform.
type Identity struct {
	ID           string            `json:"id"`
	Email        string            `json:"email"`
	PasswordHash string            `json:"-"` // Explicitly omitted from JSON for security.
	Name         string            `json:"name"`
	Phone        string            `json:"phone,omitempty"`
	Role         sec.UserRole      `json:"role"`
	Status       sec.AccountStatus `json:"status"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}

// Principal returns the claim-set portion of the identity.
func (identity *Identity) Principal() sec.Principal {
	return sec.Principal{
		UserID: identity.ID,
		Email:  identity.Email,
		Role:   identity.Role,
		Status: identity.Status,
	}
}

// Scrubbed returns a copy of the identity without its password hash.
func (identity *Identity) Scrubbed() *Identity {
	clone := *identity
	clone.PasswordHash = ""
	return &clone
}

// Origin is the network and client metadata captured when a login opens.
type Origin struct {
	IP      string `json:"ip"`
	OS      string `json:"os"`
	Browser string `json:"browser"`
}

// LoginRecord is one entry of the login trail.
//
// A nil ClosedAt marks an open session. Multiple open records per identity
// are allowed (one per device).
type LoginRecord struct {
	ID         string     `json:"id"`
	IdentityID string     `json:"identityId"`
	Email      string     `json:"email"`
	OpenedAt   time.Time  `json:"openedAt"`
	IP         string     `json:"ip"`
	OS         string     `json:"os"`
	Browser    string     `json:"browser"`
	ClosedAt   *time.Time `json:"closedAt,omitempty"`
}

// IsOpen reports whether the record has not been closed yet.
func (record *LoginRecord) IsOpen() bool {
	return record.ClosedAt == nil
}

// # Field Identifiers

// Field names used in validation errors and payloads.
const (
	FieldEmail    = "email"
	FieldPassword = "password"
	FieldName     = "name"
	FieldPhone    = "phone"
	FieldToken    = "token"
)
