// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

// # Identity Constraints

const (
	// VerificationTokenLength is the byte length of the random verification token.
	VerificationTokenLength = 32

	// MaxNameLength bounds the display name.
	MaxNameLength = 100

	// MaxEmailLength bounds the email address (RFC 5321 path limit).
	MaxEmailLength = 254

	// MaxPasswordLength matches bcrypt's 72-byte input limit.
	MaxPasswordLength = 72
)
