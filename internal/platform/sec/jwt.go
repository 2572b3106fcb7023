// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sec provides cryptographic primitives and token management.
//
// # Architecture
//
// This package isolates security-sensitive code (Hashing, JWT Signing, Role
// ordering) from the domain logic. It acts as an Infrastructure service
// injected into the Application layer via small interfaces declared by the
// consumers.
package sec

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthClaims represents the payload embedded inside a JWT Access Token.
//
// # Why custom claims?
//
// By embedding the UserID, Email, Role and Status directly inside the JWT,
// the gate can reconstruct the active user context WITHOUT querying the
// database on every single API request. The flip side is that a role or
// status change only takes effect once the token expires.
type AuthClaims struct {
	jwt.RegisteredClaims

	// Custom application claims are abbreviated to keep the JWT payload small.
	UserID string        `json:"uid"`
	Email  string        `json:"eml"`
	Role   UserRole      `json:"rol"`
	Status AccountStatus `json:"sts"`
}

// Principal is the identity portion of a claim-set handed to [TokenCodec.Issue].
type Principal struct {
	UserID string
	Email  string
	Role   UserRole
	Status AccountStatus
}

// Principal returns the identity portion of the claims.
func (claims *AuthClaims) Principal() Principal {
	return Principal{
		UserID: claims.UserID,
		Email:  claims.Email,
		Role:   claims.Role,
		Status: claims.Status,
	}
}

// # Verification Errors

// TokenReason classifies why a presented token was rejected.
type TokenReason string

const (
	// ReasonMalformed covers structurally broken tokens and missing claims.
	ReasonMalformed TokenReason = "malformed"

	// ReasonSignatureInvalid covers a bad integrity tag or a foreign algorithm.
	ReasonSignatureInvalid TokenReason = "signature_invalid"

	// ReasonExpired means the signature is valid but expires-at has passed.
	// The client should re-authenticate.
	ReasonExpired TokenReason = "expired"
)

// TokenError is returned by [TokenCodec.Verify].
type TokenError struct {
	Reason TokenReason
	Err    error
}

// Error implements the error interface.
func (e *TokenError) Error() string {
	return fmt.Sprintf("sec: token %s: %v", e.Reason, e.Err)
}

// Unwrap exposes the underlying jwt error.
func (e *TokenError) Unwrap() error { return e.Err }

// ReasonOf extracts the [TokenReason] from err, or "" if err is not a [*TokenError].
func ReasonOf(err error) TokenReason {
	var tokenErr *TokenError
	if errors.As(err, &tokenErr) {
		return tokenErr.Reason
	}
	return ""
}

// # Token Codec

// TokenCodec signs and verifies HS256 access tokens with a shared secret.
//
// The secret is read-only after construction, so a single codec is safe for
// concurrent use by every request.
type TokenCodec struct {
	secret     []byte
	issuer     string
	defaultTTL time.Duration
	now        func() time.Time
}

// CodecOption customizes a [TokenCodec].
type CodecOption func(*TokenCodec)

// WithClock overrides the time source used for issued-at, expires-at and
// expiry checks.
func WithClock(now func() time.Time) CodecOption {
	return func(codec *TokenCodec) {
		codec.now = now
	}
}

// NewTokenCodec creates a new TokenCodec.
func NewTokenCodec(secret, issuer string, defaultTTL time.Duration, options ...CodecOption) (*TokenCodec, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("sec: signing secret is empty")
	}
	if defaultTTL <= 0 {
		return nil, fmt.Errorf("sec: default ttl must be positive, got %s", defaultTTL)
	}

	codec := &TokenCodec{
		secret:     []byte(secret),
		issuer:     issuer,
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
	for _, option := range options {
		option(codec)
	}

	return codec, nil
}

// DefaultTTL returns the lifetime applied by [TokenCodec.IssueDefault].
func (codec *TokenCodec) DefaultTTL() time.Duration {
	return codec.defaultTTL
}

// Issue creates a signed token for principal that expires after timeToLive.
//
// A non-positive timeToLive yields a token that is already expired.
func (codec *TokenCodec) Issue(principal Principal, timeToLive time.Duration) (string, error) {
	currentTime := codec.now()

	// Expiry is stored at second precision; keep non-positive lifetimes
	// strictly in the past after truncation.
	expiresAt := currentTime.Add(timeToLive)
	if timeToLive <= 0 {
		expiresAt = expiresAt.Add(-time.Second)
	}

	claims := AuthClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principal.UserID,
			Issuer:    codec.issuer,
			IssuedAt:  jwt.NewNumericDate(currentTime),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UserID: principal.UserID,
		Email:  principal.Email,
		Role:   principal.Role,
		Status: principal.Status,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(codec.secret)
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign token: %w", err)
	}

	return signedToken, nil
}

// IssueDefault issues a token with the codec's default lifetime.
func (codec *TokenCodec) IssueDefault(principal Principal) (string, error) {
	return codec.Issue(principal, codec.defaultTTL)
}

// Verify checks the signature and validity of a token string.
//
// The signature is checked before the expiry, so a token signed with another
// secret is always [ReasonSignatureInvalid], never [ReasonExpired].
func (codec *TokenCodec) Verify(tokenString string) (*AuthClaims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(codec.issuer),
		jwt.WithTimeFunc(codec.now),
	)

	token, err := parser.ParseWithClaims(tokenString, &AuthClaims{}, func(token *jwt.Token) (interface{}, error) {
		return codec.secret, nil
	})
	if err != nil {
		return nil, &TokenError{Reason: classify(err), Err: err}
	}

	claims, ok := token.Claims.(*AuthClaims)
	if !ok || !token.Valid {
		return nil, &TokenError{Reason: ReasonMalformed, Err: errors.New("invalid token claims")}
	}

	// ── Claim Completeness ────────────────────────────────────────────────
	if claims.UserID == "" || claims.Subject != claims.UserID {
		return nil, &TokenError{Reason: ReasonMalformed, Err: errors.New("subject missing or inconsistent")}
	}
	if !claims.Role.IsValid() || !claims.Status.IsValid() {
		return nil, &TokenError{Reason: ReasonMalformed, Err: fmt.Errorf("unknown role %q or status %q", claims.Role, claims.Status)}
	}

	return claims, nil
}

// classify maps jwt parser errors onto the three caller-visible reasons.
func classify(err error) TokenReason {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return ReasonSignatureInvalid
	case errors.Is(err, jwt.ErrTokenExpired):
		return ReasonExpired
	default:
		return ReasonMalformed
	}
}

// # Credential Extraction

// ExtractToken pulls the token out of an Authorization header value.
//
// Both "Bearer <token>" and a bare token are accepted. It reports false when
// the header holds no credential material, which lets optional-auth routes
// proceed anonymously.
func ExtractToken(headerValue string) (string, bool) {
	value := strings.TrimSpace(headerValue)
	if value == "" {
		return "", false
	}

	scheme, rest, hasSpace := strings.Cut(value, " ")
	switch {
	case hasSpace && strings.EqualFold(scheme, "bearer"):
		value = strings.TrimSpace(rest)
	case !hasSpace && strings.EqualFold(value, "bearer"):
		return "", false
	}

	if value == "" {
		return "", false
	}
	return value, true
}
