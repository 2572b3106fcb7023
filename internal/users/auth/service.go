// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/taibuivan/quizdesk/internal/platform/apperr"
	"github.com/taibuivan/quizdesk/internal/platform/constants"
	"github.com/taibuivan/quizdesk/internal/platform/ctxutil"
	"github.com/taibuivan/quizdesk/internal/platform/metrics"
	"github.com/taibuivan/quizdesk/internal/platform/sec"
	"github.com/taibuivan/quizdesk/internal/platform/validate"
	"github.com/taibuivan/quizdesk/pkg/uuid"
)

// # Contracts & Types

// TokenIssuer signs access tokens for a freshly authenticated identity.
//
// [*sec.TokenCodec] is the production implementation.
type TokenIssuer interface {
	IssueDefault(principal sec.Principal) (string, error)
	DefaultTTL() time.Duration
}

// Dependencies groups the collaborators of [Service].
type Dependencies struct {
	Identities         IdentityRepository
	LoginRecords       LoginRecordRepository
	VerificationTokens VerificationTokenRepository
	Hasher             PasswordHasher
	Tokens             TokenIssuer
	Metrics            *metrics.Metrics

	// Notifier delivers verification tokens. Nil skips delivery.
	Notifier VerificationNotifier

	// VerificationTTL is how long an email verification token stays redeemable.
	VerificationTTL time.Duration

	// TrailOptions are forwarded to the login trail (tests pin its clock).
	TrailOptions []TrailOption
}

// Service implements the identity lifecycle use cases.
//
// # Review Process
//
// This service is critical for security. Any changes to hashing, registration,
// or login logic must be reviewed by the security team.
type Service struct {
	identityRepository          IdentityRepository
	verificationTokenRepository VerificationTokenRepository
	hasher                      PasswordHasher
	tokenIssuer                 TokenIssuer
	verifier                    *Verifier
	trail                       *Trail
	metrics                     *metrics.Metrics
	notifier                    VerificationNotifier
	verificationTTL             time.Duration
}

// NewService constructs a new [Service] with necessary dependencies.
func NewService(deps Dependencies) *Service {
	return &Service{
		identityRepository:          deps.Identities,
		verificationTokenRepository: deps.VerificationTokens,
		hasher:                      deps.Hasher,
		tokenIssuer:                 deps.Tokens,
		verifier:                    NewVerifier(deps.Identities, deps.Hasher),
		trail:                       NewTrail(deps.LoginRecords, deps.TrailOptions...),
		metrics:                     deps.Metrics,
		notifier:                    deps.Notifier,
		verificationTTL:             deps.VerificationTTL,
	}
}

// Trail exposes the login trail for read endpoints owned by other packages.
func (service *Service) Trail() *Trail {
	return service.trail
}

// # Registration Flow

// RegisterInput holds the data required to enroll a new member.
type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Phone    string
}

/*
Register validates, hashes, and persists a brand new account.

Description: Validation short-circuits before any store access. The account
starts as role=user, status=pending; a single-use verification token is
stored in Redis.

Parameters:
  - context: context.Context
  - input: RegisterInput

Returns:
  - *Identity: Created entity (hash scrubbed)
  - error: VALIDATION_ERROR, CONFLICT or storage errors
*/
func (service *Service) Register(context context.Context, input RegisterInput) (*Identity, error) {
	email := strings.TrimSpace(input.Email)
	name := strings.TrimSpace(input.Name)
	phone := strings.TrimSpace(input.Phone)

	validator := &validate.Validator{}
	validator.Required(FieldEmail, email).
		MaxLen(FieldEmail, email, MaxEmailLength).
		Email(FieldEmail, email).
		Required(FieldPassword, input.Password).
		Password(FieldPassword, input.Password).
		MaxBytes(FieldPassword, input.Password, MaxPasswordLength).
		Required(FieldName, name).
		MaxLen(FieldName, name, MaxNameLength).
		Phone(FieldPhone, phone)

	if err := validator.Err(); err != nil {
		return nil, err
	}

	normalized := NormalizeEmail(email)

	// Verify email uniqueness. Return a client-safe Conflict err.
	_, err := service.identityRepository.FindByEmail(context, normalized)
	switch {
	case err == nil:
		return nil, apperr.Conflict("Email is already registered")
	case !apperr.HasCode(err, apperr.CodeNotFound):
		return nil, fmt.Errorf("auth_service_register_lookup_failed: %w", err)
	}

	hashedPassword, err := service.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	identity := &Identity{
		ID:           uuid.New(),
		Email:        normalized,
		PasswordHash: hashedPassword,
		Name:         name,
		Phone:        phone,
		Role:         sec.RoleUser,
		Status:       sec.StatusPending,
	}

	// A concurrent registration can still lose the race on the unique index.
	if err := service.identityRepository.Create(context, identity); err != nil {
		if apperr.HasCode(err, apperr.CodeConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("auth_service_register_failed: %w", err)
	}

	service.issueVerificationToken(context, identity)

	return identity.Scrubbed(), nil
}

// issueVerificationToken stores a fresh token for identity and hands it to the
// notifier. Failures are logged only; the account already exists at this point.
func (service *Service) issueVerificationToken(context context.Context, identity *Identity) {
	logger := ctxutil.GetLogger(context)
	identityID := identity.ID

	token, err := sec.GenerateSecureToken(VerificationTokenLength)
	if err != nil {
		logger.ErrorContext(context, "auth_verification_token_generate_failed", slog.Any("error", err))
		return
	}

	if err := service.verificationTokenRepository.Set(context, token, identityID, service.verificationTTL); err != nil {
		logger.ErrorContext(context, "auth_verification_token_store_failed",
			slog.String("user_id", identityID),
			slog.Any("error", err),
		)
		return
	}

	logger.InfoContext(context, "auth_verification_token_issued", slog.String("user_id", identityID))

	if service.notifier == nil {
		return
	}
	if err := service.notifier.SendVerification(context, identity.Scrubbed(), token); err != nil {
		logger.ErrorContext(context, "auth_verification_delivery_failed",
			slog.String("user_id", identityID),
			slog.Any("error", err),
		)
	}
}

/*
VerifyEmail redeems a verification token and marks the account verified.

Parameters:
  - context: context.Context
  - token: string

Returns:
  - error: VALIDATION_ERROR, NOT_FOUND (unknown, expired or reused token) or
    storage errors
*/
func (service *Service) VerifyEmail(context context.Context, token string) error {
	validator := &validate.Validator{}
	if err := validator.Required(FieldToken, token).Err(); err != nil {
		return err
	}

	identityID, err := service.verificationTokenRepository.Consume(context, token)
	if err != nil {
		if apperr.HasCode(err, apperr.CodeNotFound) {
			return err
		}
		return fmt.Errorf("auth_service_verify_consume_failed: %w", err)
	}

	if err := service.identityRepository.MarkVerified(context, identityID); err != nil {
		if apperr.HasCode(err, apperr.CodeNotFound) {
			return err
		}
		return fmt.Errorf("auth_service_verify_mark_failed: %w", err)
	}

	return nil
}

// # Authentication Flow

// LoginInput defines credentials for an authentication attempt.
type LoginInput struct {
	Email     string
	Password  string
	IPAddress string
	UserAgent string
}

// LoginSession is the transport-ready result of a successful login.
type LoginSession struct {
	Token     string    `json:"token"`
	TokenType string    `json:"tokenType"`
	ExpiresIn int64     `json:"expiresIn"`
	User      *Identity `json:"user"`
}

/*
Login validates credentials, issues an access token and opens a login record.

Description: A login whose record cannot be written fails as INTERNAL_ERROR;
the trail must never miss a successful login.

Parameters:
  - context: context.Context
  - input: LoginInput

Returns:
  - *LoginSession: Token plus the scrubbed identity
  - error: VALIDATION_ERROR, INVALID_CREDENTIAL, ACCOUNT_DEACTIVATED or INTERNAL_ERROR
*/
func (service *Service) Login(context context.Context, input LoginInput) (*LoginSession, error) {
	session, err := service.login(context, input)

	outcome := metrics.OutcomeSuccess
	if err != nil {
		outcome = apperr.CodeInternal
		if appError := apperr.As(err); appError != nil {
			outcome = appError.Code
		}
	}
	service.metrics.LoginAttempted(outcome)

	return session, err
}

func (service *Service) login(context context.Context, input LoginInput) (*LoginSession, error) {
	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email).
		Required(FieldPassword, input.Password)

	if err := validator.Err(); err != nil {
		return nil, err
	}

	identity, err := service.verifier.Authenticate(context, input.Email, input.Password)
	if err != nil {
		return nil, err
	}

	token, err := service.tokenIssuer.IssueDefault(identity.Principal())
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("auth_service_token_issue_failed: %w", err))
	}

	origin := ParseOrigin(input.IPAddress, input.UserAgent)
	if _, err := service.trail.Open(context, identity.ID, identity.Email, origin); err != nil {
		return nil, apperr.Internal(err)
	}

	ctxutil.GetLogger(context).InfoContext(context, "auth_login_succeeded",
		slog.String("user_id", identity.ID),
		slog.String("ip", origin.IP),
	)

	return &LoginSession{
		Token:     token,
		TokenType: constants.TokenType,
		ExpiresIn: int64(service.tokenIssuer.DefaultTTL() / time.Second),
		User:      identity,
	}, nil
}

/*
Logout closes the caller's most recent login record.

Description: An identity without any record still logs out successfully;
the gap is only logged. Claims stay valid until they expire.

Parameters:
  - context: context.Context
  - identityID: string

Returns:
  - error: Storage failures
*/
func (service *Service) Logout(context context.Context, identityID string) error {
	logger := ctxutil.GetLogger(context)

	record, err := service.trail.MostRecentOpenOrAny(context, identityID)
	if err != nil {
		if apperr.HasCode(err, apperr.CodeNotFound) {
			logger.WarnContext(context, "auth_logout_without_record", slog.String("user_id", identityID))
			return nil
		}
		return err
	}

	if err := service.trail.Close(context, record.ID); err != nil {
		if apperr.HasCode(err, apperr.CodeNotFound) {
			logger.WarnContext(context, "auth_logout_record_vanished",
				slog.String("user_id", identityID),
				slog.String("record_id", record.ID),
			)
			return nil
		}
		return err
	}

	return nil
}
