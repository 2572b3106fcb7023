// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/taibuivan/quizdesk/internal/platform/apperr"
	"github.com/taibuivan/quizdesk/internal/platform/sec"
	"github.com/taibuivan/quizdesk/internal/platform/validate"
	"github.com/taibuivan/quizdesk/internal/users/auth"
	"github.com/taibuivan/quizdesk/pkg/pagination"
	"github.com/taibuivan/quizdesk/pkg/pointer"
)

// # Service Layer

// Service orchestrates account administration.
//
// Authorization is decided by the gate before any method runs; the service
// only enforces business constraints on the data.
type Service struct {
	accountRepository AccountRepository
	loginHistory      LoginHistory
	logger            *slog.Logger
}

// NewService constructs a new [Service] with its repository dependencies.
func NewService(accountRepo AccountRepository, history LoginHistory, logger *slog.Logger) *Service {
	return &Service{
		accountRepository: accountRepo,
		loginHistory:      history,
		logger:            logger,
	}
}

// # Listing

/*
List returns one page of accounts.

Parameters:
  - context: context.Context
  - filter: Filter (roles and statuses, validated here)
  - page: pagination.Params

Returns:
  - []*auth.Identity: Page content
  - int: Total matching accounts
  - error: VALIDATION_ERROR or storage failures
*/
func (service *Service) List(context context.Context, filter Filter, page pagination.Params) ([]*auth.Identity, int, error) {
	validator := &validate.Validator{}
	for _, role := range filter.Roles {
		validator.OneOf(FieldRole, role, sec.Roles()...)
	}
	for _, status := range filter.Statuses {
		validator.OneOf(FieldStatus, status, statuses()...)
	}
	if err := validator.Err(); err != nil {
		return nil, 0, err
	}

	identities, total, err := service.accountRepository.List(context, filter, page)
	if err != nil {
		return nil, 0, fmt.Errorf("account_service_list_failed: %w", err)
	}
	return identities, total, nil
}

// # Profile Management

/*
Get retrieves a single account.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - *auth.Identity: The hydrated account (hash scrubbed)
  - error: NOT_FOUND or storage failures
*/
func (service *Service) Get(context context.Context, id string) (*auth.Identity, error) {
	identity, err := service.accountRepository.FindByID(context, id)
	if err != nil {
		if apperr.HasCode(err, apperr.CodeNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("account_service_get_failed: %w", err)
	}
	return identity.Scrubbed(), nil
}

// UpdateProfileInput defines the mutable subset of profile fields.
type UpdateProfileInput struct {
	Name  *string
	Phone *string
}

/*
UpdateProfile applies a partial set of changes to an account's profile.

Description: Fetches the existing state, overrides provided fields, and
synchronizes the change to persistent storage. A deleted account cannot be
edited.

Parameters:
  - context: context.Context
  - id: string
  - input: UpdateProfileInput

Returns:
  - *auth.Identity: The updated account
  - error: VALIDATION_ERROR, NOT_FOUND or storage failures
*/
func (service *Service) UpdateProfile(context context.Context, id string, input UpdateProfileInput) (*auth.Identity, error) {
	input.Name = pointer.Map(input.Name, strings.TrimSpace)
	input.Phone = pointer.Map(input.Phone, strings.TrimSpace)

	validator := &validate.Validator{}
	if input.Name != nil {
		validator.Required(auth.FieldName, *input.Name).
			MaxLen(auth.FieldName, *input.Name, auth.MaxNameLength)
	}
	if input.Phone != nil {
		validator.Phone(auth.FieldPhone, *input.Phone)
	}
	if err := validator.Err(); err != nil {
		return nil, err
	}

	identity, err := service.accountRepository.FindByID(context, id)
	if err != nil {
		if apperr.HasCode(err, apperr.CodeNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("account_service_update_lookup_failed: %w", err)
	}

	if identity.Status.IsDeleted() {
		return nil, apperr.NotFound("User")
	}

	// Apply delta updates
	if input.Name != nil {
		identity.Name = *input.Name
	}
	if input.Phone != nil {
		identity.Phone = *input.Phone
	}

	if err := service.accountRepository.UpdateProfile(context, identity); err != nil {
		if apperr.HasCode(err, apperr.CodeNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("account_service_update_failed: %w", err)
	}

	service.logger.InfoContext(context, "user_profile_updated", slog.String("user_id", id))

	return identity.Scrubbed(), nil
}

// # Administration

/*
ChangeRole assigns a new role to an account.

Description: An admin cannot change their own role, so the last admin can
never demote themselves out of the system. The new role reaches the target's
claims on their next login.

Parameters:
  - context: context.Context
  - actorID: string (The admin performing the change)
  - id: string
  - role: string

Returns:
  - *auth.Identity: The updated account
  - error: VALIDATION_ERROR, FORBIDDEN, NOT_FOUND or storage failures
*/
func (service *Service) ChangeRole(context context.Context, actorID, id, role string) (*auth.Identity, error) {
	validator := &validate.Validator{}
	validator.Required(FieldRole, role).
		OneOf(FieldRole, role, sec.Roles()...)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	if actorID == id {
		return nil, apperr.Forbidden("Admins cannot change their own role", nil, "")
	}

	if err := service.accountRepository.UpdateRole(context, id, sec.UserRole(role)); err != nil {
		if apperr.HasCode(err, apperr.CodeNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("account_service_change_role_failed: %w", err)
	}

	service.logger.WarnContext(context, "user_role_changed",
		slog.String("actor_id", actorID),
		slog.String("user_id", id),
		slog.String("role", role),
	)

	return service.Get(context, id)
}

/*
Delete performs an idempotent soft-deletion of an account.

Description: Tokens already issued to the account keep their claims until they
expire; the gate rejects them only when the claims themselves say deleted.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - error: NOT_FOUND or storage failures
*/
func (service *Service) Delete(context context.Context, id string) error {
	if err := service.accountRepository.SoftDelete(context, id); err != nil {
		if apperr.HasCode(err, apperr.CodeNotFound) {
			return err
		}
		return fmt.Errorf("account_service_delete_failed: %w", err)
	}

	service.logger.WarnContext(context, "user_account_deleted", slog.String("user_id", id))

	return nil
}

// # Login History

/*
ListLogins returns one page of an account's login trail.

Parameters:
  - context: context.Context
  - id: string
  - page: pagination.Params

Returns:
  - []*auth.LoginRecord: Page content, newest first
  - int: Total records
  - error: NOT_FOUND or storage failures
*/
func (service *Service) ListLogins(context context.Context, id string, page pagination.Params) ([]*auth.LoginRecord, int, error) {
	if _, err := service.Get(context, id); err != nil {
		return nil, 0, err
	}

	records, total, err := service.loginHistory.ListByIdentity(context, id, page)
	if err != nil {
		return nil, 0, fmt.Errorf("account_service_list_logins_failed: %w", err)
	}
	return records, total, nil
}

func statuses() []string {
	return []string{string(sec.StatusPending), string(sec.StatusVerified), string(sec.StatusDeleted)}
}
