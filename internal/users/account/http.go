// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/quizdesk/internal/platform/apperr"
	"github.com/taibuivan/quizdesk/internal/platform/gate"
	requestutil "github.com/taibuivan/quizdesk/internal/platform/request"
	"github.com/taibuivan/quizdesk/internal/platform/respond"
	"github.com/taibuivan/quizdesk/internal/platform/sec"
	"github.com/taibuivan/quizdesk/internal/platform/throttle"
	"github.com/taibuivan/quizdesk/internal/users/auth"
	"github.com/taibuivan/quizdesk/pkg/pagination"
	"github.com/taibuivan/quizdesk/pkg/query"
	"github.com/taibuivan/quizdesk/pkg/slice"
	"github.com/taibuivan/quizdesk/pkg/uuid"
)

// Handler implements the HTTP layer for account administration.
type Handler struct {
	accountService *Service
}

// NewHandler constructs a new account [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{accountService: service}
}

// Routes returns a [chi.Router] configured with the account endpoints.
//
// # Endpoints
//   - GET    /              : moderator floor, paginated list
//   - GET    /{id}          : self or moderator
//   - PATCH  /{id}          : self or moderator, caller must be verified
//   - PATCH  /{id}/role     : admin floor
//   - DELETE /{id}          : self or admin, soft delete
//   - GET    /{id}/logins   : self or admin, paginated login trail
//
// Every route is throttled by general after authorization, keyed by subject.
func (handler *Handler) Routes(requestGate *gate.Gate, general *throttle.Throttle) chi.Router {
	router := chi.NewRouter()

	guard := func(rule gate.Rule) func(http.Handler) http.Handler {
		rule.Throttle = general
		rule.ThrottleStage = gate.PostAuth
		return requestGate.Guard(rule)
	}

	router.With(guard(gate.Rule{Floor: sec.FloorModerator})).Get("/", handler.list)
	router.With(guard(gate.Rule{SelfParam: ParamID, Floor: sec.FloorModerator})).Get("/{id}", handler.get)
	router.With(guard(gate.Rule{SelfParam: ParamID, Floor: sec.FloorModerator, Status: sec.StatusVerified})).Patch("/{id}", handler.update)
	router.With(guard(gate.Rule{Floor: sec.FloorAdmin})).Patch("/{id}/role", handler.changeRole)
	router.With(guard(gate.Rule{SelfParam: ParamID})).Delete("/{id}", handler.delete)
	router.With(guard(gate.Rule{SelfParam: ParamID})).Get("/{id}/logins", handler.listLogins)

	return router
}

// accountID reads the {id} path value. A malformed id names no account.
func accountID(request *http.Request) (string, error) {
	id := requestutil.Param(request, ParamID)
	if !uuid.IsValid(id) {
		return "", apperr.NotFound("User")
	}
	return id, nil
}

// # Request Payloads

// updateProfileRequest defines the expected JSON payload for profile updates.
type updateProfileRequest struct {
	Name  *string `json:"name"`
	Phone *string `json:"phone"`
}

type changeRoleRequest struct {
	Role string `json:"role"`
}

/*
GET /api/v1/users.

Query:
  - role, status: comma-separated or repeated filters
  - page, limit: pagination

Response:
  - 200: []Identity with pagination meta
  - 403: INSUFFICIENT_ROLE
*/
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	filter := Filter{
		Roles:    query.Values(request, FieldRole),
		Statuses: query.Values(request, FieldStatus),
	}
	page := pagination.FromRequest(request)

	identities, total, err := handler.accountService.List(request.Context(), filter, page)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, slice.Map(identities, (*auth.Identity).Scrubbed), pagination.NewMeta(page.Page, page.Limit, total))
}

/*
GET /api/v1/users/{id}.

Response:
  - 200: Identity
  - 403: FORBIDDEN
  - 404: NOT_FOUND
*/
func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	id, err := accountID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	identity, err := handler.accountService.Get(request.Context(), id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, identity)
}

/*
PATCH /api/v1/users/{id}.

Request:
  - body: updateProfileRequest (Partial JSON)

Response:
  - 200: Identity: The updated account
  - 400: VALIDATION_ERROR
  - 403: FORBIDDEN or VERIFICATION_REQUIRED
  - 404: NOT_FOUND
*/
func (handler *Handler) update(writer http.ResponseWriter, request *http.Request) {
	id, err := accountID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input updateProfileRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	identity, err := handler.accountService.UpdateProfile(request.Context(), id, UpdateProfileInput{
		Name:  input.Name,
		Phone: input.Phone,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, identity)
}

/*
PATCH /api/v1/users/{id}/role.

Request:
  - body: changeRoleRequest

Response:
  - 200: Identity: The updated account
  - 400: VALIDATION_ERROR: Unknown role
  - 403: INSUFFICIENT_ROLE or FORBIDDEN (own role)
  - 404: NOT_FOUND
*/
func (handler *Handler) changeRole(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	id, err := accountID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input changeRoleRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	identity, err := handler.accountService.ChangeRole(request.Context(), claims.UserID, id, input.Role)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, identity)
}

/*
DELETE /api/v1/users/{id}.

Response:
  - 204: No Content
  - 403: FORBIDDEN
  - 404: NOT_FOUND
*/
func (handler *Handler) delete(writer http.ResponseWriter, request *http.Request) {
	id, err := accountID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.accountService.Delete(request.Context(), id); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
GET /api/v1/users/{id}/logins.

Response:
  - 200: []LoginRecord with pagination meta
  - 403: FORBIDDEN
  - 404: NOT_FOUND
*/
func (handler *Handler) listLogins(writer http.ResponseWriter, request *http.Request) {
	id, err := accountID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	page := pagination.FromRequest(request)

	records, total, err := handler.accountService.ListLogins(request.Context(), id, page)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, records, pagination.NewMeta(page.Page, page.Limit, total))
}
