// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/quizdesk/internal/platform/ctxutil"
	"github.com/taibuivan/quizdesk/internal/platform/gate"
	"github.com/taibuivan/quizdesk/internal/platform/middleware"
	requestutil "github.com/taibuivan/quizdesk/internal/platform/request"
	"github.com/taibuivan/quizdesk/internal/platform/respond"
	"github.com/taibuivan/quizdesk/internal/platform/sec"
	"github.com/taibuivan/quizdesk/internal/platform/throttle"
)

// # Definitions & Constructors

// Handler implements the identity lifecycle HTTP endpoints.
type Handler struct {
	authService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{authService: service}
}

// Routes returns a [chi.Router] configured with authentication routes.
//
// # Endpoints
//   - POST /register     : Creates a pending account (strict throttle).
//   - POST /login        : Authenticates and returns an access token (strict throttle).
//   - POST /verify-email : Redeems a verification token (strict throttle).
//   - POST /logout       : Closes the caller's latest login record (general throttle).
//   - GET  /me           : Returns the caller's claim-set (general throttle).
//
// Credential endpoints are throttled before authorization because no
// claim-set exists yet; they are keyed by the client IP. The protected
// endpoints share the general budget, keyed by subject.
func (handler *Handler) Routes(requestGate *gate.Gate, strict, general *throttle.Throttle) chi.Router {
	router := chi.NewRouter()

	credentials := requestGate.Guard(gate.Rule{Throttle: strict, ThrottleStage: gate.PreAuth})
	authenticated := requestGate.Guard(gate.Rule{RequireAuth: true, Throttle: general})

	// Public endpoints
	router.With(credentials).Post("/register", handler.register)
	router.With(credentials).Post("/login", handler.login)
	router.With(credentials).Post("/verify-email", handler.verifyEmail)

	// Protected endpoints
	router.With(authenticated).Post("/logout", handler.logout)
	router.With(authenticated).Get("/me", handler.me)

	return router
}

// # Request Payloads

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type verifyEmailRequest struct {
	Token string `json:"token"`
}

// meResponse mirrors the claim-set carried by the caller's token.
type meResponse struct {
	ID     string            `json:"id"`
	Email  string            `json:"email"`
	Role   sec.UserRole      `json:"role"`
	Status sec.AccountStatus `json:"status"`
}

/*
Register handles the creation of a new account.

POST /api/v1/auth/register

Request:
  - Body: registerRequest (Email, Password, Name, Phone)

Response:
  - 201: Identity: Created account
  - 400: VALIDATION_ERROR: Bad input
  - 409: CONFLICT: Email already exists
  - 429: RATE_LIMITED
*/
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	var input registerRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	identity, err := handler.authService.Register(request.Context(), RegisterInput{
		Email:    input.Email,
		Password: input.Password,
		Name:     input.Name,
		Phone:    input.Phone,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, identity)
}

/*
Login authenticates a member and opens a login record.

POST /api/v1/auth/login

Request:
  - Body: loginRequest (Email, Password)

Response:
  - 200: LoginSession: token, tokenType, expiresIn and user
  - 401: INVALID_CREDENTIAL
  - 403: ACCOUNT_DEACTIVATED
  - 429: RATE_LIMITED
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	origin := ctxutil.GetOrigin(request.Context())
	if origin.IP == "" {
		origin = ctxutil.Origin{IP: middleware.RemoteIP(request), UserAgent: request.UserAgent()}
	}

	session, err := handler.authService.Login(request.Context(), LoginInput{
		Email:     input.Email,
		Password:  input.Password,
		IPAddress: origin.IP,
		UserAgent: origin.UserAgent,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, session)
}

/*
VerifyEmail confirms ownership of the registered address.

POST /api/v1/auth/verify-email

Response:
  - 204: No Content
  - 404: NOT_FOUND: Unknown, expired or already used token
*/
func (handler *Handler) verifyEmail(writer http.ResponseWriter, request *http.Request) {
	var input verifyEmailRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.authService.VerifyEmail(request.Context(), input.Token); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
Logout closes the caller's most recent login record.

POST /api/v1/auth/logout

Response:
  - 204: No Content (also when no record exists)
  - 401: UNAUTHENTICATED
  - 429: RATE_LIMITED
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.authService.Logout(request.Context(), claims.UserID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
Me returns the caller's claim-set.

GET /api/v1/auth/me

Response:
  - 200: meResponse
  - 401: UNAUTHENTICATED
  - 429: RATE_LIMITED
*/
func (handler *Handler) me(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, meResponse{
		ID:     claims.UserID,
		Email:  claims.Email,
		Role:   claims.Role,
		Status: claims.Status,
	})
}
