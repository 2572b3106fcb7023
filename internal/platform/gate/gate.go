// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package gate is the per-request authorization pipeline in front of every
business handler.

Pipeline:

	Start → TokenExtracted → ClaimsVerified → AuthorizationChecked → ThrottleChecked → Forwarded
	                  any stage ──► Rejected(reason)

[Gate.Authenticate] is mounted once on the router and covers the first three
stages: it turns an optional bearer token into a claim-set in the context.
[Gate.Guard] is mounted per route with a [Rule] and covers authorization and
throttling. Whether the throttle runs before or after authorization is a
per-route choice ([PreAuth] for credential endpoints, [PostAuth] for resources).

Every rejection is written through [respond.Error], so the caller always gets
the structured rejection payload and never reaches business logic.
*/
package gate

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/taibuivan/quizdesk/internal/platform/apperr"
	"github.com/taibuivan/quizdesk/internal/platform/authz"
	"github.com/taibuivan/quizdesk/internal/platform/constants"
	"github.com/taibuivan/quizdesk/internal/platform/ctxutil"
	"github.com/taibuivan/quizdesk/internal/platform/metrics"
	"github.com/taibuivan/quizdesk/internal/platform/middleware"
	requestutil "github.com/taibuivan/quizdesk/internal/platform/request"
	"github.com/taibuivan/quizdesk/internal/platform/respond"
	"github.com/taibuivan/quizdesk/internal/platform/sec"
	"github.com/taibuivan/quizdesk/internal/platform/throttle"
)

// # Stages

// Stage names a step of the gate pipeline. It labels logs and metrics.
type Stage string

const (
	StageStart                Stage = "start"
	StageTokenExtracted       Stage = "token_extracted"
	StageClaimsVerified       Stage = "claims_verified"
	StageAuthorizationChecked Stage = "authorization_checked"
	StageThrottleChecked      Stage = "throttle_checked"
	StageForwarded            Stage = "forwarded"
)

// ThrottleStage places the throttle check relative to authorization.
type ThrottleStage int

const (
	// PostAuth throttles after authorization, keyed by the resolved subject.
	PostAuth ThrottleStage = iota
	// PreAuth throttles before authorization. Used where no claim-set exists yet.
	PreAuth
)

// # Rule

// Rule is the per-route gate configuration.
type Rule struct {
	// RequireAuth demands a claim-set for an active (non-deleted) account.
	// It is implied by Floor, SelfParam and Status.
	RequireAuth bool

	// Floor is the lowest role admitted. Empty means no role check.
	Floor sec.UserRole

	// SelfParam names the chi URL parameter holding the target identity.
	// A caller whose subject matches it passes regardless of role; everyone
	// else must meet Floor (admin when Floor is empty).
	SelfParam string

	// Status, when set, is the exact account status the caller must hold.
	Status sec.AccountStatus

	// Throttle, when set, is consulted at ThrottleStage.
	Throttle      *throttle.Throttle
	ThrottleStage ThrottleStage
}

func (rule Rule) needsClaims() bool {
	return rule.RequireAuth || rule.Floor != "" || rule.SelfParam != "" || rule.Status != ""
}

// authorize runs the authorization policy for claims against the route.
func (rule Rule) authorize(claims *sec.AuthClaims, request *http.Request) error {
	if !rule.needsClaims() {
		return nil
	}

	switch {
	case rule.SelfParam != "":
		floor := rule.Floor
		if floor == "" {
			floor = sec.FloorAdmin
		}
		target := requestutil.Param(request, rule.SelfParam)
		if err := authz.RequireSelfOrRoleFloor(claims, target, floor); err != nil {
			return err
		}
	case rule.Floor != "":
		if err := authz.RequireRoleFloor(claims, rule.Floor); err != nil {
			return err
		}
	default:
		if err := authz.RequireActive(claims); err != nil {
			return err
		}
	}

	if rule.Status != "" {
		return authz.RequireStatus(claims, rule.Status)
	}
	return nil
}

// # Gate

// TokenVerifier decodes a bearer token into a claim-set.
type TokenVerifier interface {
	Verify(token string) (*sec.AuthClaims, error)
}

// Gate holds the collaborators shared by every route.
type Gate struct {
	verifier TokenVerifier
	metrics  *metrics.Metrics
	now      func() time.Time

	// throttleLogs samples throttle rejection logs so a flood cannot flood the log.
	throttleLogs rate.Sometimes
}

// Option customises a [Gate].
type Option func(*Gate)

// WithClock overrides the time source used for throttle decisions.
func WithClock(now func() time.Time) Option {
	return func(gate *Gate) {
		gate.now = now
	}
}

// New creates a Gate.
//
// # Parameters
//   - verifier: Usually the [*sec.TokenCodec].
//   - metrics: Collectors for rejections and throttle decisions (nil disables).
func New(verifier TokenVerifier, metrics *metrics.Metrics, options ...Option) *Gate {
	gate := &Gate{
		verifier:     verifier,
		metrics:      metrics,
		now:          time.Now,
		throttleLogs: rate.Sometimes{First: 10, Interval: time.Second},
	}
	for _, option := range options {
		option(gate)
	}
	return gate
}

// Authenticate resolves the optional bearer token into a claim-set.
//
// # Flow
//  1. No credential: the request proceeds anonymously.
//  2. Credential present: verify it. Malformed, badly signed and expired tokens
//     all become UNAUTHENTICATED; the precise reason is only logged.
//  3. A deleted account becomes ACCOUNT_DEACTIVATED.
//  4. The claim-set is injected into the request context.
//
// A failure in 2 or 3 is recorded in the context and the request continues
// without claims. [Gate.Guard] rejects it on routes that need claims, so public
// credential routes stay reachable with a stale header.
func (gate *Gate) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

		// ── 1. Token Extraction ───────────────────────────────────────────
		token, present := sec.ExtractToken(request.Header.Get(constants.HeaderAuthorization))
		if !present {
			next.ServeHTTP(writer, request)
			return
		}

		// ── 2. Token Verification ─────────────────────────────────────────
		claims, err := gate.verifier.Verify(token)
		if err != nil {
			ctxutil.GetLogger(request.Context()).DebugContext(request.Context(), "gate_token_unusable",
				slog.String("stage", string(StageTokenExtracted)),
				slog.String("reason", string(sec.ReasonOf(err))),
				slog.Any("error", err),
			)
			failure := apperr.Unauthenticated(tokenMessage(sec.ReasonOf(err))).WithCause(err)
			next.ServeHTTP(writer, request.WithContext(ctxutil.WithAuthFailure(request.Context(), failure)))
			return
		}

		// ── 3. Account State ──────────────────────────────────────────────
		if err := authz.RequireActive(claims); err != nil {
			next.ServeHTTP(writer, request.WithContext(ctxutil.WithAuthFailure(request.Context(), err)))
			return
		}

		// ── 4. Context Injection ──────────────────────────────────────────
		ctx := ctxutil.WithAuthUser(request.Context(), claims)
		next.ServeHTTP(writer, request.WithContext(ctx))
	})
}

// Guard enforces rule on a single route or route group.
//
// Must be registered after [Gate.Authenticate].
func (gate *Gate) Guard(rule Rule) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			claims := ctxutil.GetAuthUser(request.Context())

			// ── 1. Pre-Authorization Throttle ─────────────────────────────
			if rule.Throttle != nil && rule.ThrottleStage == PreAuth {
				if !gate.admit(writer, request, rule.Throttle, claims) {
					return
				}
			}

			// ── 2. Credential Failure ─────────────────────────────────────
			if failure := ctxutil.GetAuthFailure(request.Context()); failure != nil && rule.needsClaims() {
				gate.rejectCredential(writer, request, failure)
				return
			}

			// ── 3. Authorization ──────────────────────────────────────────
			if err := rule.authorize(claims, request); err != nil {
				gate.reject(writer, request, StageAuthorizationChecked, err)
				return
			}

			// ── 4. Post-Authorization Throttle ────────────────────────────
			if rule.Throttle != nil && rule.ThrottleStage == PostAuth {
				if !gate.admit(writer, request, rule.Throttle, claims) {
					return
				}
			}

			// ── 5. Forward ────────────────────────────────────────────────
			next.ServeHTTP(writer, request)
		})
	}
}

// SubjectKey is the throttle key for a request: the subject when a claim-set
// is established, otherwise the network origin.
func SubjectKey(request *http.Request, claims *sec.AuthClaims) string {
	if claims != nil && claims.UserID != "" {
		return "sub:" + claims.UserID
	}

	ip := ctxutil.GetOrigin(request.Context()).IP
	if ip == "" {
		ip = middleware.RemoteIP(request)
	}
	return "ip:" + ip
}

// admit consults limiter and writes the 429 rejection when denied.
func (gate *Gate) admit(writer http.ResponseWriter, request *http.Request, limiter *throttle.Throttle, claims *sec.AuthClaims) bool {
	key := SubjectKey(request, claims)
	decision := limiter.Admit(key, gate.now())
	policy := limiter.Policy().Name

	gate.metrics.ThrottleDecided(policy, decision.Allowed)
	if decision.Allowed {
		return true
	}

	gate.throttleLogs.Do(func() {
		ctxutil.GetLogger(request.Context()).WarnContext(request.Context(), "gate_throttled",
			slog.String("stage", string(StageThrottleChecked)),
			slog.String("policy", policy),
			slog.String("key", key),
			slog.Duration("retry_after", decision.RetryAfter),
		)
	})
	gate.metrics.GateRejected(string(StageThrottleChecked), apperr.CodeRateLimited)
	respond.Error(writer, request, apperr.RateLimited(decision.RetryAfterSeconds()))
	return false
}

// rejectCredential rejects a request whose credential failed in
// [Gate.Authenticate]. Token failures are labelled with their precise reason.
func (gate *Gate) rejectCredential(writer http.ResponseWriter, request *http.Request, failure error) {
	reason := sec.ReasonOf(failure)
	if reason == "" {
		gate.reject(writer, request, StageClaimsVerified, failure)
		return
	}

	ctxutil.GetLogger(request.Context()).WarnContext(request.Context(), "gate_token_rejected",
		slog.String("stage", string(StageTokenExtracted)),
		slog.String("reason", string(reason)),
		slog.Any("error", failure),
	)
	gate.metrics.GateRejected(string(StageTokenExtracted), string(reason))
	respond.Error(writer, request, failure)
}

// reject logs, counts and writes a non-throttle rejection.
func (gate *Gate) reject(writer http.ResponseWriter, request *http.Request, stage Stage, err error) {
	code := apperr.CodeInternal
	var appError *apperr.AppError
	if errors.As(err, &appError) {
		code = appError.Code
	}

	ctxutil.GetLogger(request.Context()).WarnContext(request.Context(), "gate_rejected",
		slog.String("stage", string(stage)),
		slog.String("reason", code),
	)
	gate.metrics.GateRejected(string(stage), code)
	respond.Error(writer, request, err)
}

func tokenMessage(reason sec.TokenReason) string {
	if reason == sec.ReasonExpired {
		return "Token has expired"
	}
	return "Invalid token"
}
