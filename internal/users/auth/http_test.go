// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/quizdesk/internal/platform/gate"
	"github.com/taibuivan/quizdesk/internal/platform/middleware"
	"github.com/taibuivan/quizdesk/internal/platform/sec"
	"github.com/taibuivan/quizdesk/internal/platform/throttle"
	"github.com/taibuivan/quizdesk/internal/users/auth"
)

type httpFixture struct {
	*serviceFixture
	router chi.Router
}

func newHTTPFixture(t *testing.T, identities ...*auth.Identity) *httpFixture {
	t.Helper()

	fixture := newServiceFixture(t, identities...)
	strict, err := throttle.New(throttle.Policy{Name: "auth", Ceiling: 5, Window: time.Minute})
	require.NoError(t, err)
	general, err := throttle.New(throttle.Policy{Name: "api", Ceiling: 3, Window: time.Minute})
	require.NoError(t, err)

	requestGate := gate.New(fixture.codec, fixture.metrics)

	router := chi.NewRouter()
	router.Use(middleware.Origin(middleware.TrustedProxies{}))
	router.Use(requestGate.Authenticate)
	router.Mount("/auth", auth.NewHandler(fixture.service).Routes(requestGate, strict, general))

	return &httpFixture{serviceFixture: fixture, router: router}
}

func (fixture *httpFixture) do(method, path, body, token string) *httptest.ResponseRecorder {
	request := httptest.NewRequest(method, path, strings.NewReader(body))
	request.RemoteAddr = "198.51.100.20:5000"
	request.Header.Set("Content-Type", "application/json")
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}
	recorder := httptest.NewRecorder()
	fixture.router.ServeHTTP(recorder, request)
	return recorder
}

type envelope struct {
	Success    bool            `json:"success"`
	Data       json.RawMessage `json:"data"`
	Code       string          `json:"code"`
	RetryAfter int             `json:"retryAfter"`
}

func decodeEnvelope(t *testing.T, recorder *httptest.ResponseRecorder) envelope {
	t.Helper()
	var body envelope
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	return body
}

/*
TestHandler_LifecycleRoundTrip drives register, login, me and logout through
the router.
*/
func TestHandler_LifecycleRoundTrip(t *testing.T) {
	fixture := newHTTPFixture(t)

	// 1. Register
	recorder := fixture.do(http.MethodPost, "/auth/register",
		`{"email":"ada@quizdesk.app","password":"secret123","name":"Ada"}`, "")
	require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())
	assert.NotContains(t, recorder.Body.String(), "hashed:")

	// 2. Login
	recorder = fixture.do(http.MethodPost, "/auth/login", `{"email":"ada@quizdesk.app","password":"secret123"}`, "")
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

	var session struct {
		Token     string `json:"token"`
		TokenType string `json:"tokenType"`
		ExpiresIn int64  `json:"expiresIn"`
	}
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, recorder).Data, &session))
	assert.Equal(t, "Bearer", session.TokenType)
	assert.Equal(t, int64(3600), session.ExpiresIn)

	// 3. Me
	recorder = fixture.do(http.MethodGet, "/auth/me", "", session.Token)
	require.Equal(t, http.StatusOK, recorder.Code)
	var me struct {
		Role   string `json:"role"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, recorder).Data, &me))
	assert.Equal(t, string(sec.RoleUser), me.Role)
	assert.Equal(t, string(sec.StatusPending), me.Status)

	// 4. Logout
	recorder = fixture.do(http.MethodPost, "/auth/logout", "", session.Token)
	assert.Equal(t, http.StatusNoContent, recorder.Code)

	records := fixture.records.all()
	require.Len(t, records, 1)
	assert.Equal(t, "198.51.100.20", records[0].IP)
	assert.False(t, records[0].IsOpen())
}

/*
TestHandler_ProtectedRoutesNeedToken verifies anonymous callers are rejected.
*/
func TestHandler_ProtectedRoutesNeedToken(t *testing.T) {
	fixture := newHTTPFixture(t)

	for _, path := range []string{"/auth/me", "/auth/logout"} {
		method := http.MethodGet
		if path == "/auth/logout" {
			method = http.MethodPost
		}
		recorder := fixture.do(method, path, "", "")
		assert.Equal(t, http.StatusUnauthorized, recorder.Code, path)
		assert.Equal(t, "UNAUTHENTICATED", decodeEnvelope(t, recorder).Code)
	}
}

/*
TestHandler_LoginThrottledBeforeCredentialCheck verifies the sixth attempt
within a minute is rejected with 429 and a retry hint, even with valid
credentials.
*/
func TestHandler_LoginThrottledBeforeCredentialCheck(t *testing.T) {
	fixture := newHTTPFixture(t, seededIdentity("u1", "ada@quizdesk.app", "secret123", sec.RoleUser, sec.StatusVerified))

	for attempt := 1; attempt <= 5; attempt++ {
		recorder := fixture.do(http.MethodPost, "/auth/login", `{"email":"ada@quizdesk.app","password":"wrong1234"}`, "")
		require.Equal(t, http.StatusUnauthorized, recorder.Code, "attempt %d", attempt)
		assert.Equal(t, "INVALID_CREDENTIAL", decodeEnvelope(t, recorder).Code)
	}

	recorder := fixture.do(http.MethodPost, "/auth/login", `{"email":"ada@quizdesk.app","password":"secret123"}`, "")
	require.Equal(t, http.StatusTooManyRequests, recorder.Code)
	body := decodeEnvelope(t, recorder)
	assert.Equal(t, "RATE_LIMITED", body.Code)
	assert.Positive(t, body.RetryAfter)
	assert.NotEmpty(t, recorder.Header().Get("Retry-After"))
	assert.Empty(t, fixture.records.all())
}

/*
TestHandler_ProtectedRoutesShareGeneralBudget verifies /me and /logout draw
from the per-subject general throttle.
*/
func TestHandler_ProtectedRoutesShareGeneralBudget(t *testing.T) {
	fixture := newHTTPFixture(t)

	token, err := fixture.codec.IssueDefault(sec.Principal{
		UserID: "u1", Email: "ada@quizdesk.app", Role: sec.RoleUser, Status: sec.StatusVerified,
	})
	require.NoError(t, err)

	for attempt := 1; attempt <= 3; attempt++ {
		recorder := fixture.do(http.MethodGet, "/auth/me", "", token)
		require.Equal(t, http.StatusOK, recorder.Code, "attempt %d", attempt)
	}

	recorder := fixture.do(http.MethodPost, "/auth/logout", "", token)
	require.Equal(t, http.StatusTooManyRequests, recorder.Code)
	assert.Equal(t, "RATE_LIMITED", decodeEnvelope(t, recorder).Code)

	// Another subject keeps its own budget
	other, err := fixture.codec.IssueDefault(sec.Principal{
		UserID: "u2", Email: "grace@quizdesk.app", Role: sec.RoleUser, Status: sec.StatusVerified,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, fixture.do(http.MethodGet, "/auth/me", "", other).Code)
}

/*
TestHandler_LoginIgnoresStaleBearer verifies an expired token left in the
Authorization header does not block a fresh login.
*/
func TestHandler_LoginIgnoresStaleBearer(t *testing.T) {
	fixture := newHTTPFixture(t, seededIdentity("u1", "ada@quizdesk.app", "secret123", sec.RoleUser, sec.StatusVerified))

	stale, err := fixture.codec.Issue(sec.Principal{UserID: "u1", Role: sec.RoleUser, Status: sec.StatusVerified}, 0)
	require.NoError(t, err)

	recorder := fixture.do(http.MethodPost, "/auth/login", `{"email":"ada@quizdesk.app","password":"secret123"}`, stale)
	assert.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())
}

/*
TestHandler_RejectsMalformedBodies covers undecodable and unknown-field payloads.
*/
func TestHandler_RejectsMalformedBodies(t *testing.T) {
	fixture := newHTTPFixture(t)

	tests := []struct {
		name string
		body string
	}{
		{"not_json", `{email:`},
		{"unknown_field", `{"email":"ada@quizdesk.app","password":"secret123","name":"Ada","role":"admin"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := fixture.do(http.MethodPost, "/auth/register", tt.body, "")
			assert.Equal(t, http.StatusBadRequest, recorder.Code)
			assert.Equal(t, "VALIDATION_ERROR", decodeEnvelope(t, recorder).Code)
		})
	}
}
