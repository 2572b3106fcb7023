// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/quizdesk/internal/api"
)

type readinessBody struct {
	Success bool `json:"success"`
	Data    struct {
		Status string `json:"status"`
		Checks []struct {
			Name  string `json:"name"`
			IsOK  bool   `json:"ok"`
			Error string `json:"error"`
		} `json:"checks"`
	} `json:"data"`
}

func healthy(context.Context) error { return nil }

/*
TestReadiness covers the ready and degraded answers of /ready.
*/
func TestReadiness(t *testing.T) {
	tests := []struct {
		name       string
		deps       api.HealthDependencies
		wantStatus int
		wantState  string
		wantFailed string
	}{
		{
			name:       "all_healthy",
			deps:       api.HealthDependencies{CheckDatabase: healthy, CheckCache: healthy},
			wantStatus: http.StatusOK,
			wantState:  "ready",
		},
		{
			name: "redis_down",
			deps: api.HealthDependencies{
				CheckDatabase: healthy,
				CheckCache:    func(context.Context) error { return errors.New("redis: ping failed: EOF") },
			},
			wantStatus: http.StatusServiceUnavailable,
			wantState:  "degraded",
			wantFailed: "redis",
		},
		{
			name: "postgres_down",
			deps: api.HealthDependencies{
				CheckDatabase: func(context.Context) error { return errors.New("postgres: ping failed") },
				CheckCache:    healthy,
			},
			wantStatus: http.StatusServiceUnavailable,
			wantState:  "degraded",
			wantFailed: "postgres",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, readiness := api.NewHealthHandlers(tt.deps)

			recorder := httptest.NewRecorder()
			readiness(recorder, httptest.NewRequest(http.MethodGet, "/ready", nil))

			require.Equal(t, tt.wantStatus, recorder.Code)

			var body readinessBody
			require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
			assert.Equal(t, tt.wantState, body.Data.Status)
			assert.Equal(t, tt.wantStatus == http.StatusOK, body.Success)
			require.Len(t, body.Data.Checks, 2)

			for _, check := range body.Data.Checks {
				assert.Equal(t, check.Name != tt.wantFailed, check.IsOK, check.Name)
				if !check.IsOK {
					assert.NotEmpty(t, check.Error)
				}
			}
		})
	}
}

/*
TestLiveness verifies /health never consults dependencies.
*/
func TestLiveness(t *testing.T) {
	called := false
	liveness, _ := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func(context.Context) error {
			called = true
			return errors.New("down")
		},
	})

	recorder := httptest.NewRecorder()
	liveness(recorder, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.False(t, called)
	assert.Contains(t, recorder.Body.String(), `"status":"ok"`)
}
