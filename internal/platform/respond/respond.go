// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package respond provides HTTP response helpers used by all API handlers.
//
// # Architecture
//
// This package centralizes the presentation logic for HTTP responses.
// Every response carries a boolean "success" discriminator so clients can
// branch on a single field:
//
//	{"success": true,  "data": ..., "meta": ...}
//	{"success": false, "message": ..., "code": ..., "requiredRoles": [...], "userRole": ..., "retryAfter": N}
package respond

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/taibuivan/quizdesk/internal/platform/apperr"
	"github.com/taibuivan/quizdesk/internal/platform/ctxutil"
	"github.com/taibuivan/quizdesk/pkg/pagination"
)

// SuccessEnvelope is the JSON envelope for successful responses.
type SuccessEnvelope struct {
	Success bool             `json:"success"`
	Data    any              `json:"data"`
	Meta    *pagination.Meta `json:"meta,omitempty"`
}

// ErrorEnvelope is the JSON envelope for every rejection.
type ErrorEnvelope struct {
	Success       bool                `json:"success"`
	Message       string              `json:"message"`
	Code          string              `json:"code"`
	RequiredRoles []string            `json:"requiredRoles,omitempty"`
	UserRole      string              `json:"userRole,omitempty"`
	RetryAfter    int                 `json:"retryAfter,omitempty"`
	Details       []apperr.FieldError `json:"details,omitempty"`
}

// JSON writes a JSON response with the given status code.
func JSON(writer http.ResponseWriter, statusCode int, payload any) {
	writer.Header().Set("Content-Type", "application/json; charset=utf-8")
	writer.WriteHeader(statusCode)
	_ = json.NewEncoder(writer).Encode(payload)
}

// OK writes a 200 OK response with data wrapped in the standard success envelope.
func OK(writer http.ResponseWriter, data any) {
	JSON(writer, http.StatusOK, SuccessEnvelope{Success: true, Data: data})
}

// Created writes a 201 Created response with data wrapped in the standard success envelope.
func Created(writer http.ResponseWriter, data any) {
	JSON(writer, http.StatusCreated, SuccessEnvelope{Success: true, Data: data})
}

// Paginated writes a 200 OK response with paginated data and a metadata block.
func Paginated(writer http.ResponseWriter, data any, metadata pagination.Meta) {
	JSON(writer, http.StatusOK, SuccessEnvelope{Success: true, Data: data, Meta: &metadata})
}

// NoContent writes a 204 No Content response.
func NoContent(writer http.ResponseWriter) {
	writer.WriteHeader(http.StatusNoContent)
}

// Error converts any Go error into a standardized JSON rejection.
//
// Non-[apperr.AppError] values are logged and replaced by INTERNAL_ERROR so
// that internal details never reach the client. RATE_LIMITED responses also
// carry a Retry-After header.
func Error(writer http.ResponseWriter, request *http.Request, err error) {
	logger := ctxutil.GetLogger(request.Context())

	var appError *apperr.AppError
	if !errors.As(err, &appError) {
		// Unexpected internal error: log full details but hide them from the client.
		logger.ErrorContext(request.Context(), "unhandled_error_swallowed",
			slog.String("error", err.Error()),
			slog.String("request_id", ctxutil.GetRequestID(request.Context())),
		)
		appError = apperr.Internal(err)
	}

	// Always log 5xx errors as they indicate server-side issues.
	if appError.HTTPStatus >= 500 {
		logger.ErrorContext(request.Context(), "api_server_error",
			slog.String("code", appError.Code),
			slog.String("request_id", ctxutil.GetRequestID(request.Context())),
			slog.Any("cause", appError.Cause),
		)
	}

	if appError.RetryAfter > 0 {
		writer.Header().Set("Retry-After", strconv.Itoa(appError.RetryAfter))
	}

	JSON(writer, appError.HTTPStatus, ErrorEnvelope{
		Success:       false,
		Message:       appError.Message,
		Code:          appError.Code,
		RequiredRoles: appError.RequiredRoles,
		UserRole:      appError.UserRole,
		RetryAfter:    appError.RetryAfter,
		Details:       appError.Details,
	})
}
