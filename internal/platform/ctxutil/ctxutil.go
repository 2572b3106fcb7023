// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package ctxutil provides helpers for interacting with values stored in [context.Context].
package ctxutil

import (
	"context"
	"log/slog"

	"github.com/taibuivan/quizdesk/internal/platform/ctxkey"
	"github.com/taibuivan/quizdesk/internal/platform/sec"
)

// # Request Tracing

// WithRequestID returns a new context with the provided request ID attached.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxkey.KeyRequestID, id)
}

// GetRequestID retrieves the request ID from the context.
// Returns an empty string if not found.
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxkey.KeyRequestID).(string)
	return id
}

// # Structured Logging

// WithLogger returns a new context with the provided logger attached.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxkey.KeyLogger, logger)
}

// GetLogger retrieves the logger from the context.
// If no logger is found, it returns the global default logger.
func GetLogger(ctx context.Context) *slog.Logger {
	logger, ok := ctx.Value(ctxkey.KeyLogger).(*slog.Logger)
	if !ok {
		return slog.Default()
	}
	return logger
}

// # Identity & Access

// WithAuthUser returns a new context with the provided auth claims attached.
func WithAuthUser(ctx context.Context, user *sec.AuthClaims) context.Context {
	return context.WithValue(ctx, ctxkey.KeyUser, user)
}

// GetAuthUser retrieves the [*sec.AuthClaims] from the [context.Context].
// Returns nil for anonymous requests.
func GetAuthUser(ctx context.Context) *sec.AuthClaims {
	claims, ok := ctx.Value(ctxkey.KeyUser).(*sec.AuthClaims)
	if !ok {
		return nil
	}
	return claims
}

// WithAuthFailure records why the presented credential was not accepted.
func WithAuthFailure(ctx context.Context, err error) context.Context {
	return context.WithValue(ctx, ctxkey.KeyAuthFailure, err)
}

// GetAuthFailure returns the recorded credential failure, or nil when the
// request was anonymous or authenticated cleanly.
func GetAuthFailure(ctx context.Context) error {
	err, _ := ctx.Value(ctxkey.KeyAuthFailure).(error)
	return err
}

// # Client Origin

// Origin is the network address and user agent a request arrived with.
type Origin struct {
	IP        string
	UserAgent string
}

// WithOrigin returns a new context carrying the caller's origin.
func WithOrigin(ctx context.Context, origin Origin) context.Context {
	return context.WithValue(ctx, ctxkey.KeyOrigin, origin)
}

// GetOrigin retrieves the caller's origin, or the zero value when unset.
func GetOrigin(ctx context.Context) Origin {
	origin, _ := ctx.Value(ctxkey.KeyOrigin).(Origin)
	return origin
}
