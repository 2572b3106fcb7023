// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"log/slog"
)

// # Verification Delivery

// VerificationNotifier delivers a freshly issued verification token to the
// owner of identity.
type VerificationNotifier interface {
	SendVerification(context context.Context, identity *Identity, token string) error
}

// LogNotifier writes the verification token to the structured log.
//
// It is the delivery channel until an outbound mailer is configured; operators
// read the token from the log and pass it to the member.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier returns a [LogNotifier] writing to logger.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// SendVerification logs the token together with the recipient.
func (notifier *LogNotifier) SendVerification(context context.Context, identity *Identity, token string) error {
	notifier.logger.InfoContext(context, "auth_verification_delivery",
		slog.String("user_id", identity.ID),
		slog.String("email", identity.Email),
		slog.String("verification_token", token),
	)
	return nil
}
