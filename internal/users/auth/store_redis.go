// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/quizdesk/internal/platform/apperr"
	"github.com/taibuivan/quizdesk/internal/platform/constants"
)

// # Verification Token Repository

// RedisVerificationTokenRepository implements VerificationTokenRepository using Redis.
type RedisVerificationTokenRepository struct {
	client redis.Cmdable
}

// NewVerificationTokenRepository creates a new Redis-backed VerificationTokenRepository.
func NewVerificationTokenRepository(client redis.Cmdable) *RedisVerificationTokenRepository {
	return &RedisVerificationTokenRepository{client: client}
}

/*
Set stores a verification token with its associated identity ID and TTL.

Parameters:
  - context: context.Context
  - token: string
  - identityID: string
  - ttl: time.Duration

Returns:
  - error: Storage failures
*/
func (repository *RedisVerificationTokenRepository) Set(context context.Context, token string, identityID string, ttl time.Duration) error {
	key := constants.RedisPrefixVerifyToken + token

	if err := repository.client.Set(context, key, identityID, ttl).Err(); err != nil {
		return fmt.Errorf("redis_verify_token_set_failed: %w", err)
	}

	return nil
}

/*
Consume reads and deletes the token in a single GETDEL round trip, so a
token can never be redeemed twice.

Parameters:
  - context: context.Context
  - token: string

Returns:
  - string: Identity ID
  - error: apperr.NotFound if absent or expired
*/
func (repository *RedisVerificationTokenRepository) Consume(context context.Context, token string) (string, error) {
	key := constants.RedisPrefixVerifyToken + token

	identityID, err := repository.client.GetDel(context, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", apperr.NotFound("Verification token")
		}
		return "", fmt.Errorf("redis_verify_token_consume_failed: %w", err)
	}

	return identityID, nil
}
