// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/taibuivan/quizdesk/internal/platform/apperr"
	"github.com/taibuivan/quizdesk/pkg/pagination"
	"github.com/taibuivan/quizdesk/pkg/uuid"
)

// # Login Trail

// Trail appends and closes login records.
//
// It never deletes a record; the trail is the audit history of every login.
type Trail struct {
	records LoginRecordRepository
	now     func() time.Time
}

// TrailOption customises a [Trail].
type TrailOption func(*Trail)

// WithTrailClock overrides the time source for opened_at and closed_at.
func WithTrailClock(now func() time.Time) TrailOption {
	return func(trail *Trail) {
		trail.now = now
	}
}

// NewTrail constructs a [Trail] over records.
func NewTrail(records LoginRecordRepository, options ...TrailOption) *Trail {
	trail := &Trail{records: records, now: time.Now}
	for _, option := range options {
		option(trail)
	}
	return trail
}

/*
Open appends a new open record for a successful login.

Parameters:
  - context: context.Context
  - identityID: string
  - email: string
  - origin: Origin

Returns:
  - *LoginRecord: The persisted record
  - error: Persistence failures
*/
func (trail *Trail) Open(context context.Context, identityID, email string, origin Origin) (*LoginRecord, error) {
	record := &LoginRecord{
		ID:         uuid.New(),
		IdentityID: identityID,
		Email:      email,
		OpenedAt:   trail.now().UTC(),
		IP:         origin.IP,
		OS:         origin.OS,
		Browser:    origin.Browser,
	}

	if err := trail.records.Insert(context, record); err != nil {
		return nil, fmt.Errorf("auth_trail_open_failed: %w", err)
	}

	return record, nil
}

/*
Close stamps closed_at=now on one record. Closing twice overwrites the
earlier timestamp.

Parameters:
  - context: context.Context
  - recordID: string

Returns:
  - error: apperr.NotFound or persistence failures
*/
func (trail *Trail) Close(context context.Context, recordID string) error {
	if err := trail.records.Close(context, recordID, trail.now().UTC()); err != nil {
		if apperr.HasCode(err, apperr.CodeNotFound) {
			return err
		}
		return fmt.Errorf("auth_trail_close_failed: %w", err)
	}
	return nil
}

/*
MostRecentOpenOrAny returns the identity's newest record by opened_at.

Description: The newest record is returned whether or not it is still open.
It is the record a logout closes.

Parameters:
  - context: context.Context
  - identityID: string

Returns:
  - *LoginRecord: Newest record
  - error: apperr.NotFound when the identity has no records
*/
func (trail *Trail) MostRecentOpenOrAny(context context.Context, identityID string) (*LoginRecord, error) {
	record, err := trail.records.MostRecent(context, identityID)
	if err != nil {
		if apperr.HasCode(err, apperr.CodeNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("auth_trail_most_recent_failed: %w", err)
	}
	return record, nil
}

/*
ListByIdentity returns one page of an identity's login history.

Parameters:
  - context: context.Context
  - identityID: string
  - page: pagination.Params

Returns:
  - []*LoginRecord: Page content, newest first
  - int: Total count
  - error: Retrieval failures
*/
func (trail *Trail) ListByIdentity(context context.Context, identityID string, page pagination.Params) ([]*LoginRecord, int, error) {
	records, total, err := trail.records.ListByIdentity(context, identityID, page)
	if err != nil {
		return nil, 0, fmt.Errorf("auth_trail_list_failed: %w", err)
	}
	return records, total, nil
}
