// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/taibuivan/quizdesk/internal/platform/apperr"
	"github.com/taibuivan/quizdesk/internal/platform/sec"
	"github.com/taibuivan/quizdesk/internal/users/auth"
	"github.com/taibuivan/quizdesk/pkg/pagination"
)

var errStoreDown = errors.New("connection refused")

// # Identity Store

type memoryIdentities struct {
	mu       sync.Mutex
	byID     map[string]*auth.Identity
	calls    int
	failWith error
}

func newMemoryIdentities(identities ...*auth.Identity) *memoryIdentities {
	store := &memoryIdentities{byID: map[string]*auth.Identity{}}
	for _, identity := range identities {
		store.byID[identity.ID] = identity
	}
	return store
}

func (store *memoryIdentities) FindByID(_ context.Context, id string) (*auth.Identity, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.calls++
	if store.failWith != nil {
		return nil, store.failWith
	}
	identity, ok := store.byID[id]
	if !ok {
		return nil, apperr.NotFound("User")
	}
	clone := *identity
	return &clone, nil
}

func (store *memoryIdentities) FindByEmail(_ context.Context, email string) (*auth.Identity, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.calls++
	if store.failWith != nil {
		return nil, store.failWith
	}
	for _, identity := range store.byID {
		if identity.Email == email {
			clone := *identity
			return &clone, nil
		}
	}
	return nil, apperr.NotFound("User")
}

func (store *memoryIdentities) Create(_ context.Context, identity *auth.Identity) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.calls++
	for _, existing := range store.byID {
		if existing.Email == identity.Email {
			return apperr.Conflict("Email is already registered")
		}
	}
	clone := *identity
	store.byID[identity.ID] = &clone
	return nil
}

func (store *memoryIdentities) MarkVerified(_ context.Context, id string) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.calls++
	identity, ok := store.byID[id]
	if !ok || identity.Status != sec.StatusPending {
		return apperr.NotFound("Pending account")
	}
	identity.Status = sec.StatusVerified
	return nil
}

func (store *memoryIdentities) get(id string) *auth.Identity {
	store.mu.Lock()
	defer store.mu.Unlock()
	return store.byID[id]
}

// # Login Record Store

type memoryRecords struct {
	mu         sync.Mutex
	records    []*auth.LoginRecord
	failInsert error
}

func (store *memoryRecords) Insert(_ context.Context, record *auth.LoginRecord) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.failInsert != nil {
		return store.failInsert
	}
	clone := *record
	store.records = append(store.records, &clone)
	return nil
}

func (store *memoryRecords) Close(_ context.Context, recordID string, closedAt time.Time) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	for _, record := range store.records {
		if record.ID == recordID {
			stamp := closedAt
			record.ClosedAt = &stamp
			return nil
		}
	}
	return apperr.NotFound("Login record")
}

func (store *memoryRecords) MostRecent(_ context.Context, identityID string) (*auth.LoginRecord, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	var newest *auth.LoginRecord
	for _, record := range store.records {
		if record.IdentityID != identityID {
			continue
		}
		if newest == nil || !record.OpenedAt.Before(newest.OpenedAt) {
			newest = record
		}
	}
	if newest == nil {
		return nil, apperr.NotFound("Login record")
	}
	clone := *newest
	return &clone, nil
}

func (store *memoryRecords) ListByIdentity(_ context.Context, identityID string, page pagination.Params) ([]*auth.LoginRecord, int, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	var owned []*auth.LoginRecord
	for _, record := range store.records {
		if record.IdentityID == identityID {
			owned = append(owned, record)
		}
	}
	sort.Slice(owned, func(i, j int) bool { return owned[i].OpenedAt.After(owned[j].OpenedAt) })

	start := min(page.Offset(), len(owned))
	end := min(start+page.Limit, len(owned))
	return owned[start:end], len(owned), nil
}

func (store *memoryRecords) all() []*auth.LoginRecord {
	store.mu.Lock()
	defer store.mu.Unlock()
	return append([]*auth.LoginRecord(nil), store.records...)
}

// # Verification Token Store

type memoryTokens struct {
	mu     sync.Mutex
	tokens map[string]string
	ttl    time.Duration
}

func newMemoryTokens() *memoryTokens {
	return &memoryTokens{tokens: map[string]string{}}
}

func (store *memoryTokens) Set(_ context.Context, token string, identityID string, ttl time.Duration) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.tokens[token] = identityID
	store.ttl = ttl
	return nil
}

func (store *memoryTokens) Consume(_ context.Context, token string) (string, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	identityID, ok := store.tokens[token]
	if !ok {
		return "", apperr.NotFound("Verification token")
	}
	delete(store.tokens, token)
	return identityID, nil
}

func (store *memoryTokens) only() (string, string) {
	store.mu.Lock()
	defer store.mu.Unlock()
	for token, identityID := range store.tokens {
		return token, identityID
	}
	return "", ""
}

// # Notifier

type delivery struct {
	identity *auth.Identity
	token    string
}

type recordingNotifier struct {
	mu         sync.Mutex
	deliveries []delivery
	err        error
}

func (notifier *recordingNotifier) SendVerification(_ context.Context, identity *auth.Identity, token string) error {
	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	notifier.deliveries = append(notifier.deliveries, delivery{identity: identity, token: token})
	return notifier.err
}

func (notifier *recordingNotifier) all() []delivery {
	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	return append([]delivery(nil), notifier.deliveries...)
}

// # Hasher

// plainHasher prefixes instead of hashing so tests stay fast.
type plainHasher struct {
	mu       sync.Mutex
	compares int
	dummies  int
}

func (hasher *plainHasher) Hash(password string) (string, error) {
	return "hashed:" + password, nil
}

func (hasher *plainHasher) Compare(password, hash string) bool {
	hasher.mu.Lock()
	hasher.compares++
	hasher.mu.Unlock()
	return strings.TrimPrefix(hash, "hashed:") == password && strings.HasPrefix(hash, "hashed:")
}

func (hasher *plainHasher) CompareDummy(string) bool {
	hasher.mu.Lock()
	hasher.dummies++
	hasher.mu.Unlock()
	return false
}

// work is the number of comparisons spent, real or dummy.
func (hasher *plainHasher) work() int {
	hasher.mu.Lock()
	defer hasher.mu.Unlock()
	return hasher.compares + hasher.dummies
}

// # Fixtures

func seededIdentity(id, email, password string, role sec.UserRole, status sec.AccountStatus) *auth.Identity {
	return &auth.Identity{
		ID:           id,
		Email:        email,
		PasswordHash: "hashed:" + password,
		Name:         "Member " + id,
		Role:         role,
		Status:       status,
		CreatedAt:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}
