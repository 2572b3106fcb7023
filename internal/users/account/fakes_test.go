// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account_test

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/taibuivan/quizdesk/internal/platform/apperr"
	"github.com/taibuivan/quizdesk/internal/platform/sec"
	"github.com/taibuivan/quizdesk/internal/users/account"
	"github.com/taibuivan/quizdesk/internal/users/auth"
	"github.com/taibuivan/quizdesk/pkg/pagination"
)

type memoryAccounts struct {
	mu   sync.Mutex
	byID map[string]*auth.Identity
}

func newMemoryAccounts(identities ...*auth.Identity) *memoryAccounts {
	store := &memoryAccounts{byID: map[string]*auth.Identity{}}
	for _, identity := range identities {
		store.byID[identity.ID] = identity
	}
	return store
}

func (store *memoryAccounts) List(_ context.Context, filter account.Filter, page pagination.Params) ([]*auth.Identity, int, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	var matched []*auth.Identity
	for _, identity := range store.byID {
		if len(filter.Roles) > 0 && !slices.Contains(filter.Roles, string(identity.Role)) {
			continue
		}
		if len(filter.Statuses) > 0 && !slices.Contains(filter.Statuses, string(identity.Status)) {
			continue
		}
		clone := *identity
		matched = append(matched, &clone)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	start := min(page.Offset(), len(matched))
	end := min(start+page.Limit, len(matched))
	return matched[start:end], len(matched), nil
}

func (store *memoryAccounts) FindByID(_ context.Context, id string) (*auth.Identity, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	identity, ok := store.byID[id]
	if !ok {
		return nil, apperr.NotFound("User")
	}
	clone := *identity
	return &clone, nil
}

func (store *memoryAccounts) UpdateProfile(_ context.Context, identity *auth.Identity) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	stored, ok := store.byID[identity.ID]
	if !ok || stored.Status.IsDeleted() {
		return apperr.NotFound("User")
	}
	stored.Name = identity.Name
	stored.Phone = identity.Phone
	return nil
}

func (store *memoryAccounts) UpdateRole(_ context.Context, id string, role sec.UserRole) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	stored, ok := store.byID[id]
	if !ok || stored.Status.IsDeleted() {
		return apperr.NotFound("User")
	}
	stored.Role = role
	return nil
}

func (store *memoryAccounts) SoftDelete(_ context.Context, id string) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	stored, ok := store.byID[id]
	if !ok {
		return apperr.NotFound("User")
	}
	stored.Status = sec.StatusDeleted
	return nil
}

func (store *memoryAccounts) get(id string) auth.Identity {
	store.mu.Lock()
	defer store.mu.Unlock()
	return *store.byID[id]
}

type memoryHistory struct {
	records []*auth.LoginRecord
}

func (history *memoryHistory) ListByIdentity(_ context.Context, identityID string, page pagination.Params) ([]*auth.LoginRecord, int, error) {
	var owned []*auth.LoginRecord
	for _, record := range history.records {
		if record.IdentityID == identityID {
			owned = append(owned, record)
		}
	}
	start := min(page.Offset(), len(owned))
	end := min(start+page.Limit, len(owned))
	return owned[start:end], len(owned), nil
}

func member(id string, role sec.UserRole, status sec.AccountStatus) *auth.Identity {
	return &auth.Identity{
		ID:           id,
		Email:        id + "@quizdesk.app",
		PasswordHash: "secret-hash",
		Name:         "Member " + id,
		Role:         role,
		Status:       status,
		CreatedAt:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}
