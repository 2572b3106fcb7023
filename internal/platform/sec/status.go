// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

// # Account Status

// AccountStatus is the lifecycle state of an account.
type AccountStatus string

const (
	// StatusPending is assigned at registration until the email is confirmed.
	StatusPending AccountStatus = "pending"

	// StatusVerified marks an account whose email ownership is confirmed.
	StatusVerified AccountStatus = "verified"

	// StatusDeleted marks a soft-deleted account. Tokens carrying it are
	// rejected at the gate even before they expire.
	StatusDeleted AccountStatus = "deleted"
)

// IsDeleted reports whether the status revokes access.
func (s AccountStatus) IsDeleted() bool {
	return s == StatusDeleted
}

// IsValid reports whether s is one of the known statuses.
func (s AccountStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusVerified, StatusDeleted:
		return true
	default:
		return false
	}
}
