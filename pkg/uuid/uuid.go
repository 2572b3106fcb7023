// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package uuid generates the time-ordered identifiers used as primary keys.

Every account and login record id is a UUID version 7, so rows inserted later
sort later and B-tree indexes stay append-mostly.
*/
package uuid

import "github.com/google/uuid"

// New generates a new UUIDv7 string.
func New() string {
	id, err := uuid.NewV7()

	// entropy failure is an unrecoverable system-level error
	if err != nil {
		panic("uuid: failed to generate UUIDv7: " + err.Error())
	}

	return id.String()
}

// canonicalLength is the length of the hyphenated 8-4-4-4-12 form.
const canonicalLength = 36

// IsValid reports whether value is a UUID of any version in the hyphenated
// 8-4-4-4-12 form. Braced, URN and unhyphenated forms are rejected.
func IsValid(value string) bool {
	if len(value) != canonicalLength {
		return false
	}
	_, err := uuid.Parse(value)
	return err == nil
}
