// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// dummyHash is compared against when an account does not exist, so the
// not-found path spends the same bcrypt work as a wrong password.
var dummyHash = mustHash("quizdesk-timing-equalizer")

// HashPassword hashes a plain-text password using the bcrypt algorithm.
func HashPassword(plainTextPassword string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(plainTextPassword), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("auth: failed to hash password: %w", err)
	}
	return string(hashedBytes), nil
}

// CheckPasswordHash compares a plain-text password with its hashed version.
func CheckPasswordHash(plainTextPassword, existingHash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(existingHash), []byte(plainTextPassword))
	return err == nil
}

// # Hasher Capability

// BcryptHasher exposes the package functions through a value that services
// can receive as an interface.
type BcryptHasher struct{}

// Hash implements the password hashing capability.
func (BcryptHasher) Hash(plainTextPassword string) (string, error) {
	return HashPassword(plainTextPassword)
}

// Compare implements the password verification capability.
func (BcryptHasher) Compare(plainTextPassword, existingHash string) bool {
	return CheckPasswordHash(plainTextPassword, existingHash)
}

// CompareDummy burns one bcrypt comparison and always reports false.
func (BcryptHasher) CompareDummy(plainTextPassword string) bool {
	_ = CheckPasswordHash(plainTextPassword, dummyHash)
	return false
}

func mustHash(plainTextPassword string) string {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plainTextPassword), bcrypt.DefaultCost)
	if err != nil {
		panic("sec: failed to prepare dummy hash: " + err.Error())
	}
	return string(hashed)
}
