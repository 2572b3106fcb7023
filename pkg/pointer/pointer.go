// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package pointer provides generic helpers for optional (pointer) fields.
package pointer

// To returns a pointer to a copy of v.
func To[T any](v T) *T {
	return &v
}

// Map applies transform to the pointee and returns a pointer to the result.
// A nil pointer stays nil.
func Map[T any, U any](p *T, transform func(T) U) *U {
	if p == nil {
		return nil
	}
	return To(transform(*p))
}
