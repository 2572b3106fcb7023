// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// NormalizeEmail maps an email identifier to the form stored in users.account.
//
// The value is trimmed, NFKC-normalized and case-folded, so visually identical
// addresses typed with different Unicode forms or casing resolve to one account.
func NormalizeEmail(email string) string {
	trimmed := strings.TrimSpace(email)
	return cases.Fold().String(norm.NFKC.String(trimmed))
}
