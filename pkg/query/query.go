// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package query parses list-style URL query parameters.
package query

import (
	"net/http"
	"strings"

	"github.com/taibuivan/quizdesk/pkg/slice"
)

// StringSlice parses a single comma-separated query string
// into a trimmed slice of strings. Empty entries are dropped.
func StringSlice(val string) []string {
	if val == "" {
		return nil
	}
	return slice.Filter(slice.Map(strings.Split(val, ","), strings.TrimSpace), func(v string) bool {
		return v != ""
	})
}

// Values collects every value of key, accepting both repeated parameters
// (?role=a&role=b) and comma lists (?role=a,b).
func Values(request *http.Request, key string) []string {
	var res []string
	for _, raw := range request.URL.Query()[key] {
		res = append(res, StringSlice(raw)...)
	}
	return res
}
