// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"github.com/mssola/useragent"
)

// unknownFamily is recorded when the User-Agent header is absent or unrecognised.
const unknownFamily = "unknown"

// ParseOrigin derives the login-record origin from a client IP and User-Agent.
//
// Only families are kept (e.g. "Windows 10", "Chrome"), never full version strings.
func ParseOrigin(ip, userAgent string) Origin {
	origin := Origin{IP: ip, OS: unknownFamily, Browser: unknownFamily}
	if userAgent == "" {
		return origin
	}

	agent := useragent.New(userAgent)

	if os := agent.OSInfo().Name; os != "" {
		origin.OS = os
	}

	browser, _ := agent.Browser()
	switch {
	case agent.Bot():
		origin.Browser = "bot"
	case browser != "":
		origin.Browser = browser
	}

	return origin
}
