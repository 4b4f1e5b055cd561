package utils

import (
	"crypto/subtle"
	"net/url"
	"strings"
)

// SecretMatches compares a caller supplied secret against the expected one
// in constant time. An empty expected secret never matches.
func SecretMatches(got, want string) bool {
	if want == "" || got == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

// IsAllowedOrigin reports whether origin matches any of the patterns.
// See MatchOrigin for the pattern syntax.
func IsAllowedOrigin(origin string, patterns []string) bool {
	if origin == "" {
		return false
	}
	cleanOrigin := getCleanOrigin(origin)
	for _, pattern := range patterns {
		if MatchOrigin(cleanOrigin, pattern) {
			return true
		}
	}
	return false
}

func getCleanOrigin(originURL string) string {
	u, err := url.Parse(originURL)
	if err != nil {
		return originURL
	}
	if u.Scheme != "" && u.Host != "" {
		return u.Scheme + "://" + u.Host
	}
	return originURL
}

// MatchOrigin matches an origin against a pattern:
//
//	"*"                        everything
//	"https://example.com"      exact
//	"https://**.example.com"   the domain and its subdomains
//	"https://*.example.com"    subdomains only
func MatchOrigin(origin, pattern string) bool {
	if pattern == "*" {
		return true
	}
	if origin == pattern {
		return true
	}

	if strings.Contains(pattern, "**.") {
		base := strings.Replace(pattern, "**.", "", 1)
		if origin == base {
			return true
		}
		scheme := schemeOf(base)
		if scheme != "" && !strings.HasPrefix(origin, scheme) {
			return false
		}
		return strings.HasSuffix(origin, "."+removeProtocol(base))
	}

	if strings.Contains(pattern, "*.") {
		parts := strings.Split(pattern, "*")
		if len(parts) == 2 {
			prefix, suffix := parts[0], parts[1]
			if len(origin) > len(prefix)+len(suffix) &&
				strings.HasPrefix(origin, prefix) && strings.HasSuffix(origin, suffix) {
				middle := origin[len(prefix) : len(origin)-len(suffix)]
				if !strings.Contains(middle, "/") {
					return true
				}
			}
		}
	}

	return false
}

func schemeOf(u string) string {
	if i := strings.Index(u, "://"); i >= 0 {
		return u[:i+3]
	}
	return ""
}

func removeProtocol(urlStr string) string {
	urlStr = strings.TrimPrefix(urlStr, "https://")
	return strings.TrimPrefix(urlStr, "http://")
}
