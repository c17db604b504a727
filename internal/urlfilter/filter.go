// Package urlfilter classifies raw link strings found on crawled pages.
// Every function here is pure: it decides whether a link is worth crawling
// and rewrites relative links into absolute ones, without touching the network.
package urlfilter

import (
	"net/url"
	"path"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// extensionPattern matches a final path segment that names a file, e.g. "app.js".
var extensionPattern = regexp.MustCompile(`^.+\.[a-zA-Z]+$`)

// Filter returns raw unchanged when it is a crawlable absolute http(s) URL.
// It rejects strings that do not parse, lack a host, use another scheme,
// carry a fragment, contain binary data in host or path, or are
// javascript pseudo-links.
func Filter(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}

	if u.Host == "" {
		return "", false
	}

	// In-page jump
	if u.Fragment != "" {
		return "", false
	}

	if !isText(u.Host) || !isText(u.Path) {
		return "", false
	}

	if strings.Contains(strings.ToLower(u.Host), "javascript") ||
		strings.Contains(strings.ToLower(u.Path), "javascript") {
		return "", false
	}

	return raw, true
}

// ResolveRelative turns href into an absolute URL against scheme://netloc.
// Hrefs that already name a host pass through untouched; hrefs with neither
// a host nor a path are dropped.
func ResolveRelative(href, scheme, netloc string) (string, bool) {
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}

	if ref.Host != "" {
		return href, true
	}

	if ref.Path == "" {
		return "", false
	}

	base := &url.URL{Scheme: scheme, Host: netloc}
	return base.ResolveReference(ref).String(), true
}

// HasFileExtension reports whether the last segment of p looks like a file
// name with a dot-extension.
func HasFileExtension(p string) bool {
	if p == "" || strings.HasSuffix(p, "/") {
		return false
	}
	return extensionPattern.MatchString(path.Base(p))
}

// ContainsSkipWord reports whether any non-empty word occurs in rawURL
func ContainsSkipWord(rawURL string, words []string) bool {
	for _, word := range words {
		if word != "" && strings.Contains(rawURL, word) {
			return true
		}
	}
	return false
}

func isText(s string) bool {
	if !utf8.ValidString(s) {
		return false
	}
	for _, r := range s {
		if unicode.IsControl(r) {
			return false
		}
	}
	return true
}
