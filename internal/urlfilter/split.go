package urlfilter

import "strings"

// SplitHost splits a network location at its first dot into a host label and
// a domain label: "www.example.co.jp" gives ("www", "example.co.jp").
//
// Only one subdomain level is understood. "a.b.example.com" yields domain
// "b.example.com", so the domain label must not be treated as a public
// registrable domain. A netloc without any dot is returned whole as the
// domain label with an empty host label.
func SplitHost(netloc string) (host, domain string) {
	host, domain, found := strings.Cut(netloc, ".")
	if !found {
		return "", netloc
	}
	return host, domain
}
