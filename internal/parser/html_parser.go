// Package parser extracts the crawl-relevant facts from an HTML document:
// the anchor targets it links to and whether it declares a web app manifest.
package parser

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// ParseResult contains the parsed HTML data
type ParseResult struct {
	// Hrefs holds every distinct anchor href in document order.
	Hrefs []string
	// PWA is set when the document carries <link rel="manifest">.
	PWA bool
}

// Extract parses htmlContent and collects anchor hrefs and manifest presence.
// Anchors without an href attribute are skipped. The manifest target file
// name is irrelevant; only the relation matters.
func Extract(htmlContent string) (*ParseResult, error) {
	root, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc := goquery.NewDocumentFromNode(root)

	result := &ParseResult{Hrefs: []string{}}
	seen := make(map[string]struct{})

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok {
			return
		}
		href = strings.TrimSpace(href)
		if _, dup := seen[href]; dup {
			return
		}
		seen[href] = struct{}{}
		result.Hrefs = append(result.Hrefs, href)
	})

	result.PWA = doc.Find("link[rel]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		rel, _ := s.Attr("rel")
		for _, token := range strings.Fields(strings.ToLower(rel)) {
			if token == "manifest" {
				return true
			}
		}
		return false
	}).Length() > 0

	return result, nil
}
