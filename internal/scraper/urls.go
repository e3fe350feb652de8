package scraper

import (
	"fmt"
	"net/url"
	"strings"
)

// CanonicalURL resolves raw against base and drops the query string and fragment.
func CanonicalURL(base, raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty URL")
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse %q: %w", raw, err)
	}
	if base != "" {
		bu, err := url.Parse(base)
		if err != nil {
			return "", fmt.Errorf("parse base %q: %w", base, err)
		}
		ref = bu.ResolveReference(ref)
	}
	ref.RawQuery = ""
	ref.ForceQuery = false
	ref.Fragment = ""
	return ref.String(), nil
}

// PageURL returns the URL of one page of a paginated article.
func PageURL(articleURL string, page int) string {
	return fmt.Sprintf("%s?page=%d", articleURL, page)
}
