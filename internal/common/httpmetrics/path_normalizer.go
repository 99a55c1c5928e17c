package httpmetrics

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	uuidRegex     = regexp.MustCompile(`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`)
	objectIDRegex = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)
)

// NormalizePath collapses identifiers so metric label cardinality stays
// bounded: UUIDs, Mongo ObjectIDs, numeric ids and Shopify GIDs.
func NormalizePath(path string) string {
	if path == "" {
		return "/"
	}

	if unescaped, err := url.PathUnescape(path); err == nil {
		path = unescaped
	}
	if idx := strings.Index(path, "gid://"); idx >= 0 {
		path = path[:idx] + "{gid}"
	}

	normalized := uuidRegex.ReplaceAllString(path, "{id}")

	parts := strings.Split(normalized, "/")
	for i, part := range parts {
		if part == "" {
			continue
		}
		if part == "{gid}" {
			continue
		}
		if strings.HasPrefix(part, "{") || isNumeric(part) || objectIDRegex.MatchString(part) {
			parts[i] = "{param}"
		}
	}

	result := strings.Join(parts, "/")
	if result == "" {
		return "/"
	}

	return result
}

func isNumeric(s string) bool {
	if len(s) == 0 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
