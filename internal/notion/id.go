package notion

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var hexIDPattern = regexp.MustCompile(`[a-f0-9]{32}`)

// ParsePageID extracts a page ID from the forms people paste:
//
//   - raw 32-char hex, with or without dashes
//   - share URLs (notion.so / notion.site), with or without a title slug
//   - scrape file names like "Some-Title-<id>"
//
// The result is the dashed UUID form the API accepts everywhere.
func ParsePageID(input string) (string, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return "", fmt.Errorf("empty page reference")
	}

	if compact := strings.ReplaceAll(s, "-", ""); hexIDPattern.MatchString(strings.ToLower(compact)) && len(compact) == 32 {
		return formatAsUUID(strings.ToLower(compact)), nil
	}

	// For URLs only the path matters; query strings carry view IDs that
	// must not win over the page ID.
	candidate := s
	if strings.Contains(s, "://") {
		if u, err := url.Parse(s); err == nil {
			candidate = u.Path
		}
	}

	matches := hexIDPattern.FindAllString(strings.ToLower(candidate), -1)
	if len(matches) == 0 {
		return "", fmt.Errorf("no page ID found in %q", input)
	}
	return formatAsUUID(matches[len(matches)-1]), nil
}

// formatAsUUID inserts dashes into a 32-char hex ID (8-4-4-4-12).
func formatAsUUID(raw string) string {
	return strings.Join([]string{
		raw[0:8], raw[8:12], raw[12:16], raw[16:20], raw[20:32],
	}, "-")
}

// ShortID returns the first 8 hex characters of an ID, the form used in
// file names and progress lines.
func ShortID(id string) string {
	compact := strings.ReplaceAll(id, "-", "")
	if len(compact) > 8 {
		return compact[:8]
	}
	return compact
}
