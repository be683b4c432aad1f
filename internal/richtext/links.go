package richtext

import "strings"

// relativeIDMinLen keeps short relative paths from being mistaken for the
// page references Notion emits, which carry a 32 character hex ID.
const relativeIDMinLen = 20

// ValidateURL normalizes a link target into a form the API accepts in text
// links. Relative Notion page paths become absolute notion.so URLs. The
// second return is false when the target cannot be used at all.
func ValidateURL(raw string) (string, bool) {
	u := strings.TrimSpace(raw)
	if u == "" {
		return "", false
	}
	if strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") {
		return u, true
	}
	if id, ok := strings.CutPrefix(u, "/"); ok && len(id) > relativeIDMinLen {
		return "https://www.notion.so/" + id, true
	}
	if strings.HasPrefix(u, "mailto:") {
		return u, true
	}
	return "", false
}
