package ui

import (
	"strings"

	diff "github.com/shogoki/gotextdiff"
)

// RenderUnifiedDiff renders a colorized unified diff between old and new
// text. Returns "" when the two are identical. The label names the thing
// being diffed (a block ID, a page title) in the hunk headers.
func (s *Styles) RenderUnifiedDiff(label, oldText, newText string) string {
	if oldText == newText {
		return ""
	}

	// gotextdiff wants newline-terminated inputs; block text has none.
	diffBytes := diff.Diff(label, []byte(ensureTrailingNewline(oldText)), label, []byte(ensureTrailingNewline(newText)))
	if len(diffBytes) == 0 {
		return ""
	}

	var b strings.Builder
	for _, line := range strings.Split(string(diffBytes), "\n") {
		// Skip the "diff" line and --- / +++ headers
		if strings.HasPrefix(line, "diff ") ||
			strings.HasPrefix(line, "--- ") ||
			strings.HasPrefix(line, "+++ ") {
			continue
		}
		if line == "" {
			continue
		}

		switch line[0] {
		case '@':
			b.WriteString(s.DiffHeader.Render(line))
		case '-':
			b.WriteString(s.DiffRemove.Render(line))
		case '+':
			b.WriteString(s.DiffAdd.Render(line))
		default:
			b.WriteString(s.DiffContext.Render(line))
		}
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

// HasDiff returns true if old and new content are different
func HasDiff(oldContent, newContent string) bool {
	return oldContent != newContent
}

func ensureTrailingNewline(s string) string {
	if strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}
