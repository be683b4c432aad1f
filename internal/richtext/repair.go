package richtext

import (
	"regexp"
	"strings"
)

const colorClose = "[/color]"

var (
	colorOpenRE         = regexp.MustCompile(`\[color:(\w+)\]`)
	linkTokenRE         = regexp.MustCompile(`\[[^\]]+\]\([^)]+\)`)
	boldLinkColorTailRE = regexp.MustCompile(`(\*\*\[[^\]]+\]\([^)]+\)\*\*)[^\[]*?\[/color\]`)
	tripleOpenRE        = regexp.MustCompile(`\*\*\*[^*]+\*\*`)
	spaceRunRE          = regexp.MustCompile(`\s+`)
)

// Repair fixes the markup slips models commonly make before parsing runs:
// doubled links, color tags that never close, stray closing tags, bold
// italic runs missing their last asterisk, and runs of whitespace.
func Repair(text string) string {
	if text == "" {
		return text
	}
	s := strings.TrimSpace(text)
	s = dedupeLinks(s)
	s = boldLinkColorTailRE.ReplaceAllString(s, "$1")
	s = balanceColorTags(s)
	s = fixBoldItalicRuns(s)
	s = spaceRunRE.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// dedupeLinks collapses immediately repeated identical [text](url) tokens
// into one.
func dedupeLinks(s string) string {
	matches := linkTokenRE.FindAllStringIndex(s, -1)
	if len(matches) < 2 {
		return s
	}
	var b strings.Builder
	last := 0
	prevEnd := -1
	prevText := ""
	for _, m := range matches {
		text := s[m[0]:m[1]]
		if m[0] == prevEnd && text == prevText {
			b.WriteString(s[last:m[0]])
			last = m[1]
			prevEnd = m[1]
			continue
		}
		prevEnd = m[1]
		prevText = text
	}
	b.WriteString(s[last:])
	return b.String()
}

// balanceColorTags drops [/color] tags with no open tag before them and
// closes any tag still open at the end of the text.
func balanceColorTags(s string) string {
	opens := colorOpenRE.FindAllStringIndex(s, -1)
	var b strings.Builder
	b.Grow(len(s) + len(colorClose))
	depth := 0
	oi := 0
	for i := 0; i < len(s); {
		if oi < len(opens) && opens[oi][0] == i {
			depth++
			b.WriteString(s[opens[oi][0]:opens[oi][1]])
			i = opens[oi][1]
			oi++
			continue
		}
		if strings.HasPrefix(s[i:], colorClose) {
			if depth > 0 {
				depth--
				b.WriteString(colorClose)
			}
			i += len(colorClose)
			continue
		}
		b.WriteByte(s[i])
		i++
	}
	for ; depth > 0; depth-- {
		b.WriteString(colorClose)
	}
	return b.String()
}

// fixBoldItalicRuns turns ***text** into ***text*** when the run is not
// already closed by a third asterisk.
func fixBoldItalicRuns(s string) string {
	matches := tripleOpenRE.FindAllStringIndex(s, -1)
	if matches == nil {
		return s
	}
	var b strings.Builder
	last := 0
	for _, m := range matches {
		if m[1] < len(s) && s[m[1]] == '*' {
			continue
		}
		b.WriteString(s[last:m[1]])
		b.WriteByte('*')
		last = m[1]
	}
	b.WriteString(s[last:])
	return b.String()
}
