package richtext

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/samsaffron/notion-llm/internal/notion"
)

// Markup syntax the models are prompted to use:
//
//	**bold**  *italic*  ***bold italic***  ~~strikethrough~~  `code`
//	[color:red]text[/color]  [text](url)
type tokenKind int

const (
	tokenColor tokenKind = iota
	tokenBoldItalic
	tokenBold
	tokenItalic
	tokenStrikethrough
	tokenCode
)

// colorNames maps tag color names to the Notion color enum. Unknown names
// fall back to default.
var colorNames = map[string]string{
	"red":    "red",
	"blue":   "blue",
	"green":  "green",
	"yellow": "yellow",
	"orange": "orange",
	"purple": "purple",
	"pink":   "pink",
	"gray":   "gray",
	"grey":   "gray",
	"brown":  "brown",
}

var (
	linkRE       = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
	colorSpanRE  = regexp.MustCompile(`\[color:(\w+)\](.*?)\[/color\]`)
	boldItalicRE = regexp.MustCompile(`\*\*\*(.*?)\*\*\*`)
	boldRE       = regexp.MustCompile(`\*\*(.*?)\*\*`)
	strikeRE     = regexp.MustCompile(`~~(.*?)~~`)
	codeRE       = regexp.MustCompile("`([^`]+?)`")
)

type markupToken struct {
	start, end int
	kind       tokenKind
	content    string
	color      string
}

type linkToken struct {
	text        string
	url         string
	placeholder string
}

// ParseMarkup converts hybrid markdown with color tags into rich text runs.
// The text is repaired first, then links are swapped for placeholders so
// their bodies and URLs never collide with the formatting patterns, and the
// placeholders are swapped back once the runs are built.
func ParseMarkup(text string) []notion.RichText {
	if strings.TrimSpace(text) == "" {
		return []notion.RichText{notion.NewText(text)}
	}
	repaired := Repair(text)
	working, links := extractLinks(repaired)
	spans := emitSpans(working, scanTokens(working))
	return restoreLinks(spans, links)
}

// extractLinks replaces every [text](url) with a positional placeholder.
func extractLinks(text string) (string, []linkToken) {
	matches := linkRE.FindAllStringSubmatchIndex(text, -1)
	if matches == nil {
		return text, nil
	}
	links := make([]linkToken, 0, len(matches))
	var b strings.Builder
	last := 0
	for i, m := range matches {
		lt := linkToken{
			text:        text[m[2]:m[3]],
			url:         text[m[4]:m[5]],
			placeholder: fmt.Sprintf("__LINK_%d__", i),
		}
		links = append(links, lt)
		b.WriteString(text[last:m[0]])
		b.WriteString(lt.placeholder)
		last = m[1]
	}
	b.WriteString(text[last:])
	return b.String(), links
}

// scanTokens finds every formatting token in priority order. Color tags win
// over asterisk runs, and longer asterisk runs win over shorter ones, so a
// region claimed by one pattern is dead to the rest.
func scanTokens(s string) []markupToken {
	var tokens []markupToken
	claimed := make([]bool, len(s))

	add := func(start, end int, kind tokenKind, content, color string) {
		for i := start; i < end; i++ {
			if claimed[i] {
				return
			}
		}
		for i := start; i < end; i++ {
			claimed[i] = true
		}
		tokens = append(tokens, markupToken{start: start, end: end, kind: kind, content: content, color: color})
	}

	for _, m := range colorSpanRE.FindAllStringSubmatchIndex(s, -1) {
		add(m[0], m[1], tokenColor, s[m[4]:m[5]], colorNames[strings.ToLower(s[m[2]:m[3]])])
	}
	for _, m := range boldItalicRE.FindAllStringSubmatchIndex(s, -1) {
		add(m[0], m[1], tokenBoldItalic, s[m[2]:m[3]], "")
	}
	for _, m := range boldRE.FindAllStringSubmatchIndex(s, -1) {
		add(m[0], m[1], tokenBold, s[m[2]:m[3]], "")
	}
	for _, m := range italicMatches(s) {
		add(m[0], m[1], tokenItalic, s[m[0]+1:m[1]-1], "")
	}
	for _, m := range strikeRE.FindAllStringSubmatchIndex(s, -1) {
		add(m[0], m[1], tokenStrikethrough, s[m[2]:m[3]], "")
	}
	for _, m := range codeRE.FindAllStringSubmatchIndex(s, -1) {
		add(m[0], m[1], tokenCode, s[m[2]:m[3]], "")
	}

	sort.Slice(tokens, func(i, j int) bool { return tokens[i].start < tokens[j].start })
	return tokens
}

// italicMatches finds *text* pairs whose asterisks do not butt against
// another asterisk, so the edges of bold runs never read as italic. This is
// a hand scan because the bordering rule needs a one byte look to each side
// that a single pattern cannot express.
func italicMatches(s string) [][2]int {
	var matches [][2]int
	for i := 0; i < len(s); {
		if s[i] != '*' || (i > 0 && s[i-1] == '*') {
			i++
			continue
		}
		rest := strings.IndexByte(s[i+1:], '*')
		if rest == -1 {
			break
		}
		j := i + 1 + rest
		if j == i+1 {
			// Empty body, try again from the second asterisk.
			i = j
			continue
		}
		if j+1 < len(s) && s[j+1] == '*' {
			i = j
			continue
		}
		matches = append(matches, [2]int{i, j + 1})
		i = j + 1
	}
	return matches
}

// emitSpans walks the working text left to right, turning plain stretches
// and formatting tokens into rich text runs.
func emitSpans(s string, tokens []markupToken) []notion.RichText {
	var spans []notion.RichText
	pos := 0
	for _, tok := range tokens {
		if tok.start > pos {
			spans = append(spans, notion.NewText(s[pos:tok.start]))
		}
		spans = append(spans, formatSpan(tok))
		pos = tok.end
	}
	if pos < len(s) {
		spans = append(spans, notion.NewText(s[pos:]))
	}
	if len(spans) == 0 {
		spans = append(spans, notion.NewText(s))
	}
	return spans
}

func formatSpan(tok markupToken) notion.RichText {
	rt := notion.NewText(tok.content)
	switch tok.kind {
	case tokenColor:
		if tok.color != "" {
			rt.Annotations.Color = tok.color
		}
	case tokenBoldItalic:
		rt.Annotations.Bold = true
		rt.Annotations.Italic = true
	case tokenBold:
		rt.Annotations.Bold = true
	case tokenItalic:
		rt.Annotations.Italic = true
	case tokenStrikethrough:
		rt.Annotations.Strikethrough = true
	case tokenCode:
		rt.Annotations.Code = true
	}
	return rt
}

// restoreLinks substitutes link placeholders back into the runs. A run
// picks up the link property only when its URL validates; the link text is
// kept either way. When several links land in one run the last valid URL
// wins.
func restoreLinks(spans []notion.RichText, links []linkToken) []notion.RichText {
	if len(links) == 0 {
		return spans
	}
	for i := range spans {
		if spans[i].Text == nil {
			continue
		}
		content := spans[i].Text.Content
		changed := false
		for _, link := range links {
			if !strings.Contains(content, link.placeholder) {
				continue
			}
			content = strings.ReplaceAll(content, link.placeholder, link.text)
			changed = true
			if url, ok := ValidateURL(link.url); ok {
				spans[i].Text.Link = &notion.Link{URL: url}
			}
		}
		if changed {
			spans[i].Text.Content = content
			spans[i].PlainText = content
		}
	}
	return spans
}
