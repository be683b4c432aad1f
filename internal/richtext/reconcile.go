package richtext

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/samsaffron/notion-llm/internal/notion"
)

const (
	// minLinkTextLen is the shortest original link text worth re-anchoring
	// in rewritten content. Shorter fragments match too loosely.
	minLinkTextLen = 3

	// similarityThreshold is the word overlap above which rewritten text is
	// considered the same passage and keeps the original lead formatting.
	similarityThreshold = 0.6

	// formattedPrefixCap bounds how much of the rewritten text inherits the
	// original first span's annotations in the fallback path.
	formattedPrefixCap = 50
)

// Reconcile turns model output back into rich text for a block. The leading
// emoji is restored when the model dropped it, the hybrid markup is parsed
// into runs, and links from the original spans are reattached wherever their
// text survived the rewrite.
func Reconcile(enhanced string, original []notion.RichText, profile *Profile) []notion.RichText {
	if profile != nil && profile.LeadingEmoji != "" && !strings.HasPrefix(enhanced, profile.LeadingEmoji) {
		enhanced = profile.LeadingEmoji + " " + strings.TrimLeftFunc(enhanced, unicode.IsSpace)
	}
	spans := ParseMarkup(enhanced)
	reattachLinks(spans, original)
	return spans
}

// reattachLinks puts each original link back onto the first run that still
// contains its text. Longer link texts claim their runs first so a short
// anchor that is a substring of a fuller one cannot steal its span, and a
// case-insensitive pass catches anchors the rewrite re-cased. Link texts at
// or under minLinkTextLen runes are skipped.
func reattachLinks(spans, original []notion.RichText) {
	type anchor struct {
		text string
		url  string
	}
	var anchors []anchor
	for _, orig := range original {
		url := orig.LinkURL()
		if url == "" {
			continue
		}
		linkText := strings.TrimSpace(orig.Content())
		if utf8.RuneCountInString(linkText) <= minLinkTextLen {
			continue
		}
		valid, ok := ValidateURL(url)
		if !ok {
			continue
		}
		anchors = append(anchors, anchor{text: linkText, url: valid})
	}
	sort.SliceStable(anchors, func(i, j int) bool {
		return utf8.RuneCountInString(anchors[i].text) > utf8.RuneCountInString(anchors[j].text)
	})
	for _, a := range anchors {
		if !attachLink(spans, a.text, a.url, false) {
			attachLink(spans, a.text, a.url, true)
		}
	}
}

func attachLink(spans []notion.RichText, linkText, url string, fold bool) bool {
	needle := linkText
	if fold {
		needle = strings.ToLower(linkText)
	}
	for i := range spans {
		if spans[i].Text == nil || spans[i].Text.Link != nil {
			continue
		}
		hay := spans[i].Text.Content
		if fold {
			hay = strings.ToLower(hay)
		}
		if strings.Contains(hay, needle) {
			spans[i].Text.Link = &notion.Link{URL: url}
			return true
		}
	}
	return false
}

// WordSimilarity measures overlap between two texts as the number of shared
// distinct words over the larger word count. Comparison is case-insensitive.
func WordSimilarity(a, b string) float64 {
	aw := strings.Fields(strings.ToLower(a))
	bw := strings.Fields(strings.ToLower(b))
	if len(aw) == 0 || len(bw) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(aw))
	for _, w := range aw {
		set[w] = struct{}{}
	}
	shared := 0
	counted := make(map[string]struct{}, len(bw))
	for _, w := range bw {
		if _, ok := set[w]; !ok {
			continue
		}
		if _, dup := counted[w]; dup {
			continue
		}
		counted[w] = struct{}{}
		shared++
	}
	denom := len(aw)
	if len(bw) > denom {
		denom = len(bw)
	}
	return float64(shared) / float64(denom)
}

// MapToStructure rebuilds spans for rewritten text without a markup pass.
// Text similar to the original keeps the first span's formatting on a short
// prefix; anything else becomes a single plain run.
func MapToStructure(enhanced string, original []notion.RichText) []notion.RichText {
	originalText := notion.PlainText(original)
	if enhanced != "" && originalText != "" && WordSimilarity(enhanced, originalText) > similarityThreshold {
		return preserveLeadingStyle(enhanced, original)
	}
	return []notion.RichText{notion.NewText(enhanced)}
}

func preserveLeadingStyle(enhanced string, original []notion.RichText) []notion.RichText {
	if len(original) == 0 || original[0].Annotations.Plain() {
		return []notion.RichText{notion.NewText(enhanced)}
	}
	words := strings.Fields(enhanced)
	if len(words) == 0 {
		return []notion.RichText{notion.NewText(enhanced)}
	}
	cut := utf8.RuneCountInString(words[0])
	if cut > formattedPrefixCap {
		cut = formattedPrefixCap
	}
	runes := []rune(enhanced)
	if cut > len(runes) {
		cut = len(runes)
	}
	head := notion.NewText(string(runes[:cut]))
	head.Annotations = original[0].Annotations
	out := []notion.RichText{head}
	if cut < len(runes) {
		out = append(out, notion.NewText(string(runes[cut:])))
	}
	return out
}

// CollectSpans gathers the original runs that carry formatting or a link so
// they can be reapplied to rewritten text with ApplySpans.
func CollectSpans(original []notion.RichText) []SpanStyle {
	var spans []SpanStyle
	for _, rt := range original {
		text := rt.Content()
		if text == "" {
			continue
		}
		s := SpanStyle{Text: text, Annotations: rt.Annotations, LinkURL: rt.LinkURL()}
		if !s.Formatted() {
			continue
		}
		spans = append(spans, s)
	}
	return spans
}

type styledRun struct {
	text string
	ann  notion.Annotations
	link string
}

// ApplySpans rebuilds rich text for text, splitting out a styled run
// wherever a preserved span's text still appears. Longer span texts are
// matched first so short fragments cannot shadow fuller ones; each span is
// applied at most once. Matching tries the exact text, then lowercase, then
// the text with spaces removed, each exactly and case-insensitively.
func ApplySpans(text string, spans []SpanStyle) []notion.RichText {
	runs := []styledRun{{text: text, ann: notion.Annotations{Color: "default"}}}

	ordered := make([]SpanStyle, len(spans))
	copy(ordered, spans)
	sort.SliceStable(ordered, func(i, j int) bool {
		return utf8.RuneCountInString(ordered[i].Text) > utf8.RuneCountInString(ordered[j].Text)
	})

	for _, span := range ordered {
		needle := strings.TrimSpace(span.Text)
		if utf8.RuneCountInString(needle) < 2 {
			continue
		}
		applySpan(&runs, needle, span)
	}

	out := make([]notion.RichText, 0, len(runs))
	for _, r := range runs {
		if r.text == "" {
			continue
		}
		rt := notion.NewText(r.text)
		rt.Annotations = r.ann
		if r.link != "" {
			rt.Text.Link = &notion.Link{URL: r.link}
		}
		out = append(out, rt)
	}
	if len(out) == 0 {
		return []notion.RichText{notion.NewText(text)}
	}
	return out
}

func applySpan(runs *[]styledRun, needle string, span SpanStyle) {
	candidates := []string{needle, strings.ToLower(needle), strings.ReplaceAll(needle, " ", "")}
	for _, search := range candidates {
		for i := range *runs {
			hay := (*runs)[i].text
			start := strings.Index(hay, search)
			end := start + len(search)
			if start == -1 {
				lhay := strings.ToLower(hay)
				lsearch := strings.ToLower(search)
				// Folded offsets only transfer when folding kept every
				// byte length, which holds for the alphabets seen here.
				if len(lhay) != len(hay) || len(lsearch) != len(search) {
					continue
				}
				pos := strings.Index(lhay, lsearch)
				if pos == -1 {
					continue
				}
				start, end = pos, pos+len(lsearch)
			}
			splitRun(runs, i, start, end, span)
			return
		}
	}
}

// splitRun cuts run idx at [start, end) and merges the span's formatting
// into the middle piece. Boolean annotations accumulate; a non-default span
// color overrides; the span link wins over an inherited one.
func splitRun(runs *[]styledRun, idx, start, end int, span SpanStyle) {
	run := (*runs)[idx]
	before, middle, after := run.text[:start], run.text[start:end], run.text[end:]

	rebuilt := make([]styledRun, 0, len(*runs)+2)
	rebuilt = append(rebuilt, (*runs)[:idx]...)
	if before != "" {
		rebuilt = append(rebuilt, styledRun{text: before, ann: run.ann, link: run.link})
	}
	if middle != "" {
		ann := run.ann
		if span.Annotations.Bold {
			ann.Bold = true
		}
		if span.Annotations.Italic {
			ann.Italic = true
		}
		if span.Annotations.Strikethrough {
			ann.Strikethrough = true
		}
		if span.Annotations.Underline {
			ann.Underline = true
		}
		if span.Annotations.Code {
			ann.Code = true
		}
		if span.Annotations.Color != "" && span.Annotations.Color != "default" {
			ann.Color = span.Annotations.Color
		}
		link := run.link
		if span.LinkURL != "" {
			link = span.LinkURL
		}
		rebuilt = append(rebuilt, styledRun{text: middle, ann: ann, link: link})
	}
	if after != "" {
		rebuilt = append(rebuilt, styledRun{text: after, ann: run.ann, link: run.link})
	}
	rebuilt = append(rebuilt, (*runs)[idx+1:]...)
	*runs = rebuilt
}
