// Package richtext rebuilds Notion rich text arrays around model-rewritten
// content. It extracts a formatting profile from the original spans, parses
// the hybrid markdown and color-tag markup models are asked to emit, and
// reconciles the result so emoji, links, and annotations survive the trip.
package richtext

import (
	"unicode"

	"github.com/samsaffron/notion-llm/internal/notion"
)

// emojiRuneFloor is the lowest code point accepted as an emoji when it is
// the only non-ASCII rune at the start of a block. Longer non-ASCII runs
// and runs followed by a space are kept regardless, so symbol-plus-variation
// sequences work while accented letters are left alone.
const emojiRuneFloor = 0x1F300

// SpanStyle records the text and formatting of one original rich text run.
type SpanStyle struct {
	Text        string
	Annotations notion.Annotations
	LinkURL     string
}

// Formatted reports whether the span carries any annotation or link.
func (s SpanStyle) Formatted() bool {
	return s.LinkURL != "" || !s.Annotations.Plain()
}

// LinkRef is a link found in the original spans.
type LinkRef struct {
	Text string
	URL  string
}

// ColorUse collects the sample texts seen for one color, in span order.
type ColorUse struct {
	Name    string
	Samples []string
}

// Profile summarizes the formatting of a block's rich text so it can be
// described to a model up front and restored after the rewrite.
type Profile struct {
	LeadingEmoji     string
	HasBold          bool
	HasItalic        bool
	HasStrikethrough bool
	HasUnderline     bool
	HasCode          bool
	Colors           []ColorUse
	Links            []LinkRef
	Spans            []SpanStyle
}

// HasColors reports whether any span used a non-default color.
func (p *Profile) HasColors() bool { return len(p.Colors) > 0 }

// HasLinks reports whether any span carried a link.
func (p *Profile) HasLinks() bool { return len(p.Links) > 0 }

// Extract builds a formatting profile from a block's rich text runs.
func Extract(spans []notion.RichText) *Profile {
	p := &Profile{}
	if len(spans) == 0 {
		return p
	}
	p.LeadingEmoji = leadingEmoji(spans[0].Content())
	for _, span := range spans {
		ann := span.Annotations
		if ann.Bold {
			p.HasBold = true
		}
		if ann.Italic {
			p.HasItalic = true
		}
		if ann.Strikethrough {
			p.HasStrikethrough = true
		}
		if ann.Underline {
			p.HasUnderline = true
		}
		if ann.Code {
			p.HasCode = true
		}
		text := span.Content()
		if ann.Color != "" && ann.Color != "default" {
			p.recordColor(ann.Color, text)
		}
		if url := span.LinkURL(); url != "" {
			p.Links = append(p.Links, LinkRef{Text: text, URL: url})
		}
		if text != "" {
			p.Spans = append(p.Spans, SpanStyle{
				Text:        text,
				Annotations: ann,
				LinkURL:     span.LinkURL(),
			})
		}
	}
	return p
}

func (p *Profile) recordColor(name, sample string) {
	for i := range p.Colors {
		if p.Colors[i].Name == name {
			p.Colors[i].Samples = append(p.Colors[i].Samples, sample)
			return
		}
	}
	p.Colors = append(p.Colors, ColorUse{Name: name, Samples: []string{sample}})
}

// leadingEmoji returns the emoji sequence that opens content, or "".
// A run of non-ASCII runes counts as an emoji when it is longer than one
// rune, is followed by a space separator, or starts at emojiRuneFloor or
// above. The separator itself is not part of the result.
func leadingEmoji(content string) string {
	runes := []rune(content)
	if len(runes) == 0 || runes[0] <= unicode.MaxASCII {
		return ""
	}
	end := 1
	for end < len(runes) && runes[end] > unicode.MaxASCII {
		end++
	}
	separated := end < len(runes) && runes[end] == ' '
	if runes[0] >= emojiRuneFloor || end > 1 || separated {
		return string(runes[:end])
	}
	return ""
}
