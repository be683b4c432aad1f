package richtext

import (
	"fmt"
	"strings"
)

const (
	describeSampleLen = 20
	describeLinkLen   = 30
	describeComboLen  = 15
	describeMaxLinks  = 3
)

// Describe renders a profile as the bullet list fed to the model so it
// knows what formatting the original block carried.
func Describe(p *Profile) string {
	var details []string

	if p.LeadingEmoji != "" {
		details = append(details, fmt.Sprintf("- Starts with emoji: '%s'", p.LeadingEmoji))
	}

	var flags []string
	if p.HasBold {
		flags = append(flags, "bold text")
	}
	if p.HasItalic {
		flags = append(flags, "italic text")
	}
	if p.HasStrikethrough {
		flags = append(flags, "strikethrough text")
	}
	if p.HasUnderline {
		flags = append(flags, "underlined text")
	}
	if p.HasCode {
		flags = append(flags, "code formatting")
	}
	if len(flags) > 0 {
		details = append(details, "- Contains: "+strings.Join(flags, ", "))
	}

	if len(p.Colors) > 0 {
		var colors []string
		for _, c := range p.Colors {
			sample := clip(c.Samples[0], describeSampleLen)
			colors = append(colors, fmt.Sprintf("[color:%s]%s[/color]", c.Name, sample))
		}
		details = append(details, "- Original colors to preserve: "+strings.Join(colors, ", "))
	}

	if len(p.Links) > 0 {
		var links []string
		for _, l := range p.Links {
			if len(links) == describeMaxLinks {
				break
			}
			links = append(links, fmt.Sprintf("'%s' → %s...", clip(l.Text, describeSampleLen), prefix(l.URL, describeLinkLen)))
		}
		details = append(details,
			fmt.Sprintf("- Contains %d link(s): %s", len(p.Links), strings.Join(links, ", ")),
			"- CRITICAL: Keep these links intact in your response")
	}

	if combos := describeCombos(p.Spans); len(combos) > 0 {
		details = append(details, "- Formatting patterns: "+strings.Join(combos, ", "))
	}

	if len(details) == 0 {
		return "- Plain text, no special formatting"
	}
	return strings.Join(details, "\n")
}

// describeCombos groups formatted spans by their annotation combination and
// returns one "combo ('sample')" entry per combination, in span order.
func describeCombos(spans []SpanStyle) []string {
	var order []string
	samples := map[string]string{}
	for _, span := range spans {
		if !span.Formatted() {
			continue
		}
		var parts []string
		if span.Annotations.Bold {
			parts = append(parts, "bold")
		}
		if span.Annotations.Italic {
			parts = append(parts, "italic")
		}
		if span.Annotations.Code {
			parts = append(parts, "code")
		}
		if c := span.Annotations.Color; c != "" && c != "default" {
			parts = append(parts, c+"-colored")
		}
		if span.LinkURL != "" {
			parts = append(parts, "linked")
		}
		combo := "plain"
		if len(parts) > 0 {
			combo = strings.Join(parts, "+")
		}
		if _, seen := samples[combo]; !seen {
			order = append(order, combo)
			samples[combo] = clip(span.Text, describeComboLen)
		}
	}
	out := make([]string, 0, len(order))
	for _, combo := range order {
		out = append(out, fmt.Sprintf("%s ('%s')", combo, samples[combo]))
	}
	return out
}

// clip shortens s to at most n runes, marking a cut with an ellipsis.
func clip(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

// prefix returns the first n runes of s with no ellipsis handling.
func prefix(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
