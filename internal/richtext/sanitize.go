package richtext

import (
	"regexp"

	"github.com/samsaffron/notion-llm/internal/notion"
)

// maxBlockTextLen keeps a rewritten block inside the API's rich text size
// limit with room for the ellipsis marker.
const maxBlockTextLen = 1900

var (
	headingHashRE = regexp.MustCompile(`^\s*#{1,6}\s*`)
	boldMarkRE    = regexp.MustCompile(`\*\*(.*?)\*\*`)
	italicMarkRE  = regexp.MustCompile(`\*(.*?)\*`)
	underMarkRE   = regexp.MustCompile(`__(.*?)__`)
	emMarkRE      = regexp.MustCompile(`_(.*?)_`)
	codeMarkRE    = regexp.MustCompile("`(.*?)`")
)

// SanitizeInline strips markdown markers from text that will be written as
// plain runs, so stray asterisks never show up literally in Notion. Heading
// blocks also lose any leading hash prefix.
func SanitizeInline(text string, blockType notion.BlockType) string {
	if blockType.Heading() {
		text = headingHashRE.ReplaceAllString(text, "")
	}
	text = boldMarkRE.ReplaceAllString(text, "$1")
	text = italicMarkRE.ReplaceAllString(text, "$1")
	text = underMarkRE.ReplaceAllString(text, "$1")
	text = emMarkRE.ReplaceAllString(text, "$1")
	text = codeMarkRE.ReplaceAllString(text, "$1")
	return text
}

// Truncate caps text at the block write limit, marking a cut with an
// ellipsis.
func Truncate(text string) string {
	runes := []rune(text)
	if len(runes) <= maxBlockTextLen {
		return text
	}
	return string(runes[:maxBlockTextLen]) + "..."
}
