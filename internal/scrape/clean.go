package scrape

import (
	"regexp"
)

// maxKeptURLLen is the longest URL worth sending to a model. Anything past
// the length of an internal page reference is hosting noise (signed AWS
// URLs and the like) that only burns prompt tokens.
var maxKeptURLLen = len("notion:/dfbf4465-01eb-4338-813f-880c4cb66889")

var (
	markdownLinkRE  = regexp.MustCompile(`\[([^\]]*)\]\(([^)]+)\)`)
	standaloneURLRE = regexp.MustCompile(`https?://[^\s\)]+`)
	embedLineRE     = regexp.MustCompile(`🔗 Embed: \[[^\]]*\]\([^)]+\)`)
	fileLineRE      = regexp.MustCompile(`📎 File: \[[^\]]*\]\([^)]+\)`)
	videoLineRE     = regexp.MustCompile(`🎥 Video: \[[^\]]*\]\([^)]+\)`)
)

// CleanMarkdown strips long URLs from scraped markdown to cut prompt size.
// Markdown links and images keep their text with the target replaced by
// link_to_resource; long bare URLs collapse to [link_to_resource]; embed,
// file, and video lines always lose their targets.
func CleanMarkdown(content string) string {
	content = markdownLinkRE.ReplaceAllStringFunc(content, func(m string) string {
		sub := markdownLinkRE.FindStringSubmatch(m)
		if len(sub[2]) > maxKeptURLLen {
			return "[" + sub[1] + "](link_to_resource)"
		}
		return m
	})

	content = standaloneURLRE.ReplaceAllStringFunc(content, func(url string) string {
		if len(url) > maxKeptURLLen {
			return "[link_to_resource]"
		}
		return url
	})

	content = embedLineRE.ReplaceAllString(content, "🔗 Embed: [link_to_resource]")
	content = fileLineRE.ReplaceAllString(content, "📎 File: [link_to_resource]")
	content = videoLineRE.ReplaceAllString(content, "🎥 Video: [link_to_resource]")
	return content
}
