package prompt

import (
	"regexp"
	"strings"
)

// defaultReading is used when no Reading section is available.
const defaultReading = `You are an expert in making technical and educational content more accessible to non-native English speakers who have an 8th-grade education level.

Please directly edit and improve the following markdown content to make it easier to understand for someone whose English is their 2nd, 3rd, or 4th language. Edit the text in place, do not use curly brackets or any other markers for suggestions, just make the changes directly.

IMPORTANT GUIDELINES:
1. DO NOT change key terms, especially single terms on bullet point lines
2. DO NOT change technical terms that are essential to the content
3. DO NOT change proper nouns, names, or specific terminology
4. Edit the main body content directly, making it more readable and accessible
5. Focus on:
   - Simplifying complex sentence structures
   - Using shorter, clearer sentences
   - Replacing difficult words with simpler alternatives
   - Adding clarifying phrases where needed
   - Making instructions more step-by-step
   - Using active voice instead of passive voice

Here's the content to enhance:

{content}

Please return the improved content, keeping the original markdown formatting intact.`

// contentInsertRE matches the content insertion block inside a Reading
// template, so it can be stripped for per-block use.
var contentInsertRE = regexp.MustCompile(`(?ms)^\s*Here's the content to enhance:\s*\n\s*\{content\}\s*\n`)

// Reading renders the whole-page readability prompt. An empty template
// falls back to the built-in default.
func Reading(template, content string) string {
	if template == "" {
		template = defaultReading
	}
	return strings.ReplaceAll(template, "{content}", content)
}

// ReadingInstructions returns the Reading prompt adapted for per-block
// use: the content insertion section is removed since block text is
// injected separately.
func ReadingInstructions(template string) string {
	if template == "" {
		return "You are an expert in making technical and educational content more accessible to non-native English " +
			"speakers who have an 8th-grade education level. Edit the text directly, keep formatting, preserve key " +
			"terms and proper nouns, simplify sentences, and use active voice."
	}
	return strings.TrimSpace(contentInsertRE.ReplaceAllString(template, ""))
}
