package prompt

import "strings"

// defaultCulture is used when no Culture section is available.
const defaultCulture = `You are an expert in cross-cultural communication and educational activity design.

Analyze the activities in the content below for cultural appropriateness across different regions of the world. For each activity, provide:
1. Regions or cultures where the activity may need adaptation
2. Specific concerns (gestures, physical contact, gender dynamics, food, symbolism)
3. Practical alternatives or adjustments that keep the learning objective intact

Keep suggestions brief and actionable.

{content}`

// defaultActivityCulture is the compact variant used when analyzing a
// single activity section rather than a whole page.
const defaultActivityCulture = `Analyze the activity below for cultural appropriateness. Provide brief adaptations and alternatives.

{content}`

// Culture renders the whole-page cultural analysis prompt.
func Culture(template, content string) string {
	if template == "" {
		template = defaultCulture
	}
	return strings.ReplaceAll(template, "{content}", content)
}

// ActivityCulture renders the per-activity cultural analysis prompt.
// A custom Culture template takes precedence over the compact default.
func ActivityCulture(template, content string) string {
	if template == "" {
		template = defaultActivityCulture
	}
	return strings.ReplaceAll(template, "{content}", content)
}
