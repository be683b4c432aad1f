package prompt

import "strings"

// defaultQuestions is used when no Trainer Questions section is
// available.
const defaultQuestions = `You are an experienced trainer evaluating whether participants understood a training session.

Based on the content below, write 5 evaluation questions a trainer can ask participants. The questions should:
1. Check understanding of the main concepts, not trivia
2. Be answerable from the content alone
3. Use simple, direct language suitable for non-native English speakers
4. Progress from recall to application

Return the questions as a numbered markdown list with no extra commentary.

{content}`

// Questions renders the trainer evaluation questions prompt.
func Questions(template, content string) string {
	if template == "" {
		template = defaultQuestions
	}
	return strings.ReplaceAll(template, "{content}", content)
}
