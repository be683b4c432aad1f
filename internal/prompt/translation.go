package prompt

import (
	"fmt"
	"strings"
)

// defaultTranslation is used when no Translation section is available.
const defaultTranslation = `You are an expert translator specializing in technical and educational content.

Please translate the following content while preserving:
1. ALL formatting (markdown, bullets, numbers, etc.)
2. ALL emojis exactly as they appear
3. Technical terms and proper nouns (translate explanations but keep key terms)
4. The structure and flow of the original text
5. Reference abbreviations in parentheses like (NIV), (ESV), etc.

Target Language: {target_language}

Content to translate:

{content}

Please return the translated content maintaining all original formatting.`

// Translation renders the whole-page translation prompt.
func Translation(template, targetLanguage, content string) string {
	if template == "" {
		template = defaultTranslation
	}
	out := strings.ReplaceAll(template, "{target_language}", targetLanguage)
	return strings.ReplaceAll(out, "{content}", content)
}

// TranslationInstructions returns concise per-block translation
// instructions.
func TranslationInstructions(targetLanguage string) string {
	return fmt.Sprintf(`Translate to %s. Keep all formatting, emojis, proper nouns, and links exactly as they are. Preserve any linked text functionality. Add context like "lihat:" before links if helpful. Return ONLY translated text:`, targetLanguage)
}

// LanguageValidation builds a yes/no prompt asking whether a target
// language specification is unambiguous.
func LanguageValidation(targetLanguage string) string {
	return fmt.Sprintf(`Is it clear what language the user wants to translate into based on this input: "%s"?

Respond with ONLY "yes" or "no" - nothing else.

If the language is ambiguous (like "Arabic" which could be MSA, Egyptian Arabic, etc.), respond "no".
If it's a clear language specification (like "Spanish", "French", "es", "fr", "Egyptian Arabic", "MSA"), respond "yes".`, targetLanguage)
}
