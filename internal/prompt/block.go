package prompt

import (
	"fmt"
	"strings"
)

// ContextEntry records one previously processed block so later prompts
// can follow the established pattern.
type ContextEntry struct {
	Type     string
	Original string
	Enhanced string
}

// promptContextWindow is how many recent entries a prompt embeds.
const promptContextWindow = 3

// defaultBlock is the per-block enhancement prompt used when no
// Reading/Translation section is available.
const defaultBlock = `You are improving Notion content while preserving meaning and visual elements.{context_info}

CURRENT BLOCK:
Type: {block_type}
Content: {current_plain_text}

DETAILED FORMATTING:{detailed_formatting}

TASK: {task}

CONTEXT-AWARE INSTRUCTIONS:
- Consider the pattern from recent blocks to make intelligent decisions
- If this is a keyword/header that fits a structural pattern, be conservative
- If this is content within an established flow, apply full enhancement/translation
- For single words: check if they're labels/headers vs. translatable content
- Short content like "Instructions" after setup content should be processed
- Standalone structural terms might be kept unchanged

IMPORTANT:
- Return ONLY the improved text content
- Do NOT add formatting markers like **bold** or *italic*
- If there's a leading emoji, START your response with that exact emoji
- Keep the core meaning but make it clearer and more accessible
- Maintain the same general structure and emphasis patterns
- CRITICAL: Do NOT change or remove any hyperlinks; keep ALL linked text exactly intact
- Do NOT modify version abbreviations in parentheses like (NIV), (YLT), (ESV), etc.

IMPROVED CONTENT:`

// BlockParams carries the values substituted into a block prompt
// template.
type BlockParams struct {
	ContextInfo    string
	BlockType      string
	Text           string
	Formatting     string
	Task           string
	TargetLanguage string
}

// Block renders a per-block prompt from a section template. Templates
// may use {context_info}, {block_type}, {current_plain_text},
// {detailed_formatting}, {task} and {target_language} placeholders.
func Block(template string, p BlockParams) string {
	if template == "" {
		template = defaultBlock
	}
	r := strings.NewReplacer(
		"{context_info}", p.ContextInfo,
		"{block_type}", p.BlockType,
		"{current_plain_text}", p.Text,
		"{detailed_formatting}", p.Formatting,
		"{task}", p.Task,
		"{target_language}", p.TargetLanguage,
	)
	return r.Replace(template)
}

// ContextInfo renders the recent-blocks section embedded in block
// prompts. Only the last few entries are included.
func ContextInfo(entries []ContextEntry) string {
	if len(entries) == 0 {
		return ""
	}
	start := len(entries) - promptContextWindow
	if start < 0 {
		start = 0
	}
	var b strings.Builder
	b.WriteString("\n\nRECENT BLOCKS CONTEXT (for understanding pattern and making intelligent decisions):\n")
	for i, ctx := range entries[start:] {
		fmt.Fprintf(&b, "%d. [%s] '%s' -> '%s'\n", i+1, ctx.Type, ctx.Original, ctx.Enhanced)
	}
	b.WriteString("\nNow process this block considering the above context:\n")
	return b.String()
}

// defaultJSONBase is the minimal base prompt for JSON-mode processing.
const defaultJSONBase = "You are an expert in making technical and educational content more accessible. Please improve the given content while preserving its structure and meaning."

const jsonFence = "```"

// JSONBlock renders the JSON-mode prompt: the section template plus
// the raw block JSON and strict structure-preservation instructions.
func JSONBlock(template, blockType, plainText, blockJSON string) string {
	if template == "" {
		template = defaultJSONBase
	}
	base := Block(template, BlockParams{
		ContextInfo: "Block-by-block processing with JSON structure preservation",
		BlockType:   blockType,
		Text:        plainText,
		Formatting:  "JSON block structure with rich_text formatting",
	})

	return base + fmt.Sprintf(`

ORIGINAL BLOCK JSON:
%sjson
%s
%s

ORIGINAL PLAIN TEXT:
"%s"

CRITICAL JSON PROCESSING REQUIREMENTS:
You must return a complete JSON object that:
1. Maintains the exact same structure as the input JSON
2. Only modifies the "content" fields within "text" objects in "rich_text" arrays
3. Preserves ALL formatting annotations (bold, italic, color, etc.)
4. Keeps all other fields identical (id, type, parent, timestamps, etc.)

If the content doesn't need improvement, return "NO CHANGES".

IMPROVED BLOCK JSON:`, jsonFence, blockJSON, jsonFence, plainText)
}
