package markdown

import (
	"strings"

	"github.com/samsaffron/notion-llm/internal/notion"
	"github.com/samsaffron/notion-llm/internal/richtext"
)

// Paragraph builds a paragraph block from plain text.
func Paragraph(text string) map[string]any {
	return richBlock(string(notion.TypeParagraph), []notion.RichText{notion.NewText(text)})
}

// Heading builds a heading block. Levels outside 1..3 clamp to 3.
func Heading(text string, level int) map[string]any {
	typ := notion.TypeHeading3
	switch level {
	case 1:
		typ = notion.TypeHeading1
	case 2:
		typ = notion.TypeHeading2
	}
	return richBlock(string(typ), []notion.RichText{notion.NewText(text)})
}

// Bulleted builds a bulleted list item, parsing inline markup in text.
func Bulleted(text string) map[string]any {
	return richBlock(string(notion.TypeBulletedListItem), richtext.ParseMarkup(text))
}

// Toggle builds a toggle block with optional children. Inline markup in
// the title is parsed.
func Toggle(title string, children []map[string]any) map[string]any {
	body := map[string]any{"rich_text": richtext.ParseMarkup(title)}
	if len(children) > 0 {
		body["children"] = children
	}
	return map[string]any{"object": "block", "type": "toggle", "toggle": body}
}

// Divider builds a divider block.
func Divider() map[string]any {
	return map[string]any{"object": "block", "type": "divider", "divider": map[string]any{}}
}

// richBlock wraps rich text spans in the block envelope for typ. Callouts
// carry the note icon and a gray background so generated guidance stands
// out from page content.
func richBlock(typ string, spans []notion.RichText) map[string]any {
	if typ == string(notion.TypeCallout) {
		return map[string]any{
			"object": "block",
			"type":   typ,
			typ: map[string]any{
				"rich_text": spans,
				"icon":      map[string]any{"type": "emoji", "emoji": "📝"},
				"color":     "gray_background",
			},
		}
	}
	return map[string]any{
		"object": "block",
		"type":   typ,
		typ:      map[string]any{"rich_text": spans},
	}
}

func codeBlock(text, lang string) map[string]any {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang == "" {
		lang = "plain text"
	}
	return map[string]any{
		"object": "block",
		"type":   "code",
		"code": map[string]any{
			"rich_text": []notion.RichText{notion.NewText(text)},
			"language":  lang,
		},
	}
}

func imageBlock(src, alt string) map[string]any {
	img := map[string]any{
		"type":     "external",
		"external": map[string]any{"url": src},
	}
	// The scraper writes "image" as its placeholder alt; that is not a
	// caption worth round-tripping.
	if alt != "" && alt != "image" {
		img["caption"] = []notion.RichText{notion.NewText(alt)}
	}
	return map[string]any{"object": "block", "type": "image", "image": img}
}

func tableBlock(rows [][][]notion.RichText) map[string]any {
	width := len(rows[0])
	rowBlocks := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		cells := row
		for len(cells) < width {
			cells = append(cells, []notion.RichText{})
		}
		rowBlocks = append(rowBlocks, map[string]any{
			"object":    "block",
			"type":      "table_row",
			"table_row": map[string]any{"cells": cells[:width]},
		})
	}
	return map[string]any{
		"object": "block",
		"type":   "table",
		"table": map[string]any{
			"table_width":       width,
			"has_column_header": true,
			"has_row_header":    false,
			"children":          rowBlocks,
		},
	}
}
