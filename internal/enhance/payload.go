package enhance

import (
	"github.com/samsaffron/notion-llm/internal/notion"
)

// defaultCalloutIcon is written when a callout somehow has no icon; the
// update API rejects callout payloads without one.
var defaultCalloutIcon = map[string]any{"type": "emoji", "emoji": "📝"}

// BuildUpdatePayload builds the PATCH body that writes spans back into a
// block, keyed by block type. Text types and to_do/callout carry rich_text,
// media types carry a caption, and to_do/callout keep their checkbox state,
// icon, and color. The second return is false for types the engine must
// not write; callers skip the update entirely in that case.
func BuildUpdatePayload(current *notion.Block, spans []notion.RichText) (map[string]any, bool) {
	switch current.Type {
	case notion.TypeParagraph, notion.TypeHeading1, notion.TypeHeading2, notion.TypeHeading3,
		notion.TypeBulletedListItem, notion.TypeNumberedListItem,
		notion.TypeQuote, notion.TypeToggle:
		return map[string]any{
			string(current.Type): map[string]any{"rich_text": spans},
		}, true

	case notion.TypeToDo:
		checked := false
		if current.ToDo != nil {
			checked = current.ToDo.Checked
		}
		return map[string]any{
			"to_do": map[string]any{"rich_text": spans, "checked": checked},
		}, true

	case notion.TypeCallout:
		body := map[string]any{"rich_text": spans, "color": "default"}
		icon := any(defaultCalloutIcon)
		if current.Callout != nil {
			if current.Callout.Color != "" {
				body["color"] = current.Callout.Color
			}
			if ic := current.Callout.Icon; ic != nil {
				if ic.Type == "emoji" && ic.Emoji != "" {
					icon = ic
				} else {
					// File and external icons don't round-trip through the
					// typed model; leaving the field out keeps them as-is.
					icon = nil
				}
			}
		}
		if icon != nil {
			body["icon"] = icon
		}
		return map[string]any{"callout": body}, true

	case notion.TypeImage, notion.TypeVideo, notion.TypeFile,
		notion.TypePDF, notion.TypeAudio, notion.TypeBookmark:
		return map[string]any{
			string(current.Type): map[string]any{"caption": spans},
		}, true
	}
	return nil, false
}
