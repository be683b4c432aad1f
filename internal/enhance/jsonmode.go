package enhance

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/samsaffron/notion-llm/internal/notion"
	"github.com/samsaffron/notion-llm/internal/prompt"
)

// jsonProcessable is the narrower type set the JSON strategy handles. The
// full block JSON goes out and comes back, so only types whose payload the
// model reliably round-trips are included.
var jsonProcessable = map[notion.BlockType]bool{
	notion.TypeParagraph:        true,
	notion.TypeHeading1:         true,
	notion.TypeHeading2:         true,
	notion.TypeHeading3:         true,
	notion.TypeBulletedListItem: true,
	notion.TypeNumberedListItem: true,
	notion.TypeQuote:            true,
	notion.TypeCallout:          true,
	notion.TypeImage:            true,
}

// processJSON rewrites one block by sending its raw JSON and parsing the
// improved JSON back. A response that fails to parse preserves the original
// block and is reported as such rather than failing the block outright.
func (e *Engine) processJSON(ctx context.Context, current *notion.Block, plain string, res Result) Result {
	if !jsonProcessable[current.Type] {
		res.Status = StatusSkipped
		res.Reason = "type not editable as json"
		return res
	}

	blockJSON := indentJSON(current.Raw())
	aiPrompt := prompt.JSONBlock(e.blockTemplate(), string(current.Type), plain, blockJSON)

	resp, err := e.generate(ctx, "JSON_BLOCK_EDIT_"+string(current.Type), aiPrompt)
	if err != nil {
		res.Status = StatusError
		res.Error = fmt.Sprintf("ai error: %v", err)
		return res
	}
	if noChanges(resp) {
		res.Status = StatusNoChanges
		return res
	}

	parsed, err := parseBlockResponse(resp)
	if err != nil {
		res.Status = StatusJSONError
		res.Error = err.Error()
		return res
	}
	spans := parsed.RichTextSpans()
	if parsed.Type != current.Type || len(spans) == 0 {
		res.Status = StatusError
		res.Error = fmt.Sprintf("improved block carries no %s rich text", current.Type)
		return res
	}

	payload, ok := jsonUpdatePayload(current.Type, spans)
	if !ok {
		res.Status = StatusError
		res.Error = fmt.Sprintf("block type %s is not writable", current.Type)
		return res
	}

	res.EnhancedText = editableText(spans)
	res.ChangesMade = res.EnhancedText != plain
	if e.opts.DryRun {
		res.Status = StatusEnhanced
		res.DryRun = true
		return res
	}
	if _, err := e.client.UpdateBlock(ctx, current.ID, payload); err != nil {
		res.Status = StatusError
		res.Error = fmt.Sprintf("update block: %v", err)
		res.EnhancedText = ""
		res.ChangesMade = false
		return res
	}
	res.Status = StatusEnhanced
	return res
}

// jsonUpdatePayload builds the write body for the JSON strategy. Unlike the
// markup path it carries rich text only; callout icons and to-do state are
// left untouched on the live block.
func jsonUpdatePayload(t notion.BlockType, spans []notion.RichText) (map[string]any, bool) {
	switch t {
	case notion.TypeParagraph, notion.TypeHeading1, notion.TypeHeading2, notion.TypeHeading3,
		notion.TypeBulletedListItem, notion.TypeNumberedListItem, notion.TypeQuote, notion.TypeCallout:
		return map[string]any{string(t): map[string]any{"rich_text": spans}}, true
	case notion.TypeImage:
		return map[string]any{"image": map[string]any{"caption": spans}}, true
	}
	return nil, false
}

// extractJSON digs the block JSON out of a model response: a ```json fence
// when present, otherwise the outermost brace pair, otherwise the response
// as-is.
func extractJSON(resp string) string {
	if idx := strings.Index(resp, "```json"); idx >= 0 {
		rest := resp[idx+len("```json"):]
		if end := strings.Index(rest, "```"); end >= 0 {
			return strings.TrimSpace(rest[:end])
		}
		return strings.TrimSpace(rest)
	}
	i := strings.IndexByte(resp, '{')
	j := strings.LastIndexByte(resp, '}')
	if i >= 0 && j > i {
		return resp[i : j+1]
	}
	return strings.TrimSpace(resp)
}

func parseBlockResponse(resp string) (*notion.Block, error) {
	var b notion.Block
	if err := json.Unmarshal([]byte(extractJSON(resp)), &b); err != nil {
		return nil, fmt.Errorf("parse block JSON: %w", err)
	}
	return &b, nil
}

func indentJSON(raw []byte) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}
