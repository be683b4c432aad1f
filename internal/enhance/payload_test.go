package enhance

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/samsaffron/notion-llm/internal/notion"
)

func marshalPayload(t *testing.T, payload map[string]any) string {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return string(data)
}

func TestBuildUpdatePayloadTextTypes(t *testing.T) {
	spans := []notion.RichText{notion.NewText("updated text")}
	for _, typ := range []string{
		"paragraph", "heading_1", "heading_2", "heading_3",
		"bulleted_list_item", "numbered_list_item", "quote", "toggle",
	} {
		b := mustBlock(t, textBlockJSON("b-1", typ, "old text"))
		payload, ok := BuildUpdatePayload(&b, spans)
		if !ok {
			t.Fatalf("%s: not writable", typ)
		}
		got := updateSpans(t, updateCall{body: []byte(marshalPayload(t, payload))}, typ)
		if notion.PlainText(got) != "updated text" {
			t.Errorf("%s: wrote %q", typ, notion.PlainText(got))
		}
	}
}

func TestBuildUpdatePayloadToDo(t *testing.T) {
	raw := `{"object":"block","id":"t-1","type":"to_do","to_do":{"rich_text":[{"type":"text","text":{"content":"buy milk and bread"},"annotations":{"bold":false,"italic":false,"strikethrough":false,"underline":false,"code":false,"color":"default"}}],"checked":true}}`
	b := mustBlock(t, raw)

	payload, ok := BuildUpdatePayload(&b, []notion.RichText{notion.NewText("buy milk")})
	if !ok {
		t.Fatal("to_do should be writable")
	}
	data := marshalPayload(t, payload)
	if !strings.Contains(data, `"checked":true`) {
		t.Errorf("checked state lost: %s", data)
	}
}

func TestBuildUpdatePayloadCallout(t *testing.T) {
	spans := []notion.RichText{notion.NewText("note text")}

	t.Run("emoji icon carried", func(t *testing.T) {
		raw := `{"object":"block","id":"c-1","type":"callout","callout":{"rich_text":[{"type":"text","text":{"content":"old"},"annotations":{"bold":false,"italic":false,"strikethrough":false,"underline":false,"code":false,"color":"default"}}],"icon":{"type":"emoji","emoji":"💡"},"color":"gray_background"}}`
		b := mustBlock(t, raw)
		payload, ok := BuildUpdatePayload(&b, spans)
		if !ok {
			t.Fatal("callout should be writable")
		}
		data := marshalPayload(t, payload)
		if !strings.Contains(data, `"emoji":"💡"`) {
			t.Errorf("icon lost: %s", data)
		}
		if !strings.Contains(data, `"color":"gray_background"`) {
			t.Errorf("color lost: %s", data)
		}
	})

	t.Run("missing icon gets default", func(t *testing.T) {
		raw := `{"object":"block","id":"c-2","type":"callout","callout":{"rich_text":[{"type":"text","text":{"content":"old"},"annotations":{"bold":false,"italic":false,"strikethrough":false,"underline":false,"code":false,"color":"default"}}]}}`
		b := mustBlock(t, raw)
		payload, _ := BuildUpdatePayload(&b, spans)
		data := marshalPayload(t, payload)
		if !strings.Contains(data, `"emoji":"📝"`) {
			t.Errorf("default icon missing: %s", data)
		}
		if !strings.Contains(data, `"color":"default"`) {
			t.Errorf("default color missing: %s", data)
		}
	})

	t.Run("file icon left alone", func(t *testing.T) {
		raw := `{"object":"block","id":"c-3","type":"callout","callout":{"rich_text":[{"type":"text","text":{"content":"old"},"annotations":{"bold":false,"italic":false,"strikethrough":false,"underline":false,"code":false,"color":"default"}}],"icon":{"type":"file","file":{"url":"https://example.com/icon.png"}}}}`
		b := mustBlock(t, raw)
		payload, _ := BuildUpdatePayload(&b, spans)
		data := marshalPayload(t, payload)
		if strings.Contains(data, `"icon"`) {
			t.Errorf("non-emoji icon should be omitted so the API keeps it: %s", data)
		}
	})
}

func TestBuildUpdatePayloadMediaCaption(t *testing.T) {
	spans := []notion.RichText{notion.NewText("new caption")}
	for _, typ := range []string{"image", "video", "file", "pdf", "audio", "bookmark"} {
		raw := `{"object":"block","id":"m-1","type":"` + typ + `","` + typ + `":{"caption":[],"external":{"url":"https://example.com/x"}}}`
		b := mustBlock(t, raw)
		payload, ok := BuildUpdatePayload(&b, spans)
		if !ok {
			t.Fatalf("%s: not writable", typ)
		}
		data := marshalPayload(t, payload)
		if !strings.Contains(data, `"caption"`) {
			t.Errorf("%s: payload missing caption: %s", typ, data)
		}
		if strings.Contains(data, `"rich_text"`) {
			t.Errorf("%s: media payload must not carry rich_text: %s", typ, data)
		}
	}
}

func TestBuildUpdatePayloadRejectsOtherTypes(t *testing.T) {
	for _, raw := range []string{
		`{"object":"block","id":"d-1","type":"divider","divider":{}}`,
		`{"object":"block","id":"x-1","type":"code","code":{"rich_text":[],"language":"go"}}`,
		`{"object":"block","id":"x-2","type":"child_page","child_page":{"title":"Sub"}}`,
	} {
		b := mustBlock(t, raw)
		if payload, ok := BuildUpdatePayload(&b, nil); ok {
			t.Errorf("%s: unexpectedly writable: %v", b.Type, payload)
		}
	}
}
