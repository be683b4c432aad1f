package enhance

import (
	"strings"
	"testing"

	"github.com/samsaffron/notion-llm/internal/notion"
	"github.com/samsaffron/notion-llm/internal/testutil"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"fenced", "Here you go:\n```json\n{\"a\": 1}\n```\nDone.", `{"a": 1}`},
		{"unterminated fence", "```json\n{\"a\": 1}", `{"a": 1}`},
		{"prose around braces", "The improved block is {\"a\": 1} as requested", `{"a": 1}`},
		{"bare object", `{"a": 1}`, `{"a": 1}`},
		{"no json at all", "  cannot help with that  ", "cannot help with that"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractJSON(tt.in); got != tt.want {
				t.Errorf("extractJSON = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRunJSONStrategy(t *testing.T) {
	fc := newFakeClient(t, textBlockJSON("p-1", "paragraph", "The original paragraph content."))
	improved := `{"object":"block","id":"p-1","type":"paragraph","paragraph":{"rich_text":[
		{"type":"text","text":{"content":"Key point"},"annotations":{"bold":true,"italic":false,"strikethrough":false,"underline":false,"code":false,"color":"default"},"plain_text":"Key point"},
		{"type":"text","text":{"content":" stated simply."},"annotations":{"bold":false,"italic":false,"strikethrough":false,"underline":false,"code":false,"color":"default"},"plain_text":" stated simply."}
	]}}`
	p := &testutil.MockProvider{Responses: []string{"```json\n" + improved + "\n```"}}

	report := runEngine(t, fc, p, Options{Strategy: StrategyJSON})

	res := report.Results[0]
	if res.Status != StatusEnhanced {
		t.Fatalf("status = %q (%s)", res.Status, res.Error)
	}
	if res.EnhancedText != "Key point stated simply." {
		t.Errorf("enhanced = %q", res.EnhancedText)
	}

	spans := updateSpans(t, fc.updates[0], "paragraph")
	if len(spans) != 2 || !spans[0].Annotations.Bold {
		t.Errorf("written spans = %+v", spans)
	}

	prompt := p.LastRequest().Prompt
	for _, want := range []string{"ORIGINAL BLOCK JSON:", "IMPROVED BLOCK JSON:", `"The original paragraph content."`} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if report.Strategy != "json" {
		t.Errorf("report strategy = %q", report.Strategy)
	}
}

func TestRunJSONParseFailurePreservesBlock(t *testing.T) {
	fc := newFakeClient(t, textBlockJSON("p-1", "paragraph", "Content the model mangles."))
	p := &testutil.MockProvider{Responses: []string{"Sorry, I cannot process this block."}}

	report := runEngine(t, fc, p, Options{Strategy: StrategyJSON})

	res := report.Results[0]
	if res.Status != StatusJSONError {
		t.Fatalf("status = %q, want json_error_preserved", res.Status)
	}
	if !strings.Contains(res.Error, "parse block JSON") {
		t.Errorf("error = %q", res.Error)
	}
	if len(fc.updates) != 0 {
		t.Error("unparseable response must not be written")
	}
	if report.Summary.JSONErrors != 1 {
		t.Errorf("summary = %+v", report.Summary)
	}
}

func TestRunJSONSkipsUnsupportedType(t *testing.T) {
	fc := newFakeClient(t, textBlockJSON("t-1", "toggle", "A toggle header with enough text."))
	p := &testutil.MockProvider{}

	report := runEngine(t, fc, p, Options{Strategy: StrategyJSON})

	res := report.Results[0]
	if res.Status != StatusSkipped || res.Reason != "type not editable as json" {
		t.Errorf("result = %q / %q", res.Status, res.Reason)
	}
	if len(p.Requests) != 0 {
		t.Error("AI was called for an unsupported type")
	}
}

func TestRunJSONNoChanges(t *testing.T) {
	fc := newFakeClient(t, textBlockJSON("p-1", "paragraph", "Already perfectly fine content."))
	p := &testutil.MockProvider{Responses: []string{"NO CHANGES"}}

	report := runEngine(t, fc, p, Options{Strategy: StrategyJSON})

	if got := report.Results[0].Status; got != StatusNoChanges {
		t.Errorf("status = %q", got)
	}
	if len(fc.updates) != 0 {
		t.Error("no-changes response was written")
	}
}

func TestRunJSONTypeMismatch(t *testing.T) {
	fc := newFakeClient(t, textBlockJSON("p-1", "paragraph", "Paragraph the model rewrote as a heading."))
	p := &testutil.MockProvider{Responses: []string{textBlockJSON("p-1", "heading_1", "Now a heading")}}

	report := runEngine(t, fc, p, Options{Strategy: StrategyJSON})

	res := report.Results[0]
	if res.Status != StatusError {
		t.Fatalf("status = %q", res.Status)
	}
	if !strings.Contains(res.Error, "no paragraph rich text") {
		t.Errorf("error = %q", res.Error)
	}
	if len(fc.updates) != 0 {
		t.Error("type-changed response was written")
	}
}

func TestRunJSONImageCaption(t *testing.T) {
	raw := `{"object":"block","id":"img-1","parent":{"type":"page_id","page_id":"page-root"},"type":"image","image":{"caption":[{"type":"text","text":{"content":"A diagram of the flow."},"annotations":{"bold":false,"italic":false,"strikethrough":false,"underline":false,"code":false,"color":"default"}}],"external":{"url":"https://example.com/flow.png"}}}`
	fc := newFakeClient(t, raw)
	improved := `{"object":"block","id":"img-1","type":"image","image":{"caption":[{"type":"text","text":{"content":"Diagram alur proses."},"annotations":{"bold":false,"italic":false,"strikethrough":false,"underline":false,"code":false,"color":"default"}}],"external":{"url":"https://example.com/flow.png"}}}`
	p := &testutil.MockProvider{Responses: []string{improved}}

	report := runEngine(t, fc, p, Options{Strategy: StrategyJSON})

	res := report.Results[0]
	if res.Status != StatusEnhanced {
		t.Fatalf("status = %q (%s)", res.Status, res.Error)
	}
	spans := updateSpans(t, fc.updates[0], "image")
	if notion.PlainText(spans) != "Diagram alur proses." {
		t.Errorf("caption = %q", notion.PlainText(spans))
	}
	body := string(fc.updates[0].body)
	if strings.Contains(body, "external") || strings.Contains(body, "url") {
		t.Errorf("caption update must not resend the file reference: %s", body)
	}
}

func TestRunJSONDryRun(t *testing.T) {
	fc := newFakeClient(t, textBlockJSON("p-1", "paragraph", "Dry run content for JSON mode."))
	p := &testutil.MockProvider{Responses: []string{textBlockJSON("p-1", "paragraph", "Improved dry run content.")}}

	report := runEngine(t, fc, p, Options{Strategy: StrategyJSON, DryRun: true})

	res := report.Results[0]
	if res.Status != StatusEnhanced || !res.DryRun {
		t.Errorf("result = %+v", res)
	}
	if res.EnhancedText != "Improved dry run content." {
		t.Errorf("enhanced = %q", res.EnhancedText)
	}
	if len(fc.updates) != 0 {
		t.Error("dry run wrote an update")
	}
}
