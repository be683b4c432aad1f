package enhance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/gobwas/glob"

	"github.com/samsaffron/notion-llm/internal/llm"
	"github.com/samsaffron/notion-llm/internal/notion"
	"github.com/samsaffron/notion-llm/internal/testutil"
)

type updateCall struct {
	blockID string
	body    []byte
}

// fakeClient serves blocks from a map and records every write. The
// descendants slice doubles as the page snapshot returned by
// FetchDescendants.
type fakeClient struct {
	blocks      map[string]*notion.Block
	descendants []notion.Block
	fetchErr    error
	retrieveErr map[string]error
	updateErr   map[string]error
	updates     []updateCall
}

func newFakeClient(t *testing.T, raws ...string) *fakeClient {
	t.Helper()
	fc := &fakeClient{
		blocks:      make(map[string]*notion.Block),
		retrieveErr: make(map[string]error),
		updateErr:   make(map[string]error),
	}
	for _, raw := range raws {
		b := mustBlock(t, raw)
		fc.descendants = append(fc.descendants, b)
		live := b
		fc.blocks[b.ID] = &live
	}
	return fc
}

func (f *fakeClient) RetrieveBlock(ctx context.Context, blockID string) (*notion.Block, error) {
	if err := f.retrieveErr[blockID]; err != nil {
		return nil, err
	}
	if b, ok := f.blocks[blockID]; ok {
		return b, nil
	}
	return nil, notion.ErrNotFound
}

func (f *fakeClient) UpdateBlock(ctx context.Context, blockID string, body any) (*notion.Block, error) {
	if err := f.updateErr[blockID]; err != nil {
		return nil, err
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	f.updates = append(f.updates, updateCall{blockID: blockID, body: data})
	if b, ok := f.blocks[blockID]; ok {
		return b, nil
	}
	return &notion.Block{ID: blockID}, nil
}

func (f *fakeClient) FetchDescendants(ctx context.Context, rootID string, opts notion.FetchOptions) ([]notion.Block, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.descendants, nil
}

func mustBlock(t *testing.T, raw string) notion.Block {
	t.Helper()
	var b notion.Block
	if err := json.Unmarshal([]byte(raw), &b); err != nil {
		t.Fatalf("block fixture: %v", err)
	}
	return b
}

func textBlockJSON(id, typ, text string) string {
	return fmt.Sprintf(`{"object":"block","id":%q,"parent":{"type":"page_id","page_id":"page-root"},"type":%q,%q:{"rich_text":[{"type":"text","text":{"content":%q},"annotations":{"bold":false,"italic":false,"strikethrough":false,"underline":false,"code":false,"color":"default"},"plain_text":%q}]}}`,
		id, typ, typ, text, text)
}

func nestedBlockJSON(id, typ, parentBlockID, text string) string {
	return fmt.Sprintf(`{"object":"block","id":%q,"parent":{"type":"block_id","block_id":%q},"type":%q,%q:{"rich_text":[{"type":"text","text":{"content":%q},"annotations":{"bold":false,"italic":false,"strikethrough":false,"underline":false,"code":false,"color":"default"},"plain_text":%q}]}}`,
		id, parentBlockID, typ, typ, text, text)
}

func syncedJSON(id string) string {
	return fmt.Sprintf(`{"object":"block","id":%q,"parent":{"type":"page_id","page_id":"page-root"},"type":"synced_block","synced_block":{"synced_from":null}}`, id)
}

func runEngine(t *testing.T, fc *fakeClient, p *testutil.MockProvider, opts Options) *Report {
	t.Helper()
	report, err := New(fc, p, opts).Run(context.Background(), "page-root", nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return report
}

// updateSpans unpacks the rich text written for one block type key,
// accepting either the rich_text or the caption form.
func updateSpans(t *testing.T, call updateCall, key string) []notion.RichText {
	t.Helper()
	var body map[string]struct {
		RichText []notion.RichText `json:"rich_text"`
		Caption  []notion.RichText `json:"caption"`
	}
	if err := json.Unmarshal(call.body, &body); err != nil {
		t.Fatalf("update body: %v", err)
	}
	payload, ok := body[key]
	if !ok {
		t.Fatalf("update body missing %q: %s", key, call.body)
	}
	if payload.RichText != nil {
		return payload.RichText
	}
	return payload.Caption
}

func TestRunEnhancesBlock(t *testing.T) {
	fc := newFakeClient(t, textBlockJSON("p-1", "paragraph", "The utilization of this feature necessitates configuration."))
	p := &testutil.MockProvider{Responses: []string{"Using this feature requires setup."}}

	report := runEngine(t, fc, p, Options{Model: "claude-sonnet-4-6"})

	if len(report.Results) != 1 {
		t.Fatalf("results = %d, want 1", len(report.Results))
	}
	res := report.Results[0]
	if res.Status != StatusEnhanced {
		t.Fatalf("status = %q (%s)", res.Status, res.Error)
	}
	if res.OriginalText != "The utilization of this feature necessitates configuration." {
		t.Errorf("original = %q", res.OriginalText)
	}
	if res.EnhancedText != "Using this feature requires setup." {
		t.Errorf("enhanced = %q", res.EnhancedText)
	}
	if !res.ChangesMade {
		t.Error("ChangesMade should be set")
	}

	if len(fc.updates) != 1 {
		t.Fatalf("updates = %d, want 1", len(fc.updates))
	}
	spans := updateSpans(t, fc.updates[0], "paragraph")
	if got := notion.PlainText(spans); got != "Using this feature requires setup." {
		t.Errorf("written text = %q", got)
	}

	prompt := p.LastRequest().Prompt
	if !strings.Contains(prompt, "The utilization of this feature") {
		t.Error("prompt missing block text")
	}
	if !strings.Contains(prompt, "paragraph") {
		t.Error("prompt missing block type")
	}

	if report.Mode != "readability" || report.Strategy != "markup" {
		t.Errorf("report mode/strategy = %q/%q", report.Mode, report.Strategy)
	}
	if report.Provider != "mock" || report.Model != "claude-sonnet-4-6" {
		t.Errorf("report provider/model = %q/%q", report.Provider, report.Model)
	}
	if report.Summary.Enhanced != 1 || report.Summary.BlocksProcessed != 1 {
		t.Errorf("summary = %+v", report.Summary)
	}
	if !report.Summary.Success() {
		t.Error("run with one update should count as success")
	}
	if got := report.Summary.Message(); got != "Processed 1 blocks: 1 updated, 0 skipped, 0 failed" {
		t.Errorf("message = %q", got)
	}
}

func TestRunSkipsSyncedContent(t *testing.T) {
	fc := newFakeClient(t,
		syncedJSON("sync-1"),
		nestedBlockJSON("p-1", "paragraph", "sync-1", "Shared onboarding text lives here."),
		textBlockJSON("p-2", "paragraph", "Ordinary text outside the synced area."),
	)
	p := &testutil.MockProvider{Responses: []string{"Rewritten ordinary text."}}

	report := runEngine(t, fc, p, Options{})

	if report.Summary.SyncedProtected != 2 {
		t.Errorf("SyncedProtected = %d, want 2", report.Summary.SyncedProtected)
	}
	if len(report.Results) != 1 {
		t.Fatalf("results = %d, want 1", len(report.Results))
	}
	if report.Results[0].BlockID != "p-2" {
		t.Errorf("processed %q, want p-2", report.Results[0].BlockID)
	}
	if len(fc.updates) != 1 || fc.updates[0].blockID != "p-2" {
		t.Errorf("updates = %+v", fc.updates)
	}
}

func TestRunLiveGuardCatchesMove(t *testing.T) {
	// The snapshot shows the paragraph directly under the page, but by the
	// time it is processed it has been moved under a synced container.
	fc := newFakeClient(t, textBlockJSON("p-1", "paragraph", "Text that was moved after the snapshot."))
	moved := mustBlock(t, nestedBlockJSON("p-1", "paragraph", "sync-9", "Text that was moved after the snapshot."))
	fc.blocks["p-1"] = &moved
	container := mustBlock(t, syncedJSON("sync-9"))
	fc.blocks["sync-9"] = &container

	p := &testutil.MockProvider{Responses: []string{"Should never be written."}}
	report := runEngine(t, fc, p, Options{})

	res := report.Results[0]
	if res.Status != StatusSkipped || res.Reason != "synced content" {
		t.Errorf("result = %q / %q", res.Status, res.Reason)
	}
	if len(fc.updates) != 0 {
		t.Errorf("updates = %d, want 0", len(fc.updates))
	}
	if len(p.Requests) != 0 {
		t.Errorf("AI calls = %d, want 0", len(p.Requests))
	}
}

func TestRunGuardFailsClosed(t *testing.T) {
	fc := newFakeClient(t, nestedBlockJSON("p-1", "paragraph", "parent-x", "Nested under an unreachable parent."))
	fc.retrieveErr["parent-x"] = errors.New("service unavailable")

	p := &testutil.MockProvider{Responses: []string{"Should never be written."}}
	report := runEngine(t, fc, p, Options{})

	res := report.Results[0]
	if res.Status != StatusSkipped || res.Reason != "synced check failed" {
		t.Errorf("result = %q / %q", res.Status, res.Reason)
	}
	if len(fc.updates) != 0 {
		t.Errorf("updates = %d, want 0", len(fc.updates))
	}
}

func TestRunGuardDeletedAncestor(t *testing.T) {
	// A parent that is genuinely gone ends the ancestor walk; the block
	// itself is still live and can be written.
	fc := newFakeClient(t, nestedBlockJSON("p-1", "paragraph", "parent-x", "Nested under a deleted parent block."))

	p := &testutil.MockProvider{Responses: []string{"Rewritten despite the missing parent."}}
	report := runEngine(t, fc, p, Options{})

	if got := report.Results[0].Status; got != StatusEnhanced {
		t.Errorf("status = %q (%s)", got, report.Results[0].Error)
	}
	if len(fc.updates) != 1 {
		t.Errorf("updates = %d, want 1", len(fc.updates))
	}
}

func TestRunNoChangesSentinel(t *testing.T) {
	for _, resp := range []string{"NO CHANGES", "no changes", " No Change ", "NOCHANGES"} {
		fc := newFakeClient(t, textBlockJSON("p-1", "paragraph", "Already perfectly clear text right here."))
		p := &testutil.MockProvider{Responses: []string{resp}}

		report := runEngine(t, fc, p, Options{})

		if got := report.Results[0].Status; got != StatusNoChanges {
			t.Errorf("resp %q: status = %q, want no_changes", resp, got)
		}
		if len(fc.updates) != 0 {
			t.Errorf("resp %q: wrote an update", resp)
		}
		if report.Summary.Success() {
			t.Errorf("resp %q: no-changes-only run should not be a success", resp)
		}
	}
}

func TestRunDryRun(t *testing.T) {
	fc := newFakeClient(t, textBlockJSON("p-1", "paragraph", "Dry run input text goes here."))
	p := &testutil.MockProvider{Responses: []string{"Dry run output text."}}

	report := runEngine(t, fc, p, Options{DryRun: true})

	res := report.Results[0]
	if res.Status != StatusEnhanced || !res.DryRun {
		t.Errorf("result = %+v", res)
	}
	if res.EnhancedText != "Dry run output text." {
		t.Errorf("enhanced = %q", res.EnhancedText)
	}
	if len(fc.updates) != 0 {
		t.Errorf("dry run wrote %d updates", len(fc.updates))
	}
}

func TestRunLimit(t *testing.T) {
	fc := newFakeClient(t,
		textBlockJSON("p-1", "paragraph", "First block with enough text."),
		textBlockJSON("p-2", "paragraph", "Second block with enough text."),
		textBlockJSON("p-3", "paragraph", "Third block with enough text."),
	)
	p := &testutil.MockProvider{Responses: []string{"one", "two", "three"}}

	report := runEngine(t, fc, p, Options{Limit: 2})

	if len(report.Results) != 2 {
		t.Fatalf("results = %d, want 2", len(report.Results))
	}
	if report.Results[0].BlockID != "p-1" || report.Results[1].BlockID != "p-2" {
		t.Errorf("processed %q, %q", report.Results[0].BlockID, report.Results[1].BlockID)
	}
}

func TestRunTypeFilters(t *testing.T) {
	raws := []string{
		textBlockJSON("p-1", "paragraph", "A paragraph with plenty of text."),
		textBlockJSON("h-1", "heading_1", "A heading with plenty of text."),
		textBlockJSON("b-1", "bulleted_list_item", "A bullet with plenty of text."),
	}

	t.Run("only", func(t *testing.T) {
		fc := newFakeClient(t, raws...)
		p := &testutil.MockProvider{Responses: []string{"x", "y", "z"}}
		report := runEngine(t, fc, p, Options{Only: []glob.Glob{glob.MustCompile("heading*")}})
		if len(report.Results) != 1 || report.Results[0].BlockID != "h-1" {
			t.Errorf("results = %+v", report.Results)
		}
	})

	t.Run("skip", func(t *testing.T) {
		fc := newFakeClient(t, raws...)
		p := &testutil.MockProvider{Responses: []string{"x", "y", "z"}}
		report := runEngine(t, fc, p, Options{Skip: []glob.Glob{glob.MustCompile("bulleted*")}})
		if len(report.Results) != 2 {
			t.Fatalf("results = %d, want 2", len(report.Results))
		}
		for _, res := range report.Results {
			if res.BlockID == "b-1" {
				t.Error("skipped type was processed")
			}
		}
	})
}

func TestRunMinLength(t *testing.T) {
	fc := newFakeClient(t,
		textBlockJSON("p-1", "paragraph", "tiny."),
		textBlockJSON("p-2", "paragraph", "long enough to qualify."),
	)
	p := &testutil.MockProvider{Responses: []string{"rewritten."}}

	report := runEngine(t, fc, p, Options{})

	if len(report.Results) != 1 || report.Results[0].BlockID != "p-2" {
		t.Errorf("results = %+v", report.Results)
	}
}

func TestRunTranslationTakesShortBlocks(t *testing.T) {
	fc := newFakeClient(t, textBlockJSON("p-1", "paragraph", "Hi!"))
	p := &testutil.MockProvider{Responses: []string{"Halo!"}}

	report := runEngine(t, fc, p, Options{Mode: ModeTranslation, TargetLanguage: "Indonesian"})

	res := report.Results[0]
	if res.Status != StatusEnhanced {
		t.Fatalf("status = %q (%s)", res.Status, res.Error)
	}
	if res.EnhancedText != "Halo!" {
		t.Errorf("enhanced = %q", res.EnhancedText)
	}
	if report.Mode != "translation" || report.TargetLanguage != "Indonesian" {
		t.Errorf("report = %q/%q", report.Mode, report.TargetLanguage)
	}
}

func TestRunContextWindow(t *testing.T) {
	var raws []string
	var responses []string
	for i := 1; i <= 7; i++ {
		raws = append(raws, textBlockJSON(fmt.Sprintf("p-%d", i), "paragraph", fmt.Sprintf("Original sentence number %d here.", i)))
		responses = append(responses, fmt.Sprintf("Rewritten sentence number %d.", i))
	}
	fc := newFakeClient(t, raws...)
	p := &testutil.MockProvider{Responses: responses}

	runEngine(t, fc, p, Options{})

	if len(p.Requests) != 7 {
		t.Fatalf("AI calls = %d, want 7", len(p.Requests))
	}
	last := p.Requests[6].Prompt
	for _, want := range []string{"Rewritten sentence number 4.", "Rewritten sentence number 5.", "Rewritten sentence number 6."} {
		if !strings.Contains(last, want) {
			t.Errorf("final prompt missing context %q", want)
		}
	}
	for _, stale := range []string{"Rewritten sentence number 1.", "Rewritten sentence number 2.", "Rewritten sentence number 3."} {
		if strings.Contains(last, stale) {
			t.Errorf("final prompt contains stale context %q", stale)
		}
	}
}

func TestRunTruncatesLongResponse(t *testing.T) {
	fc := newFakeClient(t, textBlockJSON("p-1", "paragraph", "Needs a very long rewrite apparently."))
	p := &testutil.MockProvider{Responses: []string{strings.Repeat("a", 2500)}}

	runEngine(t, fc, p, Options{})

	spans := updateSpans(t, fc.updates[0], "paragraph")
	got := notion.PlainText(spans)
	if n := utf8.RuneCountInString(got); n != 1903 {
		t.Errorf("written length = %d, want 1903", n)
	}
	if !strings.HasSuffix(got, "...") {
		t.Error("truncated text should end with ellipsis")
	}
}

func TestRunReappliesDroppedFormatting(t *testing.T) {
	// Original has a bold run; the model answers in plain text, so the bold
	// styling is matched back onto the rewritten text.
	raw := `{"object":"block","id":"p-1","parent":{"type":"page_id","page_id":"page-root"},"type":"paragraph","paragraph":{"rich_text":[
		{"type":"text","text":{"content":"Remember to study "},"annotations":{"bold":false,"italic":false,"strikethrough":false,"underline":false,"code":false,"color":"default"},"plain_text":"Remember to study "},
		{"type":"text","text":{"content":"vocabulary"},"annotations":{"bold":true,"italic":false,"strikethrough":false,"underline":false,"code":false,"color":"default"},"plain_text":"vocabulary"}
	]}}`
	fc := newFakeClient(t, raw)
	p := &testutil.MockProvider{Responses: []string{"Study the vocabulary every day."}}

	runEngine(t, fc, p, Options{})

	spans := updateSpans(t, fc.updates[0], "paragraph")
	if len(spans) < 2 {
		t.Fatalf("spans = %d, want the bold run split out", len(spans))
	}
	var foundBold bool
	for _, s := range spans {
		if s.Annotations.Bold && s.Text != nil && s.Text.Content == "vocabulary" {
			foundBold = true
		}
	}
	if !foundBold {
		t.Errorf("bold vocabulary run not reapplied: %+v", spans)
	}
	if got := notion.PlainText(spans); got != "Study the vocabulary every day." {
		t.Errorf("text = %q", got)
	}
}

func TestRunTranslationValidation(t *testing.T) {
	t.Run("leaked prompt rejected", func(t *testing.T) {
		fc := newFakeClient(t, textBlockJSON("p-1", "paragraph", "A normal paragraph to translate."))
		p := &testutil.MockProvider{Responses: []string{"TRANSLATION GUIDELINES:\n1. Keep formatting"}}

		report := runEngine(t, fc, p, Options{Mode: ModeTranslation, TargetLanguage: "Indonesian"})

		res := report.Results[0]
		if res.Status != StatusError || res.Error != "translation failed validation" {
			t.Errorf("result = %q / %q", res.Status, res.Error)
		}
		if len(fc.updates) != 0 {
			t.Error("invalid translation was written")
		}
	})

	t.Run("short original keeps raw response", func(t *testing.T) {
		fc := newFakeClient(t, textBlockJSON("p-1", "paragraph", "Ok!"))
		p := &testutil.MockProvider{Responses: []string{"TASK: done"}}

		report := runEngine(t, fc, p, Options{Mode: ModeTranslation, TargetLanguage: "Indonesian"})

		res := report.Results[0]
		if res.Status != StatusEnhanced {
			t.Fatalf("status = %q (%s)", res.Status, res.Error)
		}
		if res.EnhancedText != "TASK: done" {
			t.Errorf("enhanced = %q", res.EnhancedText)
		}
	})

	t.Run("runaway length rejected", func(t *testing.T) {
		fc := newFakeClient(t, textBlockJSON("p-1", "paragraph", "Ten runes.."))
		p := &testutil.MockProvider{Responses: []string{strings.Repeat("x", 200)}}

		report := runEngine(t, fc, p, Options{Mode: ModeTranslation, TargetLanguage: "Indonesian"})

		if got := report.Results[0].Status; got != StatusError {
			t.Errorf("status = %q, want error", got)
		}
	})
}

func TestValidateTranslation(t *testing.T) {
	tests := []struct {
		name     string
		response string
		original string
		lang     string
		ok       bool
	}{
		{"valid", "Ini kalimat yang diterjemahkan.", "This is a translated sentence.", "Indonesian", true},
		{"empty", "   ", "Some text here.", "Indonesian", false},
		{"task leak", "TASK: translate the text", "Some text here.", "Indonesian", false},
		{"expert leak", "You are an expert translator", "Some text here.", "Indonesian", false},
		{"target echo", "Translated to Indonesian as requested", "Some text here.", "Indonesian", false},
		{"short original within cap", strings.Repeat("y", 50), "Hi", "Indonesian", true},
		{"short original over cap", strings.Repeat("y", 51), "Hi", "Indonesian", false},
		{"long original within ratio", strings.Repeat("y", 50), "0123456789", "Indonesian", true},
		{"long original over ratio", strings.Repeat("y", 51), "0123456789", "Indonesian", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := validateTranslation(tt.response, tt.original, tt.lang)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && got != strings.TrimSpace(tt.response) {
				t.Errorf("cleaned = %q", got)
			}
		})
	}
}

func TestRunAIError(t *testing.T) {
	fc := newFakeClient(t, textBlockJSON("p-1", "paragraph", "A paragraph that will not be enhanced."))
	p := &testutil.MockProvider{GenerateFn: func(ctx context.Context, req llm.Request) (string, error) {
		return "", errors.New("rate limited")
	}}

	report := runEngine(t, fc, p, Options{})

	res := report.Results[0]
	if res.Status != StatusError || !strings.Contains(res.Error, "ai error") {
		t.Errorf("result = %q / %q", res.Status, res.Error)
	}
	if len(fc.updates) != 0 {
		t.Error("failed block was written")
	}
}

func TestRunEmptyResponse(t *testing.T) {
	fc := newFakeClient(t, textBlockJSON("p-1", "paragraph", "A paragraph awaiting a real answer."))
	p := &testutil.MockProvider{Responses: []string{"   "}}

	report := runEngine(t, fc, p, Options{})

	res := report.Results[0]
	if res.Status != StatusError || res.Error != "invalid AI response" {
		t.Errorf("result = %q / %q", res.Status, res.Error)
	}
	if report.Summary.Failed != 1 {
		t.Errorf("failed = %d, want 1", report.Summary.Failed)
	}
}

func TestRunRetrieveFailure(t *testing.T) {
	fc := newFakeClient(t, textBlockJSON("p-1", "paragraph", "A paragraph that cannot be fetched."))
	fc.retrieveErr["p-1"] = errors.New("gateway timeout")
	p := &testutil.MockProvider{}

	report := runEngine(t, fc, p, Options{})

	res := report.Results[0]
	if res.Status != StatusError || !strings.Contains(res.Error, "retrieve block") {
		t.Errorf("result = %q / %q", res.Status, res.Error)
	}
	if len(p.Requests) != 0 {
		t.Error("AI was called for an unfetchable block")
	}
}

func TestRunTypeChangedUnderneath(t *testing.T) {
	fc := newFakeClient(t, textBlockJSON("p-1", "paragraph", "Text that became a divider somehow."))
	divider := mustBlock(t, `{"object":"block","id":"p-1","parent":{"type":"page_id","page_id":"page-root"},"type":"divider","divider":{}}`)
	fc.blocks["p-1"] = &divider
	p := &testutil.MockProvider{}

	report := runEngine(t, fc, p, Options{})

	res := report.Results[0]
	if res.Status != StatusError || res.Error != "no rich text content" {
		t.Errorf("result = %q / %q", res.Status, res.Error)
	}
	if res.BlockType != "divider" {
		t.Errorf("block type = %q, want the live type", res.BlockType)
	}
}

func TestRunEmptyLiveContent(t *testing.T) {
	fc := newFakeClient(t, textBlockJSON("p-1", "paragraph", "Text that was cleared after the snapshot."))
	cleared := mustBlock(t, textBlockJSON("p-1", "paragraph", " "))
	fc.blocks["p-1"] = &cleared
	p := &testutil.MockProvider{}

	report := runEngine(t, fc, p, Options{})

	res := report.Results[0]
	if res.Status != StatusSkipped || res.Reason != "empty content" {
		t.Errorf("result = %q / %q", res.Status, res.Reason)
	}
	if len(p.Requests) != 0 {
		t.Error("AI was called for an empty block")
	}
}

func TestRunUpdateFailure(t *testing.T) {
	fc := newFakeClient(t, textBlockJSON("p-1", "paragraph", "A block whose write will fail."))
	fc.updateErr["p-1"] = errors.New("validation_error")
	p := &testutil.MockProvider{Responses: []string{"A rewritten block."}}

	report := runEngine(t, fc, p, Options{})

	res := report.Results[0]
	if res.Status != StatusError || !strings.Contains(res.Error, "update block") {
		t.Errorf("result = %q / %q", res.Status, res.Error)
	}
	if res.EnhancedText != "" || res.ChangesMade {
		t.Errorf("failed write should not report enhanced text: %+v", res)
	}
}

func TestRunFetchError(t *testing.T) {
	fc := &fakeClient{fetchErr: errors.New("unauthorized")}
	p := &testutil.MockProvider{}

	_, err := New(fc, p, Options{}).Run(context.Background(), "page-root", nil)
	if err == nil || !strings.Contains(err.Error(), "list page blocks") {
		t.Errorf("err = %v", err)
	}
}

func TestRunSnapshotBypassesFetch(t *testing.T) {
	fc := &fakeClient{
		blocks:      make(map[string]*notion.Block),
		retrieveErr: make(map[string]error),
		updateErr:   make(map[string]error),
		fetchErr:    errors.New("fetch should not be called"),
	}
	b := mustBlock(t, textBlockJSON("p-1", "paragraph", "Snapshot-provided block content here."))
	fc.blocks["p-1"] = &b
	p := &testutil.MockProvider{Responses: []string{"Rewritten snapshot content."}}

	report, err := New(fc, p, Options{}).Run(context.Background(), "page-root", []notion.Block{b})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Summary.Enhanced != 1 {
		t.Errorf("summary = %+v", report.Summary)
	}
}

func TestRunCanceledContext(t *testing.T) {
	fc := newFakeClient(t, textBlockJSON("p-1", "paragraph", "Never processed because of cancel."))
	p := &testutil.MockProvider{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := New(fc, p, Options{}).Run(ctx, "page-root", fc.descendants)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if report == nil || len(report.Results) != 0 {
		t.Errorf("partial report = %+v", report)
	}
}

func TestRunOnResultCallback(t *testing.T) {
	fc := newFakeClient(t,
		textBlockJSON("p-1", "paragraph", "First block with enough text."),
		textBlockJSON("p-2", "paragraph", "Second block with enough text."),
	)
	p := &testutil.MockProvider{Responses: []string{"one", "two"}}

	var seen []string
	runEngine(t, fc, p, Options{
		OnResult: func(index, total int, res Result) {
			seen = append(seen, fmt.Sprintf("%d/%d:%s", index, total, res.BlockID))
		},
	})

	want := []string{"0/2:p-1", "1/2:p-2"}
	if len(seen) != len(want) {
		t.Fatalf("callbacks = %v", seen)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("callback %d = %q, want %q", i, seen[i], want[i])
		}
	}
}

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		in      string
		want    Strategy
		wantErr bool
	}{
		{"", StrategyMarkup, false},
		{"markup", StrategyMarkup, false},
		{"json", StrategyJSON, false},
		{"JSON", StrategyJSON, false},
		{" Markup ", StrategyMarkup, false},
		{"yaml", StrategyMarkup, true},
	}
	for _, tt := range tests {
		got, err := ParseStrategy(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseStrategy(%q) err = %v", tt.in, err)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseStrategy(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
