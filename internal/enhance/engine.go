// Package enhance runs the block-by-block rewrite loop: walk a page,
// filter the blocks a model may touch, send each one with its formatting
// profile and recent-block context, and write the reconstructed rich text
// back through the protection guard. Per-block failures land in the run
// results; only failing to list the page at all aborts a run.
package enhance

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gobwas/glob"

	"github.com/samsaffron/notion-llm/internal/llm"
	"github.com/samsaffron/notion-llm/internal/notion"
	"github.com/samsaffron/notion-llm/internal/prompt"
	"github.com/samsaffron/notion-llm/internal/richtext"
)

// Mode selects the instruction set driving a run.
type Mode int

const (
	// ModeReadability rewrites blocks for clarity, keeping meaning.
	ModeReadability Mode = iota
	// ModeTranslation rewrites blocks into the target language. Any
	// non-whitespace block qualifies, and responses are validated against
	// prompt leakage and length blowups.
	ModeTranslation
)

func (m Mode) String() string {
	if m == ModeTranslation {
		return "translation"
	}
	return "readability"
}

// Strategy picks the per-block rewrite mechanism.
type Strategy int

const (
	// StrategyMarkup asks for rewritten text in the hybrid markup dialect
	// and reconstructs rich text spans from it.
	StrategyMarkup Strategy = iota
	// StrategyJSON sends the whole block JSON and asks for it back with
	// only the text content changed.
	StrategyJSON
)

func (s Strategy) String() string {
	if s == StrategyJSON {
		return "json"
	}
	return "markup"
}

// ParseStrategy parses the --strategy flag value.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "markup":
		return StrategyMarkup, nil
	case "json":
		return StrategyJSON, nil
	}
	return StrategyMarkup, fmt.Errorf("unknown strategy %q (markup or json)", s)
}

const (
	defaultMinLength     = 5
	defaultContextWindow = 5

	// minBlockTextLen is the floor re-checked against the live block; text
	// that shrank below it since the snapshot is skipped without an AI call.
	minBlockTextLen = 2

	// shortTextLen is the stripped length under which translation
	// validation failures are forgiven, since a two-character original
	// gives the validator nothing to compare against.
	shortTextLen = 5
)

// updatableTypes is the set of block types a run may rewrite. Media types
// are included for their captions.
var updatableTypes = map[notion.BlockType]bool{
	notion.TypeParagraph:        true,
	notion.TypeHeading1:         true,
	notion.TypeHeading2:         true,
	notion.TypeHeading3:         true,
	notion.TypeBulletedListItem: true,
	notion.TypeNumberedListItem: true,
	notion.TypeQuote:            true,
	notion.TypeCallout:          true,
	notion.TypeToggle:           true,
	notion.TypeToDo:             true,
	notion.TypeImage:            true,
	notion.TypeVideo:            true,
	notion.TypeFile:             true,
	notion.TypePDF:              true,
	notion.TypeAudio:            true,
	notion.TypeBookmark:         true,
}

// PageClient is the notion surface the engine drives.
type PageClient interface {
	RetrieveBlock(ctx context.Context, blockID string) (*notion.Block, error)
	UpdateBlock(ctx context.Context, blockID string, body any) (*notion.Block, error)
	FetchDescendants(ctx context.Context, rootID string, opts notion.FetchOptions) ([]notion.Block, error)
}

// Options configures a run. Zero values fall back to the defaults noted on
// each field.
type Options struct {
	Mode     Mode
	Strategy Strategy

	// Template is the prompt section text driving each block, empty for
	// the built-in. Sections without the per-block placeholders cannot
	// format a block and fall back to the built-in as well.
	Template string

	// Instructions is the task line for readability runs when the built-in
	// block prompt is used.
	Instructions string

	// TargetLanguage names the language for translation runs.
	TargetLanguage string

	// Model is recorded in the report; the provider already carries it.
	Model string

	// Limit caps how many blocks are processed, zero for all.
	Limit int

	// MinLength drops candidate blocks whose stripped text is not longer
	// than this, zero for the default of 5. Translation runs always accept
	// any non-whitespace text.
	MinLength int

	// Only and Skip filter candidate block types; empty means no filter.
	Only []glob.Glob
	Skip []glob.Glob

	// DryRun does everything except the write.
	DryRun bool

	// Pacing is the pause between blocks, zero for none.
	Pacing time.Duration

	// ContextWindow is how many recently rewritten blocks are kept for
	// prompt context, zero for the default of 5.
	ContextWindow int

	// MaxTokens and Temperature override the provider defaults when set.
	MaxTokens   int
	Temperature float32

	// MaxDepth bounds the block tree walk when no snapshot is supplied.
	MaxDepth int

	// OnResult, when set, observes each block outcome as it lands.
	OnResult func(index, total int, res Result)

	// LogInteraction, when set, receives every prompt/response pair.
	LogInteraction func(operation, prompt, response string)
}

// Engine runs the rewrite loop for one page.
type Engine struct {
	client   PageClient
	provider llm.Provider
	opts     Options
}

// New builds an engine around a page client and a provider.
func New(client PageClient, provider llm.Provider, opts Options) *Engine {
	return &Engine{client: client, provider: provider, opts: opts}
}

// Run processes every eligible block of a page in document order and
// returns the report. snapshot, when non-empty, is used instead of walking
// the live page; the live retrieve before each write still happens either
// way. A canceled context returns the partial report with the error.
func (e *Engine) Run(ctx context.Context, pageID string, snapshot []notion.Block) (*Report, error) {
	blocks := snapshot
	if len(blocks) == 0 {
		var err error
		blocks, err = e.client.FetchDescendants(ctx, pageID, notion.FetchOptions{
			MaxDepth:        e.opts.MaxDepth,
			ProbeContainers: true,
		})
		if err != nil {
			return nil, fmt.Errorf("list page blocks: %w", err)
		}
	}

	guard := NewGuard(e.client, blocks)
	candidates, protected := e.candidates(blocks, guard)

	report := &Report{
		PageID:         pageID,
		Mode:           e.opts.Mode.String(),
		Strategy:       e.opts.Strategy.String(),
		Provider:       e.provider.Name(),
		Model:          e.opts.Model,
		TargetLanguage: e.opts.TargetLanguage,
		DryRun:         e.opts.DryRun,
		Limit:          e.opts.Limit,
		StartedAt:      time.Now().UTC(),
	}

	err := e.loop(ctx, candidates, guard, report)
	report.Summary = Summarize(report.Results, protected)
	return report, err
}

func (e *Engine) loop(ctx context.Context, candidates []notion.Block, guard *Guard, report *Report) error {
	window := e.opts.ContextWindow
	if window <= 0 {
		window = defaultContextWindow
	}

	var entries []prompt.ContextEntry
	total := len(candidates)
	for i := range candidates {
		if err := ctx.Err(); err != nil {
			return err
		}

		res := e.processBlock(ctx, &candidates[i], guard, entries)
		report.Results = append(report.Results, res)

		if res.Status == StatusEnhanced && res.OriginalText != "" && res.EnhancedText != "" {
			entries = append(entries, prompt.ContextEntry{
				Type:     res.BlockType,
				Original: res.OriginalText,
				Enhanced: res.EnhancedText,
			})
			if len(entries) > window {
				entries = entries[len(entries)-window:]
			}
		}

		if e.opts.OnResult != nil {
			e.opts.OnResult(i, total, res)
		}
		if i < total-1 {
			if err := pause(ctx, e.opts.Pacing); err != nil {
				return err
			}
		}
	}
	return nil
}

// candidates filters page blocks down to the ones this run will process:
// updatable types only, synced content dropped and counted, type globs
// applied, and the text floor honored. The scan stops once the limit is
// reached so long pages don't burn filtering work past it.
func (e *Engine) candidates(blocks []notion.Block, guard *Guard) ([]notion.Block, int) {
	minLen := e.minLength()
	protected := 0
	var out []notion.Block
	for i := range blocks {
		if e.opts.Limit > 0 && len(out) >= e.opts.Limit {
			break
		}
		b := &blocks[i]
		if b.Type == notion.TypeSyncedBlock {
			protected++
			continue
		}
		if !updatableTypes[b.Type] {
			continue
		}
		if guard.CachedProtected(b) {
			protected++
			continue
		}
		if !e.typeAllowed(b.Type) {
			continue
		}
		text := editableText(b.RichTextSpans())
		if utf8.RuneCountInString(strings.TrimSpace(text)) <= minLen {
			continue
		}
		out = append(out, *b)
	}
	return out, protected
}

func (e *Engine) minLength() int {
	if e.opts.Mode == ModeTranslation {
		return 0
	}
	if e.opts.MinLength > 0 {
		return e.opts.MinLength
	}
	return defaultMinLength
}

func (e *Engine) typeAllowed(t notion.BlockType) bool {
	if len(e.opts.Only) > 0 {
		matched := false
		for _, g := range e.opts.Only {
			if g.Match(string(t)) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	for _, g := range e.opts.Skip {
		if g.Match(string(t)) {
			return false
		}
	}
	return true
}

// processBlock handles one block end to end: live retrieve, protection
// re-check, prompt, model call, and write. Every failure is local to the
// block and lands in the result.
func (e *Engine) processBlock(ctx context.Context, blk *notion.Block, guard *Guard, entries []prompt.ContextEntry) Result {
	res := Result{BlockID: blk.ID, BlockType: string(blk.Type)}

	current, err := e.client.RetrieveBlock(ctx, blk.ID)
	if err != nil {
		res.Status = StatusError
		res.Error = fmt.Sprintf("retrieve block: %v", err)
		return res
	}
	res.BlockType = string(current.Type)

	protected, err := guard.LiveProtected(ctx, current)
	if err != nil {
		// Can't prove the chain is clean, so don't write.
		res.Status = StatusSkipped
		res.Reason = "synced check failed"
		return res
	}
	if protected {
		res.Status = StatusSkipped
		res.Reason = "synced content"
		return res
	}

	spans := current.RichTextSpans()
	if len(spans) == 0 {
		res.Status = StatusError
		res.Error = "no rich text content"
		return res
	}
	plain := editableText(spans)
	res.OriginalText = plain
	if utf8.RuneCountInString(strings.TrimSpace(plain)) < minBlockTextLen {
		res.Status = StatusSkipped
		res.Reason = "empty content"
		return res
	}

	if e.opts.Strategy == StrategyJSON {
		return e.processJSON(ctx, current, plain, res)
	}

	profile := richtext.Extract(spans)
	aiPrompt := prompt.Block(e.blockTemplate(), prompt.BlockParams{
		ContextInfo:    prompt.ContextInfo(entries),
		BlockType:      string(current.Type),
		Text:           plain,
		Formatting:     richtext.Describe(profile),
		Task:           e.task(),
		TargetLanguage: e.opts.TargetLanguage,
	})

	resp, err := e.generate(ctx, "BLOCK_UPDATE_"+string(current.Type), aiPrompt)
	if err != nil {
		res.Status = StatusError
		res.Error = fmt.Sprintf("ai error: %v", err)
		return res
	}

	enhanced := resp
	if e.opts.Mode == ModeTranslation {
		cleaned, ok := validateTranslation(resp, plain, e.opts.TargetLanguage)
		switch {
		case ok:
			enhanced = cleaned
		case utf8.RuneCountInString(strings.TrimSpace(plain)) < shortTextLen:
			// Too little original text to validate against; keep the raw
			// response rather than losing a short translation.
		default:
			res.Status = StatusError
			res.Error = "translation failed validation"
			return res
		}
	}

	enhanced = strings.TrimSpace(enhanced)
	if enhanced == "" {
		res.Status = StatusError
		res.Error = "invalid AI response"
		return res
	}
	if noChanges(enhanced) {
		res.Status = StatusNoChanges
		return res
	}

	return e.apply(ctx, current, spans, profile, enhanced, res)
}

// apply reconstructs rich text from the model output and writes it back.
func (e *Engine) apply(ctx context.Context, current *notion.Block, original []notion.RichText, profile *richtext.Profile, enhanced string, res Result) Result {
	enhanced = richtext.Truncate(enhanced)
	if current.Type.Heading() {
		// Headings style themselves; leftover markers would show literally.
		enhanced = richtext.SanitizeInline(enhanced, current.Type)
	}

	spans := richtext.Reconcile(enhanced, original, profile)
	spans = enrichSpans(spans, original)

	payload, ok := BuildUpdatePayload(current, spans)
	if !ok {
		res.Status = StatusError
		res.Error = fmt.Sprintf("block type %s is not writable", current.Type)
		return res
	}

	res.EnhancedText = enhanced
	res.ChangesMade = enhanced != res.OriginalText
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

// enrichSpans reapplies the original annotated runs when the model answered
// in plain text for a block that carried formatting. The parser can only
// find markers the model emitted; when it emits none, the original span
// styles are matched back against the rewritten text instead.
func enrichSpans(spans, original []notion.RichText) []notion.RichText {
	if len(spans) != 1 || spans[0].Text == nil || !spans[0].Annotations.Plain() {
		return spans
	}
	styled := richtext.CollectSpans(original)
	if len(styled) == 0 {
		return spans
	}
	return richtext.ApplySpans(spans[0].Text.Content, styled)
}

func (e *Engine) generate(ctx context.Context, operation, aiPrompt string) (string, error) {
	resp, err := e.provider.Generate(ctx, llm.Request{
		Prompt:      aiPrompt,
		MaxTokens:   e.opts.MaxTokens,
		Temperature: e.opts.Temperature,
	})
	if err != nil {
		return "", err
	}
	if e.opts.LogInteraction != nil {
		e.opts.LogInteraction(operation, aiPrompt, resp)
	}
	return resp, nil
}

// blockTemplate returns the section template when it can actually format a
// block; anything without the per-block placeholder falls back to the
// built-in prompt.
func (e *Engine) blockTemplate() string {
	if strings.Contains(e.opts.Template, "{current_plain_text}") {
		return e.opts.Template
	}
	return ""
}

// task is the instruction line for the built-in block prompt.
func (e *Engine) task() string {
	if e.opts.Mode == ModeTranslation {
		return prompt.TranslationInstructions(e.opts.TargetLanguage)
	}
	if e.opts.Instructions != "" {
		return e.opts.Instructions
	}
	return prompt.ReadingInstructions("")
}

// noChanges reports whether the model declined to rewrite the block.
func noChanges(s string) bool {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "NO CHANGES", "NO CHANGE", "NOCHANGES":
		return true
	}
	return false
}

// translationLeakIndicators are prompt fragments that only show up when the
// model echoed its instructions instead of translating.
var translationLeakIndicators = []string{
	"CRITICAL REQUIREMENTS",
	"TRANSLATION GUIDELINES",
	"SPECIFIC PRESERVATION",
	"TASK:",
	"IMPORTANT:",
	"You are an expert",
	"Translate the following",
	"Keep ALL formatting",
}

// validateTranslation rejects responses that leaked the prompt or blew past
// a plausible length for the original. Short originals (under 5 stripped
// characters) cap the response at 50 characters; anything longer allows a
// 5x expansion for wordier languages.
func validateTranslation(response, original, targetLanguage string) (string, bool) {
	response = strings.TrimSpace(response)
	if response == "" {
		return "", false
	}
	for _, indicator := range translationLeakIndicators {
		if strings.Contains(response, indicator) {
			return "", false
		}
	}
	if targetLanguage != "" && strings.Contains(response, "to "+targetLanguage) {
		return "", false
	}

	respLen := utf8.RuneCountInString(response)
	if utf8.RuneCountInString(strings.TrimSpace(original)) < shortTextLen {
		if respLen > 50 {
			return "", false
		}
	} else if respLen > utf8.RuneCountInString(original)*5 {
		return "", false
	}
	return response, true
}

// editableText concatenates the text-typed runs, the only content the
// update path can write back. Mentions and equations contribute nothing.
func editableText(spans []notion.RichText) string {
	var sb strings.Builder
	for _, s := range spans {
		if s.Text != nil {
			sb.WriteString(s.Text.Content)
		}
	}
	return sb.String()
}

func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
