package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/samsaffron/notion-llm/internal/cache"
	"github.com/samsaffron/notion-llm/internal/config"
	"github.com/samsaffron/notion-llm/internal/enhance"
	"github.com/samsaffron/notion-llm/internal/llm"
	"github.com/samsaffron/notion-llm/internal/notify"
	"github.com/samsaffron/notion-llm/internal/notion"
	"github.com/samsaffron/notion-llm/internal/signal"
	"github.com/samsaffron/notion-llm/internal/ui"
	"github.com/spf13/cobra"
)

var (
	batchSteps    []string
	batchTo       string
	batchProvider string
	batchDryRun   bool
	batchDebug    bool
)

var batchCmd = &cobra.Command{
	Use:   "batch <pages-file>",
	Short: "Run a step list over many pages",
	Long: `Process every page listed in a file, one per line. Blank lines and
lines starting with # are skipped; entries may be raw IDs or URLs.

Steps run in order for each page before moving to the next. A failing
page is reported and the batch continues. When Telegram notifications
are configured, each page and the batch completion send a message.

Available steps: scrape, enhance, translate, questions, analyze.

Examples:
  notion-llm batch pages.txt
  notion-llm batch pages.txt --steps scrape,enhance
  notion-llm batch pages.txt --steps scrape,translate --to Japanese`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)
	AddProviderFlag(batchCmd, &batchProvider)
	AddDebugFlag(batchCmd, &batchDebug)
	AddDryRunFlag(batchCmd, &batchDryRun)
	batchCmd.Flags().StringSliceVar(&batchSteps, "steps", []string{"scrape", "enhance", "questions", "analyze"}, "Steps to run per page")
	batchCmd.Flags().StringVar(&batchTo, "to", "", "Target language for the translate step")
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfigWithSetup()
	if err != nil {
		return err
	}
	initThemeFromConfig(cfg)

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read pages file: %w", err)
	}
	pages := parsePagesFile(string(data))
	if len(pages) == 0 {
		return fmt.Errorf("%s lists no pages", args[0])
	}

	steps, err := normalizeSteps(batchSteps)
	if err != nil {
		return err
	}
	if containsStep(steps, "translate") && batchTo == "" {
		return fmt.Errorf("--to is required when steps include translate")
	}

	client, err := notionClient(cfg)
	if err != nil {
		return err
	}
	notifier := notify.New(cfg.Telegram.BotToken, cfg.Telegram.ChatID)

	ctx, stop := signal.NotifyContext()
	defer stop()
	styles := ui.DefaultStyles()

	fmt.Println(styles.Title.Render(fmt.Sprintf("Processing %d pages: %s", len(pages), strings.Join(steps, " → "))))

	type outcome struct {
		label string
		err   error
	}
	var outcomes []outcome

	for i, pageArg := range pages {
		if ctx.Err() != nil {
			break
		}

		label := pageArg
		pageID, err := notion.ParsePageID(pageArg)
		if err == nil {
			label = notion.ShortID(pageID)
			if page, titleErr := client.RetrievePage(ctx, pageID); titleErr == nil {
				label = page.Title()
			}
		}

		fmt.Println()
		fmt.Println(styles.Subtitle.Render(fmt.Sprintf("[%d/%d] %s", i+1, len(pages), label)))

		pageErr := err
		if pageErr == nil {
			pageErr = runPageSteps(ctx, steps, pageArg)
		}
		outcomes = append(outcomes, outcome{label: label, err: pageErr})

		if pageErr != nil && ctx.Err() != nil {
			break
		}
		if err := notifier.Send(ctx, notify.PageMessage(label, i+1, len(pages), pageErr == nil, llm.ActiveModel(cfg), pageErr)); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: notification failed: %v\n", err)
		}
	}

	completed := 0
	for _, o := range outcomes {
		if o.err == nil {
			completed++
		}
	}
	failed := len(outcomes) - completed

	fmt.Println()
	fmt.Println(styles.Title.Render("Batch summary"))
	for _, o := range outcomes {
		msg := o.label
		if o.err != nil {
			msg += ": " + o.err.Error()
		}
		fmt.Println("  " + styles.FormatResult(o.err == nil, msg))
	}
	if skipped := len(pages) - len(outcomes); skipped > 0 {
		fmt.Println(styles.Muted.Render(fmt.Sprintf("  %d pages not processed (interrupted)", skipped)))
	}

	// The completion notification goes out even on an interrupt.
	if err := notifier.Send(context.Background(), notify.BatchMessage(completed, failed, len(pages), llm.ActiveModel(cfg))); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: notification failed: %v\n", err)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d pages failed", failed, len(pages))
	}
	return ctx.Err()
}

// runPageSteps runs the step list for one page, stopping at the first
// failing step.
func runPageSteps(ctx context.Context, steps []string, pageArg string) error {
	for _, step := range steps {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := runBatchStep(step, pageArg); err != nil {
			return fmt.Errorf("%s: %w", step, err)
		}
	}
	return nil
}

func runBatchStep(step, pageArg string) error {
	switch step {
	case "scrape":
		return scrapeToCache(pageArg)
	case "enhance":
		f := batchRewriteFlags()
		return runRewrite(pageArg, enhance.ModeReadability, "", f)
	case "translate":
		f := batchRewriteFlags()
		return runRewrite(pageArg, enhance.ModeTranslation, batchTo, f)
	case "questions":
		return generateQuestions(pageArg, batchProvider, true, defaultQuestionsMarker, batchDebug)
	case "analyze":
		return analyzePage(pageArg, batchProvider, true, batchDebug)
	}
	return fmt.Errorf("unknown step %q", step)
}

func batchRewriteFlags() *rewriteFlags {
	return &rewriteFlags{
		provider: batchProvider,
		strategy: "markup",
		dryRun:   batchDryRun,
		debug:    batchDebug,
	}
}

// scrapeToCache is the batch scrape step: save the markdown file and the
// block snapshot the later steps reuse.
func scrapeToCache(pageArg string) error {
	cfg, err := loadConfigWithSetup()
	if err != nil {
		return err
	}
	pageID, err := notion.ParsePageID(pageArg)
	if err != nil {
		return err
	}
	client, err := notionClient(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext()
	defer stop()

	result, err := wholePageScrape(ctx, cfg, client, pageID)
	if err != nil {
		return err
	}
	if _, err := cache.Save(config.GetDataDir(), pageID, result.Page.Title(), result.Blocks); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not cache blocks: %v\n", err)
	}
	fmt.Println(ui.DefaultStyles().Success.Render(
		fmt.Sprintf("Scraped %q (%d blocks) to %s", result.Page.Title(), len(result.Blocks), result.Path)))
	return nil
}

// parsePagesFile extracts page entries from a pages file: one per line,
// trimmed, with blank lines and # comments dropped. An inline comment
// after the entry is dropped too.
func parsePagesFile(data string) []string {
	var pages []string
	for _, line := range strings.Split(data, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if idx := strings.Index(line, " #"); idx >= 0 {
			line = strings.TrimSpace(line[:idx])
		}
		if line != "" {
			pages = append(pages, line)
		}
	}
	return pages
}

// normalizeSteps lowercases, trims, and validates the step list,
// dropping duplicates while keeping order.
func normalizeSteps(steps []string) ([]string, error) {
	valid := map[string]bool{
		"scrape": true, "enhance": true, "translate": true,
		"questions": true, "analyze": true,
	}
	var out []string
	seen := map[string]bool{}
	for _, step := range steps {
		step = strings.ToLower(strings.TrimSpace(step))
		if step == "" {
			continue
		}
		if !valid[step] {
			return nil, fmt.Errorf("unknown step %q (valid: scrape, enhance, translate, questions, analyze)", step)
		}
		if seen[step] {
			continue
		}
		seen[step] = true
		out = append(out, step)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no steps to run")
	}
	return out, nil
}

func containsStep(steps []string, step string) bool {
	for _, s := range steps {
		if s == step {
			return true
		}
	}
	return false
}
