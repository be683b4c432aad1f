package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gobwas/glob"
	"github.com/samsaffron/notion-llm/internal/cache"
	"github.com/samsaffron/notion-llm/internal/config"
	"github.com/samsaffron/notion-llm/internal/debuglog"
	"github.com/samsaffron/notion-llm/internal/enhance"
	"github.com/samsaffron/notion-llm/internal/history"
	"github.com/samsaffron/notion-llm/internal/llm"
	"github.com/samsaffron/notion-llm/internal/notion"
	"github.com/samsaffron/notion-llm/internal/prompt"
	"github.com/samsaffron/notion-llm/internal/signal"
	"github.com/samsaffron/notion-llm/internal/ui"
	"github.com/spf13/cobra"
)

// rewriteFlags holds the flag variables shared by enhance and translate.
// Each command registers its own instance.
type rewriteFlags struct {
	provider     string
	promptName   string
	strategy     string
	instructions string
	only         []string
	skip         []string
	limit        int
	maxDepth     int
	dryRun       bool
	diff         bool
	debug        bool
	noCache      bool
}

func addRewriteFlags(cmd *cobra.Command, f *rewriteFlags) {
	AddProviderFlag(cmd, &f.provider)
	AddDebugFlag(cmd, &f.debug)
	AddDryRunFlag(cmd, &f.dryRun)
	AddMaxDepthFlag(cmd, &f.maxDepth, 0)
	cmd.Flags().StringVar(&f.promptName, "prompt", "", "Prompt section to use from the prompts file")
	if err := cmd.RegisterFlagCompletionFunc("prompt", PromptSectionCompletion); err != nil {
		panic("failed to register prompt completion: " + err.Error())
	}
	cmd.Flags().StringVar(&f.strategy, "strategy", "markup", "Rewrite strategy: markup or json")
	cmd.Flags().BoolVar(&f.diff, "diff", false, "Show a unified diff for each changed block")
	cmd.Flags().StringSliceVar(&f.only, "only", nil, "Only process block types matching these globs (e.g. heading_*)")
	cmd.Flags().StringSliceVar(&f.skip, "skip", nil, "Skip block types matching these globs")
	cmd.Flags().IntVar(&f.limit, "limit", 0, "Stop after processing N blocks (0 = config default)")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "Ignore the cached snapshot and refetch the page")
}

var enhanceFlags rewriteFlags

var enhanceCmd = &cobra.Command{
	Use:   "enhance <page>",
	Short: "Rewrite a page's text for readability, block by block",
	Long: `Walk a page's blocks and rewrite each one with the configured AI
provider. Bold, links, colors, and block structure survive the rewrite;
synced blocks are never touched.

Run with --dry-run --diff first to review the changes.

Examples:
  notion-llm enhance <page> --dry-run --diff
  notion-llm enhance <page> -p anthropic:claude-haiku-4-5 --limit 10
  notion-llm enhance <page> --only "paragraph,bulleted*" --strategy json`,
	Args: cobra.ExactArgs(1),
	RunE: runEnhance,
}

func init() {
	rootCmd.AddCommand(enhanceCmd)
	addRewriteFlags(enhanceCmd, &enhanceFlags)
	enhanceCmd.Flags().StringVar(&enhanceFlags.instructions, "instructions", "", "Extra instructions for the rewrite prompt")
}

func runEnhance(cmd *cobra.Command, args []string) error {
	return runRewrite(args[0], enhance.ModeReadability, "", &enhanceFlags)
}

// runRewrite is the shared enhance/translate pipeline: resolve config and
// provider, reuse the cached snapshot when fresh enough, run the engine
// with live progress, then persist the report and record the run.
func runRewrite(pageArg string, mode enhance.Mode, targetLanguage string, f *rewriteFlags) error {
	cfg, err := loadConfigWithSetup()
	if err != nil {
		return err
	}
	initThemeFromConfig(cfg)

	if err := applyProviderOverrides(cfg, cfg.Enhance.Provider, cfg.Enhance.Model, f.provider); err != nil {
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
	provider, err := llm.NewProvider(cfg)
	if err != nil {
		return err
	}

	strategy, err := enhance.ParseStrategy(f.strategy)
	if err != nil {
		return err
	}
	only, err := compileGlobs(f.only)
	if err != nil {
		return fmt.Errorf("invalid --only pattern: %w", err)
	}
	skip, err := compileGlobs(f.skip)
	if err != nil {
		return fmt.Errorf("invalid --skip pattern: %w", err)
	}

	sectionName := prompt.SectionReading
	if mode == enhance.ModeTranslation {
		sectionName = prompt.SectionTranslation
	}
	explicit := f.promptName != ""
	if explicit {
		sectionName = f.promptName
	}
	template, err := loadPromptSection(cfg, sectionName, explicit)
	if err != nil {
		return err
	}

	logger, err := openDebugLog(cfg, f.debug, mode.String())
	if err != nil {
		return err
	}
	defer logger.Close()

	ctx, stop := signal.NotifyContext()
	defer stop()

	styles := ui.DefaultStyles()

	var snapshot []notion.Block
	pageTitle := ""
	if !f.noCache {
		if snap, err := cache.Load(config.GetDataDir(), pageID); err == nil {
			snapshot = snap.Blocks
			pageTitle = snap.Title
			fmt.Fprintln(os.Stderr, styles.Muted.Render(
				fmt.Sprintf("Using cached blocks (%d blocks, scraped %s ago)",
					len(snap.Blocks), snap.Age().Round(time.Second))))
		}
	}
	if pageTitle == "" {
		if page, err := client.RetrievePage(ctx, pageID); err == nil {
			pageTitle = page.Title()
		}
	}

	instructions := f.instructions
	if instructions == "" {
		instructions = cfg.Enhance.Instructions
	}
	limit := f.limit
	if limit == 0 {
		limit = cfg.Enhance.BlockLimit
	}
	maxDepth := f.maxDepth
	if maxDepth == 0 {
		maxDepth = cfg.Scrape.MaxDepth
	}

	opts := enhance.Options{
		Mode:           mode,
		Strategy:       strategy,
		Template:       template,
		Instructions:   instructions,
		TargetLanguage: targetLanguage,
		Model:          llm.ActiveModel(cfg),
		Limit:          limit,
		MinLength:      cfg.Enhance.MinLength,
		Only:           only,
		Skip:           skip,
		DryRun:         f.dryRun,
		Pacing:         time.Duration(cfg.Enhance.PacingMs) * time.Millisecond,
		ContextWindow:  cfg.Enhance.ContextWindow,
		MaxTokens:      cfg.Enhance.MaxTokens,
		Temperature:    cfg.Enhance.Temperature,
		MaxDepth:       maxDepth,
		OnResult: func(index, total int, res enhance.Result) {
			fmt.Println(styles.ProgressLine(index, total, res.BlockType, string(res.Status), progressDetail(res)))
			if f.diff && res.EnhancedText != "" && ui.HasDiff(res.OriginalText, res.EnhancedText) {
				if d := styles.RenderUnifiedDiff(res.BlockType, res.OriginalText, res.EnhancedText); d != "" {
					fmt.Println(d)
				}
			}
		},
		LogInteraction: func(operation, promptText, response string) {
			logger.Log(operation, provider.Name(), llm.ActiveModel(cfg), promptText, response)
		},
	}

	verb := "Enhancing"
	if mode == enhance.ModeTranslation {
		verb = "Translating"
	}
	if pageTitle != "" {
		fmt.Println(styles.Title.Render(fmt.Sprintf("%s %q", verb, pageTitle)))
	}

	engine := enhance.New(client, provider, opts)
	report, runErr := engine.Run(ctx, pageID, snapshot)
	if report != nil {
		finishRun(cfg, report, pageTitle, logger, styles)
	}
	return runErr
}

// finishRun persists the report, records it in history, and prints the
// run summary. Persistence failures are reported but never fail the run.
func finishRun(cfg *config.Config, report *enhance.Report, pageTitle string, logger *debuglog.Logger, styles *ui.Styles) {
	reportPath := persistRun(cfg, report, pageTitle)

	fmt.Println()
	msg := report.Summary.Message()
	if report.Summary.Success() {
		fmt.Println(styles.Success.Render(msg))
	} else {
		fmt.Println(styles.Warning.Render(msg))
	}
	if report.Summary.SyncedProtected > 0 {
		fmt.Println(styles.Muted.Render(
			fmt.Sprintf("%d synced blocks left untouched", report.Summary.SyncedProtected)))
	}
	if reportPath != "" {
		fmt.Println(styles.Muted.Render("Report saved to " + reportPath))
	}
	if logger.Path() != "" {
		fmt.Println(styles.Muted.Render("Debug log: " + logger.Path()))
	}
}

// persistRun saves the report and records the run, returning the report
// path. Persistence failures warn on stderr and never fail the run.
func persistRun(cfg *config.Config, report *enhance.Report, pageTitle string) string {
	reportPath, err := enhance.SaveReport(filepath.Join(config.GetDataDir(), "results"), report)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not save report: %v\n", err)
	}
	if cfg.History.Enabled {
		recordRun(cfg, report, pageTitle, reportPath)
	}
	return reportPath
}

func recordRun(cfg *config.Config, report *enhance.Report, pageTitle, reportPath string) {
	path := cfg.History.Path
	if path == "" {
		path = history.DefaultPath()
	}
	store, err := history.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not open history: %v\n", err)
		return
	}
	defer store.Close()

	// The run context may already be canceled; recording still proceeds.
	if _, err := store.Record(context.Background(), report, pageTitle, reportPath); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not record run: %v\n", err)
	}
}

func progressDetail(res enhance.Result) string {
	switch res.Status {
	case enhance.StatusEnhanced:
		return res.EnhancedText
	case enhance.StatusSkipped:
		return res.Reason
	case enhance.StatusError, enhance.StatusJSONError:
		return res.Error
	}
	return ""
}

func compileGlobs(patterns []string) ([]glob.Glob, error) {
	var globs []glob.Glob
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", p, err)
		}
		globs = append(globs, g)
	}
	return globs, nil
}

// loadPromptSection resolves a section template from the prompts file.
// An empty return means the built-in prompt applies. A missing section is
// only an error when the user named it explicitly; the error carries a
// fuzzy-matched suggestion when one is close.
func loadPromptSection(cfg *config.Config, name string, explicit bool) (string, error) {
	path := cfg.Prompts.File
	if path == "" {
		return "", nil
	}
	if _, err := os.Stat(path); err != nil {
		if explicit {
			return "", fmt.Errorf("prompts file %s not found", path)
		}
		return "", nil
	}
	template, err := prompt.LoadSection(path, name)
	if err != nil {
		if !explicit {
			return "", nil
		}
		names, listErr := prompt.Sections(path)
		if listErr == nil {
			if suggestion := prompt.Suggest(name, names); suggestion != "" && suggestion != name {
				return "", fmt.Errorf("section %q not found in %s (did you mean %q?)", name, path, suggestion)
			}
		}
		return "", err
	}
	return template, nil
}

// openDebugLog opens the AI interaction log when --debug or the config
// asks for it. The returned logger is nil (and safe to use) otherwise.
func openDebugLog(cfg *config.Config, flag bool, command string) (*debuglog.Logger, error) {
	if !flag && !cfg.Debug.Enabled {
		return nil, nil
	}
	dir := cfg.Debug.Dir
	if dir == "" {
		dir = filepath.Join(config.GetDataDir(), "debug")
	}
	logger, err := debuglog.Open(dir, command, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to open debug log: %w", err)
	}
	return logger, nil
}
