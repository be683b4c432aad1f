package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/samsaffron/notion-llm/internal/cache"
	"github.com/samsaffron/notion-llm/internal/config"
	"github.com/samsaffron/notion-llm/internal/enhance"
	"github.com/samsaffron/notion-llm/internal/llm"
	"github.com/samsaffron/notion-llm/internal/notion"
	"github.com/samsaffron/notion-llm/internal/prompt"
	"github.com/samsaffron/notion-llm/internal/scrape"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run an MCP server over stdio",
	Long: `Expose page scraping and enhancement as Model Context Protocol tools,
so AI assistants can read and rewrite Notion pages through notion-llm.

The server speaks the protocol on stdin/stdout; wire it into a client
configuration rather than running it by hand:

  {"mcpServers": {"notion-llm": {"command": "notion-llm", "args": ["mcp"]}}}

Tools: notion_scrape, notion_enhance.`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	// stdout carries the protocol, so the setup wizard never runs here.
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyProviderOverrides(cfg, cfg.Enhance.Provider, cfg.Enhance.Model, ""); err != nil {
		return err
	}

	h := &mcpHandlers{cfg: cfg}

	s := server.NewMCPServer(
		"notion-llm",
		Version,
		server.WithToolCapabilities(true),
	)
	s.AddTool(scrapeToolDef(), h.handleScrape)
	s.AddTool(enhanceToolDef(), h.handleEnhance)

	return server.ServeStdio(s)
}

// mcpHandlers holds the config the tool handlers share.
type mcpHandlers struct {
	cfg *config.Config
}

// decodeArgs unmarshals tool call arguments into a typed struct.
func decodeArgs[T any](req mcp.CallToolRequest) (T, error) {
	var result T
	b, err := json.Marshal(req.GetArguments())
	if err != nil {
		return result, fmt.Errorf("marshal args: %w", err)
	}
	if err := json.Unmarshal(b, &result); err != nil {
		return result, fmt.Errorf("unmarshal args: %w", err)
	}
	return result, nil
}

type scrapeArgs struct {
	Page      string `json:"page"`
	CleanURLs bool   `json:"clean_urls,omitempty"`
}

func scrapeToolDef() mcp.Tool {
	return mcp.NewTool("notion_scrape",
		mcp.WithDescription("Download a Notion page as markdown. Returns the full page content including toggles, nested blocks, and tables."),
		mcp.WithString("page",
			mcp.Required(),
			mcp.Description("Page ID or notion.so URL"),
		),
		mcp.WithBoolean("clean_urls",
			mcp.Description("Replace long URLs with short placeholders"),
		),
	)
}

func (h *mcpHandlers) handleScrape(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decodeArgs[scrapeArgs](req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if input.Page == "" {
		return mcp.NewToolResultError("page is required"), nil
	}
	pageID, err := notion.ParsePageID(input.Page)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, err := notionClient(h.cfg)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	scraper := scrape.New(client, scrape.Options{
		CleanURLs: input.CleanURLs || h.cfg.Scrape.CleanURLs,
		MaxDepth:  h.cfg.Scrape.MaxDepth,
	})

	result, err := scraper.Scrape(ctx, pageID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("scrape failed: %v", err)), nil
	}

	// Best effort; a later notion_enhance call reuses the snapshot.
	_, _ = cache.Save(config.GetDataDir(), pageID, result.Page.Title(), result.Blocks)

	return mcp.NewToolResultText(result.Markdown), nil
}

type enhanceArgs struct {
	Page           string `json:"page"`
	Mode           string `json:"mode,omitempty"`
	TargetLanguage string `json:"target_language,omitempty"`
	DryRun         bool   `json:"dry_run,omitempty"`
	Limit          int    `json:"limit,omitempty"`
	Instructions   string `json:"instructions,omitempty"`
}

type enhanceResult struct {
	PageID          string `json:"page_id"`
	Mode            string `json:"mode"`
	DryRun          bool   `json:"dry_run,omitempty"`
	BlocksProcessed int    `json:"blocks_processed"`
	Updated         int    `json:"updated"`
	NoChanges       int    `json:"no_changes"`
	Skipped         int    `json:"skipped"`
	Failed          int    `json:"failed"`
	SyncedProtected int    `json:"synced_protected,omitempty"`
	Message         string `json:"message"`
	ReportPath      string `json:"report_path,omitempty"`
}

func enhanceToolDef() mcp.Tool {
	return mcp.NewTool("notion_enhance",
		mcp.WithDescription("Rewrite a Notion page's text for readability, or translate it, block by block. Bold, links, colors, and block structure survive; synced blocks are never touched. Use dry_run to preview."),
		mcp.WithString("page",
			mcp.Required(),
			mcp.Description("Page ID or notion.so URL"),
		),
		mcp.WithString("mode",
			mcp.Description("readability (default) or translation"),
		),
		mcp.WithString("target_language",
			mcp.Description("Target language, required when mode is translation"),
		),
		mcp.WithBoolean("dry_run",
			mcp.Description("Report what would change without writing to the page"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Stop after processing this many blocks"),
		),
		mcp.WithString("instructions",
			mcp.Description("Extra guidance for the rewrite prompt"),
		),
	)
}

func (h *mcpHandlers) handleEnhance(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decodeArgs[enhanceArgs](req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if input.Page == "" {
		return mcp.NewToolResultError("page is required"), nil
	}

	var mode enhance.Mode
	switch input.Mode {
	case "", "readability":
		mode = enhance.ModeReadability
	case "translation", "translate":
		mode = enhance.ModeTranslation
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unknown mode %q (use readability or translation)", input.Mode)), nil
	}
	if mode == enhance.ModeTranslation && input.TargetLanguage == "" {
		return mcp.NewToolResultError("target_language is required when mode is translation"), nil
	}

	cfg := h.cfg
	pageID, err := notion.ParsePageID(input.Page)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	client, err := notionClient(cfg)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	provider, err := llm.NewProvider(cfg)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	sectionName := prompt.SectionReading
	if mode == enhance.ModeTranslation {
		sectionName = prompt.SectionTranslation
	}
	template, err := loadPromptSection(cfg, sectionName, false)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	logger, err := openDebugLog(cfg, false, "mcp")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	defer logger.Close()

	var snapshot []notion.Block
	pageTitle := ""
	if snap, err := cache.Load(config.GetDataDir(), pageID); err == nil {
		snapshot = snap.Blocks
		pageTitle = snap.Title
	}
	if pageTitle == "" {
		if page, err := client.RetrievePage(ctx, pageID); err == nil {
			pageTitle = page.Title()
		}
	}

	instructions := input.Instructions
	if instructions == "" {
		instructions = cfg.Enhance.Instructions
	}
	limit := input.Limit
	if limit == 0 {
		limit = cfg.Enhance.BlockLimit
	}

	engine := enhance.New(client, provider, enhance.Options{
		Mode:           mode,
		Strategy:       enhance.StrategyMarkup,
		Template:       template,
		Instructions:   instructions,
		TargetLanguage: input.TargetLanguage,
		Model:          llm.ActiveModel(cfg),
		Limit:          limit,
		MinLength:      cfg.Enhance.MinLength,
		DryRun:         input.DryRun,
		Pacing:         time.Duration(cfg.Enhance.PacingMs) * time.Millisecond,
		ContextWindow:  cfg.Enhance.ContextWindow,
		MaxTokens:      cfg.Enhance.MaxTokens,
		Temperature:    cfg.Enhance.Temperature,
		MaxDepth:       cfg.Scrape.MaxDepth,
		LogInteraction: func(operation, promptText, response string) {
			logger.Log(operation, provider.Name(), llm.ActiveModel(cfg), promptText, response)
		},
	})

	report, runErr := engine.Run(ctx, pageID, snapshot)
	if report == nil {
		return mcp.NewToolResultError(fmt.Sprintf("enhance failed: %v", runErr)), nil
	}
	reportPath := persistRun(cfg, report, pageTitle)
	if runErr != nil {
		return mcp.NewToolResultError(fmt.Sprintf("enhance aborted: %v (%s)", runErr, report.Summary.Message())), nil
	}

	out, err := mcp.NewToolResultJSON(enhanceResult{
		PageID:          report.PageID,
		Mode:            report.Mode,
		DryRun:          report.DryRun,
		BlocksProcessed: report.Summary.BlocksProcessed,
		Updated:         report.Summary.Enhanced,
		NoChanges:       report.Summary.NoChanges,
		Skipped:         report.Summary.Skipped,
		Failed:          report.Summary.Failed + report.Summary.JSONErrors,
		SyncedProtected: report.Summary.SyncedProtected,
		Message:         report.Summary.Message(),
		ReportPath:      reportPath,
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return out, nil
}
