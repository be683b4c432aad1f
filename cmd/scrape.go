package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/samsaffron/notion-llm/internal/cache"
	"github.com/samsaffron/notion-llm/internal/config"
	"github.com/samsaffron/notion-llm/internal/notion"
	"github.com/samsaffron/notion-llm/internal/scrape"
	"github.com/samsaffron/notion-llm/internal/signal"
	"github.com/samsaffron/notion-llm/internal/ui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	scrapeRender   bool
	scrapeClean    bool
	scrapeStdout   bool
	scrapeOutput   string
	scrapeMaxDepth int
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape <page>",
	Short: "Download a Notion page as markdown",
	Long: `Fetch a page and its full block tree, convert it to markdown, and
save it as <title>-<page-id>.md in the output directory. The raw blocks
are cached so later commands can reuse them without refetching.

The page argument accepts a raw ID, a notion.so URL, or a previously
scraped file name.

Examples:
  notion-llm scrape 25372d5af2de80b99157e291f353611b
  notion-llm scrape https://notion.so/Onboarding-25372d5af2de80b9 --render
  notion-llm scrape <page> --stdout | less`,
	Args: cobra.ExactArgs(1),
	RunE: runScrape,
}

func init() {
	rootCmd.AddCommand(scrapeCmd)
	scrapeCmd.Flags().BoolVar(&scrapeRender, "render", false, "Render the markdown in the terminal after saving")
	scrapeCmd.Flags().BoolVar(&scrapeClean, "clean", false, "Strip long URLs so the text reads cleanly")
	scrapeCmd.Flags().BoolVar(&scrapeStdout, "stdout", false, "Print markdown to stdout instead of writing a file")
	scrapeCmd.Flags().StringVarP(&scrapeOutput, "output", "o", "", "Output directory (default from config)")
	AddMaxDepthFlag(scrapeCmd, &scrapeMaxDepth, 0)
}

func runScrape(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfigWithSetup()
	if err != nil {
		return err
	}
	initThemeFromConfig(cfg)

	pageID, err := notion.ParsePageID(args[0])
	if err != nil {
		return err
	}

	client, err := notionClient(cfg)
	if err != nil {
		return err
	}

	outputDir := scrapeOutputDir(cfg)
	if scrapeOutput != "" {
		outputDir = scrapeOutput
	}
	if scrapeStdout {
		outputDir = ""
	}
	maxDepth := cfg.Scrape.MaxDepth
	if scrapeMaxDepth > 0 {
		maxDepth = scrapeMaxDepth
	}

	scraper := scrape.New(client, scrape.Options{
		OutputDir: outputDir,
		CleanURLs: scrapeClean || cfg.Scrape.CleanURLs,
		MaxDepth:  maxDepth,
	})

	ctx, stop := signal.NotifyContext()
	defer stop()

	var result *scrape.Result
	err = ui.Spin(ctx, "Scraping page...", func(ctx context.Context) error {
		var scrapeErr error
		result, scrapeErr = scraper.Scrape(ctx, pageID)
		return scrapeErr
	})
	if err != nil {
		return err
	}

	// A failed snapshot never fails the scrape; later commands refetch.
	if _, err := cache.Save(config.GetDataDir(), pageID, result.Page.Title(), result.Blocks); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not cache blocks: %v\n", err)
	}

	styles := ui.DefaultStyles()
	if len(result.Unknown) > 0 {
		fmt.Fprintln(os.Stderr, styles.Warning.Render(
			"Unsupported block types skipped: "+strings.Join(result.Unknown, ", ")))
	}

	switch {
	case scrapeStdout:
		fmt.Println(result.Markdown)
	case scrapeRender:
		fmt.Println(ui.RenderMarkdown(result.Markdown, getTerminalWidth()))
		if result.Path != "" {
			fmt.Fprintln(os.Stderr, styles.Muted.Render("Saved to "+result.Path))
		}
	default:
		fmt.Println(styles.Success.Render(fmt.Sprintf("Scraped %q (%d blocks)", result.Page.Title(), len(result.Blocks))))
		if result.Path != "" {
			fmt.Println("Saved to " + result.Path)
		}
	}
	return nil
}

// getTerminalWidth returns the terminal width or a default
func getTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80 // default
	}
	return width
}
