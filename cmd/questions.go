package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/samsaffron/notion-llm/internal/config"
	"github.com/samsaffron/notion-llm/internal/llm"
	"github.com/samsaffron/notion-llm/internal/markdown"
	"github.com/samsaffron/notion-llm/internal/notion"
	"github.com/samsaffron/notion-llm/internal/prompt"
	"github.com/samsaffron/notion-llm/internal/scrape"
	"github.com/samsaffron/notion-llm/internal/signal"
	"github.com/samsaffron/notion-llm/internal/ui"
	"github.com/spf13/cobra"
)

var (
	questionsProvider string
	questionsInsert   bool
	questionsMarker   string
	questionsDebug    bool
)

// defaultQuestionsMarker places inserted questions after the conclusion
// section, before any course-materials appendix.
const defaultQuestionsMarker = "conclusion"

var questionsCmd = &cobra.Command{
	Use:   "questions <page>",
	Short: "Generate trainer evaluation questions for a page",
	Long: `Scrape the page, send its content to the AI provider with the
Trainer Questions prompt, and save the result next to the scraped
markdown file.

With --insert the questions are also written back to the page under a
"Trainer Evaluation Questions" heading, placed after the section whose
text contains the --marker value (case-insensitive) or at the end of
the page when no block matches.

Examples:
  notion-llm questions <page>
  notion-llm questions <page> --insert
  notion-llm questions <page> --insert --marker "wrap up"`,
	Args: cobra.ExactArgs(1),
	RunE: runQuestions,
}

func init() {
	rootCmd.AddCommand(questionsCmd)
	AddProviderFlag(questionsCmd, &questionsProvider)
	AddDebugFlag(questionsCmd, &questionsDebug)
	questionsCmd.Flags().BoolVar(&questionsInsert, "insert", false, "Insert the questions into the page")
	questionsCmd.Flags().StringVar(&questionsMarker, "marker", defaultQuestionsMarker, "Insert after the section containing this text")
}

func runQuestions(cmd *cobra.Command, args []string) error {
	return generateQuestions(args[0], questionsProvider, questionsInsert, questionsMarker, questionsDebug)
}

// generateQuestions is the questions flow; the batch command calls it
// directly with its own flag values.
func generateQuestions(pageArg, providerFlag string, insert bool, marker string, debug bool) error {
	cfg, err := loadConfigWithSetup()
	if err != nil {
		return err
	}
	initThemeFromConfig(cfg)

	if err := applyProviderOverrides(cfg, cfg.Enhance.Provider, cfg.Enhance.Model, providerFlag); err != nil {
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

	logger, err := openDebugLog(cfg, debug, "questions")
	if err != nil {
		return err
	}
	defer logger.Close()

	ctx, stop := signal.NotifyContext()
	defer stop()
	styles := ui.DefaultStyles()

	result, err := wholePageScrape(ctx, cfg, client, pageID)
	if err != nil {
		return err
	}

	template, err := loadPromptSection(cfg, prompt.SectionQuestions, false)
	if err != nil {
		return err
	}
	promptText := prompt.Questions(template, scrape.CleanMarkdown(result.Markdown))

	var questions string
	err = ui.Spin(ctx, "Generating trainer questions...", func(ctx context.Context) error {
		var genErr error
		questions, genErr = provider.Generate(ctx, llm.Request{Prompt: promptText})
		return genErr
	})
	logger.Log("TRAINER_QUESTIONS", provider.Name(), llm.ActiveModel(cfg), promptText, questions)
	if err != nil {
		return err
	}
	if strings.TrimSpace(questions) == "" {
		return fmt.Errorf("provider returned no questions")
	}

	sidecar := scrape.SidecarPath(result.Path, "trainer_questions", llm.ActiveModel(cfg), time.Now())
	if err := os.WriteFile(sidecar, []byte(questions), 0644); err != nil {
		return fmt.Errorf("save questions: %w", err)
	}
	fmt.Println(styles.Success.Render("Questions saved to " + sidecar))

	if insert {
		added, err := insertGeneratedSection(ctx, client, pageID, "Trainer Evaluation Questions", questions, marker)
		if err != nil {
			return fmt.Errorf("insert questions: %w", err)
		}
		fmt.Println(styles.Success.Render(fmt.Sprintf("Inserted %d blocks into the page", added)))
	}
	return nil
}

// wholePageScrape fetches and converts a page for the whole-page AI
// commands, writing the markdown file the sidecar sits next to.
func wholePageScrape(ctx context.Context, cfg *config.Config, client *notion.Client, pageID string) (*scrape.Result, error) {
	scraper := scrape.New(client, scrape.Options{
		OutputDir: scrapeOutputDir(cfg),
		CleanURLs: cfg.Scrape.CleanURLs,
		MaxDepth:  cfg.Scrape.MaxDepth,
	})
	var result *scrape.Result
	err := ui.Spin(ctx, "Scraping page...", func(ctx context.Context) error {
		var scrapeErr error
		result, scrapeErr = scraper.Scrape(ctx, pageID)
		return scrapeErr
	})
	return result, err
}

func scrapeOutputDir(cfg *config.Config) string {
	if cfg.Scrape.OutputDir != "" {
		return cfg.Scrape.OutputDir
	}
	return "saved_pages"
}

// insertGeneratedSection converts generated markdown to blocks and appends
// them under a heading, after the block findInsertAfter picks.
func insertGeneratedSection(ctx context.Context, client *notion.Client, pageID, heading, body, marker string) (int, error) {
	children := append([]map[string]any{markdown.Heading(heading, 2)}, markdown.Blocks(body)...)

	after := ""
	if marker != "" {
		top, err := client.ListAllChildren(ctx, pageID)
		if err != nil {
			return 0, err
		}
		after = findInsertAfter(top, marker)
	}
	if err := client.AppendChildren(ctx, pageID, children, after); err != nil {
		return 0, err
	}
	return len(children), nil
}

// findInsertAfter picks the block to insert new content after: the first
// block whose text contains marker (case-insensitive). When that block is
// a heading the whole section it opens is skipped, so the insert lands
// after the section rather than splitting it. Empty means no match; the
// caller appends at the page end.
func findInsertAfter(blocks []notion.Block, marker string) string {
	needle := strings.ToLower(marker)
	for i, b := range blocks {
		if !strings.Contains(strings.ToLower(b.PlainText()), needle) {
			continue
		}
		if !b.Type.Heading() {
			return b.ID
		}
		level := headingLevel(b.Type)
		last := b.ID
		for j := i + 1; j < len(blocks); j++ {
			if blocks[j].Type.Heading() && headingLevel(blocks[j].Type) <= level {
				break
			}
			last = blocks[j].ID
		}
		return last
	}
	return ""
}

func headingLevel(t notion.BlockType) int {
	switch t {
	case notion.TypeHeading1:
		return 1
	case notion.TypeHeading2:
		return 2
	case notion.TypeHeading3:
		return 3
	}
	return 0
}
