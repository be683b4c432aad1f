package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/samsaffron/notion-llm/internal/config"
	"github.com/samsaffron/notion-llm/internal/debuglog"
	"github.com/samsaffron/notion-llm/internal/enhance"
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
	analyzeProvider string
	analyzeInsert   bool
	analyzeDebug    bool
)

const (
	// Sections shorter than this are discovered but not worth analyzing.
	minSectionText    = 20
	minAnalyzeContent = 50
	// How far past a heading the section scan reaches, and how many
	// toggle descendants contribute content.
	sectionScanLimit = 60
	toggleChildLimit = 20
	// Generated guidance is capped so a toggle stays within API limits.
	maxGuidanceBlocks  = 40
	maxPageLevelBlocks = 90

	culturePageMaxTokens     = 6000
	cultureActivityMaxTokens = 3000
	cultureTemperature       = 0.4

	cultureTogglePrefix = "🌍 Cultural guidance for: "
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <page>",
	Short: "Analyze a page's activities for cultural fit",
	Long: `Scrape the page and run a cultural-appropriateness analysis with the
Culture prompt. Without flags the whole-page analysis is saved next to
the scraped markdown file.

With --insert each activity section (toggles and headings mentioning an
activity) gets its own analysis, appended to the section as a
"` + cultureTogglePrefix + `..." toggle. Pages without recognizable
activity sections fall back to a single analysis block at the end.

Examples:
  notion-llm analyze <page>
  notion-llm analyze <page> --insert
  notion-llm analyze <page> --insert -p gemini:gemini-2.5-flash`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	AddProviderFlag(analyzeCmd, &analyzeProvider)
	AddDebugFlag(analyzeCmd, &analyzeDebug)
	analyzeCmd.Flags().BoolVar(&analyzeInsert, "insert", false, "Write the analysis back into the page")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	return analyzePage(args[0], analyzeProvider, analyzeInsert, analyzeDebug)
}

// analyzePage is the analyze flow; the batch command calls it directly
// with its own flag values.
func analyzePage(pageArg, providerFlag string, insert bool, debug bool) error {
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

	logger, err := openDebugLog(cfg, debug, "analyze")
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

	template, err := loadPromptSection(cfg, prompt.SectionCulture, false)
	if err != nil {
		return err
	}

	if !insert {
		_, err := pageLevelAnalysis(ctx, cfg, provider, logger, styles, result, template)
		return err
	}

	sections := findActivitySections(result.Blocks)
	if len(sections) == 0 {
		fmt.Println(styles.Warning.Render("No activity sections found; analyzing the whole page instead"))
		analysis, err := pageLevelAnalysis(ctx, cfg, provider, logger, styles, result, template)
		if err != nil {
			return err
		}
		return insertPageLevelAnalysis(ctx, client, pageID, analysis, styles)
	}

	return insertActivityGuidance(ctx, cfg, client, provider, logger, styles, result, template, sections)
}

// pageLevelAnalysis runs the whole-page culture prompt and saves the
// sidecar file.
func pageLevelAnalysis(ctx context.Context, cfg *config.Config, provider llm.Provider, logger *debuglog.Logger, styles *ui.Styles, result *scrape.Result, template string) (string, error) {
	promptText := prompt.Culture(template, scrape.CleanMarkdown(result.Markdown))

	var analysis string
	err := ui.Spin(ctx, "Analyzing cultural fit...", func(ctx context.Context) error {
		var genErr error
		analysis, genErr = provider.Generate(ctx, llm.Request{
			Prompt:      promptText,
			MaxTokens:   culturePageMaxTokens,
			Temperature: cultureTemperature,
		})
		return genErr
	})
	logger.Log("CULTURAL_ANALYSIS", provider.Name(), llm.ActiveModel(cfg), promptText, analysis)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(analysis) == "" {
		return "", fmt.Errorf("provider returned no analysis")
	}

	sidecar := scrape.SidecarPath(result.Path, "activity-feedback", llm.ActiveModel(cfg), time.Now())
	if err := os.WriteFile(sidecar, []byte(analysis), 0644); err != nil {
		return "", fmt.Errorf("save analysis: %w", err)
	}
	fmt.Println(styles.Success.Render("Analysis saved to " + sidecar))
	return analysis, nil
}

// insertPageLevelAnalysis appends the whole-page analysis at the end of
// the page. Long analyses are summarized with a pointer to the saved file
// so the toggle stays within API limits.
func insertPageLevelAnalysis(ctx context.Context, client *notion.Client, pageID, analysis string, styles *ui.Styles) error {
	blocks := markdown.Blocks(analysis)
	children := []map[string]any{markdown.Heading("Cultural Adaptations", 2)}
	if len(blocks) > maxPageLevelBlocks {
		children = append(children, markdown.Paragraph("Cultural analysis generated. See the saved analysis file for the full text."))
	} else {
		children = append(children, markdown.Toggle("Cultural Considerations for Activities", blocks))
	}
	if err := client.AppendChildren(ctx, pageID, children, ""); err != nil {
		return fmt.Errorf("insert analysis: %w", err)
	}
	fmt.Println(styles.Success.Render("Inserted analysis at the end of the page"))
	return nil
}

// insertActivityGuidance analyzes each activity section and appends a
// guidance toggle to it. Failures on one section never stop the rest.
func insertActivityGuidance(ctx context.Context, cfg *config.Config, client *notion.Client, provider llm.Provider, logger *debuglog.Logger, styles *ui.Styles, result *scrape.Result, template string, sections []activitySection) error {
	fmt.Println(styles.Title.Render(fmt.Sprintf("Found %d activity sections", len(sections))))

	guard := enhance.NewGuard(client, result.Blocks)
	added := 0
	for i, sec := range sections {
		label := ui.Truncate(sec.label, 60)
		if len(sec.content) < minAnalyzeContent {
			fmt.Println(styles.Muted.Render(fmt.Sprintf("[%d/%d] %s: too little content, skipped", i+1, len(sections), label)))
			continue
		}
		if guard.CachedProtected(&sec.container) {
			fmt.Println(styles.Muted.Render(fmt.Sprintf("[%d/%d] %s: synced content, skipped", i+1, len(sections), label)))
			continue
		}
		if hasGuidanceToggle(result.Blocks, sec.container.ID) {
			fmt.Println(styles.Muted.Render(fmt.Sprintf("[%d/%d] %s: guidance already present, skipped", i+1, len(sections), label)))
			continue
		}

		promptText := prompt.ActivityCulture(template, sec.content)
		var analysis string
		err := ui.Spin(ctx, fmt.Sprintf("[%d/%d] Analyzing %s...", i+1, len(sections), label), func(ctx context.Context) error {
			var genErr error
			analysis, genErr = provider.Generate(ctx, llm.Request{
				Prompt:      promptText,
				MaxTokens:   cultureActivityMaxTokens,
				Temperature: cultureTemperature,
			})
			return genErr
		})
		logger.Log("CULTURAL_ACTIVITY", provider.Name(), llm.ActiveModel(cfg), promptText, analysis)
		if err != nil {
			if ctx.Err() != nil {
				return err
			}
			fmt.Println(styles.Error.Render(fmt.Sprintf("[%d/%d] %s: %v", i+1, len(sections), label, err)))
			continue
		}
		if strings.TrimSpace(analysis) == "" {
			continue
		}

		// The snapshot may be stale; re-check ancestry right before writing.
		if protected, err := guard.LiveProtected(ctx, &sec.container); err != nil || protected {
			fmt.Println(styles.Muted.Render(fmt.Sprintf("[%d/%d] %s: synced content, skipped", i+1, len(sections), label)))
			continue
		}

		children := markdown.Blocks(analysis)
		if len(children) > maxGuidanceBlocks {
			children = children[:maxGuidanceBlocks]
		}
		toggle := markdown.Toggle(cultureTogglePrefix+label, children)
		if err := client.AppendChildren(ctx, sec.container.ID, []map[string]any{toggle}, ""); err != nil {
			if ctx.Err() != nil {
				return err
			}
			fmt.Println(styles.Error.Render(fmt.Sprintf("[%d/%d] %s: append failed: %v", i+1, len(sections), label, err)))
			continue
		}
		fmt.Println(styles.Success.Render(fmt.Sprintf("[%d/%d] %s: guidance added", i+1, len(sections), label)))
		added++
	}

	fmt.Println()
	if added > 0 {
		fmt.Println(styles.Success.Render(fmt.Sprintf("Added %d cultural guidance toggles", added)))
	} else {
		fmt.Println(styles.Warning.Render("No cultural guidance was added"))
	}
	return nil
}

// activitySection is one analyzable activity: a toggle or heading whose
// text mentions an activity, plus the content beneath it.
type activitySection struct {
	container notion.Block
	label     string
	content   string
}

// findActivitySections scans a page snapshot for activity toggles and
// activity headings. The snapshot is flat, each block followed by its
// descendants, so section content is collected by walking forward.
func findActivitySections(blocks []notion.Block) []activitySection {
	var sections []activitySection
	for i := range blocks {
		b := blocks[i]
		text := strings.TrimSpace(b.PlainText())
		if !strings.Contains(strings.ToLower(text), "activity") {
			continue
		}
		label := text
		if label == "" {
			label = "Activity"
		}

		var content string
		switch {
		case b.Type == notion.TypeToggle:
			content = label
			if body := subtreeText(blocks, i, toggleChildLimit); body != "" {
				content += "\n" + body
			}
		case b.Type.Heading():
			content = label
			if body := headingSectionText(blocks, i); body != "" {
				content += "\n" + body
			}
		default:
			continue
		}

		if len(strings.TrimSpace(content)) < minSectionText {
			continue
		}
		sections = append(sections, activitySection{container: b, label: label, content: content})
	}
	return sections
}

// subtreeText joins the text of up to limit blocks inside the subtree
// rooted at blocks[i].
func subtreeText(blocks []notion.Block, i, limit int) string {
	root := blocks[i]
	inTree := map[string]bool{root.ID: true}
	var parts []string
	for j := i + 1; j < len(blocks) && len(parts) < limit; j++ {
		b := blocks[j]
		if b.Parent == nil || !inTree[b.Parent.BlockID] {
			break
		}
		inTree[b.ID] = true
		if t := strings.TrimSpace(b.PlainText()); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n")
}

// headingSectionText joins the text following a heading until the next
// heading of the same or higher level, a child page boundary, or the scan
// limit.
func headingSectionText(blocks []notion.Block, i int) string {
	level := headingLevel(blocks[i].Type)
	var parts []string
	for j := i + 1; j < len(blocks) && j <= i+sectionScanLimit; j++ {
		b := blocks[j]
		if b.Type.Heading() && headingLevel(b.Type) <= level {
			break
		}
		if b.Type == notion.TypeChildPage || b.Type == notion.TypeChildDatabase {
			break
		}
		if t := strings.TrimSpace(b.PlainText()); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n")
}

// hasGuidanceToggle reports whether a guidance toggle already hangs off
// the container, so re-runs never stack duplicates.
func hasGuidanceToggle(blocks []notion.Block, containerID string) bool {
	for i := range blocks {
		b := blocks[i]
		if b.Type != notion.TypeToggle || b.Parent == nil || b.Parent.BlockID != containerID {
			continue
		}
		if strings.HasPrefix(b.PlainText(), cultureTogglePrefix) {
			return true
		}
	}
	return false
}
