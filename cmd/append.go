package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/samsaffron/notion-llm/internal/markdown"
	"github.com/samsaffron/notion-llm/internal/notion"
	"github.com/samsaffron/notion-llm/internal/signal"
	"github.com/samsaffron/notion-llm/internal/ui"
	"github.com/spf13/cobra"
)

var appendAfter string

var appendCmd = &cobra.Command{
	Use:   "append <page> <file.md>",
	Short: "Append a local markdown file to a page",
	Long: `Convert a markdown file to Notion blocks and append them to the page.
Headings, lists, quotes, code fences, and tables are preserved; blocks
are sent in batches of 100 as the API requires.

Examples:
  notion-llm append <page> notes.md
  notion-llm append <page> summary.md --after "Resources"`,
	Args: cobra.ExactArgs(2),
	RunE: runAppend,
}

func init() {
	rootCmd.AddCommand(appendCmd)
	appendCmd.Flags().StringVar(&appendAfter, "after", "", "Insert after the section containing this text instead of the page end")
}

func runAppend(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfigWithSetup()
	if err != nil {
		return err
	}
	initThemeFromConfig(cfg)

	pageID, err := notion.ParsePageID(args[0])
	if err != nil {
		return err
	}
	data, err := os.ReadFile(args[1])
	if err != nil {
		return fmt.Errorf("read markdown: %w", err)
	}
	blocks := markdown.Blocks(string(data))
	if len(blocks) == 0 {
		return fmt.Errorf("%s has no convertible content", args[1])
	}

	client, err := notionClient(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext()
	defer stop()

	after := ""
	if appendAfter != "" {
		top, err := client.ListAllChildren(ctx, pageID)
		if err != nil {
			return err
		}
		after = findInsertAfter(top, appendAfter)
		if after == "" {
			return fmt.Errorf("no block matching %q found", appendAfter)
		}
	}

	err = ui.Spin(ctx, fmt.Sprintf("Appending %d blocks...", len(blocks)), func(ctx context.Context) error {
		return client.AppendChildren(ctx, pageID, blocks, after)
	})
	if err != nil {
		return err
	}

	styles := ui.DefaultStyles()
	fmt.Println(styles.Success.Render(fmt.Sprintf("Appended %d blocks from %s", len(blocks), args[1])))
	return nil
}
