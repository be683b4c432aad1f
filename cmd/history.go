package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	runewidth "github.com/mattn/go-runewidth"
	"github.com/samsaffron/notion-llm/internal/config"
	"github.com/samsaffron/notion-llm/internal/history"
	"github.com/samsaffron/notion-llm/internal/notion"
	"github.com/samsaffron/notion-llm/internal/ui"
	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded enhancement runs",
	Long: `Show past enhance and translate runs from the local history
database, newest first.

Examples:
  notion-llm history
  notion-llm history --limit 50
  notion-llm history show 12`,
	RunE: runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show one run with its per-block results",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.Flags().IntVar(&historyLimit, "limit", 0, "Max runs to list (default 20)")
}

func openHistory(cfg *config.Config) (*history.Store, error) {
	path := cfg.History.Path
	if path == "" {
		path = history.DefaultPath()
	}
	return history.Open(path)
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	initThemeFromConfig(cfg)

	store, err := openHistory(cfg)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer store.Close()

	runs, err := store.List(cmd.Context(), historyLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded yet.")
		return nil
	}

	styles := ui.DefaultStyles()
	fmt.Println(styles.TableHeader.Render(fmt.Sprintf("%-5s %-16s %-12s %-28s %-22s %s",
		"ID", "WHEN", "MODE", "PAGE", "MODEL", "RESULT")))
	for _, run := range runs {
		fmt.Printf("%-5d %-16s %-12s %s %-22s %s\n",
			run.ID,
			run.StartedAt.Local().Format("2006-01-02 15:04"),
			runMode(&run),
			padDisplay(runPageLabel(&run), 28),
			padDisplay(run.Model, 22),
			runResult(&run))
	}
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	initThemeFromConfig(cfg)

	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid run id %q", args[0])
	}

	store, err := openHistory(cfg)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer store.Close()

	run, err := store.Get(cmd.Context(), id)
	if err != nil {
		return err
	}
	if run == nil {
		return fmt.Errorf("run %d not found", id)
	}

	styles := ui.DefaultStyles()
	fmt.Println(styles.Title.Render(fmt.Sprintf("Run %d", run.ID)))
	fmt.Printf("  Page:      %s\n", runPageLabel(run))
	fmt.Printf("  Mode:      %s\n", runMode(run))
	fmt.Printf("  Provider:  %s (%s)\n", run.Provider, run.Model)
	fmt.Printf("  Started:   %s (took %s)\n", run.StartedAt.Local().Format("2006-01-02 15:04:05"), run.Duration().Round(time.Second))
	fmt.Printf("  Result:    %s\n", runResult(run))
	if run.ReportPath != "" {
		fmt.Printf("  Report:    %s\n", run.ReportPath)
	}

	results, err := store.Results(cmd.Context(), id)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		return nil
	}
	fmt.Println()
	for i, r := range results {
		detail := r.Reason
		if r.Error != "" {
			detail = r.Error
		}
		fmt.Println(styles.ProgressLine(i+1, len(results), r.BlockType, r.Status, detail))
	}
	return nil
}

func runMode(run *history.Run) string {
	if run.TargetLanguage != "" {
		return run.Mode + ":" + run.TargetLanguage
	}
	return run.Mode
}

func runPageLabel(run *history.Run) string {
	if run.PageTitle != "" {
		return run.PageTitle
	}
	return notion.ShortID(run.PageID)
}

func runResult(run *history.Run) string {
	result := fmt.Sprintf("%d/%d updated", run.Enhanced, run.BlocksProcessed)
	if failed := run.JSONErrors + run.Failed; failed > 0 {
		result += fmt.Sprintf(", %d failed", failed)
	}
	if run.DryRun {
		result += " (dry run)"
	}
	return result
}

// padDisplay pads or truncates to a display-cell width, so CJK titles
// keep the table columns aligned.
func padDisplay(s string, width int) string {
	if runewidth.StringWidth(s) > width {
		return runewidth.Truncate(s, width, "…")
	}
	return s + strings.Repeat(" ", width-runewidth.StringWidth(s))
}
