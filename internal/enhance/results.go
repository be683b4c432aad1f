package enhance

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/samsaffron/notion-llm/internal/llm"
	"github.com/samsaffron/notion-llm/internal/notion"
)

// Status is the per-block outcome of a run.
type Status string

const (
	StatusEnhanced  Status = "enhanced"
	StatusNoChanges Status = "no_changes"
	StatusSkipped   Status = "skipped"
	// StatusJSONError marks a JSON-strategy response that could not be
	// parsed; the block keeps its original content.
	StatusJSONError Status = "json_error_preserved"
	StatusError     Status = "error"
)

// Result records what happened to one block.
type Result struct {
	BlockID      string `json:"block_id"`
	BlockType    string `json:"block_type,omitempty"`
	Status       Status `json:"status"`
	OriginalText string `json:"original_text,omitempty"`
	EnhancedText string `json:"enhanced_text,omitempty"`
	ChangesMade  bool   `json:"changes_made,omitempty"`
	Reason       string `json:"reason,omitempty"`
	Error        string `json:"error,omitempty"`
	DryRun       bool   `json:"dry_run,omitempty"`
}

// Summary aggregates a run's results.
type Summary struct {
	BlocksProcessed int `json:"blocks_processed"`
	Enhanced        int `json:"enhanced"`
	NoChanges       int `json:"no_changes"`
	Skipped         int `json:"skipped"`
	JSONErrors      int `json:"json_errors,omitempty"`
	Failed          int `json:"failed"`
	SyncedProtected int `json:"synced_protected"`
}

// Summarize counts results by status. syncedProtected is the number of
// blocks the candidate filter dropped as synced content.
func Summarize(results []Result, syncedProtected int) Summary {
	s := Summary{BlocksProcessed: len(results), SyncedProtected: syncedProtected}
	for _, r := range results {
		switch r.Status {
		case StatusEnhanced:
			s.Enhanced++
		case StatusNoChanges:
			s.NoChanges++
		case StatusSkipped:
			s.Skipped++
		case StatusJSONError:
			s.JSONErrors++
		case StatusError:
			s.Failed++
		}
	}
	return s
}

// Success reports whether the run updated at least one block.
func (s Summary) Success() bool {
	return s.Enhanced > 0
}

// Message renders the one-line run summary for logs and notifications.
func (s Summary) Message() string {
	return fmt.Sprintf("Processed %d blocks: %d updated, %d skipped, %d failed",
		s.BlocksProcessed, s.Enhanced, s.NoChanges+s.Skipped, s.JSONErrors+s.Failed)
}

// Report is the persisted record of one run.
type Report struct {
	PageID         string    `json:"page_id"`
	Mode           string    `json:"mode"`
	Strategy       string    `json:"strategy"`
	Provider       string    `json:"provider,omitempty"`
	Model          string    `json:"model,omitempty"`
	TargetLanguage string    `json:"target_language,omitempty"`
	DryRun         bool      `json:"dry_run,omitempty"`
	Limit          int       `json:"limit,omitempty"`
	StartedAt      time.Time `json:"started_at"`
	Summary        Summary   `json:"summary"`
	Results        []Result  `json:"results"`
}

// SaveReport writes the report as indented JSON under dir and returns the
// file path. The name carries the mode, page, model, and start time so
// repeated runs never collide.
func SaveReport(dir string, r *Report) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create results dir: %w", err)
	}
	model := r.Model
	if model == "" {
		model = "unknown"
	}
	name := fmt.Sprintf("%s_%s_%s_%s.json",
		r.Mode, notion.ShortID(r.PageID), llm.SafeModelName(model),
		r.StartedAt.Format("20060102_150405"))
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}
