package history

import "time"

// Run is one recorded enhance or translate run.
type Run struct {
	ID              int64     `json:"id"`
	PageID          string    `json:"page_id"`
	PageTitle       string    `json:"page_title,omitempty"`
	Mode            string    `json:"mode"`
	Strategy        string    `json:"strategy,omitempty"`
	Provider        string    `json:"provider,omitempty"`
	Model           string    `json:"model,omitempty"`
	TargetLanguage  string    `json:"target_language,omitempty"`
	DryRun          bool      `json:"dry_run,omitempty"`
	StartedAt       time.Time `json:"started_at"`
	FinishedAt      time.Time `json:"finished_at"`
	BlocksProcessed int       `json:"blocks_processed"`
	Enhanced        int       `json:"enhanced"`
	NoChanges       int       `json:"no_changes"`
	Skipped         int       `json:"skipped"`
	JSONErrors      int       `json:"json_errors,omitempty"`
	Failed          int       `json:"failed"`
	SyncedProtected int       `json:"synced_protected,omitempty"`
	ReportPath      string    `json:"report_path,omitempty"`
}

// Duration returns how long the run took.
func (r *Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// BlockResult is one block's outcome within a run.
type BlockResult struct {
	BlockID   string `json:"block_id"`
	BlockType string `json:"block_type,omitempty"`
	Status    string `json:"status"`
	Reason    string `json:"reason,omitempty"`
	Error     string `json:"error,omitempty"`
}
