// Package cache stores page block snapshots under the data dir so
// follow-up passes reuse a scrape's walk instead of refetching the tree.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/samsaffron/notion-llm/internal/notion"
)

// Snapshot is one cached page walk.
type Snapshot struct {
	PageID  string         `json:"page_id"`
	Title   string         `json:"title,omitempty"`
	SavedAt time.Time      `json:"saved_at"`
	Blocks  []notion.Block `json:"blocks"`
}

// Age returns how long ago the snapshot was taken.
func (s *Snapshot) Age() time.Duration {
	return time.Since(s.SavedAt)
}

func snapshotPath(dir, pageID string) string {
	compact := strings.ReplaceAll(pageID, "-", "")
	return filepath.Join(dir, "pages", compact+".json")
}

// Save writes a page snapshot atomically and returns its path.
func Save(dir, pageID, title string, blocks []notion.Block) (string, error) {
	path := snapshotPath(dir, pageID)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("create cache dir: %w", err)
	}

	data, err := json.Marshal(Snapshot{
		PageID:  pageID,
		Title:   title,
		SavedAt: time.Now().UTC(),
		Blocks:  blocks,
	})
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	f, err := os.CreateTemp(filepath.Dir(path), "snapshot-*.tmp")
	if err != nil {
		return "", err
	}
	tmpPath := f.Name()
	renamed := false
	defer func() {
		if !renamed {
			os.Remove(tmpPath)
		}
	}()

	if _, err := f.Write(data); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return "", err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return "", err
	}
	renamed = true
	return path, nil
}

// Load reads the snapshot for a page. Callers treat any error as a cache
// miss and fall back to fetching.
func Load(dir, pageID string) (*Snapshot, error) {
	data, err := os.ReadFile(snapshotPath(dir, pageID))
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}
	return &snap, nil
}

// Remove drops a page's snapshot. Removing a snapshot that does not exist
// is not an error.
func Remove(dir, pageID string) error {
	err := os.Remove(snapshotPath(dir, pageID))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
