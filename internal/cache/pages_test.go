package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/samsaffron/notion-llm/internal/notion"
)

const testPageID = "dfbf4465-01eb-4338-813f-880c4cb66889"

func testBlocks(t *testing.T) []notion.Block {
	t.Helper()
	raw := `{"object":"block","id":"b-1","type":"paragraph","paragraph":{"rich_text":[{"type":"text","text":{"content":"cached"},"annotations":{"bold":false,"italic":false,"strikethrough":false,"underline":false,"code":false,"color":"default"}}]}}`
	var b notion.Block
	if err := json.Unmarshal([]byte(raw), &b); err != nil {
		t.Fatalf("block fixture: %v", err)
	}
	return []notion.Block{b}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()

	path, err := Save(dir, testPageID, "Team Handbook", testBlocks(t))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !strings.HasSuffix(path, filepath.Join("pages", "dfbf446501eb4338813f880c4cb66889.json")) {
		t.Errorf("path = %q", path)
	}

	snap, err := Load(dir, testPageID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if snap.PageID != testPageID || snap.Title != "Team Handbook" {
		t.Errorf("snapshot meta = %q / %q", snap.PageID, snap.Title)
	}
	if snap.SavedAt.IsZero() {
		t.Error("SavedAt not set")
	}
	if len(snap.Blocks) != 1 || snap.Blocks[0].PlainText() != "cached" {
		t.Errorf("blocks = %+v", snap.Blocks)
	}
}

func TestLoadByDashlessID(t *testing.T) {
	dir := t.TempDir()
	if _, err := Save(dir, testPageID, "", testBlocks(t)); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// The same page addressed without dashes hits the same snapshot.
	if _, err := Load(dir, strings.ReplaceAll(testPageID, "-", "")); err != nil {
		t.Fatalf("Load: %v", err)
	}
}

func TestLoadMissing(t *testing.T) {
	if _, err := Load(t.TempDir(), testPageID); !os.IsNotExist(err) {
		t.Errorf("err = %v, want not-exist", err)
	}
}

func TestSaveOverwrites(t *testing.T) {
	dir := t.TempDir()
	if _, err := Save(dir, testPageID, "First", testBlocks(t)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := Save(dir, testPageID, "Second", nil); err != nil {
		t.Fatalf("Save again: %v", err)
	}

	snap, err := Load(dir, testPageID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if snap.Title != "Second" || len(snap.Blocks) != 0 {
		t.Errorf("snapshot = %q with %d blocks", snap.Title, len(snap.Blocks))
	}
}

func TestRemove(t *testing.T) {
	dir := t.TempDir()
	if _, err := Save(dir, testPageID, "", testBlocks(t)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := Remove(dir, testPageID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := Load(dir, testPageID); !os.IsNotExist(err) {
		t.Errorf("snapshot survived removal: %v", err)
	}

	// Removing again is fine.
	if err := Remove(dir, testPageID); err != nil {
		t.Errorf("second Remove: %v", err)
	}
}

func TestLoadRejectsCorruptSnapshot(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pages", "dfbf446501eb4338813f880c4cb66889.json")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(dir, testPageID); err == nil || !strings.Contains(err.Error(), "parse snapshot") {
		t.Errorf("err = %v, want parse failure", err)
	}
}
