package scrape

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/samsaffron/notion-llm/internal/notion"
)

type fakePageFetcher struct {
	page      *notion.Page
	blocks    []notion.Block
	pageErr   error
	fetchErr  error
	fetchOpts notion.FetchOptions
}

func (f *fakePageFetcher) RetrievePage(ctx context.Context, pageID string) (*notion.Page, error) {
	if f.pageErr != nil {
		return nil, f.pageErr
	}
	return f.page, nil
}

func (f *fakePageFetcher) FetchDescendants(ctx context.Context, rootID string, opts notion.FetchOptions) ([]notion.Block, error) {
	f.fetchOpts = opts
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.blocks, nil
}

const testPageID = "dfbf4465-01eb-4338-813f-880c4cb66889"

func TestScrapeWritesFile(t *testing.T) {
	dir := t.TempDir()
	fetcher := &fakePageFetcher{
		page: testPage("Team Handbook: Onboarding"),
		blocks: []notion.Block{
			simpleBlock(t, "paragraph", "Welcome aboard."),
		},
	}

	res, err := New(fetcher, Options{OutputDir: dir}).Scrape(context.Background(), testPageID)
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}

	wantPath := filepath.Join(dir, "Team_Handbook_Onboarding-dfbf4465.md")
	if res.Path != wantPath {
		t.Errorf("Path = %q, want %q", res.Path, wantPath)
	}
	data, err := os.ReadFile(res.Path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(data) != res.Markdown {
		t.Error("file content differs from Result.Markdown")
	}
	if !strings.Contains(res.Markdown, "# Team Handbook: Onboarding\n") {
		t.Errorf("markdown missing title:\n%s", res.Markdown)
	}
	if !strings.Contains(res.Markdown, "Welcome aboard.") {
		t.Errorf("markdown missing body:\n%s", res.Markdown)
	}
	if len(res.Blocks) != 1 {
		t.Errorf("Blocks = %d, want 1", len(res.Blocks))
	}
}

func TestScrapeSkipsWriteWithoutOutputDir(t *testing.T) {
	fetcher := &fakePageFetcher{
		page:   testPage("In Memory"),
		blocks: []notion.Block{simpleBlock(t, "paragraph", "No file for this one.")},
	}

	res, err := New(fetcher, Options{}).Scrape(context.Background(), testPageID)
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	if res.Path != "" {
		t.Errorf("Path = %q, want empty", res.Path)
	}
	if res.Markdown == "" {
		t.Error("markdown not rendered")
	}
}

func TestScrapeCleanURLs(t *testing.T) {
	longURL := "https://prod-files.example.com/" + strings.Repeat("x", 90)
	fetcher := &fakePageFetcher{
		page: testPage("Links"),
		blocks: []notion.Block{
			mustBlock(t, `{"object":"block","id":"img-1","type":"image","image":{"caption":[],"external":{"url":"`+longURL+`"}}}`),
		},
	}

	res, err := New(fetcher, Options{CleanURLs: true}).Scrape(context.Background(), testPageID)
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	if strings.Contains(res.Markdown, longURL) {
		t.Error("long URL survived cleaning")
	}
	if !strings.Contains(res.Markdown, "![image](link_to_resource)") {
		t.Errorf("cleaned image line missing:\n%s", res.Markdown)
	}
}

func TestScrapeFetchOptions(t *testing.T) {
	fetcher := &fakePageFetcher{page: testPage("Depth")}

	if _, err := New(fetcher, Options{MaxDepth: 4}).Scrape(context.Background(), testPageID); err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	if fetcher.fetchOpts.MaxDepth != 4 {
		t.Errorf("MaxDepth = %d, want 4", fetcher.fetchOpts.MaxDepth)
	}
	if !fetcher.fetchOpts.ProbeContainers {
		t.Error("ProbeContainers not set")
	}
}

func TestScrapeRetrieveError(t *testing.T) {
	fetcher := &fakePageFetcher{pageErr: errors.New("boom")}

	_, err := New(fetcher, Options{}).Scrape(context.Background(), testPageID)
	if err == nil || !strings.Contains(err.Error(), "retrieve page") {
		t.Errorf("err = %v, want retrieve page wrap", err)
	}
}

func TestScrapeFetchError(t *testing.T) {
	fetcher := &fakePageFetcher{
		page:     testPage("Broken"),
		fetchErr: errors.New("boom"),
	}

	_, err := New(fetcher, Options{}).Scrape(context.Background(), testPageID)
	if err == nil || !strings.Contains(err.Error(), "list page blocks") {
		t.Errorf("err = %v, want list page blocks wrap", err)
	}
}

func TestCleanTitle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Team Handbook", "Team_Handbook"},
		{"Weekly Review: Q3 / Planning", "Weekly_Review_Q3_Planning"},
		{"  padded  ", "padded"},
		{`a<b>c:d"e/f\g|h?i*j`, "a_b_c_d_e_f_g_h_i_j"},
		{"___already___messy___", "already_messy"},
		{"", "notion_page"},
		{"///", "notion_page"},
		{"日本語のタイトル", "日本語のタイトル"},
	}
	for _, tt := range tests {
		if got := CleanTitle(tt.in); got != tt.want {
			t.Errorf("CleanTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCleanTitleCapsLength(t *testing.T) {
	got := CleanTitle(strings.Repeat("x", 60))
	if len([]rune(got)) != 50 {
		t.Errorf("len = %d, want 50", len([]rune(got)))
	}

	// A cap that lands on an underscore drops it rather than leaving a
	// dangling separator.
	got = CleanTitle(strings.Repeat("x", 49) + " longtail")
	if got != strings.Repeat("x", 49) {
		t.Errorf("CleanTitle = %q, want 49 x's", got)
	}
}

func TestSidecarPath(t *testing.T) {
	at := time.Date(2025, 1, 2, 15, 4, 5, 0, time.UTC)

	got := SidecarPath("/out/Team_Handbook-dfbf4465.md", "trainer_questions", "claude-sonnet-4-6", at)
	want := "/out/Team_Handbook-dfbf4465_trainer_questions_claude_sonnet_4_6_20250102_150405.md"
	if got != want {
		t.Errorf("SidecarPath = %q, want %q", got, want)
	}

	got = SidecarPath("/out/page.md", "analysis", "", at)
	want = "/out/page_analysis_unknown_20250102_150405.md"
	if got != want {
		t.Errorf("SidecarPath = %q, want %q", got, want)
	}
}
