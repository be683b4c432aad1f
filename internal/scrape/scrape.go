// Package scrape fetches a page's block tree and flattens it into a
// markdown document for reading, prompting, and archival.
package scrape

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/samsaffron/notion-llm/internal/llm"
	"github.com/samsaffron/notion-llm/internal/notion"
)

// PageFetcher is the notion surface scraping needs.
type PageFetcher interface {
	RetrievePage(ctx context.Context, pageID string) (*notion.Page, error)
	FetchDescendants(ctx context.Context, rootID string, opts notion.FetchOptions) ([]notion.Block, error)
}

// Options configures a scrape.
type Options struct {
	// OutputDir receives the markdown file; empty skips writing.
	OutputDir string
	// CleanURLs strips long URLs from the markdown.
	CleanURLs bool
	// MaxDepth bounds the block walk, zero for the default.
	MaxDepth int
}

// Result is everything one scrape produced.
type Result struct {
	Page     *notion.Page
	Blocks   []notion.Block
	Markdown string
	// Unknown lists block types that have no markdown rendering.
	Unknown []string
	// Path is the written markdown file, empty when writing was skipped.
	Path string
}

// Scraper fetches and converts pages.
type Scraper struct {
	client PageFetcher
	opts   Options
}

// New builds a scraper.
func New(client PageFetcher, opts Options) *Scraper {
	return &Scraper{client: client, opts: opts}
}

// Scrape fetches the page and its block tree, renders markdown, and writes
// it to the output dir when one is configured.
func (s *Scraper) Scrape(ctx context.Context, pageID string) (*Result, error) {
	page, err := s.client.RetrievePage(ctx, pageID)
	if err != nil {
		return nil, fmt.Errorf("retrieve page: %w", err)
	}
	blocks, err := s.client.FetchDescendants(ctx, pageID, notion.FetchOptions{
		MaxDepth:        s.opts.MaxDepth,
		ProbeContainers: true,
	})
	if err != nil {
		return nil, fmt.Errorf("list page blocks: %w", err)
	}

	md, unknown := NewRenderer(s.client).Page(ctx, page, blocks)
	if s.opts.CleanURLs {
		md = CleanMarkdown(md)
	}

	res := &Result{Page: page, Blocks: blocks, Markdown: md, Unknown: unknown}
	if s.opts.OutputDir != "" {
		path, err := s.write(page, pageID, md)
		if err != nil {
			return nil, err
		}
		res.Path = path
	}
	return res, nil
}

func (s *Scraper) write(page *notion.Page, pageID, md string) (string, error) {
	if err := os.MkdirAll(s.opts.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	name := fmt.Sprintf("%s-%s.md", CleanTitle(page.Title()), notion.ShortID(pageID))
	path := filepath.Join(s.opts.OutputDir, name)
	if err := os.WriteFile(path, []byte(md), 0644); err != nil {
		return "", fmt.Errorf("write markdown: %w", err)
	}
	return path, nil
}

const maxTitleLen = 50

var (
	unsafeTitleRE     = regexp.MustCompile(`[<>:"/\\|?*\s]+`)
	underscoreRunsRE  = regexp.MustCompile(`_+`)
)

// CleanTitle makes a page title safe as a file name stem: unsafe characters
// and whitespace become single underscores, the result is capped at 50
// runes, and an empty outcome falls back to notion_page.
func CleanTitle(title string) string {
	cleaned := unsafeTitleRE.ReplaceAllString(strings.TrimSpace(title), "_")
	cleaned = underscoreRunsRE.ReplaceAllString(cleaned, "_")
	cleaned = strings.Trim(cleaned, "_")
	if runes := []rune(cleaned); len(runes) > maxTitleLen {
		cleaned = strings.TrimRight(string(runes[:maxTitleLen]), "_")
	}
	if cleaned == "" {
		return "notion_page"
	}
	return cleaned
}

// SidecarPath names a derived artifact next to a scraped markdown file:
// the stem plus a suffix, the model, and a timestamp.
func SidecarPath(mdPath, suffix, model string, at time.Time) string {
	stem := strings.TrimSuffix(mdPath, filepath.Ext(mdPath))
	if model == "" {
		model = "unknown"
	}
	return fmt.Sprintf("%s_%s_%s_%s.md",
		stem, suffix, llm.SafeModelName(model), at.Format("20060102_150405"))
}
