package scrape

import (
	"context"
	"sort"
	"strings"

	"github.com/samsaffron/notion-llm/internal/notion"
)

// maxSyncedDepth caps synced-source expansion so a synced block that
// references its own container cannot recurse forever.
const maxSyncedDepth = 3

// BlockFetcher resolves the children of a synced source for display.
type BlockFetcher interface {
	FetchDescendants(ctx context.Context, rootID string, opts notion.FetchOptions) ([]notion.Block, error)
}

// Renderer converts fetched blocks into readable markdown. The output is a
// flat document: the walk already emits children right after their parents,
// so nesting shows up as ordering rather than indentation.
type Renderer struct {
	fetcher BlockFetcher
}

// NewRenderer builds a renderer. fetcher may be nil, in which case synced
// blocks render as bare markers without their content.
func NewRenderer(fetcher BlockFetcher) *Renderer {
	return &Renderer{fetcher: fetcher}
}

// Page renders a page title line plus its blocks, returning the markdown
// and the sorted set of block types that have no rendering.
func (r *Renderer) Page(ctx context.Context, page *notion.Page, blocks []notion.Block) (string, []string) {
	var parts []string
	title := "Untitled"
	if page != nil {
		title = page.Title()
	}
	parts = append(parts, "# "+title+"\n")

	unknown := make(map[string]struct{})
	r.renderBlocks(ctx, blocks, 0, &parts, unknown)

	types := make([]string, 0, len(unknown))
	for t := range unknown {
		types = append(types, t)
	}
	sort.Strings(types)
	return strings.Join(parts, "\n"), types
}

func (r *Renderer) renderBlocks(ctx context.Context, blocks []notion.Block, depth int, parts *[]string, unknown map[string]struct{}) {
	add := func(line string) { *parts = append(*parts, line+"\n") }

	for i := range blocks {
		b := &blocks[i]
		switch b.Type {
		case notion.TypeParagraph:
			if text := inlineMarkdown(b.RichTextSpans()); text != "" {
				add(text)
			}
		case notion.TypeHeading1:
			if text := inlineMarkdown(b.RichTextSpans()); text != "" {
				add("# " + text)
			}
		case notion.TypeHeading2:
			if text := inlineMarkdown(b.RichTextSpans()); text != "" {
				add("## " + text)
			}
		case notion.TypeHeading3:
			if text := inlineMarkdown(b.RichTextSpans()); text != "" {
				add("### " + text)
			}
		case notion.TypeBulletedListItem:
			if text := inlineMarkdown(b.RichTextSpans()); text != "" {
				add("- " + text)
			}
		case notion.TypeNumberedListItem:
			if text := inlineMarkdown(b.RichTextSpans()); text != "" {
				add("1. " + text)
			}
		case notion.TypeToggle:
			// Toggle headers read as plain lines; their children already
			// follow in the walk.
			if text := inlineMarkdown(b.RichTextSpans()); text != "" {
				add(text)
			}
		case notion.TypeQuote:
			if text := inlineMarkdown(b.RichTextSpans()); text != "" {
				add("> " + text)
			}
		case notion.TypeCallout:
			if text := inlineMarkdown(b.RichTextSpans()); text != "" {
				if icon := calloutEmoji(b); icon != "" {
					text = icon + " " + text
				}
				add("> " + text)
			}
		case notion.TypeCode:
			if b.Code != nil {
				if text := inlineMarkdown(b.Code.RichText); text != "" {
					add("```" + b.Code.Language + "\n" + text + "\n```")
				}
			}
		case notion.TypeToDo:
			if text := inlineMarkdown(b.RichTextSpans()); text != "" {
				box := "[ ]"
				if b.ToDo != nil && b.ToDo.Checked {
					box = "[x]"
				}
				add("- " + box + " " + text)
			}
		case notion.TypeSyncedBlock:
			add("<!-- Start Synced Block -->")
			r.renderSynced(ctx, b, depth, parts, unknown)
			add("<!-- End Synced Block -->")
		case notion.TypeChildPage:
			title := "Link to Page"
			if b.ChildPage != nil && b.ChildPage.Title != "" {
				title = b.ChildPage.Title
			}
			add("📄 [" + title + "](notion:/" + b.ID + ")")
		case notion.TypeImage:
			if url := b.MediaURL(); url != "" {
				caption := inlineMarkdown(b.RichTextSpans())
				if caption == "" {
					caption = "image"
				}
				add("![" + caption + "](" + url + ")")
			}
		case notion.TypeVideo:
			addMediaLine(add, "🎥 Video", b)
		case notion.TypeFile:
			addMediaLine(add, "📎 File", b)
		case notion.TypePDF:
			addMediaLine(add, "📎 PDF", b)
		case notion.TypeAudio:
			addMediaLine(add, "🎵 Audio", b)
		case notion.TypeBookmark:
			addMediaLine(add, "🔖 Bookmark", b)
		case notion.TypeEmbed:
			if b.Embed != nil && b.Embed.URL != "" {
				add("🔗 Embed: [" + b.Embed.URL + "](" + b.Embed.URL + ")")
			}
		case notion.TypeTableRow:
			if b.TableRow != nil {
				cells := make([]string, len(b.TableRow.Cells))
				for j, cell := range b.TableRow.Cells {
					cells[j] = inlineMarkdown(cell)
				}
				add("| " + strings.Join(cells, " | ") + " |")
			}
		case notion.TypeDivider:
			add("---")
		case notion.TypeTable, notion.TypeColumnList, notion.TypeColumn:
			// Structural containers; their children carry the content.
		default:
			unknown[string(b.Type)] = struct{}{}
		}
	}
}

// renderSynced expands the content behind a synced block. Duplicates point
// at their source block; originals hold the children themselves.
func (r *Renderer) renderSynced(ctx context.Context, b *notion.Block, depth int, parts *[]string, unknown map[string]struct{}) {
	if r.fetcher == nil || depth >= maxSyncedDepth {
		return
	}
	sourceID := b.ID
	if b.Synced != nil && b.Synced.SyncedFrom != nil && b.Synced.SyncedFrom.BlockID != "" {
		sourceID = b.Synced.SyncedFrom.BlockID
	}
	children, err := r.fetcher.FetchDescendants(ctx, sourceID, notion.FetchOptions{})
	if err != nil {
		return
	}
	r.renderBlocks(ctx, children, depth+1, parts, unknown)
}

func addMediaLine(add func(string), label string, b *notion.Block) {
	url := b.MediaURL()
	if url == "" {
		return
	}
	caption := inlineMarkdown(b.RichTextSpans())
	if caption == "" {
		caption = url
	}
	add(label + ": [" + caption + "](" + url + ")")
}

func calloutEmoji(b *notion.Block) string {
	if b.Callout != nil && b.Callout.Icon != nil && b.Callout.Icon.Type == "emoji" {
		return b.Callout.Icon.Emoji
	}
	return ""
}

// inlineMarkdown renders rich text runs with markdown markers: bold,
// italic, strikethrough, and code wrap the text in that order, and linked
// runs become [text](url).
func inlineMarkdown(spans []notion.RichText) string {
	var sb strings.Builder
	for _, s := range spans {
		text := s.Content()
		if s.Annotations.Bold {
			text = "**" + text + "**"
		}
		if s.Annotations.Italic {
			text = "*" + text + "*"
		}
		if s.Annotations.Strikethrough {
			text = "~~" + text + "~~"
		}
		if s.Annotations.Code {
			text = "`" + text + "`"
		}
		if url := s.LinkURL(); url != "" {
			text = "[" + text + "](" + url + ")"
		}
		sb.WriteString(text)
	}
	return sb.String()
}
