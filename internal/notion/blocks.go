package notion

import (
	"encoding/json"
	"strings"
)

// BlockType identifies a Notion block variant.
type BlockType string

const (
	TypeParagraph        BlockType = "paragraph"
	TypeHeading1         BlockType = "heading_1"
	TypeHeading2         BlockType = "heading_2"
	TypeHeading3         BlockType = "heading_3"
	TypeBulletedListItem BlockType = "bulleted_list_item"
	TypeNumberedListItem BlockType = "numbered_list_item"
	TypeQuote            BlockType = "quote"
	TypeToggle           BlockType = "toggle"
	TypeToDo             BlockType = "to_do"
	TypeCallout          BlockType = "callout"
	TypeCode             BlockType = "code"
	TypeImage            BlockType = "image"
	TypeVideo            BlockType = "video"
	TypeFile             BlockType = "file"
	TypePDF              BlockType = "pdf"
	TypeAudio            BlockType = "audio"
	TypeBookmark         BlockType = "bookmark"
	TypeEmbed            BlockType = "embed"
	TypeTable            BlockType = "table"
	TypeTableRow         BlockType = "table_row"
	TypeDivider          BlockType = "divider"
	TypeSyncedBlock      BlockType = "synced_block"
	TypeChildPage        BlockType = "child_page"
	TypeChildDatabase    BlockType = "child_database"
	TypeColumnList       BlockType = "column_list"
	TypeColumn           BlockType = "column"
)

// Heading reports whether the type is one of the three heading levels.
func (t BlockType) Heading() bool {
	return t == TypeHeading1 || t == TypeHeading2 || t == TypeHeading3
}

// Media reports whether the type carries its text in a caption rather
// than a rich_text array.
func (t BlockType) Media() bool {
	switch t {
	case TypeImage, TypeVideo, TypeFile, TypePDF, TypeAudio, TypeBookmark:
		return true
	}
	return false
}

// Annotations are the per-span formatting flags of a rich text run.
type Annotations struct {
	Bold          bool   `json:"bold"`
	Italic        bool   `json:"italic"`
	Strikethrough bool   `json:"strikethrough"`
	Underline     bool   `json:"underline"`
	Code          bool   `json:"code"`
	Color         string `json:"color"`
}

// Plain reports whether no flag is set and the color is default (or empty).
func (a Annotations) Plain() bool {
	return !a.Bold && !a.Italic && !a.Strikethrough && !a.Underline && !a.Code &&
		(a.Color == "" || a.Color == "default")
}

// Link is a rich text link target.
type Link struct {
	URL string `json:"url"`
}

// TextContent is the text payload of a "text"-typed rich text object.
type TextContent struct {
	Content string `json:"content"`
	Link    *Link  `json:"link,omitempty"`
}

// RichText is one run of uniformly formatted text.
type RichText struct {
	Type        string       `json:"type,omitempty"`
	Text        *TextContent `json:"text,omitempty"`
	Annotations Annotations  `json:"annotations"`
	PlainText   string       `json:"plain_text,omitempty"`
	Href        string       `json:"href,omitempty"`
}

// NewText builds a plain rich text run.
func NewText(content string) RichText {
	return RichText{
		Type:        "text",
		Text:        &TextContent{Content: content},
		Annotations: Annotations{Color: "default"},
		PlainText:   content,
	}
}

// Content returns the run's text, preferring the editable content field
// over the derived plain_text.
func (rt RichText) Content() string {
	if rt.Text != nil {
		return rt.Text.Content
	}
	return rt.PlainText
}

// LinkURL returns the run's link target, or "".
func (rt RichText) LinkURL() string {
	if rt.Text != nil && rt.Text.Link != nil {
		return rt.Text.Link.URL
	}
	return rt.Href
}

// PlainText concatenates the text of every run.
func PlainText(spans []RichText) string {
	var sb strings.Builder
	for _, s := range spans {
		sb.WriteString(s.Content())
	}
	return sb.String()
}

// Icon is a callout icon. Only emoji icons are written back; other icon
// kinds round-trip through Raw untouched.
type Icon struct {
	Type  string `json:"type"`
	Emoji string `json:"emoji,omitempty"`
}

// Parent points at the container of a block.
type Parent struct {
	Type       string `json:"type"`
	PageID     string `json:"page_id,omitempty"`
	BlockID    string `json:"block_id,omitempty"`
	DatabaseID string `json:"database_id,omitempty"`
	Workspace  bool   `json:"workspace,omitempty"`
}

// TextBlock is the payload of block types whose content is a rich text
// array (paragraph, headings, list items, quote, toggle).
type TextBlock struct {
	RichText []RichText `json:"rich_text"`
	Color    string     `json:"color,omitempty"`
}

// ToDoBlock adds the checkbox state.
type ToDoBlock struct {
	RichText []RichText `json:"rich_text"`
	Checked  bool       `json:"checked"`
	Color    string     `json:"color,omitempty"`
}

// CalloutBlock adds the icon.
type CalloutBlock struct {
	RichText []RichText `json:"rich_text"`
	Icon     *Icon      `json:"icon,omitempty"`
	Color    string     `json:"color,omitempty"`
}

// CodeBlock is a fenced code block.
type CodeBlock struct {
	RichText []RichText `json:"rich_text"`
	Caption  []RichText `json:"caption,omitempty"`
	Language string     `json:"language,omitempty"`
}

// FileRef is an uploaded or external file reference.
type FileRef struct {
	URL string `json:"url"`
}

// MediaBlock covers image/video/file/pdf/audio/bookmark payloads. Only the
// caption is editable; the file reference is read-only.
type MediaBlock struct {
	Caption  []RichText `json:"caption,omitempty"`
	File     *FileRef   `json:"file,omitempty"`
	External *FileRef   `json:"external,omitempty"`
	URL      string     `json:"url,omitempty"`
}

// SourceURL returns the hosted or external URL of the media, or "".
func (m *MediaBlock) SourceURL() string {
	if m == nil {
		return ""
	}
	if m.File != nil && m.File.URL != "" {
		return m.File.URL
	}
	if m.External != nil && m.External.URL != "" {
		return m.External.URL
	}
	return m.URL
}

// SyncedFrom references the original of a duplicated synced block.
type SyncedFrom struct {
	Type    string `json:"type"`
	BlockID string `json:"block_id"`
}

// SyncedBlock marks synced content. SyncedFrom is nil on the original.
type SyncedBlock struct {
	SyncedFrom *SyncedFrom `json:"synced_from"`
}

// ChildPage is a sub-page reference.
type ChildPage struct {
	Title string `json:"title"`
}

// TableRowBlock holds one cell rich text array per column.
type TableRowBlock struct {
	Cells [][]RichText `json:"cells"`
}

// EmbedBlock is an embedded external resource.
type EmbedBlock struct {
	URL     string     `json:"url"`
	Caption []RichText `json:"caption,omitempty"`
}

// Block is one node of a page, tagged by Type with exactly one matching
// payload field set. Unknown block types carry no payload but keep their
// raw JSON for display and diagnostics.
type Block struct {
	Object      string    `json:"object,omitempty"`
	ID          string    `json:"id,omitempty"`
	Parent      *Parent   `json:"parent,omitempty"`
	Type        BlockType `json:"type"`
	HasChildren bool      `json:"has_children,omitempty"`
	Archived    bool      `json:"archived,omitempty"`

	Paragraph        *TextBlock     `json:"paragraph,omitempty"`
	Heading1         *TextBlock     `json:"heading_1,omitempty"`
	Heading2         *TextBlock     `json:"heading_2,omitempty"`
	Heading3         *TextBlock     `json:"heading_3,omitempty"`
	BulletedListItem *TextBlock     `json:"bulleted_list_item,omitempty"`
	NumberedListItem *TextBlock     `json:"numbered_list_item,omitempty"`
	Quote            *TextBlock     `json:"quote,omitempty"`
	Toggle           *TextBlock     `json:"toggle,omitempty"`
	ToDo             *ToDoBlock     `json:"to_do,omitempty"`
	Callout          *CalloutBlock  `json:"callout,omitempty"`
	Code             *CodeBlock     `json:"code,omitempty"`
	Image            *MediaBlock    `json:"image,omitempty"`
	Video            *MediaBlock    `json:"video,omitempty"`
	File             *MediaBlock    `json:"file,omitempty"`
	PDF              *MediaBlock    `json:"pdf,omitempty"`
	Audio            *MediaBlock    `json:"audio,omitempty"`
	Bookmark         *MediaBlock    `json:"bookmark,omitempty"`
	Embed            *EmbedBlock    `json:"embed,omitempty"`
	TableRow         *TableRowBlock `json:"table_row,omitempty"`
	Synced           *SyncedBlock   `json:"synced_block,omitempty"`
	ChildPage        *ChildPage     `json:"child_page,omitempty"`

	raw json.RawMessage
}

// UnmarshalJSON decodes the typed fields and keeps the original bytes so
// unknown payload fields survive for raw-JSON workflows.
func (b *Block) UnmarshalJSON(data []byte) error {
	type alias Block
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*b = Block(a)
	b.raw = append(json.RawMessage(nil), data...)
	return nil
}

// Raw returns the block exactly as the API sent it, or nil for blocks
// constructed locally.
func (b *Block) Raw() json.RawMessage { return b.raw }

// textPayload returns the rich-text-bearing payload for the block's type,
// or nil when the type has none.
func (b *Block) textPayload() []RichText {
	switch b.Type {
	case TypeParagraph:
		if b.Paragraph != nil {
			return b.Paragraph.RichText
		}
	case TypeHeading1:
		if b.Heading1 != nil {
			return b.Heading1.RichText
		}
	case TypeHeading2:
		if b.Heading2 != nil {
			return b.Heading2.RichText
		}
	case TypeHeading3:
		if b.Heading3 != nil {
			return b.Heading3.RichText
		}
	case TypeBulletedListItem:
		if b.BulletedListItem != nil {
			return b.BulletedListItem.RichText
		}
	case TypeNumberedListItem:
		if b.NumberedListItem != nil {
			return b.NumberedListItem.RichText
		}
	case TypeQuote:
		if b.Quote != nil {
			return b.Quote.RichText
		}
	case TypeToggle:
		if b.Toggle != nil {
			return b.Toggle.RichText
		}
	case TypeToDo:
		if b.ToDo != nil {
			return b.ToDo.RichText
		}
	case TypeCallout:
		if b.Callout != nil {
			return b.Callout.RichText
		}
	case TypeCode:
		if b.Code != nil {
			return b.Code.RichText
		}
	case TypeImage:
		if b.Image != nil {
			return b.Image.Caption
		}
	case TypeVideo:
		if b.Video != nil {
			return b.Video.Caption
		}
	case TypeFile:
		if b.File != nil {
			return b.File.Caption
		}
	case TypePDF:
		if b.PDF != nil {
			return b.PDF.Caption
		}
	case TypeAudio:
		if b.Audio != nil {
			return b.Audio.Caption
		}
	case TypeBookmark:
		if b.Bookmark != nil {
			return b.Bookmark.Caption
		}
	case TypeEmbed:
		if b.Embed != nil {
			return b.Embed.Caption
		}
	}
	return nil
}

// RichTextSpans returns the editable rich text of the block: the rich_text
// array for text types, the caption for media types, nil otherwise.
func (b *Block) RichTextSpans() []RichText {
	return b.textPayload()
}

// PlainText concatenates the block's rich text content.
func (b *Block) PlainText() string {
	return PlainText(b.textPayload())
}

// media returns the media payload matching the block's type.
func (b *Block) media() *MediaBlock {
	switch b.Type {
	case TypeImage:
		return b.Image
	case TypeVideo:
		return b.Video
	case TypeFile:
		return b.File
	case TypePDF:
		return b.PDF
	case TypeAudio:
		return b.Audio
	case TypeBookmark:
		return b.Bookmark
	}
	return nil
}

// MediaURL returns the media source URL for media blocks, or "".
func (b *Block) MediaURL() string {
	return b.media().SourceURL()
}

// Page is the narrow page projection the tool reads: identity and the
// title property.
type Page struct {
	Object     string                  `json:"object,omitempty"`
	ID         string                  `json:"id"`
	Archived   bool                    `json:"archived,omitempty"`
	URL        string                  `json:"url,omitempty"`
	Properties map[string]PageProperty `json:"properties,omitempty"`
}

// PageProperty carries only what title extraction needs.
type PageProperty struct {
	ID    string     `json:"id,omitempty"`
	Type  string     `json:"type,omitempty"`
	Title []RichText `json:"title,omitempty"`
}

// Title returns the page title, or "Untitled" when no title property has
// content. Databases name the property freely, so the lookup goes by
// property type rather than name.
func (p *Page) Title() string {
	for _, prop := range p.Properties {
		if prop.Type != "title" {
			continue
		}
		if t := PlainText(prop.Title); t != "" {
			return t
		}
	}
	return "Untitled"
}
