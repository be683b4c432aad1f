// Package markdown converts markdown text into Notion block payloads for
// children append calls.
package markdown

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"golang.org/x/net/html"

	"github.com/samsaffron/notion-llm/internal/notion"
)

// notionMarkdown is a shared goldmark instance with the table and
// strikethrough extensions.
var notionMarkdown = goldmark.New(
	goldmark.WithExtensions(extension.Strikethrough, extension.Table),
)

// Blocks converts markdown into Notion block payloads. Headings map to
// heading_1..3 (deeper levels clamp to 3), quotes become callouts, fenced
// code keeps its language, and tables arrive with their rows as children.
// Unsupported constructs degrade to plain paragraphs rather than failing.
func Blocks(md string) []map[string]any {
	if strings.TrimSpace(md) == "" {
		return nil
	}
	var buf bytes.Buffer
	if err := notionMarkdown.Convert([]byte(md), &buf); err != nil {
		return []map[string]any{Paragraph(md)}
	}
	return htmlToBlocks(buf.String())
}

type blockBuilder struct {
	blocks []map[string]any

	// block in progress
	curType string
	spans   []notion.RichText

	// inline state; counters so nested identical tags stay balanced
	bold   int
	italic int
	strike int
	code   int
	links  []string
	quote  int

	// fenced code
	inPre    bool
	codeLang string
	codeText strings.Builder

	// list nesting, true for ordered
	listStack []bool

	// table state
	inTable   bool
	inCell    bool
	rows      [][][]notion.RichText
	curRow    [][]notion.RichText
	cellSpans []notion.RichText
}

// htmlToBlocks walks goldmark's HTML output and assembles Notion blocks.
func htmlToBlocks(src string) []map[string]any {
	z := html.NewTokenizer(strings.NewReader(src))
	b := &blockBuilder{}

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		tok := z.Token()

		switch tt {
		case html.TextToken:
			b.text(tok.Data)
		case html.StartTagToken, html.SelfClosingTagToken:
			b.open(tok)
		case html.EndTagToken:
			b.close(tok.Data)
		}
	}
	b.flush()
	return b.blocks
}

func (b *blockBuilder) text(text string) {
	switch {
	case b.inPre:
		b.codeText.WriteString(text)
	case b.inCell:
		if text != "" {
			b.cellSpans = append(b.cellSpans, b.span(text))
		}
	case b.curType != "":
		if text != "" {
			b.spans = append(b.spans, b.span(text))
		}
	}
}

func (b *blockBuilder) open(tok html.Token) {
	switch tok.Data {
	case "strong", "b":
		b.bold++
	case "em", "i":
		b.italic++
	case "del", "s", "strike":
		b.strike++
	case "code":
		if b.inPre {
			b.codeLang = strings.TrimPrefix(attrVal(tok.Attr, "class"), "language-")
		} else {
			b.code++
		}
	case "a":
		b.links = append(b.links, attrVal(tok.Attr, "href"))
	case "p":
		if b.curType == "" {
			if b.quote > 0 {
				b.start(string(notion.TypeCallout))
			} else {
				b.start(string(notion.TypeParagraph))
			}
		}
	case "h1":
		b.start(string(notion.TypeHeading1))
	case "h2":
		b.start(string(notion.TypeHeading2))
	case "h3", "h4", "h5", "h6":
		b.start(string(notion.TypeHeading3))
	case "blockquote":
		b.flush()
		b.quote++
	case "ul":
		b.flush()
		b.listStack = append(b.listStack, false)
	case "ol":
		b.flush()
		b.listStack = append(b.listStack, true)
	case "li":
		typ := notion.TypeBulletedListItem
		if len(b.listStack) > 0 && b.listStack[len(b.listStack)-1] {
			typ = notion.TypeNumberedListItem
		}
		b.start(string(typ))
	case "pre":
		b.flush()
		b.inPre = true
		b.codeLang = ""
		b.codeText.Reset()
	// No "br" case: hard breaks render as "<br>\n" and the newline arrives
	// with the next text token.
	case "hr":
		b.flush()
		b.blocks = append(b.blocks, Divider())
	case "img":
		if src := attrVal(tok.Attr, "src"); src != "" {
			resume := b.curType
			b.flush()
			b.blocks = append(b.blocks, imageBlock(src, attrVal(tok.Attr, "alt")))
			b.curType = resume
		}
	case "table":
		b.flush()
		b.inTable = true
		b.rows = nil
	case "tr":
		if b.inTable {
			b.curRow = nil
		}
	case "th", "td":
		if b.inTable {
			b.inCell = true
			b.cellSpans = nil
		}
	}
}

func (b *blockBuilder) close(tag string) {
	switch tag {
	case "strong", "b":
		if b.bold > 0 {
			b.bold--
		}
	case "em", "i":
		if b.italic > 0 {
			b.italic--
		}
	case "del", "s", "strike":
		if b.strike > 0 {
			b.strike--
		}
	case "code":
		if !b.inPre && b.code > 0 {
			b.code--
		}
	case "a":
		if len(b.links) > 0 {
			b.links = b.links[:len(b.links)-1]
		}
	case "p":
		if b.curType == string(notion.TypeParagraph) || b.curType == string(notion.TypeCallout) {
			b.flush()
		}
	case "h1", "h2", "h3", "h4", "h5", "h6", "li":
		b.flush()
	case "blockquote":
		b.flush()
		if b.quote > 0 {
			b.quote--
		}
	case "ul", "ol":
		b.flush()
		if len(b.listStack) > 0 {
			b.listStack = b.listStack[:len(b.listStack)-1]
		}
	case "pre":
		b.inPre = false
		text := strings.TrimSuffix(b.codeText.String(), "\n")
		if text != "" {
			b.blocks = append(b.blocks, codeBlock(text, b.codeLang))
		}
	case "th", "td":
		if b.inTable {
			b.inCell = false
			cell := b.cellSpans
			if cell == nil {
				cell = []notion.RichText{}
			}
			b.curRow = append(b.curRow, cell)
			b.cellSpans = nil
		}
	case "tr":
		if b.inTable && len(b.curRow) > 0 {
			b.rows = append(b.rows, b.curRow)
			b.curRow = nil
		}
	case "table":
		b.inTable = false
		if len(b.rows) > 0 {
			b.blocks = append(b.blocks, tableBlock(b.rows))
		}
		b.rows = nil
	}
}

func (b *blockBuilder) start(typ string) {
	b.flush()
	b.curType = typ
}

func (b *blockBuilder) flush() {
	if b.curType == "" {
		return
	}
	if spans := trimEdges(b.spans); len(spans) > 0 {
		b.blocks = append(b.blocks, richBlock(b.curType, spans))
	}
	b.curType = ""
	b.spans = nil
}

// trimEdges drops markup artifacts from the edges of a block: the newline a
// loose list item carries before its wrapping <p> opens, the newline before
// a nested list, and whitespace runs at either end.
func trimEdges(spans []notion.RichText) []notion.RichText {
	for len(spans) > 0 {
		first := &spans[0]
		trimmed := strings.TrimLeft(first.Content(), " \t\n")
		if trimmed == "" {
			spans = spans[1:]
			continue
		}
		if trimmed != first.Content() {
			first.Text.Content = trimmed
			first.PlainText = trimmed
		}
		break
	}
	for len(spans) > 0 {
		last := &spans[len(spans)-1]
		trimmed := strings.TrimRight(last.Content(), " \t\n")
		if trimmed == "" {
			spans = spans[:len(spans)-1]
			continue
		}
		if trimmed != last.Content() {
			last.Text.Content = trimmed
			last.PlainText = trimmed
		}
		break
	}
	return spans
}

// span builds a rich text run carrying the current inline state.
func (b *blockBuilder) span(text string) notion.RichText {
	rt := notion.NewText(text)
	rt.Annotations.Bold = b.bold > 0
	rt.Annotations.Italic = b.italic > 0
	rt.Annotations.Strikethrough = b.strike > 0
	rt.Annotations.Code = b.code > 0
	if len(b.links) > 0 {
		if href := b.links[len(b.links)-1]; href != "" {
			rt.Text.Link = &notion.Link{URL: href}
		}
	}
	return rt
}

// attrVal returns the value of a named HTML attribute, or "".
func attrVal(attrs []html.Attribute, name string) string {
	for _, a := range attrs {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}
