package markdown

import (
	"testing"

	"github.com/samsaffron/notion-llm/internal/notion"
)

func TestHeading(t *testing.T) {
	tests := []struct {
		level int
		want  string
	}{
		{1, "heading_1"},
		{2, "heading_2"},
		{3, "heading_3"},
		{0, "heading_3"},
		{5, "heading_3"},
	}
	for _, tt := range tests {
		b := Heading("Setup", tt.level)
		if got := blockType(t, b); got != tt.want {
			t.Errorf("Heading(level=%d) type = %s, want %s", tt.level, got, tt.want)
		}
		if got := blockText(t, b); got != "Setup" {
			t.Errorf("Heading text = %q", got)
		}
	}
}

func TestParagraph(t *testing.T) {
	b := Paragraph("Plain words.")
	if blockType(t, b) != "paragraph" || blockText(t, b) != "Plain words." {
		t.Errorf("Paragraph = %v", b)
	}
}

func TestBulletedParsesMarkup(t *testing.T) {
	b := Bulleted("**Timing:** allow 20 minutes")
	if blockType(t, b) != "bulleted_list_item" {
		t.Fatalf("type = %s", blockType(t, b))
	}
	spans := blockSpans(t, b)
	if notion.PlainText(spans) != "Timing: allow 20 minutes" {
		t.Errorf("text = %q", notion.PlainText(spans))
	}
	if len(spans) < 2 || !spans[0].Annotations.Bold {
		t.Errorf("bold label lost: %+v", spans)
	}
}

func TestToggle(t *testing.T) {
	child := Bulleted("use local names")
	b := Toggle("Alternative Activities", []map[string]any{child})

	if blockType(t, b) != "toggle" {
		t.Fatalf("type = %s", blockType(t, b))
	}
	body := b["toggle"].(map[string]any)
	if notion.PlainText(body["rich_text"].([]notion.RichText)) != "Alternative Activities" {
		t.Errorf("title = %v", body["rich_text"])
	}
	children := body["children"].([]map[string]any)
	if len(children) != 1 || blockType(t, children[0]) != "bulleted_list_item" {
		t.Errorf("children = %v", children)
	}
}

func TestToggleWithoutChildren(t *testing.T) {
	b := Toggle("Empty", nil)
	body := b["toggle"].(map[string]any)
	if _, ok := body["children"]; ok {
		t.Error("nil children produced a children key")
	}
}

func TestDivider(t *testing.T) {
	b := Divider()
	if blockType(t, b) != "divider" {
		t.Errorf("type = %s", blockType(t, b))
	}
	if _, ok := b["divider"].(map[string]any); !ok {
		t.Errorf("divider body = %v", b["divider"])
	}
}
