package cmd

import (
	"testing"

	"github.com/samsaffron/notion-llm/internal/notion"
)

// testBlock builds a snapshot block for insertion and section-scan tests.
func testBlock(id string, typ notion.BlockType, parentID, text string) notion.Block {
	b := notion.Block{
		ID:     id,
		Type:   typ,
		Parent: &notion.Parent{Type: "block_id", BlockID: parentID},
	}
	payload := &notion.TextBlock{RichText: []notion.RichText{notion.NewText(text)}}
	switch typ {
	case notion.TypeParagraph:
		b.Paragraph = payload
	case notion.TypeHeading1:
		b.Heading1 = payload
	case notion.TypeHeading2:
		b.Heading2 = payload
	case notion.TypeHeading3:
		b.Heading3 = payload
	case notion.TypeToggle:
		b.Toggle = payload
	case notion.TypeBulletedListItem:
		b.BulletedListItem = payload
	case notion.TypeChildPage:
		b.ChildPage = &notion.ChildPage{Title: text}
	}
	return b
}

func coursePage() []notion.Block {
	return []notion.Block{
		testBlock("intro", notion.TypeHeading2, "page", "Introduction"),
		testBlock("p1", notion.TypeParagraph, "page", "Welcome to the course."),
		testBlock("concl", notion.TypeHeading2, "page", "Conclusion"),
		testBlock("p2", notion.TypeParagraph, "page", "Wrapping up the session."),
		testBlock("p3", notion.TypeParagraph, "page", "Final thoughts."),
		testBlock("mat", notion.TypeHeading2, "page", "Course Materials"),
		testBlock("p4", notion.TypeParagraph, "page", "Handouts and slides."),
	}
}

func TestFindInsertAfter(t *testing.T) {
	tests := []struct {
		name   string
		marker string
		want   string
	}{
		{name: "heading match lands after its section", marker: "conclusion", want: "p3"},
		{name: "case insensitive", marker: "CONCLUSION", want: "p3"},
		{name: "non-heading match returns the block itself", marker: "welcome", want: "p1"},
		{name: "no match appends at page end", marker: "quiz", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := findInsertAfter(coursePage(), tt.marker); got != tt.want {
				t.Fatalf("findInsertAfter(%q) = %q, want %q", tt.marker, got, tt.want)
			}
		})
	}
}

func TestFindInsertAfterSubheadingsStayInSection(t *testing.T) {
	blocks := []notion.Block{
		testBlock("concl", notion.TypeHeading2, "page", "Conclusion"),
		testBlock("s1", notion.TypeParagraph, "page", "Summary points."),
		testBlock("next", notion.TypeHeading3, "page", "Next Steps"),
		testBlock("s2", notion.TypeParagraph, "page", "Follow-up reading."),
		testBlock("refs", notion.TypeHeading2, "page", "References"),
	}
	// The heading_3 belongs to the conclusion section; the insert goes
	// after everything up to the next heading_2.
	if got := findInsertAfter(blocks, "conclusion"); got != "s2" {
		t.Fatalf("findInsertAfter = %q, want s2", got)
	}
}

func TestFindInsertAfterHeadingAtPageEnd(t *testing.T) {
	blocks := []notion.Block{
		testBlock("p1", notion.TypeParagraph, "page", "Body text."),
		testBlock("concl", notion.TypeHeading2, "page", "Conclusion"),
	}
	if got := findInsertAfter(blocks, "conclusion"); got != "concl" {
		t.Fatalf("findInsertAfter = %q, want concl", got)
	}
}

func TestHeadingLevel(t *testing.T) {
	tests := []struct {
		typ  notion.BlockType
		want int
	}{
		{notion.TypeHeading1, 1},
		{notion.TypeHeading2, 2},
		{notion.TypeHeading3, 3},
		{notion.TypeParagraph, 0},
		{notion.TypeToggle, 0},
	}
	for _, tt := range tests {
		if got := headingLevel(tt.typ); got != tt.want {
			t.Errorf("headingLevel(%s) = %d, want %d", tt.typ, got, tt.want)
		}
	}
}
