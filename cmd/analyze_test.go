package cmd

import (
	"fmt"
	"strings"
	"testing"

	"github.com/samsaffron/notion-llm/internal/notion"
)

func activityPage() []notion.Block {
	return []notion.Block{
		testBlock("act1", notion.TypeHeading2, "page", "Activity: Group Discussion"),
		testBlock("act1p", notion.TypeParagraph, "page", "Split into pairs and discuss the reading."),
		testBlock("wrap", notion.TypeHeading2, "page", "Wrap Up"),
		testBlock("act2", notion.TypeToggle, "page", "Activity 2: Role Play"),
		testBlock("act2c", notion.TypeParagraph, "act2", "Act out a customer support call."),
		testBlock("note", notion.TypeParagraph, "page", "Every activity needs a debrief."),
		testBlock("bare", notion.TypeToggle, "page", "Activity"),
	}
}

func TestFindActivitySections(t *testing.T) {
	sections := findActivitySections(activityPage())
	if len(sections) != 2 {
		t.Fatalf("got %d sections, want 2", len(sections))
	}

	if sections[0].container.ID != "act1" {
		t.Errorf("sections[0] container = %q, want act1", sections[0].container.ID)
	}
	if sections[0].label != "Activity: Group Discussion" {
		t.Errorf("sections[0] label = %q", sections[0].label)
	}
	want := "Activity: Group Discussion\nSplit into pairs and discuss the reading."
	if sections[0].content != want {
		t.Errorf("sections[0] content = %q, want %q", sections[0].content, want)
	}

	if sections[1].container.ID != "act2" {
		t.Errorf("sections[1] container = %q, want act2", sections[1].container.ID)
	}
	want = "Activity 2: Role Play\nAct out a customer support call."
	if sections[1].content != want {
		t.Errorf("sections[1] content = %q, want %q", sections[1].content, want)
	}
}

func TestFindActivitySectionsNone(t *testing.T) {
	blocks := []notion.Block{
		testBlock("h", notion.TypeHeading2, "page", "Introduction"),
		testBlock("p", notion.TypeParagraph, "page", "Plain lecture content."),
	}
	if got := findActivitySections(blocks); len(got) != 0 {
		t.Fatalf("got %d sections, want 0", len(got))
	}
}

func TestSubtreeText(t *testing.T) {
	blocks := []notion.Block{
		testBlock("t", notion.TypeToggle, "page", "Activity 1"),
		testBlock("c1", notion.TypeParagraph, "t", "first child"),
		testBlock("c2", notion.TypeParagraph, "c1", "grandchild"),
		testBlock("out", notion.TypeParagraph, "page", "outside the toggle"),
		testBlock("late", notion.TypeParagraph, "t", "never reached"),
	}

	if got := subtreeText(blocks, 0, 20); got != "first child\ngrandchild" {
		t.Errorf("subtreeText = %q, want %q", got, "first child\ngrandchild")
	}
	if got := subtreeText(blocks, 0, 1); got != "first child" {
		t.Errorf("subtreeText with limit 1 = %q, want %q", got, "first child")
	}
}

func TestHeadingSectionText(t *testing.T) {
	blocks := []notion.Block{
		testBlock("h", notion.TypeHeading2, "page", "Session Overview"),
		testBlock("p1", notion.TypeParagraph, "page", "alpha"),
		testBlock("sub", notion.TypeHeading3, "page", "Details"),
		testBlock("p2", notion.TypeParagraph, "page", "beta"),
		testBlock("next", notion.TypeHeading2, "page", "Next Session"),
		testBlock("p3", notion.TypeParagraph, "page", "gamma"),
	}
	// Sub-headings stay inside the section; the next heading_2 ends it.
	if got := headingSectionText(blocks, 0); got != "alpha\nDetails\nbeta" {
		t.Errorf("headingSectionText = %q, want %q", got, "alpha\nDetails\nbeta")
	}
}

func TestHeadingSectionTextStopsAtChildPage(t *testing.T) {
	blocks := []notion.Block{
		testBlock("h", notion.TypeHeading2, "page", "Resources"),
		testBlock("p1", notion.TypeParagraph, "page", "alpha"),
		testBlock("cp", notion.TypeChildPage, "page", "Subpage"),
		testBlock("p2", notion.TypeParagraph, "page", "beta"),
	}
	if got := headingSectionText(blocks, 0); got != "alpha" {
		t.Errorf("headingSectionText = %q, want %q", got, "alpha")
	}
}

func TestHeadingSectionTextScanLimit(t *testing.T) {
	blocks := []notion.Block{testBlock("h", notion.TypeHeading2, "page", "Long Section")}
	for i := 1; i <= sectionScanLimit+10; i++ {
		id := fmt.Sprintf("p%d", i)
		blocks = append(blocks, testBlock(id, notion.TypeParagraph, "page", fmt.Sprintf("line %d", i)))
	}

	lines := strings.Split(headingSectionText(blocks, 0), "\n")
	if len(lines) != sectionScanLimit {
		t.Fatalf("got %d lines, want %d", len(lines), sectionScanLimit)
	}
	if last := lines[len(lines)-1]; last != fmt.Sprintf("line %d", sectionScanLimit) {
		t.Errorf("last line = %q", last)
	}
}

func TestHasGuidanceToggle(t *testing.T) {
	blocks := []notion.Block{
		testBlock("sec", notion.TypeToggle, "page", "Activity: Warm Up"),
		testBlock("guid", notion.TypeToggle, "sec", cultureTogglePrefix+"Activity: Warm Up"),
		testBlock("other", notion.TypeToggle, "sec", "Facilitator notes"),
	}

	if !hasGuidanceToggle(blocks, "sec") {
		t.Error("expected guidance toggle under sec")
	}
	if hasGuidanceToggle(blocks, "other") {
		t.Error("did not expect guidance toggle under other")
	}
	if hasGuidanceToggle(blocks[:1], "sec") {
		t.Error("did not expect guidance toggle with no children")
	}
}
