package ui

import (
	"os"
	"strings"
	"testing"
)

func TestRenderUnifiedDiffIdentical(t *testing.T) {
	s := NewStyles(os.Stdout)

	if got := s.RenderUnifiedDiff("block", "same text", "same text"); got != "" {
		t.Errorf("identical inputs should produce no diff, got %q", got)
	}
}

func TestRenderUnifiedDiffShowsChanges(t *testing.T) {
	s := NewStyles(os.Stdout)

	out := s.RenderUnifiedDiff("block", "The cat sat on the mat.", "The dog sat on the mat.")

	if !strings.Contains(out, "-The cat sat on the mat.") {
		t.Errorf("missing removed line:\n%s", out)
	}
	if !strings.Contains(out, "+The dog sat on the mat.") {
		t.Errorf("missing added line:\n%s", out)
	}
	if !strings.Contains(out, "@@") {
		t.Errorf("missing hunk header:\n%s", out)
	}
	// File headers are noise for single-block diffs
	if strings.Contains(out, "--- ") || strings.Contains(out, "+++ ") {
		t.Errorf("file headers should be stripped:\n%s", out)
	}
}

func TestRenderUnifiedDiffKeepsContext(t *testing.T) {
	s := NewStyles(os.Stdout)

	oldText := "first line\nsecond line\nthird line"
	newText := "first line\nchanged line\nthird line"

	out := s.RenderUnifiedDiff("block", oldText, newText)

	if !strings.Contains(out, " first line") {
		t.Errorf("missing context line:\n%s", out)
	}
	if !strings.Contains(out, "-second line") || !strings.Contains(out, "+changed line") {
		t.Errorf("missing change lines:\n%s", out)
	}
}

func TestHasDiff(t *testing.T) {
	if HasDiff("a", "a") {
		t.Error("HasDiff should be false for identical content")
	}
	if !HasDiff("a", "b") {
		t.Error("HasDiff should be true for different content")
	}
}
