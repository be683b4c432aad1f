package cmd

import (
	"strings"
	"testing"

	"github.com/samsaffron/notion-llm/internal/enhance"
)

func TestProgressDetail(t *testing.T) {
	tests := []struct {
		name string
		res  enhance.Result
		want string
	}{
		{
			name: "enhanced shows the new text",
			res:  enhance.Result{Status: enhance.StatusEnhanced, EnhancedText: "Clearer wording."},
			want: "Clearer wording.",
		},
		{
			name: "skipped shows the reason",
			res:  enhance.Result{Status: enhance.StatusSkipped, Reason: "synced content"},
			want: "synced content",
		},
		{
			name: "error shows the error",
			res:  enhance.Result{Status: enhance.StatusError, Error: "update failed"},
			want: "update failed",
		},
		{
			name: "json error shows the error",
			res:  enhance.Result{Status: enhance.StatusJSONError, Error: "reconstruction mismatch"},
			want: "reconstruction mismatch",
		},
		{
			name: "no change shows nothing",
			res:  enhance.Result{Status: enhance.StatusNoChanges},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := progressDetail(tt.res); got != tt.want {
				t.Fatalf("progressDetail = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCompileGlobs(t *testing.T) {
	globs, err := compileGlobs([]string{"heading_*", "paragraph"})
	if err != nil {
		t.Fatalf("compileGlobs: %v", err)
	}
	if len(globs) != 2 {
		t.Fatalf("got %d globs, want 2", len(globs))
	}
	if !globs[0].Match("heading_2") {
		t.Error("heading_* should match heading_2")
	}
	if globs[0].Match("paragraph") {
		t.Error("heading_* should not match paragraph")
	}
	if !globs[1].Match("paragraph") {
		t.Error("paragraph should match itself")
	}
}

func TestCompileGlobsBadPattern(t *testing.T) {
	_, err := compileGlobs([]string{"[unclosed"})
	if err == nil {
		t.Fatal("expected error for bad pattern, got nil")
	}
	if !strings.Contains(err.Error(), "[unclosed") {
		t.Errorf("error should name the pattern: %v", err)
	}
}
