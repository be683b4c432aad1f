// Package prompt builds the prompts sent to LLM providers and loads
// user overrides from a sections file.
//
// The sections file groups prompts under markdown-style headers:
//
//	# Reading:
//	"""
//	You are an expert in making content accessible...
//	"""
//
// Section bodies may carry placeholders like {content} or {block_type}
// that are substituted at render time.
package prompt

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/sahilm/fuzzy"
)

// Well-known section names.
const (
	SectionReading     = "Reading"
	SectionTranslation = "Translation"
	SectionCulture     = "Culture"
	SectionQuestions   = "Trainer Questions"
)

var sectionHeaderRE = regexp.MustCompile(`(?m)^# ([^\n:]+):?\s*$`)

// LoadSection reads the named section from a prompts file.
// The header colon is optional.
func LoadSection(path, name string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	text := string(data)

	idx := findSectionStart(text, name)
	if idx == -1 {
		return "", fmt.Errorf("section %q not found in %s", name, path)
	}

	section := text[idx:]
	q1 := strings.Index(section, `"""`)
	if q1 == -1 {
		return "", fmt.Errorf("no triple-quoted prompt in section %q", name)
	}
	q2 := strings.Index(section[q1+3:], `"""`)
	if q2 == -1 {
		return "", fmt.Errorf("unclosed triple-quoted prompt in section %q", name)
	}
	return strings.TrimSpace(section[q1+3 : q1+3+q2]), nil
}

func findSectionStart(text, name string) int {
	for _, marker := range []string{"# " + name + ":", "# " + name + "\n"} {
		if idx := strings.Index(text, marker); idx != -1 {
			return idx
		}
	}
	return -1
}

// Sections lists the section names present in a prompts file,
// in file order.
func Sections(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, m := range sectionHeaderRE.FindAllStringSubmatch(string(data), -1) {
		names = append(names, strings.TrimSpace(m[1]))
	}
	return names, nil
}

// Suggest returns the closest known section name for a possibly
// misspelled input, or "" when nothing is close enough.
func Suggest(name string, available []string) string {
	for _, s := range available {
		if strings.EqualFold(s, name) {
			return s
		}
	}
	matches := fuzzy.Find(name, available)
	if len(matches) > 0 {
		return available[matches[0].Index]
	}
	return ""
}
