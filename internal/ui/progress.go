package ui

import "fmt"

// ProgressLine formats a one-line status for a processed block, e.g.
//
//	[3/42] ✓ paragraph enhanced
//	[5/42] ○ to_do skipped (text too short)
func (s *Styles) ProgressLine(index, total int, blockType, status, detail string) string {
	var marker, label string
	switch status {
	case "enhanced":
		marker = s.Success.Render(SuccessIcon)
		label = "enhanced"
	case "no_changes":
		marker = s.Muted.Render("-")
		label = "no changes"
	case "skipped":
		marker = s.Muted.Render(DisabledIcon)
		label = "skipped"
	case "json_error_preserved":
		marker = s.Warning.Render("!")
		label = "kept original"
	case "error":
		marker = s.Error.Render(FailIcon)
		label = "failed"
	default:
		marker = " "
		label = status
	}

	line := fmt.Sprintf("[%d/%d] %s %s %s", index, total, marker, blockType, label)
	if detail != "" {
		line += " " + s.Muted.Render("("+Truncate(detail, 60)+")")
	}
	return line
}
