package textutil

import "github.com/mattn/go-runewidth"

// FitWidth truncates s to at most width terminal cells, marking the cut
// with an ellipsis, and pads it with spaces to exactly width cells.
// Wide (CJK, emoji) characters count as two cells.
func FitWidth(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.FillRight(runewidth.Truncate(s, width, "…"), width)
}

// Truncate shortens s to at most width terminal cells without padding.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(s, width, "…")
}

// Width is the number of terminal cells s occupies.
func Width(s string) int {
	return runewidth.StringWidth(s)
}
