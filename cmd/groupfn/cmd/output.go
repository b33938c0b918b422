package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"

	"github.com/wesm/groupfn/internal/query"
	"github.com/wesm/groupfn/internal/textutil"
)

// outputStyle controls how grouped tasks are printed.
type outputStyle struct {
	heading lipgloss.Style
	// width truncates task lines to this many cells, 0 for no limit.
	width int
}

// isTerminal reports whether f is an interactive terminal.
func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// newOutputStyle styles headings only when f is a terminal, so pipes and
// files get plain text.
func newOutputStyle(f *os.File, width int) outputStyle {
	r := lipgloss.NewRenderer(f)
	if !isTerminal(f) {
		r.SetColorProfile(termenv.Ascii)
	}
	return outputStyle{
		heading: r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		width:   width,
	}
}

// plainStyle never emits escape codes.
func plainStyle() outputStyle {
	r := lipgloss.NewRenderer(io.Discard)
	r.SetColorProfile(termenv.Ascii)
	return outputStyle{heading: r.NewStyle()}
}

// writeGroups prints groups as nested markdown-style headings. A heading
// is printed only where it differs from the previous group's heading at
// the same level; empty headings are not printed.
func writeGroups(w io.Writer, res *query.GroupResult, style outputStyle) error {
	var prev []string
	for _, g := range res.Groups {
		changed := false
		for level, h := range g.Headings {
			if !changed && level < len(prev) && prev[level] == h {
				continue
			}
			changed = true
			if h == "" {
				continue
			}
			if _, err := fmt.Fprintf(w, "\n%s\n", style.heading.Render(strings.Repeat("#", level+1)+" "+h)); err != nil {
				return err
			}
		}
		prev = g.Headings
		for _, t := range g.Tasks {
			status := t.Status
			if status == "" {
				status = " "
			}
			line := fmt.Sprintf("- [%s] %s", status, t.Description)
			if style.width > 0 {
				line = textutil.Truncate(line, style.width)
			}
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
	}
	return nil
}

// writeJSON prints v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
