package docsample

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/mattn/go-runewidth"

	"github.com/wesm/groupfn/internal/expr"
	"github.com/wesm/groupfn/internal/facade"
	"github.com/wesm/groupfn/internal/grouper"
)

// reportWidth is the display width task descriptions are cut to.
const reportWidth = 48

// RenderMarkdown writes the samples as the documentation shows them:
// one section per category, each sample as a bullet holding the full
// instruction line followed by its description lines.
func RenderMarkdown(w io.Writer, categories []Category) error {
	bw := bufio.NewWriter(w)
	for i, c := range categories {
		if i > 0 {
			bw.WriteString("\n")
		}
		fmt.Fprintf(bw, "## %s\n\n", c.Name)
		for _, s := range c.Samples {
			fmt.Fprintf(bw, "- ```group by function %s```\n", s.Snippet)
			for _, line := range s.Lines {
				fmt.Fprintf(bw, "    - %s\n", line)
			}
		}
	}
	return bw.Flush()
}

// RenderReport writes, for every sample, the headings it produces over
// its fixture and the tasks under each, for reviewing that the
// documentation matches what users will see. Samples that fail to
// evaluate are reported inline.
func RenderReport(ctx context.Context, w io.Writer, categories []Category, fixtures []Fixture, opts Options) error {
	bw := bufio.NewWriter(w)
	for _, c := range categories {
		f, ok := FixtureByName(fixtures, c.Fixture)
		if !ok {
			return fmt.Errorf("category %s: unknown fixture %q", c.Name, c.Fixture)
		}
		fmt.Fprintf(bw, "# %s (fixture %s, %d tasks)\n\n", c.Name, f.Name, len(f.Tasks))
		for _, s := range c.Samples {
			if err := ctx.Err(); err != nil {
				return err
			}
			fmt.Fprintf(bw, "group by function %s\n", s.Snippet)
			groups, err := groupSample(ctx, s, f, opts)
			if err != nil {
				fmt.Fprintf(bw, "  error: %v\n\n", err)
				continue
			}
			for _, g := range groups {
				heading := grouper.DisplayHeading(g.Headings[0])
				if heading == "" {
					heading = "(no heading)"
				}
				fmt.Fprintf(bw, "  %s\n", heading)
				for _, t := range g.Tasks {
					fmt.Fprintf(bw, "    - %s\n", runewidth.Truncate(t.Description, reportWidth, "..."))
				}
			}
			bw.WriteString("\n")
		}
	}
	return bw.Flush()
}

func groupSample(ctx context.Context, s Sample, f Fixture, opts Options) ([]grouper.Group, error) {
	p, err := facade.Compile(s.Snippet, expr.WithMaxOperations(opts.MaxOperations))
	if err != nil {
		return nil, err
	}
	g := grouper.New("function", p, grouper.WithToday(opts.today()), grouper.WithLogger(opts.logger()))
	return grouper.GroupTasks(ctx, f.Tasks, g)
}
