package cmd

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wesm/groupfn/internal/docsample"
	"github.com/wesm/groupfn/internal/fileutil"
)

var (
	samplesCategory string
	samplesReport   bool
	samplesOut      string
	samplesDocs     bool
)

var samplesCmd = &cobra.Command{
	Use:   "samples",
	Short: "Show documented group by function examples",
	Long: `Show the documented group by function examples as markdown.

With --report, each example is run over its sample tasks and the
headings it produces are shown, for checking the documentation against
real output.

Examples:
  groupfn samples
  groupfn samples --category dates --report
  groupfn samples --docs`,
	RunE: func(cmd *cobra.Command, args []string) error {
		categories, err := selectCategories(docsample.Registry(), samplesCategory)
		if err != nil {
			return err
		}

		var buf bytes.Buffer
		if samplesReport {
			opts := docsample.Options{
				MaxOperations: cfg.Grouping.MaxOperations,
				Parallelism:   cfg.Grouping.Parallelism,
				Logger:        logger,
			}
			err = docsample.RenderReport(cmd.Context(), &buf, categories, docsample.Fixtures(), opts)
		} else {
			err = docsample.RenderMarkdown(&buf, categories)
		}
		if err != nil {
			return err
		}

		out := samplesOut
		if samplesDocs {
			name := "group-by-function.md"
			if samplesReport {
				name = "group-by-function-report.txt"
			}
			if err := fileutil.SecureMkdirAll(cfg.DocsDir(), 0o700); err != nil {
				return fmt.Errorf("create docs directory: %w", err)
			}
			out = filepath.Join(cfg.DocsDir(), name)
		}
		if out == "" {
			_, err := cmd.OutOrStdout().Write(buf.Bytes())
			return err
		}
		if err := fileutil.WriteFileAtomic(out, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", out, err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", out)
		return nil
	},
}

// selectCategories returns the category whose name matches name
// case-insensitively, or all categories when name is empty.
func selectCategories(all []docsample.Category, name string) ([]docsample.Category, error) {
	if name == "" {
		return all, nil
	}
	names := make([]string, 0, len(all))
	for _, c := range all {
		if strings.EqualFold(c.Name, name) {
			return []docsample.Category{c}, nil
		}
		names = append(names, c.Name)
	}
	return nil, fmt.Errorf("unknown category %q (available: %s)", name, strings.Join(names, ", "))
}

func init() {
	rootCmd.AddCommand(samplesCmd)
	samplesCmd.Flags().StringVar(&samplesCategory, "category", "", "only this category, e.g. Dates")
	samplesCmd.Flags().BoolVar(&samplesReport, "report", false, "show the headings each example produces")
	samplesCmd.Flags().StringVarP(&samplesOut, "out", "o", "", "write to this file instead of stdout")
	samplesCmd.Flags().BoolVar(&samplesDocs, "docs", false, "write into the data directory's docs folder")
	samplesCmd.MarkFlagsMutuallyExclusive("out", "docs")
}
