package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wesm/groupfn/internal/docsample"
)

var verifyCategory string

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check every documented example",
	Long: `Check every documented group by function example.

Each example must compile, evaluate without error for every task in its
sample set, give the same headings when evaluated twice, and place every
task in at least one group. Its description must also follow the
documentation style. The command fails when any example does not.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		categories, err := selectCategories(docsample.Registry(), verifyCategory)
		if err != nil {
			return err
		}
		report := docsample.Verify(cmd.Context(), categories, docsample.Fixtures(), docsample.Options{
			MaxOperations: cfg.Grouping.MaxOperations,
			Parallelism:   cfg.Grouping.Parallelism,
			Logger:        logger,
		})
		if err := cmd.Context().Err(); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, f := range report.Failures {
			fmt.Fprintf(out, "FAIL %v\n", f)
		}
		if !report.OK() {
			return fmt.Errorf("%d of %d samples have problems", countFailedSamples(report), report.Samples)
		}
		fmt.Fprintf(out, "ok: %d samples verified\n", report.Samples)
		return nil
	},
}

// countFailedSamples counts distinct samples with at least one failure.
func countFailedSamples(r docsample.Report) int {
	seen := make(map[string]bool)
	for _, f := range r.Failures {
		seen[f.Category+"\x00"+f.Snippet] = true
	}
	return len(seen)
}

func init() {
	rootCmd.AddCommand(verifyCmd)
	verifyCmd.Flags().StringVar(&verifyCategory, "category", "", "only this category")
}
