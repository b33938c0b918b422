package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/wesm/groupfn/internal/importer"
)

var (
	importSource string
	importStrict bool
)

var importCmd = &cobra.Command{
	Use:   "import <tasks.json>",
	Short: "Import tasks from a JSON export",
	Long: `Import tasks from a JSON file holding an array of task records.

The tasks are stored under a named source, which defaults to the file's
base name. Importing again under the same source replaces its tasks.
Invalid records are logged and skipped unless --strict is set.

Examples:
  groupfn import export.json
  groupfn import vault-tasks.json --source work --strict`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		if isTerminal(os.Stderr) {
			fmt.Fprintf(os.Stderr, "Importing %s...\n", args[0])
		}

		sum, err := importer.ImportFile(cmd.Context(), s, args[0], importer.Options{
			Source: importSource,
			Strict: importStrict,
			Logger: logger,
		})
		if err != nil {
			return fmt.Errorf("import %s: %w", args[0], err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Source:   %s\n", sum.Source)
		fmt.Fprintf(out, "Imported: %s tasks\n", humanize.Comma(int64(sum.TasksImported)))
		if sum.Skipped > 0 {
			fmt.Fprintf(out, "Skipped:  %s invalid records\n", humanize.Comma(int64(sum.Skipped)))
		}
		fmt.Fprintf(out, "Took:     %s\n", sum.Duration.Round(time.Millisecond))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().StringVar(&importSource, "source", "", "source name (default: file base name)")
	importCmd.Flags().BoolVar(&importStrict, "strict", false, "fail when any record is invalid")
}
