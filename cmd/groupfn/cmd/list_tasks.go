package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/wesm/groupfn/internal/importer"
	"github.com/wesm/groupfn/internal/textutil"
)

var (
	listSelect taskSelection
	listJSON   bool
)

var listTasksCmd = &cobra.Command{
	Use:   "list-tasks",
	Short: "List stored tasks",
	Long: `List imported tasks, optionally filtered by source, path, tag or status.

Examples:
  groupfn list-tasks --limit 20
  groupfn list-tasks --source work --tag '#urgent' --open
  groupfn list-tasks --filter 'path:Projects/ due-before:7d report'
  groupfn list-tasks --json > tasks.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		tasks, err := listSelect.load(cmd.Context(), storeEngine)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if listJSON {
			records := make([]importer.Record, len(tasks))
			for i, t := range tasks {
				records[i] = importer.RecordFromTask(t)
			}
			return writeJSON(out, records)
		}

		if len(tasks) == 0 {
			fmt.Fprintln(out, "No tasks found.")
			return nil
		}

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "STATUS\tDESCRIPTION\tDUE\tPRIORITY\tPATH")
		fmt.Fprintln(w, "──────\t───────────\t───\t────────\t────")
		for _, t := range tasks {
			fmt.Fprintf(w, "[%s]\t%s\t%s\t%s\t%s\n",
				t.Status.Symbol,
				textutil.FitWidth(t.Description, 48),
				formatDate(t.Due),
				t.Priority.Name(),
				textutil.FitWidth(t.Path, 32),
			)
		}
		w.Flush()
		fmt.Fprintf(out, "\nShowing %d tasks\n", len(tasks))
		return nil
	},
}

// formatDate renders an optional date column.
func formatDate(d *time.Time) string {
	if d == nil {
		return "-"
	}
	return d.Format(time.DateOnly)
}

func init() {
	rootCmd.AddCommand(listTasksCmd)
	addSelectionFlags(listTasksCmd, &listSelect)
	listTasksCmd.Flags().IntVarP(&listSelect.limit, "limit", "n", 50, "maximum number of tasks (0 for all)")
	listTasksCmd.Flags().BoolVar(&listJSON, "json", false, "output as JSON records")
}
