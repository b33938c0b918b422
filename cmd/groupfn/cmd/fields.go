package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/wesm/groupfn/internal/facade"
)

var fieldsCmd = &cobra.Command{
	Use:   "fields",
	Short: "List the task properties expressions can use",
	Long: `List the properties available on "task" inside a group by function
expression. Every property can also be used without the "task." prefix.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "FIELD\tKIND\tDESCRIPTION")
		fmt.Fprintln(w, "─────\t────\t───────────")
		for _, f := range facade.Fields {
			fmt.Fprintf(w, "task.%s\t%s\t%s\n", f.Name, f.Kind, f.Doc)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(fieldsCmd)
}
