package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wesm/groupfn/internal/query"
	"github.com/wesm/groupfn/internal/store"
)

var removeSourceYes bool

var removeSourceCmd = &cobra.Command{
	Use:   "remove-source <name>",
	Short: "Remove an imported source and its tasks",
	Long: `Remove an imported source and all of its tasks from the local
database. This is irreversible; re-import the file to restore them.

Examples:
  groupfn remove-source work
  groupfn remove-source work --yes`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		s, err := openStore()
		if err != nil {
			return err
		}
		defer func() { _ = s.Close() }()

		sources, err := query.NewSQLiteEngine(s).ListSources(cmd.Context())
		if err != nil {
			return fmt.Errorf("list sources: %w", err)
		}
		var found *query.SourceInfo
		for i := range sources {
			if sources[i].Name == name {
				found = &sources[i]
				break
			}
		}
		if found == nil {
			return fmt.Errorf("source %q not found", name)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Source: %s\n", found.Name)
		fmt.Fprintf(out, "Tasks:  %d\n", found.TaskCount)

		if !removeSourceYes {
			fmt.Fprint(out, "\nRemove this source and all its tasks? [y/N] ")
			scanner := bufio.NewScanner(cmd.InOrStdin())
			scanner.Scan()
			answer := strings.TrimSpace(strings.ToLower(scanner.Text()))
			if answer != "y" && answer != "yes" {
				fmt.Fprintln(out, "Aborted.")
				return nil
			}
		}

		if err := s.DeleteSource(name); err != nil {
			if errors.Is(err, store.ErrSourceNotFound) {
				return fmt.Errorf("source %q not found", name)
			}
			return fmt.Errorf("remove source: %w", err)
		}
		fmt.Fprintf(out, "\nSource %s removed.\n", name)
		return nil
	},
}

func init() {
	removeSourceCmd.Flags().BoolVarP(&removeSourceYes, "yes", "y", false, "Skip confirmation prompt")
	rootCmd.AddCommand(removeSourceCmd)
}
