package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/wesm/groupfn/internal/query"
)

var statsJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show database statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		stats, err := query.NewSQLiteEngine(s).GetTotalStats(cmd.Context())
		if err != nil {
			return fmt.Errorf("get stats: %w", err)
		}
		if statsJSON {
			return writeJSON(cmd.OutOrStdout(), stats)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Database: %s\n", cfg.DatabaseDSN())
		printStats(cmd.OutOrStdout(), stats)
		return nil
	},
}

func printStats(w io.Writer, stats *query.TotalStats) {
	fmt.Fprintf(w, "  Tasks:   %s\n", humanize.Comma(stats.TaskCount))
	fmt.Fprintf(w, "  Open:    %s\n", humanize.Comma(stats.OpenCount))
	fmt.Fprintf(w, "  Tags:    %s\n", humanize.Comma(stats.TagCount))
	fmt.Fprintf(w, "  Sources: %s\n", humanize.Comma(stats.SourceCount))
	fmt.Fprintf(w, "  Size:    %s\n", humanize.Bytes(uint64(max(stats.DatabaseSize, 0))))
}

var listSourcesCmd = &cobra.Command{
	Use:     "list-sources",
	Aliases: []string{"sources"},
	Short:   "List imported task sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		sources, err := query.NewSQLiteEngine(s).ListSources(cmd.Context())
		if err != nil {
			return fmt.Errorf("list sources: %w", err)
		}
		out := cmd.OutOrStdout()
		if statsJSON {
			return writeJSON(out, sources)
		}
		if len(sources) == 0 {
			fmt.Fprintln(out, "No sources imported. Run 'groupfn import <file>' first.")
			return nil
		}

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "SOURCE\tTASKS\tIMPORTED")
		fmt.Fprintln(w, "──────\t─────\t────────")
		for _, src := range sources {
			imported := "-"
			if src.ImportedAt != nil {
				imported = humanize.Time(*src.ImportedAt)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", src.Name, humanize.Comma(src.TaskCount), imported)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(listSourcesCmd)
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "output as JSON")
	listSourcesCmd.Flags().BoolVar(&statsJSON, "json", false, "output as JSON")
}
