package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wesm/groupfn/internal/query"
	"github.com/wesm/groupfn/internal/store"
)

var initDBCmd = &cobra.Command{
	Use:   "init-db",
	Short: "Initialize the database schema",
	Long: `Initialize the groupfn database with the required schema.

It is safe to run multiple times: tables are only created if they don't
already exist. Other commands create the schema on first use as well.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath := cfg.DatabaseDSN()
		logger.Info("initializing database", "path", dbPath)

		s, err := store.Open(dbPath)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer s.Close()

		if err := s.InitSchema(); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
		logger.Info("database initialized successfully")

		stats, err := query.NewSQLiteEngine(s).GetTotalStats(cmd.Context())
		if err != nil {
			return fmt.Errorf("get stats: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Database: %s\n", dbPath)
		printStats(cmd.OutOrStdout(), stats)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initDBCmd)
}
