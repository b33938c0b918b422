package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wesm/groupfn/internal/api"
	"github.com/wesm/groupfn/internal/config"
	"github.com/wesm/groupfn/internal/importer"
	"github.com/wesm/groupfn/internal/query"
	"github.com/wesm/groupfn/internal/scheduler"
	"github.com/wesm/groupfn/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Long: `Run the grouping HTTP API in the foreground.

The server listens on [server] bind_addr and api_port from config.toml
(default 127.0.0.1:8080). Binding a non-loopback address requires
api_key, or allow_insecure = true.

  [server]
  api_port = 8080
  bind_addr = "127.0.0.1"
  api_key = "secret"

Task exports listed under [[imports]] with enabled = true are
re-imported on their cron schedule while the server runs:

  [[imports]]
  source = "work"
  file = "~/vault/work-tasks.json"
  schedule = "*/15 * * * *"
  enabled = true

Use Ctrl+C to stop the server gracefully.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	// Validate security posture before doing any work
	if err := cfg.Server.ValidateSecure(); err != nil {
		return err
	}

	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	sched := scheduler.New(func(ctx context.Context, source string) error {
		return runScheduledImport(ctx, s, cfg, source)
	}).WithLogger(logger)
	count, errs := sched.AddImportsFromConfig(cfg)
	for _, err := range errs {
		logger.Error("failed to schedule import", "error", err)
	}
	sched.Start()

	apiServer := api.NewServer(cfg, query.NewSQLiteEngine(s), logger).WithScheduler(sched)

	serverErr := make(chan error, 1)
	go func() {
		if err := apiServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "groupfn API server started\n")
	fmt.Fprintf(out, "  Listening: http://%s\n", cfg.ListenAddr())
	fmt.Fprintf(out, "  Database:  %s\n", cfg.DatabaseDSN())
	fmt.Fprintf(out, "  Scheduled imports: %d\n", count)
	for _, status := range sched.Status() {
		fmt.Fprintf(out, "    %s: next import at %s\n", status.Source, status.NextRun.Local().Format("2006-01-02 15:04:05"))
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Press Ctrl+C to stop.")

	var runErr error
	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", "signal", sig)
		fmt.Fprintf(out, "\nReceived %s, shutting down...\n", sig)
	case err := <-serverErr:
		logger.Error("API server error", "error", err)
		runErr = fmt.Errorf("api server: %w", err)
	case <-ctx.Done():
		logger.Info("context cancelled")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("API server shutdown error", "error", err)
	}

	if count > 0 {
		fmt.Fprintln(out, "Waiting for running imports to complete...")
	}
	select {
	case <-sched.Stop().Done():
	case <-time.After(30 * time.Second):
		logger.Warn("scheduled imports did not stop within 30 seconds")
	}
	return runErr
}

// runScheduledImport re-imports the file configured for source.
func runScheduledImport(ctx context.Context, s *store.Store, cfg *config.Config, source string) error {
	for _, imp := range cfg.Imports {
		if imp.Source != source {
			continue
		}
		sum, err := importer.ImportFile(ctx, s, imp.File, importer.Options{Source: source, Logger: logger})
		if err != nil {
			return err
		}
		logger.Info("scheduled import stored tasks", "source", source, "tasks", sum.TasksImported, "skipped", sum.Skipped)
		return nil
	}
	return fmt.Errorf("no import configured for source %q", source)
}
