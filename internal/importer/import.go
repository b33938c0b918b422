package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/wesm/groupfn/internal/fileutil"
	"github.com/wesm/groupfn/internal/store"
)

// Options control ImportFile.
type Options struct {
	// Source names the stored batch. Defaults to the file's base name.
	Source string

	// Strict fails the whole import when any record is invalid. Otherwise
	// invalid records are logged and skipped.
	Strict bool

	// Logger is optional; defaults to slog.Default().
	Logger *slog.Logger
}

// Summary describes a finished import.
type Summary struct {
	Source        string
	RecordsRead   int
	TasksImported int
	Skipped       int
	Duration      time.Duration
}

// ImportFile reads a JSON task export and replaces the named source in st
// with its tasks.
func ImportFile(ctx context.Context, st *store.Store, path string, opts Options) (*Summary, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	if opts.Source == "" {
		opts.Source = filepath.Base(path)
	}
	start := time.Now()

	data, err := fileutil.ReadInput(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	records, err := DecodeRecords(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	tasks, recErrs := ToTasks(records)
	if len(recErrs) > 0 {
		if opts.Strict {
			errs := make([]error, len(recErrs))
			for i, e := range recErrs {
				errs[i] = e
			}
			return nil, fmt.Errorf("%s: %d invalid records: %w", path, len(recErrs), errors.Join(errs...))
		}
		for _, e := range recErrs {
			log.Warn("skipping invalid task record", "file", path, "index", e.Index, "error", e.Err)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if _, err := st.ReplaceSource(opts.Source, tasks); err != nil {
		return nil, fmt.Errorf("store %s: %w", opts.Source, err)
	}

	summary := &Summary{
		Source:        opts.Source,
		RecordsRead:   len(records),
		TasksImported: len(tasks),
		Skipped:       len(recErrs),
		Duration:      time.Since(start),
	}
	log.Info("imported tasks",
		"source", summary.Source,
		"tasks", summary.TasksImported,
		"skipped", summary.Skipped,
		"duration", summary.Duration.Round(time.Millisecond),
	)
	return summary, nil
}
