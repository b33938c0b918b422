// Package scheduler re-imports task exports on cron schedules while the
// server runs, so grouped views follow the files they were exported from.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/wesm/groupfn/internal/config"
)

// ImportFunc is invoked when a scheduled import should run. It receives
// the source name and should replace that source's stored tasks.
type ImportFunc func(ctx context.Context, source string) error

// Errors returned by TriggerImport.
var (
	ErrStopped        = errors.New("scheduler is stopped")
	ErrNotScheduled   = errors.New("source is not scheduled")
	ErrAlreadyRunning = errors.New("import already running")
)

// ImportStatus is the state of one scheduled import.
type ImportStatus struct {
	Source    string    `json:"source"`
	Running   bool      `json:"running"`
	LastRun   time.Time `json:"last_run,omitzero"`
	NextRun   time.Time `json:"next_run,omitzero"`
	Schedule  string    `json:"schedule"`
	LastError string    `json:"last_error,omitempty"`
}

// Scheduler runs ImportFunc for each source on its cron schedule.
// At most one import per source runs at a time.
type Scheduler struct {
	cron       *cron.Cron
	importFunc ImportFunc
	logger     *slog.Logger

	mu        sync.RWMutex
	jobs      map[string]cron.EntryID // source -> cron entry ID
	schedules map[string]string       // source -> cron expression
	running   map[string]bool         // source -> currently importing
	lastRun   map[string]time.Time    // source -> last successful run
	lastErr   map[string]error        // source -> last error

	ctx     context.Context    // cancelled on Stop
	cancel  context.CancelFunc // cancels ctx
	wg      sync.WaitGroup     // tracks running imports
	started bool
	stopped bool
}

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// New creates a Scheduler that calls fn for each due import.
func New(fn ImportFunc) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:       cron.New(cron.WithParser(cronParser)),
		importFunc: fn,
		logger:     slog.Default(),
		jobs:       make(map[string]cron.EntryID),
		schedules:  make(map[string]string),
		running:    make(map[string]bool),
		lastRun:    make(map[string]time.Time),
		lastErr:    make(map[string]error),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// WithLogger sets the logger for the scheduler.
func (s *Scheduler) WithLogger(logger *slog.Logger) *Scheduler {
	s.logger = logger
	return s
}

// AddImport schedules source with a five-field cron expression,
// replacing any existing schedule for it.
func (s *Scheduler) AddImport(source, cronExpr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entryID, exists := s.jobs[source]; exists {
		s.cron.Remove(entryID)
		delete(s.jobs, source)
		delete(s.schedules, source)
	}

	entryID, err := s.cron.AddFunc(cronExpr, func() {
		if s.begin(source) == nil {
			s.runImport(source)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", cronExpr, err)
	}

	s.jobs[source] = entryID
	s.schedules[source] = cronExpr
	s.logger.Info("scheduled import",
		"source", source,
		"schedule", cronExpr,
		"next_run", s.cron.Entry(entryID).Next)
	return nil
}

// AddImportsFromConfig schedules every enabled import in cfg.
// Returns the number scheduled and the errors for the rest.
func (s *Scheduler) AddImportsFromConfig(cfg *config.Config) (int, []error) {
	var errs []error
	scheduled := 0
	for _, imp := range cfg.ScheduledImports() {
		if err := s.AddImport(imp.Source, imp.Schedule); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", imp.Source, err))
		} else {
			scheduled++
		}
	}
	return scheduled, errs
}

// RemoveImport removes the schedule for source.
func (s *Scheduler) RemoveImport(source string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entryID, exists := s.jobs[source]; exists {
		s.cron.Remove(entryID)
		delete(s.jobs, source)
		delete(s.schedules, source)
		s.logger.Info("removed schedule", "source", source)
	}
}

// Start begins executing scheduled imports.
func (s *Scheduler) Start() {
	s.mu.Lock()
	s.started = true
	s.stopped = false
	n := len(s.jobs)
	s.mu.Unlock()

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", n)
}

// IsRunning returns true if the scheduler has been started and not yet stopped.
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started && !s.stopped
}

// Stop stops scheduling, cancels running imports and returns a context
// that is done once they have all returned.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("scheduler stopping")

	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()

	cronCtx := s.cron.Stop()
	s.cancel()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-cronCtx.Done()
		s.wg.Wait()
		cancel()
	}()
	return ctx
}

// begin marks source as running. The caller must then call runImport.
func (s *Scheduler) begin(source string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.stopped:
		return ErrStopped
	case s.running[source]:
		return fmt.Errorf("%w for %s", ErrAlreadyRunning, source)
	}
	s.running[source] = true
	s.wg.Add(1)
	return nil
}

func (s *Scheduler) runImport(source string) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		s.running[source] = false
		s.mu.Unlock()
	}()

	s.logger.Info("starting scheduled import", "source", source)
	start := time.Now()

	err := s.importFunc(s.ctx, source)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.lastErr[source] = err
		s.logger.Error("scheduled import failed",
			"source", source,
			"duration", time.Since(start),
			"error", err)
		return
	}
	s.lastRun[source] = time.Now()
	s.lastErr[source] = nil
	s.logger.Info("scheduled import completed",
		"source", source,
		"duration", time.Since(start))
}

// IsScheduled returns true if source has a schedule.
func (s *Scheduler) IsScheduled(source string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.jobs[source]
	return exists
}

// TriggerImport runs a scheduled source's import now, in the background.
func (s *Scheduler) TriggerImport(source string) error {
	s.mu.RLock()
	_, exists := s.jobs[source]
	s.mu.RUnlock()
	if !exists {
		return fmt.Errorf("%w: %s", ErrNotScheduled, source)
	}
	if err := s.begin(source); err != nil {
		return err
	}
	go s.runImport(source)
	return nil
}

// Status returns the state of every scheduled import, ordered by source.
func (s *Scheduler) Status() []ImportStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	statuses := make([]ImportStatus, 0, len(s.jobs))
	for source, entryID := range s.jobs {
		status := ImportStatus{
			Source:   source,
			Running:  s.running[source],
			LastRun:  s.lastRun[source],
			NextRun:  s.cron.Entry(entryID).Next,
			Schedule: s.schedules[source],
		}
		if err := s.lastErr[source]; err != nil {
			status.LastError = err.Error()
		}
		statuses = append(statuses, status)
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].Source < statuses[j].Source })
	return statuses
}

// ValidateCronExpr validates a cron expression without scheduling anything.
func ValidateCronExpr(expr string) error {
	if _, err := cronParser.Parse(expr); err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}
	return nil
}
