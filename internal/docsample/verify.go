package docsample

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"
)

// Verify checks every sample against its category's fixture and against
// the documentation rules. Samples are checked concurrently; failures are
// returned in registry order, documentation failures before behavioral
// ones for the same sample.
func Verify(ctx context.Context, categories []Category, fixtures []Fixture, opts Options) Report {
	type job struct {
		category string
		want     string
		sample   Sample
		fixture  Fixture
		found    bool
	}
	var jobs []job
	for _, c := range categories {
		f, ok := FixtureByName(fixtures, c.Fixture)
		for _, s := range c.Samples {
			jobs = append(jobs, job{category: c.Name, want: c.Fixture, sample: s, fixture: f, found: ok})
		}
	}

	limit := opts.Parallelism
	if limit <= 0 {
		limit = runtime.NumCPU()
	}
	start := time.Now()
	results := make([][]Failure, len(jobs))
	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(limit)
	for i, j := range jobs {
		eg.Go(func() error {
			failures := CheckDocumentation(j.sample)
			if !j.found {
				failures = append(failures, Failure{
					Snippet:     j.sample.Snippet,
					RecordIndex: -1,
					Check:       BehavioralCheck,
					Err:         fmt.Errorf("unknown fixture %q", j.want),
				})
			} else {
				failures = append(failures, CheckBehavior(gctx, j.sample, j.fixture, opts)...)
			}
			for k := range failures {
				failures[k].Category = j.category
			}
			results[i] = failures
			return nil
		})
	}
	_ = eg.Wait() // jobs never return errors

	report := Report{Samples: len(jobs)}
	for _, r := range results {
		report.Failures = append(report.Failures, r...)
	}
	opts.logger().Info("verified documentation samples",
		"samples", report.Samples,
		"failures", len(report.Failures),
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return report
}
