// Package docsample holds the documented grouping examples and checks
// that each one both works and is documented consistently.
//
// Every sample is plain data: a snippet and the lines that describe it.
// Adding an example means adding a row to the registry; the behavioral
// and documentation checks pick it up without new test code.
package docsample

import (
	"fmt"
	"log/slog"
	"time"
)

// Sample is one documented grouping expression.
type Sample struct {
	Snippet string
	// Lines[0] is a short imperative summary; later lines elaborate.
	Lines []string
}

// Category groups samples that exercise one field family. Fixture names
// the record set the samples are checked against.
type Category struct {
	Name    string
	Fixture string
	Samples []Sample
}

// Check identifies which verification failed.
type Check string

const (
	BehavioralCheck    Check = "behavioral"
	DocumentationCheck Check = "documentation"
)

// Failure is one problem found with a sample.
type Failure struct {
	Category    string
	Snippet     string
	RecordIndex int // index into the fixture, -1 when not record-specific
	Check       Check
	Err         error
}

func (f Failure) Error() string {
	where := ""
	if f.RecordIndex >= 0 {
		where = fmt.Sprintf(" (record %d)", f.RecordIndex)
	}
	cat := ""
	if f.Category != "" {
		cat = f.Category + ": "
	}
	return fmt.Sprintf("%s%s check failed for %q%s: %v", cat, f.Check, f.Snippet, where, f.Err)
}

func (f Failure) Unwrap() error { return f.Err }

// Options control how samples are evaluated.
type Options struct {
	// Today anchors relative fields. Zero means DefaultToday.
	Today time.Time
	// MaxOperations is the per-evaluation step ceiling. Zero keeps the
	// compiler default.
	MaxOperations int
	// Parallelism bounds how many samples Verify checks at once.
	// Zero or less means one per CPU.
	Parallelism int
	Logger      *slog.Logger
}

// DefaultToday is the date fixtures are written against.
var DefaultToday = time.Date(2023, time.November, 15, 0, 0, 0, 0, time.UTC)

func (o Options) today() time.Time {
	if o.Today.IsZero() {
		return DefaultToday
	}
	return o.Today
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

// Report is the outcome of Verify.
type Report struct {
	Samples  int
	Failures []Failure
}

// OK reports whether every sample passed both checks.
func (r Report) OK() bool { return len(r.Failures) == 0 }
