package docsample

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/wesm/groupfn/internal/expr"
	"github.com/wesm/groupfn/internal/facade"
	"github.com/wesm/groupfn/internal/grouper"
	"github.com/wesm/groupfn/internal/task"
)

// CheckBehavior runs the sample through the full grouping pipeline over
// the fixture. It fails when the snippet does not compile, when any
// record fails to evaluate, when a record's keys differ between two
// evaluations, or when the groups do not partition the fixture (every
// record in at least one group, never twice in the same group). A record
// that yields no key must land under the empty heading.
func CheckBehavior(ctx context.Context, s Sample, f Fixture, opts Options) []Failure {
	fail := func(idx int, err error) []Failure {
		return []Failure{{Snippet: s.Snippet, RecordIndex: idx, Check: BehavioralCheck, Err: err}}
	}

	p, err := facade.Compile(s.Snippet, expr.WithMaxOperations(opts.MaxOperations))
	if err != nil {
		return fail(-1, err)
	}
	g := grouper.New("function", p, grouper.WithToday(opts.today()), grouper.WithLogger(opts.logger()))

	groups, err := grouper.GroupTasks(ctx, f.Tasks, g)
	if err != nil {
		var ee *grouper.EvalError
		if errors.As(err, &ee) {
			return fail(ee.Index, ee.Err)
		}
		return fail(-1, err)
	}

	var failures []Failure
	keys := make([][]string, len(f.Tasks))
	for i, t := range f.Tasks {
		first, err := g.Keys(t)
		if err != nil {
			failures = append(failures, fail(i, err)...)
			continue
		}
		keys[i] = first
		second, err := g.Keys(t)
		if err != nil || !slices.Equal(first, second) {
			failures = append(failures, fail(i, fmt.Errorf("keys are not deterministic: %q then %q", first, second))...)
		}
	}

	index := make(map[*task.Task]int, len(f.Tasks))
	for i, t := range f.Tasks {
		index[t] = i
	}
	count := make(map[*task.Task]int, len(f.Tasks))
	for _, grp := range groups {
		inGroup := make(map[*task.Task]bool, len(grp.Tasks))
		for _, t := range grp.Tasks {
			if inGroup[t] {
				failures = append(failures, fail(index[t], fmt.Errorf("record appears twice under heading %q", grp.Headings))...)
			}
			inGroup[t] = true
			count[t]++
		}
	}
	for i, t := range f.Tasks {
		if count[t] == 0 {
			failures = append(failures, fail(i, errors.New("record is not in any group"))...)
		}
	}
	for _, i := range outsideEmptyBucket(f.Tasks, keys, groups) {
		failures = append(failures, fail(i, errors.New("record with no group key is not under the empty heading"))...)
	}
	return failures
}

// outsideEmptyBucket returns the indexes of records whose keys are the
// single empty key but which are missing from the group headed "".
func outsideEmptyBucket(tasks []*task.Task, keys [][]string, groups []grouper.Group) []int {
	var empty map[*task.Task]bool
	for _, grp := range groups {
		if slices.Equal(grp.Headings, []string{""}) {
			empty = make(map[*task.Task]bool, len(grp.Tasks))
			for _, t := range grp.Tasks {
				empty[t] = true
			}
		}
	}
	var out []int
	for i, t := range tasks {
		if slices.Equal(keys[i], []string{""}) && !empty[t] {
			out = append(out, i)
		}
	}
	return out
}

// CheckDocumentation checks that a sample is documented in the house
// style and that its snippet can be embedded in the generated docs.
func CheckDocumentation(s Sample) []Failure {
	var failures []Failure
	fail := func(format string, args ...any) {
		failures = append(failures, Failure{
			Snippet:     s.Snippet,
			RecordIndex: -1,
			Check:       DocumentationCheck,
			Err:         fmt.Errorf(format, args...),
		})
	}

	switch {
	case s.Snippet == "":
		fail("snippet is empty")
	case strings.ContainsAny(s.Snippet, "\r\n"):
		fail("snippet spans more than one line")
	case strings.TrimSpace(s.Snippet) != s.Snippet:
		fail("snippet has leading or trailing whitespace")
	}
	if strings.Contains(s.Snippet, "```") {
		fail("snippet contains a triple backtick")
	}
	if q, ok := unbalancedQuote(s.Snippet); ok {
		fail("snippet has an unterminated %c quote", q)
	}

	if len(s.Lines) == 0 {
		fail("sample has no description")
	}
	for i, line := range s.Lines {
		n := i + 1
		if line == "" {
			fail("line %d is empty", n)
			continue
		}
		if strings.TrimSpace(line) != line {
			fail("line %d has leading or trailing whitespace", n)
		}
		if i == 0 {
			if r, _ := utf8.DecodeRuneInString(line); !unicode.IsUpper(r) {
				fail("summary does not start with an upper-case letter: %q", line)
			}
		}
		if !strings.HasSuffix(line, ".") && !strings.HasSuffix(line, ":") {
			fail("line %d does not end with '.' or ':': %q", n, line)
		}
		if strings.Count(line, "`")%2 != 0 {
			fail("line %d has unbalanced backticks", n)
			continue
		}
		prose := outsideCode(line)
		for _, bad := range []string{"<", "|", "%%"} {
			if strings.Contains(prose, bad) {
				fail("line %d contains %q outside a code span", n, bad)
			}
		}
	}
	return failures
}

// outsideCode returns the parts of line that are not inside `code` spans.
func outsideCode(line string) string {
	var b strings.Builder
	for i, part := range strings.Split(line, "`") {
		if i%2 == 0 {
			b.WriteString(part)
		}
	}
	return b.String()
}

// unbalancedQuote reports the first string or template quote in src that
// is never closed. Backslash escapes are honoured.
func unbalancedQuote(src string) (rune, bool) {
	var open rune
	escaped := false
	for _, r := range src {
		switch {
		case escaped:
			escaped = false
		case r == '\\' && open != 0:
			escaped = true
		case open != 0:
			if r == open {
				open = 0
			}
		case r == '"' || r == '\'' || r == '`':
			open = r
		}
	}
	return open, open != 0
}
