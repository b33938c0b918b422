// Package search parses task filter strings such as
// `source:work tag:#urgent is:open due-before:7d "quarterly report"`.
package search

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/wesm/groupfn/internal/task"
)

// Query represents a parsed filter with all supported operators.
type Query struct {
	TextTerms  []string          // description must contain each, case-insensitively
	Source     string            // source: imported source name
	PathPrefix string            // path: file path prefix
	Tags       []string          // tag: filters and bare #tags, all required
	Statuses   []task.StatusType // status: filters, any may match
	OpenOnly   bool              // is:open
	DueBefore  *time.Time        // due-before: (exclusive)
	DueAfter   *time.Time        // due-after: (exclusive)
	HasDue     *bool             // has:due or no:due
	Limit      int               // limit:
}

// IsEmpty returns true if the query has no criteria.
func (q *Query) IsEmpty() bool {
	return len(q.TextTerms) == 0 &&
		q.Source == "" &&
		q.PathPrefix == "" &&
		len(q.Tags) == 0 &&
		len(q.Statuses) == 0 &&
		!q.OpenOnly &&
		q.DueBefore == nil &&
		q.DueAfter == nil &&
		q.HasDue == nil &&
		q.Limit == 0
}

// operatorFn handles a parsed operator:value pair by applying it to the query.
type operatorFn func(q *Query, value string, today time.Time)

// operators maps operator names to their handler functions.
var operators = map[string]operatorFn{
	"source": func(q *Query, v string, _ time.Time) {
		q.Source = v
	},
	"path": func(q *Query, v string, _ time.Time) {
		q.PathPrefix = v
	},
	"tag": func(q *Query, v string, _ time.Time) {
		if v != "" && !strings.HasPrefix(v, "#") {
			v = "#" + v
		}
		q.Tags = append(q.Tags, v)
	},
	"status": func(q *Query, v string, _ time.Time) {
		q.Statuses = append(q.Statuses, parseStatus(v))
	},
	"is": func(q *Query, v string, _ time.Time) {
		switch strings.ToLower(v) {
		case "open":
			q.OpenOnly = true
		case "done":
			q.Statuses = append(q.Statuses, task.StatusDone)
		case "cancelled":
			q.Statuses = append(q.Statuses, task.StatusCancelled)
		}
	},
	"has": func(q *Query, v string, _ time.Time) {
		if strings.EqualFold(v, "due") {
			b := true
			q.HasDue = &b
		}
	},
	"no": func(q *Query, v string, _ time.Time) {
		if strings.EqualFold(v, "due") {
			b := false
			q.HasDue = &b
		}
	},
	"due-before": func(q *Query, v string, today time.Time) {
		if t := parseDate(v, today); t != nil {
			q.DueBefore = t
		}
	},
	"due-after": func(q *Query, v string, today time.Time) {
		if t := parseDate(v, today); t != nil {
			q.DueAfter = t
		}
	},
	"limit": func(q *Query, v string, _ time.Time) {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			q.Limit = n
		}
	},
}

// Parser holds configuration for query parsing.
type Parser struct {
	Now func() time.Time // Time source (mockable for testing)
}

// NewParser creates a Parser with default settings.
func NewParser() *Parser {
	return &Parser{Now: func() time.Time { return time.Now().UTC() }}
}

// Parse parses a filter string into a Query.
//
// Supported operators:
//   - source: - imported source name
//   - path: - file path prefix
//   - tag: and bare #tags - required tags
//   - status: - status type (todo, in_progress, done, cancelled, non_task)
//   - is:open, is:done, is:cancelled
//   - has:due, no:due
//   - due-before:, due-after: - YYYY-MM-DD, today, or an offset such as 7d, -2w, 1m
//   - limit: - maximum number of tasks
//   - Bare words and "quoted phrases" - description text
func (p *Parser) Parse(queryStr string) *Query {
	q := &Query{}
	now := time.Now().UTC()
	if p.Now != nil {
		now = p.Now()
	}
	today := task.Day(now)

	for _, token := range tokenize(queryStr) {
		if isQuotedPhrase(token) {
			q.TextTerms = append(q.TextTerms, unquote(token))
			continue
		}

		if idx := strings.Index(token, ":"); idx > 0 {
			op := strings.ToLower(token[:idx])
			value := unquote(token[idx+1:])

			if handler, ok := operators[op]; ok {
				handler(q, value, today)
			} else {
				q.TextTerms = append(q.TextTerms, token)
			}
			continue
		}

		if len(token) > 1 && token[0] == '#' {
			q.Tags = append(q.Tags, token)
			continue
		}
		q.TextTerms = append(q.TextTerms, token)
	}

	return q
}

// Parse is a convenience function that parses using default settings.
func Parse(queryStr string) *Query {
	return NewParser().Parse(queryStr)
}

// Match reports whether t satisfies every criterion except Source and
// Limit, which only the store can apply.
func (q *Query) Match(t *task.Task) bool {
	if q.PathPrefix != "" && !strings.HasPrefix(t.Path, q.PathPrefix) {
		return false
	}
	for _, tag := range q.Tags {
		if !hasTag(t.Tags, tag) {
			return false
		}
	}
	if len(q.Statuses) > 0 && !containsStatus(q.Statuses, t.Status.Type) {
		return false
	}
	if q.OpenOnly && t.Status.Type != task.StatusTodo && t.Status.Type != task.StatusInProgress {
		return false
	}
	if q.HasDue != nil && (t.Due != nil) != *q.HasDue {
		return false
	}
	if q.DueBefore != nil && (t.Due == nil || !t.Due.Before(*q.DueBefore)) {
		return false
	}
	if q.DueAfter != nil && (t.Due == nil || !t.Due.After(*q.DueAfter)) {
		return false
	}
	if len(q.TextTerms) > 0 {
		desc := strings.ToLower(t.Description)
		for _, term := range q.TextTerms {
			if !strings.Contains(desc, strings.ToLower(term)) {
				return false
			}
		}
	}
	return true
}

// Filter returns the tasks that match q, keeping their order.
func (q *Query) Filter(tasks []*task.Task) []*task.Task {
	out := make([]*task.Task, 0, len(tasks))
	for _, t := range tasks {
		if q.Match(t) {
			out = append(out, t)
		}
	}
	return out
}

func hasTag(tags []string, want string) bool {
	for _, tag := range tags {
		if strings.EqualFold(tag, want) {
			return true
		}
	}
	return false
}

func containsStatus(types []task.StatusType, st task.StatusType) bool {
	for _, x := range types {
		if x == st {
			return true
		}
	}
	return false
}

// parseStatus accepts the status type names with either - or _ and any case.
func parseStatus(v string) task.StatusType {
	return task.ParseStatusType(strings.ToUpper(strings.ReplaceAll(v, "-", "_")))
}

// unquote removes surrounding double quotes from a string if present.
func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

// isQuotedPhrase returns true if the token is a double-quoted phrase.
func isQuotedPhrase(token string) bool {
	return len(token) > 2 && token[0] == '"' && token[len(token)-1] == '"'
}

// tokenize splits a query string, preserving quoted phrases and operator:value pairs.
// Handles cases like path:"My Notes/" where the operator and quoted value should stay together.
func tokenize(queryStr string) []string {
	var tokens []string
	var current strings.Builder
	inQuotes := false
	quoteChar := rune(0)
	// Track if we just saw a colon (for op:"value" handling)
	afterColon := false
	// Track if this quoted section started as op:"value"
	opQuoted := false

	for _, char := range queryStr {
		if (char == '"' || char == '\'') && !inQuotes {
			inQuotes = true
			quoteChar = char
			opQuoted = afterColon
			if !afterColon && current.Len() > 0 {
				tokens = append(tokens, current.String())
				current.Reset()
			}
			if afterColon {
				current.WriteRune('"')
			}
			afterColon = false
		} else if char == quoteChar && inQuotes {
			inQuotes = false
			if opQuoted {
				current.WriteRune('"')
				tokens = append(tokens, current.String())
				current.Reset()
			} else if current.Len() > 0 {
				// Standalone quoted phrase (may contain colons, but not op:"value")
				tokens = append(tokens, "\""+current.String()+"\"")
				current.Reset()
			}
			quoteChar = 0
			opQuoted = false
		} else if (char == ' ' || char == '\t') && !inQuotes {
			if current.Len() > 0 {
				tokens = append(tokens, current.String())
				current.Reset()
			}
			afterColon = false
		} else {
			current.WriteRune(char)
			afterColon = (char == ':')
		}
	}

	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}

	return tokens
}

var offsetRe = regexp.MustCompile(`^([+-]?\d+)([dwmy])$`)

// parseDate parses YYYY-MM-DD or YYYY/MM/DD dates, "today", or an offset
// from today such as 7d, -2w, 3m or 1y.
func parseDate(value string, today time.Time) *time.Time {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "today" {
		return &today
	}
	for _, format := range []string{"2006-01-02", "2006/01/02"} {
		if t, err := time.Parse(format, value); err == nil {
			return &t
		}
	}

	match := offsetRe.FindStringSubmatch(value)
	if match == nil {
		return nil
	}
	amount, _ := strconv.Atoi(match[1])

	var result time.Time
	switch match[2] {
	case "d":
		result = today.AddDate(0, 0, amount)
	case "w":
		result = today.AddDate(0, 0, amount*7)
	case "m":
		result = today.AddDate(0, amount, 0)
	case "y":
		result = today.AddDate(amount, 0, 0)
	}
	return &result
}
