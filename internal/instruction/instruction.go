// Package instruction parses "group by function" query lines.
package instruction

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/wesm/groupfn/internal/expr"
	"github.com/wesm/groupfn/internal/facade"
	"github.com/wesm/groupfn/internal/grouper"
)

// Instruction is one parsed grouping line.
type Instruction struct {
	Line    string // the line as written, trimmed
	Snippet string // everything after the keywords, verbatim
	Reverse bool
}

// Error reports a line that is not a valid grouping instruction.
type Error struct {
	Line       string
	LineNumber int // 1-based position within ParseAll input, 0 for Parse
	Msg        string
}

func (e *Error) Error() string {
	if e.LineNumber > 0 {
		return fmt.Sprintf("line %d: %s: %q", e.LineNumber, e.Msg, e.Line)
	}
	return fmt.Sprintf("%s: %q", e.Msg, e.Line)
}

var (
	groupByRe  = regexp.MustCompile(`(?i)^group\s+by\s+(\S+)`)
	functionRe = regexp.MustCompile(`(?i)^group\s+by\s+function(?:\s+(reverse))?(?:\s+(.*))?$`)
)

// Parse parses a single line of the form
//
//	group by function [reverse] <expression>
//
// Keywords are case-insensitive. The expression is passed on unchanged,
// quotes included; it is not compiled here.
func Parse(line string) (*Instruction, error) {
	trimmed := strings.TrimSpace(line)
	m := groupByRe.FindStringSubmatch(trimmed)
	if m == nil {
		return nil, &Error{Line: trimmed, Msg: "not a group by instruction"}
	}
	if !strings.EqualFold(m[1], "function") {
		return nil, &Error{Line: trimmed, Msg: fmt.Sprintf("unsupported grouping property %q, only function is supported", m[1])}
	}
	fm := functionRe.FindStringSubmatch(trimmed)
	if fm == nil || strings.TrimSpace(fm[2]) == "" {
		return nil, &Error{Line: trimmed, Msg: "missing grouping expression after function"}
	}
	return &Instruction{
		Line:    trimmed,
		Snippet: fm[2],
		Reverse: fm[1] != "",
	}, nil
}

// ParseAll parses one instruction per line. Blank lines and lines
// starting with # are skipped. The first invalid line is reported with
// its line number.
func ParseAll(text string) ([]*Instruction, error) {
	var out []*Instruction
	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		in, err := Parse(line)
		if err != nil {
			if ie, ok := err.(*Error); ok {
				ie.LineNumber = i + 1
			}
			return nil, err
		}
		out = append(out, in)
	}
	return out, nil
}

// Compile compiles the instruction's expression against the task names.
// A *expr.SyntaxError is returned wrapped with the instruction line.
func (in *Instruction) Compile(opts ...expr.Option) (*expr.Program, error) {
	p, err := facade.Compile(in.Snippet, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", in.Line, err)
	}
	return p, nil
}

// Grouper compiles the instruction and returns a grouper that honours
// its reverse keyword.
func (in *Instruction) Grouper(compileOpts []expr.Option, opts ...grouper.Option) (*grouper.Grouper, error) {
	p, err := in.Compile(compileOpts...)
	if err != nil {
		return nil, err
	}
	all := append(append([]grouper.Option(nil), opts...), grouper.WithReverse(in.Reverse))
	return grouper.New("function", p, all...), nil
}

// Groupers builds a grouper per instruction, failing on the first
// expression that does not compile. No task is evaluated.
func Groupers(ins []*Instruction, compileOpts []expr.Option, opts ...grouper.Option) ([]*grouper.Grouper, error) {
	out := make([]*grouper.Grouper, 0, len(ins))
	for _, in := range ins {
		g, err := in.Grouper(compileOpts, opts...)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}
