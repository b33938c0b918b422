// Package expr compiles and evaluates grouping expressions.
//
// The language is a small, side-effect free subset of JavaScript
// expressions: literals (including template and regular expression
// literals), property access with optional chaining, calls to built-in
// methods, arrow functions as callback arguments, the usual arithmetic,
// comparison and logical operators, the conditional operator, and a
// leading list of `const name = value;` bindings with an optional
// `return`. Programs can only see the names declared with WithNames
// (resolved from the Object passed to Run) and a fixed set of built-ins.
// There is no access to the environment, no I/O and no way to loop.
package expr

import (
	"errors"
	"fmt"
)

// DefaultMaxOperations bounds the work one Run may do.
const DefaultMaxOperations = 100_000

// Program is a compiled expression. It holds no per-run state and is
// safe for concurrent use.
type Program struct {
	src      string
	bindings []binding
	result   node
	maxOps   int
	maxBytes int
}

// Option configures Compile.
type Option func(*options)

type options struct {
	names    []string
	maxOps   int
	maxBytes int
}

// WithNames declares the global names a program may reference.
func WithNames(names ...string) Option {
	return func(o *options) { o.names = append(o.names, names...) }
}

// WithMaxOperations sets the evaluation step ceiling. Zero or less keeps
// the default.
func WithMaxOperations(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxOps = n
		}
	}
}

// WithMaxBytes sets how many bytes of strings and arrays one Run may
// build. Zero or less keeps the default.
func WithMaxBytes(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxBytes = n
		}
	}
}

// Compile parses src into a reusable Program. It returns a *SyntaxError
// when src is not a valid expression or references an unknown name.
func Compile(src string, opts ...Option) (*Program, error) {
	o := options{maxOps: DefaultMaxOperations, maxBytes: DefaultMaxBytes}
	for _, opt := range opts {
		opt(&o)
	}

	toks, err := tokenize(src, 0)
	if err != nil {
		return nil, withSource(err, src)
	}
	globals := make(map[string]bool, len(o.names))
	for _, n := range o.names {
		globals[n] = true
	}
	p := &parser{src: src, toks: toks, scopes: []*scope{{}}, globals: globals}
	bindings, result, err := p.parseProgram()
	if err != nil {
		return nil, withSource(err, src)
	}
	return &Program{src: src, bindings: bindings, result: result, maxOps: o.maxOps, maxBytes: o.maxBytes}, nil
}

// MustCompile is like Compile but panics on error. For static tables.
func MustCompile(src string, opts ...Option) *Program {
	p, err := Compile(src, opts...)
	if err != nil {
		panic(err)
	}
	return p
}

func withSource(err error, src string) error {
	var se *SyntaxError
	if errors.As(err, &se) {
		se.Source = src
		return se
	}
	var re *RuntimeError
	if errors.As(err, &re) {
		// regex compilation reports through errorf
		return &SyntaxError{Source: src, Msg: re.Msg}
	}
	return &SyntaxError{Source: src, Msg: err.Error()}
}

// Source returns the text the program was compiled from.
func (p *Program) Source() string {
	return p.src
}

// Run evaluates the program against scope, which supplies the values of
// the declared names. Failures are reported as *RuntimeError.
func (p *Program) Run(scope Object) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			result, err = nil, &RuntimeError{Source: p.src, Msg: fmt.Sprintf("internal error: %v", r)}
		}
	}()
	ev := &evaluator{scope: scope, maxOps: p.maxOps, maxBytes: p.maxBytes}
	env := &frame{vars: make([]any, len(p.bindings))}
	for _, b := range p.bindings {
		v, err := ev.eval(b.value, env)
		if err != nil {
			return nil, p.runtimeError(err)
		}
		env.vars[b.slot] = v
	}
	v, err := ev.eval(p.result, env)
	if err != nil {
		return nil, p.runtimeError(err)
	}
	return v, nil
}

func (p *Program) runtimeError(err error) error {
	var re *RuntimeError
	if errors.As(err, &re) {
		return &RuntimeError{Source: p.src, Msg: re.Msg}
	}
	return &RuntimeError{Source: p.src, Msg: err.Error()}
}
