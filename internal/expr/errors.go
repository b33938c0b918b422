package expr

import "fmt"

// SyntaxError reports a snippet that cannot be compiled.
type SyntaxError struct {
	Source string // the snippet as given
	Offset int    // byte offset of the offending token
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("SyntaxError: %s at offset %d in %q", e.Msg, e.Offset, e.Source)
}

// RuntimeError reports a failure while evaluating a compiled program.
type RuntimeError struct {
	Source string
	Msg    string
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("RuntimeError: %s in %q", e.Msg, e.Source)
}

// errorf builds an unattributed runtime error; Program.Run fills in Source.
func errorf(format string, args ...any) error {
	return &RuntimeError{Msg: fmt.Sprintf(format, args...)}
}
