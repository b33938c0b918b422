package query

import (
	"fmt"
	"strings"
)

// unknownNameSubstring is what the compiler reports for a name that is
// not a task field.
const unknownNameSubstring = "unknown identifier"

// IsUnknownNameError reports whether err is a compile error for a name
// that the task object does not have.
func IsUnknownNameError(err error) bool {
	return err != nil && strings.Contains(err.Error(), unknownNameSubstring)
}

// HintFields wraps err with a hint to list the available fields when the
// expression used an unknown name. Other errors are returned unchanged.
func HintFields(err error) error {
	if !IsUnknownNameError(err) {
		return err
	}
	return fmt.Errorf("%w\nHint: run 'groupfn fields' to list the task properties", err)
}
