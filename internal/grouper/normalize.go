package grouper

import (
	"fmt"

	"github.com/wesm/groupfn/internal/expr"
)

// normalize turns one program result into the group keys of a task.
//
//	null, undefined, ""   -> [""]
//	string                -> [s] (verbatim, whitespace included)
//	number, boolean       -> [canonical text]
//	array of strings      -> distinct elements in first-seen order, [""] when empty
//
// Anything else is an error naming the produced type.
func normalize(v any) ([]string, error) {
	switch x := v.(type) {
	case nil:
		return []string{""}, nil
	case string:
		return []string{x}, nil
	case float64, bool:
		return []string{expr.ToString(x)}, nil
	case []any:
		if len(x) == 0 {
			return []string{""}, nil
		}
		keys := make([]string, 0, len(x))
		seen := make(map[string]bool, len(x))
		for i, e := range x {
			s, ok := e.(string)
			if !ok {
				return nil, &expr.RuntimeError{Msg: fmt.Sprintf("group key array element %d is %s, not a string", i, describeType(e))}
			}
			if seen[s] {
				continue
			}
			seen[s] = true
			keys = append(keys, s)
		}
		return keys, nil
	}
	return nil, &expr.RuntimeError{Msg: fmt.Sprintf("grouping expression returned %s; expected a string, number, boolean, null or array of strings", describeType(v))}
}

func describeType(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case []any:
		return "an array"
	case *expr.Regexp:
		return "a regular expression"
	}
	switch t := expr.TypeOf(v); t {
	case "object":
		return "an object"
	default:
		return "a " + t
	}
}
