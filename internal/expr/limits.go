package expr

import (
	"math"
	"strings"
)

// DefaultMaxBytes bounds the string and array data one Run may build.
const DefaultMaxBytes = 1 << 20

// elemSize is what one array element costs against the byte budget.
const elemSize = 16

// maxStringify caps ToString on nested arrays outside an evaluation.
const maxStringify = DefaultMaxBytes

// alloc charges n bytes of new strings or arrays to the run.
func (ev *evaluator) alloc(n int) error {
	ev.bytes += n
	if ev.maxBytes > 0 && ev.bytes > ev.maxBytes {
		return errorf("evaluation exceeded %d bytes of strings and arrays", ev.maxBytes)
	}
	return nil
}

func (ev *evaluator) allocArray(n int) error {
	return ev.alloc(n * elemSize)
}

func (ev *evaluator) remaining() int {
	if ev.maxBytes <= 0 {
		return math.MaxInt
	}
	return ev.maxBytes - ev.bytes
}

// toString converts v like ToString. Strings pass through uncharged;
// anything else is charged, and nested arrays are only expanded as far
// as the remaining budget allows.
func (ev *evaluator) toString(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case []any:
		s, ok := stringify(x, ev.remaining())
		if !ok {
			return "", errorf("evaluation exceeded %d bytes of strings and arrays", ev.maxBytes)
		}
		return s, ev.alloc(len(s))
	}
	s := ToString(v)
	return s, ev.alloc(len(s))
}

// concat joins parts after charging their total length, so an oversized
// result is refused before it is built.
func (ev *evaluator) concat(parts ...string) (string, error) {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	if err := ev.alloc(n); err != nil {
		return "", err
	}
	return strings.Join(parts, ""), nil
}

// newArray allocates an array value. Capacity is at least one so that
// every array, empty or not, has its own identity for ===.
func newArray(n, capacity int) []any {
	return make([]any, n, max(n, capacity, 1))
}

// stringifier renders nested arrays, counting each visited array as well
// as the output so shared sub-arrays cannot make it run unbounded.
type stringifier struct {
	b      strings.Builder
	visits int
	limit  int
}

func (s *stringifier) over(extra int) bool {
	return s.b.Len()+s.visits+extra > s.limit
}

func (s *stringifier) write(v any) bool {
	xs, ok := v.([]any)
	if !ok {
		str := ToString(v)
		if s.over(len(str)) {
			return false
		}
		s.b.WriteString(str)
		return true
	}
	s.visits++
	for i, e := range xs {
		if i > 0 {
			if s.over(1) {
				return false
			}
			s.b.WriteByte(',')
		}
		if e != nil && !s.write(e) {
			return false
		}
	}
	return !s.over(0)
}

// stringify renders v as ToString does, giving up once the output would
// exceed limit bytes. It returns the prefix written and whether v fit.
func stringify(v any, limit int) (string, bool) {
	s := stringifier{limit: limit}
	ok := s.write(v)
	return s.b.String(), ok
}
