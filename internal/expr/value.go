package expr

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unsafe"
)

// Values seen by programs are one of:
//
//	nil       null / undefined
//	bool
//	float64
//	string
//	[]any     arrays (never mutated)
//	Object    host objects such as the task facade
//	*Regexp
//	Func, *closure, method   callables

// Object is a read-only host value with named fields. Field returns
// ok=false for names it does not define; programs then see undefined.
type Object interface {
	Field(name string) (any, bool)
}

// Func is a host function. Hosts use it for methods on their objects.
type Func func(args []any) (any, error)

// Fields is a simple map-backed Object.
type Fields map[string]any

// Field implements Object.
func (f Fields) Field(name string) (any, bool) {
	v, ok := f[name]
	return v, ok
}

// Regexp is a compiled regular expression literal.
type Regexp struct {
	re     *regexp.Regexp
	source string
	flags  string
	global bool
}

// compileRegexp translates the JavaScript flags i, m, s and g.
// RE2 syntax applies; patterns RE2 cannot express are rejected.
func compileRegexp(pattern, flags string) (*Regexp, error) {
	var prefix strings.Builder
	global := false
	for _, f := range flags {
		switch f {
		case 'i', 'm', 's':
			prefix.WriteRune(f)
		case 'g':
			global = true
		case 'u':
		default:
			return nil, errorf("unsupported flag %q", f)
		}
	}
	src := pattern
	if prefix.Len() > 0 {
		src = "(?" + prefix.String() + ")" + pattern
	}
	re, err := regexp.Compile(src)
	if err != nil {
		return nil, err
	}
	return &Regexp{re: re, source: pattern, flags: flags, global: global}, nil
}

func isCallable(v any) bool {
	switch v.(type) {
	case Func, *closure, method:
		return true
	}
	return false
}

// truthy follows JavaScript: null, false, 0, NaN and "" are false.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case float64:
		return x != 0 && !math.IsNaN(x)
	case string:
		return x != ""
	default:
		return true
	}
}

// TypeOf names the type of v the way typeof does.
func TypeOf(v any) string {
	switch v.(type) {
	case nil:
		return "undefined"
	case bool:
		return "boolean"
	case float64:
		return "number"
	case string:
		return "string"
	case Func, *closure, method:
		return "function"
	default:
		return "object"
	}
}

// ToString converts v to text as String(v) would.
func ToString(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return NumberToString(x)
	case string:
		return x
	case []any:
		// Arrays past maxStringify bytes render truncated.
		str, _ := stringify(x, maxStringify)
		return str
	case *Regexp:
		return "/" + x.source + "/" + x.flags
	case interface{ String() string }:
		return x.String()
	case Func, *closure, method:
		return "function"
	default:
		return "[object Object]"
	}
}

// NumberToString formats f like JavaScript's Number.prototype.toString.
func NumberToString(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}
	abs := math.Abs(f)
	if abs >= 1e21 || abs < 1e-6 {
		s := strconv.FormatFloat(f, 'e', -1, 64)
		// Go writes e+21 / e-07; JavaScript writes e+21 / e-7
		mant, exp, _ := strings.Cut(s, "e")
		sign := exp[0]
		digits := strings.TrimLeft(exp[1:], "0")
		return mant + "e" + string(sign) + digits
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// ToNumber converts v as Number(v) would. null converts to 0.
func ToNumber(v any) float64 {
	switch x := v.(type) {
	case nil:
		return 0
	case bool:
		if x {
			return 1
		}
		return 0
	case float64:
		return x
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0
		}
		if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
			if n, err := strconv.ParseUint(s[2:], 16, 64); err == nil {
				return float64(n)
			}
			return math.NaN()
		}
		switch s {
		case "Infinity", "+Infinity":
			return math.Inf(1)
		case "-Infinity":
			return math.Inf(-1)
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return math.NaN()
		}
		return n
	case []any:
		switch len(x) {
		case 0:
			return 0
		case 1:
			return ToNumber(ToString(x[0]))
		}
		return math.NaN()
	default:
		return math.NaN()
	}
}

// toInteger truncates toward zero, mapping NaN to 0.
func toInteger(v any) int {
	f := ToNumber(v)
	if math.IsNaN(f) {
		return 0
	}
	if f > math.MaxInt32 {
		return math.MaxInt32
	}
	if f < math.MinInt32 {
		return math.MinInt32
	}
	return int(f)
}

// strictEqual implements ===. Arrays and objects compare by identity.
func strictEqual(a, b any) bool {
	switch x := a.(type) {
	case nil:
		return b == nil
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	case float64:
		y, ok := b.(float64)
		return ok && x == y
	case string:
		y, ok := b.(string)
		return ok && x == y
	case []any:
		y, ok := b.([]any)
		if !ok || len(x) != len(y) {
			return false
		}
		return cap(x) > 0 && cap(x) == cap(y) && unsafe.SliceData(x) == unsafe.SliceData(y)
	case *Regexp:
		y, ok := b.(*Regexp)
		return ok && x == y
	case *closure:
		y, ok := b.(*closure)
		return ok && x == y
	case Func, method:
		return false
	}
	if isCallable(b) {
		return false
	}
	defer func() { _ = recover() }() // uncomparable host objects are never equal
	return a == b
}

// looseEqual implements == for the primitive coercions programs rely on.
func looseEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch a.(type) {
	case float64, string, bool:
		switch b.(type) {
		case float64, string, bool:
			if TypeOf(a) == TypeOf(b) {
				return strictEqual(a, b)
			}
			return ToNumber(a) == ToNumber(b)
		}
	}
	return strictEqual(a, b)
}
