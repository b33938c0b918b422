package expr

import (
	"math"
	"slices"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

// builtinGlobals are the only names besides host names a program can see.
var builtinGlobals = map[string]any{
	"Math": Fields{
		"floor": Func(mathFunc(math.Floor)),
		"ceil":  Func(mathFunc(math.Ceil)),
		"round": Func(mathFunc(func(f float64) float64 { return math.Floor(f + 0.5) })),
		"abs":   Func(mathFunc(math.Abs)),
		"trunc": Func(mathFunc(math.Trunc)),
		"sign": Func(mathFunc(func(f float64) float64 {
			switch {
			case f > 0:
				return 1
			case f < 0:
				return -1
			}
			return f
		})),
		"min": Func(func(args []any) (any, error) {
			m := math.Inf(1)
			for _, a := range args {
				m = math.Min(m, ToNumber(a))
			}
			return m, nil
		}),
		"max": Func(func(args []any) (any, error) {
			m := math.Inf(-1)
			for _, a := range args {
				m = math.Max(m, ToNumber(a))
			}
			return m, nil
		}),
		"PI": math.Pi,
	},
	"String": method{name: "String", fn: func(ev *evaluator, args []any) (any, error) {
		if len(args) == 0 {
			return "", nil
		}
		return ev.toString(args[0])
	}},
	"Number": Func(func(args []any) (any, error) {
		if len(args) == 0 {
			return 0.0, nil
		}
		return ToNumber(args[0]), nil
	}),
	"Boolean": Func(func(args []any) (any, error) {
		return truthy(arg(args, 0)), nil
	}),
	"Array": Fields{
		"isArray": Func(func(args []any) (any, error) {
			_, ok := arg(args, 0).([]any)
			return ok, nil
		}),
	},
	"NaN":      math.NaN(),
	"Infinity": math.Inf(1),
}

func mathFunc(fn func(float64) float64) func([]any) (any, error) {
	return func(args []any) (any, error) {
		return fn(ToNumber(arg(args, 0))), nil
	}
}

func arg(args []any, i int) any {
	if i < len(args) {
		return args[i]
	}
	return nil
}

func argString(args []any, i int, def string) string {
	if i < len(args) && args[i] != nil {
		return ToString(args[i])
	}
	return def
}

func getProperty(obj any, name string) (any, error) {
	switch x := obj.(type) {
	case nil:
		return nil, errorf("cannot read property %q of null", name)
	case string:
		if name == "length" {
			return float64(utf8.RuneCountInString(x)), nil
		}
		if fn, ok := stringMethods[name]; ok {
			return method{name: name, fn: func(ev *evaluator, args []any) (any, error) { return fn(ev, x, args) }}, nil
		}
		return nil, nil
	case []any:
		if name == "length" {
			return float64(len(x)), nil
		}
		if fn, ok := arrayMethods[name]; ok {
			return method{name: name, fn: func(ev *evaluator, args []any) (any, error) { return fn(ev, x, args) }}, nil
		}
		return nil, nil
	case float64:
		switch name {
		case "toFixed":
			return method{name: name, fn: func(_ *evaluator, args []any) (any, error) { return toFixed(x, args) }}, nil
		case "toString":
			return method{name: name, fn: func(_ *evaluator, _ []any) (any, error) { return NumberToString(x), nil }}, nil
		}
		return nil, nil
	case bool:
		if name == "toString" {
			return method{name: name, fn: func(_ *evaluator, _ []any) (any, error) { return strconv.FormatBool(x), nil }}, nil
		}
		return nil, nil
	case *Regexp:
		switch name {
		case "test":
			return method{name: name, fn: func(_ *evaluator, args []any) (any, error) {
				return x.re.MatchString(argString(args, 0, "undefined")), nil
			}}, nil
		case "source":
			return x.source, nil
		case "flags":
			return x.flags, nil
		case "global":
			return x.global, nil
		}
		return nil, nil
	case Object:
		v, _ := x.Field(name)
		return v, nil
	}
	return nil, nil
}

func getIndex(obj any, idx any) (any, error) {
	switch x := obj.(type) {
	case nil:
		return nil, errorf("cannot read index %s of null", ToString(idx))
	case []any:
		if n, ok := idx.(float64); ok {
			i := int(n)
			if float64(i) == n && i >= 0 && i < len(x) {
				return x[i], nil
			}
			return nil, nil
		}
	case string:
		if n, ok := idx.(float64); ok {
			runes := []rune(x)
			i := int(n)
			if float64(i) == n && i >= 0 && i < len(runes) {
				return string(runes[i]), nil
			}
			return nil, nil
		}
	}
	return getProperty(obj, ToString(idx))
}

func toFixed(x float64, args []any) (any, error) {
	digits := toInteger(arg(args, 0))
	if digits < 0 || digits > 100 {
		return nil, errorf("toFixed() digits argument must be between 0 and 100")
	}
	if math.IsNaN(x) || math.IsInf(x, 0) || math.Abs(x) >= 1e21 {
		return NumberToString(x), nil
	}
	// round half away from zero, as JavaScript does for exact decimal input
	pow := math.Pow(10, float64(digits))
	rounded := math.Round(x*pow) / pow
	return strconv.FormatFloat(rounded, 'f', digits, 64), nil
}

type stringMethod func(ev *evaluator, s string, args []any) (any, error)

var stringMethods map[string]stringMethod

type arrayMethod func(ev *evaluator, a []any, args []any) (any, error)

var arrayMethods map[string]arrayMethod

func init() {
	stringMethods = map[string]stringMethod{
		"toUpperCase": func(_ *evaluator, s string, _ []any) (any, error) { return strings.ToUpper(s), nil },
		"toLowerCase": func(_ *evaluator, s string, _ []any) (any, error) { return strings.ToLower(s), nil },
		"trim":        func(_ *evaluator, s string, _ []any) (any, error) { return strings.TrimSpace(s), nil },
		"trimStart":   func(_ *evaluator, s string, _ []any) (any, error) { return strings.TrimLeft(s, " \t\n\r\v\f"), nil },
		"trimEnd":     func(_ *evaluator, s string, _ []any) (any, error) { return strings.TrimRight(s, " \t\n\r\v\f"), nil },
		"toString":    func(_ *evaluator, s string, _ []any) (any, error) { return s, nil },
		"includes": func(_ *evaluator, s string, args []any) (any, error) {
			return strings.Contains(s, argString(args, 0, "undefined")), nil
		},
		"startsWith": func(_ *evaluator, s string, args []any) (any, error) {
			return strings.HasPrefix(s, argString(args, 0, "undefined")), nil
		},
		"endsWith": func(_ *evaluator, s string, args []any) (any, error) {
			return strings.HasSuffix(s, argString(args, 0, "undefined")), nil
		},
		"indexOf": func(_ *evaluator, s string, args []any) (any, error) {
			return runeIndex(s, strings.Index(s, argString(args, 0, "undefined"))), nil
		},
		"lastIndexOf": func(_ *evaluator, s string, args []any) (any, error) {
			return runeIndex(s, strings.LastIndex(s, argString(args, 0, "undefined"))), nil
		},
		"charAt": func(_ *evaluator, s string, args []any) (any, error) {
			runes := []rune(s)
			i := toInteger(arg(args, 0))
			if i < 0 || i >= len(runes) {
				return "", nil
			}
			return string(runes[i]), nil
		},
		"at": func(_ *evaluator, s string, args []any) (any, error) {
			runes := []rune(s)
			i := toInteger(arg(args, 0))
			if i < 0 {
				i += len(runes)
			}
			if i < 0 || i >= len(runes) {
				return nil, nil
			}
			return string(runes[i]), nil
		},
		"slice": func(_ *evaluator, s string, args []any) (any, error) {
			runes := []rune(s)
			start, end := sliceBounds(len(runes), args)
			return string(runes[start:end]), nil
		},
		"substring": func(_ *evaluator, s string, args []any) (any, error) {
			runes := []rune(s)
			n := len(runes)
			start := clamp(toInteger(arg(args, 0)), 0, n)
			end := n
			if len(args) > 1 && args[1] != nil {
				end = clamp(toInteger(args[1]), 0, n)
			}
			if start > end {
				start, end = end, start
			}
			return string(runes[start:end]), nil
		},
		"padStart": func(ev *evaluator, s string, args []any) (any, error) {
			return pad(ev, s, args, true)
		},
		"padEnd": func(ev *evaluator, s string, args []any) (any, error) {
			return pad(ev, s, args, false)
		},
		"repeat": func(ev *evaluator, s string, args []any) (any, error) {
			n := toInteger(arg(args, 0))
			if n < 0 || n*len(s) > 1<<16 {
				return nil, errorf("repeat() count out of range")
			}
			if err := ev.alloc(n * len(s)); err != nil {
				return nil, err
			}
			return strings.Repeat(s, n), nil
		},
		"concat": func(ev *evaluator, s string, args []any) (any, error) {
			parts := []string{s}
			for _, a := range args {
				str, err := ev.toString(a)
				if err != nil {
					return nil, err
				}
				parts = append(parts, str)
			}
			return ev.concat(parts...)
		},
		"split": func(ev *evaluator, s string, args []any) (any, error) {
			var parts []string
			switch sep := arg(args, 0).(type) {
			case nil:
				return []any{s}, nil
			case *Regexp:
				parts = sep.re.Split(s, -1)
			default:
				parts = strings.Split(s, ToString(sep))
			}
			if err := ev.allocArray(len(parts)); err != nil {
				return nil, err
			}
			out := newArray(len(parts), 0)
			for i, p := range parts {
				out[i] = p
			}
			return out, nil
		},
		"replace": func(ev *evaluator, s string, args []any) (any, error) {
			return replace(ev, s, args, false)
		},
		"replaceAll": func(ev *evaluator, s string, args []any) (any, error) {
			return replace(ev, s, args, true)
		},
		"match": func(ev *evaluator, s string, args []any) (any, error) {
			re, ok := arg(args, 0).(*Regexp)
			if !ok {
				var err error
				if re, err = compileRegexp(regexpQuote(argString(args, 0, "")), ""); err != nil {
					return nil, err
				}
			}
			if re.global {
				matches := re.re.FindAllString(s, -1)
				if matches == nil {
					return nil, nil
				}
				return stringsToValues(ev, matches)
			}
			m := re.re.FindStringSubmatch(s)
			if m == nil {
				return nil, nil
			}
			return stringsToValues(ev, m)
		},
		"localeCompare": func(_ *evaluator, s string, args []any) (any, error) {
			return float64(strings.Compare(s, argString(args, 0, "undefined"))), nil
		},
	}

	arrayMethods = map[string]arrayMethod{
		"join": func(ev *evaluator, a []any, args []any) (any, error) {
			sep := argString(args, 0, ",")
			parts := make([]string, 0, 2*len(a))
			for i, e := range a {
				if i > 0 {
					parts = append(parts, sep)
				}
				if e == nil {
					continue
				}
				str, err := ev.toString(e)
				if err != nil {
					return nil, err
				}
				parts = append(parts, str)
			}
			return ev.concat(parts...)
		},
		"toString": func(ev *evaluator, a []any, _ []any) (any, error) { return ev.toString(a) },
		"includes": func(_ *evaluator, a []any, args []any) (any, error) {
			needle := arg(args, 0)
			return slices.ContainsFunc(a, func(e any) bool { return strictEqual(e, needle) }), nil
		},
		"indexOf": func(_ *evaluator, a []any, args []any) (any, error) {
			needle := arg(args, 0)
			return float64(slices.IndexFunc(a, func(e any) bool { return strictEqual(e, needle) })), nil
		},
		"at": func(_ *evaluator, a []any, args []any) (any, error) {
			i := toInteger(arg(args, 0))
			if i < 0 {
				i += len(a)
			}
			if i < 0 || i >= len(a) {
				return nil, nil
			}
			return a[i], nil
		},
		"slice": func(ev *evaluator, a []any, args []any) (any, error) {
			start, end := sliceBounds(len(a), args)
			if err := ev.allocArray(end - start); err != nil {
				return nil, err
			}
			return append(newArray(0, end-start), a[start:end]...), nil
		},
		"concat": func(ev *evaluator, a []any, args []any) (any, error) {
			n := len(a)
			for _, x := range args {
				if xs, ok := x.([]any); ok {
					n += len(xs)
				} else {
					n++
				}
			}
			if err := ev.allocArray(n); err != nil {
				return nil, err
			}
			out := append(newArray(0, n), a...)
			for _, x := range args {
				if xs, ok := x.([]any); ok {
					out = append(out, xs...)
				} else {
					out = append(out, x)
				}
			}
			return out, nil
		},
		"reverse": func(ev *evaluator, a []any, _ []any) (any, error) {
			if err := ev.allocArray(len(a)); err != nil {
				return nil, err
			}
			out := append(newArray(0, len(a)), a...)
			slices.Reverse(out)
			return out, nil
		},
		"flat": func(ev *evaluator, a []any, _ []any) (any, error) {
			n := 0
			for _, x := range a {
				if xs, ok := x.([]any); ok {
					n += len(xs)
				} else {
					n++
				}
			}
			if err := ev.allocArray(n); err != nil {
				return nil, err
			}
			out := newArray(0, n)
			for _, x := range a {
				if xs, ok := x.([]any); ok {
					out = append(out, xs...)
				} else {
					out = append(out, x)
				}
			}
			return out, nil
		},
		"map": func(ev *evaluator, a []any, args []any) (any, error) {
			fn, err := callback("map", args)
			if err != nil {
				return nil, err
			}
			if err := ev.allocArray(len(a)); err != nil {
				return nil, err
			}
			out := newArray(len(a), 0)
			for i, e := range a {
				v, err := ev.call(fn, []any{e, float64(i), a})
				if err != nil {
					return nil, err
				}
				out[i] = v
			}
			return out, nil
		},
		"filter": func(ev *evaluator, a []any, args []any) (any, error) {
			fn, err := callback("filter", args)
			if err != nil {
				return nil, err
			}
			out := newArray(0, 0)
			for i, e := range a {
				v, err := ev.call(fn, []any{e, float64(i), a})
				if err != nil {
					return nil, err
				}
				if truthy(v) {
					out = append(out, e)
				}
			}
			return out, nil
		},
		"find": func(ev *evaluator, a []any, args []any) (any, error) {
			i, err := findIndex(ev, "find", a, args)
			if err != nil || i < 0 {
				return nil, err
			}
			return a[i], nil
		},
		"findIndex": func(ev *evaluator, a []any, args []any) (any, error) {
			i, err := findIndex(ev, "findIndex", a, args)
			return float64(i), err
		},
		"some": func(ev *evaluator, a []any, args []any) (any, error) {
			i, err := findIndex(ev, "some", a, args)
			return i >= 0, err
		},
		"every": func(ev *evaluator, a []any, args []any) (any, error) {
			fn, err := callback("every", args)
			if err != nil {
				return nil, err
			}
			for i, e := range a {
				v, err := ev.call(fn, []any{e, float64(i), a})
				if err != nil {
					return nil, err
				}
				if !truthy(v) {
					return false, nil
				}
			}
			return true, nil
		},
		"sort": sortArray,
	}
}

func callback(name string, args []any) (any, error) {
	fn := arg(args, 0)
	if !isCallable(fn) {
		return nil, errorf("%s() requires a function argument", name)
	}
	return fn, nil
}

func findIndex(ev *evaluator, name string, a []any, args []any) (int, error) {
	fn, err := callback(name, args)
	if err != nil {
		return -1, err
	}
	for i, e := range a {
		v, err := ev.call(fn, []any{e, float64(i), a})
		if err != nil {
			return -1, err
		}
		if truthy(v) {
			return i, nil
		}
	}
	return -1, nil
}

// sortArray returns a sorted copy. Without a comparator elements compare
// by their string form, nulls last, as Array.prototype.sort does.
func sortArray(ev *evaluator, a []any, args []any) (any, error) {
	if err := ev.allocArray(len(a)); err != nil {
		return nil, err
	}
	out := append(newArray(0, len(a)), a...)
	cmp := arg(args, 0)
	if cmp != nil && !isCallable(cmp) {
		return nil, errorf("sort() comparator must be a function")
	}
	var firstErr error
	sort.SliceStable(out, func(i, j int) bool {
		x, y := out[i], out[j]
		if x == nil || y == nil {
			return x != nil && y == nil
		}
		if cmp == nil {
			return ToString(x) < ToString(y)
		}
		if firstErr != nil {
			return false
		}
		v, err := ev.call(cmp, []any{x, y})
		if err != nil {
			firstErr = err
			return false
		}
		return ToNumber(v) < 0
	})
	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

func replace(ev *evaluator, s string, args []any, all bool) (any, error) {
	repl := arg(args, 1)
	replText := func(match string) (string, error) {
		if isCallable(repl) {
			v, err := ev.call(repl, []any{match})
			if err != nil {
				return "", err
			}
			return ToString(v), nil
		}
		return ToString(repl), nil
	}

	if re, ok := arg(args, 0).(*Regexp); ok {
		if all && !re.global {
			return nil, errorf("replaceAll() must be called with a global regular expression")
		}
		if err := ev.alloc(len(s)); err != nil {
			return nil, err
		}
		var firstErr error
		n := 0
		out := re.re.ReplaceAllStringFunc(s, func(m string) string {
			n++
			if (!re.global && n > 1) || firstErr != nil {
				return m
			}
			r, err := replText(m)
			if err == nil {
				err = ev.alloc(len(r))
			}
			if err != nil {
				firstErr = err
				return m
			}
			return r
		})
		if firstErr != nil {
			return nil, firstErr
		}
		return out, nil
	}

	pattern := argString(args, 0, "undefined")
	if all {
		if pattern == "" {
			return s, nil
		}
		var b strings.Builder
		rest := s
		for {
			i := strings.Index(rest, pattern)
			if i < 0 {
				break
			}
			r, err := replText(pattern)
			if err != nil {
				return nil, err
			}
			if err := ev.alloc(i + len(r)); err != nil {
				return nil, err
			}
			b.WriteString(rest[:i])
			b.WriteString(r)
			rest = rest[i+len(pattern):]
		}
		b.WriteString(rest)
		return b.String(), nil
	}
	i := strings.Index(s, pattern)
	if i < 0 {
		return s, nil
	}
	r, err := replText(pattern)
	if err != nil {
		return nil, err
	}
	return ev.concat(s[:i], r, s[i+len(pattern):])
}

func pad(ev *evaluator, s string, args []any, start bool) (any, error) {
	target := toInteger(arg(args, 0))
	filler := argString(args, 1, " ")
	n := utf8.RuneCountInString(s)
	if target <= n || filler == "" {
		return s, nil
	}
	if target > 1<<12 {
		return nil, errorf("pad length out of range")
	}
	if len(filler)*(target-n) > 1<<16 {
		return nil, errorf("pad filler out of range")
	}
	fill := string([]rune(strings.Repeat(filler, target-n))[:target-n])
	if start {
		return ev.concat(fill, s)
	}
	return ev.concat(s, fill)
}

// sliceBounds resolves slice(start, end) arguments against length n.
func sliceBounds(n int, args []any) (int, int) {
	resolve := func(v any, def int) int {
		if v == nil {
			return def
		}
		i := toInteger(v)
		if i < 0 {
			i += n
		}
		return clamp(i, 0, n)
	}
	start := resolve(arg(args, 0), 0)
	end := resolve(arg(args, 1), n)
	if end < start {
		end = start
	}
	return start, end
}

func clamp(i, lo, hi int) int {
	return max(lo, min(i, hi))
}

// runeIndex converts a byte index to a character index, preserving -1.
func runeIndex(s string, byteIdx int) float64 {
	if byteIdx < 0 {
		return -1
	}
	return float64(utf8.RuneCountInString(s[:byteIdx]))
}

func regexpQuote(s string) string {
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune(`\.+*?()|[]{}^$`, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func stringsToValues(ev *evaluator, ss []string) (any, error) {
	if err := ev.allocArray(len(ss)); err != nil {
		return nil, err
	}
	out := newArray(len(ss), 0)
	for i, s := range ss {
		out[i] = s
	}
	return out, nil
}
