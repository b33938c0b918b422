package grouper

import (
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Order controls how headings are sorted.
type Order struct {
	// Reverse sorts descending.
	Reverse bool
	// Collation is a BCP 47 language tag such as "en" or "de". Empty
	// means case-sensitive code point order.
	Collation string
}

// SortHeadings returns the distinct keys in heading order. The empty key
// sorts like any other string, so it comes first in ascending order.
func SortHeadings(keys []string, o Order) []string {
	out := make([]string, 0, len(keys))
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}

	cmp := strings.Compare
	if o.Collation != "" {
		// a Collator keeps iteration buffers, so each sort gets its own
		c := collate.New(language.Make(o.Collation))
		cmp = func(a, b string) int {
			if r := c.CompareString(a, b); r != 0 {
				return r
			}
			return strings.Compare(a, b)
		}
	}
	slices.SortStableFunc(out, func(a, b string) int {
		if o.Reverse {
			return cmp(b, a)
		}
		return cmp(a, b)
	})
	return out
}

// DisplayHeading strips the hidden %%...%% sort markers from a heading,
// e.g. "%%1%% Overdue" displays as "Overdue".
func DisplayHeading(key string) string {
	var b strings.Builder
	rest := key
	for {
		start := strings.Index(rest, "%%")
		if start < 0 {
			b.WriteString(rest)
			break
		}
		end := strings.Index(rest[start+2:], "%%")
		if end < 0 {
			b.WriteString(rest)
			break
		}
		b.WriteString(rest[:start])
		rest = rest[start+2+end+2:]
	}
	return strings.TrimSpace(b.String())
}
