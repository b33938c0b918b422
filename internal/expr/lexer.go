package expr

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokNumber
	tokString
	tokTemplate
	tokRegex
	tokPunct
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of input"
	case tokIdent:
		return "identifier"
	case tokNumber:
		return "number"
	case tokString:
		return "string"
	case tokTemplate:
		return "template"
	case tokRegex:
		return "regular expression"
	default:
		return "punctuation"
	}
}

// templatePart is one `${...}` hole of a template literal. Text is the
// literal text preceding the hole.
type templatePart struct {
	text   string
	src    string
	offset int
}

type token struct {
	kind tokenKind
	text string  // identifier name, punctuator, or raw source
	str  string  // decoded string literal / template tail
	num  float64 // number literal
	pos  int

	parts []templatePart // template holes

	pattern, flags string // regex literal
}

// punctuators, longest first so that greedy matching works.
var punctuators = []string{
	"===", "!==",
	"?.", "??", "=>", "==", "!=", "<=", ">=", "&&", "||",
	"(", ")", "[", "]", "{", "}", ",", ".", "?", ":", ";",
	"+", "-", "*", "/", "%", "!", "<", ">", "=",
}

type lexer struct {
	src    string
	pos    int
	offset int // added to every reported position (template holes)
	toks   []token
}

// tokenize splits src into tokens. Regex literals are recognised wherever
// an operand may start, which is how a slash is told apart from division.
func tokenize(src string, offset int) ([]token, error) {
	l := &lexer{src: src, offset: offset}
	for {
		if err := l.skipSpaceAndComments(); err != nil {
			return nil, err
		}
		if l.pos >= len(l.src) {
			l.toks = append(l.toks, token{kind: tokEOF, pos: l.pos + l.offset})
			return l.toks, nil
		}
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		l.toks = append(l.toks, tok)
	}
}

func (l *lexer) errorAt(pos int, msg string) error {
	return &SyntaxError{Offset: pos + l.offset, Msg: msg}
}

func (l *lexer) skipSpaceAndComments() error {
	for l.pos < len(l.src) {
		r, size := utf8.DecodeRuneInString(l.src[l.pos:])
		switch {
		case unicode.IsSpace(r):
			l.pos += size
		case strings.HasPrefix(l.src[l.pos:], "//"):
			end := strings.IndexByte(l.src[l.pos:], '\n')
			if end < 0 {
				l.pos = len(l.src)
			} else {
				l.pos += end + 1
			}
		case strings.HasPrefix(l.src[l.pos:], "/*"):
			end := strings.Index(l.src[l.pos+2:], "*/")
			if end < 0 {
				return l.errorAt(l.pos, "unterminated comment")
			}
			l.pos += end + 4
		default:
			return nil
		}
	}
	return nil
}

// regexAllowed reports whether a '/' at this point starts a regex literal.
func (l *lexer) regexAllowed() bool {
	if len(l.toks) == 0 {
		return true
	}
	prev := l.toks[len(l.toks)-1]
	switch prev.kind {
	case tokNumber, tokString, tokTemplate, tokRegex:
		return false
	case tokIdent:
		return prev.text == "return" || prev.text == "typeof"
	case tokPunct:
		return prev.text != ")" && prev.text != "]" && prev.text != "}"
	}
	return true
}

func (l *lexer) next() (token, error) {
	start := l.pos
	c := l.src[l.pos]
	r, _ := utf8.DecodeRuneInString(l.src[l.pos:])

	switch {
	case isIdentStart(r):
		for l.pos < len(l.src) {
			r, size := utf8.DecodeRuneInString(l.src[l.pos:])
			if !isIdentPart(r) {
				break
			}
			l.pos += size
		}
		return token{kind: tokIdent, text: l.src[start:l.pos], pos: start + l.offset}, nil
	case c >= '0' && c <= '9', c == '.' && l.pos+1 < len(l.src) && isDigit(l.src[l.pos+1]):
		return l.number()
	case c == '"' || c == '\'':
		return l.quoted(c)
	case c == '`':
		return l.template()
	case c == '/' && l.regexAllowed():
		return l.regex()
	}

	for _, p := range punctuators {
		if strings.HasPrefix(l.src[l.pos:], p) {
			// a?.5:1 is a conditional, not optional chaining
			if p == "?." && l.pos+2 < len(l.src) && isDigit(l.src[l.pos+2]) {
				continue
			}
			l.pos += len(p)
			return token{kind: tokPunct, text: p, pos: start + l.offset}, nil
		}
	}
	return token{}, l.errorAt(start, "unexpected character "+strconv.QuoteRune(r))
}

func (l *lexer) number() (token, error) {
	start := l.pos
	if strings.HasPrefix(l.src[l.pos:], "0x") || strings.HasPrefix(l.src[l.pos:], "0X") {
		l.pos += 2
		for l.pos < len(l.src) && isHexDigit(l.src[l.pos]) {
			l.pos++
		}
		v, err := strconv.ParseUint(l.src[start+2:l.pos], 16, 64)
		if err != nil {
			return token{}, l.errorAt(start, "invalid hex number")
		}
		return token{kind: tokNumber, text: l.src[start:l.pos], num: float64(v), pos: start + l.offset}, nil
	}
	for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
		l.pos++
	}
	if l.pos < len(l.src) && l.src[l.pos] == '.' {
		l.pos++
		for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
			l.pos++
		}
	}
	if l.pos < len(l.src) && (l.src[l.pos] == 'e' || l.src[l.pos] == 'E') {
		l.pos++
		if l.pos < len(l.src) && (l.src[l.pos] == '+' || l.src[l.pos] == '-') {
			l.pos++
		}
		digits := l.pos
		for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
			l.pos++
		}
		if digits == l.pos {
			return token{}, l.errorAt(start, "invalid number exponent")
		}
	}
	if l.pos < len(l.src) {
		if r, _ := utf8.DecodeRuneInString(l.src[l.pos:]); isIdentStart(r) {
			return token{}, l.errorAt(l.pos, "identifier directly after number")
		}
	}
	v, err := strconv.ParseFloat(l.src[start:l.pos], 64)
	if err != nil {
		return token{}, l.errorAt(start, "invalid number")
	}
	return token{kind: tokNumber, text: l.src[start:l.pos], num: v, pos: start + l.offset}, nil
}

func (l *lexer) quoted(quote byte) (token, error) {
	start := l.pos
	l.pos++
	var b strings.Builder
	for {
		if l.pos >= len(l.src) {
			return token{}, l.errorAt(start, "unterminated string")
		}
		c := l.src[l.pos]
		switch {
		case c == quote:
			l.pos++
			return token{kind: tokString, text: l.src[start:l.pos], str: b.String(), pos: start + l.offset}, nil
		case c == '\n':
			return token{}, l.errorAt(start, "unterminated string")
		case c == '\\':
			if err := l.escape(&b); err != nil {
				return token{}, err
			}
		default:
			b.WriteByte(c)
			l.pos++
		}
	}
}

// escape decodes one backslash escape at l.pos into b.
func (l *lexer) escape(b *strings.Builder) error {
	start := l.pos
	l.pos++
	if l.pos >= len(l.src) {
		return l.errorAt(start, "unterminated escape")
	}
	c := l.src[l.pos]
	l.pos++
	switch c {
	case 'n':
		b.WriteByte('\n')
	case 't':
		b.WriteByte('\t')
	case 'r':
		b.WriteByte('\r')
	case 'b':
		b.WriteByte('\b')
	case 'f':
		b.WriteByte('\f')
	case 'v':
		b.WriteByte('\v')
	case '0':
		b.WriteByte(0)
	case 'x':
		if l.pos+2 > len(l.src) {
			return l.errorAt(start, "invalid \\x escape")
		}
		v, err := strconv.ParseUint(l.src[l.pos:l.pos+2], 16, 8)
		if err != nil {
			return l.errorAt(start, "invalid \\x escape")
		}
		b.WriteRune(rune(v))
		l.pos += 2
	case 'u':
		var hex string
		if l.pos < len(l.src) && l.src[l.pos] == '{' {
			end := strings.IndexByte(l.src[l.pos:], '}')
			if end < 0 {
				return l.errorAt(start, "invalid \\u escape")
			}
			hex = l.src[l.pos+1 : l.pos+end]
			l.pos += end + 1
		} else {
			if l.pos+4 > len(l.src) {
				return l.errorAt(start, "invalid \\u escape")
			}
			hex = l.src[l.pos : l.pos+4]
			l.pos += 4
		}
		v, err := strconv.ParseUint(hex, 16, 32)
		if err != nil || v > unicode.MaxRune {
			return l.errorAt(start, "invalid \\u escape")
		}
		b.WriteRune(rune(v))
	case '\n':
		// line continuation
	default:
		b.WriteByte(c)
	}
	return nil
}

// template lexes a backtick literal, keeping the source of each ${} hole
// so the parser can compile it separately.
func (l *lexer) template() (token, error) {
	start := l.pos
	l.pos++
	var parts []templatePart
	var b strings.Builder
	for {
		if l.pos >= len(l.src) {
			return token{}, l.errorAt(start, "unterminated template literal")
		}
		c := l.src[l.pos]
		switch {
		case c == '`':
			l.pos++
			return token{kind: tokTemplate, text: l.src[start:l.pos], str: b.String(), parts: parts, pos: start + l.offset}, nil
		case c == '\\':
			if err := l.escape(&b); err != nil {
				return token{}, err
			}
		case strings.HasPrefix(l.src[l.pos:], "${"):
			holeStart := l.pos + 2
			end, err := l.matchBrace(holeStart)
			if err != nil {
				return token{}, err
			}
			parts = append(parts, templatePart{
				text:   b.String(),
				src:    l.src[holeStart:end],
				offset: holeStart + l.offset,
			})
			b.Reset()
			l.pos = end + 1
		default:
			b.WriteByte(c)
			l.pos++
		}
	}
}

// matchBrace returns the index of the '}' closing a hole that starts at
// from, skipping over nested braces and quoted text.
func (l *lexer) matchBrace(from int) (int, error) {
	depth := 0
	for i := from; i < len(l.src); i++ {
		switch c := l.src[i]; c {
		case '{':
			depth++
		case '}':
			if depth == 0 {
				return i, nil
			}
			depth--
		case '"', '\'', '`':
			j := i + 1
			for j < len(l.src) && l.src[j] != c {
				if l.src[j] == '\\' {
					j++
				}
				j++
			}
			i = j
		}
	}
	return 0, l.errorAt(from-2, "unterminated template hole")
}

func (l *lexer) regex() (token, error) {
	start := l.pos
	l.pos++
	inClass := false
	for {
		if l.pos >= len(l.src) || l.src[l.pos] == '\n' {
			return token{}, l.errorAt(start, "unterminated regular expression")
		}
		c := l.src[l.pos]
		if c == '\\' {
			l.pos += 2
			continue
		}
		if c == '[' {
			inClass = true
		} else if c == ']' {
			inClass = false
		} else if c == '/' && !inClass {
			break
		}
		l.pos++
	}
	pattern := l.src[start+1 : l.pos]
	l.pos++
	flagStart := l.pos
	for l.pos < len(l.src) && isIdentPart(rune(l.src[l.pos])) {
		l.pos++
	}
	return token{
		kind:    tokRegex,
		text:    l.src[start:l.pos],
		pattern: pattern,
		flags:   l.src[flagStart:l.pos],
		pos:     start + l.offset,
	}, nil
}

func isDigit(c byte) bool    { return c >= '0' && c <= '9' }
func isHexDigit(c byte) bool { return isDigit(c) || (c|0x20) >= 'a' && (c|0x20) <= 'f' }

func isIdentStart(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r)
}
