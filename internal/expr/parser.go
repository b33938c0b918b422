package expr

import (
	"fmt"
	"slices"
)

const maxNesting = 200

// unsupported keywords produce a targeted message instead of a generic
// "unknown identifier".
var unsupported = map[string]string{
	"function": "function declarations are not supported; use an arrow function",
	"for":      "loops are not supported",
	"while":    "loops are not supported",
	"do":       "loops are not supported",
	"if":       "statements are not supported; use the ?: operator",
	"switch":   "statements are not supported; use the ?: operator",
	"var":      "var is not supported; use const",
	"new":      "object construction is not supported",
	"this":     "this is not available",
	"class":    "classes are not supported",
	"delete":   "delete is not supported",
	"throw":    "throw is not supported",
	"try":      "try is not supported",
	"import":   "import is not supported",
	"export":   "export is not supported",
	"await":    "await is not supported",
	"async":    "async is not supported",
	"yield":    "yield is not supported",
	"void":     "void is not supported",
	"in":       "the in operator is not supported",
	"with":     "with is not supported",
}

type scope struct {
	names []string
}

type parser struct {
	src     string
	toks    []token
	i       int
	depth   int
	scopes  []*scope
	globals map[string]bool
}

func (p *parser) peek() token { return p.toks[p.i] }

func (p *parser) peekAt(n int) token {
	if p.i+n < len(p.toks) {
		return p.toks[p.i+n]
	}
	return p.toks[len(p.toks)-1]
}

func (p *parser) advance() token {
	t := p.toks[p.i]
	if t.kind != tokEOF {
		p.i++
	}
	return t
}

func (p *parser) isPunct(text string) bool {
	t := p.peek()
	return t.kind == tokPunct && t.text == text
}

func (p *parser) isKeyword(word string) bool {
	t := p.peek()
	return t.kind == tokIdent && t.text == word
}

func (p *parser) errorf(at int, format string, args ...any) error {
	return &SyntaxError{Offset: at, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) expect(text string) (token, error) {
	t := p.peek()
	if t.kind != tokPunct || t.text != text {
		return t, p.errorf(t.pos, "expected %q, found %s", text, describe(t))
	}
	return p.advance(), nil
}

func describe(t token) string {
	if t.kind == tokEOF {
		return "end of input"
	}
	return fmt.Sprintf("%s %q", t.kind, t.text)
}

func (p *parser) enter(at int) error {
	p.depth++
	if p.depth > maxNesting {
		return p.errorf(at, "expression nested too deeply")
	}
	return nil
}

func (p *parser) leave() { p.depth-- }

// declare adds name to the innermost scope and returns its slot.
func (p *parser) declare(at int, name string) (int, error) {
	if _, ok := unsupported[name]; ok || isReserved(name) {
		return 0, p.errorf(at, "%q cannot be used as a name", name)
	}
	s := p.scopes[len(p.scopes)-1]
	if slices.Contains(s.names, name) {
		return 0, p.errorf(at, "%q is already declared", name)
	}
	s.names = append(s.names, name)
	return len(s.names) - 1, nil
}

func (p *parser) resolve(t token) (node, error) {
	for depth := 0; depth < len(p.scopes); depth++ {
		s := p.scopes[len(p.scopes)-1-depth]
		if slot := slices.Index(s.names, t.text); slot >= 0 {
			return &localRef{at: t.pos, name: t.text, depth: depth, slot: slot}, nil
		}
	}
	if v, ok := builtinGlobals[t.text]; ok {
		return &builtinRef{at: t.pos, name: t.text, val: v}, nil
	}
	if p.globals[t.text] {
		return &globalRef{at: t.pos, name: t.text}, nil
	}
	if msg, ok := unsupported[t.text]; ok {
		return nil, p.errorf(t.pos, "%s", msg)
	}
	return nil, p.errorf(t.pos, "unknown identifier %q", t.text)
}

func isReserved(name string) bool {
	switch name {
	case "const", "let", "return", "typeof", "true", "false", "null", "undefined":
		return true
	}
	return false
}

// parseProgram parses
//
//	{ const name = expr ; } [return] expr [;]
func (p *parser) parseProgram() ([]binding, node, error) {
	var bindings []binding
	for p.isKeyword("const") || p.isKeyword("let") {
		p.advance()
		nameTok := p.advance()
		if nameTok.kind != tokIdent {
			return nil, nil, p.errorf(nameTok.pos, "expected a name after const, found %s", describe(nameTok))
		}
		if _, err := p.expect("="); err != nil {
			return nil, nil, err
		}
		value, err := p.parseExpr()
		if err != nil {
			return nil, nil, err
		}
		if _, err := p.expect(";"); err != nil {
			return nil, nil, err
		}
		// declared after its initializer, so a binding cannot refer to itself
		slot, err := p.declare(nameTok.pos, nameTok.text)
		if err != nil {
			return nil, nil, err
		}
		bindings = append(bindings, binding{name: nameTok.text, slot: slot, value: value})
	}

	if p.isKeyword("return") {
		p.advance()
	}
	if p.peek().kind == tokEOF {
		return nil, nil, p.errorf(p.peek().pos, "expected an expression")
	}
	result, err := p.parseExpr()
	if err != nil {
		return nil, nil, err
	}
	if p.isPunct(";") {
		p.advance()
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, nil, p.errorf(t.pos, "unexpected %s", describe(t))
	}
	return bindings, result, nil
}

func (p *parser) parseExpr() (node, error) {
	if err := p.enter(p.peek().pos); err != nil {
		return nil, err
	}
	defer p.leave()

	if p.atArrow() {
		return p.parseArrow()
	}
	return p.parseConditional()
}

// atArrow looks ahead for `x =>` or `( [a {, b}] ) =>`.
func (p *parser) atArrow() bool {
	t := p.peek()
	if t.kind == tokIdent {
		next := p.peekAt(1)
		return next.kind == tokPunct && next.text == "=>"
	}
	if t.kind != tokPunct || t.text != "(" {
		return false
	}
	n := 1
	if tk := p.peekAt(n); tk.kind == tokPunct && tk.text == ")" {
		after := p.peekAt(n + 1)
		return after.kind == tokPunct && after.text == "=>"
	}
	for {
		if p.peekAt(n).kind != tokIdent {
			return false
		}
		n++
		sep := p.peekAt(n)
		if sep.kind != tokPunct {
			return false
		}
		switch sep.text {
		case ",":
			n++
		case ")":
			after := p.peekAt(n + 1)
			return after.kind == tokPunct && after.text == "=>"
		default:
			return false
		}
	}
}

func (p *parser) parseArrow() (node, error) {
	start := p.peek().pos
	p.scopes = append(p.scopes, &scope{})
	defer func() { p.scopes = p.scopes[:len(p.scopes)-1] }()

	var params []string
	if p.peek().kind == tokIdent {
		t := p.advance()
		if _, err := p.declare(t.pos, t.text); err != nil {
			return nil, err
		}
		params = append(params, t.text)
	} else {
		p.advance() // (
		for !p.isPunct(")") {
			t := p.advance()
			if _, err := p.declare(t.pos, t.text); err != nil {
				return nil, err
			}
			params = append(params, t.text)
			if p.isPunct(",") {
				p.advance()
			}
		}
		p.advance() // )
	}
	if _, err := p.expect("=>"); err != nil {
		return nil, err
	}
	if p.isPunct("{") {
		return nil, p.errorf(p.peek().pos, "arrow function bodies must be a single expression")
	}
	body, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &arrowExpr{at: start, params: params, body: body}, nil
}

func (p *parser) parseConditional() (node, error) {
	cond, err := p.parseNullish()
	if err != nil {
		return nil, err
	}
	if !p.isPunct("?") {
		return cond, nil
	}
	q := p.advance()
	then, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(":"); err != nil {
		return nil, err
	}
	els, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &condExpr{at: q.pos, cond: cond, then: then, els: els}, nil
}

func (p *parser) parseNullish() (node, error) {
	return p.parseLogical([]string{"??"}, p.parseOr)
}

func (p *parser) parseOr() (node, error) {
	return p.parseLogical([]string{"||"}, p.parseAnd)
}

func (p *parser) parseAnd() (node, error) {
	return p.parseLogical([]string{"&&"}, p.parseEquality)
}

func (p *parser) parseLogical(ops []string, next func() (node, error)) (node, error) {
	l, err := next()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokPunct && slices.Contains(ops, p.peek().text) {
		op := p.advance()
		r, err := next()
		if err != nil {
			return nil, err
		}
		l = &logicalExpr{at: op.pos, op: op.text, l: l, r: r}
	}
	return l, nil
}

func (p *parser) parseEquality() (node, error) {
	return p.parseBinary([]string{"==", "!=", "===", "!=="}, p.parseRelational)
}

func (p *parser) parseRelational() (node, error) {
	return p.parseBinary([]string{"<", "<=", ">", ">="}, p.parseAdditive)
}

func (p *parser) parseAdditive() (node, error) {
	return p.parseBinary([]string{"+", "-"}, p.parseMultiplicative)
}

func (p *parser) parseMultiplicative() (node, error) {
	return p.parseBinary([]string{"*", "/", "%"}, p.parseUnary)
}

func (p *parser) parseBinary(ops []string, next func() (node, error)) (node, error) {
	l, err := next()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokPunct && slices.Contains(ops, p.peek().text) {
		op := p.advance()
		r, err := next()
		if err != nil {
			return nil, err
		}
		l = &binaryExpr{at: op.pos, op: op.text, l: l, r: r}
	}
	return l, nil
}

func (p *parser) parseUnary() (node, error) {
	t := p.peek()
	if (t.kind == tokPunct && (t.text == "!" || t.text == "-" || t.text == "+")) ||
		(t.kind == tokIdent && t.text == "typeof") {
		p.advance()
		if err := p.enter(t.pos); err != nil {
			return nil, err
		}
		defer p.leave()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &unaryExpr{at: t.pos, op: t.text, x: x}, nil
	}
	if t.kind == tokPunct && t.text == "=" {
		return nil, p.errorf(t.pos, "assignment is not supported")
	}
	return p.parsePostfix()
}

func (p *parser) parsePostfix() (node, error) {
	x, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	chained := false
	for {
		t := p.peek()
		if t.kind != tokPunct {
			break
		}
		switch t.text {
		case ".":
			p.advance()
			name := p.advance()
			if name.kind != tokIdent {
				return nil, p.errorf(name.pos, "expected a property name after '.', found %s", describe(name))
			}
			x = &memberExpr{at: name.pos, obj: x, name: name.text}
		case "?.":
			p.advance()
			chained = true
			switch {
			case p.isPunct("("):
				args, err := p.parseArgs()
				if err != nil {
					return nil, err
				}
				x = &callExpr{at: t.pos, callee: x, args: args, optional: true}
			case p.isPunct("["):
				idx, err := p.parseIndex()
				if err != nil {
					return nil, err
				}
				x = &indexExpr{at: t.pos, obj: x, index: idx, optional: true}
			default:
				name := p.advance()
				if name.kind != tokIdent {
					return nil, p.errorf(name.pos, "expected a property name after '?.', found %s", describe(name))
				}
				x = &memberExpr{at: name.pos, obj: x, name: name.text, optional: true}
			}
		case "[":
			idx, err := p.parseIndex()
			if err != nil {
				return nil, err
			}
			x = &indexExpr{at: t.pos, obj: x, index: idx}
		case "(":
			args, err := p.parseArgs()
			if err != nil {
				return nil, err
			}
			x = &callExpr{at: t.pos, callee: x, args: args}
		default:
			if chained {
				x = &chainExpr{at: x.pos(), x: x}
			}
			return x, nil
		}
	}
	if chained {
		x = &chainExpr{at: x.pos(), x: x}
	}
	return x, nil
}

func (p *parser) parseIndex() (node, error) {
	p.advance() // [
	idx, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect("]"); err != nil {
		return nil, err
	}
	return idx, nil
}

func (p *parser) parseArgs() ([]node, error) {
	open := p.advance() // (
	if err := p.enter(open.pos); err != nil {
		return nil, err
	}
	defer p.leave()
	var args []node
	for !p.isPunct(")") {
		if p.peek().kind == tokEOF {
			return nil, p.errorf(open.pos, "unbalanced parentheses: missing ')'")
		}
		arg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if p.isPunct(",") {
			p.advance()
			continue
		}
		if p.peek().kind == tokEOF {
			return nil, p.errorf(open.pos, "unbalanced parentheses: missing ')'")
		}
		if !p.isPunct(")") {
			return nil, p.errorf(p.peek().pos, "expected ',' or ')' in argument list, found %s", describe(p.peek()))
		}
	}
	p.advance() // )
	return args, nil
}

func (p *parser) parsePrimary() (node, error) {
	t := p.advance()
	switch t.kind {
	case tokNumber:
		return &literal{at: t.pos, val: t.num}, nil
	case tokString:
		return &literal{at: t.pos, val: t.str}, nil
	case tokTemplate:
		return p.parseTemplate(t)
	case tokRegex:
		re, err := compileRegexp(t.pattern, t.flags)
		if err != nil {
			return nil, p.errorf(t.pos, "invalid regular expression %s: %v", t.text, err)
		}
		return &regexLit{at: t.pos, re: re}, nil
	case tokIdent:
		switch t.text {
		case "true":
			return &literal{at: t.pos, val: true}, nil
		case "false":
			return &literal{at: t.pos, val: false}, nil
		case "null", "undefined":
			return &literal{at: t.pos, val: nil}, nil
		case "const", "let", "return":
			return nil, p.errorf(t.pos, "unexpected %q", t.text)
		}
		return p.resolve(t)
	case tokPunct:
		switch t.text {
		case "(":
			x, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if !p.isPunct(")") {
				return nil, p.errorf(t.pos, "unbalanced parentheses: missing ')'")
			}
			p.advance()
			return x, nil
		case "[":
			return p.parseArrayLiteral(t)
		case ")":
			return nil, p.errorf(t.pos, "unbalanced parentheses: unexpected ')'")
		case "{":
			return nil, p.errorf(t.pos, "object literals are not supported")
		}
	}
	return nil, p.errorf(t.pos, "unexpected %s", describe(t))
}

func (p *parser) parseArrayLiteral(open token) (node, error) {
	var elems []node
	for !p.isPunct("]") {
		if p.peek().kind == tokEOF {
			return nil, p.errorf(open.pos, "unterminated array literal")
		}
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)
		if p.isPunct(",") {
			p.advance()
			continue
		}
		if !p.isPunct("]") {
			return nil, p.errorf(p.peek().pos, "expected ',' or ']' in array literal, found %s", describe(p.peek()))
		}
	}
	p.advance()
	return &arrayLit{at: open.pos, elems: elems}, nil
}

// parseTemplate compiles every ${} hole with the enclosing scopes visible.
func (p *parser) parseTemplate(t token) (node, error) {
	tl := &templateLit{at: t.pos, tail: t.str}
	for _, part := range t.parts {
		toks, err := tokenize(part.src, part.offset)
		if err != nil {
			return nil, err
		}
		sub := &parser{src: p.src, toks: toks, depth: p.depth, scopes: p.scopes, globals: p.globals}
		hole, err := sub.parseExpr()
		if err != nil {
			return nil, err
		}
		if end := sub.peek(); end.kind != tokEOF {
			return nil, p.errorf(end.pos, "unexpected %s in template hole", describe(end))
		}
		tl.texts = append(tl.texts, part.text)
		tl.holes = append(tl.holes, hole)
	}
	return tl, nil
}
