package expr

// node is a compiled expression tree node. Identifier resolution happens
// during parsing, so the tree refers to slots and globals directly.
type node interface {
	pos() int
}

type literal struct {
	at  int
	val any
}

type templateLit struct {
	at    int
	texts []string // texts[i] precedes holes[i]
	holes []node
	tail  string
}

type regexLit struct {
	at int
	re *Regexp
}

type arrayLit struct {
	at    int
	elems []node
}

// localRef reads a const binding or arrow parameter. depth counts frames
// outward from the current one.
type localRef struct {
	at    int
	name  string
	depth int
	slot  int
}

// globalRef reads a name from the scope object passed to Program.Run.
type globalRef struct {
	at   int
	name string
}

type builtinRef struct {
	at   int
	name string
	val  any
}

type memberExpr struct {
	at       int
	obj      node
	name     string
	optional bool
}

type indexExpr struct {
	at       int
	obj      node
	index    node
	optional bool
}

type callExpr struct {
	at       int
	callee   node
	args     []node
	optional bool
}

// chainExpr bounds an optional chain: a short-circuit anywhere inside
// yields null for the whole chain.
type chainExpr struct {
	at int
	x  node
}

type unaryExpr struct {
	at int
	op string
	x  node
}

type binaryExpr struct {
	at int
	op string
	l  node
	r  node
}

// logicalExpr covers the short-circuiting operators &&, || and ??.
type logicalExpr struct {
	at int
	op string
	l  node
	r  node
}

type condExpr struct {
	at   int
	cond node
	then node
	els  node
}

type arrowExpr struct {
	at     int
	params []string
	body   node
}

// binding is one `const name = value;` statement.
type binding struct {
	name  string
	slot  int
	value node
}

func (n *literal) pos() int     { return n.at }
func (n *templateLit) pos() int { return n.at }
func (n *regexLit) pos() int    { return n.at }
func (n *arrayLit) pos() int    { return n.at }
func (n *localRef) pos() int    { return n.at }
func (n *globalRef) pos() int   { return n.at }
func (n *builtinRef) pos() int  { return n.at }
func (n *memberExpr) pos() int  { return n.at }
func (n *indexExpr) pos() int   { return n.at }
func (n *callExpr) pos() int    { return n.at }
func (n *chainExpr) pos() int   { return n.at }
func (n *unaryExpr) pos() int   { return n.at }
func (n *binaryExpr) pos() int  { return n.at }
func (n *logicalExpr) pos() int { return n.at }
func (n *condExpr) pos() int    { return n.at }
func (n *arrowExpr) pos() int   { return n.at }
