package expr

import (
	"errors"
	"math"
)

const maxCallDepth = 64

type frame struct {
	vars   []any
	parent *frame
}

func (f *frame) up(depth int) *frame {
	for ; depth > 0; depth-- {
		f = f.parent
	}
	return f
}

// closure is an arrow function value.
type closure struct {
	fn  *arrowExpr
	env *frame
}

// method is a built-in bound to its receiver.
type method struct {
	name string
	fn   func(ev *evaluator, args []any) (any, error)
}

// errShortCircuit unwinds an optional chain to its chainExpr.
var errShortCircuit = errors.New("optional chain short-circuit")

// evaluator holds the state of one Program.Run call.
type evaluator struct {
	scope    Object
	ops      int
	maxOps   int
	calls    int
	bytes    int
	maxBytes int
}

func (ev *evaluator) step() error {
	ev.ops++
	if ev.maxOps > 0 && ev.ops > ev.maxOps {
		return errorf("evaluation exceeded %d operations", ev.maxOps)
	}
	return nil
}

func (ev *evaluator) eval(n node, env *frame) (any, error) {
	if err := ev.step(); err != nil {
		return nil, err
	}
	switch n := n.(type) {
	case *literal:
		return n.val, nil
	case *templateLit:
		parts := make([]string, 0, 2*len(n.holes)+1)
		for i, hole := range n.holes {
			v, err := ev.eval(hole, env)
			if err != nil {
				return nil, err
			}
			str, err := ev.toString(v)
			if err != nil {
				return nil, err
			}
			parts = append(parts, n.texts[i], str)
		}
		parts = append(parts, n.tail)
		return ev.concat(parts...)
	case *regexLit:
		return n.re, nil
	case *arrayLit:
		if err := ev.allocArray(len(n.elems)); err != nil {
			return nil, err
		}
		out := newArray(len(n.elems), 0)
		for i, e := range n.elems {
			v, err := ev.eval(e, env)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case *localRef:
		return env.up(n.depth).vars[n.slot], nil
	case *globalRef:
		if ev.scope == nil {
			return nil, nil
		}
		v, _ := ev.scope.Field(n.name)
		return v, nil
	case *builtinRef:
		return n.val, nil
	case *memberExpr:
		obj, err := ev.eval(n.obj, env)
		if err != nil {
			return nil, err
		}
		if obj == nil && n.optional {
			return nil, errShortCircuit
		}
		return getProperty(obj, n.name)
	case *indexExpr:
		obj, err := ev.eval(n.obj, env)
		if err != nil {
			return nil, err
		}
		if obj == nil && n.optional {
			return nil, errShortCircuit
		}
		idx, err := ev.eval(n.index, env)
		if err != nil {
			return nil, err
		}
		return getIndex(obj, idx)
	case *callExpr:
		return ev.evalCall(n, env)
	case *chainExpr:
		v, err := ev.eval(n.x, env)
		if errors.Is(err, errShortCircuit) {
			return nil, nil
		}
		return v, err
	case *unaryExpr:
		return ev.evalUnary(n, env)
	case *binaryExpr:
		l, err := ev.eval(n.l, env)
		if err != nil {
			return nil, err
		}
		r, err := ev.eval(n.r, env)
		if err != nil {
			return nil, err
		}
		if n.op == "+" && (isStringy(l) || isStringy(r)) {
			return ev.concatValues(l, r)
		}
		return binaryOp(n.op, l, r), nil
	case *logicalExpr:
		l, err := ev.eval(n.l, env)
		if err != nil {
			return nil, err
		}
		switch n.op {
		case "&&":
			if !truthy(l) {
				return l, nil
			}
		case "||":
			if truthy(l) {
				return l, nil
			}
		case "??":
			if l != nil {
				return l, nil
			}
		}
		return ev.eval(n.r, env)
	case *condExpr:
		c, err := ev.eval(n.cond, env)
		if err != nil {
			return nil, err
		}
		if truthy(c) {
			return ev.eval(n.then, env)
		}
		return ev.eval(n.els, env)
	case *arrowExpr:
		return &closure{fn: n, env: env}, nil
	}
	return nil, errorf("cannot evaluate %T", n)
}

func (ev *evaluator) evalCall(n *callExpr, env *frame) (any, error) {
	callee, err := ev.eval(n.callee, env)
	if err != nil {
		return nil, err
	}
	if callee == nil && n.optional {
		return nil, errShortCircuit
	}
	args := make([]any, len(n.args))
	for i, a := range n.args {
		v, err := ev.eval(a, env)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	if !isCallable(callee) {
		return nil, errorf("%s is not a function", describeCallee(n.callee))
	}
	return ev.call(callee, args)
}

func describeCallee(n node) string {
	switch n := n.(type) {
	case *memberExpr:
		return n.name
	case *globalRef:
		return n.name
	case *localRef:
		return n.name
	case *builtinRef:
		return n.name
	}
	return "expression"
}

// call invokes any callable value with the given arguments.
func (ev *evaluator) call(fn any, args []any) (any, error) {
	ev.calls++
	defer func() { ev.calls-- }()
	if ev.calls > maxCallDepth {
		return nil, errorf("maximum call depth of %d exceeded", maxCallDepth)
	}
	if err := ev.step(); err != nil {
		return nil, err
	}
	switch f := fn.(type) {
	case Func:
		v, err := f(args)
		if err != nil {
			return nil, err
		}
		// host results are built outside the budget; charge them after
		if str, ok := v.(string); ok {
			if err := ev.alloc(len(str)); err != nil {
				return nil, err
			}
		}
		return v, nil
	case method:
		return f.fn(ev, args)
	case *closure:
		vars := make([]any, len(f.fn.params))
		copy(vars, args)
		return ev.eval(f.fn.body, &frame{vars: vars, parent: f.env})
	}
	return nil, errorf("value is not a function")
}

func (ev *evaluator) evalUnary(n *unaryExpr, env *frame) (any, error) {
	x, err := ev.eval(n.x, env)
	if err != nil {
		return nil, err
	}
	switch n.op {
	case "!":
		return !truthy(x), nil
	case "-":
		return -ToNumber(x), nil
	case "+":
		return ToNumber(x), nil
	case "typeof":
		return TypeOf(x), nil
	}
	return nil, errorf("unknown operator %s", n.op)
}

// concatValues is string +, charged against the byte budget.
func (ev *evaluator) concatValues(l, r any) (any, error) {
	ls, err := ev.toString(l)
	if err != nil {
		return nil, err
	}
	rs, err := ev.toString(r)
	if err != nil {
		return nil, err
	}
	return ev.concat(ls, rs)
}

func binaryOp(op string, l, r any) any {
	switch op {
	case "+":
		if isStringy(l) || isStringy(r) {
			return ToString(l) + ToString(r)
		}
		return ToNumber(l) + ToNumber(r)
	case "-":
		return ToNumber(l) - ToNumber(r)
	case "*":
		return ToNumber(l) * ToNumber(r)
	case "/":
		return ToNumber(l) / ToNumber(r)
	case "%":
		return math.Mod(ToNumber(l), ToNumber(r))
	case "==":
		return looseEqual(l, r)
	case "!=":
		return !looseEqual(l, r)
	case "===":
		return strictEqual(l, r)
	case "!==":
		return !strictEqual(l, r)
	case "<", "<=", ">", ">=":
		return compare(op, l, r)
	}
	return nil
}

// isStringy reports whether + should concatenate rather than add.
func isStringy(v any) bool {
	switch v.(type) {
	case nil, bool, float64:
		return false
	}
	return true
}

func compare(op string, l, r any) bool {
	ls, lok := l.(string)
	rs, rok := r.(string)
	if lok && rok {
		switch op {
		case "<":
			return ls < rs
		case "<=":
			return ls <= rs
		case ">":
			return ls > rs
		default:
			return ls >= rs
		}
	}
	a, b := ToNumber(l), ToNumber(r)
	switch op {
	case "<":
		return a < b
	case "<=":
		return a <= b
	case ">":
		return a > b
	default:
		return a >= b
	}
}
