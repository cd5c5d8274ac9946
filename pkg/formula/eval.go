package formula

import (
	"math"
	"strings"
)

// Scope resolves bare identifiers during evaluation.
type Scope interface {
	Lookup(name string) (any, bool)
}

// Env is a Scope backed by a fixed map of bindings.
type Env map[string]any

// Lookup returns the binding for name.
func (e Env) Lookup(name string) (any, bool) {
	v, ok := e[name]
	return v, ok
}

// Program is a parsed formula ready for repeated evaluation.
type Program struct {
	Source string
	Root   Node
}

// Compile parses a formula into a Program.
func Compile(source string) (*Program, error) {
	root, err := Parse(source)
	if err != nil {
		return nil, err
	}
	return &Program{Source: source, Root: root}, nil
}

// Eval evaluates the program against scope.
func (p *Program) Eval(scope Scope) (any, error) {
	return Eval(p.Root, scope)
}

// References lists the static byId/byLabel lookups in the program.
func (p *Program) References() []Reference {
	return References(p.Root)
}

// Evaluate parses and evaluates a formula in one step.
func Evaluate(source string, scope Scope) (any, error) {
	p, err := Compile(source)
	if err != nil {
		return nil, err
	}
	return p.Eval(scope)
}

// Eval evaluates an expression tree. Evaluation has read-only access to scope.
func Eval(node Node, scope Scope) (any, error) {
	ev := &evaluator{scope: scope}
	return ev.eval(node)
}

type evaluator struct {
	scope Scope
}

func (ev *evaluator) eval(node Node) (any, error) {
	switch n := node.(type) {
	case *Literal:
		return n.Value, nil

	case *Ident:
		if ev.scope != nil {
			if v, ok := ev.scope.Lookup(n.Name); ok {
				return v, nil
			}
		}
		return nil, newError(KindReference, n.At, "%s is not defined", n.Name)

	case *Member:
		return ev.evalMember(n)

	case *Call:
		return ev.evalCall(n)

	case *Unary:
		operand, err := ev.eval(n.Operand)
		if err != nil {
			return nil, err
		}
		switch n.Op {
		case TokenNot:
			return !Truthy(operand), nil
		case TokenMinus:
			return -ToNumber(operand), nil
		default:
			return ToNumber(operand), nil
		}

	case *Binary:
		return ev.evalBinary(n)

	case *Conditional:
		cond, err := ev.eval(n.Cond)
		if err != nil {
			return nil, err
		}
		if Truthy(cond) {
			return ev.eval(n.Then)
		}
		return ev.eval(n.Else)
	}
	return nil, newError(KindSyntax, -1, "unknown expression node %T", node)
}

func (ev *evaluator) evalMember(n *Member) (any, error) {
	obj, err := ev.eval(n.Object)
	if err != nil {
		return nil, err
	}
	key := n.Name
	if n.Computed {
		idx, err := ev.eval(n.Index)
		if err != nil {
			return nil, err
		}
		if s, ok := obj.(string); ok {
			if f, ok := idx.(float64); ok {
				return charAt(s, f), nil
			}
		}
		key = ToString(idx)
	}
	if isNullish(obj) {
		return nil, newError(KindType, n.At, "cannot read properties of %s (reading '%s')", typeOf(obj), key)
	}
	return property(obj, key), nil
}

func (ev *evaluator) evalCall(n *Call) (any, error) {
	callee, err := ev.eval(n.Callee)
	if err != nil {
		return nil, err
	}
	fn, ok := callee.(Func)
	if !ok {
		return nil, newError(KindType, n.At, "%s is not a function", calleeName(n.Callee))
	}
	args := make([]any, len(n.Args))
	for i, arg := range n.Args {
		if args[i], err = ev.eval(arg); err != nil {
			return nil, err
		}
	}
	out, err := fn(args)
	if err != nil {
		if _, ok := err.(*Error); !ok {
			return nil, newError(KindType, n.At, "%s: %v", calleeName(n.Callee), err)
		}
		return nil, err
	}
	return out, nil
}

func (ev *evaluator) evalBinary(n *Binary) (any, error) {
	left, err := ev.eval(n.Left)
	if err != nil {
		return nil, err
	}

	// Short-circuit operators return an operand, not a boolean
	switch n.Op {
	case TokenAnd:
		if !Truthy(left) {
			return left, nil
		}
		return ev.eval(n.Right)
	case TokenOr:
		if Truthy(left) {
			return left, nil
		}
		return ev.eval(n.Right)
	case TokenNullish:
		if !isNullish(left) {
			return left, nil
		}
		return ev.eval(n.Right)
	}

	right, err := ev.eval(n.Right)
	if err != nil {
		return nil, err
	}

	switch n.Op {
	// === Arithmetic ===
	case TokenPlus:
		return add(left, right), nil
	case TokenMinus:
		return ToNumber(left) - ToNumber(right), nil
	case TokenStar:
		return ToNumber(left) * ToNumber(right), nil
	case TokenSlash:
		return ToNumber(left) / ToNumber(right), nil
	case TokenPercent:
		return math.Mod(ToNumber(left), ToNumber(right)), nil

	// === Comparison ===
	case TokenLt:
		return compare(left, right, func(c int) bool { return c < 0 }), nil
	case TokenLe:
		return compare(left, right, func(c int) bool { return c <= 0 }), nil
	case TokenGt:
		return compare(left, right, func(c int) bool { return c > 0 }), nil
	case TokenGe:
		return compare(left, right, func(c int) bool { return c >= 0 }), nil

	// === Equality ===
	case TokenEq:
		return looseEqual(left, right), nil
	case TokenNe:
		return !looseEqual(left, right), nil
	case TokenStrictEq:
		return strictEqual(left, right), nil
	case TokenStrictNe:
		return !strictEqual(left, right), nil
	}
	return nil, newError(KindSyntax, n.At, "unknown operator %s", n.Op)
}

// add concatenates when either operand is not numeric-like, otherwise sums.
func add(a, b any) any {
	if isConcatOperand(a) || isConcatOperand(b) {
		return ToString(a) + ToString(b)
	}
	return ToNumber(a) + ToNumber(b)
}

func isConcatOperand(v any) bool {
	switch v.(type) {
	case string, Object, Func:
		return true
	}
	return false
}

// compare orders two values: strings lexically when both are strings,
// numerically otherwise. Any NaN comparison is false.
func compare(a, b any, ok func(int) bool) bool {
	as, aStr := a.(string)
	bs, bStr := b.(string)
	if aStr && bStr {
		return ok(strings.Compare(as, bs))
	}
	x, y := ToNumber(a), ToNumber(b)
	if math.IsNaN(x) || math.IsNaN(y) {
		return false
	}
	switch {
	case x < y:
		return ok(-1)
	case x > y:
		return ok(1)
	}
	return ok(0)
}

// property reads key from a non-nullish value.
func property(obj any, key string) any {
	switch o := obj.(type) {
	case Object:
		if v, ok := o[key]; ok {
			return v
		}
		return Undefined
	case string:
		return stringProperty(o, key)
	case float64:
		return numberProperty(o, key)
	}
	return Undefined
}

func charAt(s string, idx float64) any {
	runes := []rune(s)
	i := int(idx)
	if float64(i) != idx || i < 0 || i >= len(runes) {
		return Undefined
	}
	return string(runes[i])
}

func calleeName(n Node) string {
	switch c := n.(type) {
	case *Ident:
		return c.Name
	case *Member:
		if !c.Computed {
			return calleeName(c.Object) + "." + c.Name
		}
		return calleeName(c.Object) + "[...]"
	}
	return "expression"
}
