package formula

// Node is an expression in a parsed formula.
type Node interface {
	Pos() int
}

// Literal is a number, string, boolean, null or undefined constant.
type Literal struct {
	Value any
	At    int
}

// Ident is a bare identifier resolved against the evaluation scope.
type Ident struct {
	Name string
	At   int
}

// Member is property access: Object.Name, or Object[Index] when Computed.
type Member struct {
	Object   Node
	Name     string // Static property name (dot access)
	Index    Node   // Computed property (bracket access)
	Computed bool
	At       int
}

// Call invokes a builtin function value.
type Call struct {
	Callee Node
	Args   []Node
	At     int
}

// Unary is a prefix operator: !x, -x, +x.
type Unary struct {
	Op      TokenType
	Operand Node
	At      int
}

// Binary is an infix operator, including the short-circuiting &&, || and ??.
type Binary struct {
	Op    TokenType
	Left  Node
	Right Node
	At    int
}

// Conditional is cond ? then : else.
type Conditional struct {
	Cond Node
	Then Node
	Else Node
	At   int
}

func (n *Literal) Pos() int     { return n.At }
func (n *Ident) Pos() int       { return n.At }
func (n *Member) Pos() int      { return n.At }
func (n *Call) Pos() int        { return n.At }
func (n *Unary) Pos() int       { return n.At }
func (n *Binary) Pos() int      { return n.At }
func (n *Conditional) Pos() int { return n.At }

// Walk calls fn for n and every node beneath it, depth first.
// Returning false from fn skips the node's children.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	switch v := n.(type) {
	case *Member:
		Walk(v.Object, fn)
		if v.Computed {
			Walk(v.Index, fn)
		}
	case *Call:
		Walk(v.Callee, fn)
		for _, arg := range v.Args {
			Walk(arg, fn)
		}
	case *Unary:
		Walk(v.Operand, fn)
	case *Binary:
		Walk(v.Left, fn)
		Walk(v.Right, fn)
	case *Conditional:
		Walk(v.Cond, fn)
		Walk(v.Then, fn)
		Walk(v.Else, fn)
	}
}

// Reference is a static lookup of a field through byId or byLabel.
type Reference struct {
	Scope string // "byId" or "byLabel"
	Key   string
	Pos   int
}

// References lists the byId/byLabel keys a formula reads with a constant key,
// in source order. Dynamic lookups such as byId[x] are not reported.
func References(root Node) []Reference {
	var refs []Reference
	Walk(root, func(n Node) bool {
		m, ok := n.(*Member)
		if !ok {
			return true
		}
		obj, ok := m.Object.(*Ident)
		if !ok || (obj.Name != ScopeByID && obj.Name != ScopeByLabel) {
			return true
		}
		if !m.Computed {
			refs = append(refs, Reference{Scope: obj.Name, Key: m.Name, Pos: m.At})
			return true
		}
		if lit, ok := m.Index.(*Literal); ok {
			if s, ok := lit.Value.(string); ok {
				refs = append(refs, Reference{Scope: obj.Name, Key: s, Pos: m.At})
			}
		}
		return true
	})
	return refs
}
