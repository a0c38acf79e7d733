package ast

import "github.com/funvibe/eggc/internal/diagnostics"

// Node is the base interface for all AST nodes.
type Node interface {
	Pos() diagnostics.Position
	Accept(v Visitor)
}

// Visitor walks the four node variants.
type Visitor interface {
	VisitValue(n *Value)
	VisitWord(n *Word)
	VisitApply(n *Apply)
	VisitClosure(n *Closure)
}

type LiteralKind int

const (
	StringLiteral LiteralKind = iota
	NumberLiteral
)

// Value is a string or number literal.
//
//	"text"  42
type Value struct {
	Position diagnostics.Position
	Kind     LiteralKind
	Str      string  // content between the quotes for StringLiteral
	Num      float64 // parsed value for NumberLiteral
	Raw      string  // source digits for NumberLiteral
}

func (v *Value) Pos() diagnostics.Position { return v.Position }
func (v *Value) Accept(vis Visitor)        { vis.VisitValue(v) }

// Word is a bare identifier.
type Word struct {
	Position diagnostics.Position
	Name     string
}

func (w *Word) Pos() diagnostics.Position { return w.Position }
func (w *Word) Accept(vis Visitor)        { vis.VisitWord(w) }

// Apply is a call whose operator was written as a bare word.
//
//	define(x, 1)
type Apply struct {
	Position diagnostics.Position
	Operator *Word
	Args     []Node
}

func (a *Apply) Pos() diagnostics.Position { return a.Position }
func (a *Apply) Accept(vis Visitor)        { vis.VisitApply(a) }

// Closure is a call whose operator is any other expression, most often
// another call.
//
//	f(1)(2)
type Closure struct {
	Position diagnostics.Position
	Operator Node
	Args     []Node
}

func (c *Closure) Pos() diagnostics.Position { return c.Position }
func (c *Closure) Accept(vis Visitor)        { vis.VisitClosure(c) }

// OperatorName returns the operator word of n when n is an Apply.
func OperatorName(n Node) (string, bool) {
	if a, ok := n.(*Apply); ok {
		return a.Operator.Name, true
	}
	return "", false
}

// IsWord reports whether n is a bare word.
func IsWord(n Node) bool {
	_, ok := n.(*Word)
	return ok
}
