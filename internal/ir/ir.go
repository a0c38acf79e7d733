// Package ir is the intermediate form between the Egg compiler and the
// JavaScript text it emits.
//
// Nodes are split into expressions and statements. Whether a compiled
// fragment needs an explicit "return" to become a function's result is a
// property of its node type (see IsStatement), not of its printed text.
package ir

import (
	"math"
	"strconv"
)

// Node is any IR node.
type Node interface {
	irNode()
}

// --- Expressions ---

// Raw is code text used verbatim: identifiers, numbers, and the contents of
// string literals.
type Raw struct {
	Text string
}

// Infix joins operands with a binary operator: a + b + c.
type Infix struct {
	Op       string
	Operands []Node
}

// Call applies Callee to Args.
type Call struct {
	Callee Node
	Args   []Node
}

// Func is a function literal. The printer emits an argument-count check
// ahead of Body.
type Func struct {
	Params []string
	Body   Node
}

// Array is an array literal.
type Array struct {
	Elements []Node
}

// Member is a property read: obj.name.
type Member struct {
	Object   Node
	Property string
}

// Index is an element read: obj[i].
type Index struct {
	Object Node
	Index  Node
}

// --- Statements ---

// Effect is an expression evaluated only for its side effect, such as a
// console.log call. It is never turned into a return.
type Effect struct {
	X Node
}

type Return struct {
	Value Node // nil for a bare return
}

// If tests Cond against the boolean false only.
type If struct {
	Cond Node
	Then Node
	Else Node
}

// While loops while Cond is not the boolean false.
type While struct {
	Cond Node
	Body Node
}

// Var declares Name.
type Var struct {
	Name  string
	Value Node
}

// Assign stores into an existing Name.
type Assign struct {
	Name  string
	Value Node
}

// Block is a statement sequence.
type Block struct {
	Stmts []Node
}

func (*Raw) irNode()    {}
func (*Infix) irNode()  {}
func (*Call) irNode()   {}
func (*Func) irNode()   {}
func (*Array) irNode()  {}
func (*Member) irNode() {}
func (*Index) irNode()  {}
func (*Effect) irNode() {}
func (*Return) irNode() {}
func (*If) irNode()     {}
func (*While) irNode()  {}
func (*Var) irNode()    {}
func (*Assign) irNode() {}
func (*Block) irNode()  {}

// IsStatement reports whether n already stands on its own as a statement:
// a conditional, loop, declaration, assignment, side-effect call, return or
// sequence. Anything else is an expression whose value would be lost without
// an explicit return.
func IsStatement(n Node) bool {
	switch n.(type) {
	case *Effect, *Return, *If, *While, *Var, *Assign, *Block:
		return true
	}
	return false
}

// Returning makes n produce its value as the enclosing function's result.
// Statements are left alone.
func Returning(n Node) Node {
	if n == nil || IsStatement(n) {
		return n
	}
	return &Return{Value: n}
}

// Ident is a reference to a name.
func Ident(name string) *Raw {
	return &Raw{Text: name}
}

// Number renders f the way the JavaScript Number#toString does for the
// non-negative values a number literal can hold.
func Number(f float64) *Raw {
	switch {
	case math.IsInf(f, 1):
		return &Raw{Text: "Infinity"}
	case f >= 1e21:
		return &Raw{Text: strconv.FormatFloat(f, 'e', -1, 64)}
	}
	return &Raw{Text: strconv.FormatFloat(f, 'f', -1, 64)}
}

// False is the boolean false literal.
var False Node = &Raw{Text: "false"}
