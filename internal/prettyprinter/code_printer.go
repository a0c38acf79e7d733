package prettyprinter

import (
	"bytes"
	"strconv"

	"github.com/funvibe/eggc/internal/ast"
)

// --- Code Printer (Output looks like source code) ---

// CodePrinter renders an AST back to canonical Egg source: no whitespace,
// no comments, numbers as written. Parsing the output yields the
// same tree.
type CodePrinter struct {
	buf bytes.Buffer
}

func NewCodePrinter() *CodePrinter {
	return &CodePrinter{}
}

func (p *CodePrinter) String() string {
	return p.buf.String()
}

func (p *CodePrinter) VisitValue(n *ast.Value) {
	switch n.Kind {
	case ast.StringLiteral:
		p.buf.WriteByte('"')
		p.buf.WriteString(n.Str)
		p.buf.WriteByte('"')
	case ast.NumberLiteral:
		p.buf.WriteString(n.Raw)
	}
}

func (p *CodePrinter) VisitWord(n *ast.Word) {
	p.buf.WriteString(n.Name)
}

func (p *CodePrinter) VisitApply(n *ast.Apply) {
	n.Operator.Accept(p)
	p.printArgs(n.Args)
}

func (p *CodePrinter) VisitClosure(n *ast.Closure) {
	n.Operator.Accept(p)
	p.printArgs(n.Args)
}

func (p *CodePrinter) printArgs(args []ast.Node) {
	p.buf.WriteByte('(')
	for i, arg := range args {
		if i > 0 {
			p.buf.WriteByte(',')
		}
		arg.Accept(p)
	}
	p.buf.WriteByte(')')
}

// Print is a shorthand for rendering a single node.
func Print(n ast.Node) string {
	p := NewCodePrinter()
	n.Accept(p)
	return p.String()
}

// --- Tree Printer (Output shows the node structure) ---

type TreePrinter struct {
	buf    bytes.Buffer
	indent int
}

func NewTreePrinter() *TreePrinter {
	return &TreePrinter{}
}

func (p *TreePrinter) String() string {
	return p.buf.String()
}

func (p *TreePrinter) line(s string) {
	for i := 0; i < p.indent; i++ {
		p.buf.WriteString("  ")
	}
	p.buf.WriteString(s)
	p.buf.WriteByte('\n')
}

func (p *TreePrinter) VisitValue(n *ast.Value) {
	switch n.Kind {
	case ast.StringLiteral:
		p.line("Value(string) " + strconv.Quote(n.Str))
	case ast.NumberLiteral:
		p.line("Value(number) " + strconv.FormatFloat(n.Num, 'g', -1, 64))
	}
}

func (p *TreePrinter) VisitWord(n *ast.Word) {
	p.line("Word " + n.Name)
}

func (p *TreePrinter) VisitApply(n *ast.Apply) {
	p.line("Apply " + n.Operator.Name)
	p.children(n.Args)
}

func (p *TreePrinter) VisitClosure(n *ast.Closure) {
	p.line("Closure")
	p.indent++
	p.line("operator:")
	p.indent++
	n.Operator.Accept(p)
	p.indent--
	p.indent--
	p.children(n.Args)
}

func (p *TreePrinter) children(args []ast.Node) {
	p.indent++
	if len(args) == 0 {
		p.line("(no args)")
	}
	for _, arg := range args {
		arg.Accept(p)
	}
	p.indent--
}

// Tree is a shorthand for dumping a single node.
func Tree(n ast.Node) string {
	p := NewTreePrinter()
	n.Accept(p)
	return p.String()
}
