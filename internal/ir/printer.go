package ir

import (
	"strconv"
	"strings"
)

// ArityErrorMessage is thrown by generated functions called with the wrong
// number of arguments.
const ArityErrorMessage = "Wrong number of arguments"

// Printer renders IR as JavaScript source.
type Printer struct {
	indent string
}

// NewPrinter returns a printer using indent for each nesting level.
func NewPrinter(indent string) *Printer {
	return &Printer{indent: indent}
}

// Print renders n at the top level.
func (p *Printer) Print(n Node) string {
	return p.render(n, 0)
}

func (p *Printer) pad(depth int) string {
	return strings.Repeat(p.indent, depth)
}

// render returns the text of n. The first line carries no indentation;
// continuation lines are indented for depth.
func (p *Printer) render(n Node, depth int) string {
	switch n := n.(type) {
	case nil:
		return "undefined"
	case *Raw:
		return n.Text
	case *Infix:
		parts := make([]string, len(n.Operands))
		for i, op := range n.Operands {
			parts[i] = p.operand(op, depth)
		}
		return strings.Join(parts, " "+n.Op+" ")
	case *Call:
		return p.operand(n.Callee, depth) + "(" + p.list(n.Args, depth) + ")"
	case *Func:
		var b strings.Builder
		b.WriteString("function(" + strings.Join(n.Params, ", ") + ") {\n")
		b.WriteString(p.pad(depth+1) + "if (arguments.length != " + strconv.Itoa(len(n.Params)) + ") {\n")
		b.WriteString(p.pad(depth+2) + "throw new TypeError(" + strconv.Quote(ArityErrorMessage) + ")\n")
		b.WriteString(p.pad(depth+1) + "}\n")
		b.WriteString(p.body(n.Body, depth+1))
		b.WriteString(p.pad(depth) + "}")
		return b.String()
	case *Array:
		return "[" + p.list(n.Elements, depth) + "]"
	case *Member:
		return p.operand(n.Object, depth) + "." + n.Property
	case *Index:
		return p.operand(n.Object, depth) + "[" + p.render(n.Index, depth) + "]"
	case *Effect:
		return p.render(n.X, depth)
	case *Return:
		if n.Value == nil {
			return "return"
		}
		return "return " + p.render(n.Value, depth)
	case *If:
		return "if (" + p.render(n.Cond, depth) + " !== false) {\n" +
			p.body(n.Then, depth+1) +
			p.pad(depth) + "} else {\n" +
			p.body(n.Else, depth+1) +
			p.pad(depth) + "}"
	case *While:
		return "while (" + p.render(n.Cond, depth) + " !== false) {\n" +
			p.body(n.Body, depth+1) +
			p.pad(depth) + "}"
	case *Var:
		return "var " + n.Name + " = " + p.render(n.Value, depth)
	case *Assign:
		return n.Name + " = " + p.render(n.Value, depth)
	case *Block:
		lines := p.lines(n, depth)
		return strings.Join(lines, "\n"+p.pad(depth))
	}
	return ""
}

// operand renders n where it is followed or surrounded by other syntax.
// Function literals are parenthesized; operator chains are not, so nested
// arithmetic joins as plain text and JavaScript precedence applies.
func (p *Printer) operand(n Node, depth int) string {
	if _, ok := n.(*Func); ok {
		return "(" + p.render(n, depth) + ")"
	}
	return p.render(n, depth)
}

func (p *Printer) list(nodes []Node, depth int) string {
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		parts[i] = p.render(n, depth)
	}
	return strings.Join(parts, ", ")
}

// lines flattens nested blocks into the statements they contain.
func (p *Printer) lines(n Node, depth int) []string {
	block, ok := n.(*Block)
	if !ok {
		return []string{p.render(n, depth)}
	}
	var out []string
	for _, stmt := range block.Stmts {
		out = append(out, p.lines(stmt, depth)...)
	}
	return out
}

// body renders n as the contents of a braced block at depth, one statement
// per line, each line terminated.
func (p *Printer) body(n Node, depth int) string {
	var b strings.Builder
	for _, line := range p.lines(n, depth) {
		b.WriteString(p.pad(depth))
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}
