package compiler_test

import (
	"strconv"
	"strings"
)

// byteSource draws choices from fuzz input; it yields zeros once the input
// runs out, which steers the generator toward leaves.
type byteSource struct {
	data []byte
	pos  int
}

func (s *byteSource) Intn(n int) int {
	if n <= 0 || s.pos >= len(s.data) {
		return 0
	}
	v := int(s.data[s.pos])
	s.pos++
	return v % n
}

// generator builds Egg programs that are mostly well formed: names are
// defined before use, loops never run and nothing recurses.
type generator struct {
	src   *byteSource
	depth int
	vars  []string
	funcs []string
}

const (
	maxDepth = 5
	maxArgs  = 4
)

func newGenerator(data []byte) *generator {
	return &generator{src: &byteSource{data: data}}
}

func (g *generator) program() string {
	n := 1 + g.src.Intn(maxArgs)
	stmts := make([]string, n)
	for i := range stmts {
		stmts[i] = g.statement()
	}
	return "do(" + strings.Join(stmts, ", ") + ")"
}

func (g *generator) statement() string {
	switch g.src.Intn(6) {
	case 0:
		name := "v" + strconv.Itoa(len(g.vars))
		val := g.expr()
		g.vars = append(g.vars, name)
		return "define(" + name + ", " + val + ")"
	case 1:
		// Registered after the body so generated programs never recurse.
		name := "f" + strconv.Itoa(len(g.funcs))
		body := g.withParam("p")
		g.funcs = append(g.funcs, name)
		return "define(" + name + ", fun(p, " + body + "))"
	case 2:
		if len(g.vars) > 0 {
			return "set(" + g.pick(g.vars) + ", " + g.expr() + ")"
		}
	case 3:
		return "print(" + g.expr() + ")"
	case 4:
		return "while(false, " + g.statement() + ")"
	case 5:
		return g.conditional()
	}
	return g.expr()
}

// conditional is only generated where a statement may appear: if compiles
// to a JavaScript statement, not an expression.
func (g *generator) conditional() string {
	return "if(" + g.expr() + ", " + g.expr() + ", " + g.expr() + ")"
}

func (g *generator) withParam(name string) string {
	saved := g.vars
	g.vars = append(append([]string(nil), g.vars...), name)
	var body string
	if g.src.Intn(4) == 0 {
		body = g.conditional()
	} else {
		body = g.expr()
	}
	g.vars = saved
	return body
}

func (g *generator) expr() string {
	if g.depth >= maxDepth {
		return g.leaf()
	}
	g.depth++
	defer func() { g.depth-- }()

	switch g.src.Intn(8) {
	case 0:
		return g.call(g.pick([]string{"+", "-", "*", "/"}), 1+g.src.Intn(maxArgs))
	case 1:
		return g.call(g.pick([]string{"==", "<", ">"}), 2)
	case 2:
		return g.call("array", g.src.Intn(maxArgs))
	case 3:
		return "element(" + g.call("array", 1+g.src.Intn(maxArgs)) + ", 0)"
	case 4:
		return "length(" + g.call("array", g.src.Intn(maxArgs)) + ")"
	case 5:
		if len(g.funcs) > 0 {
			return g.pick(g.funcs) + "(" + g.expr() + ")"
		}
	case 6:
		return "fun(q, " + g.withParam("q") + ")(" + g.expr() + ")"
	}
	return g.leaf()
}

func (g *generator) call(op string, n int) string {
	args := make([]string, n)
	for i := range args {
		args[i] = g.expr()
	}
	return op + "(" + strings.Join(args, ", ") + ")"
}

func (g *generator) leaf() string {
	if len(g.vars) > 0 && g.src.Intn(2) == 0 {
		return g.pick(g.vars)
	}
	switch g.src.Intn(3) {
	case 0:
		return "true"
	case 1:
		return "false"
	}
	return strconv.Itoa(g.src.Intn(100))
}

func (g *generator) pick(options []string) string {
	return options[g.src.Intn(len(options))]
}
