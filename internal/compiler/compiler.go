// Package compiler translates Egg syntax trees into JavaScript.
//
// A Compiler is one compilation context. It owns the special-form table, the
// registry of names declared as functions and the root scope holding the
// primitives. Everything that compiles through the same Compiler shares the
// registry: a function defined by one Compile call is callable by name from
// the next. Separate Compilers share nothing.
//
// A Compiler is not safe for concurrent use.
package compiler

import (
	"errors"

	"github.com/funvibe/eggc/internal/ast"
	"github.com/funvibe/eggc/internal/config"
	"github.com/funvibe/eggc/internal/diagnostics"
	"github.com/funvibe/eggc/internal/ir"
	"github.com/funvibe/eggc/internal/parser"
)

// PrimitiveFunc builds code from already compiled operands. It runs while
// the program is being compiled.
type PrimitiveFunc = func(args []ir.Node) ir.Node

// Primitive is a callable bound in the root scope.
type Primitive struct {
	Name string
	Call PrimitiveFunc
}

// Value is what compiling a node produces, and what a name is bound to:
// either generated code or a primitive.
type Value struct {
	Code      ir.Node
	Primitive *Primitive
}

func (v Value) IsPrimitive() bool {
	return v.Primitive != nil
}

// Node returns v as code. A primitive used as a value is referenced by its
// name.
func (v Value) Node() ir.Node {
	if v.Primitive != nil {
		return ir.Ident(v.Primitive.Name)
	}
	return v.Code
}

func codeValue(n ir.Node) Value {
	return Value{Code: n}
}

// SpecialForm compiles a reserved operator from its unevaluated arguments.
type SpecialForm func(c *Compiler, form *ast.Apply, env *Environment) (ir.Node, error)

type Compiler struct {
	forms     map[string]SpecialForm
	functions *Registry
	root      *Environment
	printer   *ir.Printer

	// rootChanges counts set calls that rebound a name in root.
	rootChanges int
}

type Option func(*Compiler)

// WithPrimitives binds every entry of lib in the root scope.
func WithPrimitives(lib map[string]PrimitiveFunc) Option {
	return func(c *Compiler) {
		for name, fn := range lib {
			c.root.Set(name, Value{Primitive: &Primitive{Name: name, Call: fn}})
		}
	}
}

// WithIndent sets the indentation unit of the generated code.
func WithIndent(indent string) Option {
	return func(c *Compiler) {
		c.printer = ir.NewPrinter(indent)
	}
}

func New(opts ...Option) *Compiler {
	c := &Compiler{
		functions: NewRegistry(),
		root:      NewEnvironment(),
		printer:   ir.NewPrinter(config.DefaultIndent),
	}
	c.forms = map[string]SpecialForm{
		config.IfForm:     compileIf,
		config.WhileForm:  compileWhile,
		config.DoForm:     compileDo,
		config.DefineForm: compileDefine,
		config.SetForm:    compileSet,
		config.FunForm:    compileFun,
	}
	c.root.Set(config.TrueName, codeValue(ir.Ident(config.TrueName)))
	c.root.Set(config.FalseName, codeValue(ir.Ident(config.FalseName)))
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Functions is the registry of names declared as functions.
func (c *Compiler) Functions() *Registry {
	return c.functions
}

// Root is the scope holding true, false and the primitives.
func (c *Compiler) Root() *Environment {
	return c.root
}

// RootChanges reports how many times a set rebound a name in the root
// scope. Once it is non-zero, compiling the same source can give a
// different result than it did before.
func (c *Compiler) RootChanges() int {
	return c.rootChanges
}

// IsSpecialForm reports whether name is a reserved operator.
func (c *Compiler) IsSpecialForm(name string) bool {
	_, ok := c.forms[name]
	return ok
}

// Compile parses source and returns the generated JavaScript.
func (c *Compiler) Compile(source string) (string, error) {
	root, err := parser.Parse(source)
	if err != nil {
		return "", err
	}
	prog, err := c.CompileNode(root)
	if err != nil {
		return "", err
	}
	return c.Print(prog), nil
}

// CompileNode compiles a parsed program in a fresh frame below the root.
func (c *Compiler) CompileNode(node ast.Node) (ir.Node, error) {
	val, err := c.Evaluate(node, NewEnclosedEnvironment(c.root))
	if err != nil {
		return nil, err
	}
	return val.Node(), nil
}

// Print renders compiled code with the configured indentation.
func (c *Compiler) Print(n ir.Node) string {
	return c.printer.Print(n)
}

// Evaluate compiles node in env.
func (c *Compiler) Evaluate(node ast.Node, env *Environment) (Value, error) {
	switch n := node.(type) {
	case *ast.Value:
		if n.Kind == ast.NumberLiteral {
			return codeValue(ir.Number(n.Num)), nil
		}
		return codeValue(&ir.Raw{Text: n.Str}), nil

	case *ast.Word:
		if val, ok := env.Get(n.Name); ok {
			if val.IsPrimitive() {
				return val, nil
			}
			// Plain values are referenced by name in the generated code.
			return codeValue(ir.Ident(n.Name)), nil
		}
		if c.functions.Has(n.Name) {
			return codeValue(ir.Ident(n.Name)), nil
		}
		return Value{}, diagnostics.NewError(diagnostics.ErrC001, n.Position, "undefined binding: %s", n.Name)

	case *ast.Apply:
		name := n.Operator.Name
		if form, ok := c.forms[name]; ok {
			out, err := form(c, n, env)
			if err != nil {
				return Value{}, err
			}
			return codeValue(out), nil
		}
		if c.functions.Has(name) {
			args, err := c.compileArgs(n.Args, env)
			if err != nil {
				return Value{}, err
			}
			return codeValue(&ir.Call{Callee: ir.Ident(name), Args: args}), nil
		}
		op, err := c.Evaluate(n.Operator, env)
		if err != nil {
			return Value{}, err
		}
		if !op.IsPrimitive() {
			return Value{}, diagnostics.NewError(diagnostics.ErrC002, n.Position, "applying a non-function: %s", name)
		}
		args, err := c.compileArgs(n.Args, env)
		if err != nil {
			return Value{}, err
		}
		return codeValue(op.Primitive.Call(args)), nil

	case *ast.Closure:
		callee, err := c.code(n.Operator, env)
		if err != nil {
			return Value{}, err
		}
		args, err := c.compileArgs(n.Args, env)
		if err != nil {
			return Value{}, err
		}
		return codeValue(&ir.Call{Callee: callee, Args: args}), nil
	}
	return Value{}, errors.New("compiler: unknown node type")
}

// code compiles node and returns it as code.
func (c *Compiler) code(node ast.Node, env *Environment) (ir.Node, error) {
	val, err := c.Evaluate(node, env)
	if err != nil {
		return nil, err
	}
	return val.Node(), nil
}

func (c *Compiler) compileArgs(args []ast.Node, env *Environment) ([]ir.Node, error) {
	out := make([]ir.Node, len(args))
	for i, arg := range args {
		n, err := c.code(arg, env)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}
