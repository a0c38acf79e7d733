package compiler

import (
	"github.com/funvibe/eggc/internal/ast"
	"github.com/funvibe/eggc/internal/config"
	"github.com/funvibe/eggc/internal/diagnostics"
	"github.com/funvibe/eggc/internal/ir"
)

func formError(form *ast.Apply, format string, args ...interface{}) error {
	return diagnostics.NewError(diagnostics.ErrF001, form.Position, format, args...)
}

// if(cond, then, else)
func compileIf(c *Compiler, form *ast.Apply, env *Environment) (ir.Node, error) {
	if len(form.Args) != 3 {
		return nil, formError(form, "wrong number of args to if: want 3, got %d", len(form.Args))
	}
	// Branches are compiled before the condition.
	then, err := c.code(form.Args[1], env)
	if err != nil {
		return nil, err
	}
	els, err := c.code(form.Args[2], env)
	if err != nil {
		return nil, err
	}
	cond, err := c.code(form.Args[0], env)
	if err != nil {
		return nil, err
	}
	return &ir.If{Cond: cond, Then: ir.Returning(then), Else: ir.Returning(els)}, nil
}

// while(cond, body)
func compileWhile(c *Compiler, form *ast.Apply, env *Environment) (ir.Node, error) {
	if len(form.Args) != 2 {
		return nil, formError(form, "wrong number of args to while: want 2, got %d", len(form.Args))
	}
	cond, err := c.code(form.Args[0], env)
	if err != nil {
		return nil, err
	}
	body, err := c.code(form.Args[1], env)
	if err != nil {
		return nil, err
	}
	return &ir.While{Cond: cond, Body: body}, nil
}

// do(expr...)
//
// Inside a function body the last expression decides the function's
// result: a word or a call to a function or primitive is returned, and a
// nested do is followed by "return false".
func compileDo(c *Compiler, form *ast.Apply, env *Environment) (ir.Node, error) {
	block := &ir.Block{}
	for i, arg := range form.Args {
		n, err := c.code(arg, env)
		if err != nil {
			return nil, err
		}
		if i == len(form.Args)-1 && env.IsFunctionBody() {
			switch {
			case ast.IsWord(arg), c.returnsValue(arg):
				n = ir.Returning(n)
			case isForm(arg, config.DoForm):
				block.Stmts = append(block.Stmts, n)
				n = &ir.Return{Value: ir.False}
			}
		}
		block.Stmts = append(block.Stmts, n)
	}
	return block, nil
}

// returnsValue reports whether arg is a call whose result a function body
// should return: a registered function, or a primitive other than print.
// Primitives are looked up in the root frame only, so a local binding that
// shadows a primitive name still counts as the primitive.
func (c *Compiler) returnsValue(arg ast.Node) bool {
	name, ok := ast.OperatorName(arg)
	if !ok {
		return false
	}
	if c.functions.Has(name) {
		return true
	}
	return c.root.ownsPrimitive(name) && name != config.PrintFuncName
}

func isForm(n ast.Node, name string) bool {
	op, ok := ast.OperatorName(n)
	return ok && op == name
}

// define(name, value)
func compileDefine(c *Compiler, form *ast.Apply, env *Environment) (ir.Node, error) {
	if len(form.Args) != 2 || !ast.IsWord(form.Args[0]) {
		return nil, formError(form, "incorrect use of define")
	}
	name := form.Args[0].(*ast.Word).Name

	if isForm(form.Args[1], config.FunForm) {
		// Registered before the body is compiled so the function can call
		// itself.
		c.functions.Add(name)
		fn, err := c.code(form.Args[1], env)
		if err != nil {
			return nil, err
		}
		return &ir.Var{Name: name, Value: fn}, nil
	}

	if env.Owns(name) {
		val, err := c.code(form.Args[1], env)
		if err != nil {
			return nil, err
		}
		return &ir.Assign{Name: name, Value: val}, nil
	}

	val, err := c.Evaluate(form.Args[1], env)
	if err != nil {
		return nil, err
	}
	env.Set(name, val)
	return &ir.Var{Name: name, Value: val.Node()}, nil
}

// set(name, value)
//
// The target must be owned by the current frame or its immediate parent;
// frames further out are not searched.
func compileSet(c *Compiler, form *ast.Apply, env *Environment) (ir.Node, error) {
	args := form.Args
	// Only rejects calls that have the wrong arity AND a non-word target;
	// the remaining malformed shapes are caught below.
	if len(args) != 2 && !(len(args) > 0 && ast.IsWord(args[0])) {
		return nil, formError(form, "wrong use of set")
	}
	if len(args) < 2 {
		return nil, formError(form, "wrong use of set: missing value")
	}

	val, err := c.Evaluate(args[1], env)
	if err != nil {
		return nil, err
	}

	if word, ok := args[0].(*ast.Word); ok {
		for _, frame := range []*Environment{env, env.Outer()} {
			if frame != nil && frame.Owns(word.Name) {
				if frame == c.root {
					c.rootChanges++
				}
				frame.Set(word.Name, val)
				return &ir.Assign{Name: word.Name, Value: val.Node()}, nil
			}
		}
		return nil, diagnostics.NewError(diagnostics.ErrC003, form.Position,
			"cannot set undefined binding: %s", word.Name)
	}
	return nil, diagnostics.NewError(diagnostics.ErrC003, args[0].Pos(),
		"cannot set undefined binding: target is not a name")
}

// fun(param..., body)
func compileFun(c *Compiler, form *ast.Apply, env *Environment) (ir.Node, error) {
	if len(form.Args) == 0 {
		return nil, formError(form, "functions need a body")
	}
	body := form.Args[len(form.Args)-1]
	local := NewFunctionEnvironment(env)

	params := make([]string, 0, len(form.Args)-1)
	for _, arg := range form.Args[:len(form.Args)-1] {
		word, ok := arg.(*ast.Word)
		if !ok {
			return nil, diagnostics.NewError(diagnostics.ErrF001, arg.Pos(), "parameter names must be words")
		}
		local.Set(word.Name, codeValue(ir.Ident(word.Name)))
		params = append(params, word.Name)
	}

	code, err := c.code(body, local)
	if err != nil {
		return nil, err
	}
	return &ir.Func{Params: params, Body: ir.Returning(code)}, nil
}
