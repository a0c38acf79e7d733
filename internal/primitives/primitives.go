// Package primitives is the fixed library bound in every compiler's root
// scope. Each primitive runs at compile time and returns the code for its
// operation; none of them is ever entered in the function registry.
//
// Primitives never fail. A missing operand is undefined in the generated
// code and operands past the ones a primitive uses are dropped.
package primitives

import (
	"github.com/funvibe/eggc/internal/config"
	"github.com/funvibe/eggc/internal/ir"
)

// Func has the shape of compiler.PrimitiveFunc.
type Func = func(args []ir.Node) ir.Node

// Library returns a fresh map of every primitive by name.
func Library() map[string]Func {
	lib := map[string]Func{
		config.PrintFuncName:   printValue,
		config.ArrayFuncName:   array,
		config.LengthFuncName:  length,
		config.ElementFuncName: element,
	}
	for _, op := range []string{config.AddFuncName, config.SubFuncName, config.MulFuncName, config.DivFuncName} {
		lib[op] = arithmetic(op)
	}
	for _, op := range []string{config.EqFuncName, config.LtFuncName, config.GtFuncName} {
		lib[op] = comparison(op)
	}
	return lib
}

// operand returns args[i], or undefined past the end.
func operand(args []ir.Node, i int) ir.Node {
	if i < len(args) {
		return args[i]
	}
	return ir.Ident("undefined")
}

// arithmetic joins any number of operands: +(a, b, c) is a + b + c and +()
// is empty.
func arithmetic(op string) Func {
	return func(args []ir.Node) ir.Node {
		switch len(args) {
		case 0:
			return &ir.Raw{}
		case 1:
			return args[0]
		}
		return &ir.Infix{Op: op, Operands: append([]ir.Node(nil), args...)}
	}
}

func comparison(op string) Func {
	return func(args []ir.Node) ir.Node {
		return &ir.Infix{Op: op, Operands: []ir.Node{operand(args, 0), operand(args, 1)}}
	}
}

// print(value) is console.log(value), a statement of its own.
func printValue(args []ir.Node) ir.Node {
	return &ir.Effect{X: &ir.Call{Callee: ir.Ident("console.log"), Args: []ir.Node{operand(args, 0)}}}
}

func array(args []ir.Node) ir.Node {
	return &ir.Array{Elements: append([]ir.Node(nil), args...)}
}

func length(args []ir.Node) ir.Node {
	return &ir.Member{Object: operand(args, 0), Property: "length"}
}

func element(args []ir.Node) ir.Node {
	return &ir.Index{Object: operand(args, 0), Index: operand(args, 1)}
}
