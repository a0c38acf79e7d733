package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dop251/goja"

	"github.com/funvibe/eggc/internal/config"
)

// GojaBackend runs programs in an embedded JavaScript engine. Every Execute
// call gets a fresh runtime.
type GojaBackend struct{}

func NewGoja() *GojaBackend {
	return &GojaBackend{}
}

func (b *GojaBackend) Name() string {
	return config.BackendGoja
}

func (b *GojaBackend) Execute(ctx context.Context, program string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vm := goja.New()
	var out strings.Builder
	console := vm.NewObject()
	if err := console.Set("log", func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			parts[i] = arg.String()
		}
		out.WriteString(strings.Join(parts, " "))
		out.WriteByte('\n')
		return goja.Undefined()
	}); err != nil {
		return nil, err
	}
	if err := vm.Set("console", console); err != nil {
		return nil, err
	}

	stop := context.AfterFunc(ctx, func() {
		vm.Interrupt(ctx.Err())
	})
	defer stop()

	val, err := vm.RunString(wrap(program))
	if err != nil {
		return &Result{Output: out.String()}, b.runtimeError(err)
	}
	return &Result{Value: exportValue(val), Output: out.String()}, nil
}

func (b *GojaBackend) runtimeError(err error) error {
	var exc *goja.Exception
	var interrupted *goja.InterruptedError
	var syntax *goja.CompilerSyntaxError
	switch {
	case errors.As(err, &exc):
		return &RuntimeError{Backend: b.Name(), Message: exc.Value().String()}
	case errors.As(err, &interrupted):
		return &RuntimeError{Backend: b.Name(), Message: fmt.Sprintf("execution interrupted: %v", interrupted.Value())}
	case errors.As(err, &syntax):
		return &RuntimeError{Backend: b.Name(), Message: "generated code does not parse: " + syntax.Error()}
	}
	return &RuntimeError{Backend: b.Name(), Message: err.Error()}
}

func exportValue(val goja.Value) interface{} {
	if val == nil || goja.IsUndefined(val) || goja.IsNull(val) {
		return nil
	}
	if _, ok := goja.AssertFunction(val); ok {
		return val.String()
	}
	return normalize(val.Export())
}
