// Package backend provides an interface for different execution backends.
// This allows switching between the in-process JavaScript engine and an
// external node process.
package backend

import (
	"context"
	"fmt"

	"github.com/funvibe/eggc/internal/config"
)

// Result is what a finished program produced.
type Result struct {
	// Value is the program's return value exported to Go: nil for
	// undefined/null, bool, float64, string, []interface{} or
	// map[string]interface{}.
	Value interface{}

	// Output is everything the program wrote with console.log.
	Output string
}

// Executor is the interface for execution backends. Program is a sequence
// of JavaScript statements; its result is whatever it returns.
type Executor interface {
	// Execute runs the program and returns its result. Cancelling ctx
	// aborts a running program.
	Execute(ctx context.Context, program string) (*Result, error)

	// Name returns the backend name for display
	Name() string
}

// RuntimeError is an exception thrown by generated code.
type RuntimeError struct {
	Backend string
	Message string
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("%s: %s", e.Backend, e.Message)
}

// New returns the executor selected by cfg.
func New(cfg config.RunConfig) (Executor, error) {
	switch cfg.Backend {
	case "", config.BackendGoja:
		return NewGoja(), nil
	case config.BackendNode:
		return NewNode(cfg.Node), nil
	}
	return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}

// wrap turns a statement sequence into an expression yielding its result.
func wrap(program string) string {
	return "(function() {\n" + program + "\n})()"
}

// normalize maps exported numbers to float64 so both backends agree.
func normalize(v interface{}) interface{} {
	switch v := v.(type) {
	case int64:
		return float64(v)
	case int:
		return float64(v)
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, e := range v {
			out[i] = normalize(e)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, e := range v {
			out[k] = normalize(e)
		}
		return out
	}
	return v
}
