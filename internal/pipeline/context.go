package pipeline

import (
	"context"
	"errors"

	"github.com/funvibe/eggc/internal/ast"
	"github.com/funvibe/eggc/internal/diagnostics"
	"github.com/funvibe/eggc/internal/ir"
)

// PipelineContext carries one translation through the stages.
type PipelineContext struct {
	// Context bounds the execution stage.
	Context context.Context

	SourceCode string
	FilePath   string

	AstRoot ast.Node // set by the parser
	Program ir.Node  // set by the compiler
	Output  string   // generated JavaScript, set by the compiler

	Result  interface{} // value returned by the executed program
	Console string      // console output captured during execution

	Errors []*diagnostics.DiagnosticError
}

func NewPipelineContext(source string) *PipelineContext {
	return &PipelineContext{Context: context.Background(), SourceCode: source}
}

// Err returns the first recorded error, or nil.
func (c *PipelineContext) Err() error {
	if len(c.Errors) == 0 {
		return nil
	}
	return c.Errors[0]
}

// Fail records err, converting it to a diagnostic if needed and filling in
// the file path.
func (c *PipelineContext) Fail(err error) {
	var de *diagnostics.DiagnosticError
	if !errors.As(err, &de) {
		de = &diagnostics.DiagnosticError{Code: diagnostics.ErrR001, Message: err.Error()}
	}
	if de.File == "" {
		de.File = c.FilePath
	}
	c.Errors = append(c.Errors, de)
}
