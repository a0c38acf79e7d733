package backend

import (
	"errors"

	"github.com/funvibe/eggc/internal/diagnostics"
	"github.com/funvibe/eggc/internal/pipeline"
)

// ExecutionProcessor is the pipeline stage that runs ctx.Output on an
// Executor.
type ExecutionProcessor struct {
	Backend Executor
}

func NewExecutionProcessor(b Executor) *ExecutionProcessor {
	return &ExecutionProcessor{Backend: b}
}

func (p *ExecutionProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	// If previous steps failed, don't run execution
	if ctx.Program == nil || len(ctx.Errors) > 0 {
		return ctx
	}

	result, err := p.Backend.Execute(ctx.Context, ctx.Output)
	if result != nil {
		ctx.Result = result.Value
		ctx.Console = result.Output
	}
	if err != nil {
		p.handleError(ctx, err)
	}
	return ctx
}

func (p *ExecutionProcessor) handleError(ctx *pipeline.PipelineContext, err error) {
	msg := err.Error()
	var rt *RuntimeError
	if errors.As(err, &rt) {
		msg = rt.Message
	}
	// Generated code has no mapping back to Egg source, so no location.
	ctx.Fail(diagnostics.NewError(diagnostics.ErrR001, diagnostics.Position{}, "%s", msg))
}
