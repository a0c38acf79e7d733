package compiler

import (
	"github.com/funvibe/eggc/internal/ir"
	"github.com/funvibe/eggc/internal/pipeline"
)

// Processor is the pipeline stage that compiles ctx.AstRoot.
type Processor struct {
	Compiler *Compiler

	// ImplicitReturn makes the program's value the result of the generated
	// code, as needed before execution.
	ImplicitReturn bool
}

func (p *Processor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	if ctx.AstRoot == nil || len(ctx.Errors) > 0 {
		return ctx
	}

	prog, err := p.Compiler.CompileNode(ctx.AstRoot)
	if err != nil {
		ctx.Fail(err)
		return ctx
	}
	if p.ImplicitReturn {
		prog = ir.Returning(prog)
	}

	ctx.Program = prog
	ctx.Output = p.Compiler.Print(prog)
	return ctx
}
