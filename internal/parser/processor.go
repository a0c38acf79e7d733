package parser

import (
	"github.com/funvibe/eggc/internal/pipeline"
)

type ParserProcessor struct{}

func (pp *ParserProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	if len(ctx.Errors) > 0 {
		return ctx
	}

	root, err := Parse(ctx.SourceCode)
	if err != nil {
		ctx.Fail(err)
		return ctx
	}
	ctx.AstRoot = root
	return ctx
}
