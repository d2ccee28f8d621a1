package pipeline

import "github.com/funvibe/qirlower/internal/token"

// Processor is one stage of the pipeline. Stages skip their work when an
// earlier stage failed.
type Processor interface {
	Process(ctx *PipelineContext) *PipelineContext
}

// ProcessorFunc adapts a function to Processor.
type ProcessorFunc func(ctx *PipelineContext) *PipelineContext

func (f ProcessorFunc) Process(ctx *PipelineContext) *PipelineContext { return f(ctx) }

var tokenless = token.Token{}
