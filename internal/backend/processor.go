package backend

import (
	"github.com/funvibe/qirlower/internal/diagnostics"
	"github.com/funvibe/qirlower/internal/pipeline"
	"github.com/funvibe/qirlower/internal/token"
	"go.uber.org/zap"
)

// EmitProcessor implements pipeline.Processor to run a Backend
type EmitProcessor struct {
	Backend Backend
}

// NewEmitProcessor creates a new pipeline step for the given backend
func NewEmitProcessor(b Backend) *EmitProcessor {
	return &EmitProcessor{Backend: b}
}

func (p *EmitProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	// If previous steps failed or the output came from the cache, there is
	// nothing to emit
	if ctx.RIR == nil || ctx.Failed() || ctx.Cached {
		return ctx
	}

	out, err := p.Backend.Emit(ctx.RIR)
	if err != nil {
		ctx.Errors = append(ctx.Errors, diagnostics.NewError(
			diagnostics.ErrE001,
			token.Token{File: ctx.FilePath},
			p.Backend.Name()+": "+err.Error(),
		))
		return ctx
	}
	ctx.Output = out
	if ctx.Logger != nil {
		ctx.Logger.Debug("emitted program",
			zap.String("backend", p.Backend.Name()),
			zap.Int("bytes", len(out)))
	}
	return ctx
}
