package modules

import (
	"github.com/funvibe/qirlower/internal/diagnostics"
	"github.com/funvibe/qirlower/internal/pipeline"
	"go.uber.org/zap"
)

// LoadProcessor decodes ctx.Source (or the file at ctx.FilePath when no
// source was given) into ctx.Program.
type LoadProcessor struct {
	Loader *Loader
}

func (lp *LoadProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	if ctx.Failed() || ctx.Cached || ctx.Program != nil {
		return ctx
	}
	loader := lp.Loader
	if loader == nil {
		loader = NewLoader()
	}

	var err error
	if ctx.Source != nil {
		ctx.Program, err = ParseProgram(ctx.Source, ctx.FilePath)
	} else {
		ctx.Program, err = loader.Load(ctx.FilePath)
	}
	if err != nil {
		ctx.Program = nil
		ctx.Fail(diagnostics.ErrI001, err)
		return ctx
	}
	if ctx.Logger != nil {
		ctx.Logger.Debug("loaded program",
			zap.String("file", ctx.FilePath),
			zap.Int("callables", len(ctx.Program.Callables)))
	}
	return ctx
}
