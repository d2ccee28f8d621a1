package rircache

import (
	"github.com/funvibe/qirlower/internal/metrics"
	"github.com/funvibe/qirlower/internal/pipeline"
	"go.uber.org/zap"
)

// LookupProcessor short-circuits lowering when the artifact is cached.
// Inputs without Source (directories) are never cached.
type LookupProcessor struct {
	Cache *Cache
}

func (p *LookupProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	if p.Cache == nil || ctx.Failed() || ctx.Source == nil {
		return ctx
	}
	key := Key(ctx.Source, ctx.Config)
	data, ok := p.Cache.Get(key)
	metrics.ObserveCache(ok)
	if !ok {
		return ctx
	}
	ctx.Output = data
	ctx.Cached = true
	metrics.ObserveLowering(metrics.StatusCached, 0, nil)
	if ctx.Logger != nil {
		ctx.Logger.Info("artifact cache hit", zap.String("key", shortKey(key)))
	}
	return ctx
}

// StoreProcessor saves freshly emitted output.
type StoreProcessor struct {
	Cache *Cache
}

func (p *StoreProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	if p.Cache == nil || ctx.Failed() || ctx.Cached || ctx.Source == nil || ctx.Output == nil {
		return ctx
	}
	key := Key(ctx.Source, ctx.Config)
	if err := p.Cache.Put(key, ctx.SessionID, ctx.Output); err != nil && ctx.Logger != nil {
		// a cache write failure does not fail the run
		ctx.Logger.Warn("artifact cache store failed", zap.Error(err))
	}
	return ctx
}
