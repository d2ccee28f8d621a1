package partialeval

import (
	"errors"
	"time"

	"github.com/funvibe/qirlower/internal/config"
	"github.com/funvibe/qirlower/internal/diagnostics"
	"github.com/funvibe/qirlower/internal/metrics"
	"github.com/funvibe/qirlower/internal/pipeline"
	"go.uber.org/zap"
)

// LoweringProcessor lowers ctx.Program into ctx.RIR.
type LoweringProcessor struct{}

func (lp *LoweringProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	if ctx.Program == nil || ctx.Failed() || ctx.Cached {
		return ctx
	}

	opts := OptionsFromConfig(ctx.Config)
	logger := ctx.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	opts.Logger = logger.With(zap.String("stage", "lower"))

	start := time.Now()
	program, err := Lower(ctx.Program, opts)
	elapsed := time.Since(start)
	if err != nil {
		metrics.ObserveLowering(metrics.StatusFailed, elapsed, nil)
		var pe *Error
		if errors.As(err, &pe) {
			d := pe.Diagnostic()
			if d.File == "" {
				d.File = ctx.FilePath
			}
			ctx.Errors = append(ctx.Errors, d)
		} else {
			ctx.Fail(diagnostics.ErrL009, err)
		}
		opts.Logger.Debug("lowering failed", zap.Error(err), zap.Duration("elapsed", elapsed))
		return ctx
	}

	metrics.ObserveLowering(metrics.StatusOK, elapsed, program)
	opts.Logger.Info("lowered program",
		zap.Int("blocks", len(program.Blocks)),
		zap.Int("calls", metrics.CountCalls(program)),
		zap.Duration("elapsed", elapsed))
	ctx.RIR = program
	return ctx
}

// OptionsFromConfig maps the file configuration onto evaluator options.
func OptionsFromConfig(cfg *config.LoweringConfig) Options {
	opts := DefaultOptions()
	if cfg == nil {
		return opts
	}
	if cfg.Entry != "" {
		opts.Entry = cfg.Entry
	}
	opts.Capabilities = cfg.Capabilities()
	opts.MaxLoopIterations = cfg.Limits.MaxLoopIterations
	opts.MaxCallDepth = cfg.Limits.MaxCallDepth
	return opts
}
