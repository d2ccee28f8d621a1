package pipeline

import (
	"github.com/funvibe/qirlower/internal/ast"
	"github.com/funvibe/qirlower/internal/config"
	"github.com/funvibe/qirlower/internal/diagnostics"
	"github.com/funvibe/qirlower/internal/rir"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PipelineContext carries one lowering run through every stage.
type PipelineContext struct {
	FilePath string
	Source   []byte

	Config    *config.LoweringConfig
	SessionID uuid.UUID
	Logger    *zap.Logger

	Program *ast.Program // typed input
	RIR     *rir.Program // lowered output
	Output  []byte       // emitted artifact
	Cached  bool         // Output came from the artifact cache

	Errors []*diagnostics.DiagnosticError
}

func NewPipelineContext(path string, source []byte, cfg *config.LoweringConfig) *PipelineContext {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	id := uuid.New()
	return &PipelineContext{
		FilePath:  path,
		Source:    source,
		Config:    cfg,
		SessionID: id,
		Logger:    zap.NewNop().With(zap.String("session", id.String())),
	}
}

// Failed reports whether any stage recorded an error.
func (ctx *PipelineContext) Failed() bool { return len(ctx.Errors) > 0 }

// Fail records err for code when it is not already a diagnostic.
func (ctx *PipelineContext) Fail(code diagnostics.ErrorCode, err error) {
	if d, ok := err.(*diagnostics.DiagnosticError); ok {
		ctx.Errors = append(ctx.Errors, d)
		return
	}
	d := diagnostics.NewError(code, tokenless, err.Error())
	d.File = ctx.FilePath
	ctx.Errors = append(ctx.Errors, d)
}
