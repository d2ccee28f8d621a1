// Package backend provides the consumers of a lowered program.
// This allows switching between textual, YAML and resource-count output.
package backend

import (
	"fmt"

	"github.com/funvibe/qirlower/internal/config"
	"github.com/funvibe/qirlower/internal/rir"
)

// Backend is the interface for output backends
type Backend interface {
	// Emit renders the program
	Emit(p *rir.Program) ([]byte, error)

	// Name returns the backend name for display
	Name() string
}

// New returns the backend for an output format name.
func New(format string) (Backend, error) {
	switch format {
	case "", config.FormatText:
		return NewText(), nil
	case config.FormatYAML:
		return NewYAML(), nil
	case config.FormatResources:
		return NewResources(), nil
	}
	return nil, fmt.Errorf("unknown output format %q", format)
}

// TextBackend writes the canonical display of the program.
type TextBackend struct{}

func NewText() *TextBackend {
	return &TextBackend{}
}

func (b *TextBackend) Emit(p *rir.Program) ([]byte, error) {
	return []byte(p.String()), nil
}

func (b *TextBackend) Name() string {
	return config.FormatText
}
