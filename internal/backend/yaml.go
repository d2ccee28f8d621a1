package backend

import (
	"bytes"

	"github.com/funvibe/qirlower/internal/config"
	"github.com/funvibe/qirlower/internal/rir"
	"gopkg.in/yaml.v3"
)

// YAMLBackend serializes the program document.
type YAMLBackend struct {
	Indent int
}

func NewYAML() *YAMLBackend {
	return &YAMLBackend{Indent: 2}
}

func (b *YAMLBackend) Emit(p *rir.Program) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(b.Indent)
	if err := enc.Encode(p.Document()); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (b *YAMLBackend) Name() string {
	return config.FormatYAML
}
