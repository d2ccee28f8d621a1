package rir

// Document is the serializable view of a Program used by the YAML emitter.
type Document struct {
	Entry        CallableID    `yaml:"entry"`
	Callables    []CallableDoc `yaml:"callables"`
	Blocks       []BlockDoc    `yaml:"blocks"`
	Capabilities []string      `yaml:"capabilities"`
	NumQubits    uint32        `yaml:"num_qubits"`
	NumResults   uint32        `yaml:"num_results"`
	Tags         []string      `yaml:"tags,omitempty"`
}

type CallableDoc struct {
	ID         CallableID `yaml:"id"`
	Name       string     `yaml:"name"`
	CallType   string     `yaml:"call_type"`
	InputType  []string   `yaml:"input_type,flow"`
	OutputType string     `yaml:"output_type,omitempty"`
	Body       *BlockID   `yaml:"body,omitempty"`
}

type BlockDoc struct {
	ID           BlockID  `yaml:"id"`
	Instructions []string `yaml:"instructions"`
}

func (p *Program) Document() *Document {
	doc := &Document{
		Entry:        p.Entry,
		Capabilities: p.Config.Capabilities.Names(),
		NumQubits:    p.NumQubits,
		NumResults:   p.NumResults,
		Tags:         p.Tags,
	}
	for i, c := range p.Callables {
		cd := CallableDoc{
			ID:        CallableID(i),
			Name:      c.Name,
			CallType:  c.CallType.String(),
			InputType: make([]string, len(c.InputType)),
			Body:      c.Body,
		}
		for j, t := range c.InputType {
			cd.InputType[j] = t.String()
		}
		if c.OutputType != nil {
			cd.OutputType = c.OutputType.String()
		}
		doc.Callables = append(doc.Callables, cd)
	}
	for i, b := range p.Blocks {
		bd := BlockDoc{ID: BlockID(i), Instructions: make([]string, len(b.Instructions))}
		for j, inst := range b.Instructions {
			bd.Instructions[j] = inst.String()
		}
		doc.Blocks = append(doc.Blocks, bd)
	}
	return doc
}
