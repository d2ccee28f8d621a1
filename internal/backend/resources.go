package backend

import (
	"sort"

	"github.com/funvibe/qirlower/internal/config"
	"github.com/funvibe/qirlower/internal/rir"
	"gopkg.in/yaml.v3"
)

// Resources summarizes what a lowered program asks of the machine.
type Resources struct {
	Qubits       uint32         `yaml:"qubits"`
	Results      uint32         `yaml:"results"`
	Blocks       int            `yaml:"blocks"`
	Branches     int            `yaml:"branches"`
	Measurements int            `yaml:"measurements"`
	Resets       int            `yaml:"resets"`
	Readouts     int            `yaml:"readouts"`
	Outputs      int            `yaml:"outputs"`
	Calls        map[string]int `yaml:"calls"`
}

// Count walks the blocks reachable from the entry and tallies calls by
// callee. Only reachable code is counted.
func Count(p *rir.Program) *Resources {
	r := &Resources{
		Qubits:  p.NumQubits,
		Results: p.NumResults,
		Calls:   make(map[string]int),
	}
	reachable := rir.Reachable(p)
	ids := make([]int, 0, len(reachable))
	for id := range reachable {
		ids = append(ids, int(id))
	}
	sort.Ints(ids)

	for _, id := range ids {
		r.Blocks++
		for _, inst := range p.GetBlock(rir.BlockID(id)).Instructions {
			switch inst := inst.(type) {
			case *rir.Branch:
				r.Branches++
			case *rir.Call:
				c := p.GetCallable(inst.Callee)
				r.Calls[c.Name]++
				switch c.CallType {
				case rir.Measurement:
					r.Measurements++
				case rir.Reset:
					r.Resets++
				case rir.Readout:
					r.Readouts++
				case rir.OutputRecording:
					r.Outputs++
				}
			}
		}
	}
	return r
}

// ResourcesBackend reports resource counts instead of the program itself.
type ResourcesBackend struct{}

func NewResources() *ResourcesBackend {
	return &ResourcesBackend{}
}

func (b *ResourcesBackend) Emit(p *rir.Program) ([]byte, error) {
	return yaml.Marshal(Count(p))
}

func (b *ResourcesBackend) Name() string {
	return config.FormatResources
}
