package rir

import (
	"fmt"
	"strings"
)

// indent prefixes every line of s after the first with n levels.
func indent(s string, n int) string {
	pad := strings.Repeat("    ", n)
	return strings.ReplaceAll(s, "\n", "\n"+pad)
}

func (b *Block) String() string {
	var sb strings.Builder
	sb.WriteString("Block:")
	for _, inst := range b.Instructions {
		sb.WriteString("\n    ")
		sb.WriteString(inst.String())
	}
	return sb.String()
}

func (c *Callable) String() string {
	var sb strings.Builder
	sb.WriteString("Callable:")
	fmt.Fprintf(&sb, "\n    name: %s", c.Name)
	fmt.Fprintf(&sb, "\n    call_type: %s", c.CallType)
	sb.WriteString("\n    input_type:")
	if len(c.InputType) == 0 {
		sb.WriteString(" <VOID>")
	}
	for i, t := range c.InputType {
		fmt.Fprintf(&sb, "\n        [%d]: %s", i, t)
	}
	if c.OutputType != nil {
		fmt.Fprintf(&sb, "\n    output_type: %s", *c.OutputType)
	} else {
		sb.WriteString("\n    output_type: <VOID>")
	}
	if c.Body != nil {
		fmt.Fprintf(&sb, "\n    body: %d", *c.Body)
	} else {
		sb.WriteString("\n    body: <NONE>")
	}
	return sb.String()
}

func (c Config) String() string {
	names := c.Capabilities.Names()
	if len(names) == 0 {
		return "Config:\n    capabilities: Base"
	}
	return "Config:\n    capabilities: " + strings.Join(names, " | ")
}

func (p *Program) String() string {
	var sb strings.Builder
	sb.WriteString("Program:")
	fmt.Fprintf(&sb, "\n    entry: %d", p.Entry)
	sb.WriteString("\n    callables:")
	for i, c := range p.Callables {
		fmt.Fprintf(&sb, "\n        Callable %d: %s", i, indent(c.String(), 2))
	}
	sb.WriteString("\n    blocks:")
	for i, b := range p.Blocks {
		fmt.Fprintf(&sb, "\n        Block %d: %s", i, indent(b.String(), 2))
	}
	fmt.Fprintf(&sb, "\n    config: %s", indent(p.Config.String(), 1))
	fmt.Fprintf(&sb, "\n    num_qubits: %d", p.NumQubits)
	fmt.Fprintf(&sb, "\n    num_results: %d", p.NumResults)
	sb.WriteString("\n    tags:")
	for i, t := range p.Tags {
		fmt.Fprintf(&sb, "\n        [%d]: %s", i, t)
	}
	return sb.String()
}

// BlocksString renders only the blocks, one header per block.
func (p *Program) BlocksString() string {
	var sb strings.Builder
	sb.WriteString("Blocks:")
	for i, b := range p.Blocks {
		fmt.Fprintf(&sb, "\nBlock %d:%s", i, b.String())
	}
	return sb.String()
}
