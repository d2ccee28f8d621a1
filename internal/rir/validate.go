package rir

import (
	"errors"
	"fmt"
)

// Validate checks the structural invariants every backend relies on:
// each block ends in exactly one terminator, every jump target and callee
// exists, and the entry body is present. It reports all violations.
func Validate(p *Program) error {
	var errs []error

	entry, ok := p.EntryBlock()
	if !ok {
		errs = append(errs, fmt.Errorf("entry callable %d has no body", p.Entry))
	} else if int(entry) >= len(p.Blocks) {
		errs = append(errs, fmt.Errorf("entry body block %d does not exist", entry))
	}

	for id, c := range p.Callables {
		if c.Body != nil && int(*c.Body) >= len(p.Blocks) {
			errs = append(errs, fmt.Errorf("callable %d (%s): body block %d does not exist", id, c.Name, *c.Body))
		}
	}

	for id, b := range p.Blocks {
		if len(b.Instructions) == 0 {
			errs = append(errs, fmt.Errorf("block %d is empty", id))
			continue
		}
		for i, inst := range b.Instructions {
			last := i == len(b.Instructions)-1
			if IsTerminator(inst) && !last {
				errs = append(errs, fmt.Errorf("block %d: terminator %q at position %d is not last", id, inst, i))
			}
			if last && !IsTerminator(inst) {
				errs = append(errs, fmt.Errorf("block %d: does not end in a terminator", id))
			}
			for _, target := range Successors(inst) {
				if int(target) >= len(p.Blocks) {
					errs = append(errs, fmt.Errorf("block %d: target block %d does not exist", id, target))
				}
			}
			if call, ok := inst.(*Call); ok {
				if int(call.Callee) >= len(p.Callables) {
					errs = append(errs, fmt.Errorf("block %d: callee %d does not exist", id, call.Callee))
				}
			}
		}
	}
	return errors.Join(errs...)
}

// Reachable returns the set of blocks reachable from the entry body.
func Reachable(p *Program) map[BlockID]bool {
	seen := make(map[BlockID]bool)
	entry, ok := p.EntryBlock()
	if !ok {
		return seen
	}
	stack := []BlockID{entry}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[id] || int(id) >= len(p.Blocks) {
			continue
		}
		seen[id] = true
		if term, ok := p.Blocks[id].Terminator(); ok {
			stack = append(stack, Successors(term)...)
		}
	}
	return seen
}
