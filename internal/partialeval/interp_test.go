package partialeval

import (
	"fmt"
	"strings"
	"testing"

	"github.com/funvibe/qirlower/internal/rir"
)

// run replays a lowered program with the given measurement outcomes,
// indexed by result id. It returns the recorded output, one entry per
// record call ("int 3", "array 2", "result 1"), and the result ids in the
// order the measurements executed.
func run(t *testing.T, p *rir.Program, outcomes []bool) (out []string, measured []uint32) {
	t.Helper()
	vars := map[rir.VariableID]rir.Literal{}
	results := map[uint32]bool{}

	value := func(o rir.Operand) rir.Literal {
		switch o := o.(type) {
		case rir.Literal:
			return o
		case rir.Variable:
			v, ok := vars[o.ID]
			if !ok {
				t.Fatalf("read of unset %s", o)
			}
			return v
		}
		t.Fatalf("unknown operand %T", o)
		return rir.Literal{}
	}

	entry, ok := p.EntryBlock()
	if !ok {
		t.Fatalf("program has no entry block")
	}
	block := entry
	for steps := 0; ; steps++ {
		if steps > 10000 {
			t.Fatalf("program does not terminate")
		}
		var next *rir.BlockID
		for _, inst := range p.GetBlock(block).Instructions {
			switch inst := inst.(type) {
			case *rir.Store:
				vars[inst.Var.ID] = value(inst.Operand)
			case *rir.Binary:
				vars[inst.Var.ID] = binary(t, inst.Op, value(inst.Lhs), value(inst.Rhs))
			case *rir.Icmp:
				vars[inst.Var.ID] = rir.BoolLit(icmp(inst.Cond, scalar(value(inst.Lhs)), scalar(value(inst.Rhs))))
			case *rir.Fcmp:
				vars[inst.Var.ID] = rir.BoolLit(fcmp(inst.Cond, value(inst.Lhs).Double, value(inst.Rhs).Double))
			case *rir.Unary:
				v := value(inst.Operand)
				if inst.Op == rir.LogicalNot {
					vars[inst.Var.ID] = rir.BoolLit(!v.Bool)
				} else {
					vars[inst.Var.ID] = rir.IntegerLit(^v.Integer)
				}
			case *rir.Call:
				c := p.GetCallable(inst.Callee)
				switch c.CallType {
				case rir.Measurement:
					r := inst.Args[len(inst.Args)-1].(rir.Literal).Index
					if int(r) >= len(outcomes) {
						t.Fatalf("result %d has no outcome", r)
					}
					results[r] = outcomes[r]
					measured = append(measured, r)
				case rir.Readout:
					r := inst.Args[0].(rir.Literal).Index
					vars[inst.Var.ID] = rir.BoolLit(results[r])
				case rir.OutputRecording:
					kind := strings.TrimSuffix(strings.TrimPrefix(c.Name, "__quantum__rt__"), "_record_output")
					out = append(out, kind+" "+render(kind, value(inst.Args[0]), results))
				}
			case *rir.Jump:
				target := inst.Target
				next = &target
			case *rir.Branch:
				target := inst.False
				if value(inst.Cond).Bool {
					target = inst.True
				}
				next = &target
			case *rir.Return:
				return out, measured
			default:
				t.Fatalf("cannot replay %s", inst)
			}
		}
		if next == nil {
			t.Fatalf("block %d falls through", block)
		}
		block = *next
	}
}

// scalar widens bools so Icmp can compare either kind.
func scalar(l rir.Literal) int64 {
	if l.Kind == rir.LitBool {
		if l.Bool {
			return 1
		}
		return 0
	}
	return l.Integer
}

func binary(t *testing.T, op rir.BinaryOp, a, b rir.Literal) rir.Literal {
	switch op {
	case rir.Add:
		return rir.IntegerLit(a.Integer + b.Integer)
	case rir.Sub:
		return rir.IntegerLit(a.Integer - b.Integer)
	case rir.Mul:
		return rir.IntegerLit(a.Integer * b.Integer)
	case rir.Sdiv:
		return rir.IntegerLit(a.Integer / b.Integer)
	case rir.Srem:
		return rir.IntegerLit(a.Integer % b.Integer)
	case rir.Shl:
		return rir.IntegerLit(a.Integer << uint64(b.Integer))
	case rir.Ashr:
		return rir.IntegerLit(a.Integer >> uint64(b.Integer))
	case rir.BitwiseAnd:
		return rir.IntegerLit(a.Integer & b.Integer)
	case rir.BitwiseOr:
		return rir.IntegerLit(a.Integer | b.Integer)
	case rir.BitwiseXor:
		return rir.IntegerLit(a.Integer ^ b.Integer)
	case rir.Fadd:
		return rir.DoubleLit(a.Double + b.Double)
	case rir.Fsub:
		return rir.DoubleLit(a.Double - b.Double)
	case rir.Fmul:
		return rir.DoubleLit(a.Double * b.Double)
	case rir.Fdiv:
		return rir.DoubleLit(a.Double / b.Double)
	case rir.LogicalAnd:
		return rir.BoolLit(a.Bool && b.Bool)
	case rir.LogicalOr:
		return rir.BoolLit(a.Bool || b.Bool)
	}
	t.Fatalf("cannot replay %s", op)
	return rir.Literal{}
}

func icmp(c rir.ConditionCode, a, b int64) bool {
	switch c {
	case rir.Eq:
		return a == b
	case rir.Ne:
		return a != b
	case rir.Slt:
		return a < b
	case rir.Sle:
		return a <= b
	case rir.Sgt:
		return a > b
	}
	return a >= b
}

func fcmp(c rir.FcmpConditionCode, a, b float64) bool {
	switch c {
	case rir.Oeq:
		return a == b
	case rir.One:
		return a != b
	case rir.Olt:
		return a < b
	case rir.Ole:
		return a <= b
	case rir.Ogt:
		return a > b
	}
	return a >= b
}

func render(kind string, l rir.Literal, results map[uint32]bool) string {
	switch kind {
	case "result":
		if results[l.Index] {
			return "One"
		}
		return "Zero"
	case "bool":
		return fmt.Sprint(l.Bool)
	case "double":
		return fmt.Sprint(l.Double)
	}
	return fmt.Sprint(l.Integer)
}

// outcomesOf enumerates every assignment of measurement outcomes.
func outcomesOf(p *rir.Program) [][]bool {
	n := int(p.NumResults)
	all := make([][]bool, 0, 1<<n)
	for mask := 0; mask < 1<<n; mask++ {
		o := make([]bool, n)
		for i := range o {
			o[i] = mask&(1<<i) != 0
		}
		all = append(all, o)
	}
	return all
}
