package simplify

import (
	"fmt"

	"symreg/internal/op"
	"symreg/internal/program"
)

// LocalStrategy is the always-available fast pass: constant-rooted operator
// rows collapse into unbound constant terminals, dead rows are dropped, and
// the survivors are re-packed contiguously with their operand indices
// rewritten. Folded constants come out with slot -1; the renumbering step of
// the update pipeline binds them.
type LocalStrategy struct{}

func (LocalStrategy) Name() string { return "local" }

func (LocalStrategy) Simplify(p program.Program) (program.Program, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if len(p) == 0 {
		return program.Program{}, nil
	}
	return repack(foldConstantRows(p)), nil
}

// foldConstantRows rewrites every operator row whose operands are all rooted
// in constant terminals as a single unbound constant terminal. The operand
// rows are left in place; the re-pack pass drops them once nothing refers to
// them.
func foldConstantRows(p program.Program) program.Program {
	out := p.Clone()
	constRooted := make([]bool, len(out))
	for j, cmd := range out {
		switch {
		case cmd.Op == op.Constant:
			constRooted[j] = true
		case cmd.Op == op.Variable:
		default:
			info, err := op.Lookup(cmd.Op)
			if err != nil {
				continue
			}
			rooted := constRooted[cmd.Arg1]
			if info.Arity == 2 {
				rooted = rooted && constRooted[cmd.Arg2]
			}
			if rooted {
				out[j] = program.Command{Op: op.Constant, Arg1: -1, Arg2: -1}
				constRooted[j] = true
			}
		}
	}
	return out
}

// repack drops dead rows and rewrites operand indices onto the packed layout.
func repack(p program.Program) program.Program {
	used := program.UtilizedRows(p)
	remap := make([]int, len(p))
	out := make(program.Program, 0, len(p))
	for j, cmd := range p {
		if !used[j] {
			continue
		}
		if !cmd.Op.IsTerminal() {
			cmd.Arg1 = remap[cmd.Arg1]
			if info, err := op.Lookup(cmd.Op); err == nil && info.Arity == 2 {
				cmd.Arg2 = remap[cmd.Arg2]
			}
		}
		remap[j] = len(out)
		out = append(out, cmd)
	}
	return out
}

func validateResult(name string, p program.Program) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("%s strategy produced invalid program: %w", name, err)
	}
	return nil
}
