package program

import (
	"errors"
	"fmt"

	"symreg/internal/op"
)

var ErrInvalidProgram = errors.New("invalid program")

// Command is one row of a stack program: an opcode plus two integer operands.
// Terminal rows index external data through Arg1 (the feature column for
// variables, the constants-vector slot for constants). Operator rows
// reference earlier rows through their arguments.
type Command struct {
	Op   op.Code `json:"op"`
	Arg1 int     `json:"arg1"`
	Arg2 int     `json:"arg2"`
}

func (c Command) String() string {
	return fmt.Sprintf("(%s, %d, %d)", c.Op, c.Arg1, c.Arg2)
}

// Program is an ordered command sequence. A row may reference only rows
// strictly before it, so the sequence is acyclic by construction. The final
// row is the program output.
type Program []Command

// Clone copies the program. Emptiness is preserved: a nil program clones to
// nil, an allocated empty one to an allocated empty one, so snapshots
// round-trip verbatim.
func (p Program) Clone() Program {
	if p == nil {
		return nil
	}
	out := make(Program, len(p))
	copy(out, p)
	return out
}

func Equal(a, b Program) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Validate checks the structural well-formedness of every row: opcodes must
// be registered, operator arguments must point strictly backward, variable
// rows must carry a non-negative feature index, and constant rows may carry
// -1 only as the unbound placeholder. Data-dependent checks (feature count,
// constants-vector length) belong to evaluation.
func (p Program) Validate() error {
	for j, cmd := range p {
		info, err := op.Lookup(cmd.Op)
		if err != nil {
			return fmt.Errorf("%w: row %d: %v", ErrInvalidProgram, j, err)
		}
		switch {
		case cmd.Op == op.Variable:
			if cmd.Arg1 < 0 {
				return fmt.Errorf("%w: row %d: negative feature index %d", ErrInvalidProgram, j, cmd.Arg1)
			}
		case cmd.Op == op.Constant:
			if cmd.Arg1 < -1 {
				return fmt.Errorf("%w: row %d: constant slot %d", ErrInvalidProgram, j, cmd.Arg1)
			}
		default:
			if cmd.Arg1 < 0 || cmd.Arg1 >= j {
				return fmt.Errorf("%w: row %d references row %d", ErrInvalidProgram, j, cmd.Arg1)
			}
			if info.Arity == 2 && (cmd.Arg2 < 0 || cmd.Arg2 >= j) {
				return fmt.Errorf("%w: row %d references row %d", ErrInvalidProgram, j, cmd.Arg2)
			}
		}
	}
	return nil
}
