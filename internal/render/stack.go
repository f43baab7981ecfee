package render

import (
	"fmt"
	"strings"

	"symreg/internal/op"
	"symreg/internal/program"
)

// formatStack prints the IR one row per line, mirroring the command layout
// rather than the expression shape.
func formatStack(p program.Program, consts []float64) (string, error) {
	var b strings.Builder
	for j, cmd := range p {
		if j > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "(%d) <= ", j)
		switch cmd.Op {
		case op.Variable:
			fmt.Fprintf(&b, "X_%d", cmd.Arg1)
		case op.Constant:
			b.WriteString(stackConstant(cmd.Arg1, consts))
		default:
			info, err := op.Lookup(cmd.Op)
			if err != nil {
				return "", fmt.Errorf("row %d: %w", j, err)
			}
			switch {
			case info.Arity == 2 && info.Infix != "":
				fmt.Fprintf(&b, "(%d) %s (%d)", cmd.Arg1, info.Infix, cmd.Arg2)
			case info.Arity == 2:
				fmt.Fprintf(&b, "%s((%d), (%d))", info.Name, cmd.Arg1, cmd.Arg2)
			default:
				fmt.Fprintf(&b, "%s((%d))", info.Name, cmd.Arg1)
			}
		}
	}
	return b.String(), nil
}

func stackConstant(slot int, consts []float64) string {
	if slot < 0 {
		return "?"
	}
	if consts == nil || slot >= len(consts) {
		return fmt.Sprintf("C_%d", slot)
	}
	return fmt.Sprintf("C_%d = %s", slot, constantLabel(slot, consts))
}
