package program

import "symreg/internal/op"

// UtilizedRows marks every row the final row depends on, including itself.
// The sweep runs backward so each row is visited once.
func UtilizedRows(p Program) []bool {
	used := make([]bool, len(p))
	if len(p) == 0 {
		return used
	}
	used[len(p)-1] = true
	for j := len(p) - 1; j >= 0; j-- {
		if !used[j] {
			continue
		}
		cmd := p[j]
		if cmd.Op.IsTerminal() {
			continue
		}
		info, err := op.Lookup(cmd.Op)
		if err != nil {
			continue
		}
		used[cmd.Arg1] = true
		if info.Arity == 2 {
			used[cmd.Arg2] = true
		}
	}
	return used
}

// MaxFeature returns the highest feature column any variable row reads, or
// -1 when the program reads no features.
func MaxFeature(p Program) int {
	max := -1
	for _, cmd := range p {
		if cmd.Op == op.Variable && cmd.Arg1 > max {
			max = cmd.Arg1
		}
	}
	return max
}
