package program

import "symreg/internal/op"

// RenumberConstants rewrites every constant row in place so the rows index
// the constants vector contiguously from zero, in row order. Both arguments
// of each constant row are set to its ordinal. The return value is the
// number of constant rows, which is also the required constants-vector
// length.
func RenumberConstants(p Program) int {
	next := 0
	for j, cmd := range p {
		if cmd.Op != op.Constant {
			continue
		}
		p[j].Arg1 = next
		p[j].Arg2 = next
		next++
	}
	return next
}
