package program

// Distance counts the rows at which two programs disagree. Rows are compared
// positionally as whole commands, and every row past the shorter program
// counts as a disagreement, so the result is symmetric and zero only for
// equal programs.
func Distance(a, b Program) int {
	shorter := len(a)
	if len(b) < shorter {
		shorter = len(b)
	}
	d := 0
	for i := 0; i < shorter; i++ {
		if a[i] != b[i] {
			d++
		}
	}
	d += len(a) - shorter
	d += len(b) - shorter
	return d
}
