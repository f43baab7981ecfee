// Package render formats programs into human-readable text. Notation-specific
// layout lives here so the equation orchestrator stays free of string logic.
package render

import (
	"fmt"
	"strconv"
	"strings"

	"symreg/internal/program"
)

// NormalizeNotation canonicalizes a notation name.
func NormalizeNotation(name string) string {
	n := strings.TrimSpace(strings.ToLower(name))
	switch n {
	case "", "infix", "text":
		return "console"
	case "tex":
		return "latex"
	case "rows", "ir":
		return "stack"
	}
	return n
}

// Format renders the program in the requested notation. A nil constants
// vector renders the raw view: bound constant slots appear as C_i
// placeholders and unbound slots as "?". With a constants vector attached,
// constant rows show their numeric value.
func Format(notation string, p program.Program, consts []float64) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}
	switch NormalizeNotation(notation) {
	case "console":
		return formatInfix(p, consts, consoleForms)
	case "latex":
		return formatInfix(p, consts, latexForms)
	case "stack":
		return formatStack(p, consts)
	default:
		return "", fmt.Errorf("unsupported notation: %s", notation)
	}
}

func constantLabel(slot int, consts []float64) string {
	if slot < 0 {
		return "?"
	}
	if consts == nil || slot >= len(consts) {
		return fmt.Sprintf("C_%d", slot)
	}
	return strconv.FormatFloat(consts[slot], 'g', -1, 64)
}
