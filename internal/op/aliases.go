package op

import "strings"

var operatorAliases = map[string]string{
	"+":           "add",
	"plus":        "add",
	"-":           "subtract",
	"minus":       "subtract",
	"sub":         "subtract",
	"*":           "multiply",
	"times":       "multiply",
	"mul":         "multiply",
	"/":           "divide",
	"div":         "divide",
	"^":           "pow",
	"power":       "pow",
	"ln":          "log",
	"logarithm":   "log",
	"exponential": "exp",
	"absolute":    "abs",
	"square-root": "sqrt",
	"safe-power":  "safe-pow",
	"safepow":     "safe-pow",
	"sine":        "sin",
	"cosine":      "cos",
	"var":         "variable",
	"x":           "variable",
	"const":       "constant",
	"c":           "constant",
}

// Normalize canonicalizes an operator name so configs can use common aliases
// and spellings interchangeably.
func Normalize(name string) string {
	n := strings.TrimSpace(strings.ToLower(name))
	n = strings.ReplaceAll(n, " ", "-")
	n = strings.ReplaceAll(n, "_", "-")
	if canonical, ok := operatorAliases[n]; ok {
		return canonical
	}
	return n
}
