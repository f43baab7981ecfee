// Package simplify canonicalizes stack programs. Two strategies share one
// contract: the result computes the same function as the input, references
// only earlier rows, and carries no dead rows.
package simplify

import (
	"fmt"
	"strings"

	"symreg/internal/program"
)

// Strategy produces a simplified program from a raw one. Implementations must
// return a valid program and must not mutate the input.
type Strategy interface {
	Name() string
	Simplify(p program.Program) (program.Program, error)
}

// NormalizeStrategyName canonicalizes a strategy name so configs can use
// common aliases interchangeably.
func NormalizeStrategyName(name string) string {
	n := strings.TrimSpace(strings.ToLower(name))
	n = strings.ReplaceAll(n, " ", "-")
	n = strings.ReplaceAll(n, "_", "-")
	switch n {
	case "", "fast", "dce":
		return "local"
	case "thorough", "symbolic", "cas":
		return "algebraic"
	}
	return n
}

func FromName(name string) (Strategy, error) {
	switch NormalizeStrategyName(name) {
	case "local":
		return LocalStrategy{}, nil
	case "algebraic":
		return AlgebraicStrategy{}, nil
	default:
		return nil, fmt.Errorf("unsupported simplifier strategy: %s", name)
	}
}
