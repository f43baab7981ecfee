package simplify

import (
	"symreg/internal/program"
)

// Oracle is the thorough-simplification collaborator: it receives a raw
// program and returns an algebraically equivalent one in the same grammar.
// Oracles may be backed by anything, including out-of-process engines.
type Oracle interface {
	Name() string
	SimplifyProgram(p program.Program) (program.Program, error)
}

// AlgebraicStrategy is the thorough pass. It delegates to the configured
// oracle and falls back to the local strategy whenever the oracle fails or
// returns a structurally invalid program, so a broken collaborator never
// takes the host down.
type AlgebraicStrategy struct {
	Oracle Oracle
}

func (AlgebraicStrategy) Name() string { return "algebraic" }

func (s AlgebraicStrategy) Simplify(p program.Program) (program.Program, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	oracle := s.Oracle
	if oracle == nil {
		oracle = TreeOracle{}
	}
	simplified, err := oracle.SimplifyProgram(p)
	if err == nil && validateResult(oracle.Name(), simplified) == nil {
		return simplified, nil
	}
	return LocalStrategy{}.Simplify(p)
}
