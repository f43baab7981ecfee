package equation

import (
	"fmt"

	"symreg/internal/constants"
	"symreg/internal/program"
	"symreg/internal/simplify"
)

// State is a verbatim snapshot of every equation field. Restoring a state
// performs no recomputation; the snapshot is trusted as already consistent.
type State struct {
	Raw        program.Program `json:"raw"`
	Simplified program.Program `json:"simplified"`
	Constants  []float64       `json:"constants"`
	NeedsOpt   bool            `json:"needsOpt"`
	Fitness    float64         `json:"fitness"`
	FitSet     bool            `json:"fitSet"`
	Age        int             `json:"age"`
	Stale      bool            `json:"stale"`
	Simplifier string          `json:"simplifier"`
	Policy     string          `json:"policy"`
}

// DumpState captures the equation for cloning or checkpointing.
func (e *Equation) DumpState() State {
	return State{
		Raw:        e.raw.Clone(),
		Simplified: e.simplified.Clone(),
		Constants:  append([]float64{}, e.consts...),
		NeedsOpt:   e.needsOpt,
		Fitness:    e.fitness,
		FitSet:     e.fitSet,
		Age:        e.age,
		Stale:      e.stale,
		Simplifier: e.simplifier.Name(),
		Policy:     e.policy.Name(),
	}
}

// RestoreState rebuilds an equation from a snapshot, resolving the strategy
// and policy by name and copying every field verbatim.
func RestoreState(s State) (*Equation, error) {
	strategy, err := simplify.FromName(s.Simplifier)
	if err != nil {
		return nil, fmt.Errorf("restore state: %w", err)
	}
	policy, err := constants.FromName(s.Policy)
	if err != nil {
		return nil, fmt.Errorf("restore state: %w", err)
	}
	return &Equation{
		raw:        s.Raw.Clone(),
		simplified: s.Simplified.Clone(),
		consts:     append([]float64{}, s.Constants...),
		needsOpt:   s.NeedsOpt,
		fitness:    s.Fitness,
		fitSet:     s.FitSet,
		age:        s.Age,
		stale:      s.Stale,
		simplifier: strategy,
		policy:     policy,
	}, nil
}
