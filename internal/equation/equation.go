// Package equation holds the individual of the symbolic-regression search:
// one raw program, its derived simplified form and constants vector, and the
// lazy update protocol keeping them coherent under external mutation.
package equation

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"symreg/internal/constants"
	"symreg/internal/eval"
	"symreg/internal/program"
	"symreg/internal/render"
	"symreg/internal/simplify"
)

// FitnessNotSet is the sentinel stored while no fitness has been assigned.
// The fit-set flag is authoritative; the sentinel only keeps an unset value
// from masquerading as a good one.
const FitnessNotSet = 1e9

// Config fixes the simplification strategy and constants policy for the
// lifetime of the equation. Zero values select the local strategy and the
// conservative policy.
type Config struct {
	Simplifier simplify.Strategy
	Policy     constants.ResizePolicy
}

// Equation owns a raw program plus derived caches. The derived state is
// recomputed lazily: a raw-program write marks the equation stale, and the
// first derived accessor afterwards runs the simplify/renumber/reconcile
// pipeline exactly once. Not safe for concurrent use; confine each instance
// to one worker.
type Equation struct {
	raw        program.Program
	simplified program.Program
	consts     []float64
	needsOpt   bool
	fitness    float64
	fitSet     bool
	age        int
	stale      bool
	simplifier simplify.Strategy
	policy     constants.ResizePolicy
}

func New(cfg Config) *Equation {
	if cfg.Simplifier == nil {
		cfg.Simplifier = simplify.LocalStrategy{}
	}
	if cfg.Policy == nil {
		cfg.Policy = constants.ConservativePolicy{}
	}
	return &Equation{
		raw:        program.Program{},
		simplified: program.Program{},
		consts:     []float64{},
		fitness:    FitnessNotSet,
		simplifier: cfg.Simplifier,
		policy:     cfg.Policy,
	}
}

// Program returns a copy of the raw program; mutate it and write it back
// through SetProgram.
func (e *Equation) Program() program.Program { return e.raw.Clone() }

// SetProgram replaces the raw program, invalidating fitness and marking the
// derived caches stale. Malformed programs are rejected outright; tolerating
// them would corrupt the derived state.
func (e *Equation) SetProgram(p program.Program) error {
	if err := p.Validate(); err != nil {
		return err
	}
	e.raw = p.Clone()
	e.stale = true
	e.fitness = FitnessNotSet
	e.fitSet = false
	return nil
}

// refresh runs the derivation pipeline when the caches are stale.
func (e *Equation) refresh() error {
	if !e.stale {
		return nil
	}
	simplified, err := e.simplifier.Simplify(e.raw)
	if err != nil {
		return fmt.Errorf("simplify program: %w", err)
	}
	count := program.RenumberConstants(simplified)
	values, needsOpt := e.policy.Reconcile(e.consts, count)
	e.simplified = simplified
	e.consts = values
	if needsOpt {
		e.needsOpt = true
	}
	e.stale = false
	return nil
}

func (e *Equation) Fitness() float64 { return e.fitness }

func (e *Equation) SetFitness(v float64) {
	e.fitness = v
	e.fitSet = true
}

func (e *Equation) FitnessSet() bool       { return e.fitSet }
func (e *Equation) SetFitnessSet(set bool) { e.fitSet = set }
func (e *Equation) Age() int               { return e.age }
func (e *Equation) SetAge(age int)         { e.age = age }
func (e *Equation) SimplifierName() string { return e.simplifier.Name() }
func (e *Equation) PolicyName() string     { return e.policy.Name() }

// NeedsLocalOptimization reports whether the constants vector holds reset
// values the external fitter still has to optimize.
func (e *Equation) NeedsLocalOptimization() (bool, error) {
	if err := e.refresh(); err != nil {
		return false, err
	}
	return e.needsOpt, nil
}

// LocalOptimizationParamCount reports how many constants the fitter would
// optimize.
func (e *Equation) LocalOptimizationParamCount() (int, error) {
	if err := e.refresh(); err != nil {
		return 0, err
	}
	return len(e.consts), nil
}

// Constants returns a copy of the current constants vector without touching
// the derived caches.
func (e *Equation) Constants() []float64 {
	return append([]float64{}, e.consts...)
}

// SetConstants installs externally fitted values and clears the
// needs-optimization flag. The caller owns the renumbering contract: values
// must line up with the simplified program's constant slots.
func (e *Equation) SetConstants(values []float64) {
	e.consts = append([]float64{}, values...)
	e.needsOpt = false
}

// EvaluateAt computes the equation value per sample row of x.
func (e *Equation) EvaluateAt(x *mat.Dense) (*mat.VecDense, error) {
	if err := e.refresh(); err != nil {
		return nil, err
	}
	return eval.Values(e.simplified, x, e.consts)
}

// GradientAt computes values plus the Jacobian with respect to the chosen
// target. The constants target is the gradient source for local optimization.
func (e *Equation) GradientAt(x *mat.Dense, target eval.Target) (*mat.VecDense, *mat.Dense, error) {
	if err := e.refresh(); err != nil {
		return nil, nil, err
	}
	return eval.ValuesAndJacobian(e.simplified, x, e.consts, target)
}

// Complexity is the simplified program's row count.
func (e *Equation) Complexity() (int, error) {
	if err := e.refresh(); err != nil {
		return 0, err
	}
	return len(e.simplified), nil
}

// Distance counts differing raw-program rows: a genotypic measure, so the
// simplified forms deliberately play no part.
func (e *Equation) Distance(other *Equation) int {
	return program.Distance(e.raw, other.raw)
}

// UtilizedRows reports liveness over the raw program.
func (e *Equation) UtilizedRows() []bool {
	return program.UtilizedRows(e.raw)
}

// Format renders the equation. The raw view prints the raw program with
// constant placeholders and never triggers derivation; the simplified view
// derives first and attaches the constants vector.
func (e *Equation) Format(notation string, raw bool) (string, error) {
	if raw {
		return render.Format(notation, e.raw, nil)
	}
	if err := e.refresh(); err != nil {
		return "", err
	}
	return render.Format(notation, e.simplified, e.consts)
}

// Clone returns a deep, independent copy sharing no storage with the
// original. The strategy and policy values are shared; both are stateless or
// internally synchronized.
func (e *Equation) Clone() *Equation {
	return &Equation{
		raw:        e.raw.Clone(),
		simplified: e.simplified.Clone(),
		consts:     append([]float64{}, e.consts...),
		needsOpt:   e.needsOpt,
		fitness:    e.fitness,
		fitSet:     e.fitSet,
		age:        e.age,
		stale:      e.stale,
		simplifier: e.simplifier,
		policy:     e.policy,
	}
}
