package equation

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"symreg/internal/eval"
	"symreg/internal/op"
	"symreg/internal/program"
	"symreg/internal/simplify"
)

type countingStrategy struct {
	inner simplify.Strategy
	calls int
}

func (c *countingStrategy) Name() string { return c.inner.Name() }

func (c *countingStrategy) Simplify(p program.Program) (program.Program, error) {
	c.calls++
	return c.inner.Simplify(p)
}

func TestEvaluateSingleVariable(t *testing.T) {
	eq := New(Config{})
	p := program.Program{{Op: op.Variable, Arg1: 0, Arg2: 0}}
	if err := eq.SetProgram(p); err != nil {
		t.Fatalf("set program failed: %v", err)
	}

	x := mat.NewDense(2, 1, []float64{2, 3})
	got, err := eq.EvaluateAt(x)
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if got.AtVec(0) != 2 || got.AtVec(1) != 3 {
		t.Fatalf("expected [2 3], got=%v", mat.Formatted(got))
	}

	complexity, err := eq.Complexity()
	if err != nil {
		t.Fatalf("complexity failed: %v", err)
	}
	if complexity != 1 {
		t.Fatalf("expected complexity 1, got=%d", complexity)
	}
	if d := eq.Distance(New(Config{})); d != 1 {
		t.Fatalf("expected distance 1 to empty equation, got=%d", d)
	}
}

func TestPipelineRunsOncePerStalenessPeriod(t *testing.T) {
	strategy := &countingStrategy{inner: simplify.LocalStrategy{}}
	eq := New(Config{Simplifier: strategy})
	if err := eq.SetProgram(program.Program{{Op: op.Variable, Arg1: 0}}); err != nil {
		t.Fatalf("set program failed: %v", err)
	}

	x := mat.NewDense(1, 1, []float64{1})
	if _, err := eq.EvaluateAt(x); err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if _, err := eq.Complexity(); err != nil {
		t.Fatalf("complexity failed: %v", err)
	}
	if _, err := eq.NeedsLocalOptimization(); err != nil {
		t.Fatalf("needs-opt failed: %v", err)
	}
	if strategy.calls != 1 {
		t.Fatalf("expected 1 simplification, got=%d", strategy.calls)
	}

	if err := eq.SetProgram(program.Program{{Op: op.Variable, Arg1: 0}, {Op: op.Sin, Arg1: 0}}); err != nil {
		t.Fatalf("set program failed: %v", err)
	}
	if _, err := eq.EvaluateAt(x); err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if strategy.calls != 2 {
		t.Fatalf("expected 2 simplifications, got=%d", strategy.calls)
	}
}

func TestMetadataAccessorsDoNotDerive(t *testing.T) {
	strategy := &countingStrategy{inner: simplify.LocalStrategy{}}
	eq := New(Config{Simplifier: strategy})
	if err := eq.SetProgram(program.Program{{Op: op.Variable, Arg1: 0}}); err != nil {
		t.Fatalf("set program failed: %v", err)
	}

	eq.SetFitness(0.5)
	_ = eq.Fitness()
	_ = eq.FitnessSet()
	eq.SetAge(3)
	_ = eq.Age()
	_ = eq.Constants()
	_ = eq.UtilizedRows()
	if strategy.calls != 0 {
		t.Fatalf("expected no derivation from metadata accessors, got=%d", strategy.calls)
	}
}

func TestSetProgramClearsFitness(t *testing.T) {
	eq := New(Config{})
	if err := eq.SetProgram(program.Program{{Op: op.Variable, Arg1: 0}}); err != nil {
		t.Fatalf("set program failed: %v", err)
	}
	eq.SetFitness(0.25)
	if !eq.FitnessSet() || eq.Fitness() != 0.25 {
		t.Fatalf("expected fitness set, got set=%v value=%f", eq.FitnessSet(), eq.Fitness())
	}

	if err := eq.SetProgram(program.Program{{Op: op.Variable, Arg1: 0}, {Op: op.Cos, Arg1: 0}}); err != nil {
		t.Fatalf("set program failed: %v", err)
	}
	if eq.FitnessSet() {
		t.Fatal("expected fitness-set flag cleared by program write")
	}
	if eq.Fitness() != FitnessNotSet {
		t.Fatalf("expected fitness sentinel, got=%f", eq.Fitness())
	}

	x := mat.NewDense(1, 1, []float64{0})
	got, err := eq.EvaluateAt(x)
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if math.Abs(got.AtVec(0)-1) > 1e-12 {
		t.Fatalf("expected new program's output cos(0)=1, got=%f", got.AtVec(0))
	}
}

func TestSetProgramRejectsMalformed(t *testing.T) {
	eq := New(Config{})
	p := program.Program{{Op: op.Add, Arg1: 0, Arg2: 1}}
	if err := eq.SetProgram(p); err == nil {
		t.Fatal("expected error for malformed program")
	}
}

func TestConstantsLifecycle(t *testing.T) {
	eq := New(Config{})
	p := program.Program{
		{Op: op.Constant, Arg1: -1, Arg2: -1},
		{Op: op.Variable, Arg1: 0},
		{Op: op.Add, Arg1: 0, Arg2: 1},
	}
	if err := eq.SetProgram(p); err != nil {
		t.Fatalf("set program failed: %v", err)
	}

	needsOpt, err := eq.NeedsLocalOptimization()
	if err != nil {
		t.Fatalf("needs-opt failed: %v", err)
	}
	if !needsOpt {
		t.Fatal("expected needs-opt after constants grew from zero")
	}
	count, err := eq.LocalOptimizationParamCount()
	if err != nil {
		t.Fatalf("param count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 parameter, got=%d", count)
	}
	if got := eq.Constants(); len(got) != 1 || got[0] != 1 {
		t.Fatalf("expected reset vector [1], got=%v", got)
	}

	eq.SetConstants([]float64{5})
	needsOpt, err = eq.NeedsLocalOptimization()
	if err != nil {
		t.Fatalf("needs-opt failed: %v", err)
	}
	if needsOpt {
		t.Fatal("expected needs-opt cleared by SetConstants")
	}

	x := mat.NewDense(1, 1, []float64{1})
	vals, jac, err := eq.GradientAt(x, eval.Constants)
	if err != nil {
		t.Fatalf("gradient failed: %v", err)
	}
	if math.Abs(vals.AtVec(0)-6) > 1e-12 {
		t.Fatalf("expected 6, got=%f", vals.AtVec(0))
	}
	if math.Abs(jac.At(0, 0)-1) > 1e-12 {
		t.Fatalf("expected d/dc0 = 1, got=%f", jac.At(0, 0))
	}
}

func TestConstantsPreservedWhenCountShrinks(t *testing.T) {
	eq := New(Config{})
	withTwo := program.Program{
		{Op: op.Constant, Arg1: -1, Arg2: -1},
		{Op: op.Variable, Arg1: 0},
		{Op: op.Multiply, Arg1: 0, Arg2: 1},
		{Op: op.Constant, Arg1: -1, Arg2: -1},
		{Op: op.Add, Arg1: 2, Arg2: 3},
	}
	if err := eq.SetProgram(withTwo); err != nil {
		t.Fatalf("set program failed: %v", err)
	}
	if _, err := eq.NeedsLocalOptimization(); err != nil {
		t.Fatalf("needs-opt failed: %v", err)
	}
	eq.SetConstants([]float64{2.5, 0.5})

	withOne := program.Program{
		{Op: op.Constant, Arg1: -1, Arg2: -1},
		{Op: op.Variable, Arg1: 0},
		{Op: op.Multiply, Arg1: 0, Arg2: 1},
	}
	if err := eq.SetProgram(withOne); err != nil {
		t.Fatalf("set program failed: %v", err)
	}
	needsOpt, err := eq.NeedsLocalOptimization()
	if err != nil {
		t.Fatalf("needs-opt failed: %v", err)
	}
	if needsOpt {
		t.Fatal("expected conservative truncation to keep needs-opt false")
	}
	if got := eq.Constants(); len(got) != 1 || got[0] != 2.5 {
		t.Fatalf("expected truncated vector [2.5], got=%v", got)
	}
}

func TestFormatRawAndSimplified(t *testing.T) {
	eq := New(Config{})
	p := program.Program{
		{Op: op.Constant, Arg1: -1, Arg2: -1},
		{Op: op.Variable, Arg1: 0},
		{Op: op.Add, Arg1: 0, Arg2: 1},
	}
	if err := eq.SetProgram(p); err != nil {
		t.Fatalf("set program failed: %v", err)
	}

	raw, err := eq.Format("console", true)
	if err != nil {
		t.Fatalf("format raw failed: %v", err)
	}
	if raw != "? + X_0" {
		t.Fatalf("expected %q, got=%q", "? + X_0", raw)
	}

	eq.SetConstants([]float64{5})
	// SetConstants runs before derivation here, so the reset value never
	// shows: derivation reconciles against the injected vector.
	simplified, err := eq.Format("console", false)
	if err != nil {
		t.Fatalf("format simplified failed: %v", err)
	}
	if simplified != "5 + X_0" {
		t.Fatalf("expected %q, got=%q", "5 + X_0", simplified)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	eq := New(Config{})
	if err := eq.SetProgram(program.Program{{Op: op.Variable, Arg1: 0}}); err != nil {
		t.Fatalf("set program failed: %v", err)
	}
	x := mat.NewDense(1, 1, []float64{4})
	if _, err := eq.EvaluateAt(x); err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	eq.SetFitness(0.1)

	clone := eq.Clone()
	if err := clone.SetProgram(program.Program{{Op: op.Variable, Arg1: 0}, {Op: op.Sin, Arg1: 0}}); err != nil {
		t.Fatalf("set program failed: %v", err)
	}
	if _, err := clone.EvaluateAt(x); err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}

	if !eq.FitnessSet() || eq.Fitness() != 0.1 {
		t.Fatal("expected original fitness untouched by clone mutation")
	}
	got, err := eq.EvaluateAt(x)
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if got.AtVec(0) != 4 {
		t.Fatalf("expected original output 4, got=%f", got.AtVec(0))
	}
}

func TestDumpAndRestoreVerbatim(t *testing.T) {
	eq := New(Config{})
	if err := eq.SetProgram(program.Program{
		{Op: op.Constant, Arg1: -1, Arg2: -1},
		{Op: op.Variable, Arg1: 0},
		{Op: op.Add, Arg1: 0, Arg2: 1},
	}); err != nil {
		t.Fatalf("set program failed: %v", err)
	}
	x := mat.NewDense(1, 1, []float64{1})
	if _, err := eq.EvaluateAt(x); err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	eq.SetConstants([]float64{7})
	eq.SetFitness(0.9)
	eq.SetAge(4)

	state := eq.DumpState()
	restored, err := RestoreState(state)
	if err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	if restored.Fitness() != 0.9 || !restored.FitnessSet() || restored.Age() != 4 {
		t.Fatal("expected metadata restored verbatim")
	}
	if got := restored.Constants(); len(got) != 1 || got[0] != 7 {
		t.Fatalf("expected constants [7], got=%v", got)
	}
	if restored.Distance(eq) != 0 {
		t.Fatal("expected identical raw programs")
	}
	got, err := restored.EvaluateAt(x)
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if math.Abs(got.AtVec(0)-8) > 1e-12 {
		t.Fatalf("expected 8, got=%f", got.AtVec(0))
	}
}

func TestRestoreDoesNotRecompute(t *testing.T) {
	// The snapshot is trusted verbatim: a cache that disagrees with the raw
	// program survives the restore untouched.
	state := State{
		Raw:        program.Program{{Op: op.Variable, Arg1: 0}},
		Simplified: program.Program{{Op: op.Variable, Arg1: 1}},
		Constants:  []float64{},
		Fitness:    FitnessNotSet,
		Simplifier: "local",
		Policy:     "conservative",
	}
	restored, err := RestoreState(state)
	if err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	x := mat.NewDense(1, 2, []float64{3, 9})
	got, err := restored.EvaluateAt(x)
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if got.AtVec(0) != 9 {
		t.Fatalf("expected snapshot cache to drive evaluation, got=%f", got.AtVec(0))
	}
}

func TestRestoreRejectsUnknownStrategy(t *testing.T) {
	if _, err := RestoreState(State{Simplifier: "bogus", Policy: "conservative"}); err == nil {
		t.Fatal("expected error for unknown strategy name")
	}
	if _, err := RestoreState(State{Simplifier: "local", Policy: "bogus"}); err == nil {
		t.Fatal("expected error for unknown policy name")
	}
}

func TestOverflowYieldsNaNThroughEquation(t *testing.T) {
	eq := New(Config{})
	p := program.Program{
		{Op: op.Variable, Arg1: 0},
		{Op: op.Constant, Arg1: -1, Arg2: -1},
		{Op: op.Divide, Arg1: 0, Arg2: 1},
	}
	if err := eq.SetProgram(p); err != nil {
		t.Fatalf("set program failed: %v", err)
	}
	eq.SetConstants([]float64{1e-300})

	x := mat.NewDense(2, 1, []float64{1e10, 2e10})
	got, err := eq.EvaluateAt(x)
	if err != nil {
		t.Fatalf("expected NaN fill without error, got=%v", err)
	}
	if got.Len() != 2 || !math.IsNaN(got.AtVec(0)) || !math.IsNaN(got.AtVec(1)) {
		t.Fatalf("expected NaN column of 2, got=%v", mat.Formatted(got))
	}
}

func TestEmptyEquationDegenerate(t *testing.T) {
	eq := New(Config{})
	x := mat.NewDense(2, 1, []float64{1, 2})
	got, err := eq.EvaluateAt(x)
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if got.AtVec(0) != 0 || got.AtVec(1) != 0 {
		t.Fatalf("expected zero output, got=%v", mat.Formatted(got))
	}
	complexity, err := eq.Complexity()
	if err != nil {
		t.Fatalf("complexity failed: %v", err)
	}
	if complexity != 0 {
		t.Fatalf("expected complexity 0, got=%d", complexity)
	}
}
