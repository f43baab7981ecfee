// Package tuning fits an equation's constants vector against a dataset. It
// is the local-optimization collaborator of the equation core: it reads the
// needs-optimization flag and parameter count, pulls gradients from the
// constants-Jacobian entry point, and injects fitted values back through
// SetConstants.
package tuning

import (
	"context"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"

	"symreg/internal/equation"
)

// Fitter optimizes eq's constants to minimize mean squared error of the
// equation's output against y over the samples in x.
type Fitter interface {
	Name() string
	Fit(ctx context.Context, eq *equation.Equation, x *mat.Dense, y *mat.VecDense) (FitReport, error)
}

// FitReport summarizes one fitting run. History holds the best MSE after
// each iteration, for trace plotting.
type FitReport struct {
	IterationsPlanned  int       `json:"iterations_planned"`
	IterationsExecuted int       `json:"iterations_executed"`
	Evaluations        int       `json:"evaluations"`
	Accepted           int       `json:"accepted"`
	Rejected           int       `json:"rejected"`
	InitialMSE         float64   `json:"initial_mse"`
	FinalMSE           float64   `json:"final_mse"`
	GoalReached        bool      `json:"goal_reached"`
	History            []float64 `json:"history,omitempty"`
}

// MSE computes the mean squared error of eq at x against y. Numeric distress
// in the equation surfaces as +Inf, never as an error.
func MSE(eq *equation.Equation, x *mat.Dense, y *mat.VecDense) (float64, error) {
	predicted, err := eq.EvaluateAt(x)
	if err != nil {
		return 0, err
	}
	return mseOf(predicted, y), nil
}

func mseOf(predicted, y *mat.VecDense) float64 {
	var squaredErr float64
	for s := 0; s < y.Len(); s++ {
		delta := predicted.AtVec(s) - y.AtVec(s)
		if math.IsNaN(delta) {
			return math.Inf(1)
		}
		squaredErr += delta * delta
	}
	return squaredErr / float64(y.Len())
}

// NormalizeFitterName canonicalizes a fitter name.
func NormalizeFitterName(name string) string {
	n := strings.TrimSpace(strings.ToLower(name))
	n = strings.ReplaceAll(n, " ", "-")
	n = strings.ReplaceAll(n, "_", "-")
	switch n {
	case "", "grad", "descent", "gradient-descent":
		return "gradient"
	case "hill-climb", "climb", "perturb":
		return "hillclimb"
	}
	return n
}

// FromConfig builds a fitter by name with numeric overrides. Unknown
// parameter keys are rejected so config typos fail loudly.
func FromConfig(name string, params map[string]float64) (Fitter, error) {
	switch NormalizeFitterName(name) {
	case "gradient":
		f := NewGradientFitter()
		for key, value := range params {
			switch key {
			case "iterations":
				f.MaxIterations = int(value)
			case "step":
				f.StepSize = value
			case "backtracks":
				f.Backtracks = int(value)
			case "min_improvement":
				f.MinImprovement = value
			case "goal":
				f.GoalMSE = value
			default:
				return nil, fmt.Errorf("unsupported gradient fitter parameter: %s", key)
			}
		}
		return f, nil
	case "hillclimb":
		f := NewHillClimbFitter(nil)
		for key, value := range params {
			switch key {
			case "attempts":
				f.Attempts = int(value)
			case "steps":
				f.Steps = int(value)
			case "step":
				f.StepSize = value
			case "range":
				f.PerturbationRange = value
			case "annealing":
				f.AnnealingFactor = value
			case "min_improvement":
				f.MinImprovement = value
			case "goal":
				f.GoalMSE = value
			case "seed":
				f.Seed = int64(value)
			default:
				return nil, fmt.Errorf("unsupported hillclimb fitter parameter: %s", key)
			}
		}
		return f, nil
	default:
		return nil, fmt.Errorf("unsupported fitter: %s", name)
	}
}

func checkFitInputs(ctx context.Context, eq *equation.Equation, x *mat.Dense, y *mat.VecDense) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if eq == nil {
		return fmt.Errorf("equation is required")
	}
	if x == nil || y == nil {
		return fmt.Errorf("samples and targets are required")
	}
	samples, _ := x.Dims()
	if samples == 0 || y.Len() != samples {
		return fmt.Errorf("expected %d targets, got %d", samples, y.Len())
	}
	return nil
}
