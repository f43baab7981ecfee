package tuning

import (
	"context"

	"gonum.org/v1/gonum/mat"

	"symreg/internal/equation"
	"symreg/internal/eval"
)

// GradientFitter runs steepest descent on the MSE surface, pulling the
// gradient from the equation's constants-Jacobian entry point and halving
// the step on rejected moves.
type GradientFitter struct {
	MaxIterations  int
	StepSize       float64
	Backtracks     int
	MinImprovement float64
	GoalMSE        float64
}

func NewGradientFitter() *GradientFitter {
	return &GradientFitter{
		MaxIterations: 100,
		StepSize:      0.1,
		Backtracks:    8,
		GoalMSE:       1e-12,
	}
}

func (*GradientFitter) Name() string { return "gradient" }

func (f *GradientFitter) Fit(ctx context.Context, eq *equation.Equation, x *mat.Dense, y *mat.VecDense) (FitReport, error) {
	report := FitReport{IterationsPlanned: f.MaxIterations}
	if err := checkFitInputs(ctx, eq, x, y); err != nil {
		return report, err
	}

	count, err := eq.LocalOptimizationParamCount()
	if err != nil {
		return report, err
	}
	best := eq.Constants()
	bestMSE, err := MSE(eq, x, y)
	if err != nil {
		return report, err
	}
	report.Evaluations++
	report.InitialMSE = bestMSE
	report.FinalMSE = bestMSE
	if count == 0 {
		eq.SetConstants(best)
		report.GoalReached = bestMSE <= f.GoalMSE
		return report, nil
	}

	samples := y.Len()
	step := f.StepSize
	for iter := 0; iter < f.MaxIterations; iter++ {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.IterationsExecuted++

		predicted, jac, err := eq.GradientAt(x, eval.Constants)
		if err != nil {
			return report, err
		}
		grad := make([]float64, count)
		for s := 0; s < samples; s++ {
			residual := predicted.AtVec(s) - y.AtVec(s)
			for j := 0; j < count; j++ {
				grad[j] += 2 * residual * jac.At(s, j) / float64(samples)
			}
		}

		accepted := false
		for back := 0; back <= f.Backtracks; back++ {
			candidate := make([]float64, count)
			for j := range candidate {
				candidate[j] = best[j] - step*grad[j]
			}
			eq.SetConstants(candidate)
			candidateMSE, err := MSE(eq, x, y)
			if err != nil {
				return report, err
			}
			report.Evaluations++
			if candidateMSE < bestMSE-f.MinImprovement {
				best = candidate
				bestMSE = candidateMSE
				report.Accepted++
				accepted = true
				step *= 1.2
				break
			}
			report.Rejected++
			step /= 2
		}

		report.History = append(report.History, bestMSE)
		if !accepted {
			break
		}
		if bestMSE <= f.GoalMSE {
			report.GoalReached = true
			break
		}
	}

	eq.SetConstants(best)
	report.FinalMSE = bestMSE
	if bestMSE <= f.GoalMSE {
		report.GoalReached = true
	}
	return report, nil
}
