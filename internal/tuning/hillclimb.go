package tuning

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"symreg/internal/equation"
)

// HillClimbFitter perturbs the constants vector directly: each attempt
// jitters random entries with an annealed spread and keeps the candidate
// only when it clears the acceptance margin. Gradient-free, so it also works
// where the MSE surface is NaN-pocked.
type HillClimbFitter struct {
	Rand              *rand.Rand
	Seed              int64
	Attempts          int
	Steps             int
	StepSize          float64
	PerturbationRange float64
	AnnealingFactor   float64
	MinImprovement    float64
	GoalMSE           float64
}

func NewHillClimbFitter(rng *rand.Rand) *HillClimbFitter {
	return &HillClimbFitter{
		Rand:              rng,
		Attempts:          60,
		Steps:             3,
		StepSize:          0.5,
		PerturbationRange: 1.0,
		AnnealingFactor:   0.9,
		GoalMSE:           1e-12,
	}
}

func (*HillClimbFitter) Name() string { return "hillclimb" }

func (f *HillClimbFitter) Fit(ctx context.Context, eq *equation.Equation, x *mat.Dense, y *mat.VecDense) (FitReport, error) {
	report := FitReport{IterationsPlanned: f.Attempts}
	if err := checkFitInputs(ctx, eq, x, y); err != nil {
		return report, err
	}
	if f.Steps <= 0 || f.StepSize <= 0 {
		return report, fmt.Errorf("steps and step size must be > 0")
	}

	rng := f.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(f.Seed))
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

	for attempt := 0; attempt < f.Attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.IterationsExecuted++

		candidate := append([]float64{}, best...)
		for s := 0; s < f.Steps; s++ {
			idx := rng.Intn(count)
			spread := f.StepSize * f.PerturbationRange * math.Pow(f.AnnealingFactor, float64(s))
			candidate[idx] += (rng.Float64()*2 - 1) * spread
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
		} else {
			report.Rejected++
		}

		report.History = append(report.History, bestMSE)
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
