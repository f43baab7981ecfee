package benchmark

import (
	"math"
	"math/rand"

	"symreg/internal/dataset"
)

// koza-1: x^4 + x^3 + x^2 + x on [-1, 1].
type kozaProblem struct{}

func (kozaProblem) Name() string  { return "koza-1" }
func (kozaProblem) Features() int { return 1 }

func (kozaProblem) Target(x []float64) float64 {
	v := x[0]
	return v*v*v*v + v*v*v + v*v + v
}

func (p kozaProblem) Sample(rng *rand.Rand, samples int) (dataset.Table, error) {
	return uniformSample(p, rng, samples, -1, 1)
}

// nguyen-5: sin(x^2) * cos(x) - 1 on [-1, 1].
type nguyenProblem struct{}

func (nguyenProblem) Name() string  { return "nguyen-5" }
func (nguyenProblem) Features() int { return 1 }

func (nguyenProblem) Target(x []float64) float64 {
	v := x[0]
	return math.Sin(v*v)*math.Cos(v) - 1
}

func (p nguyenProblem) Sample(rng *rand.Rand, samples int) (dataset.Table, error) {
	return uniformSample(p, rng, samples, -1, 1)
}

// pagie-1: 1/(1+x^-4) + 1/(1+y^-4) on [-5, 5]^2.
type pagieProblem struct{}

func (pagieProblem) Name() string  { return "pagie-1" }
func (pagieProblem) Features() int { return 2 }

func (pagieProblem) Target(x []float64) float64 {
	a, b := x[0], x[1]
	return 1/(1+math.Pow(a, -4)) + 1/(1+math.Pow(b, -4))
}

func (p pagieProblem) Sample(rng *rand.Rand, samples int) (dataset.Table, error) {
	return uniformSample(p, rng, samples, -5, 5)
}

// keijzer-6: sum_{i=1..floor(x)} 1/i, sampled on [1, 50].
type keijzerProblem struct{}

func (keijzerProblem) Name() string  { return "keijzer-6" }
func (keijzerProblem) Features() int { return 1 }

func (keijzerProblem) Target(x []float64) float64 {
	n := int(math.Floor(x[0]))
	var sum float64
	for i := 1; i <= n; i++ {
		sum += 1 / float64(i)
	}
	return sum
}

func (p keijzerProblem) Sample(rng *rand.Rand, samples int) (dataset.Table, error) {
	return uniformSample(p, rng, samples, 1, 50)
}
