// Package benchmark registers the canonical symbolic-regression problems
// used to exercise and score equations.
package benchmark

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"
	"sync"

	"gonum.org/v1/gonum/mat"

	"symreg/internal/dataset"
	"symreg/internal/equation"
)

// Problem describes one benchmark: a target function over a fixed feature
// count plus a sampling scheme for building datasets.
type Problem interface {
	Name() string
	Features() int
	Target(x []float64) float64
	Sample(rng *rand.Rand, samples int) (dataset.Table, error)
}

var problemRegistry = struct {
	mu     sync.RWMutex
	byName map[string]Problem
}{
	byName: make(map[string]Problem),
}

func init() {
	MustRegister(kozaProblem{})
	MustRegister(nguyenProblem{})
	MustRegister(pagieProblem{})
	MustRegister(keijzerProblem{})
}

func Register(p Problem) error {
	if p == nil || p.Name() == "" {
		return fmt.Errorf("problem name is required")
	}
	problemRegistry.mu.Lock()
	defer problemRegistry.mu.Unlock()
	if _, exists := problemRegistry.byName[p.Name()]; exists {
		return fmt.Errorf("problem already registered: %s", p.Name())
	}
	problemRegistry.byName[p.Name()] = p
	return nil
}

func MustRegister(p Problem) {
	if err := Register(p); err != nil {
		panic(fmt.Sprintf("benchmark: register %v: %v", p, err))
	}
}

// Normalize canonicalizes a problem name or alias.
func Normalize(name string) string {
	n := strings.TrimSpace(strings.ToLower(name))
	n = strings.ReplaceAll(n, "_", "-")
	n = strings.ReplaceAll(n, " ", "-")
	switch n {
	case "koza1", "quartic":
		return "koza-1"
	case "nguyen5":
		return "nguyen-5"
	case "pagie1":
		return "pagie-1"
	case "keijzer6", "harmonic":
		return "keijzer-6"
	}
	return n
}

func FromName(name string) (Problem, error) {
	problemRegistry.mu.RLock()
	defer problemRegistry.mu.RUnlock()
	p, ok := problemRegistry.byName[Normalize(name)]
	if !ok {
		return nil, fmt.Errorf("unknown benchmark problem: %s", name)
	}
	return p, nil
}

func List() []string {
	problemRegistry.mu.RLock()
	defer problemRegistry.mu.RUnlock()
	names := make([]string, 0, len(problemRegistry.byName))
	for name := range problemRegistry.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Score computes the mean squared error of an equation on a table. NaN
// predictions (numeric distress) score as +Inf, so distressed candidates
// rank strictly worst.
func Score(eq *equation.Equation, table dataset.Table) (float64, error) {
	x, y, err := table.Matrices()
	if err != nil {
		return 0, err
	}
	predicted, err := eq.EvaluateAt(x)
	if err != nil {
		return 0, err
	}
	var squaredErr float64
	for s := 0; s < y.Len(); s++ {
		delta := predicted.AtVec(s) - y.AtVec(s)
		if math.IsNaN(delta) {
			return math.Inf(1), nil
		}
		squaredErr += delta * delta
	}
	return squaredErr / float64(y.Len()), nil
}

// uniformSample draws each feature independently from [lo, hi].
func uniformSample(p Problem, rng *rand.Rand, samples int, lo, hi float64) (dataset.Table, error) {
	if rng == nil {
		return dataset.Table{}, fmt.Errorf("random source is required")
	}
	if samples <= 0 {
		return dataset.Table{}, fmt.Errorf("invalid sample count: %d", samples)
	}
	features := p.Features()
	x := mat.NewDense(samples, features, nil)
	y := mat.NewVecDense(samples, nil)
	point := make([]float64, features)
	for s := 0; s < samples; s++ {
		for j := range point {
			point[j] = lo + rng.Float64()*(hi-lo)
		}
		x.SetRow(s, point)
		y.SetVec(s, p.Target(point))
	}
	return dataset.FromXY(p.Name(), x, y), nil
}
