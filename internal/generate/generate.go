// Package generate builds random valid programs and starting constant
// values. The evolutionary search that mutates programs lives outside this
// module; this is its supply side, used by benchmarks, demos and tests.
package generate

import (
	"fmt"
	"math/rand"

	"symreg/internal/op"
	"symreg/internal/program"
)

// Generator produces random programs over a feature space. The operator set
// defaults to every registered non-terminal opcode.
type Generator struct {
	Rand      *rand.Rand
	Features  int
	Operators []op.Code

	// TerminalProbability is the chance a non-leading row becomes a
	// terminal instead of an operator. Zero selects the default.
	TerminalProbability float64
}

const defaultTerminalProbability = 0.3

// Program returns a random program with exactly size rows. The leading row
// is always a terminal; later rows flip between terminals and operators that
// reference earlier rows, so the result is valid by construction.
func (g *Generator) Program(size int) (program.Program, error) {
	if g.Rand == nil {
		return nil, fmt.Errorf("random source is required")
	}
	if g.Features <= 0 {
		return nil, fmt.Errorf("invalid feature count: %d", g.Features)
	}
	if size <= 0 {
		return nil, fmt.Errorf("invalid program size: %d", size)
	}

	operators := g.Operators
	if len(operators) == 0 {
		operators = op.Operators()
	}
	terminalProb := g.TerminalProbability
	if terminalProb <= 0 {
		terminalProb = defaultTerminalProbability
	}

	p := make(program.Program, 0, size)
	p = append(p, g.terminal())
	for j := 1; j < size; j++ {
		if g.Rand.Float64() < terminalProb {
			p = append(p, g.terminal())
			continue
		}
		code := operators[g.Rand.Intn(len(operators))]
		info, err := op.Lookup(code)
		if err != nil {
			return nil, fmt.Errorf("operator set: %w", err)
		}
		cmd := program.Command{Op: code, Arg1: g.Rand.Intn(j)}
		if info.Arity == 2 {
			cmd.Arg2 = g.Rand.Intn(j)
		}
		p = append(p, cmd)
	}
	return p, nil
}

// ConstantValues returns count jittered starting values for a fresh
// constants vector, spread uniformly in [-amp, amp].
func (g *Generator) ConstantValues(count int, amp float64) []float64 {
	values := make([]float64, count)
	for i := range values {
		values[i] = jitter(g.Rand, amp)
	}
	return values
}

func (g *Generator) terminal() program.Command {
	if g.Rand.Float64() < 0.5 {
		feature := g.Rand.Intn(g.Features)
		return program.Command{Op: op.Variable, Arg1: feature, Arg2: feature}
	}
	return program.Command{Op: op.Constant, Arg1: -1, Arg2: -1}
}

func jitter(rng *rand.Rand, amp float64) float64 {
	return (rng.Float64()*2 - 1) * amp
}
