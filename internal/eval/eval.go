// Package eval runs stack programs column-wise over a sample matrix, with a
// forward-mode derivative pass that shares the same operator kernels.
package eval

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"symreg/internal/op"
	"symreg/internal/program"
)

// Target selects which inputs the Jacobian differentiates against.
type Target int

const (
	Variables Target = iota
	Constants
)

func (t Target) String() string {
	switch t {
	case Variables:
		return "variables"
	case Constants:
		return "constants"
	default:
		return fmt.Sprintf("target(%d)", int(t))
	}
}

// Values evaluates the program at every sample row of x and returns the final
// row's column. Numeric overflow anywhere in the pass yields a NaN-filled
// column and no error; structural faults (bad indices, unbound constants)
// yield an error.
func Values(p program.Program, x *mat.Dense, consts []float64) (*mat.VecDense, error) {
	samples, features := x.Dims()
	if len(p) == 0 {
		return mat.NewVecDense(samples, nil), nil
	}

	rows := make([][]float64, len(p))
	for j, cmd := range p {
		buf := make([]float64, samples)
		switch cmd.Op {
		case op.Variable:
			if cmd.Arg1 >= features {
				return nil, fmt.Errorf("row %d: feature index %d out of range (have %d features)", j, cmd.Arg1, features)
			}
			for s := 0; s < samples; s++ {
				buf[s] = x.At(s, cmd.Arg1)
			}
		case op.Constant:
			v, err := constantValue(cmd, j, consts)
			if err != nil {
				return nil, err
			}
			for s := range buf {
				buf[s] = v
			}
		default:
			info, err := op.Lookup(cmd.Op)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", j, err)
			}
			a := rows[cmd.Arg1]
			if info.Arity == 2 {
				b := rows[cmd.Arg2]
				for s := 0; s < samples; s++ {
					buf[s] = info.Eval(a[s], b[s])
				}
			} else {
				for s := 0; s < samples; s++ {
					buf[s] = info.Eval(a[s], 0)
				}
			}
		}
		if hasInf(buf) {
			return nanVector(samples), nil
		}
		rows[j] = buf
	}

	out := append([]float64(nil), rows[len(p)-1]...)
	return mat.NewVecDense(samples, out), nil
}

func constantValue(cmd program.Command, row int, consts []float64) (float64, error) {
	if cmd.Arg1 < 0 {
		return 0, fmt.Errorf("row %d: constant slot unbound", row)
	}
	if cmd.Arg1 >= len(consts) {
		return 0, fmt.Errorf("row %d: constant slot %d out of range (have %d constants)", row, cmd.Arg1, len(consts))
	}
	return consts[cmd.Arg1], nil
}

func hasInf(values []float64) bool {
	for _, v := range values {
		if math.IsInf(v, 0) {
			return true
		}
	}
	return false
}

func nanVector(samples int) *mat.VecDense {
	data := make([]float64, samples)
	for i := range data {
		data[i] = math.NaN()
	}
	return mat.NewVecDense(samples, data)
}

func nanDense(rows, cols int) *mat.Dense {
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = math.NaN()
	}
	return mat.NewDense(rows, cols, data)
}
