package eval

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"symreg/internal/op"
	"symreg/internal/program"
)

// ValuesAndJacobian runs one forward pass that carries both the value column
// and its partial derivatives with respect to the chosen target. The Jacobian
// is samples by targets; when the target has zero width it is nil. Overflow
// in either the value or derivative stream yields NaN-filled outputs of the
// declared shapes and no error.
func ValuesAndJacobian(p program.Program, x *mat.Dense, consts []float64, target Target) (*mat.VecDense, *mat.Dense, error) {
	samples, features := x.Dims()

	var targets int
	switch target {
	case Variables:
		targets = features
	case Constants:
		targets = len(consts)
	default:
		return nil, nil, fmt.Errorf("unsupported differentiation target: %d", int(target))
	}

	if len(p) == 0 {
		if targets == 0 {
			return mat.NewVecDense(samples, nil), nil, nil
		}
		return mat.NewVecDense(samples, nil), mat.NewDense(samples, targets, nil), nil
	}

	values := make([][]float64, len(p))
	derivs := make([][]float64, len(p))
	for j, cmd := range p {
		buf := make([]float64, samples)
		grad := make([]float64, samples*targets)
		switch cmd.Op {
		case op.Variable:
			if cmd.Arg1 >= features {
				return nil, nil, fmt.Errorf("row %d: feature index %d out of range (have %d features)", j, cmd.Arg1, features)
			}
			for s := 0; s < samples; s++ {
				buf[s] = x.At(s, cmd.Arg1)
				if target == Variables {
					grad[s*targets+cmd.Arg1] = 1
				}
			}
		case op.Constant:
			v, err := constantValue(cmd, j, consts)
			if err != nil {
				return nil, nil, err
			}
			for s := 0; s < samples; s++ {
				buf[s] = v
				if target == Constants {
					grad[s*targets+cmd.Arg1] = 1
				}
			}
		default:
			info, err := op.Lookup(cmd.Op)
			if err != nil {
				return nil, nil, fmt.Errorf("row %d: %w", j, err)
			}
			a := values[cmd.Arg1]
			ga := derivs[cmd.Arg1]
			var b, gb []float64
			if info.Arity == 2 {
				b = values[cmd.Arg2]
				gb = derivs[cmd.Arg2]
			}
			for s := 0; s < samples; s++ {
				var bv float64
				if b != nil {
					bv = b[s]
				}
				buf[s] = info.Eval(a[s], bv)
				da, db := info.Deriv(a[s], bv)
				base := s * targets
				for t := 0; t < targets; t++ {
					g := da * ga[base+t]
					if gb != nil {
						g += db * gb[base+t]
					}
					grad[base+t] = g
				}
			}
		}
		if hasInf(buf) || hasInf(grad) {
			if targets == 0 {
				return nanVector(samples), nil, nil
			}
			return nanVector(samples), nanDense(samples, targets), nil
		}
		values[j] = buf
		derivs[j] = grad
	}

	outVals := append([]float64(nil), values[len(p)-1]...)
	if targets == 0 {
		return mat.NewVecDense(samples, outVals), nil, nil
	}
	outGrad := append([]float64(nil), derivs[len(p)-1]...)
	return mat.NewVecDense(samples, outVals), mat.NewDense(samples, targets, outGrad), nil
}
