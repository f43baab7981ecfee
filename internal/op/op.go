package op

import (
	"fmt"
	"math"
)

// Code identifies one opcode in the command grammar. The integer encoding is
// part of the persisted format and must not be reordered.
type Code int

const (
	Variable Code = iota
	Constant
	Add
	Subtract
	Multiply
	Divide
	Sin
	Cos
	Exp
	Log
	Pow
	Abs
	Sqrt
	SafePow
	Sinh
	Cosh
)

// EvalFn computes one output sample from operand samples a and b. Unary
// operators ignore b.
type EvalFn func(a, b float64) float64

// DerivFn returns the local partial derivatives of the operator output with
// respect to each operand at (a, b). The evaluator combines these with the
// operand derivative rows via the chain rule.
type DerivFn func(a, b float64) (da, db float64)

type Info struct {
	Code  Code
	Name  string
	Arity int
	// Infix holds the console token for binary infix rendering; empty for
	// function-style and terminal opcodes.
	Infix string
	Eval  EvalFn
	Deriv DerivFn
}

func (c Code) IsTerminal() bool {
	return c == Variable || c == Constant
}

func (c Code) String() string {
	info, err := Lookup(c)
	if err != nil {
		return fmt.Sprintf("op(%d)", int(c))
	}
	return info.Name
}

func initializeBuiltInOperators() {
	MustRegister(Info{Code: Variable, Name: "variable", Arity: 0})
	MustRegister(Info{Code: Constant, Name: "constant", Arity: 0})

	MustRegister(Info{
		Code: Add, Name: "add", Arity: 2, Infix: "+",
		Eval:  func(a, b float64) float64 { return a + b },
		Deriv: func(_, _ float64) (float64, float64) { return 1, 1 },
	})
	MustRegister(Info{
		Code: Subtract, Name: "subtract", Arity: 2, Infix: "-",
		Eval:  func(a, b float64) float64 { return a - b },
		Deriv: func(_, _ float64) (float64, float64) { return 1, -1 },
	})
	MustRegister(Info{
		Code: Multiply, Name: "multiply", Arity: 2, Infix: "*",
		Eval:  func(a, b float64) float64 { return a * b },
		Deriv: func(a, b float64) (float64, float64) { return b, a },
	})
	MustRegister(Info{
		Code: Divide, Name: "divide", Arity: 2, Infix: "/",
		Eval:  func(a, b float64) float64 { return a / b },
		Deriv: func(a, b float64) (float64, float64) { return 1 / b, -a / (b * b) },
	})
	MustRegister(Info{
		Code: Sin, Name: "sin", Arity: 1,
		Eval:  func(a, _ float64) float64 { return math.Sin(a) },
		Deriv: func(a, _ float64) (float64, float64) { return math.Cos(a), 0 },
	})
	MustRegister(Info{
		Code: Cos, Name: "cos", Arity: 1,
		Eval:  func(a, _ float64) float64 { return math.Cos(a) },
		Deriv: func(a, _ float64) (float64, float64) { return -math.Sin(a), 0 },
	})
	MustRegister(Info{
		Code: Exp, Name: "exp", Arity: 1,
		Eval:  func(a, _ float64) float64 { return math.Exp(a) },
		Deriv: func(a, _ float64) (float64, float64) { return math.Exp(a), 0 },
	})
	// Log operates on the magnitude of its operand, so the whole real line
	// stays in domain.
	MustRegister(Info{
		Code: Log, Name: "log", Arity: 1,
		Eval:  func(a, _ float64) float64 { return math.Log(math.Abs(a)) },
		Deriv: func(a, _ float64) (float64, float64) { return 1 / a, 0 },
	})
	MustRegister(Info{
		Code: Pow, Name: "pow", Arity: 2, Infix: "^",
		Eval: func(a, b float64) float64 { return math.Pow(a, b) },
		Deriv: func(a, b float64) (float64, float64) {
			return b * math.Pow(a, b-1), math.Pow(a, b) * math.Log(a)
		},
	})
	MustRegister(Info{
		Code: Abs, Name: "abs", Arity: 1,
		Eval:  func(a, _ float64) float64 { return math.Abs(a) },
		Deriv: func(a, _ float64) (float64, float64) { return sign(a), 0 },
	})
	// Sqrt operates on the magnitude of its operand, matching Log.
	MustRegister(Info{
		Code: Sqrt, Name: "sqrt", Arity: 1,
		Eval: func(a, _ float64) float64 { return math.Sqrt(math.Abs(a)) },
		Deriv: func(a, _ float64) (float64, float64) {
			return sign(a) / (2 * math.Sqrt(math.Abs(a))), 0
		},
	})
	// SafePow raises the magnitude of the base, keeping negative bases with
	// fractional exponents in domain.
	MustRegister(Info{
		Code: SafePow, Name: "safe-pow", Arity: 2,
		Eval: func(a, b float64) float64 { return math.Pow(math.Abs(a), b) },
		Deriv: func(a, b float64) (float64, float64) {
			return b * math.Pow(math.Abs(a), b-1) * sign(a),
				math.Pow(math.Abs(a), b) * math.Log(math.Abs(a))
		},
	})
	MustRegister(Info{
		Code: Sinh, Name: "sinh", Arity: 1,
		Eval:  func(a, _ float64) float64 { return math.Sinh(a) },
		Deriv: func(a, _ float64) (float64, float64) { return math.Cosh(a), 0 },
	})
	MustRegister(Info{
		Code: Cosh, Name: "cosh", Arity: 1,
		Eval:  func(a, _ float64) float64 { return math.Cosh(a) },
		Deriv: func(a, _ float64) (float64, float64) { return math.Sinh(a), 0 },
	})
}

func sign(x float64) float64 {
	if x >= 0 {
		return 1
	}
	return -1
}
