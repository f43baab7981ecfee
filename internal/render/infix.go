package render

import (
	"fmt"

	"symreg/internal/op"
	"symreg/internal/program"
)

// Operand precedence levels for minimal parenthesization. A child is wrapped
// only when its precedence falls below what its parent position requires.
const (
	precSum  = 1
	precProd = 2
	precPow  = 3
	precAtom = 4
)

type infixForm struct {
	prec     int
	minLeft  int
	minRight int
	render   func(a, b string) string
}

type notationForms struct {
	variable func(index int) string
	// unary forms are self-delimiting and receive the raw operand text.
	unary  map[op.Code]func(a string) string
	binary map[op.Code]infixForm
}

var consoleForms = notationForms{
	variable: func(i int) string { return fmt.Sprintf("X_%d", i) },
	unary: map[op.Code]func(string) string{
		op.Sin:  func(a string) string { return "sin(" + a + ")" },
		op.Cos:  func(a string) string { return "cos(" + a + ")" },
		op.Exp:  func(a string) string { return "exp(" + a + ")" },
		op.Log:  func(a string) string { return "log(" + a + ")" },
		op.Abs:  func(a string) string { return "abs(" + a + ")" },
		op.Sqrt: func(a string) string { return "sqrt(" + a + ")" },
		op.Sinh: func(a string) string { return "sinh(" + a + ")" },
		op.Cosh: func(a string) string { return "cosh(" + a + ")" },
	},
	binary: map[op.Code]infixForm{
		op.Add:      {precSum, precSum, precSum, func(a, b string) string { return a + " + " + b }},
		op.Subtract: {precSum, precSum, precProd, func(a, b string) string { return a + " - " + b }},
		op.Multiply: {precProd, precProd, precProd, func(a, b string) string { return a + " * " + b }},
		op.Divide:   {precProd, precProd, precPow, func(a, b string) string { return a + " / " + b }},
		op.Pow:      {precPow, precAtom, precPow, func(a, b string) string { return a + " ^ " + b }},
		op.SafePow:  {precAtom, 0, 0, func(a, b string) string { return "safe-pow(" + a + ", " + b + ")" }},
	},
}

var latexForms = notationForms{
	variable: func(i int) string { return fmt.Sprintf("X_%d", i) },
	unary: map[op.Code]func(string) string{
		op.Sin:  func(a string) string { return `\sin{` + a + `}` },
		op.Cos:  func(a string) string { return `\cos{` + a + `}` },
		op.Exp:  func(a string) string { return `e^{` + a + `}` },
		op.Log:  func(a string) string { return `\log{|` + a + `|}` },
		op.Abs:  func(a string) string { return `|` + a + `|` },
		op.Sqrt: func(a string) string { return `\sqrt{|` + a + `|}` },
		op.Sinh: func(a string) string { return `\sinh{` + a + `}` },
		op.Cosh: func(a string) string { return `\cosh{` + a + `}` },
	},
	binary: map[op.Code]infixForm{
		op.Add:      {precSum, precSum, precSum, func(a, b string) string { return a + " + " + b }},
		op.Subtract: {precSum, precSum, precProd, func(a, b string) string { return a + " - " + b }},
		op.Multiply: {precAtom, 0, 0, func(a, b string) string { return "(" + a + ")(" + b + ")" }},
		op.Divide:   {precAtom, 0, 0, func(a, b string) string { return `\frac{` + a + `}{` + b + `}` }},
		op.Pow:      {precAtom, 0, 0, func(a, b string) string { return "(" + a + ")^{(" + b + ")}" }},
		op.SafePow:  {precAtom, 0, 0, func(a, b string) string { return "(|" + a + "|)^{(" + b + ")}" }},
	},
}

func formatInfix(p program.Program, consts []float64, forms notationForms) (string, error) {
	if len(p) == 0 {
		return "", nil
	}
	texts := make([]string, len(p))
	precs := make([]int, len(p))
	for j, cmd := range p {
		switch cmd.Op {
		case op.Variable:
			texts[j] = forms.variable(cmd.Arg1)
			precs[j] = precAtom
		case op.Constant:
			texts[j] = constantLabel(cmd.Arg1, consts)
			precs[j] = precAtom
			// Negative values read like a sum term; parenthesize in
			// product and power contexts.
			if texts[j][0] == '-' {
				precs[j] = precSum
			}
		default:
			if fn, ok := forms.unary[cmd.Op]; ok {
				texts[j] = fn(texts[cmd.Arg1])
				precs[j] = precAtom
				continue
			}
			form, ok := forms.binary[cmd.Op]
			if !ok {
				return "", fmt.Errorf("no %s form for operator %s", "infix", cmd.Op)
			}
			a := wrap(texts[cmd.Arg1], precs[cmd.Arg1] < form.minLeft)
			b := wrap(texts[cmd.Arg2], precs[cmd.Arg2] < form.minRight)
			texts[j] = form.render(a, b)
			precs[j] = form.prec
		}
	}
	return texts[len(p)-1], nil
}

func wrap(text string, needed bool) string {
	if needed {
		return "(" + text + ")"
	}
	return text
}
