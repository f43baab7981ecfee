package render

import (
	"strings"
	"testing"

	"symreg/internal/op"
	"symreg/internal/program"
)

func TestConsoleSimpleSum(t *testing.T) {
	p := program.Program{
		{Op: op.Constant, Arg1: 0, Arg2: 0},
		{Op: op.Variable, Arg1: 0},
		{Op: op.Add, Arg1: 0, Arg2: 1},
	}
	got, err := Format("console", p, []float64{5})
	if err != nil {
		t.Fatalf("format failed: %v", err)
	}
	if got != "5 + X_0" {
		t.Fatalf("expected %q, got=%q", "5 + X_0", got)
	}
}

func TestConsoleRawViewUsesPlaceholders(t *testing.T) {
	p := program.Program{
		{Op: op.Constant, Arg1: 2, Arg2: 2},
		{Op: op.Constant, Arg1: -1, Arg2: -1},
		{Op: op.Add, Arg1: 0, Arg2: 1},
	}
	got, err := Format("console", p, nil)
	if err != nil {
		t.Fatalf("format failed: %v", err)
	}
	if got != "C_2 + ?" {
		t.Fatalf("expected %q, got=%q", "C_2 + ?", got)
	}
}

func TestConsoleMinimalParentheses(t *testing.T) {
	// (X_0 + X_1) * X_0 needs parens on the left only.
	p := program.Program{
		{Op: op.Variable, Arg1: 0},
		{Op: op.Variable, Arg1: 1},
		{Op: op.Add, Arg1: 0, Arg2: 1},
		{Op: op.Multiply, Arg1: 2, Arg2: 0},
	}
	got, err := Format("console", p, nil)
	if err != nil {
		t.Fatalf("format failed: %v", err)
	}
	if got != "(X_0 + X_1) * X_0" {
		t.Fatalf("expected %q, got=%q", "(X_0 + X_1) * X_0", got)
	}
}

func TestConsoleSubtractionRightAssociativity(t *testing.T) {
	// X_0 - (X_1 - X_0) must keep the parens on the right.
	p := program.Program{
		{Op: op.Variable, Arg1: 0},
		{Op: op.Variable, Arg1: 1},
		{Op: op.Subtract, Arg1: 1, Arg2: 0},
		{Op: op.Subtract, Arg1: 0, Arg2: 2},
	}
	got, err := Format("console", p, nil)
	if err != nil {
		t.Fatalf("format failed: %v", err)
	}
	if got != "X_0 - (X_1 - X_0)" {
		t.Fatalf("expected %q, got=%q", "X_0 - (X_1 - X_0)", got)
	}
}

func TestConsoleNegativeConstantInProduct(t *testing.T) {
	p := program.Program{
		{Op: op.Variable, Arg1: 0},
		{Op: op.Constant, Arg1: 0, Arg2: 0},
		{Op: op.Multiply, Arg1: 0, Arg2: 1},
	}
	got, err := Format("console", p, []float64{-2.5})
	if err != nil {
		t.Fatalf("format failed: %v", err)
	}
	if got != "X_0 * (-2.5)" {
		t.Fatalf("expected %q, got=%q", "X_0 * (-2.5)", got)
	}
}

func TestConsoleFunctionStyle(t *testing.T) {
	p := program.Program{
		{Op: op.Variable, Arg1: 0},
		{Op: op.Variable, Arg1: 1},
		{Op: op.Sin, Arg1: 0},
		{Op: op.SafePow, Arg1: 2, Arg2: 1},
	}
	got, err := Format("console", p, nil)
	if err != nil {
		t.Fatalf("format failed: %v", err)
	}
	if got != "safe-pow(sin(X_0), X_1)" {
		t.Fatalf("expected %q, got=%q", "safe-pow(sin(X_0), X_1)", got)
	}
}

func TestLatexFraction(t *testing.T) {
	p := program.Program{
		{Op: op.Variable, Arg1: 0},
		{Op: op.Variable, Arg1: 1},
		{Op: op.Divide, Arg1: 0, Arg2: 1},
	}
	got, err := Format("latex", p, nil)
	if err != nil {
		t.Fatalf("format failed: %v", err)
	}
	if got != `\frac{X_0}{X_1}` {
		t.Fatalf("expected %q, got=%q", `\frac{X_0}{X_1}`, got)
	}
}

func TestLatexForms(t *testing.T) {
	p := program.Program{
		{Op: op.Variable, Arg1: 0},
		{Op: op.Sqrt, Arg1: 0},
		{Op: op.Exp, Arg1: 1},
	}
	got, err := Format("latex", p, nil)
	if err != nil {
		t.Fatalf("format failed: %v", err)
	}
	if got != `e^{\sqrt{|X_0|}}` {
		t.Fatalf("expected %q, got=%q", `e^{\sqrt{|X_0|}}`, got)
	}
}

func TestStackNotation(t *testing.T) {
	p := program.Program{
		{Op: op.Variable, Arg1: 0},
		{Op: op.Constant, Arg1: 0, Arg2: 0},
		{Op: op.Add, Arg1: 0, Arg2: 1},
		{Op: op.Sin, Arg1: 2},
	}
	got, err := Format("stack", p, []float64{5})
	if err != nil {
		t.Fatalf("format failed: %v", err)
	}
	lines := strings.Split(got, "\n")
	want := []string{
		"(0) <= X_0",
		"(1) <= C_0 = 5",
		"(2) <= (0) + (1)",
		"(3) <= sin((2))",
	}
	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got=%d: %q", len(want), len(lines), got)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Fatalf("line %d: expected %q, got=%q", i, want[i], lines[i])
		}
	}
}

func TestStackRawConstant(t *testing.T) {
	p := program.Program{{Op: op.Constant, Arg1: -1, Arg2: -1}}
	got, err := Format("stack", p, nil)
	if err != nil {
		t.Fatalf("format failed: %v", err)
	}
	if got != "(0) <= ?" {
		t.Fatalf("expected %q, got=%q", "(0) <= ?", got)
	}
}

func TestUnsupportedNotation(t *testing.T) {
	p := program.Program{{Op: op.Variable, Arg1: 0}}
	if _, err := Format("morse", p, nil); err == nil {
		t.Fatal("expected error for unsupported notation")
	}
}

func TestNotationAliases(t *testing.T) {
	p := program.Program{{Op: op.Variable, Arg1: 0}}
	for _, alias := range []string{"", "infix", "tex", "ir"} {
		if _, err := Format(alias, p, nil); err != nil {
			t.Fatalf("%q: expected supported notation, got=%v", alias, err)
		}
	}
}

func TestFormatRejectsInvalidProgram(t *testing.T) {
	p := program.Program{{Op: op.Add, Arg1: 0, Arg2: 1}}
	if _, err := Format("console", p, nil); err == nil {
		t.Fatal("expected error for invalid program")
	}
}

func TestEmptyProgramRendersEmpty(t *testing.T) {
	got, err := Format("console", nil, nil)
	if err != nil {
		t.Fatalf("format failed: %v", err)
	}
	if got != "" {
		t.Fatalf("expected empty string, got=%q", got)
	}
}
