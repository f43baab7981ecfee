// Package parse turns console-notation equation text into a program plus
// constants vector, the inverse of the console renderer.
package parse

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/parser"

	"symreg/internal/op"
	"symreg/internal/program"
)

// Equation parses text like "X_0 + 3.5 * sin(X_1)" into a program and the
// constant values collected from its literals. The result always passes
// structural validation; constant slots are bound in row order.
func Equation(text string) (program.Program, []float64, error) {
	tree, err := parser.Parse(text)
	if err != nil {
		return nil, nil, fmt.Errorf("parse equation: %w", err)
	}
	b := &builder{}
	if _, err := b.build(tree.Node); err != nil {
		return nil, nil, err
	}
	if err := b.rows.Validate(); err != nil {
		return nil, nil, fmt.Errorf("parsed equation: %w", err)
	}
	return b.rows, b.values, nil
}

type builder struct {
	rows   program.Program
	values []float64
}

func (b *builder) emit(cmd program.Command) int {
	b.rows = append(b.rows, cmd)
	return len(b.rows) - 1
}

func (b *builder) emitConstant(value float64) int {
	slot := len(b.values)
	b.values = append(b.values, value)
	return b.emit(program.Command{Op: op.Constant, Arg1: slot, Arg2: slot})
}

func (b *builder) build(node ast.Node) (int, error) {
	switch n := node.(type) {
	case *ast.IdentifierNode:
		return b.identifier(n.Value)
	case *ast.IntegerNode:
		return b.emitConstant(float64(n.Value)), nil
	case *ast.FloatNode:
		return b.emitConstant(n.Value), nil
	case *ast.UnaryNode:
		return b.unary(n)
	case *ast.BinaryNode:
		return b.binary(n)
	case *ast.CallNode:
		return b.call(n)
	case *ast.BuiltinNode:
		// expr-lang lifts names it knows (abs among them) into builtin
		// nodes; route them through the same operator lookup as calls.
		return b.function(n.Name, n.Arguments)
	default:
		return 0, fmt.Errorf("unsupported syntax: %T", node)
	}
}

func (b *builder) identifier(name string) (int, error) {
	upper := strings.ToUpper(name)
	if index, ok := indexedName(upper, "X_"); ok {
		return b.emit(program.Command{Op: op.Variable, Arg1: index, Arg2: index}), nil
	}
	if _, ok := indexedName(upper, "C_"); ok {
		// Named free constants start at the optimizer's neutral value.
		return b.emitConstant(1), nil
	}
	return 0, fmt.Errorf("unknown identifier %q (want X_n or C_n)", name)
}

func (b *builder) unary(n *ast.UnaryNode) (int, error) {
	switch n.Operator {
	case "+":
		return b.build(n.Node)
	case "-":
		// Negated literals fold into the constant; anything else lowers
		// to 0 - operand.
		switch child := n.Node.(type) {
		case *ast.IntegerNode:
			return b.emitConstant(-float64(child.Value)), nil
		case *ast.FloatNode:
			return b.emitConstant(-child.Value), nil
		}
		zero := b.emitConstant(0)
		operand, err := b.build(n.Node)
		if err != nil {
			return 0, err
		}
		return b.emit(program.Command{Op: op.Subtract, Arg1: zero, Arg2: operand}), nil
	default:
		return 0, fmt.Errorf("unsupported unary operator %q", n.Operator)
	}
}

func (b *builder) binary(n *ast.BinaryNode) (int, error) {
	token := n.Operator
	if token == "**" {
		token = "^"
	}
	code, err := op.FromName(token)
	if err != nil {
		return 0, fmt.Errorf("unsupported operator %q", n.Operator)
	}
	left, err := b.build(n.Left)
	if err != nil {
		return 0, err
	}
	right, err := b.build(n.Right)
	if err != nil {
		return 0, err
	}
	return b.emit(program.Command{Op: code, Arg1: left, Arg2: right}), nil
}

func (b *builder) call(n *ast.CallNode) (int, error) {
	callee, ok := n.Callee.(*ast.IdentifierNode)
	if !ok {
		return 0, fmt.Errorf("unsupported call target: %T", n.Callee)
	}
	return b.function(callee.Value, n.Arguments)
}

func (b *builder) function(name string, args []ast.Node) (int, error) {
	code, err := op.FromName(name)
	if err != nil {
		return 0, fmt.Errorf("unknown function %q", name)
	}
	info, err := op.Lookup(code)
	if err != nil {
		return 0, err
	}
	if info.Arity == 0 {
		return 0, fmt.Errorf("%q is not callable", name)
	}
	if len(args) != info.Arity {
		return 0, fmt.Errorf("%s expects %d arguments, got %d", info.Name, info.Arity, len(args))
	}
	first, err := b.build(args[0])
	if err != nil {
		return 0, err
	}
	cmd := program.Command{Op: code, Arg1: first}
	if info.Arity == 2 {
		second, err := b.build(args[1])
		if err != nil {
			return 0, err
		}
		cmd.Arg2 = second
	}
	return b.emit(cmd), nil
}

func indexedName(name, prefix string) (int, bool) {
	if !strings.HasPrefix(name, prefix) {
		return 0, false
	}
	index, err := strconv.Atoi(name[len(prefix):])
	if err != nil || index < 0 {
		return 0, false
	}
	return index, true
}
