package simplify

import (
	"fmt"
	"sort"
	"strings"

	"symreg/internal/op"
	"symreg/internal/program"
)

// TreeOracle is the in-process algebraic oracle. It lifts the program into an
// expression tree, rewrites it (flattening and canonically ordering
// commutative chains, collapsing constant-rooted subtrees, merging free
// constants within a chain) and lowers the tree back through a hash-consing
// emitter, so structurally repeated subexpressions share one row.
type TreeOracle struct{}

func (TreeOracle) Name() string { return "tree" }

func (TreeOracle) SimplifyProgram(p program.Program) (program.Program, error) {
	if len(p) == 0 {
		return program.Program{}, nil
	}

	nodes := make([]*exprNode, len(p))
	fresh := 0
	for j, cmd := range p {
		switch cmd.Op {
		case op.Variable:
			nodes[j] = &exprNode{code: op.Variable, feature: cmd.Arg1}
		case op.Constant:
			nodes[j] = newConstNode(cmd.Arg1, &fresh)
		default:
			info, err := op.Lookup(cmd.Op)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", j, err)
			}
			n := &exprNode{code: cmd.Op, args: []*exprNode{nodes[cmd.Arg1]}}
			if info.Arity == 2 {
				n.args = append(n.args, nodes[cmd.Arg2])
			}
			nodes[j] = n
		}
	}

	root := rewrite(nodes[len(p)-1], &fresh)
	emitter := &rowEmitter{seen: make(map[string]int)}
	emitter.emit(root)
	return emitter.rows, nil
}

// exprNode is one vertex of the lifted expression tree. Constants carry the
// slot they referenced in the input, or -1 with a unique fresh id for
// constants minted by folding; fresh constants are never hash-consed
// together, since each stands for an independent free parameter.
type exprNode struct {
	code    op.Code
	feature int
	slot    int
	freshID int
	args    []*exprNode
}

func newConstNode(slot int, fresh *int) *exprNode {
	n := &exprNode{code: op.Constant, slot: slot}
	if slot < 0 {
		*fresh++
		n.freshID = *fresh
	}
	return n
}

func (n *exprNode) key() string {
	switch n.code {
	case op.Variable:
		return fmt.Sprintf("x%d", n.feature)
	case op.Constant:
		if n.slot < 0 {
			return fmt.Sprintf("c?%d", n.freshID)
		}
		return fmt.Sprintf("c%d", n.slot)
	default:
		parts := make([]string, len(n.args))
		for i, a := range n.args {
			parts[i] = a.key()
		}
		return fmt.Sprintf("%s(%s)", n.code, strings.Join(parts, ","))
	}
}

func rewrite(n *exprNode, fresh *int) *exprNode {
	if n.code.IsTerminal() {
		return n
	}
	args := make([]*exprNode, len(n.args))
	allConst := true
	for i, a := range n.args {
		args[i] = rewrite(a, fresh)
		if args[i].code != op.Constant {
			allConst = false
		}
	}
	if allConst {
		return newConstNode(-1, fresh)
	}
	out := &exprNode{code: n.code, args: args}
	if n.code == op.Add || n.code == op.Multiply {
		out = canonicalChain(n.code, flattenChain(n.code, out), fresh)
	}
	return out
}

// flattenChain gathers the operand list of a nested commutative chain.
func flattenChain(code op.Code, n *exprNode) []*exprNode {
	if n.code != code {
		return []*exprNode{n}
	}
	var terms []*exprNode
	for _, a := range n.args {
		terms = append(terms, flattenChain(code, a)...)
	}
	return terms
}

// canonicalChain merges the chain's constant terms into one free constant,
// orders the remaining terms deterministically, and rebuilds a left-deep
// binary chain. Ordering commutative operands canonically lets the emitter
// share rows between programs that differ only by operand order.
func canonicalChain(code op.Code, terms []*exprNode, fresh *int) *exprNode {
	var rest, constTerms []*exprNode
	for _, t := range terms {
		if t.code == op.Constant {
			constTerms = append(constTerms, t)
			continue
		}
		rest = append(rest, t)
	}
	switch {
	case len(constTerms) == 1:
		rest = append(rest, constTerms[0])
	case len(constTerms) > 1:
		rest = append(rest, newConstNode(-1, fresh))
	}
	sort.SliceStable(rest, func(i, j int) bool { return rest[i].key() < rest[j].key() })
	chain := rest[0]
	for _, t := range rest[1:] {
		chain = &exprNode{code: code, args: []*exprNode{chain, t}}
	}
	return chain
}

// rowEmitter lowers a tree to rows in postorder, hash-consing on the node key
// so every distinct subexpression is computed once.
type rowEmitter struct {
	rows program.Program
	seen map[string]int
}

func (e *rowEmitter) emit(n *exprNode) int {
	key := n.key()
	if row, ok := e.seen[key]; ok {
		return row
	}
	var cmd program.Command
	switch n.code {
	case op.Variable:
		cmd = program.Command{Op: op.Variable, Arg1: n.feature, Arg2: n.feature}
	case op.Constant:
		cmd = program.Command{Op: op.Constant, Arg1: n.slot, Arg2: n.slot}
	default:
		cmd = program.Command{Op: n.code, Arg1: e.emit(n.args[0])}
		if len(n.args) == 2 {
			cmd.Arg2 = e.emit(n.args[1])
		}
	}
	row := len(e.rows)
	e.rows = append(e.rows, cmd)
	e.seen[key] = row
	return row
}
