package generate

import (
	"math"
	"math/rand"
	"testing"

	"symreg/internal/op"
	"symreg/internal/program"
)

func TestProgramIsValid(t *testing.T) {
	g := &Generator{Rand: rand.New(rand.NewSource(7)), Features: 3}
	for i := 0; i < 50; i++ {
		p, err := g.Program(12)
		if err != nil {
			t.Fatalf("generate failed: %v", err)
		}
		if len(p) != 12 {
			t.Fatalf("expected 12 rows, got=%d", len(p))
		}
		if err := p.Validate(); err != nil {
			t.Fatalf("expected valid program, got=%v for %v", err, p)
		}
	}
}

func TestProgramDeterministicSeed(t *testing.T) {
	a := &Generator{Rand: rand.New(rand.NewSource(42)), Features: 2}
	b := &Generator{Rand: rand.New(rand.NewSource(42)), Features: 2}
	pa, err := a.Program(8)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	pb, err := b.Program(8)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if !program.Equal(pa, pb) {
		t.Fatalf("expected identical programs for identical seed, got %v and %v", pa, pb)
	}
}

func TestProgramLeadsWithTerminal(t *testing.T) {
	g := &Generator{Rand: rand.New(rand.NewSource(3)), Features: 2}
	for i := 0; i < 20; i++ {
		p, err := g.Program(5)
		if err != nil {
			t.Fatalf("generate failed: %v", err)
		}
		if !p[0].Op.IsTerminal() {
			t.Fatalf("expected terminal first row, got=%v", p[0])
		}
	}
}

func TestProgramRestrictedOperatorSet(t *testing.T) {
	g := &Generator{
		Rand:      rand.New(rand.NewSource(11)),
		Features:  1,
		Operators: []op.Code{op.Add},
	}
	p, err := g.Program(20)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	for _, cmd := range p {
		if !cmd.Op.IsTerminal() && cmd.Op != op.Add {
			t.Fatalf("expected only add operators, got=%v", cmd)
		}
	}
}

func TestProgramArgumentErrors(t *testing.T) {
	if _, err := (&Generator{Features: 1}).Program(3); err == nil {
		t.Fatal("expected error for missing random source")
	}
	g := &Generator{Rand: rand.New(rand.NewSource(1))}
	if _, err := g.Program(3); err == nil {
		t.Fatal("expected error for zero features")
	}
	g.Features = 1
	if _, err := g.Program(0); err == nil {
		t.Fatal("expected error for zero size")
	}
}

func TestConstantValuesWithinAmplitude(t *testing.T) {
	g := &Generator{Rand: rand.New(rand.NewSource(5)), Features: 1}
	values := g.ConstantValues(100, 2.5)
	if len(values) != 100 {
		t.Fatalf("expected 100 values, got=%d", len(values))
	}
	for _, v := range values {
		if math.Abs(v) > 2.5 {
			t.Fatalf("expected |v| <= 2.5, got=%f", v)
		}
	}
}
