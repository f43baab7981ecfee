package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"symreg/internal/report"
)

func TestRunRejectsUnknownCommand(t *testing.T) {
	err := run(context.Background(), []string{"optimize"})
	if err == nil || !strings.Contains(err.Error(), "usage:") {
		t.Fatalf("expected usage error, got=%v", err)
	}
}

func TestRunRequiresCommand(t *testing.T) {
	if err := run(context.Background(), nil); err == nil {
		t.Fatal("expected usage error for missing command")
	}
}

func TestRunEvalRequiresEquation(t *testing.T) {
	err := run(context.Background(), []string{"eval", "-x", "1;2"})
	if err == nil || !strings.Contains(err.Error(), "eval requires -e") {
		t.Fatalf("expected flag error, got=%v", err)
	}
}

func TestRunEval(t *testing.T) {
	err := run(context.Background(), []string{"eval", "-e", "2 * X_0 + 1", "-x", "1;2"})
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
}

func TestRunGradient(t *testing.T) {
	err := run(context.Background(), []string{
		"gradient", "-e", "X_0 * X_1", "-x", "1,2;3,4", "-target", "variables",
	})
	if err != nil {
		t.Fatalf("gradient: %v", err)
	}
}

func TestRunParseAndRender(t *testing.T) {
	if err := run(context.Background(), []string{"parse", "-e", "sin(X_0) + 2"}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := run(context.Background(), []string{"render", "-e", "X_0 / 2", "-notation", "latex"}); err != nil {
		t.Fatalf("render: %v", err)
	}
}

func TestRunSimplifyRejectsUnknownStrategy(t *testing.T) {
	err := run(context.Background(), []string{"simplify", "-e", "X_0 + X_0", "-strategy", "magic"})
	if err == nil {
		t.Fatal("expected error for unknown strategy")
	}
}

func TestRunDistance(t *testing.T) {
	err := run(context.Background(), []string{"distance", "-a", "X_0 + X_1", "-b", "X_0 - X_1"})
	if err != nil {
		t.Fatalf("distance: %v", err)
	}
}

func TestRunGenerate(t *testing.T) {
	err := run(context.Background(), []string{
		"generate", "-features", "2", "-size", "6", "-count", "3", "-seed", "11",
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
}

func TestRunFitInlineWithPlot(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "fit.json")
	config := `{"fitter": "gradient", "params": {"iterations": 500}}`
	if err := os.WriteFile(configPath, []byte(config), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	plotPath := filepath.Join(dir, "trace.png")

	err := run(context.Background(), []string{
		"fit",
		"-e", "C_0 * X_0 + C_1",
		"-x", "-2;-1;0;1;2",
		"-y", "-4;-1;2;5;8",
		"-config", configPath,
		"-plot", plotPath,
	})
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	info, err := os.Stat(plotPath)
	if err != nil {
		t.Fatalf("expected plot file: %v", err)
	}
	if info.Size() == 0 {
		t.Fatal("plot file is empty")
	}
}

func TestRunFitFromCSV(t *testing.T) {
	dataPath := filepath.Join(t.TempDir(), "line.csv")
	csv := "x,y\n-1,-1\n0,2\n1,5\n2,8\n"
	if err := os.WriteFile(dataPath, []byte(csv), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	err := run(context.Background(), []string{
		"fit", "-e", "C_0 * X_0 + C_1", "-data", dataPath, "-fitter", "gradient",
	})
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
}

func TestRunFitRejectsMixedDataSources(t *testing.T) {
	err := run(context.Background(), []string{
		"fit", "-e", "C_0 * X_0", "-data", "line.csv", "-x", "1", "-y", "2",
	})
	if err == nil || !strings.Contains(err.Error(), "either -data or inline") {
		t.Fatalf("expected source conflict error, got=%v", err)
	}
}

func TestRunPlotFromTraceFile(t *testing.T) {
	dir := t.TempDir()
	tracePath := filepath.Join(dir, "trace.json")
	points := report.BuildTrace([]float64{9, 4, 1, 0.25}, 0, 1)
	if err := report.WriteTraceFile(tracePath, points); err != nil {
		t.Fatalf("write trace: %v", err)
	}
	outPath := filepath.Join(dir, "trace.png")

	err := run(context.Background(), []string{
		"plot", "-trace", tracePath, "-out", outPath, "-title", "descent",
	})
	if err != nil {
		t.Fatalf("plot: %v", err)
	}
	if _, err := os.Stat(outPath); err != nil {
		t.Fatalf("expected plot file: %v", err)
	}
}

func TestRunArchiveRoundTrip(t *testing.T) {
	// The memory backend lives for one client, so each archive step below
	// sees a fresh store; this covers flag plumbing, not persistence.
	err := run(context.Background(), []string{
		"archive", "save", "-e", "X_0 + 1", "-label", "toy", "-store", "memory",
	})
	if err != nil {
		t.Fatalf("archive save: %v", err)
	}
	if err := run(context.Background(), []string{"archive", "list", "-store", "memory"}); err != nil {
		t.Fatalf("archive list: %v", err)
	}
	err = run(context.Background(), []string{"archive", "show", "-id", "absent", "-store", "memory"})
	if err == nil {
		t.Fatal("expected error for missing equation")
	}
	err = run(context.Background(), []string{"archive", "explode"})
	if err == nil || !strings.Contains(err.Error(), "unknown archive subcommand") {
		t.Fatalf("expected subcommand error, got=%v", err)
	}
}

func TestRunListings(t *testing.T) {
	if err := run(context.Background(), []string{"problems"}); err != nil {
		t.Fatalf("problems: %v", err)
	}
	if err := run(context.Background(), []string{"operators"}); err != nil {
		t.Fatalf("operators: %v", err)
	}
}

func TestParseMatrix(t *testing.T) {
	rows, err := parseMatrix("1,2; 3 ,4")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(rows) != 2 || rows[0][1] != 2 || rows[1][0] != 3 {
		t.Fatalf("unexpected rows: %v", rows)
	}
	if _, err := parseMatrix("1,oops"); err == nil {
		t.Fatal("expected error for bad cell")
	}
	if _, err := parseMatrix("  "); err == nil {
		t.Fatal("expected error for empty input")
	}
}

func TestParseVector(t *testing.T) {
	values, err := parseVector("1;2;3")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(values) != 3 || values[2] != 3 {
		t.Fatalf("unexpected values: %v", values)
	}
	if _, err := parseVector("1,2;3"); err == nil {
		t.Fatal("expected error for multi-value row")
	}
}
