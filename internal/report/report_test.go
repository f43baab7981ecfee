package report

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"symreg/internal/tuning"
)

func TestBuildTraceIndices(t *testing.T) {
	points := BuildTrace([]float64{4, 2, 1}, 10, 5)
	expected := []TracePoint{{Index: 10, Value: 4}, {Index: 15, Value: 2}, {Index: 20, Value: 1}}
	if !reflect.DeepEqual(points, expected) {
		t.Fatalf("unexpected trace: %+v", points)
	}
}

func TestBuildTraceDefaultsStep(t *testing.T) {
	points := BuildTrace([]float64{1, 2}, -3, 0)
	if len(points) != 2 || points[0].Index != 0 || points[1].Index != 1 {
		t.Fatalf("unexpected trace: %+v", points)
	}
}

func TestBuildAverageTraceRaggedRuns(t *testing.T) {
	points := BuildAverageTrace([][]float64{
		{4, 2, 1},
		{6, 4},
	}, 0, 1)
	if len(points) != 3 {
		t.Fatalf("expected 3 columns, got=%+v", points)
	}
	if points[0].Value != 5 || points[1].Value != 3 || points[2].Value != 1 {
		t.Fatalf("unexpected averages: %+v", points)
	}
}

func TestBuildAverageTraceEmpty(t *testing.T) {
	if points := BuildAverageTrace(nil, 0, 1); len(points) != 0 {
		t.Fatalf("expected empty trace, got=%+v", points)
	}
}

func TestSummaryFormatting(t *testing.T) {
	text := Summary("gradient", tuning.FitReport{
		IterationsPlanned:  100000,
		IterationsExecuted: 1234,
		Evaluations:        5000,
		Accepted:           1200,
		Rejected:           34,
		InitialMSE:         7,
		FinalMSE:           1e-9,
		GoalReached:        true,
	})
	if !strings.Contains(text, "gradient") {
		t.Fatalf("expected label in summary, got=%q", text)
	}
	if !strings.Contains(text, "1,234") || !strings.Contains(text, "100,000") {
		t.Fatalf("expected comma-grouped counts, got=%q", text)
	}
	if !strings.Contains(text, "goal reached") {
		t.Fatalf("expected goal marker, got=%q", text)
	}
}

func TestTraceFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traces", "run.json")
	input := []TracePoint{{Index: 0, Value: 3}, {Index: 1, Value: 0.5}}
	if err := WriteTraceFile(path, input); err != nil {
		t.Fatalf("write trace: %v", err)
	}
	output, err := ReadTraceFile(path)
	if err != nil {
		t.Fatalf("read trace: %v", err)
	}
	if !reflect.DeepEqual(output, input) {
		t.Fatalf("roundtrip mismatch: got=%+v want=%+v", output, input)
	}
}

func TestSavePlotWritesImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plots", "fit.png")
	points := BuildTrace([]float64{9, 3, 1, 0.2}, 0, 1)
	if err := SavePlot(points, "fit trace", path); err != nil {
		t.Fatalf("save plot: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat plot: %v", err)
	}
	if info.Size() == 0 {
		t.Fatal("expected non-empty image")
	}
}

func TestSavePlotRejectsEmptySeries(t *testing.T) {
	if err := SavePlot(nil, "empty", filepath.Join(t.TempDir(), "x.png")); err == nil {
		t.Fatal("expected error for empty series")
	}
}
