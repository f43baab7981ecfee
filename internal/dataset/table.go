// Package dataset holds the regression tables fed to the evaluator and the
// constants fitter: named feature columns plus one target column, with CSV
// and JSON table-file round trips.
package dataset

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

type Table struct {
	Name     string      `json:"name"`
	Features []string    `json:"features"`
	Target   string      `json:"target"`
	X        [][]float64 `json:"x"`
	Y        []float64   `json:"y"`
}

func (t Table) Samples() int      { return len(t.X) }
func (t Table) FeatureCount() int { return len(t.Features) }

// Matrices converts the table into the evaluator's input shapes: X rows are
// samples, columns are features.
func (t Table) Matrices() (*mat.Dense, *mat.VecDense, error) {
	samples := len(t.X)
	features := len(t.Features)
	if samples == 0 || features == 0 {
		return nil, nil, fmt.Errorf("table %q has no data", t.Name)
	}
	if len(t.Y) != samples {
		return nil, nil, fmt.Errorf("table %q: %d samples but %d targets", t.Name, samples, len(t.Y))
	}
	x := mat.NewDense(samples, features, nil)
	for s, row := range t.X {
		if len(row) != features {
			return nil, nil, fmt.Errorf("table %q row %d: expected %d features, got %d", t.Name, s, features, len(row))
		}
		x.SetRow(s, row)
	}
	return x, mat.NewVecDense(samples, append([]float64(nil), t.Y...)), nil
}

// Split partitions the table into a training prefix and validation suffix.
func (t Table) Split(trainFraction float64) (Table, Table, error) {
	if trainFraction <= 0 || trainFraction >= 1 {
		return Table{}, Table{}, fmt.Errorf("invalid train fraction: %f", trainFraction)
	}
	cut := int(float64(len(t.X)) * trainFraction)
	if cut < 1 || cut >= len(t.X) {
		return Table{}, Table{}, fmt.Errorf("table %q too small to split at %f", t.Name, trainFraction)
	}
	train := Table{
		Name:     t.Name + "-train",
		Features: append([]string(nil), t.Features...),
		Target:   t.Target,
		X:        copyRows(t.X[:cut]),
		Y:        append([]float64(nil), t.Y[:cut]...),
	}
	val := Table{
		Name:     t.Name + "-val",
		Features: append([]string(nil), t.Features...),
		Target:   t.Target,
		X:        copyRows(t.X[cut:]),
		Y:        append([]float64(nil), t.Y[cut:]...),
	}
	return train, val, nil
}

// FromXY builds a table straight from evaluator-shaped matrices, naming
// features X_0..X_{n-1}.
func FromXY(name string, x *mat.Dense, y *mat.VecDense) Table {
	samples, features := x.Dims()
	t := Table{Name: name, Target: "y"}
	for j := 0; j < features; j++ {
		t.Features = append(t.Features, fmt.Sprintf("X_%d", j))
	}
	for s := 0; s < samples; s++ {
		t.X = append(t.X, append([]float64(nil), x.RawRowView(s)...))
		t.Y = append(t.Y, y.AtVec(s))
	}
	return t
}

// FromCSV reads a numeric table. The last column is the target; earlier
// columns are features. The first record is the header.
func FromCSV(in io.Reader, name string) (Table, error) {
	reader := csv.NewReader(in)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return Table{}, fmt.Errorf("csv table %q is empty", name)
	}
	if err != nil {
		return Table{}, fmt.Errorf("read csv header: %w", err)
	}
	if len(header) < 2 {
		return Table{}, fmt.Errorf("csv table %q needs at least one feature and one target column", name)
	}

	t := Table{Name: name}
	for _, h := range header[:len(header)-1] {
		t.Features = append(t.Features, strings.TrimSpace(h))
	}
	t.Target = strings.TrimSpace(header[len(header)-1])

	rowIndex := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Table{}, fmt.Errorf("read csv row %d: %w", rowIndex, err)
		}
		if blankRecord(record) {
			continue
		}
		if len(record) != len(header) {
			return Table{}, fmt.Errorf("csv row %d: expected %d columns, got %d", rowIndex, len(header), len(record))
		}
		row := make([]float64, 0, len(record)-1)
		for i, raw := range record {
			value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
			if err != nil {
				return Table{}, fmt.Errorf("parse csv row %d column %d: %w", rowIndex, i, err)
			}
			if i == len(record)-1 {
				t.Y = append(t.Y, value)
			} else {
				row = append(row, value)
			}
		}
		t.X = append(t.X, row)
		rowIndex++
	}
	return t, nil
}

func WriteTableFile(path string, t Table) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("table file path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

func ReadTableFile(path string) (Table, error) {
	if strings.TrimSpace(path) == "" {
		return Table{}, fmt.Errorf("table file path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Table{}, err
	}
	var t Table
	if err := json.Unmarshal(data, &t); err != nil {
		return Table{}, err
	}
	return t, nil
}

func copyRows(rows [][]float64) [][]float64 {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		out[i] = append([]float64(nil), row...)
	}
	return out
}

func blankRecord(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
