// Package model holds the persisted record shapes for the equation archive.
// Records mirror domain state with plain JSON-friendly fields so stored
// payloads survive refactors of the in-memory types.
package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"symreg/internal/equation"
	"symreg/internal/op"
	"symreg/internal/program"
)

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// CommandRecord is the persisted form of one program row. The opcode is
// stored by name so archives stay readable and stable across opcode
// renumbering.
type CommandRecord struct {
	Op   string `json:"op"`
	Arg1 int    `json:"arg1"`
	Arg2 int    `json:"arg2"`
}

// EquationRecord is a full archived equation: raw and simplified rows, the
// constants vector, and every piece of cached metadata, so a load restores
// the equation without recomputation.
type EquationRecord struct {
	VersionedRecord
	ID         string          `json:"id"`
	Label      string          `json:"label"`
	Raw        []CommandRecord `json:"raw"`
	Simplified []CommandRecord `json:"simplified"`
	Constants  []float64       `json:"constants"`
	NeedsOpt   bool            `json:"needs_opt"`
	Fitness    float64         `json:"fitness"`
	FitSet     bool            `json:"fit_set"`
	Age        int             `json:"age"`
	Stale      bool            `json:"stale"`
	Simplifier string          `json:"simplifier"`
	Policy     string          `json:"policy"`
	CreatedAt  string          `json:"created_at"`
}

// FitTraceRecord is one archived constants-fitting run.
type FitTraceRecord struct {
	VersionedRecord
	ID                 string    `json:"id"`
	EquationID         string    `json:"equation_id"`
	Fitter             string    `json:"fitter"`
	IterationsPlanned  int       `json:"iterations_planned"`
	IterationsExecuted int       `json:"iterations_executed"`
	Evaluations        int       `json:"evaluations"`
	Accepted           int       `json:"accepted"`
	Rejected           int       `json:"rejected"`
	InitialMSE         float64   `json:"initial_mse"`
	FinalMSE           float64   `json:"final_mse"`
	GoalReached        bool      `json:"goal_reached"`
	History            []float64 `json:"history,omitempty"`
	CreatedAt          string    `json:"created_at"`
}

// NewID mints a record identifier.
func NewID() string {
	return uuid.NewString()
}

// Timestamp returns the archive timestamp for now.
func Timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// CommandsFromProgram converts program rows to their persisted form.
func CommandsFromProgram(p program.Program) []CommandRecord {
	records := make([]CommandRecord, len(p))
	for i, cmd := range p {
		records[i] = CommandRecord{Op: cmd.Op.String(), Arg1: cmd.Arg1, Arg2: cmd.Arg2}
	}
	return records
}

// ProgramFromCommands resolves persisted rows back to program rows.
func ProgramFromCommands(records []CommandRecord) (program.Program, error) {
	p := make(program.Program, len(records))
	for i, record := range records {
		code, err := op.FromName(record.Op)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		p[i] = program.Command{Op: code, Arg1: record.Arg1, Arg2: record.Arg2}
	}
	return p, nil
}

// NewEquationRecord snapshots an equation state into a fresh record with a
// minted ID and creation time. Version fields are stamped by the caller.
func NewEquationRecord(label string, s equation.State) EquationRecord {
	return EquationRecord{
		ID:         NewID(),
		Label:      label,
		Raw:        CommandsFromProgram(s.Raw),
		Simplified: CommandsFromProgram(s.Simplified),
		Constants:  append([]float64{}, s.Constants...),
		NeedsOpt:   s.NeedsOpt,
		Fitness:    s.Fitness,
		FitSet:     s.FitSet,
		Age:        s.Age,
		Stale:      s.Stale,
		Simplifier: s.Simplifier,
		Policy:     s.Policy,
		CreatedAt:  Timestamp(),
	}
}

// State rebuilds the equation snapshot held by the record.
func (r EquationRecord) State() (equation.State, error) {
	raw, err := ProgramFromCommands(r.Raw)
	if err != nil {
		return equation.State{}, fmt.Errorf("raw program: %w", err)
	}
	simplified, err := ProgramFromCommands(r.Simplified)
	if err != nil {
		return equation.State{}, fmt.Errorf("simplified program: %w", err)
	}
	return equation.State{
		Raw:        raw,
		Simplified: simplified,
		Constants:  append([]float64{}, r.Constants...),
		NeedsOpt:   r.NeedsOpt,
		Fitness:    r.Fitness,
		FitSet:     r.FitSet,
		Age:        r.Age,
		Stale:      r.Stale,
		Simplifier: r.Simplifier,
		Policy:     r.Policy,
	}, nil
}
