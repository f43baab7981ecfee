package storage

import (
	"context"

	"symreg/internal/model"
)

// Store defines the persistence operations of the equation archive.
type Store interface {
	Init(ctx context.Context) error
	SaveEquation(ctx context.Context, record model.EquationRecord) error
	GetEquation(ctx context.Context, id string) (model.EquationRecord, bool, error)
	ListEquations(ctx context.Context) ([]model.EquationRecord, error)
	DeleteEquation(ctx context.Context, id string) error
	SaveFitTrace(ctx context.Context, record model.FitTraceRecord) error
	GetFitTrace(ctx context.Context, id string) (model.FitTraceRecord, bool, error)
}
