package storage

import (
	"context"
	"sort"
	"sync"

	"symreg/internal/model"
)

type MemoryStore struct {
	mu        sync.RWMutex
	equations map[string]model.EquationRecord
	traces    map[string]model.FitTraceRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.equations = make(map[string]model.EquationRecord)
	s.traces = make(map[string]model.FitTraceRecord)
	return nil
}

func (s *MemoryStore) SaveEquation(_ context.Context, record model.EquationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.equations[record.ID] = copyEquationRecord(record)
	return nil
}

func (s *MemoryStore) GetEquation(_ context.Context, id string) (model.EquationRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.equations[id]
	if !ok {
		return model.EquationRecord{}, false, nil
	}
	return copyEquationRecord(record), true, nil
}

func (s *MemoryStore) ListEquations(_ context.Context) ([]model.EquationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]model.EquationRecord, 0, len(s.equations))
	for _, record := range s.equations {
		records = append(records, copyEquationRecord(record))
	}
	sortEquationRecords(records)
	return records, nil
}

func (s *MemoryStore) DeleteEquation(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.equations, id)
	return nil
}

func (s *MemoryStore) SaveFitTrace(_ context.Context, record model.FitTraceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.traces[record.ID] = copyFitTraceRecord(record)
	return nil
}

func (s *MemoryStore) GetFitTrace(_ context.Context, id string) (model.FitTraceRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.traces[id]
	if !ok {
		return model.FitTraceRecord{}, false, nil
	}
	return copyFitTraceRecord(record), true, nil
}

func copyEquationRecord(record model.EquationRecord) model.EquationRecord {
	copied := record
	copied.Raw = append([]model.CommandRecord(nil), record.Raw...)
	copied.Simplified = append([]model.CommandRecord(nil), record.Simplified...)
	copied.Constants = append([]float64(nil), record.Constants...)
	return copied
}

func copyFitTraceRecord(record model.FitTraceRecord) model.FitTraceRecord {
	copied := record
	copied.History = append([]float64(nil), record.History...)
	return copied
}

func sortEquationRecords(records []model.EquationRecord) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].CreatedAt != records[j].CreatedAt {
			return records[i].CreatedAt < records[j].CreatedAt
		}
		return records[i].ID < records[j].ID
	})
}
