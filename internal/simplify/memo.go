package simplify

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru"

	"symreg/internal/program"
)

const defaultMemoSize = 512

// Memo fronts a strategy with an LRU cache keyed by the program fingerprint.
// Evolutionary search re-simplifies structurally identical programs
// constantly; the cache turns those repeats into a clone of the stored
// result. Cached programs are cloned on both insert and hit so callers can
// never alias cache storage.
type Memo struct {
	inner Strategy
	cache *lru.Cache
}

func NewMemo(inner Strategy, size int) (*Memo, error) {
	if inner == nil {
		return nil, fmt.Errorf("memo requires an inner strategy")
	}
	if size <= 0 {
		size = defaultMemoSize
	}
	cache, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("create memo cache: %w", err)
	}
	return &Memo{inner: inner, cache: cache}, nil
}

func (m *Memo) Name() string { return m.inner.Name() }

func (m *Memo) Simplify(p program.Program) (program.Program, error) {
	key := program.Fingerprint(p)
	if cached, ok := m.cache.Get(key); ok {
		return cached.(program.Program).Clone(), nil
	}
	simplified, err := m.inner.Simplify(p)
	if err != nil {
		return nil, err
	}
	m.cache.Add(key, simplified.Clone())
	return simplified, nil
}

func (m *Memo) Len() int { return m.cache.Len() }
