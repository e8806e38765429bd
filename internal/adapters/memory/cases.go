package memory

import (
	"context"
	"encoding/json"
	"sync"

	"reliefcheck/internal/domain"
	"reliefcheck/internal/ports"
)

// CaseStore keeps case documents in memory. Documents are stored encoded
// so callers never share slices with the store.
type CaseStore struct {
	mu    sync.RWMutex
	cases map[string][]byte
}

func NewCaseStore() *CaseStore {
	return &CaseStore{cases: map[string][]byte{}}
}

func (s *CaseStore) Load(_ context.Context, caseID string) (domain.Case, error) {
	s.mu.RLock()
	b, ok := s.cases[caseID]
	s.mu.RUnlock()
	if !ok {
		return domain.Case{}, ports.ErrNotFound
	}
	var c domain.Case
	err := json.Unmarshal(b, &c)
	return c, err
}

func (s *CaseStore) Save(_ context.Context, c domain.Case) error {
	b, err := json.Marshal(c)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.cases[c.CaseID] = b
	s.mu.Unlock()
	return nil
}
