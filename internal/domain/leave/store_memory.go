package leave

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps leave records in process memory. It backs the memory
// storage driver and the handler tests; the mutex gives it the same
// atomic-transition guarantee as the Postgres store.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

func (s *MemoryStore) Insert(ctx context.Context, rec Record) error {
	if rec.Status == "" {
		rec.Status = StatusPending
	}
	if rec.Status != StatusPending {
		return &ValidationError{Field: "approvalStatus", Reason: "new records must be pending"}
	}
	if err := rec.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[rec.ID]; exists {
		return ErrDuplicateRecord
	}
	s.records[rec.ID] = rec
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return Record{}, ErrRecordNotFound
	}
	return rec, nil
}

func (s *MemoryStore) Transition(ctx context.Context, id string, next Status, approver string, at time.Time) (Record, error) {
	if !StatusPending.CanTransition(next) {
		return Record{}, &TransitionError{ID: id, From: StatusPending, To: next}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return Record{}, ErrRecordNotFound
	}
	if !rec.Status.CanTransition(next) {
		return Record{}, &TransitionError{ID: id, From: rec.Status, To: next}
	}
	when := at
	rec.Status = next
	rec.Approver = approver
	rec.ApprovedAt = &when
	s.records[id] = rec
	return rec, nil
}

func (s *MemoryStore) Query(ctx context.Context, f Filter) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := make([]Record, 0, len(s.records))
	for _, rec := range s.records {
		if f.Matches(rec) {
			records = append(records, rec)
		}
	}
	SortRecords(records)
	return records, nil
}
