package account

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore keeps accounts in process memory. It backs the memory storage
// driver and the handler tests.
type MemoryStore struct {
	mu       sync.RWMutex
	accounts map[string]Account
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{accounts: make(map[string]Account)}
}

func (s *MemoryStore) Insert(ctx context.Context, acct Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[acct.EmployeeID]; exists {
		return ErrDuplicateEmployeeID
	}
	s.accounts[acct.EmployeeID] = acct
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, employeeID string) (Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acct, ok := s.accounts[employeeID]
	if !ok {
		return Account{}, ErrNotFound
	}
	return acct, nil
}

func (s *MemoryStore) List(ctx context.Context) ([]Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	accounts := make([]Account, 0, len(s.accounts))
	for _, acct := range s.accounts {
		accounts = append(accounts, acct)
	}
	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].EmployeeID < accounts[j].EmployeeID
	})
	return accounts, nil
}

func (s *MemoryStore) Update(ctx context.Context, acct Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[acct.EmployeeID]; !ok {
		return ErrNotFound
	}
	s.accounts[acct.EmployeeID] = acct
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, employeeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[employeeID]; !ok {
		return ErrNotFound
	}
	delete(s.accounts, employeeID)
	return nil
}
