package leave

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Directory resolves the account slice the engine needs when admitting a
// submission: the display name snapshot and the configured quotas. Lookup
// fails with ErrAccountNotFound for unknown employees.
type Directory interface {
	Lookup(ctx context.Context, employeeID string) (AccountInfo, error)
}

// Service owns the submission, approval and read flows for leave records.
type Service struct {
	Store     RecordStore
	Directory Directory
	Ledger    *Ledger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewService(store RecordStore, directory Directory) *Service {
	return &Service{
		Store:     store,
		Directory: directory,
		Ledger:    NewLedger(store),
		locks:     make(map[string]*sync.Mutex),
	}
}

// employeeLock returns the serialization point for one employee's
// submissions. The quota check and the insert both happen under it, so two
// concurrent submissions cannot jointly overdraw an allotment.
func (s *Service) employeeLock(employeeID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[employeeID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[employeeID] = lock
	}
	return lock
}

type SubmitInput struct {
	EmployeeID string
	Category   Category
	StartDate  time.Time
	StartTime  string
	EndDate    time.Time
	EndTime    string
	Hours      decimal.Decimal
	Reason     string
}

func (in SubmitInput) validate() error {
	if strings.TrimSpace(in.EmployeeID) == "" {
		return &ValidationError{Field: "employeeId", Reason: "is required"}
	}
	if !ValidCategory(in.Category) {
		return &ValidationError{Field: "leaveType", Reason: "is not a known leave category"}
	}
	if in.StartDate.IsZero() {
		return &ValidationError{Field: "startDate", Reason: "is required"}
	}
	if in.EndDate.IsZero() {
		return &ValidationError{Field: "endDate", Reason: "is required"}
	}
	if in.StartTime != "" {
		if _, err := time.Parse("15:04", in.StartTime); err != nil {
			return &ValidationError{Field: "startTime", Reason: "must use the HH:MM format"}
		}
	}
	if in.EndTime != "" {
		if _, err := time.Parse("15:04", in.EndTime); err != nil {
			return &ValidationError{Field: "endTime", Reason: "must use the HH:MM format"}
		}
	}
	if !in.Hours.IsPositive() {
		return &ValidationError{Field: "leaveHours", Reason: "must be greater than zero"}
	}
	start := combineDateTime(in.StartDate, in.StartTime)
	end := combineDateTime(in.EndDate, in.EndTime)
	if end.Before(start) {
		return &ValidationError{Field: "endDate", Reason: "must not precede the start"}
	}
	return nil
}

// Submit validates the request, checks the quota ledger and inserts the
// record in pending state. Admission and insert run under the employee's
// serialization point. A denied admission surfaces as a QuotaError; the
// record is not stored.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (Record, error) {
	if err := in.validate(); err != nil {
		return Record{}, err
	}
	acct, err := s.Directory.Lookup(ctx, in.EmployeeID)
	if err != nil {
		return Record{}, err
	}

	lock := s.employeeLock(in.EmployeeID)
	lock.Lock()
	defer lock.Unlock()

	year := in.StartDate.Year()
	adm, err := s.Ledger.CanAdmit(ctx, acct, in.Category, in.Hours, year)
	if err != nil {
		return Record{}, err
	}
	if !adm.Allowed {
		return Record{}, &QuotaError{
			EmployeeID: in.EmployeeID,
			Category:   in.Category,
			QuotaType:  adm.QuotaType,
			Requested:  in.Hours,
			Consumed:   adm.Consumed,
			Quota:      adm.Quota,
		}
	}

	rec := Record{
		ID:         uuid.NewString(),
		EmployeeID: in.EmployeeID,
		Name:       acct.Name,
		Category:   in.Category,
		StartDate:  in.StartDate,
		StartTime:  in.StartTime,
		EndDate:    in.EndDate,
		EndTime:    in.EndTime,
		Hours:      in.Hours,
		Reason:     strings.TrimSpace(in.Reason),
		Status:     StatusPending,
		AppliedAt:  time.Now().UTC(),
	}
	if err := s.Store.Insert(ctx, rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// Get returns one record by id.
func (s *Service) Get(ctx context.Context, id string) (Record, error) {
	return s.Store.Get(ctx, id)
}

// Approve moves a pending record to approved on behalf of approver.
func (s *Service) Approve(ctx context.Context, id, approver string) (Record, error) {
	return s.transition(ctx, id, StatusApproved, approver)
}

// Reject moves a pending record to rejected, releasing its reservation.
func (s *Service) Reject(ctx context.Context, id, approver string) (Record, error) {
	return s.transition(ctx, id, StatusRejected, approver)
}

func (s *Service) transition(ctx context.Context, id string, next Status, approver string) (Record, error) {
	if strings.TrimSpace(id) == "" {
		return Record{}, &ValidationError{Field: "id", Reason: "is required"}
	}
	if strings.TrimSpace(approver) == "" {
		return Record{}, &ValidationError{Field: "approver", Reason: "is required"}
	}
	return s.Store.Transition(ctx, id, next, approver, time.Now().UTC())
}

// ListResult is the read-side view for the records page: the matched
// records, their per-category totals, the resolved employee's configured
// quotas when the query is scoped to one employee, and the match count.
type ListResult struct {
	Records    []Record
	Statistics map[Category]decimal.Decimal
	Quotas     *Quotas
	Total      int
}

func (s *Service) List(ctx context.Context, f Filter) (ListResult, error) {
	records, err := s.Store.Query(ctx, f)
	if err != nil {
		return ListResult{}, err
	}
	result := ListResult{
		Records:    records,
		Statistics: Statistics(records),
		Total:      len(records),
	}
	if f.EmployeeID != "" {
		acct, err := s.Directory.Lookup(ctx, f.EmployeeID)
		if err != nil && !errors.Is(err, ErrAccountNotFound) {
			return ListResult{}, err
		}
		if err == nil {
			quotas := acct.Quotas
			result.Quotas = &quotas
		}
	}
	return result, nil
}

// Remaining reports quota left per type for one employee in year.
func (s *Service) Remaining(ctx context.Context, employeeID string, year int) (map[QuotaType]decimal.Decimal, error) {
	acct, err := s.Directory.Lookup(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	return s.Ledger.Remaining(ctx, acct, year)
}

// UsageRow is one employee's ledger consumption for the usage report.
// Rejected records never count here.
type UsageRow struct {
	EmployeeID string
	Name       string
	Consumed   map[Category]decimal.Decimal
}

// UsageByYear aggregates consumption per employee and category over the
// records whose start date falls in year. Rows are ordered by employee id.
func (s *Service) UsageByYear(ctx context.Context, year int) ([]UsageRow, error) {
	records, err := s.Store.Query(ctx, Filter{})
	if err != nil {
		return nil, err
	}
	byEmployee := make(map[string]*UsageRow)
	for _, rec := range records {
		if rec.Status == StatusRejected || rec.StartDate.Year() != year {
			continue
		}
		row, ok := byEmployee[rec.EmployeeID]
		if !ok {
			row = &UsageRow{
				EmployeeID: rec.EmployeeID,
				Name:       rec.Name,
				Consumed:   make(map[Category]decimal.Decimal, len(Categories())),
			}
			byEmployee[rec.EmployeeID] = row
		}
		row.Consumed[rec.Category] = row.Consumed[rec.Category].Add(rec.Hours)
	}

	ids := make([]string, 0, len(byEmployee))
	for id := range byEmployee {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	rows := make([]UsageRow, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, *byEmployee[id])
	}
	return rows, nil
}
