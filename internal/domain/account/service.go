package account

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"leavesys/internal/domain/auth"
	"leavesys/internal/domain/leave"
)

const minPasswordLength = 4

// Service owns the account lifecycle: admin CRUD over employee accounts,
// login verification and the employee-facing password change.
type Service struct {
	Store StoreAPI
}

func NewService(store StoreAPI) *Service {
	return &Service{Store: store}
}

// CreateInput carries a new account. Quota fields left nil fall back to the
// creation defaults; the stored per-employee values are authoritative from
// then on.
type CreateInput struct {
	EmployeeID     string
	Name           string
	Password       string
	Permission     Permission
	AnnualLeave    *decimal.Decimal
	SickLeave      *decimal.Decimal
	MenstrualLeave *decimal.Decimal
	PersonalLeave  *decimal.Decimal
}

func (in CreateInput) validate() error {
	if strings.TrimSpace(in.EmployeeID) == "" {
		return &ValidationError{Field: "employeeId", Reason: "is required"}
	}
	if strings.TrimSpace(in.Name) == "" {
		return &ValidationError{Field: "name", Reason: "is required"}
	}
	if len(in.Password) < minPasswordLength {
		return &ValidationError{Field: "password", Reason: "must be at least 4 characters"}
	}
	if _, ok := ParsePermission(string(in.Permission)); !ok {
		return &ValidationError{Field: "permission", Reason: "must be employee or admin"}
	}
	for field, value := range map[string]*decimal.Decimal{
		"annualLeave":    in.AnnualLeave,
		"sickLeave":      in.SickLeave,
		"menstrualLeave": in.MenstrualLeave,
		"personalLeave":  in.PersonalLeave,
	} {
		if value != nil && value.IsNegative() {
			return &ValidationError{Field: field, Reason: "must not be negative"}
		}
	}
	return nil
}

func (in CreateInput) quotas() leave.Quotas {
	q := leave.DefaultQuotas()
	if in.AnnualLeave != nil {
		q.AnnualLeave = *in.AnnualLeave
	}
	if in.SickLeave != nil {
		q.SickLeave = *in.SickLeave
	}
	if in.MenstrualLeave != nil {
		q.MenstrualLeave = *in.MenstrualLeave
	}
	if in.PersonalLeave != nil {
		q.PersonalLeave = *in.PersonalLeave
	}
	return q
}

func (s *Service) Create(ctx context.Context, in CreateInput) (Account, error) {
	if err := in.validate(); err != nil {
		return Account{}, err
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return Account{}, err
	}
	now := time.Now().UTC()
	acct := Account{
		EmployeeID:   strings.TrimSpace(in.EmployeeID),
		Name:         strings.TrimSpace(in.Name),
		PasswordHash: hash,
		Permission:   in.Permission,
		Quotas:       in.quotas(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Store.Insert(ctx, acct); err != nil {
		return Account{}, err
	}
	return acct, nil
}

func (s *Service) Get(ctx context.Context, employeeID string) (Account, error) {
	return s.Store.Get(ctx, employeeID)
}

func (s *Service) List(ctx context.Context) ([]Account, error) {
	return s.Store.List(ctx)
}

// UpdateInput is a partial account update. Nil fields keep their stored
// values; EmployeeID is the immutable key and cannot change.
type UpdateInput struct {
	Name           *string
	Password       *string
	Permission     *Permission
	AnnualLeave    *decimal.Decimal
	SickLeave      *decimal.Decimal
	MenstrualLeave *decimal.Decimal
	PersonalLeave  *decimal.Decimal
}

func (s *Service) Update(ctx context.Context, employeeID string, in UpdateInput) (Account, error) {
	acct, err := s.Store.Get(ctx, employeeID)
	if err != nil {
		return Account{}, err
	}
	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return Account{}, &ValidationError{Field: "name", Reason: "is required"}
		}
		acct.Name = strings.TrimSpace(*in.Name)
	}
	if in.Password != nil {
		if len(*in.Password) < minPasswordLength {
			return Account{}, &ValidationError{Field: "password", Reason: "must be at least 4 characters"}
		}
		hash, err := auth.HashPassword(*in.Password)
		if err != nil {
			return Account{}, err
		}
		acct.PasswordHash = hash
	}
	if in.Permission != nil {
		if _, ok := ParsePermission(string(*in.Permission)); !ok {
			return Account{}, &ValidationError{Field: "permission", Reason: "must be employee or admin"}
		}
		acct.Permission = *in.Permission
	}
	for field, pair := range map[string]struct {
		src *decimal.Decimal
		dst *decimal.Decimal
	}{
		"annualLeave":    {in.AnnualLeave, &acct.Quotas.AnnualLeave},
		"sickLeave":      {in.SickLeave, &acct.Quotas.SickLeave},
		"menstrualLeave": {in.MenstrualLeave, &acct.Quotas.MenstrualLeave},
		"personalLeave":  {in.PersonalLeave, &acct.Quotas.PersonalLeave},
	} {
		if pair.src == nil {
			continue
		}
		if pair.src.IsNegative() {
			return Account{}, &ValidationError{Field: field, Reason: "must not be negative"}
		}
		*pair.dst = *pair.src
	}
	acct.UpdatedAt = time.Now().UTC()
	if err := s.Store.Update(ctx, acct); err != nil {
		return Account{}, err
	}
	return acct, nil
}

// Delete removes an account. An admin cannot delete their own account.
func (s *Service) Delete(ctx context.Context, employeeID, actorID string) error {
	if employeeID == actorID {
		return ErrSelfDeletion
	}
	return s.Store.Delete(ctx, employeeID)
}

// Authenticate verifies login credentials. Unknown ids and wrong passwords
// both come back as ErrPasswordMismatch so callers answer uniformly.
func (s *Service) Authenticate(ctx context.Context, employeeID, password string) (Account, error) {
	acct, err := s.Store.Get(ctx, employeeID)
	if err != nil {
		return Account{}, ErrPasswordMismatch
	}
	if err := auth.CheckPassword(acct.PasswordHash, password); err != nil {
		return Account{}, ErrPasswordMismatch
	}
	return acct, nil
}

// ChangePassword rotates the caller's own password after verifying the
// current one. The new password must be at least 4 characters and differ
// from the current password.
func (s *Service) ChangePassword(ctx context.Context, employeeID, current, next string) error {
	acct, err := s.Store.Get(ctx, employeeID)
	if err != nil {
		return err
	}
	if err := auth.CheckPassword(acct.PasswordHash, current); err != nil {
		return ErrPasswordMismatch
	}
	if len(next) < minPasswordLength {
		return ErrPasswordTooShort
	}
	if next == current {
		return ErrPasswordUnchanged
	}
	hash, err := auth.HashPassword(next)
	if err != nil {
		return err
	}
	acct.PasswordHash = hash
	acct.UpdatedAt = time.Now().UTC()
	return s.Store.Update(ctx, acct)
}

// Lookup satisfies the leave engine's directory dependency: the name
// snapshot taken at submission time plus the configured quotas.
func (s *Service) Lookup(ctx context.Context, employeeID string) (leave.AccountInfo, error) {
	acct, err := s.Store.Get(ctx, employeeID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return leave.AccountInfo{}, leave.ErrAccountNotFound
		}
		return leave.AccountInfo{}, err
	}
	return leave.AccountInfo{
		EmployeeID: acct.EmployeeID,
		Name:       acct.Name,
		Quotas:     acct.Quotas,
	}, nil
}
