package account

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"leavesys/internal/platform/querier"
)

// Store is the Postgres-backed account store.
type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

const accountColumns = "employee_id, name, password_hash, permission, annual_leave, sick_leave, menstrual_leave, personal_leave, created_at, updated_at"

const (
	insertAccountSQL = `INSERT INTO accounts (employee_id, name, password_hash, permission, annual_leave, sick_leave, menstrual_leave, personal_leave, created_at, updated_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`

	getAccountSQL = `SELECT ` + accountColumns + ` FROM accounts WHERE employee_id = $1`

	listAccountsSQL = `SELECT ` + accountColumns + ` FROM accounts ORDER BY employee_id ASC`

	updateAccountSQL = `UPDATE accounts
    SET name = $2, password_hash = $3, permission = $4, annual_leave = $5, sick_leave = $6, menstrual_leave = $7, personal_leave = $8, updated_at = $9
    WHERE employee_id = $1`

	deleteAccountSQL = `DELETE FROM accounts WHERE employee_id = $1`
)

func (s *Store) Insert(ctx context.Context, acct Account) error {
	_, err := s.DB.Exec(ctx, insertAccountSQL,
		acct.EmployeeID, acct.Name, acct.PasswordHash, string(acct.Permission),
		acct.Quotas.AnnualLeave, acct.Quotas.SickLeave, acct.Quotas.MenstrualLeave, acct.Quotas.PersonalLeave,
		acct.CreatedAt, acct.UpdatedAt)
	return translatePgError(err)
}

func (s *Store) Get(ctx context.Context, employeeID string) (Account, error) {
	acct, err := scanAccount(s.DB.QueryRow(ctx, getAccountSQL, employeeID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, ErrNotFound
	}
	return acct, err
}

func (s *Store) List(ctx context.Context) ([]Account, error) {
	rows, err := s.DB.Query(ctx, listAccountsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []Account
	for rows.Next() {
		acct, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, acct)
	}
	return accounts, rows.Err()
}

func (s *Store) Update(ctx context.Context, acct Account) error {
	tag, err := s.DB.Exec(ctx, updateAccountSQL,
		acct.EmployeeID, acct.Name, acct.PasswordHash, string(acct.Permission),
		acct.Quotas.AnnualLeave, acct.Quotas.SickLeave, acct.Quotas.MenstrualLeave, acct.Quotas.PersonalLeave,
		acct.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, employeeID string) error {
	tag, err := s.DB.Exec(ctx, deleteAccountSQL, employeeID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanAccount(row pgx.Row) (Account, error) {
	var (
		acct       Account
		permission string
	)
	err := row.Scan(&acct.EmployeeID, &acct.Name, &acct.PasswordHash, &permission,
		&acct.Quotas.AnnualLeave, &acct.Quotas.SickLeave, &acct.Quotas.MenstrualLeave, &acct.Quotas.PersonalLeave,
		&acct.CreatedAt, &acct.UpdatedAt)
	if err != nil {
		return Account{}, err
	}
	acct.Permission = Permission(permission)
	return acct, nil
}

func translatePgError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateEmployeeID
	}
	return err
}
