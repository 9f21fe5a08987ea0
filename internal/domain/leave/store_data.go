package leave

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"leavesys/internal/platform/querier"
)

// Store is the Postgres-backed RecordStore.
type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

const recordColumns = "id, employee_id, name, category, start_date, start_time, end_date, end_time, hours, reason, status, applied_at, approved_at, approver"

const (
	insertRecordSQL = `INSERT INTO leave_records (id, employee_id, name, category, start_date, start_time, end_date, end_time, hours, reason, status, applied_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`

	getRecordSQL = `SELECT ` + recordColumns + ` FROM leave_records WHERE id = $1`

	transitionRecordSQL = `UPDATE leave_records
    SET status = $2, approver = $3, approved_at = $4
    WHERE id = $1 AND status = $5
    RETURNING ` + recordColumns

	recordStatusSQL = `SELECT status FROM leave_records WHERE id = $1`
)

func (s *Store) Insert(ctx context.Context, rec Record) error {
	if rec.Status == "" {
		rec.Status = StatusPending
	}
	if rec.Status != StatusPending {
		return &ValidationError{Field: "approvalStatus", Reason: "new records must be pending"}
	}
	if err := rec.Validate(); err != nil {
		return err
	}
	_, err := s.DB.Exec(ctx, insertRecordSQL,
		rec.ID, rec.EmployeeID, rec.Name, string(rec.Category), rec.StartDate, rec.StartTime,
		rec.EndDate, rec.EndTime, rec.Hours, rec.Reason, string(rec.Status), rec.AppliedAt)
	return translatePgError(err)
}

func (s *Store) Get(ctx context.Context, id string) (Record, error) {
	rec, err := scanRecord(s.DB.QueryRow(ctx, getRecordSQL, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrRecordNotFound
	}
	return rec, err
}

func (s *Store) Transition(ctx context.Context, id string, next Status, approver string, at time.Time) (Record, error) {
	if !StatusPending.CanTransition(next) {
		return Record{}, &TransitionError{ID: id, From: StatusPending, To: next}
	}

	row := s.DB.QueryRow(ctx, transitionRecordSQL, id, string(next), approver, at, string(StatusPending))
	rec, err := scanRecord(row)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Record{}, err
	}

	// Nothing updated: either the id is unknown or another transition won.
	var current string
	err = s.DB.QueryRow(ctx, recordStatusSQL, id).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrRecordNotFound
	}
	if err != nil {
		return Record{}, err
	}
	return Record{}, &TransitionError{ID: id, From: Status(current), To: next}
}

func (s *Store) Query(ctx context.Context, f Filter) ([]Record, error) {
	var (
		clauses []string
		args    []any
	)
	add := func(expr string, value any) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf(expr, len(args)))
	}
	if f.EmployeeID != "" {
		add("employee_id = $%d", f.EmployeeID)
	}
	if f.Status != nil {
		add("status = $%d", string(*f.Status))
	}
	if f.Category != nil {
		add("category = $%d", string(*f.Category))
	}
	if f.StartMonth != nil {
		add("start_date >= $%d", f.StartMonth.First())
	}
	if f.EndMonth != nil {
		add("start_date < $%d", f.EndMonth.Next())
	}

	query := "SELECT " + recordColumns + " FROM leave_records"
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY applied_at DESC, id ASC"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func scanRecord(row pgx.Row) (Record, error) {
	var (
		rec        Record
		category   string
		status     string
		approvedAt *time.Time
	)
	err := row.Scan(&rec.ID, &rec.EmployeeID, &rec.Name, &category,
		&rec.StartDate, &rec.StartTime, &rec.EndDate, &rec.EndTime,
		&rec.Hours, &rec.Reason, &status, &rec.AppliedAt, &approvedAt, &rec.Approver)
	if err != nil {
		return Record{}, err
	}
	rec.Category = Category(category)
	rec.Status = Status(status)
	rec.ApprovedAt = approvedAt
	return rec, nil
}

func translatePgError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateRecord
	}
	return err
}
