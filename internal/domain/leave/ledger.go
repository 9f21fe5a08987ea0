package leave

import (
	"context"

	"github.com/shopspring/decimal"
)

// Ledger answers quota questions against the record store. Pending and
// approved records both consume quota, so a submission reserves its hours
// immediately; rejecting the record releases the reservation. All
// comparisons are exact decimal comparisons.
type Ledger struct {
	records RecordStore
}

func NewLedger(records RecordStore) *Ledger {
	return &Ledger{records: records}
}

// ConsumedHours sums the hours of the employee's non-rejected records whose
// category maps to qt and whose start date falls in year.
func (l *Ledger) ConsumedHours(ctx context.Context, employeeID string, qt QuotaType, year int) (decimal.Decimal, error) {
	records, err := l.records.Query(ctx, Filter{EmployeeID: employeeID})
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, rec := range records {
		if rec.Status == StatusRejected {
			continue
		}
		if rec.StartDate.Year() != year {
			continue
		}
		recQT, limited := QuotaTypeFor(rec.Category)
		if !limited || recQT != qt {
			continue
		}
		total = total.Add(rec.Hours)
	}
	return total, nil
}

// Admission is the outcome of a quota check. The arithmetic is carried so
// the submission flow can report it without recomputing.
type Admission struct {
	Allowed   bool
	QuotaType QuotaType
	Consumed  decimal.Decimal
	Quota     decimal.Decimal
}

// CanAdmit reports whether hours more of category fit within the account's
// allotment for year. Unlimited categories always fit. A false result is a
// decision, not an error; the caller chooses how to surface it.
func (l *Ledger) CanAdmit(ctx context.Context, acct AccountInfo, category Category, hours decimal.Decimal, year int) (Admission, error) {
	qt, limited := QuotaTypeFor(category)
	if !limited {
		return Admission{Allowed: true}, nil
	}
	consumed, err := l.ConsumedHours(ctx, acct.EmployeeID, qt, year)
	if err != nil {
		return Admission{}, err
	}
	quota := acct.Quotas.ForType(qt)
	return Admission{
		Allowed:   consumed.Add(hours).LessThanOrEqual(quota),
		QuotaType: qt,
		Consumed:  consumed,
		Quota:     quota,
	}, nil
}

// Remaining returns allotment minus consumption for each quota type in
// year. Overdrawn balances are reported as zero rather than negative.
func (l *Ledger) Remaining(ctx context.Context, acct AccountInfo, year int) (map[QuotaType]decimal.Decimal, error) {
	records, err := l.records.Query(ctx, Filter{EmployeeID: acct.EmployeeID})
	if err != nil {
		return nil, err
	}
	consumed := make(map[QuotaType]decimal.Decimal, len(QuotaTypes()))
	for _, rec := range records {
		if rec.Status == StatusRejected || rec.StartDate.Year() != year {
			continue
		}
		qt, limited := QuotaTypeFor(rec.Category)
		if !limited {
			continue
		}
		consumed[qt] = consumed[qt].Add(rec.Hours)
	}
	out := make(map[QuotaType]decimal.Decimal, len(QuotaTypes()))
	for _, qt := range QuotaTypes() {
		left := acct.Quotas.ForType(qt).Sub(consumed[qt])
		if left.IsNegative() {
			left = decimal.Zero
		}
		out[qt] = left
	}
	return out, nil
}
