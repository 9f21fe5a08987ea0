package leave

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDirectory struct {
	accounts map[string]AccountInfo
}

func (d stubDirectory) Lookup(ctx context.Context, employeeID string) (AccountInfo, error) {
	acct, ok := d.accounts[employeeID]
	if !ok {
		return AccountInfo{}, ErrAccountNotFound
	}
	return acct, nil
}

func newTestService(accounts ...AccountInfo) (*Service, *MemoryStore) {
	store := NewMemoryStore()
	dir := stubDirectory{accounts: make(map[string]AccountInfo)}
	for _, acct := range accounts {
		dir.accounts[acct.EmployeeID] = acct
	}
	return NewService(store, dir), store
}

func submitInput(employeeID string, category Category, startDate string, hours string) SubmitInput {
	return SubmitInput{
		EmployeeID: employeeID,
		Category:   category,
		StartDate:  mustDate(startDate),
		StartTime:  "09:00",
		EndDate:    mustDate(startDate),
		EndTime:    "18:00",
		Hours:      decimal.RequireFromString(hours),
		Reason:     "家中有事",
	}
}

func TestSubmitCreatesPendingRecord(t *testing.T) {
	svc, store := newTestService(testAccount("EMP001"))
	ctx := context.Background()

	rec, err := svc.Submit(ctx, submitInput("EMP001", CategoryPersonal, "2024-06-03", "8"))
	require.NoError(t, err)

	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, StatusPending, rec.Status)
	assert.Equal(t, "王小明", rec.Name, "name is snapshotted from the account")
	assert.Nil(t, rec.ApprovedAt)
	assert.Empty(t, rec.Approver)
	assert.False(t, rec.AppliedAt.IsZero())

	stored, err := store.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec, stored)
}

func TestSubmitQuotaExceeded(t *testing.T) {
	svc, store := newTestService(testAccount("EMP001"))
	ctx := context.Background()

	_, err := svc.Submit(ctx, submitInput("EMP001", CategoryPersonal, "2024-06-03", "8"))
	require.NoError(t, err)

	_, err = svc.Submit(ctx, submitInput("EMP001", CategoryPersonal, "2024-06-10", "8"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrQuotaExceeded)

	var quotaErr *QuotaError
	require.ErrorAs(t, err, &quotaErr)
	assert.Equal(t, "EMP001", quotaErr.EmployeeID)
	assert.Equal(t, QuotaPersonal, quotaErr.QuotaType)
	assert.True(t, quotaErr.Requested.Equal(decimal.NewFromInt(8)))
	assert.True(t, quotaErr.Consumed.Equal(decimal.NewFromInt(8)))
	assert.True(t, quotaErr.Quota.Equal(decimal.NewFromInt(14)))

	records, err := store.Query(ctx, Filter{EmployeeID: "EMP001"})
	require.NoError(t, err)
	assert.Len(t, records, 1, "the denied submission must not be stored")
}

func TestSubmitAfterRejectionReusesQuota(t *testing.T) {
	svc, _ := newTestService(testAccount("EMP001"))
	ctx := context.Background()

	first, err := svc.Submit(ctx, submitInput("EMP001", CategoryPersonal, "2024-06-03", "10"))
	require.NoError(t, err)

	_, err = svc.Submit(ctx, submitInput("EMP001", CategoryPersonal, "2024-06-10", "10"))
	require.ErrorIs(t, err, ErrQuotaExceeded)

	_, err = svc.Reject(ctx, first.ID, "ADMIN001")
	require.NoError(t, err)

	_, err = svc.Submit(ctx, submitInput("EMP001", CategoryPersonal, "2024-06-10", "10"))
	assert.NoError(t, err, "rejection released the reservation")
}

func TestSubmitValidation(t *testing.T) {
	svc, _ := newTestService(testAccount("EMP001"))
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*SubmitInput)
	}{
		{"unknown category", func(in *SubmitInput) { in.Category = "婚假" }},
		{"zero hours", func(in *SubmitInput) { in.Hours = decimal.Zero }},
		{"negative hours", func(in *SubmitInput) { in.Hours = decimal.NewFromInt(-4) }},
		{"missing start date", func(in *SubmitInput) { in.StartDate = time.Time{} }},
		{"end before start", func(in *SubmitInput) {
			in.StartDate = mustDate("2024-06-10")
			in.EndDate = mustDate("2024-06-09")
		}},
		{"end time before start time", func(in *SubmitInput) {
			in.StartTime = "15:00"
			in.EndTime = "09:00"
		}},
		{"malformed start time", func(in *SubmitInput) { in.StartTime = "9am" }},
		{"missing employee id", func(in *SubmitInput) { in.EmployeeID = " " }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := submitInput("EMP001", CategoryPersonal, "2024-06-03", "8")
			tc.mutate(&in)
			_, err := svc.Submit(ctx, in)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestSubmitUnknownEmployee(t *testing.T) {
	svc, _ := newTestService(testAccount("EMP001"))
	_, err := svc.Submit(context.Background(), submitInput("EMP404", CategoryPersonal, "2024-06-03", "8"))
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestApproveSetsApproverAndDate(t *testing.T) {
	svc, _ := newTestService(testAccount("EMP001"))
	ctx := context.Background()

	rec, err := svc.Submit(ctx, submitInput("EMP001", CategoryPersonal, "2024-06-03", "8"))
	require.NoError(t, err)

	approved, err := svc.Approve(ctx, rec.ID, "ADMIN001")
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, approved.Status)
	assert.Equal(t, "ADMIN001", approved.Approver)
	require.NotNil(t, approved.ApprovedAt)
	assert.False(t, approved.ApprovedAt.IsZero())
}

func TestTransitionIsTerminal(t *testing.T) {
	svc, _ := newTestService(testAccount("EMP001"))
	ctx := context.Background()

	rec, err := svc.Submit(ctx, submitInput("EMP001", CategoryPersonal, "2024-06-03", "8"))
	require.NoError(t, err)

	_, err = svc.Reject(ctx, rec.ID, "ADMIN001")
	require.NoError(t, err)

	_, err = svc.Approve(ctx, rec.ID, "ADMIN002")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	var transitionErr *TransitionError
	require.ErrorAs(t, err, &transitionErr)
	assert.Equal(t, StatusRejected, transitionErr.From)
	assert.Equal(t, StatusApproved, transitionErr.To)
}

func TestTransitionUnknownRecord(t *testing.T) {
	svc, _ := newTestService(testAccount("EMP001"))
	_, err := svc.Approve(context.Background(), "no-such-id", "ADMIN001")
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestConcurrentTransitionsExactlyOneWins(t *testing.T) {
	svc, store := newTestService(testAccount("EMP001"))
	ctx := context.Background()

	rec, err := svc.Submit(ctx, submitInput("EMP001", CategoryPersonal, "2024-06-03", "8"))
	require.NoError(t, err)

	var wg sync.WaitGroup
	outcomes := make(chan error, 2)
	start := make(chan struct{})
	for _, next := range []Status{StatusApproved, StatusRejected} {
		wg.Add(1)
		go func(next Status) {
			defer wg.Done()
			<-start
			var err error
			if next == StatusApproved {
				_, err = svc.Approve(ctx, rec.ID, "ADMIN001")
			} else {
				_, err = svc.Reject(ctx, rec.ID, "ADMIN002")
			}
			outcomes <- err
		}(next)
	}
	close(start)
	wg.Wait()
	close(outcomes)

	var succeeded, lost int
	for err := range outcomes {
		if err == nil {
			succeeded++
			continue
		}
		require.ErrorIs(t, err, ErrInvalidTransition)
		lost++
	}
	assert.Equal(t, 1, succeeded, "exactly one transition wins")
	assert.Equal(t, 1, lost, "the loser sees an invalid transition")

	final, err := store.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.True(t, final.Status.Terminal())
	assert.NotEmpty(t, final.Approver)
	assert.NotNil(t, final.ApprovedAt)
}

func TestConcurrentSubmissionsCannotOverdraw(t *testing.T) {
	svc, store := newTestService(testAccount("EMP001"))
	ctx := context.Background()

	var wg sync.WaitGroup
	outcomes := make(chan error, 2)
	start := make(chan struct{})
	for _, day := range []string{"2024-06-03", "2024-06-10"} {
		wg.Add(1)
		go func(day string) {
			defer wg.Done()
			<-start
			_, err := svc.Submit(ctx, submitInput("EMP001", CategoryPersonal, day, "8"))
			outcomes <- err
		}(day)
	}
	close(start)
	wg.Wait()
	close(outcomes)

	var admitted, denied int
	for err := range outcomes {
		if err == nil {
			admitted++
			continue
		}
		require.ErrorIs(t, err, ErrQuotaExceeded)
		denied++
	}
	assert.Equal(t, 1, admitted, "8+8 exceeds the 14 hour allotment, only one fits")
	assert.Equal(t, 1, denied)

	ledger := NewLedger(store)
	consumed, err := ledger.ConsumedHours(ctx, "EMP001", QuotaPersonal, 2024)
	require.NoError(t, err)
	assert.True(t, consumed.Equal(decimal.NewFromInt(8)))
}

func TestListScopedToEmployeeIncludesQuotas(t *testing.T) {
	svc, _ := newTestService(testAccount("EMP001"), testAccount("EMP002"))
	ctx := context.Background()

	_, err := svc.Submit(ctx, submitInput("EMP001", CategoryPersonal, "2024-06-03", "8"))
	require.NoError(t, err)
	_, err = svc.Submit(ctx, submitInput("EMP002", CategorySick, "2024-06-04", "4"))
	require.NoError(t, err)

	scoped, err := svc.List(ctx, Filter{EmployeeID: "EMP001"})
	require.NoError(t, err)
	assert.Equal(t, 1, scoped.Total)
	require.NotNil(t, scoped.Quotas)
	assert.True(t, scoped.Quotas.PersonalLeave.Equal(decimal.NewFromInt(14)))
	assert.True(t, scoped.Statistics[CategoryPersonal].Equal(decimal.NewFromInt(8)))

	all, err := svc.List(ctx, Filter{})
	require.NoError(t, err)
	assert.Equal(t, 2, all.Total)
	assert.Nil(t, all.Quotas, "no single quota set applies to the all-employees view")
}

func TestListFilterByRejectedLabelIncludesRejectedRecord(t *testing.T) {
	svc, _ := newTestService(testAccount("EMP001"))
	ctx := context.Background()

	rec, err := svc.Submit(ctx, submitInput("EMP001", CategoryPersonal, "2024-06-03", "8"))
	require.NoError(t, err)
	_, err = svc.Reject(ctx, rec.ID, "ADMIN001")
	require.NoError(t, err)

	status, ok := ParseStatus("已退回")
	require.True(t, ok)
	result, err := svc.List(ctx, Filter{Status: &status})
	require.NoError(t, err)
	require.Equal(t, 1, result.Total)
	assert.Equal(t, rec.ID, result.Records[0].ID)

	// The display statistics sum the matched set; the ledger still holds
	// nothing against the quota.
	assert.True(t, result.Statistics[CategoryPersonal].Equal(decimal.NewFromInt(8)))
	remaining, err := svc.Remaining(ctx, "EMP001", 2024)
	require.NoError(t, err)
	assert.True(t, remaining[QuotaPersonal].Equal(decimal.NewFromInt(14)))
}

func TestUsageByYearGroupsConsumption(t *testing.T) {
	svc, _ := newTestService(testAccount("EMP001"), AccountInfo{EmployeeID: "EMP002", Name: "陳美玲", Quotas: DefaultQuotas()})
	ctx := context.Background()

	_, err := svc.Submit(ctx, submitInput("EMP001", CategoryPersonal, "2024-06-03", "8"))
	require.NoError(t, err)
	rejected, err := svc.Submit(ctx, submitInput("EMP001", CategorySick, "2024-06-05", "4"))
	require.NoError(t, err)
	_, err = svc.Reject(ctx, rejected.ID, "ADMIN001")
	require.NoError(t, err)
	_, err = svc.Submit(ctx, submitInput("EMP002", CategoryAnnual, "2024-07-01", "8"))
	require.NoError(t, err)
	_, err = svc.Submit(ctx, submitInput("EMP002", CategoryAnnual, "2023-07-01", "8"))
	require.NoError(t, err)

	rows, err := svc.UsageByYear(ctx, 2024)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "EMP001", rows[0].EmployeeID)
	assert.True(t, rows[0].Consumed[CategoryPersonal].Equal(decimal.NewFromInt(8)))
	assert.True(t, rows[0].Consumed[CategorySick].IsZero(), "rejected hours never count")

	assert.Equal(t, "EMP002", rows[1].EmployeeID)
	assert.Equal(t, "陳美玲", rows[1].Name)
	assert.True(t, rows[1].Consumed[CategoryAnnual].Equal(decimal.NewFromInt(8)), "2023 usage stays out of the 2024 report")
}
