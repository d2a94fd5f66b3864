package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/rgehrsitz/nursetax/internal/calculation"
	"github.com/rgehrsitz/nursetax/internal/domain"
	"github.com/rgehrsitz/nursetax/internal/planner"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var created = time.Date(2024, time.January, 2, 8, 30, 0, 0, time.UTC)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "payments.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func samplePayments(year int) []domain.QuarterlyPayment {
	var out []domain.QuarterlyPayment
	for q := 1; q <= 4; q++ {
		out = append(out, domain.QuarterlyPayment{
			ID:               fmt.Sprintf("p%d-q%d", year, q),
			TaxYear:          year,
			Quarter:          q,
			DueDate:          domain.QuarterDueDate(year, q),
			EstimatedAmount:  decimal.RequireFromString("5989.25"),
			EstimatedFederal: decimal.RequireFromString("3163.25"),
			EstimatedState:   decimal.Zero,
			PaidAmount:       decimal.Zero,
			CreatedAt:        created,
			UpdatedAt:        created,
		})
	}
	return out
}

func TestOpen_CreatesDirectoryAndSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "payments.db")
	s, err := Open(path)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	assert.FileExists(t, path)

	// Reopening an existing database is fine
	s2, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s2.Close())
}

func TestSQLiteStore_InsertFetchRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.Insert(ctx, samplePayments(2024)...))

	got, err := s.Fetch(ctx, domain.PaymentFilter{TaxYear: 2024})
	require.NoError(t, err)
	require.Len(t, got, 4)

	for i, p := range got {
		assert.Equal(t, i+1, p.Quarter)
		assert.True(t, p.DueDate.Equal(domain.QuarterDueDate(2024, i+1)))
		assert.True(t, p.EstimatedAmount.Equal(decimal.RequireFromString("5989.25")))
		assert.True(t, p.EstimatedFederal.Equal(decimal.RequireFromString("3163.25")))
		assert.True(t, p.PaidAmount.IsZero())
		assert.False(t, p.IsPaid)
		assert.Nil(t, p.PaymentDate)
		assert.True(t, p.CreatedAt.Equal(created))
	}

	one, err := s.Fetch(ctx, domain.PaymentFilter{ID: got[2].ID})
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, 3, one[0].Quarter)

	none, err := s.Fetch(ctx, domain.PaymentFilter{TaxYear: 2023})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSQLiteStore_InsertRejectsDuplicateQuarter(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	payments := samplePayments(2024)
	require.NoError(t, s.Insert(ctx, payments[0]))

	dup := payments[0]
	dup.ID = "another"
	err := s.Insert(ctx, payments[1], dup)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Q1 2024")

	// The failed transaction left nothing behind
	got, err := s.Fetch(ctx, domain.PaymentFilter{TaxYear: 2024})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestSQLiteStore_Save(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	payments := samplePayments(2024)
	require.NoError(t, s.Insert(ctx, payments...))

	paidAt := time.Date(2024, time.April, 12, 15, 4, 5, 123000000, time.UTC)
	q1 := payments[0]
	q1.PaidAmount = decimal.RequireFromString("6000.10")
	q1.IsPaid = true
	q1.Notes = "EFTPS"
	q1.PaymentDate = &paidAt
	q1.UpdatedAt = paidAt
	require.NoError(t, s.Save(ctx, q1))

	got, err := s.Fetch(ctx, domain.PaymentFilter{ID: q1.ID})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].IsPaid)
	assert.True(t, got[0].PaidAmount.Equal(decimal.RequireFromString("6000.10")))
	assert.Equal(t, "EFTPS", got[0].Notes)
	require.NotNil(t, got[0].PaymentDate)
	assert.True(t, got[0].PaymentDate.Equal(paidAt))
	assert.True(t, got[0].UpdatedAt.Equal(paidAt))

	missing := payments[1]
	missing.ID = "missing"
	err = s.Save(ctx, missing)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no payment with id missing")
}

func TestSQLiteStore_DeleteAndTaxYears(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	require.NoError(t, s.Insert(ctx, samplePayments(2023)...))
	require.NoError(t, s.Insert(ctx, samplePayments(2024)...))

	years, err := s.TaxYears(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{2024, 2023}, years)

	p23 := samplePayments(2023)
	require.NoError(t, s.Delete(ctx, p23[0].ID, p23[1].ID, p23[2].ID, p23[3].ID, "unknown"))

	years, err = s.TaxYears(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{2024}, years)
}

func TestReminderStore(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	payments := samplePayments(2024)
	require.NoError(t, s.Insert(ctx, payments...))

	reminders := s.Reminders()
	for _, p := range payments[:2] {
		for _, r := range planner.Reminders(p, created) {
			require.NoError(t, reminders.Schedule(ctx, r))
		}
	}

	all, err := reminders.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, payments[0].ID+"-7d", all[0].ID)
	assert.True(t, all[0].FireAt.Equal(time.Date(2024, time.April, 8, 0, 0, 0, 0, time.UTC)))

	// Rescheduling replaces by ID
	r := all[0]
	r.Body = "updated"
	require.NoError(t, reminders.Schedule(ctx, r))
	all, err = reminders.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 4)
	assert.Equal(t, "updated", all[0].Body)

	upcoming, err := reminders.Upcoming(ctx, time.Date(2024, time.April, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Len(t, upcoming, 3)

	require.NoError(t, reminders.Cancel(ctx, planner.ReminderIDs(payments[0].ID)...))
	require.NoError(t, reminders.Cancel(ctx))
	all, err = reminders.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	// Deleting a payment drops its reminders
	require.NoError(t, s.Delete(ctx, payments[1].ID))
	all, err = reminders.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestReminderStore_RequiresPayment(t *testing.T) {
	s := openTestStore(t)
	err := s.Reminders().Schedule(context.Background(), domain.Reminder{
		ID: "orphan-7d", PaymentID: "orphan", Title: "t", Body: "b", FireAt: created,
	})
	assert.Error(t, err)
}

func TestSQLiteStore_WithPlanner(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	p := planner.NewPlanner(calculation.NewTaxEngine(), s, s.Reminders())

	req := planner.GenerateRequest{
		TaxYear:      2024,
		GrossIncome:  decimal.NewFromInt(95000),
		Deductions:   decimal.NewFromInt(15000),
		State:        "TX",
		SelfEmployed: true,
		Now:          created,
	}
	payments, err := p.GeneratePayments(ctx, req)
	require.NoError(t, err)
	require.Len(t, payments, 4)

	all, err := s.Reminders().All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 8)

	_, err = p.RecordPayment(ctx, payments[0].ID, decimal.RequireFromString("5989.25"), "", created)
	require.NoError(t, err)

	req.GrossIncome = decimal.NewFromInt(120000)
	again, err := p.GeneratePayments(ctx, req)
	require.NoError(t, err)
	assert.True(t, again[0].EstimatedAmount.Equal(decimal.RequireFromString("5989.25")))
	assert.True(t, again[1].EstimatedAmount.GreaterThan(again[0].EstimatedAmount))

	all, err = s.Reminders().All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 6)

	summary, err := p.PaymentSummary(ctx, 2024, created)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.QuartersPaid)

	n, err := p.DeletePayments(ctx, 2024)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	all, err = s.Reminders().All(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestOpen_Memory(t *testing.T) {
	s, err := Open(MemoryPath)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	ctx := context.Background()
	require.NoError(t, s.Insert(ctx, samplePayments(2024)...))
	got, err := s.Fetch(ctx, domain.PaymentFilter{})
	require.NoError(t, err)
	assert.Len(t, got, 4)
}
