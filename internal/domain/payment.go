package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// quarterlyDueMonthDays are the IRS estimated-payment due dates.
// The fourth payment falls in January of the following year.
var quarterlyDueMonthDays = [4]struct {
	month     time.Month
	day       int
	yearShift int
}{
	{time.April, 15, 0},
	{time.June, 15, 0},
	{time.September, 15, 0},
	{time.January, 15, 1},
}

// QuarterDueDate returns the due date of quarter q (1-4) for taxYear, at midnight UTC
func QuarterDueDate(taxYear, q int) time.Time {
	if q < 1 || q > 4 {
		return time.Time{}
	}
	d := quarterlyDueMonthDays[q-1]
	return time.Date(taxYear+d.yearShift, d.month, d.day, 0, 0, 0, 0, time.UTC)
}

// QuarterlyDueDates returns all four due dates for taxYear
func QuarterlyDueDates(taxYear int) [4]time.Time {
	var dates [4]time.Time
	for q := 1; q <= 4; q++ {
		dates[q-1] = QuarterDueDate(taxYear, q)
	}
	return dates
}

// QuarterlyPayment is one persisted estimated-payment obligation, unique per (tax year, quarter).
// Once IsPaid is set the estimate fields are never recomputed.
type QuarterlyPayment struct {
	ID               string          `json:"id"`
	TaxYear          int             `json:"tax_year"`
	Quarter          int             `json:"quarter"`
	DueDate          time.Time       `json:"due_date"`
	EstimatedAmount  decimal.Decimal `json:"estimated_amount"`
	EstimatedFederal decimal.Decimal `json:"estimated_federal"`
	EstimatedState   decimal.Decimal `json:"estimated_state"`
	PaidAmount       decimal.Decimal `json:"paid_amount"`
	IsPaid           bool            `json:"is_paid"`
	Notes            string          `json:"notes,omitempty"`
	PaymentDate      *time.Time      `json:"payment_date,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// Label returns a short display label such as "Q2 2024"
func (p QuarterlyPayment) Label() string {
	return fmt.Sprintf("Q%d %d", p.Quarter, p.TaxYear)
}

// IsOverdue reports whether the payment is unpaid and its due date has passed
func (p QuarterlyPayment) IsOverdue(now time.Time) bool {
	return !p.IsPaid && p.DueDate.Before(now)
}

// IsPartial reports a recorded payment smaller than the estimate.
// Recording a payment always marks the quarter paid; this is informational only.
func (p QuarterlyPayment) IsPartial() bool {
	return p.IsPaid && p.PaidAmount.LessThan(p.EstimatedAmount)
}

// PaymentFilter selects payments from a store. Zero fields match everything, so callers
// acting on one year or one payment must check for a set TaxYear or ID first.
type PaymentFilter struct {
	TaxYear int
	ID      string
}

// Matches reports whether p satisfies the filter
func (f PaymentFilter) Matches(p QuarterlyPayment) bool {
	if f.TaxYear != 0 && p.TaxYear != f.TaxYear {
		return false
	}
	if f.ID != "" && p.ID != f.ID {
		return false
	}
	return true
}

// Reminder is a scheduled notification about an upcoming payment
type Reminder struct {
	ID        string    `json:"id"`
	PaymentID string    `json:"payment_id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	FireAt    time.Time `json:"fire_at"`
}

// PaymentSummary aggregates one tax year's payments. It is computed on demand and never stored.
type PaymentSummary struct {
	TaxYear         int                `json:"tax_year"`
	TotalEstimated  decimal.Decimal    `json:"total_estimated"`
	TotalPaid       decimal.Decimal    `json:"total_paid"`
	Remaining       decimal.Decimal    `json:"remaining"`
	QuartersPaid    int                `json:"quarters_paid"`
	QuartersOverdue int                `json:"quarters_overdue"`
	Payments        []QuarterlyPayment `json:"payments"`
}

// NewPaymentSummary aggregates payments as of now
func NewPaymentSummary(taxYear int, payments []QuarterlyPayment, now time.Time) PaymentSummary {
	s := PaymentSummary{
		TaxYear:        taxYear,
		TotalEstimated: decimal.Zero,
		TotalPaid:      decimal.Zero,
		Payments:       payments,
	}
	for _, p := range payments {
		s.TotalEstimated = s.TotalEstimated.Add(p.EstimatedAmount)
		s.TotalPaid = s.TotalPaid.Add(p.PaidAmount)
		if p.IsPaid {
			s.QuartersPaid++
		}
		if p.IsOverdue(now) {
			s.QuartersOverdue++
		}
	}
	s.Remaining = decimal.Max(decimal.Zero, s.TotalEstimated.Sub(s.TotalPaid))
	return s
}

// Progress is the paid fraction of the estimate, zero when nothing is estimated
func (s PaymentSummary) Progress() decimal.Decimal {
	if s.TotalEstimated.IsZero() {
		return decimal.Zero
	}
	return s.TotalPaid.Div(s.TotalEstimated)
}

// IsFullyPaid reports whether all four quarters are marked paid
func (s PaymentSummary) IsFullyPaid() bool {
	return s.QuartersPaid == 4
}

// HasOverdue reports whether any unpaid quarter is past due
func (s PaymentSummary) HasOverdue() bool {
	return s.QuartersOverdue > 0
}
