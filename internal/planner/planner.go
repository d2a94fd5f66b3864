package planner

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/rgehrsitz/nursetax/internal/calculation"
	"github.com/rgehrsitz/nursetax/internal/domain"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// reminderLead is how long before a due date the early reminder fires
const reminderLead = 7 * 24 * time.Hour

// GenerateRequest holds the annual inputs used to (re)plan a tax year
type GenerateRequest struct {
	TaxYear      int
	GrossIncome  decimal.Decimal
	Deductions   decimal.Decimal
	State        domain.State
	SelfEmployed bool
	Now          time.Time // Defaults to the wall clock
}

// Planner maintains the four quarterly payments of each tax year.
// Writes for a given year are serialized; different years proceed independently.
type Planner struct {
	Engine   *calculation.TaxEngine
	Store    Store
	Notifier Notifier
	Logger   calculation.Logger

	newID func() string
	clock func() time.Time

	mu    sync.Mutex
	locks map[int]*sync.Mutex
}

// NewPlanner creates a planner over the given store. A nil notifier disables reminders.
func NewPlanner(engine *calculation.TaxEngine, store Store, notifier Notifier) *Planner {
	if engine == nil {
		engine = calculation.NewTaxEngine()
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Planner{
		Engine:   engine,
		Store:    store,
		Notifier: notifier,
		Logger:   calculation.NopLogger{},
		newID:    uuid.NewString,
		clock:    time.Now,
		locks:    make(map[int]*sync.Mutex),
	}
}

// SetLogger sets the logger for the planner
func (p *Planner) SetLogger(l calculation.Logger) {
	p.Logger = calculation.OrNop(l)
}

func (p *Planner) yearLock(year int) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()
	l, ok := p.locks[year]
	if !ok {
		l = &sync.Mutex{}
		p.locks[year] = l
	}
	return l
}

// GeneratePayments computes the annual liability and splits it into four quarterly payments.
// The first call for a year creates the payments. Later calls refresh the estimate of unpaid
// quarters only; paid quarters keep the figures they were paid against.
func (p *Planner) GeneratePayments(ctx context.Context, req GenerateRequest) ([]domain.QuarterlyPayment, error) {
	const op = "generate payments"
	if err := checkTaxYear(op, req.TaxYear); err != nil {
		return nil, err
	}

	now := req.Now
	if now.IsZero() {
		now = p.clock()
	}

	lock := p.yearLock(req.TaxYear)
	lock.Lock()
	defer lock.Unlock()

	result := p.Engine.CalculateTotalTax(req.GrossIncome, req.Deductions, req.State, req.SelfEmployed)
	perQuarter := result.TotalTax.Div(decimal.NewFromInt(4)).Round(2)
	federal := result.FederalTax.Div(decimal.NewFromInt(4)).Round(2)
	state := result.StateTax.Div(decimal.NewFromInt(4)).Round(2)

	existing, err := p.Store.Fetch(ctx, domain.PaymentFilter{TaxYear: req.TaxYear})
	if err != nil {
		return nil, newStoreError(KindFetchFailed, op, err)
	}
	byQuarter := lo.KeyBy(existing, func(qp domain.QuarterlyPayment) int { return qp.Quarter })

	var created, updated []domain.QuarterlyPayment
	for q := 1; q <= 4; q++ {
		qp, ok := byQuarter[q]
		switch {
		case !ok:
			qp = domain.QuarterlyPayment{
				ID:        p.newID(),
				TaxYear:   req.TaxYear,
				Quarter:   q,
				DueDate:   domain.QuarterDueDate(req.TaxYear, q),
				CreatedAt: now,
			}
		case qp.IsPaid:
			continue
		}
		qp.EstimatedAmount = perQuarter
		qp.EstimatedFederal = federal
		qp.EstimatedState = state
		qp.UpdatedAt = now
		if ok {
			updated = append(updated, qp)
		} else {
			created = append(created, qp)
		}
		byQuarter[q] = qp
	}

	if len(created) > 0 {
		if err := p.Store.Insert(ctx, created...); err != nil {
			return nil, newStoreError(KindSaveFailed, op, err)
		}
	}
	if len(updated) > 0 {
		if err := p.Store.Save(ctx, updated...); err != nil {
			p.discardCreated(ctx, created)
			return nil, newStoreError(KindSaveFailed, op, err)
		}
	}

	p.Logger.Debugf("tax year %d: %d payments created, %d updated, %s per quarter",
		req.TaxYear, len(created), len(updated), perQuarter.StringFixed(2))

	for _, qp := range updated {
		p.cancelReminders(ctx, qp.ID)
	}
	for _, qp := range append(created, updated...) {
		p.scheduleReminders(ctx, qp, now)
	}

	return sortedPayments(lo.Values(byQuarter)), nil
}

// RecordPayment marks a quarter paid with the given amount, notes and payment time.
// Any amount marks the quarter paid; recording over a paid quarter replaces the earlier payment.
func (p *Planner) RecordPayment(ctx context.Context, id string, amount decimal.Decimal, notes string, paidAt time.Time) (domain.QuarterlyPayment, error) {
	const op = "record payment"

	qp, err := p.fetchOne(ctx, op, id)
	if err != nil {
		return domain.QuarterlyPayment{}, err
	}

	lock := p.yearLock(qp.TaxYear)
	lock.Lock()
	defer lock.Unlock()

	// Re-read under the year lock so a concurrent regenerate is not overwritten
	qp, err = p.fetchOne(ctx, op, id)
	if err != nil {
		return domain.QuarterlyPayment{}, err
	}

	if qp.IsPaid {
		p.Logger.Warnf("%s already paid %s, replacing with %s", qp.Label(), qp.PaidAmount.StringFixed(2), amount.StringFixed(2))
	}

	if paidAt.IsZero() {
		paidAt = p.clock()
	}
	qp.PaidAmount = amount
	qp.IsPaid = true
	qp.Notes = notes
	qp.PaymentDate = &paidAt
	qp.UpdatedAt = paidAt

	if err := p.Store.Save(ctx, qp); err != nil {
		return domain.QuarterlyPayment{}, newStoreError(KindSaveFailed, op, err)
	}
	p.cancelReminders(ctx, qp.ID)

	return qp, nil
}

// FetchPayments returns a year's payments ordered by quarter
func (p *Planner) FetchPayments(ctx context.Context, taxYear int) ([]domain.QuarterlyPayment, error) {
	if err := checkTaxYear("fetch payments", taxYear); err != nil {
		return nil, err
	}
	payments, err := p.Store.Fetch(ctx, domain.PaymentFilter{TaxYear: taxYear})
	if err != nil {
		return nil, newStoreError(KindFetchFailed, "fetch payments", err)
	}
	return sortedPayments(payments), nil
}

// PaymentSummary aggregates a year's payments as of now
func (p *Planner) PaymentSummary(ctx context.Context, taxYear int, now time.Time) (domain.PaymentSummary, error) {
	if err := checkTaxYear("payment summary", taxYear); err != nil {
		return domain.PaymentSummary{}, err
	}
	payments, err := p.Store.Fetch(ctx, domain.PaymentFilter{TaxYear: taxYear})
	if err != nil {
		return domain.PaymentSummary{}, newStoreError(KindFetchFailed, "payment summary", err)
	}
	return domain.NewPaymentSummary(taxYear, sortedPayments(payments), now), nil
}

// DeletePayments removes every payment of a tax year and cancels their reminders.
// Payments are never expired automatically; this is the only way a year is cleared.
func (p *Planner) DeletePayments(ctx context.Context, taxYear int) (int, error) {
	const op = "delete payments"
	if err := checkTaxYear(op, taxYear); err != nil {
		return 0, err
	}

	lock := p.yearLock(taxYear)
	lock.Lock()
	defer lock.Unlock()

	payments, err := p.Store.Fetch(ctx, domain.PaymentFilter{TaxYear: taxYear})
	if err != nil {
		return 0, newStoreError(KindFetchFailed, op, err)
	}
	if len(payments) == 0 {
		return 0, nil
	}

	ids := lo.Map(payments, func(qp domain.QuarterlyPayment, _ int) string { return qp.ID })
	if err := p.Store.Delete(ctx, ids...); err != nil {
		return 0, newStoreError(KindDeleteFailed, op, err)
	}
	p.cancelReminders(ctx, ids...)

	return len(ids), nil
}

// DeletePayment removes a single payment and cancels its reminders
func (p *Planner) DeletePayment(ctx context.Context, id string) error {
	const op = "delete payment"

	qp, err := p.fetchOne(ctx, op, id)
	if err != nil {
		return err
	}

	lock := p.yearLock(qp.TaxYear)
	lock.Lock()
	defer lock.Unlock()

	if err := p.Store.Delete(ctx, id); err != nil {
		return newStoreError(KindDeleteFailed, op, err)
	}
	p.cancelReminders(ctx, id)
	return nil
}

// fetchOne loads a payment by ID. An empty ID never matches; the store filter would treat
// it as a wildcard.
func (p *Planner) fetchOne(ctx context.Context, op, id string) (domain.QuarterlyPayment, error) {
	if id == "" {
		return domain.QuarterlyPayment{}, errors.Wrapf(ErrPaymentNotFound, "%s: empty payment id", op)
	}
	found, err := p.Store.Fetch(ctx, domain.PaymentFilter{ID: id})
	if err != nil {
		return domain.QuarterlyPayment{}, newStoreError(KindFetchFailed, op, err)
	}
	if len(found) != 1 || found[0].ID != id {
		return domain.QuarterlyPayment{}, errors.Wrapf(ErrPaymentNotFound, "%s %s", op, id)
	}
	return found[0], nil
}

// discardCreated removes payments inserted earlier in a generate call whose update step
// then failed, so the year is left as it was before the call
func (p *Planner) discardCreated(ctx context.Context, created []domain.QuarterlyPayment) {
	if len(created) == 0 {
		return
	}
	ids := lo.Map(created, func(qp domain.QuarterlyPayment, _ int) string { return qp.ID })
	if err := p.Store.Delete(ctx, ids...); err != nil {
		p.Logger.Warnf("failed to discard %d new payments after save failure: %v", len(ids), err)
	}
}

// Reminders returns the reminders a payment gets: one a week ahead and one on the due date.
// Reminders at or before now are left out.
func Reminders(qp domain.QuarterlyPayment, now time.Time) []domain.Reminder {
	amount := "$" + qp.EstimatedAmount.StringFixed(2)
	due := qp.DueDate.Format("January 2, 2006")

	all := []domain.Reminder{
		{
			ID:        qp.ID + "-7d",
			PaymentID: qp.ID,
			Title:     fmt.Sprintf("%s estimated tax due in 7 days", qp.Label()),
			Body:      fmt.Sprintf("Your estimated payment of %s is due %s.", amount, due),
			FireAt:    qp.DueDate.Add(-reminderLead),
		},
		{
			ID:        qp.ID + "-due",
			PaymentID: qp.ID,
			Title:     fmt.Sprintf("%s estimated tax due today", qp.Label()),
			Body:      fmt.Sprintf("Your estimated payment of %s is due today, %s.", amount, due),
			FireAt:    qp.DueDate,
		},
	}
	return lo.Filter(all, func(r domain.Reminder, _ int) bool { return r.FireAt.After(now) })
}

// ReminderIDs returns the IDs of every reminder a payment can have
func ReminderIDs(paymentIDs ...string) []string {
	return lo.FlatMap(paymentIDs, func(id string, _ int) []string {
		return []string{id + "-7d", id + "-due"}
	})
}

// Reminder failures never fail the planner operation; the payment is already persisted.
func (p *Planner) scheduleReminders(ctx context.Context, qp domain.QuarterlyPayment, now time.Time) {
	for _, r := range Reminders(qp, now) {
		if err := p.Notifier.Schedule(ctx, r); err != nil {
			p.Logger.Warnf("failed to schedule reminder %s: %v", r.ID, err)
		}
	}
}

func (p *Planner) cancelReminders(ctx context.Context, paymentIDs ...string) {
	if err := p.Notifier.Cancel(ctx, ReminderIDs(paymentIDs...)...); err != nil {
		p.Logger.Warnf("failed to cancel reminders for %v: %v", paymentIDs, err)
	}
}

func sortedPayments(payments []domain.QuarterlyPayment) []domain.QuarterlyPayment {
	sort.Slice(payments, func(i, j int) bool {
		if payments[i].TaxYear != payments[j].TaxYear {
			return payments[i].TaxYear < payments[j].TaxYear
		}
		return payments[i].Quarter < payments[j].Quarter
	})
	return payments
}
