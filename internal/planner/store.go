package planner

import (
	"context"

	"github.com/rgehrsitz/nursetax/internal/domain"
)

// Store persists quarterly payments. Each call is expected to be transactional.
type Store interface {
	Fetch(ctx context.Context, filter domain.PaymentFilter) ([]domain.QuarterlyPayment, error)
	Insert(ctx context.Context, payments ...domain.QuarterlyPayment) error
	Save(ctx context.Context, payments ...domain.QuarterlyPayment) error
	Delete(ctx context.Context, ids ...string) error
}

// Notifier schedules and cancels payment reminders
type Notifier interface {
	Schedule(ctx context.Context, reminder domain.Reminder) error
	Cancel(ctx context.Context, ids ...string) error
}

// NopNotifier drops every reminder
type NopNotifier struct{}

func (NopNotifier) Schedule(ctx context.Context, reminder domain.Reminder) error { return nil }
func (NopNotifier) Cancel(ctx context.Context, ids ...string) error              { return nil }
