package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rgehrsitz/nursetax/internal/domain"
	"github.com/rgehrsitz/nursetax/internal/planner"
)

var _ planner.Notifier = (*ReminderStore)(nil)

// ReminderStore persists scheduled reminders. Delivery is left to whatever reads them.
type ReminderStore struct {
	db *sql.DB
}

// Schedule stores a reminder, replacing any with the same ID.
func (r *ReminderStore) Schedule(ctx context.Context, reminder domain.Reminder) error {
	_, err := r.db.ExecContext(ctx, `INSERT OR REPLACE INTO reminders (id, payment_id, title, body, fire_at)
		VALUES (?, ?, ?, ?, ?)`,
		reminder.ID, reminder.PaymentID, reminder.Title, reminder.Body, reminder.FireAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("scheduling reminder %s: %w", reminder.ID, err)
	}
	return nil
}

// Cancel removes reminders by ID. Unknown IDs are ignored.
func (r *ReminderStore) Cancel(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, id := range ids {
		if _, err := tx.ExecContext(ctx, "DELETE FROM reminders WHERE id = ?", id); err != nil {
			return fmt.Errorf("canceling reminder %s: %w", id, err)
		}
	}
	return tx.Commit()
}

// Upcoming returns reminders firing after now, soonest first.
func (r *ReminderStore) Upcoming(ctx context.Context, now time.Time) ([]domain.Reminder, error) {
	return r.query(ctx, "SELECT id, payment_id, title, body, fire_at FROM reminders WHERE fire_at > ? ORDER BY fire_at, id", now.Unix())
}

// All returns every stored reminder, soonest first.
func (r *ReminderStore) All(ctx context.Context) ([]domain.Reminder, error) {
	return r.query(ctx, "SELECT id, payment_id, title, body, fire_at FROM reminders ORDER BY fire_at, id")
}

func (r *ReminderStore) query(ctx context.Context, query string, args ...any) ([]domain.Reminder, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying reminders: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var reminders []domain.Reminder
	for rows.Next() {
		var rem domain.Reminder
		var fireAt int64
		if err := rows.Scan(&rem.ID, &rem.PaymentID, &rem.Title, &rem.Body, &fireAt); err != nil {
			return nil, err
		}
		rem.FireAt = time.Unix(fireAt, 0).UTC()
		reminders = append(reminders, rem)
	}
	return reminders, rows.Err()
}
