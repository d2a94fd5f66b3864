// Package store persists quarterly payments and their reminders.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rgehrsitz/nursetax/internal/domain"
	"github.com/rgehrsitz/nursetax/internal/planner"
	"github.com/shopspring/decimal"

	_ "modernc.org/sqlite" // register sqlite driver
)

// MemoryPath opens a private in-memory database
const MemoryPath = ":memory:"

var _ planner.Store = (*SQLiteStore)(nil)

// SQLiteStore is a SQLite-backed payment store.
type SQLiteStore struct {
	db *sql.DB
}

// Open opens or creates the payment database at the given path.
func Open(dbPath string) (*SQLiteStore, error) {
	if dbPath != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
			return nil, fmt.Errorf("creating data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening payment db: %w", err)
	}
	// A single connection keeps in-memory databases shared and serializes writers
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the payment database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Reminders returns the reminder store sharing this database.
func (s *SQLiteStore) Reminders() *ReminderStore {
	return &ReminderStore{db: s.db}
}

const paymentColumns = `id, tax_year, quarter, due_date, estimated_amount, estimated_federal,
	estimated_state, paid_amount, is_paid, notes, payment_date, created_at, updated_at`

// Fetch returns the payments matching filter ordered by year and quarter.
func (s *SQLiteStore) Fetch(ctx context.Context, filter domain.PaymentFilter) ([]domain.QuarterlyPayment, error) {
	var where []string
	var args []any
	if filter.TaxYear != 0 {
		where = append(where, "tax_year = ?")
		args = append(args, filter.TaxYear)
	}
	if filter.ID != "" {
		where = append(where, "id = ?")
		args = append(args, filter.ID)
	}

	query := "SELECT " + paymentColumns + " FROM payments"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY tax_year, quarter"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying payments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var payments []domain.QuarterlyPayment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// Insert stores new payments in one transaction. A second payment for the same quarter is rejected.
func (s *SQLiteStore) Insert(ctx context.Context, payments ...domain.QuarterlyPayment) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, p := range payments {
		_, err = tx.ExecContext(ctx, `INSERT INTO payments (`+paymentColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.TaxYear, p.Quarter, formatTime(p.DueDate),
			p.EstimatedAmount.String(), p.EstimatedFederal.String(), p.EstimatedState.String(),
			p.PaidAmount.String(), boolToInt(p.IsPaid), p.Notes, formatTimePtr(p.PaymentDate),
			formatTime(p.CreatedAt), formatTime(p.UpdatedAt),
		)
		if err != nil {
			return fmt.Errorf("inserting %s: %w", p.Label(), err)
		}
	}

	return tx.Commit()
}

// Save writes changes to existing payments in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, payments ...domain.QuarterlyPayment) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, p := range payments {
		res, err := tx.ExecContext(ctx, `UPDATE payments SET
			estimated_amount = ?, estimated_federal = ?, estimated_state = ?,
			paid_amount = ?, is_paid = ?, notes = ?, payment_date = ?, updated_at = ?
			WHERE id = ?`,
			p.EstimatedAmount.String(), p.EstimatedFederal.String(), p.EstimatedState.String(),
			p.PaidAmount.String(), boolToInt(p.IsPaid), p.Notes, formatTimePtr(p.PaymentDate),
			formatTime(p.UpdatedAt), p.ID,
		)
		if err != nil {
			return fmt.Errorf("updating %s: %w", p.Label(), err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return fmt.Errorf("updating %s: no payment with id %s", p.Label(), p.ID)
		}
	}

	return tx.Commit()
}

// Delete removes payments by ID. Their reminders go with them.
func (s *SQLiteStore) Delete(ctx context.Context, ids ...string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, id := range ids {
		if _, err := tx.ExecContext(ctx, "DELETE FROM payments WHERE id = ?", id); err != nil {
			return fmt.Errorf("deleting payment %s: %w", id, err)
		}
	}

	return tx.Commit()
}

// TaxYears returns every tax year that has stored payments, newest first.
func (s *SQLiteStore) TaxYears(ctx context.Context) ([]int, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT tax_year FROM payments ORDER BY tax_year DESC")
	if err != nil {
		return nil, fmt.Errorf("querying tax years: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var years []int
	for rows.Next() {
		var y int
		if err := rows.Scan(&y); err != nil {
			return nil, err
		}
		years = append(years, y)
	}
	return years, rows.Err()
}

func scanPayment(rows *sql.Rows) (domain.QuarterlyPayment, error) {
	var p domain.QuarterlyPayment
	var dueDate, estimated, federal, state, paid, createdAt, updatedAt string
	var paymentDate sql.NullString
	var isPaid int

	if err := rows.Scan(&p.ID, &p.TaxYear, &p.Quarter, &dueDate, &estimated, &federal,
		&state, &paid, &isPaid, &p.Notes, &paymentDate, &createdAt, &updatedAt); err != nil {
		return p, err
	}

	var err error
	if p.DueDate, err = parseTime(dueDate); err != nil {
		return p, err
	}
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return p, err
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return p, err
	}
	if paymentDate.Valid && paymentDate.String != "" {
		t, err := parseTime(paymentDate.String)
		if err != nil {
			return p, err
		}
		p.PaymentDate = &t
	}

	for _, f := range []struct {
		dst *decimal.Decimal
		raw string
	}{
		{&p.EstimatedAmount, estimated},
		{&p.EstimatedFederal, federal},
		{&p.EstimatedState, state},
		{&p.PaidAmount, paid},
	} {
		v, err := decimal.NewFromString(f.raw)
		if err != nil {
			return p, fmt.Errorf("payment %s: bad amount %q: %w", p.ID, f.raw, err)
		}
		*f.dst = v
	}

	p.IsPaid = isPaid != 0
	return p, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func formatTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing time %q: %w", s, err)
	}
	return t, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
