package planner

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// ErrorKind classifies a persistence failure
type ErrorKind string

const (
	KindFetchFailed  ErrorKind = "fetch_failed"
	KindSaveFailed   ErrorKind = "save_failed"
	KindDeleteFailed ErrorKind = "delete_failed"
)

// Sentinels for errors.Is matching on the kind alone
var (
	ErrFetchFailed  = &StoreError{Kind: KindFetchFailed}
	ErrSaveFailed   = &StoreError{Kind: KindSaveFailed}
	ErrDeleteFailed = &StoreError{Kind: KindDeleteFailed}

	ErrPaymentNotFound = errors.New("payment not found")
	ErrInvalidTaxYear  = errors.New("invalid tax year")
)

// StoreError is returned by planner operations when the payment store fails.
// Callers decide whether to retry or fall back to an empty view.
type StoreError struct {
	Kind ErrorKind // Machine-readable failure class
	Op   string    // Planner operation that hit the failure
	Err  error     // Underlying store error
}

func (e *StoreError) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Err.Error())
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Is matches any StoreError of the same kind
func (e *StoreError) Is(target error) bool {
	t, ok := target.(*StoreError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func newStoreError(kind ErrorKind, op string, err error) error {
	return &StoreError{Kind: kind, Op: op, Err: errors.WithStack(err)}
}

// IsKind reports whether err is a StoreError of the given kind
func IsKind(err error, kind ErrorKind) bool {
	var se *StoreError
	return errors.As(err, &se) && se.Kind == kind
}

func checkTaxYear(op string, year int) error {
	if year < 1 {
		return errors.Wrapf(ErrInvalidTaxYear, "%s: %d", op, year)
	}
	return nil
}

// IsNotFound reports whether err means the requested payment does not exist
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPaymentNotFound)
}
