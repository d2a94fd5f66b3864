package output

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rgehrsitz/nursetax/internal/domain"
	"github.com/shopspring/decimal"
)

// Formatter defines a pluggable tax report formatter that returns a byte slice.
// Implementations should be pure (no side effects besides deterministic formatting).
type Formatter interface {
	Format(report *domain.TaxReport) ([]byte, error)
	// Name returns a short identifier for logging / debugging.
	Name() string
}

// PaymentFormatter renders a year's quarterly payment summary.
type PaymentFormatter interface {
	FormatPayments(summary *domain.PaymentSummary, now time.Time) ([]byte, error)
	Name() string
}

// FormatterFunc adapter to allow ordinary functions to act as a Formatter.
type FormatterFunc struct {
	ID string
	F  func(*domain.TaxReport) ([]byte, error)
}

func (ff FormatterFunc) Format(r *domain.TaxReport) ([]byte, error) { return ff.F(r) }
func (ff FormatterFunc) Name() string                               { return ff.ID }

// WriteFormatted runs a formatter and writes output to a timestamped file in dir.
func WriteFormatted(f Formatter, report *domain.TaxReport, dir, ext string) (string, error) {
	data, err := f.Format(report)
	if err != nil {
		return "", err
	}
	stamp := report.GeneratedAt
	if stamp.IsZero() {
		stamp = time.Now()
	}
	filename := filepath.Join(dir, fmt.Sprintf("nursetax_report_%d_%s.%s", report.TaxYear, stamp.Format("20060102_150405"), ext))
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return "", err
	}
	return filename, nil
}

// builtInFormatters stores available formatters.
var builtInFormatters = []Formatter{
	ConsoleFormatter{},
	CSVFormatter{},
	JSONFormatter{},
	PDFFormatter{},
}

// GetFormatterByName fetches a registered formatter.
func GetFormatterByName(name string) Formatter {
	n := NormalizeFormatName(name)
	for _, f := range builtInFormatters {
		if f.Name() == n {
			return f
		}
	}
	return nil
}

// GetPaymentFormatterByName fetches a registered formatter that can render payment summaries.
func GetPaymentFormatterByName(name string) PaymentFormatter {
	if pf, ok := GetFormatterByName(name).(PaymentFormatter); ok {
		return pf
	}
	return nil
}

// aliasMap provides user-friendly synonyms for format names.
var aliasMap = map[string]string{
	"text":        "console",
	"table":       "console",
	"json-pretty": "json",
	"spreadsheet": "csv",
}

// NormalizeFormatName lowers and resolves aliases.
func NormalizeFormatName(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	if mapped, ok := aliasMap[n]; ok {
		return mapped
	}
	return n
}

// AvailableFormatterNames returns the canonical formatter names.
func AvailableFormatterNames() []string {
	names := make([]string, 0, len(builtInFormatters))
	for _, f := range builtInFormatters {
		names = append(names, f.Name())
	}
	sort.Strings(names)
	return names
}

// IsBinaryFormat reports whether a format should be written to a file rather than a terminal.
func IsBinaryFormat(name string) bool {
	return NormalizeFormatName(name) == "pdf"
}

// FormatCurrency formats a decimal as currency
func FormatCurrency(amount decimal.Decimal) string {
	return "$" + amount.StringFixed(2)
}

// FormatPercentage formats a decimal as percentage
func FormatPercentage(amount decimal.Decimal) string {
	return amount.StringFixed(2) + "%"
}

// FormatRate formats a fractional rate such as 0.22 as a percentage
func FormatRate(rate decimal.Decimal) string {
	return FormatPercentage(rate.Mul(decimal.NewFromInt(100)))
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func paymentStatus(p domain.QuarterlyPayment, now time.Time) string {
	switch {
	case p.IsPartial():
		return "paid (partial)"
	case p.IsPaid:
		return "paid"
	case p.IsOverdue(now):
		return "overdue"
	default:
		return "due"
	}
}

func stateLabel(s domain.State) string {
	if s.IsKnown() {
		return fmt.Sprintf("%s (%s)", s.Name(), s)
	}
	return string(s)
}
