package output

import (
	"encoding/json"
	"time"

	"github.com/rgehrsitz/nursetax/internal/domain"
	"github.com/shopspring/decimal"
)

// JSONFormatter emits indented JSON with the derived figures included.
type JSONFormatter struct{}

func (j JSONFormatter) Name() string { return "json" }

type jsonReport struct {
	*domain.TaxReport
	EffectiveRate decimal.Decimal `json:"effective_rate"`
	TakeHome      decimal.Decimal `json:"take_home"`
}

func (j JSONFormatter) Format(report *domain.TaxReport) ([]byte, error) {
	return json.MarshalIndent(jsonReport{
		TaxReport:     report,
		EffectiveRate: report.Result.EffectiveRate().Round(4),
		TakeHome:      report.Result.TakeHome(),
	}, "", "  ")
}

type jsonPayment struct {
	domain.QuarterlyPayment
	Status string `json:"status"`
}

type jsonSummary struct {
	TaxYear         int             `json:"tax_year"`
	TotalEstimated  decimal.Decimal `json:"total_estimated"`
	TotalPaid       decimal.Decimal `json:"total_paid"`
	Remaining       decimal.Decimal `json:"remaining"`
	QuartersPaid    int             `json:"quarters_paid"`
	QuartersOverdue int             `json:"quarters_overdue"`
	Progress        decimal.Decimal `json:"progress"`
	IsFullyPaid     bool            `json:"is_fully_paid"`
	HasOverdue      bool            `json:"has_overdue"`
	Payments        []jsonPayment   `json:"payments"`
}

func (j JSONFormatter) FormatPayments(summary *domain.PaymentSummary, now time.Time) ([]byte, error) {
	out := jsonSummary{
		TaxYear:         summary.TaxYear,
		TotalEstimated:  summary.TotalEstimated,
		TotalPaid:       summary.TotalPaid,
		Remaining:       summary.Remaining,
		QuartersPaid:    summary.QuartersPaid,
		QuartersOverdue: summary.QuartersOverdue,
		Progress:        summary.Progress().Round(4),
		IsFullyPaid:     summary.IsFullyPaid(),
		HasOverdue:      summary.HasOverdue(),
		Payments:        make([]jsonPayment, 0, len(summary.Payments)),
	}
	for _, p := range summary.Payments {
		out.Payments = append(out.Payments, jsonPayment{QuarterlyPayment: p, Status: paymentStatus(p, now)})
	}
	return json.MarshalIndent(out, "", "  ")
}
