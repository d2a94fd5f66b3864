package output

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/rgehrsitz/nursetax/internal/domain"
)

// CSVFormatter writes a report as Section,Item,Value rows.
type CSVFormatter struct{}

func (c CSVFormatter) Name() string { return "csv" }

func (c CSVFormatter) Format(report *domain.TaxReport) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	r := report.Result

	rows := [][]string{
		{"Section", "Item", "Value"},
		{"summary", "Tax Year", strconv.Itoa(report.TaxYear)},
		{"summary", "State", string(r.State)},
		{"summary", "Self-Employed", strconv.FormatBool(r.IsSelfEmployed)},
		{"summary", "Gross Income", r.GrossIncome.StringFixed(2)},
		{"summary", "Deductions", r.Deductions.StringFixed(2)},
		{"summary", "Taxable Income", r.TaxableIncome.StringFixed(2)},
		{"summary", "Federal Tax", r.FederalTax.StringFixed(2)},
		{"summary", "State Tax", r.StateTax.StringFixed(2)},
		{"summary", "Self-Employment Tax", r.SelfEmploymentTax.StringFixed(2)},
		{"summary", "Total Tax", r.TotalTax.StringFixed(2)},
		{"summary", "Take-Home", r.TakeHome().StringFixed(2)},
		{"summary", "Effective Rate", r.EffectiveRate().StringFixed(4)},
		{"summary", "Marginal Rate", r.MarginalRate.StringFixed(4)},
	}

	if ms := report.MultiState; ms != nil {
		for _, sb := range ms.Breakdown() {
			section := "state:" + string(sb.State)
			rows = append(rows,
				[]string{section, "Income", sb.Income.StringFixed(2)},
				[]string{section, "Deduction Share", sb.DeductionShare.StringFixed(2)},
				[]string{section, "Taxable Income", sb.TaxableIncome.StringFixed(2)},
				[]string{section, "Tax", sb.Tax.StringFixed(2)},
			)
		}
	}

	if est := report.Estimate; est != nil {
		for q := 1; q <= 4; q++ {
			section := fmt.Sprintf("Q%d", q)
			rows = append(rows,
				[]string{section, "Due Date", formatDate(est.DueDate(q))},
				[]string{section, "Amount", est.Amount(q).StringFixed(2)},
			)
		}
	}

	if err := w.WriteAll(rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c CSVFormatter) FormatPayments(summary *domain.PaymentSummary, now time.Time) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	header := []string{"ID", "TaxYear", "Quarter", "DueDate", "Estimated", "EstimatedFederal", "EstimatedState", "PaidAmount", "Status", "PaymentDate", "Notes"}
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, p := range summary.Payments {
		paidOn := ""
		if p.PaymentDate != nil {
			paidOn = formatDate(*p.PaymentDate)
		}
		row := []string{
			p.ID,
			strconv.Itoa(p.TaxYear),
			strconv.Itoa(p.Quarter),
			formatDate(p.DueDate),
			p.EstimatedAmount.StringFixed(2),
			p.EstimatedFederal.StringFixed(2),
			p.EstimatedState.StringFixed(2),
			p.PaidAmount.StringFixed(2),
			paymentStatus(p, now),
			paidOn,
			p.Notes,
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}
