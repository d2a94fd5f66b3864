package output

import (
	"fmt"
	"strings"
	"time"

	"github.com/rgehrsitz/nursetax/internal/domain"
)

// ConsoleFormatter renders bordered tables for terminal output.
type ConsoleFormatter struct{}

func (c ConsoleFormatter) Name() string { return "console" }

func (c ConsoleFormatter) Format(report *domain.TaxReport) ([]byte, error) {
	var b strings.Builder
	r := report.Result

	b.WriteString(RenderTitle(fmt.Sprintf("TAX ESTIMATE %d", report.TaxYear)))
	b.WriteString("\n")
	if report.Name != "" {
		b.WriteString(mutedStyle.Render("  " + report.Name))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	stateRow := "State Tax"
	if report.MultiState == nil && r.State != "" {
		stateRow = "State Tax (" + string(r.State) + ")"
	}
	seRow := []string{"Self-Employment Tax", FormatCurrency(r.SelfEmploymentTax)}
	if !r.IsSelfEmployed {
		seRow[1] = "n/a"
	}

	b.WriteString(RenderTable(Table{
		Title:   "Annual Liability",
		Headers: []string{"Item", "Amount"},
		Rows: [][]string{
			{"Gross Income", FormatCurrency(r.GrossIncome)},
			{"Deductions", FormatCurrency(r.Deductions)},
			{"Taxable Income", FormatCurrency(r.TaxableIncome)},
			SeparatorRow,
			{"Federal Tax", FormatCurrency(r.FederalTax)},
			{stateRow, FormatCurrency(r.StateTax)},
			seRow,
			SeparatorRow,
			{"Total Tax", FormatCurrency(r.TotalTax)},
			{"Take-Home", FormatCurrency(r.TakeHome())},
			{"Effective Rate", FormatRate(r.EffectiveRate())},
			{"Marginal Rate", FormatRate(r.MarginalRate)},
		},
	}))

	if ms := report.MultiState; ms != nil {
		b.WriteString("\n")
		rows := make([][]string, 0, len(ms.Allocations)+2)
		for _, sb := range ms.Breakdown() {
			rows = append(rows, []string{
				stateLabel(sb.State),
				FormatCurrency(sb.Income),
				FormatCurrency(sb.DeductionShare),
				FormatCurrency(sb.TaxableIncome),
				FormatCurrency(sb.Tax),
			})
		}
		rows = append(rows, SeparatorRow, []string{
			"Total", FormatCurrency(ms.TotalIncome), FormatCurrency(ms.TotalDeductions), "", FormatCurrency(ms.TotalStateTax),
		})
		b.WriteString(RenderTable(Table{
			Title:   "State Breakdown",
			Headers: []string{"State", "Income", "Deduction Share", "Taxable", "Tax"},
			Rows:    rows,
		}))
	}

	if est := report.Estimate; est != nil {
		b.WriteString("\n")
		rows := make([][]string, 0, 6)
		for q := 1; q <= 4; q++ {
			rows = append(rows, []string{fmt.Sprintf("Q%d", q), formatDate(est.DueDate(q)), FormatCurrency(est.Amount(q))})
		}
		rows = append(rows, SeparatorRow, []string{"Total", "", FormatCurrency(est.Sum())})
		b.WriteString(RenderTable(Table{
			Title:   fmt.Sprintf("Quarterly Estimates %d", est.TaxYear),
			Headers: []string{"Quarter", "Due", "Amount"},
			Rows:    rows,
		}))
	}

	return []byte(b.String()), nil
}

func (c ConsoleFormatter) FormatPayments(summary *domain.PaymentSummary, now time.Time) ([]byte, error) {
	var b strings.Builder

	b.WriteString(RenderTitle(fmt.Sprintf("ESTIMATED PAYMENTS %d", summary.TaxYear)))
	b.WriteString("\n\n")

	if len(summary.Payments) == 0 {
		b.WriteString(mutedStyle.Render(fmt.Sprintf("  No payments planned for %d", summary.TaxYear)))
		b.WriteString("\n")
		return []byte(b.String()), nil
	}

	rows := make([][]string, 0, len(summary.Payments))
	for _, p := range summary.Payments {
		status := paymentStatus(p, now)
		switch status {
		case "overdue":
			status = badStyle.Render(status)
		case "paid (partial)":
			status = warnStyle.Render(status)
		case "paid":
			status = goodStyle.Render(status)
		}
		paidOn := ""
		if p.PaymentDate != nil {
			paidOn = formatDate(*p.PaymentDate)
		}
		rows = append(rows, []string{
			p.Label(), formatDate(p.DueDate), FormatCurrency(p.EstimatedAmount),
			FormatCurrency(p.PaidAmount), paidOn, status, p.ID,
		})
	}
	b.WriteString(RenderTable(Table{
		Headers: []string{"Quarter", "Due", "Estimated", "Paid", "Paid On", "Status", "ID"},
		Rows:    rows,
	}))
	b.WriteString("\n")

	progress, _ := summary.Progress().Float64()
	fmt.Fprintf(&b, "  Estimated: %s   Paid: %s   Remaining: %s\n",
		FormatCurrency(summary.TotalEstimated), FormatCurrency(summary.TotalPaid), FormatCurrency(summary.Remaining))
	fmt.Fprintf(&b, "  Quarters paid: %d/4   %s\n", summary.QuartersPaid, RenderProgressBar(progress, 24))
	switch {
	case summary.IsFullyPaid():
		b.WriteString(goodStyle.Render("  All quarters paid"))
		b.WriteString("\n")
	case summary.HasOverdue():
		b.WriteString(badStyle.Render(fmt.Sprintf("  %d quarter(s) overdue", summary.QuartersOverdue)))
		b.WriteString("\n")
	}

	return []byte(b.String()), nil
}
