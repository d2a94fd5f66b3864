package output

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/rgehrsitz/nursetax/internal/domain"
)

// PDFFormatter renders a printable A4 report.
type PDFFormatter struct {
	// Uncompressed keeps page streams readable, used by tests.
	Uncompressed bool
}

func (p PDFFormatter) Name() string { return "pdf" }

const (
	pdfLabelWidth = 90
	pdfValueWidth = 50
	pdfRowHeight  = 7
)

func (p PDFFormatter) newDocument(title, subtitle string, generated time.Time) *gofpdf.Fpdf {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(!p.Uncompressed)
	pdf.SetTitle(title, false)
	pdf.SetCreator("nursetax", false)
	if !generated.IsZero() {
		pdf.SetCreationDate(generated)
	}
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, title, "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	if subtitle != "" {
		pdf.CellFormat(0, 6, subtitle, "", 1, "L", false, 0, "")
	}
	if !generated.IsZero() {
		pdf.CellFormat(0, 6, "Generated "+generated.Format("January 2, 2006"), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)
	return pdf
}

func pdfSection(pdf *gofpdf.Fpdf, title string) {
	pdf.Ln(2)
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 8, title, "B", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
}

func pdfRow(pdf *gofpdf.Fpdf, label, value string, bold bool) {
	style := ""
	if bold {
		style = "B"
	}
	pdf.SetFont("Arial", style, 10)
	pdf.CellFormat(pdfLabelWidth, pdfRowHeight, label, "", 0, "L", false, 0, "")
	pdf.CellFormat(pdfValueWidth, pdfRowHeight, value, "", 1, "R", false, 0, "")
}

func pdfTable(pdf *gofpdf.Fpdf, headers []string, widths []float64, rows [][]string) {
	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for i, h := range headers {
		pdf.CellFormat(widths[i], pdfRowHeight, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, row := range rows {
		for i, cell := range row {
			align := "R"
			if i == 0 {
				align = "L"
			}
			pdf.CellFormat(widths[i], pdfRowHeight, cell, "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}
}

func pdfBytes(pdf *gofpdf.Fpdf) ([]byte, error) {
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("rendering pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (p PDFFormatter) Format(report *domain.TaxReport) ([]byte, error) {
	r := report.Result
	pdf := p.newDocument(fmt.Sprintf("Tax Estimate %d", report.TaxYear), report.Name, report.GeneratedAt)

	pdfSection(pdf, "Annual Liability")
	pdfRow(pdf, "Gross Income", FormatCurrency(r.GrossIncome), false)
	pdfRow(pdf, "Deductions", FormatCurrency(r.Deductions), false)
	pdfRow(pdf, "Taxable Income", FormatCurrency(r.TaxableIncome), false)
	pdfRow(pdf, "Federal Tax", FormatCurrency(r.FederalTax), false)
	if report.MultiState == nil && r.State != "" {
		pdfRow(pdf, "State Tax ("+stateLabel(r.State)+")", FormatCurrency(r.StateTax), false)
	} else {
		pdfRow(pdf, "State Tax", FormatCurrency(r.StateTax), false)
	}
	if r.IsSelfEmployed {
		pdfRow(pdf, "Self-Employment Tax", FormatCurrency(r.SelfEmploymentTax), false)
	}
	pdfRow(pdf, "Total Tax", FormatCurrency(r.TotalTax), true)
	pdfRow(pdf, "Take-Home", FormatCurrency(r.TakeHome()), false)
	pdfRow(pdf, "Effective Rate", FormatRate(r.EffectiveRate()), false)
	pdfRow(pdf, "Marginal Rate", FormatRate(r.MarginalRate), false)

	if ms := report.MultiState; ms != nil {
		pdfSection(pdf, "State Breakdown")
		rows := make([][]string, 0, len(ms.Allocations)+1)
		for _, sb := range ms.Breakdown() {
			rows = append(rows, []string{
				stateLabel(sb.State), FormatCurrency(sb.Income), FormatCurrency(sb.DeductionShare),
				FormatCurrency(sb.TaxableIncome), FormatCurrency(sb.Tax),
			})
		}
		rows = append(rows, []string{"Total", FormatCurrency(ms.TotalIncome), FormatCurrency(ms.TotalDeductions), "", FormatCurrency(ms.TotalStateTax)})
		pdfTable(pdf, []string{"State", "Income", "Deduction Share", "Taxable", "Tax"}, []float64{50, 35, 35, 35, 30}, rows)
	}

	if est := report.Estimate; est != nil {
		pdfSection(pdf, fmt.Sprintf("Quarterly Estimates %d", est.TaxYear))
		rows := make([][]string, 0, 5)
		for q := 1; q <= 4; q++ {
			rows = append(rows, []string{fmt.Sprintf("Q%d", q), est.DueDate(q).Format("Jan 2, 2006"), FormatCurrency(est.Amount(q))})
		}
		rows = append(rows, []string{"Total", "", FormatCurrency(est.Sum())})
		pdfTable(pdf, []string{"Quarter", "Due", "Amount"}, []float64{40, 50, 50}, rows)
	}

	return pdfBytes(pdf)
}

func (p PDFFormatter) FormatPayments(summary *domain.PaymentSummary, now time.Time) ([]byte, error) {
	pdf := p.newDocument(fmt.Sprintf("Estimated Payments %d", summary.TaxYear), "", now)

	rows := make([][]string, 0, len(summary.Payments))
	for _, qp := range summary.Payments {
		paidOn := ""
		if qp.PaymentDate != nil {
			paidOn = qp.PaymentDate.Format("Jan 2, 2006")
		}
		rows = append(rows, []string{
			qp.Label(), qp.DueDate.Format("Jan 2, 2006"), FormatCurrency(qp.EstimatedAmount),
			FormatCurrency(qp.PaidAmount), paidOn, paymentStatus(qp, now),
		})
	}
	pdfTable(pdf, []string{"Quarter", "Due", "Estimated", "Paid", "Paid On", "Status"}, []float64{25, 30, 30, 30, 30, 30}, rows)

	pdfSection(pdf, "Summary")
	pdfRow(pdf, "Total Estimated", FormatCurrency(summary.TotalEstimated), false)
	pdfRow(pdf, "Total Paid", FormatCurrency(summary.TotalPaid), false)
	pdfRow(pdf, "Remaining", FormatCurrency(summary.Remaining), true)
	pdfRow(pdf, "Quarters Paid", fmt.Sprintf("%d of 4", summary.QuartersPaid), false)
	pdfRow(pdf, "Quarters Overdue", fmt.Sprintf("%d", summary.QuartersOverdue), false)

	return pdfBytes(pdf)
}
