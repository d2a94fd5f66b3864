package compare

import (
	"encoding/csv"
	"strings"
)

// CSVFormatter formats comparison results as CSV
type CSVFormatter struct{}

// Format generates CSV output for comparison results
func (cf *CSVFormatter) Format(compSet *ComparisonSet) (string, error) {
	var sb strings.Builder
	writer := csv.NewWriter(&sb)

	header := []string{
		"State",
		"Type",
		"Taxable Income",
		"Federal Tax",
		"State Tax",
		"Self-Employment Tax",
		"Total Tax",
		"Take-Home",
		"Effective Rate",
		"Quarterly Payment",
		"State Tax Diff from Base",
		"Total Tax Diff from Base",
		"Take-Home Diff from Base",
		"Take-Home % Change",
	}
	if err := writer.Write(header); err != nil {
		return "", err
	}

	if compSet.BaseResult != nil {
		if err := writer.Write(cf.formatRow(compSet.BaseResult, "base")); err != nil {
			return "", err
		}
	}

	for _, alt := range compSet.AlternativeResults {
		if err := writer.Write(cf.formatRow(&alt, "alternative")); err != nil {
			return "", err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", err
	}

	return sb.String(), nil
}

// formatRow formats a comparison result as a CSV row
func (cf *CSVFormatter) formatRow(result *ComparisonResult, rowType string) []string {
	return []string{
		string(result.State),
		rowType,
		result.Result.TaxableIncome.StringFixed(2),
		result.Result.FederalTax.StringFixed(2),
		result.StateTax.StringFixed(2),
		result.Result.SelfEmploymentTax.StringFixed(2),
		result.TotalTax.StringFixed(2),
		result.TakeHome.StringFixed(2),
		result.EffectiveRate.StringFixed(4),
		result.QuarterlyPayment.StringFixed(2),
		result.StateTaxDiffFromBase.StringFixed(2),
		result.TotalTaxDiffFromBase.StringFixed(2),
		result.TakeHomeDiffFromBase.StringFixed(2),
		result.TakeHomePctFromBase.StringFixed(2),
	}
}
