package compare

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// TableFormatter formats comparison results as a console table
type TableFormatter struct{}

// Format generates a formatted table comparing states
func (tf *TableFormatter) Format(compSet *ComparisonSet) string {
	var sb strings.Builder

	sb.WriteString("STATE TAX COMPARISON\n")
	sb.WriteString(strings.Repeat("=", 80) + "\n")
	sb.WriteString(fmt.Sprintf("Base State: %s\n", compSet.BaseState.Name()))
	sb.WriteString(fmt.Sprintf("Gross Income: $%s  Deductions: $%s  Self-Employed: %t\n",
		compSet.GrossIncome.StringFixed(0), compSet.Deductions.StringFixed(0), compSet.SelfEmployed))
	sb.WriteString("\n")

	nameWidth := 22
	numWidth := 13

	sb.WriteString(fmt.Sprintf("%-*s %*s %*s %*s %*s\n",
		nameWidth, "State",
		numWidth, "State Tax",
		numWidth, "Total Tax",
		numWidth, "Take-Home",
		numWidth, "Quarterly"))
	sb.WriteString(strings.Repeat("-", 80) + "\n")

	if base := compSet.BaseResult; base != nil {
		sb.WriteString(tf.formatRow(base, nameWidth, numWidth, true))
	}

	if len(compSet.AlternativeResults) > 0 {
		sb.WriteString(strings.Repeat("-", 80) + "\n")
		for _, alt := range compSet.AlternativeResults {
			sb.WriteString(tf.formatRow(&alt, nameWidth, numWidth, false))
		}
	}

	sb.WriteString(strings.Repeat("=", 80) + "\n")

	if len(compSet.AlternativeResults) > 0 {
		sb.WriteString("\nCOMPARISON TO BASE\n")
		sb.WriteString(strings.Repeat("-", 80) + "\n")

		for _, alt := range compSet.AlternativeResults {
			sb.WriteString(fmt.Sprintf("\n%s:\n", alt.StateName))
			sb.WriteString(fmt.Sprintf("  Take-Home:  %s$%s (%s%%)\n",
				tf.deltaSymbol(alt.TakeHomeDiffFromBase),
				alt.TakeHomeDiffFromBase.StringFixed(0),
				alt.TakeHomePctFromBase.StringFixed(1)))
			if !alt.StateTaxDiffFromBase.IsZero() {
				sb.WriteString(fmt.Sprintf("  State Tax:  %s$%s\n",
					tf.deltaSymbol(alt.StateTaxDiffFromBase),
					alt.StateTaxDiffFromBase.StringFixed(0)))
			}
		}
		sb.WriteString("\n")
	}

	if len(compSet.Recommendations) > 0 {
		sb.WriteString("\nRECOMMENDATIONS\n")
		sb.WriteString(strings.Repeat("-", 80) + "\n")
		for _, rec := range compSet.Recommendations {
			sb.WriteString(fmt.Sprintf("- %s\n", rec))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// formatRow formats a single state row
func (tf *TableFormatter) formatRow(result *ComparisonResult, nameWidth, numWidth int, isBase bool) string {
	name := result.StateName
	if isBase {
		name += " (base)"
	}

	return fmt.Sprintf("%-*s %*s %*s %*s %*s\n",
		nameWidth, tf.truncate(name, nameWidth),
		numWidth, "$"+tf.formatDecimal(result.StateTax),
		numWidth, "$"+tf.formatDecimal(result.TotalTax),
		numWidth, "$"+tf.formatDecimal(result.TakeHome),
		numWidth, "$"+result.QuarterlyPayment.StringFixed(2))
}

// formatDecimal formats a decimal for display (in thousands)
func (tf *TableFormatter) formatDecimal(d decimal.Decimal) string {
	if d.Abs().GreaterThanOrEqual(decimal.NewFromInt(1000000)) {
		return d.Div(decimal.NewFromInt(1000000)).StringFixed(2) + "M"
	} else if d.Abs().GreaterThanOrEqual(decimal.NewFromInt(1000)) {
		return d.Div(decimal.NewFromInt(1000)).StringFixed(1) + "K"
	}
	return d.StringFixed(0)
}

// deltaSymbol returns a + for increases; negative numbers carry their own sign
func (tf *TableFormatter) deltaSymbol(delta decimal.Decimal) string {
	if delta.IsPositive() {
		return "+"
	}
	return ""
}

// truncate truncates a string to maxLen
func (tf *TableFormatter) truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// FormatCompact creates a compact single-line summary of take-home differences
func (tf *TableFormatter) FormatCompact(compSet *ComparisonSet) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Base: %s | ", compSet.BaseState))

	for i, alt := range compSet.AlternativeResults {
		if i > 0 {
			sb.WriteString(" | ")
		}
		change := "="
		if alt.TakeHomeDiffFromBase.IsPositive() {
			change = fmt.Sprintf("+$%s", alt.TakeHomeDiffFromBase.StringFixed(0))
		} else if alt.TakeHomeDiffFromBase.IsNegative() {
			change = fmt.Sprintf("-$%s", alt.TakeHomeDiffFromBase.Abs().StringFixed(0))
		}

		sb.WriteString(fmt.Sprintf("%s: %s", alt.State, change))
	}

	return sb.String()
}
