package breakeven

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// TableFormatter formats solver results as a console table
type TableFormatter struct{}

// Format generates a formatted report for a solver result
func (tf *TableFormatter) Format(result *SolveResult) string {
	var sb strings.Builder

	sb.WriteString("GROSS-UP SOLVER RESULTS\n")
	sb.WriteString(strings.Repeat("=", 80) + "\n")

	sb.WriteString(fmt.Sprintf("Target:        %s\n", tf.describeTarget(result.Request)))
	sb.WriteString(fmt.Sprintf("State:         %s\n", result.Request.State.Name()))
	sb.WriteString(fmt.Sprintf("Deductions:    $%s\n", tf.formatCurrency(result.Request.Deductions)))
	sb.WriteString(fmt.Sprintf("Self-Employed: %t\n", result.Request.SelfEmployed))
	sb.WriteString(fmt.Sprintf("Status:        %s\n", tf.formatStatus(result.Success)))
	sb.WriteString(fmt.Sprintf("Iterations:    %d\n", result.Iterations))
	if result.ConvergenceInfo != "" {
		sb.WriteString(fmt.Sprintf("Convergence:   %s\n", result.ConvergenceInfo))
	}
	sb.WriteString("\n")

	sb.WriteString("REQUIRED INCOME\n")
	sb.WriteString(strings.Repeat("-", 80) + "\n")
	sb.WriteString(fmt.Sprintf("Gross Income:      $%s\n", tf.formatCurrency(result.GrossIncome)))
	sb.WriteString(fmt.Sprintf("Federal Tax:       $%s\n", tf.formatCurrency(result.Result.FederalTax)))
	sb.WriteString(fmt.Sprintf("State Tax:         $%s\n", tf.formatCurrency(result.Result.StateTax)))
	sb.WriteString(fmt.Sprintf("Self-Employment:   $%s\n", tf.formatCurrency(result.Result.SelfEmploymentTax)))
	sb.WriteString(fmt.Sprintf("Total Tax:         $%s\n", tf.formatCurrency(result.Result.TotalTax)))
	sb.WriteString(fmt.Sprintf("Take-Home:         $%s\n", tf.formatCurrency(result.TakeHome)))
	sb.WriteString(fmt.Sprintf("Quarterly Payment: $%s\n", tf.formatCurrency(result.QuarterlyPayment)))
	sb.WriteString("\n")

	return sb.String()
}

// FormatStates formats results from a per-state solve
func (tf *TableFormatter) FormatStates(result *StateSolveResult) string {
	var sb strings.Builder

	sb.WriteString("GROSS-UP BY STATE\n")
	sb.WriteString(strings.Repeat("=", 80) + "\n\n")

	sb.WriteString(fmt.Sprintf("%-20s %15s %15s %15s\n", "State", "Gross Income", "Take-Home", "Quarterly"))
	sb.WriteString(strings.Repeat("-", 80) + "\n")
	for _, res := range result.Results {
		sb.WriteString(fmt.Sprintf("%-20s %15s %15s %15s\n",
			tf.truncate(res.Request.State.Name(), 20),
			"$"+tf.formatShort(res.GrossIncome),
			"$"+tf.formatShort(res.TakeHome),
			"$"+tf.formatCurrency(res.QuarterlyPayment)))
	}
	sb.WriteString("\n")

	if len(result.Recommendations) > 0 {
		sb.WriteString("RECOMMENDATIONS\n")
		sb.WriteString(strings.Repeat("-", 80) + "\n")
		for _, rec := range result.Recommendations {
			sb.WriteString(fmt.Sprintf("- %s\n", rec))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// JSONFormatter formats results as JSON
type JSONFormatter struct {
	Pretty bool
}

// Format generates JSON output
func (jf *JSONFormatter) Format(result *SolveResult) (string, error) {
	return jf.marshal(result)
}

// FormatStates formats per-state results as JSON
func (jf *JSONFormatter) FormatStates(result *StateSolveResult) (string, error) {
	return jf.marshal(result)
}

func (jf *JSONFormatter) marshal(v any) (string, error) {
	var data []byte
	var err error

	if jf.Pretty {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}

	if err != nil {
		return "", err
	}

	return string(data), nil
}

// Helper methods

func (tf *TableFormatter) describeTarget(req SolveRequest) string {
	if req.Target == TargetQuarterly {
		return fmt.Sprintf("quarterly payment at most $%s", tf.formatCurrency(req.Amount))
	}
	return fmt.Sprintf("take-home of at least $%s", tf.formatCurrency(req.Amount))
}

func (tf *TableFormatter) formatStatus(success bool) string {
	if success {
		return "Converged"
	}
	return "Did not converge"
}

func (tf *TableFormatter) formatCurrency(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func (tf *TableFormatter) formatShort(d decimal.Decimal) string {
	if d.Abs().GreaterThanOrEqual(decimal.NewFromInt(1000000)) {
		return d.Div(decimal.NewFromInt(1000000)).StringFixed(2) + "M"
	} else if d.Abs().GreaterThanOrEqual(decimal.NewFromInt(1000)) {
		return d.Div(decimal.NewFromInt(1000)).StringFixed(1) + "K"
	}
	return d.StringFixed(0)
}

func (tf *TableFormatter) truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
