package compare

import (
	"context"
	"fmt"

	"github.com/rgehrsitz/nursetax/internal/calculation"
	"github.com/rgehrsitz/nursetax/internal/domain"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// CompareEngine taxes the same income in several states
type CompareEngine struct {
	TaxEngine         *calculation.TaxEngine
	MetricsCalculator *MetricsCalculator
}

// NewCompareEngine creates a new comparison engine
func NewCompareEngine(taxEngine *calculation.TaxEngine) *CompareEngine {
	if taxEngine == nil {
		taxEngine = calculation.NewTaxEngine()
	}
	return &CompareEngine{
		TaxEngine:         taxEngine,
		MetricsCalculator: NewMetricsCalculator(),
	}
}

// CompareOptions configures comparison behavior
type CompareOptions struct {
	TaxYear      int
	GrossIncome  decimal.Decimal
	Deductions   decimal.Decimal
	SelfEmployed bool
	BaseState    string   // State to compare against
	States       []string // Alternative states, codes or names
}

// Compare runs the base state and every alternative through the tax engine
func (ce *CompareEngine) Compare(ctx context.Context, options CompareOptions) (*ComparisonSet, error) {
	base, ok := domain.ParseState(options.BaseState)
	if !ok {
		return nil, fmt.Errorf("base state %q not recognized", options.BaseState)
	}

	baseResult := ce.MetricsCalculator.CalculateMetrics(
		ce.TaxEngine.CalculateTotalTax(options.GrossIncome, options.Deductions, base, options.SelfEmployed),
		options.TaxYear)

	states := make([]domain.State, 0, len(options.States))
	for _, name := range options.States {
		state, ok := domain.ParseState(name)
		if !ok {
			return nil, fmt.Errorf("state %q not recognized", name)
		}
		states = append(states, state)
	}
	// Names and codes of one state collapse to a single alternative, and the base is excluded
	states = lo.Without(lo.Uniq(states), base)

	alternatives := []ComparisonResult{}
	for _, state := range states {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		result := ce.TaxEngine.CalculateTotalTax(options.GrossIncome, options.Deductions, state, options.SelfEmployed)
		alt := ce.MetricsCalculator.CalculateMetrics(result, options.TaxYear)
		alternatives = append(alternatives, ce.MetricsCalculator.CalculateComparison(alt, baseResult))
	}

	compSet := &ComparisonSet{
		BaseState:          base,
		GrossIncome:        options.GrossIncome,
		Deductions:         options.Deductions,
		SelfEmployed:       options.SelfEmployed,
		BaseResult:         &baseResult,
		AlternativeResults: alternatives,
	}

	compSet.Recommendations = GenerateRecommendations(compSet)

	return compSet, nil
}
