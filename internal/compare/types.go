package compare

import (
	"fmt"
	"sort"

	"github.com/rgehrsitz/nursetax/internal/calculation"
	"github.com/rgehrsitz/nursetax/internal/domain"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// ComparisonResult represents the same income taxed in one state
type ComparisonResult struct {
	State     domain.State                `json:"state"`
	StateName string                      `json:"stateName"`
	Result    domain.TaxCalculationResult `json:"result"`

	// Key Metrics
	StateTax         decimal.Decimal `json:"stateTax"`
	TotalTax         decimal.Decimal `json:"totalTax"`
	TakeHome         decimal.Decimal `json:"takeHome"`
	EffectiveRate    decimal.Decimal `json:"effectiveRate"`
	QuarterlyPayment decimal.Decimal `json:"quarterlyPayment"`

	// Comparison to Base
	StateTaxDiffFromBase decimal.Decimal `json:"stateTaxDiffFromBase"`
	TotalTaxDiffFromBase decimal.Decimal `json:"totalTaxDiffFromBase"`
	TakeHomeDiffFromBase decimal.Decimal `json:"takeHomeDiffFromBase"`
	TakeHomePctFromBase  decimal.Decimal `json:"takeHomePctFromBase"`
}

// ComparisonSet represents a collection of state comparisons against a base state
type ComparisonSet struct {
	BaseState          domain.State       `json:"baseState"`
	GrossIncome        decimal.Decimal    `json:"grossIncome"`
	Deductions         decimal.Decimal    `json:"deductions"`
	SelfEmployed       bool               `json:"selfEmployed"`
	BaseResult         *ComparisonResult  `json:"baseResult"`
	AlternativeResults []ComparisonResult `json:"alternativeResults"`
	Recommendations    []string           `json:"recommendations"`
}

// Ranked returns the base and every alternative ordered by take-home pay, highest first.
// Ties rank the base state first, then by state code.
func (cs *ComparisonSet) Ranked() []ComparisonResult {
	all := make([]ComparisonResult, 0, len(cs.AlternativeResults)+1)
	if cs.BaseResult != nil {
		all = append(all, *cs.BaseResult)
	}
	all = append(all, cs.AlternativeResults...)
	sort.SliceStable(all, func(i, j int) bool {
		if !all[i].TakeHome.Equal(all[j].TakeHome) {
			return all[i].TakeHome.GreaterThan(all[j].TakeHome)
		}
		if (all[i].State == cs.BaseState) != (all[j].State == cs.BaseState) {
			return all[i].State == cs.BaseState
		}
		return all[i].State < all[j].State
	})
	return all
}

// MetricsCalculator extracts key metrics from tax results
type MetricsCalculator struct{}

// NewMetricsCalculator creates a new metrics calculator
func NewMetricsCalculator() *MetricsCalculator {
	return &MetricsCalculator{}
}

// CalculateMetrics computes the comparison metrics for one state's result
func (mc *MetricsCalculator) CalculateMetrics(result domain.TaxCalculationResult, taxYear int) ComparisonResult {
	estimate := calculation.QuarterlyEstimateFor(result.TotalTax, taxYear)
	return ComparisonResult{
		State:            result.State,
		StateName:        result.State.Name(),
		Result:           result,
		StateTax:         result.StateTax,
		TotalTax:         result.TotalTax,
		TakeHome:         result.TakeHome(),
		EffectiveRate:    result.EffectiveRate(),
		QuarterlyPayment: estimate.Amount(1),
	}
}

// CalculateComparison computes comparison metrics between a state and the base
func (mc *MetricsCalculator) CalculateComparison(alt, base ComparisonResult) ComparisonResult {
	alt.StateTaxDiffFromBase = alt.StateTax.Sub(base.StateTax)
	alt.TotalTaxDiffFromBase = alt.TotalTax.Sub(base.TotalTax)
	alt.TakeHomeDiffFromBase = alt.TakeHome.Sub(base.TakeHome)

	if !base.TakeHome.IsZero() {
		alt.TakeHomePctFromBase = alt.TakeHomeDiffFromBase.
			Div(base.TakeHome).
			Mul(decimal.NewFromInt(100))
	}

	return alt
}

// GenerateRecommendations creates recommendations based on comparison results
func GenerateRecommendations(compSet *ComparisonSet) []string {
	recommendations := []string{}

	if compSet.BaseResult == nil || len(compSet.AlternativeResults) == 0 {
		return recommendations
	}

	ranked := compSet.Ranked()
	best := ranked[0]
	if best.State != compSet.BaseState {
		gain := best.TakeHome.Sub(compSet.BaseResult.TakeHome)
		recommendations = append(recommendations,
			"Best Take-Home: "+best.StateName+" keeps $"+gain.StringFixed(0)+
				" more per year than "+compSet.BaseResult.StateName)
	} else {
		recommendations = append(recommendations,
			"Best Take-Home: "+best.StateName+" (base) already has the lowest tax bill")
	}

	worst := ranked[len(ranked)-1]
	if worst.State != best.State {
		recommendations = append(recommendations,
			"Highest Cost: "+worst.StateName+" costs $"+worst.TotalTax.Sub(best.TotalTax).StringFixed(0)+
				" more than "+best.StateName)
	}

	noTax := lo.Filter(ranked, func(r ComparisonResult, _ int) bool { return r.StateTax.IsZero() })
	if len(noTax) > 0 && len(noTax) < len(ranked) {
		names := lo.Map(noTax, func(r ComparisonResult, _ int) string { return string(r.State) })
		recommendations = append(recommendations,
			fmt.Sprintf("No State Income Tax: %v at this income", names))
	}

	if compSet.BaseResult.QuarterlyPayment.IsPositive() && best.State != compSet.BaseState {
		recommendations = append(recommendations,
			"Quarterly Estimate: a contract in "+best.StateName+" lowers each quarterly payment to $"+
				best.QuarterlyPayment.StringFixed(2)+" from $"+compSet.BaseResult.QuarterlyPayment.StringFixed(2))
	}

	return recommendations
}
