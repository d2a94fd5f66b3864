package calculation

import (
	"github.com/rgehrsitz/nursetax/internal/domain"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

var four = decimal.NewFromInt(4)

// TaxEngine orchestrates federal, self-employment and state tax calculations.
// It holds only rate tables and is safe for concurrent use once constructed.
type TaxEngine struct {
	FederalTaxCalc        *FederalTaxCalculator
	SelfEmploymentTaxCalc *SelfEmploymentTaxCalculator
	StateTaxCalc          *StateTaxCalculator
	Logger                Logger
}

// NewTaxEngine creates a tax engine with the built-in 2024 tables
func NewTaxEngine() *TaxEngine {
	return &TaxEngine{
		FederalTaxCalc:        NewFederalTaxCalculator2024(),
		SelfEmploymentTaxCalc: NewSelfEmploymentTaxCalculator2024(),
		StateTaxCalc:          NewStateTaxCalculator2024(),
		Logger:                NopLogger{},
	}
}

// NewTaxEngineWithRules creates a tax engine from configured rules, falling back to the
// built-in tables for anything the rules leave empty. Rules for unknown states are ignored;
// config validation reports them.
func NewTaxEngineWithRules(rules domain.TaxRules) *TaxEngine {
	stateCalc, _ := NewStateTaxCalculatorWithRules(rules.States)
	return &TaxEngine{
		FederalTaxCalc:        NewFederalTaxCalculator(rules.FederalTax),
		SelfEmploymentTaxCalc: NewSelfEmploymentTaxCalculator(rules.SelfEmployment),
		StateTaxCalc:          stateCalc,
		Logger:                NopLogger{},
	}
}

// SetLogger sets the engine logger; nil installs a no-op logger.
// Call it before sharing the engine between goroutines.
func (te *TaxEngine) SetLogger(l Logger) {
	te.Logger = OrNop(l)
}

// CalculateFederalTax returns federal income tax on taxable income
func (te *TaxEngine) CalculateFederalTax(taxableIncome decimal.Decimal) decimal.Decimal {
	return te.FederalTaxCalc.CalculateTax(taxableIncome)
}

// FederalMarginalRate returns the federal rate applied to the last dollar of taxable income
func (te *TaxEngine) FederalMarginalRate(taxableIncome decimal.Decimal) decimal.Decimal {
	return te.FederalTaxCalc.MarginalRate(taxableIncome)
}

// CalculateSelfEmploymentTax returns SECA tax on net self-employment earnings
func (te *TaxEngine) CalculateSelfEmploymentTax(netEarnings decimal.Decimal) decimal.Decimal {
	return te.SelfEmploymentTaxCalc.CalculateTax(netEarnings)
}

// CalculateStateTax returns state income tax on taxable income
func (te *TaxEngine) CalculateStateTax(taxableIncome decimal.Decimal, state domain.State) decimal.Decimal {
	if _, ok := te.StateTaxCalc.Schedule(state); !ok {
		te.Logger.Debugf("no rate schedule for state %q, state tax is zero", state)
	}
	return te.StateTaxCalc.CalculateTax(taxableIncome, state)
}

// TaxableIncome is gross less deductions, floored at zero
func TaxableIncome(grossIncome, deductions decimal.Decimal) decimal.Decimal {
	return decimal.Max(decimal.Zero, grossIncome.Sub(deductions))
}

// CalculateTotalTax computes the full annual breakdown for a single-state year
func (te *TaxEngine) CalculateTotalTax(grossIncome, deductions decimal.Decimal, state domain.State, isSelfEmployed bool) domain.TaxCalculationResult {
	state = state.Canonical()
	taxable := TaxableIncome(grossIncome, deductions)

	federalTax := te.CalculateFederalTax(taxable)
	stateTax := te.CalculateStateTax(taxable, state)
	seTax := decimal.Zero
	if isSelfEmployed {
		seTax = te.CalculateSelfEmploymentTax(taxable)
	}

	result := domain.TaxCalculationResult{
		GrossIncome:       grossIncome,
		Deductions:        deductions,
		TaxableIncome:     taxable,
		FederalTax:        federalTax,
		StateTax:          stateTax,
		SelfEmploymentTax: seTax,
		TotalTax:          federalTax.Add(stateTax).Add(seTax),
		MarginalRate:      te.FederalMarginalRate(taxable),
		State:             state,
		IsSelfEmployed:    isSelfEmployed,
	}

	te.Logger.Debugf("tax for gross=%s deductions=%s state=%s: federal=%s state=%s se=%s total=%s",
		grossIncome.StringFixed(2), deductions.StringFixed(2), state,
		federalTax, stateTax, seTax, result.TotalTax)

	return result
}

// CalculateQuarterlyEstimate splits the annual total into four equal payments due in taxYear.
// Rounding differences are not redistributed between quarters.
func (te *TaxEngine) CalculateQuarterlyEstimate(grossIncome, deductions decimal.Decimal, state domain.State, isSelfEmployed bool, taxYear int) domain.QuarterlyEstimate {
	result := te.CalculateTotalTax(grossIncome, deductions, state, isSelfEmployed)
	return QuarterlyEstimateFor(result.TotalTax, taxYear)
}

// QuarterlyEstimateFor splits totalTax into four payments with taxYear's due dates
func QuarterlyEstimateFor(totalTax decimal.Decimal, taxYear int) domain.QuarterlyEstimate {
	quarter := totalTax.Div(four).Round(2)
	return domain.QuarterlyEstimate{
		TaxYear:  taxYear,
		TotalTax: totalTax,
		Amounts:  [4]decimal.Decimal{quarter, quarter, quarter, quarter},
		DueDates: domain.QuarterlyDueDates(taxYear),
	}
}

// CalculateMultiStateTax apportions deductions across states by income share.
// Federal tax is computed once on the combined taxable income.
func (te *TaxEngine) CalculateMultiStateTax(allocations []domain.StateAllocation, totalDeductions decimal.Decimal) domain.MultiStateTaxResult {
	return te.CalculateMultiStateTaxWithSE(allocations, totalDeductions, false)
}

// CalculateMultiStateTaxWithSE is CalculateMultiStateTax plus self-employment tax on the
// combined taxable income when isSelfEmployed is set
func (te *TaxEngine) CalculateMultiStateTaxWithSE(allocations []domain.StateAllocation, totalDeductions decimal.Decimal, isSelfEmployed bool) domain.MultiStateTaxResult {
	// Merge allocations naming the same state, keeping first-seen order.
	// "CA" and "California" are the same state.
	allocations = lo.Map(allocations, func(a domain.StateAllocation, _ int) domain.StateAllocation {
		a.State = a.State.Canonical()
		return a
	})
	states := lo.Uniq(lo.Map(allocations, func(a domain.StateAllocation, _ int) domain.State {
		return a.State
	}))
	incomeByState := lo.Reduce(allocations, func(acc map[domain.State]decimal.Decimal, a domain.StateAllocation, _ int) map[domain.State]decimal.Decimal {
		acc[a.State] = acc[a.State].Add(a.Income)
		return acc
	}, make(map[domain.State]decimal.Decimal, len(states)))

	totalIncome := lo.Reduce(allocations, func(acc decimal.Decimal, a domain.StateAllocation, _ int) decimal.Decimal {
		return acc.Add(a.Income)
	}, decimal.Zero)

	taxable := TaxableIncome(totalIncome, totalDeductions)
	federalTax := te.CalculateFederalTax(taxable)
	seTax := decimal.Zero
	if isSelfEmployed {
		seTax = te.CalculateSelfEmploymentTax(taxable)
	}

	result := domain.MultiStateTaxResult{
		TotalIncome:       totalIncome,
		TotalDeductions:   totalDeductions,
		FederalTax:        federalTax,
		StateTaxes:        make(map[domain.State]decimal.Decimal, len(states)),
		TotalStateTax:     decimal.Zero,
		SelfEmploymentTax: seTax,
		Allocations:       make([]domain.StateBreakdown, 0, len(states)),
	}

	for _, state := range states {
		income := incomeByState[state]
		share := decimal.Zero
		if totalIncome.IsPositive() {
			share = totalDeductions.Mul(income).Div(totalIncome)
		}
		stateTaxable := TaxableIncome(income, share)
		stateTax := te.CalculateStateTax(stateTaxable, state)

		result.StateTaxes[state] = stateTax
		result.TotalStateTax = result.TotalStateTax.Add(stateTax)
		result.Allocations = append(result.Allocations, domain.StateBreakdown{
			State:          state,
			Income:         income,
			DeductionShare: share,
			TaxableIncome:  stateTaxable,
			Tax:            stateTax,
		})
	}

	result.TotalTax = federalTax.Add(result.TotalStateTax).Add(seTax)
	return result
}
