package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// TaxCalculationResult is the outcome of one annual tax calculation.
// It is created fresh for every calculation and never mutated.
type TaxCalculationResult struct {
	GrossIncome       decimal.Decimal `json:"gross_income"`
	Deductions        decimal.Decimal `json:"deductions"`
	TaxableIncome     decimal.Decimal `json:"taxable_income"`
	FederalTax        decimal.Decimal `json:"federal_tax"`
	StateTax          decimal.Decimal `json:"state_tax"`
	SelfEmploymentTax decimal.Decimal `json:"self_employment_tax"`
	TotalTax          decimal.Decimal `json:"total_tax"`
	MarginalRate      decimal.Decimal `json:"marginal_rate"`
	State             State           `json:"state"`
	IsSelfEmployed    bool            `json:"is_self_employed"`
}

// EffectiveRate is total tax over gross income, zero when there is no gross income
func (r TaxCalculationResult) EffectiveRate() decimal.Decimal {
	if !r.GrossIncome.IsPositive() {
		return decimal.Zero
	}
	return r.TotalTax.Div(r.GrossIncome)
}

// TakeHome is gross income less total tax
func (r TaxCalculationResult) TakeHome() decimal.Decimal {
	return r.GrossIncome.Sub(r.TotalTax)
}

// QuarterlyEstimate splits an annual liability into four equal estimated payments
type QuarterlyEstimate struct {
	TaxYear  int                `json:"tax_year"`
	TotalTax decimal.Decimal    `json:"total_tax"`
	Amounts  [4]decimal.Decimal `json:"amounts"`
	DueDates [4]time.Time       `json:"due_dates"`
}

// Amount returns the payment for quarter q (1-4)
func (e QuarterlyEstimate) Amount(q int) decimal.Decimal {
	if q < 1 || q > 4 {
		return decimal.Zero
	}
	return e.Amounts[q-1]
}

// DueDate returns the due date for quarter q (1-4)
func (e QuarterlyEstimate) DueDate(q int) time.Time {
	if q < 1 || q > 4 {
		return time.Time{}
	}
	return e.DueDates[q-1]
}

// Sum adds the four quarterly amounts
func (e QuarterlyEstimate) Sum() decimal.Decimal {
	sum := decimal.Zero
	for _, a := range e.Amounts {
		sum = sum.Add(a)
	}
	return sum
}

// StateAllocation is income earned in one state during the tax year
type StateAllocation struct {
	State  State           `yaml:"state" json:"state"`
	Income decimal.Decimal `yaml:"income" json:"income"`
}

// StateBreakdown is one state's slice of a multi-state calculation
type StateBreakdown struct {
	State          State           `json:"state"`
	Income         decimal.Decimal `json:"income"`
	DeductionShare decimal.Decimal `json:"deduction_share"`
	TaxableIncome  decimal.Decimal `json:"taxable_income"`
	Tax            decimal.Decimal `json:"tax"`
}

// MultiStateTaxResult is the outcome of apportioning a year across several states.
// Federal tax is computed once on the combined taxable income.
type MultiStateTaxResult struct {
	TotalIncome       decimal.Decimal           `json:"total_income"`
	TotalDeductions   decimal.Decimal           `json:"total_deductions"`
	FederalTax        decimal.Decimal           `json:"federal_tax"`
	StateTaxes        map[State]decimal.Decimal `json:"state_taxes"`
	TotalStateTax     decimal.Decimal           `json:"total_state_tax"`
	SelfEmploymentTax decimal.Decimal           `json:"self_employment_tax"`
	TotalTax          decimal.Decimal           `json:"total_tax"`
	Allocations       []StateBreakdown          `json:"allocations"`
}

// Breakdown returns the per-state rows sorted by state code
func (r MultiStateTaxResult) Breakdown() []StateBreakdown {
	rows := append([]StateBreakdown(nil), r.Allocations...)
	sort.Slice(rows, func(i, j int) bool { return rows[i].State < rows[j].State })
	return rows
}

// TaxReport bundles everything an export needs for one taxpayer and year
type TaxReport struct {
	Name        string               `json:"name,omitempty"`
	TaxYear     int                  `json:"tax_year"`
	GeneratedAt time.Time            `json:"generated_at"`
	Result      TaxCalculationResult `json:"result"`
	MultiState  *MultiStateTaxResult `json:"multi_state,omitempty"`
	Estimate    *QuarterlyEstimate   `json:"estimate,omitempty"`
}
