package calculation

import (
	"sort"

	"github.com/rgehrsitz/nursetax/internal/domain"
	"github.com/shopspring/decimal"
)

// TAX CALCULATION ASSUMPTIONS:
//
// 1. Federal Tax Brackets: 2024 single-filer brackets for every tax year
//    - No inflation indexing, no standard deduction (callers pass deductions explicitly)
//    - Results rounded to whole dollars, half away from zero
//
// 2. Self-Employment Tax: 92.35% of net earnings, 2024 Social Security wage base ($168,600)
//    - Nothing owed below $400 of net earnings
//    - Additional Medicare 0.9% above $200,000 of adjusted earnings
//
// 3. State Tax: flat rate per state; California and New York use a stepped
//    effective rate where the whole taxable income is taxed at the rate of the step it
//    falls into. This is an approximation of their progressive tables and is kept as such.
//
// This is an estimator. Itemized deductions, credits, AMT and other filing statuses are not modelled.

// TaxBracket represents a federal tax bracket. Income above Threshold is taxed at Rate
// up to the next bracket's threshold.
type TaxBracket struct {
	Threshold decimal.Decimal
	Rate      decimal.Decimal
}

// FederalTaxCalculator handles federal income tax calculations
type FederalTaxCalculator struct {
	Year     int
	Brackets []TaxBracket
}

func defaultFederalBrackets() []TaxBracket {
	return []TaxBracket{
		{decimal.Zero, decimal.NewFromFloat(0.10)},
		{decimal.NewFromInt(11600), decimal.NewFromFloat(0.12)},
		{decimal.NewFromInt(47150), decimal.NewFromFloat(0.22)},
		{decimal.NewFromInt(100525), decimal.NewFromFloat(0.24)},
		{decimal.NewFromInt(191950), decimal.NewFromFloat(0.32)},
		{decimal.NewFromInt(243725), decimal.NewFromFloat(0.35)},
		{decimal.NewFromInt(609350), decimal.NewFromFloat(0.37)},
	}
}

// NewFederalTaxCalculator2024 creates a federal tax calculator for 2024 single filers
func NewFederalTaxCalculator2024() *FederalTaxCalculator {
	return &FederalTaxCalculator{
		Year:     2024,
		Brackets: defaultFederalBrackets(),
	}
}

// NewFederalTaxCalculator creates a federal tax calculator with configurable brackets
func NewFederalTaxCalculator(rules domain.FederalTaxRules) *FederalTaxCalculator {
	var brackets []TaxBracket
	for _, b := range rules.BracketsSingle {
		brackets = append(brackets, TaxBracket{Threshold: b.Threshold, Rate: b.Rate})
	}
	if len(brackets) == 0 { // fallback defaults
		return NewFederalTaxCalculator2024()
	}
	sort.SliceStable(brackets, func(i, j int) bool {
		return brackets[i].Threshold.LessThan(brackets[j].Threshold)
	})
	return &FederalTaxCalculator{Year: 2024, Brackets: brackets}
}

// CalculateTax applies the bracket table to taxable income
func (ftc *FederalTaxCalculator) CalculateTax(taxableIncome decimal.Decimal) decimal.Decimal {
	if !taxableIncome.IsPositive() {
		return decimal.Zero
	}

	totalTax := decimal.Zero
	for i, bracket := range ftc.Brackets {
		if taxableIncome.LessThanOrEqual(bracket.Threshold) {
			break
		}
		upper := taxableIncome
		if i+1 < len(ftc.Brackets) {
			upper = decimal.Min(taxableIncome, ftc.Brackets[i+1].Threshold)
		}
		totalTax = totalTax.Add(upper.Sub(bracket.Threshold).Mul(bracket.Rate))
	}

	return totalTax.Round(0)
}

// MarginalRate returns the rate of the highest bracket whose threshold is below taxable income.
// Zero or negative income gets the lowest bracket's rate.
func (ftc *FederalTaxCalculator) MarginalRate(taxableIncome decimal.Decimal) decimal.Decimal {
	if len(ftc.Brackets) == 0 {
		return decimal.Zero
	}
	for i := len(ftc.Brackets) - 1; i >= 0; i-- {
		if taxableIncome.GreaterThan(ftc.Brackets[i].Threshold) {
			return ftc.Brackets[i].Rate
		}
	}
	return ftc.Brackets[0].Rate
}

// SelfEmploymentTaxCalculator handles SECA (self-employed Social Security and Medicare) tax
type SelfEmploymentTaxCalculator struct {
	Year                int
	MinimumNetEarnings  decimal.Decimal
	NetEarningsFactor   decimal.Decimal
	SSRate              decimal.Decimal
	SSWageBase          decimal.Decimal
	MedicareRate        decimal.Decimal
	AdditionalRate      decimal.Decimal
	AdditionalThreshold decimal.Decimal
}

// SelfEmploymentBreakdown holds the unrounded components of a SECA calculation
type SelfEmploymentBreakdown struct {
	AdjustedEarnings   decimal.Decimal
	SocialSecurity     decimal.Decimal
	Medicare           decimal.Decimal
	AdditionalMedicare decimal.Decimal
}

// Total is the rounded sum of all components
func (b SelfEmploymentBreakdown) Total() decimal.Decimal {
	return b.SocialSecurity.Add(b.Medicare).Add(b.AdditionalMedicare).Round(0)
}

// NewSelfEmploymentTaxCalculator2024 creates a SECA calculator for 2024
func NewSelfEmploymentTaxCalculator2024() *SelfEmploymentTaxCalculator {
	return &SelfEmploymentTaxCalculator{
		Year:                2024,
		MinimumNetEarnings:  decimal.NewFromInt(400),
		NetEarningsFactor:   decimal.NewFromFloat(0.9235),
		SSRate:              decimal.NewFromFloat(0.124),
		SSWageBase:          decimal.NewFromInt(168600), // 2024 official
		MedicareRate:        decimal.NewFromFloat(0.029),
		AdditionalRate:      decimal.NewFromFloat(0.009),
		AdditionalThreshold: decimal.NewFromInt(200000), // single
	}
}

// NewSelfEmploymentTaxCalculator creates a SECA calculator with configurable values.
// Zero fields keep their 2024 defaults.
func NewSelfEmploymentTaxCalculator(rules domain.SelfEmploymentRules) *SelfEmploymentTaxCalculator {
	c := NewSelfEmploymentTaxCalculator2024()
	override := func(dst *decimal.Decimal, v *decimal.Decimal) {
		if v != nil {
			*dst = *v
		}
	}
	override(&c.MinimumNetEarnings, rules.MinimumNetEarnings)
	override(&c.NetEarningsFactor, rules.NetEarningsFactor)
	override(&c.SSRate, rules.SocialSecurityRate)
	override(&c.SSWageBase, rules.SocialSecurityWageBase)
	override(&c.MedicareRate, rules.MedicareRate)
	override(&c.AdditionalRate, rules.AdditionalMedicareRate)
	override(&c.AdditionalThreshold, rules.AdditionalMedicareThreshold)
	return c
}

// Breakdown computes each SECA component for net self-employment earnings
func (sc *SelfEmploymentTaxCalculator) Breakdown(netEarnings decimal.Decimal) SelfEmploymentBreakdown {
	if netEarnings.LessThan(sc.MinimumNetEarnings) {
		return SelfEmploymentBreakdown{}
	}

	adjusted := netEarnings.Mul(sc.NetEarningsFactor)

	// Social Security (capped at the wage base)
	ssBase := decimal.Min(adjusted, sc.SSWageBase)

	// Additional Medicare only on the excess over the threshold
	additional := decimal.Zero
	if adjusted.GreaterThan(sc.AdditionalThreshold) {
		additional = adjusted.Sub(sc.AdditionalThreshold).Mul(sc.AdditionalRate)
	}

	return SelfEmploymentBreakdown{
		AdjustedEarnings:   adjusted,
		SocialSecurity:     ssBase.Mul(sc.SSRate),
		Medicare:           adjusted.Mul(sc.MedicareRate),
		AdditionalMedicare: additional,
	}
}

// CalculateTax returns the rounded SECA tax on net earnings
func (sc *SelfEmploymentTaxCalculator) CalculateTax(netEarnings decimal.Decimal) decimal.Decimal {
	return sc.Breakdown(netEarnings).Total()
}
