package domain

import (
	"github.com/shopspring/decimal"
)

// TaxRules contains the rate tables the engine runs on.
// It is loaded from a rules YAML file; anything left empty falls back to the built-in 2024 tables.
type TaxRules struct {
	Metadata       RulesMetadata            `yaml:"metadata" json:"metadata"`
	FederalTax     FederalTaxRules          `yaml:"federal_tax" json:"federal_tax"`
	SelfEmployment SelfEmploymentRules      `yaml:"self_employment" json:"self_employment"`
	States         map[string]StateTaxRules `yaml:"states" json:"states"`
}

// RulesMetadata contains information about the rule data
type RulesMetadata struct {
	DataYear    int    `yaml:"data_year" json:"data_year"`
	LastUpdated string `yaml:"last_updated" json:"last_updated"`
	Description string `yaml:"description" json:"description"`
}

// TaxBracket is one row of a progressive bracket table: income above Threshold is taxed at Rate
// until the next row's threshold.
type TaxBracket struct {
	Threshold decimal.Decimal `yaml:"threshold" json:"threshold"`
	Rate      decimal.Decimal `yaml:"rate" json:"rate"`
}

// FederalTaxRules contains federal income tax rules (single filer only)
type FederalTaxRules struct {
	BracketsSingle []TaxBracket `yaml:"brackets_single" json:"brackets_single"`
}

// SelfEmploymentRules contains SECA tax parameters. Nil fields keep the built-in value,
// so a rules file can set any of them to zero.
type SelfEmploymentRules struct {
	MinimumNetEarnings          *decimal.Decimal `yaml:"minimum_net_earnings,omitempty" json:"minimum_net_earnings,omitempty"`
	NetEarningsFactor           *decimal.Decimal `yaml:"net_earnings_factor,omitempty" json:"net_earnings_factor,omitempty"`
	SocialSecurityRate          *decimal.Decimal `yaml:"social_security_rate,omitempty" json:"social_security_rate,omitempty"`
	SocialSecurityWageBase      *decimal.Decimal `yaml:"social_security_wage_base,omitempty" json:"social_security_wage_base,omitempty"`
	MedicareRate                *decimal.Decimal `yaml:"medicare_rate,omitempty" json:"medicare_rate,omitempty"`
	AdditionalMedicareRate      *decimal.Decimal `yaml:"additional_medicare_rate,omitempty" json:"additional_medicare_rate,omitempty"`
	AdditionalMedicareThreshold *decimal.Decimal `yaml:"additional_medicare_threshold,omitempty" json:"additional_medicare_threshold,omitempty"`
}

// StateTaxRules describes one state's rate lookup. Either Rate (flat) or Steps is set.
type StateTaxRules struct {
	Rate    *decimal.Decimal `yaml:"rate,omitempty" json:"rate,omitempty"`
	Steps   []RateStep       `yaml:"steps,omitempty" json:"steps,omitempty"`
	TopRate decimal.Decimal  `yaml:"top_rate,omitempty" json:"top_rate,omitempty"`
}

// RateStep maps every taxable income up to and including UpTo to a single effective rate
type RateStep struct {
	UpTo decimal.Decimal `yaml:"up_to" json:"up_to"`
	Rate decimal.Decimal `yaml:"rate" json:"rate"`
}
