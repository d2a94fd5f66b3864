package domain

import (
	"github.com/shopspring/decimal"
)

// Profile is a taxpayer's input for one tax year, loaded from a YAML or TOML file
type Profile struct {
	Name         string            `yaml:"name" toml:"name" json:"name"`
	TaxYear      int               `yaml:"tax_year" toml:"tax_year" json:"tax_year" validate:"required,gte=2000,lte=2100"`
	GrossIncome  decimal.Decimal   `yaml:"gross_income" toml:"gross_income" json:"gross_income"`
	Deductions   decimal.Decimal   `yaml:"deductions" toml:"deductions" json:"deductions"`
	State        string            `yaml:"state" toml:"state" json:"state" validate:"required"`
	SelfEmployed bool              `yaml:"self_employed" toml:"self_employed" json:"self_employed"`
	Allocations  []AllocationInput `yaml:"allocations,omitempty" toml:"allocations,omitempty" json:"allocations,omitempty" validate:"dive"`
	RulesFile    string            `yaml:"rules_file,omitempty" toml:"rules_file,omitempty" json:"rules_file,omitempty"`
}

// AllocationInput is income earned in one state as written in a profile file
type AllocationInput struct {
	State  string          `yaml:"state" toml:"state" json:"state" validate:"required"`
	Income decimal.Decimal `yaml:"income" toml:"income" json:"income"`
}

// HomeState returns the parsed profile state
func (p *Profile) HomeState() State {
	s, _ := ParseState(p.State)
	return s
}

// StateAllocations converts the profile allocations to domain allocations
func (p *Profile) StateAllocations() []StateAllocation {
	allocs := make([]StateAllocation, 0, len(p.Allocations))
	for _, a := range p.Allocations {
		s, _ := ParseState(a.State)
		allocs = append(allocs, StateAllocation{State: s, Income: a.Income})
	}
	return allocs
}

// IsMultiState reports whether income is split across states
func (p *Profile) IsMultiState() bool {
	return len(p.Allocations) > 0
}
