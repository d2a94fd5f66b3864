package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rgehrsitz/nursetax/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func validProfile() *domain.Profile {
	return &domain.Profile{
		Name:         "Travel assignment",
		TaxYear:      2024,
		GrossIncome:  decimal.NewFromInt(95000),
		Deductions:   decimal.NewFromInt(15000),
		State:        "TX",
		SelfEmployed: true,
	}
}

func TestNewInputParser(t *testing.T) {
	parser := NewInputParser()
	assert.NotNil(t, parser)
	assert.NotNil(t, parser.validate)
}

func TestInputParser_LoadFromFile_FileNotFound(t *testing.T) {
	parser := NewInputParser()
	_, err := parser.LoadFromFile("nonexistent.yaml")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read file")
}

func TestInputParser_LoadFromFile_InvalidYAML(t *testing.T) {
	path := writeFile(t, "invalid.yaml", "invalid: yaml: content: [unclosed")

	parser := NewInputParser()
	_, err := parser.LoadFromFile(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestInputParser_LoadFromFile_InvalidTOML(t *testing.T) {
	path := writeFile(t, "invalid.toml", "tax_year = [unclosed")

	parser := NewInputParser()
	_, err := parser.LoadFromFile(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse TOML")
}

func TestInputParser_LoadFromFile_ValidYAML(t *testing.T) {
	path := writeFile(t, "nurse.yaml", `
name: "Travel assignment"
tax_year: 2024
gross_income: 95000
deductions: 15000
state: Texas
self_employed: true
rules_file: rules.yaml
`)

	parser := NewInputParser()
	profile, err := parser.LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "Travel assignment", profile.Name)
	assert.Equal(t, 2024, profile.TaxYear)
	assert.True(t, profile.GrossIncome.Equal(decimal.NewFromInt(95000)))
	assert.True(t, profile.Deductions.Equal(decimal.NewFromInt(15000)))
	assert.Equal(t, domain.State("TX"), profile.HomeState())
	assert.True(t, profile.SelfEmployed)
	assert.False(t, profile.IsMultiState())
	assert.Equal(t, filepath.Join(filepath.Dir(path), "rules.yaml"), profile.RulesFile)
}

func TestInputParser_LoadFromFile_ValidTOML(t *testing.T) {
	path := writeFile(t, "nurse.toml", `
name = "Split year"
tax_year = 2024
gross_income = 95000
deductions = 15000
state = "CA"
self_employed = false

[[allocations]]
state = "CA"
income = 50000

[[allocations]]
state = "TX"
income = 45000
`)

	parser := NewInputParser()
	profile, err := parser.LoadFromFile(path)
	require.NoError(t, err)

	assert.True(t, profile.IsMultiState())
	allocs := profile.StateAllocations()
	require.Len(t, allocs, 2)
	assert.Equal(t, domain.State("CA"), allocs[0].State)
	assert.True(t, allocs[0].Income.Equal(decimal.NewFromInt(50000)))
	assert.Equal(t, domain.State("TX"), allocs[1].State)
}

func TestInputParser_ValidateProfile(t *testing.T) {
	parser := NewInputParser()

	tests := []struct {
		name    string
		mutate  func(p *domain.Profile)
		wantErr string
	}{
		{name: "valid", mutate: func(p *domain.Profile) {}},
		{name: "missing tax year", mutate: func(p *domain.Profile) { p.TaxYear = 0 }, wantErr: "TaxYear"},
		{name: "tax year out of range", mutate: func(p *domain.Profile) { p.TaxYear = 1999 }, wantErr: "TaxYear"},
		{name: "missing state", mutate: func(p *domain.Profile) { p.State = "" }, wantErr: "State"},
		{name: "unknown state", mutate: func(p *domain.Profile) { p.State = "Atlantis" }, wantErr: "unknown state"},
		{name: "negative income", mutate: func(p *domain.Profile) { p.GrossIncome = decimal.NewFromInt(-1) }, wantErr: "gross income cannot be negative"},
		{name: "negative deductions", mutate: func(p *domain.Profile) { p.Deductions = decimal.NewFromInt(-1) }, wantErr: "deductions cannot be negative"},
		{
			name: "allocation with unknown state",
			mutate: func(p *domain.Profile) {
				p.GrossIncome = decimal.Zero
				p.Allocations = []domain.AllocationInput{{State: "ZZ", Income: decimal.NewFromInt(1000)}}
			},
			wantErr: "allocation 0: unknown state",
		},
		{
			name: "allocation missing state",
			mutate: func(p *domain.Profile) {
				p.Allocations = []domain.AllocationInput{{Income: decimal.NewFromInt(1000)}}
			},
			wantErr: "State",
		},
		{
			name: "allocations do not match gross",
			mutate: func(p *domain.Profile) {
				p.Allocations = []domain.AllocationInput{{State: "CA", Income: decimal.NewFromInt(1000)}}
			},
			wantErr: "does not match gross income",
		},
		{
			name: "allocations without gross",
			mutate: func(p *domain.Profile) {
				p.GrossIncome = decimal.Zero
				p.Allocations = []domain.AllocationInput{
					{State: "CA", Income: decimal.NewFromInt(50000)},
					{State: "tx", Income: decimal.NewFromInt(45000)},
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validProfile()
			tt.mutate(p)
			err := parser.ValidateProfile(p)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestInputParser_LoadRules(t *testing.T) {
	path := writeFile(t, "rules.yaml", `
metadata:
  data_year: 2024
  description: "Flat test rules"
federal_tax:
  brackets_single:
    - threshold: 0
      rate: 0.10
self_employment:
  social_security_wage_base: 170000
  additional_medicare_rate: 0
states:
  PA:
    rate: 0.05
  OR:
    steps:
      - up_to: 10000
        rate: 0.05
    top_rate: 0.09
`)

	parser := NewInputParser()
	rules, err := parser.LoadRules(path)
	require.NoError(t, err)

	assert.Equal(t, 2024, rules.Metadata.DataYear)
	require.Len(t, rules.FederalTax.BracketsSingle, 1)
	assert.True(t, rules.FederalTax.BracketsSingle[0].Rate.Equal(decimal.NewFromFloat(0.10)))
	require.NotNil(t, rules.SelfEmployment.SocialSecurityWageBase)
	assert.True(t, rules.SelfEmployment.SocialSecurityWageBase.Equal(decimal.NewFromInt(170000)))
	assert.Nil(t, rules.SelfEmployment.MedicareRate)
	require.NotNil(t, rules.SelfEmployment.AdditionalMedicareRate, "an explicit zero is kept")
	assert.True(t, rules.SelfEmployment.AdditionalMedicareRate.IsZero())
	require.NotNil(t, rules.States["PA"].Rate)
	assert.True(t, rules.States["PA"].Rate.Equal(decimal.NewFromFloat(0.05)))
	assert.Len(t, rules.States["OR"].Steps, 1)
}

func TestInputParser_LoadRules_Errors(t *testing.T) {
	parser := NewInputParser()

	_, err := parser.LoadRules("missing-rules.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read rules file")

	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{name: "malformed", content: "states: [", wantErr: "failed to parse rules YAML"},
		{name: "unknown state", content: "states:\n  Atlantis:\n    rate: 0.05\n", wantErr: `unknown state "Atlantis"`},
		{name: "rate above one", content: "states:\n  PA:\n    rate: 1.5\n", wantErr: "rate must be between 0 and 1"},
		{name: "rate and steps", content: "states:\n  PA:\n    rate: 0.05\n    steps:\n      - up_to: 1000\n        rate: 0.01\n    top_rate: 0.05\n", wantErr: "either rate or steps"},
		{name: "self-employment rate above one", content: "self_employment:\n  medicare_rate: 2.9\n", wantErr: "self_employment medicare_rate: rate must be between 0 and 1"},
		{name: "negative wage base", content: "self_employment:\n  social_security_wage_base: -1\n", wantErr: "self_employment social_security_wage_base: cannot be negative"},
		{name: "negative threshold", content: "federal_tax:\n  brackets_single:\n    - threshold: -5\n      rate: 0.1\n", wantErr: "threshold cannot be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "rules.yaml", tt.content)
			_, err := parser.LoadRules(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
