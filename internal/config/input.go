package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/rgehrsitz/nursetax/internal/domain"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// InputParser handles parsing of profile and tax rule files
type InputParser struct {
	validate *validator.Validate
}

// NewInputParser creates a new input parser
func NewInputParser() *InputParser {
	return &InputParser{validate: validator.New()}
}

// LoadFromFile loads a taxpayer profile from a YAML or TOML file
func (ip *InputParser) LoadFromFile(filename string) (*domain.Profile, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	var profile domain.Profile
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".toml":
		if _, err := toml.Decode(string(data), &profile); err != nil {
			return nil, fmt.Errorf("failed to parse TOML: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &profile); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	}

	if err := ip.ValidateProfile(&profile); err != nil {
		return nil, fmt.Errorf("profile validation failed: %w", err)
	}

	// Rules files are resolved relative to the profile
	if profile.RulesFile != "" && !filepath.IsAbs(profile.RulesFile) {
		profile.RulesFile = filepath.Join(filepath.Dir(filename), profile.RulesFile)
	}

	return &profile, nil
}

// ValidateProfile validates a loaded profile
func (ip *InputParser) ValidateProfile(profile *domain.Profile) error {
	if err := ip.validate.Struct(profile); err != nil {
		return err
	}

	if profile.GrossIncome.IsNegative() {
		return fmt.Errorf("gross income cannot be negative")
	}
	if profile.Deductions.IsNegative() {
		return fmt.Errorf("deductions cannot be negative")
	}
	if _, ok := domain.ParseState(profile.State); !ok {
		return fmt.Errorf("unknown state %q", profile.State)
	}

	if len(profile.Allocations) > 0 {
		total := decimal.Zero
		for i, a := range profile.Allocations {
			if _, ok := domain.ParseState(a.State); !ok {
				return fmt.Errorf("allocation %d: unknown state %q", i, a.State)
			}
			if a.Income.IsNegative() {
				return fmt.Errorf("allocation %d (%s): income cannot be negative", i, a.State)
			}
			total = total.Add(a.Income)
		}
		// Allocations must account for the whole gross income when both are given
		if !profile.GrossIncome.IsZero() && !total.Equal(profile.GrossIncome) {
			return fmt.Errorf("allocations total %s does not match gross income %s",
				total.StringFixed(2), profile.GrossIncome.StringFixed(2))
		}
	}

	return nil
}

// LoadRules loads a tax rules override file
func (ip *InputParser) LoadRules(filename string) (*domain.TaxRules, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file %s: %w", filename, err)
	}

	var rules domain.TaxRules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("failed to parse rules YAML: %w", err)
	}

	if err := ip.ValidateRules(&rules); err != nil {
		return nil, fmt.Errorf("rules validation failed: %w", err)
	}

	return &rules, nil
}

// ValidateRules validates a tax rules override
func (ip *InputParser) ValidateRules(rules *domain.TaxRules) error {
	one := decimal.NewFromInt(1)
	validRate := func(r decimal.Decimal) bool {
		return !r.IsNegative() && r.LessThanOrEqual(one)
	}

	for i, b := range rules.FederalTax.BracketsSingle {
		if b.Threshold.IsNegative() {
			return fmt.Errorf("federal bracket %d: threshold cannot be negative", i)
		}
		if !validRate(b.Rate) {
			return fmt.Errorf("federal bracket %d: rate must be between 0 and 1", i)
		}
	}

	se := rules.SelfEmployment
	for name, r := range map[string]*decimal.Decimal{
		"net_earnings_factor":      se.NetEarningsFactor,
		"social_security_rate":     se.SocialSecurityRate,
		"medicare_rate":            se.MedicareRate,
		"additional_medicare_rate": se.AdditionalMedicareRate,
	} {
		if r != nil && !validRate(*r) {
			return fmt.Errorf("self_employment %s: rate must be between 0 and 1", name)
		}
	}
	for name, v := range map[string]*decimal.Decimal{
		"minimum_net_earnings":          se.MinimumNetEarnings,
		"social_security_wage_base":     se.SocialSecurityWageBase,
		"additional_medicare_threshold": se.AdditionalMedicareThreshold,
	} {
		if v != nil && v.IsNegative() {
			return fmt.Errorf("self_employment %s: cannot be negative", name)
		}
	}

	for key, s := range rules.States {
		if _, ok := domain.ParseState(key); !ok {
			return fmt.Errorf("unknown state %q", key)
		}
		if s.Rate != nil && len(s.Steps) > 0 {
			return fmt.Errorf("state %s: specify either rate or steps, not both", key)
		}
		if s.Rate != nil && !validRate(*s.Rate) {
			return fmt.Errorf("state %s: rate must be between 0 and 1", key)
		}
		for i, st := range s.Steps {
			if !validRate(st.Rate) {
				return fmt.Errorf("state %s step %d: rate must be between 0 and 1", key, i)
			}
		}
		if len(s.Steps) > 0 && !validRate(s.TopRate) {
			return fmt.Errorf("state %s: top rate must be between 0 and 1", key)
		}
	}

	return nil
}
