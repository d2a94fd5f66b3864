package calculation

import (
	"sort"

	"github.com/rgehrsitz/nursetax/internal/domain"
	"github.com/shopspring/decimal"
)

// RateSchedule is a state's rate lookup strategy: FlatRate or SteppedRate
type RateSchedule interface {
	// RateFor returns the single effective rate applied to the whole taxable income
	RateFor(taxableIncome decimal.Decimal) decimal.Decimal
	isRateSchedule()
}

// FlatRate taxes all income at one rate
type FlatRate struct {
	Rate decimal.Decimal
}

func (f FlatRate) RateFor(decimal.Decimal) decimal.Decimal { return f.Rate }
func (FlatRate) isRateSchedule()                           {}

// RateStep maps taxable income up to and including UpTo to Rate
type RateStep struct {
	UpTo decimal.Decimal
	Rate decimal.Decimal
}

// SteppedRate picks one rate from fixed income thresholds. It is not a progressive
// recompute: the entire taxable income is taxed at the rate of the step it falls into.
type SteppedRate struct {
	Steps   []RateStep // ascending by UpTo
	TopRate decimal.Decimal
}

func (s SteppedRate) RateFor(taxableIncome decimal.Decimal) decimal.Decimal {
	for _, step := range s.Steps {
		if taxableIncome.LessThanOrEqual(step.UpTo) {
			return step.Rate
		}
	}
	return s.TopRate
}

func (SteppedRate) isRateSchedule() {}

func flat(rate float64) RateSchedule {
	return FlatRate{Rate: decimal.NewFromFloat(rate)}
}

func stepped(top float64, steps ...[2]float64) RateSchedule {
	s := SteppedRate{TopRate: decimal.NewFromFloat(top)}
	for _, st := range steps {
		s.Steps = append(s.Steps, RateStep{UpTo: decimal.NewFromFloat(st[0]), Rate: decimal.NewFromFloat(st[1])})
	}
	return s
}

// defaultStateSchedules is the simplified 2024 table. States without a wage income tax map to zero.
func defaultStateSchedules() map[domain.State]RateSchedule {
	return map[domain.State]RateSchedule{
		// No income tax
		"AK": flat(0), "FL": flat(0), "NV": flat(0), "NH": flat(0), "SD": flat(0),
		"TN": flat(0), "TX": flat(0), "WA": flat(0), "WY": flat(0),

		"CA": stepped(0.123,
			[2]float64{10756, 0.01},
			[2]float64{25499, 0.02},
			[2]float64{40245, 0.04},
			[2]float64{55866, 0.06},
			[2]float64{70606, 0.08},
			[2]float64{360659, 0.093},
			[2]float64{432787, 0.103},
			[2]float64{721314, 0.113},
		),
		"NY": stepped(0.109,
			[2]float64{8500, 0.04},
			[2]float64{11700, 0.045},
			[2]float64{13900, 0.0525},
			[2]float64{80650, 0.055},
			[2]float64{215400, 0.06},
			[2]float64{1077550, 0.0685},
			[2]float64{5000000, 0.0965},
			[2]float64{25000000, 0.103},
		),

		"AL": flat(0.05), "AZ": flat(0.025), "AR": flat(0.044), "CO": flat(0.044),
		"CT": flat(0.05), "DE": flat(0.055), "DC": flat(0.085), "GA": flat(0.0549),
		"HI": flat(0.0725), "ID": flat(0.058), "IL": flat(0.0495), "IN": flat(0.0305),
		"IA": flat(0.057), "KS": flat(0.057), "KY": flat(0.04), "LA": flat(0.0425),
		"ME": flat(0.0715), "MD": flat(0.0475), "MA": flat(0.05), "MI": flat(0.0425),
		"MN": flat(0.0785), "MS": flat(0.047), "MO": flat(0.048), "MT": flat(0.059),
		"NE": flat(0.0584), "NJ": flat(0.0637), "NM": flat(0.049), "NC": flat(0.045),
		"ND": flat(0.025), "OH": flat(0.035), "OK": flat(0.0475), "OR": flat(0.0875),
		"PA": flat(0.0307), "RI": flat(0.0599), "SC": flat(0.064), "UT": flat(0.0465),
		"VT": flat(0.066), "VA": flat(0.0575), "WV": flat(0.0512), "WI": flat(0.0627),
	}
}

// StateTaxCalculator handles state income tax via a per-state rate schedule table
type StateTaxCalculator struct {
	Schedules map[domain.State]RateSchedule
}

// NewStateTaxCalculator2024 creates a state tax calculator with the built-in table
func NewStateTaxCalculator2024() *StateTaxCalculator {
	return &StateTaxCalculator{Schedules: defaultStateSchedules()}
}

// NewStateTaxCalculatorWithRules overlays configured state rules on the built-in table.
// Keys that do not parse as a state are returned so the caller can report them.
func NewStateTaxCalculatorWithRules(rules map[string]domain.StateTaxRules) (*StateTaxCalculator, []string) {
	calc := NewStateTaxCalculator2024()
	var unknown []string
	for key, r := range rules {
		state, ok := domain.ParseState(key)
		if !ok {
			unknown = append(unknown, key)
			continue
		}
		if len(r.Steps) > 0 {
			s := SteppedRate{TopRate: r.TopRate}
			for _, st := range r.Steps {
				s.Steps = append(s.Steps, RateStep{UpTo: st.UpTo, Rate: st.Rate})
			}
			sort.SliceStable(s.Steps, func(i, j int) bool { return s.Steps[i].UpTo.LessThan(s.Steps[j].UpTo) })
			calc.Schedules[state] = s
			continue
		}
		if r.Rate != nil {
			calc.Schedules[state] = FlatRate{Rate: *r.Rate}
		}
	}
	sort.Strings(unknown)
	return calc, unknown
}

// Schedule returns the rate schedule for state, given as a postal code or full name
func (stc *StateTaxCalculator) Schedule(state domain.State) (RateSchedule, bool) {
	s, ok := stc.Schedules[state.Canonical()]
	return s, ok
}

// CalculateTax applies the state's schedule to taxable income, rounded to whole dollars.
// Unknown states and non-positive income yield zero.
func (stc *StateTaxCalculator) CalculateTax(taxableIncome decimal.Decimal, state domain.State) decimal.Decimal {
	if !taxableIncome.IsPositive() {
		return decimal.Zero
	}
	schedule, ok := stc.Schedule(state)
	if !ok {
		return decimal.Zero
	}
	return taxableIncome.Mul(schedule.RateFor(taxableIncome)).Round(0)
}
