package calculation

import (
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/rgehrsitz/nursetax/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLogger records messages for assertions
type TestLogger struct {
	mu       sync.Mutex
	Messages []string
}

func (l *TestLogger) record(format string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Messages = append(l.Messages, format)
}

func (l *TestLogger) Debugf(format string, args ...any) { l.record(format) }
func (l *TestLogger) Infof(format string, args ...any)  { l.record(format) }
func (l *TestLogger) Warnf(format string, args ...any)  { l.record(format) }
func (l *TestLogger) Errorf(format string, args ...any) { l.record(format) }

func TestNewTaxEngine(t *testing.T) {
	engine := NewTaxEngine()

	assert.NotNil(t, engine, "Should create engine")
	assert.NotNil(t, engine.FederalTaxCalc, "Should initialize federal calculator")
	assert.NotNil(t, engine.SelfEmploymentTaxCalc, "Should initialize self-employment calculator")
	assert.NotNil(t, engine.StateTaxCalc, "Should initialize state calculator")
	assert.NotNil(t, engine.Logger, "Should initialize logger")
}

func TestTaxEngine_SetLogger(t *testing.T) {
	engine := NewTaxEngine()

	customLogger := &TestLogger{}
	engine.SetLogger(customLogger)
	assert.Equal(t, customLogger, engine.Logger, "Should set custom logger")

	engine.CalculateStateTax(d(1000), "ZZ")
	assert.NotEmpty(t, customLogger.Messages, "unknown state should be logged")

	engine.SetLogger(nil)
	assert.IsType(t, NopLogger{}, engine.Logger, "Should be no-op logger")
}

func TestTaxEngine_CalculateTotalTax_SelfEmployedTexas(t *testing.T) {
	engine := NewTaxEngine()

	result := engine.CalculateTotalTax(d(95000), d(15000), "TX", true)

	assertDecimalEqual(t, d(80000), result.TaxableIncome)
	assertDecimalEqual(t, d(12653), result.FederalTax)
	assertDecimalEqual(t, d(0), result.StateTax)
	assertDecimalEqual(t, d(11304), result.SelfEmploymentTax)
	assertDecimalEqual(t, d(23957), result.TotalTax)
	assertDecimalEqual(t, d(0.22), result.MarginalRate)
	assertDecimalEqual(t, d(71043), result.TakeHome())
	assert.InDelta(t, 23957.0/95000.0, result.EffectiveRate().InexactFloat64(), 1e-9)
	assert.True(t, result.IsSelfEmployed)
	assert.Equal(t, domain.State("TX"), result.State)
}

func TestTaxEngine_CalculateTotalTax_NotSelfEmployed(t *testing.T) {
	engine := NewTaxEngine()

	result := engine.CalculateTotalTax(d(95000), d(15000), "PA", false)

	assert.True(t, result.SelfEmploymentTax.IsZero())
	assertDecimalEqual(t, d(2456), result.StateTax) // 80000 * 3.07%
	assertDecimalEqual(t, d(12653+2456), result.TotalTax)
}

func TestTaxEngine_CalculateTotalTax_DegenerateInputs(t *testing.T) {
	engine := NewTaxEngine()

	tests := []struct {
		name       string
		gross      float64
		deductions float64
	}{
		{"zero income", 0, 0},
		{"deductions exceed income", 10000, 25000},
		{"negative income", -5000, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := engine.CalculateTotalTax(d(tt.gross), d(tt.deductions), "CA", true)
			assert.True(t, result.TaxableIncome.IsZero())
			assert.True(t, result.TotalTax.IsZero())
			assert.True(t, result.EffectiveRate().IsZero())
			assertDecimalEqual(t, d(0.10), result.MarginalRate)
		})
	}
}

func TestTaxEngine_TotalEqualsSumOfParts(t *testing.T) {
	engine := NewTaxEngine()
	rng := rand.New(rand.NewSource(7))
	states := domain.AllStates()

	for i := 0; i < 500; i++ {
		gross := d(float64(rng.Intn(600000)))
		deductions := d(float64(rng.Intn(40000)))
		state := states[rng.Intn(len(states))]
		se := rng.Intn(2) == 0

		r := engine.CalculateTotalTax(gross, deductions, state, se)
		require.True(t, r.TotalTax.Equal(r.FederalTax.Add(r.StateTax).Add(r.SelfEmploymentTax)))
		require.False(t, r.TotalTax.IsNegative())
	}
}

func TestTaxEngine_CalculateQuarterlyEstimate(t *testing.T) {
	engine := NewTaxEngine()

	est := engine.CalculateQuarterlyEstimate(d(95000), d(15000), "TX", true, 2024)

	assert.Equal(t, 2024, est.TaxYear)
	for q := 1; q <= 4; q++ {
		assertDecimalEqual(t, d(5989.25), est.Amount(q))
	}
	assert.Equal(t, time.Date(2024, time.April, 15, 0, 0, 0, 0, time.UTC), est.DueDate(1))
	assert.Equal(t, time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC), est.DueDate(2))
	assert.Equal(t, time.Date(2024, time.September, 15, 0, 0, 0, 0, time.UTC), est.DueDate(3))
	assert.Equal(t, time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC), est.DueDate(4))
	assert.True(t, est.Amount(0).IsZero())
	assert.True(t, est.DueDate(5).IsZero())
}

func TestQuarterlyEstimateFor_SumWithinThreeCents(t *testing.T) {
	for _, total := range []float64{0, 1, 3, 23957, 10001.01, 99999.99, 12345.67} {
		est := QuarterlyEstimateFor(d(total), 2025)
		diff := est.Sum().Sub(d(total)).Abs()
		assert.True(t, diff.LessThanOrEqual(d(0.03)), "total %.2f off by %s", total, diff)
	}
}

func TestTaxEngine_CalculateMultiStateTax(t *testing.T) {
	engine := NewTaxEngine()

	allocations := []domain.StateAllocation{
		{State: "CA", Income: d(45000)},
		{State: "TX", Income: d(35000)},
		{State: "FL", Income: d(15000)},
	}
	result := engine.CalculateMultiStateTax(allocations, d(10000))

	assertDecimalEqual(t, d(95000), result.TotalIncome)
	assertDecimalEqual(t, d(13753), result.FederalTax) // on 85000
	require.Len(t, result.StateTaxes, 3)
	assertDecimalEqual(t, d(2416), result.StateTaxes["CA"])
	assert.True(t, result.StateTaxes["TX"].IsZero())
	assert.True(t, result.StateTaxes["FL"].IsZero())
	assertDecimalEqual(t, d(2416), result.TotalStateTax)
	assertDecimalEqual(t, d(13753+2416), result.TotalTax)
	assert.True(t, result.SelfEmploymentTax.IsZero())

	ca := result.Breakdown()[0]
	assert.Equal(t, domain.State("CA"), ca.State)
	assert.InDelta(t, 4736.84, ca.DeductionShare.InexactFloat64(), 0.01)
	assert.InDelta(t, 40263.16, ca.TaxableIncome.InexactFloat64(), 0.01)
}

func TestTaxEngine_CalculateMultiStateTax_ZeroIncome(t *testing.T) {
	engine := NewTaxEngine()

	result := engine.CalculateMultiStateTax([]domain.StateAllocation{{State: "CA", Income: decimal.Zero}}, d(5000))
	assert.True(t, result.TotalIncome.IsZero())
	assert.True(t, result.FederalTax.IsZero())
	assert.True(t, result.TotalStateTax.IsZero())
	assert.True(t, result.TotalTax.IsZero())
	assert.True(t, result.Allocations[0].DeductionShare.IsZero())

	empty := engine.CalculateMultiStateTax(nil, d(5000))
	assert.Empty(t, empty.StateTaxes)
	assert.True(t, empty.TotalTax.IsZero())
}

func TestTaxEngine_CalculateMultiStateTax_MergesDuplicateStates(t *testing.T) {
	engine := NewTaxEngine()

	split := engine.CalculateMultiStateTax([]domain.StateAllocation{
		{State: "CA", Income: d(20000)},
		{State: "TX", Income: d(35000)},
		{State: "CA", Income: d(25000)},
	}, d(10000))
	merged := engine.CalculateMultiStateTax([]domain.StateAllocation{
		{State: "CA", Income: d(45000)},
		{State: "TX", Income: d(35000)},
	}, d(10000))

	assert.Len(t, split.StateTaxes, 2)
	assertDecimalEqual(t, merged.StateTaxes["CA"], split.StateTaxes["CA"])
	assertDecimalEqual(t, merged.TotalTax, split.TotalTax)
}

func TestTaxEngine_CalculateMultiStateTax_MergesStateNamesWithCodes(t *testing.T) {
	engine := NewTaxEngine()

	named := engine.CalculateMultiStateTax([]domain.StateAllocation{
		{State: "CA", Income: d(20000)},
		{State: "Texas", Income: d(35000)},
		{State: "california", Income: d(25000)},
		{State: "fl", Income: d(15000)},
	}, d(10000))

	assert.Len(t, named.StateTaxes, 3)
	assertDecimalEqual(t, d(13753), named.FederalTax)
	assertDecimalEqual(t, d(2416), named.StateTaxes["CA"])
	assert.Contains(t, named.StateTaxes, domain.State("TX"))
	assert.Contains(t, named.StateTaxes, domain.State("FL"))
}

func TestTaxEngine_CalculateTotalTax_StateName(t *testing.T) {
	engine := NewTaxEngine()

	byName := engine.CalculateTotalTax(d(95000), d(15000), "California", false)
	byCode := engine.CalculateTotalTax(d(95000), d(15000), "CA", false)

	assertDecimalEqual(t, d(7440), byName.StateTax)
	assertDecimalEqual(t, byCode.TotalTax, byName.TotalTax)
	assert.Equal(t, domain.State("CA"), byName.State)
	assertDecimalEqual(t, d(9300), engine.CalculateStateTax(d(100000), "ca"))
}

func TestTaxEngine_CalculateMultiStateTax_BreakdownSumsToTotal(t *testing.T) {
	engine := NewTaxEngine()
	rng := rand.New(rand.NewSource(99))
	states := domain.AllStates()

	for i := 0; i < 200; i++ {
		n := 1 + rng.Intn(5)
		allocs := make([]domain.StateAllocation, n)
		for j := range allocs {
			allocs[j] = domain.StateAllocation{State: states[rng.Intn(len(states))], Income: d(float64(1 + rng.Intn(200000)))}
		}
		result := engine.CalculateMultiStateTax(allocs, d(float64(rng.Intn(30000))))

		sum := decimal.Zero
		for _, tax := range result.StateTaxes {
			sum = sum.Add(tax)
		}
		require.True(t, sum.Equal(result.TotalStateTax))
		for _, a := range allocs {
			require.Contains(t, result.StateTaxes, a.State)
		}
	}
}

func TestTaxEngine_CalculateMultiStateTaxWithSE(t *testing.T) {
	engine := NewTaxEngine()

	result := engine.CalculateMultiStateTaxWithSE([]domain.StateAllocation{{State: "TX", Income: d(95000)}}, d(15000), true)
	assertDecimalEqual(t, d(11304), result.SelfEmploymentTax)
	assertDecimalEqual(t, d(12653+11304), result.TotalTax)
}

func TestNewTaxEngineWithRules(t *testing.T) {
	rules := domain.TaxRules{
		FederalTax: domain.FederalTaxRules{BracketsSingle: []domain.TaxBracket{
			{Threshold: d(10000), Rate: d(0.20)},
			{Threshold: d(0), Rate: d(0.10)},
		}},
		SelfEmployment: domain.SelfEmploymentRules{SocialSecurityWageBase: dp(100)},
	}
	engine := NewTaxEngineWithRules(rules)

	// 10000*10% + 10000*20%
	assertDecimalEqual(t, d(3000), engine.CalculateFederalTax(d(20000)))
	se := engine.SelfEmploymentTaxCalc
	assertDecimalEqual(t, d(100), se.SSWageBase)
	assertDecimalEqual(t, d(400), se.MinimumNetEarnings, "unset fields keep defaults")

	empty := NewTaxEngineWithRules(domain.TaxRules{})
	assertDecimalEqual(t, d(6053), empty.CalculateFederalTax(d(50000)))
}

func TestNewTaxEngineWithRules_ZeroOverrides(t *testing.T) {
	rules := domain.TaxRules{
		SelfEmployment: domain.SelfEmploymentRules{AdditionalMedicareRate: dp(0)},
	}
	se := NewTaxEngineWithRules(rules).SelfEmploymentTaxCalc
	assert.True(t, se.AdditionalRate.IsZero())

	// 300000 * 0.9235 is well over the 200000 threshold
	assert.True(t, se.Breakdown(d(300000)).AdditionalMedicare.IsZero())
	assert.True(t, NewTaxEngine().SelfEmploymentTaxCalc.Breakdown(d(300000)).AdditionalMedicare.IsPositive())
}

func TestTaxEngine_ConcurrentUse(t *testing.T) {
	engine := NewTaxEngine()
	expected := engine.CalculateTotalTax(d(120000), d(14600), "NY", true)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got := engine.CalculateTotalTax(d(120000), d(14600), "NY", true)
			assert.True(t, expected.TotalTax.Equal(got.TotalTax))
		}()
	}
	wg.Wait()
}
