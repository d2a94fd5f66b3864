package breakeven

import (
	"github.com/rgehrsitz/nursetax/internal/domain"
	"github.com/shopspring/decimal"
)

// SolveTarget defines which quantity the solver holds fixed
type SolveTarget string

const (
	// TargetTakeHome finds the smallest gross income whose take-home reaches the amount
	TargetTakeHome SolveTarget = "take_home"
	// TargetQuarterly finds the largest gross income whose quarterly payment stays within the amount
	TargetQuarterly SolveTarget = "quarterly"
)

// Constraints define the gross income search range
type Constraints struct {
	MinGross *decimal.Decimal `json:"min_gross,omitempty"`
	MaxGross *decimal.Decimal `json:"max_gross,omitempty"`
}

// DefaultConstraints returns sensible default constraints
func DefaultConstraints() Constraints {
	minGross := decimal.Zero
	maxGross := decimal.NewFromInt(10000000)
	return Constraints{MinGross: &minGross, MaxGross: &maxGross}
}

// SolveRequest defines the parameters for a solver run
type SolveRequest struct {
	Target       SolveTarget
	Amount       decimal.Decimal // Take-home goal or quarterly cap
	Deductions   decimal.Decimal
	State        domain.State
	SelfEmployed bool
	TaxYear      int

	Constraints   Constraints
	MaxIterations int             // Maximum solver iterations
	Tolerance     decimal.Decimal // Width of the final gross income bracket
}

// SolveResult contains the gross income found and the tax picture at that income
type SolveResult struct {
	Request         SolveRequest `json:"-"`
	Success         bool         `json:"success"`
	Iterations      int          `json:"iterations"`
	ConvergenceInfo string       `json:"convergence_info"`

	GrossIncome      decimal.Decimal             `json:"gross_income"`
	TakeHome         decimal.Decimal             `json:"take_home"`
	QuarterlyPayment decimal.Decimal             `json:"quarterly_payment"`
	Result           domain.TaxCalculationResult `json:"result"`
}

// StateSolveResult contains one solve per state for the same goal
type StateSolveResult struct {
	Target          SolveTarget     `json:"target"`
	Amount          decimal.Decimal `json:"amount"`
	Results         []SolveResult   `json:"results"`
	Cheapest        *SolveResult    `json:"cheapest,omitempty"`
	Recommendations []string        `json:"recommendations"`
}

// SolverOptions configures the solver algorithm
type SolverOptions struct {
	Tolerance     decimal.Decimal // Convergence tolerance
	MaxIterations int             // Maximum iterations
}

// DefaultSolverOptions returns default solver configuration
func DefaultSolverOptions() SolverOptions {
	return SolverOptions{
		Tolerance:     decimal.NewFromInt(1), // $1 tolerance
		MaxIterations: 100,
	}
}

// Validate checks if the request is internally consistent
func (r *SolveRequest) Validate() error {
	if r.Amount.IsNegative() {
		return &BreakEvenError{
			Operation: "validate_request",
			Message:   "amount cannot be negative",
		}
	}
	if r.Deductions.IsNegative() {
		return &BreakEvenError{
			Operation: "validate_request",
			Message:   "deductions cannot be negative",
		}
	}
	if !r.State.IsKnown() {
		return &BreakEvenError{
			Operation: "validate_request",
			Message:   "unknown state " + string(r.State),
		}
	}
	return r.Constraints.Validate()
}

// Validate checks if constraints are internally consistent
func (c *Constraints) Validate() error {
	if c.MinGross != nil && c.MinGross.IsNegative() {
		return &BreakEvenError{
			Operation: "validate_constraints",
			Message:   "min_gross cannot be negative",
		}
	}
	if c.MinGross != nil && c.MaxGross != nil && c.MinGross.GreaterThan(*c.MaxGross) {
		return &BreakEvenError{
			Operation: "validate_constraints",
			Message:   "min_gross cannot be greater than max_gross",
		}
	}
	return nil
}

// BreakEvenError represents errors from the gross-up solver
type BreakEvenError struct {
	Operation string
	Message   string
	Cause     error
}

func (e *BreakEvenError) Error() string {
	if e.Cause != nil {
		return e.Operation + ": " + e.Message + ": " + e.Cause.Error()
	}
	return e.Operation + ": " + e.Message
}

func (e *BreakEvenError) Unwrap() error {
	return e.Cause
}
