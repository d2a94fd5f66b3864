package breakeven

import (
	"context"
	"fmt"

	"github.com/rgehrsitz/nursetax/internal/calculation"
	"github.com/rgehrsitz/nursetax/internal/domain"
	"github.com/shopspring/decimal"
)

var two = decimal.NewFromInt(2)

// Solver searches for the gross income that meets a take-home or quarterly goal
type Solver struct {
	TaxEngine *calculation.TaxEngine
	Options   SolverOptions
}

// NewSolver creates a new gross-up solver
func NewSolver(taxEngine *calculation.TaxEngine, options SolverOptions) *Solver {
	return &Solver{
		TaxEngine: taxEngine,
		Options:   options,
	}
}

// NewDefaultSolver creates a solver with default options
func NewDefaultSolver(taxEngine *calculation.TaxEngine) *Solver {
	if taxEngine == nil {
		taxEngine = calculation.NewTaxEngine()
	}
	return NewSolver(taxEngine, DefaultSolverOptions())
}

// Solve performs the search described by the request
func (s *Solver) Solve(ctx context.Context, req SolveRequest) (*SolveResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// Apply defaults
	if req.MaxIterations == 0 {
		req.MaxIterations = s.Options.MaxIterations
	}
	if req.Tolerance.IsZero() {
		req.Tolerance = s.Options.Tolerance
	}
	defaults := DefaultConstraints()
	if req.Constraints.MinGross == nil {
		req.Constraints.MinGross = defaults.MinGross
	}
	if req.Constraints.MaxGross == nil {
		req.Constraints.MaxGross = defaults.MaxGross
	}

	switch req.Target {
	case TargetTakeHome:
		return s.solveTakeHome(ctx, req)
	case TargetQuarterly:
		return s.solveQuarterly(ctx, req)
	default:
		return nil, &BreakEvenError{
			Operation: "solve",
			Message:   fmt.Sprintf("unsupported solve target: %s", req.Target),
		}
	}
}

// solveTakeHome finds the smallest gross whose take-home reaches req.Amount.
// Take-home is non-decreasing in gross, so hi always satisfies the goal.
func (s *Solver) solveTakeHome(ctx context.Context, req SolveRequest) (*SolveResult, error) {
	meets := func(gross decimal.Decimal) bool {
		return s.evaluate(req, gross).TakeHome().GreaterThanOrEqual(req.Amount)
	}

	lo, hi := *req.Constraints.MinGross, *req.Constraints.MaxGross
	if meets(lo) {
		return s.finish(req, lo, 0, "Minimum gross already meets the target"), nil
	}
	if !meets(hi) {
		return nil, &BreakEvenError{
			Operation: "solve_take_home",
			Message: fmt.Sprintf("take-home of $%s is not reachable below gross $%s",
				req.Amount.StringFixed(2), hi.StringFixed(2)),
		}
	}

	found, iterations, err := s.bisect(ctx, req, lo, hi, meets, true)
	if err != nil {
		return nil, err
	}
	return s.finish(req, found, iterations, "Binary search converged"), nil
}

// solveQuarterly finds the largest gross whose quarterly payment stays within req.Amount.
func (s *Solver) solveQuarterly(ctx context.Context, req SolveRequest) (*SolveResult, error) {
	within := func(gross decimal.Decimal) bool {
		return s.quarterly(req, s.evaluate(req, gross)).LessThanOrEqual(req.Amount)
	}

	lo, hi := *req.Constraints.MinGross, *req.Constraints.MaxGross
	if !within(lo) {
		return nil, &BreakEvenError{
			Operation: "solve_quarterly",
			Message: fmt.Sprintf("quarterly payment at gross $%s already exceeds $%s",
				lo.StringFixed(2), req.Amount.StringFixed(2)),
		}
	}
	if within(hi) {
		return s.finish(req, hi, 0, "Maximum gross stays within the quarterly cap"), nil
	}

	// within is true at lo and false at hi; search for the last true.
	found, iterations, err := s.bisect(ctx, req, lo, hi, within, false)
	if err != nil {
		return nil, err
	}
	return s.finish(req, found, iterations, "Binary search converged"), nil
}

// bisect narrows [lo, hi] until it is no wider than the tolerance. When wantHi is
// true pred holds at hi and the returned bound is hi; otherwise pred holds at lo.
func (s *Solver) bisect(ctx context.Context, req SolveRequest, lo, hi decimal.Decimal,
	pred func(decimal.Decimal) bool, wantHi bool) (decimal.Decimal, int, error) {

	iterations := 0
	for hi.Sub(lo).GreaterThan(req.Tolerance) {
		if iterations >= req.MaxIterations {
			return decimal.Zero, iterations, &BreakEvenError{
				Operation: "bisect",
				Message:   fmt.Sprintf("search did not converge after %d iterations", req.MaxIterations),
			}
		}
		iterations++

		select {
		case <-ctx.Done():
			return decimal.Zero, iterations, ctx.Err()
		default:
		}

		mid := lo.Add(hi).Div(two).Round(2)
		if pred(mid) == wantHi {
			hi = mid
		} else {
			lo = mid
		}
	}

	if wantHi {
		return hi, iterations, nil
	}
	return lo, iterations, nil
}

func (s *Solver) evaluate(req SolveRequest, gross decimal.Decimal) domain.TaxCalculationResult {
	return s.TaxEngine.CalculateTotalTax(gross, req.Deductions, req.State, req.SelfEmployed)
}

func (s *Solver) quarterly(req SolveRequest, result domain.TaxCalculationResult) decimal.Decimal {
	return calculation.QuarterlyEstimateFor(result.TotalTax, req.TaxYear).Amount(1)
}

func (s *Solver) finish(req SolveRequest, gross decimal.Decimal, iterations int, info string) *SolveResult {
	result := s.evaluate(req, gross)
	return &SolveResult{
		Request:          req,
		Success:          true,
		Iterations:       iterations,
		ConvergenceInfo:  info,
		GrossIncome:      gross,
		TakeHome:         result.TakeHome(),
		QuarterlyPayment: s.quarterly(req, result),
		Result:           result,
	}
}
