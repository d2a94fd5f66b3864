package breakeven

import (
	"context"
	"errors"
	"testing"

	"github.com/rgehrsitz/nursetax/internal/calculation"
	"github.com/rgehrsitz/nursetax/internal/domain"
	"github.com/shopspring/decimal"
)

func nurseRequest(target SolveTarget, amount string) SolveRequest {
	return SolveRequest{
		Target:       target,
		Amount:       decimal.RequireFromString(amount),
		Deductions:   decimal.NewFromInt(15000),
		State:        "TX",
		SelfEmployed: true,
		TaxYear:      2024,
	}
}

func TestNewSolver(t *testing.T) {
	taxEngine := calculation.NewTaxEngine()
	options := DefaultSolverOptions()

	solver := NewSolver(taxEngine, options)

	if solver == nil {
		t.Fatal("Expected solver to be created, got nil")
	}
	if solver.TaxEngine != taxEngine {
		t.Error("Expected TaxEngine to match input")
	}
	if solver.Options.MaxIterations != options.MaxIterations {
		t.Error("Expected Options to match input")
	}
}

func TestNewDefaultSolver(t *testing.T) {
	solver := NewDefaultSolver(nil)

	if solver.TaxEngine == nil {
		t.Fatal("Expected a default tax engine")
	}
	if !solver.Options.Tolerance.Equal(decimal.NewFromInt(1)) {
		t.Errorf("Expected default tolerance 1, got %s", solver.Options.Tolerance)
	}
}

func TestSolver_Solve_TakeHome(t *testing.T) {
	solver := NewDefaultSolver(nil)

	result, err := solver.Solve(context.Background(), nurseRequest(TargetTakeHome, "71043"))
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}

	if !result.Success {
		t.Error("Expected success")
	}
	if result.TakeHome.LessThan(decimal.NewFromInt(71043)) {
		t.Errorf("Take-home %s below target", result.TakeHome)
	}
	if result.GrossIncome.LessThanOrEqual(decimal.NewFromInt(94990)) ||
		result.GrossIncome.GreaterThanOrEqual(decimal.NewFromInt(95010)) {
		t.Errorf("Expected gross near 95000, got %s", result.GrossIncome)
	}
	if result.Iterations == 0 {
		t.Error("Expected the search to iterate")
	}
	if !result.TakeHome.Equal(result.GrossIncome.Sub(result.Result.TotalTax)) {
		t.Errorf("Take-home %s inconsistent with result", result.TakeHome)
	}
}

func TestSolver_Solve_Quarterly(t *testing.T) {
	solver := NewDefaultSolver(nil)

	result, err := solver.Solve(context.Background(), nurseRequest(TargetQuarterly, "5989.25"))
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}

	if result.QuarterlyPayment.GreaterThan(decimal.RequireFromString("5989.25")) {
		t.Errorf("Quarterly payment %s exceeds cap", result.QuarterlyPayment)
	}
	if result.GrossIncome.LessThan(decimal.NewFromInt(94999)) ||
		result.GrossIncome.GreaterThanOrEqual(decimal.NewFromInt(95010)) {
		t.Errorf("Expected gross near 95000, got %s", result.GrossIncome)
	}
}

func TestSolver_Solve_MinimumAlreadyMeetsTarget(t *testing.T) {
	solver := NewDefaultSolver(nil)

	result, err := solver.Solve(context.Background(), nurseRequest(TargetTakeHome, "0"))
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}
	if !result.GrossIncome.IsZero() || result.Iterations != 0 {
		t.Errorf("Expected zero gross without iterating, got %s after %d", result.GrossIncome, result.Iterations)
	}
}

func TestSolver_Solve_Errors(t *testing.T) {
	solver := NewDefaultSolver(nil)
	high := decimal.NewFromInt(95000)
	low := decimal.NewFromInt(1000)

	tests := []struct {
		name   string
		mutate func(*SolveRequest)
	}{
		{"unreachable take-home", func(r *SolveRequest) { r.Amount = decimal.NewFromInt(20000000) }},
		{"quarterly cap below minimum", func(r *SolveRequest) {
			r.Target = TargetQuarterly
			r.Amount = decimal.NewFromInt(100)
			r.Constraints.MinGross = &high
		}},
		{"negative amount", func(r *SolveRequest) { r.Amount = decimal.NewFromInt(-1) }},
		{"negative deductions", func(r *SolveRequest) { r.Deductions = decimal.NewFromInt(-1) }},
		{"unknown state", func(r *SolveRequest) { r.State = "ZZ" }},
		{"inverted range", func(r *SolveRequest) {
			r.Constraints.MinGross = &high
			r.Constraints.MaxGross = &low
		}},
		{"unsupported target", func(r *SolveRequest) { r.Target = "net_worth" }},
		{"max iterations", func(r *SolveRequest) { r.MaxIterations = 1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := nurseRequest(TargetTakeHome, "71043")
			tt.mutate(&req)

			result, err := solver.Solve(context.Background(), req)
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if result != nil {
				t.Error("Expected nil result on error")
			}
			var beErr *BreakEvenError
			if !errors.As(err, &beErr) {
				t.Errorf("Expected BreakEvenError, got %T", err)
			}
		})
	}
}

func TestSolver_Solve_ContextCancellation(t *testing.T) {
	solver := NewDefaultSolver(nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := solver.Solve(ctx, nurseRequest(TargetTakeHome, "71043"))
	if err != context.Canceled {
		t.Errorf("Expected context.Canceled error, got %v", err)
	}
}

func TestSolver_SolveStates(t *testing.T) {
	solver := NewDefaultSolver(nil)

	multi, err := solver.SolveStates(context.Background(),
		nurseRequest(TargetTakeHome, "71043"),
		[]domain.State{"TX", "CA", "TX"})
	if err != nil {
		t.Fatalf("SolveStates failed: %v", err)
	}

	if len(multi.Results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(multi.Results))
	}
	if multi.Cheapest == nil || multi.Cheapest.Request.State != "TX" {
		t.Fatalf("Expected TX to need the least gross, got %+v", multi.Cheapest)
	}
	if multi.Results[1].GrossIncome.LessThanOrEqual(multi.Results[0].GrossIncome) {
		t.Error("Expected California to need more gross income than Texas")
	}
	if len(multi.Recommendations) != 2 {
		t.Errorf("Expected 2 recommendations, got %v", multi.Recommendations)
	}
}

func TestSolver_SolveStates_NoneReachable(t *testing.T) {
	solver := NewDefaultSolver(nil)

	_, err := solver.SolveStates(context.Background(),
		nurseRequest(TargetTakeHome, "20000000"),
		[]domain.State{"TX", "FL"})

	var beErr *BreakEvenError
	if !errors.As(err, &beErr) {
		t.Errorf("Expected BreakEvenError, got %v", err)
	}
}
