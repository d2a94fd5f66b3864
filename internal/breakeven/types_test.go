package breakeven

import (
	"errors"
	"strings"
	"testing"

	"github.com/rgehrsitz/nursetax/internal/domain"
	"github.com/shopspring/decimal"
)

func TestDefaultConstraints(t *testing.T) {
	c := DefaultConstraints()

	if c.MinGross == nil || !c.MinGross.IsZero() {
		t.Errorf("Expected MinGross 0, got %v", c.MinGross)
	}
	if c.MaxGross == nil || !c.MaxGross.Equal(decimal.NewFromInt(10000000)) {
		t.Errorf("Expected MaxGross 10000000, got %v", c.MaxGross)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("Default constraints should be valid: %v", err)
	}
}

func TestConstraints_Validate_NegativeMinimum(t *testing.T) {
	negative := decimal.NewFromInt(-5)
	c := Constraints{MinGross: &negative}

	err := c.Validate()
	if err == nil {
		t.Fatal("Expected error for negative minimum")
	}
	if _, ok := err.(*BreakEvenError); !ok {
		t.Errorf("Expected BreakEvenError, got %T", err)
	}
}

func TestBreakEvenError(t *testing.T) {
	cause := errors.New("boom")

	plain := &BreakEvenError{Operation: "solve", Message: "failed"}
	if plain.Error() != "solve: failed" {
		t.Errorf("Unexpected message %q", plain.Error())
	}

	wrapped := &BreakEvenError{Operation: "solve", Message: "failed", Cause: cause}
	if wrapped.Error() != "solve: failed: boom" {
		t.Errorf("Unexpected message %q", wrapped.Error())
	}
	if !errors.Is(wrapped, cause) {
		t.Error("Expected Unwrap to expose the cause")
	}
}

func TestTableFormatter_Format(t *testing.T) {
	solver := NewDefaultSolver(nil)
	result, err := solver.Solve(t.Context(), nurseRequest(TargetTakeHome, "71043"))
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}

	out := (&TableFormatter{}).Format(result)
	for _, want := range []string{
		"GROSS-UP SOLVER RESULTS",
		"take-home of at least $71043.00",
		"State:         Texas",
		"Converged",
		"Quarterly Payment:",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in output:\n%s", want, out)
		}
	}
}

func TestJSONFormatter_FormatStates(t *testing.T) {
	solver := NewDefaultSolver(nil)
	multi, err := solver.SolveStates(t.Context(), nurseRequest(TargetQuarterly, "5989.25"), nil)
	if err == nil {
		t.Fatalf("Expected error for empty state list, got %+v", multi)
	}

	multi, err = solver.SolveStates(t.Context(), nurseRequest(TargetQuarterly, "5989.25"), []domain.State{"TX"})
	if err != nil {
		t.Fatalf("SolveStates failed: %v", err)
	}
	out, err := (&JSONFormatter{}).FormatStates(multi)
	if err != nil {
		t.Fatalf("FormatStates failed: %v", err)
	}
	if !strings.Contains(out, `"target":"quarterly"`) {
		t.Errorf("Expected target in JSON: %s", out)
	}

	table := (&TableFormatter{}).FormatStates(multi)
	if !strings.Contains(table, "allows the most income") {
		t.Errorf("Expected quarterly recommendation:\n%s", table)
	}
}
