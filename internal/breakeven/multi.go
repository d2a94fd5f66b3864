package breakeven

import (
	"context"
	"fmt"

	"github.com/rgehrsitz/nursetax/internal/domain"
	"github.com/samber/lo"
)

// SolveStates runs the same goal in every state and ranks the required gross incomes.
// States where the goal cannot be met are left out.
func (s *Solver) SolveStates(ctx context.Context, req SolveRequest, states []domain.State) (*StateSolveResult, error) {
	var results []SolveResult

	for _, state := range lo.Uniq(states) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		stateReq := req
		stateReq.State = state
		result, err := s.Solve(ctx, stateReq)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}
		results = append(results, *result)
	}

	if len(results) == 0 {
		return nil, &BreakEvenError{
			Operation: "solve_states",
			Message:   "no state could meet the target",
		}
	}

	multi := &StateSolveResult{
		Target:  req.Target,
		Amount:  req.Amount,
		Results: results,
	}

	for i := range results {
		if multi.Cheapest == nil || s.better(req.Target, &results[i], multi.Cheapest) {
			multi.Cheapest = &results[i]
		}
	}

	multi.Recommendations = s.generateRecommendations(multi)

	return multi, nil
}

// better reports whether a beats b: less gross needed for take-home goals,
// more gross allowed for quarterly caps.
func (s *Solver) better(target SolveTarget, a, b *SolveResult) bool {
	if target == TargetQuarterly {
		return a.GrossIncome.GreaterThan(b.GrossIncome)
	}
	return a.GrossIncome.LessThan(b.GrossIncome)
}

func (s *Solver) generateRecommendations(result *StateSolveResult) []string {
	var recommendations []string

	best := result.Cheapest
	if best == nil {
		return recommendations
	}

	switch result.Target {
	case TargetQuarterly:
		recommendations = append(recommendations,
			fmt.Sprintf("%s allows the most income ($%s) within a $%s quarterly payment",
				best.Request.State.Name(), best.GrossIncome.StringFixed(0), result.Amount.StringFixed(2)))
	default:
		recommendations = append(recommendations,
			fmt.Sprintf("%s needs the least gross income ($%s) to take home $%s",
				best.Request.State.Name(), best.GrossIncome.StringFixed(0), result.Amount.StringFixed(0)))
	}

	for _, r := range result.Results {
		if r.Request.State == best.Request.State {
			continue
		}
		gap := r.GrossIncome.Sub(best.GrossIncome).Abs()
		if gap.GreaterThanOrEqual(DefaultSolverOptions().Tolerance.Mul(two)) {
			recommendations = append(recommendations,
				fmt.Sprintf("%s: $%s gross difference vs %s",
					r.Request.State, gap.StringFixed(0), best.Request.State))
		}
	}

	return recommendations
}
