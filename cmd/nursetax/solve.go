package main

import (
	"fmt"
	"strings"

	"github.com/rgehrsitz/nursetax/internal/breakeven"
	"github.com/rgehrsitz/nursetax/internal/calculation"
	"github.com/rgehrsitz/nursetax/internal/domain"
	"github.com/rgehrsitz/nursetax/internal/output"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Find the gross income needed for a take-home or quarterly goal",
	Long: `Search for the gross income that meets a goal.

--take-home finds the smallest gross income whose take-home pay reaches the amount.
--quarterly finds the largest gross income whose quarterly payment stays within the amount.

Examples:
  nursetax solve --take-home 70000 --state TX --deductions 15000 --self-employed
  nursetax solve --quarterly 5000 --state CA --self-employed
  nursetax solve --take-home 70000 --states TX,CA,NY --self-employed`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		takeHome, err := decimalFlag(cmd, "take-home")
		if err != nil {
			return err
		}
		quarterly, err := decimalFlag(cmd, "quarterly")
		if err != nil {
			return err
		}
		takeHomeSet := cmd.Flags().Changed("take-home")
		quarterlySet := cmd.Flags().Changed("quarterly")
		if takeHomeSet == quarterlySet {
			return fmt.Errorf("specify exactly one of --take-home or --quarterly")
		}

		deductions, err := decimalFlag(cmd, "deductions")
		if err != nil {
			return err
		}
		selfEmployed, _ := cmd.Flags().GetBool("self-employed")
		year, _ := cmd.Flags().GetInt("year")

		req := breakeven.SolveRequest{
			Target:       breakeven.TargetTakeHome,
			Amount:       takeHome,
			Deductions:   deductions,
			SelfEmployed: selfEmployed,
			TaxYear:      year,
		}
		if quarterlySet {
			req.Target = breakeven.TargetQuarterly
			req.Amount = quarterly
		}
		if req.Constraints, err = grossConstraints(cmd); err != nil {
			return err
		}

		engine := calculation.NewTaxEngine()
		engine.SetLogger(logger)
		solver := breakeven.NewDefaultSolver(engine)

		table := &breakeven.TableFormatter{}
		jsonFmt := &breakeven.JSONFormatter{Pretty: true}
		format := output.NormalizeFormatName(settings.Format)
		if format != "console" && format != "json" {
			return fmt.Errorf("solve supports console and json output, not %q", settings.Format)
		}

		statesStr, _ := cmd.Flags().GetString("states")
		if statesStr != "" {
			states, err := parseStates(statesStr)
			if err != nil {
				return err
			}
			multi, err := solver.SolveStates(cmd.Context(), req, states)
			if err != nil {
				return err
			}
			if format == "json" {
				data, err := jsonFmt.FormatStates(multi)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), data)
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), table.FormatStates(multi))
			return nil
		}

		stateStr, _ := cmd.Flags().GetString("state")
		state, ok := domain.ParseState(stateStr)
		if !ok {
			return fmt.Errorf("--state %q not recognized", stateStr)
		}
		req.State = state

		result, err := solver.Solve(cmd.Context(), req)
		if err != nil {
			return err
		}
		logger.Debugw("solve complete", "target", req.Target, "gross", result.GrossIncome.String(), "iterations", result.Iterations)

		if format == "json" {
			data, err := jsonFmt.Format(result)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), data)
			return nil
		}
		fmt.Fprint(cmd.OutOrStdout(), table.Format(result))
		return nil
	},
}

func grossConstraints(cmd *cobra.Command) (breakeven.Constraints, error) {
	c := breakeven.DefaultConstraints()
	for name, dst := range map[string]**decimal.Decimal{"min-gross": &c.MinGross, "max-gross": &c.MaxGross} {
		if !cmd.Flags().Changed(name) {
			continue
		}
		d, err := decimalFlag(cmd, name)
		if err != nil {
			return c, err
		}
		*dst = &d
	}
	return c, nil
}

func parseStates(list string) ([]domain.State, error) {
	var states []domain.State
	for _, s := range strings.Split(list, ",") {
		if s = strings.TrimSpace(s); s == "" {
			continue
		}
		state, ok := domain.ParseState(s)
		if !ok {
			return nil, fmt.Errorf("state %q not recognized", s)
		}
		states = append(states, state)
	}
	return states, nil
}

func init() {
	solveCmd.Flags().String("take-home", "", "Annual take-home pay to reach")
	solveCmd.Flags().String("quarterly", "", "Quarterly payment not to exceed")
	solveCmd.Flags().String("state", "", "State of residence (code or name)")
	solveCmd.Flags().String("states", "", "Comma-separated states to solve in, ranked by result")
	solveCmd.Flags().String("deductions", "0", "Annual deductions")
	solveCmd.Flags().Bool("self-employed", false, "Include self-employment tax")
	solveCmd.Flags().Int("year", defaultYear(), "Tax year")
	solveCmd.Flags().String("min-gross", "", "Lower bound of the search")
	solveCmd.Flags().String("max-gross", "", "Upper bound of the search")
}
