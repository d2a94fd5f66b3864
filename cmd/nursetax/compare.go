package main

import (
	"fmt"
	"strings"

	"github.com/rgehrsitz/nursetax/internal/compare"
	"github.com/rgehrsitz/nursetax/internal/output"
	"github.com/spf13/cobra"
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare the same income across states",
	Long: `Compare tax and take-home pay for the same income taxed in different states.

Useful when choosing between contracts in different states.

Examples:
  nursetax compare --gross 95000 --deductions 15000 --self-employed --base TX --with CA,FL,NY
  nursetax compare --gross 95000 --base California --with Texas --format csv
  nursetax compare --gross 95000 --base TX --with CA,WA --compact`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		gross, err := decimalFlag(cmd, "gross")
		if err != nil {
			return err
		}
		deductions, err := decimalFlag(cmd, "deductions")
		if err != nil {
			return err
		}
		baseState, _ := cmd.Flags().GetString("base")
		statesStr, _ := cmd.Flags().GetString("with")
		selfEmployed, _ := cmd.Flags().GetBool("self-employed")
		year, _ := cmd.Flags().GetInt("year")
		compact, _ := cmd.Flags().GetBool("compact")

		if baseState == "" || statesStr == "" {
			return fmt.Errorf("both --base and --with are required")
		}
		if gross.IsNegative() || deductions.IsNegative() {
			return fmt.Errorf("income and deductions cannot be negative")
		}

		var states []string
		for _, s := range strings.Split(statesStr, ",") {
			if s = strings.TrimSpace(s); s != "" {
				states = append(states, s)
			}
		}

		engine := compare.NewCompareEngine(nil)
		engine.TaxEngine.SetLogger(logger)
		compSet, err := engine.Compare(cmd.Context(), compare.CompareOptions{
			TaxYear:      year,
			GrossIncome:  gross,
			Deductions:   deductions,
			SelfEmployed: selfEmployed,
			BaseState:    baseState,
			States:       states,
		})
		if err != nil {
			return err
		}
		logger.Debugw("comparison complete", "base", compSet.BaseState, "alternatives", len(compSet.AlternativeResults))

		out := cmd.OutOrStdout()
		if compact {
			fmt.Fprintln(out, (&compare.TableFormatter{}).FormatCompact(compSet))
			return nil
		}

		switch output.NormalizeFormatName(settings.Format) {
		case "console":
			fmt.Fprint(out, (&compare.TableFormatter{}).Format(compSet))
		case "csv":
			data, err := (&compare.CSVFormatter{}).Format(compSet)
			if err != nil {
				return err
			}
			fmt.Fprint(out, data)
		case "json":
			data, err := (&compare.JSONFormatter{Pretty: true}).Format(compSet)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, data)
		default:
			return fmt.Errorf("compare supports console, csv and json output, not %q", settings.Format)
		}
		return nil
	},
}

func init() {
	compareCmd.Flags().String("gross", "", "Annual gross income (required)")
	compareCmd.Flags().String("deductions", "0", "Annual deductions")
	compareCmd.Flags().Bool("self-employed", false, "Include self-employment tax")
	compareCmd.Flags().Int("year", defaultYear(), "Tax year used for quarterly due dates")
	compareCmd.Flags().String("base", "", "Base state to compare against (required)")
	compareCmd.Flags().String("with", "", "Comma-separated list of states to compare (required)")
	compareCmd.Flags().Bool("compact", false, "Print a one-line summary")
}
