package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rgehrsitz/nursetax/internal/domain"
	"github.com/rgehrsitz/nursetax/internal/output"
	"github.com/rgehrsitz/nursetax/internal/planner"
	"github.com/rgehrsitz/nursetax/internal/store"
	"github.com/spf13/cobra"
)

var paymentsCmd = &cobra.Command{
	Use:   "payments",
	Short: "Plan and track quarterly estimated payments",
}

var paymentsGenerateCmd = &cobra.Command{
	Use:   "generate [profile-file]",
	Short: "Create or refresh the four quarterly payments for a tax year",
	Long: `Create the four quarterly payments for a tax year, or refresh the estimates of
unpaid quarters after income changes. Paid quarters are never modified.

Examples:
  nursetax payments generate profile.yaml
  nursetax payments generate --gross 95000 --deductions 15000 --state TX --self-employed --year 2024
  nursetax payments generate profile.yaml --dry-run`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, engine, err := loadInput(cmd, args)
		if err != nil {
			return err
		}
		if profile.IsMultiState() {
			return fmt.Errorf("payments are planned for a single state of residence; remove allocations")
		}

		dryRun, _ := cmd.Flags().GetBool("dry-run")
		var p *planner.Planner
		if dryRun {
			p = planner.NewPlanner(engine, store.NewMemoryStore(), nil)
		} else {
			st, err := store.Open(settings.DatabasePath)
			if err != nil {
				return err
			}
			defer st.Close()
			p = planner.NewPlanner(engine, st, st.Reminders())
		}
		p.SetLogger(logger)

		now := time.Now()
		payments, err := p.GeneratePayments(cmd.Context(), planner.GenerateRequest{
			TaxYear:      profile.TaxYear,
			GrossIncome:  profile.GrossIncome,
			Deductions:   profile.Deductions,
			State:        profile.HomeState(),
			SelfEmployed: profile.SelfEmployed,
			Now:          now,
		})
		if err != nil {
			return err
		}

		summary := domain.NewPaymentSummary(profile.TaxYear, payments, now)
		return writePayments(cmd, &summary, now)
	},
}

var paymentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List payments for one tax year, or for every planned year",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, p, err := openPlanner()
		if err != nil {
			return err
		}
		defer st.Close()

		years := []int{}
		if cmd.Flags().Changed("year") {
			year, _ := cmd.Flags().GetInt("year")
			years = append(years, year)
		} else if years, err = st.TaxYears(cmd.Context()); err != nil {
			return err
		}
		if len(years) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No payments planned")
			return nil
		}

		now := time.Now()
		for _, year := range years {
			summary, err := p.PaymentSummary(cmd.Context(), year, now)
			if err != nil {
				return err
			}
			if err := writePayments(cmd, &summary, now); err != nil {
				return err
			}
		}
		return nil
	},
}

var paymentsSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show totals and progress for a tax year",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, p, err := openPlanner()
		if err != nil {
			return err
		}
		defer st.Close()

		year, _ := cmd.Flags().GetInt("year")
		now := time.Now()
		summary, err := p.PaymentSummary(cmd.Context(), year, now)
		if err != nil {
			return err
		}
		return writePayments(cmd, &summary, now)
	},
}

var paymentsPayCmd = &cobra.Command{
	Use:   "pay [payment-id]",
	Short: "Record a payment against a quarter",
	Long: `Record the amount paid for a quarter. Recording again replaces the earlier payment.

Examples:
  nursetax payments pay 1b4e28ba-2fa1-11d2-883f-0016d3cca427 --amount 5989.25
  nursetax payments pay 1b4e28ba-2fa1-11d2-883f-0016d3cca427 --amount 3000 --date 2024-04-12 --notes "IRS Direct Pay"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := decimalFlag(cmd, "amount")
		if err != nil {
			return err
		}
		if !cmd.Flags().Changed("amount") {
			return fmt.Errorf("--amount is required")
		}
		notes, _ := cmd.Flags().GetString("notes")

		paidAt := time.Now()
		if raw, _ := cmd.Flags().GetString("date"); raw != "" {
			if paidAt, err = time.ParseInLocation("2006-01-02", raw, time.Local); err != nil {
				return fmt.Errorf("invalid --date %q: expected YYYY-MM-DD", raw)
			}
		}

		st, p, err := openPlanner()
		if err != nil {
			return err
		}
		defer st.Close()

		qp, err := p.RecordPayment(cmd.Context(), args[0], amount, notes, paidAt)
		if err != nil {
			return err
		}

		msg := fmt.Sprintf("Recorded %s for %s", output.FormatCurrency(qp.PaidAmount), qp.Label())
		if qp.IsPartial() {
			msg += fmt.Sprintf(" (partial, %s estimated)", output.FormatCurrency(qp.EstimatedAmount))
		}
		fmt.Fprintln(cmd.OutOrStdout(), msg)
		return nil
	},
}

var paymentsDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete a payment or every payment of a tax year",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		id, _ := cmd.Flags().GetString("id")
		yearSet := cmd.Flags().Changed("year")
		if (id == "") == !yearSet {
			return fmt.Errorf("specify exactly one of --id or --year")
		}

		st, p, err := openPlanner()
		if err != nil {
			return err
		}
		defer st.Close()

		if id != "" {
			if err := p.DeletePayment(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted payment %s\n", id)
			return nil
		}

		year, _ := cmd.Flags().GetInt("year")
		n, err := p.DeletePayments(cmd.Context(), year)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d payment(s) for %d\n", n, year)
		return nil
	},
}

var remindersCmd = &cobra.Command{
	Use:   "reminders",
	Short: "Show scheduled payment reminders",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := store.Open(settings.DatabasePath)
		if err != nil {
			return err
		}
		defer st.Close()

		all, _ := cmd.Flags().GetBool("all")
		var reminders []domain.Reminder
		if all {
			reminders, err = st.Reminders().All(cmd.Context())
		} else {
			reminders, err = st.Reminders().Upcoming(cmd.Context(), time.Now())
		}
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if output.NormalizeFormatName(settings.Format) == "json" {
			data, err := json.MarshalIndent(reminders, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(data))
			return nil
		}

		if len(reminders) == 0 {
			fmt.Fprintln(out, "No upcoming reminders")
			return nil
		}
		rows := make([][]string, 0, len(reminders))
		for _, r := range reminders {
			rows = append(rows, []string{r.FireAt.Format("2006-01-02"), r.Title, r.Body})
		}
		fmt.Fprint(out, output.RenderTable(output.Table{
			Title:   "Reminders",
			Headers: []string{"When", "Title", "Message"},
			Rows:    rows,
		}))
		fmt.Fprintln(out)
		return nil
	},
}

// openPlanner opens the configured payment database with reminders persisted alongside.
// Callers close the returned store.
func openPlanner() (*store.SQLiteStore, *planner.Planner, error) {
	st, err := store.Open(settings.DatabasePath)
	if err != nil {
		return nil, nil, err
	}
	p := planner.NewPlanner(nil, st, st.Reminders())
	p.SetLogger(logger)
	return st, p, nil
}

// writePayments renders a payment summary in the configured format. Binary formats go to a file.
func writePayments(cmd *cobra.Command, summary *domain.PaymentSummary, now time.Time) error {
	f := output.GetPaymentFormatterByName(settings.Format)
	if f == nil {
		return fmt.Errorf("unknown format %q", settings.Format)
	}

	data, err := f.FormatPayments(summary, now)
	if err != nil {
		return err
	}

	if output.IsBinaryFormat(settings.Format) {
		dir, _ := cmd.Flags().GetString("output-dir")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output dir: %w", err)
		}
		filename := filepath.Join(dir, fmt.Sprintf("nursetax_payments_%d_%s.%s", summary.TaxYear, now.Format("20060102_150405"), f.Name()))
		if err := os.WriteFile(filename, data, 0o644); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Payments written to %s\n", filename)
		return nil
	}

	fmt.Fprint(cmd.OutOrStdout(), string(data))
	return nil
}

func defaultYear() int {
	return time.Now().Year()
}

func init() {
	addIncomeFlags(paymentsGenerateCmd)
	paymentsGenerateCmd.Flags().Bool("dry-run", false, "Show the plan without saving it")

	paymentsListCmd.Flags().Int("year", defaultYear(), "Tax year (default: every planned year)")
	paymentsSummaryCmd.Flags().Int("year", defaultYear(), "Tax year")

	paymentsPayCmd.Flags().String("amount", "", "Amount paid (required)")
	paymentsPayCmd.Flags().String("notes", "", "Free-form note such as a confirmation number")
	paymentsPayCmd.Flags().String("date", "", "Payment date as YYYY-MM-DD (default: today)")

	paymentsDeleteCmd.Flags().String("id", "", "Payment ID to delete")
	paymentsDeleteCmd.Flags().Int("year", defaultYear(), "Delete every payment of this tax year")

	remindersCmd.Flags().Bool("all", false, "Include reminders that already fired")

	paymentsCmd.AddCommand(paymentsGenerateCmd)
	paymentsCmd.AddCommand(paymentsListCmd)
	paymentsCmd.AddCommand(paymentsSummaryCmd)
	paymentsCmd.AddCommand(paymentsPayCmd)
	paymentsCmd.AddCommand(paymentsDeleteCmd)
}
