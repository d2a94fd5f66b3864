package main

import (
	"fmt"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/rgehrsitz/nursetax/internal/calculation"
	"github.com/rgehrsitz/nursetax/internal/config"
	"github.com/rgehrsitz/nursetax/internal/domain"
	"github.com/rgehrsitz/nursetax/internal/output"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Resolved once per invocation by the root command
var (
	settings *config.Settings
	logger   = zap.NewNop().Sugar()
)

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "nursetax %s (commit %s, built %s)\n", version, commit, date)
			if info := buildInfo(); info != "" {
				fmt.Fprintln(cmd.OutOrStdout(), info)
			}
		},
	}
}

func buildInfo() string {
	if bi, ok := debug.ReadBuildInfo(); ok && bi != nil {
		return bi.String()
	}
	return ""
}

// fileExists checks if a file exists
func fileExists(filename string) bool {
	_, err := os.Stat(filename)
	return !os.IsNotExist(err)
}

var rootCmd = &cobra.Command{
	Use:          "nursetax",
	Short:        "Travel nurse tax estimator",
	Long:         "Estimates federal, state and self-employment tax for travel nurses and plans quarterly estimated payments",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := config.LoadSettings(cmd.Flags())
		if err != nil {
			return err
		}
		debugMode, _ := cmd.Flags().GetBool("debug")
		l, err := newLogger(s.LogLevel, debugMode)
		if err != nil {
			return err
		}
		settings, logger = s, l
		logger.Debugw("settings resolved", "database", s.DatabasePath, "format", s.Format)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

var calculateCmd = &cobra.Command{
	Use:   "calculate [profile-file]",
	Short: "Calculate annual tax liability and quarterly estimates",
	Long: `Calculate annual federal, state and self-employment tax.

Income comes from a YAML or TOML profile, or from flags when no file is given.
Profiles with allocations are calculated across states.

Examples:
  nursetax calculate profile.yaml
  nursetax calculate --gross 95000 --deductions 15000 --state TX --self-employed
  nursetax calculate profile.toml --format pdf --output-dir reports`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, engine, err := loadInput(cmd, args)
		if err != nil {
			return err
		}
		return writeReport(cmd, buildReport(engine, profile, true))
	},
}

var quarterlyCmd = &cobra.Command{
	Use:   "quarterly [profile-file]",
	Short: "Show the four quarterly estimated payments",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, engine, err := loadInput(cmd, args)
		if err != nil {
			return err
		}
		report := buildReport(engine, profile, true)
		est := report.Estimate

		switch output.NormalizeFormatName(settings.Format) {
		case "console":
			rows := make([][]string, 0, 6)
			for q := 1; q <= 4; q++ {
				rows = append(rows, []string{
					fmt.Sprintf("Q%d", q),
					est.DueDate(q).Format("January 2, 2006"),
					output.FormatCurrency(est.Amount(q)),
				})
			}
			rows = append(rows, output.SeparatorRow, []string{"Total", "", output.FormatCurrency(est.Sum())})
			fmt.Fprint(cmd.OutOrStdout(), output.RenderTable(output.Table{
				Title:   fmt.Sprintf("Quarterly Estimates %d", est.TaxYear),
				Headers: []string{"Quarter", "Due", "Amount"},
				Rows:    rows,
			}))
			fmt.Fprintln(cmd.OutOrStdout())
			return nil
		default:
			return writeReport(cmd, report)
		}
	},
}

var multistateCmd = &cobra.Command{
	Use:   "multistate [profile-file]",
	Short: "Apportion a year's income across the states it was earned in",
	Long: `Apportion deductions across states by income share and tax each state's slice.

Examples:
  nursetax multistate profile.yaml
  nursetax multistate --alloc CA=45000 --alloc TX=35000 --alloc FL=15000 --deductions 10000`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, engine, err := loadInput(cmd, args)
		if err != nil {
			return err
		}
		if !profile.IsMultiState() {
			return fmt.Errorf("no state allocations given; use --alloc STATE=AMOUNT or a profile with allocations")
		}
		return writeReport(cmd, buildReport(engine, profile, false))
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate [profile-file]",
	Short: "Validate a profile file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		inputFile := args[0]

		parser := config.NewInputParser()
		profile, err := parser.LoadFromFile(inputFile)
		if err != nil {
			return err
		}
		if profile.RulesFile != "" {
			if _, err := parser.LoadRules(profile.RulesFile); err != nil {
				return err
			}
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Profile %s is valid\n", inputFile)
		return nil
	},
}

// addIncomeFlags registers the flags that stand in for a profile file
func addIncomeFlags(cmd *cobra.Command) {
	cmd.Flags().String("gross", "", "Annual gross income")
	cmd.Flags().String("deductions", "0", "Annual deductions")
	cmd.Flags().String("state", "", "State of residence (code or name)")
	cmd.Flags().Bool("self-employed", false, "Include self-employment tax")
	cmd.Flags().Int("year", defaultYear(), "Tax year")
	cmd.Flags().String("name", "", "Taxpayer name shown on reports")
	cmd.Flags().String("rules", "", "Tax rules YAML file overriding the built-in tables")
	cmd.Flags().StringArray("alloc", nil, "Income earned in a state as STATE=AMOUNT (repeatable)")
}

// loadInput reads the profile from a file or from flags and builds the tax engine for it
func loadInput(cmd *cobra.Command, args []string) (*domain.Profile, *calculation.TaxEngine, error) {
	parser := config.NewInputParser()

	var profile *domain.Profile
	var err error
	if len(args) == 1 {
		profile, err = parser.LoadFromFile(args[0])
		if err != nil {
			return nil, nil, err
		}
	} else {
		profile, err = profileFromFlags(cmd)
		if err != nil {
			return nil, nil, err
		}
		if err := parser.ValidateProfile(profile); err != nil {
			return nil, nil, fmt.Errorf("profile validation failed: %w", err)
		}
	}

	if rules, _ := cmd.Flags().GetString("rules"); rules != "" {
		profile.RulesFile = rules
	}

	engine := calculation.NewTaxEngine()
	if profile.RulesFile != "" {
		rules, err := parser.LoadRules(profile.RulesFile)
		if err != nil {
			return nil, nil, err
		}
		engine = calculation.NewTaxEngineWithRules(*rules)
		logger.Debugw("loaded tax rules", "file", profile.RulesFile, "year", rules.Metadata.DataYear)
	}
	engine.SetLogger(logger)

	return profile, engine, nil
}

func profileFromFlags(cmd *cobra.Command) (*domain.Profile, error) {
	flags := cmd.Flags()
	profile := &domain.Profile{}
	profile.Name, _ = flags.GetString("name")
	profile.TaxYear, _ = flags.GetInt("year")
	profile.State, _ = flags.GetString("state")
	profile.SelfEmployed, _ = flags.GetBool("self-employed")

	var err error
	if profile.Deductions, err = decimalFlag(cmd, "deductions"); err != nil {
		return nil, err
	}

	allocs, _ := flags.GetStringArray("alloc")
	for _, a := range allocs {
		state, amount, ok := strings.Cut(a, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --alloc %q: expected STATE=AMOUNT", a)
		}
		income, err := decimal.NewFromString(strings.TrimSpace(amount))
		if err != nil {
			return nil, fmt.Errorf("invalid --alloc %q: %w", a, err)
		}
		profile.Allocations = append(profile.Allocations, domain.AllocationInput{State: strings.TrimSpace(state), Income: income})
		profile.GrossIncome = profile.GrossIncome.Add(income)
	}

	if len(allocs) > 0 {
		if profile.State == "" {
			profile.State = profile.Allocations[0].State
		}
		return profile, nil
	}

	if profile.GrossIncome, err = decimalFlag(cmd, "gross"); err != nil {
		return nil, err
	}
	return profile, nil
}

// decimalFlag parses a money flag; an empty value is zero
func decimalFlag(cmd *cobra.Command, name string) (decimal.Decimal, error) {
	raw, _ := cmd.Flags().GetString(name)
	if strings.TrimSpace(raw) == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid --%s %q: %w", name, raw, err)
	}
	return d, nil
}

// buildReport runs the engine over a profile. Multi-state profiles use the apportioned
// calculation; withEstimate attaches the quarterly split of the total.
func buildReport(engine *calculation.TaxEngine, profile *domain.Profile, withEstimate bool) *domain.TaxReport {
	report := &domain.TaxReport{
		Name:        profile.Name,
		TaxYear:     profile.TaxYear,
		GeneratedAt: time.Now(),
	}

	if profile.IsMultiState() {
		ms := engine.CalculateMultiStateTaxWithSE(profile.StateAllocations(), profile.Deductions, profile.SelfEmployed)
		taxable := calculation.TaxableIncome(ms.TotalIncome, ms.TotalDeductions)
		report.MultiState = &ms
		report.Result = domain.TaxCalculationResult{
			GrossIncome:       ms.TotalIncome,
			Deductions:        ms.TotalDeductions,
			TaxableIncome:     taxable,
			FederalTax:        ms.FederalTax,
			StateTax:          ms.TotalStateTax,
			SelfEmploymentTax: ms.SelfEmploymentTax,
			TotalTax:          ms.TotalTax,
			MarginalRate:      engine.FederalMarginalRate(taxable),
			IsSelfEmployed:    profile.SelfEmployed,
		}
	} else {
		report.Result = engine.CalculateTotalTax(profile.GrossIncome, profile.Deductions, profile.HomeState(), profile.SelfEmployed)
	}

	if withEstimate {
		est := calculation.QuarterlyEstimateFor(report.Result.TotalTax, profile.TaxYear)
		report.Estimate = &est
	}

	logger.Debugw("report built", "year", report.TaxYear, "total_tax", report.Result.TotalTax.String())
	return report
}

// writeReport renders a report in the configured format. Binary formats go to a file.
func writeReport(cmd *cobra.Command, report *domain.TaxReport) error {
	f := output.GetFormatterByName(settings.Format)
	if f == nil {
		return fmt.Errorf("unknown format %q (available: %s)", settings.Format, strings.Join(output.AvailableFormatterNames(), ", "))
	}

	if output.IsBinaryFormat(settings.Format) {
		dir, _ := cmd.Flags().GetString("output-dir")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output dir: %w", err)
		}
		filename, err := output.WriteFormatted(f, report, dir, f.Name())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s\n", filename)
		return nil
	}

	data, err := f.Format(report)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), string(data))
	return nil
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Payment database path (default: $XDG_DATA_HOME/nursetax/payments.db)")
	rootCmd.PersistentFlags().StringP("format", "f", "console", "Output format ("+strings.Join(output.AvailableFormatterNames(), ", ")+")")
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().String("output-dir", ".", "Directory for file formats such as pdf")

	for _, cmd := range []*cobra.Command{calculateCmd, quarterlyCmd, multistateCmd} {
		addIncomeFlags(cmd)
		rootCmd.AddCommand(cmd)
	}
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(solveCmd)
	rootCmd.AddCommand(paymentsCmd)
	rootCmd.AddCommand(remindersCmd)
	rootCmd.AddCommand(versionCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
