package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/GeorgeMwiki/BOSSNYUMBA101-sub016/cmd/reconciler/config"
	"github.com/GeorgeMwiki/BOSSNYUMBA101-sub016/internal/matcher"
	"github.com/GeorgeMwiki/BOSSNYUMBA101-sub016/internal/reconciler"
	"github.com/GeorgeMwiki/BOSSNYUMBA101-sub016/internal/reporter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags for the reconcile command
var (
	paymentsFile    string
	invoicesFile    string
	paymentFormat   string
	outputFormat    string
	outputFile      string
	startDate       string
	endDate         string
	fuzzyThreshold  float64
	amountTolerance float64
	detectDups      bool

	phoneWeight     float64
	amountWeight    float64
	referenceWeight float64
	nameWeight      float64
)

// reconcileCmd represents the reconcile command
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Match payments against open invoices",
	Long: `Reconcile loads a payments file and an invoices file, scores every
payment against the open invoices, and reports matches, payments that
need manual review, and unmatched payments.

This command requires:
- A payments CSV file (standard export or M-Pesa statement)
- An invoices CSV file

Examples:
  # Basic reconciliation
  reconciler reconcile --payments-file payments.csv --invoices-file invoices.csv

  # M-Pesa statement input with JSON output
  reconciler reconcile -p statement.csv -i invoices.csv \
    --payment-format mpesa --output-format json --output-file report.json

  # Restrict to a date range and loosen the amount tolerance
  reconciler reconcile -p payments.csv -i invoices.csv \
    --start-date 2024-08-01 --end-date 2024-08-31 --amount-tolerance 2.5

  # Raise the bar for automatic matches
  reconciler reconcile -p payments.csv -i invoices.csv --threshold 0.85`,

	PreRunE: validateReconcileFlags,
	RunE:    runReconcile,
}

func init() {
	rootCmd.AddCommand(reconcileCmd)

	// Required flags
	reconcileCmd.Flags().StringVarP(&paymentsFile, "payments-file", "p", "", "path to payments CSV file (required)")
	reconcileCmd.Flags().StringVarP(&invoicesFile, "invoices-file", "i", "", "path to invoices CSV file (required)")

	// Input format flags
	reconcileCmd.Flags().StringVar(&paymentFormat, "payment-format", "standard", "payment file layout: standard, mpesa")

	// Output flags
	reconcileCmd.Flags().StringVarP(&outputFormat, "output-format", "f", "console", "output format: console, json, csv")
	reconcileCmd.Flags().StringVarP(&outputFile, "output-file", "o", "", "output file path (default: stdout)")

	// Date filtering flags
	reconcileCmd.Flags().StringVar(&startDate, "start-date", "", "filter start date (YYYY-MM-DD)")
	reconcileCmd.Flags().StringVar(&endDate, "end-date", "", "filter end date (YYYY-MM-DD)")

	// Matching configuration flags
	reconcileCmd.Flags().Float64VarP(&fuzzyThreshold, "threshold", "t", 0.70, "minimum confidence for an automatic match (0.0-1.0)")
	reconcileCmd.Flags().Float64VarP(&amountTolerance, "amount-tolerance", "a", 1.0, "amount tolerance percentage (0.0-100.0)")
	reconcileCmd.Flags().BoolVar(&detectDups, "detect-duplicates", true, "flag likely duplicate payments")

	// Field weight flags; must sum to 1.0
	reconcileCmd.Flags().Float64Var(&phoneWeight, "phone-weight", 0.35, "weight of the phone number comparator")
	reconcileCmd.Flags().Float64Var(&amountWeight, "amount-weight", 0.35, "weight of the amount comparator")
	reconcileCmd.Flags().Float64Var(&referenceWeight, "reference-weight", 0.20, "weight of the reference comparator")
	reconcileCmd.Flags().Float64Var(&nameWeight, "name-weight", 0.10, "weight of the payer name comparator")

	reconcileCmd.MarkFlagRequired("payments-file")
	reconcileCmd.MarkFlagRequired("invoices-file")

	// Bind flags to viper
	viper.BindPFlag("payments-file", reconcileCmd.Flags().Lookup("payments-file"))
	viper.BindPFlag("invoices-file", reconcileCmd.Flags().Lookup("invoices-file"))
	viper.BindPFlag("payment-format", reconcileCmd.Flags().Lookup("payment-format"))
	viper.BindPFlag("output-format", reconcileCmd.Flags().Lookup("output-format"))
	viper.BindPFlag("output-file", reconcileCmd.Flags().Lookup("output-file"))
	viper.BindPFlag("start-date", reconcileCmd.Flags().Lookup("start-date"))
	viper.BindPFlag("end-date", reconcileCmd.Flags().Lookup("end-date"))
	viper.BindPFlag("threshold", reconcileCmd.Flags().Lookup("threshold"))
	viper.BindPFlag("amount-tolerance", reconcileCmd.Flags().Lookup("amount-tolerance"))
	viper.BindPFlag("detect-duplicates", reconcileCmd.Flags().Lookup("detect-duplicates"))
	viper.BindPFlag("phone-weight", reconcileCmd.Flags().Lookup("phone-weight"))
	viper.BindPFlag("amount-weight", reconcileCmd.Flags().Lookup("amount-weight"))
	viper.BindPFlag("reference-weight", reconcileCmd.Flags().Lookup("reference-weight"))
	viper.BindPFlag("name-weight", reconcileCmd.Flags().Lookup("name-weight"))
}

func validateReconcileFlags(cmd *cobra.Command, args []string) error {
	// Get values from viper (allows override from config file)
	paymentsFile = viper.GetString("payments-file")
	invoicesFile = viper.GetString("invoices-file")
	paymentFormat = viper.GetString("payment-format")
	outputFormat = viper.GetString("output-format")
	outputFile = viper.GetString("output-file")
	startDate = viper.GetString("start-date")
	endDate = viper.GetString("end-date")
	fuzzyThreshold = viper.GetFloat64("threshold")
	amountTolerance = viper.GetFloat64("amount-tolerance")
	detectDups = viper.GetBool("detect-duplicates")
	phoneWeight = viper.GetFloat64("phone-weight")
	amountWeight = viper.GetFloat64("amount-weight")
	referenceWeight = viper.GetFloat64("reference-weight")
	nameWeight = viper.GetFloat64("name-weight")

	if paymentsFile == "" {
		return fmt.Errorf("payments-file is required")
	}
	if invoicesFile == "" {
		return fmt.Errorf("invoices-file is required")
	}

	if err := validateFileExists(paymentsFile, "payments file"); err != nil {
		return err
	}
	if err := validateFileExists(invoicesFile, "invoices file"); err != nil {
		return err
	}

	if _, err := config.CreatePaymentParserConfig(paymentFormat); err != nil {
		return err
	}

	validFormats := map[string]bool{"console": true, "json": true, "csv": true}
	if !validFormats[outputFormat] {
		return fmt.Errorf("invalid output format '%s'. Valid formats: console, json, csv", outputFormat)
	}

	if startDate != "" {
		if _, err := time.Parse("2006-01-02", startDate); err != nil {
			return fmt.Errorf("invalid start date format. Use YYYY-MM-DD: %w", err)
		}
	}
	if endDate != "" {
		if _, err := time.Parse("2006-01-02", endDate); err != nil {
			return fmt.Errorf("invalid end date format. Use YYYY-MM-DD: %w", err)
		}
	}
	if startDate != "" && endDate != "" {
		start, _ := time.Parse("2006-01-02", startDate)
		end, _ := time.Parse("2006-01-02", endDate)
		if start.After(end) {
			return fmt.Errorf("start date cannot be after end date")
		}
	}

	if fuzzyThreshold < 0.0 || fuzzyThreshold > 1.0 {
		return fmt.Errorf("threshold must be between 0.0 and 1.0")
	}
	if amountTolerance < 0.0 || amountTolerance > 100.0 {
		return fmt.Errorf("amount tolerance must be between 0.0 and 100.0")
	}
	if err := buildMatcherConfig().Validate(); err != nil {
		return err
	}

	if outputFile != "" {
		dir := filepath.Dir(outputFile)
		if dir != "." {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				return fmt.Errorf("output directory does not exist: %s", dir)
			}
		}
	}

	return nil
}

func validateFileExists(filePath, description string) error {
	if filePath == "" {
		return fmt.Errorf("%s path cannot be empty", description)
	}

	info, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return fmt.Errorf("%s does not exist: %s", description, filePath)
	}
	if err != nil {
		return fmt.Errorf("error accessing %s: %w", description, err)
	}

	if info.IsDir() {
		return fmt.Errorf("%s is a directory, expected a file: %s", description, filePath)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("%s is not readable: %w", description, err)
	}
	file.Close()

	return nil
}

// buildMatcherConfig assembles the matcher configuration from the flag values
func buildMatcherConfig() *matcher.MatcherConfig {
	return config.CreateMatcherConfig(fuzzyThreshold, amountTolerance, &matcher.FieldWeights{
		Phone:     phoneWeight,
		Amount:    amountWeight,
		Reference: referenceWeight,
		Name:      nameWeight,
	})
}

// parseDateRange converts the date flags to inclusive time bounds
func parseDateRange() (start, end *time.Time) {
	if startDate != "" {
		t, _ := time.Parse("2006-01-02", startDate)
		start = &t
	}
	if endDate != "" {
		t, _ := time.Parse("2006-01-02", endDate)
		// End date covers the whole day
		t = t.Add(23*time.Hour + 59*time.Minute + 59*time.Second)
		end = &t
	}
	return start, end
}

func runReconcile(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "Starting reconciliation...\n")
		fmt.Fprintf(os.Stderr, "Payments file: %s (%s)\n", paymentsFile, paymentFormat)
		fmt.Fprintf(os.Stderr, "Invoices file: %s\n", invoicesFile)
		fmt.Fprintf(os.Stderr, "Output format: %s\n", outputFormat)
		if outputFile != "" {
			fmt.Fprintf(os.Stderr, "Output file: %s\n", outputFile)
		}
	}

	paymentConfig, err := config.CreatePaymentParserConfig(paymentFormat)
	if err != nil {
		return err
	}

	startTime, endTime := parseDateRange()

	service, err := reconciler.NewReconciliationService(
		paymentConfig,
		config.CreateInvoiceParserConfig(),
		buildMatcherConfig(),
		config.CreateServiceConfig(startTime, endTime, detectDups),
	)
	if err != nil {
		return fmt.Errorf("failed to create reconciliation service: %w", err)
	}

	result, err := service.Run(ctx, &reconciler.Request{
		PaymentsFile: paymentsFile,
		InvoicesFile: invoicesFile,
	})
	if err != nil {
		return err
	}

	reportGenerator, err := reporter.NewReportGenerator(config.CreateReportConfig(outputFormat))
	if err != nil {
		return fmt.Errorf("failed to create report generator: %w", err)
	}

	output := os.Stdout
	if outputFile != "" {
		output, err = os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer output.Close()
	}

	if err := reportGenerator.GenerateReport(result, output); err != nil {
		return fmt.Errorf("failed to generate report: %w", err)
	}

	if viper.GetBool("verbose") {
		summary := result.Summary
		fmt.Fprintf(os.Stderr, "\nReconciliation completed successfully.\n")
		fmt.Fprintf(os.Stderr, "Processed %d payments.\n", summary.TotalPayments)
		fmt.Fprintf(os.Stderr, "Found %d matches, %d needing review, %d unmatched.\n",
			summary.MatchedPayments, summary.PartialMatches, summary.UnmatchedPayments)
		if len(result.Duplicates) > 0 {
			fmt.Fprintf(os.Stderr, "Flagged %d possible duplicate groups.\n", len(result.Duplicates))
		}
		fmt.Fprintf(os.Stderr, "Processing time: %v\n", result.Duration)
	}

	return nil
}
