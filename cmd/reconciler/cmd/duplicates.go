package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/GeorgeMwiki/BOSSNYUMBA101-sub016/cmd/reconciler/config"
	"github.com/GeorgeMwiki/BOSSNYUMBA101-sub016/internal/reconciler"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	dupPaymentsFile  string
	dupPaymentFormat string
	dupOutputFormat  string
)

// duplicatesCmd scans a payments file without touching invoices
var duplicatesCmd = &cobra.Command{
	Use:   "duplicates",
	Short: "Scan a payments file for likely duplicate submissions",
	Long: `Duplicates scans a payments file for groups of payments with the same
amount from the same phone number within a short window. No invoices
are needed; nothing is matched.

Examples:
  reconciler duplicates --payments-file payments.csv
  reconciler duplicates -p statement.csv --payment-format mpesa --output-format json`,

	PreRunE: validateDuplicatesFlags,
	RunE:    runDuplicates,
}

func init() {
	rootCmd.AddCommand(duplicatesCmd)

	duplicatesCmd.Flags().StringVarP(&dupPaymentsFile, "payments-file", "p", "", "path to payments CSV file (required)")
	duplicatesCmd.Flags().StringVar(&dupPaymentFormat, "payment-format", "standard", "payment file layout: standard, mpesa")
	duplicatesCmd.Flags().StringVarP(&dupOutputFormat, "output-format", "f", "console", "output format: console, json")

	duplicatesCmd.MarkFlagRequired("payments-file")
}

func validateDuplicatesFlags(cmd *cobra.Command, args []string) error {
	if dupPaymentsFile == "" {
		return fmt.Errorf("payments-file is required")
	}
	if err := validateFileExists(dupPaymentsFile, "payments file"); err != nil {
		return err
	}
	if _, err := config.CreatePaymentParserConfig(dupPaymentFormat); err != nil {
		return err
	}
	if dupOutputFormat != "console" && dupOutputFormat != "json" {
		return fmt.Errorf("invalid output format '%s'. Valid formats: console, json", dupOutputFormat)
	}
	return nil
}

func runDuplicates(cmd *cobra.Command, args []string) error {
	paymentConfig, err := config.CreatePaymentParserConfig(dupPaymentFormat)
	if err != nil {
		return err
	}

	service, err := reconciler.NewReconciliationService(paymentConfig, nil, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to create reconciliation service: %w", err)
	}

	groups, stats, err := service.FindDuplicates(context.Background(), dupPaymentsFile)
	if err != nil {
		return err
	}

	if dupOutputFormat == "json" {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(groups)
	}

	if len(groups) == 0 {
		fmt.Println("No duplicate payments found.")
	} else {
		fmt.Printf("Found %d possible duplicate group(s):\n\n", len(groups))
		for _, group := range groups {
			fmt.Printf("%s: %s\n", group.GroupID, group.Reason)
			for _, payment := range group.Payments {
				fmt.Printf("  %-12s %10s  %s  %s\n",
					payment.ID, payment.Amount.StringFixed(2), payment.PhoneNumber,
					payment.TransactionTime.Format("2006-01-02 15:04:05"))
			}
			fmt.Println()
		}
	}

	if viper.GetBool("verbose") && stats != nil {
		fmt.Fprintf(os.Stderr, "Payments file: %s\n", stats)
	}

	return nil
}
