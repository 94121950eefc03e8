// Package config builds the runtime configurations for the CLI from flag
// values and named input-format profiles.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/GeorgeMwiki/BOSSNYUMBA101-sub016/internal/matcher"
	"github.com/GeorgeMwiki/BOSSNYUMBA101-sub016/internal/parsers"
	"github.com/GeorgeMwiki/BOSSNYUMBA101-sub016/internal/reconciler"
	"github.com/GeorgeMwiki/BOSSNYUMBA101-sub016/internal/reporter"
)

// PaymentProfile names a pre-configured payment file layout
type PaymentProfile struct {
	Name        string
	Description string
	Config      *parsers.PaymentParserConfig
}

// GetPaymentProfiles returns the payment file layouts the CLI knows about
func GetPaymentProfiles() []PaymentProfile {
	return []PaymentProfile{
		{
			Name:        "standard",
			Description: "Property-management export with camelCase headers",
			Config:      parsers.DefaultPaymentParserConfig(),
		},
		{
			Name:        "mpesa",
			Description: "M-Pesa organization statement export",
			Config:      parsers.MpesaStatementConfig(),
		},
	}
}

// CreatePaymentParserConfig resolves a payment format name to a parser
// configuration. An empty name selects the standard layout.
func CreatePaymentParserConfig(format string) (*parsers.PaymentParserConfig, error) {
	if format == "" {
		format = "standard"
	}

	for _, profile := range GetPaymentProfiles() {
		if strings.EqualFold(profile.Name, format) {
			return profile.Config, nil
		}
	}

	var names []string
	for _, profile := range GetPaymentProfiles() {
		names = append(names, profile.Name)
	}
	return nil, fmt.Errorf("unknown payment format '%s'. Valid formats: %s",
		format, strings.Join(names, ", "))
}

// CreateInvoiceParserConfig creates the invoice parser configuration
func CreateInvoiceParserConfig() *parsers.InvoiceParserConfig {
	return parsers.DefaultInvoiceParserConfig()
}

// CreateMatcherConfig creates a matcher configuration with the CLI
// overrides applied. Negative values and nil weights leave the
// corresponding default untouched.
func CreateMatcherConfig(threshold, amountTolerance float64, weights *matcher.FieldWeights) *matcher.MatcherConfig {
	config := matcher.DefaultMatcherConfig()

	if threshold >= 0 {
		config.FuzzyThreshold = threshold
	}
	if amountTolerance >= 0 {
		config.AmountTolerancePercent = amountTolerance
	}
	if weights != nil {
		config.Weights = *weights
	}

	return config
}

// CreateServiceConfig creates the reconciliation service configuration
func CreateServiceConfig(startDate, endDate *time.Time, detectDuplicates bool) *reconciler.Config {
	config := reconciler.DefaultConfig()

	config.StartDate = startDate
	config.EndDate = endDate
	config.DetectDuplicates = detectDuplicates

	return config
}

// CreateReportConfig creates a report configuration for the output format
func CreateReportConfig(format string) *reporter.ReportConfig {
	config := reporter.DefaultReportConfig()

	switch format {
	case "json":
		config.Format = reporter.FormatJSON
	case "csv":
		config.Format = reporter.FormatCSV
		config.CSVHeaders = true
		config.CSVDelimiter = ','
		// CSV is row-per-payment data; parse stats stay on stderr
		config.IncludeParseStats = false
	default:
		config.Format = reporter.FormatConsole
	}

	return config
}
