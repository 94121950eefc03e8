// Package reporter renders reconciliation results for people and machines.
//
// Three output formats are supported:
//   - Console: tabular text for terminal review
//   - JSON: the full result for programmatic consumption
//   - CSV: one row per payment for spreadsheet triage
package reporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/GeorgeMwiki/BOSSNYUMBA101-sub016/internal/matcher"
	"github.com/GeorgeMwiki/BOSSNYUMBA101-sub016/internal/reconciler"
)

// OutputFormat names a supported report encoding
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
	FormatCSV     OutputFormat = "csv"
)

// IsValid reports whether the format is supported
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatConsole, FormatJSON, FormatCSV:
		return true
	default:
		return false
	}
}

// ReportConfig holds report generation options
type ReportConfig struct {
	Format OutputFormat `json:"format"`

	// Section toggles
	IncludeMatches    bool `json:"include_matches"`
	IncludeUnmatched  bool `json:"include_unmatched"`
	IncludeDuplicates bool `json:"include_duplicates"`
	IncludeParseStats bool `json:"include_parse_stats"`

	// CSV options
	CSVDelimiter rune `json:"csv_delimiter"`
	CSVHeaders   bool `json:"csv_headers"`
}

// DefaultReportConfig returns a console report showing everything an
// operator needs to review
func DefaultReportConfig() *ReportConfig {
	return &ReportConfig{
		Format:            FormatConsole,
		IncludeMatches:    true,
		IncludeUnmatched:  true,
		IncludeDuplicates: true,
		IncludeParseStats: true,
		CSVDelimiter:      ',',
		CSVHeaders:        true,
	}
}

// Validate checks the report configuration
func (c *ReportConfig) Validate() error {
	if !c.Format.IsValid() {
		return fmt.Errorf("invalid output format: %s", c.Format)
	}
	return nil
}

// ReportGenerator renders reconciliation results in the configured format
type ReportGenerator struct {
	config *ReportConfig
}

// NewReportGenerator creates a generator; a nil config selects the defaults
func NewReportGenerator(config *ReportConfig) (*ReportGenerator, error) {
	if config == nil {
		config = DefaultReportConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid report configuration: %w", err)
	}

	return &ReportGenerator{config: config}, nil
}

// GenerateReport writes the result to the writer in the configured format
func (rg *ReportGenerator) GenerateReport(result *reconciler.Result, writer io.Writer) error {
	if result == nil {
		return fmt.Errorf("reconciliation result cannot be nil")
	}

	switch rg.config.Format {
	case FormatJSON:
		return rg.writeJSON(result, writer)
	case FormatCSV:
		return rg.writeCSV(result, writer)
	default:
		return rg.writeConsole(result, writer)
	}
}

func (rg *ReportGenerator) writeConsole(result *reconciler.Result, writer io.Writer) error {
	summary := result.Summary

	fmt.Fprintf(writer, "RECONCILIATION REPORT\n")
	fmt.Fprintf(writer, "Generated: %s\n", result.ProcessedAt.Format(time.RFC3339))
	fmt.Fprintf(writer, "Duration:  %v\n\n", result.Duration)

	fmt.Fprintf(writer, "=== SUMMARY ===\n")
	fmt.Fprintf(writer, "%-22s %d\n", "Total payments:", summary.TotalPayments)
	fmt.Fprintf(writer, "%-22s %d\n", "Matched:", summary.MatchedPayments)
	fmt.Fprintf(writer, "%-22s %d\n", "Needs review:", summary.PartialMatches)
	fmt.Fprintf(writer, "%-22s %d\n", "Unmatched:", summary.UnmatchedPayments)
	fmt.Fprintf(writer, "%-22s %s\n", "Amount received:", summary.TotalAmountReceived.StringFixed(2))
	fmt.Fprintf(writer, "%-22s %s\n\n", "Amount matched:", summary.TotalAmountMatched.StringFixed(2))

	if rg.config.IncludeMatches {
		rg.writeMatchSection(summary, writer)
	}

	if rg.config.IncludeUnmatched {
		rg.writeUnmatchedSection(summary, writer)
	}

	if rg.config.IncludeDuplicates && len(result.Duplicates) > 0 {
		fmt.Fprintf(writer, "=== POSSIBLE DUPLICATES ===\n")
		for _, group := range result.Duplicates {
			fmt.Fprintf(writer, "%s: %s\n", group.GroupID, group.Reason)
			for _, payment := range group.Payments {
				fmt.Fprintf(writer, "  %-12s %10s  %s  %s\n",
					payment.ID, payment.Amount.StringFixed(2), payment.PhoneNumber,
					payment.TransactionTime.Format("2006-01-02 15:04:05"))
			}
		}
		fmt.Fprintf(writer, "\n")
	}

	if rg.config.IncludeParseStats {
		if result.PaymentStats != nil {
			fmt.Fprintf(writer, "Payments file: %s\n", result.PaymentStats)
		}
		if result.InvoiceStats != nil {
			fmt.Fprintf(writer, "Invoices file: %s\n", result.InvoiceStats)
		}
	}

	return nil
}

func (rg *ReportGenerator) writeMatchSection(summary *matcher.ReconciliationSummary, writer io.Writer) {
	var matched []*matcher.MatchResult
	for _, match := range summary.Results {
		if match.MatchType == matcher.MatchExact || match.MatchType == matcher.MatchFuzzy ||
			match.MatchType == matcher.MatchPartial {
			matched = append(matched, match)
		}
	}
	if len(matched) == 0 {
		return
	}

	fmt.Fprintf(writer, "=== MATCHES ===\n")
	fmt.Fprintf(writer, "%-12s %-14s %10s  %-8s %5s  %s\n",
		"PAYMENT", "INVOICE", "AMOUNT", "TYPE", "CONF", "REASONS")
	for _, match := range matched {
		invoiceID := ""
		if match.Invoice != nil {
			invoiceID = match.Invoice.ID
		}
		fmt.Fprintf(writer, "%-12s %-14s %10s  %-8s %4.0f%%  %s\n",
			match.Payment.ID, invoiceID, match.Payment.Amount.StringFixed(2),
			match.MatchType, match.Confidence*100, strings.Join(match.Reasons, ", "))
	}
	fmt.Fprintf(writer, "\n")
}

func (rg *ReportGenerator) writeUnmatchedSection(summary *matcher.ReconciliationSummary, writer io.Writer) {
	var unmatched []*matcher.MatchResult
	for _, match := range summary.Results {
		if match.MatchType == matcher.MatchNone {
			unmatched = append(unmatched, match)
		}
	}
	if len(unmatched) == 0 {
		return
	}

	fmt.Fprintf(writer, "=== UNMATCHED PAYMENTS ===\n")
	for _, match := range unmatched {
		fmt.Fprintf(writer, "%-12s %10s  %-14s %s\n",
			match.Payment.ID, match.Payment.Amount.StringFixed(2),
			match.Payment.PhoneNumber, match.Payment.Reference)
	}
	fmt.Fprintf(writer, "\n")
}

func (rg *ReportGenerator) writeJSON(result *reconciler.Result, writer io.Writer) error {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

func (rg *ReportGenerator) writeCSV(result *reconciler.Result, writer io.Writer) error {
	csvWriter := csv.NewWriter(writer)
	csvWriter.Comma = rg.config.CSVDelimiter
	defer csvWriter.Flush()

	if rg.config.CSVHeaders {
		headers := []string{
			"payment_id", "amount", "phone", "reference",
			"invoice_id", "match_type", "confidence", "status", "reasons",
		}
		if err := csvWriter.Write(headers); err != nil {
			return fmt.Errorf("failed to write CSV headers: %w", err)
		}
	}

	for _, match := range result.Summary.Results {
		if match.MatchType == matcher.MatchNone && !rg.config.IncludeUnmatched {
			continue
		}
		if match.MatchType != matcher.MatchNone && !rg.config.IncludeMatches {
			continue
		}

		invoiceID := ""
		if match.Invoice != nil && match.MatchType != matcher.MatchNone {
			invoiceID = match.Invoice.ID
		}

		record := []string{
			match.Payment.ID,
			match.Payment.Amount.StringFixed(2),
			match.Payment.PhoneNumber,
			match.Payment.Reference,
			invoiceID,
			match.MatchType.String(),
			fmt.Sprintf("%.4f", match.Confidence),
			match.Payment.Status.String(),
			strings.Join(match.Reasons, "; "),
		}
		if err := csvWriter.Write(record); err != nil {
			return fmt.Errorf("failed to write payment record: %w", err)
		}
	}

	csvWriter.Flush()
	return csvWriter.Error()
}
