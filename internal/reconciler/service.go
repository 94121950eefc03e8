// Package reconciler orchestrates the end-to-end reconciliation run:
// parsing the payment and invoice files, executing the matching engine,
// stamping payment statuses, and detecting duplicate submissions.
package reconciler

import (
	"context"
	"fmt"
	"time"

	"github.com/GeorgeMwiki/BOSSNYUMBA101-sub016/internal/matcher"
	"github.com/GeorgeMwiki/BOSSNYUMBA101-sub016/internal/models"
	"github.com/GeorgeMwiki/BOSSNYUMBA101-sub016/internal/parsers"
	"github.com/GeorgeMwiki/BOSSNYUMBA101-sub016/pkg/errors"
	"github.com/GeorgeMwiki/BOSSNYUMBA101-sub016/pkg/logger"
)

// ReconciliationService wires the parsers and the matching engine into one
// runnable pipeline
type ReconciliationService struct {
	paymentParser *parsers.PaymentParser
	invoiceParser *parsers.InvoiceParser
	engine        *matcher.MatchingEngine
	config        *Config
	logger        logger.Logger
}

// Config holds the service-level options
type Config struct {
	// Payments outside this transaction-time range are dropped before
	// matching; nil bounds disable the filter
	StartDate *time.Time
	EndDate   *time.Time

	// DetectDuplicates enables the duplicate payment scan
	DetectDuplicates bool
}

// DefaultConfig returns the service defaults: no date filtering, duplicate
// detection on
func DefaultConfig() *Config {
	return &Config{DetectDuplicates: true}
}

// Validate checks the service configuration
func (c *Config) Validate() error {
	if c.StartDate != nil && c.EndDate != nil && c.StartDate.After(*c.EndDate) {
		return fmt.Errorf("start date must not be after end date")
	}
	return nil
}

// Request names the input files for one run
type Request struct {
	PaymentsFile string
	InvoicesFile string
}

// Validate checks the request
func (r *Request) Validate() error {
	if r.PaymentsFile == "" {
		return fmt.Errorf("payments file path is required")
	}
	if r.InvoicesFile == "" {
		return fmt.Errorf("invoices file path is required")
	}
	return nil
}

// Result is the complete outcome of one reconciliation run
type Result struct {
	Summary    *matcher.ReconciliationSummary `json:"summary"`
	Duplicates []*matcher.DuplicateGroup      `json:"duplicates,omitempty"`

	PaymentStats *parsers.ParseStats `json:"-"`
	InvoiceStats *parsers.ParseStats `json:"-"`

	ProcessedAt time.Time     `json:"processed_at"`
	Duration    time.Duration `json:"duration"`
}

// NewReconciliationService creates the service with the given parser
// mappings, matcher configuration, and service options. Nil arguments
// select defaults throughout.
func NewReconciliationService(
	paymentConfig *parsers.PaymentParserConfig,
	invoiceConfig *parsers.InvoiceParserConfig,
	matcherConfig *matcher.MatcherConfig,
	config *Config,
) (*ReconciliationService, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "reconciler_config", config, err)
	}

	paymentParser, err := parsers.NewPaymentParser(paymentConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment parser: %w", err)
	}

	invoiceParser, err := parsers.NewInvoiceParser(invoiceConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create invoice parser: %w", err)
	}

	engine, err := matcher.NewMatchingEngine(matcherConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create matching engine: %w", err)
	}

	return &ReconciliationService{
		paymentParser: paymentParser,
		invoiceParser: invoiceParser,
		engine:        engine,
		config:        config,
		logger:        logger.GetGlobalLogger().WithComponent("reconciliation_service"),
	}, nil
}

// Run executes the full pipeline for one request
func (rs *ReconciliationService) Run(ctx context.Context, request *Request) (*Result, error) {
	if err := request.Validate(); err != nil {
		return nil, errors.ValidationError(errors.CodeMissingField, "request", request, err)
	}

	rs.logger.WithFields(logger.Fields{
		"payments_file": request.PaymentsFile,
		"invoices_file": request.InvoicesFile,
	}).Info("Starting reconciliation run")

	startTime := time.Now()

	payments, paymentStats, err := rs.paymentParser.ParsePaymentsWithContext(ctx, request.PaymentsFile)
	if err != nil {
		return nil, errors.WrapIfNeeded(err, errors.CategoryMatching, errors.CodeProcessingError,
			"failed to load payments")
	}

	invoices, invoiceStats, err := rs.invoiceParser.ParseInvoicesWithContext(ctx, request.InvoicesFile)
	if err != nil {
		return nil, errors.WrapIfNeeded(err, errors.CategoryMatching, errors.CodeProcessingError,
			"failed to load invoices")
	}

	payments = rs.filterByDateRange(payments)

	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, errors.CodeUnexpectedError,
			"reconciliation cancelled")
	}

	summary := rs.engine.Reconcile(payments, invoices)
	rs.stampPaymentStatuses(summary)

	result := &Result{
		Summary:      summary,
		PaymentStats: paymentStats,
		InvoiceStats: invoiceStats,
		ProcessedAt:  startTime,
	}

	if rs.config.DetectDuplicates {
		result.Duplicates = rs.engine.FindDuplicates(payments)
		if len(result.Duplicates) > 0 {
			rs.logger.WithField("duplicate_groups", len(result.Duplicates)).Warn("Possible duplicate payments detected")
		}
	}

	result.Duration = time.Since(startTime)

	rs.logger.WithFields(logger.Fields{
		"total_payments":  summary.TotalPayments,
		"matched":         summary.MatchedPayments,
		"partial":         summary.PartialMatches,
		"unmatched":       summary.UnmatchedPayments,
		"duration":        result.Duration.String(),
	}).Info("Reconciliation run completed")

	return result, nil
}

// FindDuplicates runs only the duplicate scan over a payments file
func (rs *ReconciliationService) FindDuplicates(ctx context.Context, paymentsFile string) ([]*matcher.DuplicateGroup, *parsers.ParseStats, error) {
	payments, stats, err := rs.paymentParser.ParsePaymentsWithContext(ctx, paymentsFile)
	if err != nil {
		return nil, stats, err
	}

	return rs.engine.FindDuplicates(payments), stats, nil
}

// filterByDateRange drops payments outside the configured window
func (rs *ReconciliationService) filterByDateRange(payments []*models.Payment) []*models.Payment {
	if rs.config.StartDate == nil && rs.config.EndDate == nil {
		return payments
	}

	filtered := make([]*models.Payment, 0, len(payments))
	for _, payment := range payments {
		if rs.config.StartDate != nil && payment.TransactionTime.Before(*rs.config.StartDate) {
			continue
		}
		if rs.config.EndDate != nil && payment.TransactionTime.After(*rs.config.EndDate) {
			continue
		}
		filtered = append(filtered, payment)
	}

	if dropped := len(payments) - len(filtered); dropped > 0 {
		rs.logger.WithField("dropped_payments", dropped).Info("Dropped payments outside the date range")
	}

	return filtered
}

// stampPaymentStatuses writes each payment's post-run status back onto the
// payment record
func (rs *ReconciliationService) stampPaymentStatuses(summary *matcher.ReconciliationSummary) {
	for _, result := range summary.Results {
		result.Payment.Status = result.MatchType.PaymentStatus()
	}
}

// GetMatcherConfig returns a copy of the engine configuration in use
func (rs *ReconciliationService) GetMatcherConfig() *matcher.MatcherConfig {
	return rs.engine.GetConfiguration()
}
