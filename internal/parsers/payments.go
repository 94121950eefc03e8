package parsers

import (
	"context"
	"io"

	"github.com/GeorgeMwiki/BOSSNYUMBA101-sub016/internal/models"
	"github.com/GeorgeMwiki/BOSSNYUMBA101-sub016/pkg/errors"
	"github.com/GeorgeMwiki/BOSSNYUMBA101-sub016/pkg/logger"
)

// PaymentParser reads payment settlement CSV files
type PaymentParser struct {
	*BaseParser
	config *PaymentParserConfig
	logger logger.Logger
}

// NewPaymentParser creates a PaymentParser; a nil config selects the
// standard export mapping
func NewPaymentParser(config *PaymentParserConfig) (*PaymentParser, error) {
	if config == nil {
		config = DefaultPaymentParserConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "payment_parser_config", config, err)
	}

	base := NewBaseParser(&ParseConfig{
		HasHeader:        config.HasHeader,
		Delimiter:        config.Delimiter,
		SkipEmptyRows:    true,
		ValidateEncoding: true,
	})

	return &PaymentParser{
		BaseParser: base,
		config:     config,
		logger:     logger.GetGlobalLogger().WithComponent("payment_parser"),
	}, nil
}

// ParsePayments parses a payment CSV file
func (pp *PaymentParser) ParsePayments(filePath string) ([]*models.Payment, *ParseStats, error) {
	return pp.ParsePaymentsWithContext(context.Background(), filePath)
}

// ParsePaymentsWithContext parses a payment CSV file with cancellation
// support. Bad records are collected into the returned stats; the error is
// non-nil only for file-level failures.
func (pp *PaymentParser) ParsePaymentsWithContext(ctx context.Context, filePath string) ([]*models.Payment, *ParseStats, error) {
	pp.logger.WithField("file_path", filePath).Info("Parsing payment file")

	file, reader, err := pp.OpenFile(filePath)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	parseCtx := NewParseContext(ctx)
	stats := NewParseStats()

	required := []string{
		pp.config.ColumnName("id"),
		pp.config.ColumnName("amount"),
		pp.config.ColumnName("phone"),
		pp.config.ColumnName("time"),
	}
	if err := pp.ReadHeaders(reader, parseCtx, filePath, required); err != nil {
		return nil, stats, err
	}

	var payments []*models.Payment

	for {
		record, err := pp.ReadRecord(reader, parseCtx)
		if err != nil {
			if err == io.EOF {
				break
			}
			if ctx.Err() != nil {
				pp.logger.Warn("Payment parsing cancelled")
				return payments, stats, errors.Wrap(ctx.Err(), errors.CategoryInternal,
					errors.CodeUnexpectedError, "payment parsing cancelled")
			}

			stats.AddError(&ParseError{
				Line:    parseCtx.LineNumber,
				Message: "malformed CSV record",
				Err:     err,
			})
			continue
		}

		stats.RecordsParsed++

		payment, parseErr := pp.paymentFromRecord(record, parseCtx)
		if parseErr != nil {
			stats.AddError(parseErr)
			continue
		}

		payments = append(payments, payment)
		stats.RecordsValid++
	}

	stats.TotalLines = parseCtx.LineNumber

	pp.logger.WithFields(logger.Fields{
		"file_path":     filePath,
		"records_valid": stats.RecordsValid,
		"error_count":   stats.ErrorCount,
	}).Info("Payment parsing completed")

	if stats.HasErrors() {
		pp.logger.WithField("sample_errors", stats.SampleErrors(3)).Warn("Some payment records were skipped")
	}

	return payments, stats, nil
}

// paymentFromRecord builds and validates one Payment from a CSV record
func (pp *PaymentParser) paymentFromRecord(record []string, parseCtx *ParseContext) (*models.Payment, *ParseError) {
	payment, err := models.CreatePaymentFromCSV(
		pp.FieldValue(record, parseCtx, pp.config.ColumnName("id")),
		pp.FieldValue(record, parseCtx, pp.config.ColumnName("transaction_id")),
		pp.FieldValue(record, parseCtx, pp.config.ColumnName("amount")),
		pp.FieldValue(record, parseCtx, pp.config.ColumnName("phone")),
		pp.FieldValue(record, parseCtx, pp.config.ColumnName("reference")),
		pp.FieldValue(record, parseCtx, pp.config.ColumnName("payer_name")),
		pp.FieldValue(record, parseCtx, pp.config.ColumnName("time")),
		pp.FieldValue(record, parseCtx, pp.config.ColumnName("status")),
	)
	if err != nil {
		pp.logger.WithError(err).WithField("line_number", parseCtx.LineNumber).Warn("Skipping invalid payment record")

		return nil, &ParseError{
			Line:    parseCtx.LineNumber,
			Field:   "payment",
			Message: "invalid payment record",
			Err:     err,
		}
	}

	return payment, nil
}
