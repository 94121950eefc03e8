package parsers

import (
	"context"
	"io"

	"github.com/GeorgeMwiki/BOSSNYUMBA101-sub016/internal/models"
	"github.com/GeorgeMwiki/BOSSNYUMBA101-sub016/pkg/errors"
	"github.com/GeorgeMwiki/BOSSNYUMBA101-sub016/pkg/logger"
)

// InvoiceParser reads invoice CSV exports from the billing system
type InvoiceParser struct {
	*BaseParser
	config *InvoiceParserConfig
	logger logger.Logger
}

// NewInvoiceParser creates an InvoiceParser; a nil config selects the
// standard export mapping
func NewInvoiceParser(config *InvoiceParserConfig) (*InvoiceParser, error) {
	if config == nil {
		config = DefaultInvoiceParserConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "invoice_parser_config", config, err)
	}

	base := NewBaseParser(&ParseConfig{
		HasHeader:        config.HasHeader,
		Delimiter:        config.Delimiter,
		SkipEmptyRows:    true,
		ValidateEncoding: true,
	})

	return &InvoiceParser{
		BaseParser: base,
		config:     config,
		logger:     logger.GetGlobalLogger().WithComponent("invoice_parser"),
	}, nil
}

// ParseInvoices parses an invoice CSV file
func (ip *InvoiceParser) ParseInvoices(filePath string) ([]*models.Invoice, *ParseStats, error) {
	return ip.ParseInvoicesWithContext(context.Background(), filePath)
}

// ParseInvoicesWithContext parses an invoice CSV file with cancellation
// support
func (ip *InvoiceParser) ParseInvoicesWithContext(ctx context.Context, filePath string) ([]*models.Invoice, *ParseStats, error) {
	ip.logger.WithField("file_path", filePath).Info("Parsing invoice file")

	file, reader, err := ip.OpenFile(filePath)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	parseCtx := NewParseContext(ctx)
	stats := NewParseStats()

	required := []string{
		ip.config.ColumnName("id"),
		ip.config.ColumnName("tenant_id"),
		ip.config.ColumnName("amount"),
		ip.config.ColumnName("balance"),
		ip.config.ColumnName("due_date"),
	}
	if err := ip.ReadHeaders(reader, parseCtx, filePath, required); err != nil {
		return nil, stats, err
	}

	var invoices []*models.Invoice

	for {
		record, err := ip.ReadRecord(reader, parseCtx)
		if err != nil {
			if err == io.EOF {
				break
			}
			if ctx.Err() != nil {
				ip.logger.Warn("Invoice parsing cancelled")
				return invoices, stats, errors.Wrap(ctx.Err(), errors.CategoryInternal,
					errors.CodeUnexpectedError, "invoice parsing cancelled")
			}

			stats.AddError(&ParseError{
				Line:    parseCtx.LineNumber,
				Message: "malformed CSV record",
				Err:     err,
			})
			continue
		}

		stats.RecordsParsed++

		invoice, parseErr := ip.invoiceFromRecord(record, parseCtx)
		if parseErr != nil {
			stats.AddError(parseErr)
			continue
		}

		invoices = append(invoices, invoice)
		stats.RecordsValid++
	}

	stats.TotalLines = parseCtx.LineNumber

	ip.logger.WithFields(logger.Fields{
		"file_path":     filePath,
		"records_valid": stats.RecordsValid,
		"error_count":   stats.ErrorCount,
	}).Info("Invoice parsing completed")

	if stats.HasErrors() {
		ip.logger.WithField("sample_errors", stats.SampleErrors(3)).Warn("Some invoice records were skipped")
	}

	return invoices, stats, nil
}

// invoiceFromRecord builds and validates one Invoice from a CSV record
func (ip *InvoiceParser) invoiceFromRecord(record []string, parseCtx *ParseContext) (*models.Invoice, *ParseError) {
	invoice, err := models.CreateInvoiceFromCSV(
		ip.FieldValue(record, parseCtx, ip.config.ColumnName("id")),
		ip.FieldValue(record, parseCtx, ip.config.ColumnName("tenant_id")),
		ip.FieldValue(record, parseCtx, ip.config.ColumnName("tenant_name")),
		ip.FieldValue(record, parseCtx, ip.config.ColumnName("tenant_phone")),
		ip.FieldValue(record, parseCtx, ip.config.ColumnName("unit_id")),
		ip.FieldValue(record, parseCtx, ip.config.ColumnName("unit_number")),
		ip.FieldValue(record, parseCtx, ip.config.ColumnName("property_id")),
		ip.FieldValue(record, parseCtx, ip.config.ColumnName("amount")),
		ip.FieldValue(record, parseCtx, ip.config.ColumnName("balance")),
		ip.FieldValue(record, parseCtx, ip.config.ColumnName("due_date")),
		ip.FieldValue(record, parseCtx, ip.config.ColumnName("status")),
	)
	if err != nil {
		ip.logger.WithError(err).WithField("line_number", parseCtx.LineNumber).Warn("Skipping invalid invoice record")

		return nil, &ParseError{
			Line:    parseCtx.LineNumber,
			Field:   "invoice",
			Message: "invalid invoice record",
			Err:     err,
		}
	}

	return invoice, nil
}
