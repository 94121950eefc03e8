// Package parsers reads payment and invoice CSV exports into domain models.
//
// Settlement feeds and billing exports arrive with inconsistent headers,
// delimiters and value formats, so both parsers are driven by a column
// mapping configuration with per-feed presets. Records that fail to parse
// or validate are collected into ParseStats rather than aborting the run;
// a single bad row must never sink a whole settlement file.
package parsers

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/GeorgeMwiki/BOSSNYUMBA101-sub016/pkg/errors"
	"github.com/GeorgeMwiki/BOSSNYUMBA101-sub016/pkg/logger"
)

// ParseError describes a single bad record or field in an input file
type ParseError struct {
	Line    int
	Field   string
	Value   string
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse error at line %d (%s='%s'): %s: %v",
			e.Line, e.Field, e.Value, e.Message, e.Err)
	}
	return fmt.Sprintf("parse error at line %d (%s='%s'): %s",
		e.Line, e.Field, e.Value, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ParseConfig holds the CSV-level reader options shared by both parsers
type ParseConfig struct {
	HasHeader        bool
	Delimiter        rune
	SkipEmptyRows    bool
	ValidateEncoding bool
}

// DefaultParseConfig returns comma-delimited CSV with a header row
func DefaultParseConfig() *ParseConfig {
	return &ParseConfig{
		HasHeader:        true,
		Delimiter:        ',',
		SkipEmptyRows:    true,
		ValidateEncoding: true,
	}
}

// BaseParser provides the file handling and record reading shared by the
// payment and invoice parsers
type BaseParser struct {
	config *ParseConfig
	logger logger.Logger
}

// NewBaseParser creates a BaseParser; a nil config selects the defaults
func NewBaseParser(config *ParseConfig) *BaseParser {
	if config == nil {
		config = DefaultParseConfig()
	}

	return &BaseParser{
		config: config,
		logger: logger.GetGlobalLogger().WithComponent("parser"),
	}
}

// ParseContext holds per-file state during one parsing operation
type ParseContext struct {
	LineNumber int
	Headers    []string
	HeaderMap  map[string]int
	ctx        context.Context
}

// NewParseContext creates a parsing context; a nil ctx means no cancellation
func NewParseContext(ctx context.Context) *ParseContext {
	if ctx == nil {
		ctx = context.Background()
	}
	return &ParseContext{
		HeaderMap: make(map[string]int),
		ctx:       ctx,
	}
}

// IsCancelled reports whether the surrounding operation has been cancelled
func (pc *ParseContext) IsCancelled() bool {
	select {
	case <-pc.ctx.Done():
		return true
	default:
		return false
	}
}

// GetColumnIndex returns the index of a column by name, case-insensitively,
// or -1 when the column is absent
func (pc *ParseContext) GetColumnIndex(name string) int {
	if index, exists := pc.HeaderMap[name]; exists {
		return index
	}

	lowerName := strings.ToLower(name)
	for header, index := range pc.HeaderMap {
		if strings.ToLower(header) == lowerName {
			return index
		}
	}

	return -1
}

// OpenFile opens a CSV file and returns a configured reader
func (bp *BaseParser) OpenFile(filePath string) (*os.File, *csv.Reader, error) {
	file, err := os.Open(filePath)
	if err != nil {
		bp.logger.WithError(err).WithField("file_path", filePath).Error("Failed to open CSV file")

		if os.IsNotExist(err) {
			return nil, nil, errors.FileError(errors.CodeFileNotFound, filePath, err)
		}
		if os.IsPermission(err) {
			return nil, nil, errors.FileError(errors.CodeFilePermission, filePath, err)
		}
		return nil, nil, errors.FileError("", filePath, err)
	}

	if bp.config.ValidateEncoding {
		if err := bp.validateEncoding(file, filePath); err != nil {
			file.Close()
			return nil, nil, err
		}
		if _, err := file.Seek(0, 0); err != nil {
			file.Close()
			return nil, nil, errors.FileError("", filePath, err)
		}
	}

	reader := csv.NewReader(file)
	reader.Comma = bp.config.Delimiter
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	return file, reader, nil
}

// validateEncoding rejects files that are not valid UTF-8. Only a prefix of
// the file is checked; a corrupt export usually fails in the first lines.
func (bp *BaseParser) validateEncoding(file *os.File, filePath string) error {
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() && lineNum < 100 {
		lineNum++
		if !utf8.Valid(scanner.Bytes()) {
			return errors.ParseError(errors.CodeInvalidFormat, filePath, lineNum, "encoding", "",
				fmt.Errorf("invalid UTF-8 encoding")).
				WithSuggestion("save the file in UTF-8 encoding")
		}
	}

	if err := scanner.Err(); err != nil {
		return errors.FileError("", filePath, err)
	}
	return nil
}

// ReadHeaders reads the header row and checks the required columns are
// present. Without a header row the required names become the headers.
func (bp *BaseParser) ReadHeaders(reader *csv.Reader, parseCtx *ParseContext, filePath string, required []string) error {
	if !bp.config.HasHeader {
		parseCtx.Headers = append([]string(nil), required...)
		bp.buildHeaderMap(parseCtx)
		return nil
	}

	headers, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return errors.ParseError(errors.CodeInvalidFormat, filePath, 1, "headers", "",
				fmt.Errorf("file is empty")).
				WithSuggestion("check that the file contains a header row and data")
		}
		return errors.ParseError(errors.CodeInvalidFormat, filePath, 1, "headers", "", err)
	}

	parseCtx.LineNumber++
	parseCtx.Headers = make([]string, len(headers))
	for i, header := range headers {
		parseCtx.Headers[i] = strings.TrimSpace(header)
	}
	bp.buildHeaderMap(parseCtx)

	var missing []string
	for _, name := range required {
		if parseCtx.GetColumnIndex(name) == -1 {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		bp.logger.WithFields(logger.Fields{
			"missing_headers":   missing,
			"available_headers": parseCtx.Headers,
		}).Error("Required headers are missing")

		return errors.ParseError(errors.CodeMissingColumn, filePath, parseCtx.LineNumber,
			strings.Join(missing, ", "), "", nil)
	}

	return nil
}

func (bp *BaseParser) buildHeaderMap(parseCtx *ParseContext) {
	parseCtx.HeaderMap = make(map[string]int, len(parseCtx.Headers))
	for i, header := range parseCtx.Headers {
		parseCtx.HeaderMap[header] = i
	}
}

// ReadRecord reads the next record, skipping empty rows when configured.
// Returns io.EOF at the end of the file.
func (bp *BaseParser) ReadRecord(reader *csv.Reader, parseCtx *ParseContext) ([]string, error) {
	for {
		if err := parseCtx.ctx.Err(); err != nil {
			return nil, err
		}

		record, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				return nil, err
			}
			parseCtx.LineNumber++
			return nil, err
		}

		parseCtx.LineNumber++

		if bp.config.SkipEmptyRows && isEmptyRecord(record) {
			continue
		}

		return record, nil
	}
}

func isEmptyRecord(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

// FieldValue returns the trimmed value of a named column for the current
// record. Absent optional columns yield the empty string.
func (bp *BaseParser) FieldValue(record []string, parseCtx *ParseContext, name string) string {
	index := parseCtx.GetColumnIndex(name)
	if index == -1 || index >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[index])
}

// ParseStats summarizes one parsing operation
type ParseStats struct {
	TotalLines    int
	RecordsParsed int
	RecordsValid  int
	ErrorCount    int
	Errors        []*ParseError
}

// NewParseStats creates an empty ParseStats
func NewParseStats() *ParseStats {
	return &ParseStats{Errors: make([]*ParseError, 0)}
}

// AddError records a bad record
func (ps *ParseStats) AddError(err *ParseError) {
	ps.Errors = append(ps.Errors, err)
	ps.ErrorCount++
}

// HasErrors reports whether any record failed
func (ps *ParseStats) HasErrors() bool {
	return ps.ErrorCount > 0
}

// String returns a one-line summary
func (ps *ParseStats) String() string {
	return fmt.Sprintf("Parsed %d lines, %d records (%d valid), %d errors",
		ps.TotalLines, ps.RecordsParsed, ps.RecordsValid, ps.ErrorCount)
}

// SampleErrors returns up to max formatted errors for logging
func (ps *ParseStats) SampleErrors(max int) []string {
	limit := len(ps.Errors)
	if max > 0 && max < limit {
		limit = max
	}

	samples := make([]string, 0, limit)
	for i := 0; i < limit; i++ {
		samples = append(samples, ps.Errors[i].Error())
	}
	return samples
}
