package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestReconcilerErrorMessage(t *testing.T) {
	err := New(CategoryParse, CodeInvalidData, "bad record")
	if err.Error() != "bad record" {
		t.Errorf("Expected bare message, got %q", err.Error())
	}

	err.WithSuggestion("fix it")
	if !strings.Contains(err.Error(), "suggestion: fix it") {
		t.Errorf("Expected suggestion in message, got %q", err.Error())
	}
}

func TestWrapAndUnwrap(t *testing.T) {
	cause := stderrors.New("disk on fire")
	wrapped := Wrap(cause, CategoryFile, CodeFilePermission, "cannot read payments file")

	if !stderrors.Is(wrapped, cause) {
		t.Error("Expected errors.Is to find the cause through Unwrap")
	}

	if Wrap(nil, CategoryFile, CodeFilePermission, "ignored") != nil {
		t.Error("Expected wrapping nil to return nil")
	}
}

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		category ErrorCategory
		expected int
	}{
		{CategoryFile, 2},
		{CategoryParse, 3},
		{CategoryValidation, 3},
		{CategoryConfiguration, 4},
		{CategoryMatching, 5},
		{CategoryInternal, 5},
		{ErrorCategory("other"), 1},
	}

	for _, tt := range tests {
		err := New(tt.category, CodeUnexpectedError, "x")
		if got := err.GetExitCode(); got != tt.expected {
			t.Errorf("Expected exit code %d for category %s, got %d", tt.expected, tt.category, got)
		}
	}
}

func TestConstructorsAttachContext(t *testing.T) {
	fileErr := FileError(CodeFileNotFound, "/tmp/payments.csv", nil)
	if fileErr.Context["file_path"] != "/tmp/payments.csv" {
		t.Error("Expected file path in context")
	}
	if fileErr.Suggestion == "" {
		t.Error("Expected a suggestion on file errors")
	}

	parseErr := ParseError(CodeInvalidData, "payments.csv", 12, "amount", "abc", nil)
	if parseErr.Context["line"] != 12 || parseErr.Context["column"] != "amount" {
		t.Errorf("Expected line and column in context, got %v", parseErr.Context)
	}

	valErr := ValidationError(CodeInvalidAmount, "amount", "-5", nil)
	if valErr.Category != CategoryValidation {
		t.Errorf("Expected validation category, got %s", valErr.Category)
	}
}

func TestErrorSummary(t *testing.T) {
	errs := []*ReconcilerError{
		ParseError(CodeInvalidData, "payments.csv", 2, "amount", "x", nil),
		ParseError(CodeInvalidData, "payments.csv", 5, "amount", "y", nil),
		FileError(CodeFileNotFound, "invoices.csv", nil),
	}

	summary := NewErrorSummary(errs)
	if summary.Total != 3 {
		t.Errorf("Expected 3 errors, got %d", summary.Total)
	}
	if summary.ByCategory[CategoryParse] != 2 {
		t.Errorf("Expected 2 parse errors, got %d", summary.ByCategory[CategoryParse])
	}
	if !summary.HasCategory(CategoryFile) {
		t.Error("Expected file category to be present")
	}
	if summary.HasCategory(CategoryMatching) {
		t.Error("Did not expect matching category")
	}
	if !strings.Contains(summary.Error(), "3 errors occurred") {
		t.Errorf("Unexpected summary message: %s", summary.Error())
	}
	if summary.GetExitCode() != 3 {
		t.Errorf("Expected exit code 3 (parse beats file), got %d", summary.GetExitCode())
	}

	empty := NewErrorSummary(nil)
	if empty.GetExitCode() != 0 || empty.Error() != "no errors" {
		t.Error("Expected empty summary to report no errors")
	}
}

func TestWrapIfNeeded(t *testing.T) {
	original := New(CategoryParse, CodeInvalidData, "already categorized")
	carried := fmt.Errorf("outer: %w", original)

	result := WrapIfNeeded(carried, CategoryInternal, CodeUnexpectedError, "fallback")
	if result != original {
		t.Error("Expected the existing ReconcilerError to be surfaced, not re-wrapped")
	}

	plain := stderrors.New("plain")
	result = WrapIfNeeded(plain, CategoryInternal, CodeUnexpectedError, "fallback")
	if result.Category != CategoryInternal {
		t.Errorf("Expected plain error to be wrapped as internal, got %s", result.Category)
	}

	if WrapIfNeeded(nil, CategoryInternal, CodeUnexpectedError, "fallback") != nil {
		t.Error("Expected nil to pass through")
	}
}
