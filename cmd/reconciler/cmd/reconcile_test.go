package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func TestValidateFileExists(t *testing.T) {
	tmpDir := t.TempDir()
	validFile := filepath.Join(tmpDir, "valid.csv")
	if err := os.WriteFile(validFile, []byte("test"), 0o644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	tests := []struct {
		name        string
		filePath    string
		expectError bool
	}{
		{"valid file", validFile, false},
		{"empty path", "", true},
		{"non-existent file", "/non/existent/file.csv", true},
		{"directory instead of file", tmpDir, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateFileExists(tt.filePath, "test file")

			if tt.expectError && err == nil {
				t.Errorf("expected error but got none")
			}
			if !tt.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func setDefaultWeights() {
	viper.Set("phone-weight", 0.35)
	viper.Set("amount-weight", 0.35)
	viper.Set("reference-weight", 0.20)
	viper.Set("name-weight", 0.10)
}

func TestValidateReconcileFlags(t *testing.T) {
	tmpDir := t.TempDir()
	paymentsPath := filepath.Join(tmpDir, "payments.csv")
	invoicesPath := filepath.Join(tmpDir, "invoices.csv")

	if err := os.WriteFile(paymentsPath, []byte("id,amount,phoneNumber,transactionTime\n"), 0o644); err != nil {
		t.Fatalf("failed to create payments file: %v", err)
	}
	if err := os.WriteFile(invoicesPath, []byte("id,tenantID,amount,balance,dueDate\n"), 0o644); err != nil {
		t.Fatalf("failed to create invoices file: %v", err)
	}

	setValid := func() {
		viper.Set("payments-file", paymentsPath)
		viper.Set("invoices-file", invoicesPath)
		viper.Set("payment-format", "standard")
		viper.Set("output-format", "console")
		viper.Set("threshold", 0.70)
		viper.Set("amount-tolerance", 1.0)
		setDefaultWeights()
	}

	tests := []struct {
		name          string
		setupFlags    func()
		expectError   bool
		errorContains string
	}{
		{
			name:        "valid flags",
			setupFlags:  setValid,
			expectError: false,
		},
		{
			name: "missing payments file",
			setupFlags: func() {
				setValid()
				viper.Set("payments-file", "")
			},
			expectError:   true,
			errorContains: "payments-file is required",
		},
		{
			name: "missing invoices file",
			setupFlags: func() {
				setValid()
				viper.Set("invoices-file", "")
			},
			expectError:   true,
			errorContains: "invoices-file is required",
		},
		{
			name: "unknown payment format",
			setupFlags: func() {
				setValid()
				viper.Set("payment-format", "equity-bank")
			},
			expectError:   true,
			errorContains: "unknown payment format",
		},
		{
			name: "invalid output format",
			setupFlags: func() {
				setValid()
				viper.Set("output-format", "xml")
			},
			expectError:   true,
			errorContains: "invalid output format",
		},
		{
			name: "invalid start date",
			setupFlags: func() {
				setValid()
				viper.Set("start-date", "01/08/2024")
			},
			expectError:   true,
			errorContains: "invalid start date format",
		},
		{
			name: "start date after end date",
			setupFlags: func() {
				setValid()
				viper.Set("start-date", "2024-08-31")
				viper.Set("end-date", "2024-08-01")
			},
			expectError:   true,
			errorContains: "start date cannot be after end date",
		},
		{
			name: "threshold out of range",
			setupFlags: func() {
				setValid()
				viper.Set("threshold", 1.5)
			},
			expectError:   true,
			errorContains: "threshold must be between",
		},
		{
			name: "invalid amount tolerance",
			setupFlags: func() {
				setValid()
				viper.Set("amount-tolerance", 150.0)
			},
			expectError:   true,
			errorContains: "amount tolerance must be between",
		},
		{
			name: "weights not summing to one",
			setupFlags: func() {
				setValid()
				viper.Set("phone-weight", 0.9)
			},
			expectError:   true,
			errorContains: "sum to 1.0",
		},
		{
			name: "missing output directory",
			setupFlags: func() {
				setValid()
				viper.Set("output-file", "/nonexistent/dir/report.json")
			},
			expectError:   true,
			errorContains: "output directory does not exist",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			viper.Reset()
			tt.setupFlags()

			err := validateReconcileFlags(&cobra.Command{}, []string{})

			if tt.expectError {
				if err == nil {
					t.Errorf("expected error but got none")
				} else if tt.errorContains != "" && !strings.Contains(err.Error(), tt.errorContains) {
					t.Errorf("expected error to contain '%s', got: %v", tt.errorContains, err)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestReconcileCommandFlags(t *testing.T) {
	for _, name := range []string{
		"payments-file", "invoices-file", "payment-format",
		"output-format", "output-file", "start-date", "end-date",
		"threshold", "amount-tolerance", "detect-duplicates",
		"phone-weight", "amount-weight", "reference-weight", "name-weight",
	} {
		if reconcileCmd.Flags().Lookup(name) == nil {
			t.Errorf("flag '%s' not found on reconcile command", name)
		}
	}
}

func TestReconcileCommandHelp(t *testing.T) {
	var helpOutput bytes.Buffer
	reconcileCmd.SetOut(&helpOutput)
	reconcileCmd.Help()

	helpText := helpOutput.String()
	for _, section := range []string{
		"Usage:",
		"Examples:",
		"Flags:",
		"--payments-file",
		"--invoices-file",
		"--output-format",
	} {
		if !strings.Contains(helpText, section) {
			t.Errorf("help text should contain '%s'", section)
		}
	}
}

func TestDuplicatesCommandFlags(t *testing.T) {
	for _, name := range []string{"payments-file", "payment-format", "output-format"} {
		if duplicatesCmd.Flags().Lookup(name) == nil {
			t.Errorf("flag '%s' not found on duplicates command", name)
		}
	}
}

func TestRunReconcile_EndToEnd(t *testing.T) {
	tmpDir := t.TempDir()
	paymentsPath := filepath.Join(tmpDir, "payments.csv")
	invoicesPath := filepath.Join(tmpDir, "invoices.csv")
	reportPath := filepath.Join(tmpDir, "report.json")

	payments := `id,transactionID,amount,phoneNumber,reference,payerName,transactionTime,status
PAY-001,TXN-001,45000,0712345678,A-204,Jane Wanjiku,2024-08-01 10:00:00,
`
	invoices := `id,tenantID,tenantName,tenantPhone,unitID,unitNumber,propertyID,amount,balance,dueDate,status
INV-2024-001,TEN-001,Jane Wanjiku,+254712345678,UNIT-A204,A-204,PROP-001,45000,45000,2024-08-05,PENDING
`
	if err := os.WriteFile(paymentsPath, []byte(payments), 0o644); err != nil {
		t.Fatalf("failed to create payments file: %v", err)
	}
	if err := os.WriteFile(invoicesPath, []byte(invoices), 0o644); err != nil {
		t.Fatalf("failed to create invoices file: %v", err)
	}

	viper.Reset()
	viper.Set("payments-file", paymentsPath)
	viper.Set("invoices-file", invoicesPath)
	viper.Set("payment-format", "standard")
	viper.Set("output-format", "json")
	viper.Set("output-file", reportPath)
	viper.Set("threshold", 0.70)
	viper.Set("amount-tolerance", 1.0)
	viper.Set("detect-duplicates", true)
	setDefaultWeights()

	cmd := &cobra.Command{}
	if err := validateReconcileFlags(cmd, nil); err != nil {
		t.Fatalf("flag validation failed: %v", err)
	}
	if err := runReconcile(cmd, nil); err != nil {
		t.Fatalf("runReconcile failed: %v", err)
	}

	report, err := os.ReadFile(reportPath)
	if err != nil {
		t.Fatalf("failed to read report: %v", err)
	}
	if !strings.Contains(string(report), "INV-2024-001") {
		t.Errorf("expected report to reference the matched invoice, got:\n%s", report)
	}
}
