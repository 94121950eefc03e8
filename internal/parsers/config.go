package parsers

import (
	"fmt"
	"strings"
)

// PaymentParserConfig maps the columns of a payment settlement feed.
// Only the id, amount, phone and time columns are required; reference,
// payer name and status are optional enrichment.
type PaymentParserConfig struct {
	IDColumn        string            `json:"id_column"`
	TransactionIDColumn string        `json:"transaction_id_column"`
	AmountColumn    string            `json:"amount_column"`
	PhoneColumn     string            `json:"phone_column"`
	ReferenceColumn string            `json:"reference_column"`
	PayerNameColumn string            `json:"payer_name_column"`
	TimeColumn      string            `json:"time_column"`
	StatusColumn    string            `json:"status_column"`
	HasHeader       bool              `json:"has_header"`
	Delimiter       rune              `json:"delimiter"`
	ColumnAliases   map[string]string `json:"column_aliases,omitempty"`
}

// Validate checks that the required column mappings are set
func (pc *PaymentParserConfig) Validate() error {
	required := map[string]string{
		"id column":     pc.IDColumn,
		"amount column": pc.AmountColumn,
		"phone column":  pc.PhoneColumn,
		"time column":   pc.TimeColumn,
	}
	for name, value := range required {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%s cannot be empty", name)
		}
	}
	return nil
}

// ColumnName resolves a standard field name to the feed's column name,
// aliases first
func (pc *PaymentParserConfig) ColumnName(standardName string) string {
	if alias, exists := pc.ColumnAliases[standardName]; exists {
		return alias
	}

	switch standardName {
	case "id":
		return pc.IDColumn
	case "transaction_id":
		return pc.TransactionIDColumn
	case "amount":
		return pc.AmountColumn
	case "phone":
		return pc.PhoneColumn
	case "reference":
		return pc.ReferenceColumn
	case "payer_name":
		return pc.PayerNameColumn
	case "time":
		return pc.TimeColumn
	case "status":
		return pc.StatusColumn
	default:
		return standardName
	}
}

// DefaultPaymentParserConfig returns the mapping for the standard export
func DefaultPaymentParserConfig() *PaymentParserConfig {
	return &PaymentParserConfig{
		IDColumn:            "id",
		TransactionIDColumn: "transactionID",
		AmountColumn:        "amount",
		PhoneColumn:         "phoneNumber",
		ReferenceColumn:     "reference",
		PayerNameColumn:     "payerName",
		TimeColumn:          "transactionTime",
		StatusColumn:        "status",
		HasHeader:           true,
		Delimiter:           ',',
		ColumnAliases:       make(map[string]string),
	}
}

// MpesaStatementConfig returns the mapping for M-Pesa organization
// statement exports
func MpesaStatementConfig() *PaymentParserConfig {
	return &PaymentParserConfig{
		IDColumn:            "Receipt No.",
		TransactionIDColumn: "Receipt No.",
		AmountColumn:        "Paid In",
		PhoneColumn:         "Other Party Info",
		ReferenceColumn:     "Account No.",
		PayerNameColumn:     "Other Party Name",
		TimeColumn:          "Completion Time",
		StatusColumn:        "",
		HasHeader:           true,
		Delimiter:           ',',
		ColumnAliases:       make(map[string]string),
	}
}

// InvoiceParserConfig maps the columns of a billing-system invoice export
type InvoiceParserConfig struct {
	IDColumn         string            `json:"id_column"`
	TenantIDColumn   string            `json:"tenant_id_column"`
	TenantNameColumn string            `json:"tenant_name_column"`
	TenantPhoneColumn string           `json:"tenant_phone_column"`
	UnitIDColumn     string            `json:"unit_id_column"`
	UnitNumberColumn string            `json:"unit_number_column"`
	PropertyIDColumn string            `json:"property_id_column"`
	AmountColumn     string            `json:"amount_column"`
	BalanceColumn    string            `json:"balance_column"`
	DueDateColumn    string            `json:"due_date_column"`
	StatusColumn     string            `json:"status_column"`
	HasHeader        bool              `json:"has_header"`
	Delimiter        rune              `json:"delimiter"`
	ColumnAliases    map[string]string `json:"column_aliases,omitempty"`
}

// Validate checks that the required column mappings are set
func (ic *InvoiceParserConfig) Validate() error {
	required := map[string]string{
		"id column":        ic.IDColumn,
		"tenant id column": ic.TenantIDColumn,
		"amount column":    ic.AmountColumn,
		"balance column":   ic.BalanceColumn,
		"due date column":  ic.DueDateColumn,
	}
	for name, value := range required {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%s cannot be empty", name)
		}
	}
	return nil
}

// ColumnName resolves a standard field name to the feed's column name,
// aliases first
func (ic *InvoiceParserConfig) ColumnName(standardName string) string {
	if alias, exists := ic.ColumnAliases[standardName]; exists {
		return alias
	}

	switch standardName {
	case "id":
		return ic.IDColumn
	case "tenant_id":
		return ic.TenantIDColumn
	case "tenant_name":
		return ic.TenantNameColumn
	case "tenant_phone":
		return ic.TenantPhoneColumn
	case "unit_id":
		return ic.UnitIDColumn
	case "unit_number":
		return ic.UnitNumberColumn
	case "property_id":
		return ic.PropertyIDColumn
	case "amount":
		return ic.AmountColumn
	case "balance":
		return ic.BalanceColumn
	case "due_date":
		return ic.DueDateColumn
	case "status":
		return ic.StatusColumn
	default:
		return standardName
	}
}

// DefaultInvoiceParserConfig returns the mapping for the standard export
func DefaultInvoiceParserConfig() *InvoiceParserConfig {
	return &InvoiceParserConfig{
		IDColumn:          "id",
		TenantIDColumn:    "tenantID",
		TenantNameColumn:  "tenantName",
		TenantPhoneColumn: "tenantPhone",
		UnitIDColumn:      "unitID",
		UnitNumberColumn:  "unitNumber",
		PropertyIDColumn:  "propertyID",
		AmountColumn:      "amount",
		BalanceColumn:     "balance",
		DueDateColumn:     "dueDate",
		StatusColumn:      "status",
		HasHeader:         true,
		Delimiter:         ',',
		ColumnAliases:     make(map[string]string),
	}
}
