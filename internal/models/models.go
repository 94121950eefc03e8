package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus represents the lifecycle state of a payment. The matcher
// never sets this itself; callers stamp it after reconciliation.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusMatched   PaymentStatus = "MATCHED"
	PaymentStatusUnmatched PaymentStatus = "UNMATCHED"
	PaymentStatusPartial   PaymentStatus = "PARTIAL"
)

// String returns the string representation of PaymentStatus
func (s PaymentStatus) String() string {
	return string(s)
}

// IsValid checks if the payment status is valid
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusMatched, PaymentStatusUnmatched, PaymentStatusPartial:
		return true
	}
	return false
}

// InvoiceStatus represents the billing state of an invoice
type InvoiceStatus string

const (
	InvoiceStatusPending InvoiceStatus = "PENDING"
	InvoiceStatusPartial InvoiceStatus = "PARTIAL"
	InvoiceStatusPaid    InvoiceStatus = "PAID"
	InvoiceStatusOverdue InvoiceStatus = "OVERDUE"
)

// String returns the string representation of InvoiceStatus
func (s InvoiceStatus) String() string {
	return string(s)
}

// IsValid checks if the invoice status is valid
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusPending, InvoiceStatusPartial, InvoiceStatusPaid, InvoiceStatusOverdue:
		return true
	}
	return false
}

// Payment represents an incoming mobile-money or bank payment record.
// Identifying data (phone, reference, payer name) is free text and may be
// noisy, partial, or inconsistent.
type Payment struct {
	ID              string          `json:"id" csv:"id"`
	TransactionID   string          `json:"transactionID" csv:"transactionID"`
	Amount          decimal.Decimal `json:"amount" csv:"amount"`
	PhoneNumber     string          `json:"phoneNumber" csv:"phoneNumber"`
	Reference       string          `json:"reference,omitempty" csv:"reference"`
	PayerName       string          `json:"payerName,omitempty" csv:"payerName"`
	TransactionTime time.Time       `json:"transactionTime" csv:"transactionTime"`
	Status          PaymentStatus   `json:"status" csv:"status"`
}

// NewPayment creates a new Payment instance in the pending state
func NewPayment(id, transactionID string, amount decimal.Decimal, phone string, txTime time.Time) *Payment {
	return &Payment{
		ID:              id,
		TransactionID:   transactionID,
		Amount:          amount,
		PhoneNumber:     phone,
		TransactionTime: txTime,
		Status:          PaymentStatusPending,
	}
}

// Validate performs basic validation on the Payment
func (p *Payment) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("payment ID cannot be empty")
	}

	if !p.Amount.IsPositive() {
		return fmt.Errorf("payment amount must be positive, got %s", p.Amount.String())
	}

	if p.TransactionTime.IsZero() {
		return fmt.Errorf("payment transaction time cannot be zero")
	}

	if p.Status != "" && !p.Status.IsValid() {
		return fmt.Errorf("invalid payment status: %s", p.Status)
	}

	return nil
}

// String returns a string representation of the Payment
func (p *Payment) String() string {
	return fmt.Sprintf("Payment{ID: %s, Amount: %s, Phone: %s, Ref: %s, Time: %s}",
		p.ID, p.Amount.String(), p.PhoneNumber, p.Reference, p.TransactionTime.Format(time.RFC3339))
}

// MarshalJSON implements custom JSON marshaling for Payment
func (p *Payment) MarshalJSON() ([]byte, error) {
	type Alias Payment
	return json.Marshal(&struct {
		Amount          string `json:"amount"`
		TransactionTime string `json:"transactionTime"`
		*Alias
	}{
		Amount:          p.Amount.String(),
		TransactionTime: p.TransactionTime.Format(time.RFC3339),
		Alias:           (*Alias)(p),
	})
}

// UnmarshalJSON implements custom JSON unmarshaling for Payment
func (p *Payment) UnmarshalJSON(data []byte) error {
	type Alias Payment
	aux := &struct {
		Amount          string `json:"amount"`
		TransactionTime string `json:"transactionTime"`
		*Alias
	}{
		Alias: (*Alias)(p),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	var err error
	p.Amount, err = decimal.NewFromString(aux.Amount)
	if err != nil {
		return fmt.Errorf("invalid amount format: %w", err)
	}

	p.TransactionTime, err = time.Parse(time.RFC3339, aux.TransactionTime)
	if err != nil {
		return fmt.Errorf("invalid transaction time format: %w", err)
	}

	return nil
}

// Equals compares two Payment instances for equality
func (p *Payment) Equals(other *Payment) bool {
	if other == nil {
		return false
	}

	return p.ID == other.ID &&
		p.TransactionID == other.TransactionID &&
		p.Amount.Equal(other.Amount) &&
		p.PhoneNumber == other.PhoneNumber &&
		p.TransactionTime.Equal(other.TransactionTime)
}

// Invoice represents an outstanding tenant invoice. It is read-only to the
// matcher; Balance may be less than Amount when the invoice is partially paid.
type Invoice struct {
	ID          string          `json:"id" csv:"id"`
	TenantID    string          `json:"tenantID" csv:"tenantID"`
	TenantName  string          `json:"tenantName,omitempty" csv:"tenantName"`
	TenantPhone string          `json:"tenantPhone,omitempty" csv:"tenantPhone"`
	UnitID      string          `json:"unitID" csv:"unitID"`
	UnitNumber  string          `json:"unitNumber,omitempty" csv:"unitNumber"`
	PropertyID  string          `json:"propertyID" csv:"propertyID"`
	Amount      decimal.Decimal `json:"amount" csv:"amount"`
	Balance     decimal.Decimal `json:"balance" csv:"balance"`
	DueDate     time.Time       `json:"dueDate" csv:"dueDate"`
	Status      InvoiceStatus   `json:"status" csv:"status"`
}

// NewInvoice creates a new Invoice instance with the balance set to the
// full invoice amount
func NewInvoice(id, tenantID, unitID, propertyID string, amount decimal.Decimal, dueDate time.Time) *Invoice {
	return &Invoice{
		ID:         id,
		TenantID:   tenantID,
		UnitID:     unitID,
		PropertyID: propertyID,
		Amount:     amount,
		Balance:    amount,
		DueDate:    dueDate,
		Status:     InvoiceStatusPending,
	}
}

// Validate performs basic validation on the Invoice
func (inv *Invoice) Validate() error {
	if strings.TrimSpace(inv.ID) == "" {
		return fmt.Errorf("invoice ID cannot be empty")
	}

	if strings.TrimSpace(inv.TenantID) == "" {
		return fmt.Errorf("invoice tenant ID cannot be empty")
	}

	if inv.Amount.IsNegative() {
		return fmt.Errorf("invoice amount cannot be negative, got %s", inv.Amount.String())
	}

	if inv.Balance.IsNegative() {
		return fmt.Errorf("invoice balance cannot be negative, got %s", inv.Balance.String())
	}

	if inv.Balance.GreaterThan(inv.Amount) {
		return fmt.Errorf("invoice balance %s cannot exceed invoice amount %s",
			inv.Balance.String(), inv.Amount.String())
	}

	if !inv.Status.IsValid() {
		return fmt.Errorf("invalid invoice status: %s", inv.Status)
	}

	return nil
}

// IsOpen reports whether the invoice can still receive a payment. Paid
// invoices and invoices with no remaining balance are never match candidates.
func (inv *Invoice) IsOpen() bool {
	return inv.Status != InvoiceStatusPaid && inv.Balance.IsPositive()
}

// String returns a string representation of the Invoice
func (inv *Invoice) String() string {
	return fmt.Sprintf("Invoice{ID: %s, Tenant: %s, Unit: %s, Balance: %s, Due: %s, Status: %s}",
		inv.ID, inv.TenantID, inv.UnitNumber, inv.Balance.String(),
		inv.DueDate.Format("2006-01-02"), inv.Status)
}

// MarshalJSON implements custom JSON marshaling for Invoice
func (inv *Invoice) MarshalJSON() ([]byte, error) {
	type Alias Invoice
	return json.Marshal(&struct {
		Amount  string `json:"amount"`
		Balance string `json:"balance"`
		DueDate string `json:"dueDate"`
		*Alias
	}{
		Amount:  inv.Amount.String(),
		Balance: inv.Balance.String(),
		DueDate: inv.DueDate.Format("2006-01-02"),
		Alias:   (*Alias)(inv),
	})
}

// UnmarshalJSON implements custom JSON unmarshaling for Invoice
func (inv *Invoice) UnmarshalJSON(data []byte) error {
	type Alias Invoice
	aux := &struct {
		Amount  string `json:"amount"`
		Balance string `json:"balance"`
		DueDate string `json:"dueDate"`
		*Alias
	}{
		Alias: (*Alias)(inv),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	var err error
	inv.Amount, err = decimal.NewFromString(aux.Amount)
	if err != nil {
		return fmt.Errorf("invalid amount format: %w", err)
	}

	inv.Balance, err = decimal.NewFromString(aux.Balance)
	if err != nil {
		return fmt.Errorf("invalid balance format: %w", err)
	}

	inv.DueDate, err = ParseTimeWithFormats(aux.DueDate)
	if err != nil {
		return fmt.Errorf("invalid due date format: %w", err)
	}

	return nil
}

// Utility functions for type conversion and normalization

// NormalizePhone strips every non-digit character from a phone number and
// keeps the last nine digits, the local-number convention. Country-code
// prefixes are discarded intentionally so "+254712345678" and "0712345678"
// compare equal. Returns the empty string when no digits remain.
func NormalizePhone(phone string) string {
	var digits strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}

	normalized := digits.String()
	if len(normalized) > 9 {
		normalized = normalized[len(normalized)-9:]
	}

	return normalized
}

// ParseDecimalFromString parses a decimal amount from string with validation
func ParseDecimalFromString(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("amount string cannot be empty")
	}

	// Strip currency markers and thousand separators seen in settlement feeds
	s = strings.ReplaceAll(s, "KES", "")
	s = strings.ReplaceAll(s, "Ksh", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid decimal format '%s': %w", s, err)
	}

	return d, nil
}

// ParsePaymentStatus parses and validates a payment status from string.
// An empty value defaults to pending since feeds rarely carry a status.
func ParsePaymentStatus(s string) (PaymentStatus, error) {
	if strings.TrimSpace(s) == "" {
		return PaymentStatusPending, nil
	}

	status := PaymentStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !status.IsValid() {
		return "", fmt.Errorf("invalid payment status '%s'", s)
	}
	return status, nil
}

// ParseInvoiceStatus parses and validates an invoice status from string
func ParseInvoiceStatus(s string) (InvoiceStatus, error) {
	status := InvoiceStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !status.IsValid() {
		return "", fmt.Errorf("invalid invoice status '%s'", s)
	}
	return status, nil
}

// ParseTimeWithFormats attempts to parse time from string using the formats
// commonly seen in settlement feeds and billing exports
func ParseTimeWithFormats(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("time string cannot be empty")
	}

	formats := []string{
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02",
		"02/01/2006 15:04:05",
		"02/01/2006",
		"2006/01/02",
		"Jan 2, 2006",
	}

	var lastErr error
	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		} else {
			lastErr = err
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse time '%s': %w", s, lastErr)
}

// CreatePaymentFromCSV creates a Payment from CSV field values
func CreatePaymentFromCSV(id, transactionID, amountStr, phone, reference, payerName, timeStr, statusStr string) (*Payment, error) {
	amount, err := ParseDecimalFromString(amountStr)
	if err != nil {
		return nil, fmt.Errorf("invalid amount in CSV: %w", err)
	}

	txTime, err := ParseTimeWithFormats(timeStr)
	if err != nil {
		return nil, fmt.Errorf("invalid transaction time in CSV: %w", err)
	}

	status, err := ParsePaymentStatus(statusStr)
	if err != nil {
		return nil, fmt.Errorf("invalid payment status in CSV: %w", err)
	}

	payment := &Payment{
		ID:              strings.TrimSpace(id),
		TransactionID:   strings.TrimSpace(transactionID),
		Amount:          amount,
		PhoneNumber:     strings.TrimSpace(phone),
		Reference:       strings.TrimSpace(reference),
		PayerName:       strings.TrimSpace(payerName),
		TransactionTime: txTime,
		Status:          status,
	}

	if err := payment.Validate(); err != nil {
		return nil, fmt.Errorf("invalid payment data: %w", err)
	}

	return payment, nil
}

// CreateInvoiceFromCSV creates an Invoice from CSV field values
func CreateInvoiceFromCSV(id, tenantID, tenantName, tenantPhone, unitID, unitNumber, propertyID, amountStr, balanceStr, dueDateStr, statusStr string) (*Invoice, error) {
	amount, err := ParseDecimalFromString(amountStr)
	if err != nil {
		return nil, fmt.Errorf("invalid amount in CSV: %w", err)
	}

	balance, err := ParseDecimalFromString(balanceStr)
	if err != nil {
		return nil, fmt.Errorf("invalid balance in CSV: %w", err)
	}

	dueDate, err := ParseTimeWithFormats(dueDateStr)
	if err != nil {
		return nil, fmt.Errorf("invalid due date in CSV: %w", err)
	}

	status, err := ParseInvoiceStatus(statusStr)
	if err != nil {
		return nil, fmt.Errorf("invalid invoice status in CSV: %w", err)
	}

	invoice := &Invoice{
		ID:          strings.TrimSpace(id),
		TenantID:    strings.TrimSpace(tenantID),
		TenantName:  strings.TrimSpace(tenantName),
		TenantPhone: strings.TrimSpace(tenantPhone),
		UnitID:      strings.TrimSpace(unitID),
		UnitNumber:  strings.TrimSpace(unitNumber),
		PropertyID:  strings.TrimSpace(propertyID),
		Amount:      amount,
		Balance:     balance,
		DueDate:     dueDate,
		Status:      status,
	}

	if err := invoice.Validate(); err != nil {
		return nil, fmt.Errorf("invalid invoice data: %w", err)
	}

	return invoice, nil
}
