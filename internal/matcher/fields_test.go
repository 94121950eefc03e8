package matcher

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
)

func TestScorePhone(t *testing.T) {
	engine := newTestEngine(t, nil)

	tests := []struct {
		name        string
		payment     string
		tenant      string
		wantMatched bool
		wantScore   float64
		wantSubtype MatchSubtype
	}{
		{"identical local format", "0712345678", "0712345678", true, 1.0, SubtypeExact},
		{"country code vs local", "0712345678", "+254712345678", true, 1.0, SubtypeExact},
		{"separators stripped", "0712-345-678", "0712 345 678", true, 1.0, SubtypeExact},
		{"leading digit differs", "0712345678", "254812345678", true, 0.9, SubtypeClose},
		{"different numbers", "0712345678", "0798765432", false, 0, SubtypeNone},
		{"payment phone missing", "", "0712345678", false, 0, SubtypeNone},
		{"tenant phone missing", "0712345678", "", false, 0, SubtypeNone},
		{"non numeric phone", "n/a", "0712345678", false, 0, SubtypeNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payment := createTestPayment("PAY-1", "45000", tt.payment, "", "")
			invoice := createTestInvoice("INV-1", "45000", tt.tenant, "A-204", "")

			score := engine.scorePhone(payment, invoice)
			assertFieldScore(t, score, tt.wantMatched, tt.wantScore, tt.wantSubtype)
		})
	}
}

func TestScoreAmount(t *testing.T) {
	engine := newTestEngine(t, nil)

	tests := []struct {
		name        string
		payment     string
		balance     string
		wantScore   float64
		wantSubtype MatchSubtype
	}{
		{"exact amount", "45000", "45000", 1.0, SubtypeExact},
		{"within one percent tolerance", "44600", "45000", 1.0, SubtypeExact},
		{"just outside tolerance", "44500", "45000", 44500.0 / 45000.0 * 0.8, SubtypePartial},
		{"half payment", "22500", "45000", 0.4, SubtypePartial},
		{"overpayment", "50000", "45000", 0.63, SubtypeOver},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payment := createTestPayment("PAY-1", tt.payment, "", "", "")
			invoice := createTestInvoice("INV-1", tt.balance, "", "A-204", "")

			score := engine.scoreAmount(payment, invoice)
			if !score.Matched {
				t.Fatal("Expected amount comparator to match")
			}
			if math.Abs(score.Score-tt.wantScore) > 0.0001 {
				t.Errorf("Expected score %f, got %f", tt.wantScore, score.Score)
			}
			if score.Subtype != tt.wantSubtype {
				t.Errorf("Expected subtype %s, got %s", tt.wantSubtype, score.Subtype)
			}
		})
	}
}

func TestScoreAmount_NonPositiveBalance(t *testing.T) {
	engine := newTestEngine(t, nil)
	payment := createTestPayment("PAY-1", "45000", "", "", "")

	invoice := createTestInvoice("INV-1", "0", "", "A-204", "")
	score := engine.scoreAmount(payment, invoice)
	assertFieldScore(t, score, false, 0, SubtypeNone)

	invoice.Balance = decimal.NewFromInt(-100)
	score = engine.scoreAmount(payment, invoice)
	assertFieldScore(t, score, false, 0, SubtypeNone)
}

func TestScoreAmount_ZeroTolerance(t *testing.T) {
	engine := newTestEngine(t, StrictMatcherConfig())

	payment := createTestPayment("PAY-1", "44999", "", "", "")
	invoice := createTestInvoice("INV-1", "45000", "", "A-204", "")

	score := engine.scoreAmount(payment, invoice)
	if score.Subtype != SubtypePartial {
		t.Errorf("Expected one shilling short to be partial with zero tolerance, got %s", score.Subtype)
	}
}

func TestScoreReference(t *testing.T) {
	engine := newTestEngine(t, nil)

	tests := []struct {
		name        string
		reference   string
		wantMatched bool
		wantSubtype MatchSubtype
	}{
		{"exact invoice id", "INV-2024-001", true, SubtypeExact},
		{"invoice id case insensitive", "inv-2024-001", true, SubtypeExact},
		{"bare unit number", "A-204", true, SubtypeUnit},
		{"unit number embedded", "Rent for A-204 August", true, SubtypeUnit},
		{"near miss invoice id", "INV-2024-O01", true, SubtypeFuzzy},
		{"unrelated reference", "groceries", false, SubtypeNone},
		{"empty reference", "", false, SubtypeNone},
		{"whitespace reference", "   ", false, SubtypeNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payment := createTestPayment("PAY-1", "45000", "", tt.reference, "")
			invoice := createTestInvoice("INV-2024-001", "45000", "", "A-204", "")

			score := engine.scoreReference(payment, invoice)
			if score.Matched != tt.wantMatched {
				t.Fatalf("Expected matched=%v, got %v (score %f, subtype %s)",
					tt.wantMatched, score.Matched, score.Score, score.Subtype)
			}
			if score.Subtype != tt.wantSubtype {
				t.Errorf("Expected subtype %s, got %s", tt.wantSubtype, score.Subtype)
			}
			if tt.wantSubtype == SubtypeFuzzy && score.Score <= 0.8 {
				t.Errorf("Expected fuzzy reference score above 0.8, got %f", score.Score)
			}
		})
	}
}

func TestScoreName(t *testing.T) {
	engine := newTestEngine(t, nil)

	tests := []struct {
		name        string
		payer       string
		tenant      string
		wantMatched bool
		wantSubtype MatchSubtype
	}{
		{"identical names", "John Kamau", "John Kamau", true, SubtypeFull},
		{"minor typo", "Jon Kamau", "John Kamau", true, SubtypeFull},
		{"shared surname only", "Jane Mumbi Kariuki", "Mumbi W", true, SubtypeToken},
		{"unrelated names", "Peter Otieno", "Grace Wambui", false, SubtypeNone},
		{"payer missing", "", "John Kamau", false, SubtypeNone},
		{"tenant missing", "John Kamau", "", false, SubtypeNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payment := createTestPayment("PAY-1", "45000", "", "", tt.payer)
			invoice := createTestInvoice("INV-1", "45000", "", "A-204", tt.tenant)

			score := engine.scoreName(payment, invoice)
			if score.Matched != tt.wantMatched {
				t.Fatalf("Expected matched=%v, got %v (score %f, subtype %s)",
					tt.wantMatched, score.Matched, score.Score, score.Subtype)
			}
			if score.Subtype != tt.wantSubtype {
				t.Errorf("Expected subtype %s, got %s", tt.wantSubtype, score.Subtype)
			}
			if tt.wantSubtype == SubtypeToken && score.Score != 0.7 {
				t.Errorf("Expected flat 0.7 for token match, got %f", score.Score)
			}
		})
	}
}

func TestScoreName_ShortTokensIgnored(t *testing.T) {
	engine := newTestEngine(t, nil)

	// "J." and "Jo" are too short to count as token evidence
	payment := createTestPayment("PAY-1", "45000", "", "", "J. Mwangi")
	invoice := createTestInvoice("INV-1", "45000", "", "A-204", "J. Otieno")

	score := engine.scoreName(payment, invoice)
	if score.Matched && score.Subtype == SubtypeToken {
		t.Errorf("Expected short tokens to be ignored, got token match at %f", score.Score)
	}
}

func assertFieldScore(t *testing.T, score FieldScore, matched bool, value float64, subtype MatchSubtype) {
	t.Helper()

	if score.Matched != matched {
		t.Errorf("Expected matched=%v, got %v", matched, score.Matched)
	}
	if math.Abs(score.Score-value) > 0.0001 {
		t.Errorf("Expected score %f, got %f", value, score.Score)
	}
	if score.Subtype != subtype {
		t.Errorf("Expected subtype %s, got %s", subtype, score.Subtype)
	}
}
