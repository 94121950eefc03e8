package matcher

import (
	"testing"
	"time"

	"github.com/GeorgeMwiki/BOSSNYUMBA101-sub016/internal/models"
)

func createTimedPayment(id, amount, phone string, transactionTime time.Time) *models.Payment {
	payment := createTestPayment(id, amount, phone, "", "")
	payment.TransactionTime = transactionTime
	return payment
}

func TestFindDuplicates_WithinWindow(t *testing.T) {
	engine := newTestEngine(t, nil)
	base := time.Date(2024, 8, 1, 10, 0, 0, 0, time.UTC)

	payments := []*models.Payment{
		createTimedPayment("PAY-1", "45000", "0712345678", base),
		createTimedPayment("PAY-2", "45000", "+254712345678", base.Add(1*time.Hour)),
	}

	groups := engine.FindDuplicates(payments)

	if len(groups) != 1 {
		t.Fatalf("Expected 1 duplicate group, got %d", len(groups))
	}
	if len(groups[0].Payments) != 2 {
		t.Errorf("Expected 2 payments in the group, got %d", len(groups[0].Payments))
	}
	if groups[0].GroupID != "DUP_PAY-1" {
		t.Errorf("Expected group id DUP_PAY-1, got %s", groups[0].GroupID)
	}
	if groups[0].Reason == "" {
		t.Error("Expected a non-empty group reason")
	}
}

func TestFindDuplicates_OutsideWindow(t *testing.T) {
	engine := newTestEngine(t, nil)
	base := time.Date(2024, 8, 1, 10, 0, 0, 0, time.UTC)

	payments := []*models.Payment{
		createTimedPayment("PAY-1", "45000", "0712345678", base),
		createTimedPayment("PAY-2", "45000", "0712345678", base.Add(25*time.Hour)),
	}

	if groups := engine.FindDuplicates(payments); len(groups) != 0 {
		t.Errorf("Expected no groups 25 hours apart, got %d", len(groups))
	}
}

func TestFindDuplicates_ExactWindowBoundaryExcluded(t *testing.T) {
	engine := newTestEngine(t, nil)
	base := time.Date(2024, 8, 1, 10, 0, 0, 0, time.UTC)

	payments := []*models.Payment{
		createTimedPayment("PAY-1", "45000", "0712345678", base),
		createTimedPayment("PAY-2", "45000", "0712345678", base.Add(24*time.Hour)),
	}

	if groups := engine.FindDuplicates(payments); len(groups) != 0 {
		t.Errorf("Expected exactly 24 hours apart to fall outside the window, got %d groups", len(groups))
	}
}

func TestFindDuplicates_DifferentAmount(t *testing.T) {
	engine := newTestEngine(t, nil)
	base := time.Date(2024, 8, 1, 10, 0, 0, 0, time.UTC)

	payments := []*models.Payment{
		createTimedPayment("PAY-1", "45000", "0712345678", base),
		createTimedPayment("PAY-2", "45000.01", "0712345678", base.Add(time.Minute)),
	}

	if groups := engine.FindDuplicates(payments); len(groups) != 0 {
		t.Errorf("Expected different amounts never to group, got %d groups", len(groups))
	}
}

func TestFindDuplicates_DifferentPhone(t *testing.T) {
	engine := newTestEngine(t, nil)
	base := time.Date(2024, 8, 1, 10, 0, 0, 0, time.UTC)

	payments := []*models.Payment{
		createTimedPayment("PAY-1", "45000", "0712345678", base),
		createTimedPayment("PAY-2", "45000", "0798765432", base.Add(time.Minute)),
	}

	if groups := engine.FindDuplicates(payments); len(groups) != 0 {
		t.Errorf("Expected different phones never to group, got %d groups", len(groups))
	}
}

func TestFindDuplicates_TripleSubmission(t *testing.T) {
	engine := newTestEngine(t, nil)
	base := time.Date(2024, 8, 1, 10, 0, 0, 0, time.UTC)

	payments := []*models.Payment{
		createTimedPayment("PAY-1", "45000", "0712345678", base),
		createTimedPayment("PAY-2", "45000", "0712345678", base.Add(10*time.Minute)),
		createTimedPayment("PAY-3", "45000", "0712345678", base.Add(20*time.Minute)),
	}

	groups := engine.FindDuplicates(payments)
	if len(groups) != 1 {
		t.Fatalf("Expected 1 group, got %d", len(groups))
	}
	if len(groups[0].Payments) != 3 {
		t.Errorf("Expected all 3 submissions in one group, got %d", len(groups[0].Payments))
	}
}

func TestFindDuplicates_GroupMembershipIsExclusive(t *testing.T) {
	engine := newTestEngine(t, nil)
	base := time.Date(2024, 8, 1, 10, 0, 0, 0, time.UTC)

	// PAY-3 is within the window of PAY-2 but not of the seed PAY-1. Once
	// PAY-2 has been consumed by the first group, PAY-3 stands alone and no
	// second group forms.
	payments := []*models.Payment{
		createTimedPayment("PAY-1", "45000", "0712345678", base),
		createTimedPayment("PAY-2", "45000", "0712345678", base.Add(23*time.Hour)),
		createTimedPayment("PAY-3", "45000", "0712345678", base.Add(46*time.Hour)),
	}

	groups := engine.FindDuplicates(payments)
	if len(groups) != 1 {
		t.Fatalf("Expected 1 group, got %d", len(groups))
	}
	if len(groups[0].Payments) != 2 {
		t.Errorf("Expected 2 payments in the group, got %d", len(groups[0].Payments))
	}

	seen := make(map[string]int)
	for _, group := range groups {
		for _, payment := range group.Payments {
			seen[payment.ID]++
		}
	}
	for id, count := range seen {
		if count > 1 {
			t.Errorf("Payment %s appears in %d groups", id, count)
		}
	}
}

func TestFindDuplicates_EmptyAndSingle(t *testing.T) {
	engine := newTestEngine(t, nil)

	if groups := engine.FindDuplicates(nil); len(groups) != 0 {
		t.Errorf("Expected no groups for empty input, got %d", len(groups))
	}

	single := []*models.Payment{
		createTimedPayment("PAY-1", "45000", "0712345678", time.Now()),
	}
	if groups := engine.FindDuplicates(single); len(groups) != 0 {
		t.Errorf("Expected no groups for a single payment, got %d", len(groups))
	}
}
