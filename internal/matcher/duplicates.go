package matcher

import (
	"fmt"
	"time"

	"github.com/GeorgeMwiki/BOSSNYUMBA101-sub016/internal/models"
)

// duplicateWindow is the maximum transaction-time distance between two
// payments considered re-submissions of the same transaction.
const duplicateWindow = 24 * time.Hour

// DuplicateGroup represents payments that are likely re-submissions of the
// same underlying transaction: identical amount, identical normalized phone,
// and transaction times within the duplicate window.
type DuplicateGroup struct {
	Payments []*models.Payment `json:"payments"`
	GroupID  string            `json:"group_id"`
	Reason   string            `json:"reason"`
}

// FindDuplicates scans a payment batch, independently of any invoices, and
// returns groups of two or more likely duplicates. Each payment belongs to
// at most one group: once grouped it can neither seed nor join another.
//
// The scan is quadratic, which is fine for the typically-small daily batches
// this runs over.
func (me *MatchingEngine) FindDuplicates(payments []*models.Payment) []*DuplicateGroup {
	var groups []*DuplicateGroup
	checked := make(map[string]bool)

	for i, seed := range payments {
		if checked[seed.ID] {
			continue
		}
		checked[seed.ID] = true

		members := []*models.Payment{seed}
		seedPhone := models.NormalizePhone(seed.PhoneNumber)

		for j := i + 1; j < len(payments); j++ {
			candidate := payments[j]
			if checked[candidate.ID] {
				continue
			}

			if !isLikelyDuplicate(seed, seedPhone, candidate) {
				continue
			}

			members = append(members, candidate)
			checked[candidate.ID] = true
		}

		if len(members) >= 2 {
			groups = append(groups, &DuplicateGroup{
				Payments: members,
				GroupID:  fmt.Sprintf("DUP_%s", seed.ID),
				Reason:   duplicateReason(members),
			})
		}
	}

	return groups
}

// isLikelyDuplicate checks whether candidate looks like a re-submission of
// seed: same amount, same normalized phone, and close in time
func isLikelyDuplicate(seed *models.Payment, seedPhone string, candidate *models.Payment) bool {
	if !seed.Amount.Equal(candidate.Amount) {
		return false
	}

	if models.NormalizePhone(candidate.PhoneNumber) != seedPhone {
		return false
	}

	delta := seed.TransactionTime.Sub(candidate.TransactionTime)
	if delta < 0 {
		delta = -delta
	}

	return delta < duplicateWindow
}

// duplicateReason creates a human-readable explanation for a duplicate group
func duplicateReason(payments []*models.Payment) string {
	return fmt.Sprintf("Found %d payments of %s from the same phone number within 24 hours",
		len(payments), payments[0].Amount.String())
}
