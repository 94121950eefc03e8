package matcher

import (
	"strings"

	"github.com/GeorgeMwiki/BOSSNYUMBA101-sub016/internal/models"

	"github.com/shopspring/decimal"
)

// MatchSubtype names the way a field comparator fired; it appears in the
// human-readable reason trail.
type MatchSubtype string

const (
	SubtypeExact   MatchSubtype = "exact"
	SubtypeClose   MatchSubtype = "close"
	SubtypePartial MatchSubtype = "partial"
	SubtypeOver    MatchSubtype = "over"
	SubtypeUnit    MatchSubtype = "unit"
	SubtypeFuzzy   MatchSubtype = "fuzzy"
	SubtypeFull    MatchSubtype = "full"
	SubtypeToken   MatchSubtype = "token"
	SubtypeNone    MatchSubtype = "none"
)

// FieldScore is the judgment of a single field comparator for one
// payment-invoice pair. Missing or unusable data degrades to a zero score,
// never an error.
type FieldScore struct {
	Matched bool
	Score   float64
	Subtype MatchSubtype
}

func noFieldMatch() FieldScore {
	return FieldScore{Matched: false, Score: 0, Subtype: SubtypeNone}
}

// scorePhone compares the payment's originating phone number against the
// invoice tenant's phone. Both are reduced to their last nine digits; an
// exact match scores 1 and a last-eight-digit match scores 0.9, tolerating
// a single mistyped leading digit.
func (me *MatchingEngine) scorePhone(payment *models.Payment, invoice *models.Invoice) FieldScore {
	paymentPhone := models.NormalizePhone(payment.PhoneNumber)
	tenantPhone := models.NormalizePhone(invoice.TenantPhone)

	if paymentPhone == "" || tenantPhone == "" {
		return noFieldMatch()
	}

	if paymentPhone == tenantPhone {
		return FieldScore{Matched: true, Score: 1.0, Subtype: SubtypeExact}
	}

	if len(paymentPhone) >= 8 && len(tenantPhone) >= 8 &&
		paymentPhone[len(paymentPhone)-8:] == tenantPhone[len(tenantPhone)-8:] {
		return FieldScore{Matched: true, Score: 0.9, Subtype: SubtypeClose}
	}

	return noFieldMatch()
}

// scoreAmount compares the payment amount against the invoice balance.
// Within the configured tolerance of the balance counts as exact. An
// underpayment scores its paid ratio scaled by 0.8 so a small partial
// payment never outscores a full one; an overpayment scores the inverse
// ratio scaled by 0.7, as overshooting is weaker evidence than undershooting.
//
// The tolerance window is a percentage of the invoice balance, not of the
// payment amount; the asymmetry follows upstream billing policy.
func (me *MatchingEngine) scoreAmount(payment *models.Payment, invoice *models.Invoice) FieldScore {
	balance := invoice.Balance
	if !balance.IsPositive() {
		return noFieldMatch()
	}

	tolerance := balance.Mul(decimal.NewFromFloat(me.Config.AmountTolerancePercent / 100.0))
	difference := payment.Amount.Sub(balance).Abs()

	if difference.LessThanOrEqual(tolerance) {
		return FieldScore{Matched: true, Score: 1.0, Subtype: SubtypeExact}
	}

	if payment.Amount.LessThan(balance) {
		ratio := payment.Amount.Div(balance).InexactFloat64()
		return FieldScore{Matched: true, Score: ratio * 0.8, Subtype: SubtypePartial}
	}

	ratio := balance.Div(payment.Amount).InexactFloat64()
	return FieldScore{Matched: true, Score: ratio * 0.7, Subtype: SubtypeOver}
}

// scoreReference compares the payment's free-text account reference against
// the invoice identifier and the unit number. Tenants often key in the unit
// number rather than the invoice id, so a unit-number substring is accepted
// at 0.9; anything else falls back to fuzzy similarity with a high bar.
func (me *MatchingEngine) scoreReference(payment *models.Payment, invoice *models.Invoice) FieldScore {
	reference := strings.TrimSpace(payment.Reference)
	if reference == "" {
		return noFieldMatch()
	}

	if strings.EqualFold(reference, invoice.ID) {
		return FieldScore{Matched: true, Score: 1.0, Subtype: SubtypeExact}
	}

	unitNumber := strings.TrimSpace(invoice.UnitNumber)
	if unitNumber != "" && strings.Contains(strings.ToLower(reference), strings.ToLower(unitNumber)) {
		return FieldScore{Matched: true, Score: 0.9, Subtype: SubtypeUnit}
	}

	best := Similarity(reference, invoice.ID)
	if s := Similarity(reference, unitNumber); s > best {
		best = s
	}

	if best > 0.8 {
		return FieldScore{Matched: true, Score: best, Subtype: SubtypeFuzzy}
	}

	return noFieldMatch()
}

// scoreName compares the payer display name against the tenant display name.
// A whole-string similarity above 0.7 matches at that score. Otherwise both
// names are split on whitespace and any cross pair of tokens longer than two
// characters with similarity above 0.8 matches at a flat 0.7 — a shared
// first or last name is weaker evidence than a full-name match.
func (me *MatchingEngine) scoreName(payment *models.Payment, invoice *models.Invoice) FieldScore {
	payerName := strings.TrimSpace(payment.PayerName)
	tenantName := strings.TrimSpace(invoice.TenantName)

	if payerName == "" || tenantName == "" {
		return noFieldMatch()
	}

	if whole := Similarity(payerName, tenantName); whole > 0.7 {
		return FieldScore{Matched: true, Score: whole, Subtype: SubtypeFull}
	}

	for _, payerToken := range strings.Fields(payerName) {
		if len(payerToken) <= 2 {
			continue
		}
		for _, tenantToken := range strings.Fields(tenantName) {
			if len(tenantToken) <= 2 {
				continue
			}
			if Similarity(payerToken, tenantToken) > 0.8 {
				return FieldScore{Matched: true, Score: 0.7, Subtype: SubtypeToken}
			}
		}
	}

	return noFieldMatch()
}
