package matcher

import (
	"fmt"
	"math"
	"sort"

	"github.com/GeorgeMwiki/BOSSNYUMBA101-sub016/internal/models"

	"github.com/shopspring/decimal"
)

// MatchingEngine is the core engine responsible for payment-invoice matching.
// It is read-only after construction and safe for concurrent use; every call
// operates only on its arguments and local state.
type MatchingEngine struct {
	Config *MatcherConfig
}

// MatchResult represents the outcome of matching one payment. Invoice is nil
// when no eligible invoice scored above zero; Reasons documents which field
// comparators fired and at what score, for the audit trail.
type MatchResult struct {
	Payment    *models.Payment `json:"payment"`
	Invoice    *models.Invoice `json:"invoice,omitempty"`
	Confidence float64         `json:"confidence"`
	MatchType  MatchType       `json:"match_type"`
	Reasons    []string        `json:"reasons"`
}

// ReconciliationSummary aggregates the results of one reconciliation run.
// Results are ordered by processing order (payment amount descending), not
// by the original input order.
type ReconciliationSummary struct {
	TotalPayments     int `json:"total_payments"`
	MatchedPayments   int `json:"matched_payments"`
	PartialMatches    int `json:"partial_matches"`
	UnmatchedPayments int `json:"unmatched_payments"`

	TotalAmountReceived decimal.Decimal `json:"total_amount_received"`
	TotalAmountMatched  decimal.Decimal `json:"total_amount_matched"`

	Results []*MatchResult `json:"results"`
}

// NewMatchingEngine creates a new matching engine. A nil config selects the
// defaults; an invalid config is rejected here rather than allowed to
// produce confidence values outside [0,1] later.
func NewMatchingEngine(config *MatcherConfig) (*MatchingEngine, error) {
	if config == nil {
		config = DefaultMatcherConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid matcher configuration: %w", err)
	}

	return &MatchingEngine{Config: config.Clone()}, nil
}

// MatchOne finds the best-scoring open invoice for a single payment.
//
// Candidates are filtered to open invoices (not paid, positive balance)
// before scoring. The candidate with the strictly greatest confidence wins;
// ties keep the first-seen candidate, so results are deterministic with
// respect to the candidate order — callers should keep it stable. A best
// confidence of zero yields a nil invoice and type none, and a best below
// the fuzzy threshold is downgraded: the best of a bad set must not be
// reported as better than its absolute confidence warrants.
func (me *MatchingEngine) MatchOne(payment *models.Payment, invoices []*models.Invoice) *MatchResult {
	result := &MatchResult{
		Payment:   payment,
		MatchType: MatchNone,
		Reasons:   []string{},
	}

	var bestInvoice *models.Invoice
	var bestScores fieldScores
	bestConfidence := 0.0

	for _, invoice := range invoices {
		if !invoice.IsOpen() {
			continue
		}

		scores := me.scoreFields(payment, invoice)
		confidence := me.combineScores(scores)

		if confidence > bestConfidence {
			bestConfidence = confidence
			bestInvoice = invoice
			bestScores = scores
		}
	}

	if bestInvoice == nil || bestConfidence == 0 {
		return result
	}

	result.Invoice = bestInvoice
	result.Confidence = bestConfidence
	result.MatchType = me.classifyConfidence(bestConfidence)
	result.Reasons = me.generateMatchReasons(bestScores)

	return result
}

// Reconcile runs the matcher over a whole payment batch against a whole
// invoice batch, enforcing that each invoice is claimed by at most one
// payment.
//
// Payments are processed in amount-descending order: large payments are less
// ambiguous and must not be starved of their correct invoice by a smaller
// payment claiming it first. This is a greedy single-pass assignment, not a
// global optimum, and is kept that way deliberately for reproducibility.
func (me *MatchingEngine) Reconcile(payments []*models.Payment, invoices []*models.Invoice) *ReconciliationSummary {
	ordered := make([]*models.Payment, len(payments))
	copy(ordered, payments)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Amount.GreaterThan(ordered[j].Amount)
	})

	claimed := make(map[string]bool)
	results := make([]*MatchResult, 0, len(ordered))

	for _, payment := range ordered {
		candidates := make([]*models.Invoice, 0, len(invoices))
		for _, invoice := range invoices {
			if claimed[invoice.ID] || !invoice.IsOpen() {
				continue
			}
			candidates = append(candidates, invoice)
		}

		result := me.MatchOne(payment, candidates)
		if result.MatchType != MatchNone && result.Invoice != nil {
			claimed[result.Invoice.ID] = true
		}

		results = append(results, result)
	}

	return me.summarize(payments, results)
}

// fieldScores holds the four per-field judgments for one candidate pair
type fieldScores struct {
	Phone     FieldScore
	Amount    FieldScore
	Reference FieldScore
	Name      FieldScore
}

// scoreFields runs the four field comparators for one payment-invoice pair
func (me *MatchingEngine) scoreFields(payment *models.Payment, invoice *models.Invoice) fieldScores {
	return fieldScores{
		Phone:     me.scorePhone(payment, invoice),
		Amount:    me.scoreAmount(payment, invoice),
		Reference: me.scoreReference(payment, invoice),
		Name:      me.scoreName(payment, invoice),
	}
}

// combineScores folds the four field scores into one weighted confidence
// value in [0,1]
func (me *MatchingEngine) combineScores(scores fieldScores) float64 {
	weights := me.Config.Weights
	return scores.Phone.Score*weights.Phone +
		scores.Amount.Score*weights.Amount +
		scores.Reference.Score*weights.Reference +
		scores.Name.Score*weights.Name
}

// classifyConfidence maps a confidence value to a match type. The exact
// (0.95) and partial (0.5) boundaries are fixed design constants; only the
// fuzzy band floor moves with the configured threshold.
func (me *MatchingEngine) classifyConfidence(confidence float64) MatchType {
	switch {
	case confidence >= 0.95:
		return MatchExact
	case confidence >= me.Config.FuzzyThreshold:
		return MatchFuzzy
	case confidence >= 0.5:
		return MatchPartial
	default:
		return MatchNone
	}
}

// generateMatchReasons builds the audit trail for the selected candidate.
// Only comparators that actually fired are reported.
func (me *MatchingEngine) generateMatchReasons(scores fieldScores) []string {
	reasons := []string{}

	appendReason := func(field string, score FieldScore) {
		if !score.Matched {
			return
		}
		reasons = append(reasons, fmt.Sprintf("%s %s (%d%%)",
			field, score.Subtype, int(math.Round(score.Score*100))))
	}

	appendReason("Phone", scores.Phone)
	appendReason("Amount", scores.Amount)
	appendReason("Reference", scores.Reference)
	appendReason("Name", scores.Name)

	return reasons
}

// summarize computes the aggregate totals for a reconciliation run
func (me *MatchingEngine) summarize(payments []*models.Payment, results []*MatchResult) *ReconciliationSummary {
	summary := &ReconciliationSummary{
		TotalPayments:       len(payments),
		TotalAmountReceived: decimal.Zero,
		TotalAmountMatched:  decimal.Zero,
		Results:             results,
	}

	for _, payment := range payments {
		summary.TotalAmountReceived = summary.TotalAmountReceived.Add(payment.Amount)
	}

	for _, result := range results {
		switch result.MatchType {
		case MatchExact, MatchFuzzy:
			summary.MatchedPayments++
			summary.TotalAmountMatched = summary.TotalAmountMatched.Add(result.Payment.Amount)
		case MatchPartial:
			summary.PartialMatches++
		case MatchNone:
			summary.UnmatchedPayments++
		}
	}

	return summary
}

// PaymentStatus returns the payment status a caller should stamp on a
// payment that received this match type
func (mt MatchType) PaymentStatus() models.PaymentStatus {
	switch mt {
	case MatchExact, MatchFuzzy:
		return models.PaymentStatusMatched
	case MatchPartial:
		return models.PaymentStatusPartial
	default:
		return models.PaymentStatusUnmatched
	}
}

// GetConfiguration returns a copy of the current configuration
func (me *MatchingEngine) GetConfiguration() *MatcherConfig {
	return me.Config.Clone()
}

// UpdateConfiguration replaces the engine configuration after validating it
func (me *MatchingEngine) UpdateConfiguration(config *MatcherConfig) error {
	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	me.Config = config.Clone()
	return nil
}
