// Package matcher implements the payment reconciliation matching engine.
//
// The engine scores an incoming payment against candidate tenant invoices
// using four independent field comparators, handling the noisy identifying
// data that mobile-money settlement feeds carry:
//   - Phone numbers with separator and country-code variants
//   - Amounts that under- or over-shoot the invoice balance
//   - Free-text account references that may name the invoice or the unit
//   - Misspelled or partial customer names
//
// Matching proceeds in three stages:
//  1. Per-field scoring of each eligible invoice candidate
//  2. Weighted confidence aggregation and classification
//  3. Best-candidate selection with a deterministic first-seen tie-break
//
// Example usage:
//
//	config := matcher.DefaultMatcherConfig()
//	config.AmountTolerancePercent = 0.5
//
//	engine, err := matcher.NewMatchingEngine(config)
//	result := engine.MatchOne(payment, invoices)
//	summary := engine.Reconcile(payments, invoices)
package matcher

import (
	"fmt"
)

// MatchType classifies the confidence of a payment-invoice match.
// The classification determines how much manual review is required.
type MatchType int

const (
	// MatchExact represents a near-certain match (confidence >= 0.95).
	// These matches usually require no manual review.
	MatchExact MatchType = iota

	// MatchFuzzy represents a match at or above the configured fuzzy
	// threshold but below exact confidence. Safe to auto-apply, worth
	// sampling in audits.
	MatchFuzzy

	// MatchPartial represents a plausible but uncertain match
	// (confidence in [0.5, threshold)). Requires manual review.
	MatchPartial

	// MatchNone indicates no invoice scored high enough to report.
	MatchNone
)

// String returns the string representation of MatchType
func (mt MatchType) String() string {
	switch mt {
	case MatchExact:
		return "exact"
	case MatchFuzzy:
		return "fuzzy"
	case MatchPartial:
		return "partial"
	case MatchNone:
		return "none"
	default:
		return "unknown"
	}
}

// MatcherConfig holds the tunable parameters of the matching engine.
//
// The four field weights express the relative evidentiary value of each
// comparator and must sum to approximately 1.0 — the sum is the maximum
// attainable confidence, so changing the weights changes the meaning of the
// classification thresholds. Weights and thresholds are therefore validated
// together at construction time.
type MatcherConfig struct {
	// Weights are the relative importance of each field comparator
	Weights FieldWeights `json:"weights"`

	// FuzzyThreshold is the minimum confidence for an automatic match (0.0 to 1.0)
	FuzzyThreshold float64 `json:"fuzzy_threshold"`

	// AmountTolerancePercent is the exact-amount tolerance as a percentage
	// of the invoice balance (0.0 to 100.0)
	AmountTolerancePercent float64 `json:"amount_tolerance_percent"`
}

// FieldWeights defines the relative importance of the four field comparators
type FieldWeights struct {
	Phone     float64 `json:"phone_weight"`
	Amount    float64 `json:"amount_weight"`
	Reference float64 `json:"reference_weight"`
	Name      float64 `json:"name_weight"`
}

// DefaultMatcherConfig returns a configuration with the production defaults:
// phone and amount dominate, reference and name break ties.
func DefaultMatcherConfig() *MatcherConfig {
	return &MatcherConfig{
		Weights: FieldWeights{
			Phone:     0.35,
			Amount:    0.35,
			Reference: 0.20,
			Name:      0.10,
		},
		FuzzyThreshold:         0.70,
		AmountTolerancePercent: 1.0,
	}
}

// StrictMatcherConfig returns a configuration that only auto-applies
// high-confidence matches and allows no amount drift
func StrictMatcherConfig() *MatcherConfig {
	return &MatcherConfig{
		Weights: FieldWeights{
			Phone:     0.35,
			Amount:    0.35,
			Reference: 0.20,
			Name:      0.10,
		},
		FuzzyThreshold:         0.85,
		AmountTolerancePercent: 0.0,
	}
}

// RelaxedMatcherConfig returns a configuration for exploratory matching
// over poor-quality feeds
func RelaxedMatcherConfig() *MatcherConfig {
	return &MatcherConfig{
		Weights: FieldWeights{
			Phone:     0.30,
			Amount:    0.30,
			Reference: 0.25,
			Name:      0.15,
		},
		FuzzyThreshold:         0.60,
		AmountTolerancePercent: 2.5,
	}
}

// Validate checks if the matcher configuration is valid. Invalid weights or
// thresholds would silently produce confidence values outside [0,1], so they
// are rejected eagerly instead.
func (mc *MatcherConfig) Validate() error {
	if err := mc.Weights.Validate(); err != nil {
		return fmt.Errorf("invalid weights: %w", err)
	}

	if mc.FuzzyThreshold < 0.0 || mc.FuzzyThreshold > 1.0 {
		return fmt.Errorf("fuzzy threshold must be between 0.0 and 1.0: %f", mc.FuzzyThreshold)
	}

	if mc.AmountTolerancePercent < 0.0 || mc.AmountTolerancePercent > 100.0 {
		return fmt.Errorf("amount tolerance percent must be between 0.0 and 100.0: %f", mc.AmountTolerancePercent)
	}

	return nil
}

// Validate checks if the field weights are valid
func (fw *FieldWeights) Validate() error {
	if fw.Phone < 0.0 || fw.Phone > 1.0 {
		return fmt.Errorf("phone weight must be between 0.0 and 1.0: %f", fw.Phone)
	}

	if fw.Amount < 0.0 || fw.Amount > 1.0 {
		return fmt.Errorf("amount weight must be between 0.0 and 1.0: %f", fw.Amount)
	}

	if fw.Reference < 0.0 || fw.Reference > 1.0 {
		return fmt.Errorf("reference weight must be between 0.0 and 1.0: %f", fw.Reference)
	}

	if fw.Name < 0.0 || fw.Name > 1.0 {
		return fmt.Errorf("name weight must be between 0.0 and 1.0: %f", fw.Name)
	}

	// The sum is the maximum attainable confidence; classification thresholds
	// assume it is 1.0
	total := fw.Phone + fw.Amount + fw.Reference + fw.Name
	if total < 0.99 || total > 1.01 {
		return fmt.Errorf("weights must sum to 1.0, got %f", total)
	}

	return nil
}

// Clone creates a deep copy of the matcher configuration
func (mc *MatcherConfig) Clone() *MatcherConfig {
	if mc == nil {
		return nil
	}

	clone := *mc
	return &clone
}

// String returns a human-readable description of the configuration
func (mc *MatcherConfig) String() string {
	return fmt.Sprintf("MatcherConfig{Weights: phone=%.2f amount=%.2f reference=%.2f name=%.2f, FuzzyThreshold: %.2f, AmountTolerance: %.2f%%}",
		mc.Weights.Phone, mc.Weights.Amount, mc.Weights.Reference, mc.Weights.Name,
		mc.FuzzyThreshold, mc.AmountTolerancePercent)
}
