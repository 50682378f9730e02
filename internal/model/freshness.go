package model

import "time"

// FreshnessState classifies how current a company's analysis is. It is
// derived from (lastAnalyzedAt, confidence, now) and never stored.
type FreshnessState string

const (
	FreshnessPending   FreshnessState = "pending"   // never analyzed
	FreshnessFresh     FreshnessState = "fresh"     // recent and confident
	FreshnessStale     FreshnessState = "stale"     // outside the freshness window
	FreshnessUncertain FreshnessState = "uncertain" // low confidence or unknown category
)

// ClassifyFreshness derives the freshness state of an analysis. Uncertainty
// is checked before age: a low-confidence or unknown verdict is worth
// redoing regardless of how recent it is. The function is pure so identical
// inputs always classify identically.
func ClassifyFreshness(lastAnalyzedAt *time.Time, confidence int, category Category, now time.Time, windowDays, minConfidence int) FreshnessState {
	if lastAnalyzedAt == nil || lastAnalyzedAt.IsZero() {
		return FreshnessPending
	}
	if !category.Known() || confidence < minConfidence {
		return FreshnessUncertain
	}
	cutoff := now.AddDate(0, 0, -windowDays)
	if lastAnalyzedAt.Before(cutoff) {
		return FreshnessStale
	}
	return FreshnessFresh
}
