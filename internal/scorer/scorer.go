// Package scorer maps a current analysis to a bounded 1-10 maturity score
// for ranking. Scoring is pure: identical inputs always produce the same
// result, so leaderboards are stable across runs.
package scorer

import (
	"fmt"
	"strings"

	"github.com/tphakala/radar-go/internal/conf"
	"github.com/tphakala/radar-go/internal/model"
)

const (
	keywordBonusCap  = 3
	evidenceBonusCap = 2
)

// categoryBase holds the per-category starting points.
var categoryBase = map[model.Category]int{
	model.CategoryRealUse:     8,
	model.CategoryIntegration: 5,
	model.CategoryBuzzword:    2,
	model.CategoryNone:        0,
}

// Result is one scored company.
type Result struct {
	Score       int
	Level       string
	Badge       string
	Color       string
	Explanation string
}

// Scorer applies the configured advanced-keyword weights.
type Scorer struct {
	keywords []conf.AdvancedKeyword
}

// New creates a scorer from the scoring settings.
func New(settings *conf.Settings) *Scorer {
	return &Scorer{keywords: settings.Radar.Scoring.AdvancedKeywords}
}

// Score computes the maturity score from the current classification plus the
// raw website text. rawText may be empty; it only feeds the keyword bonus.
func (s *Scorer) Score(category model.Category, confidence int, evidence []string, rawText string) Result {
	score := categoryBase[category]
	score += confidenceBonus(confidence)

	keywordBonus := s.keywordBonus(rawText)
	score += keywordBonus

	evidenceCount := countNonEmpty(evidence)
	if evidenceCount > evidenceBonusCap {
		score += evidenceBonusCap
	} else {
		score += evidenceCount
	}

	score++
	if score < 1 {
		score = 1
	}
	if score > 10 {
		score = 10
	}

	level, badge, color := levelFor(score)
	return Result{
		Score:       score,
		Level:       level,
		Badge:       badge,
		Color:       color,
		Explanation: explanation(category, confidence, keywordBonus, evidenceCount),
	}
}

func confidenceBonus(confidence int) int {
	switch {
	case confidence >= 90:
		return 2
	case confidence >= 70:
		return 1
	case confidence >= 50:
		return 0
	default:
		return -1
	}
}

// keywordBonus scans the raw text for the weighted advanced-term list. The
// accumulated bonus saturates at keywordBonusCap.
func (s *Scorer) keywordBonus(rawText string) int {
	if rawText == "" {
		return 0
	}
	lower := strings.ToLower(rawText)
	bonus := 0
	for _, kw := range s.keywords {
		if kw.Term == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(kw.Term)) {
			bonus += kw.Points
			if bonus >= keywordBonusCap {
				return keywordBonusCap
			}
		}
	}
	return bonus
}

func countNonEmpty(items []string) int {
	n := 0
	for _, item := range items {
		if strings.TrimSpace(item) != "" {
			n++
		}
	}
	return n
}

func levelFor(score int) (level, badge, color string) {
	switch {
	case score >= 8:
		return "Pioneer", "🏆", "#27AE60"
	case score >= 6:
		return "Active", "⭐", "#2ECC71"
	case score >= 4:
		return "Starter", "🔵", "#3498DB"
	case score >= 2:
		return "Observer", "🟡", "#F1C40F"
	default:
		return "Inactive", "⚪", "#BDC3C7"
	}
}

func explanation(category model.Category, confidence, keywordBonus, evidenceCount int) string {
	var parts []string
	switch category {
	case model.CategoryRealUse:
		parts = append(parts, "productive use demonstrated")
	case model.CategoryIntegration:
		parts = append(parts, "integration underway")
	case model.CategoryBuzzword:
		parts = append(parts, "marketing mentions only")
	default:
		parts = append(parts, "no adoption identified")
	}
	if confidence >= 80 {
		parts = append(parts, fmt.Sprintf("high analysis confidence (%d%%)", confidence))
	}
	if keywordBonus > 0 {
		parts = append(parts, "advanced terminology found")
	}
	if evidenceCount > 0 {
		parts = append(parts, fmt.Sprintf("%d applications identified", evidenceCount))
	}
	return strings.Join(parts, " · ")
}
