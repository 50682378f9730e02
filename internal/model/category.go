// Package model defines the typed records shared across the radar pipeline.
package model

import "strings"

// Category is the closed classification of a company's topic adoption depth.
type Category string

const (
	CategoryRealUse     Category = "REAL_USE"
	CategoryIntegration Category = "INTEGRATION"
	CategoryBuzzword    Category = "BUZZWORD"
	CategoryNone        Category = "NONE"
	CategoryUnknown     Category = "UNKNOWN"
)

// categoryAliases maps spellings the LLM has been observed to produce onto
// the canonical enumeration. The German labels come from the prompt wording
// used for German-language regions.
var categoryAliases = map[string]Category{
	"REAL_USE":       CategoryRealUse,
	"ECHTER_EINSATZ": CategoryRealUse,
	"INTEGRATION":    CategoryIntegration,
	"BUZZWORD":       CategoryBuzzword,
	"NONE":           CategoryNone,
	"KEIN_KI":        CategoryNone,
	"UNKNOWN":        CategoryUnknown,
	"UNBEKANNT":      CategoryUnknown,
}

// ParseCategory normalizes a free-form category string to the closed
// enumeration. Anything unrecognized resolves to CategoryUnknown so
// downstream code never sees an open value.
func ParseCategory(s string) Category {
	key := strings.ToUpper(strings.TrimSpace(s))
	key = strings.ReplaceAll(key, " ", "_")
	key = strings.ReplaceAll(key, "-", "_")
	if c, ok := categoryAliases[key]; ok {
		return c
	}
	return CategoryUnknown
}

// Rank orders categories by maturity: REAL_USE > INTEGRATION > BUZZWORD >
// NONE > UNKNOWN. Higher is more mature.
func (c Category) Rank() int {
	switch c {
	case CategoryRealUse:
		return 4
	case CategoryIntegration:
		return 3
	case CategoryBuzzword:
		return 2
	case CategoryNone:
		return 1
	default:
		return 0
	}
}

func (c Category) String() string { return string(c) }

// Known reports whether the category carries an actual verdict.
func (c Category) Known() bool {
	return c != CategoryUnknown && c != ""
}
