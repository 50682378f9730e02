package model

// Classification is the structured verdict produced by the classifier for
// one company at one point in time.
type Classification struct {
	Category   Category // closed enumeration, never empty
	Confidence int      // 0-100, classifier's self-reported certainty
	Rationale  string   // free-text justification
	Evidence   []string // concrete applications found on the site
	Biography  string   // optional narrative text, may be empty
}

// ClampConfidence bounds a raw confidence value to the valid 0-100 range.
func ClampConfidence(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
