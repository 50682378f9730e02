package conf

import "fmt"

// Validate checks settings for values that would break components at
// runtime. It is intentionally strict about ranges and silent about
// optional features (alerts, geocoding) that validate at point of use.
func (s *Settings) Validate() error {
	sc := s.Radar.Scraper
	if sc.TimeoutSeconds <= 0 {
		return fmt.Errorf("radar.scraper.timeout_seconds must be positive, got %d", sc.TimeoutSeconds)
	}
	if sc.MaxPages < 1 {
		return fmt.Errorf("radar.scraper.max_pages_per_site must be at least 1, got %d", sc.MaxPages)
	}
	if sc.DeepMaxPages < sc.MaxPages {
		return fmt.Errorf("radar.scraper.deep_max_pages_per_site (%d) must not be below max_pages_per_site (%d)",
			sc.DeepMaxPages, sc.MaxPages)
	}
	if sc.CharBudget <= 0 || sc.DeepCharBudget < sc.CharBudget {
		return fmt.Errorf("scraper char budgets invalid: char_budget=%d deep_char_budget=%d",
			sc.CharBudget, sc.DeepCharBudget)
	}

	fr := s.Radar.Freshness
	if fr.WindowDays <= 0 {
		return fmt.Errorf("radar.freshness.window_days must be positive, got %d", fr.WindowDays)
	}
	if fr.MinConfidence < 0 || fr.MinConfidence > 100 {
		return fmt.Errorf("radar.freshness.min_confidence must be 0-100, got %d", fr.MinConfidence)
	}

	if s.Output.SQLite.Path == "" {
		return fmt.Errorf("output.sqlite.path must not be empty")
	}
	return nil
}
