package conf

import "github.com/spf13/viper"

// setDefaults registers a default for every configuration key so a missing
// or partial config file still yields a fully populated Settings struct.
func setDefaults(v *viper.Viper) {
	v.SetDefault("debug", false)

	v.SetDefault("radar.name", "Regional Radar")
	v.SetDefault("radar.topic", "AI adoption")
	v.SetDefault("radar.region", "")
	v.SetDefault("radar.keywords", []string{
		"ki", "künstliche intelligenz", "artificial intelligence", "machine learning",
		"deep learning", "chatbot", "automatisierung", "data science",
	})

	v.SetDefault("radar.scraper.user_agent", "RadarBot/1.0")
	v.SetDefault("radar.scraper.accept_language", "de-DE,de;q=0.9,en;q=0.8")
	v.SetDefault("radar.scraper.timeout_seconds", 15)
	v.SetDefault("radar.scraper.max_pages_per_site", 5)
	v.SetDefault("radar.scraper.deep_max_pages_per_site", 10)
	v.SetDefault("radar.scraper.delay_between_requests", 2)
	v.SetDefault("radar.scraper.char_budget", 8000)
	v.SetDefault("radar.scraper.deep_char_budget", 16000)
	v.SetDefault("radar.scraper.min_subpage_chars", 200)
	// Priority order: topic terms first, generic pages last.
	v.SetDefault("radar.scraper.link_keywords", []string{
		"ki", "ai", "digital", "innovation", "technologie",
		"produkt", "leistung", "loesung", "ueber", "about", "news",
	})

	v.SetDefault("radar.llm.model", "gpt-4o-mini")
	v.SetDefault("radar.llm.temperature", 0.3)
	v.SetDefault("radar.llm.max_tokens", 1000)
	v.SetDefault("radar.llm.api_key_env", "OPENAI_API_KEY")
	v.SetDefault("radar.llm.classification_prompt", defaultClassificationPrompt)
	v.SetDefault("radar.llm.biography_prompt", defaultBiographyPrompt)
	v.SetDefault("radar.llm.trend_prompt", defaultTrendPrompt)

	v.SetDefault("radar.freshness.window_days", 30)
	v.SetDefault("radar.freshness.min_confidence", 50)
	v.SetDefault("radar.freshness.batch_delay_seconds", 2)

	v.SetDefault("radar.scoring.advanced_keywords", defaultAdvancedKeywords())

	v.SetDefault("radar.geocoder.endpoint", "https://nominatim.openstreetmap.org/search")
	v.SetDefault("radar.geocoder.country_codes", "de")
	v.SetDefault("radar.geocoder.timeout_seconds", 10)
	v.SetDefault("radar.geocoder.delay_millis", 1000)
	v.SetDefault("radar.geocoder.cache_ttl_minutes", 720)

	v.SetDefault("radar.alerts.enabled", false)
	v.SetDefault("radar.alerts.smtp_host", "smtp.gmail.com")
	v.SetDefault("radar.alerts.smtp_port", 587)
	v.SetDefault("radar.alerts.from_email", "")
	v.SetDefault("radar.alerts.to_email", "")
	v.SetDefault("radar.alerts.password_env", "RADAR_SMTP_PASSWORD")
	v.SetDefault("radar.alerts.trigger_keywords", []string{})

	v.SetDefault("radar.import.sheet_name", "Unternehmen")

	v.SetDefault("output.sqlite.path", "data/radar.db")
}

// defaultAdvancedKeywords returns the weighted term list for the maturity
// score keyword bonus.
func defaultAdvancedKeywords() []map[string]any {
	terms := []struct {
		term   string
		points int
	}{
		{"machine learning", 3}, {"deep learning", 3}, {"neural network", 3},
		{"computer vision", 3}, {"llm", 3}, {"nlp", 2}, {"gpt", 2},
		{"robotik", 2}, {"prädiktiv", 2}, {"predictive", 2}, {"ki-gestützt", 2},
		{"automatisierung", 1}, {"künstliche intelligenz", 1}, {"algorithmus", 1},
		{"datenanalyse", 1}, {"chatbot", 1},
	}
	out := make([]map[string]any, 0, len(terms))
	for _, t := range terms {
		out = append(out, map[string]any{"term": t.term, "points": t.points})
	}
	return out
}

const defaultClassificationPrompt = `You classify how deeply a company uses the analyzed topic, based on its website text.
Choose exactly one category:
- REAL_USE: the topic is demonstrably in productive use
- INTEGRATION: concrete integration or rollout is underway
- BUZZWORD: the topic appears only as marketing language
- NONE: no mention or relevance
Respond as a JSON object with the keys:
"category" (one of the four values above),
"rationale" (short justification),
"evidence" (array of short strings naming concrete applications found),
"confidence" (integer 0-100).`

const defaultBiographyPrompt = `You write a short, factual company profile (at most 150 words) from website text.
No marketing superlatives, no speculation beyond the provided material.`

const defaultTrendPrompt = `You are a regional business analyst. From the per-company classification data you
receive, write a structured trend report: overall adoption level, notable clusters by
industry, standout companies, and gaps. Be concrete and reference the data.`
