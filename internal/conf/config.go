// Package conf loads the YAML configuration into an explicit Settings
// struct. Settings are loaded once at process start and passed by injection
// to every component constructor; nothing reads viper after Load returns.
package conf

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

//go:embed config.yaml
var defaultConfig []byte

// Settings is the root configuration object.
type Settings struct {
	Debug  bool           `mapstructure:"debug"`
	Radar  RadarSettings  `mapstructure:"radar"`
	Output OutputSettings `mapstructure:"output"`
}

// RadarSettings groups the domain configuration.
type RadarSettings struct {
	Name      string            `mapstructure:"name"`
	Topic     string            `mapstructure:"topic"`
	Region    string            `mapstructure:"region"`
	Keywords  []string          `mapstructure:"keywords"`
	Scraper   ScraperSettings   `mapstructure:"scraper"`
	LLM       LLMSettings       `mapstructure:"llm"`
	Freshness FreshnessSettings `mapstructure:"freshness"`
	Scoring   ScoringSettings   `mapstructure:"scoring"`
	Geocoder  GeocoderSettings  `mapstructure:"geocoder"`
	Alerts    AlertSettings     `mapstructure:"alerts"`
	Import    ImportSettings    `mapstructure:"import"`
}

// ScraperSettings controls the site fetcher.
type ScraperSettings struct {
	UserAgent       string   `mapstructure:"user_agent"`
	AcceptLanguage  string   `mapstructure:"accept_language"`
	TimeoutSeconds  int      `mapstructure:"timeout_seconds"`
	MaxPages        int      `mapstructure:"max_pages_per_site"`
	DeepMaxPages    int      `mapstructure:"deep_max_pages_per_site"`
	DelaySeconds    int      `mapstructure:"delay_between_requests"`
	CharBudget      int      `mapstructure:"char_budget"`
	DeepCharBudget  int      `mapstructure:"deep_char_budget"`
	MinSubpageChars int      `mapstructure:"min_subpage_chars"`
	LinkKeywords    []string `mapstructure:"link_keywords"` // priority order, first scores highest
}

// LLMSettings controls the chat-completion calls.
type LLMSettings struct {
	Model                string  `mapstructure:"model"`
	Temperature          float32 `mapstructure:"temperature"`
	MaxTokens            int     `mapstructure:"max_tokens"`
	APIKeyEnv            string  `mapstructure:"api_key_env"`
	ClassificationPrompt string  `mapstructure:"classification_prompt"`
	BiographyPrompt      string  `mapstructure:"biography_prompt"`
	TrendPrompt          string  `mapstructure:"trend_prompt"`
}

// FreshnessSettings holds the re-analysis policy. These encode business
// judgment, not algorithmic necessity, which is why they live in config.
type FreshnessSettings struct {
	WindowDays        int `mapstructure:"window_days"`
	MinConfidence     int `mapstructure:"min_confidence"`
	BatchDelaySeconds int `mapstructure:"batch_delay_seconds"`
}

// AdvancedKeyword is one weighted term for the maturity score bonus.
type AdvancedKeyword struct {
	Term   string `mapstructure:"term"`
	Points int    `mapstructure:"points"`
}

// ScoringSettings exposes the maturity score weights.
type ScoringSettings struct {
	AdvancedKeywords []AdvancedKeyword `mapstructure:"advanced_keywords"`
}

// GeocoderSettings controls the address lookup client.
type GeocoderSettings struct {
	Endpoint        string `mapstructure:"endpoint"`
	CountryCodes    string `mapstructure:"country_codes"`
	TimeoutSeconds  int    `mapstructure:"timeout_seconds"`
	DelayMillis     int    `mapstructure:"delay_millis"`
	CacheTTLMinutes int    `mapstructure:"cache_ttl_minutes"`
}

// AlertSettings controls the email digest.
type AlertSettings struct {
	Enabled         bool     `mapstructure:"enabled"`
	SMTPHost        string   `mapstructure:"smtp_host"`
	SMTPPort        int      `mapstructure:"smtp_port"`
	FromEmail       string   `mapstructure:"from_email"`
	ToEmail         string   `mapstructure:"to_email"`
	PasswordEnv     string   `mapstructure:"password_env"`
	TriggerKeywords []string `mapstructure:"trigger_keywords"`
}

// ImportSettings controls spreadsheet import.
type ImportSettings struct {
	SheetName string `mapstructure:"sheet_name"`
}

// OutputSettings groups persistence configuration.
type OutputSettings struct {
	SQLite SQLiteSettings `mapstructure:"sqlite"`
}

// SQLiteSettings points at the single-file database.
type SQLiteSettings struct {
	Path string `mapstructure:"path"`
}

// Load reads the configuration file and returns the populated Settings.
// A missing config file is not an error: defaults cover every key.
func Load(configPath string) (*Settings, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "radar-go"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if configPath != "" {
			return nil, fmt.Errorf("error reading config file %s: %w", configPath, err)
		}
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
		// No config file anywhere on the search path: defaults apply.
	}

	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

// WriteDefaultConfig writes the embedded starter configuration to the given
// path if no file exists there yet.
func WriteDefaultConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
	}
	return os.WriteFile(path, defaultConfig, 0o644)
}
