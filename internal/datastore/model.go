// model.go defines the persisted entities of the radar database.
package datastore

import (
	"encoding/json"
	"time"
)

// Company is a registered business entity. The website URL is the natural
// unique key: two companies can never share one.
type Company struct {
	ID             uint       `gorm:"primaryKey"`
	Name           string     `gorm:"index:idx_companies_name;not null"`
	Website        string     `gorm:"uniqueIndex:idx_companies_website;not null"`
	Street         string
	City           string
	PostalCode     string
	Lat            *float64   // nil until geocoded
	Lng            *float64
	Industry       string
	EmployeeCount  string
	LinkedIn       string     // company-page URL, empty if none found
	CreatedAt      time.Time
	UpdatedAt      time.Time
	LastAnalyzedAt *time.Time `gorm:"index:idx_companies_last_analyzed"`
}

// HasCoordinates reports whether the company has been geocoded.
func (c *Company) HasCoordinates() bool {
	return c.Lat != nil && c.Lng != nil
}

// Analysis is one classification result for a company. Rows are append-only;
// the current analysis is always the one with the latest AnalyzedAt.
type Analysis struct {
	ID         uint      `gorm:"primaryKey"`
	CompanyID  uint      `gorm:"index:idx_analyses_company;not null"`
	Category   string    `gorm:"index:idx_analyses_category"`
	Confidence int
	Rationale  string    `gorm:"type:text"`
	Evidence   string    `gorm:"type:text"` // JSON-encoded []string, see EvidenceList
	Biography  string    `gorm:"type:text"`
	RawText    string    `gorm:"type:text"` // bounded snapshot of the scraped text
	AnalyzedAt time.Time `gorm:"index:idx_analyses_analyzed_at"`
}

// EvidenceList decodes the JSON-encoded evidence column. A malformed or
// empty column yields an empty slice, never an error.
func (a *Analysis) EvidenceList() []string {
	if a.Evidence == "" {
		return []string{}
	}
	var out []string
	if err := json.Unmarshal([]byte(a.Evidence), &out); err != nil {
		return []string{}
	}
	return out
}

// SetEvidence encodes the evidence list into the storage column.
func (a *Analysis) SetEvidence(evidence []string) {
	if evidence == nil {
		evidence = []string{}
	}
	data, err := json.Marshal(evidence)
	if err != nil {
		a.Evidence = "[]"
		return
	}
	a.Evidence = string(data)
}

// ActivityLogEntry is an append-only audit trail event, optionally tied to
// a company.
type ActivityLogEntry struct {
	ID        uint  `gorm:"primaryKey"`
	CompanyID *uint `gorm:"index:idx_activity_company"` // nil for system-wide events
	EventType string
	Message   string `gorm:"type:text"`
	Alerted   bool   `gorm:"index:idx_activity_alerted"`
	CreatedAt time.Time
}

// TrendReport is a cached narrative over the whole dataset at a point in
// time. Append-only; the latest row is the current report.
type TrendReport struct {
	ID             uint   `gorm:"primaryKey"`
	ReportText     string `gorm:"type:text"`
	CompaniesCount int
	CreatedAt      time.Time `gorm:"index:idx_trend_reports_created"`
}
