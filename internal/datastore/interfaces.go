// interfaces.go defines the interface for the database operations.
package datastore

import (
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/tphakala/radar-go/internal/conf"
	"github.com/tphakala/radar-go/internal/model"
)

// Interface abstracts the underlying database implementation and is the
// single write path for all persisted state.
type Interface interface {
	Open() error
	Close() error

	// companies
	UpsertCompany(company *Company) (uint, error)
	GetCompanies() ([]CompanyView, error)
	GetCompanyByID(id uint) (*Company, error)
	CompaniesNeedingGeocode() ([]Company, error)
	SetCoordinates(companyID uint, lat, lng float64) error

	// analyses
	RecordAnalysis(companyID uint, cls *model.Classification, rawText string, analyzedAt time.Time) error
	GetAnalyses(companyID uint) ([]Analysis, error)
	GetStats() (*Stats, error)

	// activity log
	LogEvent(companyID *uint, eventType, message string) error
	GetRecentEvents(limit int) ([]EventView, error)
	GetUnalertedEvents() ([]EventView, error)
	MarkEventsAlerted(ids []uint) error

	// trend reports
	SaveTrendReport(text string, companiesCount int) error
	GetLatestTrendReport() (*TrendReport, error)
}

// CompanyView is a company joined with its current analysis, as returned by
// GetCompanies in a single pass over the join.
type CompanyView struct {
	Company
	Category   model.Category
	Confidence int
	Evidence   []string
	Biography  string
	AnalyzedAt *time.Time
}

// EventView is an activity log entry joined with the company it refers to.
type EventView struct {
	ActivityLogEntry
	CompanyName string
	Website     string
}

// Stats summarizes the registry: total companies and a count per category
// computed over current analyses only.
type Stats struct {
	Total      int
	ByCategory map[model.Category]int
}

// DataStore implements Interface using a GORM database.
type DataStore struct {
	DB *gorm.DB

	// serializes merge-upserts; reads and plain appends go through
	// SQLite's own locking
	upsertMu sync.Mutex
}

// New creates a store for the configured SQLite database file.
func New(settings *conf.Settings) Interface {
	return &SQLiteStore{
		Settings: settings,
	}
}
