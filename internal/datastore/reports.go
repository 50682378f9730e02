package datastore

import (
	stderrors "errors"

	"gorm.io/gorm"

	"github.com/tphakala/radar-go/internal/errors"
)

// SaveTrendReport appends a generated trend report.
func (ds *DataStore) SaveTrendReport(text string, companiesCount int) error {
	report := TrendReport{
		ReportText:     text,
		CompaniesCount: companiesCount,
	}
	if err := ds.DB.Create(&report).Error; err != nil {
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "save_trend_report").
			Build()
	}
	return nil
}

// GetLatestTrendReport returns the newest trend report, or nil when none
// has been generated yet.
func (ds *DataStore) GetLatestTrendReport() (*TrendReport, error) {
	var report TrendReport
	err := ds.DB.Order("created_at DESC, id DESC").First(&report).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "get_latest_trend_report").
			Build()
	}
	return &report, nil
}
