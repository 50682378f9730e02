package datastore

import (
	"time"

	"github.com/tphakala/radar-go/internal/errors"
	"github.com/tphakala/radar-go/internal/model"
)

// rawTextLimit bounds the stored text snapshot per analysis.
const rawTextLimit = 2000

// RecordAnalysis appends a new analysis row for the company and bumps the
// company's last-analyzed marker. Prior rows are never touched. A zero
// analyzedAt means "now"; explicit timestamps are honored so imports and
// tests can replay history.
func (ds *DataStore) RecordAnalysis(companyID uint, cls *model.Classification, rawText string, analyzedAt time.Time) error {
	if analyzedAt.IsZero() {
		analyzedAt = time.Now()
	}
	if len(rawText) > rawTextLimit {
		rawText = rawText[:rawTextLimit]
	}

	analysis := Analysis{
		CompanyID:  companyID,
		Category:   cls.Category.String(),
		Confidence: model.ClampConfidence(cls.Confidence),
		Rationale:  cls.Rationale,
		Biography:  cls.Biography,
		RawText:    rawText,
		AnalyzedAt: analyzedAt,
	}
	analysis.SetEvidence(cls.Evidence)

	tx := ds.DB.Begin()
	if tx.Error != nil {
		return errors.New(tx.Error).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "begin_record_analysis").
			Build()
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Create(&analysis).Error; err != nil {
		tx.Rollback()
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "insert_analysis").
			Context("company_id", companyID).
			Build()
	}

	// Only move the marker forward; an out-of-order historical insert must
	// not make the company look fresher or less fresh than its latest row.
	err := tx.Model(&Company{}).
		Where("id = ? AND (last_analyzed_at IS NULL OR last_analyzed_at < ?)", companyID, analyzedAt).
		Update("last_analyzed_at", analyzedAt).Error
	if err != nil {
		tx.Rollback()
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "update_last_analyzed").
			Context("company_id", companyID).
			Build()
	}

	if err := tx.Commit().Error; err != nil {
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "commit_record_analysis").
			Build()
	}
	return nil
}

// GetAnalyses returns the full analysis history of a company, newest first.
func (ds *DataStore) GetAnalyses(companyID uint) ([]Analysis, error) {
	var analyses []Analysis
	err := ds.DB.
		Where("company_id = ?", companyID).
		Order("analyzed_at DESC, id DESC").
		Find(&analyses).Error
	if err != nil {
		return nil, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "get_analyses").
			Context("company_id", companyID).
			Build()
	}
	return analyses, nil
}

type categoryCount struct {
	Category string
	Cnt      int
}

// GetStats returns the total company count and a per-category count over
// current analyses only. A superseded analysis never contributes.
func (ds *DataStore) GetStats() (*Stats, error) {
	var total int64
	if err := ds.DB.Model(&Company{}).Count(&total).Error; err != nil {
		return nil, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "count_companies").
			Build()
	}

	var counts []categoryCount
	err := ds.DB.Raw(`
		SELECT a.category AS category, COUNT(*) AS cnt
		FROM analyses a
		INNER JOIN (
			SELECT company_id, MAX(analyzed_at) AS max_at
			FROM analyses GROUP BY company_id
		) latest ON a.company_id = latest.company_id AND a.analyzed_at = latest.max_at
		GROUP BY a.category`).Scan(&counts).Error
	if err != nil {
		return nil, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "stats_by_category").
			Build()
	}

	stats := &Stats{
		Total:      int(total),
		ByCategory: make(map[model.Category]int, len(counts)),
	}
	for _, c := range counts {
		stats.ByCategory[model.ParseCategory(c.Category)] += c.Cnt
	}
	return stats, nil
}
