package datastore

import (
	stderrors "errors"
	"time"

	"gorm.io/gorm"

	"github.com/tphakala/radar-go/internal/errors"
	"github.com/tphakala/radar-go/internal/model"
)

// UpsertCompany inserts the company or, when a row with the same website
// already exists, merges the incoming fields into it. Merge rule: a
// non-empty incoming field overwrites, an empty incoming field never clears
// existing data. The merge is deterministic for identical inputs, which
// makes retried upserts idempotent. Returns the stable row id.
func (ds *DataStore) UpsertCompany(company *Company) (uint, error) {
	if company.Website == "" {
		return 0, errors.Newf("company %q has no website, cannot upsert", company.Name).
			Component("datastore").
			Category(errors.CategoryValidation).
			Build()
	}

	ds.upsertMu.Lock()
	defer ds.upsertMu.Unlock()

	var existing Company
	err := ds.DB.Where("website = ?", company.Website).First(&existing).Error
	switch {
	case stderrors.Is(err, gorm.ErrRecordNotFound):
		if createErr := ds.DB.Create(company).Error; createErr != nil {
			return 0, errors.New(createErr).
				Component("datastore").
				Category(errors.CategoryDatabase).
				Context("operation", "insert_company").
				Context("website", company.Website).
				Build()
		}
		return company.ID, nil
	case err != nil:
		return 0, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "lookup_company").
			Context("website", company.Website).
			Build()
	}

	mergeCompany(&existing, company)
	existing.UpdatedAt = time.Now()

	if err := ds.DB.Save(&existing).Error; err != nil {
		return 0, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "merge_company").
			Context("website", company.Website).
			Build()
	}
	return existing.ID, nil
}

// mergeCompany copies non-empty incoming fields onto the existing row.
func mergeCompany(existing, incoming *Company) {
	if incoming.Name != "" {
		existing.Name = incoming.Name
	}
	if incoming.Street != "" {
		existing.Street = incoming.Street
	}
	if incoming.City != "" {
		existing.City = incoming.City
	}
	if incoming.PostalCode != "" {
		existing.PostalCode = incoming.PostalCode
	}
	if incoming.Industry != "" {
		existing.Industry = incoming.Industry
	}
	if incoming.EmployeeCount != "" {
		existing.EmployeeCount = incoming.EmployeeCount
	}
	if incoming.LinkedIn != "" {
		existing.LinkedIn = incoming.LinkedIn
	}
	if incoming.Lat != nil && incoming.Lng != nil {
		existing.Lat = incoming.Lat
		existing.Lng = incoming.Lng
	}
}

// companyViewRow is the flat scan target for the GetCompanies join.
type companyViewRow struct {
	ID             uint
	Name           string
	Website        string
	Street         string
	City           string
	PostalCode     string
	Lat            *float64
	Lng            *float64
	Industry       string
	EmployeeCount  string
	LinkedIn       string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	LastAnalyzedAt *time.Time
	Category       *string
	Confidence     *int
	Evidence       *string
	Biography      *string
	AnalyzedAt     *time.Time
}

// GetCompanies returns every company joined with its current analysis,
// ordered by name. The current analysis is resolved inside the query (latest
// AnalyzedAt, id as tiebreaker), so the whole listing is one pass over the
// join rather than a query per company.
func (ds *DataStore) GetCompanies() ([]CompanyView, error) {
	var rows []companyViewRow
	err := ds.DB.Raw(`
		SELECT c.id, c.name, c.website, c.street, c.city, c.postal_code,
		       c.lat, c.lng, c.industry, c.employee_count, c.linked_in,
		       c.created_at, c.updated_at, c.last_analyzed_at,
		       a.category, a.confidence, a.evidence, a.biography, a.analyzed_at
		FROM companies c
		LEFT JOIN analyses a ON a.id = (
			SELECT id FROM analyses
			WHERE company_id = c.id
			ORDER BY analyzed_at DESC, id DESC
			LIMIT 1
		)
		ORDER BY c.name`).Scan(&rows).Error
	if err != nil {
		return nil, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "get_companies").
			Build()
	}

	views := make([]CompanyView, 0, len(rows))
	for i := range rows {
		views = append(views, rows[i].toView())
	}
	return views, nil
}

func (r *companyViewRow) toView() CompanyView {
	view := CompanyView{
		Company: Company{
			ID:             r.ID,
			Name:           r.Name,
			Website:        r.Website,
			Street:         r.Street,
			City:           r.City,
			PostalCode:     r.PostalCode,
			Lat:            r.Lat,
			Lng:            r.Lng,
			Industry:       r.Industry,
			EmployeeCount:  r.EmployeeCount,
			LinkedIn:       r.LinkedIn,
			CreatedAt:      r.CreatedAt,
			UpdatedAt:      r.UpdatedAt,
			LastAnalyzedAt: r.LastAnalyzedAt,
		},
		Category:   model.CategoryUnknown,
		Evidence:   []string{},
		AnalyzedAt: r.AnalyzedAt,
	}
	if r.Category != nil {
		view.Category = model.ParseCategory(*r.Category)
	}
	if r.Confidence != nil {
		view.Confidence = *r.Confidence
	}
	if r.Evidence != nil {
		a := Analysis{Evidence: *r.Evidence}
		view.Evidence = a.EvidenceList()
	}
	if r.Biography != nil {
		view.Biography = *r.Biography
	}
	return view
}

// GetCompanyByID returns a single company row.
func (ds *DataStore) GetCompanyByID(id uint) (*Company, error) {
	var company Company
	if err := ds.DB.First(&company, id).Error; err != nil {
		return nil, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "get_company").
			Context("company_id", id).
			Build()
	}
	return &company, nil
}

// CompaniesNeedingGeocode returns companies with an address but no
// coordinates yet.
func (ds *DataStore) CompaniesNeedingGeocode() ([]Company, error) {
	var companies []Company
	err := ds.DB.
		Where("(lat IS NULL OR lng IS NULL)").
		Where("(street != '' OR city != '')").
		Order("name").
		Find(&companies).Error
	if err != nil {
		return nil, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "companies_needing_geocode").
			Build()
	}
	return companies, nil
}

// SetCoordinates stores geocoded coordinates for a company.
func (ds *DataStore) SetCoordinates(companyID uint, lat, lng float64) error {
	err := ds.DB.Model(&Company{}).
		Where("id = ?", companyID).
		Updates(map[string]any{"lat": lat, "lng": lng}).Error
	if err != nil {
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "set_coordinates").
			Context("company_id", companyID).
			Build()
	}
	return nil
}
