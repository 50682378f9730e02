package datastore

import (
	"time"

	"github.com/tphakala/radar-go/internal/errors"
)

// LogEvent appends an entry to the activity log. companyID may be nil for
// system-wide events such as bulk imports.
func (ds *DataStore) LogEvent(companyID *uint, eventType, message string) error {
	entry := ActivityLogEntry{
		CompanyID: companyID,
		EventType: eventType,
		Message:   message,
	}
	if err := ds.DB.Create(&entry).Error; err != nil {
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "log_event").
			Context("event_type", eventType).
			Build()
	}
	return nil
}

const eventJoinSelect = `
	SELECT l.id, l.company_id, l.event_type, l.message, l.alerted, l.created_at,
	       COALESCE(c.name, '') AS company_name,
	       COALESCE(c.website, '') AS website
	FROM activity_log_entries l
	LEFT JOIN companies c ON c.id = l.company_id`

type eventViewRow struct {
	ID          uint
	CompanyID   *uint
	EventType   string
	Message     string
	Alerted     bool
	CreatedAt   time.Time
	CompanyName string
	Website     string
}

// GetRecentEvents returns the newest log entries with company names joined.
func (ds *DataStore) GetRecentEvents(limit int) ([]EventView, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []eventViewRow
	err := ds.DB.Raw(eventJoinSelect+`
		ORDER BY l.created_at DESC, l.id DESC
		LIMIT ?`, limit).Scan(&rows).Error
	if err != nil {
		return nil, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "get_recent_events").
			Build()
	}
	return toEventViews(rows), nil
}

// GetUnalertedEvents returns all log entries not yet included in an alert
// digest, newest first.
func (ds *DataStore) GetUnalertedEvents() ([]EventView, error) {
	var rows []eventViewRow
	err := ds.DB.Raw(eventJoinSelect+`
		WHERE l.alerted = ?
		ORDER BY l.created_at DESC, l.id DESC`, false).Scan(&rows).Error
	if err != nil {
		return nil, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "get_unalerted_events").
			Build()
	}
	return toEventViews(rows), nil
}

// MarkEventsAlerted flags the given log entries as delivered.
func (ds *DataStore) MarkEventsAlerted(ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	err := ds.DB.Model(&ActivityLogEntry{}).
		Where("id IN ?", ids).
		Update("alerted", true).Error
	if err != nil {
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "mark_events_alerted").
			Context("count", len(ids)).
			Build()
	}
	return nil
}

func toEventViews(rows []eventViewRow) []EventView {
	views := make([]EventView, 0, len(rows))
	for i := range rows {
		views = append(views, EventView{
			ActivityLogEntry: ActivityLogEntry{
				ID:        rows[i].ID,
				CompanyID: rows[i].CompanyID,
				EventType: rows[i].EventType,
				Message:   rows[i].Message,
				Alerted:   rows[i].Alerted,
				CreatedAt: rows[i].CreatedAt,
			},
			CompanyName: rows[i].CompanyName,
			Website:     rows[i].Website,
		})
	}
	return views
}
