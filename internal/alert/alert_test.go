package alert

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/radar-go/internal/conf"
	"github.com/tphakala/radar-go/internal/datastore"
)

type fakeSender struct {
	sent  []string
	title string
	err   error
}

func (f *fakeSender) Send(title, body string) error {
	if f.err != nil {
		return f.err
	}
	f.title = title
	f.sent = append(f.sent, body)
	return nil
}

func testSettings(enabled bool, triggerKeywords []string) *conf.Settings {
	s := &conf.Settings{}
	s.Radar.Name = "Stormarn Radar"
	s.Radar.Region = "Kreis Stormarn"
	s.Radar.Alerts = conf.AlertSettings{
		Enabled:         enabled,
		TriggerKeywords: triggerKeywords,
	}
	return s
}

func newTestStore(t *testing.T) datastore.Interface {
	t.Helper()
	settings := &conf.Settings{}
	settings.Output.SQLite.Path = filepath.Join(t.TempDir(), "radar-test.db")
	store := datastore.New(settings)
	require.NoError(t, store.Open())
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func seedEvent(t *testing.T, store datastore.Interface, eventType, message string) {
	t.Helper()
	id, err := store.UpsertCompany(&datastore.Company{
		Name:    "Acme GmbH",
		Website: fmt.Sprintf("https://acme-%d.example", time.Now().UnixNano()),
	})
	require.NoError(t, err)
	require.NoError(t, store.LogEvent(&id, eventType, message))
}

func TestRunDisabled(t *testing.T) {
	store := newTestStore(t)
	a := NewWithSender(testSettings(false, nil), store, &fakeSender{})

	result, err := a.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusDisabled, result.Status)
}

func TestRunNoNewEvents(t *testing.T) {
	store := newTestStore(t)
	a := NewWithSender(testSettings(true, nil), store, &fakeSender{})

	result, err := a.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusNoNewEvents, result.Status)
}

func TestRunSendsAndMarksAlerted(t *testing.T) {
	store := newTestStore(t)
	seedEvent(t, store, "ANALYSIS", "Acme GmbH: REAL_USE (85% confidence)")
	seedEvent(t, store, "CATEGORY_CHANGE", "Acme GmbH: category changed BUZZWORD -> REAL_USE")

	sender := &fakeSender{}
	a := NewWithSender(testSettings(true, nil), store, sender)

	result, err := a.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusSent, result.Status)
	assert.Equal(t, 2, result.Count)

	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.title, "Stormarn Radar")
	assert.Contains(t, sender.title, "2 new activities")
	assert.Contains(t, sender.sent[0], "REAL_USE (85% confidence)")
	assert.Contains(t, sender.sent[0], "Acme GmbH")

	// Second run sees nothing new.
	again, err := a.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusNoNewEvents, again.Status)
}

func TestRunFiltersByTriggerKeywords(t *testing.T) {
	store := newTestStore(t)
	seedEvent(t, store, "ANALYSIS", "Acme GmbH: NONE (60% confidence)")
	seedEvent(t, store, "CATEGORY_CHANGE", "Acme GmbH: category changed NONE -> REAL_USE")

	sender := &fakeSender{}
	a := NewWithSender(testSettings(true, []string{"category_change"}), store, sender)

	result, err := a.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusSent, result.Status)
	assert.Equal(t, 1, result.Count)
	assert.NotContains(t, sender.sent[0], "NONE (60%")
}

func TestRunNoRelevantEvents(t *testing.T) {
	store := newTestStore(t)
	seedEvent(t, store, "ANALYSIS", "Acme GmbH: NONE (60% confidence)")

	a := NewWithSender(testSettings(true, []string{"real_use"}), store, &fakeSender{})

	result, err := a.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusNoRelevantEvents, result.Status)
}

func TestRunDeliveryFailureKeepsEventsUnalerted(t *testing.T) {
	store := newTestStore(t)
	seedEvent(t, store, "ANALYSIS", "Acme GmbH: REAL_USE (85% confidence)")

	a := NewWithSender(testSettings(true, nil), store, &fakeSender{err: fmt.Errorf("smtp timeout")})

	result, err := a.Run(context.Background())
	require.NoError(t, err, "delivery failure is a result, not an error")
	assert.Equal(t, StatusError, result.Status)

	unalerted, err := store.GetUnalertedEvents()
	require.NoError(t, err)
	assert.Len(t, unalerted, 1, "failed delivery must not mark events")
}

func TestFilterRelevant(t *testing.T) {
	events := []datastore.EventView{
		{CompanyName: "A"},
		{CompanyName: "B"},
	}
	events[0].Message = "category changed to REAL_USE"
	events[0].EventType = "CATEGORY_CHANGE"
	events[1].Message = "routine check"
	events[1].EventType = "ANALYSIS"

	// No keywords: everything passes.
	assert.Len(t, FilterRelevant(events, nil), 2)

	// Keyword matches message case-insensitively.
	got := FilterRelevant(events, []string{"real_use"})
	require.Len(t, got, 1)
	assert.Equal(t, "A", got[0].CompanyName)

	// Keyword matches event type too.
	got = FilterRelevant(events, []string{"analysis"})
	require.Len(t, got, 1)
	assert.Equal(t, "B", got[0].CompanyName)

	assert.Empty(t, FilterRelevant(events, []string{"geocode"}))
}

func TestBuildHTMLEscapesContent(t *testing.T) {
	a := NewWithSender(testSettings(true, nil), nil, &fakeSender{})
	a.now = func() time.Time { return time.Date(2025, 6, 15, 9, 30, 0, 0, time.UTC) }

	events := []datastore.EventView{{CompanyName: "<script>evil</script>"}}
	events[0].Message = "a & b"
	events[0].CreatedAt = time.Date(2025, 6, 14, 8, 0, 0, 0, time.UTC)

	body := a.buildHTML(events)
	assert.NotContains(t, body, "<script>evil")
	assert.Contains(t, body, "&lt;script&gt;")
	assert.Contains(t, body, "a &amp; b")
	assert.Contains(t, body, "15.06.2025 09:30")
	assert.Contains(t, body, "14.06.2025 08:00")
}
