// Package alert sends an email digest of new activity-log events. Events
// are filtered by configurable trigger keywords, rendered as an HTML table
// and delivered over SMTP. Successful delivery marks the events alerted so
// the next run only sees newer activity.
package alert

import (
	"context"
	"fmt"
	"html"
	"io"
	"log"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	shoutrrr "github.com/nicholas-fedor/shoutrrr"
	router "github.com/nicholas-fedor/shoutrrr/pkg/router"
	stypes "github.com/nicholas-fedor/shoutrrr/pkg/types"

	"github.com/tphakala/radar-go/internal/conf"
	"github.com/tphakala/radar-go/internal/datastore"
	"github.com/tphakala/radar-go/internal/errors"
	"github.com/tphakala/radar-go/internal/logging"
)

var alertLogger *slog.Logger

func init() {
	var err error
	alertLogger, _, err = logging.NewFileLogger("logs/alert.log", "alert", slog.LevelInfo)
	if err != nil {
		alertLogger = logging.DiscardLogger("alert")
	}
}

// Status describes the outcome of one alert check.
type Status string

const (
	StatusDisabled         Status = "disabled"
	StatusNoNewEvents      Status = "no_new_events"
	StatusNoRelevantEvents Status = "no_relevant_events"
	StatusSent             Status = "sent"
	StatusError            Status = "error"
)

// DeliveryResult reports what an alert run did.
type DeliveryResult struct {
	Status Status
	Count  int
}

// Sender delivers one message. Satisfied by the shoutrrr-backed sender and
// by fakes in tests.
type Sender interface {
	Send(title, body string) error
}

// Alerter checks for new activity and mails a digest.
type Alerter struct {
	settings *conf.Settings
	store    datastore.Interface
	sender   Sender
	now      func() time.Time
}

// New creates an alerter with an SMTP sender built from the alert settings.
// Call only when alerts are enabled and configured; NewWithSender exists for
// injection.
func New(settings *conf.Settings, store datastore.Interface) (*Alerter, error) {
	sender, err := newSMTPSender(settings)
	if err != nil {
		return nil, err
	}
	return NewWithSender(settings, store, sender), nil
}

// NewWithSender creates an alerter with an injected delivery mechanism.
func NewWithSender(settings *conf.Settings, store datastore.Interface, sender Sender) *Alerter {
	return &Alerter{settings: settings, store: store, sender: sender, now: time.Now}
}

// Run checks for unalerted events and sends a digest when relevant ones
// exist. Delivery failure is reported in the result, not as an error: the
// events stay unalerted and the next run retries them.
func (a *Alerter) Run(ctx context.Context) (*DeliveryResult, error) {
	if !a.settings.Radar.Alerts.Enabled {
		return &DeliveryResult{Status: StatusDisabled}, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	events, err := a.store.GetUnalertedEvents()
	if err != nil {
		return nil, errors.New(err).
			Component("alert").
			Category(errors.CategoryDatabase).
			Build()
	}
	if len(events) == 0 {
		return &DeliveryResult{Status: StatusNoNewEvents}, nil
	}

	relevant := FilterRelevant(events, a.settings.Radar.Alerts.TriggerKeywords)
	if len(relevant) == 0 {
		return &DeliveryResult{Status: StatusNoRelevantEvents}, nil
	}

	title := fmt.Sprintf("[%s] %d new activities", a.settings.Radar.Name, len(relevant))
	body := a.buildHTML(relevant)

	if err := a.sender.Send(title, body); err != nil {
		alertLogger.Error("alert delivery failed", "events", len(relevant), "error", err)
		return &DeliveryResult{Status: StatusError}, nil
	}

	ids := make([]uint, 0, len(relevant))
	for _, e := range relevant {
		ids = append(ids, e.ID)
	}
	if err := a.store.MarkEventsAlerted(ids); err != nil {
		// Delivered but not marked: the next digest repeats these events.
		alertLogger.Error("marking events alerted failed", "count", len(ids), "error", err)
	}

	alertLogger.Info("alert sent", "events", len(relevant))
	return &DeliveryResult{Status: StatusSent, Count: len(relevant)}, nil
}

// FilterRelevant keeps the events whose message or type contains one of the
// trigger keywords. An empty keyword list keeps everything.
func FilterRelevant(events []datastore.EventView, triggerKeywords []string) []datastore.EventView {
	if len(triggerKeywords) == 0 {
		return events
	}
	var out []datastore.EventView
	for _, e := range events {
		haystack := strings.ToLower(e.Message + " " + e.EventType)
		for _, kw := range triggerKeywords {
			if kw == "" {
				continue
			}
			if strings.Contains(haystack, strings.ToLower(kw)) {
				out = append(out, e)
				break
			}
		}
	}
	return out
}

// buildHTML renders the digest as a simple inline-styled HTML table, the
// safe subset that email clients render consistently.
func (a *Alerter) buildHTML(events []datastore.EventView) string {
	var rows strings.Builder
	for _, e := range events {
		rows.WriteString(fmt.Sprintf(
			`<tr><td style="padding:8px;border-bottom:1px solid #eee;">%s</td>`+
				`<td style="padding:8px;border-bottom:1px solid #eee;"><strong>%s</strong></td>`+
				`<td style="padding:8px;border-bottom:1px solid #eee;">%s</td>`+
				`<td style="padding:8px;border-bottom:1px solid #eee;">%s</td></tr>`,
			e.CreatedAt.Format("02.01.2006 15:04"),
			html.EscapeString(e.CompanyName),
			html.EscapeString(e.EventType),
			html.EscapeString(e.Message),
		))
	}

	return fmt.Sprintf(`<html><body style="font-family:Arial,sans-serif;color:#333;">
<div style="background:#1a5276;padding:20px;color:white;">
<h2 style="margin:0;">%s – Activity Alert</h2>
<p style="margin:5px 0 0 0;">%s | %s</p>
</div>
<div style="padding:20px;">
<p>There are <strong>%d new events</strong>:</p>
<table style="width:100%%;border-collapse:collapse;font-size:14px;">
<thead><tr style="background:#f5f5f5;">
<th style="padding:8px;text-align:left;">Time</th>
<th style="padding:8px;text-align:left;">Company</th>
<th style="padding:8px;text-align:left;">Type</th>
<th style="padding:8px;text-align:left;">Details</th>
</tr></thead>
<tbody>%s</tbody>
</table>
</div>
</body></html>`,
		html.EscapeString(a.settings.Radar.Name),
		html.EscapeString(a.settings.Radar.Region),
		a.now().Format("02.01.2006 15:04"),
		len(events),
		rows.String(),
	)
}

// smtpSender delivers through a shoutrrr service router.
type smtpSender struct {
	router *router.ServiceRouter
}

// newSMTPSender builds the shoutrrr SMTP sender from the alert settings.
// The password comes from the configured environment variable, never from
// the config file.
func newSMTPSender(settings *conf.Settings) (Sender, error) {
	alerts := settings.Radar.Alerts
	if alerts.FromEmail == "" || alerts.ToEmail == "" {
		return nil, errors.Newf("alerts require from_email and to_email").
			Component("alert").
			Category(errors.CategoryConfiguration).
			Build()
	}
	password := os.Getenv(alerts.PasswordEnv)
	if password == "" {
		return nil, errors.Newf("SMTP password environment variable %s is not set", alerts.PasswordEnv).
			Component("alert").
			Category(errors.CategoryConfiguration).
			Context("env_var", alerts.PasswordEnv).
			Build()
	}

	serviceURL := fmt.Sprintf("smtp://%s:%s@%s:%d/?from=%s&to=%s&usehtml=Yes&usestarttls=Yes",
		url.QueryEscape(alerts.FromEmail), url.QueryEscape(password),
		alerts.SMTPHost, alerts.SMTPPort,
		url.QueryEscape(alerts.FromEmail), url.QueryEscape(alerts.ToEmail))

	sender, err := shoutrrr.CreateSender(serviceURL)
	if err != nil {
		return nil, errors.New(err).
			Component("alert").
			Category(errors.CategoryConfiguration).
			Context("smtp_host", alerts.SMTPHost).
			Build()
	}
	sender.SetLogger(log.New(io.Discard, "", 0))

	return &smtpSender{router: sender}, nil
}

func (s *smtpSender) Send(title, body string) error {
	params := stypes.Params{}
	params.SetTitle(title)
	if errs := s.router.Send(body, &params); len(errs) > 0 {
		for _, err := range errs {
			if err != nil {
				return errors.New(err).
					Component("alert").
					Category(errors.CategoryDelivery).
					Build()
			}
		}
	}
	return nil
}
