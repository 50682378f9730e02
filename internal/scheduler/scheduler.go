// Package scheduler drives the freshness-based re-analysis pipeline:
// deciding which companies need (re)analysis, running the fetch → classify →
// persist chain for one company, and running sequential batches with polite
// delays. Batches are deliberately not concurrent so the target websites and
// the LLM provider each see at most one request at a time.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tphakala/radar-go/internal/conf"
	"github.com/tphakala/radar-go/internal/datastore"
	"github.com/tphakala/radar-go/internal/fetcher"
	"github.com/tphakala/radar-go/internal/logging"
	"github.com/tphakala/radar-go/internal/model"
	"github.com/tphakala/radar-go/internal/observability/metrics"
)

var schedulerLogger *slog.Logger

func init() {
	var err error
	schedulerLogger, _, err = logging.NewFileLogger("logs/scheduler.log", "scheduler", slog.LevelInfo)
	if err != nil {
		schedulerLogger = logging.DiscardLogger("scheduler")
	}
}

// SiteFetcher is the fetch surface the scheduler needs.
type SiteFetcher interface {
	FetchSite(ctx context.Context, rawURL string, deep bool) *fetcher.SiteResult
}

// Analyzer is the LLM surface the scheduler needs.
type Analyzer interface {
	Classify(ctx context.Context, companyName, text string) (*model.Classification, error)
	Biography(ctx context.Context, companyName, text string) (string, error)
}

// ProgressFunc is invoked after each processed company so callers can render
// progress. current is 1-based.
type ProgressFunc func(current, total int, message string)

// Result is the outcome of one company (re)analysis.
type Result struct {
	CompanyID     uint
	Company       string
	Success       bool
	Error         string
	OldCategory   model.Category
	NewCategory   model.Category
	OldConfidence int
	NewConfidence int
	PagesFetched  int
	SubpageURLs   []string
}

// Summary aggregates batch outcomes.
type Summary struct {
	Total           int
	Successful      int
	Failed          int
	Improved        int
	CategoryChanged int
	Changes         []Result
}

// FreshnessStats describes how current the dataset is.
type FreshnessStats struct {
	Total        int
	Analyzed     int
	Fresh        int
	Stale30      int
	Stale7       int
	Uncertain    int
	FreshPercent float64
}

// Scheduler wires the pipeline components together.
type Scheduler struct {
	settings   *conf.Settings
	store      datastore.Interface
	fetcher    SiteFetcher
	classifier Analyzer
	metrics    *metrics.RadarMetrics

	sleep func(ctx context.Context, d time.Duration)
	now   func() time.Time
}

// New creates a scheduler. metrics may be nil.
func New(settings *conf.Settings, store datastore.Interface, f SiteFetcher, c Analyzer, m *metrics.RadarMetrics) *Scheduler {
	return &Scheduler{
		settings:   settings,
		store:      store,
		fetcher:    f,
		classifier: c,
		metrics:    m,
		sleep: func(ctx context.Context, d time.Duration) {
			timer := time.NewTimer(d)
			defer timer.Stop()
			select {
			case <-timer.C:
			case <-ctx.Done():
			}
		},
		now: time.Now,
	}
}

// UncertainCompanies returns the companies whose current verdict is not
// trustworthy: never classified, unknown category, or confidence below the
// threshold. Companies without a website cannot be re-analyzed and are
// excluded.
func UncertainCompanies(views []datastore.CompanyView, minConfidence int) []datastore.CompanyView {
	var out []datastore.CompanyView
	for _, v := range views {
		if v.Website == "" {
			continue
		}
		if !v.Category.Known() || v.Confidence < minConfidence {
			out = append(out, v)
		}
	}
	return out
}

// StaleCompanies returns the companies whose last analysis is older than the
// window. A company that was never analyzed falls back to its creation time;
// a missing timestamp counts as stale, the conservative choice.
func StaleCompanies(views []datastore.CompanyView, days int, now time.Time) []datastore.CompanyView {
	cutoff := now.AddDate(0, 0, -days)
	var out []datastore.CompanyView
	for _, v := range views {
		if v.Website == "" {
			continue
		}
		last := v.AnalyzedAt
		if last == nil || last.IsZero() {
			if v.CreatedAt.IsZero() {
				out = append(out, v)
				continue
			}
			created := v.CreatedAt
			last = &created
		}
		if last.Before(cutoff) {
			out = append(out, v)
		}
	}
	return out
}

// Freshness reports the dataset-currency statistics over all companies.
func (s *Scheduler) Freshness(views []datastore.CompanyView) FreshnessStats {
	now := s.now()
	minConfidence := s.settings.Radar.Freshness.MinConfidence

	stats := FreshnessStats{Total: len(views)}
	stats.Stale30 = len(StaleCompanies(views, 30, now))
	stats.Stale7 = len(StaleCompanies(views, 7, now))
	stats.Uncertain = len(UncertainCompanies(views, minConfidence))
	for _, v := range views {
		if v.AnalyzedAt != nil {
			stats.Analyzed++
		}
	}
	stats.Fresh = stats.Total - stats.Stale30
	if stats.Total > 0 {
		stats.FreshPercent = float64(stats.Fresh) / float64(stats.Total) * 100
	}
	return stats
}

// ReanalyzeOne runs the full fetch → classify → biography → persist chain for
// one company. A fetch failure short-circuits without touching the store;
// every other failure is reported in the result. deep raises the crawl and
// text budgets.
func (s *Scheduler) ReanalyzeOne(ctx context.Context, view datastore.CompanyView, deep bool) Result {
	result := Result{
		CompanyID:     view.ID,
		Company:       view.Name,
		OldCategory:   view.Category,
		OldConfidence: view.Confidence,
	}

	site := s.fetcher.FetchSite(ctx, fetcher.NormalizeURL(view.Website), deep)
	s.metrics.ObserveFetch(site.Err == nil, site.PagesFetched)
	if site.Err != nil {
		result.Error = site.Err.Error()
		schedulerLogger.Warn("site fetch failed", "company", view.Name, "error", site.Err)
		return result
	}
	result.PagesFetched = site.PagesFetched
	result.SubpageURLs = site.SubpageURLs

	text := site.Text
	if text == "" {
		text = "Company: " + view.Name
	}

	cls, err := s.classifier.Classify(ctx, view.Name, text)
	if err != nil {
		result.Error = err.Error()
		schedulerLogger.Error("classification failed", "company", view.Name, "error", err)
		return result
	}
	s.metrics.ObserveClassification(string(cls.Category))

	bio, err := s.classifier.Biography(ctx, view.Name, text)
	if err != nil {
		// A missing biography is not worth failing the analysis over.
		schedulerLogger.Warn("biography generation failed", "company", view.Name, "error", err)
		bio = ""
	}
	cls.Biography = bio

	if err := s.store.RecordAnalysis(view.ID, cls, text, s.now()); err != nil {
		result.Error = err.Error()
		schedulerLogger.Error("recording analysis failed", "company", view.Name, "error", err)
		return result
	}

	if site.Social.LinkedIn != "" && site.Social.LinkedIn != view.LinkedIn {
		update := &datastore.Company{Name: view.Name, Website: view.Website, LinkedIn: site.Social.LinkedIn}
		if _, err := s.store.UpsertCompany(update); err != nil {
			schedulerLogger.Warn("storing LinkedIn profile failed", "company", view.Name, "error", err)
		}
	}

	result.Success = true
	result.NewCategory = cls.Category
	result.NewConfidence = cls.Confidence
	s.logOutcome(view, result, cls)
	return result
}

// logOutcome writes the activity-log entries for a completed analysis.
// Store errors here are logged and swallowed: the analysis itself is already
// persisted.
func (s *Scheduler) logOutcome(view datastore.CompanyView, result Result, cls *model.Classification) {
	id := view.ID
	msg := fmt.Sprintf("%s: %s (%d%% confidence)", view.Name, cls.Category, cls.Confidence)
	if err := s.store.LogEvent(&id, "ANALYSIS", msg); err != nil {
		schedulerLogger.Warn("logging analysis event failed", "company", view.Name, "error", err)
	}
	if view.Category.Known() && view.Category != cls.Category {
		change := fmt.Sprintf("%s: category changed %s -> %s", view.Name, view.Category, cls.Category)
		if err := s.store.LogEvent(&id, "CATEGORY_CHANGE", change); err != nil {
			schedulerLogger.Warn("logging category change failed", "company", view.Name, "error", err)
		}
	}
}

// RunBatch processes the companies strictly sequentially with the configured
// inter-company delay. One company's failure lands in its own result and
// never stops the batch; ctx cancellation stops between companies.
func (s *Scheduler) RunBatch(ctx context.Context, companies []datastore.CompanyView, deep bool, progress ProgressFunc) []Result {
	total := len(companies)
	results := make([]Result, 0, total)

	for i, view := range companies {
		if ctx.Err() != nil {
			schedulerLogger.Info("batch interrupted", "processed", i, "total", total)
			break
		}
		if i > 0 {
			s.sleep(ctx, time.Duration(s.settings.Radar.Freshness.BatchDelaySeconds)*time.Second)
			if ctx.Err() != nil {
				schedulerLogger.Info("batch interrupted", "processed", i, "total", total)
				break
			}
		}

		result := s.ReanalyzeOne(ctx, view, deep)
		results = append(results, result)
		s.metrics.ObserveBatchItem(result.Success)

		if progress != nil {
			msg := fmt.Sprintf("%s: %s", view.Name, batchItemStatus(result))
			progress(i+1, total, msg)
		}
	}
	return results
}

func batchItemStatus(r Result) string {
	if !r.Success {
		return "failed: " + r.Error
	}
	return fmt.Sprintf("%s (%d%%)", r.NewCategory, r.NewConfidence)
}

// Summarize aggregates a batch into counts plus the list of category
// changes.
func Summarize(results []Result) Summary {
	summary := Summary{Total: len(results)}
	for _, r := range results {
		if !r.Success {
			summary.Failed++
			continue
		}
		summary.Successful++
		if r.NewConfidence > r.OldConfidence {
			summary.Improved++
		}
		if r.NewCategory != r.OldCategory {
			summary.CategoryChanged++
			summary.Changes = append(summary.Changes, r)
		}
	}
	return summary
}
