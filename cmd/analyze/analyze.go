// Package analyze implements the batch (re)analysis command.
package analyze

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/tphakala/radar-go/internal/classifier"
	"github.com/tphakala/radar-go/internal/conf"
	"github.com/tphakala/radar-go/internal/datastore"
	"github.com/tphakala/radar-go/internal/fetcher"
	"github.com/tphakala/radar-go/internal/scheduler"
)

// Command creates the analyze command.
func Command(settings *conf.Settings) *cobra.Command {
	var (
		uncertain bool
		staleDays int
		deep      bool
		limit     int
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze companies whose data is stale or uncertain",
		Long: `Selects companies needing (re)analysis and runs the fetch, classify and
persist chain for each, sequentially and with polite delays. By default the
stale set is processed; --uncertain switches to the low-confidence set.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(settings, uncertain, staleDays, deep, limit)
		},
	}

	cmd.Flags().BoolVar(&uncertain, "uncertain", false, "Re-analyze low-confidence companies instead of stale ones")
	cmd.Flags().IntVar(&staleDays, "stale-days", 0, "Override the freshness window in days")
	cmd.Flags().BoolVar(&deep, "deep", false, "Deep crawl: more subpages, bigger text budget")
	cmd.Flags().IntVar(&limit, "limit", 0, "Process at most N companies (0 = all)")

	return cmd
}

func runAnalyze(settings *conf.Settings, uncertain bool, staleDays int, deep bool, limit int) error {
	store := datastore.New(settings)
	if err := store.Open(); err != nil {
		return err
	}
	defer store.Close()

	cls, err := classifier.New(settings)
	if err != nil {
		return err
	}

	views, err := store.GetCompanies()
	if err != nil {
		return err
	}

	var selection []datastore.CompanyView
	if uncertain {
		selection = scheduler.UncertainCompanies(views, settings.Radar.Freshness.MinConfidence)
	} else {
		days := settings.Radar.Freshness.WindowDays
		if staleDays > 0 {
			days = staleDays
		}
		selection = scheduler.StaleCompanies(views, days, time.Now())
	}
	if limit > 0 && len(selection) > limit {
		selection = selection[:limit]
	}
	if len(selection) == 0 {
		fmt.Println("Nothing to analyze: all companies are fresh and confident.")
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sched := scheduler.New(settings, store, fetcher.New(settings), cls, nil)
	results := sched.RunBatch(ctx, selection, deep, func(current, total int, message string) {
		fmt.Fprintf(os.Stderr, "[%d/%d] %s\n", current, total, message)
	})

	printSummary(results)
	return nil
}

func printSummary(results []scheduler.Result) {
	summary := scheduler.Summarize(results)

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Total", "Successful", "Failed", "Improved", "Category changed"})
	t.AppendRow(table.Row{summary.Total, summary.Successful, summary.Failed, summary.Improved, summary.CategoryChanged})
	t.Render()

	if len(summary.Changes) > 0 {
		c := table.NewWriter()
		c.SetOutputMirror(os.Stdout)
		c.AppendHeader(table.Row{"Company", "Old category", "New category", "Confidence"})
		for _, r := range summary.Changes {
			c.AppendRow(table.Row{r.Company, r.OldCategory, r.NewCategory, fmt.Sprintf("%d%% -> %d%%", r.OldConfidence, r.NewConfidence)})
		}
		c.Render()
	}
}
