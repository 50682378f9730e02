// Package stats prints registry and freshness statistics.
package stats

import (
	"fmt"
	"os"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/tphakala/radar-go/internal/conf"
	"github.com/tphakala/radar-go/internal/datastore"
	"github.com/tphakala/radar-go/internal/model"
	"github.com/tphakala/radar-go/internal/scheduler"
)

// Command creates the stats command.
func Command(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show registry and data-freshness statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(settings)
		},
	}
}

func runStats(settings *conf.Settings) error {
	store := datastore.New(settings)
	if err := store.Open(); err != nil {
		return err
	}
	defer store.Close()

	stats, err := store.GetStats()
	if err != nil {
		return err
	}
	views, err := store.GetCompanies()
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Category", "Companies"})
	categories := make([]model.Category, 0, len(stats.ByCategory))
	for c := range stats.ByCategory {
		categories = append(categories, c)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].Rank() > categories[j].Rank() })
	for _, c := range categories {
		t.AppendRow(table.Row{c, stats.ByCategory[c]})
	}
	t.AppendFooter(table.Row{"Total", stats.Total})
	t.Render()

	sched := scheduler.New(settings, store, nil, nil, nil)
	freshness := sched.Freshness(views)
	fmt.Printf("\nFreshness: %d analyzed, %d fresh (%.1f%%), %d stale >30d, %d stale >7d, %d uncertain\n",
		freshness.Analyzed, freshness.Fresh, freshness.FreshPercent,
		freshness.Stale30, freshness.Stale7, freshness.Uncertain)
	return nil
}
