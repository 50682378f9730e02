// Package top renders the maturity-score leaderboard.
package top

import (
	"os"
	"sort"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/tphakala/radar-go/internal/conf"
	"github.com/tphakala/radar-go/internal/datastore"
	"github.com/tphakala/radar-go/internal/scorer"
)

// Command creates the top command.
func Command(settings *conf.Settings) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "top",
		Short: "Show the maturity-score leaderboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTop(settings, limit)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of companies to show")

	return cmd
}

type rankedCompany struct {
	view  datastore.CompanyView
	score scorer.Result
}

func runTop(settings *conf.Settings, limit int) error {
	store := datastore.New(settings)
	if err := store.Open(); err != nil {
		return err
	}
	defer store.Close()

	views, err := store.GetCompanies()
	if err != nil {
		return err
	}

	sc := scorer.New(settings)
	var ranked []rankedCompany
	for _, v := range views {
		if !v.Category.Known() {
			continue
		}
		ranked = append(ranked, rankedCompany{
			view:  v,
			score: sc.Score(v.Category, v.Confidence, v.Evidence, ""),
		})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score.Score != ranked[j].score.Score {
			return ranked[i].score.Score > ranked[j].score.Score
		}
		return ranked[i].view.Name < ranked[j].view.Name
	})
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"#", "Company", "Score", "Level", "Category", "Confidence", "City"})
	for i, r := range ranked {
		t.AppendRow(table.Row{
			i + 1,
			r.view.Name,
			r.score.Badge + " " + strconv.Itoa(r.score.Score),
			r.score.Level,
			r.view.Category,
			strconv.Itoa(r.view.Confidence) + "%",
			r.view.City,
		})
	}
	t.Render()
	return nil
}
