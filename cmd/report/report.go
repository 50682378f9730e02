// Package report generates and shows the LLM trend report.
package report

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tphakala/radar-go/internal/classifier"
	"github.com/tphakala/radar-go/internal/conf"
	"github.com/tphakala/radar-go/internal/datastore"
)

// Command creates the report command.
func Command(settings *conf.Settings) *cobra.Command {
	var show bool

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Generate a trend report over the classified companies",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(settings, show)
		},
	}

	cmd.Flags().BoolVar(&show, "show", false, "Print the stored report instead of generating a new one")

	return cmd
}

func runReport(settings *conf.Settings, show bool) error {
	store := datastore.New(settings)
	if err := store.Open(); err != nil {
		return err
	}
	defer store.Close()

	if show {
		report, err := store.GetLatestTrendReport()
		if err != nil {
			return err
		}
		if report == nil {
			return fmt.Errorf("no trend report stored yet, run 'radar report' first")
		}
		fmt.Printf("Trend report from %s (%d companies)\n\n%s\n",
			report.CreatedAt.Format("2006-01-02 15:04"), report.CompaniesCount, report.ReportText)
		return nil
	}

	views, err := store.GetCompanies()
	if err != nil {
		return err
	}

	var lines []string
	for _, v := range views {
		if !v.Category.Known() {
			continue
		}
		line := fmt.Sprintf("%s | %s | %s | %d%% | %s",
			v.Name, v.Industry, v.Category, v.Confidence, joinEvidence(v.Evidence))
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return fmt.Errorf("no classified companies yet, run 'radar analyze' first")
	}

	cls, err := classifier.New(settings)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	text, err := cls.TrendReport(ctx, lines)
	if err != nil {
		return err
	}
	if err := store.SaveTrendReport(text, len(lines)); err != nil {
		return err
	}

	fmt.Println(text)
	return nil
}

func joinEvidence(evidence []string) string {
	if len(evidence) == 0 {
		return "-"
	}
	return strings.Join(evidence, ", ")
}
