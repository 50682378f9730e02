// Package importcmd implements spreadsheet import with optional immediate
// geocoding and analysis.
package importcmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tphakala/radar-go/internal/classifier"
	"github.com/tphakala/radar-go/internal/conf"
	"github.com/tphakala/radar-go/internal/datastore"
	"github.com/tphakala/radar-go/internal/fetcher"
	"github.com/tphakala/radar-go/internal/geocoder"
	"github.com/tphakala/radar-go/internal/importer"
	"github.com/tphakala/radar-go/internal/scheduler"
)

// Command creates the import command.
func Command(settings *conf.Settings) *cobra.Command {
	var (
		analyze bool
		geo     bool
	)

	cmd := &cobra.Command{
		Use:   "import [file.xlsx|file.csv]",
		Short: "Import companies from a spreadsheet",
		Long: `Reads an Excel workbook (sheet "Unternehmen") or a CSV file with the
columns Firmenname* and Website* plus optional address columns, and upserts
every row into the registry. Existing companies are merged: non-empty
incoming fields win, empty ones preserve what is stored.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(settings, args[0], analyze, geo)
		},
	}

	cmd.Flags().BoolVar(&analyze, "analyze", false, "Analyze imported companies immediately")
	cmd.Flags().BoolVar(&geo, "geocode", true, "Geocode imported addresses")

	return cmd
}

func runImport(settings *conf.Settings, path string, analyze, geo bool) error {
	result, err := importer.New(settings).ImportFile(path)
	if err != nil {
		return err
	}
	for _, skipped := range result.Skipped {
		fmt.Fprintf(os.Stderr, "row %d skipped: %s\n", skipped.Row, skipped.Reason)
	}
	if len(result.Records) == 0 {
		return fmt.Errorf("no importable rows in %s", path)
	}

	store := datastore.New(settings)
	if err := store.Open(); err != nil {
		return err
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	geocoderClient := geocoder.New(settings)
	var imported []datastore.CompanyView

	for _, record := range result.Records {
		company := &datastore.Company{
			Name:          record.Name,
			Website:       fetcher.NormalizeURL(record.Website),
			Street:        record.Street,
			PostalCode:    record.PostalCode,
			City:          record.City,
			Industry:      record.Industry,
			EmployeeCount: record.EmployeeCount,
		}
		if geo && (record.Street != "" || record.City != "") {
			if coords := geocoderClient.GeocodeAddress(ctx, record.Street, record.PostalCode, record.City); coords.Found {
				company.Lat = &coords.Lat
				company.Lng = &coords.Lng
			}
		}

		id, err := store.UpsertCompany(company)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", record.Name, err)
			continue
		}
		if err := store.LogEvent(&id, "IMPORT", fmt.Sprintf("%s imported from %s", record.Name, path)); err != nil {
			fmt.Fprintf(os.Stderr, "%s: logging import event: %v\n", record.Name, err)
		}

		view := datastore.CompanyView{}
		view.ID = id
		view.Name = company.Name
		view.Website = company.Website
		imported = append(imported, view)
	}
	fmt.Printf("Imported %d companies (%d rows skipped).\n", len(imported), len(result.Skipped))

	if !analyze {
		return nil
	}

	cls, err := classifier.New(settings)
	if err != nil {
		return err
	}
	sched := scheduler.New(settings, store, fetcher.New(settings), cls, nil)
	results := sched.RunBatch(ctx, imported, false, func(current, total int, message string) {
		fmt.Fprintf(os.Stderr, "[%d/%d] %s\n", current, total, message)
	})

	summary := scheduler.Summarize(results)
	fmt.Printf("Analyzed %d companies: %d successful, %d failed.\n",
		summary.Total, summary.Successful, summary.Failed)
	return nil
}
