// Package geocode backfills coordinates for companies that have an address
// but no location yet.
package geocode

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tphakala/radar-go/internal/conf"
	"github.com/tphakala/radar-go/internal/datastore"
	"github.com/tphakala/radar-go/internal/geocoder"
)

// Command creates the geocode command.
func Command(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "geocode",
		Short: "Backfill missing company coordinates",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGeocode(settings)
		},
	}
}

func runGeocode(settings *conf.Settings) error {
	store := datastore.New(settings)
	if err := store.Open(); err != nil {
		return err
	}
	defer store.Close()

	companies, err := store.CompaniesNeedingGeocode()
	if err != nil {
		return err
	}
	if len(companies) == 0 {
		fmt.Println("All companies with addresses already have coordinates.")
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := geocoder.New(settings)
	resolved := 0
	for _, company := range companies {
		if ctx.Err() != nil {
			break
		}
		coords := client.GeocodeAddress(ctx, company.Street, company.PostalCode, company.City)
		if !coords.Found {
			fmt.Fprintf(os.Stderr, "%s: address did not resolve\n", company.Name)
			continue
		}
		if err := store.SetCoordinates(company.ID, coords.Lat, coords.Lng); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", company.Name, err)
			continue
		}
		resolved++
	}

	fmt.Printf("Geocoded %d of %d companies.\n", resolved, len(companies))
	return nil
}
