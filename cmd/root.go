// Package cmd assembles the radar command tree.
package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/tphakala/radar-go/cmd/analyze"
	"github.com/tphakala/radar-go/cmd/geocode"
	"github.com/tphakala/radar-go/cmd/importcmd"
	"github.com/tphakala/radar-go/cmd/report"
	"github.com/tphakala/radar-go/cmd/stats"
	"github.com/tphakala/radar-go/cmd/top"
	"github.com/tphakala/radar-go/cmd/watch"
	"github.com/tphakala/radar-go/internal/conf"
	"github.com/tphakala/radar-go/internal/logging"
)

// RootCommand creates and returns the root command.
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "radar",
		Short: "Regional business-intelligence radar CLI",
	}

	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", settings.Debug, "Enable debug output")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")

	subcommands := []*cobra.Command{
		analyze.Command(settings),
		importcmd.Command(settings),
		report.Command(settings),
		top.Command(settings),
		geocode.Command(settings),
		watch.Command(settings),
		stats.Command(settings),
		initCommand(),
	}
	rootCmd.AddCommand(subcommands...)

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if settings.Debug {
			logging.SetLevel(slog.LevelDebug)
		}
	}

	return rootCmd
}

// initCommand writes the embedded starter configuration next to the binary.
func initCommand() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := conf.WriteDefaultConfig(path); err != nil {
				return err
			}
			cmd.Printf("wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&path, "output", "o", "config.yaml", "Where to write the config file")
	return cmd
}
