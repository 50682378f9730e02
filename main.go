package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/tphakala/radar-go/cmd"
	"github.com/tphakala/radar-go/internal/conf"
	"github.com/tphakala/radar-go/internal/logging"
)

func main() {
	logging.Init()

	settings, err := conf.Load(configPathFromArgs(os.Args[1:]))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading configuration: %v\n", err)
		os.Exit(1)
	}

	rootCmd := cmd.RootCommand(settings)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

// configPathFromArgs extracts --config before cobra parses flags, because
// the settings must exist before the command tree is built.
func configPathFromArgs(args []string) string {
	for i, arg := range args {
		if arg == "--config" && i+1 < len(args) {
			return args[i+1]
		}
		if path, ok := strings.CutPrefix(arg, "--config="); ok {
			return path
		}
	}
	return ""
}
