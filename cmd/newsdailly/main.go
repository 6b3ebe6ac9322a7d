package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	// cfgFile overrides ~/.newsdailly/config.yaml.
	cfgFile string

	// debug forces debug-level logging.
	debug bool
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "newsdailly",
		Short: "NewsDailly crypto news reader",
		Long: `newsdailly reads crypto news articles from a document store, pages
through feeds, shows live market prices and serves the reader API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.newsdailly/config.yaml)")
	root.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	root.AddCommand(
		newFeedCommand(),
		newArticleCommand(),
		newMarketsCommand(),
		newThemeCommand(),
		newServeCommand(),
		newSeedCommand(),
	)
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
