package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/newsdailly/newsdailly/logger"
	"github.com/newsdailly/newsdailly/site"
)

func newServeCommand() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the reader API",
		Long: `Serve the feeds, article pages, market chips and theme over HTTP.
Prices are polled in the background for as long as the server runs.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if addr == "" {
				addr = a.cfg.Server.Addr
			}

			store, err := a.openStore()
			if err != nil {
				return err
			}
			resolver, dir, err := a.openImages()
			if err != nil {
				return err
			}
			state, err := a.openTheme()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			poller := a.newPoller()
			go func() {
				if err := poller.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					a.log.Error("Price poller stopped", logger.Error(err))
				}
			}()
			defer poller.Stop()

			opts := site.Options{
				Store:   store,
				Images:  resolver,
				Markets: poller,
				Theme:   state,
				Metrics: a.metrics,
				Logger:  a.log,
				SiteURL: a.cfg.Site.URL,
			}
			if dir != nil {
				opts.ImageDir = dir.Root()
			}

			return site.NewServer(opts).Start(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}
