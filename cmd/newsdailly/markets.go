package main

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/spf13/cobra"

	"github.com/newsdailly/newsdailly/market"
)

func newMarketsCommand() *cobra.Command {
	var (
		watch  bool
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "markets",
		Short: "Show the market price chips",
		Long: `Show the price, 24h change and intraday range for the configured
trading pairs. When the price service is unreachable the last known or
fallback prices are shown. With --watch the board is redrawn on every poll.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Close()

			w := cmd.OutOrStdout()
			var mu sync.Mutex
			show := func(board market.Board) {
				mu.Lock()
				defer mu.Unlock()
				if asJSON {
					_ = printJSON(w, board)
					return
				}
				printBoard(w, board)
			}

			if !watch {
				poller := a.newPoller()
				// A failed refresh still has a board to show.
				_ = poller.Refresh(cmd.Context())
				show(poller.Board())
				return nil
			}

			var poller *market.Poller
			poller = a.newPoller(market.WithOnPoll(func() {
				show(poller.Board())
			}))
			fmt.Fprintf(cmd.ErrOrStderr(), "Polling every %s, Ctrl-C to stop\n", a.cfg.Markets.Interval)

			err = poller.Run(cmd.Context())
			poller.Stop()
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "keep polling and redraw the board")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the board as JSON")
	return cmd
}
