package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/newsdailly/newsdailly/article"
	"github.com/newsdailly/newsdailly/docstore"
	"github.com/newsdailly/newsdailly/feed"
	"github.com/newsdailly/newsdailly/logger"
)

// rowsPerStep is how many items one Enter reveals. The trigger lookahead is
// measured in the same rows.
const (
	rowsPerStep   = 5
	feedLookahead = 5
)

type feedOptions struct {
	category string
	format   string
	pages    int
	cursor   string
}

func newFeedCommand() *cobra.Command {
	var opts feedOptions
	cmd := &cobra.Command{
		Use:   "feed",
		Short: "Page through the home feed or a category feed",
		Long: `Page through articles newest first. Without --pages the feed is
interactive: press Enter to reveal more items and the next page is fetched
before you reach the end. With --pages N, N pages are loaded and printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFeed(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.category, "category", "", "category name or slug (e.g. scam-alerts)")
	cmd.Flags().StringVar(&opts.format, "format", "table", "output format: table, json, compact")
	cmd.Flags().IntVar(&opts.pages, "pages", 0, "load this many pages and exit")
	cmd.Flags().StringVar(&opts.cursor, "cursor", "", "resume after this cursor")
	return cmd
}

func runFeed(cmd *cobra.Command, opts feedOptions) error {
	switch opts.format {
	case "table", "json", "compact":
	default:
		return fmt.Errorf("invalid format: %s (must be table, json, or compact)", opts.format)
	}

	filter := feed.Filter{}
	if opts.category != "" {
		c, ok := article.LookupCategory(opts.category)
		if !ok {
			return fmt.Errorf("unknown category: %s", opts.category)
		}
		filter.Category = c.Name
	}
	cursor, err := docstore.ParseCursor(opts.cursor)
	if err != nil {
		return err
	}

	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close()

	store, err := a.openStore()
	if err != nil {
		return err
	}

	loader := feed.NewLoader(store, feed.WithLogger(a.log), feed.WithMetrics(a.metrics))
	loader.Resume(filter, cursor)

	if opts.pages > 0 || opts.format == "json" {
		return printPages(cmd.Context(), cmd.OutOrStdout(), loader, max(opts.pages, 1), opts.format)
	}
	return interactiveFeed(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr(), loader, opts.format, a.log)
}

// printPages loads up to pages pages and prints everything at once.
func printPages(ctx context.Context, w io.Writer, loader *feed.Loader, pages int, format string) error {
	skipped := 0
	for i := 0; i < pages && loader.HasMore(); i++ {
		page, err := loader.LoadNextPage(ctx)
		skipped += len(page.Skipped)
		if err != nil {
			var loadErr *feed.LoadError
			if !errors.As(err, &loadErr) {
				return err
			}
			break
		}
	}

	items := loader.Items()
	if format == "json" {
		out := map[string]any{
			"items":    items,
			"has_more": loader.HasMore(),
			"skipped":  skipped,
		}
		if loader.HasMore() {
			out["next_cursor"] = loader.Cursor().String()
		}
		if err := loader.Err(); err != nil {
			out["error"] = err.Error()
		}
		return printJSON(w, out)
	}

	renderItems(w, items, 0, format)
	if len(items) == 0 && loader.Err() == nil {
		fmt.Fprintln(w, "No articles to display.")
	}
	if err := loader.Err(); err != nil {
		return err
	}
	if loader.HasMore() {
		fmt.Fprintf(w, "More available: --cursor %s\n", loader.Cursor().String())
	}
	return nil
}

// interactiveFeed reveals rowsPerStep items per Enter. The visible rows are
// the viewport and the end of the loaded items is the sentinel, so the next
// page starts loading while the reader is still a few rows away from it.
func interactiveFeed(ctx context.Context, in io.Reader, w, errw io.Writer, loader *feed.Loader, format string, log logger.Logger) error {
	trigger := feed.NewTrigger(loader, feed.TriggerOptions{
		Lookahead: feedLookahead,
		OnPage: func(page feed.Page, err error) {
			for _, s := range page.Skipped {
				fmt.Fprintf(errw, "Warning: skipped document %s (%s)\n", s.ID, s.Key)
			}
			if err != nil {
				log.Debug("Feed prefetch failed", logger.Error(err))
			}
		},
	})
	trigger.Observe(ctx)
	defer trigger.Close()

	page, err := loader.LoadNextPage(ctx)
	if err != nil {
		return err
	}
	for _, s := range page.Skipped {
		fmt.Fprintf(errw, "Warning: skipped document %s (%s)\n", s.ID, s.Key)
	}

	input := bufio.NewScanner(in)
	shown := 0
	for {
		items := loader.Items()
		next := min(shown+rowsPerStep, len(items))
		renderItems(w, items[shown:next], shown, format)
		shown = next

		trigger.Notify(feed.Viewport{End: shown, Sentinel: len(loader.Items())})
		if shown >= len(loader.Items()) {
			trigger.Wait()
		}

		if shown >= len(loader.Items()) && !loader.HasMore() {
			if err := loader.Err(); err != nil {
				return err
			}
			if shown == 0 {
				fmt.Fprintln(w, "No articles to display.")
			} else {
				fmt.Fprintln(w, "-- end of feed --")
			}
			return nil
		}

		fmt.Fprint(w, "-- Enter for more, q to quit --")
		if !input.Scan() {
			fmt.Fprintln(w)
			return input.Err()
		}
		if strings.EqualFold(strings.TrimSpace(input.Text()), "q") {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func renderItems(w io.Writer, items []article.ArticleView, offset int, format string) {
	if format == "compact" {
		printItemsCompact(w, items)
		return
	}
	printItemsTable(w, items, offset)
}
