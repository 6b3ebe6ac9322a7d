package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/newsdailly/newsdailly/article"
	"github.com/newsdailly/newsdailly/docstore"
	"github.com/newsdailly/newsdailly/feed"
	"github.com/newsdailly/newsdailly/logger"
)

const articleSuggestions = 4

func newArticleCommand() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "article <slug>",
		Short: "Show a single article",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "text" && format != "json" {
				return fmt.Errorf("invalid format: %s (must be text or json)", format)
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
			resolver, _, err := a.openImages()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			slug := args[0]
			doc, err := store.FindBySlug(ctx, slug)
			if errors.Is(err, docstore.ErrNotFound) {
				return fmt.Errorf("article not found: %s", slug)
			}
			if err != nil {
				return err
			}

			view, err := doc.View()
			if err != nil {
				return fmt.Errorf("article %s is malformed: %w", slug, err)
			}

			var hero string
			if resolver != nil {
				hero, _ = resolver.Resolve(ctx, slug)
			}

			suggestions, err := feed.Suggest(ctx, store, slug, articleSuggestions)
			if err != nil {
				a.log.Warn("Suggestions unavailable", logger.String("slug", slug), logger.Error(err))
				suggestions = nil
			}

			w := cmd.OutOrStdout()
			if format == "json" {
				out := map[string]any{
					"article":     view,
					"hero_image":  nil,
					"suggestions": suggestions,
				}
				if hero != "" {
					out["hero_image"] = hero
				}
				if suggestions == nil {
					out["suggestions"] = []article.ArticleView{}
				}
				return printJSON(w, out)
			}
			printArticle(w, view, hero, suggestions)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "text", "output format: text, json")
	return cmd
}
