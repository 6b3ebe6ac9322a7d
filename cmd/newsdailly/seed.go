package main

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/newsdailly/newsdailly/article"
	"github.com/newsdailly/newsdailly/images"
	"github.com/newsdailly/newsdailly/logger"
)

// demoImageKey carries an inline base64 hero image in seed files. It is
// stripped before the document is stored.
const demoImageKey = "_demo_image_base64"

func newSeedCommand() *cobra.Command {
	var assignIDs bool
	cmd := &cobra.Command{
		Use:   "seed <file.json>",
		Short: "Load demo articles into the document store",
		Long: `Read a JSON array of article documents and store each one, replacing
any document with the same id. A document's id is its "id" field, else its
slug. Documents with neither are skipped unless --assign-ids is set.

A "_demo_image_base64" field is decoded to {folder}/{slug}.webp when the
images backend is dir.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			docs, err := readSeedFile(args[0])
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
			_, dir, err := a.openImages()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			w := cmd.OutOrStdout()
			stored, skipped, imagesWritten := 0, 0, 0
			for i, raw := range docs {
				id := seedID(raw, assignIDs)
				if id == "" {
					a.log.Warn("Skipping seed document without id or slug", logger.Int("index", i))
					skipped++
					continue
				}

				encoded, hasImage := raw[demoImageKey].(string)
				delete(raw, demoImageKey)
				delete(raw, "id")

				if err := store.Put(ctx, id, raw); err != nil {
					return fmt.Errorf("failed to store document %s: %w", id, err)
				}
				stored++

				if !hasImage || encoded == "" {
					continue
				}
				slug, _ := raw["slug"].(string)
				if dir == nil || slug == "" {
					a.log.Warn("Demo image not written, images backend is not dir",
						logger.String("id", id))
					continue
				}
				if err := writeDemoImage(dir, a.cfg.Images.Folder, slug, encoded); err != nil {
					return err
				}
				imagesWritten++
			}

			fmt.Fprintf(w, "Stored %d documents (%d skipped, %d images)\n", stored, skipped, imagesWritten)
			return nil
		},
	}
	cmd.Flags().BoolVar(&assignIDs, "assign-ids", false, "generate ids for documents without id or slug")
	return cmd
}

func readSeedFile(path string) ([]article.RawDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	var docs []article.RawDocument
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("seed file must be a JSON array of objects: %w", err)
	}
	return docs, nil
}

// seedID picks the store id for raw: its id, then its slug, then a fresh
// UUID when assign is set.
func seedID(raw article.RawDocument, assign bool) string {
	if id, ok := raw["id"].(string); ok && id != "" {
		return id
	}
	if slug, ok := raw["slug"].(string); ok && slug != "" {
		return slug
	}
	if assign {
		return uuid.NewString()
	}
	return ""
}

func writeDemoImage(dir *images.DirBucket, folder, slug, encoded string) error {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return fmt.Errorf("invalid demo image for %s: %w", slug, err)
	}
	return dir.Put(images.Key(folder, slug, "webp"), data)
}
