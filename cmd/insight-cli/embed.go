package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/inboxpulse/insight-engine/internal/embedding"
	"github.com/inboxpulse/insight-engine/internal/storage"
)

// newEmbedCmd creates the embed command.
func newEmbedCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "embed",
		Short: "Backfill embeddings for subject lines without one",
		Long: `Embed finds subject lines that have no stored embedding, embeds
them in batches, and writes the vectors back so similarity search can
find them.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			defer db.Close()
			repos := storage.NewRepositories(db)

			client, err := embedding.NewClient(embedding.Config{
				APIKey:    cfg.LLM.APIKey,
				Model:     cfg.Embedding.Model,
				BaseURL:   cfg.LLM.BaseURL,
				Dimension: cfg.Embedding.Dimension,
			})
			if err != nil {
				return fmt.Errorf("embedding client: %w", err)
			}

			ctx := cmd.Context()
			pending, err := repos.SubjectLines.ListMissingEmbeddings(ctx, limit)
			if err != nil {
				return fmt.Errorf("list missing embeddings: %w", err)
			}

			ui := NewUI(outputJSON)
			if len(pending) == 0 {
				ui.Success("All subject lines already have embeddings")
				return nil
			}

			bar := ui.ProgressBar(int64(len(pending)), "Embedding")

			batchSize := cfg.Embedding.BatchSize
			if batchSize <= 0 {
				batchSize = 100
			}

			embedded := 0
			for start := 0; start < len(pending); start += batchSize {
				end := start + batchSize
				if end > len(pending) {
					end = len(pending)
				}
				batch := pending[start:end]

				texts := make([]string, len(batch))
				for i, line := range batch {
					texts[i] = line.SubjectLine
				}

				vectors, err := client.Embed(ctx, texts)
				if err != nil {
					return fmt.Errorf("embed batch at %d: %w", start, err)
				}
				if len(vectors) != len(batch) {
					return fmt.Errorf("embed batch at %d: got %d vectors for %d texts", start, len(vectors), len(batch))
				}

				for i, line := range batch {
					if err := repos.SubjectLines.UpsertEmbedding(ctx, line.ID, vectors[i]); err != nil {
						return fmt.Errorf("store embedding for subject line %d: %w", line.ID, err)
					}
					embedded++
					_ = bar.Add(1)
				}
			}
			_ = bar.Finish()

			if outputJSON {
				return ui.JSON(map[string]int{"embedded": embedded})
			}
			ui.Success("Embedded %d subject lines", embedded)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 5000, "maximum rows to backfill in one run")

	return cmd
}
