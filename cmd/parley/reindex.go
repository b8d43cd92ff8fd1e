package main

import (
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/vedran77/parley/internal/logger"
	"github.com/vedran77/parley/internal/service"
)

func newReindexCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the search index from stored messages",
		Long: "Rebuild the search index from stored messages. The bluge index is " +
			"opened exclusively, so stop the server first.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := setup()
			if err != nil {
				return err
			}
			log := logger.L
			ctx := cmd.Context()

			if cfg.SearchEngine != "bluge" {
				log.Info("search engine reads messages directly, nothing to rebuild",
					slog.String("search", cfg.SearchEngine))
				return nil
			}

			store, pool, err := openStore(ctx, cfg, log)
			if err != nil {
				return err
			}
			if pool != nil {
				defer pool.Close()
			}

			_, indexer, closeEngine, err := openEngine(cfg, pool)
			if err != nil {
				return err
			}
			defer func() { _ = closeEngine() }()

			n, err := service.NewSearchService(store, nil, nil, log).Reindex(ctx, indexer)
			if err != nil {
				return err
			}
			log.Info("search index rebuilt", slog.Int("messages", n))
			return nil
		},
	}
}
