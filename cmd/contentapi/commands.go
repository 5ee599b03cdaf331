package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tributo.band/site/internal/contentapi"
)

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the PostgreSQL schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeFn, err := a.openPostgres(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()
			if err := store.Migrate(cmd.Context()); err != nil {
				return err
			}
			a.logger.Info("schema migrated")
			return nil
		},
	}
}

func newSeedCmd(a *app) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Replace PostgreSQL content with the seed file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				file = a.cfg.ContentAPI.SeedFile
			}
			store, closeFn, err := a.openPostgres(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()
			seed, err := contentapi.LoadSeed(file)
			if err != nil {
				return err
			}
			if err := store.Migrate(cmd.Context()); err != nil {
				return err
			}
			if err := seed.Apply(cmd.Context(), store, a.logger); err != nil {
				return fmt.Errorf("apply seed: %w", err)
			}
			a.logger.Info("content seeded", zap.String("seed", file), zap.Int("types", len(seed)))
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "seed file (defaults to CONTENT_API_SEED_FILE)")
	return cmd
}
