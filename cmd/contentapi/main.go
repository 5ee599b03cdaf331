package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tributo.band/site/internal/config"
	"tributo.band/site/internal/observability"
)

// app carries what every subcommand needs once the root command has run.
type app struct {
	envFile string
	cfg     config.Config
	logger  *zap.Logger
}

func newRootCmd() (*cobra.Command, *app) {
	a := &app{}
	root := &cobra.Command{
		Use:           "contentapi",
		Short:         "Content API for the band site",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "dotenv file with configuration overrides")

	root.AddCommand(newServeCmd(a), newMigrateCmd(a), newSeedCmd(a))
	return root, a
}

func (a *app) init() error {
	baseLogger, err := observability.NewLogger()
	if err != nil {
		return fmt.Errorf("initialise logger: %w", err)
	}
	a.logger = baseLogger.Named("contentapi")

	cfg, err := config.Load(config.WithEnvFile(a.envFile))
	if err != nil {
		var verr *config.ValidationError
		if errors.As(err, &verr) {
			a.logger.Error("invalid configuration", zap.Strings("fields", verr.Fields()))
		}
		return err
	}
	a.cfg = cfg
	return nil
}

func main() {
	root, _ := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "contentapi: %v\n", err)
		os.Exit(1)
	}
}
