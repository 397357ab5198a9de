package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"sowell/internal/platform/config"
	"sowell/internal/platform/logger"
)

// rootOptions holds flags shared by every command.
type rootOptions struct {
	configFile string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "sowell",
		Short:         "Petition signature matching and sheet lifecycle service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "YAML config file (overrides SOWELL_CONFIG)")

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newMigrateCommand(opts))
	cmd.AddCommand(newRefreshLookupCommand(opts))
	return cmd
}

// load resolves the configuration and the logger built from it.
func (o *rootOptions) load() (config.Config, *slog.Logger, error) {
	if o.configFile != "" {
		if err := os.Setenv("SOWELL_CONFIG", o.configFile); err != nil {
			return config.Config{}, nil, err
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, err
	}
	log := logger.New(cfg.Log)
	slog.SetDefault(log)
	return cfg, log, nil
}
