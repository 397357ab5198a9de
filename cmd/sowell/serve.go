package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"sowell/internal/platform/httpserver"
	"sowell/internal/platform/postgres"
)

type serveOptions struct {
	*rootOptions
	migrate bool
}

func newServeCommand(root *rootOptions) *cobra.Command {
	opts := &serveOptions{rootOptions: root}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
	cmd.Flags().BoolVar(&opts.migrate, "migrate", false, "apply pending migrations before serving")
	return cmd
}

func runServe(ctx context.Context, opts *serveOptions) error {
	cfg, log, err := opts.load()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.close()

	if opts.migrate {
		if err := postgres.Migrate(ctx, a.db, log); err != nil {
			return err
		}
	}
	if err := a.ensureTopic(ctx); err != nil {
		return err
	}

	ln, err := net.Listen("tcp", cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Server.Addr, err)
	}
	srv := httpserver.New(cfg.Server, a.router(), log)
	return httpserver.Run(ctx, srv, ln, cfg.Server.ShutdownTimeout, log)
}
