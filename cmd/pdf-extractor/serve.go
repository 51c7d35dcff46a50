package main

import (
	"context"
	"os/signal"
	"syscall"

	"pdf-extractor/internal/config"
	"pdf-extractor/internal/orchestrator"

	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP or broker transport selected by the environment",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.NewConfig()
	if err := cfg.Validate(); err != nil {
		return err
	}

	container := config.NewContainer(cfg)
	defer container.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return orchestrator.New(container).Run(ctx)
}
