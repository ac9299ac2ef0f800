/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/jjudge-oj/workbench/config"
	"github.com/jjudge-oj/workbench/internal/server"
	"github.com/spf13/cobra"
)

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Starts the workbench HTTP API",
	Long: `Starts the workbench HTTP API used by the editor. Usage:

	workbench server
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		logger := newLogger(cfg.LogLevel)
		slog.SetDefault(logger)

		ctx, stop := signal.NotifyContext(contextOrBackground(cmd), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		srv, err := server.New(ctx, cfg, logger)
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}

		errs := make(chan error, 1)
		go func() { errs <- srv.Start() }()

		select {
		case err := <-errs:
			_ = srv.Shutdown()
			if err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		case <-ctx.Done():
			logger.Info("shutting down")
			return srv.Shutdown()
		}
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}

// contextOrBackground keeps commands runnable outside Execute, as tests do.
func contextOrBackground(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
