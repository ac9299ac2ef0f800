/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "workbench",
	Short: "Run, save and submit solutions against the jjudge platform",
	Long: `workbench hosts the solving workflow of the jjudge editor: it resolves
problem identities, runs code on the judge, keeps solutions and their solved
state in sync, and reports contest status.

Configuration is read from the environment (see .env.example).`,
	SilenceUsage: true,
}

var verbose bool

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output")
}

func newLogger(level slog.Level) *slog.Logger {
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
