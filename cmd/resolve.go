/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/jjudge-oj/workbench/internal/identity"
	"github.com/spf13/cobra"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <problem-id> | resolve --contest <contest-id> <problem-id>",
	Short: "Show how a problem id is resolved",
	Long: `Split a composite problem id into its contest and problem parts, or with
--contest build the composite id of a contest problem.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if resolveContest != "" {
			if !identity.Valid(resolveContest) || !identity.Valid(args[0]) {
				return fmt.Errorf("contest and problem ids must be non-empty and must not contain %q", "-")
			}
			fmt.Fprintln(cmd.OutOrStdout(), identity.Compose(resolveContest, args[0]))
			return nil
		}
		return printJSON(cmd.OutOrStdout(), identity.Resolve(args[0]))
	},
}

var resolveContest string

func init() {
	resolveCmd.Flags().StringVar(&resolveContest, "contest", "", "Compose the id of a problem in this contest")
	rootCmd.AddCommand(resolveCmd)
}
