/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/jjudge-oj/workbench/config"
	"github.com/jjudge-oj/workbench/internal/identity"
	"github.com/jjudge-oj/workbench/internal/storage"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history <problem-id>",
	Short: "List archived submissions of a problem",
	Long: `List the source snapshots archived by solved submits, newest first. With
--show, print the code of one snapshot instead.`,
	Args: cobra.ExactArgs(1),
	RunE: runHistory,
}

var historyShow string

func init() {
	historyCmd.Flags().StringVar(&historyShow, "show", "", "Print the snapshot stored under this key")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg := config.LoadConfig()
	principal, err := principalFromConfig(cfg.Platform)
	if err != nil {
		return err
	}
	ctx := contextOrBackground(cmd)

	archive, err := storage.Open(ctx, cfg, newLogger(cfg.LogLevel))
	if err != nil {
		return err
	}
	if archive == nil {
		return errors.New("no archive configured; set STORAGE_BACKEND")
	}
	defer archive.Close()

	if historyShow != "" {
		code, err := archive.Read(ctx, historyShow)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), code)
		return nil
	}

	snapshots, err := archive.History(ctx, principal.UserID, identity.Resolve(args[0]))
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SUBMITTED\tLANGUAGE\tSIZE\tKEY")
	for _, s := range snapshots {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", s.SubmittedAt.Local().Format(time.DateTime), s.Language, s.Size, s.Key)
	}
	return w.Flush()
}
