/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/jjudge-oj/workbench/config"
	"github.com/jjudge-oj/workbench/internal/contest"
	"github.com/jjudge-oj/workbench/internal/platform"
	"github.com/jjudge-oj/workbench/types"
	"github.com/spf13/cobra"
)

var contestCmd = &cobra.Command{
	Use:   "contest",
	Short: "Contest directory commands",
}

var contestListCmd = &cobra.Command{
	Use:   "list",
	Short: "List contests with their current status",
	Args:  cobra.NoArgs,
	RunE:  runContestList,
}

var contestStatusCmd = &cobra.Command{
	Use:   "status <contest-id>",
	Short: "Show the current status of a contest",
	Args:  cobra.ExactArgs(1),
	RunE:  runContestStatus,
}

var contestClassifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Classify a contest timing against the current time",
	Long: `Classify a timing without asking the platform.

	workbench contest classify --date 2024-01-01 --time 10:00 --duration 60`,
	Args: cobra.NoArgs,
	RunE: runContestClassify,
}

var (
	contestStatusFilter string
	classifyDate        string
	classifyTime        string
	classifyDuration    int
	classifyAt          string
)

func init() {
	rootCmd.AddCommand(contestCmd)
	contestCmd.AddCommand(contestListCmd, contestStatusCmd, contestClassifyCmd)

	contestListCmd.Flags().StringVar(&contestStatusFilter, "status", "", "Only show contests with this status")
	contestClassifyCmd.Flags().StringVar(&classifyDate, "date", "", "Start date, or a combined ISO date and time")
	contestClassifyCmd.Flags().StringVar(&classifyTime, "time", "", "Start time (HH:MM)")
	contestClassifyCmd.Flags().IntVar(&classifyDuration, "duration", 0, "Duration in minutes")
	contestClassifyCmd.Flags().StringVar(&classifyAt, "at", "", "Evaluate at this RFC 3339 instant instead of now")
}

func newDirectory(cfg config.Config) (*contest.Directory, error) {
	api, err := platform.New(cfg.Platform.BaseURL,
		platform.WithTimeout(cfg.Platform.Timeout),
		platform.WithBearerToken(cfg.Platform.Token),
		platform.WithLogger(newLogger(cfg.LogLevel)),
	)
	if err != nil {
		return nil, err
	}
	return contest.NewDirectory(api, cfg.Workbench.ContestLocation), nil
}

func runContestList(cmd *cobra.Command, args []string) error {
	if contestStatusFilter != "" {
		if _, ok := contest.ParseStatus(contestStatusFilter); !ok {
			return fmt.Errorf("unknown status %q", contestStatusFilter)
		}
	}
	directory, err := newDirectory(config.LoadConfig())
	if err != nil {
		return err
	}
	contests, err := directory.List(contextOrBackground(cmd))
	if err != nil {
		return fmt.Errorf("%s: %w", platform.UserMessage(err), err)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tSTART\tDURATION\tSTATUS")
	for _, c := range contest.FilterByStatus(contests, contestStatusFilter) {
		fmt.Fprintf(w, "%s\t%s\t%s %s\t%dm\t%s\n", c.ID, c.Title, c.StartDate, c.StartTime, c.DurationMinutes, c.Status)
	}
	return w.Flush()
}

func runContestStatus(cmd *cobra.Command, args []string) error {
	directory, err := newDirectory(config.LoadConfig())
	if err != nil {
		return err
	}
	status, err := directory.StatusOf(contextOrBackground(cmd), args[0])
	if err != nil {
		return fmt.Errorf("%s: %w", platform.UserMessage(err), err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), status)
	return nil
}

func runContestClassify(cmd *cobra.Command, args []string) error {
	cfg := config.LoadConfig()
	timing := types.ContestTiming{
		StartDate:       classifyDate,
		StartTime:       classifyTime,
		DurationMinutes: classifyDuration,
	}

	now := time.Now()
	if classifyAt != "" {
		at, err := time.Parse(time.RFC3339, classifyAt)
		if err != nil {
			return fmt.Errorf("invalid --at: %w", err)
		}
		now = at
	}
	fmt.Fprintln(cmd.OutOrStdout(), contest.ClassifyAt(timing, now, cfg.Workbench.ContestLocation))
	return nil
}
