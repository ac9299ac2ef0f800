/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jjudge-oj/workbench/config"
	"github.com/jjudge-oj/workbench/internal/events"
	"github.com/jjudge-oj/workbench/internal/identity"
	"github.com/jjudge-oj/workbench/internal/orchestrator"
	"github.com/jjudge-oj/workbench/internal/server"
	"github.com/jjudge-oj/workbench/types"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <problem-id>",
	Short: "Run code on the judge",
	Long: `Run a source file on the judge and print its output.

	workbench run c9-p2 -f main.py`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

var saveCmd = &cobra.Command{
	Use:   "save <problem-id>",
	Short: "Save code as your solution",
	Args:  cobra.ExactArgs(1),
	RunE:  runSave,
}

var submitCmd = &cobra.Command{
	Use:   "submit <problem-id>",
	Short: "Run code and save it as solved",
	Long: `Run a source file on the judge and, when the solve policy accepts the
result, save it as solved and announce it to running workbench servers.`,
	Args: cobra.ExactArgs(1),
	RunE: runSubmit,
}

var (
	sourceFile     string
	sourceLanguage string
	outputJSON     bool
)

func init() {
	for _, c := range []*cobra.Command{runCmd, saveCmd, submitCmd} {
		c.Flags().StringVarP(&sourceFile, "file", "f", "-", "Source file, - for stdin")
		c.Flags().StringVarP(&sourceLanguage, "language", "l", "", "Language (default: from file extension)")
		c.Flags().BoolVar(&outputJSON, "json", false, "Print the result as JSON")
		rootCmd.AddCommand(c)
	}
}

type workflow struct {
	core      *server.Core
	principal types.Principal
	session   *orchestrator.Session
	code      string
	language  types.Language
}

func openWorkflow(cmd *cobra.Command, rawID string) (*workflow, error) {
	cfg := config.LoadConfig()
	principal, err := principalFromConfig(cfg.Platform)
	if err != nil {
		return nil, err
	}
	code, lang, err := readSource(cmd.InOrStdin(), sourceFile, sourceLanguage)
	if err != nil {
		return nil, err
	}

	core, err := server.NewCore(contextOrBackground(cmd), cfg, newLogger(cfg.LogLevel))
	if err != nil {
		return nil, err
	}
	return &workflow{
		core:      core,
		principal: principal,
		session:   core.Registry.Session(principal.UserID, identity.Resolve(rawID)),
		code:      code,
		language:  lang,
	}, nil
}

func runRun(cmd *cobra.Command, args []string) error {
	wf, err := openWorkflow(cmd, args[0])
	if err != nil {
		return err
	}
	defer wf.core.Close()

	result, err := wf.core.Orchestrator.Run(contextOrBackground(cmd), wf.session, wf.code, wf.language)
	if err != nil {
		return err
	}
	if outputJSON {
		return printJSON(cmd.OutOrStdout(), result)
	}
	fmt.Fprintln(cmd.OutOrStdout(), result.Display())
	return nil
}

func runSave(cmd *cobra.Command, args []string) error {
	wf, err := openWorkflow(cmd, args[0])
	if err != nil {
		return err
	}
	defer wf.core.Close()

	ctx := contextOrBackground(cmd)
	if _, err := wf.core.Orchestrator.Load(ctx, wf.session); err != nil {
		return err
	}
	saved, err := wf.core.Orchestrator.Save(ctx, wf.session, wf.code, wf.language)
	if err != nil {
		return err
	}
	if outputJSON {
		return printJSON(cmd.OutOrStdout(), saved)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%s)\n", wf.session.Identity(), saved.Language)
	return nil
}

func runSubmit(cmd *cobra.Command, args []string) error {
	wf, err := openWorkflow(cmd, args[0])
	if err != nil {
		return err
	}
	defer wf.core.Close()

	ctx := contextOrBackground(cmd)
	if _, err := wf.core.Orchestrator.Load(ctx, wf.session); err != nil {
		return err
	}
	outcome, err := wf.core.Orchestrator.Submit(ctx, wf.session, wf.code, wf.language)
	if err != nil {
		return err
	}
	if outcome.Solved {
		ev := events.SolvedEvent{
			Identity: wf.session.Identity(),
			UserID:   wf.principal.UserID,
			SolvedAt: time.Now(),
		}
		if err := wf.core.Announce(ctx, ev); err != nil {
			wf.core.Logger.Warn("announce failed", "error", err)
		}
	}

	if outputJSON {
		return printJSON(cmd.OutOrStdout(), outcome)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, outcome.Output)
	if outcome.Solved {
		fmt.Fprintf(out, "Solved %s\n", wf.session.Identity())
	} else {
		fmt.Fprintf(out, "Not accepted under the %s policy\n", wf.core.Orchestrator.Policy())
	}
	return nil
}

// readSource reads code from path, or from stdin for "-". Without an
// explicit language the file extension decides.
func readSource(stdin io.Reader, path, language string) (string, types.Language, error) {
	var (
		body []byte
		err  error
	)
	if path == "" || path == "-" {
		body, err = io.ReadAll(stdin)
	} else {
		body, err = os.ReadFile(path)
	}
	if err != nil {
		return "", "", fmt.Errorf("read source: %w", err)
	}

	if language != "" {
		lang, ok := types.ParseLanguage(language)
		if !ok {
			return "", "", fmt.Errorf("unsupported language %q", language)
		}
		return string(body), lang, nil
	}
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	for _, lang := range types.Languages() {
		if ext != "" && lang.Info().Extension == ext {
			return string(body), lang, nil
		}
	}
	return string(body), "", nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
