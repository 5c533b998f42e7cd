package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/conneroisu/templatize/internal/config"
	"github.com/conneroisu/templatize/internal/restore"
	"github.com/conneroisu/templatize/internal/undolog"
)

var restoreCmd = &cobra.Command{
	Use:     "restore [dir]",
	Aliases: []string{"r"},
	Short:   "Restore a template instance back to a concrete project",
	Long: `Restore replays the undo log recorded by convert: removed files get
their content back, created files are deleted, and placeholder tokens still
present anywhere in the tree are substituted back to their original values.

With --select the replay and the token substitution are both restricted to
the listed paths; everything else keeps its placeholders. Restoring an
already-restored tree is a no-op.

Examples:
  templatize restore
  templatize restore ./my-app --dry-run
  templatize restore --select package.json --select README.md`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRestore,
}

var (
	restoreDryRun bool
	restoreSelect []string
	restoreLog    string
)

func init() {
	rootCmd.AddCommand(restoreCmd)

	restoreCmd.Flags().BoolVar(&restoreDryRun, "dry-run", false, "Report the reversals without writing")
	restoreCmd.Flags().StringSliceVar(&restoreSelect, "select", nil, "Restrict restoration to these paths")
	restoreCmd.Flags().StringVar(&restoreLog, "log", "", "Undo log path (default: the project's undo log)")
}

func runRestore(cmd *cobra.Command, args []string) error {
	root, err := projectRoot(args)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	logPath := restoreLog
	if logPath == "" {
		logPath = filepath.Join(root, cfg.UndoLog)
	}

	log, err := undolog.NewStore().Read(logPath)
	if err != nil {
		return err
	}

	result, err := restore.New(logger).Restore(cmd.Context(), log, root, restore.Options{
		Selection: restoreSelect,
		DryRun:    restoreDryRun,
	})
	if err != nil {
		return err
	}

	renderRestore(result, restoreDryRun)

	return nil
}

func renderRestore(result *restore.Result, dryRun bool) {
	for _, o := range result.Outcomes {
		switch o.Action {
		case "restored":
			color.Green("  ✓ %s restored", o.Path)
		case "deleted":
			color.Green("  ✓ %s deleted (did not exist before conversion)", o.Path)
		case "substituted":
			color.Cyan("  ~ %s  (%d token(s) substituted)", o.Path, o.Replacements)
		case "regenerate":
			color.Yellow("  ! %s: %s", o.Path, o.Detail)
		case "unchanged":
			fmt.Printf("  = %s already restored\n", o.Path)
		case "skipped":
			color.Yellow("  ! %s skipped: %s", o.Path, o.Detail)
		}
	}

	for _, w := range result.Warnings {
		color.Yellow("  warning: %s", w)
	}

	verb := "restored"
	if dryRun {
		verb = "would be restored"
	}
	fmt.Printf("\n%d file(s) %s, %d token(s) substituted\n",
		result.Restored, verb, result.TokensReplaced)
}
