package cmd

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/conneroisu/templatize/internal/config"
	"github.com/conneroisu/templatize/internal/logging"
	"github.com/conneroisu/templatize/internal/planner"
)

var previewCmd = &cobra.Command{
	Use:     "preview [dir]",
	Aliases: []string{"p"},
	Short:   "Show the conversion plan without changing anything",
	Long: `Preview computes the conversion plan for a project and renders it.
Planning is side-effect free: the tree is read but never written.

With --watch the plan is recomputed and re-rendered whenever the project
tree changes, which is useful while tuning a custom rule table.

Examples:
  templatize preview
  templatize preview ./my-app --type node
  templatize preview --watch`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPreview,
}

var (
	previewWatch bool
	previewType  string
	previewSet   map[string]string
	previewRules string
)

func init() {
	rootCmd.AddCommand(previewCmd)

	previewCmd.Flags().BoolVarP(&previewWatch, "watch", "w", false, "Re-plan on file-system changes")
	addProjectFlags(previewCmd.Flags(), &previewType, &previewSet, &previewRules)
}

func runPreview(cmd *cobra.Command, args []string) error {
	root, err := projectRoot(args)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if previewRules != "" {
		cfg.RuleFile = previewRules
	}
	logger := newLogger(cfg)

	table, placeholderMap, err := resolveProject(cfg, root, previewType, previewSet)
	if err != nil {
		return err
	}

	replan := func(ctx context.Context) error {
		plan, err := planner.New(logger).Plan(ctx, root, table, placeholderMap, planner.ModeDryRun)
		if err != nil {
			return err
		}
		renderPlan(plan)

		return nil
	}

	if err := replan(cmd.Context()); err != nil {
		return err
	}
	if !previewWatch {
		return nil
	}

	return watchAndReplan(cmd.Context(), logger, root, replan)
}

// watchAndReplan re-runs the planner on debounced file-system events until
// interrupted. Planning is pure, so re-running it on every change is safe.
func watchAndReplan(parent context.Context, logger logging.Logger, root string, replan func(context.Context) error) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watchTree(watcher, root); err != nil {
		return err
	}

	fmt.Println("\nWatching for changes (Ctrl-C to stop)...")

	var timer *time.Timer
	debounced := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) == planner.UndoLogFileName {
				continue
			}
			if event.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = watchTree(watcher, event.Name)
				}
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(300*time.Millisecond, func() {
				select {
				case debounced <- struct{}{}:
				default:
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn(ctx, err, "watcher error")

		case <-debounced:
			fmt.Print("\033[2J\033[H")
			if err := replan(ctx); err != nil {
				logger.Error(ctx, err, "re-plan failed")
			}
		}
	}
}

// watchTree registers root and all its subdirectories with the watcher,
// skipping .git and directories the rule tables would remove anyway.
func watchTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		switch d.Name() {
		case ".git", "node_modules", "vendor", "target", ".venv":
			return filepath.SkipDir
		}

		return watcher.Add(path)
	})
}
