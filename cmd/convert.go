package cmd

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/conneroisu/templatize/internal/config"
	"github.com/conneroisu/templatize/internal/detect"
	"github.com/conneroisu/templatize/internal/engine"
	"github.com/conneroisu/templatize/internal/placeholder"
	"github.com/conneroisu/templatize/internal/planner"
	"github.com/conneroisu/templatize/internal/rules"
	"github.com/conneroisu/templatize/internal/undolog"
)

var convertCmd = &cobra.Command{
	Use:     "convert [dir]",
	Aliases: []string{"c"},
	Short:   "Convert a project into a template, recording an undo log",
	Long: `Convert replaces project-specific values in the target files with
placeholder tokens and removes lockfiles, build output, and caches per the
project type's rule table. Every mutation is recorded in a reversible undo
log written to the project directory.

The full plan is computed and shown before anything is touched; without
--yes a confirmation prompt gates execution.

Examples:
  templatize convert                       # Convert the current directory
  templatize convert ./my-app --dry-run    # Plan only, change nothing
  templatize convert --type node           # Skip detection
  templatize convert --set name=my-app --set author="Jane Doe"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConvert,
}

var (
	convertDryRun bool
	convertYes    bool
	convertType   string
	convertSet    map[string]string
	convertRules  string
)

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().BoolVar(&convertDryRun, "dry-run", false, "Compute and show the plan without changing anything")
	convertCmd.Flags().BoolVarP(&convertYes, "yes", "y", false, "Skip the confirmation prompt")
	addProjectFlags(convertCmd.Flags(), &convertType, &convertSet, &convertRules)
}

func runConvert(cmd *cobra.Command, args []string) error {
	root, err := projectRoot(args)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if convertRules != "" {
		cfg.RuleFile = convertRules
	}
	logger := newLogger(cfg)

	table, placeholderMap, err := resolveProject(cfg, root, convertType, convertSet)
	if err != nil {
		return err
	}

	mode := planner.ModeApply
	if convertDryRun {
		mode = planner.ModeDryRun
	}

	plan, err := planner.New(logger).Plan(cmd.Context(), root, table, placeholderMap, mode)
	if err != nil {
		return err
	}

	renderPlan(plan)

	if convertDryRun {
		fmt.Println("\nDry run: nothing was changed.")

		return nil
	}
	if len(plan.Actions) == 0 {
		fmt.Println("\nNothing to do.")

		return nil
	}

	if !convertYes && !confirm("Apply this plan?") {
		fmt.Println("Aborted.")

		return nil
	}

	result, err := engine.New(logger).Execute(cmd.Context(), plan)
	if err != nil {
		return err
	}

	logPath := filepath.Join(root, cfg.UndoLog)
	if err := undolog.NewStore().Write(result.Log, logPath); err != nil {
		return err
	}

	fmt.Printf("\n%s %d operation(s) applied, undo log written to %s\n",
		color.GreenString("✓"), result.Completed, logPath)

	if !result.Succeeded() {
		for _, f := range result.Failures {
			color.Red("  ✗ %s: %v", f.Path, f.Cause)
		}

		return fmt.Errorf("%d action(s) failed; completed operations are recorded in the undo log", len(result.Failures))
	}

	return nil
}

// projectRoot resolves the positional directory argument, defaulting to the
// current directory.
func projectRoot(args []string) (string, error) {
	if len(args) == 0 {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get current directory: %w", err)
		}

		return cwd, nil
	}

	return args[0], nil
}

// resolveProject determines the project type, looks up its rule table, and
// resolves the placeholder mapping from inputs, manifest metadata, and
// fallbacks.
func resolveProject(cfg *config.Config, root, typeFlag string, setFlag map[string]string) (*rules.RuleTable, map[string]string, error) {
	projectType := typeFlag
	if projectType == "" {
		projectType = cfg.ProjectType
	}
	if projectType == "" {
		detected, err := detect.ProjectType(root)
		if err != nil {
			return nil, nil, err
		}
		projectType = detected
	}

	registry, err := loadRegistry(cfg)
	if err != nil {
		return nil, nil, err
	}
	table, err := registry.Get(projectType)
	if err != nil {
		return nil, nil, err
	}

	inputs := make(map[string]string, len(cfg.Values)+len(setFlag))
	for k, v := range cfg.Values {
		inputs[k] = v
	}
	for k, v := range setFlag {
		inputs[k] = v
	}

	placeholderMap, err := placeholder.Resolve(table, &placeholder.Context{
		Inputs:   inputs,
		Metadata: detect.Metadata(root, projectType),
	})
	if err != nil {
		return nil, nil, err
	}

	return table, placeholderMap, nil
}

// renderPlan prints the advisory preview of a plan.
func renderPlan(plan *planner.Plan) {
	removes, modifies, creates, warnings := plan.Counts()

	fmt.Printf("Plan for %s (%s)\n\n", plan.Root, plan.ProjectType)

	for _, a := range plan.Actions {
		switch a.Type {
		case planner.ActionRemove:
			suffix := ""
			if a.RegenerationCommand != "" {
				suffix = "  (regenerate with: " + a.RegenerationCommand + ")"
			}
			color.Red("  - %s%s", a.Path, suffix)
			if a.Warning != "" {
				color.Yellow("    ! %s", a.Warning)
			}
		case planner.ActionModify:
			color.Cyan("  ~ %s  (%d replacement(s))", a.Path, a.Replacements)
		case planner.ActionCreate:
			color.Green("  + %s", a.Path)
		}
	}

	if len(plan.PlaceholderMap) > 0 {
		fmt.Println("\nPlaceholders:")
		for _, token := range sortedKeys(plan.PlaceholderMap) {
			fmt.Printf("  %s → %s\n", token, plan.PlaceholderMap[token])
		}
	}

	fmt.Printf("\n%d removal(s), %d modification(s), %d creation(s), %d warning(s)\n",
		removes, modifies, creates, warnings)
}

func confirm(prompt string) bool {
	fmt.Printf("%s [y/N] ", prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	answer := strings.ToLower(strings.TrimSpace(line))

	return answer == "y" || answer == "yes"
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return keys
}
