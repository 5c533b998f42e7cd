package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/conneroisu/templatize/internal/config"
	"github.com/conneroisu/templatize/internal/sanitize"
	"github.com/conneroisu/templatize/internal/undolog"
)

var sanitizeCmd = &cobra.Command{
	Use:     "sanitize [dir]",
	Aliases: []string{"s"},
	Short:   "Redact sensitive values from an undo log before sharing it",
	Long: `Sanitize scans the undo log for API keys, emails, user paths, opaque
IDs, IP addresses, and database URLs, and replaces every match with a fixed
placeholder token. The result is written as a sanitized copy; the original
log is left untouched and should stay private.

The printed report contains only counts, categories, and replacement tokens,
never the matched values, so it is safe to share on its own.

Examples:
  templatize sanitize
  templatize sanitize --preview              # Report only, write nothing
  templatize sanitize --output shared.json
  templatize sanitize --in-place`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSanitize,
}

var (
	sanitizePreview bool
	sanitizeOutput  string
	sanitizeInPlace bool
	sanitizeLog     string
)

func init() {
	rootCmd.AddCommand(sanitizeCmd)

	sanitizeCmd.Flags().BoolVar(&sanitizePreview, "preview", false, "Report what would be removed without writing")
	sanitizeCmd.Flags().StringVarP(&sanitizeOutput, "output", "o", "", "Path for the sanitized copy (default: <log>.sanitized.json)")
	sanitizeCmd.Flags().BoolVar(&sanitizeInPlace, "in-place", false, "Overwrite the undo log instead of writing a copy")
	sanitizeCmd.Flags().StringVar(&sanitizeLog, "log", "", "Undo log path (default: the project's undo log)")
}

func runSanitize(cmd *cobra.Command, args []string) error {
	root, err := projectRoot(args)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	logPath := sanitizeLog
	if logPath == "" {
		logPath = filepath.Join(root, cfg.UndoLog)
	}

	log, err := undolog.NewStore().Read(logPath)
	if err != nil {
		return err
	}

	sanitizer, err := sanitize.New()
	if err != nil {
		return err
	}
	for _, w := range sanitizer.Warnings() {
		logger.Warn(cmd.Context(), nil, w)
	}

	if sanitizePreview {
		report := sanitizer.Preview(log)
		renderReport(report)
		fmt.Println("\nPreview: nothing was written.")

		return nil
	}

	sanitized, report := sanitizer.SanitizeUndoLog(log)

	outPath := sanitizeOutput
	if outPath == "" {
		outPath = sanitizedPath(logPath)
	}
	if sanitizeInPlace {
		outPath = logPath
	}

	if err := undolog.NewStore().Write(sanitized, outPath); err != nil {
		return err
	}

	renderReport(report)
	fmt.Printf("\n%s Sanitized log written to %s\n", color.GreenString("✓"), outPath)

	return nil
}

func sanitizedPath(logPath string) string {
	base := strings.TrimSuffix(logPath, filepath.Ext(logPath))

	return base + ".sanitized.json"
}

func renderReport(report *undolog.SanitizationReport) {
	fmt.Printf("Sanitization report: %d item(s) removed, %d byte(s) smaller\n",
		report.ItemsRemoved, report.SizeDelta)

	for _, d := range report.Details {
		fmt.Printf("  %-10s %3d item(s) → %s\n", d.Category, d.Items, d.Replacement)
	}
	for _, r := range report.Recommendations {
		color.Yellow("  • %s", r)
	}
}
