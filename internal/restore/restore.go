// Package restore replays an undo log against a project tree, reversing the
// conversion in full or for a selected subset of paths.
package restore

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/conneroisu/templatize/internal/errors"
	"github.com/conneroisu/templatize/internal/logging"
	"github.com/conneroisu/templatize/internal/placeholder"
	"github.com/conneroisu/templatize/internal/planner"
	"github.com/conneroisu/templatize/internal/undolog"
)

// Options controls a restoration run.
type Options struct {
	// Selection restricts both the operation replay and the token
	// substitution pass to the listed root-relative paths. Empty means
	// full restore.
	Selection []string

	// DryRun computes and reports the reversals without writing.
	DryRun bool
}

// Outcome describes what restoration did (or would do) to one path.
type Outcome struct {
	Path string

	// Action is one of "restored", "deleted", "unchanged", "regenerate",
	// "substituted", "skipped".
	Action string

	// Replacements counts token substitutions for substituted outcomes.
	Replacements int

	Detail string
}

// Result reports a restoration run.
type Result struct {
	Restored       int
	TokensReplaced int
	Outcomes       []Outcome
	Warnings       []string
}

// Engine replays undo logs.
type Engine struct {
	logger logging.Logger
}

// New creates a restoration Engine.
func New(logger logging.Logger) *Engine {
	if logger == nil {
		logger = logging.NopLogger{}
	}

	return &Engine{logger: logger.WithComponent("restore")}
}

// tokenPattern recognizes placeholder tokens still present in files during
// the substitution pass. Sanitization placeholders are deliberately shaped
// the same way and are exempted separately.
var tokenPattern = regexp.MustCompile(`\{\{[A-Z][A-Z0-9_]*\}\}`)

const sanitizedTokenPrefix = "{{SANITIZED_"

// Restore reverses the recorded conversion. Operations are replayed in log
// order, then a second independent pass substitutes original values back
// into any selected file still carrying placeholder tokens. Running restore
// twice over the same log is a no-op on the second run.
func (e *Engine) Restore(ctx context.Context, log *undolog.UndoLog, root string, opts Options) (*Result, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeReadFailed,
			"failed to resolve project root", root, err)
	}

	for _, sel := range opts.Selection {
		if err := planner.GuardPath(absRoot, sel); err != nil {
			return nil, err
		}
	}

	selection := newSelection(opts.Selection)
	result := &Result{}

	if err := e.replayOperations(ctx, log, absRoot, selection, opts.DryRun, result); err != nil {
		return nil, err
	}
	if err := e.substituteTokens(ctx, log, absRoot, selection, opts.DryRun, result); err != nil {
		return nil, err
	}

	e.logger.Info(ctx, "restore finished",
		"restored", result.Restored,
		"tokens", result.TokensReplaced,
		"warnings", len(result.Warnings),
		"dry_run", opts.DryRun,
	)

	return result, nil
}

func (e *Engine) replayOperations(ctx context.Context, log *undolog.UndoLog, root string, sel *selection, dryRun bool, result *Result) error {
	for _, op := range log.FileOperations {
		if !sel.includes(op.Path) {
			continue
		}
		if op.Failed {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("%s: operation failed during conversion (%s); nothing to reverse", op.Path, op.FailureReason))
			continue
		}

		outcome, err := e.replayOne(root, op, sel, dryRun)
		if err != nil {
			return err
		}
		result.Outcomes = append(result.Outcomes, outcome)
		switch outcome.Action {
		case "restored", "deleted", "regenerate":
			result.Restored++
		case "skipped":
			result.Warnings = append(result.Warnings, op.Path+": "+outcome.Detail)
		}
	}

	return nil
}

func (e *Engine) replayOne(root string, op undolog.FileOperation, sel *selection, dryRun bool) (Outcome, error) {
	path := filepath.Join(root, filepath.FromSlash(op.Path))

	switch op.Kind {
	case undolog.KindFileRemoved, undolog.KindFileModified:
		if op.OriginalContent == nil {
			return Outcome{Path: op.Path, Action: "skipped",
				Detail: "log entry carries no original content"}, nil
		}

		current, err := os.ReadFile(path)
		switch {
		case err == nil && string(current) == *op.OriginalContent:
			return Outcome{Path: op.Path, Action: "unchanged"}, nil
		case err != nil && !os.IsNotExist(err):
			return Outcome{}, errors.NewIOError(errors.ErrCodeReadFailed,
				"failed to read file during restore", op.Path, err)
		case err != nil && op.Kind == undolog.KindFileModified:
			// The modified file has since disappeared. Fatal only when it
			// is the sole target of a selective restore.
			if sel.only(op.Path) {
				return Outcome{}, errors.NewNotFoundError(errors.ErrCodeFileNotFound,
					"selected file no longer exists", op.Path)
			}

			return Outcome{Path: op.Path, Action: "skipped",
				Detail: "file no longer exists"}, nil
		}

		if !dryRun {
			if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
				return Outcome{}, errors.NewIOError(errors.ErrCodeWriteFailed,
					"failed to create parent directory", op.Path, err)
			}
			if err := os.WriteFile(path, []byte(*op.OriginalContent), fileMode(path)); err != nil {
				return Outcome{}, errors.NewIOError(errors.ErrCodeWriteFailed,
					"failed to restore file content", op.Path, err)
			}
		}

		return Outcome{Path: op.Path, Action: "restored"}, nil

	case undolog.KindDirRemoved:
		// Directory contents were not retained; recreate the directory
		// and surface the regeneration hint verbatim.
		detail := "directory contents were not retained"
		if op.RegenerationCommand != "" {
			detail = "regenerate with: " + op.RegenerationCommand
		}
		if !dryRun {
			if err := os.MkdirAll(path, 0755); err != nil {
				return Outcome{}, errors.NewIOError(errors.ErrCodeWriteFailed,
					"failed to recreate directory", op.Path, err)
			}
		}

		return Outcome{Path: op.Path, Action: "regenerate", Detail: detail}, nil

	case undolog.KindFileCreated:
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				// Already gone; second restore run is a no-op.
				return Outcome{Path: op.Path, Action: "unchanged"}, nil
			}

			return Outcome{}, errors.NewIOError(errors.ErrCodeReadFailed,
				"failed to stat created file", op.Path, err)
		}
		if !dryRun {
			if err := os.Remove(path); err != nil {
				return Outcome{}, errors.NewIOError(errors.ErrCodeRemoveFailed,
					"failed to delete created file", op.Path, err)
			}
		}

		return Outcome{Path: op.Path, Action: "deleted"}, nil

	default:
		return Outcome{Path: op.Path, Action: "skipped",
			Detail: "unknown operation kind " + string(op.Kind)}, nil
	}
}

// substituteTokens is the second pass: every selected file still containing
// placeholder tokens gets its original values written back. It is
// independent of the operation replay so files touched only by substitution
// and never listed as an operation are still restored.
func (e *Engine) substituteTokens(ctx context.Context, log *undolog.UndoLog, root string, sel *selection, dryRun bool, result *Result) error {
	paths, err := candidateFiles(root, sel)
	if err != nil {
		return err
	}

	for _, rel := range paths {
		path := filepath.Join(root, filepath.FromSlash(rel))
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}

			return errors.NewIOError(errors.ErrCodeReadFailed,
				"failed to read file during token substitution", rel, err)
		}
		if isBinary(data) {
			continue
		}

		content := string(data)
		if !strings.Contains(content, "{{") {
			continue
		}

		restored, n := placeholder.SubstituteTokens(content, log.OriginalValues)

		if unknown := unmappedTokens(restored); len(unknown) > 0 {
			return errors.NewConfigError(errors.ErrCodeTokenUnmapped,
				"tokens present in "+rel+" have no entry in originalValues: "+strings.Join(unknown, ", ")).
				WithPath(rel)
		}
		if n == 0 {
			continue
		}

		if !dryRun {
			if err := os.WriteFile(path, []byte(restored), fileMode(path)); err != nil {
				return errors.NewIOError(errors.ErrCodeWriteFailed,
					"failed to write substituted file", rel, err)
			}
		}
		result.TokensReplaced += n
		result.Outcomes = append(result.Outcomes, Outcome{
			Path:         rel,
			Action:       "substituted",
			Replacements: n,
		})
	}

	return nil
}

// candidateFiles lists the files considered by the substitution pass:
// either the selection verbatim or every regular file under root.
func candidateFiles(root string, sel *selection) ([]string, error) {
	if !sel.empty() {
		return sel.sorted(), nil
	}

	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return errors.NewIOError(errors.ErrCodeReadFailed,
				"failed to walk project tree", path, err)
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}

			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)
		if rel == planner.UndoLogFileName {
			return nil
		}
		paths = append(paths, rel)

		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(paths)

	return paths, nil
}

// unmappedTokens returns placeholder tokens remaining in content after
// substitution, excluding sanitization placeholders, which are expected to
// survive a restore from a sanitized log.
func unmappedTokens(content string) []string {
	seen := make(map[string]bool)
	var unknown []string
	for _, tok := range tokenPattern.FindAllString(content, -1) {
		if strings.HasPrefix(tok, sanitizedTokenPrefix) {
			continue
		}
		if !seen[tok] {
			seen[tok] = true
			unknown = append(unknown, tok)
		}
	}
	sort.Strings(unknown)

	return unknown
}

// fileMode returns the existing mode of path so a rewrite keeps it, with a
// default for files the replay recreates from scratch.
func fileMode(path string) os.FileMode {
	if info, err := os.Stat(path); err == nil {
		return info.Mode()
	}

	return 0644
}

func isBinary(data []byte) bool {
	limit := len(data)
	if limit > 8000 {
		limit = 8000
	}

	return strings.ContainsRune(string(data[:limit]), '\x00')
}

// selection is the normalized set of selected paths.
type selection struct {
	paths map[string]bool
}

func newSelection(paths []string) *selection {
	if len(paths) == 0 {
		return &selection{}
	}
	s := &selection{paths: make(map[string]bool, len(paths))}
	for _, p := range paths {
		s.paths[filepath.ToSlash(filepath.Clean(p))] = true
	}

	return s
}

func (s *selection) empty() bool {
	return len(s.paths) == 0
}

func (s *selection) includes(path string) bool {
	if s.empty() {
		return true
	}

	return s.paths[filepath.ToSlash(path)]
}

// only reports whether path is the single selected target.
func (s *selection) only(path string) bool {
	return len(s.paths) == 1 && s.paths[filepath.ToSlash(path)]
}

func (s *selection) sorted() []string {
	out := make([]string, 0, len(s.paths))
	for p := range s.paths {
		out = append(out, p)
	}
	sort.Strings(out)

	return out
}
