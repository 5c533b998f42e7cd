package planner

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/conneroisu/templatize/internal/errors"
	"github.com/conneroisu/templatize/internal/logging"
	"github.com/conneroisu/templatize/internal/placeholder"
	"github.com/conneroisu/templatize/internal/rules"
)

// UndoLogFileName is the well-known undo log location inside a project.
// The planner never plans actions against it.
const UndoLogFileName = ".templatize-undo.json"

// Planner computes conversion plans.
type Planner struct {
	logger logging.Logger
}

// New creates a Planner.
func New(logger logging.Logger) *Planner {
	if logger == nil {
		logger = logging.NopLogger{}
	}

	return &Planner{logger: logger.WithComponent("planner")}
}

// Plan walks the tree under root and computes the full conversion plan:
// cleanup removals per the rule table followed by placeholder substitution
// rewrites of the target files. Planning reads the tree but never writes to
// it; the same tree state yields a byte-identical plan in either mode.
func (p *Planner) Plan(ctx context.Context, root string, table *rules.RuleTable, placeholderMap map[string]string, mode Mode) (*Plan, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeReadFailed,
			"failed to resolve project root", root, err)
	}

	plan := &Plan{
		Root:           absRoot,
		ProjectType:    table.ProjectType,
		Mode:           mode,
		PlaceholderMap: placeholderMap,
	}

	removals, err := p.planCleanup(absRoot, table)
	if err != nil {
		return nil, err
	}
	plan.Actions = append(plan.Actions, removals...)

	modifies, err := p.planSubstitution(absRoot, table, placeholderMap)
	if err != nil {
		return nil, err
	}
	plan.Actions = append(plan.Actions, modifies...)

	creates, err := p.planCreates(absRoot, table)
	if err != nil {
		return nil, err
	}
	plan.Actions = append(plan.Actions, creates...)

	for _, a := range plan.Actions {
		if err := GuardPath(absRoot, a.Path); err != nil {
			return nil, err
		}
	}

	removes, mods, _, warns := plan.Counts()
	p.logger.Debug(ctx, "plan computed",
		"root", absRoot,
		"type", table.ProjectType,
		"removes", removes,
		"modifies", mods,
		"warnings", warns,
	)

	return plan, nil
}

// planCleanup evaluates the rule table's pattern groups against the existing
// tree. Precedence: explicit preserve always wins, then remove, then
// sensitive removal with a warning. Unmatched paths are implicitly
// preserved. Matched directories are removed whole unless a preserve
// pattern matches a descendant, in which case the removal is split into
// per-child removals that leave the preserved paths alone.
func (p *Planner) planCleanup(root string, table *rules.RuleTable) ([]Action, error) {
	var actions []Action

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return errors.NewIOError(errors.ErrCodeReadFailed,
				"failed to walk project tree", path, err)
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return errors.NewIOError(errors.ErrCodeReadFailed,
				"failed to relativize path", path, relErr)
		}
		rel = filepath.ToSlash(rel)

		if rel == "." {
			return nil
		}
		if d.IsDir() && d.Name() == ".git" {
			return filepath.SkipDir
		}
		if rel == UndoLogFileName {
			return nil
		}

		if table.ShouldPreserve(rel) {
			return nil
		}

		if pattern, ok := table.ShouldRemove(rel); ok {
			hint := table.RegenerationHint(pattern)
			if d.IsDir() {
				preserved, pErr := preservedWithin(path, rel, table)
				if pErr != nil {
					return pErr
				}
				if preserved {
					split, sErr := splitRemove(path, rel, table, hint, "")
					if sErr != nil {
						return sErr
					}
					actions = append(actions, split...)

					return filepath.SkipDir
				}
			}
			actions = append(actions, Action{
				Type:                ActionRemove,
				Path:                rel,
				IsDir:               d.IsDir(),
				RegenerationCommand: hint,
			})
			if d.IsDir() {
				return filepath.SkipDir
			}

			return nil
		}

		if pattern, ok := table.IsSensitive(rel); ok {
			warning := "matches sensitive pattern " + pattern + "; remove before sharing"
			if d.IsDir() {
				preserved, pErr := preservedWithin(path, rel, table)
				if pErr != nil {
					return pErr
				}
				if preserved {
					split, sErr := splitRemove(path, rel, table, "", warning)
					if sErr != nil {
						return sErr
					}
					actions = append(actions, split...)

					return filepath.SkipDir
				}
			}
			actions = append(actions, Action{
				Type:    ActionRemove,
				Path:    rel,
				IsDir:   d.IsDir(),
				Warning: warning,
			})
			if d.IsDir() {
				return filepath.SkipDir
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(actions, func(i, j int) bool {
		return actions[i].Path < actions[j].Path
	})

	return actions, nil
}

// preservedWithin reports whether any descendant of dir matches a preserve
// pattern. rel is dir's root-relative path.
func preservedWithin(dir, rel string, table *rules.RuleTable) (bool, error) {
	found := false
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return errors.NewIOError(errors.ErrCodeReadFailed,
				"failed to walk directory during planning", path, err)
		}
		if path == dir {
			return nil
		}
		sub, subErr := filepath.Rel(dir, path)
		if subErr != nil {
			return subErr
		}
		if table.ShouldPreserve(rel + "/" + filepath.ToSlash(sub)) {
			found = true

			return fs.SkipAll
		}

		return nil
	})
	if err != nil {
		return false, err
	}

	return found, nil
}

// splitRemove expands the removal of a directory containing preserved
// descendants into removals of its non-preserved children. Child directories
// with no preserved descendant of their own are removed whole and inherit
// the parent's regeneration hint.
func splitRemove(dir, rel string, table *rules.RuleTable, hint, warning string) ([]Action, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeReadFailed,
			"failed to list directory during planning", rel, err)
	}

	var actions []Action
	for _, entry := range entries {
		childRel := rel + "/" + entry.Name()
		childPath := filepath.Join(dir, entry.Name())
		if table.ShouldPreserve(childRel) {
			continue
		}

		if entry.IsDir() {
			preserved, err := preservedWithin(childPath, childRel, table)
			if err != nil {
				return nil, err
			}
			if preserved {
				sub, err := splitRemove(childPath, childRel, table, hint, warning)
				if err != nil {
					return nil, err
				}
				actions = append(actions, sub...)

				continue
			}
			actions = append(actions, Action{
				Type:                ActionRemove,
				Path:                childRel,
				IsDir:               true,
				RegenerationCommand: hint,
				Warning:             warning,
			})

			continue
		}

		actions = append(actions, Action{Type: ActionRemove, Path: childRel, Warning: warning})
	}

	return actions, nil
}

// planSubstitution simulates placeholder substitution over the table's
// target files and emits a modify action per file whose content changes.
func (p *Planner) planSubstitution(root string, table *rules.RuleTable, placeholderMap map[string]string) ([]Action, error) {
	var actions []Action

	targets := append([]string(nil), table.TargetFiles...)
	sort.Strings(targets)

	for _, rel := range targets {
		if err := GuardPath(root, rel); err != nil {
			return nil, err
		}

		data, err := os.ReadFile(filepath.Join(root, rel))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}

			return nil, errors.NewIOError(errors.ErrCodeReadFailed,
				"failed to read substitution target", rel, err)
		}

		original := string(data)
		rewritten, n := placeholder.SubstituteValues(original, placeholderMap)
		if n == 0 {
			continue
		}

		actions = append(actions, Action{
			Type:            ActionModify,
			Path:            rel,
			Content:         rewritten,
			OriginalContent: original,
			Replacements:    n,
		})
	}

	return actions, nil
}

// planCreates emits a create action for each of the table's generated files,
// skipping files already present with exactly the generated content so a
// re-run converts cleanly.
func (p *Planner) planCreates(root string, table *rules.RuleTable) ([]Action, error) {
	var actions []Action

	for _, f := range table.CreateFiles {
		if err := GuardPath(root, f.Path); err != nil {
			return nil, err
		}

		existing, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(f.Path)))
		if err != nil && !os.IsNotExist(err) {
			return nil, errors.NewIOError(errors.ErrCodeReadFailed,
				"failed to read generated file target", f.Path, err)
		}
		if err == nil && string(existing) == f.Content {
			continue
		}

		actions = append(actions, Action{
			Type:    ActionCreate,
			Path:    f.Path,
			Content: f.Content,
		})
	}

	return actions, nil
}

// GuardPath rejects root-relative paths that escape the project root. The
// planner applies it to every planned action; restore applies it to
// selective-restore targets.
func GuardPath(root, rel string) error {
	if rel == "" || filepath.IsAbs(rel) {
		return errors.NewPathTraversalError(rel)
	}
	clean := filepath.Clean(filepath.FromSlash(rel))
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return errors.NewPathTraversalError(rel)
	}
	abs := filepath.Join(root, clean)
	if abs != root && !strings.HasPrefix(abs, root+string(filepath.Separator)) {
		return errors.NewPathTraversalError(rel)
	}

	return nil
}
