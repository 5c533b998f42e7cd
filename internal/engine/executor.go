// Package engine applies conversion plans to disk. The executor is the only
// component that mutates the project tree and the only one that constructs
// an undo log from scratch.
package engine

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/conneroisu/templatize/internal/errors"
	"github.com/conneroisu/templatize/internal/logging"
	"github.com/conneroisu/templatize/internal/planner"
	"github.com/conneroisu/templatize/internal/undolog"
)

// ActionFailure records one action the executor could not complete.
type ActionFailure struct {
	Path  string
	Cause error
}

// Result reports the outcome of executing a plan. Failures do not abort
// independent actions; completed operations are always present in Log so a
// retry or manual fix remains possible.
type Result struct {
	Log       *undolog.UndoLog
	Completed int
	Failures  []ActionFailure
}

// Succeeded reports whether every action completed.
func (r *Result) Succeeded() bool {
	return len(r.Failures) == 0
}

// Executor applies plans.
type Executor struct {
	logger logging.Logger
}

// New creates an Executor.
func New(logger logging.Logger) *Executor {
	if logger == nil {
		logger = logging.NopLogger{}
	}

	return &Executor{logger: logger.WithComponent("engine")}
}

// Execute applies the plan's actions in order, capturing pre-mutation state
// into the undo log as it goes. A per-action failure is recorded against
// that action and execution continues with the remaining actions.
func (e *Executor) Execute(ctx context.Context, plan *planner.Plan) (*Result, error) {
	if plan.Mode != planner.ModeApply {
		return nil, errors.NewConfigError(errors.ErrCodeInternal,
			"refusing to execute a dry-run plan")
	}

	log := &undolog.UndoLog{
		Version:        undolog.SchemaVersion,
		ID:             uuid.NewString(),
		Timestamp:      time.Now().UTC(),
		ProjectType:    plan.ProjectType,
		OriginalValues: plan.PlaceholderMap,
		Metadata: map[string]string{
			"root": plan.Root,
		},
	}

	result := &Result{Log: log}

	for _, action := range plan.Actions {
		op, err := e.apply(plan.Root, action)
		if err != nil {
			e.logger.Warn(ctx, err, "action failed", "path", action.Path, "type", string(action.Type))
			op.Failed = true
			op.FailureReason = err.Error()
			result.Failures = append(result.Failures, ActionFailure{Path: action.Path, Cause: err})
		} else {
			result.Completed++
		}
		log.FileOperations = append(log.FileOperations, op)
	}

	e.logger.Info(ctx, "plan executed",
		"completed", result.Completed,
		"failed", len(result.Failures),
	)

	return result, nil
}

// apply performs one action and returns the operation record reversing it.
// The record is returned even on failure so the log reflects what was
// attempted.
func (e *Executor) apply(root string, action planner.Action) (undolog.FileOperation, error) {
	path := filepath.Join(root, filepath.FromSlash(action.Path))

	switch action.Type {
	case planner.ActionRemove:
		if action.IsDir {
			return e.removeDir(path, action)
		}

		return e.removeFile(path, action)

	case planner.ActionModify:
		return e.modifyFile(path, action)

	case planner.ActionCreate:
		return e.createFile(path, action)

	default:
		op := undolog.FileOperation{Path: action.Path}

		return op, errors.NewInternalError("unknown action type "+string(action.Type), nil)
	}
}

func (e *Executor) removeFile(path string, action planner.Action) (undolog.FileOperation, error) {
	op := undolog.FileOperation{
		Path:                action.Path,
		Kind:                undolog.KindFileRemoved,
		RegenerationCommand: action.RegenerationCommand,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return op, errors.NewIOError(errors.ErrCodeReadFailed,
			"failed to read file before removal", action.Path, err)
	}
	content := string(data)
	op.OriginalContent = &content

	if err := os.Remove(path); err != nil {
		return op, errors.NewIOError(errors.ErrCodeRemoveFailed,
			"failed to remove file", action.Path, err)
	}

	return op, nil
}

// removeDir deletes a directory tree. Retaining every child's content is
// impractical, so the operation records an entry manifest plus the rule
// table's regeneration hint instead.
func (e *Executor) removeDir(path string, action planner.Action) (undolog.FileOperation, error) {
	op := undolog.FileOperation{
		Path:                action.Path,
		Kind:                undolog.KindDirRemoved,
		RegenerationCommand: action.RegenerationCommand,
	}

	manifest, err := dirManifest(path)
	if err != nil {
		return op, err
	}
	op.OriginalContent = &manifest

	if err := os.RemoveAll(path); err != nil {
		return op, errors.NewIOError(errors.ErrCodeRemoveFailed,
			"failed to remove directory", action.Path, err)
	}

	return op, nil
}

func (e *Executor) modifyFile(path string, action planner.Action) (undolog.FileOperation, error) {
	op := undolog.FileOperation{
		Path: action.Path,
		Kind: undolog.KindFileModified,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return op, errors.NewIOError(errors.ErrCodeReadFailed,
			"failed to read file before modification", action.Path, err)
	}
	content := string(data)
	op.OriginalContent = &content

	mode := os.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode()
	}
	if err := os.WriteFile(path, []byte(action.Content), mode); err != nil {
		return op, errors.NewIOError(errors.ErrCodeWriteFailed,
			"failed to write modified file", action.Path, err)
	}

	return op, nil
}

func (e *Executor) createFile(path string, action planner.Action) (undolog.FileOperation, error) {
	op := undolog.FileOperation{Path: action.Path}

	if data, err := os.ReadFile(path); err == nil {
		// Pre-existing file: record its content so restoration reverts
		// instead of deleting.
		op.Kind = undolog.KindFileModified
		content := string(data)
		op.OriginalContent = &content
	} else if os.IsNotExist(err) {
		op.Kind = undolog.KindFileCreated
	} else {
		return op, errors.NewIOError(errors.ErrCodeReadFailed,
			"failed to check file before creation", action.Path, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return op, errors.NewIOError(errors.ErrCodeWriteFailed,
			"failed to create parent directory", action.Path, err)
	}
	if err := os.WriteFile(path, []byte(action.Content), 0644); err != nil {
		return op, errors.NewIOError(errors.ErrCodeWriteFailed,
			"failed to create file", action.Path, err)
	}

	return op, nil
}

// dirManifest lists a directory's entries, one root-relative path per line,
// as the recovery record for a whole-tree removal.
func dirManifest(dir string) (string, error) {
	var entries []string

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil || rel == "." {
			return relErr
		}
		if d.IsDir() {
			rel += "/"
		}
		entries = append(entries, filepath.ToSlash(rel))

		return nil
	})
	if err != nil {
		return "", errors.NewIOError(errors.ErrCodeReadFailed,
			"failed to list directory before removal", dir, err)
	}

	sort.Strings(entries)

	return strings.Join(entries, "\n"), nil
}
