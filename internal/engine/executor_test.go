package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/templatize/internal/planner"
	"github.com/conneroisu/templatize/internal/rules"
	"github.com/conneroisu/templatize/internal/undolog"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}

	return dir
}

func TestExecuteRefusesDryRunPlan(t *testing.T) {
	plan := &planner.Plan{Mode: planner.ModeDryRun}

	_, err := New(nil).Execute(context.Background(), plan)
	require.Error(t, err)
}

func TestExecuteRecordsReversibleOperations(t *testing.T) {
	root := writeTree(t, map[string]string{
		"package.json":                `{"name":"my-app"}`,
		"package-lock.json":           `{"lockfileVersion":3}`,
		"node_modules/react/index.js": "module.exports = {}\n",
		"node_modules/.bin/tsc":       "#!/bin/sh\n",
	})

	plan := &planner.Plan{
		Root:           root,
		ProjectType:    "node",
		Mode:           planner.ModeApply,
		PlaceholderMap: map[string]string{"{{PROJECT_NAME}}": "my-app"},
		Actions: []planner.Action{
			{Type: planner.ActionRemove, Path: "package-lock.json"},
			{Type: planner.ActionRemove, Path: "node_modules", IsDir: true, RegenerationCommand: "npm install"},
			{Type: planner.ActionModify, Path: "package.json", Content: `{"name":"{{PROJECT_NAME}}"}`},
			{Type: planner.ActionCreate, Path: "TEMPLATE.md", Content: "# Template\n"},
		},
	}

	result, err := New(nil).Execute(context.Background(), plan)
	require.NoError(t, err)
	require.True(t, result.Succeeded())
	assert.Equal(t, 4, result.Completed)

	log := result.Log
	assert.Equal(t, undolog.SchemaVersion, log.Version)
	assert.NotEmpty(t, log.ID)
	assert.Equal(t, "node", log.ProjectType)
	assert.Equal(t, map[string]string{"{{PROJECT_NAME}}": "my-app"}, log.OriginalValues)
	require.Len(t, log.FileOperations, 4)

	// Removed file retains its content.
	op := log.FileOperations[0]
	assert.Equal(t, undolog.KindFileRemoved, op.Kind)
	require.NotNil(t, op.OriginalContent)
	assert.Equal(t, `{"lockfileVersion":3}`, *op.OriginalContent)
	assert.NoFileExists(t, filepath.Join(root, "package-lock.json"))

	// Removed directory retains a manifest and the regeneration hint.
	op = log.FileOperations[1]
	assert.Equal(t, undolog.KindDirRemoved, op.Kind)
	assert.Equal(t, "npm install", op.RegenerationCommand)
	require.NotNil(t, op.OriginalContent)
	assert.Contains(t, *op.OriginalContent, "react/index.js")
	assert.Contains(t, *op.OriginalContent, ".bin/")
	assert.NoDirExists(t, filepath.Join(root, "node_modules"))

	// Modified file retains pre-modification content and is rewritten.
	op = log.FileOperations[2]
	assert.Equal(t, undolog.KindFileModified, op.Kind)
	require.NotNil(t, op.OriginalContent)
	assert.Equal(t, `{"name":"my-app"}`, *op.OriginalContent)
	data, err := os.ReadFile(filepath.Join(root, "package.json"))
	require.NoError(t, err)
	assert.Equal(t, `{"name":"{{PROJECT_NAME}}"}`, string(data))

	// Created file records absence of prior content.
	op = log.FileOperations[3]
	assert.Equal(t, undolog.KindFileCreated, op.Kind)
	assert.Nil(t, op.OriginalContent)
	assert.FileExists(t, filepath.Join(root, "TEMPLATE.md"))
}

func TestExecutePreservedFileSurvivesDirectoryCleanup(t *testing.T) {
	root := writeTree(t, map[string]string{
		"dist/keep.txt":  "keep me\n",
		"dist/bundle.js": "bundle\n",
		"dist/sub/x.js":  "x\n",
	})

	table := &rules.RuleTable{
		ProjectType:      "node",
		RemovePatterns:   []string{"dist", "dist/**"},
		PreservePatterns: []string{"dist/keep.txt"},
	}
	require.NoError(t, table.Compile())

	ctx := context.Background()
	plan, err := planner.New(nil).Plan(ctx, root, table, map[string]string{}, planner.ModeApply)
	require.NoError(t, err)

	result, err := New(nil).Execute(ctx, plan)
	require.NoError(t, err)
	require.True(t, result.Succeeded())

	assert.FileExists(t, filepath.Join(root, "dist", "keep.txt"))
	assert.NoFileExists(t, filepath.Join(root, "dist", "bundle.js"))
	assert.NoDirExists(t, filepath.Join(root, "dist", "sub"))
}

func TestExecuteCreateOverExistingFileRecordsContent(t *testing.T) {
	root := writeTree(t, map[string]string{"TEMPLATE.md": "old\n"})

	plan := &planner.Plan{
		Root: root,
		Mode: planner.ModeApply,
		Actions: []planner.Action{
			{Type: planner.ActionCreate, Path: "TEMPLATE.md", Content: "new\n"},
		},
	}

	result, err := New(nil).Execute(context.Background(), plan)
	require.NoError(t, err)

	op := result.Log.FileOperations[0]
	assert.Equal(t, undolog.KindFileModified, op.Kind)
	require.NotNil(t, op.OriginalContent)
	assert.Equal(t, "old\n", *op.OriginalContent)
}

func TestExecutePartialFailureContinues(t *testing.T) {
	root := writeTree(t, map[string]string{"real.txt": "content\n"})

	plan := &planner.Plan{
		Root: root,
		Mode: planner.ModeApply,
		Actions: []planner.Action{
			{Type: planner.ActionRemove, Path: "missing.txt"},
			{Type: planner.ActionRemove, Path: "real.txt"},
		},
	}

	result, err := New(nil).Execute(context.Background(), plan)
	require.NoError(t, err)

	// The failing action is reported with its path; the independent
	// action after it still ran and is recorded.
	assert.False(t, result.Succeeded())
	require.Len(t, result.Failures, 1)
	assert.Equal(t, "missing.txt", result.Failures[0].Path)
	assert.Equal(t, 1, result.Completed)

	require.Len(t, result.Log.FileOperations, 2)
	assert.True(t, result.Log.FileOperations[0].Failed)
	assert.NotEmpty(t, result.Log.FileOperations[0].FailureReason)
	assert.False(t, result.Log.FileOperations[1].Failed)
	assert.NoFileExists(t, filepath.Join(root, "real.txt"))
}
