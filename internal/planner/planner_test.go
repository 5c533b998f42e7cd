package planner

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/templatize/internal/errors"
	"github.com/conneroisu/templatize/internal/rules"
)

func testTable(t *testing.T) *rules.RuleTable {
	t.Helper()

	table := &rules.RuleTable{
		ProjectType: "node",
		Placeholders: []rules.PlaceholderKey{
			{Token: "{{PROJECT_NAME}}", Input: "name", Required: true},
		},
		TargetFiles:       []string{"package.json", "README.md"},
		RemovePatterns:    []string{"node_modules", "node_modules/**", "dist/**", "package-lock.json"},
		PreservePatterns:  []string{"dist/keep.txt"},
		SensitivePatterns: []string{".env"},
		RegenerationCommands: map[string]string{
			"node_modules": "npm install",
		},
	}
	require.NoError(t, table.Compile())

	return table
}

func testTree(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	files := map[string]string{
		"package.json":                `{"name":"my-app"}`,
		"README.md":                   "# my-app\n",
		"src/index.js":                "console.log('hi')\n",
		"package-lock.json":           "{}",
		"node_modules/react/index.js": "module.exports = {}\n",
		"dist/bundle.js":              "bundle\n",
		"dist/keep.txt":               "keep me\n",
		".env":                        "API_KEY=abc\n",
		UndoLogFileName:               "{}",
	}
	for rel, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}

	return dir
}

func planMap(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{"{{PROJECT_NAME}}": "my-app"}
	}

	return m
}

func TestPlanCleanupPrecedence(t *testing.T) {
	root := testTree(t)
	plan, err := New(nil).Plan(context.Background(), root, testTable(t), planMap(nil), ModeDryRun)
	require.NoError(t, err)

	byPath := make(map[string]Action)
	for _, a := range plan.Actions {
		byPath[a.Path] = a
	}

	// Whole directory removed, children not listed separately.
	nm, ok := byPath["node_modules"]
	require.True(t, ok)
	assert.Equal(t, ActionRemove, nm.Type)
	assert.True(t, nm.IsDir)
	assert.Equal(t, "npm install", nm.RegenerationCommand)
	assert.NotContains(t, byPath, "node_modules/react/index.js")

	// Preserve wins over the broader remove glob.
	assert.NotContains(t, byPath, "dist/keep.txt")
	assert.Contains(t, byPath, "dist/bundle.js")

	// Sensitive removal carries a warning, ordinary cleanup does not.
	env, ok := byPath[".env"]
	require.True(t, ok)
	assert.Equal(t, ActionRemove, env.Type)
	assert.NotEmpty(t, env.Warning)
	assert.Empty(t, byPath["package-lock.json"].Warning)

	// Unmatched paths and the undo log are untouched.
	assert.NotContains(t, byPath, "src/index.js")
	assert.NotContains(t, byPath, UndoLogFileName)
}

func TestPlanPreservedFileInsideRemovedDirectory(t *testing.T) {
	root := t.TempDir()
	files := map[string]string{
		"dist/keep.txt":    "keep me\n",
		"dist/bundle.js":   "bundle\n",
		"dist/sub/x.js":    "x\n",
		"secrets/token":    "tok\n",
		"secrets/note.txt": "public\n",
	}
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}

	table := &rules.RuleTable{
		ProjectType:       "node",
		RemovePatterns:    []string{"dist", "dist/**"},
		PreservePatterns:  []string{"dist/keep.txt", "secrets/note.txt"},
		SensitivePatterns: []string{"secrets", "secrets/**"},
		RegenerationCommands: map[string]string{
			"dist": "npm run build",
		},
	}
	require.NoError(t, table.Compile())

	plan, err := New(nil).Plan(context.Background(), root, table, map[string]string{}, ModeDryRun)
	require.NoError(t, err)

	byPath := make(map[string]Action)
	for _, a := range plan.Actions {
		byPath[a.Path] = a
	}

	// The directory matches a remove pattern but holds a preserved file, so
	// the removal is split into per-child actions that leave it alone.
	assert.NotContains(t, byPath, "dist")
	assert.NotContains(t, byPath, "dist/keep.txt")

	bundle, ok := byPath["dist/bundle.js"]
	require.True(t, ok)
	assert.Equal(t, ActionRemove, bundle.Type)
	assert.False(t, bundle.IsDir)

	// A subdirectory with nothing preserved inside is still removed whole,
	// carrying the parent's regeneration hint.
	sub, ok := byPath["dist/sub"]
	require.True(t, ok)
	assert.True(t, sub.IsDir)
	assert.Equal(t, "npm run build", sub.RegenerationCommand)
	assert.NotContains(t, byPath, "dist/sub/x.js")

	// Same split for a sensitive directory; the warning survives on the
	// individual removals.
	assert.NotContains(t, byPath, "secrets")
	assert.NotContains(t, byPath, "secrets/note.txt")
	token, ok := byPath["secrets/token"]
	require.True(t, ok)
	assert.NotEmpty(t, token.Warning)
}

func TestPlanCreateFiles(t *testing.T) {
	root := testTree(t)
	table := testTable(t)
	table.CreateFiles = []rules.GeneratedFile{
		{Path: "TEMPLATE.md", Content: "# Template\n"},
	}
	require.NoError(t, table.Compile())

	plan, err := New(nil).Plan(context.Background(), root, table, planMap(nil), ModeDryRun)
	require.NoError(t, err)

	var create *Action
	for i := range plan.Actions {
		if plan.Actions[i].Type == ActionCreate {
			require.Nil(t, create, "expected a single create action")
			create = &plan.Actions[i]
		}
	}
	require.NotNil(t, create)
	assert.Equal(t, "TEMPLATE.md", create.Path)
	assert.Equal(t, "# Template\n", create.Content)

	// A file already holding the generated content is not planned again.
	require.NoError(t, os.WriteFile(filepath.Join(root, "TEMPLATE.md"), []byte("# Template\n"), 0644))
	plan, err = New(nil).Plan(context.Background(), root, table, planMap(nil), ModeDryRun)
	require.NoError(t, err)
	_, _, creates, _ := plan.Counts()
	assert.Zero(t, creates)
}

func TestPlanSubstitutionActions(t *testing.T) {
	root := testTree(t)
	plan, err := New(nil).Plan(context.Background(), root, testTable(t), planMap(nil), ModeDryRun)
	require.NoError(t, err)

	var modify *Action
	for i := range plan.Actions {
		if plan.Actions[i].Type == ActionModify && plan.Actions[i].Path == "package.json" {
			modify = &plan.Actions[i]
		}
	}
	require.NotNil(t, modify)
	assert.Equal(t, `{"name":"{{PROJECT_NAME}}"}`, modify.Content)
	assert.Equal(t, `{"name":"my-app"}`, modify.OriginalContent)
	assert.Equal(t, 1, modify.Replacements)

	// README contains "my-app" too and is a target.
	_, mods, _, _ := plan.Counts()
	assert.Equal(t, 2, mods)
}

func TestPlanDryRunPurity(t *testing.T) {
	root := testTree(t)

	before := snapshot(t, root)
	_, err := New(nil).Plan(context.Background(), root, testTable(t), planMap(nil), ModeDryRun)
	require.NoError(t, err)
	after := snapshot(t, root)

	assert.Equal(t, before, after, "planning must never mutate the tree")
}

func TestPlanModesIdentical(t *testing.T) {
	root := testTree(t)
	m := planMap(nil)

	dry, err := New(nil).Plan(context.Background(), root, testTable(t), m, ModeDryRun)
	require.NoError(t, err)
	apply, err := New(nil).Plan(context.Background(), root, testTable(t), m, ModeApply)
	require.NoError(t, err)

	assert.Equal(t, ModeDryRun, dry.Mode)
	assert.Equal(t, ModeApply, apply.Mode)

	dry.Mode = apply.Mode
	assert.Equal(t, apply, dry, "plans must be identical except for mode")
}

func TestPlanRejectsTraversalTarget(t *testing.T) {
	root := testTree(t)
	table := testTable(t)
	table.TargetFiles = append(table.TargetFiles, "../outside.txt")

	_, err := New(nil).Plan(context.Background(), root, table, planMap(nil), ModeDryRun)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypePathTraversal))
}

func TestPlanDeterministicOrder(t *testing.T) {
	root := testTree(t)

	a, err := New(nil).Plan(context.Background(), root, testTable(t), planMap(nil), ModeDryRun)
	require.NoError(t, err)
	b, err := New(nil).Plan(context.Background(), root, testTable(t), planMap(nil), ModeDryRun)
	require.NoError(t, err)

	assert.Equal(t, a.Actions, b.Actions)
}

// snapshot captures every path and file content under root.
func snapshot(t *testing.T, root string) map[string]string {
	t.Helper()
	out := make(map[string]string)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		require.NoError(t, err)
		rel, err := filepath.Rel(root, path)
		require.NoError(t, err)
		if d.IsDir() {
			out[rel] = "<dir>"

			return nil
		}
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		out[rel] = string(data)

		return nil
	})
	require.NoError(t, err)

	return out
}
