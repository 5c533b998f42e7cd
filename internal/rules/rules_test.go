package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/templatize/internal/errors"
)

func testTable(t *testing.T) *RuleTable {
	t.Helper()

	table := &RuleTable{
		ProjectType: "node",
		Placeholders: []PlaceholderKey{
			{Token: "{{PROJECT_NAME}}", Input: "name", Required: true},
		},
		TargetFiles:       []string{"package.json"},
		RemovePatterns:    []string{"node_modules", "node_modules/**", "dist/**", "*.log"},
		PreservePatterns:  []string{"dist/keep.txt", ".gitignore"},
		SensitivePatterns: []string{".env", ".env.*"},
		RegenerationCommands: map[string]string{
			"node_modules": "npm install",
		},
	}
	require.NoError(t, table.Compile())

	return table
}

func TestPatternPrecedence(t *testing.T) {
	table := testTable(t)

	tests := []struct {
		path      string
		preserve  bool
		remove    bool
		sensitive bool
	}{
		{path: "node_modules", remove: true},
		{path: "node_modules/react/index.js", remove: true},
		{path: "dist/bundle.js", remove: true},
		{path: "dist/keep.txt", preserve: true, remove: true},
		{path: "npm-debug.log", remove: true},
		{path: ".env", sensitive: true},
		{path: ".env.local", sensitive: true},
		{path: "src/index.js"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.preserve, table.ShouldPreserve(tt.path), "preserve")
			_, removed := table.ShouldRemove(tt.path)
			assert.Equal(t, tt.remove, removed, "remove")
			_, sensitive := table.IsSensitive(tt.path)
			assert.Equal(t, tt.sensitive, sensitive, "sensitive")
		})
	}
}

func TestRegenerationHint(t *testing.T) {
	table := testTable(t)

	pattern, ok := table.ShouldRemove("node_modules")
	require.True(t, ok)
	assert.Equal(t, "npm install", table.RegenerationHint(pattern))
}

func TestCompileRejectsTraversalPatterns(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
	}{
		{"parent escape", "../secrets/**"},
		{"absolute", "/etc/passwd"},
		{"embedded parent", "src/../../other"},
		{"bare parent", ".."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := &RuleTable{
				ProjectType:    "node",
				RemovePatterns: []string{tt.pattern},
			}
			err := table.Compile()
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypePathTraversal), "got %v", err)
		})
	}
}

func TestCompileRejectsEmptyToken(t *testing.T) {
	table := &RuleTable{
		ProjectType:  "node",
		Placeholders: []PlaceholderKey{{Token: ""}},
	}

	err := table.Compile()
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestCompileRejectsBadGeneratedFiles(t *testing.T) {
	empty := &RuleTable{
		ProjectType: "node",
		CreateFiles: []GeneratedFile{{Path: "", Content: "x"}},
	}
	err := empty.Compile()
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))

	escape := &RuleTable{
		ProjectType: "node",
		CreateFiles: []GeneratedFile{{Path: "../TEMPLATE.md", Content: "x"}},
	}
	err = escape.Compile()
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypePathTraversal))
}

func TestBuiltinRegistry(t *testing.T) {
	registry := Builtin()

	assert.Equal(t, []string{"go", "node", "python", "rust"}, registry.Types())

	for _, projectType := range registry.Types() {
		table, err := registry.Get(projectType)
		require.NoError(t, err)
		assert.NotEmpty(t, table.Placeholders, projectType)
		assert.NotEmpty(t, table.RemovePatterns, projectType)
		require.NotEmpty(t, table.CreateFiles, projectType)
		assert.Equal(t, "TEMPLATE.md", table.CreateFiles[0].Path, projectType)
		for _, p := range table.Placeholders {
			assert.Contains(t, table.CreateFiles[0].Content, p.Token, projectType)
		}
	}

	_, err := registry.Get("cobol")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestLoadFileMergesOverBuiltin(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yml")
	content := `tables:
  - projectType: node
    placeholders:
      - token: "{{PROJECT_NAME}}"
        input: name
        fallback: custom-default
      - token: "{{LICENSE}}"
        input: license
        fallback: MIT
    removePatterns:
      - ".turbo/**"
    regenerationCommands:
      node_modules: "pnpm install"
    createFiles:
      - path: TEMPLATE.md
        content: "# Custom scaffold\n"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	registry := Builtin()
	require.NoError(t, LoadFile(registry, path))

	table, err := registry.Get("node")
	require.NoError(t, err)

	// Existing placeholder overridden by token, new one appended.
	var nameKey, licenseKey *PlaceholderKey
	for i := range table.Placeholders {
		switch table.Placeholders[i].Token {
		case "{{PROJECT_NAME}}":
			nameKey = &table.Placeholders[i]
		case "{{LICENSE}}":
			licenseKey = &table.Placeholders[i]
		}
	}
	require.NotNil(t, nameKey)
	require.NotNil(t, licenseKey)
	assert.Equal(t, "custom-default", nameKey.Fallback)

	// Patterns appended, builtins retained.
	_, removed := table.ShouldRemove(".turbo/cache.json")
	assert.True(t, removed)
	_, removed = table.ShouldRemove("node_modules")
	assert.True(t, removed)

	// Regeneration hint overridden.
	assert.Equal(t, "pnpm install", table.RegenerationHint("node_modules"))

	// Generated file overridden by path.
	require.Len(t, table.CreateFiles, 1)
	assert.Equal(t, "# Custom scaffold\n", table.CreateFiles[0].Content)
}

func TestLoadFileNewProjectType(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yml")
	content := `tables:
  - projectType: elixir
    placeholders:
      - token: "{{PROJECT_NAME}}"
        input: name
        fallback: my_app
    removePatterns:
      - "_build/**"
      - "deps/**"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	registry := Builtin()
	require.NoError(t, LoadFile(registry, path))

	table, err := registry.Get("elixir")
	require.NoError(t, err)
	_, removed := table.ShouldRemove("_build/dev/lib")
	assert.True(t, removed)
}

func TestLoadFileErrors(t *testing.T) {
	registry := Builtin()

	err := LoadFile(registry, filepath.Join(t.TempDir(), "absent.yml"))
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))

	path := filepath.Join(t.TempDir(), "bad.yml")
	require.NoError(t, os.WriteFile(path, []byte("tables: ["), 0644))
	err = LoadFile(registry, path)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}
