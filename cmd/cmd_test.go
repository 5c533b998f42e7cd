package cmd

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectRoot(t *testing.T) {
	root, err := projectRoot([]string{"./my-app"})
	require.NoError(t, err)
	assert.Equal(t, "./my-app", root)

	cwd, err := os.Getwd()
	require.NoError(t, err)
	root, err = projectRoot(nil)
	require.NoError(t, err)
	assert.Equal(t, cwd, root)
}

func TestSanitizedPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{".templatize-undo.json", ".templatize-undo.sanitized.json"},
		{"/tmp/app/.templatize-undo.json", "/tmp/app/.templatize-undo.sanitized.json"},
		{"undo", "undo.sanitized.json"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitizedPath(tt.in), tt.in)
	}
}

func TestSortedKeys(t *testing.T) {
	m := map[string]string{
		"{{PROJECT_NAME}}": "app",
		"{{AUTHOR_NAME}}":  "Jane",
		"{{MODULE_PATH}}":  "example.com/app",
	}

	assert.Equal(t, []string{"{{AUTHOR_NAME}}", "{{MODULE_PATH}}", "{{PROJECT_NAME}}"}, sortedKeys(m))
}

func TestRootCommandWiring(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, want := range []string{"convert", "preview", "restore", "sanitize", "types", "version"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}
