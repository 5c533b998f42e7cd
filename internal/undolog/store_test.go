package undolog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/templatize/internal/errors"
)

func sampleLog() *UndoLog {
	content := `{"name":"my-test-project"}`

	return &UndoLog{
		Version:     SchemaVersion,
		ID:          "8f14e45f-ceea-4672-a9a4-91f4c4a5d3b1",
		Timestamp:   time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC),
		ProjectType: "node",
		OriginalValues: map[string]string{
			"{{PROJECT_NAME}}": "my-test-project",
		},
		FileOperations: []FileOperation{
			{Path: "package.json", Kind: KindFileModified, OriginalContent: &content},
			{Path: "node_modules", Kind: KindDirRemoved, RegenerationCommand: "npm install"},
		},
		Metadata: map[string]string{"root": "/tmp/project"},
	}
}

func TestStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "undo.json")
	store := NewStore()

	log := sampleLog()
	require.NoError(t, store.Write(log, path))

	got, err := store.Read(path)
	require.NoError(t, err)
	assert.Equal(t, log, got)
}

func TestStoreReadNotFound(t *testing.T) {
	_, err := NewStore().Read(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestStoreReadCorrupted(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"malformed json", `{"version": "2.0",`},
		{"missing version", `{"originalValues":{},"fileOperations":[]}`},
		{"missing originalValues", `{"version":"2.0","fileOperations":[]}`},
		{"missing fileOperations", `{"version":"2.0","originalValues":{}}`},
		{"wrong field type", `{"version":"2.0","originalValues":[],"fileOperations":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "undo.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			_, err := NewStore().Read(path)
			require.Error(t, err)
			assert.True(t, errors.IsCorruptedLog(err), "got %v", err)
			assert.False(t, errors.IsIncompatibleVersion(err))
		})
	}
}

func TestStoreVersionGating(t *testing.T) {
	tests := []struct {
		version    string
		compatible bool
	}{
		{"2.0", true},
		{"2.1", true},
		{"0.0.1", false},
		{"1.0", false},
		{"3.0", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run("version "+tt.version, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "undo.json")
			log := sampleLog()
			log.Version = tt.version
			require.NoError(t, NewStore().Write(log, path))

			_, err := NewStore().Read(path)
			if tt.compatible {
				require.NoError(t, err)

				return
			}
			require.Error(t, err)
			assert.True(t, errors.IsIncompatibleVersion(err), "got %v", err)
			assert.False(t, errors.IsCorruptedLog(err))
		})
	}
}

func TestStoreWriteAtomicLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "undo.json")
	require.NoError(t, NewStore().Write(sampleLog(), path))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "undo.json", entries[0].Name())
}

func TestCloneIsDeep(t *testing.T) {
	log := sampleLog()
	clone := log.Clone()

	require.Equal(t, log, clone)

	clone.OriginalValues["{{PROJECT_NAME}}"] = "changed"
	*clone.FileOperations[0].OriginalContent = "changed"
	clone.Metadata["root"] = "changed"
	clone.FileOperations[1].RegenerationCommand = "changed"

	assert.Equal(t, "my-test-project", log.OriginalValues["{{PROJECT_NAME}}"])
	assert.Equal(t, `{"name":"my-test-project"}`, *log.FileOperations[0].OriginalContent)
	assert.Equal(t, "/tmp/project", log.Metadata["root"])
	assert.Equal(t, "npm install", log.FileOperations[1].RegenerationCommand)
}
