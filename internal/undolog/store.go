package undolog

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/conneroisu/templatize/internal/errors"
)

// Store reads and writes undo logs at a well-known path, validating schema
// version and structural integrity on read.
type Store struct{}

// NewStore creates a Store.
func NewStore() *Store {
	return &Store{}
}

// Write serializes the log to path. The write is whole-file atomic: content
// lands in a temp file in the same directory and is renamed into place.
func (s *Store) Write(log *UndoLog, path string) error {
	data, err := json.MarshalIndent(log, "", "  ")
	if err != nil {
		return errors.NewInternalError("failed to serialize undo log", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".templatize-undo-*.tmp")
	if err != nil {
		return errors.NewIOError(errors.ErrCodeWriteFailed,
			"failed to create temp file for undo log", path, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)

		return errors.NewIOError(errors.ErrCodeWriteFailed,
			"failed to write undo log", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)

		return errors.NewIOError(errors.ErrCodeWriteFailed,
			"failed to close undo log temp file", path, err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)

		return errors.NewIOError(errors.ErrCodeWriteFailed,
			"failed to move undo log into place", path, err)
	}

	return nil
}

// Read loads and validates the log at path. A missing file is NotFound,
// malformed JSON or missing required fields are CorruptedLog, and an
// unsupported schema version is IncompatibleVersion. There is no
// best-effort partial parse.
func (s *Store) Read(path string) (*UndoLog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFoundError(errors.ErrCodeLogNotFound,
				"undo log not found", path)
		}

		return nil, errors.NewIOError(errors.ErrCodeReadFailed,
			"failed to read undo log", path, err)
	}

	// Structural presence check happens against the raw document so a log
	// that simply omits a required field is distinguishable from one
	// carrying an empty value.
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.NewCorruptedLogError(errors.ErrCodeLogMalformed,
			"undo log is not valid JSON", err)
	}
	for _, field := range []string{"version", "originalValues", "fileOperations"} {
		if _, ok := raw[field]; !ok {
			return nil, errors.NewCorruptedLogError(errors.ErrCodeLogMissingField,
				"undo log is missing required field "+field, nil)
		}
	}

	var log UndoLog
	if err := json.Unmarshal(data, &log); err != nil {
		return nil, errors.NewCorruptedLogError(errors.ErrCodeLogMalformed,
			"undo log fields have unexpected types", err)
	}

	if !compatibleVersion(log.Version) {
		return nil, errors.NewIncompatibleVersionError(log.Version, SchemaVersion)
	}

	return &log, nil
}

// compatibleVersion accepts logs sharing the current schema's major version.
func compatibleVersion(version string) bool {
	return major(version) == major(SchemaVersion) && major(version) != ""
}

func major(version string) string {
	m, _, _ := strings.Cut(version, ".")

	return strings.TrimSpace(m)
}
