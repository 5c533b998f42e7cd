// Package detect supplies the default project type detection used when the
// caller does not pass an explicit --type. Detection is a plain lookup over
// marker files; the conversion core only ever consumes the resulting tag.
package detect

import (
	"os"
	"path/filepath"

	"github.com/conneroisu/templatize/internal/errors"
)

// marker associates a file whose presence identifies a project type. Order
// matters: the first marker found wins, so more specific manifests are
// listed before generic ones.
type marker struct {
	file        string
	projectType string
}

var markers = []marker{
	{"package.json", "node"},
	{"go.mod", "go"},
	{"pyproject.toml", "python"},
	{"setup.py", "python"},
	{"requirements.txt", "python"},
	{"Cargo.toml", "rust"},
}

// ProjectType inspects root and returns the detected project type tag.
func ProjectType(root string) (string, error) {
	for _, m := range markers {
		if _, err := os.Stat(filepath.Join(root, m.file)); err == nil {
			return m.projectType, nil
		}
	}

	return "", errors.NewConfigError(errors.ErrCodeUnknownProjectType,
		"could not detect project type in "+root+"; pass --type explicitly")
}
