package detect

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

// Metadata derives default placeholder values from the project's own
// manifests. Keys follow the rule tables' MetadataKey naming
// ("package.name", "go.module", ...). Missing or unparseable manifests
// simply contribute nothing; detection defaults are best-effort.
func Metadata(root, projectType string) map[string]string {
	meta := make(map[string]string)

	switch projectType {
	case "node":
		nodeMetadata(root, meta)
	case "go":
		goMetadata(root, meta)
	case "python":
		pythonMetadata(root, meta)
	case "rust":
		tomlMetadata(filepath.Join(root, "Cargo.toml"), "cargo", meta)
	}

	return meta
}

func nodeMetadata(root string, meta map[string]string) {
	data, err := os.ReadFile(filepath.Join(root, "package.json"))
	if err != nil {
		return
	}

	var pkg struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Author      any    `json:"author"`
		Repository  any    `json:"repository"`
	}
	if err := json.Unmarshal(data, &pkg); err != nil {
		return
	}

	set(meta, "package.name", pkg.Name)
	set(meta, "package.description", pkg.Description)

	switch a := pkg.Author.(type) {
	case string:
		name, email := splitAuthor(a)
		set(meta, "package.author", name)
		set(meta, "package.email", email)
	case map[string]any:
		set(meta, "package.author", str(a["name"]))
		set(meta, "package.email", str(a["email"]))
	}

	switch r := pkg.Repository.(type) {
	case string:
		set(meta, "package.repository", r)
	case map[string]any:
		set(meta, "package.repository", str(r["url"]))
	}
}

func goMetadata(root string, meta map[string]string) {
	data, err := os.ReadFile(filepath.Join(root, "go.mod"))
	if err != nil {
		return
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if module, ok := strings.CutPrefix(line, "module "); ok {
			module = strings.TrimSpace(module)
			set(meta, "go.module", module)
			set(meta, "go.name", filepath.Base(module))

			return
		}
	}
}

func pythonMetadata(root string, meta map[string]string) {
	tomlMetadata(filepath.Join(root, "pyproject.toml"), "pyproject", meta)
}

// tomlMetadata pulls simple `key = "value"` assignments out of a TOML
// manifest without a full TOML parser; name and description are all the
// rule tables need.
func tomlMetadata(path, prefix string, meta map[string]string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}

	for _, line := range strings.Split(string(data), "\n") {
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)
		switch key {
		case "name":
			set(meta, prefix+".name", value)
		case "description":
			set(meta, prefix+".description", value)
		}
	}
}

// splitAuthor parses the npm "Name <email>" author shorthand.
func splitAuthor(author string) (name, email string) {
	if i := strings.Index(author, "<"); i >= 0 {
		name = strings.TrimSpace(author[:i])
		email = strings.Trim(strings.TrimSpace(author[i:]), "<>")

		return name, email
	}

	return strings.TrimSpace(author), ""
}

func set(meta map[string]string, key, value string) {
	if value != "" {
		meta[key] = value
	}
}

func str(v any) string {
	s, _ := v.(string)

	return s
}
