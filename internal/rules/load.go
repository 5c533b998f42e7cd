package rules

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/conneroisu/templatize/internal/errors"
)

// tableFile is the YAML document shape for user-supplied rule tables.
type tableFile struct {
	Tables []*RuleTable `yaml:"tables"`
}

// LoadFile reads user-supplied rule tables from a YAML file and merges them
// into the registry. A table for an already-registered project type is merged
// over the builtin; a table for a new type is registered as-is.
func LoadFile(r *Registry, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.NewNotFoundError(errors.ErrCodeFileNotFound,
				"rule table file not found", path)
		}

		return errors.NewIOError(errors.ErrCodeReadFailed,
			"failed to read rule table file", path, err)
	}

	var doc tableFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return errors.NewConfigError(errors.ErrCodeInvalidRuleTable,
			"rule table file is not valid YAML").WithPath(path)
	}

	for _, custom := range doc.Tables {
		merged := custom
		if base, err := r.Get(custom.ProjectType); err == nil {
			merged = merge(base, custom)
		}
		if err := r.Register(merged); err != nil {
			return err
		}
	}

	return nil
}

// merge layers a custom table over a base table: patterns and target files
// are appended, placeholders override by token, regeneration hints override
// by pattern, generated files override by path.
func merge(base, custom *RuleTable) *RuleTable {
	out := &RuleTable{
		ProjectType:       base.ProjectType,
		TargetFiles:       appendUnique(base.TargetFiles, custom.TargetFiles),
		RemovePatterns:    appendUnique(base.RemovePatterns, custom.RemovePatterns),
		PreservePatterns:  appendUnique(base.PreservePatterns, custom.PreservePatterns),
		SensitivePatterns: appendUnique(base.SensitivePatterns, custom.SensitivePatterns),
	}

	byToken := make(map[string]int, len(base.Placeholders))
	for i, p := range base.Placeholders {
		out.Placeholders = append(out.Placeholders, p)
		byToken[p.Token] = i
	}
	for _, p := range custom.Placeholders {
		if i, ok := byToken[p.Token]; ok {
			out.Placeholders[i] = p
		} else {
			out.Placeholders = append(out.Placeholders, p)
		}
	}

	byPath := make(map[string]int, len(base.CreateFiles))
	for i, f := range base.CreateFiles {
		out.CreateFiles = append(out.CreateFiles, f)
		byPath[f.Path] = i
	}
	for _, f := range custom.CreateFiles {
		if i, ok := byPath[f.Path]; ok {
			out.CreateFiles[i] = f
		} else {
			out.CreateFiles = append(out.CreateFiles, f)
		}
	}

	out.RegenerationCommands = make(map[string]string, len(base.RegenerationCommands)+len(custom.RegenerationCommands))
	for k, v := range base.RegenerationCommands {
		out.RegenerationCommands[k] = v
	}
	for k, v := range custom.RegenerationCommands {
		out.RegenerationCommands[k] = v
	}

	return out
}

func appendUnique(base, extra []string) []string {
	seen := make(map[string]bool, len(base))
	out := make([]string, 0, len(base)+len(extra))
	for _, s := range base {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, s := range extra {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}

	return out
}
