// Package rules holds the per-project-type rule tables driving conversion:
// placeholder keys, substitution targets, and the remove/preserve/sensitive
// pattern groups evaluated by the planner. Tables are pure data; adding a
// project type is additive configuration, not a code change.
package rules

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"

	"github.com/conneroisu/templatize/internal/errors"
)

// PlaceholderKey describes how one placeholder token is resolved.
type PlaceholderKey struct {
	// Token is the literal marker embedded in project files,
	// e.g. "{{PROJECT_NAME}}".
	Token string `yaml:"token"`

	// Input is the key looked up in user-supplied input values.
	Input string `yaml:"input"`

	// MetadataKey is the key looked up in project metadata (package name,
	// author from existing manifests) when no input value is given.
	MetadataKey string `yaml:"metadataKey"`

	// Fallback is a literal default used when neither input nor metadata
	// resolves. Empty means no fallback.
	Fallback string `yaml:"fallback"`

	// Required marks keys whose failed resolution is a configuration
	// error rather than a skip.
	Required bool `yaml:"required"`
}

// GeneratedFile is a file the conversion writes into the template with fixed
// content, such as a scaffold documenting the placeholder tokens.
type GeneratedFile struct {
	Path    string `yaml:"path"`
	Content string `yaml:"content"`
}

// RuleTable is the static configuration for one project type.
type RuleTable struct {
	ProjectType string `yaml:"projectType"`

	// Placeholders lists the tokens substituted into TargetFiles.
	Placeholders []PlaceholderKey `yaml:"placeholders"`

	// TargetFiles are the relative paths eligible for placeholder
	// substitution.
	TargetFiles []string `yaml:"targetFiles"`

	// RemovePatterns match lockfiles, build output, and caches to delete.
	RemovePatterns []string `yaml:"removePatterns"`

	// PreservePatterns always win over any matching remove pattern.
	PreservePatterns []string `yaml:"preservePatterns"`

	// SensitivePatterns match env files and credentials; they are removed
	// like RemovePatterns but carry a warning annotation.
	SensitivePatterns []string `yaml:"sensitivePatterns"`

	// RegenerationCommands maps a remove pattern to an opaque hint for
	// recreating what was deleted (e.g. "npm install" for node_modules).
	RegenerationCommands map[string]string `yaml:"regenerationCommands"`

	// CreateFiles are written into the converted template when absent.
	CreateFiles []GeneratedFile `yaml:"createFiles"`

	remove    []compiledPattern
	preserve  []compiledPattern
	sensitive []compiledPattern
}

type compiledPattern struct {
	raw string
	g   glob.Glob
}

// Compile validates the table and compiles its glob patterns. It must be
// called before any matching method; Registry.Get returns compiled tables.
func (t *RuleTable) Compile() error {
	if t.ProjectType == "" {
		return errors.NewConfigError(errors.ErrCodeInvalidRuleTable,
			"rule table has no project type")
	}
	for _, p := range t.Placeholders {
		if p.Token == "" {
			return errors.NewConfigError(errors.ErrCodeInvalidRuleTable,
				"placeholder key with empty token in table "+t.ProjectType)
		}
	}
	for _, f := range t.CreateFiles {
		if f.Path == "" {
			return errors.NewConfigError(errors.ErrCodeInvalidRuleTable,
				"generated file with empty path in table "+t.ProjectType)
		}
		if err := validatePattern(f.Path); err != nil {
			return err
		}
	}

	var err error
	if t.remove, err = compileAll(t.RemovePatterns); err != nil {
		return err
	}
	if t.preserve, err = compileAll(t.PreservePatterns); err != nil {
		return err
	}
	if t.sensitive, err = compileAll(t.SensitivePatterns); err != nil {
		return err
	}

	return nil
}

func compileAll(patterns []string) ([]compiledPattern, error) {
	compiled := make([]compiledPattern, 0, len(patterns))
	for _, raw := range patterns {
		if err := validatePattern(raw); err != nil {
			return nil, err
		}
		g, err := glob.Compile(raw, '/')
		if err != nil {
			return nil, errors.NewConfigError(errors.ErrCodeInvalidRuleTable,
				"invalid glob pattern "+raw).WithContext("pattern", raw)
		}
		compiled = append(compiled, compiledPattern{raw: raw, g: g})
	}

	return compiled, nil
}

// validatePattern rejects patterns that could reference paths outside the
// project root. Patterns are matched against root-relative paths, so
// absolute and parent-escaping patterns are never legitimate.
func validatePattern(raw string) error {
	if raw == "" {
		return errors.NewConfigError(errors.ErrCodeInvalidRuleTable,
			"empty pattern in rule table")
	}
	if filepath.IsAbs(raw) || strings.HasPrefix(raw, "../") || raw == ".." {
		return errors.NewPathTraversalError(raw)
	}
	for _, seg := range strings.Split(raw, "/") {
		if seg == ".." {
			return errors.NewPathTraversalError(raw)
		}
	}

	return nil
}

// ShouldPreserve reports whether path matches an explicit preserve pattern.
// Preserve is absolute: it wins over any matching remove pattern.
func (t *RuleTable) ShouldPreserve(path string) bool {
	return matchAny(t.preserve, path)
}

// ShouldRemove reports whether path matches a remove pattern, together with
// the pattern that matched.
func (t *RuleTable) ShouldRemove(path string) (string, bool) {
	for _, p := range t.remove {
		if p.g.Match(path) {
			return p.raw, true
		}
	}

	return "", false
}

// IsSensitive reports whether path matches a sensitive pattern, together
// with the pattern that matched.
func (t *RuleTable) IsSensitive(path string) (string, bool) {
	for _, p := range t.sensitive {
		if p.g.Match(path) {
			return p.raw, true
		}
	}

	return "", false
}

// RegenerationHint returns the opaque recovery hint recorded for the pattern
// that removed path, if any.
func (t *RuleTable) RegenerationHint(pattern string) string {
	return t.RegenerationCommands[pattern]
}

func matchAny(patterns []compiledPattern, path string) bool {
	for _, p := range patterns {
		if p.g.Match(path) {
			return true
		}
	}

	return false
}

// Registry holds the known rule tables keyed by project type.
type Registry struct {
	tables map[string]*RuleTable
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tables: make(map[string]*RuleTable)}
}

// Register compiles and adds a table, replacing any existing table for the
// same project type.
func (r *Registry) Register(t *RuleTable) error {
	if err := t.Compile(); err != nil {
		return err
	}
	r.tables[t.ProjectType] = t

	return nil
}

// Get returns the compiled table for projectType.
func (r *Registry) Get(projectType string) (*RuleTable, error) {
	t, ok := r.tables[projectType]
	if !ok {
		return nil, errors.NewConfigError(errors.ErrCodeUnknownProjectType,
			"no rule table registered for project type "+projectType)
	}

	return t, nil
}

// Types returns the registered project types in sorted order.
func (r *Registry) Types() []string {
	types := make([]string, 0, len(r.tables))
	for t := range r.tables {
		types = append(types, t)
	}
	sort.Strings(types)

	return types
}
