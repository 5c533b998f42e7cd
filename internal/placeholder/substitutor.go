// Package placeholder resolves placeholder tokens to concrete values and
// performs the exact-string substitution between them. Substitution is
// literal: tokens and values are never regex-interpreted.
package placeholder

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/conneroisu/templatize/internal/errors"
	"github.com/conneroisu/templatize/internal/rules"
)

// Context carries everything resolution may consult. Resolution is pure:
// building the context is the caller's job, resolving from it does no I/O.
type Context struct {
	// Inputs are explicit user-supplied values keyed by input name.
	Inputs map[string]string

	// Metadata are values derived from existing project manifests,
	// keyed by the rule table's MetadataKey.
	Metadata map[string]string
}

// Resolve maps every placeholder token of the table to its concrete value.
// Resolution order per key: user input, then derived metadata, then the
// literal fallback. A required key with no source at all is a configuration
// error naming the key; an optional one is skipped.
func Resolve(table *rules.RuleTable, ctx *Context) (map[string]string, error) {
	if ctx == nil {
		ctx = &Context{}
	}

	resolved := make(map[string]string, len(table.Placeholders))
	for _, key := range table.Placeholders {
		if v, ok := ctx.Inputs[key.Input]; ok && v != "" {
			resolved[key.Token] = v
			continue
		}
		if v, ok := ctx.Metadata[key.MetadataKey]; ok && v != "" {
			resolved[key.Token] = v
			continue
		}
		if key.Fallback != "" {
			resolved[key.Token] = key.Fallback
			continue
		}
		if key.Required {
			return nil, errors.NewConfigError(errors.ErrCodeMissingPlaceholder,
				"no value resolved for required placeholder "+key.Token).
				WithContext("token", key.Token).
				WithContext("input", key.Input)
		}
	}

	return resolved, nil
}

// SubstituteValues replaces every occurrence of each concrete value with its
// placeholder token (the conversion direction). Longer values are replaced
// first so a value that is a substring of another cannot clobber it. The
// replacement count is returned alongside the rewritten content.
func SubstituteValues(content string, m map[string]string) (string, int) {
	total := 0
	for _, token := range tokensByValueLength(m) {
		value := m[token]
		if value == "" || value == token {
			continue
		}
		n := strings.Count(content, value)
		if n == 0 {
			continue
		}
		content = strings.ReplaceAll(content, value, token)
		total += n
	}

	return content, total
}

// SubstituteTokens replaces every occurrence of each placeholder token with
// its concrete value (the restoration direction).
func SubstituteTokens(content string, m map[string]string) (string, int) {
	total := 0
	for _, token := range sortedTokens(m) {
		value := m[token]
		if value == "" || value == token {
			continue
		}
		n := strings.Count(content, token)
		if n == 0 {
			continue
		}
		content = strings.ReplaceAll(content, token, value)
		total += n
	}

	return content, total
}

// FileResult reports the substitution outcome for one file.
type FileResult struct {
	Path         string
	Replacements int
}

// Result aggregates substitution across target files. Files with zero
// matches still count as processed.
type Result struct {
	FilesProcessed int
	Replacements   int
	Files          []FileResult
}

// Apply runs value-to-token substitution over the table's target files under
// root. With write false it simulates in memory and reports identical counts
// without touching disk.
func Apply(root string, targets []string, m map[string]string, write bool) (*Result, error) {
	result := &Result{}
	for _, rel := range targets {
		path := filepath.Join(root, rel)
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				// Target file absent from this project; nothing to process.
				continue
			}

			return nil, errors.NewIOError(errors.ErrCodeReadFailed,
				"failed to read substitution target", rel, err)
		}

		rewritten, n := SubstituteValues(string(data), m)
		result.FilesProcessed++
		result.Replacements += n
		result.Files = append(result.Files, FileResult{Path: rel, Replacements: n})

		if write && n > 0 {
			info, err := os.Stat(path)
			mode := os.FileMode(0644)
			if err == nil {
				mode = info.Mode()
			}
			if err := os.WriteFile(path, []byte(rewritten), mode); err != nil {
				return nil, errors.NewIOError(errors.ErrCodeWriteFailed,
					"failed to write substitution target", rel, err)
			}
		}
	}

	return result, nil
}

// tokensByValueLength orders tokens by descending resolved-value length,
// then lexically, so substitution order is deterministic.
func tokensByValueLength(m map[string]string) []string {
	tokens := sortedTokens(m)
	sort.SliceStable(tokens, func(i, j int) bool {
		return len(m[tokens[i]]) > len(m[tokens[j]])
	})

	return tokens
}

func sortedTokens(m map[string]string) []string {
	tokens := make([]string, 0, len(m))
	for t := range m {
		tokens = append(tokens, t)
	}
	sort.Strings(tokens)

	return tokens
}
