// Package sanitize redacts sensitive values from undo logs so they can be
// shared. Rules are an ordered list of categories, each holding multiple
// patterns and one fixed replacement token; category order is fixed and
// deterministic because it affects the final output.
package sanitize

import (
	"regexp"
	"strings"

	"github.com/conneroisu/templatize/internal/errors"
)

// Replacement tokens, one per builtin category. They are shaped like
// placeholder tokens on purpose but match none of the rule patterns, which
// is what makes sanitization idempotent.
const (
	ReplacementAPIKey   = "{{SANITIZED_API_KEY}}"
	ReplacementPersonal = "{{SANITIZED_PERSONAL}}"
	ReplacementPath     = "{{SANITIZED_PATH}}"
	ReplacementHexID    = "{{SANITIZED_ID}}"
	ReplacementIP       = "{{SANITIZED_IP}}"
	ReplacementDBURL    = "{{SANITIZED_DB_URL}}"
)

// Rule is one sanitization category: a name, its patterns, the single fixed
// replacement every match becomes, and a human-readable description.
type Rule struct {
	Name        string
	Patterns    []*regexp.Regexp
	Replacement string
	Description string
}

// RuleSpec is the raw form callers use to register custom rules.
type RuleSpec struct {
	Name        string
	Patterns    []string
	Replacement string
	Description string
}

// compile validates a spec and compiles its patterns. An empty pattern list
// or replacement is a configuration error; an anchored pattern only ever
// matches a whole value, so it draws a non-fatal warning.
func (s RuleSpec) compile() (Rule, []string, error) {
	if s.Name == "" {
		return Rule{}, nil, errors.NewSanitizationConfigError("sanitization rule has no name")
	}
	if len(s.Patterns) == 0 {
		return Rule{}, nil, errors.NewSanitizationConfigError(
			"sanitization rule " + s.Name + " has no patterns")
	}
	if s.Replacement == "" {
		return Rule{}, nil, errors.NewSanitizationConfigError(
			"sanitization rule " + s.Name + " has no replacement string")
	}

	rule := Rule{
		Name:        s.Name,
		Replacement: s.Replacement,
		Description: s.Description,
	}

	var warnings []string
	for _, p := range s.Patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return Rule{}, nil, errors.NewSanitizationConfigError(
				"sanitization rule " + s.Name + " has invalid pattern " + p)
		}
		if strings.HasPrefix(p, "^") && strings.HasSuffix(p, "$") {
			warnings = append(warnings,
				"rule "+s.Name+": pattern "+p+" is fully anchored and will only match an entire value")
		}
		rule.Patterns = append(rule.Patterns, re)
	}

	return rule, warnings, nil
}

// defaultSpecs returns the builtin categories in their fixed application
// order: API keys and tokens first, then personal identifiers, user paths,
// opaque IDs, IP addresses, and database URLs.
func defaultSpecs() []RuleSpec {
	return []RuleSpec{
		{
			Name:        "apiKeys",
			Description: "API keys, access tokens, and credentials",
			Replacement: ReplacementAPIKey,
			Patterns: []string{
				`ghp_[a-zA-Z0-9]{36}`,
				`gho_[a-zA-Z0-9]{36}`,
				`ghs_[a-zA-Z0-9]{36}`,
				`sk-ant-[a-zA-Z0-9\-_]{20,}`,
				`sk-proj-[a-zA-Z0-9\-_]{20,}`,
				`\bsk-[a-zA-Z0-9]{32,}\b`,
				`AIza[0-9A-Za-z\-_]{35}`,
				`\b(?:AKIA|ASIA)[0-9A-Z]{16}\b`,
				`\b(?:sk|pk|rk)_(?:live|test)_[a-zA-Z0-9]{24,}\b`,
				`xox[baprs]-[0-9A-Za-z\-]{10,}`,
				`npm_[a-zA-Z0-9]{36}`,
				`eyJ[a-zA-Z0-9\-_]+\.eyJ[a-zA-Z0-9\-_]+\.[a-zA-Z0-9\-_]+`,
				// The value class excludes braces so replacement tokens
				// from an earlier pass can never re-match.
				`(?i)(?:password|passwd|secret|token|api[_\-]?key|private[_\-]?key|client[_\-]?secret)["'\s]*[:=]["'\s]*[^\s"',{}\]]{8,}`,
			},
		},
		{
			Name:        "personal",
			Description: "personal names and email addresses",
			Replacement: ReplacementPersonal,
			Patterns: []string{
				`\b[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}\b`,
				`(?i)(?:author|maintainer)["'\s]*[:=]["'\s]*[A-Z][a-z]+(?: [A-Z][a-z]+)+`,
			},
		},
		{
			Name:        "paths",
			Description: "user-specific filesystem paths",
			Replacement: ReplacementPath,
			Patterns: []string{
				`/(?:Users|home)/[a-zA-Z0-9._\-]+`,
				`(?i)[A-Za-z]:\\Users\\[a-zA-Z0-9._\-]+`,
			},
		},
		{
			Name:        "hexIds",
			Description: "opaque hexadecimal identifiers and UUIDs",
			Replacement: ReplacementHexID,
			Patterns: []string{
				`\b[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}\b`,
				`\b[0-9a-fA-F]{32,64}\b`,
			},
		},
		{
			Name:        "ips",
			Description: "IP addresses",
			Replacement: ReplacementIP,
			Patterns: []string{
				`\b\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}\b`,
			},
		},
		{
			Name:        "dbUrls",
			Description: "database connection URLs",
			Replacement: ReplacementDBURL,
			Patterns: []string{
				`\b(?:postgres|postgresql|mysql|mariadb|mongodb(?:\+srv)?|redis|amqp|mssql)://[^\s"']+`,
			},
		},
	}
}
