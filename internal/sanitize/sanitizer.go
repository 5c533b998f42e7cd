package sanitize

import (
	"fmt"
	"sort"

	"github.com/conneroisu/templatize/internal/undolog"
)

// Sanitizer applies an ordered category rule set to undo logs and values.
type Sanitizer struct {
	rules    []Rule
	warnings []string
}

// Option customizes a Sanitizer at construction time.
type Option func(*config)

type config struct {
	extra   []RuleSpec
	removed map[string]bool
}

// WithRule registers a custom rule, appended after the builtin categories.
func WithRule(spec RuleSpec) Option {
	return func(c *config) {
		c.extra = append(c.extra, spec)
	}
}

// WithoutRule removes a builtin category by name.
func WithoutRule(name string) Option {
	return func(c *config) {
		c.removed[name] = true
	}
}

// New builds a Sanitizer from the builtin categories plus any options.
// Malformed custom rules fail construction; anchored patterns only produce
// warnings, retrievable via Warnings.
func New(opts ...Option) (*Sanitizer, error) {
	cfg := &config{removed: make(map[string]bool)}
	for _, opt := range opts {
		opt(cfg)
	}

	s := &Sanitizer{}
	specs := defaultSpecs()
	specs = append(specs, cfg.extra...)
	for _, spec := range specs {
		if cfg.removed[spec.Name] {
			continue
		}
		rule, warnings, err := spec.compile()
		if err != nil {
			return nil, err
		}
		s.rules = append(s.rules, rule)
		s.warnings = append(s.warnings, warnings...)
	}

	return s, nil
}

// Warnings returns non-fatal configuration warnings collected during
// construction.
func (s *Sanitizer) Warnings() []string {
	return s.warnings
}

// ValueResult reports the sanitization of a single value.
type ValueResult struct {
	Value      string
	Sanitized  bool
	Categories []string
}

// SanitizeValue applies every category in order to value. Each distinct
// matched string is recorded once per category in m, even when it recurs in
// the text; the visible text is replaced with the category's fixed token.
func (s *Sanitizer) SanitizeValue(value string, m undolog.SanitizationMap) ValueResult {
	result := ValueResult{Value: value}

	for _, rule := range s.rules {
		matched := false
		for _, pattern := range rule.Patterns {
			for _, match := range pattern.FindAllString(result.Value, -1) {
				matched = true
				recordItem(m, rule, match)
			}
			result.Value = pattern.ReplaceAllString(result.Value, rule.Replacement)
		}
		if matched {
			result.Sanitized = true
			result.Categories = append(result.Categories, rule.Name)
		}
	}

	return result
}

// SanitizeUndoLog produces a sanitized deep copy of log plus the report for
// that run. The input log is never mutated. Traversal covers every original
// value, each operation's content, path, and regeneration command, and all
// string metadata; structural fields are untouched.
func (s *Sanitizer) SanitizeUndoLog(log *undolog.UndoLog) (*undolog.UndoLog, *undolog.SanitizationReport) {
	out := log.Clone()

	m := out.SanitizationMap
	if m == nil {
		m = make(undolog.SanitizationMap)
	}
	before := itemCount(m)
	sizeDelta := 0

	scrub := func(value string) string {
		r := s.SanitizeValue(value, m)
		sizeDelta += len(value) - len(r.Value)

		return r.Value
	}

	for token, value := range out.OriginalValues {
		out.OriginalValues[token] = scrub(value)
	}
	for i := range out.FileOperations {
		op := &out.FileOperations[i]
		if op.OriginalContent != nil {
			content := scrub(*op.OriginalContent)
			op.OriginalContent = &content
		}
		op.Path = scrub(op.Path)
		op.RegenerationCommand = scrub(op.RegenerationCommand)
	}
	for key, value := range out.Metadata {
		out.Metadata[key] = scrub(value)
	}

	report := s.buildReport(m, itemCount(m)-before, sizeDelta)

	out.Sanitized = true
	out.SanitizationMap = m
	out.SanitizationReport = report

	return out, report
}

// Preview computes the report for log without producing a sanitized copy.
func (s *Sanitizer) Preview(log *undolog.UndoLog) *undolog.SanitizationReport {
	_, report := s.SanitizeUndoLog(log)

	return report
}

// buildReport summarizes a run. The details never include an original
// matched value, so the report is safe to share on its own.
func (s *Sanitizer) buildReport(m undolog.SanitizationMap, itemsRemoved, sizeDelta int) *undolog.SanitizationReport {
	report := &undolog.SanitizationReport{
		ItemsRemoved: itemsRemoved,
		SizeDelta:    sizeDelta,
	}

	for _, rule := range s.rules {
		items := m[rule.Name]
		if len(items) == 0 {
			continue
		}
		report.Categories = append(report.Categories, rule.Name)
		report.Details = append(report.Details, undolog.CategoryDetail{
			Category:    rule.Name,
			Items:       len(items),
			Replacement: rule.Replacement,
			Description: rule.Description,
		})
	}

	// Custom categories absent from the rule order still appear,
	// deterministically.
	known := make(map[string]bool, len(s.rules))
	for _, rule := range s.rules {
		known[rule.Name] = true
	}
	var rest []string
	for name := range m {
		if !known[name] && len(m[name]) > 0 {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	for _, name := range rest {
		report.Categories = append(report.Categories, name)
		report.Details = append(report.Details, undolog.CategoryDetail{
			Category: name,
			Items:    len(m[name]),
		})
	}

	report.Recommendations = recommendations(report)

	return report
}

func recommendations(report *undolog.SanitizationReport) []string {
	var recs []string
	for _, category := range report.Categories {
		switch category {
		case "apiKeys":
			recs = append(recs, "Rotate any credentials that appeared in this log; sanitization hides them in the copy, not at their source.")
		case "dbUrls":
			recs = append(recs, "Verify database hosts referenced by this log are not reachable with the removed credentials.")
		case "personal":
			recs = append(recs, "Review remaining free-form metadata for personal information the patterns cannot recognize.")
		}
	}
	if report.ItemsRemoved > 0 {
		recs = append(recs, fmt.Sprintf("Keep the unsanitized original private; %d redacted item(s) remain recoverable only from it.", report.ItemsRemoved))
	}

	return recs
}

func recordItem(m undolog.SanitizationMap, rule Rule, match string) {
	for _, item := range m[rule.Name] {
		if item.Original == match {
			return
		}
	}
	m[rule.Name] = append(m[rule.Name], undolog.SanitizedItem{
		Original:    match,
		Replacement: rule.Replacement,
		Description: rule.Description,
	})
}

func itemCount(m undolog.SanitizationMap) int {
	n := 0
	for _, items := range m {
		n += len(items)
	}

	return n
}
