// Package planner computes the side-effect-free Plan for a conversion:
// which files are removed, which are rewritten with placeholder tokens, and
// which are preserved. The planner never mutates the tree; applying a Plan
// is the engine's job.
package planner

// Mode distinguishes a preview plan from one about to be applied. Two plans
// computed against the same tree differ only in this field.
type Mode string

const (
	ModeDryRun Mode = "dry-run"
	ModeApply  Mode = "apply"
)

// ActionType is the kind of file-system action a plan entry describes.
type ActionType string

const (
	ActionCreate ActionType = "create"
	ActionRemove ActionType = "remove"
	ActionModify ActionType = "modify"
)

// Action is one planned file-system operation. Actions are independent of
// each other; order matters only for preview readability.
type Action struct {
	Type ActionType

	// Path is relative to the project root.
	Path string

	// Content is the post-substitution content for modify actions and the
	// generated content for create actions.
	Content string

	// OriginalContent is the pre-substitution content for modify actions.
	OriginalContent string

	// Replacements counts token substitutions for modify actions.
	Replacements int

	// IsDir marks remove actions targeting a whole directory.
	IsDir bool

	// Warning annotates sensitive removals with the reason, distinct from
	// ordinary cleanup.
	Warning string

	// RegenerationCommand is the opaque recovery hint recorded for
	// removals whose content is impractical to retain.
	RegenerationCommand string
}

// Plan is the immutable output of planning: the ordered action list plus the
// resolved placeholder mapping.
type Plan struct {
	Root           string
	ProjectType    string
	Mode           Mode
	Actions        []Action
	PlaceholderMap map[string]string
}

// Counts summarizes the plan per action type for preview rendering.
func (p *Plan) Counts() (removes, modifies, creates, warnings int) {
	for _, a := range p.Actions {
		switch a.Type {
		case ActionRemove:
			removes++
		case ActionModify:
			modifies++
		case ActionCreate:
			creates++
		}
		if a.Warning != "" {
			warnings++
		}
	}

	return removes, modifies, creates, warnings
}
