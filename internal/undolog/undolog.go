// Package undolog defines the persisted undo log schema and its store. The
// log is the single record enabling restoration of a templated project to
// its original concrete form; it is owned by the project directory it
// describes and read/written atomically as a whole.
package undolog

import (
	"time"
)

// SchemaVersion is the current undo log schema version. Logs with a
// different major version are refused on read.
const SchemaVersion = "2.0"

// OperationKind classifies a recorded file operation.
type OperationKind string

const (
	// KindFileRemoved records a regular file deletion; OriginalContent
	// carries the full pre-deletion content.
	KindFileRemoved OperationKind = "file_removed"

	// KindDirRemoved records a directory deletion; content retention is
	// impractical, so RegenerationCommand and OriginalContent (a manifest
	// of the directory's entries) carry the recovery information.
	KindDirRemoved OperationKind = "dir_removed"

	// KindFileModified records an in-place rewrite; OriginalContent
	// carries the pre-modification content.
	KindFileModified OperationKind = "file_modified"

	// KindFileCreated records a file that did not exist before
	// conversion; restoration deletes it.
	KindFileCreated OperationKind = "file_created"
)

// FileOperation is one reversible operation recorded by the executor.
type FileOperation struct {
	Path string        `json:"path"`
	Kind OperationKind `json:"kind"`

	// OriginalContent is nil when there was no prior content to retain
	// (created files), and set otherwise.
	OriginalContent *string `json:"originalContent,omitempty"`

	// RegenerationCommand is an opaque hint for recreating removed
	// content that was not retained verbatim.
	RegenerationCommand string `json:"regenerationCommand,omitempty"`

	// Failed marks operations the executor could not complete; they are
	// recorded for diagnosis but skipped on restore.
	Failed bool `json:"failed,omitempty"`

	// FailureReason explains a failed operation.
	FailureReason string `json:"failureReason,omitempty"`
}

// SanitizedItem records one redaction performed by the sanitizer. The
// Original field is what makes the sanitization map itself sensitive; it
// never appears in the report.
type SanitizedItem struct {
	Original    string `json:"original"`
	Replacement string `json:"replacement"`
	Description string `json:"description"`
}

// SanitizationMap groups redactions by category name.
type SanitizationMap map[string][]SanitizedItem

// CategoryDetail summarizes one category inside a sanitization report.
// It carries counts and the replacement token only, never matched values.
type CategoryDetail struct {
	Category    string `json:"category"`
	Items       int    `json:"items"`
	Replacement string `json:"replacement"`
	Description string `json:"description"`
}

// SanitizationReport is the shareable summary of a sanitization run.
type SanitizationReport struct {
	ItemsRemoved    int              `json:"itemsRemoved"`
	Categories      []string         `json:"categories"`
	SizeDelta       int              `json:"sizeDelta"`
	Details         []CategoryDetail `json:"details"`
	Recommendations []string         `json:"recommendations"`
}

// UndoLog is the persisted record of one conversion.
type UndoLog struct {
	Version     string    `json:"version"`
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	ProjectType string    `json:"projectType"`

	// OriginalValues maps each placeholder token to the concrete value it
	// replaced at conversion time.
	OriginalValues map[string]string `json:"originalValues"`

	// FileOperations lists every mutation in execution order.
	FileOperations []FileOperation `json:"fileOperations"`

	Metadata map[string]string `json:"metadata,omitempty"`

	Sanitized          bool                `json:"sanitized,omitempty"`
	SanitizationMap    SanitizationMap     `json:"sanitizationMap,omitempty"`
	SanitizationReport *SanitizationReport `json:"sanitizationReport,omitempty"`
}

// Clone returns a deep copy. Consumers that transform a log (the sanitizer
// in particular) operate on a clone and never mutate the caller's log.
func (l *UndoLog) Clone() *UndoLog {
	out := &UndoLog{
		Version:     l.Version,
		ID:          l.ID,
		Timestamp:   l.Timestamp,
		ProjectType: l.ProjectType,
		Sanitized:   l.Sanitized,
	}

	if l.OriginalValues != nil {
		out.OriginalValues = make(map[string]string, len(l.OriginalValues))
		for k, v := range l.OriginalValues {
			out.OriginalValues[k] = v
		}
	}

	if l.FileOperations != nil {
		out.FileOperations = make([]FileOperation, len(l.FileOperations))
		for i, op := range l.FileOperations {
			cp := op
			if op.OriginalContent != nil {
				content := *op.OriginalContent
				cp.OriginalContent = &content
			}
			out.FileOperations[i] = cp
		}
	}

	if l.Metadata != nil {
		out.Metadata = make(map[string]string, len(l.Metadata))
		for k, v := range l.Metadata {
			out.Metadata[k] = v
		}
	}

	if l.SanitizationMap != nil {
		out.SanitizationMap = make(SanitizationMap, len(l.SanitizationMap))
		for k, items := range l.SanitizationMap {
			out.SanitizationMap[k] = append([]SanitizedItem(nil), items...)
		}
	}

	if l.SanitizationReport != nil {
		report := *l.SanitizationReport
		report.Categories = append([]string(nil), l.SanitizationReport.Categories...)
		report.Details = append([]CategoryDetail(nil), l.SanitizationReport.Details...)
		report.Recommendations = append([]string(nil), l.SanitizationReport.Recommendations...)
		out.SanitizationReport = &report
	}

	return out
}
