package imagemeta

import (
	"github.com/ssoj13/imagemeta/internal/types"
)

// FormatError is an alias to types.FormatError.
// Re-exporting from internal/types to maintain one public API surface.
type FormatError = types.FormatError

// WriteError is an alias to types.WriteError.
// Re-exporting from internal/types to maintain one public API surface.
type WriteError = types.WriteError

// TagError is an alias to types.TagError.
// Re-exporting from internal/types to maintain one public API surface.
type TagError = types.TagError

// ValidationIssue is an alias to types.ValidationIssue.
// Re-exporting from internal/types to maintain one public API surface.
type ValidationIssue = types.ValidationIssue

// Severity is an alias to types.Severity.
type Severity = types.Severity

// Re-export severity levels.
const (
	SeverityWarning = types.SeverityWarning
	SeverityError   = types.SeverityError
)
