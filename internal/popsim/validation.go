package popsim

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationError collects every construction issue found in one pass.
// errors.Is reports true for each sentinel kind that was recorded.
type ValidationError struct {
	Issues []string
	kinds  []error
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "invalid world: unknown validation error"
	}
	if len(e.Issues) == 1 {
		return e.Issues[0]
	}
	return "world validation errors: " + strings.Join(e.Issues, "; ")
}

// Add records an issue of the given kind.
func (e *ValidationError) Add(kind error, format string, args ...any) {
	e.Issues = append(e.Issues, fmt.Sprintf(format, args...))
	if kind != nil && !slices.Contains(e.kinds, kind) {
		e.kinds = append(e.kinds, kind)
	}
}

// HasIssues reports whether any issue was recorded.
func (e *ValidationError) HasIssues() bool {
	return len(e.Issues) > 0
}

// Merge appends the issues of other, if other is a *ValidationError; any other
// non-nil error is recorded as a single issue without a kind.
func (e *ValidationError) Merge(other error) {
	if other == nil {
		return
	}
	ve, ok := other.(*ValidationError)
	if !ok {
		e.Issues = append(e.Issues, other.Error())
		return
	}
	e.Issues = append(e.Issues, ve.Issues...)
	for _, k := range ve.kinds {
		if !slices.Contains(e.kinds, k) {
			e.kinds = append(e.kinds, k)
		}
	}
}

// Unwrap exposes the recorded kinds to errors.Is.
func (e *ValidationError) Unwrap() []error {
	return e.kinds
}

// errOrNil returns e as an error only when it holds issues.
func (e *ValidationError) errOrNil() error {
	if e.HasIssues() {
		return e
	}
	return nil
}
