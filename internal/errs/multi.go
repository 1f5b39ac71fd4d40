// Package errs provides MultiError, an accumulate-don't-abort error
// list adapted from graft's own pkg/graft/errors.go MultiError: the
// CLI's add-uid and migrate-calls commands collect per-file failures
// here instead of returning on the first one, then render them as a
// single ansi-colored summary.
package errs

import (
	"fmt"
	"sort"
	"strings"

	"github.com/starkandwayne/goutils/ansi"
)

// MultiError collects zero or more errors. A zero-value MultiError is
// ready to use.
type MultiError struct {
	Errors []error
}

// Error renders every collected error as a colorized, sorted summary,
// the same shape graft's MultiError.Error produces.
func (e MultiError) Error() string {
	lines := make([]string, 0, len(e.Errors))
	for _, err := range e.Errors {
		lines = append(lines, fmt.Sprintf(" - %s", err))
	}
	sort.Strings(lines)
	return ansi.Sprintf("@r{%d} error(s) detected:\n%s", len(e.Errors), strings.Join(lines, "\n"))
}

// Count reports how many errors have been appended.
func (e *MultiError) Count() int { return len(e.Errors) }

// Append records err, flattening a nested MultiError instead of
// nesting it. A nil err is a no-op.
func (e *MultiError) Append(err error) {
	if err == nil {
		return
	}
	if m, ok := err.(MultiError); ok {
		e.Errors = append(e.Errors, m.Errors...)
		return
	}
	if m, ok := err.(*MultiError); ok {
		e.Errors = append(e.Errors, m.Errors...)
		return
	}
	e.Errors = append(e.Errors, err)
}

// OrNil returns e as an error if it has any entries, nil otherwise —
// the usual way a MultiError-accumulating loop returns its result.
func (e MultiError) OrNil() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e
}
