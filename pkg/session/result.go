package session

import (
	"github.com/stackb/repl-session/pkg/compile"
)

// Result is the outcome of one Run.
type Result struct {
	// Output holds the formatted return value, if any, followed by the
	// captured standard output, if it has non-whitespace text.
	Output []string
	// Error holds one entry per error diagnostic, emission failure or
	// runtime fault.
	Error []string
	// Diagnostics are all diagnostics reported by the compiler, including
	// those below error severity.
	Diagnostics []*compile.Diagnostic
}

// OK reports whether the submission produced no errors.
func (r *Result) OK() bool {
	return len(r.Error) == 0
}

func errorResult(err error) *Result {
	return &Result{Error: []string{err.Error()}}
}
