// Package diagnostics implements the two error kinds spec.md §7
// describes: type-resolution errors and execution errors. Both are
// surfaced as a human-readable string; the exact wording is part of the
// contract because the surrounding system logs it verbatim and tests
// assert substrings against it.
package diagnostics

import "fmt"

// Kind distinguishes a failure during type resolution from one during
// evaluation, so a host can choose to log or map them differently
// without parsing the message text.
type Kind int

const (
	// TypeError is returned by Resolve, or by Eval when it re-derives a
	// type (e.g. to validate an IF or EQ) and finds a mismatch.
	TypeError Kind = iota
	// ExecError is returned by Eval for failures that can only be
	// observed at runtime: get(NONE), a shadowed LET, an unresolved REF.
	// Resolve and Eval also return it when an expression exceeds
	// config.MaxExpressionDepth.
	ExecError
)

// Diagnostic is the error type returned by Resolve and Eval. It is a
// plain value, not a panic/recover signal: every call site returns it
// explicitly and propagates it outward unchanged.
type Diagnostic struct {
	Kind    Kind
	Message string
}

func (d *Diagnostic) Error() string { return d.Message }

// Typef builds a TypeError diagnostic already prefixed the way spec.md
// requires ("Typecheck failed..."). Callers pass only the part after the
// common prefix.
func Typef(format string, args ...interface{}) *Diagnostic {
	return &Diagnostic{Kind: TypeError, Message: "Typecheck failed" + fmt.Sprintf(format, args...)}
}

// Execf builds an ExecError diagnostic with no imposed prefix, since
// spec.md's execution-error strings ("get(NONE)", "Definition 'x' not
// found", "Value 'x' already defined in the scope") do not share one.
func Execf(format string, args ...interface{}) *Diagnostic {
	return &Diagnostic{Kind: ExecError, Message: fmt.Sprintf(format, args...)}
}
