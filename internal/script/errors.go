package script

import "fmt"

// PragmaFirstError reports a Pragma instruction that did not appear as the
// first instruction of the top-level tree.
type PragmaFirstError struct{}

func (e *PragmaFirstError) Error() string {
	return "pragma must be the first instruction"
}

// UnknownInstructionError reports a "#$ ..." line whose keyword is not one
// of the recognized directives.
type UnknownInstructionError struct {
	Raw string
}

func (e *UnknownInstructionError) Error() string {
	return fmt.Sprintf("unknown instruction: %q", e.Raw)
}

// NumberExpectedError reports a malformed numeric argument, currently only
// possible for "sleep".
type NumberExpectedError struct {
	Raw string
}

func (e *NumberExpectedError) Error() string {
	return fmt.Sprintf("number expected: %q", e.Raw)
}

// IncludeError reports an include directive whose target could not be
// resolved or read, carrying both the raw token and the resolved path for
// a user-readable diagnostic.
type IncludeError struct {
	Raw      string
	Resolved string
	Cause    error
}

func (e *IncludeError) Error() string {
	return fmt.Sprintf("include %q (resolved %q): %v", e.Raw, e.Resolved, e.Cause)
}

func (e *IncludeError) Unwrap() error { return e.Cause }

// LexError reports a line the lexer could not tokenize at all.
type LexError struct {
	Line int
	Raw  string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("lex error at line %d: %q", e.Line, e.Raw)
}

// IncludeCycleError reports an include graph that revisits a file already
// on the current inclusion path.
type IncludeCycleError struct {
	Path string
}

func (e *IncludeCycleError) Error() string {
	return fmt.Sprintf("include cycle detected at %q", e.Path)
}
