// Package diag defines the error taxonomy shared by every compiler layer:
// internal errors that indicate a broken invariant, and user-facing
// compiler errors that carry a source location.
package diag

import (
	"errors"
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// Span is a position inside a resource. Lines and columns are 1-based; a
// zero Span means the position is unknown.
type Span struct {
	Line   int
	Column int
}

// IsZero reports whether the span carries no position.
func (s Span) IsZero() bool { return s.Line == 0 && s.Column == 0 }

func (s Span) String() string {
	if s.IsZero() {
		return "?"
	}
	return fmt.Sprintf("%d:%d", s.Line, s.Column)
}

// Location identifies a span inside a resource. Resource holds the
// resource's textual form so this package stays free of id types.
type Location struct {
	Resource string
	Span     Span
}

func (l Location) String() string {
	if l.Resource == "" {
		return l.Span.String()
	}
	return l.Resource + ":" + l.Span.String()
}

// InternalError reports a violated engine invariant, such as a lookup of a
// declaration that callers should have checked for existence first.
type InternalError struct {
	Message  string
	Location *Location
}

func (e *InternalError) Error() string {
	if e.Location != nil {
		return fmt.Sprintf("internal error at %s: %s", e.Location, e.Message)
	}
	return "internal error: " + e.Message
}

// Internalf returns an InternalError wrapped with the caller's stack trace.
// Print it with %+v to see the trace.
func Internalf(format string, args ...any) error {
	return pkgerrors.WithStack(&InternalError{Message: fmt.Sprintf(format, args...)})
}

// InternalAt is like Internalf but attaches a source location.
func InternalAt(loc Location, format string, args ...any) error {
	return pkgerrors.WithStack(&InternalError{Message: fmt.Sprintf(format, args...), Location: &loc})
}

// IsInternal reports whether err wraps an InternalError.
func IsInternal(err error) bool {
	var ie *InternalError
	return errors.As(err, &ie)
}

// ErrorKind enumerates the user-facing semantic errors.
type ErrorKind string

const (
	PropertyTypeOrValueRequired ErrorKind = "property-type-or-value-required"
	PropertyInitializerMissing  ErrorKind = "property-initializer-missing"
	InvalidImplTraitBound       ErrorKind = "invalid-impl-trait-bound"
	UnsupportedFeature          ErrorKind = "unsupported-feature"
	UnknownType                 ErrorKind = "unknown-type"
	UnknownIdentifier           ErrorKind = "unknown-identifier"
	DuplicateModuleName         ErrorKind = "duplicate-module-name"
	InvalidUseLine              ErrorKind = "invalid-use-line"
	UnresolvedUseLine           ErrorKind = "unresolved-use-line"
)

// CompilerError is an expected, user-facing error in the compiled program.
// It never indicates an engine bug.
type CompilerError struct {
	Kind     ErrorKind
	Location Location
	Message  string
}

func (e *CompilerError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Location, e.Kind, e.Message)
}

// Errorf creates a CompilerError of the given kind.
func Errorf(kind ErrorKind, loc Location, format string, args ...any) *CompilerError {
	return &CompilerError{Kind: kind, Location: loc, Message: fmt.Sprintf(format, args...)}
}

// AsCompilerError extracts a CompilerError from err's chain.
func AsCompilerError(err error) (*CompilerError, bool) {
	var ce *CompilerError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// IsUserFacing reports whether err should be shown to the end user with its
// location instead of being treated as a tooling failure.
func IsUserFacing(err error) bool {
	_, ok := AsCompilerError(err)
	return ok
}
