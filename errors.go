package gbnf

import (
	"errors"
	"fmt"
	"strings"
)

// === Reference Resolution Related Errors ===
var (
	// ErrUnsupportedRef is returned when a $ref does not start with "https://", "http://" or "#/".
	ErrUnsupportedRef = errors.New("unsupported ref")

	// ErrUnresolvedRef is returned when a JSON pointer token is missing from its target document.
	ErrUnresolvedRef = errors.New("unresolved ref")

	// ErrFetchFailure is returned when the fetch collaborator fails to retrieve a remote schema.
	ErrFetchFailure = errors.New("fetch failure")
)

// === Pattern Compilation Related Errors ===
var (
	// ErrInvalidPattern is returned when a regex pattern is not anchored with ^...$,
	// has unbalanced delimiters, or has a malformed {m,n} repetition count.
	ErrInvalidPattern = errors.New("invalid pattern")
)

// === Rule Table Related Errors ===
var (
	// ErrUnknownPrimitive is returned when a built-in rule declares a dependency
	// that is not present in either the primitive or format catalog.
	ErrUnknownPrimitive = errors.New("unknown primitive")
)

// === Schema Shape Related Errors ===
var (
	// ErrUnrecognizedSchema is returned when the schema visitor falls through
	// every dispatch case without producing a rule.
	ErrUnrecognizedSchema = errors.New("unrecognized schema")
)

// ConversionError aggregates every error accumulated during a single
// Convert call into the single failure raised at completion, per the
// "report as many problems as possible" policy.
type ConversionError struct {
	Messages []string
}

func (e *ConversionError) Error() string {
	return strings.Join(e.Messages, "\n")
}

func errorf(kind error, format string, args ...any) string {
	return fmt.Sprintf("%s: %s", kind, fmt.Sprintf(format, args...))
}
