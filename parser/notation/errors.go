package notation

import (
	"errors"
	"fmt"
)

// Reasons a score document can fail to parse. A *ParseError wraps exactly
// one of these, so callers can test for them with errors.Is.
var (
	ErrInvalidHeader    = errors.New("invalid header")
	ErrUndeclaredPart   = errors.New("spec refers to an undeclared part")
	ErrCapacity         = errors.New("capacity exceeded")
	ErrInvalidChar      = errors.New("invalid character")
	ErrInvalidDirective = errors.New("invalid directive")
	ErrMissingQuote     = errors.New("missing closing quote")
	ErrOutOfRange       = errors.New("value out of range")
	ErrStructure        = errors.New("invalid document structure")
)

// ParseError reports the line at which a document was rejected.
type ParseError struct {
	Line   int
	Reason error
	Detail string
}

func (e *ParseError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("line %d: %v", e.Line, e.Reason)
	}
	return fmt.Sprintf("line %d: %v: %s", e.Line, e.Reason, e.Detail)
}

func (e *ParseError) Unwrap() error {
	return e.Reason
}

// Small struct for non-fatal warnings
type ParseWarning struct {
	Line    int
	Message string
}

func (pw ParseWarning) String() string {
	return fmt.Sprintf("line %d: %s", pw.Line, pw.Message)
}
