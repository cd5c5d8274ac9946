package formula

import "fmt"

// Kind classifies a formula failure.
type Kind string

const (
	KindSyntax    Kind = "SyntaxError"
	KindReference Kind = "ReferenceError"
	KindType      Kind = "TypeError"
)

// Error is returned for any formula that cannot be parsed or evaluated.
type Error struct {
	Kind Kind
	Pos  int // Byte offset of the offending token, -1 if unknown
	Msg  string
}

func (e *Error) Error() string {
	if e.Pos < 0 {
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	}
	return fmt.Sprintf("%s at %d: %s", e.Kind, e.Pos, e.Msg)
}

// Is matches another *Error by kind, so errors.Is(err, &Error{Kind: KindType}) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func newError(kind Kind, pos int, format string, args ...any) *Error {
	return &Error{Kind: kind, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}
