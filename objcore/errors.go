package objcore

import (
	"errors"
	"fmt"
	"strings"
)

const (
	errorTypeType     = "TypeError"
	errorTypeName     = "NameError"
	errorTypeFrozen   = "FrozenError"
	errorTypeArgument = "ArgumentError"
)

var (
	ErrTypeMismatch = errors.New("type mismatch")
	ErrNameConflict = errors.New("name conflict")
	ErrFrozen       = errors.New("frozen target")
	ErrArgument     = errors.New("invalid argument")
)

// Error is a contract violation raised by an object-model operation. Type is
// one of TypeError, NameError, FrozenError, or ArgumentError.
type Error struct {
	Type    string
	Message string
	// Name is the identifier involved, when there is one.
	Name string
}

func (e *Error) Error() string {
	return e.Message
}

// Is maps the canonical type onto the package sentinels so callers can use
// errors.Is(err, ErrFrozen) and friends.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrTypeMismatch:
		return e.Type == errorTypeType
	case ErrNameConflict:
		return e.Type == errorTypeName
	case ErrFrozen:
		return e.Type == errorTypeFrozen
	case ErrArgument:
		return e.Type == errorTypeArgument
	default:
		return false
	}
}

func canonicalErrorType(name string) (string, bool) {
	for _, kind := range []string{errorTypeType, errorTypeName, errorTypeFrozen, errorTypeArgument} {
		if strings.EqualFold(name, kind) {
			return kind, true
		}
	}
	return "", false
}

// ErrorType returns the canonical type of err, or "" when err is not an
// object-model error.
func ErrorType(err error) string {
	var oe *Error
	if errors.As(err, &oe) {
		if kind, ok := canonicalErrorType(oe.Type); ok {
			return kind
		}
	}
	return ""
}

func newTypeError(format string, args ...any) error {
	return &Error{Type: errorTypeType, Message: fmt.Sprintf(format, args...)}
}

func newNameError(name string, format string, args ...any) error {
	return &Error{Type: errorTypeName, Message: fmt.Sprintf(format, args...), Name: name}
}

func newFrozenError(format string, args ...any) error {
	return &Error{Type: errorTypeFrozen, Message: fmt.Sprintf(format, args...)}
}

func newArgumentError(format string, args ...any) error {
	return &Error{Type: errorTypeArgument, Message: fmt.Sprintf(format, args...)}
}

// FatalError reports that the core and the host have diverged. It is handed
// to Config.Fatal, which panics with it by default.
type FatalError struct {
	Message string
}

func (e *FatalError) Error() string {
	return "objcore: fatal: " + e.Message
}

func (rt *Runtime) fatalf(format string, args ...any) {
	rt.config.Fatal(&FatalError{Message: fmt.Sprintf(format, args...)})
}
