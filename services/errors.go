package services

import (
	"errors"
	"fmt"
)

type ErrorKind int

const (
	KindInvalidArgument ErrorKind = iota + 1
	KindNotFound
	KindDependency
	KindConflict
)

var (
	ErrInvalidArgument = &Error{Kind: KindInvalidArgument, Msg: "invalid argument"}
	ErrNotFound        = &Error{Kind: KindNotFound, Msg: "not found"}
	ErrDependency      = &Error{Kind: KindDependency, Msg: "dependency failure"}
	ErrConflict        = &Error{Kind: KindConflict, Msg: "concurrent update conflict"}
)

// Error carries one of the failure kinds callers branch on. Field names the
// offending input for InvalidArgument.
type Error struct {
	Kind  ErrorKind
	Field string
	Msg   string
	Err   error
}

func (e *Error) Error() string {
	msg := e.Msg
	if e.Field != "" {
		msg = e.Field + ": " + msg
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, ErrNotFound)
// works for every not-found error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func InvalidArgument(field, format string, args ...any) error {
	return &Error{Kind: KindInvalidArgument, Field: field, Msg: fmt.Sprintf(format, args...)}
}

func NotFound(what string, id uint) error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf("%s %d not found", what, id)}
}

func Dependency(op string, err error) error {
	return &Error{Kind: KindDependency, Msg: op, Err: err}
}

// KindOf returns the kind of err, or 0 when err is not an *Error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// FieldOf returns the offending field of an InvalidArgument error.
func FieldOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Field
	}
	return ""
}
