// Package cmn provides common low-level types and utilities for all strata projects
package cmn

import (
	"errors"
	"fmt"

	pkgerr "github.com/pkg/errors"
)

// Kind enumerates the caller-visible error taxonomy. Every error that
// crosses a package boundary is (or wraps) an *Error carrying one of these.
type Kind uint8

const (
	KindOK Kind = iota
	KindNoMem
	KindInvalidArg
	KindNotFound
	KindExists
	KindIO
	KindNetwork
	KindTimeout
	KindQuorum
	KindCorrupt
	KindUnsupported
	KindCrypto
)

var kindNames = [...]string{
	"OK", "NOMEM", "INVALID_ARG", "NOT_FOUND", "EXISTS", "IO",
	"NETWORK", "TIMEOUT", "QUORUM", "CORRUPT", "UNSUPPORTED", "CRYPTO",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("KIND(%d)", k)
}

// ParseKind maps a wire error code back to a Kind (RPC responses).
func ParseKind(s string) Kind {
	for i, name := range kindNames {
		if name == s {
			return Kind(i)
		}
	}
	return KindIO
}

type Error struct {
	kind  Kind
	msg   string
	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.kind, e.msg, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.kind, e.msg)
}

func (e *Error) Kind() Kind    { return e.kind }
func (e *Error) Unwrap() error { return e.cause }

// IsKind reports whether err is (or wraps) an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var serr *Error
	if errors.As(err, &serr) {
		return serr.kind == kind
	}
	return false
}

// ErrKind extracts the Kind from err, defaulting to KindIO for foreign errors.
func ErrKind(err error) Kind {
	var serr *Error
	if errors.As(err, &serr) {
		return serr.kind
	}
	return KindIO
}

func NewError(kind Kind, format string, a ...interface{}) *Error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, a...)}
}

func WrapError(kind Kind, cause error, format string, a ...interface{}) *Error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, a...), cause: cause}
}

func NewInvalidArgError(format string, a ...interface{}) *Error {
	return NewError(KindInvalidArg, format, a...)
}

func NewNotFoundError(format string, a ...interface{}) *Error {
	return NewError(KindNotFound, format, a...)
}

func NewIOError(op, path string, cause error) *Error {
	return &Error{kind: KindIO, msg: op + " " + path, cause: cause}
}

func NewQuorumError(format string, a ...interface{}) *Error {
	return NewError(KindQuorum, format, a...)
}

func NewCorruptError(what, path string, cause error) *Error {
	return &Error{kind: KindCorrupt, msg: what + " " + path, cause: cause}
}

func NewNetworkError(cause error, format string, a ...interface{}) *Error {
	return &Error{kind: KindNetwork, msg: fmt.Sprintf(format, a...), cause: cause}
}

func NewTimeoutError(format string, a ...interface{}) *Error {
	return NewError(KindTimeout, format, a...)
}

func NewCryptoError(cause error, format string, a ...interface{}) *Error {
	return &Error{kind: KindCrypto, msg: fmt.Sprintf(format, a...), cause: cause}
}

func NewUnsupportedError(format string, a ...interface{}) *Error {
	return NewError(KindUnsupported, format, a...)
}

// WithContext annotates err without changing its kind.
func WithContext(err error, format string, a ...interface{}) error {
	return pkgerr.Wrapf(err, format, a...)
}
