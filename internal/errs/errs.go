// Package errs holds the error taxonomy shared by every core package:
// ConfigError, IoError, and DomainError, plus the Cancelled sentinel used
// to signal an aborted-not-failed operation. Cancelled is informational —
// callers check a CancellationToken, they don't inspect this sentinel, but
// it exists so internal plumbing can distinguish "stopped early" from
// "really failed" when deciding whether to log.
package errs

import (
	"errors"
	"fmt"
)

// Cancelled is returned (or wrapped) internally to short-circuit a call
// chain after a CancellationToken fires. It never crosses the host
// boundary as an error — see the safe-execute envelope in session.
var Cancelled = errors.New("cancelled")

type kind int

const (
	kindConfig kind = iota
	kindIO
	kindDomain
)

// taggedError wraps an underlying error with a taxonomy kind so callers
// can classify failures with errors.As without string-matching messages.
type taggedError struct {
	kind kind
	msg  string
	err  error
}

func (e *taggedError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.err)
	}
	return e.msg
}

func (e *taggedError) Unwrap() error { return e.err }

// ConfigError wraps a stylesheet/registration/lod-range configuration
// failure: missing or malformed stylesheet, duplicate store key, unknown
// elevation type, lod outside [1,16].
func ConfigError(msg string, cause error) error {
	return &taggedError{kind: kindConfig, msg: msg, err: cause}
}

// IoError wraps a tile-file read/write failure: missing directory,
// truncated record, corrupt bitmap or mesh stream.
func IoError(msg string, cause error) error {
	return &taggedError{kind: kindIO, msg: msg, err: cause}
}

// DomainError wraps a request against state the domain forbids: an order
// not present in a tile, a cache lookup for an absent key, deletion by
// bbox on an in-memory store.
func DomainError(msg string, cause error) error {
	return &taggedError{kind: kindDomain, msg: msg, err: cause}
}

func IsConfig(err error) bool { return hasKind(err, kindConfig) }
func IsIO(err error) bool     { return hasKind(err, kindIO) }
func IsDomain(err error) bool { return hasKind(err, kindDomain) }

func hasKind(err error, k kind) bool {
	var te *taggedError
	if errors.As(err, &te) {
		return te.kind == k
	}
	return false
}
