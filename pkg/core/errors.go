package core

import (
	"errors"
	"fmt"
)

// Failure classes reported by paractl commands. Components wrap these with
// context using fmt.Errorf("...: %w", err); callers match with errors.Is.
var (
	ErrConnectionTimeout   = errors.New("connection timeout")
	ErrConnectionError     = errors.New("connection error")
	ErrFileRead            = errors.New("cannot read file")
	ErrSubmissionFailed    = errors.New("submission failed")
	ErrRegistrationTimeout = errors.New("registration timeout")
	ErrNotRegistered       = errors.New("parachain not registered")
	ErrNoHeadData          = errors.New("no head data")
	ErrHeightNotReached    = errors.New("block height not reached")
	ErrSchemaMismatch      = errors.New("schema mismatch")
	ErrDuplicateAuthority  = errors.New("duplicate authority")
	ErrParse               = errors.New("parse error")
)

// ConfigError represents a configuration error
type ConfigError struct {
	msg string
}

func (e ConfigError) Error() string {
	return e.msg
}

// ErrInvalidConfig creates a new configuration error
func ErrInvalidConfig(msg string) error {
	return ConfigError{msg: msg}
}

// ErrInvalidConfigf creates a new formatted configuration error
func ErrInvalidConfigf(format string, args ...interface{}) error {
	return ConfigError{msg: fmt.Sprintf(format, args...)}
}

// IsConfigError reports whether err is, or wraps, a ConfigError.
func IsConfigError(err error) bool {
	var ce ConfigError
	return errors.As(err, &ce)
}
