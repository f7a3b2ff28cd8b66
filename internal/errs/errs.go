// Package errs defines the error taxonomy shared across the pipeline.
// Gate vetoes and degenerate inputs are not errors; they resolve into a
// normal Hold recommendation. Configuration problems are errors of a
// distinct type so callers can tell them apart from a legitimate
// "no trade" outcome.
package errs

import (
	"errors"
	"fmt"
)

// ConfigError is a fatal configuration problem for the current run:
// unknown sizing strategy, empty weight table, non-positive ATR. It is
// surfaced to the caller and never silently defaulted.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

// Config builds a ConfigError for the given field.
func Config(field, format string, args ...interface{}) error {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// IsConfig reports whether err is (or wraps) a ConfigError.
func IsConfig(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
