package flow

import (
	"errors"
	"fmt"
)

// ErrNoConnection is wrapped by ConfigurationError when no broker connection is available.
var ErrNoConnection = errors.New("no broker connection available")

// ConfigurationError is a fatal startup error. When returned, no flow is registered.
type ConfigurationError struct {
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration error: %s: %v", e.Reason, e.Err)
	}
	return "configuration error: " + e.Reason
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// IsConfigurationError reports whether err is, or wraps, a ConfigurationError.
func IsConfigurationError(err error) bool {
	var cfgErr *ConfigurationError
	return errors.As(err, &cfgErr)
}
