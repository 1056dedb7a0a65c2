package main

import (
	"errors"
	"fmt"
	"strings"

	"stubrunner-agent/src/config"
	"stubrunner-agent/src/flow"
)

// ErrLocalSend is returned when a message is sent without a shared broker.
var ErrLocalSend = errors.New("no shared broker configured")

// UserError wraps errors with user-friendly messages
type UserError struct {
	Message string
	Hint    string
	Err     error
}

func (e *UserError) Error() string {
	msg := e.Message
	if e.Hint != "" {
		msg += "\n\nHint: " + e.Hint
	}
	if e.Err != nil {
		msg += fmt.Sprintf("\n\nDetails: %v", e.Err)
	}
	return msg
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// wrapError converts startup and configuration errors to user-friendly messages.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	var userErr *UserError
	if errors.As(err, &userErr) {
		return err
	}

	msg := err.Error()

	if strings.Contains(msg, config.EnvContracts) {
		return &UserError{
			Message: "No contracts configured",
			Hint:    "Pass --contracts <file-or-dir> or set " + config.EnvContracts + ".",
			Err:     err,
		}
	}

	if errors.Is(err, ErrLocalSend) {
		return &UserError{
			Message: "Cannot send in local mode",
			Hint:    "The in-memory broker lives inside one process. Set " + config.EnvBrokers + " or pass --brokers.",
			Err:     err,
		}
	}

	if errors.Is(err, flow.ErrNoConnection) {
		return &UserError{
			Message: "Could not connect to the broker",
			Hint:    "Check that " + config.EnvBrokers + " points at reachable Redpanda brokers.",
			Err:     err,
		}
	}

	if flow.IsConfigurationError(err) {
		return &UserError{
			Message: "Invalid stub configuration",
			Hint:    "Fix the contract files; no flow was started.",
			Err:     err,
		}
	}

	return err
}
