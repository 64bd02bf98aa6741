package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// StreamError is the base interface for all errors produced by this module.
type StreamError interface {
	error
	IsStreamError() bool
}

// Compile-time verification that all error types implement StreamError.
var (
	_ StreamError = (*CLINotFoundError)(nil)
	_ StreamError = (*ConnectionError)(nil)
	_ StreamError = (*ParseError)(nil)
	_ StreamError = (*ProcessError)(nil)
	_ StreamError = (*TimeoutError)(nil)
	_ StreamError = (*ConfigError)(nil)
)

// Sentinel errors for commonly checked conditions.
var (
	// ErrNotStarted indicates the runner has not been started.
	ErrNotStarted = errors.New("runner not started")

	// ErrAlreadyStarted indicates the runner was started twice.
	ErrAlreadyStarted = errors.New("runner already started")
)

// CLINotFoundError indicates the CLI binary was not found.
type CLINotFoundError struct {
	SearchedPaths []string
}

func (e *CLINotFoundError) Error() string {
	return fmt.Sprintf("claude CLI not found in: %v", e.SearchedPaths)
}

// IsStreamError implements StreamError.
func (e *CLINotFoundError) IsStreamError() bool { return true }

// ConnectionError indicates the child process could not be started.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to start CLI process: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// IsStreamError implements StreamError.
func (e *ConnectionError) IsStreamError() bool { return true }

// ParseError indicates a single stdout line could not be decoded.
// It is recoverable: the stream continues with the next line.
// Line holds the offending text verbatim; LineNumber is 1-based.
type ParseError struct {
	Line       string
	LineNumber int
	Err        error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to decode line %d: %v", e.LineNumber, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// IsStreamError implements StreamError.
func (e *ParseError) IsStreamError() bool { return true }

// ProcessError indicates the child process exited with a failure code.
// Command is the full argument vector, Stderr the accumulated diagnostic
// output. Environment variable values are never included.
type ProcessError struct {
	ExitCode int
	Stderr   string
	Command  []string
}

func (e *ProcessError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("command %s failed (exit %d): %s",
			commandSummary(e.Command), e.ExitCode, e.Stderr)
	}

	return fmt.Sprintf("command %s failed (exit %d)",
		commandSummary(e.Command), e.ExitCode)
}

// IsStreamError implements StreamError.
func (e *ProcessError) IsStreamError() bool { return true }

// TimeoutError indicates the child process outlived the configured timeout
// and was forcibly killed.
type TimeoutError struct {
	Timeout time.Duration
	Command []string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("command %s timed out after %s",
		commandSummary(e.Command), e.Timeout)
}

// IsStreamError implements StreamError.
func (e *TimeoutError) IsStreamError() bool { return true }

// ConfigError indicates an invalid caller-supplied option, detected before
// the child process is started.
type ConfigError struct {
	Parameter string
	Value     string
	Reason    string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Parameter, e.Value, e.Reason)
}

// IsStreamError implements StreamError.
func (e *ConfigError) IsStreamError() bool { return true }

// commandSummary renders an argv for error messages, truncating long
// argument lists so the executable stays readable.
func commandSummary(command []string) string {
	if len(command) == 0 {
		return "<unknown>"
	}

	const maxArgs = 8

	if len(command) <= maxArgs {
		return strings.Join(command, " ")
	}

	return strings.Join(command[:maxArgs], " ") + " ..."
}
