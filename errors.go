package claudestream

import (
	"github.com/verdantlabs/claudestream/internal/errors"
)

// Re-export error types from internal/errors

// StreamError is the marker interface implemented by all errors produced
// by this package. Use errors.As with the concrete types below to react
// to specific failures.
type StreamError = errors.StreamError

// Sentinel errors for commonly checked conditions.
var (
	// ErrNotStarted indicates the transport has not been started.
	ErrNotStarted = errors.ErrNotStarted

	// ErrAlreadyStarted indicates the transport was started twice.
	ErrAlreadyStarted = errors.ErrAlreadyStarted
)

// CLINotFoundError indicates the CLI binary could not be located.
type CLINotFoundError = errors.CLINotFoundError

// ConnectionError indicates the subprocess could not be spawned or its
// pipes could not be set up.
type ConnectionError = errors.ConnectionError

// ParseError indicates a stdout line that was not valid JSON. It is
// recoverable: iteration continues with the next line. Line holds the
// offending input verbatim and LineNumber is 1-based.
type ParseError = errors.ParseError

// ProcessError indicates the subprocess exited with a nonzero status.
// It carries the exit code, captured stderr, and the command line that
// was executed. It never contains environment variable values.
type ProcessError = errors.ProcessError

// TimeoutError indicates the subprocess outlived the configured timeout
// and was forcibly killed.
type TimeoutError = errors.TimeoutError

// ConfigError indicates an invalid caller-supplied option, detected
// before the subprocess is started.
type ConfigError = errors.ConfigError
