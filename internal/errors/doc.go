// Package errors defines the error taxonomy for the claudestream module.
//
// ParseError is recoverable: one bad line is reported and skipped while the
// stream continues. ProcessError, TimeoutError, and ConfigError are terminal
// and surface exactly once as the outcome of an invocation.
package errors
