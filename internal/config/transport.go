package config

import (
	"context"

	"github.com/verdantlabs/claudestream/internal/message"
)

// Event is one unit of transport output, preserving stdout line order.
// Exactly one of Message and Err is set. Fatal marks an error that ends the
// stream; non-fatal errors (single bad lines) are followed by more events.
type Event struct {
	Message message.Message
	Err     error
	Fatal   bool
}

// Transport runs one CLI invocation and streams its parsed output.
// Implement this to substitute the subprocess runner for testing or for
// alternative execution environments.
type Transport interface {
	// Start launches the underlying process. It must be called once,
	// before Stream.
	Start(ctx context.Context) error

	// Stream returns the event channel for this invocation. The channel
	// is unbuffered, so a slow consumer pauses upstream reading. It is
	// closed after the terminal event (process exit classification).
	Stream(ctx context.Context) <-chan Event

	// Command returns the full argument vector for error context.
	Command() []string

	// Close terminates the invocation, killing the process if it is still
	// running. Safe to call multiple times and after natural exit.
	Close() error
}
