package claudestream

import (
	"context"
	"iter"
	"os"
	"strconv"
	"time"

	"github.com/verdantlabs/claudestream/internal/config"
	"github.com/verdantlabs/claudestream/internal/subprocess"
)

// Query runs the Claude CLI with the given prompt and returns an iterator
// of messages.
//
// The subprocess is started when iteration begins and is guaranteed to be
// terminated when iteration ends, whether the stream was fully consumed,
// the caller broke out of the loop, an error occurred, or the context was
// cancelled. Stopping early is always safe and is not an error.
//
// Messages are yielded in the order the CLI produced them, as they
// arrive. Errors are yielded inline as the second value:
//
//   - A *ParseError marks a single undecodable output line; iteration
//     continues with the next line.
//
//   - Startup failures, *ProcessError, *TimeoutError, and context
//     cancellation are fatal and end the iteration.
//
// By default, logging is disabled. Use WithLogger to enable logging:
//
//	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
//	for msg, err := range Query(ctx, "What is 2+2?",
//	    WithLogger(logger),
//	    WithMaxTurns(1),
//	) {
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    // handle msg
//	}
func Query(
	ctx context.Context,
	prompt string,
	opts ...Option,
) iter.Seq2[Message, error] {
	return func(yield func(Message, error) bool) {
		options := applyOptions(opts)

		// Use provided logger or silent logger
		log := options.Logger
		if log == nil {
			log = NopLogger()
		}

		log = log.With("component", "query")
		log.Debug("Starting query execution")

		if err := validateOptions(options); err != nil {
			log.Error("Invalid options", "error", err)
			yield(nil, err)

			return
		}

		// Create or use injected transport
		var transport config.Transport

		if options.Transport != nil {
			transport = options.Transport

			log.Debug("Using injected custom transport")
		} else {
			log.Debug("Creating subprocess runner")

			transport = subprocess.NewRunner(log, prompt, options)
		}

		if err := transport.Start(ctx); err != nil {
			log.Error("Failed to start CLI", "error", err)
			yield(nil, err)

			return
		}

		// Unconditional cleanup: the subprocess never outlives the iteration.
		defer transport.Close()

		log.Info("Successfully started Claude CLI")

		events := transport.Stream(ctx)

		// The timeout clock covers the whole invocation, starting at spawn.
		var timedOut <-chan time.Time

		if options.Timeout > 0 {
			timer := time.NewTimer(options.Timeout)
			defer timer.Stop()

			timedOut = timer.C
		}

		for {
			select {
			case ev, ok := <-events:
				if !ok {
					// A cancelled context can drain the stream before this
					// loop observes ctx.Done; surface the cancellation anyway.
					if err := ctx.Err(); err != nil {
						yield(nil, err)
					}

					return
				}

				if ev.Err != nil {
					if !yield(nil, ev.Err) {
						return
					}

					if ev.Fatal {
						return
					}

					continue
				}

				if !yield(ev.Message, nil) {
					return
				}

			case <-timedOut:
				log.Warn("Deadline exceeded, killing CLI process", "timeout", options.Timeout)

				// Kill before yielding so the process is already gone by the
				// time the caller observes the error.
				_ = transport.Close()

				yield(nil, &TimeoutError{
					Timeout: options.Timeout,
					Command: transport.Command(),
				})

				return

			case <-ctx.Done():
				log.Debug("Context cancelled during query", "error", ctx.Err())
				yield(nil, ctx.Err())

				return
			}
		}
	}
}

// validateOptions rejects invalid caller-supplied configuration before a
// process is spawned.
func validateOptions(options *Options) error {
	if options.Cwd != "" {
		info, err := os.Stat(options.Cwd)
		if err != nil || !info.IsDir() {
			return &ConfigError{
				Parameter: "cwd",
				Value:     options.Cwd,
				Reason:    "not an existing directory",
			}
		}
	}

	if options.Timeout < 0 {
		return &ConfigError{
			Parameter: "timeout",
			Value:     options.Timeout.String(),
			Reason:    "must not be negative",
		}
	}

	if options.MaxTurns < 0 {
		return &ConfigError{
			Parameter: "max turns",
			Value:     strconv.Itoa(options.MaxTurns),
			Reason:    "must not be negative",
		}
	}

	if options.MaxBufferSize != nil && *options.MaxBufferSize <= 0 {
		return &ConfigError{
			Parameter: "max buffer size",
			Value:     strconv.Itoa(*options.MaxBufferSize),
			Reason:    "must be positive",
		}
	}

	return nil
}
