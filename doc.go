// Package claudestream runs the Claude CLI as a subprocess and streams its
// output as typed messages.
//
// The CLI is launched in one-shot mode with the prompt on the command line
// and stdin closed. Its newline-delimited JSON output is decoded into typed
// messages and delivered as they arrive, so callers see assistant output
// while the process is still running.
//
// # Basic Usage
//
// Use the Query function to run a prompt and iterate over the messages:
//
//	ctx := context.Background()
//	for msg, err := range claudestream.Query(ctx, "What is 2+2?",
//	    claudestream.WithModel("claude-sonnet-4-5"),
//	    claudestream.WithMaxTurns(1),
//	) {
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    switch m := msg.(type) {
//	    case *claudestream.AssistantMessage:
//	        for _, block := range m.Content {
//	            if text, ok := block.(*claudestream.TextBlock); ok {
//	                fmt.Println(text.Text)
//	            }
//	        }
//	    case *claudestream.ResultMessage:
//	        fmt.Printf("Completed in %dms\n", m.DurationMs)
//	    }
//	}
//
// Breaking out of the loop early kills the subprocess and releases all
// resources; partial consumption is always safe.
//
// # Error Handling
//
// Errors are yielded inline as the second value of the iterator. The
// iterator distinguishes between recoverable and fatal errors:
//
//   - Decode errors: a stdout line that is not valid JSON is yielded as a
//     *ParseError and iteration continues with the next line, so a single
//     malformed line never costs the rest of the stream.
//
//   - Fatal errors: startup failures, nonzero process exit, timeouts, and
//     context cancellation end the iteration after being yielded.
//
// All errors produced by this package implement the StreamError marker
// interface and can be inspected with errors.As.
//
// # Timeouts
//
// WithTimeout bounds the wall-clock duration of the whole invocation.
// When the deadline passes the subprocess is killed and the iterator
// yields a *TimeoutError as its final value:
//
//	for msg, err := range claudestream.Query(ctx, prompt,
//	    claudestream.WithTimeout(30*time.Second),
//	) {
//	    var timeout *claudestream.TimeoutError
//	    if errors.As(err, &timeout) {
//	        log.Printf("gave up after %s", timeout.Timeout)
//	        break
//	    }
//	    // ...
//	}
//
// # Logging
//
// By default logging is disabled. Use WithLogger to enable it:
//
//	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
//	claudestream.Query(ctx, prompt, claudestream.WithLogger(logger))
//
// Neither log output nor error messages ever contain the values of
// environment variables configured for the child process.
package claudestream
