// Package subprocess spawns the Claude CLI and streams its stream-json
// output as typed messages.
package subprocess

import (
	"bufio"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"

	"github.com/verdantlabs/claudestream/internal/cli"
	"github.com/verdantlabs/claudestream/internal/config"
	"github.com/verdantlabs/claudestream/internal/errors"
	"github.com/verdantlabs/claudestream/internal/message"
)

const (
	// defaultMaxBufferSize is the stdout scanner line cap when the caller
	// does not override it. A single stream-json line can carry an entire
	// assistant turn, so this is deliberately generous.
	defaultMaxBufferSize = 1024 * 1024 // 1MB

	// maxStderrBufferSize caps retained stderr to prevent unbounded memory
	// growth from a pathologically chatty process.
	maxStderrBufferSize = 10 * 1024 * 1024 // 10MB

	// sigpipeExitCode is 128+SIGPIPE, reported by a child that died writing
	// to a pipe we stopped reading. The consumer walked away first, so the
	// run already succeeded from its point of view.
	sigpipeExitCode = 141
)

// Runner launches the Claude CLI as a one-shot subprocess and delivers its
// output as an ordered event stream.
//
// The prompt travels on the command line and stdin is attached to the null
// device, so the child observes end-of-input immediately. All communication
// flows one way, from the child's stdout to the caller.
type Runner struct {
	log     *slog.Logger
	prompt  string
	options *config.Options

	spec           cli.ProcessSpec
	cmd            *exec.Cmd
	stdout         io.ReadCloser
	stderr         io.ReadCloser
	stderrCallback func(string)

	mu      sync.Mutex
	started bool
	closing bool // Whether Close() has been called (intentional shutdown)

	closeOnce sync.Once
	done      chan struct{} // Closed by Close(); unblocks a pending event send
}

// Compile-time verification that Runner implements the Transport interface.
var _ config.Transport = (*Runner)(nil)

// NewRunner creates a runner for a single prompt.
//
// CLI discovery is deferred to Start(), which searches for the binary in
// the following order:
//  1. The explicit path in options.CLIPath (if provided)
//  2. The system PATH
//  3. Common installation directories (/usr/local/bin, /usr/bin, ~/.local/bin)
func NewRunner(log *slog.Logger, prompt string, options *config.Options) *Runner {
	return &Runner{
		log:            log.With("component", "runner"),
		prompt:         prompt,
		options:        options,
		stderrCallback: options.Stderr,
		done:           make(chan struct{}),
	}
}

// Start discovers the CLI binary and spawns the subprocess.
//
// Returns CLINotFoundError if the binary cannot be located, or
// ConnectionError if the process fails to start. Calling Start twice
// returns ErrAlreadyStarted.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()

		return errors.ErrAlreadyStarted
	}

	r.started = true
	r.mu.Unlock()

	// Tag every log line from this invocation so concurrent runs are
	// distinguishable.
	r.log = r.log.With("invocation_id", ulid.Make().String())

	r.log.Info("Starting Claude CLI subprocess")

	discoverer := cli.NewDiscoverer(&cli.DiscoverConfig{
		CLIPath:          r.options.CLIPath,
		SkipVersionCheck: r.options.SkipVersionCheck,
		Logger:           r.log,
	})

	cliPath, err := discoverer.Discover(ctx)
	if err != nil {
		return fmt.Errorf("discover CLI: %w", err)
	}

	spec := cli.NewProcessSpec(cliPath, r.prompt, r.options)
	r.spec = spec
	r.log.Debug("Built command arguments", "args", spec.Args)

	//nolint:gosec // G204: Subprocess launching with dynamic args is expected for CLI invocation
	cmd := exec.CommandContext(ctx, spec.Path, spec.Args...)
	cmd.Dir = spec.Dir
	cmd.Env = spec.Env
	// Stdin stays nil so the child reads from the null device and sees EOF
	// immediately. The prompt is already in the argument vector.
	cmd.Stdin = nil

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		r.log.Error("Failed to create stdout pipe", "error", err)

		return &errors.ConnectionError{Err: fmt.Errorf("stdout pipe: %w", err)}
	}

	r.stdout = stdout

	stderr, err := cmd.StderrPipe()
	if err != nil {
		r.log.Error("Failed to create stderr pipe", "error", err)

		return &errors.ConnectionError{Err: fmt.Errorf("stderr pipe: %w", err)}
	}

	r.stderr = stderr

	if err := cmd.Start(); err != nil {
		r.log.Error("Failed to start CLI process", "error", err)

		return &errors.ConnectionError{Err: fmt.Errorf("start process: %w", err)}
	}

	r.cmd = cmd
	r.log.Info("Claude CLI subprocess started successfully", "pid", cmd.Process.Pid)

	return nil
}

// Stream returns the subprocess event stream.
//
// Events are delivered in the order the corresponding stdout lines were
// produced. The channel is unbuffered, so a slow consumer exerts
// backpressure on the reader rather than forcing unbounded queueing.
//
// Recoverable decode failures arrive as events with Fatal unset and
// message delivery continues past them. After stdout is drained the
// process exit is classified; a failure arrives as a final event with
// Fatal set. The channel is closed when no further events will follow.
//
// Stream must be called after Start succeeds, and at most once.
func (r *Runner) Stream(ctx context.Context) <-chan config.Event {
	events := make(chan config.Event)

	// Always buffer stderr for error reporting (must complete reads before Wait()).
	// See: https://pkg.go.dev/os/exec#Cmd.StderrPipe
	var stderrBuffer strings.Builder

	var stderrMu sync.Mutex

	g := new(errgroup.Group)

	g.Go(func() error {
		// Simple scanner loop - relies on process kill to close pipes and
		// unblock Scan(). When Close() kills the process, the OS closes all
		// pipes, which reliably returns from blocked Read() calls.
		scanner := bufio.NewScanner(r.stderr)
		for scanner.Scan() {
			line := scanner.Text()

			stderrMu.Lock()

			if stderrBuffer.Len() < maxStderrBufferSize {
				if stderrBuffer.Len() > 0 {
					stderrBuffer.WriteString("\n")
				}

				stderrBuffer.WriteString(line)
			}

			stderrMu.Unlock()

			if r.stderrCallback != nil {
				r.stderrCallback(line)
			}
		}

		// Log scanner errors (don't fail - process may have exited)
		if err := scanner.Err(); err != nil {
			r.log.Debug("Stderr scanner error", "error", err)
		}

		return nil
	})

	g.Go(func() error {
		scanner := bufio.NewScanner(r.stdout)

		bufSize := defaultMaxBufferSize
		if r.options.MaxBufferSize != nil {
			bufSize = *r.options.MaxBufferSize
		}

		buf := make([]byte, bufSize)
		scanner.Buffer(buf, bufSize)

		lineNumber := 0
		messageCount := 0

		for scanner.Scan() {
			lineNumber++

			msg, err := message.ParseLine(r.log, scanner.Bytes(), lineNumber)
			if err != nil {
				// Recoverable: surface it in sequence and keep reading.
				if !r.emit(ctx, events, config.Event{Err: err}) {
					return nil
				}

				continue
			}

			if msg == nil {
				continue
			}

			messageCount++
			r.log.Debug("Received message from CLI", "message_count", messageCount)

			if !r.emit(ctx, events, config.Event{Message: msg}) {
				return nil
			}
		}

		if err := scanner.Err(); err != nil {
			r.log.Error("Scanner error while reading CLI output", "error", err)

			r.emit(ctx, events, config.Event{
				Err:   fmt.Errorf("scanner error: %w", err),
				Fatal: true,
			})
		}

		return nil
	})

	go func() {
		defer close(events)
		defer r.log.Debug("Event stream goroutine stopped")

		// Both pipes must be fully drained before Wait().
		_ = g.Wait()

		r.log.Debug("Waiting for CLI process to exit")

		err := r.cmd.Wait()

		stderrMu.Lock()

		stderrOutput := cleanStderr(stderrBuffer.String())

		stderrMu.Unlock()

		if terminal := r.classifyExit(ctx, err, stderrOutput); terminal != nil {
			r.emit(ctx, events, config.Event{Err: terminal, Fatal: true})
		}
	}()

	return events
}

// emit delivers an event, giving up when the runner is closed or the
// context is cancelled. Reports whether the event was delivered.
func (r *Runner) emit(ctx context.Context, events chan<- config.Event, ev config.Event) bool {
	select {
	case events <- ev:
		return true
	case <-r.done:
		return false
	case <-ctx.Done():
		return false
	}
}

// classifyExit maps the process exit status to a terminal error, or nil
// when the run counts as successful.
func (r *Runner) classifyExit(ctx context.Context, err error, stderrOutput string) error {
	if err == nil {
		r.log.Info("CLI process exited successfully")

		return nil
	}

	r.mu.Lock()
	isClosing := r.closing
	r.mu.Unlock()

	if isClosing {
		r.log.Debug("CLI process terminated during shutdown")

		return nil
	}

	// Context cancellation kills the process; the caller learns about it
	// through ctx.Err(), not through an exit status report.
	if ctx.Err() != nil {
		r.log.Debug("CLI process terminated by context cancellation")

		return nil
	}

	exitCode := -1

	var exitErr *exec.ExitError
	if stderrors.As(err, &exitErr) {
		exitCode = exitErr.ExitCode()
	}

	if exitCode == sigpipeExitCode {
		r.log.Debug("CLI process exited after downstream stopped reading", "exit_code", exitCode)

		return nil
	}

	r.log.Error("CLI process exited with error", "exit_code", exitCode, "stderr", stderrOutput)

	return &errors.ProcessError{
		ExitCode: exitCode,
		Stderr:   stderrOutput,
		Command:  r.spec.Command(),
	}
}

// Command returns the full argument vector of the launched process,
// suitable for inclusion in diagnostics. It never contains environment
// variable values.
func (r *Runner) Command() []string {
	return r.spec.Command()
}

// Close terminates the CLI process.
//
// This forcefully kills the process using SIGKILL and marks the shutdown
// as intentional so the resulting exit status is not reported as a
// failure. It's safe to call Close multiple times or on an
// already-terminated process.
func (r *Runner) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closing = true
	r.closeOnce.Do(func() { close(r.done) })

	if r.cmd != nil && r.cmd.Process != nil {
		r.log.Debug("Killing CLI process", "pid", r.cmd.Process.Pid)

		if err := r.cmd.Process.Kill(); err != nil && !stderrors.Is(err, os.ErrProcessDone) {
			return fmt.Errorf("kill CLI process (pid %d): %w", r.cmd.Process.Pid, err)
		}
	}

	return nil
}

// cleanStderr strips Bun's minified source context from stderr output,
// keeping just the error message and stack trace.
func cleanStderr(stderr string) string {
	if stderr == "" {
		return ""
	}

	var cleaned strings.Builder

	for line := range strings.SplitSeq(stderr, "\n") {
		// Skip source context lines (format: "1234 | <minified code>")
		if isSourceContextLine(strings.TrimSpace(line)) {
			continue
		}

		if cleaned.Len() > 0 {
			cleaned.WriteString("\n")
		}

		cleaned.WriteString(line)
	}

	return strings.TrimSpace(cleaned.String())
}

// isSourceContextLine reports whether a line is source code context of the
// form "1234 | <code>".
func isSourceContextLine(line string) bool {
	pipeIdx := strings.Index(line, "|")
	if pipeIdx < 1 {
		return false
	}

	prefix := strings.TrimSpace(line[:pipeIdx])
	if prefix == "" {
		return false
	}

	for _, ch := range prefix {
		if ch < '0' || ch > '9' {
			return false
		}
	}

	return true
}
