package claudestream

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// writeStubCLI writes a shell script that stands in for the real CLI binary.
func writeStubCLI(t *testing.T, script string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "claude")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755))

	return path
}

func stubOptions(t *testing.T, script string, opts ...Option) []Option {
	t.Helper()

	return append([]Option{
		WithCLIPath(writeStubCLI(t, script)),
		WithoutVersionCheck(),
	}, opts...)
}

func TestQuery_StreamsTypedMessages(t *testing.T) {
	t.Parallel()

	opts := stubOptions(t, `
printf '{"type":"system","subtype":"init","model":"claude-sonnet"}\n'
printf '{"type":"assistant","message":{"content":[{"type":"text","text":"The answer is 4."}]}}\n'
printf '{"type":"result","subtype":"success","is_error":false,"num_turns":1,"session_id":"abc","duration_ms":150,"duration_api_ms":100,"total_cost_usd":0.003}\n'
`)

	var msgs []Message

	for msg, err := range Query(context.Background(), "What is 2+2?", opts...) {
		require.NoError(t, err)

		msgs = append(msgs, msg)
	}

	require.Len(t, msgs, 3)

	system, ok := msgs[0].(*SystemMessage)
	require.True(t, ok)
	require.Equal(t, "init", system.Subtype)

	model, ok := system.Data.String("model")
	require.True(t, ok)
	require.Equal(t, "claude-sonnet", model)

	assistant, ok := msgs[1].(*AssistantMessage)
	require.True(t, ok)
	require.Len(t, assistant.Content, 1)

	text, ok := assistant.Content[0].(*TextBlock)
	require.True(t, ok)
	require.Equal(t, "The answer is 4.", text.Text)

	result, ok := msgs[2].(*ResultMessage)
	require.True(t, ok)
	require.Equal(t, "success", result.Subtype)
	require.Equal(t, "abc", result.SessionID)
	require.Equal(t, 150, result.DurationMs)
	require.NotNil(t, result.TotalCostUSD)
	require.InDelta(t, 0.003, *result.TotalCostUSD, 1e-9)
}

func TestQuery_YieldsParseErrorsInSequence(t *testing.T) {
	t.Parallel()

	opts := stubOptions(t, `
printf '{"type":"assistant","message":{"content":[{"type":"text","text":"one"}]}}\n'
printf 'garbage output\n'
printf '{"type":"assistant","message":{"content":[{"type":"text","text":"two"}]}}\n'
`)

	var sequence []string

	for msg, err := range Query(context.Background(), "prompt", opts...) {
		switch {
		case err != nil:
			var parseErr *ParseError
			require.ErrorAs(t, err, &parseErr)
			require.Equal(t, "garbage output", parseErr.Line)

			sequence = append(sequence, "parse_error")
		default:
			sequence = append(sequence, msg.MessageType())
		}
	}

	require.Equal(t, []string{"assistant", "parse_error", "assistant"}, sequence)
}

func TestQuery_ProcessFailure(t *testing.T) {
	t.Parallel()

	opts := stubOptions(t, `
printf '{"type":"assistant","message":{"content":[{"type":"text","text":"partial work"}]}}\n'
echo 'fatal: out of quota' >&2
exit 7
`, WithEnv(map[string]string{"CLAUDE_API_KEY": "sk-never-print-me"}))

	var (
		msgs  []Message
		fatal error
	)

	for msg, err := range Query(context.Background(), "prompt", opts...) {
		if err != nil {
			fatal = err

			continue
		}

		msgs = append(msgs, msg)
	}

	// Messages produced before the failure are still delivered.
	require.Len(t, msgs, 1)

	var procErr *ProcessError
	require.ErrorAs(t, fatal, &procErr)
	require.Equal(t, 7, procErr.ExitCode)
	require.Contains(t, procErr.Stderr, "fatal: out of quota")
	require.NotContains(t, fatal.Error(), "sk-never-print-me")
}

func TestQuery_Timeout(t *testing.T) {
	t.Parallel()

	const timeout = 300 * time.Millisecond

	opts := stubOptions(t, `
printf '{"type":"assistant","message":{"content":[{"type":"text","text":"still going"}]}}\n'
exec sleep 30
`, WithTimeout(timeout))

	start := time.Now()

	var fatal error

	for _, err := range Query(context.Background(), "prompt", opts...) {
		if err != nil {
			fatal = err
		}
	}

	elapsed := time.Since(start)

	var timeoutErr *TimeoutError
	require.ErrorAs(t, fatal, &timeoutErr)
	require.Equal(t, timeout, timeoutErr.Timeout)
	require.NotEmpty(t, timeoutErr.Command)

	require.GreaterOrEqual(t, elapsed, timeout)
	require.Less(t, elapsed, 5*time.Second, "process must be killed promptly, not waited for")
}

func TestQuery_EarlyBreakKillsProcess(t *testing.T) {
	t.Parallel()

	opts := stubOptions(t, `
printf '{"type":"assistant","message":{"content":[{"type":"text","text":"first"}]}}\n'
printf '{"type":"assistant","message":{"content":[{"type":"text","text":"second"}]}}\n'
exec sleep 30
`)

	start := time.Now()

	for msg, err := range Query(context.Background(), "prompt", opts...) {
		require.NoError(t, err)
		require.NotNil(t, msg)

		break
	}

	// The deferred cleanup must not wait out the child's sleep.
	require.Less(t, time.Since(start), 5*time.Second)
}

func TestQuery_ContextCancellation(t *testing.T) {
	t.Parallel()

	opts := stubOptions(t, `exec sleep 30`)

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	start := time.Now()

	var fatal error

	for _, err := range Query(ctx, "prompt", opts...) {
		if err != nil {
			fatal = err
		}
	}

	require.ErrorIs(t, fatal, context.Canceled)
	require.Less(t, time.Since(start), 5*time.Second)
}

func TestQuery_InvalidCwd(t *testing.T) {
	t.Parallel()

	opts := stubOptions(t, `exit 0`,
		WithCwd(filepath.Join(t.TempDir(), "does-not-exist")))

	var fatal error

	count := 0

	for _, err := range Query(context.Background(), "prompt", opts...) {
		count++
		fatal = err
	}

	require.Equal(t, 1, count)

	var cfgErr *ConfigError
	require.ErrorAs(t, fatal, &cfgErr)
	require.Equal(t, "cwd", cfgErr.Parameter)
}

func TestQuery_NegativeTimeout(t *testing.T) {
	t.Parallel()

	opts := stubOptions(t, `exit 0`, WithTimeout(-time.Second))

	var fatal error

	for _, err := range Query(context.Background(), "prompt", opts...) {
		fatal = err
	}

	var cfgErr *ConfigError
	require.ErrorAs(t, fatal, &cfgErr)
	require.Equal(t, "timeout", cfgErr.Parameter)
}

func TestQuery_MissingBinary(t *testing.T) {
	t.Parallel()

	var fatal error

	for _, err := range Query(context.Background(), "prompt",
		WithCLIPath(filepath.Join(t.TempDir(), "nope")),
		WithoutVersionCheck(),
	) {
		fatal = err
	}

	var notFound *CLINotFoundError
	require.ErrorAs(t, fatal, &notFound)
}

func TestQuery_IsolatedEnvironment(t *testing.T) {
	t.Parallel()

	// The stub reports what it sees in its environment.
	opts := stubOptions(t, `
printf '{"type":"system","subtype":"env_report","marker":"%s","home":"%s"}\n' "${MARKER:-unset}" "${HOME:-unset}"
`,
		WithIsolatedEnv(),
		WithEnv(map[string]string{"MARKER": "via-override"}),
	)

	var system *SystemMessage

	for msg, err := range Query(context.Background(), "prompt", opts...) {
		require.NoError(t, err)

		if s, ok := msg.(*SystemMessage); ok {
			system = s
		}
	}

	require.NotNil(t, system)

	marker, ok := system.Data.String("marker")
	require.True(t, ok)
	require.Equal(t, "via-override", marker)

	home, ok := system.Data.String("home")
	require.True(t, ok)
	require.Equal(t, "unset", home, "inherited variables must not reach an isolated child")
}

func TestQuery_AllErrorsImplementStreamError(t *testing.T) {
	t.Parallel()

	opts := stubOptions(t, `exit 9`)

	for _, err := range Query(context.Background(), "prompt", opts...) {
		if err == nil {
			continue
		}

		var streamErr StreamError
		require.True(t, errors.As(err, &streamErr))
	}
}
